package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"disk-guider/internal/domain/entity"
	"disk-guider/internal/domain/port"
)

// sender отправка сообщений в Telegram (tgbotapi.BotAPI)
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// recipientSource источник чатов для рассылки
type recipientSource interface {
	Recipients(ctx context.Context) ([]int64, error)
}

// Notifier рассылает предупреждения детектора подписанным чатам
type Notifier struct {
	api        sender
	recipients recipientSource
	logger     *logrus.Logger
}

// NewNotifier создаёт рассылку предупреждений
func NewNotifier(api sender, recipients recipientSource, logger *logrus.Logger) *Notifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Notifier{api: api, recipients: recipients, logger: logger}
}

// Notify отправляет предупреждение всем активным подписчикам
func (n *Notifier) Notify(ctx context.Context, advisory entity.Advisory) error {
	chats, err := n.recipients.Recipients(ctx)
	if err != nil {
		return fmt.Errorf("list recipients: %w", err)
	}

	text := formatAdvisory(advisory)
	var errs []error
	for _, chatID := range chats {
		if _, err := n.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}

	n.logger.WithFields(logrus.Fields{
		"level":      advisory.Level,
		"recipients": len(chats),
		"failed":     len(errs),
	}).Info("advisory delivered")
	return errors.Join(errs...)
}

func formatAdvisory(advisory entity.Advisory) string {
	if advisory.Level == entity.AdvisoryError {
		return "⛔️ " + advisory.Message
	}
	return "⚠️ " + advisory.Message
}

var _ port.AdvisoryNotifier = (*Notifier)(nil)
