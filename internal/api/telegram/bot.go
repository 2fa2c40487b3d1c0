package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"disk-guider/internal/container"
	"disk-guider/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я слежу за гидированием по диску планеты или Луны.

🔔 Вы подписаны на предупреждения детектора.

📋 Команды:
/status — текущее положение диска
/help — справка
/stop — отключить предупреждения`

	msgHelp = `ℹ️ Как пользоваться ботом:

📸 Отправьте кадр (PNG, JPEG или 16-битный TIFF документом), и я найду на нём диск.

📋 Команды:
/status — положение и радиус диска
/hfd — радиус или резкость
/pause, /resume — приостановить или возобновить обнаружение
/roi on|off — область интереса вокруг диска
/sharpness — переключить режим измерения резкости
/select x y — выбрать цель на последнем кадре
/start, /stop — включить или отключить предупреждения`

	msgStopped         = "🔕 Предупреждения отключены. Отправьте /start, чтобы включить снова."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgSendFrame       = "📸 Отправьте кадр для обнаружения диска или /help для справки."
	msgPaused          = "⏸ Обнаружение приостановлено."
	msgResumed         = "▶️ Обнаружение возобновлено."
	msgRoiUsage        = "Использование: /roi on или /roi off"
	msgSelectUsage     = "Использование: /select x y"
	msgNoFrame         = "📭 Кадров ещё не было. Сначала отправьте кадр."
	msgNotFound        = "🔍 Диск не найден."
	msgProcessingError = "⚠️ Не удалось обработать кадр."
)

// Bot представляет Telegram-бота
type Bot struct {
	api      *tgbotapi.BotAPI
	out      sender
	services *container.Container
	logger   *logrus.Logger
}

// NewBot создаёт нового бота
func NewBot(api *tgbotapi.BotAPI, services *container.Container, logger *logrus.Logger) *Bot {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.Infof("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:      api,
		out:      api,
		services: services,
		logger:   logger,
	}
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if _, err := b.services.Subscriptions.Get(ctx, msg.From.ID, msg.Chat.ID); err != nil {
		b.logger.WithError(err).Error("failed to load subscriber")
		return
	}

	if msg.IsCommand() {
		b.sendMessage(msg.Chat.ID, b.reply(ctx, msg.From.ID, msg.Chat.ID, msg.Command(), msg.CommandArguments()))
		return
	}

	fileID := ""
	switch {
	case len(msg.Photo) > 0:
		fileID = msg.Photo[len(msg.Photo)-1].FileID
	case msg.Document != nil:
		fileID = msg.Document.FileID
	}
	if fileID == "" {
		b.sendMessage(msg.Chat.ID, msgSendFrame)
		return
	}
	b.handleFrame(ctx, msg.Chat.ID, fileID)
}

// reply выполняет команду и возвращает текст ответа
func (b *Bot) reply(ctx context.Context, userID, chatID int64, command, args string) string {
	tracker := b.services.Tracker

	switch command {
	case "start":
		if _, err := b.services.Subscriptions.Subscribe(ctx, userID, chatID); err != nil {
			b.logger.WithError(err).Error("failed to subscribe")
			return msgProcessingError
		}
		return msgStart

	case "stop":
		if _, err := b.services.Subscriptions.Mute(ctx, userID, chatID); err != nil {
			b.logger.WithError(err).Error("failed to mute")
			return msgProcessingError
		}
		return msgStopped

	case "help":
		return msgHelp

	case "status":
		state := tracker.State()
		if !state.Detected {
			return "🔍 " + tracker.StatusMessage()
		}
		return "🎯 " + tracker.DetectionStatus()

	case "hfd":
		return formatHFD(tracker.HFDLabel(), tracker.HFD())

	case "pause":
		tracker.SetDetectionPaused(true)
		return msgPaused

	case "resume":
		tracker.SetDetectionPaused(false)
		return msgResumed

	case "roi":
		switch strings.ToLower(strings.TrimSpace(args)) {
		case "on":
			tracker.SetRoiEnabled(true)
			return "🔲 ROI включён."
		case "off":
			tracker.SetRoiEnabled(false)
			return "⬜️ ROI выключен."
		}
		return msgRoiUsage

	case "sharpness":
		if tracker.ToggleSharpnessMode() {
			return "🔬 Режим резкости включён."
		}
		return "📏 Режим радиуса включён."

	case "select":
		x, y, ok := parsePoint(args)
		if !ok {
			return msgSelectUsage
		}
		out, err := b.services.Frames.SelectAt(ctx, x, y)
		if err != nil {
			return frameError(err)
		}
		return "🎯 " + out.Result.Status
	}

	return msgUnknownCommand
}

// handleFrame скачивает кадр и запускает обнаружение
func (b *Bot) handleFrame(ctx context.Context, chatID int64, fileID string) {
	data, err := b.downloadFile(fileID)
	if err != nil {
		b.logger.WithError(err).Error("failed to download frame")
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	out, err := b.services.Frames.ProcessFrame(ctx, data, false)
	if err != nil {
		b.logger.WithError(err).Warn("frame processing failed")
		b.sendMessage(chatID, frameError(err))
		return
	}

	if len(out.Highlighted) == 0 {
		b.sendMessage(chatID, "🎯 "+out.Result.Status)
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "disk.png", Bytes: out.Highlighted})
	photo.Caption = "🎯 " + out.Result.Status
	if _, err := b.out.Send(photo); err != nil {
		b.logger.WithError(err).Error("failed to send preview")
	}
}

func frameError(err error) string {
	switch {
	case errors.Is(err, entity.ErrNoFrame):
		return msgNoFrame
	case errors.Is(err, entity.ErrNotFound):
		return msgNotFound
	case errors.Is(err, entity.ErrDetectionPaused):
		return msgPaused
	case errors.Is(err, entity.ErrUnsupportedFrame):
		return "🖼 Формат кадра не поддерживается. Используйте PNG, JPEG или TIFF."
	case errors.Is(err, entity.ErrFrameTooLarge), errors.Is(err, entity.ErrTooManyContourPoints):
		return "⚠️ " + err.Error()
	}
	return msgProcessingError
}

func formatHFD(label string, value float64) string {
	if math.IsNaN(value) {
		return label + "unknown"
	}
	return fmt.Sprintf("%s%.2f", label, value)
}

func parsePoint(args string) (float64, float64, bool) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return 0, 0, false
	}
	x, errX := strconv.ParseFloat(fields[0], 64)
	y, errY := strconv.ParseFloat(fields[1], 64)
	if errX != nil || errY != nil {
		return 0, 0, false
	}
	return x, y, true
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	fileURL := file.Link(b.api.Token)

	resp, err := http.Get(fileURL)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.out.Send(msg); err != nil {
		b.logger.WithError(err).Error("failed to send message")
	}
}
