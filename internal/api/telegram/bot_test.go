package telegram

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	app "disk-guider/internal/application"
	"disk-guider/internal/container"
	"disk-guider/internal/domain/entity"
	"disk-guider/internal/infrastructure/geometry"
	"disk-guider/internal/infrastructure/storage"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
	fail map[int64]bool
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok && s.fail[msg.ChatID] {
		return tgbotapi.Message{}, errors.New("blocked by user")
	}
	s.sent = append(s.sent, c)
	return tgbotapi.Message{}, nil
}

func (s *fakeSender) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg.Text)
		}
	}
	return out
}

type noContours struct{ geometry.Kernel }

func (noContours) Blur(src *image.Gray) (*image.Gray, error)                          { return src, nil }
func (noContours) EdgeDetect(src *image.Gray, low, high float64) (*image.Gray, error) { return src, nil }
func (noContours) Dilate(src *image.Gray, iterations int) (*image.Gray, error)        { return src, nil }
func (noContours) FindContours(src *image.Gray) ([]entity.Contour, error)             { return nil, nil }
func (noContours) SobelMean(samples []float64, width, height int) (float64, error)    { return 0, nil }

func newTestBot(t *testing.T) (*Bot, *fakeSender) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	services := container.New(container.Deps{
		Subscribers: storage.NewMemorySubscriberRepository(),
		Primitives:  noContours{},
		Logger:      logger,
	}, app.TrackerOptions{})

	out := &fakeSender{}
	return &Bot{out: out, services: services, logger: logger}, out
}

func TestBot_StartStop(t *testing.T) {
	bot, _ := newTestBot(t)
	ctx := context.Background()

	require.Equal(t, msgStart, bot.reply(ctx, 1, 10, "start", ""))
	chats, err := bot.services.Subscriptions.Recipients(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{10}, chats)

	require.Equal(t, msgStopped, bot.reply(ctx, 1, 10, "stop", ""))
	chats, err = bot.services.Subscriptions.Recipients(ctx)
	require.NoError(t, err)
	require.Empty(t, chats)
}

func TestBot_ControlCommands(t *testing.T) {
	bot, _ := newTestBot(t)
	ctx := context.Background()
	tracker := bot.services.Tracker

	require.Equal(t, msgPaused, bot.reply(ctx, 1, 10, "pause", ""))
	require.True(t, tracker.DetectionPaused())
	require.Equal(t, msgResumed, bot.reply(ctx, 1, 10, "resume", ""))
	require.False(t, tracker.DetectionPaused())

	bot.reply(ctx, 1, 10, "roi", " ON ")
	require.True(t, tracker.Parameters().RoiEnabled)
	bot.reply(ctx, 1, 10, "roi", "off")
	require.False(t, tracker.Parameters().RoiEnabled)
	require.Equal(t, msgRoiUsage, bot.reply(ctx, 1, 10, "roi", "maybe"))

	bot.reply(ctx, 1, 10, "sharpness", "")
	require.True(t, tracker.State().MeasuringSharpness)
	require.Equal(t, "SHARPNESS: unknown", bot.reply(ctx, 1, 10, "hfd", ""))

	require.Equal(t, msgUnknownCommand, bot.reply(ctx, 1, 10, "launch", ""))
	require.Equal(t, msgHelp, bot.reply(ctx, 1, 10, "help", ""))
}

func TestBot_StatusAndSelect(t *testing.T) {
	bot, _ := newTestBot(t)
	ctx := context.Background()

	require.Equal(t, "🔍 Object not found", bot.reply(ctx, 1, 10, "status", ""))
	require.Equal(t, msgSelectUsage, bot.reply(ctx, 1, 10, "select", "12"))
	require.Equal(t, msgNoFrame, bot.reply(ctx, 1, 10, "select", "12 34"))

	_, err := bot.services.Frames.Process(ctx, entity.NewFrame(320, 240, 8), false)
	require.ErrorIs(t, err, entity.ErrNotFound)
	require.Equal(t, msgNotFound, bot.reply(ctx, 1, 10, "select", "12 34"))
}

func TestBot_HandleMessage(t *testing.T) {
	bot, out := newTestBot(t)
	ctx := context.Background()

	bot.handleMessage(ctx, &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1},
		Chat: &tgbotapi.Chat{ID: 10},
		Text: "hello",
	})
	bot.handleMessage(ctx, &tgbotapi.Message{
		From:     &tgbotapi.User{ID: 1},
		Chat:     &tgbotapi.Chat{ID: 10},
		Text:     "/pause",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
	})

	require.Equal(t, []string{msgSendFrame, msgPaused}, out.texts())
	require.True(t, bot.services.Tracker.DetectionPaused())
}

func TestFormatHFD(t *testing.T) {
	require.Equal(t, "RADIUS: 120.00", formatHFD("RADIUS: ", 120))
}

func TestFrameError(t *testing.T) {
	require.Equal(t, msgPaused, frameError(entity.ErrDetectionPaused))
	require.Equal(t, "⚠️ "+entity.ErrFrameTooLarge.Error(), frameError(entity.ErrFrameTooLarge))
	require.Equal(t, msgProcessingError, frameError(errors.New("boom")))
}
