package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"disk-guider/config"
	"disk-guider/internal/api/rest"
	"disk-guider/internal/api/telegram"
	app "disk-guider/internal/application"
	"disk-guider/internal/container"
	"disk-guider/internal/domain/entity"
	"disk-guider/internal/domain/port"
	"disk-guider/internal/infrastructure/frames"
	"disk-guider/internal/infrastructure/observability"
	"disk-guider/internal/infrastructure/storage"
	"disk-guider/internal/infrastructure/vision"
	"disk-guider/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		ServiceName: cfg.TracingServiceName,
		Exporter:    "stdout",
		SampleRatio: 1,
	}, logger)
	if err != nil {
		logger.Fatalf("Failed to init tracing: %v", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	collector, err := observability.NewDetectionCollector(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatalf("Failed to register metrics: %v", err)
	}

	primitives := vision.NewGoCVPrimitives()
	if !primitives.Available() {
		logger.Warn("built without the gocv tag: edge detection is unavailable, every frame will fail")
	}

	// Бот нужен до сборки сервисов: через него уходят предупреждения детектора.
	var botAPI *tgbotapi.BotAPI
	if cfg.TelegramToken != "" {
		botAPI, err = tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			logger.Fatalf("Failed to create bot: %v", err)
		}
	}

	codec := frames.NewCodec()
	deps := container.Deps{
		Subscribers: storage.NewMemorySubscriberRepository(),
		Primitives:  primitives,
		Codec:       codec,
		Recorder:    collector,
		Logger:      logger,
	}
	if botAPI != nil {
		deps.NewNotifier = func(subs *app.SubscriptionService) port.AdvisoryNotifier {
			return telegram.NewNotifier(botAPI, subs, logger)
		}
	}

	services := container.New(deps, app.TrackerOptions{
		Params:       cfg.Detection,
		MaxWorkers:   cfg.RefineMaxWorkers,
		ShowFeatures: cfg.ShowFeatures,
	})
	logger.WithField("session", services.Tracker.Session()).Info("guider session started")

	replay(ctx, services, codec, os.Args[1:], logger)

	if cfg.HTTPAddr == "" && botAPI == nil {
		return
	}

	errCh := make(chan error, 2)

	var server *http.Server
	if cfg.HTTPAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		router := gin.New()
		router.Use(gin.Recovery())
		rest.NewGuiderHandler(services, collector.Handler(), logger).RegisterRoutes(router)

		server = &http.Server{Addr: cfg.HTTPAddr, Handler: router}
		go func() {
			logger.Infof("HTTP API listening on %s", cfg.HTTPAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	if botAPI != nil {
		bot := telegram.NewBot(botAPI, services, logger)
		go func() {
			logger.Info("Bot is running...")
			if err := bot.Run(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Errorf("service error: %v", err)
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("HTTP shutdown failed")
		}
	}
}

// replay прогоняет файлы кадров через трекер как одну сессию захвата.
func replay(ctx context.Context, services *container.Container, codec *frames.Codec, paths []string, logger *logrus.Logger) {
	if len(paths) == 0 {
		return
	}

	tracker := services.Tracker
	tracker.NotifyCaptureStateChanged(true)
	defer tracker.NotifyCaptureStateChanged(false)

	for i, path := range paths {
		if ctx.Err() != nil {
			return
		}
		frame, err := codec.LoadFile(path)
		if err != nil {
			logger.WithError(err).Warn("skipping frame")
			continue
		}

		entry := logger.WithField("frame", path)
		result, err := tracker.Detect(ctx, frame, i == 0)
		switch {
		case err == nil:
			entry.WithFields(logrus.Fields{
				"x":      result.CenterX,
				"y":      result.CenterY,
				"radius": result.Radius,
				"score":  result.Score,
			}).Info(result.Status)
		case errors.Is(err, entity.ErrNotFound):
			entry.Info(tracker.StatusMessage())
		default:
			entry.WithError(err).Warn("detection failed")
		}
	}
}
