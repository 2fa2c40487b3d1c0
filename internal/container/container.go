package container

import (
	"github.com/sirupsen/logrus"

	app "disk-guider/internal/application"
	"disk-guider/internal/domain/port"
)

// Deps внешние зависимости сервисов приложения.
type Deps struct {
	Subscribers port.SubscriberRepository
	Primitives  port.GeometryPrimitives
	Codec       port.FrameCodec
	Recorder    port.DetectionRecorder
	Logger      *logrus.Logger
	// NewNotifier строит канал предупреждений поверх подписок; nil отключает рассылку.
	NewNotifier func(subs *app.SubscriptionService) port.AdvisoryNotifier
}

type Container struct {
	Subscriptions *app.SubscriptionService
	Tracker       *app.DiskTracker
	Frames        *app.FrameService
}

func New(deps Deps, opts app.TrackerOptions) *Container {
	subscriptions := app.NewSubscriptionService(deps.Subscribers)

	var notifier port.AdvisoryNotifier
	if deps.NewNotifier != nil {
		notifier = deps.NewNotifier(subscriptions)
	}

	tracker := app.NewDiskTracker(deps.Primitives, notifier, deps.Recorder, deps.Logger, opts)
	frames := app.NewFrameService(tracker, deps.Codec)

	return &Container{
		Subscriptions: subscriptions,
		Tracker:       tracker,
		Frames:        frames,
	}
}
