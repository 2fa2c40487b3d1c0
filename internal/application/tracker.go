package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"disk-guider/internal/domain/entity"
	"disk-guider/internal/domain/port"
)

const tracerName = "disk-guider/internal/application"

// Число расширений карты границ перед поиском контуров.
const dilateIterations = 2

var errPrimitivesPanic = errors.New("geometry primitives panicked")

// Сообщения пользователю.
const (
	statusNotFound       = "Object not found"
	adviceFrameTooLarge  = "camera frame size exceeds maximum limit. Please apply binning to reduce the frame size."
	adviceTooManyPoints  = "Too many contour points detected. Please apply pixel binning, enable ROI, or increase the Edge Detection Threshold."
	adviceGeometryFailed = "exception occurred during image processing: change detection parameters"
)

// TrackerOptions настройки сессии гидирования.
type TrackerOptions struct {
	Params       entity.DetectionParameters
	Selector     SelectorConfig
	MaxWorkers   int  // предел горутин уточнения, 0 без ограничения
	ShowFeatures bool // показывать внутренние признаки при старте захвата
}

// DiskTracker сессия гидирования по протяжённому объекту: владеет
// параметрами обнаружения и состоянием трекинга между кадрами.
// Detect вызывается из одной горутины захвата; остальные методы можно
// вызывать конкурентно.
type DiskTracker struct {
	primitives port.GeometryPrimitives
	selector   *Selector
	visual     *VisualState
	notifier   port.AdvisoryNotifier
	recorder   port.DetectionRecorder
	logger     *logrus.Logger
	tracer     trace.Tracer
	session    string

	mu                sync.Mutex
	params            entity.DetectionParameters
	state             entity.TrackingState
	showFeatures      bool
	prevCaptureActive bool
	unknownHFD        bool
	sharpness         float64
	status            string
	last              *entity.DetectionResult
	lastAdvisory      *entity.Advisory
}

// NewDiskTracker создаёт сессию гидирования. notifier и recorder
// необязательны.
func NewDiskTracker(primitives port.GeometryPrimitives, notifier port.AdvisoryNotifier, recorder port.DetectionRecorder,
	logger *logrus.Logger, opts TrackerOptions) *DiskTracker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.Selector == (SelectorConfig{}) {
		opts.Selector = DefaultSelectorConfig()
	}
	if opts.Params == (entity.DetectionParameters{}) {
		opts.Params = entity.DefaultDetectionParameters()
	}
	params := opts.Params.Normalize()

	return &DiskTracker{
		primitives:   primitives,
		selector:     NewSelector(opts.Selector, primitives, NewRefiner(opts.MaxWorkers, logger)),
		visual:       NewVisualState(false),
		notifier:     notifier,
		recorder:     recorder,
		logger:       logger,
		tracer:       otel.Tracer(tracerName),
		session:      uuid.NewString(),
		params:       params,
		showFeatures: opts.ShowFeatures,
		unknownHFD:   true,
		status:       statusNotFound,
	}
}

// Session возвращает идентификатор сессии гидирования.
func (t *DiskTracker) Session() string {
	return t.session
}

// Detect ищет диск на кадре. При неудаче возвращает ошибку:
// ErrNotFound, ErrFrameTooLarge, ErrTooManyContourPoints,
// ErrDetectionPaused или обёрнутую ошибку примитивов. Ни одна из них
// не прерывает сессию; следующий кадр обрабатывается заново.
func (t *DiskTracker) Detect(ctx context.Context, frame *entity.Frame, autoSelect bool) (*entity.DetectionResult, error) {
	start := time.Now()
	ctx, span := t.tracer.Start(ctx, "DiskTracker.Detect", trace.WithAttributes(
		attribute.String("session", t.session),
		attribute.Bool("auto_select", autoSelect),
	))
	defer span.End()

	t.mu.Lock()
	params := t.params
	state := t.state
	t.status = statusNotFound
	t.mu.Unlock()

	stats := entity.DetectionStats{Outcome: entity.OutcomeNotFound, MeasureSharp: state.MeasuringSharpness}
	defer func() {
		stats.Elapsed = time.Since(start)
		if t.recorder != nil {
			t.recorder.ObserveDetection(stats)
		}
		span.SetAttributes(attribute.String("outcome", stats.Outcome), attribute.Float64("score", stats.Score))
	}()

	if state.Paused {
		stats.Outcome = entity.OutcomePaused
		t.fail(state, "")
		return nil, entity.ErrDetectionPaused
	}

	if autoSelect {
		state.ClearClick()
	}
	click := state.Click
	clickActive := state.UserClick && params.RoiEnabled

	prepared, err := PrepareFrame(frame, params, &state, autoSelect)
	if err != nil {
		if errors.Is(err, entity.ErrFrameTooLarge) {
			stats.Outcome = entity.OutcomeFrameTooLarge
			t.logger.WithFields(logrus.Fields{
				"session": t.session,
				"width":   frame.Width,
				"height":  frame.Height,
			}).Warn("frame is too large")
			t.advise(ctx, entity.Advisory{Level: entity.AdvisoryError, Message: adviceFrameTooLarge})
		}
		t.fail(state, "")
		return nil, err
	}
	state.ROIActive = prepared.ROIActive
	span.SetAttributes(attribute.Bool("roi", prepared.ROIActive))

	contours, err := t.findContours(prepared.Image, params)
	if err != nil {
		return nil, t.geometryFailed(ctx, span, state, &stats, err)
	}

	sel, err := t.selectDisk(contours, params, prepared.ROI, click, clickActive)
	if errors.Is(err, errPrimitivesPanic) {
		return nil, t.geometryFailed(ctx, span, state, &stats, err)
	}
	stats.ContoursTotal = sel.ContoursTotal
	stats.ContourPoints = sel.ContourPoints
	if err != nil {
		stats.Outcome = entity.OutcomeTooManyPoints
		t.logger.WithFields(logrus.Fields{
			"session": t.session,
			"points":  sel.ContourPoints,
		}).Warn("too many contour points detected")
		t.advise(ctx, entity.Advisory{Level: entity.AdvisoryWarning, Message: adviceTooManyPoints})
		t.fail(state, adviceTooManyPoints)
		return nil, err
	}

	stats.ContoursMatched = sel.ContoursMatched
	stats.Score = sel.Score
	stats.Workers = sel.Workers
	if sel.Best != nil {
		stats.BestPoints = len(sel.Best.Points)
	}

	t.visual.SetROI(prepared.ROI)
	t.visual.Publish(visualSnapshot(sel, prepared.ROI))

	var result *entity.DetectionResult
	if sel.Found() {
		result = t.buildResult(sel, prepared.ROI)
		state.RecordSuccess(result.Center(), result.Radius)
		stats.Outcome = entity.OutcomeFound
		stats.Radius = result.Radius
	}

	var sharpness float64
	if state.MeasuringSharpness {
		sharpness, err = t.measureSharpness(frame, params, state, result)
		if err != nil {
			t.logger.WithField("session", t.session).Warnf("sharpness measurement failed: %v", err)
		}
		stats.Sharpness = sharpness
	}

	t.logger.WithFields(logrus.Fields{
		"session":  t.session,
		"elapsed":  time.Since(start),
		"score":    sel.Score,
		"radius":   stats.Radius,
		"contours": fmt.Sprintf("%d/%d", sel.ContoursMatched, sel.ContoursTotal),
		"workers":  sel.Workers,
	}).Debug("disk detection finished")

	if result == nil {
		if state.MeasuringSharpness {
			t.mu.Lock()
			t.sharpness = sharpness
			t.unknownHFD = false
			t.mu.Unlock()
		}
		t.fail(state, "")
		return nil, entity.ErrNotFound
	}

	t.mu.Lock()
	t.commit(state)
	if state.MeasuringSharpness {
		t.sharpness = sharpness
	}
	t.unknownHFD = false
	t.status = result.Status
	t.last = result
	t.mu.Unlock()

	return result, nil
}

// SelectAt выбирает цель по точке, указанной пользователем, и сразу
// запускает обнаружение. Точка ограничивается границами кадра.
func (t *DiskTracker) SelectAt(ctx context.Context, frame *entity.Frame, x, y float64) (*entity.DetectionResult, error) {
	if frame.Empty() {
		return nil, entity.ErrNoFrame
	}
	x = math.Max(0, math.Min(x, float64(frame.Width-1)))
	y = math.Max(0, math.Min(y, float64(frame.Height-1)))

	t.mu.Lock()
	t.state.SetClick(entity.Point{X: x, Y: y})
	t.mu.Unlock()

	t.logger.WithFields(logrus.Fields{"session": t.session, "x": x, "y": y}).Info("target selected by user")
	return t.Detect(ctx, frame, false)
}

// geometryFailed завершает кадр после сбоя примитивов обработки.
func (t *DiskTracker) geometryFailed(ctx context.Context, span trace.Span, state entity.TrackingState,
	stats *entity.DetectionStats, err error) error {
	stats.Outcome = entity.OutcomeGeometryFailed
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	t.logger.WithField("session", t.session).Errorf("image processing failed: %v", err)
	t.advise(ctx, entity.Advisory{Level: entity.AdvisoryError, Message: adviceGeometryFailed})
	t.fail(state, "")
	return fmt.Errorf("detect disk: %w", err)
}

// recoverPrimitives переводит панику примитивов в ошибку кадра.
func recoverPrimitives(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", errPrimitivesPanic, r)
	}
}

func (t *DiskTracker) selectDisk(contours []entity.Contour, params entity.DetectionParameters, roi image.Rectangle,
	click entity.Point, clickActive bool) (sel *Selection, err error) {
	defer recoverPrimitives(&err)
	return t.selector.Select(contours, params, roi, click, clickActive)
}

func (t *DiskTracker) findContours(img *image.Gray, params entity.DetectionParameters) (contours []entity.Contour, err error) {
	defer recoverPrimitives(&err)

	blurred, err := t.primitives.Blur(img)
	if err != nil {
		return nil, fmt.Errorf("blur: %w", err)
	}
	edges, err := t.primitives.EdgeDetect(blurred, float64(params.LowThreshold), float64(params.HighThreshold))
	if err != nil {
		return nil, fmt.Errorf("edge detection: %w", err)
	}
	dilated, err := t.primitives.Dilate(edges, dilateIterations)
	if err != nil {
		return nil, fmt.Errorf("dilate: %w", err)
	}
	contours, err = t.primitives.FindContours(dilated)
	if err != nil {
		return nil, fmt.Errorf("find contours: %w", err)
	}
	return contours, nil
}

func (t *DiskTracker) buildResult(sel *Selection, roi image.Rectangle) *entity.DetectionResult {
	dx, dy := float64(roi.Min.X), float64(roi.Min.Y)
	r := &entity.DetectionResult{
		CenterX:      dx + sel.Disk.X,
		CenterY:      dy + sel.Disk.Y,
		Radius:       int(math.Round(sel.Disk.Radius)),
		Score:        math.Min(1, math.Max(0, sel.Score)),
		Eccentricity: sel.Best.Eccentricity,
		Angle:        sel.Best.Angle,
		ROI:          roi,
		Contour:      make([]entity.Point, len(sel.Best.Points)),
	}
	for i, p := range sel.Best.Points {
		r.Contour[i] = p.Add(dx, dy)
	}
	r.Status = fmt.Sprintf("Object at (%.1f, %.1f) radius=%d", r.CenterX, r.CenterY, r.Radius)
	return r
}

func (t *DiskTracker) measureSharpness(frame *entity.Frame, params entity.DetectionParameters,
	state entity.TrackingState, result *entity.DetectionResult) (float64, error) {
	var focus image.Point
	hasFocus := true
	switch {
	case result != nil:
		focus = image.Pt(int(result.CenterX), int(result.CenterY))
	case !state.Click.IsZero():
		focus = image.Pt(int(state.Click.X), int(state.Click.Y))
	default:
		hasFocus = false
	}
	return Sharpness(frame, SharpnessWindow(frame.Size(), params.MaxRadius, focus, hasFocus), t.primitives)
}

// fail сбрасывает непрерывность трекинга после неудачного кадра.
func (t *DiskTracker) fail(state entity.TrackingState, status string) {
	state.Reset()
	t.visual.ClearContour()

	t.mu.Lock()
	t.commit(state)
	if status != "" {
		t.status = status
	}
	t.mu.Unlock()
}

// commit сохраняет состояние трекинга, не затирая флаги, которые могли
// быть изменены конкурентно. Вызывается под t.mu.
func (t *DiskTracker) commit(state entity.TrackingState) {
	state.Paused = t.state.Paused
	state.MeasuringSharpness = t.state.MeasuringSharpness
	t.state = state
}

func (t *DiskTracker) advise(ctx context.Context, advisory entity.Advisory) {
	t.mu.Lock()
	t.lastAdvisory = &advisory
	t.mu.Unlock()

	if t.notifier == nil {
		return
	}
	if err := t.notifier.Notify(ctx, advisory); err != nil {
		t.logger.WithField("session", t.session).Errorf("failed to deliver advisory: %v", err)
	}
}

func visualSnapshot(sel *Selection, roi image.Rectangle) entity.VisualSnapshot {
	snap := entity.VisualSnapshot{ROI: roi}
	if sel.Best == nil {
		return snap
	}
	snap.Contour = sel.Best.Points
	snap.Centroid = sel.Best.Centroid.Center()
	snap.Circle = sel.Best.Circle.Center()
	return snap
}

// SetDetectionPaused приостанавливает или возобновляет обнаружение.
func (t *DiskTracker) SetDetectionPaused(paused bool) {
	t.mu.Lock()
	t.state.Paused = paused
	t.mu.Unlock()
}

// DetectionPaused сообщает, приостановлено ли обнаружение.
func (t *DiskTracker) DetectionPaused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Paused
}

// SetRoiEnabled включает или выключает обработку только области интереса.
func (t *DiskTracker) SetRoiEnabled(enabled bool) {
	t.mu.Lock()
	t.params.RoiEnabled = enabled
	t.mu.Unlock()
}

// ToggleSharpnessMode переключает отчёт между радиусом и резкостью.
// Возвращает новое состояние режима резкости.
func (t *DiskTracker) ToggleSharpnessMode() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.MeasuringSharpness = !t.state.MeasuringSharpness
	t.unknownHFD = true
	return t.state.MeasuringSharpness
}

// HFD возвращает резкость в режиме резкости, иначе радиус найденного
// диска (0 если не найден). NaN, пока значение неизвестно.
func (t *DiskTracker) HFD() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.unknownHFD:
		return math.NaN()
	case t.state.MeasuringSharpness:
		return t.sharpness
	case t.state.Detected:
		return float64(t.state.LastRadius)
	default:
		return 0
	}
}

// HFDLabel подпись к значению HFD.
func (t *DiskTracker) HFDLabel() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.MeasuringSharpness {
		return "SHARPNESS: "
	}
	return "RADIUS: "
}

// PixelMetrics сообщает, что HFD измеряется в пикселях.
func (t *DiskTracker) PixelMetrics() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.state.MeasuringSharpness
}

// VisualizationSnapshot возвращает копию данных для отрисовки.
func (t *DiskTracker) VisualizationSnapshot() entity.VisualSnapshot {
	return t.visual.Snapshot()
}

// SetVisualElements включает или выключает публикацию внутренних признаков.
func (t *DiskTracker) SetVisualElements(enabled bool) {
	t.mu.Lock()
	t.showFeatures = enabled
	t.mu.Unlock()
	t.visual.SetEnabled(enabled)
}

// NotifyCaptureStateChanged обрабатывает старт и остановку захвата.
// Возвращает true, если отображение нужно обновить.
func (t *DiskTracker) NotifyCaptureStateChanged(active bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	needUpdate := false
	if t.prevCaptureActive != active {
		if !active {
			t.visual.SetEnabled(false)
			t.state.Reset()
			t.state.ClearClick()
			needUpdate = true
		} else if t.showFeatures {
			t.visual.SetEnabled(true)
		}
	}
	// Без захвата гидирования нет, пауза снимается.
	if !active {
		t.state.Paused = false
	}
	t.prevCaptureActive = active
	return needUpdate
}

// NotifyCameraConnectionChanged забывает точку клика при смене камеры.
func (t *DiskTracker) NotifyCameraConnectionChanged(connected bool) {
	t.mu.Lock()
	t.state.UserClick = false
	t.mu.Unlock()

	t.logger.WithFields(logrus.Fields{"session": t.session, "connected": connected}).Info("camera connection changed")
}

// DetectionStatus строка с положением и радиусом объекта.
func (t *DiskTracker) DetectionStatus() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fmt.Sprintf("Object at (%.1f, %.1f) radius=%d", t.state.LastCenter.X, t.state.LastCenter.Y, t.state.LastRadius)
}

// StatusMessage сообщение о результате последнего кадра.
func (t *DiskTracker) StatusMessage() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// LastResult возвращает последний успешный результат.
func (t *DiskTracker) LastResult() (*entity.DetectionResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return nil, false
	}
	r := *t.last
	return &r, true
}

// LastAdvisory возвращает последнее предупреждение пользователю.
func (t *DiskTracker) LastAdvisory() (entity.Advisory, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastAdvisory == nil {
		return entity.Advisory{}, false
	}
	return *t.lastAdvisory, true
}

// Parameters возвращает текущие параметры обнаружения.
func (t *DiskTracker) Parameters() entity.DetectionParameters {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.params
}

// SetParameters нормализует и применяет параметры обнаружения.
func (t *DiskTracker) SetParameters(p entity.DetectionParameters) (entity.DetectionParameters, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return t.Parameters(), err
	}
	t.mu.Lock()
	t.params = p
	t.mu.Unlock()
	return p, nil
}

// State возвращает копию состояния трекинга.
func (t *DiskTracker) State() entity.TrackingState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
