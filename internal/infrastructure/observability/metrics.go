package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"disk-guider/internal/domain/entity"
	"disk-guider/internal/domain/port"
)

// DetectionCollector bundles Prometheus metrics for the disk detector and
// implements port.DetectionRecorder.
type DetectionCollector struct {
	gatherer prometheus.Gatherer

	Frames          *prometheus.CounterVec
	Duration        prometheus.Histogram
	Score           prometheus.Gauge
	Radius          prometheus.Gauge
	Sharpness       prometheus.Gauge
	ContoursTotal   prometheus.Gauge
	ContoursMatched prometheus.Gauge
	ContourPoints   prometheus.Gauge
	Workers         prometheus.Gauge
}

// NewDetectionCollector registers detector metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewDetectionCollector(reg prometheus.Registerer) (*DetectionCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frames, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "disk_frames_total",
		Help: "Total number of processed frames, labeled by detection outcome.",
	}, []string{"outcome"}), "disk_frames_total")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "disk_detection_duration_seconds",
		Help:    "Time spent detecting the disk on one frame.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}), "disk_detection_duration_seconds")
	if err != nil {
		return nil, err
	}

	c := &DetectionCollector{gatherer: gatherer, Frames: frames, Duration: duration}
	gauges := []struct {
		dst  *prometheus.Gauge
		name string
		help string
	}{
		{&c.Score, "disk_fit_score", "Fitting score of the last detected disk."},
		{&c.Radius, "disk_radius_pixels", "Radius of the last detected disk."},
		{&c.Sharpness, "disk_sharpness", "Last measured image sharpness."},
		{&c.ContoursTotal, "disk_contours_total", "Contours found on the last frame."},
		{&c.ContoursMatched, "disk_contours_matched", "Contours that passed size filtering on the last frame."},
		{&c.ContourPoints, "disk_contour_points", "Total contour points on the last frame."},
		{&c.Workers, "disk_refine_workers", "Goroutines used by the last refine pass."},
	}
	for _, g := range gauges {
		gauge, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: g.name, Help: g.help}), g.name)
		if err != nil {
			return nil, err
		}
		*g.dst = gauge
	}
	return c, nil
}

// ObserveDetection records statistics of one detector call.
func (c *DetectionCollector) ObserveDetection(stats entity.DetectionStats) {
	if c == nil {
		return
	}
	c.Frames.WithLabelValues(stats.Outcome).Inc()
	if stats.Outcome == entity.OutcomePaused {
		return
	}
	c.Duration.Observe(stats.Elapsed.Seconds())
	c.ContoursTotal.Set(float64(stats.ContoursTotal))
	c.ContoursMatched.Set(float64(stats.ContoursMatched))
	c.ContourPoints.Set(float64(stats.ContourPoints))
	c.Workers.Set(float64(stats.Workers))
	if stats.MeasureSharp {
		c.Sharpness.Set(stats.Sharpness)
	}
	if stats.Outcome == entity.OutcomeFound {
		c.Score.Set(stats.Score)
		c.Radius.Set(float64(stats.Radius))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *DetectionCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

var _ port.DetectionRecorder = (*DetectionCollector)(nil)
