package entity

import (
	"fmt"
	"image"
	"time"
)

// Допустимые диапазоны параметров профиля.
const (
	RadiusMin            = 1
	RadiusMax            = 1024
	MinRadiusDefault     = 100
	MaxRadiusDefault     = 300
	ThresholdMin         = 2
	LowThresholdMax      = 175
	HighThresholdMax     = 350
	HighThresholdDefault = 40
)

// DetectionParameters настраиваемые параметры детектора диска.
type DetectionParameters struct {
	MinRadius     int  `json:"min_radius"`
	MaxRadius     int  `json:"max_radius"`
	LowThreshold  int  `json:"low_threshold"`
	HighThreshold int  `json:"high_threshold"`
	RoiEnabled    bool `json:"roi_enabled"`
}

// DefaultDetectionParameters возвращает параметры по умолчанию.
func DefaultDetectionParameters() DetectionParameters {
	return DetectionParameters{
		MinRadius:     MinRadiusDefault,
		MaxRadius:     MaxRadiusDefault,
		LowThreshold:  HighThresholdDefault / 2,
		HighThreshold: HighThresholdDefault,
	}
}

// Normalize приводит параметры к допустимым диапазонам.
func (p DetectionParameters) Normalize() DetectionParameters {
	p.MinRadius = clampInt(p.MinRadius, RadiusMin, RadiusMax)
	p.MaxRadius = clampInt(p.MaxRadius, RadiusMin, RadiusMax)
	if p.MinRadius > p.MaxRadius {
		p.MinRadius, p.MaxRadius = p.MaxRadius, p.MinRadius
	}
	p.HighThreshold = clampInt(p.HighThreshold, ThresholdMin, HighThresholdMax)
	if p.LowThreshold <= 0 {
		p.LowThreshold = p.HighThreshold / 2
	}
	p.LowThreshold = clampInt(p.LowThreshold, ThresholdMin, LowThresholdMax)
	return p
}

// Validate проверяет инвариант 0 <= min <= max.
func (p DetectionParameters) Validate() error {
	if p.MinRadius < 0 || p.MaxRadius < p.MinRadius {
		return fmt.Errorf("invalid radius range: min=%d, max=%d", p.MinRadius, p.MaxRadius)
	}
	return nil
}

// DetectionResult итог обнаружения диска на одном кадре.
type DetectionResult struct {
	CenterX      float64         `json:"center_x"`
	CenterY      float64         `json:"center_y"`
	Radius       int             `json:"radius"`
	Score        float64         `json:"score"`
	Eccentricity float64         `json:"eccentricity"`
	Angle        float64         `json:"angle"`
	Contour      []Point         `json:"contour,omitempty"`
	ROI          image.Rectangle `json:"roi"`
	Status       string          `json:"status"`
}

// Center возвращает центр диска.
func (r DetectionResult) Center() Point {
	return Point{X: r.CenterX, Y: r.CenterY}
}

// Исход обработки кадра для статистики.
const (
	OutcomeFound          = "found"
	OutcomeNotFound       = "not_found"
	OutcomeFrameTooLarge  = "frame_too_large"
	OutcomeTooManyPoints  = "too_many_points"
	OutcomePaused         = "paused"
	OutcomeGeometryFailed = "geometry_error"
)

// DetectionStats диагностика одного вызова детектора.
type DetectionStats struct {
	Outcome         string
	Elapsed         time.Duration
	Score           float64
	Radius          int
	ContoursTotal   int
	ContoursMatched int
	ContourPoints   int
	BestPoints      int
	Workers         int
	Sharpness       float64
	MeasureSharp    bool
}

// AdvisoryLevel уровень важности сообщения для пользователя.
type AdvisoryLevel string

const (
	AdvisoryWarning AdvisoryLevel = "warning"
	AdvisoryError   AdvisoryLevel = "error"
)

// Advisory сообщение пользователю о проблеме с параметрами или кадром.
type Advisory struct {
	Level   AdvisoryLevel
	Message string
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
