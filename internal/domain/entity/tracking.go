package entity

import (
	"image"
	"math"
)

// Параметры сглаживания трекинга.
const (
	// StreakForSmoothing число подряд успешных обнаружений, после которого
	// радиус поиска сглаживается, а смещение к точке клика забывается.
	StreakForSmoothing = 4
	searchRegionNew    = 0.3
	searchRegionPrev   = 0.7
)

// TrackingState память детектора между кадрами в рамках сессии гидирования.
type TrackingState struct {
	LastCenter         Point       // центр последнего найденного диска (координаты кадра)
	LastRadius         int         // радиус последнего найденного диска
	SearchRegion       float64     // сглаженный радиус поиска
	PrevSearchRegion   float64     // радиус поиска на предыдущем кадре
	DetectionStreak    int         // число подряд успешных обнаружений
	Click              Point       // точка, указанная пользователем
	UserClick          bool        // клик пользователя ещё влияет на ROI
	Detected           bool        // диск найден на последнем кадре
	LastFrameSize      image.Point // размер предыдущего кадра
	ROIActive          bool        // на последнем кадре использовался ROI
	Paused             bool        // обнаружение приостановлено
	MeasuringSharpness bool        // вместо радиуса сообщается резкость
}

// ClickFraction вес точки клика при центрировании ROI: линейно убывает
// от 1 до 0 за первые четыре обнаружения после клика.
func (s *TrackingState) ClickFraction() float64 {
	if !s.UserClick || s.DetectionStreak > StreakForSmoothing {
		return 0
	}
	return 1 - float64(s.DetectionStreak)/StreakForSmoothing
}

// BiasPoint точка, вокруг которой строится ROI.
func (s *TrackingState) BiasPoint() image.Point {
	f := s.ClickFraction()
	x := s.Click.X*f + s.LastCenter.X*(1-f)
	y := s.Click.Y*f + s.LastCenter.Y*(1-f)
	return image.Pt(int(math.Round(x)), int(math.Round(y)))
}

// CenterInside сообщает, что последний центр лежит внутри предыдущего кадра.
func (s *TrackingState) CenterInside() bool {
	return s.LastCenter.X < float64(s.LastFrameSize.X) && s.LastCenter.Y < float64(s.LastFrameSize.Y)
}

// RecordSuccess фиксирует успешное обнаружение диска.
func (s *TrackingState) RecordSuccess(center Point, radius int) {
	s.LastCenter = center
	s.LastRadius = radius
	s.SearchRegion = float64(radius)
	s.Detected = true
	s.DetectionStreak++
	if s.DetectionStreak >= StreakForSmoothing {
		// Сглаживаем радиус поиска, чтобы статистика не скакала.
		s.SearchRegion = searchRegionNew*s.SearchRegion + searchRegionPrev*s.PrevSearchRegion
		s.UserClick = false
	}
	s.PrevSearchRegion = s.SearchRegion
}

// Reset сбрасывает непрерывность трекинга после неудачного кадра.
func (s *TrackingState) Reset() {
	s.Detected = false
	s.DetectionStreak = 0
}

// SetClick запоминает точку, выбранную пользователем.
func (s *TrackingState) SetClick(p Point) {
	s.Click = p
	s.UserClick = true
	s.DetectionStreak = 0
}

// ClearClick забывает точку клика (автовыбор цели).
func (s *TrackingState) ClearClick() {
	s.Click = Point{}
	s.UserClick = false
	s.DetectionStreak = 0
}
