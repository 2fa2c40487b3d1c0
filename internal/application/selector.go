package app

import (
	"fmt"
	"image"

	"disk-guider/internal/domain/entity"
	"disk-guider/internal/domain/port"
)

// SelectorConfig эмпирические константы выбора контура.
type SelectorConfig struct {
	MaxContourPoints int     // предел суммарного числа точек во всех контурах
	MinContourPoints int     // контуры короче игнорируются
	LocalMaxFraction float64 // порог локального максимума от наибольшей оценки
	ClickGate        float64 // радиус вокруг клика в единицах maxRadius
}

// DefaultSelectorConfig возвращает константы по умолчанию.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		MaxContourPoints: 512 * 1024,
		MinContourPoints: 32,
		LocalMaxFraction: 0.65,
		ClickGate:        1.5,
	}
}

const (
	refineMinScore       = 0.01
	refineFineFraction   = 0.8
	refineCoarseStep     = 1.0
	refineFineRadius     = 0.5
	refineFineStep       = 0.1
	refineEccentricScale = 20
	refineBaseRadius     = 3
)

// Selection итог выбора лучшего контура на кадре.
type Selection struct {
	Disk            entity.CircleDescriptor // координаты относительно ROI
	Score           float64
	Best            *Candidate
	ContoursTotal   int
	ContoursMatched int
	ContourPoints   int
	Workers         int
}

// Found сообщает, что найден диск с ненулевым радиусом.
func (s *Selection) Found() bool {
	return s.Best != nil && s.Disk.Valid()
}

// Selector перебирает контуры кадра и выбирает лучший кандидат в диск.
type Selector struct {
	cfg        SelectorConfig
	primitives port.ContourGeometry
	refiner    *Refiner
}

// NewSelector создаёт селектор контуров.
func NewSelector(cfg SelectorConfig, primitives port.ContourGeometry, refiner *Refiner) *Selector {
	return &Selector{cfg: cfg, primitives: primitives, refiner: refiner}
}

// Select оценивает все контуры и возвращает лучший. click задаётся в
// координатах кадра; при clickActive кандидаты дальше
// ClickGate*maxRadius от клика получают нулевую оценку.
func (s *Selector) Select(contours []entity.Contour, params entity.DetectionParameters,
	roi image.Rectangle, click entity.Point, clickActive bool) (*Selection, error) {
	sel := &Selection{ContoursTotal: len(contours)}
	for _, c := range contours {
		sel.ContourPoints += len(c)
	}
	if sel.ContourPoints > s.cfg.MaxContourPoints {
		return sel, fmt.Errorf("%w: %d", entity.ErrTooManyContourPoints, sel.ContourPoints)
	}

	gate := s.cfg.ClickGate * float64(params.MaxRadius)
	for _, contour := range contours {
		if len(contour) < s.cfg.MinContourPoints {
			continue
		}

		cand, ok := PrepareCandidate(contour, s.primitives, params.MinRadius, params.MaxRadius)
		if !ok {
			continue
		}

		disk, score := FindContourCenter(cand, params.MinRadius, params.MaxRadius, s.cfg.LocalMaxFraction)

		if clickActive {
			framePoint := entity.Point{X: float64(roi.Min.X) + disk.X, Y: float64(roi.Min.Y) + disk.Y}
			if click.Distance(framePoint) > gate {
				score = 0
			}
		}

		if score > refineMinScore {
			searchRadius := refineEccentricScale*cand.Eccentricity + refineBaseRadius
			workers := s.refiner.Refine(&score, &disk, cand.Points, params.MinRadius, params.MaxRadius, searchRadius, refineCoarseStep)
			sel.Workers = max(sel.Workers, workers)
			if score > sel.Score*refineFineFraction {
				workers = s.refiner.Refine(&score, &disk, cand.Points, params.MinRadius, params.MaxRadius, refineFineRadius, refineFineStep)
				sel.Workers = max(sel.Workers, workers)
			}
		}

		if score > sel.Score {
			sel.Score = score
			sel.Disk = disk
			sel.Best = cand
		}
		sel.ContoursMatched++
	}

	return sel, nil
}
