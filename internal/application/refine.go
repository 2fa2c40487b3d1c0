package app

import (
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"disk-guider/internal/domain/entity"
)

// refineChunkSize число точек, обрабатываемых одной горутиной.
const refineChunkSize = 256

// Refiner локальный поиск центра диска с более высокой оценкой вокруг
// гипотезы. Работа делится на порции по 256 точек; каждая порция, кроме
// последней, обрабатывается своей горутиной, последняя на вызывающей.
type Refiner struct {
	// MaxWorkers ограничивает число горутин на вызов; 0 без ограничения.
	// Порции сверх лимита обрабатываются на вызывающей горутине.
	MaxWorkers int
	logger     *logrus.Logger
}

// NewRefiner создаёт поиск с ограничением числа горутин.
func NewRefiner(maxWorkers int, logger *logrus.Logger) *Refiner {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Refiner{MaxWorkers: maxWorkers, logger: logger}
}

type refineResult struct {
	score  float64
	radius float64
	center entity.Point
	found  bool
}

// Refine проверяет все точки сетки с шагом resolution внутри круга
// searchRadius вокруг disk. Если какая-то точка строго лучше *best,
// обновляет *best и disk. Возвращает число запущенных горутин.
// Результат не зависит от планирования: порции сливаются по порядку,
// выигрывает первая строго большая оценка.
func (r *Refiner) Refine(best *float64, disk *entity.CircleDescriptor, contour []entity.Point,
	minRadius, maxRadius int, searchRadius, resolution float64) int {
	points := enumerateGrid(disk.Center(), searchRadius, resolution)
	if len(points) == 0 {
		return 0
	}

	chunks := make([][]entity.Point, 0, (len(points)+refineChunkSize-1)/refineChunkSize)
	for start := 0; start < len(points); start += refineChunkSize {
		end := min(start+refineChunkSize, len(points))
		chunks = append(chunks, points[start:end])
	}

	minR, maxR := float64(minRadius), float64(maxRadius)
	threshold := *best
	results := make([]refineResult, len(chunks))
	last := len(chunks) - 1

	var wg sync.WaitGroup
	workers := 0
	inline := 0
	for i := 0; i < last; i++ {
		if r.MaxWorkers > 0 && workers >= r.MaxWorkers {
			results[i] = scanChunk(chunks[i], contour, threshold, minR, maxR)
			inline++
			continue
		}
		workers++
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = scanChunk(chunks[i], contour, threshold, minR, maxR)
		}(i)
	}
	results[last] = scanChunk(chunks[last], contour, threshold, minR, maxR)
	wg.Wait()

	if inline > 0 {
		r.logger.WithFields(logrus.Fields{
			"workers": workers,
			"inline":  inline,
		}).Warn("refine: worker limit reached, scanning remaining chunks inline")
	}

	for _, res := range results {
		if res.found && res.score > *best {
			*best = res.score
			disk.X = res.center.X
			disk.Y = res.center.Y
			disk.Radius = res.radius
		}
	}
	return workers
}

func scanChunk(points, contour []entity.Point, threshold, minRadius, maxRadius float64) refineResult {
	res := refineResult{score: threshold}
	for _, p := range points {
		score, radius := ContourScore(p, contour, minRadius, maxRadius)
		if score > res.score {
			res = refineResult{score: score, radius: radius, center: p, found: true}
		}
	}
	return res
}

// enumerateGrid точки сетки внутри круга радиуса searchRadius.
func enumerateGrid(center entity.Point, searchRadius, resolution float64) []entity.Point {
	if searchRadius <= 0 || resolution <= 0 {
		return nil
	}
	side := int(math.Ceil(2*searchRadius/resolution)) + 1
	points := make([]entity.Point, 0, side*side)
	for i := 0; ; i++ {
		x := center.X - searchRadius + float64(i)*resolution
		if x >= center.X+searchRadius {
			break
		}
		for j := 0; ; j++ {
			y := center.Y - searchRadius + float64(j)*resolution
			if y >= center.Y+searchRadius {
				break
			}
			p := entity.Point{X: x, Y: y}
			if p.Distance(center) > searchRadius {
				continue
			}
			points = append(points, p)
		}
	}
	return points
}
