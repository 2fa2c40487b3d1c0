package app

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"disk-guider/internal/domain/entity"
	"disk-guider/internal/domain/port"
)

const (
	minQualifyingDistances = 16
	maxScoredPoints        = 4096
)

// HistogramBins число интервалов гистограммы расстояний, всегда нечётное.
func HistogramBins(n int) int {
	return int(math.Sqrt(float64(n))+0.5) | 1
}

// ContourScore оценивает точку p как центр окружности: насколько плотно
// расстояния до точек контура группируются вокруг одного радиуса.
// Возвращает оценку в [0, 1] и найденный радиус; при малом числе
// подходящих расстояний (меньше 16) возвращает (0, 0).
func ContourScore(p entity.Point, contour []entity.Point, minRadius, maxRadius float64) (score, radius float64) {
	distances := make([]float64, 0, len(contour))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, cp := range contour {
		d := cp.Distance(p)
		if d < minRadius || d > maxRadius {
			continue
		}
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
		distances = append(distances, d)
	}
	if len(distances) < minQualifyingDistances {
		return 0, 0
	}

	peak := peakDistance(distances, HistogramBins(len(distances)), math.Floor(lo), math.Ceil(hi))

	var sum float64
	for _, d := range distances {
		sum += gaussianWeight(d - peak)
	}
	return sum / float64(len(contour)), peak
}

// peakDistance центр самого заполненного интервала гистограммы на [lower, upper).
func peakDistance(distances []float64, bins int, lower, upper float64) float64 {
	if upper <= lower {
		return lower
	}

	// Верхняя граница исключается, как в calcHist.
	sorted := make([]float64, 0, len(distances))
	for _, d := range distances {
		if d < upper {
			sorted = append(sorted, d)
		}
	}
	sort.Float64s(sorted)

	dividers := floats.Span(make([]float64, bins+1), lower, upper)
	dividers[bins] = upper
	counts := stat.Histogram(nil, dividers, sorted, nil)

	idx := floats.MaxIdx(counts)
	return lower + (float64(idx)+0.5)*(upper-lower)/float64(bins)
}

// Candidate контур, прошедший проверку радиуса, с геометрией для поиска центра.
type Candidate struct {
	Points       []entity.Point
	Circle       entity.CircleDescriptor
	Centroid     entity.CircleDescriptor
	Eccentricity float64
	Angle        float64
}

// PrepareCandidate прореживает контур, находит описанную окружность и
// центр масс. Возвращает false, если радиус окружности вне
// [0.75*minRadius, 1.25*maxRadius].
func PrepareCandidate(contour entity.Contour, primitives port.ContourGeometry, minRadius, maxRadius int) (*Candidate, bool) {
	effective := contour
	if len(contour) > maxScoredPoints {
		stride := len(contour) / maxScoredPoints
		effective = make(entity.Contour, 0, len(contour)/stride+1)
		for i := 0; i < len(contour); i += stride {
			effective = append(effective, contour[i])
		}
	}

	circle := primitives.MinEnclosingCircle(effective)
	lo := float64(minRadius * 3 / 4)
	hi := float64(maxRadius * 5 / 4)
	if !circle.Valid() || circle.Radius < lo || circle.Radius > hi {
		return nil, false
	}

	c := &Candidate{
		Points: make([]entity.Point, len(effective)),
		Circle: circle,
	}
	for i, p := range effective {
		c.Points[i] = entity.Point{X: float64(p.X), Y: float64(p.Y)}
	}

	m := primitives.Moments(effective)
	if centroid, ok := m.Centroid(); ok {
		c.Centroid = entity.CircleDescriptor{X: centroid.X, Y: centroid.Y, Radius: circle.Radius}
		c.Eccentricity, c.Angle = m.Ellipse()
	}
	return c, true
}

// DiameterLine прямая через центр описанной окружности и центр масс.
type DiameterLine struct {
	Valid    bool
	Vertical bool
	Slope    float64
	B        float64
}

// NewDiameterLine строит прямую по двум окружностям. Прямая
// недействительна, если одна из окружностей вырождена или центры
// почти совпадают.
func NewDiameterLine(p1, p2 entity.CircleDescriptor) DiameterLine {
	dx := p1.X - p2.X
	dy := p1.Y - p2.Y
	if !p1.Valid() || !p2.Valid() || dx*dx+dy*dy < 3 {
		return DiameterLine{}
	}
	if math.Abs(dx) < 1 {
		return DiameterLine{Valid: true, Vertical: true, Slope: math.Inf(1)}
	}
	slope := (p2.Y - p1.Y) / (p2.X - p1.X)
	return DiameterLine{Valid: true, Slope: slope, B: p1.Y - slope*p1.X}
}

// FindContourCenter ищет центр диска вдоль линии диаметра. Среди локальных
// максимумов оценки выше localMaxFraction от наибольшей выбирается
// ближайший к центру масс, чтобы не уйти в центр тёмной части серпа.
func FindContourCenter(c *Candidate, minRadius, maxRadius int, localMaxFraction float64) (entity.CircleDescriptor, float64) {
	minR, maxR := float64(minRadius), float64(maxRadius)
	line := NewDiameterLine(c.Circle, c.Centroid)

	if !line.Valid {
		score, radius := ContourScore(c.Circle.Center(), c.Points, minR, maxR)
		return entity.CircleDescriptor{X: c.Circle.X, Y: c.Circle.Y, Radius: radius}, score
	}

	searchRadius := float64(int(c.Circle.Radius / 2))
	samples := make([]entity.WeightedCandidate, 0, int(2*searchRadius)+1)
	maxScore := 0.0
	measure := func(x, y float64) {
		score, radius := ContourScore(entity.Point{X: x, Y: y}, c.Points, minR, maxR)
		maxScore = math.Max(maxScore, score)
		samples = append(samples, entity.WeightedCandidate{X: x, Y: y, Radius: radius, Score: score})
	}

	if !line.Vertical && math.Abs(line.Slope) <= 1 {
		for x := c.Circle.X - searchRadius; x <= c.Circle.X+searchRadius; x++ {
			measure(x, line.Slope*x+line.B)
		}
	} else {
		for y := c.Circle.Y - searchRadius; y <= c.Circle.Y+searchRadius; y++ {
			x := c.Circle.X
			if !line.Vertical {
				x = (y - line.B) / line.Slope
			}
			measure(x, y)
		}
	}

	best := -1
	bestDistance := math.Inf(1)
	centroid := c.Centroid.Center()
	for i := 1; i < len(samples)-1; i++ {
		s := samples[i]
		if s.Score <= maxScore*localMaxFraction || s.Score <= samples[i-1].Score || s.Score <= samples[i+1].Score {
			continue
		}
		if d := centroid.Distance(entity.Point{X: s.X, Y: s.Y}); d < bestDistance {
			bestDistance = d
			best = i
		}
	}
	if best < 0 {
		best = bestSample(samples)
	}

	s := samples[best]
	return entity.CircleDescriptor{X: s.X, Y: s.Y, Radius: s.Radius}, s.Score
}

// bestSample индекс первой выборки с наибольшей оценкой.
func bestSample(samples []entity.WeightedCandidate) int {
	best := 0
	for i, s := range samples {
		if s.Score > samples[best].Score {
			best = i
		}
	}
	return best
}
