package app

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"disk-guider/internal/domain/entity"
	"disk-guider/internal/infrastructure/geometry"
)

func TestGaussianWeights(t *testing.T) {
	w := gaussianWeights()
	require.Len(t, w, gaussianSize)
	require.Equal(t, 1.0, w[0])
	require.InDelta(t, math.Exp(-0.5), w[100], 1e-12)
	require.Equal(t, 0.0, gaussianWeight(25))
	require.InDelta(t, w[50], gaussianWeight(-0.5), 1e-12)
}

func TestHistogramBinsAlwaysOdd(t *testing.T) {
	for n := minQualifyingDistances; n <= 5000; n++ {
		require.Equal(t, 1, HistogramBins(n)%2, "n=%d", n)
	}
	require.Equal(t, 9, HistogramBins(64))
}

func TestContourScore_PerfectCircle(t *testing.T) {
	contour := ringPoints(200, 150, 100, 64)
	score, radius := ContourScore(entity.Point{X: 200, Y: 150}, contour, 50, 150)
	require.Greater(t, score, 0.99)
	require.InDelta(t, 100.0, radius, 0.2)

	off, _ := ContourScore(entity.Point{X: 230, Y: 150}, contour, 50, 150)
	require.Less(t, off, score)
}

func TestContourScore_TooFewDistances(t *testing.T) {
	contour := ringPoints(0, 0, 100, 15)
	score, radius := ContourScore(entity.Point{}, contour, 50, 150)
	require.Equal(t, 0.0, score)
	require.Equal(t, 0.0, radius)

	// Только 10 из 40 точек попадают в диапазон радиусов.
	mixed := append(ringPoints(0, 0, 100, 10), ringPoints(0, 0, 300, 30)...)
	score, radius = ContourScore(entity.Point{}, mixed, 50, 150)
	require.Equal(t, 0.0, score)
	require.Equal(t, 0.0, radius)
}

func TestContourScore_NormalizedByContourSize(t *testing.T) {
	inRange := ringPoints(0, 0, 100, 32)
	mixed := append(append([]entity.Point{}, inRange...), ringPoints(0, 0, 400, 32)...)

	full, _ := ContourScore(entity.Point{}, inRange, 50, 150)
	half, _ := ContourScore(entity.Point{}, mixed, 50, 150)
	require.InDelta(t, full/2, half, 1e-9)
}

func TestPrepareCandidate_RadiusRange(t *testing.T) {
	var k geometry.Kernel
	contour := ringContour(300, 300, 100, 64, 0)

	c, ok := PrepareCandidate(contour, k, 50, 150)
	require.True(t, ok)
	require.InDelta(t, 100.0, c.Circle.Radius, 1.0)
	require.Len(t, c.Points, 64)
	require.InDelta(t, 300.0, c.Centroid.X, 0.5)
	require.Less(t, c.Eccentricity, 0.3)

	// 100 < 0.75*140
	_, ok = PrepareCandidate(contour, k, 140, 200)
	require.False(t, ok)
	// 100 > 1.25*70
	_, ok = PrepareCandidate(contour, k, 10, 70)
	require.False(t, ok)
	// Допуск по краям диапазона.
	_, ok = PrepareCandidate(contour, k, 120, 200)
	require.True(t, ok)
}

func TestPrepareCandidate_Decimates(t *testing.T) {
	var k geometry.Kernel
	contour := ringContour(500, 500, 300, 10000, 0)

	c, ok := PrepareCandidate(contour, k, 200, 400)
	require.True(t, ok)
	// Шаг 10000/4096 = 2.
	require.Len(t, c.Points, 5000)
	require.Equal(t, float64(contour[2].X), c.Points[1].X)
}

func TestNewDiameterLine(t *testing.T) {
	circle := entity.CircleDescriptor{X: 10, Y: 10, Radius: 5}

	require.False(t, NewDiameterLine(circle, entity.CircleDescriptor{X: 11, Y: 11, Radius: 5}).Valid)
	require.False(t, NewDiameterLine(circle, entity.CircleDescriptor{X: 20, Y: 20}).Valid)

	vertical := NewDiameterLine(circle, entity.CircleDescriptor{X: 10.5, Y: 20, Radius: 5})
	require.True(t, vertical.Valid)
	require.True(t, vertical.Vertical)

	line := NewDiameterLine(circle, entity.CircleDescriptor{X: 20, Y: 15, Radius: 5})
	require.True(t, line.Valid)
	require.InDelta(t, 0.5, line.Slope, 1e-12)
	require.InDelta(t, 5.0, line.B, 1e-12)
}

func TestFindContourCenter_FullDisk(t *testing.T) {
	var k geometry.Kernel
	c, ok := PrepareCandidate(ringContour(400, 300, 100, 128, 0), k, 50, 150)
	require.True(t, ok)

	disk, score := FindContourCenter(c, 50, 150, 0.65)
	require.InDelta(t, 400.0, disk.X, 1.0)
	require.InDelta(t, 300.0, disk.Y, 1.0)
	require.InDelta(t, 100.0, disk.Radius, 1.0)
	require.Greater(t, score, 0.8)
}

// crescentContour освещённая половина диска и терминатор по хорде x = cx.
// Центр масс смещён к освещённой стороне, описанная окружность к хорде.
func crescentContour(cx, cy, r float64) entity.Contour {
	var contour entity.Contour
	for i := 0; i <= 180; i++ {
		a := math.Pi/2 - math.Pi*float64(i)/180
		contour = append(contour, roundPoint(cx+r*math.Cos(a), cy+r*math.Sin(a)))
	}
	for y := cy - r + 1; y < cy+r; y++ {
		contour = append(contour, roundPoint(cx, y))
	}
	return contour
}

// На оси между описанной окружностью и центром масс несколько локальных
// максимумов; выбирается ближайший к центру масс.
func TestFindContourCenter_Crescent(t *testing.T) {
	var k geometry.Kernel
	const cx, cy, r = 500.0, 400.0, 100.0

	c, ok := PrepareCandidate(crescentContour(cx, cy, r), k, 60, 140)
	require.True(t, ok)
	line := NewDiameterLine(c.Circle, c.Centroid)
	require.True(t, line.Valid)
	require.False(t, line.Vertical)
	require.Greater(t, c.Centroid.X, c.Circle.X)

	disk, score := FindContourCenter(c, 60, 140, 0.65)
	require.Greater(t, score, 0.0)
	require.InDelta(t, 503.5, disk.X, 0.01)
	require.InDelta(t, cy, disk.Y, 2.0)

	// Глобальный максимум оси левее, но дальше от центра масс.
	x := disk.X - 3
	global, _ := ContourScore(entity.Point{X: x, Y: line.Slope*x + line.B}, c.Points, 60, 140)
	require.Greater(t, global, score)
	require.Greater(t, score, 0.65*global)
}
