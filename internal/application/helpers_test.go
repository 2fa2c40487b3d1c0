package app

import (
	"context"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"sync"

	"disk-guider/internal/domain/entity"
	"disk-guider/internal/infrastructure/geometry"
)

// ringContour точки на окружности, округлённые до пикселя; noise задаёт
// СКО гауссового шума до округления.
func ringContour(cx, cy, r float64, n int, noise float64) entity.Contour {
	rnd := rand.New(rand.NewPCG(1, 2))
	pts := make(entity.Contour, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		x := cx + r*math.Cos(a) + noise*rnd.NormFloat64()
		y := cy + r*math.Sin(a) + noise*rnd.NormFloat64()
		pts[i] = image.Pt(int(math.Round(x)), int(math.Round(y)))
	}
	return pts
}

func ringPoints(cx, cy, r float64, n int) []entity.Point {
	pts := make([]entity.Point, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = entity.Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return pts
}

// fakePrimitives отдаёт заранее заданные контуры вместо растровой обработки.
type fakePrimitives struct {
	geometry.Kernel

	mu       sync.Mutex
	contours []entity.Contour
	err      error
	calls    int
	sizes    []image.Point
	planes   [][]float64
}

func (f *fakePrimitives) Blur(src *image.Gray) (*image.Gray, error) {
	return src, nil
}

func (f *fakePrimitives) EdgeDetect(src *image.Gray, low, high float64) (*image.Gray, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.sizes = append(f.sizes, src.Bounds().Size())
	if f.err != nil {
		return nil, f.err
	}
	return src, nil
}

func (f *fakePrimitives) Dilate(src *image.Gray, iterations int) (*image.Gray, error) {
	return src, nil
}

func (f *fakePrimitives) FindContours(src *image.Gray) ([]entity.Contour, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contours, nil
}

// SobelMean средний модуль разности соседних отсчётов по строке.
func (f *fakePrimitives) SobelMean(samples []float64, width, height int) (float64, error) {
	f.mu.Lock()
	f.planes = append(f.planes, append([]float64(nil), samples...))
	f.mu.Unlock()

	var sum float64
	for y := 0; y < height; y++ {
		for x := 1; x < width; x++ {
			sum += math.Abs(samples[y*width+x] - samples[y*width+x-1])
		}
	}
	return sum / float64(width*height), nil
}

func (f *fakePrimitives) lastPlane() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.planes) == 0 {
		return nil
	}
	return f.planes[len(f.planes)-1]
}

// panickingPrimitives паникует в выбранном примитиве.
type panickingPrimitives struct {
	*fakePrimitives
	inContours bool
	inMoments  bool
}

func (p *panickingPrimitives) FindContours(src *image.Gray) ([]entity.Contour, error) {
	if p.inContours {
		panic("contour buffer overflow")
	}
	return p.fakePrimitives.FindContours(src)
}

func (p *panickingPrimitives) Moments(contour entity.Contour) entity.Moments {
	if p.inMoments {
		panic("degenerate contour")
	}
	return p.fakePrimitives.Moments(contour)
}

func (f *fakePrimitives) setContours(contours ...entity.Contour) {
	f.mu.Lock()
	f.contours = contours
	f.mu.Unlock()
}

func (f *fakePrimitives) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifier struct {
	mu         sync.Mutex
	advisories []entity.Advisory
}

func (n *fakeNotifier) Notify(ctx context.Context, advisory entity.Advisory) error {
	n.mu.Lock()
	n.advisories = append(n.advisories, advisory)
	n.mu.Unlock()
	return nil
}

type fakeRecorder struct {
	mu    sync.Mutex
	stats []entity.DetectionStats
}

func (r *fakeRecorder) ObserveDetection(stats entity.DetectionStats) {
	r.mu.Lock()
	r.stats = append(r.stats, stats)
	r.mu.Unlock()
}

func (r *fakeRecorder) last() entity.DetectionStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats[len(r.stats)-1]
}

func testParams() entity.DetectionParameters {
	return entity.DetectionParameters{MinRadius: 50, MaxRadius: 150, LowThreshold: 20, HighThreshold: 40}
}

func roundPoint(x, y float64) image.Point {
	return image.Pt(int(math.Round(x)), int(math.Round(y)))
}

func colorGray(v uint8) color.Gray {
	return color.Gray{Y: v}
}
