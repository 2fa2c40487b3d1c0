//go:build !gocv
// +build !gocv

package vision

import (
	"errors"
	"image"
	"math"

	"gonum.org/v1/gonum/stat"

	"disk-guider/internal/domain/entity"
	"disk-guider/internal/domain/port"
	"disk-guider/internal/infrastructure/geometry"
)

// ErrGoCVDisabled возвращается растровыми примитивами в сборке без OpenCV.
var ErrGoCVDisabled = errors.New("gocv build tag is not enabled")

// GoCVPrimitives примитивы-заглушки (без OpenCV). Описанная окружность,
// моменты, сглаживание и градиент считаются на чистом Go; выделение
// границ и контуров недоступно.
type GoCVPrimitives struct {
	geometry.Kernel
}

// NewGoCVPrimitives создаёт примитивы-заглушки.
func NewGoCVPrimitives() *GoCVPrimitives {
	return &GoCVPrimitives{}
}

// Available сообщает, что сборка собрана без OpenCV.
func (p *GoCVPrimitives) Available() bool {
	return false
}

// blurKernel ядро Гаусса 3x3 с sigma 1.5 (разделимое).
var blurKernel = func() [3]float64 {
	const sigma = 1.5
	side := math.Exp(-1 / (2 * sigma * sigma))
	sum := 1 + 2*side
	return [3]float64{side / sum, 1 / sum, side / sum}
}()

// Blur размытие 3x3 с отражением границ (reflect-101), как BorderDefault в OpenCV.
func (p *GoCVPrimitives) Blur(src *image.Gray) (*image.Gray, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, entity.ErrNoFrame
	}

	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			var v float64
			for k := -1; k <= 1; k++ {
				v += blurKernel[k+1] * float64(row[reflect101(x+k, w)])
			}
			tmp[y*w+x] = v
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v float64
			for k := -1; k <= 1; k++ {
				v += blurKernel[k+1] * tmp[reflect101(y+k, h)*w+x]
			}
			dst.Pix[y*dst.Stride+x] = uint8(max(0, min(int(math.Round(v)), math.MaxUint8)))
		}
	}
	return dst, nil
}

// EdgeDetect возвращает ошибку, если сборка без тега gocv.
func (p *GoCVPrimitives) EdgeDetect(src *image.Gray, low, high float64) (*image.Gray, error) {
	_ = src
	_, _ = low, high
	return nil, ErrGoCVDisabled
}

// Dilate возвращает ошибку, если сборка без тега gocv.
func (p *GoCVPrimitives) Dilate(src *image.Gray, iterations int) (*image.Gray, error) {
	_ = src
	_ = iterations
	return nil, ErrGoCVDisabled
}

// FindContours возвращает ошибку, если сборка без тега gocv.
func (p *GoCVPrimitives) FindContours(src *image.Gray) ([]entity.Contour, error) {
	_ = src
	return nil, ErrGoCVDisabled
}

// SobelMean средний модуль градиента Собеля 3x3 с отражением границ.
func (p *GoCVPrimitives) SobelMean(samples []float64, width, height int) (float64, error) {
	if width <= 0 || height <= 0 || len(samples) < width*height {
		return 0, entity.ErrNoFrame
	}

	at := func(x, y int) float64 {
		return samples[reflect101(y, height)*width+reflect101(x, width)]
	}
	magnitudes := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			magnitudes[y*width+x] = math.Hypot(gx, gy)
		}
	}
	return stat.Mean(magnitudes, nil), nil
}

// reflect101 отражает индекс за границей: -1 -> 1, n -> n-2.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	if i < 0 {
		return -i
	}
	if i >= n {
		return 2*n - i - 2
	}
	return i
}

// Проверка реализации интерфейса
var _ port.GeometryPrimitives = (*GoCVPrimitives)(nil)
