package app

import (
	"fmt"
	"image"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"disk-guider/internal/domain/entity"
	"disk-guider/internal/domain/port"
)

// sharpnessTargetMean средний уровень сигнала после нормализации.
const sharpnessTargetMean = 65536.0 / 256

// SharpnessWindow окно оценки резкости: квадрат со стороной
// int(1.5*maxRadius) вокруг focus, сдвинутый внутрь кадра. Без точки
// фокуса используется весь кадр.
func SharpnessWindow(frameSize image.Point, maxRadius int, focus image.Point, hasFocus bool) image.Rectangle {
	full := image.Rectangle{Max: frameSize}
	size := int(float64(maxRadius) * 1.5)
	if !hasFocus || size <= 0 {
		return full
	}
	w := min(size, frameSize.X)
	h := min(size, frameSize.Y)
	x := clamp(focus.X-size/2, 0, frameSize.X-w)
	y := clamp(focus.Y-size/2, 0, frameSize.Y-h)
	return image.Rect(x, y, x+w, y+h)
}

// Sharpness средний модуль градиента Собеля в окне кадра после
// нормализации сигнала к среднему 256. Пустое окно даёт 0.
func Sharpness(frame *entity.Frame, window image.Rectangle, primitives port.GeometryPrimitives) (float64, error) {
	window = window.Intersect(frame.Bounds())
	w, h := window.Dx(), window.Dy()
	if w <= 0 || h <= 0 {
		return 0, nil
	}

	samples := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			samples[y*w+x] = float64(frame.At(window.Min.X+x, window.Min.Y+y))
		}
	}
	if mean := stat.Mean(samples, nil); mean != 0 {
		floats.Scale(sharpnessTargetMean/mean, samples)
	}

	value, err := primitives.SobelMean(samples, w, h)
	if err != nil {
		return 0, fmt.Errorf("sobel: %w", err)
	}
	return value, nil
}
