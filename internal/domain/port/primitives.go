package port

import (
	"image"

	"disk-guider/internal/domain/entity"
)

// ContourGeometry геометрия отдельного контура.
type ContourGeometry interface {
	// MinEnclosingCircle возвращает минимальную описанную окружность
	MinEnclosingCircle(contour entity.Contour) entity.CircleDescriptor

	// Moments возвращает моменты контура
	Moments(contour entity.Contour) entity.Moments
}

// GeometryPrimitives интерфейс примитивов обработки изображений.
// Реализации работают с 8-битными изображениями с началом координат в (0, 0).
type GeometryPrimitives interface {
	ContourGeometry

	// Blur сглаживает шум гауссовым ядром 3x3 (sigma 1.5, отражение границ)
	Blur(src *image.Gray) (*image.Gray, error)

	// EdgeDetect выделяет границы (Canny) с двумя порогами
	EdgeDetect(src *image.Gray, low, high float64) (*image.Gray, error)

	// Dilate расширяет границы прямоугольным ядром 3x3
	Dilate(src *image.Gray, iterations int) (*image.Gray, error)

	// FindContours возвращает все контуры без аппроксимации
	FindContours(src *image.Gray) ([]entity.Contour, error)

	// SobelMean возвращает средний модуль градиента Собеля (3x3) по
	// построчной плоскости отсчётов width x height
	SobelMean(samples []float64, width, height int) (float64, error)
}
