package geometry

import (
	"disk-guider/internal/domain/entity"
)

// Kernel чистая Go-реализация геометрических примитивов, не зависящих
// от растровых операций: описанная окружность и моменты контура.
type Kernel struct{}

// MinEnclosingCircle возвращает минимальную описанную окружность контура
func (Kernel) MinEnclosingCircle(contour entity.Contour) entity.CircleDescriptor {
	return EnclosingCircle(contour)
}

// Moments возвращает моменты контура
func (Kernel) Moments(contour entity.Contour) entity.Moments {
	return PolygonMoments(contour)
}
