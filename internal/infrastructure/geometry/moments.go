package geometry

import (
	"image"

	"disk-guider/internal/domain/entity"
)

// PolygonMoments считает моменты до второго порядка для замкнутого
// контура по формуле Грина (как cv::moments для контура).
func PolygonMoments(points []image.Point) entity.Moments {
	if len(points) < 3 {
		return entity.Moments{}
	}

	var a00, a10, a01, a20, a11, a02 float64
	prev := points[len(points)-1]
	x1, y1 := float64(prev.X), float64(prev.Y)
	for _, p := range points {
		x, y := float64(p.X), float64(p.Y)
		dxy := x1*y - x*y1
		xii := x1 + x
		yii := y1 + y

		a00 += dxy
		a10 += dxy * xii
		a01 += dxy * yii
		a20 += dxy * (x1*xii + x*x)
		a11 += dxy * (x1*(yii+y1) + x*(yii+y))
		a02 += dxy * (y1*yii + y*y)

		x1, y1 = x, y
	}

	if a00 == 0 {
		return entity.Moments{}
	}
	if a00 < 0 {
		a00, a10, a01 = -a00, -a10, -a01
		a20, a11, a02 = -a20, -a11, -a02
	}

	m := entity.Moments{
		M00: a00 / 2,
		M10: a10 / 6,
		M01: a01 / 6,
		M20: a20 / 12,
		M11: a11 / 24,
		M02: a02 / 12,
	}
	cx := m.M10 / m.M00
	cy := m.M01 / m.M00
	m.Mu20 = m.M20 - m.M10*cx
	m.Mu11 = m.M11 - m.M10*cy
	m.Mu02 = m.M02 - m.M01*cy
	return m
}
