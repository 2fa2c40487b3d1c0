package entity

import (
	"image"
	"math"
)

// Contour замкнутый контур объекта в координатах кадра (или ROI).
type Contour []image.Point

// Point точка с субпиксельными координатами
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance возвращает евклидово расстояние до другой точки.
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Add сдвигает точку на вектор.
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// IsZero сообщает, что точка не задана.
func (p Point) IsZero() bool {
	return p.X == 0 && p.Y == 0
}

// CircleDescriptor гипотеза окружности. Radius == 0 означает "нет окружности".
type CircleDescriptor struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// Valid сообщает, что гипотеза содержит окружность.
func (c CircleDescriptor) Valid() bool {
	return c.Radius > 0
}

// Center возвращает центр окружности.
func (c CircleDescriptor) Center() Point {
	return Point{X: c.X, Y: c.Y}
}

// WeightedCandidate точка на оси поиска вместе с её оценкой.
type WeightedCandidate struct {
	X      float64
	Y      float64
	Radius float64
	Score  float64
}

// Moments моменты контура (пространственные и центральные).
type Moments struct {
	M00, M10, M01    float64
	M20, M11, M02    float64
	Mu20, Mu11, Mu02 float64
}

// Centroid возвращает центр масс контура; false если площадь нулевая.
func (m Moments) Centroid() (Point, bool) {
	if m.M00 <= 0 {
		return Point{}, false
	}
	return Point{X: m.M10 / m.M00, Y: m.M01 / m.M00}, true
}

// Ellipse возвращает эксцентриситет и угол ориентации (в градусах)
// эллипса, аппроксимирующего контур.
func (m Moments) Ellipse() (eccentricity, angle float64) {
	if m.M00 <= 0 {
		return 0, 0
	}
	a := m.Mu20 + m.Mu02
	b := math.Sqrt(4*m.Mu11*m.Mu11 + (m.Mu20-m.Mu02)*(m.Mu20-m.Mu02))
	major := math.Sqrt(math.Max(0, 2*(a+b)))
	minor := math.Sqrt(math.Max(0, 2*(a-b)))
	if major > 0 {
		eccentricity = math.Sqrt(math.Max(0, 1-(minor*minor)/(major*major)))
	}
	theta := 0.5 * math.Atan2(2*m.Mu11, m.Mu20-m.Mu02)
	return eccentricity, theta * 180 / math.Pi
}
