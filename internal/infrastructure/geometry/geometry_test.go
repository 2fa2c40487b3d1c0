package geometry

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func square(side int) []image.Point {
	return []image.Point{{0, 0}, {side, 0}, {side, side}, {0, side}}
}

func ring(cx, cy, r float64, n int) []image.Point {
	pts := make([]image.Point, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = image.Pt(int(math.Round(cx+r*math.Cos(a))), int(math.Round(cy+r*math.Sin(a))))
	}
	return pts
}

func TestEnclosingCircle_Square(t *testing.T) {
	c := EnclosingCircle(square(10))
	require.InDelta(t, 5.0, c.X, 1e-9)
	require.InDelta(t, 5.0, c.Y, 1e-9)
	require.InDelta(t, 5*math.Sqrt2, c.Radius, 1e-9)
}

func TestEnclosingCircle_Ring(t *testing.T) {
	pts := ring(500, 400, 100, 64)
	c := EnclosingCircle(pts)
	require.InDelta(t, 500.0, c.X, 1.0)
	require.InDelta(t, 400.0, c.Y, 1.0)
	require.InDelta(t, 100.0, c.Radius, 1.0)

	for _, p := range pts {
		d := math.Hypot(float64(p.X)-c.X, float64(p.Y)-c.Y)
		require.LessOrEqual(t, d, c.Radius+1e-6)
	}
}

func TestEnclosingCircle_Degenerate(t *testing.T) {
	require.False(t, EnclosingCircle(nil).Valid())
	require.False(t, EnclosingCircle([]image.Point{{3, 4}}).Valid())

	c := EnclosingCircle([]image.Point{{0, 0}, {5, 0}, {10, 0}})
	require.InDelta(t, 5.0, c.X, 1e-9)
	require.InDelta(t, 5.0, c.Radius, 1e-9)
}

func TestPolygonMoments_Square(t *testing.T) {
	m := PolygonMoments(square(10))
	require.InDelta(t, 100.0, m.M00, 1e-9)
	center, ok := m.Centroid()
	require.True(t, ok)
	require.InDelta(t, 5.0, center.X, 1e-9)
	require.InDelta(t, 5.0, center.Y, 1e-9)
	require.InDelta(t, 10000.0/12, m.Mu20, 1e-6)
	require.InDelta(t, 10000.0/12, m.Mu02, 1e-6)
	require.InDelta(t, 0.0, m.Mu11, 1e-6)

	ecc, _ := m.Ellipse()
	require.InDelta(t, 0.0, ecc, 1e-9)
}

func TestPolygonMoments_OrientationIndependent(t *testing.T) {
	cw := square(10)
	ccw := []image.Point{cw[3], cw[2], cw[1], cw[0]}
	require.InDelta(t, PolygonMoments(cw).M00, PolygonMoments(ccw).M00, 1e-9)
	require.InDelta(t, PolygonMoments(cw).Mu20, PolygonMoments(ccw).Mu20, 1e-9)
}

func TestPolygonMoments_Elongated(t *testing.T) {
	rect := []image.Point{{0, 0}, {40, 0}, {40, 10}, {0, 10}}
	m := PolygonMoments(rect)
	ecc, angle := m.Ellipse()
	require.InDelta(t, math.Sqrt(15.0/16), ecc, 1e-9)
	require.InDelta(t, 0.0, angle, 1e-9)

	require.Equal(t, 0.0, PolygonMoments([]image.Point{{0, 0}, {1, 1}}).M00)
}

func TestKernel(t *testing.T) {
	var k Kernel
	pts := ring(0, 0, 50, 32)
	require.InDelta(t, 50.0, k.MinEnclosingCircle(pts).Radius, 1.0)
	require.Greater(t, k.Moments(pts).M00, 0.0)
}
