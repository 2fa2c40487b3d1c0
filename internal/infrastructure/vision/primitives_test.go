//go:build gocv
// +build gocv

package vision

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func diskImage(w, h, cx, cy, r int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				img.SetGray(x, y, color.Gray{Y: 220})
			}
		}
	}
	return img
}

func TestGoCVPrimitives_FindsDisk(t *testing.T) {
	p := NewGoCVPrimitives()
	require.True(t, p.Available())

	edges, err := p.EdgeDetect(diskImage(200, 200, 100, 90, 50), 20, 40)
	require.NoError(t, err)
	edges, err = p.Dilate(edges, 2)
	require.NoError(t, err)

	contours, err := p.FindContours(edges)
	require.NoError(t, err)
	require.NotEmpty(t, contours)

	best := 0.0
	for _, c := range contours {
		circle := p.MinEnclosingCircle(c)
		if circle.Radius > best {
			best = circle.Radius
		}
	}
	require.InDelta(t, 52.0, best, 4.0)
}

func TestGoCVPrimitives_BlurAndSobel(t *testing.T) {
	p := NewGoCVPrimitives()

	flat := image.NewGray(image.Rect(0, 0, 8, 6))
	for i := range flat.Pix {
		flat.Pix[i] = 100
	}
	out, err := p.Blur(flat)
	require.NoError(t, err)
	require.Equal(t, flat.Bounds(), out.Bounds())
	require.Equal(t, uint8(100), out.GrayAt(3, 3).Y)

	plane := make([]float64, 16*16)
	v, err := p.SobelMean(plane, 16, 16)
	require.NoError(t, err)
	require.InDelta(t, 0.0, v, 1e-9)

	for y := 0; y < 16; y++ {
		plane[y*16+8] = 400
	}
	v, err = p.SobelMean(plane, 16, 16)
	require.NoError(t, err)
	require.Greater(t, v, 0.0)
}
