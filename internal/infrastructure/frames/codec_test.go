package frames

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"disk-guider/internal/domain/entity"
)

func TestCodec_DecodeTIFF16(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 4, 3))
	src.SetGray16(2, 1, color.Gray16{Y: 40000})

	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, src, nil))

	frame, err := NewCodec().Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 4, frame.Width)
	require.Equal(t, 3, frame.Height)
	require.Equal(t, 16, frame.BitsPerPixel)
	require.Equal(t, uint16(40000), frame.At(2, 1))
	require.Equal(t, uint16(0), frame.At(0, 0))
}

func TestCodec_DecodePNGGray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 5, 5))
	src.SetGray(4, 4, color.Gray{Y: 200})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	frame, err := NewCodec().Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 8, frame.BitsPerPixel)
	require.Equal(t, uint16(200), frame.At(4, 4))
}

func TestCodec_DecodeColor(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.SetRGBA(1, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	frame, err := NewCodec().Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 8, frame.BitsPerPixel)
	require.Equal(t, uint16(255), frame.At(1, 0))
}

func TestCodec_DecodeGarbage(t *testing.T) {
	_, err := NewCodec().Decode([]byte("not an image"))
	require.ErrorIs(t, err, entity.ErrUnsupportedFrame)
}

func TestCodec_Render(t *testing.T) {
	frame := entity.NewFrame(64, 48, 16)
	result := &entity.DetectionResult{
		CenterX: 32, CenterY: 24, Radius: 10,
		Contour: []entity.Point{{X: 42, Y: 24}, {X: 22, Y: 24}},
	}

	data, err := NewCodec().Render(frame, result)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())

	r, g, _, _ := img.At(42, 24).RGBA()
	require.Greater(t, r, g)
	r, g, _, _ = img.At(32, 24).RGBA()
	require.Greater(t, g, r)
}

func TestCodec_RenderScalesPreview(t *testing.T) {
	c := &Codec{PreviewSide: 32}
	data, err := c.Render(entity.NewFrame(128, 64, 8), nil)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 32, 16), img.Bounds())

	_, err = c.Render(&entity.Frame{}, nil)
	require.Error(t, err)
}
