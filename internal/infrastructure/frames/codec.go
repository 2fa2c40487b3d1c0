package frames

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"disk-guider/internal/domain/entity"
	"disk-guider/internal/domain/port"
)

// Codec декодирует файлы кадров и рисует превью с результатом обнаружения.
type Codec struct {
	// PreviewSide наибольшая сторона превью в пикселях
	PreviewSide int
}

// NewCodec создаёт кодек с размером превью по умолчанию.
func NewCodec() *Codec {
	return &Codec{PreviewSide: 1024}
}

// Decode декодирует PNG, JPEG или TIFF. 16-битные серые изображения
// сохраняют разрядность, остальные приводятся к яркости в 8 бит.
func (c *Codec) Decode(data []byte) (*entity.Frame, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrUnsupportedFrame, err)
	}
	return FromImage(img)
}

// LoadFile читает кадр из файла.
func (c *Codec) LoadFile(path string) (*entity.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame %s: %w", path, err)
	}
	return c.Decode(data)
}

// FromImage преобразует изображение в кадр сенсора.
func FromImage(img image.Image) (*entity.Frame, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, entity.ErrNoFrame
	}

	switch src := img.(type) {
	case *image.Gray16:
		frame := entity.NewFrame(b.Dx(), b.Dy(), 16)
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				frame.Set(x, y, src.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
		return frame, nil
	case *image.Gray:
		frame := entity.NewFrame(b.Dx(), b.Dy(), 8)
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				frame.Set(x, y, uint16(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
		return frame, nil
	}

	frame := entity.NewFrame(b.Dx(), b.Dy(), 8)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			frame.Set(x, y, uint16(g.Y))
		}
	}
	return frame, nil
}

var (
	contourColor = color.RGBA{R: 230, A: 255}
	centerColor  = color.RGBA{G: 230, A: 255}
)

// Render рисует превью кадра: контур красным, центр зелёным крестом.
func (c *Codec) Render(frame *entity.Frame, result *entity.DetectionResult) ([]byte, error) {
	if frame.Empty() {
		return nil, errors.New("empty frame")
	}

	shift := 0
	if frame.BitsPerPixel > 8 {
		shift = frame.BitsPerPixel - 8
	}
	full := image.NewRGBA(frame.Bounds())
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			v := uint8(min(frame.At(x, y)>>shift, 255))
			full.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	if result != nil {
		for _, p := range result.Contour {
			dot(full, int(p.X), int(p.Y), 1, contourColor)
		}
		cx, cy := int(result.CenterX), int(result.CenterY)
		size := max(3, result.Radius/10)
		for d := -size; d <= size; d++ {
			dot(full, cx+d, cy, 0, centerColor)
			dot(full, cx, cy+d, 0, centerColor)
		}
	}

	preview := image.Image(full)
	if side := max(frame.Width, frame.Height); c.PreviewSide > 0 && side > c.PreviewSide {
		scale := float64(c.PreviewSide) / float64(side)
		w := max(1, int(float64(frame.Width)*scale))
		h := max(1, int(float64(frame.Height)*scale))
		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), full, full.Bounds(), draw.Src, nil)
		preview = scaled
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, preview); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

func dot(img *image.RGBA, x, y, r int, c color.RGBA) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if (image.Point{X: x + dx, Y: y + dy}).In(img.Rect) {
				img.SetRGBA(x+dx, y+dy, c)
			}
		}
	}
}

// Проверка реализации интерфейса
var _ port.FrameCodec = (*Codec)(nil)
