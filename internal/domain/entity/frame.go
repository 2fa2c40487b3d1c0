package entity

import (
	"errors"
	"image"
)

// MaxFrameSide максимальная сторона кадра, который мы готовы обрабатывать.
const MaxFrameSide = 4096

var (
	ErrFrameTooLarge        = errors.New("frame exceeds 4096x4096")
	ErrTooManyContourPoints = errors.New("too many contour points")
	ErrDetectionPaused      = errors.New("detection is paused")
	ErrNotFound             = errors.New("object not found")
	ErrNoFrame              = errors.New("empty frame")
	ErrUnsupportedFrame     = errors.New("unsupported frame format")
)

// Frame кадр с сенсора: беззнаковые отсчёты, до 16 бит на пиксель.
type Frame struct {
	Width        int
	Height       int
	BitsPerPixel int
	Pix          []uint16 // построчно, len == Width*Height
}

// NewFrame создаёт пустой кадр заданного размера.
func NewFrame(width, height, bpp int) *Frame {
	return &Frame{
		Width:        width,
		Height:       height,
		BitsPerPixel: bpp,
		Pix:          make([]uint16, width*height),
	}
}

// Bounds возвращает прямоугольник кадра.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// Size возвращает размер кадра.
func (f *Frame) Size() image.Point {
	return image.Pt(f.Width, f.Height)
}

// At возвращает отсчёт в точке (x, y).
func (f *Frame) At(x, y int) uint16 {
	return f.Pix[y*f.Width+x]
}

// Set записывает отсчёт в точку (x, y).
func (f *Frame) Set(x, y int, v uint16) {
	f.Pix[y*f.Width+x] = v
}

// Empty сообщает, что кадр не содержит данных.
func (f *Frame) Empty() bool {
	return f == nil || f.Width <= 0 || f.Height <= 0 || len(f.Pix) < f.Width*f.Height
}

// TooLarge сообщает, что кадр превышает предел 4096x4096.
func (f *Frame) TooLarge() bool {
	return f.Width > MaxFrameSide || f.Height > MaxFrameSide
}
