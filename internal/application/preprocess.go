package app

import (
	"fmt"
	"image"
	"math"

	"disk-guider/internal/domain/entity"
)

// roiScale половина стороны ROI в единицах maxRadius.
const roiScale = 1.5

// PreparedFrame 8-битное изображение рабочей области кадра.
type PreparedFrame struct {
	Image     *image.Gray     // начало координат (0, 0) совпадает с ROI.Min
	ROI       image.Rectangle // рабочая область в координатах кадра
	ROIActive bool
}

// PrepareFrame выбирает рабочую область и приводит отсчёты к 8 битам.
// Обновляет state.LastFrameSize.
func PrepareFrame(frame *entity.Frame, params entity.DetectionParameters, state *entity.TrackingState, autoSelect bool) (*PreparedFrame, error) {
	if frame == nil {
		return nil, entity.ErrNoFrame
	}
	// Размер проверяется до данных: слишком большой кадр не читаем вовсе.
	if frame.TooLarge() {
		return nil, fmt.Errorf("%w: %dx%d", entity.ErrFrameTooLarge, frame.Width, frame.Height)
	}
	if frame.Empty() {
		return nil, entity.ErrNoFrame
	}

	out := &PreparedFrame{ROI: frame.Bounds()}
	if useROI(frame, params, state, autoSelect) {
		out.ROI = ROIRect(frame.Size(), params.MaxRadius, state.BiasPoint())
		out.ROIActive = true
	}
	state.LastFrameSize = frame.Size()

	out.Image = ToGray8(frame, out.ROI)
	return out, nil
}

func useROI(frame *entity.Frame, params entity.DetectionParameters, state *entity.TrackingState, autoSelect bool) bool {
	return !autoSelect && params.RoiEnabled && state.Detected && state.CenterInside() &&
		frame.Size() == state.LastFrameSize
}

// ROIRect квадрат со стороной 2*round(1.5*maxRadius) вокруг bias,
// сдвинутый так, чтобы целиком лежать внутри кадра.
func ROIRect(frameSize image.Point, maxRadius int, bias image.Point) image.Rectangle {
	half := int(float64(maxRadius)*roiScale + 0.5)
	side := 2 * half
	if side <= 0 {
		return image.Rectangle{Max: frameSize}
	}
	w := min(side, frameSize.X)
	h := min(side, frameSize.Y)
	x := clamp(bias.X-half, 0, frameSize.X-w)
	y := clamp(bias.Y-half, 0, frameSize.Y-h)
	return image.Rect(x, y, x+w, y+h)
}

// ToGray8 копирует область кадра в 8-битное изображение, сдвигая
// отсчёты на BitsPerPixel-8 бит.
func ToGray8(frame *entity.Frame, rect image.Rectangle) *image.Gray {
	shift := 0
	if frame.BitsPerPixel > 8 {
		shift = frame.BitsPerPixel - 8
	}
	img := image.NewGray(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		src := frame.Pix[(rect.Min.Y+y)*frame.Width+rect.Min.X:]
		for x := 0; x < rect.Dx(); x++ {
			row[x] = uint8(min(src[x]>>shift, math.MaxUint8))
		}
	}
	return img
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return max(lo, min(v, hi))
}
