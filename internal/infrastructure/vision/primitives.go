//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"disk-guider/internal/domain/entity"
	"disk-guider/internal/domain/port"
	"disk-guider/internal/infrastructure/geometry"
)

// GoCVPrimitives примитивы обработки изображений на OpenCV.
type GoCVPrimitives struct {
	geometry.Kernel
}

// NewGoCVPrimitives создаёт примитивы на OpenCV.
func NewGoCVPrimitives() *GoCVPrimitives {
	return &GoCVPrimitives{}
}

// Available сообщает, что сборка содержит OpenCV.
func (p *GoCVPrimitives) Available() bool {
	return true
}

// Blur сглаживает шум гауссовым ядром 3x3 с sigma 1.5.
func (p *GoCVPrimitives) Blur(src *image.Gray) (*image.Gray, error) {
	mat, err := grayToMat(src)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(mat, &blurred, image.Pt(3, 3), 1.5, 1.5, gocv.BorderDefault)

	return matToGray(blurred)
}

// EdgeDetect выделяет границы детектором Canny.
func (p *GoCVPrimitives) EdgeDetect(src *image.Gray, low, high float64) (*image.Gray, error) {
	mat, err := grayToMat(src)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(mat, &edges, float32(low), float32(high))

	return matToGray(edges)
}

// Dilate расширяет границы прямоугольным ядром 3x3 заданное число раз.
func (p *GoCVPrimitives) Dilate(src *image.Gray, iterations int) (*image.Gray, error) {
	mat, err := grayToMat(src)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()

	for i := 0; i < iterations; i++ {
		dst := gocv.NewMat()
		gocv.Dilate(mat, &dst, kernel)
		mat.Close()
		mat = dst
	}

	return matToGray(mat)
}

// FindContours возвращает все контуры (RETR_LIST, CHAIN_APPROX_NONE).
func (p *GoCVPrimitives) FindContours(src *image.Gray) ([]entity.Contour, error) {
	mat, err := grayToMat(src)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	vectors := gocv.FindContours(mat, gocv.RetrievalList, gocv.ChainApproxNone)
	defer vectors.Close()

	contours := make([]entity.Contour, 0, vectors.Size())
	for i := 0; i < vectors.Size(); i++ {
		contours = append(contours, entity.Contour(vectors.At(i).ToPoints()))
	}
	return contours, nil
}

// SobelMean средний модуль градиента Собеля 3x3 по плоскости отсчётов.
func (p *GoCVPrimitives) SobelMean(samples []float64, width, height int) (float64, error) {
	if width <= 0 || height <= 0 || len(samples) < width*height {
		return 0, entity.ErrNoFrame
	}

	plane := gocv.NewMatWithSize(height, width, gocv.MatTypeCV32F)
	defer plane.Close()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			plane.SetFloatAt(y, x, float32(samples[y*width+x]))
		}
	}

	gx := gocv.NewMat()
	defer gx.Close()
	gocv.Sobel(plane, &gx, gocv.MatTypeCV32F, 1, 0, 3, 1, 0, gocv.BorderDefault)

	gy := gocv.NewMat()
	defer gy.Close()
	gocv.Sobel(plane, &gy, gocv.MatTypeCV32F, 0, 1, 3, 1, 0, gocv.BorderDefault)

	magnitude := gocv.NewMat()
	defer magnitude.Close()
	gocv.Magnitude(gx, gy, &magnitude)

	return magnitude.Mean().Val1, nil
}

// MinEnclosingCircle возвращает минимальную описанную окружность контура.
func (p *GoCVPrimitives) MinEnclosingCircle(contour entity.Contour) entity.CircleDescriptor {
	if len(contour) == 0 {
		return entity.CircleDescriptor{}
	}
	pv := gocv.NewPointVectorFromPoints(contour)
	defer pv.Close()

	x, y, r := gocv.MinEnclosingCircle(pv)
	return entity.CircleDescriptor{X: float64(x), Y: float64(y), Radius: float64(r)}
}

func grayToMat(src *image.Gray) (gocv.Mat, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return gocv.Mat{}, entity.ErrNoFrame
	}

	data := src.Pix
	if src.Stride != w {
		data = make([]byte, w*h)
		for y := 0; y < h; y++ {
			copy(data[y*w:(y+1)*w], src.Pix[y*src.Stride:y*src.Stride+w])
		}
	}

	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8U, data)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to create mat: %w", err)
	}
	return mat, nil
}

func matToGray(mat gocv.Mat) (*image.Gray, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("empty mat")
	}
	img := image.NewGray(image.Rect(0, 0, mat.Cols(), mat.Rows()))
	copy(img.Pix, mat.ToBytes())
	return img, nil
}

// Проверка реализации интерфейса
var _ port.GeometryPrimitives = (*GoCVPrimitives)(nil)
