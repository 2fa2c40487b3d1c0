package port

import "disk-guider/internal/domain/entity"

// FrameCodec интерфейс декодирования кадров и отрисовки результата
type FrameCodec interface {
	// Decode превращает файл изображения (PNG, JPEG, TIFF) в кадр сенсора
	Decode(data []byte) (*entity.Frame, error)

	// Render создаёт превью кадра с наложенным контуром и центром диска
	Render(frame *entity.Frame, result *entity.DetectionResult) ([]byte, error)
}
