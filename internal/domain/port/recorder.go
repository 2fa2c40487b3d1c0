package port

import "disk-guider/internal/domain/entity"

// DetectionRecorder интерфейс сбора статистики обнаружения
type DetectionRecorder interface {
	// ObserveDetection учитывает диагностику одного кадра
	ObserveDetection(stats entity.DetectionStats)
}
