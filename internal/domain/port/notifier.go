package port

import (
	"context"

	"disk-guider/internal/domain/entity"
)

// AdvisoryNotifier интерфейс доставки предупреждений пользователю
type AdvisoryNotifier interface {
	// Notify отправляет предупреждение о проблеме с кадром или параметрами
	Notify(ctx context.Context, advisory entity.Advisory) error
}
