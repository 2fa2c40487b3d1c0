package app

import (
	"image"
	"sync"

	"disk-guider/internal/domain/entity"
)

// VisualState последний снимок внутренних признаков детектора для
// отображения. Запись и чтение копируют данные под мьютексом.
type VisualState struct {
	mu      sync.Mutex
	enabled bool
	snap    entity.VisualSnapshot
}

// NewVisualState создаёт состояние визуализации.
func NewVisualState(enabled bool) *VisualState {
	return &VisualState{enabled: enabled}
}

// Publish сохраняет снимок; при выключенной визуализации ничего не делает.
func (v *VisualState) Publish(snap entity.VisualSnapshot) bool {
	snap = snap.Clone()

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.enabled {
		return false
	}
	v.snap = snap
	return true
}

// SetROI обновляет рабочую область независимо от включения визуализации.
func (v *VisualState) SetROI(roi image.Rectangle) {
	v.mu.Lock()
	v.snap.ROI = roi
	v.mu.Unlock()
}

// ClearContour удаляет контур из снимка.
func (v *VisualState) ClearContour() {
	v.mu.Lock()
	v.snap.Contour = nil
	v.mu.Unlock()
}

// SetEnabled включает или выключает визуализацию, очищая контур.
func (v *VisualState) SetEnabled(enabled bool) {
	v.mu.Lock()
	v.snap.Contour = nil
	v.enabled = enabled
	v.mu.Unlock()
}

// Enabled сообщает, включена ли визуализация.
func (v *VisualState) Enabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.enabled
}

// Snapshot возвращает копию текущего снимка.
func (v *VisualState) Snapshot() entity.VisualSnapshot {
	v.mu.Lock()
	snap := v.snap
	v.mu.Unlock()
	return snap.Clone()
}
