package app

import (
	"context"
	"errors"
	"sync"

	"disk-guider/internal/domain/entity"
	"disk-guider/internal/domain/port"
)

// FrameService принимает кадры из внешних источников и прогоняет их через
// трекер. Обнаружения выполняются по одному: состояние трекинга
// переходит от кадра к кадру.
type FrameService struct {
	tracker *DiskTracker
	codec   port.FrameCodec
	last    *entity.Frame
	mu      sync.RWMutex
	detect  sync.Mutex
}

// FrameOutput содержит результат обнаружения и превью с подсветкой диска.
type FrameOutput struct {
	Result      *entity.DetectionResult
	Highlighted []byte
}

// NewFrameService создаёт сервис обработки кадров.
func NewFrameService(tracker *DiskTracker, codec port.FrameCodec) *FrameService {
	return &FrameService{
		tracker: tracker,
		codec:   codec,
	}
}

// ProcessFrame декодирует файл кадра и запускает обнаружение.
func (s *FrameService) ProcessFrame(ctx context.Context, data []byte, autoSelect bool) (*FrameOutput, error) {
	if s.codec == nil {
		return nil, errors.New("frame codec is not configured")
	}
	frame, err := s.codec.Decode(data)
	if err != nil {
		return nil, err
	}
	return s.Process(ctx, frame, autoSelect)
}

// Process запускает обнаружение на уже декодированном кадре.
func (s *FrameService) Process(ctx context.Context, frame *entity.Frame, autoSelect bool) (*FrameOutput, error) {
	// Запоминаем кадр, чтобы пользователь мог указать на нём цель.
	s.mu.Lock()
	s.last = frame
	s.mu.Unlock()

	s.detect.Lock()
	result, err := s.tracker.Detect(ctx, frame, autoSelect)
	s.detect.Unlock()
	if err != nil {
		return nil, err
	}
	return &FrameOutput{Result: result, Highlighted: s.render(frame, result)}, nil
}

// SelectAt выбирает диск по точке на последнем принятом кадре.
func (s *FrameService) SelectAt(ctx context.Context, x, y float64) (*FrameOutput, error) {
	s.mu.RLock()
	frame := s.last
	s.mu.RUnlock()
	if frame.Empty() {
		return nil, entity.ErrNoFrame
	}

	s.detect.Lock()
	result, err := s.tracker.SelectAt(ctx, frame, x, y)
	s.detect.Unlock()
	if err != nil {
		return nil, err
	}
	return &FrameOutput{Result: result, Highlighted: s.render(frame, result)}, nil
}

// LastFrame возвращает последний принятый кадр.
func (s *FrameService) LastFrame() (*entity.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.last != nil
}

// Preview рисует последний кадр с последним найденным диском.
func (s *FrameService) Preview() ([]byte, error) {
	if s.codec == nil {
		return nil, errors.New("frame codec is not configured")
	}
	s.mu.RLock()
	frame := s.last
	s.mu.RUnlock()
	if frame.Empty() {
		return nil, entity.ErrNoFrame
	}

	result, _ := s.tracker.LastResult()
	return s.codec.Render(frame, result)
}

func (s *FrameService) render(frame *entity.Frame, result *entity.DetectionResult) []byte {
	if s.codec == nil {
		return nil
	}
	highlighted, _ := s.codec.Render(frame, result)
	return highlighted
}
