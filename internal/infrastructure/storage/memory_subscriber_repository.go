package storage

import (
	"context"
	"sort"
	"sync"

	"disk-guider/internal/domain/entity"
	"disk-guider/internal/domain/port"
)

// MemorySubscriberRepository in-memory хранилище подписчиков
type MemorySubscriberRepository struct {
	mu          sync.RWMutex
	subscribers map[int64]*entity.Subscriber
}

// NewMemorySubscriberRepository создаёт новое in-memory хранилище
func NewMemorySubscriberRepository() *MemorySubscriberRepository {
	return &MemorySubscriberRepository{
		subscribers: make(map[int64]*entity.Subscriber),
	}
}

// Get возвращает подписчика по ID, создаёт нового если не найден
func (r *MemorySubscriberRepository) Get(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error) {
	r.mu.RLock()
	sub, exists := r.subscribers[userID]
	r.mu.RUnlock()

	if exists {
		return sub, nil
	}

	// Создаём нового подписчика
	newSub := entity.NewSubscriber(userID, chatID)

	r.mu.Lock()
	if existing, ok := r.subscribers[userID]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.subscribers[userID] = newSub
	r.mu.Unlock()

	return newSub, nil
}

// Save сохраняет состояние подписчика
func (r *MemorySubscriberRepository) Save(ctx context.Context, sub *entity.Subscriber) error {
	r.mu.Lock()
	r.subscribers[sub.ID] = sub
	r.mu.Unlock()

	return nil
}

// UpdateState обновляет состояние подписки
func (r *MemorySubscriberRepository) UpdateState(ctx context.Context, userID int64, state entity.SubscriberState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub, exists := r.subscribers[userID]; exists {
		sub.SetState(state)
	}

	return nil
}

// List возвращает копии всех подписчиков, упорядоченные по ID
func (r *MemorySubscriberRepository) List(ctx context.Context) ([]*entity.Subscriber, error) {
	r.mu.RLock()
	out := make([]*entity.Subscriber, 0, len(r.subscribers))
	for _, sub := range r.subscribers {
		c := *sub
		out = append(out, &c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Проверка реализации интерфейса
var _ port.SubscriberRepository = (*MemorySubscriberRepository)(nil)
