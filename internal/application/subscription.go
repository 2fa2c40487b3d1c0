package app

import (
	"context"

	"disk-guider/internal/domain/entity"
	"disk-guider/internal/domain/port"
)

type SubscriptionService struct {
	repo port.SubscriberRepository
}

func NewSubscriptionService(repo port.SubscriberRepository) *SubscriptionService {
	return &SubscriptionService{repo: repo}
}

func (s *SubscriptionService) Get(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *SubscriptionService) SetState(ctx context.Context, userID, chatID int64, state entity.SubscriberState) (*entity.Subscriber, error) {
	sub, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	sub.SetState(state)
	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, err
	}

	return sub, nil
}

func (s *SubscriptionService) Subscribe(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error) {
	return s.SetState(ctx, userID, chatID, entity.StateSubscribed)
}

func (s *SubscriptionService) Mute(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMuted)
}

// Recipients возвращает чаты с активной подпиской
func (s *SubscriptionService) Recipients(ctx context.Context) ([]int64, error) {
	subs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	chats := make([]int64, 0, len(subs))
	for _, sub := range subs {
		if sub.Active() {
			chats = append(chats, sub.ChatID)
		}
	}
	return chats, nil
}
