package app

import (
	"context"

	"emotiscan/internal/domain/entity"
	"emotiscan/internal/domain/port"
)

type SubscriberService struct {
	repo port.SubscriberRepository
}

func NewSubscriberService(repo port.SubscriberRepository) *SubscriberService {
	return &SubscriberService{repo: repo}
}

func (s *SubscriberService) Get(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *SubscriberService) SetState(ctx context.Context, userID, chatID int64, state entity.SubscriberState) (*entity.Subscriber, error) {
	return s.repo.Update(ctx, userID, chatID, func(sub *entity.Subscriber) {
		sub.SetState(state)
	})
}

// BeginUpload ждёт от собеседника фото
func (s *SubscriberService) BeginUpload(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

// Cancel возвращает собеседника в главное меню
func (s *SubscriberService) Cancel(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// SetNotify включает или выключает уведомления о смене эмоции
func (s *SubscriberService) SetNotify(ctx context.Context, userID, chatID int64, on bool) (*entity.Subscriber, error) {
	return s.repo.Update(ctx, userID, chatID, func(sub *entity.Subscriber) {
		sub.Notify = on
		if !on {
			sub.LastSeen = ""
		}
	})
}

// DominantChanged отбирает подписчиков, для которых доминирующая эмоция сменилась, и запоминает её.
// Решение принимается по актуальной записи, поэтому одновременная отписка не теряется.
func (s *SubscriberService) DominantChanged(ctx context.Context, dominant string) ([]*entity.Subscriber, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	var changed []*entity.Subscriber
	for _, candidate := range all {
		if !candidate.Notify {
			continue
		}

		notify := false
		sub, err := s.repo.Update(ctx, candidate.ID, candidate.ChatID, func(sub *entity.Subscriber) {
			if !sub.Notify || sub.LastSeen == dominant {
				return
			}
			sub.LastSeen = dominant
			notify = true
		})
		if err != nil {
			return nil, err
		}
		if notify {
			changed = append(changed, sub)
		}
	}

	return changed, nil
}
