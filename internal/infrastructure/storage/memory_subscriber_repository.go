package storage

import (
	"context"
	"sort"
	"sync"

	"emotiscan/internal/domain/entity"
	"emotiscan/internal/domain/port"
)

// MemorySubscriberRepository in-memory хранилище собеседников
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

// Get возвращает собеседника по ID, создаёт нового если не найден
func (r *MemorySubscriberRepository) Get(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub, exists := r.subscribers[userID]; exists {
		copied := *sub
		return &copied, nil
	}

	sub := entity.NewSubscriber(userID, chatID)
	r.subscribers[userID] = sub

	copied := *sub
	return &copied, nil
}

// Save сохраняет состояние собеседника
func (r *MemorySubscriberRepository) Save(ctx context.Context, sub *entity.Subscriber) error {
	copied := *sub

	r.mu.Lock()
	r.subscribers[sub.ID] = &copied
	r.mu.Unlock()

	return nil
}

// Update выполняет чтение, изменение и запись под одной блокировкой
func (r *MemorySubscriberRepository) Update(ctx context.Context, userID, chatID int64, fn func(s *entity.Subscriber)) (*entity.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, exists := r.subscribers[userID]
	if !exists {
		sub = entity.NewSubscriber(userID, chatID)
		r.subscribers[userID] = sub
	}
	fn(sub)

	copied := *sub
	return &copied, nil
}

// List возвращает копии всех собеседников, упорядоченные по ID
func (r *MemorySubscriberRepository) List(ctx context.Context) ([]*entity.Subscriber, error) {
	r.mu.RLock()
	out := make([]*entity.Subscriber, 0, len(r.subscribers))
	for _, sub := range r.subscribers {
		copied := *sub
		out = append(out, &copied)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Проверка реализации интерфейса
var _ port.SubscriberRepository = (*MemorySubscriberRepository)(nil)
