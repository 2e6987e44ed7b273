package port

import (
	"context"

	"emotiscan/internal/domain/entity"
)

// SubscriberRepository интерфейс хранилища собеседников бота
type SubscriberRepository interface {
	// Get возвращает собеседника по ID, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error)

	// Save сохраняет состояние собеседника
	Save(ctx context.Context, s *entity.Subscriber) error

	// Update меняет собеседника функцией fn атомарно и возвращает копию результата.
	// Неизвестный собеседник создаётся, как в Get.
	Update(ctx context.Context, userID, chatID int64, fn func(s *entity.Subscriber)) (*entity.Subscriber, error)

	// List возвращает всех собеседников
	List(ctx context.Context) ([]*entity.Subscriber, error)
}
