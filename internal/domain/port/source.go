package port

import (
	"context"

	"emotiscan/internal/domain/entity"
)

// FrameSource источник кадров для цикла анализа
type FrameSource interface {
	// CurrentFrame возвращает кадр или entity.ErrSourceUnavailable
	CurrentFrame(ctx context.Context) (*entity.Frame, error)
}

// Camera живой источник видео
type Camera interface {
	// Ready сообщает, что камера отдаёт кадры
	Ready() bool

	// Snapshot снимает текущий кадр
	Snapshot(ctx context.Context) (*entity.Frame, error)

	Close() error
}
