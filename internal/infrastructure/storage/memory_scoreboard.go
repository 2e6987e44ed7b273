package storage

import (
	"context"
	"sync"

	"emotiscan/internal/domain/entity"
	"emotiscan/internal/domain/port"
)

// MemoryScoreboard хранит последнее опубликованное табло
type MemoryScoreboard struct {
	mu      sync.RWMutex
	board   entity.Scoreboard
	updates uint64
}

func NewMemoryScoreboard() *MemoryScoreboard {
	return &MemoryScoreboard{}
}

// Publish заменяет табло целиком
func (s *MemoryScoreboard) Publish(ctx context.Context, board entity.Scoreboard) error {
	s.mu.Lock()
	s.board = board
	s.updates++
	s.mu.Unlock()
	return nil
}

// Latest возвращает последнее табло и число обновлений
func (s *MemoryScoreboard) Latest() (entity.Scoreboard, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board, s.updates
}

// Проверка реализации интерфейса
var _ port.Presenter = (*MemoryScoreboard)(nil)
