package app

import (
	"context"
	"sync"

	"emotiscan/internal/domain/entity"
	"emotiscan/internal/domain/port"
)

// SourceSelector выбирает между камерой и загруженным изображением.
// Пока изображение задано, камера не опрашивается.
type SourceSelector struct {
	camera port.Camera

	mu    sync.RWMutex
	still *entity.Frame
}

// NewSourceSelector создаёт селектор. camera может быть nil, тогда доступны только изображения.
func NewSourceSelector(camera port.Camera) *SourceSelector {
	return &SourceSelector{camera: camera}
}

// SetStill делает изображение источником кадров
func (s *SourceSelector) SetStill(frame *entity.Frame) {
	s.mu.Lock()
	s.still = frame
	s.mu.Unlock()
}

// ClearStill возвращает источник к камере. Возвращает false, если изображения не было.
func (s *SourceSelector) ClearStill() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.still != nil
	s.still = nil
	return had
}

// Mode возвращает текущий режим источника
func (s *SourceSelector) Mode() entity.FrameOrigin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.still != nil {
		return entity.OriginStill
	}
	return entity.OriginLive
}

// CameraReady сообщает, отдаёт ли камера кадры
func (s *SourceSelector) CameraReady() bool {
	return s.camera != nil && s.camera.Ready()
}

// CurrentFrame возвращает загруженное изображение или кадр с камеры
func (s *SourceSelector) CurrentFrame(ctx context.Context) (*entity.Frame, error) {
	s.mu.RLock()
	still := s.still
	s.mu.RUnlock()

	if still != nil {
		return still, nil
	}
	if s.camera == nil {
		return nil, entity.ErrSourceUnavailable
	}
	return s.camera.Snapshot(ctx)
}

// Проверка реализации интерфейса
var _ port.FrameSource = (*SourceSelector)(nil)
