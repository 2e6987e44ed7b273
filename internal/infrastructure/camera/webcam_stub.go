//go:build !gocv
// +build !gocv

package camera

import (
	"context"
	"errors"

	"emotiscan/internal/domain/entity"
)

// Webcam камера-заглушка (без OpenCV).
type Webcam struct{}

// OpenWebcam возвращает ошибку, если сборка без тега gocv.
func OpenWebcam(device string) (*Webcam, error) {
	_ = device
	return nil, errors.New("gocv build tag is not enabled")
}

func (w *Webcam) Ready() bool { return false }

func (w *Webcam) Snapshot(ctx context.Context) (*entity.Frame, error) {
	_ = ctx
	return nil, entity.ErrSourceUnavailable
}

func (w *Webcam) Close() error { return nil }
