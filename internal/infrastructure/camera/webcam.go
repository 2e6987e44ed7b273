//go:build gocv
// +build gocv

package camera

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"

	"emotiscan/internal/domain/entity"
	"emotiscan/internal/infrastructure/codec"
)

// Webcam живой источник кадров через OpenCV VideoCapture
type Webcam struct {
	mu      sync.Mutex
	device  string
	capture *gocv.VideoCapture
	mat     gocv.Mat
	ready   atomic.Bool
}

// OpenWebcam открывает устройство: номер камеры, путь к файлу или URL потока
func OpenWebcam(device string) (*Webcam, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open video capture %q: %w", device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("video capture %q is not opened", device)
	}
	return &Webcam{
		device:  device,
		capture: capture,
		mat:     gocv.NewMat(),
	}, nil
}

// Ready сообщает, что последнее чтение кадра было успешным
func (w *Webcam) Ready() bool {
	return w.ready.Load()
}

// Snapshot читает следующий кадр. Пока камера не отдаёт кадры, возвращает ErrSourceUnavailable.
func (w *Webcam) Snapshot(ctx context.Context) (*entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if ok := w.capture.Read(&w.mat); !ok || w.mat.Empty() {
		w.ready.Store(false)
		return nil, entity.ErrSourceUnavailable
	}
	w.ready.Store(true)

	img, err := w.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return codec.FrameFromImage(img, entity.OriginLive)
}

// Close освобождает устройство
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ready.Store(false)
	w.mat.Close()
	return w.capture.Close()
}
