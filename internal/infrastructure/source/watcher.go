// Package source подаёт загруженные изображения в селектор источника.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"emotiscan/internal/domain/entity"
	"emotiscan/internal/infrastructure/codec"
)

// StillTarget принимает загруженное изображение или возвращает источник к камере
type StillTarget interface {
	SetStill(frame *entity.Frame)
	ClearStill() bool
}

// LoadStill читает файл и делает его источником кадров
func LoadStill(path string, target StillTarget) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	frame, err := codec.FrameFromBytes(data, entity.OriginStill)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	target.SetStill(frame)
	return nil
}

// FileWatcher следит за файлом. Новый или изменённый файл становится источником кадров,
// после удаления источник возвращается к камере.
type FileWatcher struct {
	path   string
	target StillTarget
	logger *zap.SugaredLogger
}

func NewFileWatcher(path string, target StillTarget, logger *zap.SugaredLogger) *FileWatcher {
	return &FileWatcher{
		path:   filepath.Clean(path),
		target: target,
		logger: logger,
	}
}

// Run следит за каталогом файла до отмены ctx
func (w *FileWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Следим за каталогом, чтобы видеть создание и переименование файла.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	if err := LoadStill(w.path, w.target); err == nil {
		w.logger.Infow("still image loaded", "path", w.path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		w.logger.Warnw("still image rejected", "path", w.path, "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			w.handle(ev)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("watcher error", "error", err)
		}
	}
}

func (w *FileWatcher) handle(ev fsnotify.Event) {
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		if w.target.ClearStill() {
			w.logger.Infow("still image removed, back to live source", "path", w.path)
		}
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		if err := LoadStill(w.path, w.target); err != nil {
			// Файл может быть дописан не до конца, следующее событие загрузит его снова.
			w.logger.Debugw("still image not loaded", "path", w.path, "error", err)
			return
		}
		w.logger.Infow("still image loaded", "path", w.path)
	}
}
