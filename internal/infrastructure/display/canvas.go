// Package display выводит композицию на ближайшей перерисовке.
package display

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"emotiscan/internal/domain/port"
)

// DefaultRepaintInterval примерно 30 кадров в секунду
const DefaultRepaintInterval = 33 * time.Millisecond

// Canvas хранит последнюю нарисованную композицию.
// Schedule только запоминает изображение, рисуется оно на ближайшем тике перерисовки.
type Canvas struct {
	clock    clock.Clock
	interval time.Duration
	path     string
	logger   *zap.SugaredLogger

	mu      sync.RWMutex
	pending image.Image
	current image.Image
	paints  uint64
}

// NewCanvas создаёт поверхность. Если path не пустой, каждая перерисовка сохраняется в файл.
func NewCanvas(clk clock.Clock, interval time.Duration, path string, logger *zap.SugaredLogger) *Canvas {
	if clk == nil {
		clk = clock.New()
	}
	if interval <= 0 {
		interval = DefaultRepaintInterval
	}
	return &Canvas{
		clock:    clk,
		interval: interval,
		path:     path,
		logger:   logger,
	}
}

// Schedule ставит изображение на ближайшую перерисовку, заменяя ещё не нарисованное
func (c *Canvas) Schedule(img image.Image) {
	c.mu.Lock()
	c.pending = img
	c.mu.Unlock()
}

// Run перерисовывает поверхность на каждом тике до отмены ctx
func (c *Canvas) Run(ctx context.Context) error {
	ticker := c.clock.Ticker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := c.Repaint(); err != nil {
				c.logger.Warnw("repaint failed", "path", c.path, "error", err)
			}
		}
	}
}

// Repaint рисует отложенное изображение, если оно есть. Одно изображение рисуется не больше одного раза.
func (c *Canvas) Repaint() (bool, error) {
	c.mu.Lock()
	img := c.pending
	c.pending = nil
	if img != nil {
		c.current = img
		c.paints++
	}
	c.mu.Unlock()

	if img == nil || c.path == "" {
		return img != nil, nil
	}
	return true, c.save(img)
}

// Latest возвращает последнее нарисованное изображение и число перерисовок
func (c *Canvas) Latest() (image.Image, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.paints
}

// save пишет файл через временный, чтобы читатели не видели недописанное изображение
func (c *Canvas) save(img image.Image) error {
	dir, base := filepath.Split(c.path)
	tmp := filepath.Join(dir, ".tmp-"+base)
	if err := imaging.Save(img, tmp); err != nil {
		return fmt.Errorf("save frame: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace frame: %w", err)
	}
	return nil
}

// Проверка реализации интерфейса
var _ port.Surface = (*Canvas)(nil)
