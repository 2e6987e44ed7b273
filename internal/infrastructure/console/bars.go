// Package console выводит оценки эмоций шкалами в терминал.
package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"emotiscan/internal/domain/entity"
	"emotiscan/internal/domain/port"
)

const barWidth = 30

// BarPresenter печатает по шкале на каждую эмоцию после каждого результата
type BarPresenter struct {
	mu  sync.Mutex
	out io.Writer
}

func NewBarPresenter(out io.Writer) *BarPresenter {
	return &BarPresenter{out: out}
}

// Publish печатает табло целиком
func (p *BarPresenter) Publish(ctx context.Context, board entity.Scoreboard) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := fmt.Fprintf(p.out, "emotion: %s\n", board.Dominant); err != nil {
		return err
	}
	for _, e := range entity.Emotions {
		bar := progressbar.NewOptions(100,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetWidth(barWidth),
			progressbar.OptionSetDescription(fmt.Sprintf("%-9s", e.DisplayName())),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetElapsedTime(false),
			progressbar.OptionShowCount(),
		)
		if err := bar.Set(board.Percent[e]); err != nil {
			return err
		}
		if _, err := io.WriteString(p.out, "\n"); err != nil {
			return err
		}
	}
	if board.Caption != "" {
		if _, err := fmt.Fprintln(p.out, board.Caption); err != nil {
			return err
		}
	}
	return nil
}

// Проверка реализации интерфейса
var _ port.Presenter = (*BarPresenter)(nil)
