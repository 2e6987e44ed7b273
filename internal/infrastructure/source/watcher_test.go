package source

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"emotiscan/internal/domain/entity"
)

type fakeTarget struct {
	mu    sync.Mutex
	still *entity.Frame
}

func (t *fakeTarget) SetStill(frame *entity.Frame) {
	t.mu.Lock()
	t.still = frame
	t.mu.Unlock()
}

func (t *fakeTarget) ClearStill() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	had := t.still != nil
	t.still = nil
	return had
}

func (t *fakeTarget) get() *entity.Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.still
}

func writePNG(t *testing.T, path string, w int) {
	t.Helper()
	require.NoError(t, imaging.Save(imaging.New(w, w, color.White), path))
}

func TestLoadStill(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face.png")
	writePNG(t, path, 12)

	target := &fakeTarget{}
	require.NoError(t, LoadStill(path, target))
	require.Equal(t, 12, target.get().Width)
	require.Equal(t, entity.OriginStill, target.get().Origin)

	require.Error(t, LoadStill(filepath.Join(t.TempDir(), "missing.png"), target))
}

func TestFileWatcher_SwitchesSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "face.png")
	writePNG(t, path, 10)

	target := &fakeTarget{}
	w := NewFileWatcher(path, target, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		f := target.get()
		return f != nil && f.Width == 10
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool { return target.get() == nil }, 2*time.Second, 10*time.Millisecond)

	writePNG(t, path, 20)
	require.Eventually(t, func() bool {
		f := target.get()
		return f != nil && f.Width == 20
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
