package app

import (
	"context"
	"image"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"emotiscan/internal/domain/entity"
)

type fakeCamera struct {
	ready     atomic.Bool
	snapshots atomic.Int32
}

func (c *fakeCamera) Ready() bool { return c.ready.Load() }

func (c *fakeCamera) Snapshot(ctx context.Context) (*entity.Frame, error) {
	if !c.ready.Load() {
		return nil, entity.ErrSourceUnavailable
	}
	c.snapshots.Add(1)
	return testFrame(entity.OriginLive), nil
}

func (c *fakeCamera) Close() error { return nil }

func testFrame(origin entity.FrameOrigin) *entity.Frame {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	return entity.NewFrame(img, []byte{1, 2, 3}, "image/jpeg", origin)
}

func TestSourceSelector_Unavailable(t *testing.T) {
	ctx := context.Background()

	_, err := NewSourceSelector(nil).CurrentFrame(ctx)
	require.ErrorIs(t, err, entity.ErrSourceUnavailable)

	_, err = NewSourceSelector(&fakeCamera{}).CurrentFrame(ctx)
	require.ErrorIs(t, err, entity.ErrSourceUnavailable)
}

func TestSourceSelector_StillSupersedesCamera(t *testing.T) {
	ctx := context.Background()
	cam := &fakeCamera{}
	cam.ready.Store(true)
	s := NewSourceSelector(cam)

	f, err := s.CurrentFrame(ctx)
	require.NoError(t, err)
	require.Equal(t, entity.OriginLive, f.Origin)
	require.Equal(t, entity.OriginLive, s.Mode())

	still := testFrame(entity.OriginStill)
	s.SetStill(still)
	f, err = s.CurrentFrame(ctx)
	require.NoError(t, err)
	require.Same(t, still, f)
	require.Equal(t, entity.OriginStill, s.Mode())
	require.Equal(t, int32(1), cam.snapshots.Load())

	require.True(t, s.ClearStill())
	require.False(t, s.ClearStill())
	f, err = s.CurrentFrame(ctx)
	require.NoError(t, err)
	require.Equal(t, entity.OriginLive, f.Origin)
	require.Equal(t, int32(2), cam.snapshots.Load())
}

func TestSourceSelector_StillWithoutCamera(t *testing.T) {
	s := NewSourceSelector(nil)
	s.SetStill(testFrame(entity.OriginStill))
	require.False(t, s.CameraReady())

	f, err := s.CurrentFrame(context.Background())
	require.NoError(t, err)
	require.Equal(t, entity.OriginStill, f.Origin)
}
