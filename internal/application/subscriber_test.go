package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"emotiscan/internal/domain/entity"
	"emotiscan/internal/infrastructure/storage"
)

func TestSubscriberService_BeginUploadAndCancel(t *testing.T) {
	repo := storage.NewMemorySubscriberRepository()
	svc := NewSubscriberService(repo)
	ctx := context.Background()

	sub, err := svc.BeginUpload(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, sub.State)

	sub, err = svc.Cancel(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, sub.State)
}

func TestSubscriberService_DominantChanged(t *testing.T) {
	repo := storage.NewMemorySubscriberRepository()
	svc := NewSubscriberService(repo)
	ctx := context.Background()

	_, err := svc.SetNotify(ctx, 1, 10, true)
	require.NoError(t, err)
	_, err = svc.Get(ctx, 2, 20) // без подписки
	require.NoError(t, err)

	changed, err := svc.DominantChanged(ctx, "Happy")
	require.NoError(t, err)
	require.Len(t, changed, 1)
	require.Equal(t, int64(10), changed[0].ChatID)

	changed, err = svc.DominantChanged(ctx, "Happy")
	require.NoError(t, err)
	require.Empty(t, changed)

	changed, err = svc.DominantChanged(ctx, "Sad")
	require.NoError(t, err)
	require.Len(t, changed, 1)
}

func TestSubscriberService_UnsubscribeResetsLastSeen(t *testing.T) {
	repo := storage.NewMemorySubscriberRepository()
	svc := NewSubscriberService(repo)
	ctx := context.Background()

	_, err := svc.SetNotify(ctx, 1, 10, true)
	require.NoError(t, err)
	_, err = svc.DominantChanged(ctx, "Happy")
	require.NoError(t, err)

	sub, err := svc.SetNotify(ctx, 1, 10, false)
	require.NoError(t, err)
	require.False(t, sub.Notify)
	require.Empty(t, sub.LastSeen)
}

// pausingRepository останавливает вызывающего сразу после List
type pausingRepository struct {
	*storage.MemorySubscriberRepository
	listed chan struct{}
	resume chan struct{}
}

func (r *pausingRepository) List(ctx context.Context) ([]*entity.Subscriber, error) {
	all, err := r.MemorySubscriberRepository.List(ctx)
	close(r.listed)
	<-r.resume
	return all, err
}

func TestSubscriberService_UnsubscribeDuringNotification(t *testing.T) {
	repo := &pausingRepository{
		MemorySubscriberRepository: storage.NewMemorySubscriberRepository(),
		listed:                     make(chan struct{}),
		resume:                     make(chan struct{}),
	}
	svc := NewSubscriberService(repo)
	ctx := context.Background()

	_, err := svc.SetNotify(ctx, 1, 10, true)
	require.NoError(t, err)

	type outcome struct {
		changed []*entity.Subscriber
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		changed, err := svc.DominantChanged(ctx, "Happy")
		done <- outcome{changed: changed, err: err}
	}()

	<-repo.listed
	_, err = svc.SetNotify(ctx, 1, 10, false)
	require.NoError(t, err)
	close(repo.resume)

	out := <-done
	require.NoError(t, out.err)
	require.Empty(t, out.changed)

	sub, err := svc.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.False(t, sub.Notify)
	require.Empty(t, sub.LastSeen)
}
