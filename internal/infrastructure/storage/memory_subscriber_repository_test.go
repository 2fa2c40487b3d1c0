package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"disk-guider/internal/domain/entity"
)

func TestMemorySubscriberRepository_GetCreates(t *testing.T) {
	repo := NewMemorySubscriberRepository()
	ctx := context.Background()

	sub, err := repo.Get(ctx, 5, 50)
	require.NoError(t, err)
	require.Equal(t, entity.StateSubscribed, sub.State)

	again, err := repo.Get(ctx, 5, 99)
	require.NoError(t, err)
	require.Same(t, sub, again)
}

func TestMemorySubscriberRepository_UpdateStateAndList(t *testing.T) {
	repo := NewMemorySubscriberRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, 2, 20)
	require.NoError(t, err)
	_, err = repo.Get(ctx, 1, 10)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateState(ctx, 2, entity.StateMuted))
	require.NoError(t, repo.UpdateState(ctx, 42, entity.StateMuted))

	subs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	require.Equal(t, int64(1), subs[0].ID)
	require.Equal(t, entity.StateSubscribed, subs[0].State)
	require.Equal(t, entity.StateMuted, subs[1].State)
}
