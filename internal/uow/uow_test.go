package uow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kirinyoku/tix-events/internal/domain"
	"github.com/kirinyoku/tix-events/internal/testutil"
	"github.com/kirinyoku/tix-events/internal/uow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_HooksRunAfterOutermostCommit(t *testing.T) {
	store := testutil.NewMemStore()
	u := uow.NewUoW(store)
	ctx := context.Background()

	var order []string

	err := u.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		after(func(context.Context) { order = append(order, "outer") })

		return u.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
			after(func(context.Context) { order = append(order, "inner") })
			order = append(order, "body")
			return nil
		})
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"body", "outer", "inner"}, order)
}

func TestDo_ErrorRollsBackAndSkipsHooks(t *testing.T) {
	store := testutil.NewMemStore()
	u := uow.NewUoW(store)
	ctx := context.Background()
	e := store.Seed(domain.Event{Title: "A", Capacity: 5})

	boom := errors.New("boom")
	ran := false

	err := u.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		after(func(context.Context) { ran = true })

		return u.Do(ctx, func(ctx context.Context, _ func(uow.AfterCommit)) error {
			if _, err := store.Events().Reserve(ctx, e.ID, 3); err != nil {
				return err
			}
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, ran)

	got, _ := store.Event(e.ID)
	assert.Equal(t, 0, got.TicketsSold)
}

func TestDo_HookContextSurvivesCancel(t *testing.T) {
	store := testutil.NewMemStore()
	u := uow.NewUoW(store)

	ctx, cancel := context.WithCancel(context.Background())

	var hookErr error
	err := u.Do(ctx, func(_ context.Context, after func(uow.AfterCommit)) error {
		after(func(ctx context.Context) { hookErr = ctx.Err() })
		cancel()
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, hookErr)
}
