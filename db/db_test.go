package db

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4epuha1337/nextcharge/charge"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data", "nextcharge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newSubscription(title, start string, period charge.Period) Subscription {
	d := charge.MustParseDate(start)
	return Subscription{
		Title:      title,
		StartDate:  d,
		Period:     period,
		NextCharge: charge.Next(d, period),
	}
}

func TestAddGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	id, err := store.Add(ctx, newSubscription("music", "2025-01-01", charge.Monthly))
	require.NoError(t, err)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "music", got.Title)
	assert.Equal(t, charge.Monthly, got.Period)
	assert.Equal(t, "2025-01-31", got.NextCharge.String())

	got.Title = "music family"
	got.Period = charge.Yearly
	got.NextCharge = charge.Next(got.StartDate, charge.Yearly)
	require.NoError(t, store.Update(ctx, got))

	updated, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, got, updated)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, id), ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, got), ErrNotFound)
}

func TestListAndDue(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	subs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)

	for _, sub := range []Subscription{
		newSubscription("yearly", "2025-01-01", charge.Yearly),
		newSubscription("weekly", "2025-01-01", charge.Weekly),
		newSubscription("monthly", "2025-01-01", charge.Monthly),
	} {
		_, err := store.Add(ctx, sub)
		require.NoError(t, err)
	}

	subs, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 3)
	assert.Equal(t, []string{"weekly", "monthly", "yearly"},
		[]string{subs[0].Title, subs[1].Title, subs[2].Title})

	due, err := store.Due(ctx, charge.MustParseDate("2025-01-31"))
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "weekly", due[0].Title)
	assert.Equal(t, "monthly", due[1].Title)
}

func TestAdvance(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	id, err := store.Add(ctx, newSubscription("gym", "2025-01-01", charge.Monthly))
	require.NoError(t, err)

	sub, err := store.Advance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-02", sub.NextCharge.String())

	stored, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sub, stored)

	_, err = store.Advance(ctx, id+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdvanceConcurrent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	start := charge.MustParseDate("2025-01-01")
	id, err := store.Add(ctx, Subscription{
		Title:      "news",
		StartDate:  start,
		Period:     charge.Weekly,
		NextCharge: charge.Next(start, charge.Weekly),
	})
	require.NoError(t, err)

	const calls = 20
	var wg sync.WaitGroup
	errs := make(chan error, calls)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Advance(ctx, id)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	sub, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2025-05-28", sub.NextCharge.String())
}

func TestAdvancePastLastDate(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	last := charge.MustParseDate("9999-12-30")
	id, err := store.Add(ctx, Subscription{
		Title:      "forever",
		StartDate:  last,
		Period:     charge.Weekly,
		NextCharge: last,
	})
	require.NoError(t, err)

	_, err = store.Advance(ctx, id)
	assert.ErrorIs(t, err, charge.ErrDateOutOfRange)

	sub, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "9999-12-30", sub.NextCharge.String())
}
