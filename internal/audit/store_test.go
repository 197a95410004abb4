package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestInsertFillsDefaults(t *testing.T) {
	store := openTestStore(t)

	ev := ScanEvent{Barcode: "5449000000996", Status: StatusCompleted}
	require.NoError(t, store.Insert(context.Background(), &ev))

	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.CreatedAt.IsZero())
}

func TestRecentOrderAndLimit(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		ev := ScanEvent{
			Barcode:   "code-" + string(rune('a'+i)),
			Status:    StatusCompleted,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.Insert(context.Background(), &ev))
	}

	events, err := store.Recent(context.Background(), "", 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "code-e", events[0].Barcode, "newest first")
	assert.Equal(t, "code-d", events[1].Barcode)
	assert.Equal(t, "code-c", events[2].Barcode)
}

func TestRecentFiltersByUser(t *testing.T) {
	store := openTestStore(t)

	for _, userID := range []string{"alice", "bob", "alice"} {
		ev := ScanEvent{UserID: userID, Barcode: "111", Status: StatusCompleted}
		require.NoError(t, store.Insert(context.Background(), &ev))
	}

	events, err := store.Recent(context.Background(), "alice", 0)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, "alice", ev.UserID)
	}

	all, err := store.Recent(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRecentDefaultLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 60; i++ {
		ev := ScanEvent{Barcode: "x", Status: StatusCompleted}
		require.NoError(t, store.Insert(context.Background(), &ev))
	}

	events, err := store.Recent(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, events, 50)
}
