package docstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniquefilms/uniquefilms-server/internal/docstore"
)

func nextSnapshot(t *testing.T, l *docstore.Listener) docstore.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-l.Snapshots():
		require.True(t, ok, "listener closed unexpectedly: %v", l.Err())
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return docstore.Snapshot{}
	}
}

func ids(snap docstore.Snapshot) []string {
	out := make([]string, 0, len(snap.Docs))
	for _, d := range snap.Docs {
		out = append(out, d.ID)
	}
	return out
}

func TestListener_InitialAndChangeSnapshots(t *testing.T) {
	forEachEngine(t, func(t *testing.T, open func(*testing.T, ...docstore.Option) *docstore.Store) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "archives/u1/movies/1", map[string]any{"id": "1"}))

		l, err := s.Listen(ctx, "archives/u1/movies")
		require.NoError(t, err)
		defer l.Close()

		assert.Equal(t, []string{"1"}, ids(nextSnapshot(t, l)))

		require.NoError(t, s.Set(ctx, "archives/u1/movies/2", map[string]any{"id": "2"}))
		assert.Equal(t, []string{"1", "2"}, ids(nextSnapshot(t, l)))

		require.NoError(t, s.Delete(ctx, "archives/u1/movies/1"))
		assert.Equal(t, []string{"2"}, ids(nextSnapshot(t, l)))
	})
}

func TestListener_IgnoresOtherCollections(t *testing.T) {
	s := engines()[0].open(t)
	ctx := context.Background()

	l, err := s.Listen(ctx, "archives/u1/movies")
	require.NoError(t, err)
	defer l.Close()
	nextSnapshot(t, l)

	require.NoError(t, s.Set(ctx, "archives/u2/movies/9", map[string]any{"id": "9"}))
	require.NoError(t, s.Delete(ctx, "archives/u1/movies/missing"))

	select {
	case snap := <-l.Snapshots():
		t.Fatalf("unexpected snapshot %v", ids(snap))
	case <-time.After(50 * time.Millisecond):
	}
}

func TestListener_CoalescesForSlowConsumers(t *testing.T) {
	s := engines()[0].open(t)
	ctx := context.Background()

	l, err := s.Listen(ctx, "archives/u1/movies")
	require.NoError(t, err)
	defer l.Close()

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, s.Set(ctx, "archives/u1/movies/"+id, map[string]any{"id": id}))
	}

	// Only the latest state is pending.
	assert.Equal(t, []string{"1", "2", "3"}, ids(nextSnapshot(t, l)))
	select {
	case <-l.Snapshots():
		t.Fatal("expected no further snapshot")
	default:
	}
}

func TestListener_CloseStopsDelivery(t *testing.T) {
	s := engines()[0].open(t)
	ctx := context.Background()

	l, err := s.Listen(ctx, "archives/u1/movies")
	require.NoError(t, err)
	l.Close()
	l.Close()

	require.NoError(t, s.Set(ctx, "archives/u1/movies/1", map[string]any{"id": "1"}))

	// Any buffered initial snapshot may remain; afterwards the channel is closed.
	for range l.Snapshots() {
	}
	assert.NoError(t, l.Err())
}

func TestListener_StoreCloseFailsListeners(t *testing.T) {
	s, err := docstore.OpenBadger(t.TempDir(), nil)
	require.NoError(t, err)

	l, err := s.Listen(context.Background(), "archives/u1/movies")
	require.NoError(t, err)
	nextSnapshot(t, l)

	require.NoError(t, s.Close())

	_, ok := <-l.Snapshots()
	assert.False(t, ok)
	assert.ErrorIs(t, l.Err(), docstore.ErrClosed)

	_, err = s.Listen(context.Background(), "archives/u1/movies")
	assert.ErrorIs(t, err, docstore.ErrClosed)
}

func TestListener_InvalidCollection(t *testing.T) {
	s := engines()[0].open(t)
	_, err := s.Listen(context.Background(), "archives/u1")
	assert.Error(t, err)
}
