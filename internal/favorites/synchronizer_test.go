package favorites

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniquefilms/uniquefilms-server/internal/docstore"
	"github.com/uniquefilms/uniquefilms-server/internal/domain"
	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

// recordingDocs wraps a real store and counts writes, optionally failing some.
type recordingDocs struct {
	*docstore.Store

	mu        sync.Mutex
	writes    []string
	failMerge error
	failSet   error
}

func (r *recordingDocs) record(op, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, op+" "+path)
}

func (r *recordingDocs) Set(ctx context.Context, path string, data any) error {
	r.record("set", path)
	if r.failSet != nil {
		return r.failSet
	}
	return r.Store.Set(ctx, path, data)
}

func (r *recordingDocs) SetMerge(ctx context.Context, path string, data any) error {
	r.record("merge", path)
	if r.failMerge != nil {
		return r.failMerge
	}
	return r.Store.SetMerge(ctx, path, data)
}

func (r *recordingDocs) Delete(ctx context.Context, path string) error {
	r.record("delete", path)
	return r.Store.Delete(ctx, path)
}

func setupTestSynchronizer(t *testing.T) (*Synchronizer, *recordingDocs) {
	t.Helper()
	s, err := docstore.OpenBadger(filepath.Join(t.TempDir(), "db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	docs := &recordingDocs{Store: s}
	return New(docs, nil, WithClock(func() time.Time { return fixedNow })), docs
}

func movie42() domain.Movie {
	return domain.Movie{
		ID:          42,
		Title:       "X",
		Overview:    "A film.",
		PosterPath:  "/x.jpg",
		VoteAverage: 7.5,
		ReleaseDate: "2001-01-01",
	}
}

func TestToggleSaved_AddToEmptyMap(t *testing.T) {
	syncer, docs := setupTestSynchronizer(t)
	ctx := context.Background()

	got, err := syncer.ToggleSaved(ctx, movie42(), domain.FavoritesMap{}, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.FavoritesMap{"42": true}, got)

	entries, err := docs.List(ctx, domain.ArchiveCollection("u1"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var entry domain.ArchiveEntry
	require.NoError(t, entries[0].DataTo(&entry))
	assert.Equal(t, "42", entry.ID)
	assert.Equal(t, "X", entry.Title)
	assert.Equal(t, 7.5, entry.VoteAverage)
	assert.Equal(t, "2024-06-01T10:00:00.000Z", entry.AddedAt)

	stored, err := syncer.LoadFavorites(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.FavoritesMap{"42": true}, stored)

	assert.Equal(t, []string{
		"set archives/u1/movies/42",
		"merge users/u1/collections/favorites",
	}, docs.writes)
}

func TestToggleSaved_RemovePresentKey(t *testing.T) {
	syncer, docs := setupTestSynchronizer(t)
	ctx := context.Background()

	current, err := syncer.ToggleSaved(ctx, movie42(), nil, "u1")
	require.NoError(t, err)
	docs.writes = nil

	got, err := syncer.ToggleSaved(ctx, movie42(), current, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = docs.Get(ctx, domain.ArchivePath("u1", "42"))
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	stored, err := syncer.LoadFavorites(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, stored)

	assert.Equal(t, []string{
		"delete archives/u1/movies/42",
		"merge users/u1/collections/favorites",
	}, docs.writes)
}

func TestToggleSaved_RoundTripRestoresState(t *testing.T) {
	syncer, _ := setupTestSynchronizer(t)
	ctx := context.Background()

	start := domain.FavoritesMap{"7": true}
	added, err := syncer.ToggleSaved(ctx, movie42(), start, "u1")
	require.NoError(t, err)
	removed, err := syncer.ToggleSaved(ctx, movie42(), added, "u1")
	require.NoError(t, err)

	assert.Equal(t, start, removed)
	// The caller's map is never modified.
	assert.Equal(t, domain.FavoritesMap{"7": true}, start)
}

func TestToggleSaved_Unauthenticated(t *testing.T) {
	syncer, docs := setupTestSynchronizer(t)

	got, err := syncer.ToggleSaved(context.Background(), movie42(), domain.FavoritesMap{}, "")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)
	assert.Nil(t, got)
	assert.Empty(t, docs.writes)

	entries, err := docs.List(context.Background(), domain.ArchiveCollection("u1"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestToggleSaved_InvalidMovie(t *testing.T) {
	syncer, docs := setupTestSynchronizer(t)

	_, err := syncer.ToggleSaved(context.Background(), domain.Movie{}, nil, "u1")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Empty(t, docs.writes)
}

func TestToggleSaved_PartialFailureLeavesArchiveWritten(t *testing.T) {
	syncer, docs := setupTestSynchronizer(t)
	ctx := context.Background()
	docs.failMerge = errors.New("favorites unavailable")

	_, err := syncer.ToggleSaved(ctx, movie42(), nil, "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrStore)

	// No rollback: the archive entry exists while the map does not list it.
	exists, err := docs.Exists(ctx, domain.ArchivePath("u1", "42"))
	require.NoError(t, err)
	assert.True(t, exists)

	stored, err := syncer.LoadFavorites(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestToggleSaved_FirstWriteFailureSkipsSecond(t *testing.T) {
	syncer, docs := setupTestSynchronizer(t)
	docs.failSet = errors.New("archive unavailable")

	_, err := syncer.ToggleSaved(context.Background(), movie42(), nil, "u1")
	assert.ErrorIs(t, err, domainerrors.ErrStore)
	assert.Equal(t, []string{"set archives/u1/movies/42"}, docs.writes)
}

func TestToggleSaved_MergeKeepsOtherFields(t *testing.T) {
	syncer, docs := setupTestSynchronizer(t)
	ctx := context.Background()
	require.NoError(t, docs.Store.Set(ctx, domain.FavoritesPath("u1"), map[string]any{"label": "Saved"}))

	_, err := syncer.ToggleSaved(ctx, movie42(), nil, "u1")
	require.NoError(t, err)

	doc, err := docs.Get(ctx, domain.FavoritesPath("u1"))
	require.NoError(t, err)
	assert.Equal(t, "Saved", doc.Fields["label"])
}

// Toggles computed from the same stale map are not coordinated. Both calls
// take the add branch; the final state is whatever the last writes left.
func TestToggleSaved_StaleMapRaceIsNotGuarded(t *testing.T) {
	syncer, _ := setupTestSynchronizer(t)
	ctx := context.Background()
	stale := domain.FavoritesMap{}

	var wg sync.WaitGroup
	results := make([]domain.FavoritesMap, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := syncer.ToggleSaved(ctx, movie42(), stale, "u1")
			assert.NoError(t, err)
			results[i] = m
		}()
	}
	wg.Wait()

	for _, m := range results {
		assert.True(t, m.Has("42"), "each toggle decided from the stale map")
	}
}

func TestToggleSavedFresh_UsesStoredMap(t *testing.T) {
	syncer, _ := setupTestSynchronizer(t)
	ctx := context.Background()

	_, err := syncer.ToggleSaved(ctx, movie42(), nil, "u1")
	require.NoError(t, err)

	// A caller holding an outdated empty map still removes, because the map is re-read.
	got, err := syncer.ToggleSavedFresh(ctx, movie42(), "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRemove_AlwaysDeletes(t *testing.T) {
	syncer, docs := setupTestSynchronizer(t)
	ctx := context.Background()

	_, err := syncer.ToggleSaved(ctx, movie42(), nil, "u1")
	require.NoError(t, err)

	got, err := syncer.Remove(ctx, "42", domain.FavoritesMap{}, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)

	exists, err := docs.Exists(ctx, domain.ArchivePath("u1", "42"))
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = syncer.Remove(ctx, "42", nil, "")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)
}

func TestLoadFavorites_MissingDocument(t *testing.T) {
	syncer, _ := setupTestSynchronizer(t)

	got, err := syncer.LoadFavorites(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, domain.FavoritesMap{}, got)
}

func TestIsSaved(t *testing.T) {
	m := domain.FavoritesMap{"949": true}

	assert.True(t, IsSaved(m, 949))
	assert.False(t, IsSaved(m, 438631))
	assert.False(t, IsSaved(nil, 949))
}
