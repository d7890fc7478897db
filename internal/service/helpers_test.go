package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/uniquefilms/uniquefilms-server/internal/auth"
	"github.com/uniquefilms/uniquefilms-server/internal/catalog"
	"github.com/uniquefilms/uniquefilms-server/internal/docstore"
	"github.com/uniquefilms/uniquefilms-server/internal/domain"
	"github.com/uniquefilms/uniquefilms-server/internal/sse"
)

// tickingClock advances one millisecond per call so server timestamps are distinct.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTickingClock() *tickingClock {
	return &tickingClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func newTestStore(t *testing.T) *docstore.Store {
	t.Helper()
	clock := newTickingClock()
	s, err := docstore.OpenBadger(filepath.Join(t.TempDir(), "db"), nil, docstore.WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestTokenService(t *testing.T) *auth.TokenService {
	t.Helper()
	key, err := auth.LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)
	ts, err := auth.NewTokenService(key, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)
	return ts
}

// recordingEmitter captures user-scoped events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) EmitToUser(_ string, event sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingEmitter) ofType(t sse.EventType) []sse.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sse.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// fakeCatalog serves canned discover results and details.
type fakeCatalog struct {
	mu          sync.Mutex
	results     []domain.MovieSummary
	details     map[int]*domain.MovieDetail
	discoverErr error
	detailsErr  error

	discoverCalls [][]int
	detailsCalls  int
}

func (f *fakeCatalog) Discover(_ context.Context, genreIDs []int, _ catalog.DiscoverFilters) ([]domain.MovieSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discoverCalls = append(f.discoverCalls, genreIDs)
	if f.discoverErr != nil {
		return nil, f.discoverErr
	}
	return f.results, nil
}

func (f *fakeCatalog) GetDetails(_ context.Context, movieID int) (*domain.MovieDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailsCalls++
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	d, ok := f.details[movieID]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return d, nil
}

func (f *fakeCatalog) PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return "https://img.test/w500" + path
}

func summary(id int, title string, vote float64, genres ...int) domain.MovieSummary {
	return domain.MovieSummary{
		Movie: domain.Movie{
			ID:          id,
			Title:       title,
			PosterPath:  "/" + title + ".jpg",
			VoteAverage: vote,
		},
		GenreIDs: genres,
	}
}

// createUser writes a profile document directly.
func createUser(t *testing.T, s *docstore.Store, userID, displayName string) {
	t.Helper()
	require.NoError(t, s.Set(context.Background(), domain.UserPath(userID), map[string]any{
		"email":       userID + "@example.com",
		"displayName": displayName,
		"isOnboarded": false,
		"createdAt":   docstore.ServerTimestamp,
	}))
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
