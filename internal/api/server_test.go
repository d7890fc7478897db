package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniquefilms/uniquefilms-server/internal/archive"
	"github.com/uniquefilms/uniquefilms-server/internal/auth"
	"github.com/uniquefilms/uniquefilms-server/internal/blob"
	"github.com/uniquefilms/uniquefilms-server/internal/catalog"
	"github.com/uniquefilms/uniquefilms-server/internal/docstore"
	"github.com/uniquefilms/uniquefilms-server/internal/domain"
	"github.com/uniquefilms/uniquefilms-server/internal/favorites"
	"github.com/uniquefilms/uniquefilms-server/internal/service"
	"github.com/uniquefilms/uniquefilms-server/internal/sse"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// testServer wraps the API server with its collaborators.
type testServer struct {
	*Server
	api        humatest.TestAPI
	docs       *docstore.Store
	catalog    *stubCatalog
	sseManager *sse.Manager
	blobRoot   string
	cleanup    func()
}

// tickingClock advances one millisecond per call so server timestamps are distinct.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

// stubCatalog serves canned catalog data and reports a breaker state.
type stubCatalog struct {
	mu      sync.Mutex
	movies  []domain.MovieSummary
	details map[int]*domain.MovieDetail
	state   string
}

func (c *stubCatalog) Discover(_ context.Context, _ []int, _ catalog.DiscoverFilters) ([]domain.MovieSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.movies, nil
}

func (c *stubCatalog) GetDetails(_ context.Context, movieID int) (*domain.MovieDetail, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.details[movieID]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return d, nil
}

func (c *stubCatalog) PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return "https://img.test/w500" + path
}

func (c *stubCatalog) BreakerState() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func newStubCatalog() *stubCatalog {
	dune := domain.Movie{ID: 438631, Title: "Dune", PosterPath: "/dune.jpg", VoteAverage: 7.8, ReleaseDate: "2021-09-15"}
	heat := domain.Movie{ID: 949, Title: "Heat", PosterPath: "/heat.jpg", VoteAverage: 7.9, ReleaseDate: "1995-12-15"}
	return &stubCatalog{
		movies: []domain.MovieSummary{
			{Movie: dune, GenreIDs: []int{878, 12}},
			{Movie: heat, GenreIDs: []int{28, 80}},
		},
		details: map[int]*domain.MovieDetail{
			dune.ID: {Movie: dune, Runtime: 155},
			heat.ID: {Movie: heat, Runtime: 170},
		},
		state: "closed",
	}
}

// setupTestServer creates a test server with all dependencies.
func setupTestServer(t *testing.T) *testServer {
	return setupTestServerWithOptions(t, Options{LoginAttemptsPerMinute: 100})
}

func setupTestServerWithOptions(t *testing.T, opts Options) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	clock := &tickingClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	docs, err := docstore.OpenBadger(filepath.Join(tmpDir, "db"), logger, docstore.WithClock(clock.Now))
	require.NoError(t, err)

	key, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	tokenService, err := auth.NewTokenService(key, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	blobRoot := filepath.Join(tmpDir, "blobs")
	blobs, err := blob.NewLocalStore(blobRoot, "http://localhost:8080/blobs")
	require.NoError(t, err)

	sseManager := sse.NewManager(logger)
	stub := newStubCatalog()

	sessions := service.NewSessionService(docs, tokenService, logger)
	profiles := service.NewProfileService(docs, sseManager, logger)
	synchronizer := favorites.New(docs, logger)

	services := &Services{
		Auth:      service.NewAuthService(docs, tokenService, sessions, sseManager, logger),
		Profile:   profiles,
		Favorites: service.NewFavoritesService(docs, synchronizer, sseManager, logger),
		Discovery: service.NewDiscoveryService(stub, synchronizer, profiles, logger),
		Review:    service.NewReviewService(docs, stub, profiles, logger),
		Photo:     service.NewPhotoService(docs, blobs, logger),
		Archive:   archive.NewProjector(archive.StoreSource{Store: docs}, logger),
		Catalog:   stub,
	}

	opts.BlobRoot = blobRoot
	server := NewServer(docs, services, sseManager, opts, logger)

	return &testServer{
		Server:     server,
		api:        humatest.Wrap(t, server.api),
		docs:       docs,
		catalog:    stub,
		sseManager: sseManager,
		blobRoot:   blobRoot,
		cleanup: func() {
			_ = server.Shutdown(context.Background())
			_ = docs.Close()
		},
	}
}

// signUp registers a user and returns the auth response.
func (ts *testServer) signUp(t *testing.T, email, displayName string) AuthResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/signup", map[string]any{
		"email":       email,
		"password":    "secret-password",
		"displayName": displayName,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	return envelope.Data
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

func decodeEnvelope[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var envelope testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &envelope), string(body))
	return envelope
}

func TestServer_MetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.api.Get("/health")

	resp := ts.api.Get("/metrics")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "api_requests_total")
}

func TestServer_OpenAPIIncludesOperations(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	paths := ts.API().OpenAPI().Paths
	for _, path := range []string{
		"/api/v1/auth/signup",
		"/api/v1/favorites/toggle",
		"/api/v1/archive",
		"/api/v1/discover",
		"/api/v1/reviews",
		"/api/v1/photos",
	} {
		assert.Contains(t, paths, path, fmt.Sprintf("missing %s", path))
	}
}

func TestServer_UnknownRoute(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
