package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniquefilms/uniquefilms-server/internal/config"
	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err, "load fixture %s", name)
	return data
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(config.TMDBConfig{
		APIKey:            "test-key",
		BaseURL:           server.URL,
		Timeout:           2 * time.Second,
		MinVoteCount:      50,
		MaxVoteCount:      1000,
		RequestsPerSecond: 1000,
	}, nil)
	t.Cleanup(client.Close)
	return client
}

func TestClient_Discover_Query(t *testing.T) {
	fixture := loadFixture(t, "discover_response.json")

	var gotPath string
	var gotQuery map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.WriteHeader(http.StatusOK)
		w.Write(fixture)
	})

	movies, err := client.Discover(context.Background(), []int{28, 12}, DiscoverFilters{})
	require.NoError(t, err)

	assert.Equal(t, "/discover/movie", gotPath)
	assert.Equal(t, map[string]string{
		"api_key":        "test-key",
		"with_genres":    "28,12",
		"sort_by":        "vote_average.desc",
		"vote_count.gte": "50",
		"vote_count.lte": "1000",
		"page":           "1",
	}, gotQuery)

	require.Len(t, movies, 2)
	assert.Equal(t, 603, movies[0].ID)
	assert.Equal(t, "The Matrix", movies[0].Title)
	assert.Equal(t, "/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg", movies[0].PosterPath)
	assert.Equal(t, []int{28, 878}, movies[0].GenreIDs)
	assert.Equal(t, 980, movies[0].VoteCount)
	assert.Empty(t, movies[1].PosterPath)
}

func TestClient_Discover_FilterOverride(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"page":1,"results":[]}`))
	})

	movies, err := client.Discover(context.Background(), []int{16}, DiscoverFilters{
		SortBy:       "popularity.desc",
		MinVoteCount: 10,
		MaxVoteCount: 20,
	})
	require.NoError(t, err)
	assert.NotNil(t, movies)
	assert.Empty(t, movies)
	assert.Contains(t, gotQuery, "sort_by=popularity.desc")
	assert.Contains(t, gotQuery, "vote_count.gte=10")
	assert.Contains(t, gotQuery, "vote_count.lte=20")
}

func TestClient_Discover_Errors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{name: "not found", statusCode: http.StatusNotFound, wantErr: ErrNotFound},
		{name: "rate limited", statusCode: http.StatusTooManyRequests, wantErr: ErrRateLimited},
		{name: "bad request", statusCode: http.StatusBadRequest, wantErr: ErrBadRequest},
		{name: "server error", statusCode: http.StatusInternalServerError, wantErr: ErrServer},
		{name: "unauthorized", statusCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(`{"status_message":"nope"}`))
			})

			movies, err := client.Discover(context.Background(), []int{28}, DiscoverFilters{})
			require.Error(t, err)
			assert.Nil(t, movies)
			assert.True(t, errors.Is(err, domainerrors.ErrNetwork), "want network error, got %v", err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			var catErr *Error
			require.ErrorAs(t, err, &catErr)
			assert.Equal(t, "discover", catErr.Op)
			assert.Equal(t, tt.statusCode, catErr.Status)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadGateway, domainErr.HTTPStatus())
		})
	}
}

func TestClient_Discover_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := New(config.TMDBConfig{BaseURL: url, RequestsPerSecond: 1000, Timeout: time.Second}, nil)
	defer client.Close()

	movies, err := client.Discover(context.Background(), []int{28}, DiscoverFilters{})
	assert.Nil(t, movies)
	assert.ErrorIs(t, err, domainerrors.ErrNetwork)
}

func TestClient_Discover_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [`))
	})

	movies, err := client.Discover(context.Background(), []int{28}, DiscoverFilters{})
	assert.Nil(t, movies)
	assert.ErrorIs(t, err, domainerrors.ErrNetwork)
}

func TestClient_Discover_NoCache(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"page":1,"results":[]}`))
	})

	for range 3 {
		_, err := client.Discover(context.Background(), []int{28}, DiscoverFilters{})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GetDetails(t *testing.T) {
	fixture := loadFixture(t, "details_response.json")

	var gotPath, gotKey string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("api_key")
		w.Write(fixture)
	})

	detail, err := client.GetDetails(context.Background(), 603)
	require.NoError(t, err)

	assert.Equal(t, "/movie/603", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, 603, detail.ID)
	assert.Equal(t, "The Matrix", detail.Title)
	assert.Equal(t, 136, detail.Runtime)
	assert.Equal(t, "Welcome to the Real World.", detail.Tagline)
	assert.Equal(t, "tt0133093", detail.ImdbID)
	require.Len(t, detail.Genres, 2)
	assert.Equal(t, "Action", detail.Genres[0].Name)
}

func TestClient_GetDetails_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	detail, err := client.GetDetails(context.Background(), 42)
	assert.Nil(t, detail)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, domainerrors.ErrNetwork)

	var catErr *Error
	require.ErrorAs(t, err, &catErr)
	assert.Equal(t, 42, catErr.MovieID)
}

func TestClient_CircuitBreaker(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for range breakerFailures {
		_, err := client.GetDetails(context.Background(), 1)
		require.ErrorIs(t, err, ErrServer)
	}
	assert.Equal(t, "open", client.BreakerState())

	_, err := client.GetDetails(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, domainerrors.ErrNetwork)
	assert.Equal(t, int32(breakerFailures), calls.Load(), "open breaker must not reach the server")
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for range breakerFailures + 2 {
		_, err := client.GetDetails(context.Background(), 1)
		require.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, "closed", client.BreakerState())
}

func TestClient_CanceledCallerDoesNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"results":[]}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for range breakerFailures + 1 {
		got, err := client.Discover(ctx, []int{28}, DiscoverFilters{})
		require.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, domainerrors.ErrNetwork)
		assert.Nil(t, got)
	}
	assert.Equal(t, "closed", client.BreakerState())
	assert.Zero(t, calls.Load())

	got, err := client.Discover(context.Background(), []int{28}, DiscoverFilters{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_DeadlineMidRequestDoesNotTripBreaker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/movie/1" {
			<-r.Context().Done()
			return
		}
		_, _ = w.Write([]byte(`{"id":2,"title":"Heat"}`))
	})

	for range breakerFailures {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		_, err := client.GetDetails(ctx, 1)
		cancel()
		require.ErrorIs(t, err, context.DeadlineExceeded)
	}
	assert.Equal(t, "closed", client.BreakerState())

	detail, err := client.GetDetails(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Heat", detail.Title)
}

func TestPosterURL(t *testing.T) {
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", PosterURL("/abc.jpg"))
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", PosterURL("abc.jpg"))
	assert.Empty(t, PosterURL(""))

	client := New(config.TMDBConfig{ImageBaseURL: "https://img.example.com/w342/"}, nil)
	defer client.Close()
	assert.Equal(t, "https://img.example.com/w342/abc.jpg", client.PosterURL("/abc.jpg"))
}
