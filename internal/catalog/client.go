// Package catalog is a read-only client for the TMDB movie catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/uniquefilms/uniquefilms-server/internal/config"
	"github.com/uniquefilms/uniquefilms-server/internal/metrics"
	"github.com/uniquefilms/uniquefilms-server/internal/ratelimit"
)

const (
	// All outbound calls share one limiter bucket.
	limiterKey = "tmdb"

	defaultBurst   = 5
	defaultTimeout = 10 * time.Second

	// Breaker opens after this many consecutive failures and probes again
	// after breakerTimeout.
	breakerFailures = 5
	breakerTimeout  = 30 * time.Second
)

// Client is a rate-limited TMDB API client.
type Client struct {
	http        *http.Client
	limiter     *ratelimit.KeyedRateLimiter
	breaker     *gobreaker.CircuitBreaker[[]byte]
	logger      *slog.Logger
	baseURL     string
	imageBase   string
	apiKey      string
	defaultFilt DiscoverFilters
}

// New creates a catalog client from configuration.
func New(cfg config.TMDBConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 20
	}
	imageBase := cfg.ImageBaseURL
	if imageBase == "" {
		imageBase = DefaultImageBaseURL
	}

	c := &Client{
		http: &http.Client{
			Timeout: timeout,
		},
		limiter:   ratelimit.New(rps, defaultBurst),
		logger:    logger,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		imageBase: strings.TrimRight(imageBase, "/"),
		apiKey:    cfg.APIKey,
		defaultFilt: DiscoverFilters{
			SortBy:       DefaultSortBy,
			MinVoteCount: cfg.MinVoteCount,
			MaxVoteCount: cfg.MaxVoteCount,
		},
	}
	if c.defaultFilt.MaxVoteCount == 0 {
		c.defaultFilt.MinVoteCount = DefaultMinVoteCount
		c.defaultFilt.MaxVoteCount = DefaultMaxVoteCount
	}

	metrics.CatalogBreakerState.Set(0)
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "tmdb",
		MaxRequests: 1,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		// Missing titles and rejected parameters say nothing about catalog health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrBadRequest)
		},
		IsExcluded: func(err error) bool {
			var abandoned *abandonedError
			return errors.As(err, &abandoned)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("catalog circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.CatalogBreakerState.Set(stateToFloat(to))
		},
	})

	return c
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// Shutdown implements do.Shutdownable.
func (c *Client) Shutdown() error {
	c.Close()
	return nil
}

// BreakerState reports the circuit breaker state ("closed", "half-open", "open").
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// get executes a GET against the catalog through the limiter and breaker.
// The api key is added to query.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		body, err := c.doRequest(ctx, path, query)
		if err != nil && ctx.Err() != nil {
			return nil, &abandonedError{err: ctx.Err()}
		}
		return body, err
	})
	var abandoned *abandonedError
	if errors.As(err, &abandoned) {
		return nil, abandoned.err
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	metrics.RecordCatalogRequest(endpoint, time.Since(start), err)
	return body, err
}

// abandonedError marks a request whose caller went away. The breaker ignores it.
type abandonedError struct {
	err error
}

func (e *abandonedError) Error() string { return e.err.Error() }

func (e *abandonedError) Unwrap() error { return e.err }

// doRequest executes an HTTP request with rate limiting.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx, limiterKey); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "UniqueFilms/1.0")

	c.logger.Debug("catalog request", "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, &statusError{code: resp.StatusCode, class: ErrNotFound}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &statusError{code: resp.StatusCode, class: ErrRateLimited}
	case resp.StatusCode == http.StatusBadRequest:
		return nil, &statusError{code: resp.StatusCode, class: ErrBadRequest}
	case resp.StatusCode >= 500:
		return nil, &statusError{code: resp.StatusCode, class: ErrServer}
	default:
		return nil, &statusError{code: resp.StatusCode, class: fmt.Errorf("unexpected status: %s", truncate(body, 200))}
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
