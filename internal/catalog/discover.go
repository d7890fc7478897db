package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/uniquefilms/uniquefilms-server/internal/domain"
)

// Default discover policy.
const (
	DefaultSortBy       = "vote_average.desc"
	DefaultMinVoteCount = 50
	DefaultMaxVoteCount = 1000
)

// DiscoverFilters is the fixed discover policy: vote-count bounds and a sort key.
// Zero fields fall back to the client's configured defaults.
type DiscoverFilters struct {
	SortBy       string
	MinVoteCount int
	MaxVoteCount int
}

func (f DiscoverFilters) withDefaults(d DiscoverFilters) DiscoverFilters {
	if f.SortBy == "" {
		f.SortBy = d.SortBy
	}
	if f.MinVoteCount == 0 && f.MaxVoteCount == 0 {
		f.MinVoteCount = d.MinVoteCount
		f.MaxVoteCount = d.MaxVoteCount
	}
	return f
}

type discoverResponse struct {
	Page    int                   `json:"page"`
	Results []domain.MovieSummary `json:"results"`
}

// Discover lists the first page of movies in any of genreIDs.
// A failed call returns a nil list and an error matching domainerrors.ErrNetwork,
// or the context error when ctx ended first.
func (c *Client) Discover(ctx context.Context, genreIDs []int, filters DiscoverFilters) ([]domain.MovieSummary, error) {
	filters = filters.withDefaults(c.defaultFilt)

	query := url.Values{}
	query.Set("with_genres", joinInts(genreIDs))
	query.Set("sort_by", filters.SortBy)
	query.Set("vote_count.gte", strconv.Itoa(filters.MinVoteCount))
	query.Set("vote_count.lte", strconv.Itoa(filters.MaxVoteCount))
	query.Set("page", "1")

	body, err := c.get(ctx, "discover", "/discover/movie", query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn("discover failed", "genres", genreIDs, "error", err)
		return nil, wrapError("discover", 0, err)
	}

	var resp discoverResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("discover", 0, fmt.Errorf("parse response: %w", err))
	}
	if resp.Results == nil {
		resp.Results = []domain.MovieSummary{}
	}
	return resp.Results, nil
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
