package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/uniquefilms/uniquefilms-server/internal/domain"
)

// GetDetails fetches the full record of one title.
func (c *Client) GetDetails(ctx context.Context, movieID int) (*domain.MovieDetail, error) {
	body, err := c.get(ctx, "details", "/movie/"+strconv.Itoa(movieID), nil)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn("movie details failed", "movie_id", movieID, "error", err)
		return nil, wrapError("details", movieID, err)
	}

	var detail domain.MovieDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, wrapError("details", movieID, fmt.Errorf("parse response: %w", err))
	}
	return &detail, nil
}
