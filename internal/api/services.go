package api

import (
	"github.com/uniquefilms/uniquefilms-server/internal/archive"
	"github.com/uniquefilms/uniquefilms-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Auth      *service.AuthService
	Profile   *service.ProfileService
	Favorites *service.FavoritesService
	Discovery *service.DiscoveryService
	Review    *service.ReviewService
	Photo     *service.PhotoService
	Archive   *archive.Projector // Live archive stream

	// Catalog reports the catalog client's circuit breaker state for /health.
	Catalog interface{ BreakerState() string }
}
