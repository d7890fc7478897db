package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/uniquefilms/uniquefilms-server/internal/catalog"
	"github.com/uniquefilms/uniquefilms-server/internal/domain"
	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
	"github.com/uniquefilms/uniquefilms-server/internal/favorites"
	"github.com/uniquefilms/uniquefilms-server/internal/genre"
)

// acclaimedLimit is the size of the critically acclaimed row.
const acclaimedLimit = 10

// Catalog is the movie catalog used by discovery and reviews.
type Catalog interface {
	Discover(ctx context.Context, genreIDs []int, filters catalog.DiscoverFilters) ([]domain.MovieSummary, error)
	GetDetails(ctx context.Context, movieID int) (*domain.MovieDetail, error)
	PosterURL(path string) string
}

// FavoritesLoader reads a user's favorites map.
type FavoritesLoader interface {
	LoadFavorites(ctx context.Context, userID string) (domain.FavoritesMap, error)
}

// MovieCard is a discover result decorated for display.
type MovieCard struct {
	domain.MovieSummary
	PosterURL  string   `json:"posterUrl"`
	GenreNames []string `json:"genreNames"`
	Saved      bool     `json:"saved"`
}

// HomeFeed is the home screen: the preferred-genre list and the acclaimed row.
type HomeFeed struct {
	Genre               domain.Genre `json:"genre"`
	Movies              []MovieCard  `json:"movies"`
	CriticallyAcclaimed []MovieCard  `json:"criticallyAcclaimed"`
}

// MovieView is a movie detail with the caller's saved flag.
type MovieView struct {
	*domain.MovieDetail
	PosterURL string `json:"posterUrl"`
	Saved     bool   `json:"saved"`
}

// DiscoveryService builds the home feed and movie pages.
type DiscoveryService struct {
	catalog   Catalog
	favorites FavoritesLoader
	profiles  *ProfileService
	logger    *slog.Logger
}

// NewDiscoveryService creates a discovery service.
func NewDiscoveryService(c Catalog, loader FavoritesLoader, profiles *ProfileService, logger *slog.Logger) *DiscoveryService {
	return &DiscoveryService{
		catalog:   c,
		favorites: loader,
		profiles:  profiles,
		logger:    logger,
	}
}

// Home discovers movies of the user's preferred genre (Action when unset).
func (s *DiscoveryService) Home(ctx context.Context, userID string) (*HomeFeed, error) {
	user, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	g := genre.Default
	if user.PreferredGenre != nil && user.PreferredGenre.ID != 0 {
		g = *user.PreferredGenre
	}

	saved, err := s.loadFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}

	results, err := s.catalog.Discover(ctx, []int{g.ID}, catalog.DiscoverFilters{})
	if err != nil {
		return nil, err
	}

	cards := s.cards(results, saved)
	return &HomeFeed{
		Genre:               g,
		Movies:              cards,
		CriticallyAcclaimed: topRated(cards, acclaimedLimit),
	}, nil
}

// Discover lists movies for genre references (ids, names or aliases).
// No references means the default genre.
func (s *DiscoveryService) Discover(ctx context.Context, userID string, genres []string) ([]MovieCard, error) {
	ids := make([]int, 0, len(genres))
	for _, raw := range genres {
		id, _, ok := genre.Lookup(raw)
		if !ok {
			return nil, domainerrors.Validationf("unknown genre %q", raw)
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		ids = []int{genre.Default.ID}
	}

	saved, err := s.loadFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}

	results, err := s.catalog.Discover(ctx, ids, catalog.DiscoverFilters{})
	if err != nil {
		return nil, err
	}
	return s.cards(results, saved), nil
}

// Movie returns one movie with the caller's saved flag.
func (s *DiscoveryService) Movie(ctx context.Context, userID string, movieID int) (*MovieView, error) {
	if movieID <= 0 {
		return nil, domainerrors.Validation("movie id must be positive")
	}

	detail, err := s.catalog.GetDetails(ctx, movieID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, domainerrors.NotFoundf("movie %d not found", movieID).WithCause(err)
		}
		return nil, err
	}

	saved, err := s.loadFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &MovieView{
		MovieDetail: detail,
		PosterURL:   s.catalog.PosterURL(detail.PosterPath),
		Saved:       favorites.IsSaved(saved, movieID),
	}, nil
}

// loadFavorites returns an empty map for anonymous callers.
func (s *DiscoveryService) loadFavorites(ctx context.Context, userID string) (domain.FavoritesMap, error) {
	if userID == "" || s.favorites == nil {
		return domain.FavoritesMap{}, nil
	}
	return s.favorites.LoadFavorites(ctx, userID)
}

func (s *DiscoveryService) cards(results []domain.MovieSummary, saved domain.FavoritesMap) []MovieCard {
	cards := make([]MovieCard, 0, len(results))
	for _, m := range results {
		cards = append(cards, MovieCard{
			MovieSummary: m,
			PosterURL:    s.catalog.PosterURL(m.PosterPath),
			GenreNames:   genre.Names(m.GenreIDs),
			Saved:        saved.Has(m.Key()),
		})
	}
	return cards
}

// topRated returns up to n cards by descending vote average. Ties keep catalog order.
func topRated(cards []MovieCard, n int) []MovieCard {
	sorted := slices.Clone(cards)
	slices.SortStableFunc(sorted, func(a, b MovieCard) int {
		switch {
		case a.VoteAverage > b.VoteAverage:
			return -1
		case a.VoteAverage < b.VoteAverage:
			return 1
		default:
			return 0
		}
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
