package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/uniquefilms/uniquefilms-server/internal/service"
)

func (s *Server) registerDiscoveryRoutes() {
	register(s, huma.Operation{
		OperationID: "getHome",
		Method:      http.MethodGet,
		Path:        "/api/v1/home",
		Summary:     "Home feed",
		Description: "Movies of the preferred genre with saved flags and a critically acclaimed row",
		Tags:        []string{"Discovery"},
		Security:    bearerSecurity,
	}, s.handleHome)

	register(s, huma.Operation{
		OperationID: "discoverMovies",
		Method:      http.MethodGet,
		Path:        "/api/v1/discover",
		Summary:     "Discover movies",
		Description: "Lists top-rated movies for the given genres (ids, names or aliases)",
		Tags:        []string{"Discovery"},
	}, s.handleDiscover)

	register(s, huma.Operation{
		OperationID: "getMovie",
		Method:      http.MethodGet,
		Path:        "/api/v1/movies/{id}",
		Summary:     "Movie details",
		Tags:        []string{"Discovery"},
	}, s.handleGetMovie)
}

// HomeOutput wraps the home feed.
type HomeOutput struct {
	Body *service.HomeFeed
}

// DiscoverInput selects genres.
type DiscoverInput struct {
	Genres []string `query:"genres" doc:"Genre ids, names or aliases (comma separated)"`
}

// DiscoverOutput lists discover results.
type DiscoverOutput struct {
	Body struct {
		Movies []service.MovieCard `json:"movies" doc:"Movies, best rated first"`
	}
}

// MovieInput names a movie.
type MovieInput struct {
	ID int `path:"id" doc:"Catalog movie id"`
}

// MovieOutput wraps a movie view.
type MovieOutput struct {
	Body *service.MovieView
}

func (s *Server) handleHome(ctx context.Context, _ *struct{}) (*HomeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	feed, err := s.services.Discovery.Home(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &HomeOutput{Body: feed}, nil
}

func (s *Server) handleDiscover(ctx context.Context, input *DiscoverInput) (*DiscoverOutput, error) {
	cards, err := s.services.Discovery.Discover(ctx, getUserID(ctx), input.Genres)
	if err != nil {
		return nil, err
	}
	out := &DiscoverOutput{}
	out.Body.Movies = cards
	return out, nil
}

func (s *Server) handleGetMovie(ctx context.Context, input *MovieInput) (*MovieOutput, error) {
	view, err := s.services.Discovery.Movie(ctx, getUserID(ctx), input.ID)
	if err != nil {
		return nil, err
	}
	return &MovieOutput{Body: view}, nil
}
