package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/uniquefilms/uniquefilms-server/internal/domain"
)

func (s *Server) registerFavoritesRoutes() {
	register(s, huma.Operation{
		OperationID: "getFavorites",
		Method:      http.MethodGet,
		Path:        "/api/v1/favorites",
		Summary:     "Get favorites",
		Description: "Returns the saved-movie map keyed by movie id",
		Tags:        []string{"Favorites"},
		Security:    bearerSecurity,
	}, s.handleGetFavorites)

	register(s, huma.Operation{
		OperationID: "toggleFavorite",
		Method:      http.MethodPost,
		Path:        "/api/v1/favorites/toggle",
		Summary:     "Toggle saved movie",
		Description: "Saves the movie if it is not saved and unsaves it otherwise",
		Tags:        []string{"Favorites"},
		Security:    bearerSecurity,
	}, s.handleToggleFavorite)

	register(s, huma.Operation{
		OperationID: "listArchive",
		Method:      http.MethodGet,
		Path:        "/api/v1/archive",
		Summary:     "List archive",
		Description: "Returns saved movies newest first. Use /api/v1/archive/stream for live updates.",
		Tags:        []string{"Favorites"},
		Security:    bearerSecurity,
	}, s.handleListArchive)

	register(s, huma.Operation{
		OperationID: "removeFromArchive",
		Method:      http.MethodDelete,
		Path:        "/api/v1/archive/{movieId}",
		Summary:     "Remove from archive",
		Tags:        []string{"Favorites"},
		Security:    bearerSecurity,
	}, s.handleRemoveFromArchive)
}

// FavoritesOutput is the favorites map.
type FavoritesOutput struct {
	Body struct {
		Movies domain.FavoritesMap `json:"movies" doc:"Saved movie ids"`
	}
}

// MovieSnapshot is the movie data stored in the archive entry.
type MovieSnapshot struct {
	ID          int     `json:"id" minimum:"1" doc:"Catalog movie id"`
	Title       string  `json:"title,omitempty" doc:"Title"`
	Overview    string  `json:"overview,omitempty" doc:"Overview"`
	PosterPath  string  `json:"poster_path,omitempty" doc:"Catalog poster path"`
	VoteAverage float64 `json:"vote_average,omitempty" doc:"Average vote"`
	ReleaseDate string  `json:"release_date,omitempty" doc:"Release date (YYYY-MM-DD)"`
}

// ToggleFavoriteInput carries the movie snapshot to save.
type ToggleFavoriteInput struct {
	Body struct {
		Movie MovieSnapshot `json:"movie" doc:"Movie to toggle"`
	}
}

// ToggleFavoriteOutput reports the state after a toggle.
type ToggleFavoriteOutput struct {
	Body struct {
		Saved  bool                `json:"saved" doc:"Whether the movie is now saved"`
		Movies domain.FavoritesMap `json:"movies" doc:"Saved movie ids"`
	}
}

// ArchiveOutput lists archive entries.
type ArchiveOutput struct {
	Body struct {
		Movies []domain.ArchiveEntry `json:"movies" doc:"Saved movies, newest first"`
	}
}

// RemoveFromArchiveInput names the movie to remove.
type RemoveFromArchiveInput struct {
	MovieID string `path:"movieId" doc:"Movie id"`
}

func (s *Server) handleGetFavorites(ctx context.Context, _ *struct{}) (*FavoritesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	fav, err := s.services.Favorites.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &FavoritesOutput{}
	out.Body.Movies = fav
	return out, nil
}

func (s *Server) handleToggleFavorite(ctx context.Context, input *ToggleFavoriteInput) (*ToggleFavoriteOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	fav, saved, err := s.services.Favorites.Toggle(ctx, userID, domain.Movie(input.Body.Movie))
	if err != nil {
		return nil, err
	}
	out := &ToggleFavoriteOutput{}
	out.Body.Saved = saved
	out.Body.Movies = fav
	return out, nil
}

func (s *Server) handleListArchive(ctx context.Context, _ *struct{}) (*ArchiveOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.services.Favorites.Archive(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &ArchiveOutput{}
	out.Body.Movies = entries
	return out, nil
}

func (s *Server) handleRemoveFromArchive(ctx context.Context, input *RemoveFromArchiveInput) (*FavoritesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	fav, err := s.services.Favorites.Remove(ctx, userID, input.MovieID)
	if err != nil {
		return nil, err
	}
	out := &FavoritesOutput{}
	out.Body.Movies = fav
	return out, nil
}
