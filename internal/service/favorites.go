package service

import (
	"context"
	"log/slog"

	"github.com/uniquefilms/uniquefilms-server/internal/archive"
	"github.com/uniquefilms/uniquefilms-server/internal/docstore"
	"github.com/uniquefilms/uniquefilms-server/internal/domain"
	"github.com/uniquefilms/uniquefilms-server/internal/favorites"
	"github.com/uniquefilms/uniquefilms-server/internal/sse"
)

// FavoritesService exposes the synchronizer to the API and tells the
// user's other clients about every change.
type FavoritesService struct {
	store  *docstore.Store
	sync   *favorites.Synchronizer
	events EventEmitter
	logger *slog.Logger
}

// NewFavoritesService creates a favorites service.
func NewFavoritesService(store *docstore.Store, sync *favorites.Synchronizer, events EventEmitter, logger *slog.Logger) *FavoritesService {
	return &FavoritesService{
		store:  store,
		sync:   sync,
		events: emitterOrNoop(events),
		logger: logger,
	}
}

// Get returns the user's favorites map.
func (s *FavoritesService) Get(ctx context.Context, userID string) (domain.FavoritesMap, error) {
	return s.sync.LoadFavorites(ctx, userID)
}

// Toggle saves or unsaves movie against the stored map and reports the new state.
func (s *FavoritesService) Toggle(ctx context.Context, userID string, movie domain.Movie) (domain.FavoritesMap, bool, error) {
	next, err := s.sync.ToggleSavedFresh(ctx, movie, userID)
	if err != nil {
		return nil, false, err
	}
	s.events.EmitToUser(userID, sse.NewFavoritesUpdatedEvent(userID, next))
	return next, next.Has(movie.Key()), nil
}

// Remove unsaves movieID from the archive screen.
func (s *FavoritesService) Remove(ctx context.Context, userID, movieID string) (domain.FavoritesMap, error) {
	current, err := s.sync.LoadFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	next, err := s.sync.Remove(ctx, movieID, current, userID)
	if err != nil {
		return nil, err
	}
	s.events.EmitToUser(userID, sse.NewFavoritesUpdatedEvent(userID, next))
	return next, nil
}

// Archive reads the archive once, newest first.
func (s *FavoritesService) Archive(ctx context.Context, userID string) ([]domain.ArchiveEntry, error) {
	if err := requireUser(userID, "sign in to see your archive"); err != nil {
		return nil, err
	}
	docs, err := s.store.List(ctx, domain.ArchiveCollection(userID))
	if err != nil {
		return nil, storeError(err, "list archive")
	}
	entries, err := archive.Project(docs)
	if err != nil {
		return nil, storeError(err, "decode archive")
	}
	return entries, nil
}
