// Package favorites keeps a user's favorites map and archive collection in step.
//
// Saving a movie touches two documents: the per-movie archive entry under
// archives/{uid}/movies/{movieId} and the single map document at
// users/{uid}/collections/favorites. They are written one after the other
// without a transaction, so a failure between the two writes leaves them
// out of step until the user toggles again.
package favorites

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/uniquefilms/uniquefilms-server/internal/docstore"
	"github.com/uniquefilms/uniquefilms-server/internal/domain"
	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
	"github.com/uniquefilms/uniquefilms-server/internal/metrics"
)

// Documents is the subset of the document store the synchronizer writes through.
type Documents interface {
	Get(ctx context.Context, path string) (*docstore.Document, error)
	Set(ctx context.Context, path string, data any) error
	SetMerge(ctx context.Context, path string, data any) error
	Delete(ctx context.Context, path string) error
}

// Synchronizer applies favorites toggles.
type Synchronizer struct {
	docs   Documents
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithClock sets the clock used for archive AddedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

// New creates a Synchronizer.
func New(docs Documents, logger *slog.Logger, opts ...Option) *Synchronizer {
	s := &Synchronizer{docs: docs, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type favoritesDoc struct {
	Movies domain.FavoritesMap `json:"movies"`
}

// LoadFavorites reads the user's favorites map. A user without a favorites
// document has an empty map.
func (s *Synchronizer) LoadFavorites(ctx context.Context, userID string) (domain.FavoritesMap, error) {
	if userID == "" {
		return nil, domainerrors.Unauthenticated("sign in to see your favorites")
	}

	doc, err := s.docs.Get(ctx, domain.FavoritesPath(userID))
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.FavoritesMap{}, nil
	}
	if err != nil {
		return nil, storeError(err, "load favorites")
	}

	var fav favoritesDoc
	if err := doc.DataTo(&fav); err != nil {
		return nil, storeError(err, "decode favorites")
	}
	if fav.Movies == nil {
		return domain.FavoritesMap{}, nil
	}
	return fav.Movies.Clone(), nil
}

// ToggleSaved saves movie if it is absent from current and unsaves it otherwise.
//
// current is the caller's in-memory map; it is not modified. The returned map
// is the caller's new state. Two toggles computed from the same stale map race
// and may leave the map and the archive disagreeing.
func (s *Synchronizer) ToggleSaved(ctx context.Context, movie domain.Movie, current domain.FavoritesMap, userID string) (domain.FavoritesMap, error) {
	if userID == "" {
		return nil, domainerrors.Unauthenticated("sign in to save movies")
	}
	if movie.ID <= 0 {
		return nil, domainerrors.Validation("movie id is required")
	}

	key := movie.Key()
	next := current.Clone()
	adding := !current.Has(key)

	var err error
	if adding {
		next[key] = true
		err = s.docs.Set(ctx, domain.ArchivePath(userID, key), domain.NewArchiveEntry(movie, s.now()))
	} else {
		delete(next, key)
		err = s.docs.Delete(ctx, domain.ArchivePath(userID, key))
	}
	if err != nil {
		metrics.RecordToggle(adding, err)
		return nil, storeError(err, "update archive")
	}

	if err := s.writeFavorites(ctx, userID, next); err != nil {
		metrics.RecordToggle(adding, err)
		if s.logger != nil {
			s.logger.Warn("favorites map write failed after archive write",
				"user_id", userID, "movie_id", key, "adding", adding, "error", err)
		}
		return nil, err
	}

	metrics.RecordToggle(adding, nil)
	if s.logger != nil {
		s.logger.Debug("toggled saved movie", "user_id", userID, "movie_id", key, "saved", adding)
	}
	return next, nil
}

// ToggleSavedFresh re-reads the favorites map before toggling.
func (s *Synchronizer) ToggleSavedFresh(ctx context.Context, movie domain.Movie, userID string) (domain.FavoritesMap, error) {
	current, err := s.LoadFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.ToggleSaved(ctx, movie, current, userID)
}

// Remove unsaves movieID regardless of whether current lists it.
func (s *Synchronizer) Remove(ctx context.Context, movieID string, current domain.FavoritesMap, userID string) (domain.FavoritesMap, error) {
	if userID == "" {
		return nil, domainerrors.Unauthenticated("sign in to manage your archive")
	}
	if movieID == "" {
		return nil, domainerrors.Validation("movie id is required")
	}

	next := current.Clone()
	delete(next, movieID)

	if err := s.docs.Delete(ctx, domain.ArchivePath(userID, movieID)); err != nil {
		metrics.RecordToggle(false, err)
		return nil, storeError(err, "remove from archive")
	}
	if err := s.writeFavorites(ctx, userID, next); err != nil {
		metrics.RecordToggle(false, err)
		return nil, err
	}
	metrics.RecordToggle(false, nil)
	return next, nil
}

// IsSaved reports whether movieID is marked saved in m. A nil map saves nothing.
func IsSaved(m domain.FavoritesMap, movieID int) bool {
	return m.Has(strconv.Itoa(movieID))
}

func (s *Synchronizer) writeFavorites(ctx context.Context, userID string, m domain.FavoritesMap) error {
	movies := make(map[string]any, len(m))
	for k := range m {
		movies[k] = true
	}
	if err := s.docs.SetMerge(ctx, domain.FavoritesPath(userID), map[string]any{"movies": movies}); err != nil {
		return storeError(err, "update favorites")
	}
	return nil
}

// storeError keeps validation and context errors as they are and reports
// everything else as a store error.
func storeError(err error, msg string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, domainerrors.ErrValidation) || errors.Is(err, domainerrors.ErrStore) {
		return err
	}
	return domainerrors.Wrap(err, domainerrors.CodeStore, msg)
}
