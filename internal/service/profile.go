package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/uniquefilms/uniquefilms-server/internal/docstore"
	"github.com/uniquefilms/uniquefilms-server/internal/domain"
	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
	"github.com/uniquefilms/uniquefilms-server/internal/genre"
	"github.com/uniquefilms/uniquefilms-server/internal/sse"
)

// maxDisplayNameLength bounds display names.
const maxDisplayNameLength = 100

// ProfileService manages user profiles and onboarding.
type ProfileService struct {
	store  *docstore.Store
	events EventEmitter
	logger *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(store *docstore.Store, events EventEmitter, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		store:  store,
		events: emitterOrNoop(events),
		logger: logger,
	}
}

// GetProfile returns the profile of userID.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	if err := requireUser(userID, "sign in to see your profile"); err != nil {
		return nil, err
	}

	user, err := docstore.GetAs[domain.User](ctx, s.store, domain.UserPath(userID))
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("profile not found")
		}
		return nil, storeError(err, "load profile")
	}
	user.ID = userID
	return user, nil
}

// UpdateDisplayName sets the display name. An empty name is rejected.
func (s *ProfileService) UpdateDisplayName(ctx context.Context, userID, name string) (*domain.User, error) {
	if err := requireUser(userID, "sign in to edit your profile"); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.Validation("Display name cannot be empty")
	}
	if len([]rune(name)) > maxDisplayNameLength {
		return nil, domainerrors.Validationf("Display name must be at most %d characters", maxDisplayNameLength)
	}

	if err := s.store.Update(ctx, domain.UserPath(userID), map[string]any{"displayName": name}); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("profile not found")
		}
		return nil, storeError(err, "update profile")
	}

	return s.reload(ctx, userID)
}

// CompleteOnboarding records the preferred genre and marks the user onboarded.
func (s *ProfileService) CompleteOnboarding(ctx context.Context, userID string, genreID int) (*domain.User, error) {
	if err := requireUser(userID, "sign in to finish onboarding"); err != nil {
		return nil, err
	}

	g, ok := genre.ByID(genreID)
	if !ok {
		return nil, domainerrors.Validation("Please select a genre")
	}

	err := s.store.SetMerge(ctx, domain.UserPath(userID), map[string]any{
		"preferredGenre": map[string]any{"id": g.ID, "name": g.Name},
		"isOnboarded":    true,
		"onboardedAt":    docstore.ServerTimestamp,
	})
	if err != nil {
		return nil, storeError(err, "save onboarding")
	}

	if s.logger != nil {
		s.logger.Info("User onboarded", "user_id", userID, "genre", g.Name)
	}
	return s.reload(ctx, userID)
}

// Genres returns the genres offered during onboarding.
func (s *ProfileService) Genres() []domain.Genre {
	out := make([]domain.Genre, len(genre.Onboarding))
	copy(out, genre.Onboarding)
	return out
}

func (s *ProfileService) reload(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.events.EmitToUser(userID, sse.NewProfileUpdatedEvent(user))
	return user, nil
}
