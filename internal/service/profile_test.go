package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
	"github.com/uniquefilms/uniquefilms-server/internal/sse"
)

func TestProfileService_GetProfile(t *testing.T) {
	s := newTestStore(t)
	svc := NewProfileService(s, nil, nil)
	createUser(t, s, "u1", "Ada")

	user, err := svc.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "Ada", user.DisplayName)

	_, err = svc.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = svc.GetProfile(context.Background(), "")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)
}

func TestProfileService_UpdateDisplayName(t *testing.T) {
	s := newTestStore(t)
	events := &recordingEmitter{}
	svc := NewProfileService(s, events, nil)
	createUser(t, s, "u1", "Ada")
	ctx := context.Background()

	user, err := svc.UpdateDisplayName(ctx, "u1", "  Ada Lovelace ")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.DisplayName)
	assert.Equal(t, "u1@example.com", user.Email, "other fields are untouched")
	assert.Len(t, events.ofType(sse.EventProfileUpdated), 1)

	_, err = svc.UpdateDisplayName(ctx, "u1", "   ")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = svc.UpdateDisplayName(ctx, "missing", "Name")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestProfileService_CompleteOnboarding(t *testing.T) {
	s := newTestStore(t)
	svc := NewProfileService(s, nil, nil)
	createUser(t, s, "u1", "Ada")
	ctx := context.Background()

	user, err := svc.CompleteOnboarding(ctx, "u1", 12)
	require.NoError(t, err)
	assert.True(t, user.IsOnboarded)
	require.NotNil(t, user.PreferredGenre)
	assert.Equal(t, 12, user.PreferredGenre.ID)
	assert.Equal(t, "Adventure", user.PreferredGenre.Name)
	require.NotNil(t, user.OnboardedAt)
	assert.Equal(t, "Ada", user.DisplayName)
}

func TestProfileService_CompleteOnboarding_UnknownGenre(t *testing.T) {
	s := newTestStore(t)
	svc := NewProfileService(s, nil, nil)
	createUser(t, s, "u1", "Ada")

	for _, genreID := range []int{0, 35, -1} {
		_, err := svc.CompleteOnboarding(context.Background(), "u1", genreID)
		require.ErrorIs(t, err, domainerrors.ErrValidation)
		assert.Equal(t, "Please select a genre", err.Error())
	}

	user, err := svc.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, user.IsOnboarded)
}

func TestProfileService_Genres(t *testing.T) {
	svc := NewProfileService(newTestStore(t), nil, nil)

	genres := svc.Genres()
	require.Len(t, genres, 3)
	assert.Equal(t, 28, genres[0].ID)
	assert.Equal(t, 12, genres[1].ID)
	assert.Equal(t, 16, genres[2].ID)

	genres[0].Name = "changed"
	assert.Equal(t, "Action", svc.Genres()[0].Name)
}
