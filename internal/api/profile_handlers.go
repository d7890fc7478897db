package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/uniquefilms/uniquefilms-server/internal/domain"
)

func (s *Server) registerProfileRoutes() {
	register(s, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/me",
		Summary:     "Get profile",
		Description: "Returns the signed-in user's profile",
		Tags:        []string{"Profile"},
		Security:    bearerSecurity,
	}, s.handleGetProfile)

	register(s, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPatch,
		Path:        "/api/v1/me",
		Summary:     "Update profile",
		Description: "Changes the display name",
		Tags:        []string{"Profile"},
		Security:    bearerSecurity,
	}, s.handleUpdateProfile)

	register(s, huma.Operation{
		OperationID: "completeOnboarding",
		Method:      http.MethodPost,
		Path:        "/api/v1/me/onboarding",
		Summary:     "Complete onboarding",
		Description: "Records the preferred genre and marks the user onboarded",
		Tags:        []string{"Profile"},
		Security:    bearerSecurity,
	}, s.handleCompleteOnboarding)

	register(s, huma.Operation{
		OperationID: "listGenres",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres",
		Summary:     "List onboarding genres",
		Tags:        []string{"Profile"},
	}, s.handleListGenres)
}

// ProfileOutput wraps a user profile.
type ProfileOutput struct {
	Body UserResponse
}

// UpdateProfileInput changes the display name.
type UpdateProfileInput struct {
	Body struct {
		DisplayName string `json:"displayName" maxLength:"200" doc:"New display name"`
	}
}

// OnboardingInput carries the picked genre.
type OnboardingInput struct {
	Body struct {
		GenreID int `json:"genreId,omitempty" doc:"Genre id (28 Action, 12 Adventure, 16 Animation)"`
	}
}

// GenresOutput lists onboarding genres.
type GenresOutput struct {
	Body struct {
		Genres []domain.Genre `json:"genres" doc:"Genres in display order"`
	}
}

func (s *Server) handleGetProfile(ctx context.Context, _ *struct{}) (*ProfileOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.services.Profile.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: mapUser(user)}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*ProfileOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.services.Profile.UpdateDisplayName(ctx, userID, input.Body.DisplayName)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: mapUser(user)}, nil
}

func (s *Server) handleCompleteOnboarding(ctx context.Context, input *OnboardingInput) (*ProfileOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.services.Profile.CompleteOnboarding(ctx, userID, input.Body.GenreID)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: mapUser(user)}, nil
}

func (s *Server) handleListGenres(_ context.Context, _ *struct{}) (*GenresOutput, error) {
	out := &GenresOutput{}
	out.Body.Genres = s.services.Profile.Genres()
	return out, nil
}
