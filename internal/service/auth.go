package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/uniquefilms/uniquefilms-server/internal/auth"
	"github.com/uniquefilms/uniquefilms-server/internal/docstore"
	"github.com/uniquefilms/uniquefilms-server/internal/domain"
	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
	"github.com/uniquefilms/uniquefilms-server/internal/id"
	"github.com/uniquefilms/uniquefilms-server/internal/sse"
)

// AuthService handles sign-up, login and token verification.
// Session management is delegated to SessionService.
type AuthService struct {
	store          *docstore.Store
	tokenService   *auth.TokenService
	sessionService *SessionService
	events         EventEmitter
	logger         *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store *docstore.Store,
	tokenService *auth.TokenService,
	sessionService *SessionService,
	events EventEmitter,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:          store,
		tokenService:   tokenService,
		sessionService: sessionService,
		events:         emitterOrNoop(events),
		logger:         logger,
	}
}

// SignUpRequest contains the new account data.
type SignUpRequest struct {
	Email       string     `json:"email" validate:"required,email"`
	Password    string     `json:"password" validate:"required,min=6,max=1024"`
	DisplayName string     `json:"displayName" validate:"notblank,max=100"`
	Client      ClientInfo `json:"-"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required"`
	Client   ClientInfo `json:"-"`
}

// AuthResponse contains authentication tokens and user data.
type AuthResponse struct {
	User *domain.User `json:"user"`
	SessionResponse
}

// NormalizeEmail lowercases and trims an email for use as a credentials key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates the credentials record and the profile document and starts a session.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	req.Email = NormalizeEmail(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	err = s.store.Create(ctx, domain.CredentialsPath(req.Email), domain.Credentials{
		UserID:       userID,
		Email:        req.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, storeError(err, "save credentials")
	}

	err = s.store.Set(ctx, domain.UserPath(userID), map[string]any{
		"email":       req.Email,
		"displayName": req.DisplayName,
		"isOnboarded": false,
		"createdAt":   docstore.ServerTimestamp,
	})
	if err != nil {
		// Without a profile the credentials would point nowhere.
		if delErr := s.store.Delete(ctx, domain.CredentialsPath(req.Email)); delErr != nil && s.logger != nil {
			s.logger.Error("Failed to roll back credentials", "email", req.Email, "error", delErr)
		}
		return nil, storeError(err, "create profile")
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp, err := s.startSession(ctx, user, req.Client)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("User signed up", "user_id", userID)
	}
	return resp, nil
}

// Login verifies credentials and starts a session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = NormalizeEmail(req.Email)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	creds, err := docstore.GetAs[domain.Credentials](ctx, s.store, domain.CredentialsPath(req.Email))
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, storeError(err, "load credentials")
	}

	if !auth.VerifyPassword(creds.PasswordHash, req.Password) {
		if s.logger != nil {
			s.logger.Info("Failed login attempt", "user_id", creds.UserID)
		}
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	user, err := s.loadUser(ctx, creds.UserID)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, user, req.Client)
}

// Refresh rotates a refresh token and issues a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, domainerrors.Validation("refresh token is required")
	}

	session, stored, err := s.sessionService.RefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, SessionResponse: *session}, nil
}

// Logout ends the session and tells the user's other clients.
func (s *AuthService) Logout(ctx context.Context, userID, sessionID string) error {
	if sessionID == "" {
		return domainerrors.Validation("session id is required")
	}
	if err := s.sessionService.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	s.events.EmitToUser(userID, sse.NewAuthStateEvent(userID, sessionID, false))
	return nil
}

// VerifyAccessToken checks the token and that its session is still live.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(token)
	if err != nil {
		return nil, domainerrors.Unauthenticated("invalid access token").WithCause(err)
	}

	exists, err := s.store.Exists(ctx, domain.SessionPath(claims.SessionID))
	if err != nil {
		return nil, storeError(err, "load session")
	}
	if !exists {
		return nil, domainerrors.Unauthenticated("session ended")
	}
	return claims, nil
}

func (s *AuthService) startSession(ctx context.Context, user *domain.User, client ClientInfo) (*AuthResponse, error) {
	session, err := s.sessionService.CreateSession(ctx, user.ID, user.Email, client)
	if err != nil {
		return nil, err
	}
	s.events.EmitToUser(user.ID, sse.NewAuthStateEvent(user.ID, session.SessionID, true))
	return &AuthResponse{User: user, SessionResponse: *session}, nil
}

func (s *AuthService) loadUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := docstore.GetAs[domain.User](ctx, s.store, domain.UserPath(userID))
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, storeError(err, "load user")
	}
	user.ID = userID
	return user, nil
}
