package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uniquefilms/uniquefilms-server/internal/auth"
	"github.com/uniquefilms/uniquefilms-server/internal/docstore"
	"github.com/uniquefilms/uniquefilms-server/internal/domain"
	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
	"github.com/uniquefilms/uniquefilms-server/internal/id"
)

const sessionsCollection = "sessions"

// SessionService handles refresh sessions and their tokens.
type SessionService struct {
	store        *docstore.Store
	tokenService *auth.TokenService
	logger       *slog.Logger
	now          func() time.Time
}

// NewSessionService creates a new session management service.
func NewSessionService(store *docstore.Store, tokenService *auth.TokenService, logger *slog.Logger) *SessionService {
	return &SessionService{
		store:        store,
		tokenService: tokenService,
		logger:       logger,
		now:          time.Now,
	}
}

// SessionResponse contains session tokens and metadata.
type SessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // Seconds until access token expires
	SessionID    string `json:"session_id"`
}

// ClientInfo describes the caller of a session-creating request.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// CreateSession stores a new session for the user and issues its tokens.
func (s *SessionService) CreateSession(ctx context.Context, userID, email string, client ClientInfo) (*SessionResponse, error) {
	sessionID, err := id.Generate(id.PrefixSession)
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	refreshToken, err := s.tokenService.GenerateRefreshToken(sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session := domain.Session{
		UserID:           userID,
		RefreshTokenHash: auth.HashRefreshToken(refreshToken),
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.tokenService.RefreshTokenDuration()),
		UserAgent:        client.UserAgent,
		IPAddress:        client.IPAddress,
	}
	if err := s.store.Create(ctx, domain.SessionPath(sessionID), session); err != nil {
		return nil, storeError(err, "save session")
	}

	return s.respond(userID, email, sessionID, refreshToken)
}

// RefreshSession rotates the refresh token of a live session and issues a new
// access token. Unknown, expired or reused tokens are TokenExpired.
func (s *SessionService) RefreshSession(ctx context.Context, refreshToken string) (*SessionResponse, *domain.Session, error) {
	sessionID, err := auth.SessionIDFromRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, domainerrors.TokenExpired("invalid or expired refresh token").WithCause(err)
	}

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, nil, domainerrors.TokenExpired("invalid or expired refresh token")
		}
		return nil, nil, err
	}

	presented := auth.HashRefreshToken(refreshToken)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(session.RefreshTokenHash)) != 1 {
		return nil, nil, domainerrors.TokenExpired("invalid or expired refresh token")
	}
	if session.IsExpired(s.now()) {
		_ = s.store.Delete(ctx, domain.SessionPath(sessionID))
		return nil, nil, domainerrors.TokenExpired("session expired")
	}

	next, err := s.tokenService.GenerateRefreshToken(sessionID)
	if err != nil {
		return nil, nil, err
	}
	session.RefreshTokenHash = auth.HashRefreshToken(next)
	if err := s.store.Update(ctx, domain.SessionPath(sessionID), map[string]any{
		"refreshTokenHash": session.RefreshTokenHash,
	}); err != nil {
		return nil, nil, storeError(err, "rotate session")
	}

	user, err := docstore.GetAs[domain.User](ctx, s.store, domain.UserPath(session.UserID))
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			_ = s.store.Delete(ctx, domain.SessionPath(sessionID))
			return nil, nil, domainerrors.NotFound("user not found")
		}
		return nil, nil, storeError(err, "load user")
	}

	resp, err := s.respond(session.UserID, user.Email, sessionID, next)
	if err != nil {
		return nil, nil, err
	}
	return resp, session, nil
}

// GetSession loads a session by id.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := docstore.GetAs[domain.Session](ctx, s.store, domain.SessionPath(sessionID))
	if err != nil {
		return nil, err
	}
	session.ID = sessionID
	return session, nil
}

// DeleteSession ends a session (logout). Ending a missing session is not an error.
func (s *SessionService) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, domain.SessionPath(sessionID)); err != nil {
		return storeError(err, "delete session")
	}

	if s.logger != nil {
		s.logger.Info("Session deleted", "session_id", sessionID)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions.
// This should be run periodically as a cleanup job.
func (s *SessionService) DeleteExpiredSessions(ctx context.Context) (int, error) {
	docs, err := s.store.List(ctx, sessionsCollection)
	if err != nil {
		return 0, storeError(err, "list sessions")
	}

	now := s.now()
	count := 0
	for _, doc := range docs {
		var session domain.Session
		if err := doc.DataTo(&session); err != nil {
			continue
		}
		if !session.IsExpired(now) {
			continue
		}
		if err := s.store.Delete(ctx, doc.Path); err != nil {
			return count, storeError(err, "delete expired session")
		}
		count++
	}

	if s.logger != nil && count > 0 {
		s.logger.Info("Deleted expired sessions", "count", count)
	}
	return count, nil
}

func (s *SessionService) respond(userID, email, sessionID, refreshToken string) (*SessionResponse, error) {
	accessToken, err := s.tokenService.GenerateAccessToken(userID, email, sessionID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenService.AccessTokenDuration().Seconds()),
		SessionID:    sessionID,
	}, nil
}
