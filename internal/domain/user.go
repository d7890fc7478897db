package domain

import "time"

// Genre is a catalog genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// User is the profile document stored at users/{id}.
type User struct {
	ID             string     `json:"-"`
	Email          string     `json:"email"`
	DisplayName    string     `json:"displayName"`
	IsOnboarded    bool       `json:"isOnboarded"`
	PreferredGenre *Genre     `json:"preferredGenre,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	OnboardedAt    *time.Time `json:"onboardedAt,omitempty"`
}

// Credentials is the login record stored at auth/{normalized email}.
type Credentials struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// Session is a refresh-token session stored at sessions/{id}.
type Session struct {
	ID               string    `json:"-"`
	UserID           string    `json:"userId"`
	RefreshTokenHash string    `json:"refreshTokenHash"`
	CreatedAt        time.Time `json:"createdAt"`
	ExpiresAt        time.Time `json:"expiresAt"`
	UserAgent        string    `json:"userAgent,omitempty"`
	IPAddress        string    `json:"ipAddress,omitempty"`
}

// IsExpired reports whether the session has passed its expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
