// Package sse implements Server-Sent Events for per-user live updates.
package sse

import (
	"time"

	"github.com/uniquefilms/uniquefilms-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventAuthState reports a session starting or ending for the user.
	EventAuthState EventType = "auth.state"
	// EventProfileUpdated carries the user's updated profile.
	EventProfileUpdated EventType = "profile.updated"
	// EventFavoritesUpdated carries the user's new favorites map.
	EventFavoritesUpdated EventType = "favorites.updated"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"

	// Archive stream frames.
	EventArchive EventType = "archive"
	EventError   EventType = "error"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// When set, only clients of this user receive the event.
	UserID string `json:"-"`
}

// AuthStateEventData is the payload of auth.state events.
type AuthStateEventData struct {
	SignedIn  bool   `json:"signed_in"`
	SessionID string `json:"session_id"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// ErrorEventData is the payload of the terminal error frame on a stream.
type ErrorEventData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewAuthStateEvent reports a session of userID starting or ending.
func NewAuthStateEvent(userID, sessionID string, signedIn bool) Event {
	return Event{
		Type:      EventAuthState,
		Timestamp: time.Now(),
		UserID:    userID,
		Data:      AuthStateEventData{SignedIn: signedIn, SessionID: sessionID},
	}
}

// NewProfileUpdatedEvent carries the updated profile to the user's other clients.
func NewProfileUpdatedEvent(user *domain.User) Event {
	return Event{
		Type:      EventProfileUpdated,
		Timestamp: time.Now(),
		UserID:    user.ID,
		Data:      user,
	}
}

// NewFavoritesUpdatedEvent carries a user's favorites map after a toggle.
func NewFavoritesUpdatedEvent(userID string, favorites domain.FavoritesMap) Event {
	return Event{
		Type:      EventFavoritesUpdated,
		Timestamp: time.Now(),
		UserID:    userID,
		Data:      favorites,
	}
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Timestamp: now,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}
