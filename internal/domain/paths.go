package domain

import (
	"net/url"
	"strings"
)

// Document paths. Every per-user document carries the owner's id as a path segment.

func join(segments ...string) string {
	return strings.Join(segments, "/")
}

// UserPath is the profile document of a user.
func UserPath(uid string) string { return join("users", uid) }

// FavoritesPath is the single favorites map document of a user.
func FavoritesPath(uid string) string { return join("users", uid, "collections", "favorites") }

// ArchiveCollection is the collection of a user's saved movies.
func ArchiveCollection(uid string) string { return join("archives", uid, "movies") }

// ArchivePath is the archive document of one saved movie.
func ArchivePath(uid, movieID string) string { return join(ArchiveCollection(uid), movieID) }

// PhotoCollection is the collection of a user's photo reviews.
func PhotoCollection(uid string) string { return join("users", uid, "photos") }

// ReviewsCollection holds every text review.
const ReviewsCollection = "reviews"

// ReviewPath is the document of one text review.
func ReviewPath(reviewID string) string { return join(ReviewsCollection, reviewID) }

// CredentialsPath is the login record for a normalized email. The email is
// escaped so characters such as '/' stay inside one segment.
func CredentialsPath(email string) string { return join("auth", url.PathEscape(email)) }

// SessionPath is the document of one refresh session.
func SessionPath(sessionID string) string { return join("sessions", sessionID) }
