package domain

import "time"

// DefaultReviewerName is used when the author has no display name.
const DefaultReviewerName = "Anonymous User"

// PhotoReviewType tags every photo review document.
const PhotoReviewType = "review"

// Review is a text review stored in the reviews collection.
type Review struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	UserName    string    `json:"userName"`
	MovieID     string    `json:"movieId"`
	MovieTitle  string    `json:"movieTitle"`
	MoviePoster string    `json:"moviePoster"`
	Rating      int       `json:"rating"`
	Review      string    `json:"review"`
	Helpful     int64     `json:"helpful"`
	Unhelpful   int64     `json:"unhelpful"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PhotoReview is a captured photo stored at users/{uid}/photos/{id}.
type PhotoReview struct {
	ID        string    `json:"id"`
	ImageURL  string    `json:"imageUrl"`
	BlobKey   string    `json:"blobKey"`
	BlurHash  string    `json:"blurHash,omitempty"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}
