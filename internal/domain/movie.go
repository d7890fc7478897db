package domain

import (
	"strconv"
	"time"
)

// Movie is the minimal catalog record a user can save.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	ReleaseDate string  `json:"release_date"`
}

// Key returns the movie id as used in favorites maps and archive document ids.
func (m Movie) Key() string {
	return strconv.Itoa(m.ID)
}

// MovieSummary is one entry of a discover result.
type MovieSummary struct {
	Movie
	GenreIDs  []int `json:"genre_ids"`
	VoteCount int   `json:"vote_count"`
}

// MovieDetail is the full record for a single title.
type MovieDetail struct {
	Movie
	Runtime     int     `json:"runtime"`
	VoteCount   int     `json:"vote_count"`
	Tagline     string  `json:"tagline,omitempty"`
	Genres      []Genre `json:"genres,omitempty"`
	Popularity  float64 `json:"popularity,omitempty"`
	ImdbID      string  `json:"imdb_id,omitempty"`
	Homepage    string  `json:"homepage,omitempty"`
	Status      string  `json:"status,omitempty"`
	BackdropURL string  `json:"backdrop_path,omitempty"`
}

// FavoritesMap maps stringified movie ids to a presence flag.
// A key is true exactly when an ArchiveEntry exists for the same movie.
type FavoritesMap map[string]bool

// Has reports whether movieID is saved.
func (f FavoritesMap) Has(movieID string) bool {
	return f[movieID]
}

// Clone returns a copy that can be modified without touching f.
func (f FavoritesMap) Clone() FavoritesMap {
	out := make(FavoritesMap, len(f))
	for k, v := range f {
		if v {
			out[k] = true
		}
	}
	return out
}

// AddedAtLayout is the ISO-8601 millisecond layout of ArchiveEntry.AddedAt.
const AddedAtLayout = "2006-01-02T15:04:05.000Z"

// ArchiveEntry is the denormalized snapshot stored per saved movie.
// AddedAt is client time and is never rewritten.
type ArchiveEntry struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	ReleaseDate string  `json:"release_date"`
	AddedAt     string  `json:"addedAt"`
}

// NewArchiveEntry snapshots m at the given client time.
func NewArchiveEntry(m Movie, at time.Time) ArchiveEntry {
	return ArchiveEntry{
		ID:          m.Key(),
		Title:       m.Title,
		Overview:    m.Overview,
		PosterPath:  m.PosterPath,
		VoteAverage: m.VoteAverage,
		ReleaseDate: m.ReleaseDate,
		AddedAt:     at.UTC().Format(AddedAtLayout),
	}
}
