package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/uniquefilms/uniquefilms-server/internal/docstore"
	"github.com/uniquefilms/uniquefilms-server/internal/domain"
	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
)

// Review limits.
const (
	MinRating       = 1
	MaxRating       = 5
	maxReviewLength = 5000
)

// CreateReviewRequest is a new text review.
type CreateReviewRequest struct {
	MovieID string `json:"movieId"`
	Rating  int    `json:"rating"`
	Review  string `json:"review"`
}

// ReviewService manages text reviews and their helpfulness votes.
type ReviewService struct {
	store    *docstore.Store
	catalog  Catalog
	profiles *ProfileService
	logger   *slog.Logger
}

// NewReviewService creates a review service.
func NewReviewService(store *docstore.Store, c Catalog, profiles *ProfileService, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		store:    store,
		catalog:  c,
		profiles: profiles,
		logger:   logger,
	}
}

// Create stores a review, denormalizing the movie title and poster and the
// author's display name into it.
func (s *ReviewService) Create(ctx context.Context, userID string, req CreateReviewRequest) (*domain.Review, error) {
	if err := requireUser(userID, "sign in to write a review"); err != nil {
		return nil, err
	}

	movieID, err := parseMovieID(req.MovieID)
	if err != nil {
		return nil, err
	}
	if req.Rating < MinRating || req.Rating > MaxRating {
		return nil, domainerrors.Validation("Please select a rating")
	}
	text := strings.TrimSpace(req.Review)
	if text == "" {
		return nil, domainerrors.Validation("Please write a review")
	}
	if len([]rune(text)) > maxReviewLength {
		return nil, domainerrors.Validationf("Review must be at most %d characters", maxReviewLength)
	}

	userName := domain.DefaultReviewerName
	if user, err := s.profiles.GetProfile(ctx, userID); err == nil {
		if name := strings.TrimSpace(user.DisplayName); name != "" {
			userName = name
		}
	} else if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	// A catalog outage leaves title and poster empty; ListForUser fills them later.
	var title, poster string
	if detail, err := s.catalog.GetDetails(ctx, movieID); err == nil {
		title = detail.Title
		poster = s.catalog.PosterURL(detail.PosterPath)
	} else if s.logger != nil {
		s.logger.Warn("Review created without movie details", "movie_id", movieID, "error", err)
	}

	path, err := s.store.Add(ctx, domain.ReviewsCollection, map[string]any{
		"userId":      userID,
		"userName":    userName,
		"movieId":     strconv.Itoa(movieID),
		"movieTitle":  title,
		"moviePoster": poster,
		"rating":      req.Rating,
		"review":      text,
		"helpful":     0,
		"unhelpful":   0,
		"createdAt":   docstore.ServerTimestamp,
	})
	if err != nil {
		return nil, storeError(err, "save review")
	}

	doc, err := s.store.Get(ctx, path)
	if err != nil {
		return nil, storeError(err, "load review")
	}
	return decodeReview(doc)
}

// ListForMovie returns the reviews of a movie, newest first.
func (s *ReviewService) ListForMovie(ctx context.Context, movieID string) ([]domain.Review, error) {
	id, err := parseMovieID(movieID)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, docstore.Where("movieId", strconv.Itoa(id)))
}

// ListForUser returns the user's reviews, newest first. Missing titles and
// posters are filled from the catalog; catalog failures leave them empty.
func (s *ReviewService) ListForUser(ctx context.Context, userID string) ([]domain.Review, error) {
	if err := requireUser(userID, "sign in to see your reviews"); err != nil {
		return nil, err
	}

	reviews, err := s.query(ctx, docstore.Where("userId", userID))
	if err != nil {
		return nil, err
	}

	details := make(map[string]*domain.MovieDetail)
	for i := range reviews {
		r := &reviews[i]
		if r.MovieTitle != "" && r.MoviePoster != "" {
			continue
		}
		detail, cached := details[r.MovieID]
		if !cached {
			detail = s.lookupDetails(ctx, r.MovieID)
			details[r.MovieID] = detail
		}
		if detail == nil {
			continue
		}
		if r.MovieTitle == "" {
			r.MovieTitle = detail.Title
		}
		if r.MoviePoster == "" {
			r.MoviePoster = s.catalog.PosterURL(detail.PosterPath)
		}
	}
	return reviews, nil
}

// Delete removes a review owned by userID.
func (s *ReviewService) Delete(ctx context.Context, userID, reviewID string) error {
	if err := requireUser(userID, "sign in to delete a review"); err != nil {
		return err
	}
	if reviewID == "" {
		return domainerrors.Validation("review id is required")
	}

	review, err := s.get(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != userID {
		return domainerrors.Forbidden("you can only delete your own reviews")
	}

	if err := s.store.Delete(ctx, domain.ReviewPath(reviewID)); err != nil {
		return storeError(err, "delete review")
	}
	return nil
}

// Vote counts a helpful or unhelpful vote with a server-side increment.
func (s *ReviewService) Vote(ctx context.Context, userID, reviewID string, helpful bool) (*domain.Review, error) {
	if err := requireUser(userID, "sign in to vote"); err != nil {
		return nil, err
	}
	if reviewID == "" {
		return nil, domainerrors.Validation("review id is required")
	}

	field := "unhelpful"
	if helpful {
		field = "helpful"
	}
	err := s.store.Update(ctx, domain.ReviewPath(reviewID), map[string]any{
		field: docstore.Increment(1),
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("review not found")
		}
		return nil, storeError(err, "record vote")
	}
	return s.get(ctx, reviewID)
}

func (s *ReviewService) get(ctx context.Context, reviewID string) (*domain.Review, error) {
	doc, err := s.store.Get(ctx, domain.ReviewPath(reviewID))
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("review not found")
		}
		return nil, storeError(err, "load review")
	}
	return decodeReview(doc)
}

func (s *ReviewService) query(ctx context.Context, filter docstore.Filter) ([]domain.Review, error) {
	docs, err := s.store.Query(ctx, domain.ReviewsCollection, docstore.Query{
		Where:   []docstore.Filter{filter},
		OrderBy: "createdAt",
		Desc:    true,
	})
	if err != nil {
		return nil, storeError(err, "list reviews")
	}

	reviews := make([]domain.Review, 0, len(docs))
	for _, doc := range docs {
		r, err := decodeReview(doc)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *r)
	}
	return reviews, nil
}

func (s *ReviewService) lookupDetails(ctx context.Context, movieID string) *domain.MovieDetail {
	id, err := strconv.Atoi(movieID)
	if err != nil {
		return nil
	}
	detail, err := s.catalog.GetDetails(ctx, id)
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("Movie details unavailable for review", "movie_id", movieID, "error", err)
		}
		return nil
	}
	return detail
}

func decodeReview(doc *docstore.Document) (*domain.Review, error) {
	var r domain.Review
	if err := doc.DataTo(&r); err != nil {
		return nil, storeError(err, "decode review")
	}
	r.ID = doc.ID
	return &r, nil
}

func parseMovieID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, domainerrors.Validation("movie id must be a positive number")
	}
	return id, nil
}
