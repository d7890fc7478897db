package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/uniquefilms/uniquefilms-server/internal/domain"
	"github.com/uniquefilms/uniquefilms-server/internal/service"
)

func (s *Server) registerReviewRoutes() {
	register(s, huma.Operation{
		OperationID:   "createReview",
		Method:        http.MethodPost,
		Path:          "/api/v1/reviews",
		Summary:       "Write a review",
		Tags:          []string{"Reviews"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateReview)

	register(s, huma.Operation{
		OperationID: "listMovieReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/movies/{id}/reviews",
		Summary:     "Reviews of a movie",
		Description: "Newest first",
		Tags:        []string{"Reviews"},
	}, s.handleListMovieReviews)

	register(s, huma.Operation{
		OperationID: "listMyReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/reviews",
		Summary:     "My reviews",
		Description: "Newest first",
		Tags:        []string{"Reviews"},
		Security:    bearerSecurity,
	}, s.handleListMyReviews)

	register(s, huma.Operation{
		OperationID:   "deleteReview",
		Method:        http.MethodDelete,
		Path:          "/api/v1/reviews/{id}",
		Summary:       "Delete a review",
		Tags:          []string{"Reviews"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteReview)

	register(s, huma.Operation{
		OperationID: "voteReview",
		Method:      http.MethodPost,
		Path:        "/api/v1/reviews/{id}/vote",
		Summary:     "Vote on a review",
		Tags:        []string{"Reviews"},
		Security:    bearerSecurity,
	}, s.handleVoteReview)
}

// CreateReviewInput is a new review.
type CreateReviewInput struct {
	Body struct {
		MovieID int    `json:"movieId" doc:"Catalog movie id"`
		Rating  int    `json:"rating,omitempty" doc:"Stars, 1 to 5"`
		Review  string `json:"review,omitempty" doc:"Review text"`
	}
}

// ReviewOutput wraps one review.
type ReviewOutput struct {
	Body *domain.Review
}

// ReviewsOutput lists reviews.
type ReviewsOutput struct {
	Body struct {
		Reviews []domain.Review `json:"reviews" doc:"Reviews, newest first"`
	}
}

// ReviewIDInput names a review.
type ReviewIDInput struct {
	ID string `path:"id" doc:"Review id"`
}

// VoteInput is a helpfulness vote.
type VoteInput struct {
	ID   string `path:"id" doc:"Review id"`
	Body struct {
		Helpful bool `json:"helpful" doc:"true for helpful, false for unhelpful"`
	}
}

func (s *Server) handleCreateReview(ctx context.Context, input *CreateReviewInput) (*ReviewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	review, err := s.services.Review.Create(ctx, userID, service.CreateReviewRequest{
		MovieID: strconv.Itoa(input.Body.MovieID),
		Rating:  input.Body.Rating,
		Review:  input.Body.Review,
	})
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Body: review}, nil
}

func (s *Server) handleListMovieReviews(ctx context.Context, input *MovieInput) (*ReviewsOutput, error) {
	reviews, err := s.services.Review.ListForMovie(ctx, strconv.Itoa(input.ID))
	if err != nil {
		return nil, err
	}
	out := &ReviewsOutput{}
	out.Body.Reviews = reviews
	return out, nil
}

func (s *Server) handleListMyReviews(ctx context.Context, _ *struct{}) (*ReviewsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	reviews, err := s.services.Review.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &ReviewsOutput{}
	out.Body.Reviews = reviews
	return out, nil
}

func (s *Server) handleDeleteReview(ctx context.Context, input *ReviewIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Review.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleVoteReview(ctx context.Context, input *VoteInput) (*ReviewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	review, err := s.services.Review.Vote(ctx, userID, input.ID, input.Body.Helpful)
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Body: review}, nil
}
