// Package main provides a tool to seed a development store with demo accounts.
//
// Each demo user is onboarded, saves a few movies and writes reviews that the
// other demo users vote on. Stop the server first; the store is opened exclusively.
//
// Usage:
//
//	go run ./cmd/seed --data ~/UniqueFilms/data
//	go run ./cmd/seed --users 5
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/uniquefilms/uniquefilms-server/internal/auth"
	"github.com/uniquefilms/uniquefilms-server/internal/catalog"
	"github.com/uniquefilms/uniquefilms-server/internal/docstore"
	"github.com/uniquefilms/uniquefilms-server/internal/domain"
	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
	"github.com/uniquefilms/uniquefilms-server/internal/favorites"
	"github.com/uniquefilms/uniquefilms-server/internal/genre"
	"github.com/uniquefilms/uniquefilms-server/internal/logger"
	"github.com/uniquefilms/uniquefilms-server/internal/service"
)

var (
	dataPath  = flag.String("data", os.ExpandEnv("$HOME/UniqueFilms/data"), "data directory")
	userCount = flag.Int("users", 3, "number of demo users")
)

// demoPassword is shared by every seeded account.
const demoPassword = "uniquefilms-demo"

var demoMovies = []domain.Movie{
	{ID: 949, Title: "Heat", PosterPath: "/umSVjVdbVwtx5ryCA2QXL44Durm.jpg", VoteAverage: 7.9, ReleaseDate: "1995-12-15"},
	{ID: 438631, Title: "Dune", PosterPath: "/d5NXSklXo0qyIYkgV94XAgMIckC.jpg", VoteAverage: 7.8, ReleaseDate: "2021-09-15"},
	{ID: 8587, Title: "The Lion King", PosterPath: "/sKCr78MXSLixwmZ8DyJLrpMsd15.jpg", VoteAverage: 8.3, ReleaseDate: "1994-06-24"},
	{ID: 85, Title: "Raiders of the Lost Ark", PosterPath: "/ceG9VzoRAVGwivFU403Wc3AHRys.jpg", VoteAverage: 7.9, ReleaseDate: "1981-06-12"},
	{ID: 155, Title: "The Dark Knight", PosterPath: "/qJ2tW6WMUDux911r6m7haRef0WH.jpg", VoteAverage: 8.5, ReleaseDate: "2008-07-16"},
}

var demoReviews = []string{
	"Holds up on every rewatch.",
	"The score alone is worth it.",
	"Slow start, huge payoff.",
	"Not for me, but I see the appeal.",
}

// staticCatalog answers detail lookups from demoMovies.
type staticCatalog struct{}

func (staticCatalog) Discover(context.Context, []int, catalog.DiscoverFilters) ([]domain.MovieSummary, error) {
	out := make([]domain.MovieSummary, len(demoMovies))
	for i, m := range demoMovies {
		out[i] = domain.MovieSummary{Movie: m}
	}
	return out, nil
}

func (staticCatalog) GetDetails(_ context.Context, movieID int) (*domain.MovieDetail, error) {
	for _, m := range demoMovies {
		if m.ID == movieID {
			return &domain.MovieDetail{Movie: m}, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (staticCatalog) PosterURL(path string) string {
	return catalog.PosterURL(path)
}

func main() {
	flag.Parse()

	fmt.Printf("Opening store at: %s\n", *dataPath)

	store, err := docstore.OpenBadger(filepath.Join(*dataPath, "db"), nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	key, err := auth.LoadOrGenerateKey(*dataPath)
	if err != nil {
		log.Fatalf("Failed to load auth key: %v", err)
	}
	tokens, err := auth.NewTokenService(key, 15*time.Minute, 30*24*time.Hour)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	quiet := logger.Discard()
	sessions := service.NewSessionService(store, tokens, quiet)
	authService := service.NewAuthService(store, tokens, sessions, nil, quiet)
	profiles := service.NewProfileService(store, nil, quiet)
	reviews := service.NewReviewService(store, staticCatalog{}, profiles, quiet)
	sync := favorites.New(store, quiet)

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var userIDs, reviewIDs []string
	for n := 1; n <= *userCount; n++ {
		email := fmt.Sprintf("demo%d@uniquefilms.test", n)
		resp, err := authService.SignUp(ctx, service.SignUpRequest{
			Email:       email,
			Password:    demoPassword,
			DisplayName: fmt.Sprintf("Demo %d", n),
		})
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			resp, err = authService.Login(ctx, service.LoginRequest{Email: email, Password: demoPassword})
		}
		if err != nil {
			log.Fatalf("Failed to create %s: %v", email, err)
		}
		userID := resp.User.ID
		userIDs = append(userIDs, userID)
		fmt.Printf("\nSeeding %s (%s)\n", email, userID)

		pick := genre.Onboarding[rng.Intn(len(genre.Onboarding))]
		if _, err := profiles.CompleteOnboarding(ctx, userID, pick.ID); err != nil {
			log.Fatalf("Failed to onboard %s: %v", email, err)
		}

		current, err := sync.LoadFavorites(ctx, userID)
		if err != nil {
			log.Fatalf("Failed to load favorites: %v", err)
		}
		for _, m := range demoMovies {
			if rng.Intn(2) == 0 || current.Has(m.Key()) {
				continue
			}
			if current, err = sync.ToggleSaved(ctx, m, current, userID); err != nil {
				log.Fatalf("Failed to save %s: %v", m.Title, err)
			}
			fmt.Printf("  saved %s\n", m.Title)
		}

		m := demoMovies[rng.Intn(len(demoMovies))]
		review, err := reviews.Create(ctx, userID, service.CreateReviewRequest{
			MovieID: m.Key(),
			Rating:  service.MinRating + rng.Intn(service.MaxRating),
			Review:  demoReviews[rng.Intn(len(demoReviews))],
		})
		if err != nil {
			log.Fatalf("Failed to review %s: %v", m.Title, err)
		}
		reviewIDs = append(reviewIDs, review.ID)
		fmt.Printf("  reviewed %s (%d stars)\n", m.Title, review.Rating)
	}

	votes := 0
	for _, reviewID := range reviewIDs {
		for _, userID := range userIDs {
			if rng.Intn(3) == 0 {
				continue
			}
			if _, err := reviews.Vote(ctx, userID, reviewID, rng.Intn(4) != 0); err != nil {
				log.Fatalf("Failed to vote: %v", err)
			}
			votes++
		}
	}

	fmt.Printf("\nSeeded %d users, %d reviews, %d votes. Password: %s\n", len(userIDs), len(reviewIDs), votes, demoPassword)
}
