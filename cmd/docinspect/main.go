// Command docinspect prints a summary of a UniqueFilms document store.
// Stop the server first; the store is opened exclusively.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/uniquefilms/uniquefilms-server/internal/archive"
	"github.com/uniquefilms/uniquefilms-server/internal/docstore"
	"github.com/uniquefilms/uniquefilms-server/internal/docstore/sqlite"
	"github.com/uniquefilms/uniquefilms-server/internal/domain"
	"github.com/uniquefilms/uniquefilms-server/internal/favorites"
)

func main() {
	dataPath := flag.String("data", os.ExpandEnv("$HOME/UniqueFilms/data"), "data directory")
	engine := flag.String("engine", "badger", "store engine (badger or sqlite)")
	userID := flag.String("user", "", "show one user's profile, favorites and archive")
	collection := flag.String("collection", "", "dump every document of a collection path as JSON")
	flag.Parse()

	var (
		store *docstore.Store
		err   error
	)
	if *engine == "sqlite" {
		store, err = sqlite.Open(filepath.Join(*dataPath, "uniquefilms.db"), nil)
	} else {
		store, err = docstore.OpenBadger(filepath.Join(*dataPath, "db"), nil)
	}
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if *collection != "" {
		if err := dumpCollection(ctx, store, *collection); err != nil {
			log.Fatalf("Dump %s: %v", *collection, err)
		}
		return
	}

	if *userID != "" {
		if err := inspectUser(ctx, store, *userID); err != nil {
			log.Fatalf("Inspect user: %v", err)
		}
		return
	}

	fmt.Println("=== Document Store Inspection ===")
	fmt.Println()

	for _, collection := range []string{"users", "auth", "sessions", domain.ReviewsCollection} {
		docs, err := store.List(ctx, collection)
		if err != nil {
			log.Fatalf("List %s: %v", collection, err)
		}
		fmt.Printf("%-10s %d documents\n", collection+":", len(docs))
	}

	reviews, err := docstore.DecodeAll[domain.Review](mustList(ctx, store, domain.ReviewsCollection))
	if err != nil {
		log.Fatalf("Decode reviews: %v", err)
	}
	perMovie := map[string]int{}
	for _, r := range reviews {
		perMovie[r.MovieID]++
	}
	movies := make([]string, 0, len(perMovie))
	for id := range perMovie {
		movies = append(movies, id)
	}
	sort.Slice(movies, func(i, j int) bool { return perMovie[movies[i]] > perMovie[movies[j]] })

	fmt.Println()
	fmt.Println("Most reviewed movies:")
	for i, id := range movies {
		if i == 5 {
			break
		}
		fmt.Printf("  %s: %d reviews\n", id, perMovie[id])
	}
}

func inspectUser(ctx context.Context, store *docstore.Store, userID string) error {
	user, err := docstore.GetAs[domain.User](ctx, store, domain.UserPath(userID))
	if err != nil {
		return err
	}
	fmt.Printf("User: %s <%s>\n", user.DisplayName, user.Email)
	fmt.Printf("  Onboarded: %v\n", user.IsOnboarded)
	if user.PreferredGenre != nil {
		fmt.Printf("  Genre: %s\n", user.PreferredGenre.Name)
	}

	fav, err := favorites.New(store, nil).LoadFavorites(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Printf("  Favorites: %d\n", len(fav))

	entries, err := archive.Project(mustList(ctx, store, domain.ArchiveCollection(userID)))
	if err != nil {
		return err
	}
	fmt.Printf("  Archive: %d\n", len(entries))
	for _, e := range entries {
		marker := " "
		if !fav.Has(e.ID) {
			marker = "!" // archived but not in the favorites map
		}
		fmt.Printf("   %s %s  %s (%s)\n", marker, e.AddedAt, e.Title, e.ID)
	}

	photos := mustList(ctx, store, domain.PhotoCollection(userID))
	fmt.Printf("  Photos: %d\n", len(photos))
	return nil
}

func dumpCollection(ctx context.Context, store *docstore.Store, collection string) error {
	docs, err := store.List(ctx, collection)
	if err != nil {
		return err
	}
	for _, d := range docs {
		out, err := json.MarshalIndent(d.Fields, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("# %s (updated %s)\n%s\n", d.Path, d.UpdateTime.Format(time.RFC3339), out)
	}
	fmt.Printf("%d documents\n", len(docs))
	return nil
}

func mustList(ctx context.Context, store *docstore.Store, collection string) []*docstore.Document {
	docs, err := store.List(ctx, collection)
	if err != nil {
		log.Fatalf("List %s: %v", collection, err)
	}
	return docs
}
