package genre

import "github.com/uniquefilms/uniquefilms-server/internal/domain"

// Genre ids offered at onboarding.
const (
	Action    = 28
	Adventure = 12
	Animation = 16
)

// Onboarding is the list a new user picks a preferred genre from, in display order.
var Onboarding = []domain.Genre{
	{ID: Action, Name: "Action"},
	{ID: Adventure, Name: "Adventure"},
	{ID: Animation, Name: "Animation"},
}

// Default is used for discovery when a user has no preferred genre.
var Default = Onboarding[0]

// Catalog is the full catalog genre table, used to name the genre ids
// attached to discover results.
var Catalog = map[int]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Science Fiction",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
}

// ByID returns the onboarding genre with the given id.
func ByID(id int) (domain.Genre, bool) {
	for _, g := range Onboarding {
		if g.ID == id {
			return g, true
		}
	}
	return domain.Genre{}, false
}

// Names resolves catalog genre ids to names, skipping unknown ids.
func Names(ids []int) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := Catalog[id]; ok {
			names = append(names, name)
		}
	}
	return names
}
