package genre

import "strconv"

// CanonicalAliases maps common spellings to catalog genre ids.
var CanonicalAliases = map[string]int{
	"sci-fi":           878,
	"scifi":            878,
	"sf":               878,
	"animated":         Animation,
	"cartoon":          Animation,
	"anime":            Animation,
	"action-adventure": Action,
	"adventures":       Adventure,
	"romcom":           10749,
	"scary":            27,
	"doc":              99,
	"docs":             99,
}

var slugToID = func() map[string]int {
	m := make(map[string]int, len(Catalog))
	for id, name := range Catalog {
		m[Slugify(name)] = id
	}
	return m
}()

// Lookup resolves a raw genre reference to a catalog genre. It accepts a
// numeric id ("28"), a display name ("Science Fiction") or an alias ("sci-fi").
func Lookup(raw string) (id int, name string, ok bool) {
	if n, err := strconv.Atoi(raw); err == nil {
		name, ok = Catalog[n]
		return n, name, ok
	}

	slug := Slugify(raw)
	if id, found := slugToID[slug]; found {
		return id, Catalog[id], true
	}
	if id, found := CanonicalAliases[slug]; found {
		return id, Catalog[id], true
	}
	return 0, "", false
}
