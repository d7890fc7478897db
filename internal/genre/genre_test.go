package genre

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Science Fiction", "science-fiction"},
		{"TV Movie", "tv-movie"},
		{"Sci-Fi/Fantasy", "sci-fi-fantasy"},
		{"  Comédie  ", "comedie"},
		{"--Action--", "action"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestByID(t *testing.T) {
	g, ok := ByID(12)
	assert.True(t, ok)
	assert.Equal(t, "Adventure", g.Name)

	_, ok = ByID(35)
	assert.False(t, ok, "comedy is not offered at onboarding")

	_, ok = ByID(0)
	assert.False(t, ok)
}

func TestDefaultIsAction(t *testing.T) {
	assert.Equal(t, Action, Default.ID)
	assert.Equal(t, "Action", Default.Name)
}

func TestLookup(t *testing.T) {
	tests := []struct {
		raw    string
		wantID int
		wantOK bool
	}{
		{"28", 28, true},
		{"Science Fiction", 878, true},
		{"science-fiction", 878, true},
		{"Sci-Fi", 878, true},
		{"anime", Animation, true},
		{"999", 999, false},
		{"polka", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			id, _, ok := Lookup(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"Action", "Science Fiction"}, Names([]int{28, 878, 4242}))
	assert.Empty(t, Names(nil))
}
