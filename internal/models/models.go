package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// RatingScale is the upper bound of the rating range (0..10).
const RatingScale = 10.0

// Origin values recognised by the breakdown statistics. Anything else
// (including empty) counts as international.
const (
	OriginNational      = "Nacional"
	OriginInternational = "Internacional"
)

// MovieRecord is a single entry in a user's movie list. ID and RegisteredAt
// are assigned by the store on creation and never change afterwards.
//
// Optional fields use pointers so that "absent" stays distinguishable from a
// genuine zero: a missing rating must not be treated as a 0 rating when
// picking the worst-rated movie.
type MovieRecord struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Year         *int      `json:"year,omitempty"`
	Rating       *float64  `json:"rating,omitempty"`
	Directors    []string  `json:"directors"`
	Cast         []string  `json:"cast"`
	Genres       []string  `json:"genres"`
	Origin       string    `json:"origin,omitempty"`
	Watched      bool      `json:"watched"`
	WatchedDate  string    `json:"watched_date,omitempty"` // YYYY-MM-DD, only when watched
	PosterURL    string    `json:"poster_url,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// RatingOrZero resolves an absent rating to the 0 default used by averages
// and display.
func (m *MovieRecord) RatingOrZero() float64 {
	if m.Rating == nil {
		return 0
	}
	return *m.Rating
}

// Decade returns the record's decade (year floor-divided by 10, times 10)
// and whether the year is known at all.
func (m *MovieRecord) Decade() (int, bool) {
	if m.Year == nil {
		return 0, false
	}
	return (*m.Year / 10) * 10, true
}

// Normalize resolves defaults at the data-model boundary: trims the title,
// replaces nil list fields with empty slices and clears the watched date
// when the record is not watched.
func (m *MovieRecord) Normalize() {
	m.Title = strings.TrimSpace(m.Title)
	if m.Directors == nil {
		m.Directors = []string{}
	}
	if m.Cast == nil {
		m.Cast = []string{}
	}
	if m.Genres == nil {
		m.Genres = []string{}
	}
	if !m.Watched {
		m.WatchedDate = ""
	}
}

// Validate checks the write-time invariants: non-empty title, no duplicate
// genres, rating within scale, watched date only on watched records.
func (m *MovieRecord) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("title is required")
	}
	seen := make(map[string]struct{}, len(m.Genres))
	for _, g := range m.Genres {
		key := strings.ToLower(strings.TrimSpace(g))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate genre %q", g)
		}
		seen[key] = struct{}{}
	}
	if m.Rating != nil && (*m.Rating < 0 || *m.Rating > RatingScale) {
		return fmt.Errorf("rating %.1f out of range 0-%.0f", *m.Rating, RatingScale)
	}
	if m.WatchedDate != "" {
		if !m.Watched {
			return fmt.Errorf("watched date set on unwatched record")
		}
		if _, err := time.Parse("2006-01-02", m.WatchedDate); err != nil {
			return fmt.Errorf("invalid watched date %q", m.WatchedDate)
		}
	}
	return nil
}

// User is an account profile. The profile row carries public data plus the
// credential hash; nickname doubles as a login identifier.
type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Nickname  string    `json:"nickname"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // bcrypt hash, never exposed
	CreatedAt time.Time `json:"created_at"`
}

// ExternalMetadata is the best-effort result of a metadata lookup by title.
type ExternalMetadata struct {
	Title     string   `json:"title"`
	Year      *int     `json:"year,omitempty"`
	Rating    *float64 `json:"rating,omitempty"`
	Directors []string `json:"directors"`
	Cast      []string `json:"cast"`
	Genres    []string `json:"genres"`
	Origin    string   `json:"origin,omitempty"`
	PosterURL string   `json:"poster_url,omitempty"`
}

// PredefinedGenres is the suggestion vocabulary for the genre tag input.
// Free entries are still accepted at write time.
func PredefinedGenres() []string {
	genres := []string{
		"Action", "Adventure", "Animation", "Comedy", "Crime", "Documentary",
		"Drama", "Fantasy", "History", "Horror", "Music", "Mystery", "Romance",
		"Science Fiction", "Thriller", "War", "Western",
	}
	sort.Strings(genres)
	return genres
}
