package pipeline

import (
	"strings"

	"github.com/cinelog/cinelog/internal/models"
)

// FilterCriteria holds one optional predicate per filterable field. Text
// predicates are case-insensitive substring matches; the zero value of a
// field disables its predicate entirely.
type FilterCriteria struct {
	Title    string
	Genre    string
	Director string
	Actor    string
	Year     *int   // nil matches every year
	Origin   string // "" matches every origin
	Watched  *bool  // nil matches watched and unwatched
}

// IsZero reports whether no predicate is active.
func (c FilterCriteria) IsZero() bool {
	return c.Title == "" && c.Genre == "" && c.Director == "" && c.Actor == "" &&
		c.Year == nil && c.Origin == "" && c.Watched == nil
}

// Filter returns the records satisfying every active predicate, in their
// original order. The input slice is never modified.
func Filter(records []models.MovieRecord, criteria FilterCriteria) []models.MovieRecord {
	out := make([]models.MovieRecord, 0, len(records))
	for _, r := range records {
		if Matches(&r, criteria) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether a single record satisfies every active predicate
// (logical AND). Records missing optional fields are treated as having the
// field empty rather than failing the whole check.
func Matches(r *models.MovieRecord, c FilterCriteria) bool {
	if c.Title != "" && !containsFold(r.Title, c.Title) {
		return false
	}
	if c.Genre != "" && !anyContainsFold(r.Genres, c.Genre) {
		return false
	}
	if c.Director != "" && !anyContainsFold(r.Directors, c.Director) {
		return false
	}
	if c.Actor != "" && !anyContainsFold(r.Cast, c.Actor) {
		return false
	}
	if c.Year != nil && (r.Year == nil || *r.Year != *c.Year) {
		return false
	}
	if c.Origin != "" && r.Origin != c.Origin {
		return false
	}
	if c.Watched != nil && r.Watched != *c.Watched {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func anyContainsFold(values []string, substr string) bool {
	for _, v := range values {
		if containsFold(v, substr) {
			return true
		}
	}
	return false
}
