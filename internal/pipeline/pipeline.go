// Package pipeline implements the derived-state recomputation over a
// movie list: filter, sort and aggregate are pure functions, and Recompute
// runs them in order to produce one consistent view. Nothing in here does
// I/O; the caller owns the record snapshot and the criteria.
package pipeline

import (
	"time"

	"github.com/cinelog/cinelog/internal/models"
)

// View is the fully recomputed observable state: the filtered+sorted record
// list and the statistics over its watched subset. A View is built in one
// synchronous pass, so callers never see a half-updated intermediate.
type View struct {
	Records []models.MovieRecord `json:"records"`
	Stats   Stats                `json:"stats"`
}

// Recompute runs Filter, Sort and Aggregate in order against a snapshot.
// It never fails: malformed records degrade per-field inside each stage
// rather than aborting the whole recompute.
func Recompute(records []models.MovieRecord, criteria FilterCriteria, spec SortSpec, now time.Time) View {
	filtered := Filter(records, criteria)
	sorted := Sort(filtered, spec)
	return View{
		Records: sorted,
		Stats:   Aggregate(WatchedOnly(sorted), now),
	}
}
