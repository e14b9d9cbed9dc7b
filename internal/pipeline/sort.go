package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cinelog/cinelog/internal/models"
)

// SortKey enumerates the known sort columns. Each key maps to a typed
// comparator; there is no dynamic field dispatch.
type SortKey int

const (
	SortByRegisteredAt SortKey = iota
	SortByTitle
	SortByYear
	SortByRating
	SortByOrigin
	SortByWatched
)

var sortKeyNames = map[SortKey]string{
	SortByRegisteredAt: "registered_at",
	SortByTitle:        "title",
	SortByYear:         "year",
	SortByRating:       "rating",
	SortByOrigin:       "origin",
	SortByWatched:      "watched",
}

func (k SortKey) String() string {
	if name, ok := sortKeyNames[k]; ok {
		return name
	}
	return "registered_at"
}

// ParseSortKey maps a column name to its SortKey. Unknown names are an
// error so typos in query parameters surface instead of silently sorting
// by the default.
func ParseSortKey(name string) (SortKey, error) {
	for key, n := range sortKeyNames {
		if n == name {
			return key, nil
		}
	}
	return SortByRegisteredAt, fmt.Errorf("unknown sort key %q", name)
}

type Direction int

const (
	Ascending Direction = iota
	Descending
)

// ParseDirection maps a direction name to its Direction, erroring on
// anything other than asc/desc.
func ParseDirection(name string) (Direction, error) {
	switch name {
	case "asc", "ascending", "":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("unknown sort direction %q", name)
	}
}

// SortSpec names the primary sort column and its direction. Ties on the
// primary key are always broken by title ascending, independent of
// direction, so equal-keyed output is deterministic.
type SortSpec struct {
	Key       SortKey
	Direction Direction
}

// Sort returns a new slice ordered by the spec. The input is not modified.
func Sort(records []models.MovieRecord, spec SortSpec) []models.MovieRecord {
	out := make([]models.MovieRecord, len(records))
	copy(out, records)

	compare := comparatorFor(spec.Key)
	sort.SliceStable(out, func(i, j int) bool {
		c := compare(&out[i], &out[j])
		if spec.Direction == Descending {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		// Tie-break stays ascending regardless of the primary direction.
		return compareTitle(&out[i], &out[j]) < 0
	})
	return out
}

func comparatorFor(key SortKey) func(a, b *models.MovieRecord) int {
	switch key {
	case SortByTitle:
		return compareTitle
	case SortByYear:
		return compareYear
	case SortByRating:
		return compareRating
	case SortByOrigin:
		return func(a, b *models.MovieRecord) int {
			return strings.Compare(strings.ToLower(a.Origin), strings.ToLower(b.Origin))
		}
	case SortByWatched:
		return func(a, b *models.MovieRecord) int {
			if a.Watched == b.Watched {
				return 0
			}
			if !a.Watched {
				return -1
			}
			return 1
		}
	default:
		return func(a, b *models.MovieRecord) int {
			switch {
			case a.RegisteredAt.Before(b.RegisteredAt):
				return -1
			case a.RegisteredAt.After(b.RegisteredAt):
				return 1
			}
			return 0
		}
	}
}

func compareTitle(a, b *models.MovieRecord) int {
	return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
}

// Absent numeric values sort lowest in both directions' primary pass.
func compareYear(a, b *models.MovieRecord) int {
	av, bv := -1, -1
	if a.Year != nil {
		av = *a.Year
	}
	if b.Year != nil {
		bv = *b.Year
	}
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	}
	return 0
}

func compareRating(a, b *models.MovieRecord) int {
	av, bv := -1.0, -1.0
	if a.Rating != nil {
		av = *a.Rating
	}
	if b.Rating != nil {
		bv = *b.Rating
	}
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	}
	return 0
}
