package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinelog/cinelog/internal/models"
)

func TestSortRatingDescendingTieBreaksByTitleAscending(t *testing.T) {
	// Scenario: A(8, 2001, Nacional) and B(8, 1999) sorted by rating
	// descending come out [A, B] because equal ratings fall back to title.
	records := []models.MovieRecord{
		{Title: "B", Rating: f64p(8), Year: intp(1999)},
		{Title: "A", Rating: f64p(8), Year: intp(2001), Origin: models.OriginNational},
	}
	got := Sort(records, SortSpec{Key: SortByRating, Direction: Descending})
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, "B", got[1].Title)

	// The tie-break stays ascending when the primary direction flips.
	got = Sort(records, SortSpec{Key: SortByRating, Direction: Ascending})
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, "B", got[1].Title)
}

func TestSortIsStableAcrossRepeats(t *testing.T) {
	records := []models.MovieRecord{
		{Title: "C", Rating: f64p(7)},
		{Title: "A", Rating: f64p(7)},
		{Title: "B", Rating: f64p(9)},
	}
	spec := SortSpec{Key: SortByRating, Direction: Descending}
	once := Sort(records, spec)
	twice := Sort(once, spec)
	assert.Equal(t, once, twice)
}

func TestSortMissingNumericValuesSortLowest(t *testing.T) {
	records := []models.MovieRecord{
		{Title: "Rated", Rating: f64p(3)},
		{Title: "Unrated"},
	}
	got := Sort(records, SortSpec{Key: SortByRating, Direction: Ascending})
	assert.Equal(t, "Unrated", got[0].Title)

	got = Sort(records, SortSpec{Key: SortByRating, Direction: Descending})
	assert.Equal(t, "Unrated", got[1].Title)

	records = []models.MovieRecord{
		{Title: "Dated", Year: intp(1980)},
		{Title: "Undated"},
	}
	got = Sort(records, SortSpec{Key: SortByYear, Direction: Ascending})
	assert.Equal(t, "Undated", got[0].Title)
}

func TestSortByRegisteredAtChronological(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []models.MovieRecord{
		{Title: "Second", RegisteredAt: base.Add(time.Hour)},
		{Title: "First", RegisteredAt: base},
	}
	got := Sort(records, SortSpec{Key: SortByRegisteredAt, Direction: Ascending})
	assert.Equal(t, "First", got[0].Title)

	got = Sort(records, SortSpec{Key: SortByRegisteredAt, Direction: Descending})
	assert.Equal(t, "Second", got[0].Title)
}

func TestSortByTitleCaseInsensitive(t *testing.T) {
	records := []models.MovieRecord{
		{Title: "brazil"},
		{Title: "Alien"},
		{Title: "Casablanca"},
	}
	got := Sort(records, SortSpec{Key: SortByTitle, Direction: Ascending})
	assert.Equal(t, []string{"Alien", "brazil", "Casablanca"},
		[]string{got[0].Title, got[1].Title, got[2].Title})
}

func TestSortDoesNotMutateInput(t *testing.T) {
	records := []models.MovieRecord{
		{Title: "B"},
		{Title: "A"},
	}
	Sort(records, SortSpec{Key: SortByTitle})
	assert.Equal(t, "B", records[0].Title)
}

func TestParseSortKey(t *testing.T) {
	key, err := ParseSortKey("rating")
	require.NoError(t, err)
	assert.Equal(t, SortByRating, key)

	_, err = ParseSortKey("nonsense")
	assert.Error(t, err)
}

func TestParseDirection(t *testing.T) {
	direction, err := ParseDirection("desc")
	require.NoError(t, err)
	assert.Equal(t, Descending, direction)

	direction, err = ParseDirection("asc")
	require.NoError(t, err)
	assert.Equal(t, Ascending, direction)

	direction, err = ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, Ascending, direction)

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}
