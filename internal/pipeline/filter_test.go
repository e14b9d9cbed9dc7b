package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinelog/cinelog/internal/models"
)

func intp(v int) *int         { return &v }
func f64p(v float64) *float64 { return &v }
func boolp(v bool) *bool      { return &v }

func sampleRecords() []models.MovieRecord {
	return []models.MovieRecord{
		{
			ID: "a", Title: "A", Rating: f64p(8), Year: intp(2001),
			Origin: models.OriginNational, Watched: true, WatchedDate: "2024-02-10",
			Directors: []string{"Walter Salles"}, Cast: []string{"Fernanda Torres"},
			Genres: []string{"Drama"},
		},
		{
			ID: "b", Title: "B", Rating: f64p(8), Year: intp(1999),
			Watched: true, WatchedDate: "2024-03-01",
			Directors: []string{"Ridley Scott"}, Cast: []string{"Russell Crowe"},
			Genres: []string{"Action", "Drama"},
		},
		{
			ID: "c", Title: "City of God", Rating: f64p(9), Year: intp(2002),
			Origin: models.OriginNational, Watched: false,
			Directors: []string{"Fernando Meirelles"}, Cast: []string{"Alexandre Rodrigues"},
			Genres: []string{"Crime", "Drama"},
		},
	}
}

func TestFilterNoCriteriaReturnsEverything(t *testing.T) {
	records := sampleRecords()
	got := Filter(records, FilterCriteria{})
	assert.Len(t, got, len(records))
}

func TestFilterOriginExactMatch(t *testing.T) {
	// Scenario: {origin: "Nacional"} over [A, B] keeps exactly [A].
	records := sampleRecords()[:2]
	got := Filter(records, FilterCriteria{Origin: models.OriginNational})
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Title)
}

func TestFilterTitleSubstringCaseInsensitive(t *testing.T) {
	got := Filter(sampleRecords(), FilterCriteria{Title: "city OF"})
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
}

func TestFilterListFieldsMatchAnyElement(t *testing.T) {
	records := sampleRecords()

	got := Filter(records, FilterCriteria{Actor: "crowe"})
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	got = Filter(records, FilterCriteria{Genre: "drama"})
	assert.Len(t, got, 3)

	got = Filter(records, FilterCriteria{Director: "meirelles"})
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
}

func TestFilterEqualityPredicates(t *testing.T) {
	records := sampleRecords()

	got := Filter(records, FilterCriteria{Year: intp(1999)})
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	got = Filter(records, FilterCriteria{Watched: boolp(false)})
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
}

func TestFilterCombinesPredicatesWithAnd(t *testing.T) {
	got := Filter(sampleRecords(), FilterCriteria{
		Genre:   "drama",
		Origin:  models.OriginNational,
		Watched: boolp(true),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestFilterToleratesMissingFields(t *testing.T) {
	records := []models.MovieRecord{
		{ID: "bare", Title: "Bare"}, // no lists, no year, no origin
	}
	assert.Empty(t, Filter(records, FilterCriteria{Genre: "drama"}))
	assert.Empty(t, Filter(records, FilterCriteria{Year: intp(2000)}))
	assert.Len(t, Filter(records, FilterCriteria{Title: "bare"}), 1)
}

func TestFilterIsIdempotent(t *testing.T) {
	criteria := FilterCriteria{Genre: "drama", Watched: boolp(true)}
	once := Filter(sampleRecords(), criteria)
	twice := Filter(once, criteria)
	assert.Equal(t, once, twice)
}

// Every record of the output satisfies the criteria, and the output holds
// every input record that does.
func TestFilterCorrectnessProperty(t *testing.T) {
	records := sampleRecords()
	criteria := FilterCriteria{Genre: "drama", Origin: models.OriginNational}

	filtered := Filter(records, criteria)
	for i := range filtered {
		assert.True(t, Matches(&filtered[i], criteria))
	}

	matching := 0
	for i := range records {
		if Matches(&records[i], criteria) {
			matching++
		}
	}
	assert.Equal(t, matching, len(filtered))
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	records := sampleRecords()
	Filter(records, FilterCriteria{Title: "a"})
	assert.Equal(t, sampleRecords(), records)
}
