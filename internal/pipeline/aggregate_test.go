package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinelog/cinelog/internal/models"
)

var aggNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestAggregateEmptySubset(t *testing.T) {
	stats := Aggregate(nil, aggNow)

	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, "0.0", stats.AverageRating)
	assert.Equal(t, 0, stats.NationalPct)
	assert.Equal(t, 0, stats.InternationalPct)
	assert.Nil(t, stats.TopDecade)
	assert.Nil(t, stats.BestRated)
	assert.Nil(t, stats.WorstRated)
	assert.Empty(t, stats.GenreRanking)
	// The month series still covers the trailing 12 months, all zero.
	require.Len(t, stats.WatchedPerMonth, 12)
	for _, m := range stats.WatchedPerMonth {
		assert.Equal(t, 0, m.Count)
	}
}

func TestAggregateTotalsAndAverage(t *testing.T) {
	watched := []models.MovieRecord{
		{Title: "A", Rating: f64p(8)},
		{Title: "B", Rating: f64p(7)},
		{Title: "C"}, // absent rating counts as 0 in the mean
	}
	stats := Aggregate(watched, aggNow)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, "5.0", stats.AverageRating)
}

func TestAggregateOriginBreakdownRoundsIndependently(t *testing.T) {
	watched := []models.MovieRecord{
		{Title: "A", Origin: models.OriginNational},
		{Title: "B"},
		{Title: "C", Origin: models.OriginInternational},
	}
	stats := Aggregate(watched, aggNow)
	// 1/3 and 2/3 round to 33 and 67 independently.
	assert.Equal(t, 33, stats.NationalPct)
	assert.Equal(t, 67, stats.InternationalPct)

	diff := stats.NationalPct + stats.InternationalPct - 100
	if diff < 0 {
		diff = -diff
	}
	assert.LessOrEqual(t, diff, 1)
}

func TestAggregateTopDecade(t *testing.T) {
	watched := []models.MovieRecord{
		{Title: "A", Year: intp(1994)},
		{Title: "B", Year: intp(1999)},
		{Title: "C", Year: intp(2003)},
	}
	stats := Aggregate(watched, aggNow)
	require.NotNil(t, stats.TopDecade)
	assert.Equal(t, 1990, *stats.TopDecade)
}

func TestAggregateTopDecadeTieBreaksLowestDecade(t *testing.T) {
	watched := []models.MovieRecord{
		{Title: "A", Year: intp(1985)},
		{Title: "B", Year: intp(2015)},
	}
	stats := Aggregate(watched, aggNow)
	require.NotNil(t, stats.TopDecade)
	assert.Equal(t, 1980, *stats.TopDecade)
}

func TestRatingExtremesAbsentRatingSafety(t *testing.T) {
	watched := []models.MovieRecord{
		{Title: "Unrated"},
		{Title: "Zero", Rating: f64p(0)},
		{Title: "Great", Rating: f64p(9)},
	}
	stats := Aggregate(watched, aggNow)

	require.NotNil(t, stats.BestRated)
	assert.Equal(t, "Great", stats.BestRated.Title)

	// The unrated record counts as scale-max for the worst pick, so the
	// genuine 0-rated record wins.
	require.NotNil(t, stats.WorstRated)
	assert.Equal(t, "Zero", stats.WorstRated.Title)
}

func TestFrequencyRankingCountsDuplicatesWithinOneRecord(t *testing.T) {
	// Scenario: directors ["X","X","Y"] contributes {X:2, Y:1}.
	records := []models.MovieRecord{
		{Title: "A", Directors: []string{"X", "X", "Y"}},
	}
	ranking := FrequencyRanking(records, FieldDirectors)
	require.Len(t, ranking, 2)
	assert.Equal(t, RankingEntry{Label: "X", Count: 2}, ranking[0])
	assert.Equal(t, RankingEntry{Label: "Y", Count: 1}, ranking[1])
}

func TestFrequencyRankingTieBreaksByLabel(t *testing.T) {
	records := []models.MovieRecord{
		{Title: "A", Genres: []string{"Western", "Drama"}},
		{Title: "B", Genres: []string{"Drama", "Western"}},
	}
	ranking := FrequencyRanking(records, FieldGenres)
	require.Len(t, ranking, 2)
	assert.Equal(t, "Drama", ranking[0].Label)
	assert.Equal(t, "Western", ranking[1].Label)
}

func TestFrequencyRankingLimitsToTopTen(t *testing.T) {
	record := models.MovieRecord{Title: "Ensemble"}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		record.Cast = append(record.Cast, name)
	}
	ranking := FrequencyRanking([]models.MovieRecord{record}, FieldCast)
	assert.Len(t, ranking, 10)
}

func TestRatingDistribution(t *testing.T) {
	watched := []models.MovieRecord{
		{Title: "A", Rating: f64p(7.4)},
		{Title: "B", Rating: f64p(6.8)},
		{Title: "C", Rating: f64p(3)},
		{Title: "D"}, // absent rating stays out of the distribution
	}
	stats := Aggregate(watched, aggNow)
	assert.Equal(t, []RankingEntry{
		{Label: "3", Count: 1},
		{Label: "7", Count: 2},
	}, stats.RatingDistribution)
}

func TestAverageRatingByYear(t *testing.T) {
	watched := []models.MovieRecord{
		{Title: "A", Year: intp(2000), Rating: f64p(8)},
		{Title: "B", Year: intp(2000), Rating: f64p(7)},
		{Title: "C", Year: intp(1995), Rating: f64p(6)},
		{Title: "D", Year: intp(2000)}, // no rating, excluded
	}
	stats := Aggregate(watched, aggNow)
	assert.Equal(t, []YearAverage{
		{Year: 1995, Average: 6},
		{Year: 2000, Average: 7.5},
	}, stats.AverageRatingByYear)
}

func TestWatchedPerMonthBucketsTrailingYear(t *testing.T) {
	watched := []models.MovieRecord{
		{Title: "A", Watched: true, WatchedDate: "2024-06-01"},
		{Title: "B", Watched: true, WatchedDate: "2024-06-20"},
		{Title: "C", Watched: true, WatchedDate: "2023-07-04"},
		{Title: "Old", Watched: true, WatchedDate: "2020-01-01"}, // outside window
		{Title: "Bad", Watched: true, WatchedDate: "not-a-date"}, // skipped
	}
	stats := Aggregate(watched, aggNow)
	require.Len(t, stats.WatchedPerMonth, 12)
	assert.Equal(t, "2023-07", stats.WatchedPerMonth[0].Month)
	assert.Equal(t, 1, stats.WatchedPerMonth[0].Count)
	assert.Equal(t, "2024-06", stats.WatchedPerMonth[11].Month)
	assert.Equal(t, 2, stats.WatchedPerMonth[11].Count)
}

func TestTopActorComesFromCastRanking(t *testing.T) {
	watched := []models.MovieRecord{
		{Title: "A", Cast: []string{"Sonia Braga", "Wagner Moura"}},
		{Title: "B", Cast: []string{"Wagner Moura"}},
	}
	stats := Aggregate(watched, aggNow)
	assert.Equal(t, "Wagner Moura", stats.TopActor)
}
