package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinelog/cinelog/internal/models"
)

func TestRecomputeRunsStagesInOrder(t *testing.T) {
	records := sampleRecords()
	view := Recompute(records,
		FilterCriteria{Genre: "drama"},
		SortSpec{Key: SortByRating, Direction: Descending},
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	// All three sample records carry Drama; highest rating first.
	require.Len(t, view.Records, 3)
	assert.Equal(t, "City of God", view.Records[0].Title)

	// Stats cover only the watched subset of the filtered view.
	assert.Equal(t, 2, view.Stats.Total)
}

func TestRecomputeEmptyInputYieldsDefinedView(t *testing.T) {
	view := Recompute(nil, FilterCriteria{}, SortSpec{}, time.Now())
	assert.Empty(t, view.Records)
	assert.Equal(t, "0.0", view.Stats.AverageRating)
}

func TestRecomputeToleratesMalformedRecord(t *testing.T) {
	// A record missing its title must not blank the rest of the view.
	records := []models.MovieRecord{
		{ID: "ok", Title: "Fine", Watched: true, Rating: f64p(5)},
		{ID: "broken", Watched: true},
	}
	view := Recompute(records, FilterCriteria{}, SortSpec{Key: SortByTitle}, time.Now())
	require.Len(t, view.Records, 2)
	assert.Equal(t, 2, view.Stats.Total)
}

func TestAchievements(t *testing.T) {
	var records []models.MovieRecord
	for i := 0; i < 10; i++ {
		records = append(records, models.MovieRecord{Title: "M", Origin: models.OriginNational})
	}
	records[0].Rating = f64p(10)
	records[1].Directors = []string{"Glauber Rocha"}
	records[2].Directors = []string{"Glauber Rocha"}
	records[3].Directors = []string{"Glauber Rocha"}
	for i := 4; i < 9; i++ {
		records[i].Watched = true
		records[i].WatchedDate = "2024-03-10"
	}

	unlocked := map[string]bool{}
	for _, a := range Achievements(records) {
		unlocked[a.ID] = a.Unlocked
	}
	assert.True(t, unlocked["cinephile_10"])
	assert.True(t, unlocked["critic_10"])
	assert.True(t, unlocked["national_5"])
	assert.True(t, unlocked["devoted_fan_3"])
	assert.True(t, unlocked["marathoner_5"])
}

func TestAchievementsLockedOnEmptyList(t *testing.T) {
	for _, a := range Achievements(nil) {
		assert.False(t, a.Unlocked, a.ID)
	}
}
