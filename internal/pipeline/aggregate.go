package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/cinelog/cinelog/internal/models"
)

const rankingLimit = 10

// RankingEntry is one row of a frequency ranking: a label and how many
// times it occurred across the aggregated subset.
type RankingEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// YearAverage is the mean rating of the records released in one year.
type YearAverage struct {
	Year    int     `json:"year"`
	Average float64 `json:"average"`
}

// MonthCount counts records watched in one calendar month (YYYY-MM).
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// Stats is everything the stat cards, rankings and charts need, computed
// from the watched subset of the current view. Every field has a defined
// value for an empty subset; nothing here ever panics on partial records.
type Stats struct {
	Total            int    `json:"total"`
	AverageRating    string `json:"average_rating"`
	NationalPct      int    `json:"national_pct"`
	InternationalPct int    `json:"international_pct"`

	TopDecade  *int                `json:"top_decade,omitempty"`
	TopActor   string              `json:"top_actor,omitempty"`
	BestRated  *models.MovieRecord `json:"best_rated,omitempty"`
	WorstRated *models.MovieRecord `json:"worst_rated,omitempty"`

	GenreRanking    []RankingEntry `json:"genre_ranking"`
	CastRanking     []RankingEntry `json:"cast_ranking"`
	DirectorRanking []RankingEntry `json:"director_ranking"`
	YearRanking     []RankingEntry `json:"year_ranking"`

	RatingDistribution  []RankingEntry `json:"rating_distribution"`
	AverageRatingByYear []YearAverage  `json:"average_rating_by_year"`
	WatchedPerMonth     []MonthCount   `json:"watched_per_month"`
}

// ListField names a list-valued record field that can be flattened into a
// frequency ranking.
type ListField int

const (
	FieldGenres ListField = iota
	FieldDirectors
	FieldCast
)

func (f ListField) values(r *models.MovieRecord) []string {
	switch f {
	case FieldDirectors:
		return r.Directors
	case FieldCast:
		return r.Cast
	default:
		return r.Genres
	}
}

// WatchedOnly returns the sub-list with watched == true, the basis for all
// statistics and charts.
func WatchedOnly(records []models.MovieRecord) []models.MovieRecord {
	out := make([]models.MovieRecord, 0, len(records))
	for _, r := range records {
		if r.Watched {
			out = append(out, r)
		}
	}
	return out
}

// UnwatchedOnly returns the sub-list with watched == false, used by the
// random suggestion.
func UnwatchedOnly(records []models.MovieRecord) []models.MovieRecord {
	out := make([]models.MovieRecord, 0, len(records))
	for _, r := range records {
		if !r.Watched {
			out = append(out, r)
		}
	}
	return out
}

// Aggregate computes the full statistics block over the watched subset.
// now anchors the trailing-12-months watched-per-month series.
func Aggregate(watched []models.MovieRecord, now time.Time) Stats {
	stats := Stats{
		Total:               len(watched),
		AverageRating:       "0.0",
		GenreRanking:        []RankingEntry{},
		CastRanking:         []RankingEntry{},
		DirectorRanking:     []RankingEntry{},
		YearRanking:         []RankingEntry{},
		RatingDistribution:  []RankingEntry{},
		AverageRatingByYear: []YearAverage{},
		WatchedPerMonth:     watchedPerMonth(watched, now),
	}
	if len(watched) == 0 {
		return stats
	}

	var sum float64
	for i := range watched {
		sum += watched[i].RatingOrZero()
	}
	stats.AverageRating = fmt.Sprintf("%.1f", sum/float64(len(watched)))

	// Both percentages are rounded independently off the same denominator,
	// so they may not sum to exactly 100.
	national := 0
	for i := range watched {
		if watched[i].Origin == models.OriginNational {
			national++
		}
	}
	stats.NationalPct = roundPct(national, len(watched))
	stats.InternationalPct = roundPct(len(watched)-national, len(watched))

	stats.TopDecade = topDecade(watched)
	stats.BestRated, stats.WorstRated = ratingExtremes(watched)

	stats.GenreRanking = FrequencyRanking(watched, FieldGenres)
	stats.CastRanking = FrequencyRanking(watched, FieldCast)
	stats.DirectorRanking = FrequencyRanking(watched, FieldDirectors)
	if len(stats.CastRanking) > 0 {
		stats.TopActor = stats.CastRanking[0].Label
	}
	stats.YearRanking = yearRanking(watched)
	stats.RatingDistribution = ratingDistribution(watched)
	stats.AverageRatingByYear = averageRatingByYear(watched)

	return stats
}

// FrequencyRanking flattens a list-valued field across the subset, counts
// every occurrence (a name repeated inside one record counts each time) and
// returns the top entries sorted by count descending. Count ties break by
// label ascending so the order never depends on map iteration.
func FrequencyRanking(records []models.MovieRecord, field ListField) []RankingEntry {
	counts := map[string]int{}
	for i := range records {
		for _, v := range field.values(&records[i]) {
			if v != "" {
				counts[v]++
			}
		}
	}
	return sortRanking(counts)
}

func yearRanking(records []models.MovieRecord) []RankingEntry {
	counts := map[string]int{}
	for i := range records {
		if records[i].Year != nil {
			counts[strconv.Itoa(*records[i].Year)]++
		}
	}
	return sortRanking(counts)
}

func sortRanking(counts map[string]int) []RankingEntry {
	entries := make([]RankingEntry, 0, len(counts))
	for label, count := range counts {
		entries = append(entries, RankingEntry{Label: label, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Label < entries[j].Label
	})
	if len(entries) > rankingLimit {
		entries = entries[:rankingLimit]
	}
	return entries
}

func topDecade(records []models.MovieRecord) *int {
	counts := map[int]int{}
	for i := range records {
		if decade, ok := records[i].Decade(); ok {
			counts[decade]++
		}
	}
	var best *int
	for decade, count := range counts {
		d := decade
		if best == nil || count > counts[*best] || (count == counts[*best] && d < *best) {
			best = &d
		}
	}
	return best
}

// ratingExtremes picks the best and worst rated records. An absent rating
// counts as 0 for the best pick and as the top of the scale for the worst
// pick, so an unrated record never wins either extreme over a genuinely
// rated one. First encountered wins on exact ties.
func ratingExtremes(records []models.MovieRecord) (best, worst *models.MovieRecord) {
	bestVal, worstVal := -1.0, models.RatingScale+1
	for i := range records {
		r := &records[i]
		bv := r.RatingOrZero()
		wv := models.RatingScale
		if r.Rating != nil {
			wv = *r.Rating
		}
		if bv > bestVal {
			bestVal, best = bv, r
		}
		if wv < worstVal {
			worstVal, worst = wv, r
		}
	}
	return best, worst
}

func ratingDistribution(records []models.MovieRecord) []RankingEntry {
	counts := map[int]int{}
	for i := range records {
		if records[i].Rating != nil {
			counts[int(math.Round(*records[i].Rating))]++
		}
	}
	ratings := make([]int, 0, len(counts))
	for r := range counts {
		ratings = append(ratings, r)
	}
	sort.Ints(ratings)
	entries := make([]RankingEntry, 0, len(ratings))
	for _, r := range ratings {
		entries = append(entries, RankingEntry{Label: strconv.Itoa(r), Count: counts[r]})
	}
	return entries
}

func averageRatingByYear(records []models.MovieRecord) []YearAverage {
	type acc struct {
		sum   float64
		count int
	}
	byYear := map[int]*acc{}
	for i := range records {
		r := &records[i]
		if r.Year == nil || r.Rating == nil {
			continue
		}
		a := byYear[*r.Year]
		if a == nil {
			a = &acc{}
			byYear[*r.Year] = a
		}
		a.sum += *r.Rating
		a.count++
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	out := make([]YearAverage, 0, len(years))
	for _, y := range years {
		a := byYear[y]
		avg := math.Round(a.sum/float64(a.count)*10) / 10
		out = append(out, YearAverage{Year: y, Average: avg})
	}
	return out
}

// watchedPerMonth buckets the watched dates into the trailing 12 calendar
// months ending at now. Months without activity stay at zero; invalid
// watched dates are skipped silently.
func watchedPerMonth(records []models.MovieRecord, now time.Time) []MonthCount {
	counts := map[string]int{}
	order := make([]string, 0, 12)
	for i := 11; i >= 0; i-- {
		month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		key := month.Format("2006-01")
		order = append(order, key)
		counts[key] = 0
	}
	for i := range records {
		r := &records[i]
		if r.WatchedDate == "" {
			continue
		}
		d, err := time.Parse("2006-01-02", r.WatchedDate)
		if err != nil {
			continue
		}
		key := d.Format("2006-01")
		if _, tracked := counts[key]; tracked {
			counts[key]++
		}
	}
	out := make([]MonthCount, 0, len(order))
	for _, key := range order {
		out = append(out, MonthCount{Month: key, Count: counts[key]})
	}
	return out
}

func roundPct(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
