package pipeline

import (
	"github.com/cinelog/cinelog/internal/models"
)

// Achievement is a badge computed over the user's full list (not the
// filtered view), unlocked permanently once its condition holds.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

type achievementDef struct {
	id, name, description string
	check                 func([]models.MovieRecord) bool
}

var achievementDefs = []achievementDef{
	{
		id: "cinephile_10", name: "Budding Cinephile",
		description: "Registered 10 movies on your list.",
		check: func(list []models.MovieRecord) bool {
			return len(list) >= 10
		},
	},
	{
		id: "critic_10", name: "Film Critic",
		description: "Gave at least one movie a 10 rating.",
		check: func(list []models.MovieRecord) bool {
			for i := range list {
				if list[i].Rating != nil && *list[i].Rating == models.RatingScale {
					return true
				}
			}
			return false
		},
	},
	{
		id: "national_5", name: "National Pride",
		description: "Registered 5 movies of national origin.",
		check: func(list []models.MovieRecord) bool {
			n := 0
			for i := range list {
				if list[i].Origin == models.OriginNational {
					n++
				}
			}
			return n >= 5
		},
	},
	{
		id: "devoted_fan_3", name: "Devoted Fan",
		description: "Registered 3 or more movies by the same director.",
		check: func(list []models.MovieRecord) bool {
			counts := map[string]int{}
			for i := range list {
				for _, d := range list[i].Directors {
					if d == "" {
						continue
					}
					counts[d]++
					if counts[d] >= 3 {
						return true
					}
				}
			}
			return false
		},
	},
	{
		id: "marathoner_5", name: "The Marathoner",
		description: "Watched 5 or more movies in the same month.",
		check: func(list []models.MovieRecord) bool {
			counts := map[string]int{}
			for i := range list {
				r := &list[i]
				if !r.Watched || len(r.WatchedDate) < 7 {
					continue
				}
				month := r.WatchedDate[:7]
				counts[month]++
				if counts[month] >= 5 {
					return true
				}
			}
			return false
		},
	},
}

// Achievements evaluates every badge against the full record list.
func Achievements(records []models.MovieRecord) []Achievement {
	out := make([]Achievement, 0, len(achievementDefs))
	for _, def := range achievementDefs {
		out = append(out, Achievement{
			ID:          def.id,
			Name:        def.name,
			Description: def.description,
			Unlocked:    def.check(records),
		})
	}
	return out
}
