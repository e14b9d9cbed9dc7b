// Package exchange moves movie collections in and out of the application
// as JSON or CSV, so users can back up their list or bring one along.
package exchange

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cinelog/cinelog/internal/models"
)

// listSeparator joins multi-valued fields inside a single CSV cell.
const listSeparator = "; "

var csvHeader = []string{
	"title", "year", "rating", "directors", "cast", "genres",
	"origin", "watched", "watched_date", "poster_url",
}

// exportRecord is the portable shape of a movie record. Identifiers and
// registration timestamps stay home; they are reassigned on import.
type exportRecord struct {
	Title       string   `json:"title"`
	Year        *int     `json:"year,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Directors   []string `json:"directors"`
	Cast        []string `json:"cast"`
	Genres      []string `json:"genres"`
	Origin      string   `json:"origin,omitempty"`
	Watched     bool     `json:"watched"`
	WatchedDate string   `json:"watched_date,omitempty"`
	PosterURL   string   `json:"poster_url,omitempty"`
}

func toExportRecord(r *models.MovieRecord) exportRecord {
	return exportRecord{
		Title:       r.Title,
		Year:        r.Year,
		Rating:      r.Rating,
		Directors:   r.Directors,
		Cast:        r.Cast,
		Genres:      r.Genres,
		Origin:      r.Origin,
		Watched:     r.Watched,
		WatchedDate: r.WatchedDate,
		PosterURL:   r.PosterURL,
	}
}

// ExportJSON writes the collection as an indented JSON array.
func ExportJSON(w io.Writer, records []models.MovieRecord) error {
	out := make([]exportRecord, 0, len(records))
	for i := range records {
		out = append(out, toExportRecord(&records[i]))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

// ExportCSV writes the collection as CSV with a fixed header row.
// Multi-valued fields share one cell, joined with "; ".
func ExportCSV(w io.Writer, records []models.MovieRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := range records {
		r := &records[i]
		row := []string{
			r.Title,
			formatInt(r.Year),
			formatFloat(r.Rating),
			strings.Join(r.Directors, listSeparator),
			strings.Join(r.Cast, listSeparator),
			strings.Join(r.Genres, listSeparator),
			r.Origin,
			strconv.FormatBool(r.Watched),
			r.WatchedDate,
			r.PosterURL,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
