package exchange

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cinelog/cinelog/internal/models"
)

var ErrUnsupportedFormat = errors.New("unsupported import format")

// Format names a supported exchange encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat resolves a format name or file extension.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// Preview is the outcome of parsing an import file against an existing
// collection: the records that would be added and the ones skipped as
// duplicates of titles already present.
type Preview struct {
	New        []models.MovieRecord `json:"new"`
	Duplicates []string             `json:"duplicates"`
}

// Import parses records in the given format and splits them into net-new
// entries and duplicates. A record is a duplicate when its title matches an
// existing one case-insensitively; titles repeated inside the file itself
// count only once.
func Import(r io.Reader, format Format, existing []models.MovieRecord) (*Preview, error) {
	var records []models.MovieRecord
	var err error

	switch format {
	case FormatJSON:
		records, err = parseJSON(r)
	case FormatCSV:
		records, err = parseCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(existing))
	for i := range existing {
		seen[strings.ToLower(existing[i].Title)] = true
	}

	preview := &Preview{New: []models.MovieRecord{}, Duplicates: []string{}}
	for i := range records {
		record := &records[i]
		record.Normalize()
		if record.Title == "" {
			continue
		}
		// Unusable values degrade to absent, same as unparseable numerics,
		// so one bad cell never sinks the whole file.
		if record.WatchedDate != "" {
			if _, err := time.Parse("2006-01-02", record.WatchedDate); err != nil {
				record.WatchedDate = ""
			}
		}
		if record.Rating != nil && (*record.Rating < 0 || *record.Rating > models.RatingScale) {
			record.Rating = nil
		}
		key := strings.ToLower(record.Title)
		if seen[key] {
			preview.Duplicates = append(preview.Duplicates, record.Title)
			continue
		}
		seen[key] = true
		preview.New = append(preview.New, *record)
	}
	return preview, nil
}

func parseJSON(r io.Reader) ([]models.MovieRecord, error) {
	var rows []exportRecord
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode import file: %w", err)
	}

	records := make([]models.MovieRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.MovieRecord{
			Title:       row.Title,
			Year:        row.Year,
			Rating:      row.Rating,
			Directors:   row.Directors,
			Cast:        row.Cast,
			Genres:      row.Genres,
			Origin:      row.Origin,
			Watched:     row.Watched,
			WatchedDate: row.WatchedDate,
			PosterURL:   row.PosterURL,
		})
	}
	return records, nil
}

func parseCSV(r io.Reader) ([]models.MovieRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["title"]; !ok {
		return nil, errors.New("import file is missing a title column")
	}

	cell := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	records := make([]models.MovieRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := models.MovieRecord{
			Title:       cell(row, "title"),
			Directors:   splitCell(cell(row, "directors")),
			Cast:        splitCell(cell(row, "cast")),
			Genres:      splitCell(cell(row, "genres")),
			Origin:      cell(row, "origin"),
			Watched:     parseWatched(cell(row, "watched")),
			WatchedDate: cell(row, "watched_date"),
			PosterURL:   cell(row, "poster_url"),
		}

		// Unparseable numbers degrade to absent rather than failing the
		// whole file.
		if year, err := strconv.Atoi(cell(row, "year")); err == nil {
			record.Year = &year
		}
		if rating, err := strconv.ParseFloat(cell(row, "rating"), 64); err == nil {
			record.Rating = &rating
		}

		records = append(records, record)
	}
	return records, nil
}

func splitCell(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseWatched(value string) bool {
	switch strings.ToLower(value) {
	case "true", "sim", "1", "yes":
		return true
	default:
		return false
	}
}
