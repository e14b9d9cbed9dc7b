package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cinelog/cinelog/internal/models"
)

var ErrMovieNotFound = errors.New("movie not found in catalog")

// posterSizeSuffix matches OMDb's thumbnail size marker; stripping it
// yields the full-resolution poster URL.
var posterSizeSuffix = regexp.MustCompile(`_SX[0-9]+.*\.`)

type OMDBClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewOMDBClient(apiKey, baseURL string) *OMDBClient {
	return &OMDBClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type omdbMovie struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Actors     string `json:"Actors"`
	Country    string `json:"Country"`
	Poster     string `json:"Poster"`
	ImdbRating string `json:"imdbRating"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

// Lookup fetches metadata for a movie by title, optionally narrowed by
// release year. A catalog miss returns ErrMovieNotFound; the caller keeps
// whatever the user typed.
func (c *OMDBClient) Lookup(ctx context.Context, title string, year *int) (*models.ExternalMetadata, error) {
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("t", title)
	if year != nil {
		params.Set("y", strconv.Itoa(*year))
	}

	data, err := c.makeRequest(ctx, c.baseURL+"/", params)
	if err != nil {
		return nil, err
	}

	var movie omdbMovie
	if err := json.Unmarshal(data, &movie); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lookup response: %w", err)
	}
	if movie.Response == "False" {
		return nil, ErrMovieNotFound
	}

	return c.convertMovie(&movie), nil
}

func (c *OMDBClient) convertMovie(movie *omdbMovie) *models.ExternalMetadata {
	meta := &models.ExternalMetadata{
		Title:     movie.Title,
		Genres:    splitList(movie.Genre),
		Directors: splitList(movie.Director),
		Cast:      splitList(movie.Actors),
	}

	if year, err := strconv.Atoi(strings.TrimSpace(movie.Year)); err == nil {
		meta.Year = &year
	}
	// "N/A" fails the parse and leaves the rating absent.
	if rating, err := strconv.ParseFloat(strings.TrimSpace(movie.ImdbRating), 64); err == nil {
		meta.Rating = &rating
	}

	// A Brazilian production counts as national, anything else as
	// international.
	if strings.Contains(movie.Country, "Brazil") {
		meta.Origin = models.OriginNational
	} else if movie.Country != "" && movie.Country != "N/A" {
		meta.Origin = models.OriginInternational
	}

	if movie.Poster != "" && movie.Poster != "N/A" {
		meta.PosterURL = posterSizeSuffix.ReplaceAllString(movie.Poster, ".")
	}

	return meta
}

func (c *OMDBClient) makeRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func splitList(value string) []string {
	if value == "" || value == "N/A" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
