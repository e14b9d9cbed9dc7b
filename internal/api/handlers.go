package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/cinelog/cinelog/internal/auth"
	"github.com/cinelog/cinelog/internal/database"
	"github.com/cinelog/cinelog/internal/exchange"
	"github.com/cinelog/cinelog/internal/library"
	"github.com/cinelog/cinelog/internal/models"
	"github.com/cinelog/cinelog/internal/pipeline"
	"github.com/cinelog/cinelog/internal/services"
)

// movieStore is the collection persistence the handlers need, satisfied by
// *database.MovieStore.
type movieStore interface {
	Create(ctx context.Context, userID int, record *models.MovieRecord) error
	CreateBatch(ctx context.Context, userID int, records []models.MovieRecord) error
	Get(ctx context.Context, userID int, id string) (*models.MovieRecord, error)
	List(ctx context.Context, userID int) ([]models.MovieRecord, error)
	Update(ctx context.Context, userID int, record *models.MovieRecord) error
	SetWatched(ctx context.Context, userID int, id string, watched bool, watchedDate string) error
	Delete(ctx context.Context, userID int, id string) error
}

type Handler struct {
	db          *database.DB
	movieStore  movieStore
	userStore   *database.UserStore
	omdbClient  *services.OMDBClient
	authManager *auth.Manager
	feed        *library.Feed
}

func NewHandler(
	db *database.DB,
	movieStore *database.MovieStore,
	userStore *database.UserStore,
	omdbClient *services.OMDBClient,
	authManager *auth.Manager,
	feed *library.Feed,
) *Handler {
	return &Handler{
		db:          db,
		movieStore:  movieStore,
		userStore:   userStore,
		omdbClient:  omdbClient,
		authManager: authManager,
		feed:        feed,
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// currentUserID pulls the authenticated user out of the request context.
func currentUserID(r *http.Request) (int, bool) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		return 0, false
	}
	return claims.UserID, true
}

// HealthCheck handles GET /api/v1/health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Health(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RootHandler handles GET /
func (h *Handler) RootHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"name":    "CineLog API",
		"version": "1.0",
	})
}

// parseViewQuery reads the filter criteria and sort spec from the request
// query string. Empty and "all" values mean "no constraint".
func parseViewQuery(r *http.Request) (pipeline.FilterCriteria, pipeline.SortSpec, error) {
	q := r.URL.Query()

	criteria := pipeline.FilterCriteria{
		Title:    q.Get("title"),
		Genre:    sentinelToEmpty(q.Get("genre")),
		Director: q.Get("director"),
		Actor:    q.Get("actor"),
		Origin:   sentinelToEmpty(q.Get("origin")),
	}
	if v := q.Get("year"); v != "" && v != "all" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return criteria, pipeline.SortSpec{}, fmt.Errorf("invalid year %q", v)
		}
		criteria.Year = &year
	}
	if v := q.Get("watched"); v != "" && v != "all" {
		watched, err := strconv.ParseBool(v)
		if err != nil {
			return criteria, pipeline.SortSpec{}, fmt.Errorf("invalid watched %q", v)
		}
		criteria.Watched = &watched
	}

	spec := pipeline.SortSpec{}
	if v := q.Get("sort"); v != "" {
		key, err := pipeline.ParseSortKey(v)
		if err != nil {
			return criteria, spec, err
		}
		spec.Key = key
	}
	if v := q.Get("direction"); v != "" {
		direction, err := pipeline.ParseDirection(v)
		if err != nil {
			return criteria, spec, err
		}
		spec.Direction = direction
	}
	return criteria, spec, nil
}

func sentinelToEmpty(v string) string {
	if v == "all" {
		return ""
	}
	return v
}

// ListMovies handles GET /api/v1/movies. It returns the filtered, sorted
// view plus the statistics of its watched subset.
func (h *Handler) ListMovies(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	criteria, spec, err := parseViewQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.movieStore.List(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	view := pipeline.Recompute(records, criteria, spec, time.Now())
	respondJSON(w, http.StatusOK, view)
}

// GetMovie handles GET /api/v1/movies/{id}
func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	record, err := h.movieStore.Get(r.Context(), userID, mux.Vars(r)["id"])
	if errors.Is(err, database.ErrMovieNotFound) {
		respondError(w, http.StatusNotFound, "movie not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// AddMovie handles POST /api/v1/movies
func (h *Handler) AddMovie(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var record models.MovieRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record.Normalize()
	if err := record.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.movieStore.Create(r.Context(), userID, &record); err != nil {
		if errors.Is(err, database.ErrDuplicateMovie) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.publishSnapshot(r, userID)
	respondJSON(w, http.StatusCreated, record)
}

// UpdateMovie handles PUT /api/v1/movies/{id}
func (h *Handler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var record models.MovieRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	record.ID = mux.Vars(r)["id"]

	record.Normalize()
	if err := record.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.movieStore.Update(r.Context(), userID, &record); err != nil {
		if errors.Is(err, database.ErrMovieNotFound) {
			respondError(w, http.StatusNotFound, "movie not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.publishSnapshot(r, userID)
	respondJSON(w, http.StatusOK, record)
}

// ToggleWatched handles PATCH /api/v1/movies/{id}/watched
func (h *Handler) ToggleWatched(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req struct {
		Watched     bool   `json:"watched"`
		WatchedDate string `json:"watched_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Marking watched without a date stamps today.
	if req.Watched && req.WatchedDate == "" {
		req.WatchedDate = time.Now().Format("2006-01-02")
	}
	if req.WatchedDate != "" {
		if _, err := time.Parse("2006-01-02", req.WatchedDate); err != nil {
			respondError(w, http.StatusBadRequest, "watched_date must be YYYY-MM-DD")
			return
		}
	}

	id := mux.Vars(r)["id"]
	if err := h.movieStore.SetWatched(r.Context(), userID, id, req.Watched, req.WatchedDate); err != nil {
		if errors.Is(err, database.ErrMovieNotFound) {
			respondError(w, http.StatusNotFound, "movie not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.publishSnapshot(r, userID)
	record, err := h.movieStore.Get(r.Context(), userID, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// DeleteMovie handles DELETE /api/v1/movies/{id}
func (h *Handler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.movieStore.Delete(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		if errors.Is(err, database.ErrMovieNotFound) {
			respondError(w, http.StatusNotFound, "movie not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.publishSnapshot(r, userID)
	w.WriteHeader(http.StatusNoContent)
}

// GetStats handles GET /api/v1/stats. Statistics always cover the watched
// subset of the (optionally filtered) collection.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	criteria, _, err := parseViewQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.movieStore.List(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	watched := pipeline.WatchedOnly(pipeline.Filter(records, criteria))
	respondJSON(w, http.StatusOK, pipeline.Aggregate(watched, time.Now()))
}

// SuggestMovie handles GET /api/v1/movies/suggest, picking a random
// unwatched title from the collection.
func (h *Handler) SuggestMovie(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	records, err := h.movieStore.List(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	unwatched := pipeline.UnwatchedOnly(records)
	if len(unwatched) == 0 {
		respondError(w, http.StatusNotFound, "no unwatched movies to suggest")
		return
	}
	respondJSON(w, http.StatusOK, unwatched[rand.Intn(len(unwatched))])
}

// GetAchievements handles GET /api/v1/achievements
func (h *Handler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	records, err := h.movieStore.List(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, pipeline.Achievements(records))
}

// GetGenres handles GET /api/v1/genres, the suggestion vocabulary for the
// genre input.
func (h *Handler) GetGenres(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.PredefinedGenres())
}

// LookupMetadata handles GET /api/v1/metadata?title=...&year=...
func (h *Handler) LookupMetadata(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	var year *int
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = &y
	}

	meta, err := h.omdbClient.Lookup(r.Context(), title, year)
	if errors.Is(err, services.ErrMovieNotFound) {
		respondError(w, http.StatusNotFound, "movie not found in catalog")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, meta)
}

// ExportMovies handles GET /api/v1/export?format=json|csv. The same filter
// and sort parameters as the list view apply, so the file is a snapshot of
// exactly what the user is looking at.
func (h *Handler) ExportMovies(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	format, err := exchange.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	criteria, spec, err := parseViewQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.movieStore.List(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	records = pipeline.Sort(pipeline.Filter(records, criteria), spec)

	filename := fmt.Sprintf("movies-%s.%s", time.Now().Format("2006-01-02"), format)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	switch format {
	case exchange.FormatCSV:
		w.Header().Set("Content-Type", "text/csv")
		err = exchange.ExportCSV(w, records)
	default:
		w.Header().Set("Content-Type", "application/json")
		err = exchange.ExportJSON(w, records)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// PreviewImport handles POST /api/v1/import/preview. The body is the raw
// file; the response says which records would be added and which titles
// are already on the list.
func (h *Handler) PreviewImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	format, err := exchange.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := h.movieStore.List(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	preview, err := exchange.Import(r.Body, format, existing)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, preview)
}

// ConfirmImport handles POST /api/v1/import. The same parsing as the
// preview runs again against the current collection, then the net-new
// records land in one transaction.
func (h *Handler) ConfirmImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	format, err := exchange.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := h.movieStore.List(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	preview, err := exchange.Import(r.Body, format, existing)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(preview.New) > 0 {
		if err := h.movieStore.CreateBatch(r.Context(), userID, preview.New); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.publishSnapshot(r, userID)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"imported":   len(preview.New),
		"duplicates": preview.Duplicates,
	})
}

// publishSnapshot pushes the user's fresh collection to feed subscribers
// after a mutation. Failures only cost the push, not the request.
func (h *Handler) publishSnapshot(r *http.Request, userID int) {
	records, err := h.movieStore.List(r.Context(), userID)
	if err != nil {
		return
	}
	h.feed.Publish(userID, records)
}
