package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) http.Handler {
	r := mux.NewRouter()

	// Root handler
	r.HandleFunc("/", handler.RootHandler).Methods("GET")

	// API v1 routes
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public endpoints
	api.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	api.HandleFunc("/auth/register", handler.Register).Methods("POST")
	api.HandleFunc("/auth/login", handler.Login).Methods("POST")
	api.HandleFunc("/auth/nickname", handler.CheckNickname).Methods("GET")
	api.HandleFunc("/auth/reset", handler.RequestPasswordReset).Methods("POST")
	api.HandleFunc("/auth/reset/confirm", handler.ConfirmPasswordReset).Methods("POST")

	// Everything below requires a session token
	private := api.NewRoute().Subrouter()
	private.Use(handler.authManager.Middleware)

	private.HandleFunc("/auth/logout", handler.Logout).Methods("POST")
	private.HandleFunc("/auth/profile", handler.GetProfile).Methods("GET")
	private.HandleFunc("/auth/profile/complete", handler.CompleteProfile).Methods("POST")
	private.HandleFunc("/auth/password", handler.ChangePassword).Methods("POST")

	// Movies
	private.HandleFunc("/movies", handler.ListMovies).Methods("GET")
	private.HandleFunc("/movies", handler.AddMovie).Methods("POST")
	private.HandleFunc("/movies/suggest", handler.SuggestMovie).Methods("GET")
	private.HandleFunc("/movies/{id}", handler.GetMovie).Methods("GET")
	private.HandleFunc("/movies/{id}", handler.UpdateMovie).Methods("PUT")
	private.HandleFunc("/movies/{id}", handler.DeleteMovie).Methods("DELETE")
	private.HandleFunc("/movies/{id}/watched", handler.ToggleWatched).Methods("PATCH")

	// Statistics and extras
	private.HandleFunc("/stats", handler.GetStats).Methods("GET")
	private.HandleFunc("/achievements", handler.GetAchievements).Methods("GET")
	private.HandleFunc("/genres", handler.GetGenres).Methods("GET")
	private.HandleFunc("/metadata", handler.LookupMetadata).Methods("GET")

	// Exchange
	private.HandleFunc("/export", handler.ExportMovies).Methods("GET")
	private.HandleFunc("/import/preview", handler.PreviewImport).Methods("POST")
	private.HandleFunc("/import", handler.ConfirmImport).Methods("POST")

	// Live collection feed
	private.HandleFunc("/events", handler.StreamEvents).Methods("GET")

	// Enable CORS
	r.Use(corsMiddleware)

	// Logging middleware
	r.Use(loggingMiddleware)

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request with its duration
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
