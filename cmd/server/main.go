package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/cinelog/cinelog/internal/api"
	"github.com/cinelog/cinelog/internal/auth"
	"github.com/cinelog/cinelog/internal/config"
	"github.com/cinelog/cinelog/internal/database"
	"github.com/cinelog/cinelog/internal/library"
	"github.com/cinelog/cinelog/internal/services"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	log.Println("Starting CineLog API Server...")

	cfg := config.Load()

	// Connect to database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connection established")

	// Initialize stores
	movieStore := database.NewMovieStore(db.DB)
	userStore, err := database.NewUserStore(db.DB)
	if err != nil {
		log.Fatalf("Failed to initialize user store: %v", err)
	}
	log.Println("Database stores initialized")

	// Service clients and session manager
	omdbClient := services.NewOMDBClient(cfg.OMDBAPIKey, cfg.OMDBBaseURL)
	secret := cfg.JWTSecret
	if secret == "" {
		// Sessions won't survive a restart without a configured secret.
		log.Println("Warning: JWT_SECRET not set, generating a random session secret")
		secret = randomSecret()
	}
	authManager := auth.NewManager(secret)
	feed := library.NewFeed()

	if cfg.OMDBAPIKey == "" {
		log.Println("Warning: OMDB_API_KEY not set, metadata lookups will fail")
	}

	handler := api.NewHandler(db, movieStore, userStore, omdbClient, authManager, feed)
	router := api.SetupRoutes(handler)
	log.Println("REST API enabled at /api/v1")

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.ServerPort),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// Long write timeout keeps event streams alive.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server listening on port %d", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func randomSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.StdEncoding.EncodeToString(b)
}
