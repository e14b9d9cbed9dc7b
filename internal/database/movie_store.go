package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/cinelog/cinelog/internal/models"
)

var (
	ErrMovieNotFound  = errors.New("movie not found")
	ErrDuplicateMovie = errors.New("movie already registered with this title and year")
)

// MovieStore handles the per-user movie collections. Records get an opaque
// uuid identifier and a server-side registration timestamp on creation.
type MovieStore struct {
	db *sql.DB
}

func NewMovieStore(db *sql.DB) *MovieStore {
	return &MovieStore{db: db}
}

const movieColumns = `id, title, year, rating, directors, cast_members, genres,
	origin, watched, watched_date, poster_url, registered_at`

// Create inserts a new record for the user, assigning its id and
// registered_at. A record with the same title and year already on the
// user's list is rejected with ErrDuplicateMovie.
func (s *MovieStore) Create(ctx context.Context, userID int, record *models.MovieRecord) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM library_movies
			WHERE user_id = $1 AND title = $2 AND year IS NOT DISTINCT FROM $3
		)
	`, userID, record.Title, record.Year).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate movie: %w", err)
	}
	if exists {
		return ErrDuplicateMovie
	}

	record.ID = uuid.NewString()
	record.RegisteredAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO library_movies (
			id, user_id, title, year, rating, directors, cast_members, genres,
			origin, watched, watched_date, poster_url, registered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		record.ID, userID, record.Title, record.Year, record.Rating,
		pq.Array(record.Directors), pq.Array(record.Cast), pq.Array(record.Genres),
		record.Origin, record.Watched, nullDate(record.WatchedDate),
		record.PosterURL, record.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert movie: %w", err)
	}
	return nil
}

// CreateBatch inserts several records in one transaction, used by the
// import confirmation. Either every record lands or none does.
func (s *MovieStore) CreateBatch(ctx context.Context, userID int, records []models.MovieRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO library_movies (
			id, user_id, title, year, rating, directors, cast_members, genres,
			origin, watched, watched_date, poster_url, registered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare import insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range records {
		r := &records[i]
		r.ID = uuid.NewString()
		r.RegisteredAt = now
		if _, err := stmt.ExecContext(ctx,
			r.ID, userID, r.Title, r.Year, r.Rating,
			pq.Array(r.Directors), pq.Array(r.Cast), pq.Array(r.Genres),
			r.Origin, r.Watched, nullDate(r.WatchedDate), r.PosterURL, r.RegisteredAt,
		); err != nil {
			return fmt.Errorf("failed to insert imported movie %q: %w", r.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

// Get retrieves one record by id, scoped to the owning user.
func (s *MovieStore) Get(ctx context.Context, userID int, id string) (*models.MovieRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+movieColumns+`
		FROM library_movies
		WHERE user_id = $1 AND id = $2
	`, userID, id)

	record, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query movie: %w", err)
	}
	return record, nil
}

// List returns the user's full collection ordered by registration time,
// the stable insertion order every snapshot is built from.
func (s *MovieStore) List(ctx context.Context, userID int) ([]models.MovieRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+movieColumns+`
		FROM library_movies
		WHERE user_id = $1
		ORDER BY registered_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	defer rows.Close()

	records := []models.MovieRecord{}
	for rows.Next() {
		record, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// Update overwrites the mutable fields of a record. ID and registered_at
// never change.
func (s *MovieStore) Update(ctx context.Context, userID int, record *models.MovieRecord) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE library_movies
		SET title = $1, year = $2, rating = $3, directors = $4, cast_members = $5,
			genres = $6, origin = $7, watched = $8, watched_date = $9, poster_url = $10
		WHERE user_id = $11 AND id = $12
	`,
		record.Title, record.Year, record.Rating,
		pq.Array(record.Directors), pq.Array(record.Cast), pq.Array(record.Genres),
		record.Origin, record.Watched, nullDate(record.WatchedDate), record.PosterURL,
		userID, record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update movie: %w", err)
	}
	return requireRow(result)
}

// SetWatched toggles the watched flag, setting the watched date when
// marking watched and clearing it otherwise.
func (s *MovieStore) SetWatched(ctx context.Context, userID int, id string, watched bool, watchedDate string) error {
	if !watched {
		watchedDate = ""
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE library_movies
		SET watched = $1, watched_date = $2
		WHERE user_id = $3 AND id = $4
	`, watched, nullDate(watchedDate), userID, id)
	if err != nil {
		return fmt.Errorf("failed to toggle watched: %w", err)
	}
	return requireRow(result)
}

// Delete removes a record from the user's collection.
func (s *MovieStore) Delete(ctx context.Context, userID int, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM library_movies WHERE user_id = $1 AND id = $2
	`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}
	return requireRow(result)
}

// Count returns the size of the user's collection.
func (s *MovieStore) Count(ctx context.Context, userID int) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM library_movies WHERE user_id = $1", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count movies: %w", err)
	}
	return count, nil
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrMovieNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMovie(row rowScanner) (*models.MovieRecord, error) {
	record := &models.MovieRecord{}
	var (
		year        sql.NullInt64
		rating      sql.NullFloat64
		watchedDate sql.NullTime
		directors   pq.StringArray
		cast        pq.StringArray
		genres      pq.StringArray
	)

	err := row.Scan(
		&record.ID, &record.Title, &year, &rating, &directors, &cast, &genres,
		&record.Origin, &record.Watched, &watchedDate, &record.PosterURL,
		&record.RegisteredAt,
	)
	if err != nil {
		return nil, err
	}

	if year.Valid {
		y := int(year.Int64)
		record.Year = &y
	}
	if rating.Valid {
		r := rating.Float64
		record.Rating = &r
	}
	if watchedDate.Valid {
		record.WatchedDate = watchedDate.Time.Format("2006-01-02")
	}
	record.Directors = directors
	record.Cast = cast
	record.Genres = genres
	record.Normalize()

	return record, nil
}

func nullDate(date string) interface{} {
	if date == "" {
		return nil
	}
	return date
}
