package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/cinelog/cinelog/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrNicknameTaken     = errors.New("nickname already taken")
	ErrEmailTaken        = errors.New("email already registered")
	ErrInvalidCredential = errors.New("invalid credentials")
)

// UserStore handles account persistence and credential checks.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) (*UserStore, error) {
	store := &UserStore{db: db}
	if err := store.initTables(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *UserStore) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL DEFAULT '',
			nickname VARCHAR(64) NOT NULL,
			email VARCHAR(255) NOT NULL,
			password VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_nickname ON users (LOWER(nickname))`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (LOWER(email))`,
		`CREATE TABLE IF NOT EXISTS password_resets (
			token UUID PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMP NOT NULL,
			used BOOLEAN DEFAULT FALSE
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// CreateUser registers a new account with a bcrypt-hashed password.
// Nickname and email collisions surface as ErrNicknameTaken / ErrEmailTaken.
func (s *UserStore) CreateUser(ctx context.Context, name, nickname, email, password string) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(name),
		Nickname: strings.TrimSpace(nickname),
		Email:    strings.ToLower(strings.TrimSpace(email)),
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, nickname, email, password)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, user.Name, user.Nickname, user.Email, string(hashed)).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if strings.Contains(pqErr.Constraint, "nickname") {
				return nil, ErrNicknameTaken
			}
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// NicknameAvailable reports whether no account holds the nickname,
// compared case-insensitively.
func (s *UserStore) NicknameAvailable(ctx context.Context, nickname string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(nickname) = LOWER($1))
	`, strings.TrimSpace(nickname)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check nickname: %w", err)
	}
	return !exists, nil
}

func (s *UserStore) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	return s.getUser(ctx, "id = $1", id)
}

func (s *UserStore) GetUserByNickname(ctx context.Context, nickname string) (*models.User, error) {
	return s.getUser(ctx, "LOWER(nickname) = LOWER($1)", strings.TrimSpace(nickname))
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "LOWER(email) = LOWER($1)", strings.TrimSpace(email))
}

// GetUserByIdentifier resolves the login identifier: values containing an
// '@' are treated as an email address, anything else as a nickname.
func (s *UserStore) GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	if strings.Contains(identifier, "@") {
		return s.GetUserByEmail(ctx, identifier)
	}
	return s.GetUserByNickname(ctx, identifier)
}

func (s *UserStore) getUser(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, nickname, email, password, created_at
		FROM users WHERE `+where,
		arg,
	).Scan(&user.ID, &user.Name, &user.Nickname, &user.Email, &user.Password, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// VerifyPassword looks the user up by identifier and checks the password.
// Unknown identifiers and wrong passwords both return ErrInvalidCredential
// so callers cannot tell which one failed.
func (s *UserStore) VerifyPassword(ctx context.Context, identifier, password string) (*models.User, error) {
	user, err := s.GetUserByIdentifier(ctx, identifier)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredential
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}
	return user, nil
}

// UpdatePassword replaces the stored hash after verifying the current one.
func (s *UserStore) UpdatePassword(ctx context.Context, userID int, currentPassword, newPassword string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return ErrInvalidCredential
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE users SET password = $1 WHERE id = $2", string(hashed), userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// ResetPassword sets a new password without checking the old one, used by
// the reset-token flow.
func (s *UserStore) ResetPassword(ctx context.Context, userID int, newPassword string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE users SET password = $1 WHERE id = $2", string(hashed), userID)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

// CompleteProfile fills in name and nickname for an account created before
// those fields were collected. It refuses to overwrite an existing nickname.
func (s *UserStore) CompleteProfile(ctx context.Context, userID int, name, nickname string) (*models.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Nickname != "" {
		return user, nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE users SET name = $1, nickname = $2 WHERE id = $3
	`, strings.TrimSpace(name), strings.TrimSpace(nickname), userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrNicknameTaken
		}
		return nil, fmt.Errorf("failed to complete profile: %w", err)
	}
	return s.GetUserByID(ctx, userID)
}

// CreatePasswordReset issues a single-use reset token valid for one hour.
// Delivery is up to the caller; the token row is what the reset endpoint
// validates against.
func (s *UserStore) CreatePasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO password_resets (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, user.ID, time.Now().UTC().Add(time.Hour))
	if err != nil {
		return "", fmt.Errorf("failed to create password reset: %w", err)
	}
	return token, nil
}

// ConsumePasswordReset validates a reset token and marks it used,
// returning the owning user id.
func (s *UserStore) ConsumePasswordReset(ctx context.Context, token string) (int, error) {
	var userID int
	err := s.db.QueryRowContext(ctx, `
		UPDATE password_resets
		SET used = TRUE
		WHERE token = $1 AND used = FALSE AND expires_at > NOW()
		RETURNING user_id
	`, token).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrInvalidCredential
	}
	if err != nil {
		return 0, fmt.Errorf("failed to consume password reset: %w", err)
	}
	return userID, nil
}
