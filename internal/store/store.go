// Package store persists user service data in Postgres via sqlx.
package store

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // register the pgx database/sql driver
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/routegate/routegate/apperr"
)

// pgUniqueViolation is the Postgres error code for unique constraints.
const pgUniqueViolation = "23505"

// User represents the 'users' table.
type User struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// UserPatch carries the optional fields of a partial update. Nil means
// leave unchanged.
type UserPatch struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// Store wraps the database handle.
type Store struct {
	db *sqlx.DB
}

// Connect opens the pool and verifies connectivity.
func Connect(dsn string) (*Store, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// New wraps an existing handle; used by tests with sqlmock.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the users table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			hashed_password TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

// CreateUser hashes the password and inserts the row. A duplicate email
// surfaces as a 409 typed error.
func (s *Store) CreateUser(ctx context.Context, name, email, password string) (*User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &User{}
	err = s.db.GetContext(ctx, user, `
		INSERT INTO users (id, name, email, hashed_password)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, hashed_password, created_at, updated_at`,
		uuid.New(), name, email, string(hashed))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, apperr.New(http.StatusConflict, "Email already registered.").WithCause(err)
		}
		return nil, err
	}
	return user, nil
}

// GetUser fetches one user by id, 404 when absent.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	user := &User{}
	err := s.db.GetContext(ctx, user, `
		SELECT id, name, email, hashed_password, created_at, updated_at
		FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(http.StatusNotFound, "User not found.")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser applies a partial update and returns the fresh row.
func (s *Store) UpdateUser(ctx context.Context, id uuid.UUID, patch UserPatch) (*User, error) {
	user := &User{}
	err := s.db.GetContext(ctx, user, `
		UPDATE users
		SET name = COALESCE($2, name),
		    email = COALESCE($3, email),
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, email, hashed_password, created_at, updated_at`,
		id, patch.Name, patch.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(http.StatusNotFound, "User not found.")
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, apperr.New(http.StatusConflict, "Email already registered.").WithCause(err)
		}
		return nil, err
	}
	return user, nil
}

// CheckPassword compares a plain text password with the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)) == nil
}
