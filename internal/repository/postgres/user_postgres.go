package postgres

import (
	"context"
	"database/sql"

	"channelapi/internal/model"
	"channelapi/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user row and returns the stored record.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (id, email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, email, name, password_hash, created_at
	`
	return scanUser(r.db.QueryRowContext(ctx, q, u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt))
}

// FindByID fetches a user by ID.
func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT id, email, name, password_hash, created_at FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

// FindByEmail fetches a user by e-mail address (exact match).
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT id, email, name, password_hash, created_at FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, email))
}
