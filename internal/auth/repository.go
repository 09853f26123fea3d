package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new user and returns it.
func (r *Repository) Create(ctx context.Context, email, passwordHash, displayName string) (*User, error) {
	u := &User{Email: email, DisplayName: displayName}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, display_name, verified)
		VALUES ($1, $2, $3, FALSE)
		RETURNING id
	`, email, passwordHash, displayName)
	if err := row.Scan(&u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByEmail returns the user and password hash for login. Returns nil if not found.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, string, error) {
	var u User
	var passwordHash string
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, display_name, verified, password_hash
		FROM users WHERE email = $1
	`, email)
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Verified, &passwordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", nil
		}
		return nil, "", err
	}
	return &u, passwordHash, nil
}
