package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nestfund/backend/internal/invite"
)

// InviteRepo stores issued invite codes.
type InviteRepo struct {
	pool *pgxpool.Pool
}

func NewInviteRepo(pgPool *pgxpool.Pool) *InviteRepo {
	return &InviteRepo{pool: pgPool}
}

func (r *InviteRepo) Create(ctx context.Context, tx pgx.Tx, code string, poolID uuid.UUID, expiresAt time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO invites (code, pool_id, expires_at) VALUES ($1, $2, $3)
	`, code, poolID, expiresAt)
	return err
}

func (r *InviteRepo) Lookup(ctx context.Context, code string) (uuid.UUID, time.Time, error) {
	var poolID uuid.UUID
	var expiresAt time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT pool_id, expires_at FROM invites WHERE code = $1
	`, code).Scan(&poolID, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, time.Time{}, invite.ErrCodeNotFound
		}
		return uuid.Nil, time.Time{}, err
	}
	return poolID, expiresAt, nil
}
