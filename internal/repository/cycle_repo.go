package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nestfund/backend/internal/money"
	"github.com/nestfund/backend/internal/pool"
)

// CycleRepo persists cycle ledgers across pool_cycles, cycle_contributions
// and cycle_catchups. A partial unique index on pool_cycles (pool_id where
// closed_at is null) guarantees at most one open cycle per pool.
type CycleRepo struct {
	pool *pgxpool.Pool
}

func NewCycleRepo(pgPool *pgxpool.Pool) *CycleRepo {
	return &CycleRepo{pool: pgPool}
}

func (r *CycleRepo) Create(ctx context.Context, tx pgx.Tx, c *pool.CycleLedger) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO pool_cycles (pool_id, cycle_number, due_at, currency, closed_at)
		VALUES ($1, $2, $3, $4, NULL)
	`, c.PoolID, c.CycleNumber, c.DueAt, cycleCurrency(c))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return pool.ErrCycleAlreadyOpen
		}
		return err
	}
	for userID, rec := range c.Contributions {
		if err := r.upsertContribution(ctx, tx, c, userID, rec); err != nil {
			return err
		}
	}
	return nil
}

func (r *CycleRepo) GetOpen(ctx context.Context, tx pgx.Tx, poolID uuid.UUID) (*pool.CycleLedger, error) {
	var c pool.CycleLedger
	var currency string
	err := tx.QueryRow(ctx, `
		SELECT pool_id, cycle_number, due_at, currency
		FROM pool_cycles WHERE pool_id = $1 AND closed_at IS NULL
	`, poolID).Scan(&c.PoolID, &c.CycleNumber, &c.DueAt, &currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadDetail(ctx, tx, &c, currency); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CycleRepo) Update(ctx context.Context, tx pgx.Tx, c *pool.CycleLedger) error {
	_, err := tx.Exec(ctx, `
		UPDATE pool_cycles SET closed_at = $3 WHERE pool_id = $1 AND cycle_number = $2
	`, c.PoolID, c.CycleNumber, c.ClosedAt)
	if err != nil {
		return err
	}
	for userID, rec := range c.Contributions {
		if err := r.upsertContribution(ctx, tx, c, userID, rec); err != nil {
			return err
		}
	}
	// Catch-ups are few; rewrite them wholesale.
	if _, err := tx.Exec(ctx, `
		DELETE FROM cycle_catchups WHERE pool_id = $1 AND cycle_number = $2
	`, c.PoolID, c.CycleNumber); err != nil {
		return err
	}
	for _, cu := range c.CatchUps {
		if _, err := tx.Exec(ctx, `
			INSERT INTO cycle_catchups (pool_id, cycle_number, user_id, amount_cents, paid_at)
			VALUES ($1, $2, $3, $4, $5)
		`, c.PoolID, c.CycleNumber, cu.UserID, cu.Amount.Cents, cu.PaidAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *CycleRepo) ListByPool(ctx context.Context, tx pgx.Tx, poolID uuid.UUID) ([]*pool.CycleLedger, error) {
	rows, err := tx.Query(ctx, `
		SELECT pool_id, cycle_number, due_at, currency, closed_at
		FROM pool_cycles WHERE pool_id = $1 ORDER BY cycle_number
	`, poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*pool.CycleLedger
	var currencies []string
	for rows.Next() {
		var c pool.CycleLedger
		var currency string
		if err := rows.Scan(&c.PoolID, &c.CycleNumber, &c.DueAt, &currency, &c.ClosedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
		currencies = append(currencies, currency)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, c := range out {
		if err := r.loadDetail(ctx, tx, c, currencies[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *CycleRepo) upsertContribution(ctx context.Context, tx pgx.Tx, c *pool.CycleLedger, userID uuid.UUID, rec *pool.ContributionRecord) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO cycle_contributions (pool_id, cycle_number, user_id, amount_paid_cents, paid_at, is_late)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (pool_id, cycle_number, user_id) DO UPDATE
		SET amount_paid_cents = EXCLUDED.amount_paid_cents, paid_at = EXCLUDED.paid_at, is_late = EXCLUDED.is_late
	`, c.PoolID, c.CycleNumber, userID, rec.AmountPaid.Cents, rec.PaidAt, rec.IsLate)
	return err
}

func (r *CycleRepo) loadDetail(ctx context.Context, tx pgx.Tx, c *pool.CycleLedger, currency string) error {
	rows, err := tx.Query(ctx, `
		SELECT user_id, amount_paid_cents, paid_at, is_late
		FROM cycle_contributions WHERE pool_id = $1 AND cycle_number = $2
	`, c.PoolID, c.CycleNumber)
	if err != nil {
		return err
	}
	defer rows.Close()
	c.Contributions = make(map[uuid.UUID]*pool.ContributionRecord)
	for rows.Next() {
		var userID uuid.UUID
		var rec pool.ContributionRecord
		var cents int64
		if err := rows.Scan(&userID, &cents, &rec.PaidAt, &rec.IsLate); err != nil {
			return err
		}
		rec.AmountPaid = money.New(cents, currency)
		c.Contributions[userID] = &rec
	}
	if err := rows.Err(); err != nil {
		return err
	}

	cuRows, err := tx.Query(ctx, `
		SELECT user_id, amount_cents, paid_at
		FROM cycle_catchups WHERE pool_id = $1 AND cycle_number = $2 ORDER BY paid_at
	`, c.PoolID, c.CycleNumber)
	if err != nil {
		return err
	}
	defer cuRows.Close()
	c.CatchUps = nil
	for cuRows.Next() {
		var cu pool.CatchUpContribution
		var cents int64
		if err := cuRows.Scan(&cu.UserID, &cents, &cu.PaidAt); err != nil {
			return err
		}
		cu.Amount = money.New(cents, currency)
		c.CatchUps = append(c.CatchUps, cu)
	}
	return cuRows.Err()
}

func cycleCurrency(c *pool.CycleLedger) string {
	for _, rec := range c.Contributions {
		return rec.AmountPaid.Currency
	}
	return ""
}
