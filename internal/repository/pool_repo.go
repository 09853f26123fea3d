package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nestfund/backend/internal/money"
	"github.com/nestfund/backend/internal/pool"
	"github.com/nestfund/backend/internal/wallet"
)

// PoolRepo persists pool aggregates across the pools and pool_members
// tables.
type PoolRepo struct {
	pool *pgxpool.Pool
}

func NewPoolRepo(pgPool *pgxpool.Pool) *PoolRepo {
	return &PoolRepo{pool: pgPool}
}

func (r *PoolRepo) Create(ctx context.Context, tx pgx.Tx, p *pool.Pool) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO pools (id, owner_id, contribution_cents, currency, frequency, member_limit, current_cycle, recipient_position, state, invite_code, allow_double, grace_hours, payout_lock_policy, created_at, cycle_start_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, p.ID, p.OwnerID, p.ContributionAmount.Cents, p.ContributionAmount.Currency, p.Frequency, p.MemberLimit,
		p.CurrentCycle, p.RecipientPosition, p.State, p.InviteCode, p.AllowDoubleContribution, p.GraceHours,
		p.PayoutLockPolicy, p.CreatedAt, p.CycleStartAt)
	if err != nil {
		return err
	}
	return r.upsertMembers(ctx, tx, p)
}

func (r *PoolRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*pool.Pool, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, owner_id, contribution_cents, currency, frequency, member_limit, current_cycle, recipient_position, state, invite_code, allow_double, grace_hours, payout_lock_policy, created_at, cycle_start_at
		FROM pools WHERE id = $1
		FOR UPDATE
	`, id)
	p, err := scanPool(row)
	if err != nil {
		return nil, err
	}
	p.Members, err = r.loadMembers(ctx, tx, id, p.ContributionAmount.Currency)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PoolRepo) Get(ctx context.Context, id uuid.UUID) (*pool.Pool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, contribution_cents, currency, frequency, member_limit, current_cycle, recipient_position, state, invite_code, allow_double, grace_hours, payout_lock_policy, created_at, cycle_start_at
		FROM pools WHERE id = $1
	`, id)
	p, err := scanPool(row)
	if err != nil {
		return nil, err
	}
	p.Members, err = r.loadMembers(ctx, r.pool, id, p.ContributionAmount.Currency)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PoolRepo) Update(ctx context.Context, tx pgx.Tx, p *pool.Pool) error {
	_, err := tx.Exec(ctx, `
		UPDATE pools
		SET current_cycle = $2, recipient_position = $3, state = $4, invite_code = $5, cycle_start_at = $6
		WHERE id = $1
	`, p.ID, p.CurrentCycle, p.RecipientPosition, p.State, p.InviteCode, p.CycleStartAt)
	if err != nil {
		return err
	}
	return r.upsertMembers(ctx, tx, p)
}

func (r *PoolRepo) upsertMembers(ctx context.Context, tx pgx.Tx, p *pool.Pool) error {
	for i := range p.Members {
		m := &p.Members[i]
		_, err := tx.Exec(ctx, `
			INSERT INTO pool_members (pool_id, user_id, position, joined_at_cycle, has_received_payout, trust_score_snapshot, extra_paid_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (pool_id, user_id) DO UPDATE
			SET position = EXCLUDED.position, has_received_payout = EXCLUDED.has_received_payout, extra_paid_cents = EXCLUDED.extra_paid_cents
		`, p.ID, m.UserID, m.Position, m.JoinedAtCycle, m.HasReceivedPayout, m.TrustScoreSnapshot, m.ExtraPaid.Cents)
		if err != nil {
			return err
		}
	}
	return nil
}

// querier lets member loading run on either a transaction or the pool.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *PoolRepo) loadMembers(ctx context.Context, q querier, poolID uuid.UUID, currency string) ([]pool.Member, error) {
	rows, err := q.Query(ctx, `
		SELECT user_id, position, joined_at_cycle, has_received_payout, trust_score_snapshot, extra_paid_cents
		FROM pool_members WHERE pool_id = $1 ORDER BY position
	`, poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []pool.Member
	for rows.Next() {
		var m pool.Member
		var extraCents int64
		if err := rows.Scan(&m.UserID, &m.Position, &m.JoinedAtCycle, &m.HasReceivedPayout, &m.TrustScoreSnapshot, &extraCents); err != nil {
			return nil, err
		}
		m.ExtraPaid = money.New(extraCents, currency)
		members = append(members, m)
	}
	return members, rows.Err()
}

func scanPool(row pgx.Row) (*pool.Pool, error) {
	var p pool.Pool
	var contributionCents int64
	var currency string
	var lockPolicy string
	err := row.Scan(&p.ID, &p.OwnerID, &contributionCents, &currency, &p.Frequency, &p.MemberLimit,
		&p.CurrentCycle, &p.RecipientPosition, &p.State, &p.InviteCode, &p.AllowDoubleContribution,
		&p.GraceHours, &lockPolicy, &p.CreatedAt, &p.CycleStartAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pool.ErrPoolNotFound
		}
		return nil, err
	}
	p.ContributionAmount = money.New(contributionCents, currency)
	p.PayoutLockPolicy = wallet.Policy(lockPolicy)
	return &p, nil
}
