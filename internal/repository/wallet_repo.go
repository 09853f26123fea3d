package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nestfund/backend/internal/money"
	"github.com/nestfund/backend/internal/wallet"
)

// WalletRepo keeps append-only entry and withdrawal rows plus a running
// available/locked balance per user; the conditional debit makes an
// overdraft impossible at the store level.
type WalletRepo struct {
	pool     *pgxpool.Pool
	currency string
}

func NewWalletRepo(pgPool *pgxpool.Pool, currency string) *WalletRepo {
	return &WalletRepo{pool: pgPool, currency: currency}
}

func (r *WalletRepo) CreateEntry(ctx context.Context, tx pgx.Tx, e *wallet.Entry) error {
	available, locked := int64(0), int64(0)
	if e.LockState == wallet.Unlocked {
		available = e.Amount.Cents
	} else {
		locked = e.Amount.Cents
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO wallets (user_id, currency, available_cents, locked_cents)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET available_cents = wallets.available_cents + EXCLUDED.available_cents,
		    locked_cents = wallets.locked_cents + EXCLUDED.locked_cents
	`, e.UserID, e.Amount.Currency, available, locked)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO wallet_entries (id, user_id, source_pool_id, amount_cents, currency, received_at, lock_state, unlock_condition)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.UserID, e.SourcePoolID, e.Amount.Cents, e.Amount.Currency, e.ReceivedAt, e.LockState, e.UnlockCondition)
	return err
}

// UnlockAllForPool flips every still-locked entry from the pool and moves
// the amounts from locked to available. The lock_state guard makes the
// call idempotent.
func (r *WalletRepo) UnlockAllForPool(ctx context.Context, tx pgx.Tx, poolID uuid.UUID) (int, error) {
	rows, err := tx.Query(ctx, `
		UPDATE wallet_entries SET lock_state = $2
		WHERE source_pool_id = $1 AND lock_state = $3
		RETURNING user_id, amount_cents
	`, poolID, wallet.Unlocked, wallet.Locked)
	if err != nil {
		return 0, err
	}
	moved := make(map[uuid.UUID]int64)
	n := 0
	for rows.Next() {
		var userID uuid.UUID
		var cents int64
		if err := rows.Scan(&userID, &cents); err != nil {
			rows.Close()
			return 0, err
		}
		moved[userID] += cents
		n++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	for userID, cents := range moved {
		if _, err := tx.Exec(ctx, `
			UPDATE wallets SET available_cents = available_cents + $1, locked_cents = locked_cents - $1
			WHERE user_id = $2
		`, cents, userID); err != nil {
			return 0, err
		}
	}
	return n, nil
}

func (r *WalletRepo) Balance(ctx context.Context, userID uuid.UUID) (money.Money, money.Money, error) {
	var available, locked int64
	var currency string
	err := r.pool.QueryRow(ctx, `
		SELECT available_cents, locked_cents, currency FROM wallets WHERE user_id = $1
	`, userID).Scan(&available, &locked, &currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return money.Zero(r.currency), money.Zero(r.currency), nil
		}
		return money.Money{}, money.Money{}, err
	}
	return money.New(available, currency), money.New(locked, currency), nil
}

// DebitAvailable decrements the available balance only if it covers the
// amount, in one conditional update.
func (r *WalletRepo) DebitAvailable(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount money.Money) (money.Money, error) {
	var newBalance int64
	err := tx.QueryRow(ctx, `
		UPDATE wallets SET available_cents = available_cents - $1
		WHERE user_id = $2 AND available_cents >= $1
		RETURNING available_cents
	`, amount.Cents, userID).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return money.Money{}, wallet.ErrInsufficientFunds
		}
		return money.Money{}, err
	}
	return money.New(newBalance, amount.Currency), nil
}

func (r *WalletRepo) CreateWithdrawal(ctx context.Context, tx pgx.Tx, w *wallet.Receipt) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO wallet_withdrawals (id, user_id, amount_cents, currency, balance_after_cents, withdrawn_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, w.ID, w.UserID, w.Amount.Cents, w.Amount.Currency, w.BalanceAfter.Cents, w.WithdrawnAt)
	return err
}
