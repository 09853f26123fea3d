// Package wallet tracks each user's withdrawable and locked funds. Entries
// are append-only; the only mutation an entry ever sees is the one-way
// Locked -> Unlocked flip when its unlock condition is met.
package wallet

import (
	"time"

	"github.com/google/uuid"

	"github.com/nestfund/backend/internal/money"
)

// LockState of a wallet entry.
type LockState string

const (
	Locked   LockState = "locked"
	Unlocked LockState = "unlocked"
)

// Policy determines when payout funds become withdrawable.
type Policy string

const (
	// Immediate makes the payout withdrawable as soon as it lands.
	Immediate Policy = "immediate"
	// OnPoolCompletion holds the payout until the source pool completes.
	OnPoolCompletion Policy = "on_pool_completion"
)

// Entry is a single credit into a wallet: a pool payout, a refund, or a
// direct deposit.
type Entry struct {
	ID              uuid.UUID   `json:"id"`
	UserID          uuid.UUID   `json:"user_id"`
	SourcePoolID    *uuid.UUID  `json:"source_pool_id,omitempty"` // nil for direct deposits
	Amount          money.Money `json:"amount"`
	ReceivedAt      time.Time   `json:"received_at"`
	LockState       LockState   `json:"lock_state"`
	UnlockCondition Policy      `json:"unlock_condition"`
}

// Receipt is returned by a successful withdrawal.
type Receipt struct {
	ID           uuid.UUID   `json:"id"`
	UserID       uuid.UUID   `json:"user_id"`
	Amount       money.Money `json:"amount"`
	BalanceAfter money.Money `json:"balance_after"`
	WithdrawnAt  time.Time   `json:"withdrawn_at"`
}
