// Package events defines the domain events the engine emits for the
// notification sink, and the river job argument types that carry them.
// Events are enqueued inside the ledger transaction and delivered after it
// commits; delivery failure never rolls ledger state back.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event names consumed by the notification sink.
const (
	PoolRotated    = "pool.rotated"
	PaymentOverdue = "payment.overdue"
	PoolCompleted  = "pool.completed"
	PoolFailed     = "pool.failed"
)

// NotifyArgs is one domain event headed for the notification sink.
type NotifyArgs struct {
	Event       string     `json:"event"`
	PoolID      uuid.UUID  `json:"pool_id"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	AmountCents *int64     `json:"amount_cents,omitempty"`
	Currency    string     `json:"currency,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

func (NotifyArgs) Kind() string { return "notify_event" }

// OverdueCheckArgs schedules an overdue sweep for one pool cycle. Enqueued
// when the cycle opens, scheduled at dueAt plus grace.
type OverdueCheckArgs struct {
	PoolID      uuid.UUID `json:"pool_id"`
	CycleNumber int       `json:"cycle_number"`
}

func (OverdueCheckArgs) Kind() string { return "overdue_check" }
