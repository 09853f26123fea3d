package pool

import (
	"time"

	"github.com/google/uuid"

	"github.com/nestfund/backend/internal/money"
)

// ContributionRecord tracks one member's payment within a cycle.
type ContributionRecord struct {
	AmountPaid money.Money `json:"amount_paid"`
	PaidAt     *time.Time  `json:"paid_at,omitempty"`
	IsLate     bool        `json:"is_late"`
}

// CatchUpContribution is a late joiner's buy-in covering distributions that
// happened before they joined. It raises pool equity but never counts
// toward the current cycle's completion.
type CatchUpContribution struct {
	UserID uuid.UUID   `json:"user_id"`
	Amount money.Money `json:"amount"`
	PaidAt time.Time   `json:"paid_at"`
}

// CycleLedger is the per-cycle record of who owes what and who has paid.
// Once a cycle closes the ledger is immutable.
type CycleLedger struct {
	PoolID        uuid.UUID                         `json:"pool_id"`
	CycleNumber   int                               `json:"cycle_number"`
	DueAt         time.Time                         `json:"due_at"`
	Contributions map[uuid.UUID]*ContributionRecord `json:"contributions"`
	CatchUps      []CatchUpContribution             `json:"catch_ups,omitempty"`
	ClosedAt      *time.Time                        `json:"closed_at,omitempty"`
}

// NewCycleLedger opens a ledger with one unpaid record per current member.
func NewCycleLedger(p *Pool, cycleNumber int, dueAt time.Time) *CycleLedger {
	contributions := make(map[uuid.UUID]*ContributionRecord, len(p.Members))
	for i := range p.Members {
		contributions[p.Members[i].UserID] = &ContributionRecord{
			AmountPaid: money.Zero(p.ContributionAmount.Currency),
		}
	}
	return &CycleLedger{
		PoolID:        p.ID,
		CycleNumber:   cycleNumber,
		DueAt:         dueAt,
		Contributions: contributions,
	}
}

// IsComplete reports whether every member has fully paid their
// contribution. Catch-up contributions do not count.
func (c *CycleLedger) IsComplete(contribution money.Money) bool {
	for _, rec := range c.Contributions {
		if rec.AmountPaid.Cmp(contribution) < 0 {
			return false
		}
	}
	return len(c.Contributions) > 0
}

// Total sums all cycle contributions, catch-ups excluded.
func (c *CycleLedger) Total(currency string) money.Money {
	sum := money.Zero(currency)
	for _, rec := range c.Contributions {
		sum = sum.Add(rec.AmountPaid)
	}
	return sum
}

// apply records a payment against a member's contribution record.
// owed is the maximum this member may pay in total for the cycle
// (the contribution amount, or double it when the pool allows).
func (c *CycleLedger) apply(userID uuid.UUID, amount, owed money.Money, now time.Time, grace time.Duration) error {
	rec, ok := c.Contributions[userID]
	if !ok {
		return ErrUnknownMember
	}
	newTotal := rec.AmountPaid.Add(amount)
	if newTotal.Cmp(owed) > 0 {
		return ErrAmountMismatch
	}
	rec.AmountPaid = newTotal
	paidAt := now
	rec.PaidAt = &paidAt
	if now.After(c.DueAt.Add(grace)) {
		rec.IsLate = true
	}
	return nil
}
