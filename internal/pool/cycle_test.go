package pool

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nestfund/backend/internal/money"
)

func testPool(n int, contributionCents int64) *Pool {
	p := &Pool{
		ID:                 uuid.New(),
		ContributionAmount: money.New(contributionCents, "USD"),
		Frequency:          Weekly,
		MemberLimit:        n,
		State:              Active,
		CurrentCycle:       1,
		RecipientPosition:  1,
	}
	for i := 0; i < n; i++ {
		p.Members = append(p.Members, Member{
			UserID:        uuid.New(),
			Position:      i + 1,
			JoinedAtCycle: 1,
			ExtraPaid:     money.Zero("USD"),
		})
	}
	p.OwnerID = p.Members[0].UserID
	return p
}

func TestNewCycleLedgerOneRecordPerMember(t *testing.T) {
	p := testPool(4, 10000)
	due := date(2024, time.June, 1)
	c := NewCycleLedger(p, 1, due)

	if len(c.Contributions) != 4 {
		t.Fatalf("records: got %d, want 4", len(c.Contributions))
	}
	for _, m := range p.Members {
		rec, ok := c.Contributions[m.UserID]
		if !ok {
			t.Fatalf("member %s has no record", m.UserID)
		}
		if !rec.AmountPaid.IsZero() || rec.PaidAt != nil || rec.IsLate {
			t.Errorf("record for %s not fresh: %+v", m.UserID, rec)
		}
	}
	if c.IsComplete(p.ContributionAmount) {
		t.Error("fresh cycle must not be complete")
	}
}

func TestApplyPaymentMarksLateAfterGrace(t *testing.T) {
	p := testPool(2, 5000)
	due := date(2024, time.June, 1)
	c := NewCycleLedger(p, 1, due)
	grace := 12 * time.Hour

	onTime := due.Add(6 * time.Hour)
	if err := c.apply(p.Members[0].UserID, p.ContributionAmount, p.ContributionAmount, onTime, grace); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if c.Contributions[p.Members[0].UserID].IsLate {
		t.Error("payment inside grace marked late")
	}

	late := due.Add(13 * time.Hour)
	if err := c.apply(p.Members[1].UserID, p.ContributionAmount, p.ContributionAmount, late, grace); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !c.Contributions[p.Members[1].UserID].IsLate {
		t.Error("payment past grace not marked late")
	}
}

func TestApplyPaymentRejectsOverpayAndStrangers(t *testing.T) {
	p := testPool(2, 5000)
	c := NewCycleLedger(p, 1, date(2024, time.June, 1))
	now := date(2024, time.May, 30)
	amount := p.ContributionAmount

	if err := c.apply(uuid.New(), amount, amount, now, 0); !errors.Is(err, ErrUnknownMember) {
		t.Errorf("stranger payment: got %v, want ErrUnknownMember", err)
	}

	payer := p.Members[0].UserID
	if err := c.apply(payer, amount, amount, now, 0); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	// Second full payment would exceed what the member owes.
	if err := c.apply(payer, amount, amount, now, 0); !errors.Is(err, ErrAmountMismatch) {
		t.Errorf("overpay: got %v, want ErrAmountMismatch", err)
	}
}

func TestCycleCompletionAndTotal(t *testing.T) {
	p := testPool(3, 10000)
	c := NewCycleLedger(p, 1, date(2024, time.June, 1))
	now := date(2024, time.May, 25)

	for i, m := range p.Members {
		if c.IsComplete(p.ContributionAmount) {
			t.Fatalf("cycle complete after %d of 3 payments", i)
		}
		if err := c.apply(m.UserID, p.ContributionAmount, p.ContributionAmount, now, 0); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}
	if !c.IsComplete(p.ContributionAmount) {
		t.Fatal("cycle not complete after all payments")
	}
	// Completed cycle totals contributionAmount * members exactly.
	if got := c.Total("USD"); got.Cents != 30000 {
		t.Errorf("total: got %d, want 30000", got.Cents)
	}
}
