// Package pool implements the rotating-pool core: the contribution ledger,
// the payout rotation scheduler, and the pool state machine that ties them
// together.
package pool

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nestfund/backend/internal/money"
	"github.com/nestfund/backend/internal/wallet"
)

// State of a pool's lifecycle. Transitions are monotone:
// Forming -> Active -> Rotating -> Active ... -> Completed, with Failed
// reachable from Forming or Active. Completed and Failed are terminal.
type State string

const (
	Forming   State = "forming"
	Active    State = "active"
	Rotating  State = "rotating"
	Completed State = "completed"
	Failed    State = "failed"
)

// Frequency of contribution cycles.
type Frequency string

const (
	Daily    Frequency = "daily"
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
)

// ValidFrequency reports whether f is a known frequency.
func ValidFrequency(f Frequency) bool {
	switch f {
	case Daily, Weekly, Biweekly, Monthly:
		return true
	}
	return false
}

// Validation errors: rejected synchronously, nothing mutated.
var (
	ErrPoolFull        = errors.New("pool: pool is full")
	ErrAlreadyMember   = errors.New("pool: user is already a member")
	ErrUnknownMember   = errors.New("pool: user is not a member")
	ErrAmountMismatch  = errors.New("pool: amount does not match what is owed")
	ErrCatchUpRequired = errors.New("pool: catch-up payment required to join an active pool")
	ErrNotOwner        = errors.New("pool: caller does not own this pool")
	ErrBadConfig       = errors.New("pool: invalid pool configuration")
)

// Conflict errors: the caller holds a stale view and should re-fetch.
var (
	ErrCycleAlreadyOpen = errors.New("pool: a cycle is already open")
	ErrCycleClosed      = errors.New("pool: no open cycle accepts payments")
	ErrWrongState       = errors.New("pool: operation not allowed in current state")
	ErrPoolNotFound     = errors.New("pool: not found")
)

// Member is one participant's slot in the rotation. Position is a dense
// unique permutation of 1..N, fixed at join time.
type Member struct {
	UserID             uuid.UUID   `json:"user_id"`
	Position           int         `json:"position"`
	JoinedAtCycle      int         `json:"joined_at_cycle"`
	HasReceivedPayout  bool        `json:"has_received_payout"`
	TrustScoreSnapshot int         `json:"trust_score_snapshot"`
	ExtraPaid          money.Money `json:"extra_paid"` // double-contribution carry, paid out with the member's own payout
}

// Pool is the aggregate root of one rotating savings group.
type Pool struct {
	ID                      uuid.UUID     `json:"id"`
	OwnerID                 uuid.UUID     `json:"owner_id"`
	ContributionAmount      money.Money   `json:"contribution_amount"`
	Frequency               Frequency     `json:"frequency"`
	MemberLimit             int           `json:"member_limit"`
	Members                 []Member      `json:"members"`
	CurrentCycle            int           `json:"current_cycle"`
	RecipientPosition       int           `json:"current_round_recipient_position"`
	State                   State         `json:"state"`
	InviteCode              string        `json:"invite_code"`
	AllowDoubleContribution bool          `json:"allow_double_contribution"`
	GraceHours              int           `json:"grace_hours"`
	PayoutLockPolicy        wallet.Policy `json:"payout_lock_policy"`
	CreatedAt               time.Time     `json:"created_at"`
	CycleStartAt            time.Time     `json:"cycle_start_at"`
}

// Member returns the member with the given user ID, or nil.
func (p *Pool) Member(userID uuid.UUID) *Member {
	for i := range p.Members {
		if p.Members[i].UserID == userID {
			return &p.Members[i]
		}
	}
	return nil
}

// MemberAtPosition returns the member holding a rotation position, or nil.
func (p *Pool) MemberAtPosition(pos int) *Member {
	for i := range p.Members {
		if p.Members[i].Position == pos {
			return &p.Members[i]
		}
	}
	return nil
}

// PayoutsIssued counts members who have already received their payout.
func (p *Pool) PayoutsIssued() int {
	n := 0
	for i := range p.Members {
		if p.Members[i].HasReceivedPayout {
			n++
		}
	}
	return n
}

// GracePeriod returns the pool's late-payment grace as a duration.
func (p *Pool) GracePeriod() time.Duration {
	return time.Duration(p.GraceHours) * time.Hour
}

// assertPositionsDense panics if member positions are not exactly the
// permutation 1..N. A violation means a bug in join handling, not bad
// input; it must never be reachable through the public API.
func (p *Pool) assertPositionsDense() {
	seen := make(map[int]bool, len(p.Members))
	for i := range p.Members {
		pos := p.Members[i].Position
		if pos < 1 || pos > len(p.Members) || seen[pos] {
			panic(fmt.Sprintf("pool %s: member positions are not a dense permutation (position %d)", p.ID, pos))
		}
		seen[pos] = true
	}
}
