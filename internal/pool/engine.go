package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"

	"github.com/nestfund/backend/internal/events"
	"github.com/nestfund/backend/internal/money"
	"github.com/nestfund/backend/internal/trust"
	"github.com/nestfund/backend/internal/wallet"
)

// PoolRepo is the pool aggregate store.
type PoolRepo interface {
	Create(ctx context.Context, tx pgx.Tx, p *Pool) error
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*Pool, error)
	Get(ctx context.Context, id uuid.UUID) (*Pool, error)
	Update(ctx context.Context, tx pgx.Tx, p *Pool) error
}

// CycleRepo stores cycle ledgers. Create fails with ErrCycleAlreadyOpen if
// the pool already has an open cycle; GetOpen returns nil when none is.
type CycleRepo interface {
	Create(ctx context.Context, tx pgx.Tx, c *CycleLedger) error
	GetOpen(ctx context.Context, tx pgx.Tx, poolID uuid.UUID) (*CycleLedger, error)
	Update(ctx context.Context, tx pgx.Tx, c *CycleLedger) error
	ListByPool(ctx context.Context, tx pgx.Tx, poolID uuid.UUID) ([]*CycleLedger, error)
}

// WalletLedger is the subset of the wallet service the engine drives.
type WalletLedger interface {
	Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount money.Money, sourcePoolID uuid.UUID, policy wallet.Policy, now time.Time) (*wallet.Entry, error)
	UnlockAllForPool(ctx context.Context, tx pgx.Tx, poolID uuid.UUID) error
}

// TrustSource supplies the trust score snapshotted onto a joining member.
type TrustSource interface {
	Score(ctx context.Context, userID uuid.UUID) (int, error)
}

// InviteIssuer registers an invite code for a new pool. Code generation and
// lookup live in the external invite directory.
type InviteIssuer interface {
	Issue(ctx context.Context, tx pgx.Tx, poolID uuid.UUID, now time.Time) (string, error)
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// EnqueueTxFunc enqueues a background job within the given transaction.
// Provided by main using river.Client.InsertTx.
type EnqueueTxFunc func(ctx context.Context, tx pgx.Tx, args river.JobArgs, opts *river.InsertOpts) error

// Config tunes engine-wide behavior.
type Config struct {
	Currency          string
	MinMembers        int
	SettlementOffset  time.Duration
	DefaultGraceHours int
}

// CycleStatus reports what a payment did to the cycle and the pool.
type CycleStatus struct {
	PoolID      uuid.UUID    `json:"pool_id"`
	CycleNumber int          `json:"cycle_number"`
	Complete    bool         `json:"complete"`
	Rotated     bool         `json:"rotated"`
	State       State        `json:"state"`
	RecipientID *uuid.UUID   `json:"recipient_id,omitempty"`
	Payout      *money.Money `json:"payout,omitempty"`
	PayoutAt    *time.Time   `json:"payout_at,omitempty"`
	NextDueAt   *time.Time   `json:"next_due_at,omitempty"`
}

// CreateParams describes a new pool.
type CreateParams struct {
	ContributionAmount      money.Money
	Frequency               Frequency
	MemberLimit             int
	AllowDoubleContribution bool
	GraceHours              int
	PayoutLockPolicy        wallet.Policy
}

// Engine is the pool state machine. Every mutation of one pool is
// serialized behind a per-pool lock and committed as a single transaction,
// so a payment that completes a cycle and the rotation it triggers commit
// as one unit or not at all.
type Engine struct {
	db      TxBeginner
	pools   PoolRepo
	cycles  CycleRepo
	wallet  WalletLedger
	trust   TrustSource
	invites InviteIssuer
	enqueue EnqueueTxFunc
	cfg     Config
	log     *slog.Logger

	mu        sync.Mutex
	poolLocks map[uuid.UUID]*sync.Mutex
}

func NewEngine(db TxBeginner, pools PoolRepo, cycles CycleRepo, walletLedger WalletLedger, trustSource TrustSource, invites InviteIssuer, enqueue EnqueueTxFunc, cfg Config, log *slog.Logger) *Engine {
	if cfg.MinMembers < 2 {
		cfg.MinMembers = 2
	}
	if cfg.SettlementOffset == 0 {
		cfg.SettlementOffset = 24 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		db:        db,
		pools:     pools,
		cycles:    cycles,
		wallet:    walletLedger,
		trust:     trustSource,
		invites:   invites,
		enqueue:   enqueue,
		cfg:       cfg,
		log:       log,
		poolLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (e *Engine) poolLock(poolID uuid.UUID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.poolLocks[poolID]
	if !ok {
		l = &sync.Mutex{}
		e.poolLocks[poolID] = l
	}
	return l
}

// CreatePool creates a Forming pool with the owner as the member at
// position 1 and registers an invite code for it.
func (e *Engine) CreatePool(ctx context.Context, ownerID uuid.UUID, params CreateParams, now time.Time) (*Pool, error) {
	if !params.ContributionAmount.IsPositive() || !ValidFrequency(params.Frequency) {
		return nil, ErrBadConfig
	}
	if params.MemberLimit < e.cfg.MinMembers {
		return nil, ErrBadConfig
	}
	if params.PayoutLockPolicy != wallet.Immediate && params.PayoutLockPolicy != wallet.OnPoolCompletion {
		return nil, ErrBadConfig
	}
	grace := params.GraceHours
	if grace == 0 {
		grace = e.cfg.DefaultGraceHours
	}

	score, err := e.trust.Score(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		ID:                      uuid.New(),
		OwnerID:                 ownerID,
		ContributionAmount:      params.ContributionAmount,
		Frequency:               params.Frequency,
		MemberLimit:             params.MemberLimit,
		CurrentCycle:            0,
		State:                   Forming,
		AllowDoubleContribution: params.AllowDoubleContribution,
		GraceHours:              grace,
		PayoutLockPolicy:        params.PayoutLockPolicy,
		CreatedAt:               now,
		Members: []Member{{
			UserID:             ownerID,
			Position:           1,
			JoinedAtCycle:      1,
			TrustScoreSnapshot: score,
			ExtraPaid:          money.Zero(params.ContributionAmount.Currency),
		}},
	}

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := e.pools.Create(ctx, tx, p); err != nil {
		return nil, err
	}
	code, err := e.invites.Issue(ctx, tx, p.ID, now)
	if err != nil {
		return nil, err
	}
	p.InviteCode = code
	if err := e.pools.Update(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	e.log.Info("pool created", "pool_id", p.ID, "owner_id", ownerID, "frequency", p.Frequency)
	return p, nil
}

// Get returns a pool snapshot for read paths.
func (e *Engine) Get(ctx context.Context, poolID uuid.UUID) (*Pool, error) {
	return e.pools.Get(ctx, poolID)
}

// Join adds a user to a Forming pool at the next dense position. Joining a
// full pool fails with ErrPoolFull; a pool that is already collecting
// requires JoinLate with the catch-up payment.
func (e *Engine) Join(ctx context.Context, poolID, userID uuid.UUID, now time.Time) (int, error) {
	l := e.poolLock(poolID)
	l.Lock()
	defer l.Unlock()

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	p, err := e.pools.GetForUpdate(ctx, tx, poolID)
	if err != nil {
		return 0, err
	}
	switch p.State {
	case Forming:
	case Active:
		return 0, ErrCatchUpRequired
	default:
		return 0, ErrWrongState
	}
	if p.Member(userID) != nil {
		return 0, ErrAlreadyMember
	}
	if len(p.Members) >= p.MemberLimit {
		return 0, ErrPoolFull
	}

	score, err := e.trust.Score(ctx, userID)
	if err != nil {
		return 0, err
	}
	position := len(p.Members) + 1
	p.Members = append(p.Members, Member{
		UserID:             userID,
		Position:           position,
		JoinedAtCycle:      1,
		TrustScoreSnapshot: score,
		ExtraPaid:          money.Zero(p.ContributionAmount.Currency),
	})
	p.assertPositionsDense()

	// A full roster starts the first cycle without waiting for the owner.
	if len(p.Members) == p.MemberLimit {
		if err := e.activate(ctx, tx, p, now); err != nil {
			return 0, err
		}
	}

	if err := e.pools.Update(ctx, tx, p); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return position, nil
}

// JoinLate adds a member to an Active pool. The payment must equal the sum
// already distributed to prior recipients; it is recorded as a catch-up
// contribution that raises pool equity without counting toward the open
// cycle's completion. The joiner takes the next position and owes the open
// cycle like everyone else.
func (e *Engine) JoinLate(ctx context.Context, poolID, userID uuid.UUID, payment money.Money, now time.Time) (int, error) {
	l := e.poolLock(poolID)
	l.Lock()
	defer l.Unlock()

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	p, err := e.pools.GetForUpdate(ctx, tx, poolID)
	if err != nil {
		return 0, err
	}
	if p.State != Active {
		return 0, ErrWrongState
	}
	if p.Member(userID) != nil {
		return 0, ErrAlreadyMember
	}
	if len(p.Members) >= p.MemberLimit {
		return 0, ErrPoolFull
	}

	owed := p.ContributionAmount.MulInt(int64(p.PayoutsIssued()))
	if !payment.Equal(owed) {
		return 0, ErrAmountMismatch
	}

	cycle, err := e.cycles.GetOpen(ctx, tx, poolID)
	if err != nil {
		return 0, err
	}
	if cycle == nil {
		return 0, ErrCycleClosed
	}

	score, err := e.trust.Score(ctx, userID)
	if err != nil {
		return 0, err
	}
	position := len(p.Members) + 1
	p.Members = append(p.Members, Member{
		UserID:             userID,
		Position:           position,
		JoinedAtCycle:      p.CurrentCycle,
		TrustScoreSnapshot: score,
		ExtraPaid:          money.Zero(p.ContributionAmount.Currency),
	})
	p.assertPositionsDense()

	cycle.Contributions[userID] = &ContributionRecord{
		AmountPaid: money.Zero(p.ContributionAmount.Currency),
	}
	if owed.IsPositive() {
		cycle.CatchUps = append(cycle.CatchUps, CatchUpContribution{
			UserID: userID,
			Amount: owed,
			PaidAt: now,
		})
	}

	if err := e.cycles.Update(ctx, tx, cycle); err != nil {
		return 0, err
	}
	if err := e.pools.Update(ctx, tx, p); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	e.log.Info("late joiner added", "pool_id", poolID, "user_id", userID, "position", position, "catch_up", owed.Cents)
	return position, nil
}

// Start moves a Forming pool to Active before the roster is full. Only the
// owner may start early, and never with fewer members than the minimum
// viable size.
func (e *Engine) Start(ctx context.Context, poolID, callerID uuid.UUID, now time.Time) error {
	l := e.poolLock(poolID)
	l.Lock()
	defer l.Unlock()

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	p, err := e.pools.GetForUpdate(ctx, tx, poolID)
	if err != nil {
		return err
	}
	if p.OwnerID != callerID {
		return ErrNotOwner
	}
	if p.State != Forming {
		return ErrWrongState
	}
	if len(p.Members) < e.cfg.MinMembers {
		return ErrBadConfig
	}
	if err := e.activate(ctx, tx, p, now); err != nil {
		return err
	}
	if err := e.pools.Update(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// activate opens cycle 1 and schedules its overdue sweep. Caller persists
// the pool and commits.
func (e *Engine) activate(ctx context.Context, tx pgx.Tx, p *Pool, now time.Time) error {
	p.State = Active
	p.CycleStartAt = now
	p.CurrentCycle = 1
	recipient := NextRecipient(p.Members)
	if recipient == nil {
		panic(fmt.Sprintf("pool %s: activation with no eligible recipient", p.ID))
	}
	p.RecipientPosition = recipient.Position

	cycle := NewCycleLedger(p, 1, NextDueDate(p))
	if err := e.cycles.Create(ctx, tx, cycle); err != nil {
		return err
	}
	return e.scheduleOverdueCheck(ctx, tx, p, cycle)
}

func (e *Engine) scheduleOverdueCheck(ctx context.Context, tx pgx.Tx, p *Pool, cycle *CycleLedger) error {
	return e.enqueue(ctx, tx, events.OverdueCheckArgs{
		PoolID:      p.ID,
		CycleNumber: cycle.CycleNumber,
	}, &river.InsertOpts{ScheduledAt: cycle.DueAt.Add(p.GracePeriod())})
}

// ApplyPayment records a member's contribution to the open cycle. If the
// payment completes the collection, the rotation happens in the same
// transaction: the recipient is paid, the cycle closes, and either the
// next cycle opens or the pool completes.
func (e *Engine) ApplyPayment(ctx context.Context, poolID, userID uuid.UUID, amount money.Money, now time.Time) (*CycleStatus, error) {
	l := e.poolLock(poolID)
	l.Lock()
	defer l.Unlock()

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p, err := e.pools.GetForUpdate(ctx, tx, poolID)
	if err != nil {
		return nil, err
	}
	if p.State != Active {
		return nil, ErrCycleClosed
	}
	member := p.Member(userID)
	if member == nil {
		return nil, ErrUnknownMember
	}
	cycle, err := e.cycles.GetOpen(ctx, tx, poolID)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, ErrCycleClosed
	}

	contribution := p.ContributionAmount
	double := contribution.MulInt(2)
	allowedTotal := contribution
	// Doubling is only open to members still waiting on their payout: the
	// carry is returned with that payout, so a past recipient has no turn
	// left to return it on.
	if p.AllowDoubleContribution && member.Position != p.RecipientPosition && !member.HasReceivedPayout {
		allowedTotal = double
	}
	if !amount.Equal(contribution) && !(amount.Equal(double) && allowedTotal.Equal(double)) {
		return nil, ErrAmountMismatch
	}
	prevPaid := int64(0)
	if rec, ok := cycle.Contributions[userID]; ok {
		prevPaid = rec.AmountPaid.Cents
	}
	if err := cycle.apply(userID, amount, allowedTotal, now, p.GracePeriod()); err != nil {
		return nil, err
	}
	// Everything the cumulative total exceeds the base contribution by is
	// the member's own carry: it is added to their payout when their turn
	// comes, never to anyone else's share. Tracked as a delta over the
	// record so a 1x+1x sequence carries the same as a single 2x payment.
	if extra := carryDelta(prevPaid, cycle.Contributions[userID].AmountPaid.Cents, contribution.Cents); extra > 0 {
		member.ExtraPaid = member.ExtraPaid.Add(money.New(extra, contribution.Currency))
	}
	if err := e.cycles.Update(ctx, tx, cycle); err != nil {
		return nil, err
	}

	status := &CycleStatus{
		PoolID:      p.ID,
		CycleNumber: cycle.CycleNumber,
		State:       p.State,
	}

	if cycle.IsComplete(contribution) {
		status.Complete = true
		if err := e.rotate(ctx, tx, p, cycle, now, status); err != nil {
			return nil, err
		}
	}

	if err := e.pools.Update(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return status, nil
}

// carryDelta returns how much of a payment landed beyond the base
// contribution, given the record's cumulative totals before and after it.
func carryDelta(prevPaid, newPaid, contribution int64) int64 {
	prev := prevPaid - contribution
	if prev < 0 {
		prev = 0
	}
	cur := newPaid - contribution
	if cur < 0 {
		cur = 0
	}
	return cur - prev
}

// rotate pays the round's recipient and advances the state machine.
// Runs inside the payment transaction.
func (e *Engine) rotate(ctx context.Context, tx pgx.Tx, p *Pool, cycle *CycleLedger, now time.Time, status *CycleStatus) error {
	p.State = Rotating

	recipient := p.MemberAtPosition(p.RecipientPosition)
	if recipient == nil || recipient.HasReceivedPayout {
		panic(fmt.Sprintf("pool %s: recipient position %d has no eligible member", p.ID, p.RecipientPosition))
	}

	payout := p.ContributionAmount.MulInt(int64(len(p.Members))).Add(recipient.ExtraPaid)
	if _, err := e.wallet.Credit(ctx, tx, recipient.UserID, payout, p.ID, p.PayoutLockPolicy, now); err != nil {
		return err
	}
	recipient.HasReceivedPayout = true
	recipient.ExtraPaid = money.Zero(p.ContributionAmount.Currency)

	closedAt := now
	cycle.ClosedAt = &closedAt
	if err := e.cycles.Update(ctx, tx, cycle); err != nil {
		return err
	}

	recipientID := recipient.UserID
	payoutCents := payout.Cents
	if err := e.enqueue(ctx, tx, events.NotifyArgs{
		Event:       events.PoolRotated,
		PoolID:      p.ID,
		UserID:      &recipientID,
		AmountCents: &payoutCents,
		Currency:    payout.Currency,
		OccurredAt:  now,
	}, nil); err != nil {
		return err
	}

	completed := p.CurrentCycle == len(p.Members)
	if err := e.enqueueTrustOutcomes(ctx, tx, p, cycle, completed); err != nil {
		return err
	}

	status.Rotated = true
	status.RecipientID = &recipientID
	status.Payout = &payout
	payoutAt := PayoutDate(cycle.DueAt, e.cfg.SettlementOffset)
	status.PayoutAt = &payoutAt

	if completed {
		p.State = Completed
		if err := e.wallet.UnlockAllForPool(ctx, tx, p.ID); err != nil {
			return err
		}
		if err := e.enqueue(ctx, tx, events.NotifyArgs{
			Event:      events.PoolCompleted,
			PoolID:     p.ID,
			OccurredAt: now,
		}, nil); err != nil {
			return err
		}
		status.State = Completed
		e.log.Info("pool completed", "pool_id", p.ID, "cycles", p.CurrentCycle)
		return nil
	}

	p.CurrentCycle++
	next := NextRecipient(p.Members)
	if next == nil {
		panic(fmt.Sprintf("pool %s: no recipient left for cycle %d", p.ID, p.CurrentCycle))
	}
	p.RecipientPosition = next.Position
	p.State = Active

	nextCycle := NewCycleLedger(p, p.CurrentCycle, NextDueDate(p))
	if err := e.cycles.Create(ctx, tx, nextCycle); err != nil {
		return err
	}
	if err := e.scheduleOverdueCheck(ctx, tx, p, nextCycle); err != nil {
		return err
	}

	status.State = Active
	nextDue := nextCycle.DueAt
	status.NextDueAt = &nextDue
	e.log.Info("pool rotated", "pool_id", p.ID, "cycle", cycle.CycleNumber, "recipient_id", recipientID, "payout_cents", payoutCents)
	return nil
}

func (e *Engine) enqueueTrustOutcomes(ctx context.Context, tx pgx.Tx, p *Pool, cycle *CycleLedger, completed bool) error {
	outcomes := make([]trust.PaymentOutcome, 0, len(cycle.Contributions))
	memberIDs := make([]uuid.UUID, 0, len(p.Members))
	for i := range p.Members {
		memberIDs = append(memberIDs, p.Members[i].UserID)
		rec, ok := cycle.Contributions[p.Members[i].UserID]
		if !ok {
			continue
		}
		outcomes = append(outcomes, trust.PaymentOutcome{
			UserID: p.Members[i].UserID,
			OnTime: !rec.IsLate,
		})
	}
	return e.enqueue(ctx, tx, trust.CycleOutcomeArgs{
		PoolID:        p.ID,
		CycleNumber:   cycle.CycleNumber,
		Outcomes:      outcomes,
		PoolCompleted: completed,
		OrganizerID:   p.OwnerID,
		MemberIDs:     memberIDs,
	}, nil)
}

// CheckOverdue marks unpaid records late once the due date plus grace has
// passed and emits a PaymentOverdue event per member still owing. Called
// by the scheduled sweep; safe to run repeatedly.
func (e *Engine) CheckOverdue(ctx context.Context, poolID uuid.UUID, cycleNumber int, now time.Time) error {
	l := e.poolLock(poolID)
	l.Lock()
	defer l.Unlock()

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	p, err := e.pools.GetForUpdate(ctx, tx, poolID)
	if err != nil {
		return err
	}
	cycle, err := e.cycles.GetOpen(ctx, tx, poolID)
	if err != nil {
		return err
	}
	if cycle == nil || cycle.CycleNumber != cycleNumber {
		// Cycle already closed; nothing to sweep.
		return nil
	}
	deadline := cycle.DueAt.Add(p.GracePeriod())
	if !now.After(deadline) {
		return nil
	}

	changed := false
	for userID, rec := range cycle.Contributions {
		if rec.IsLate || rec.AmountPaid.Cmp(p.ContributionAmount) >= 0 {
			continue
		}
		rec.IsLate = true
		changed = true
		uid := userID
		if err := e.enqueue(ctx, tx, events.NotifyArgs{
			Event:      events.PaymentOverdue,
			PoolID:     p.ID,
			UserID:     &uid,
			OccurredAt: now,
		}, nil); err != nil {
			return err
		}
	}
	if !changed {
		return nil
	}
	if err := e.cycles.Update(ctx, tx, cycle); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Cancel moves a Forming or Active pool to Failed and refunds each member
// the sum of their own contributions (cycle and catch-up), immediately
// withdrawable. Only the owner may cancel.
func (e *Engine) Cancel(ctx context.Context, poolID, callerID uuid.UUID, reason string, now time.Time) error {
	l := e.poolLock(poolID)
	l.Lock()
	defer l.Unlock()

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	p, err := e.pools.GetForUpdate(ctx, tx, poolID)
	if err != nil {
		return err
	}
	if p.OwnerID != callerID {
		return ErrNotOwner
	}
	if p.State != Forming && p.State != Active {
		return ErrWrongState
	}

	cycles, err := e.cycles.ListByPool(ctx, tx, poolID)
	if err != nil {
		return err
	}
	refunds := make(map[uuid.UUID]money.Money)
	for _, c := range cycles {
		for userID, rec := range c.Contributions {
			if rec.AmountPaid.IsZero() {
				continue
			}
			sum, ok := refunds[userID]
			if !ok {
				sum = money.Zero(p.ContributionAmount.Currency)
			}
			refunds[userID] = sum.Add(rec.AmountPaid)
		}
		for _, cu := range c.CatchUps {
			sum, ok := refunds[cu.UserID]
			if !ok {
				sum = money.Zero(p.ContributionAmount.Currency)
			}
			refunds[cu.UserID] = sum.Add(cu.Amount)
		}
	}
	for userID, amount := range refunds {
		if _, err := e.wallet.Credit(ctx, tx, userID, amount, p.ID, wallet.Immediate, now); err != nil {
			return err
		}
	}

	p.State = Failed
	if err := e.pools.Update(ctx, tx, p); err != nil {
		return err
	}
	if err := e.enqueue(ctx, tx, events.NotifyArgs{
		Event:      events.PoolFailed,
		PoolID:     p.ID,
		Reason:     reason,
		OccurredAt: now,
	}, nil); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	e.log.Info("pool failed", "pool_id", p.ID, "reason", reason, "refunded_members", len(refunds))
	return nil
}
