package wallet

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nestfund/backend/internal/money"
)

// ErrInsufficientFunds is returned when a withdrawal exceeds the
// withdrawable balance.
var ErrInsufficientFunds = errors.New("wallet: insufficient funds")

// Repo is the wallet store. The running available/locked balances move
// together with the entry rows inside one transaction; DebitAvailable uses
// a conditional update so the available balance can never go negative.
type Repo interface {
	CreateEntry(ctx context.Context, tx pgx.Tx, e *Entry) error
	UnlockAllForPool(ctx context.Context, tx pgx.Tx, poolID uuid.UUID) (unlocked int, err error)
	Balance(ctx context.Context, userID uuid.UUID) (available, locked money.Money, err error)
	DebitAvailable(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount money.Money) (newBalance money.Money, err error)
	CreateWithdrawal(ctx context.Context, tx pgx.Tx, r *Receipt) error
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service is the wallet ledger. Credits from different pools may land
// concurrently (append-only, order-insensitive); withdrawals against one
// wallet are serialized per user.
type Service struct {
	db   TxBeginner
	repo Repo

	mu        sync.Mutex
	userLocks map[uuid.UUID]*sync.Mutex
}

func NewService(db TxBeginner, repo Repo) *Service {
	return &Service{db: db, repo: repo, userLocks: make(map[uuid.UUID]*sync.Mutex)}
}

func (s *Service) userLock(userID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.userLocks[userID] = l
	}
	return l
}

// Credit creates a wallet entry inside the caller's transaction. Pool
// payouts arrive here; the lock policy decides whether the funds are
// withdrawable now or held until the pool completes.
func (s *Service) Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount money.Money, sourcePoolID uuid.UUID, policy Policy, now time.Time) (*Entry, error) {
	state := Locked
	if policy == Immediate {
		state = Unlocked
	}
	poolID := sourcePoolID
	e := &Entry{
		ID:              uuid.New(),
		UserID:          userID,
		SourcePoolID:    &poolID,
		Amount:          amount,
		ReceivedAt:      now,
		LockState:       state,
		UnlockCondition: policy,
	}
	if err := s.repo.CreateEntry(ctx, tx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Deposit records a direct wallet top-up, immediately withdrawable.
func (s *Service) Deposit(ctx context.Context, userID uuid.UUID, amount money.Money, now time.Time) (*Entry, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	e := &Entry{
		ID:              uuid.New(),
		UserID:          userID,
		Amount:          amount,
		ReceivedAt:      now,
		LockState:       Unlocked,
		UnlockCondition: Immediate,
	}
	if err := s.repo.CreateEntry(ctx, tx, e); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// UnlockAllForPool flips every locked entry sourced from the pool to
// Unlocked, inside the caller's transaction. Idempotent: a second call
// finds nothing locked and is a no-op.
func (s *Service) UnlockAllForPool(ctx context.Context, tx pgx.Tx, poolID uuid.UUID) error {
	_, err := s.repo.UnlockAllForPool(ctx, tx, poolID)
	return err
}

// WithdrawableBalance returns the sum of unlocked entries and deposits,
// minus withdrawals.
func (s *Service) WithdrawableBalance(ctx context.Context, userID uuid.UUID) (money.Money, error) {
	available, _, err := s.repo.Balance(ctx, userID)
	return available, err
}

// LockedBalance returns funds held until their source pools complete.
func (s *Service) LockedBalance(ctx context.Context, userID uuid.UUID) (money.Money, error) {
	_, locked, err := s.repo.Balance(ctx, userID)
	return locked, err
}

// Withdraw debits the withdrawable balance and returns a receipt. Fails
// with ErrInsufficientFunds and no mutation if the balance is too low.
// Serialized per user on top of the conditional debit.
func (s *Service) Withdraw(ctx context.Context, userID uuid.UUID, amount money.Money, now time.Time) (*Receipt, error) {
	if !amount.IsPositive() {
		return nil, ErrInsufficientFunds
	}
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	newBalance, err := s.repo.DebitAvailable(ctx, tx, userID, amount)
	if err != nil {
		return nil, err
	}
	r := &Receipt{
		ID:           uuid.New(),
		UserID:       userID,
		Amount:       amount,
		BalanceAfter: newBalance,
		WithdrawnAt:  now,
	}
	if err := s.repo.CreateWithdrawal(ctx, tx, r); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r, nil
}
