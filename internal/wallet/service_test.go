package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nestfund/backend/internal/money"
)

// ---------------------------------------------------------------------------
// In-memory mock of Repo. Mirrors the real store: entry rows plus a running
// available/locked balance per user, moved together.
// ---------------------------------------------------------------------------

type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }

type fakeDB struct{}

func (fakeDB) Begin(context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

type balances struct {
	available int64
	locked    int64
}

type mockRepo struct {
	mu       sync.Mutex
	entries  []*Entry
	balances map[uuid.UUID]*balances
}

func newMockRepo() *mockRepo {
	return &mockRepo{balances: make(map[uuid.UUID]*balances)}
}

func (m *mockRepo) bal(userID uuid.UUID) *balances {
	b, ok := m.balances[userID]
	if !ok {
		b = &balances{}
		m.balances[userID] = b
	}
	return b
}

func (m *mockRepo) CreateEntry(_ context.Context, _ pgx.Tx, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.entries = append(m.entries, &cp)
	b := m.bal(e.UserID)
	if e.LockState == Unlocked {
		b.available += e.Amount.Cents
	} else {
		b.locked += e.Amount.Cents
	}
	return nil
}

func (m *mockRepo) UnlockAllForPool(_ context.Context, _ pgx.Tx, poolID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.SourcePoolID == nil || *e.SourcePoolID != poolID || e.LockState != Locked {
			continue
		}
		e.LockState = Unlocked
		b := m.bal(e.UserID)
		b.locked -= e.Amount.Cents
		b.available += e.Amount.Cents
		n++
	}
	return n, nil
}

func (m *mockRepo) Balance(_ context.Context, userID uuid.UUID) (money.Money, money.Money, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bal(userID)
	return money.New(b.available, "USD"), money.New(b.locked, "USD"), nil
}

func (m *mockRepo) DebitAvailable(_ context.Context, _ pgx.Tx, userID uuid.UUID, amount money.Money) (money.Money, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bal(userID)
	if b.available < amount.Cents {
		return money.Money{}, ErrInsufficientFunds
	}
	b.available -= amount.Cents
	return money.New(b.available, "USD"), nil
}

func (m *mockRepo) CreateWithdrawal(_ context.Context, _ pgx.Tx, _ *Receipt) error { return nil }

func usd(c int64) money.Money { return money.New(c, "USD") }

var testTime = time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestCreditLockPolicy(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(fakeDB{}, repo)
	ctx := context.Background()
	user := uuid.New()
	poolA := uuid.New()
	poolB := uuid.New()

	locked, err := svc.Credit(ctx, nil, user, usd(40000), poolA, OnPoolCompletion, testTime)
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if locked.LockState != Locked {
		t.Errorf("OnPoolCompletion credit: got %s, want locked", locked.LockState)
	}
	immediate, err := svc.Credit(ctx, nil, user, usd(10000), poolB, Immediate, testTime)
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if immediate.LockState != Unlocked {
		t.Errorf("Immediate credit: got %s, want unlocked", immediate.LockState)
	}

	available, err := svc.WithdrawableBalance(ctx, user)
	if err != nil {
		t.Fatalf("WithdrawableBalance: %v", err)
	}
	if available.Cents != 10000 {
		t.Errorf("withdrawable: got %d, want 10000", available.Cents)
	}
	heldBack, _ := svc.LockedBalance(ctx, user)
	if heldBack.Cents != 40000 {
		t.Errorf("locked: got %d, want 40000", heldBack.Cents)
	}
}

func TestUnlockAllForPoolIsIdempotentAndMonotone(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(fakeDB{}, repo)
	ctx := context.Background()
	user := uuid.New()
	poolID := uuid.New()

	if _, err := svc.Credit(ctx, nil, user, usd(30000), poolID, OnPoolCompletion, testTime); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if err := svc.UnlockAllForPool(ctx, nil, poolID); err != nil {
		t.Fatalf("UnlockAllForPool: %v", err)
	}
	available, _ := svc.WithdrawableBalance(ctx, user)
	if available.Cents != 30000 {
		t.Errorf("after unlock: got %d, want 30000", available.Cents)
	}

	// Second unlock is a no-op, not an error.
	if err := svc.UnlockAllForPool(ctx, nil, poolID); err != nil {
		t.Fatalf("second UnlockAllForPool: %v", err)
	}
	available, _ = svc.WithdrawableBalance(ctx, user)
	if available.Cents != 30000 {
		t.Errorf("idempotent unlock changed balance: got %d", available.Cents)
	}

	// Lock state never flips back.
	for _, e := range repo.entries {
		if e.LockState != Unlocked {
			t.Errorf("entry %s still %s after unlock", e.ID, e.LockState)
		}
	}
}

// Scenario: withdrawing $600 against a $400 balance fails and leaves the
// balance untouched.
func TestWithdrawInsufficientFunds(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(fakeDB{}, repo)
	ctx := context.Background()
	user := uuid.New()

	if _, err := svc.Deposit(ctx, user, usd(40000), testTime); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if _, err := svc.Withdraw(ctx, user, usd(60000), testTime); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("overdraw: got %v, want ErrInsufficientFunds", err)
	}
	available, _ := svc.WithdrawableBalance(ctx, user)
	if available.Cents != 40000 {
		t.Errorf("balance after failed withdraw: got %d, want 40000", available.Cents)
	}

	receipt, err := svc.Withdraw(ctx, user, usd(15000), testTime)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if receipt.BalanceAfter.Cents != 25000 {
		t.Errorf("balance after: got %d, want 25000", receipt.BalanceAfter.Cents)
	}
}

func TestWithdrawRejectsNonPositive(t *testing.T) {
	svc := NewService(fakeDB{}, newMockRepo())
	if _, err := svc.Withdraw(context.Background(), uuid.New(), usd(0), testTime); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("zero withdraw: got %v, want ErrInsufficientFunds", err)
	}
}

// Credits from different pools are order-insensitive; concurrent credits
// and withdrawals never drive the balance negative.
func TestConcurrentCreditsAndWithdrawals(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(fakeDB{}, repo)
	ctx := context.Background()
	user := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Credit(ctx, nil, user, usd(1000), uuid.New(), Immediate, testTime)
		}()
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Withdraw(ctx, user, usd(1500), testTime)
		}()
	}
	wg.Wait()

	available, err := svc.WithdrawableBalance(ctx, user)
	if err != nil {
		t.Fatalf("WithdrawableBalance: %v", err)
	}
	if available.Cents < 0 {
		t.Errorf("balance went negative: %d", available.Cents)
	}
}
