package invite

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/theplant/luhn"
)

type mockRepo struct {
	mu    sync.Mutex
	codes map[string]struct {
		poolID    uuid.UUID
		expiresAt time.Time
	}
}

func newMockRepo() *mockRepo {
	return &mockRepo{codes: make(map[string]struct {
		poolID    uuid.UUID
		expiresAt time.Time
	})}
}

func (m *mockRepo) Create(_ context.Context, _ pgx.Tx, code string, poolID uuid.UUID, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[code] = struct {
		poolID    uuid.UUID
		expiresAt time.Time
	}{poolID, expiresAt}
	return nil
}

func (m *mockRepo) Lookup(_ context.Context, code string) (uuid.UUID, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.codes[code]
	if !ok {
		return uuid.Nil, time.Time{}, ErrCodeNotFound
	}
	return e.poolID, e.expiresAt, nil
}

func TestIssueAndResolve(t *testing.T) {
	repo := newMockRepo()
	dir := NewDirectory(repo, time.Hour)
	ctx := context.Background()
	poolID := uuid.New()
	now := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

	code, err := dir.Issue(ctx, nil, poolID, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(code) != 9 {
		t.Errorf("code length: got %d, want 9", len(code))
	}
	n, err := strconv.Atoi(code)
	if err != nil || !luhn.Valid(n) {
		t.Errorf("code %q fails the Luhn check", code)
	}

	got, err := dir.Resolve(ctx, code, now.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != poolID {
		t.Errorf("resolved pool: got %s, want %s", got, poolID)
	}
}

func TestResolveRejectsMalformedAndExpired(t *testing.T) {
	repo := newMockRepo()
	dir := NewDirectory(repo, time.Hour)
	ctx := context.Background()
	now := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

	if _, err := dir.Resolve(ctx, "not-a-code", now); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("malformed code: got %v, want ErrInvalidCode", err)
	}
	// Valid Luhn number that was never issued.
	body := 12345678
	unknown := strconv.Itoa(body*10 + luhn.CalculateLuhn(body))
	if _, err := dir.Resolve(ctx, unknown, now); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("unknown code: got %v, want ErrCodeNotFound", err)
	}

	code, err := dir.Issue(ctx, nil, uuid.New(), now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := dir.Resolve(ctx, code, now.Add(2*time.Hour)); !errors.Is(err, ErrInviteExpired) {
		t.Errorf("expired code: got %v, want ErrInviteExpired", err)
	}
}
