// Package invite is the invite-directory boundary: it issues numeric codes
// for pools and resolves a code back to its pool. Codes carry a Luhn check
// digit so typos fail locally before any lookup.
package invite

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/theplant/luhn"
)

var (
	ErrInvalidCode   = errors.New("invite: malformed code")
	ErrCodeNotFound  = errors.New("invite: unknown code")
	ErrInviteExpired = errors.New("invite: code expired")
)

// Repo persists issued codes.
type Repo interface {
	Create(ctx context.Context, tx pgx.Tx, code string, poolID uuid.UUID, expiresAt time.Time) error
	Lookup(ctx context.Context, code string) (poolID uuid.UUID, expiresAt time.Time, err error)
}

// Directory issues and resolves invite codes.
type Directory struct {
	repo Repo
	ttl  time.Duration
}

func NewDirectory(repo Repo, ttl time.Duration) *Directory {
	if ttl == 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Directory{repo: repo, ttl: ttl}
}

// Issue generates a fresh 9-digit code (8 random digits plus a Luhn check
// digit) and registers it for the pool, inside the caller's transaction.
func (d *Directory) Issue(ctx context.Context, tx pgx.Tx, poolID uuid.UUID, now time.Time) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	if err := d.repo.Create(ctx, tx, code, poolID, now.Add(d.ttl)); err != nil {
		return "", err
	}
	return code, nil
}

// Resolve maps a code to its pool. The Luhn check rejects malformed codes
// without touching the store.
func (d *Directory) Resolve(ctx context.Context, code string, now time.Time) (uuid.UUID, error) {
	n, err := strconv.Atoi(code)
	if err != nil || n <= 0 || !luhn.Valid(n) {
		return uuid.Nil, ErrInvalidCode
	}
	poolID, expiresAt, err := d.repo.Lookup(ctx, code)
	if err != nil {
		return uuid.Nil, err
	}
	if now.After(expiresAt) {
		return uuid.Nil, ErrInviteExpired
	}
	return poolID, nil
}

func generateCode() (string, error) {
	// 8 random digits in [10000000, 99999999], check digit appended.
	max := big.NewInt(90000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	body := int(n.Int64()) + 10000000
	check := luhn.CalculateLuhn(body)
	return strconv.Itoa(body*10 + check), nil
}
