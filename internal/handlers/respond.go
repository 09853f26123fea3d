// Package handlers wires the HTTP surface to the ledger engine and the
// wallet, trust, and invite services.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nestfund/backend/internal/invite"
	"github.com/nestfund/backend/internal/pool"
	"github.com/nestfund/backend/internal/wallet"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// domainStatus maps a domain error to its HTTP status, or 0 when the error
// is not a known domain error.
func domainStatus(err error) int {
	switch {
	case errors.Is(err, pool.ErrPoolNotFound), errors.Is(err, invite.ErrCodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, pool.ErrBadConfig),
		errors.Is(err, pool.ErrAmountMismatch),
		errors.Is(err, pool.ErrUnknownMember),
		errors.Is(err, invite.ErrInvalidCode):
		return http.StatusBadRequest
	case errors.Is(err, pool.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, invite.ErrInviteExpired):
		return http.StatusGone
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, pool.ErrPoolFull),
		errors.Is(err, pool.ErrAlreadyMember),
		errors.Is(err, pool.ErrCatchUpRequired),
		errors.Is(err, pool.ErrWrongState),
		errors.Is(err, pool.ErrCycleClosed),
		errors.Is(err, pool.ErrCycleAlreadyOpen):
		return http.StatusConflict
	}
	return 0
}
