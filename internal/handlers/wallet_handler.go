package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/nestfund/backend/internal/middleware"
	"github.com/nestfund/backend/internal/money"
	"github.com/nestfund/backend/internal/wallet"
)

type WithdrawRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

type DepositRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

type BalanceResponse struct {
	AvailableCents int64  `json:"available_cents"`
	LockedCents    int64  `json:"locked_cents"`
	Currency       string `json:"currency"`
}

// WalletHandler serves wallet balance, deposit, and withdrawal endpoints.
type WalletHandler struct {
	wallet   *wallet.Service
	currency string
	log      *slog.Logger
}

func NewWalletHandler(svc *wallet.Service, currency string, log *slog.Logger) *WalletHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WalletHandler{wallet: svc, currency: currency, log: log}
}

func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromCtx(r.Context())
	available, err := h.wallet.WithdrawableBalance(r.Context(), userID)
	if err != nil {
		h.log.Error("balance lookup failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load balance")
		return
	}
	locked, err := h.wallet.LockedBalance(r.Context(), userID)
	if err != nil {
		h.log.Error("balance lookup failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load balance")
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		AvailableCents: available.Cents,
		LockedCents:    locked.Cents,
		Currency:       available.Currency,
	})
}

func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromCtx(r.Context())
	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.AmountCents <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	entry, err := h.wallet.Deposit(r.Context(), userID, money.New(req.AmountCents, h.currency), time.Now())
	if err != nil {
		h.log.Error("deposit failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not record deposit")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromCtx(r.Context())
	var req WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	receipt, err := h.wallet.Withdraw(r.Context(), userID, money.New(req.AmountCents, h.currency), time.Now())
	if err != nil {
		if status := domainStatus(err); status != 0 {
			writeError(w, status, err.Error())
			return
		}
		h.log.Error("withdrawal failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not withdraw")
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}
