package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nestfund/backend/internal/invite"
	"github.com/nestfund/backend/internal/middleware"
	"github.com/nestfund/backend/internal/money"
	"github.com/nestfund/backend/internal/pool"
	"github.com/nestfund/backend/internal/wallet"
)

type CreatePoolRequest struct {
	ContributionCents       int64  `json:"contribution_cents"`
	Currency                string `json:"currency"`
	Frequency               string `json:"frequency"`
	MemberLimit             int    `json:"member_limit"`
	AllowDoubleContribution bool   `json:"allow_double_contribution"`
	GraceHours              int    `json:"grace_hours"`
	PayoutLockPolicy        string `json:"payout_lock_policy"`
}

type JoinPoolRequest struct {
	InviteCode   string `json:"invite_code"`
	PaymentCents int64  `json:"payment_cents"`
}

type JoinPoolResponse struct {
	PoolID   uuid.UUID `json:"pool_id"`
	Position int       `json:"position"`
}

type PaymentRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

type CancelPoolRequest struct {
	Reason string `json:"reason"`
}

// PoolHandler serves the pool lifecycle endpoints.
type PoolHandler struct {
	engine   *pool.Engine
	invites  *invite.Directory
	currency string
	log      *slog.Logger
}

func NewPoolHandler(engine *pool.Engine, invites *invite.Directory, currency string, log *slog.Logger) *PoolHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PoolHandler{engine: engine, invites: invites, currency: currency, log: log}
}

func (h *PoolHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserIDFromCtx(r.Context())
	var req CreatePoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = h.currency
	}
	policy := wallet.Policy(req.PayoutLockPolicy)
	if req.PayoutLockPolicy == "" {
		policy = wallet.OnPoolCompletion
	}
	p, err := h.engine.CreatePool(r.Context(), ownerID, pool.CreateParams{
		ContributionAmount:      money.New(req.ContributionCents, currency),
		Frequency:               pool.Frequency(req.Frequency),
		MemberLimit:             req.MemberLimit,
		AllowDoubleContribution: req.AllowDoubleContribution,
		GraceHours:              req.GraceHours,
		PayoutLockPolicy:        policy,
	}, time.Now())
	if err != nil {
		if status := domainStatus(err); status != 0 {
			writeError(w, status, err.Error())
			return
		}
		h.log.Error("create pool failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create pool")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PoolHandler) Get(w http.ResponseWriter, r *http.Request) {
	poolID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pool id")
		return
	}
	p, err := h.engine.Get(r.Context(), poolID)
	if err != nil {
		if status := domainStatus(err); status != 0 {
			writeError(w, status, err.Error())
			return
		}
		h.log.Error("get pool failed", "pool_id", poolID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load pool")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Join adds the caller to the pool named in the path after resolving their
// invite code against it. For an Active pool the request must carry the
// catch-up payment, which routes the join through the late-joiner path.
func (h *PoolHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromCtx(r.Context())
	pathID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pool id")
		return
	}
	var req JoinPoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	now := time.Now()
	poolID, err := h.invites.Resolve(r.Context(), req.InviteCode, now)
	if err != nil {
		if status := domainStatus(err); status != 0 {
			writeError(w, status, err.Error())
			return
		}
		h.log.Error("invite lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not resolve invite")
		return
	}
	if poolID != pathID {
		writeError(w, http.StatusBadRequest, "invite code belongs to a different pool")
		return
	}

	var position int
	if req.PaymentCents > 0 {
		p, getErr := h.engine.Get(r.Context(), poolID)
		if getErr != nil {
			writeError(w, http.StatusNotFound, pool.ErrPoolNotFound.Error())
			return
		}
		position, err = h.engine.JoinLate(r.Context(), poolID, userID, money.New(req.PaymentCents, p.ContributionAmount.Currency), now)
	} else {
		position, err = h.engine.Join(r.Context(), poolID, userID, now)
	}
	if err != nil {
		if status := domainStatus(err); status != 0 {
			writeError(w, status, err.Error())
			return
		}
		h.log.Error("join failed", "pool_id", poolID, "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not join pool")
		return
	}
	writeJSON(w, http.StatusOK, JoinPoolResponse{PoolID: poolID, Position: position})
}

func (h *PoolHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromCtx(r.Context())
	poolID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pool id")
		return
	}
	if err := h.engine.Start(r.Context(), poolID, userID, time.Now()); err != nil {
		if status := domainStatus(err); status != 0 {
			writeError(w, status, err.Error())
			return
		}
		h.log.Error("start failed", "pool_id", poolID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not start pool")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Payment records a contribution; when it completes the cycle the response
// carries the rotation result.
func (h *PoolHandler) Payment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromCtx(r.Context())
	poolID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pool id")
		return
	}
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	p, err := h.engine.Get(r.Context(), poolID)
	if err != nil {
		if status := domainStatus(err); status != 0 {
			writeError(w, status, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "could not load pool")
		return
	}
	status, err := h.engine.ApplyPayment(r.Context(), poolID, userID, money.New(req.AmountCents, p.ContributionAmount.Currency), time.Now())
	if err != nil {
		if s := domainStatus(err); s != 0 {
			writeError(w, s, err.Error())
			return
		}
		h.log.Error("payment failed", "pool_id", poolID, "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not apply payment")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *PoolHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromCtx(r.Context())
	poolID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pool id")
		return
	}
	var req CancelPoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.engine.Cancel(r.Context(), poolID, userID, req.Reason, time.Now()); err != nil {
		if status := domainStatus(err); status != 0 {
			writeError(w, status, err.Error())
			return
		}
		h.log.Error("cancel failed", "pool_id", poolID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not cancel pool")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
