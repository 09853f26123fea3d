package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/nestfund/backend/internal/middleware"
	"github.com/nestfund/backend/internal/trust"
)

type ScoreResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Score  int       `json:"score"`
}

type RatingRequest struct {
	RatedUserID     string `json:"rated_user_id"`
	OnTimePayments  bool   `json:"on_time_payments"`
	WouldGroupAgain bool   `json:"would_group_again"`
	StarRating      int    `json:"star_rating"`
	GroupSize       int    `json:"group_size"`
}

type DisputeRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

// TrustHandler serves trust-score reads and peer-rating submission.
type TrustHandler struct {
	trust *trust.Service
	log   *slog.Logger
}

func NewTrustHandler(svc *trust.Service, log *slog.Logger) *TrustHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TrustHandler{trust: svc, log: log}
}

// Score returns the caller's trust score, or another user's when the
// user_id query parameter is set. Scores are public within the app.
func (h *TrustHandler) Score(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromCtx(r.Context())
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		userID = id
	}
	score, err := h.trust.Score(r.Context(), userID)
	if err != nil {
		h.log.Error("score lookup failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not compute score")
		return
	}
	writeJSON(w, http.StatusOK, ScoreResponse{UserID: userID, Score: score})
}

// SubmitRating records a peer rating left by the caller. The rater's own
// trust score is snapshotted server-side.
func (h *TrustHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	raterID := middleware.UserIDFromCtx(r.Context())
	var req RatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	ratedID, err := uuid.Parse(req.RatedUserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rated_user_id")
		return
	}
	if ratedID == raterID {
		writeError(w, http.StatusBadRequest, "cannot rate yourself")
		return
	}
	raterScore, err := h.trust.Score(r.Context(), raterID)
	if err != nil {
		h.log.Error("rater score lookup failed", "user_id", raterID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not record rating")
		return
	}
	err = h.trust.SubmitRating(r.Context(), ratedID, trust.PeerRating{
		RaterTrustScore: raterScore,
		OnTimePayments:  req.OnTimePayments,
		WouldGroupAgain: req.WouldGroupAgain,
		StarRating:      req.StarRating,
		GroupSize:       req.GroupSize,
	})
	if err != nil {
		if errors.Is(err, trust.ErrBadRating) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("rating submit failed", "rated_user_id", ratedID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not record rating")
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// ReportDispute records a dispute against another user.
func (h *TrustHandler) ReportDispute(w http.ResponseWriter, r *http.Request) {
	reporterID := middleware.UserIDFromCtx(r.Context())
	var req DisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	disputedID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}
	if disputedID == reporterID {
		writeError(w, http.StatusBadRequest, "cannot dispute yourself")
		return
	}
	if err := h.trust.ReportDispute(r.Context(), disputedID); err != nil {
		h.log.Error("dispute report failed", "user_id", disputedID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not record dispute")
		return
	}
	h.log.Info("dispute recorded", "user_id", disputedID, "reporter_id", reporterID, "reason", req.Reason)
	w.WriteHeader(http.StatusCreated)
}
