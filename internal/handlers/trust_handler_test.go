package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nestfund/backend/internal/middleware"
	"github.com/nestfund/backend/internal/trust"
)

// memTrustRepo keeps profiles in a map; good enough for handler tests.
type memTrustRepo struct {
	profiles map[uuid.UUID]*trust.Profile
}

func newMemTrustRepo() *memTrustRepo {
	return &memTrustRepo{profiles: make(map[uuid.UUID]*trust.Profile)}
}

func (m *memTrustRepo) GetProfile(_ context.Context, userID uuid.UUID) (*trust.Profile, error) {
	if p, ok := m.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return &trust.Profile{UserID: userID}, nil
}

func (m *memTrustRepo) AddPeerRating(_ context.Context, ratedUserID uuid.UUID, r trust.PeerRating) error {
	p, ok := m.profiles[ratedUserID]
	if !ok {
		p = &trust.Profile{UserID: ratedUserID}
		m.profiles[ratedUserID] = p
	}
	p.PeerRatings = append(p.PeerRatings, r)
	return nil
}

func (m *memTrustRepo) RecordPayment(context.Context, uuid.UUID, bool) error       { return nil }
func (m *memTrustRepo) RecordPoolCompleted(context.Context, uuid.UUID, bool) error { return nil }

func (m *memTrustRepo) RecordDispute(_ context.Context, userID uuid.UUID) error {
	p, ok := m.profiles[userID]
	if !ok {
		p = &trust.Profile{UserID: userID}
		m.profiles[userID] = p
	}
	p.Disputes++
	return nil
}

func doAs(t *testing.T, h http.HandlerFunc, userID uuid.UUID, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, target, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestTrustScoreEndpoint(t *testing.T) {
	repo := newMemTrustRepo()
	h := NewTrustHandler(trust.NewService(repo), nil)
	userID := uuid.New()

	w := doAs(t, h.Score, userID, http.MethodGet, "/v1/trust-score", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, userID, resp.UserID)
	// A brand-new profile scores the neutral peer band only.
	require.Equal(t, 11, resp.Score)
}

func TestTrustScoreOtherUser(t *testing.T) {
	repo := newMemTrustRepo()
	other := uuid.New()
	repo.profiles[other] = &trust.Profile{
		UserID:            other,
		OnTimePaymentRate: 100,
		GroupsCompleted:   8,
		IsVerified:        true,
	}
	h := NewTrustHandler(trust.NewService(repo), nil)

	w := doAs(t, h.Score, uuid.New(), http.MethodGet, "/v1/trust-score?user_id="+other.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, other, resp.UserID)
	require.Greater(t, resp.Score, 50)
}

func TestSubmitRating(t *testing.T) {
	repo := newMemTrustRepo()
	h := NewTrustHandler(trust.NewService(repo), nil)
	rater := uuid.New()
	rated := uuid.New()

	w := doAs(t, h.SubmitRating, rater, http.MethodPost, "/v1/ratings", RatingRequest{
		RatedUserID:     rated.String(),
		OnTimePayments:  true,
		WouldGroupAgain: true,
		StarRating:      5,
		GroupSize:       4,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.profiles[rated].PeerRatings, 1)
	require.Equal(t, 5, repo.profiles[rated].PeerRatings[0].StarRating)
}

func TestSubmitRatingRejectsSelf(t *testing.T) {
	repo := newMemTrustRepo()
	h := NewTrustHandler(trust.NewService(repo), nil)
	rater := uuid.New()

	w := doAs(t, h.SubmitRating, rater, http.MethodPost, "/v1/ratings", RatingRequest{
		RatedUserID: rater.String(),
		StarRating:  5,
		GroupSize:   4,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportDispute(t *testing.T) {
	repo := newMemTrustRepo()
	h := NewTrustHandler(trust.NewService(repo), nil)
	reporter := uuid.New()
	disputed := uuid.New()

	w := doAs(t, h.ReportDispute, reporter, http.MethodPost, "/v1/disputes", DisputeRequest{
		UserID: disputed.String(),
		Reason: "missed two payments and went silent",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, 1, repo.profiles[disputed].Disputes)

	// Each dispute costs 5 points off the neutral baseline.
	w = doAs(t, h.Score, disputed, http.MethodGet, "/v1/trust-score", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 6, resp.Score)
}

func TestReportDisputeRejectsSelf(t *testing.T) {
	repo := newMemTrustRepo()
	h := NewTrustHandler(trust.NewService(repo), nil)
	reporter := uuid.New()

	w := doAs(t, h.ReportDispute, reporter, http.MethodPost, "/v1/disputes", DisputeRequest{
		UserID: reporter.String(),
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, repo.profiles)
}

func TestSubmitRatingRejectsOutOfRange(t *testing.T) {
	repo := newMemTrustRepo()
	h := NewTrustHandler(trust.NewService(repo), nil)

	w := doAs(t, h.SubmitRating, uuid.New(), http.MethodPost, "/v1/ratings", RatingRequest{
		RatedUserID: uuid.New().String(),
		StarRating:  9,
		GroupSize:   4,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, repo.profiles)
}
