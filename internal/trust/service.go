package trust

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrBadRating is returned for a rating outside the accepted ranges.
var ErrBadRating = errors.New("trust: rating out of range")

// Repo is the profile store the service reads signals from. GetProfile
// returns a zero-valued profile for users with no history yet.
type Repo interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	AddPeerRating(ctx context.Context, ratedUserID uuid.UUID, r PeerRating) error
	RecordPayment(ctx context.Context, userID uuid.UUID, onTime bool) error
	RecordPoolCompleted(ctx context.Context, userID uuid.UUID, organizer bool) error
	RecordDispute(ctx context.Context, userID uuid.UUID) error
}

// Service exposes trust scores to the rest of the engine. Scoring reads the
// profile and runs the pure Score function; nothing here sits on the
// payment hot path.
type Service struct {
	repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// Score returns the current trust score for a user.
func (s *Service) Score(ctx context.Context, userID uuid.UUID) (int, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return 0, err
	}
	return Score(*p), nil
}

// SubmitRating validates and records a peer rating. The rater's own trust
// score is snapshotted into the rating so later recomputation does not
// depend on the rater's future behavior.
func (s *Service) SubmitRating(ctx context.Context, ratedUserID uuid.UUID, r PeerRating) error {
	if r.StarRating < 0 || r.StarRating > 5 {
		return ErrBadRating
	}
	if r.GroupSize < 1 || r.DaysAgo < 0 {
		return ErrBadRating
	}
	if r.RaterTrustScore < 0 || r.RaterTrustScore > 100 {
		return ErrBadRating
	}
	return s.repo.AddPeerRating(ctx, ratedUserID, r)
}

// ReportDispute records a dispute against a user's profile.
func (s *Service) ReportDispute(ctx context.Context, userID uuid.UUID) error {
	return s.repo.RecordDispute(ctx, userID)
}

// PaymentOutcome is one member's result for a closed cycle.
type PaymentOutcome struct {
	UserID uuid.UUID `json:"user_id"`
	OnTime bool      `json:"on_time"`
}

// ApplyCycleOutcome folds a closed cycle's payment results into the
// members' profiles. Called from the background worker, never inside the
// ledger transaction.
func (s *Service) ApplyCycleOutcome(ctx context.Context, outcomes []PaymentOutcome) error {
	for _, o := range outcomes {
		if err := s.repo.RecordPayment(ctx, o.UserID, o.OnTime); err != nil {
			return err
		}
	}
	return nil
}

// ApplyPoolCompleted credits every member with a completed group, and the
// organizer with an organizer role.
func (s *Service) ApplyPoolCompleted(ctx context.Context, memberIDs []uuid.UUID, organizerID uuid.UUID) error {
	for _, id := range memberIDs {
		if err := s.repo.RecordPoolCompleted(ctx, id, id == organizerID); err != nil {
			return err
		}
	}
	return nil
}
