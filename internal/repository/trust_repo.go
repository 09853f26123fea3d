package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nestfund/backend/internal/trust"
)

// TrustRepo stores the raw signals trust scores are derived from. The
// score itself is never persisted; it is recomputed from this profile.
type TrustRepo struct {
	pool *pgxpool.Pool
}

func NewTrustRepo(pgPool *pgxpool.Pool) *TrustRepo {
	return &TrustRepo{pool: pgPool}
}

func (r *TrustRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*trust.Profile, error) {
	p := &trust.Profile{UserID: userID}
	var paymentsTotal, paymentsOnTime int
	err := r.pool.QueryRow(ctx, `
		SELECT groups_completed, organizer_roles, disputes, late_payments, payments_total, payments_on_time, is_verified,
		       GREATEST(EXTRACT(EPOCH FROM now() - created_at) / 86400, 0)::int
		FROM trust_profiles WHERE user_id = $1
	`, userID).Scan(&p.GroupsCompleted, &p.OrganizerRoles, &p.Disputes, &p.LatePayments,
		&paymentsTotal, &paymentsOnTime, &p.IsVerified, &p.AccountAgeDays)
	if err != nil {
		if err.Error() == "no rows in result set" {
			// No history yet: a zero profile scores the neutral default.
			return p, nil
		}
		return nil, err
	}
	if paymentsTotal > 0 {
		p.OnTimePaymentRate = paymentsOnTime * 100 / paymentsTotal
	}

	rows, err := r.pool.Query(ctx, `
		SELECT rater_trust_score, on_time_payments, would_group_again, star_rating, group_size,
		       GREATEST(EXTRACT(EPOCH FROM now() - rated_at) / 86400, 0)::int
		FROM peer_ratings WHERE rated_user_id = $1 ORDER BY rated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var pr trust.PeerRating
		if err := rows.Scan(&pr.RaterTrustScore, &pr.OnTimePayments, &pr.WouldGroupAgain, &pr.StarRating, &pr.GroupSize, &pr.DaysAgo); err != nil {
			return nil, err
		}
		p.PeerRatings = append(p.PeerRatings, pr)
	}
	return p, rows.Err()
}

func (r *TrustRepo) AddPeerRating(ctx context.Context, ratedUserID uuid.UUID, pr trust.PeerRating) error {
	if err := r.ensureProfile(ctx, ratedUserID); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO peer_ratings (rated_user_id, rater_trust_score, on_time_payments, would_group_again, star_rating, group_size, rated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now() - make_interval(days => $7))
	`, ratedUserID, pr.RaterTrustScore, pr.OnTimePayments, pr.WouldGroupAgain, pr.StarRating, pr.GroupSize, pr.DaysAgo)
	return err
}

func (r *TrustRepo) RecordPayment(ctx context.Context, userID uuid.UUID, onTime bool) error {
	if err := r.ensureProfile(ctx, userID); err != nil {
		return err
	}
	onTimeInc, lateInc := 0, 0
	if onTime {
		onTimeInc = 1
	} else {
		lateInc = 1
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE trust_profiles
		SET payments_total = payments_total + 1,
		    payments_on_time = payments_on_time + $2,
		    late_payments = late_payments + $3
		WHERE user_id = $1
	`, userID, onTimeInc, lateInc)
	return err
}

func (r *TrustRepo) RecordPoolCompleted(ctx context.Context, userID uuid.UUID, organizer bool) error {
	if err := r.ensureProfile(ctx, userID); err != nil {
		return err
	}
	organizerInc := 0
	if organizer {
		organizerInc = 1
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE trust_profiles
		SET groups_completed = groups_completed + 1, organizer_roles = organizer_roles + $2
		WHERE user_id = $1
	`, userID, organizerInc)
	return err
}

func (r *TrustRepo) RecordDispute(ctx context.Context, userID uuid.UUID) error {
	if err := r.ensureProfile(ctx, userID); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE trust_profiles SET disputes = disputes + 1 WHERE user_id = $1
	`, userID)
	return err
}

func (r *TrustRepo) ensureProfile(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO trust_profiles (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	return err
}
