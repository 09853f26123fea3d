// Package trust computes the 0-100 trust score that gates and rates pool
// participation. Score is a pure function of a Profile: same inputs, same
// score, no side effects.
package trust

import (
	"math"

	"github.com/google/uuid"
)

// PeerRating is a single rating left by another pool member.
type PeerRating struct {
	RaterTrustScore int  `json:"rater_trust_score"`
	OnTimePayments  bool `json:"on_time_payments"`
	WouldGroupAgain bool `json:"would_group_again"`
	StarRating      int  `json:"star_rating"` // 0..5
	GroupSize       int  `json:"group_size"`
	DaysAgo         int  `json:"days_ago"`
}

// Profile holds the historical signals the score is derived from. The score
// itself is never stored as ground truth; it is recomputed from the profile.
type Profile struct {
	UserID            uuid.UUID    `json:"user_id"`
	GroupsCompleted   int          `json:"groups_completed"`
	OnTimePaymentRate int          `json:"on_time_payment_rate"` // 0..100
	OrganizerRoles    int          `json:"organizer_roles"`
	Disputes          int          `json:"disputes"`
	LatePayments      int          `json:"late_payments"`
	IsVerified        bool         `json:"is_verified"`
	AccountAgeDays    int          `json:"account_age_days"`
	PeerRatings       []PeerRating `json:"peer_ratings"`
}

// neutralPeerComposite is used when a profile has no ratings yet: 75% of the
// 15-point peer band, so new users start neutral instead of penalized.
const neutralPeerComposite = 11.25

// Score computes the trust score for a profile. Each component is clamped
// independently before summation; the final clamp is a safety net only.
func Score(p Profile) int {
	sum := 0.0

	rate := clampf(float64(p.OnTimePaymentRate), 0, 100)
	sum += rate / 100 * 35

	sum += minf(float64(p.GroupsCompleted)*2.5, 20)
	sum += minf(float64(p.OrganizerRoles)*3, 15)
	sum += peerComposite(p.PeerRatings)

	if p.IsVerified {
		sum += 8
	}
	sum += minf(math.Floor(float64(p.AccountAgeDays)/90), 7)

	sum -= minf(float64(p.Disputes)*5, 10)
	sum -= minf(float64(p.LatePayments)*2, 5)

	return int(math.Round(clampf(sum, 0, 100)))
}

// peerComposite returns the weighted peer-rating component on the 0..15 band.
func peerComposite(ratings []PeerRating) float64 {
	if len(ratings) == 0 {
		return neutralPeerComposite
	}
	var weighted, weights float64
	for _, r := range ratings {
		w := ratingWeight(r)
		weighted += ratingValue(r) * w
		weights += w
	}
	if weights == 0 {
		return neutralPeerComposite
	}
	return weighted / weights * 15
}

// ratingValue maps one rating to 0..1: stars plus half a point each for
// paying on time and being someone the rater would group with again.
func ratingValue(r PeerRating) float64 {
	v := float64(r.StarRating)
	if r.OnTimePayments {
		v += 0.5
	}
	if r.WouldGroupAgain {
		v += 0.5
	}
	return minf(v/6, 1)
}

// ratingWeight favors ratings from trusted raters, larger groups, and
// recent history. Old ratings decay but never below half weight.
func ratingWeight(r PeerRating) float64 {
	raterW := minf(float64(r.RaterTrustScore)/75, 1.5)
	sizeW := minf(float64(r.GroupSize)/4, 1.3)
	recencyW := maxf(1-float64(r.DaysAgo)/365, 0.5)
	return raterW * sizeW * recencyW
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
