package trust

import (
	"testing"

	"github.com/google/uuid"
)

func TestScoreIsPureAndBounded(t *testing.T) {
	profiles := []Profile{
		{},
		{OnTimePaymentRate: 100, GroupsCompleted: 50, OrganizerRoles: 20, IsVerified: true, AccountAgeDays: 10000},
		{Disputes: 99, LatePayments: 99},
		{
			OnTimePaymentRate: 87,
			GroupsCompleted:   3,
			OrganizerRoles:    1,
			AccountAgeDays:    200,
			PeerRatings: []PeerRating{
				{RaterTrustScore: 80, OnTimePayments: true, WouldGroupAgain: true, StarRating: 5, GroupSize: 6, DaysAgo: 30},
				{RaterTrustScore: 40, StarRating: 2, GroupSize: 3, DaysAgo: 400},
			},
		},
	}
	for i, p := range profiles {
		first := Score(p)
		second := Score(p)
		if first != second {
			t.Errorf("profile %d: score not deterministic: %d vs %d", i, first, second)
		}
		if first < 0 || first > 100 {
			t.Errorf("profile %d: score %d out of [0,100]", i, first)
		}
	}
}

// A user with no history gets the neutral peer default, not zero.
func TestScoreNewUserNeutralPeerDefault(t *testing.T) {
	empty := Profile{UserID: uuid.New()}
	// 0 on-time + 0 groups + 0 roles + 11.25 peer + 0 bonuses - 0 penalties.
	if got := Score(empty); got != 11 {
		t.Errorf("empty profile score: got %d, want 11", got)
	}
}

func TestScoreComponentClamps(t *testing.T) {
	// Groups completed caps at 20 points, organizer roles at 15.
	maxed := Profile{GroupsCompleted: 1000, OrganizerRoles: 1000}
	justEnough := Profile{GroupsCompleted: 8, OrganizerRoles: 5}
	if Score(maxed) != Score(justEnough) {
		t.Errorf("caps not applied: %d vs %d", Score(maxed), Score(justEnough))
	}

	// Penalties cap at 10 (disputes) and 5 (late payments).
	penalized := Profile{OnTimePaymentRate: 100, Disputes: 500, LatePayments: 500}
	capped := Profile{OnTimePaymentRate: 100, Disputes: 2, LatePayments: 3}
	if Score(penalized) != Score(capped) {
		t.Errorf("penalty caps not applied: %d vs %d", Score(penalized), Score(capped))
	}
}

func TestScoreKnownProfile(t *testing.T) {
	p := Profile{
		OnTimePaymentRate: 100,  // 35
		GroupsCompleted:   4,    // 10
		OrganizerRoles:    2,    // 6
		IsVerified:        true, // 8
		AccountAgeDays:    365,  // 4
		LatePayments:      1,    // -2
	}
	// 35 + 10 + 6 + 11.25 (no ratings) + 8 + 4 - 2 = 72.25 -> 72
	if got := Score(p); got != 72 {
		t.Errorf("known profile: got %d, want 72", got)
	}
}

func TestRatingWeighting(t *testing.T) {
	perfect := PeerRating{RaterTrustScore: 100, OnTimePayments: true, WouldGroupAgain: true, StarRating: 5, GroupSize: 8, DaysAgo: 0}
	if v := ratingValue(perfect); v != 1 {
		t.Errorf("perfect rating value: got %v, want 1", v)
	}
	// Recency weight never drops below 0.5, even for ancient ratings.
	ancient := PeerRating{RaterTrustScore: 75, StarRating: 3, GroupSize: 4, DaysAgo: 5000}
	if w := ratingWeight(ancient); w != 0.5 {
		t.Errorf("ancient rating weight: got %v, want 0.5", w)
	}
}
