package pool

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestAdvance(t *testing.T) {
	start := date(2024, time.January, 15)

	cases := []struct {
		freq   Frequency
		cycles int
		want   time.Time
	}{
		{Daily, 1, date(2024, time.January, 16)},
		{Daily, 30, date(2024, time.February, 14)},
		{Weekly, 1, date(2024, time.January, 22)},
		{Weekly, 4, date(2024, time.February, 12)},
		{Biweekly, 1, date(2024, time.January, 29)},
		{Monthly, 1, date(2024, time.February, 15)},
		{Monthly, 12, date(2025, time.January, 15)},
	}
	for _, c := range cases {
		if got := Advance(start, c.freq, c.cycles); !got.Equal(c.want) {
			t.Errorf("Advance(%s, %d): got %v, want %v", c.freq, c.cycles, got, c.want)
		}
	}
}

// Monthly advance follows the calendar, not a 30-day offset.
func TestAdvanceMonthlyNoDrift(t *testing.T) {
	start := date(2024, time.March, 1)
	sixMonths := Advance(start, Monthly, 6)
	if want := date(2024, time.September, 1); !sixMonths.Equal(want) {
		t.Errorf("6 monthly cycles from Mar 1: got %v, want %v", sixMonths, want)
	}
}

func TestNextRecipientByPosition(t *testing.T) {
	members := []Member{
		{Position: 3},
		{Position: 1, HasReceivedPayout: true},
		{Position: 4},
		{Position: 2},
	}
	next := NextRecipient(members)
	if next == nil || next.Position != 2 {
		t.Fatalf("next recipient: got %+v, want position 2", next)
	}

	for i := range members {
		members[i].HasReceivedPayout = true
	}
	if NextRecipient(members) != nil {
		t.Error("expected nil recipient once everyone has received")
	}
}

func TestPayoutDate(t *testing.T) {
	due := date(2024, time.May, 10)
	if got := PayoutDate(due, 24*time.Hour); !got.Equal(date(2024, time.May, 11)) {
		t.Errorf("payout date: got %v", got)
	}
}
