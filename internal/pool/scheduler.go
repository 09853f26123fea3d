package pool

import (
	"time"
)

// Advance returns start moved forward by the given number of cycles.
// Monthly adds calendar months rather than a fixed 30-day offset so due
// dates do not drift across month lengths.
func Advance(start time.Time, f Frequency, cycles int) time.Time {
	switch f {
	case Daily:
		return start.AddDate(0, 0, cycles)
	case Weekly:
		return start.AddDate(0, 0, 7*cycles)
	case Biweekly:
		return start.AddDate(0, 0, 14*cycles)
	case Monthly:
		return start.AddDate(0, cycles, 0)
	default:
		panic("pool: unknown frequency " + string(f))
	}
}

// NextDueDate computes when the currently open cycle's collection is due.
func NextDueDate(p *Pool) time.Time {
	return Advance(p.CycleStartAt, p.Frequency, p.CurrentCycle)
}

// PayoutDate is the due date plus the settlement offset the external rails
// need to clear funds.
func PayoutDate(dueAt time.Time, settlementOffset time.Duration) time.Time {
	return dueAt.Add(settlementOffset)
}

// NextRecipient selects the payout recipient for the open round: the
// lowest position that has not yet received a payout. The dense position
// permutation (enforced at join time) makes ties impossible. Returns nil
// when every member has received once.
func NextRecipient(members []Member) *Member {
	var next *Member
	for i := range members {
		m := &members[i]
		if m.HasReceivedPayout {
			continue
		}
		if next == nil || m.Position < next.Position {
			next = m
		}
	}
	return next
}
