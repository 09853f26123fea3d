package money

import (
	"errors"
	"testing"
)

func TestAddSub(t *testing.T) {
	a := New(1050, "USD")
	b := New(950, "USD")

	if got := a.Add(b); got.Cents != 2000 {
		t.Errorf("add: got %d, want 2000", got.Cents)
	}

	diff, err := a.Sub(b)
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	if diff.Cents != 100 {
		t.Errorf("sub: got %d, want 100", diff.Cents)
	}

	if _, err := b.Sub(a); !errors.Is(err, ErrUnderflow) {
		t.Errorf("expected ErrUnderflow, got %v", err)
	}
}

func TestCurrencyMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on cross-currency add")
		}
	}()
	New(100, "USD").Add(New(100, "EUR"))
}

func TestMulInt(t *testing.T) {
	total := New(10000, "USD").MulInt(4)
	if total.Cents != 40000 {
		t.Errorf("mul: got %d, want 40000", total.Cents)
	}
}

func TestCmp(t *testing.T) {
	a := New(100, "USD")
	b := New(200, "USD")
	if a.Cmp(b) != -1 || b.Cmp(a) != 1 || a.Cmp(a) != 0 {
		t.Error("cmp ordering broken")
	}
}

// Round-trip property: parts of SplitEvenly always sum exactly to the original.
func TestSplitEvenlySumsExactly(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 101, 33333, 1000000007} {
		for n := 1; n <= 13; n++ {
			m := New(cents, "USD")
			parts, err := m.SplitEvenly(n)
			if err != nil {
				t.Fatalf("split %d by %d: %v", cents, n, err)
			}
			if len(parts) != n {
				t.Fatalf("split %d by %d: got %d parts", cents, n, len(parts))
			}
			sum := Zero("USD")
			for _, p := range parts {
				sum = sum.Add(p)
			}
			if sum.Cents != cents {
				t.Errorf("split %d by %d: parts sum to %d", cents, n, sum.Cents)
			}
			// No part may differ from another by more than one minor unit.
			if parts[0].Cents-parts[n-1].Cents > 1 {
				t.Errorf("split %d by %d: uneven parts %d vs %d", cents, n, parts[0].Cents, parts[n-1].Cents)
			}
		}
	}
}

func TestSplitEvenlyRejectsBadN(t *testing.T) {
	if _, err := New(100, "USD").SplitEvenly(0); !errors.Is(err, ErrBadSplit) {
		t.Errorf("expected ErrBadSplit, got %v", err)
	}
}

// A negative amount cannot honor the exact-sum contract: truncating
// division leaves a negative remainder the top-up loop never assigns.
func TestSplitEvenlyRejectsNegativeAmount(t *testing.T) {
	if _, err := New(-100, "USD").SplitEvenly(3); !errors.Is(err, ErrBadSplit) {
		t.Errorf("expected ErrBadSplit, got %v", err)
	}
}
