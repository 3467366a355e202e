package clock

import (
	"testing"
	"time"
)

func TestStepsAdvancesPerCall(t *testing.T) {
	start := time.Unix(100, 0)
	restore := SetNowForTest(Steps(start, 250*time.Millisecond))
	defer restore()

	first := Now()
	if !first.Equal(start) {
		t.Fatalf("Now() = %v, want %v", first, start)
	}
	if got := Since(first); got != 250*time.Millisecond {
		t.Fatalf("Since() = %v, want 250ms", got)
	}
}

func TestSetNowForTestRestores(t *testing.T) {
	fixed := time.Unix(42, 0)
	restore := SetNowForTest(func() time.Time { return fixed })
	if got := Now(); !got.Equal(fixed) {
		t.Fatalf("Now() = %v, want %v", got, fixed)
	}
	restore()

	if got := Now(); got.Equal(fixed) {
		t.Fatal("Now() still returns the overridden time after restore")
	}
}
