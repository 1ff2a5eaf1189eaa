package bench

import (
	"testing"
	"time"
)

func TestAnchorClock_Elapsed(t *testing.T) {
	clock := NewAnchorClock()

	clock.Mark(1000)
	if !clock.Anchored() {
		t.Fatal("Expected clock to be anchored after Mark")
	}

	got := clock.ElapsedMS(time.UnixMilli(1150))
	if got != 150 {
		t.Errorf("Expected 150ms elapsed, got %v", got)
	}
}

func TestAnchorClock_NoAnchor(t *testing.T) {
	clock := NewAnchorClock()

	if clock.Anchored() {
		t.Error("Expected fresh clock to be unanchored")
	}
	if got := clock.ElapsedMS(time.UnixMilli(5000)); got != 0 {
		t.Errorf("Expected 0 without anchor, got %v", got)
	}
}

func TestAnchorClock_ClampNegative(t *testing.T) {
	clock := NewAnchorClock()

	// Receipt before the anchor (clock skew) must not go negative.
	clock.Mark(2000)
	if got := clock.ElapsedMS(time.UnixMilli(1500)); got != 0 {
		t.Errorf("Expected clamp to 0, got %v", got)
	}
}

func TestAnchorClock_LastWriteWins(t *testing.T) {
	clock := NewAnchorClock()

	clock.Mark(1000)
	clock.Mark(3000)

	if got := clock.ElapsedMS(time.UnixMilli(3200)); got != 200 {
		t.Errorf("Expected 200ms from latest anchor, got %v", got)
	}
}

func TestAnchorClock_FallbackToLocalClock(t *testing.T) {
	clock := NewAnchorClock()
	clock.now = func() time.Time { return time.UnixMilli(9000) }

	// A missing client timestamp anchors at local receipt time instead.
	clock.Mark(0)

	if got := clock.ElapsedMS(time.UnixMilli(9250)); got != 250 {
		t.Errorf("Expected 250ms from local-clock anchor, got %v", got)
	}
}
