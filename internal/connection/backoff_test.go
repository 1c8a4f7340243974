package connection

import (
	"testing"
	"time"
)

func TestLinearBackoff_Next(t *testing.T) {
	policy := DefaultBackoff()

	tests := []struct {
		attempt   int
		wantDelay time.Duration
		wantOK    bool
	}{
		{attempt: 0, wantOK: false},
		{attempt: 1, wantDelay: 2 * time.Second, wantOK: true},
		{attempt: 2, wantDelay: 4 * time.Second, wantOK: true},
		{attempt: 3, wantDelay: 6 * time.Second, wantOK: true},
		{attempt: 4, wantDelay: 8 * time.Second, wantOK: true},
		{attempt: 5, wantDelay: 10 * time.Second, wantOK: true},
		{attempt: 6, wantOK: false},
		{attempt: -1, wantOK: false},
	}

	for _, tt := range tests {
		delay, ok := policy.Next(tt.attempt)
		if ok != tt.wantOK {
			t.Errorf("Next(%d) ok = %v, want %v", tt.attempt, ok, tt.wantOK)
			continue
		}
		if ok && delay != tt.wantDelay {
			t.Errorf("Next(%d) delay = %v, want %v", tt.attempt, delay, tt.wantDelay)
		}
	}
}

func TestLinearBackoff_CustomBase(t *testing.T) {
	policy := LinearBackoff{Base: 250 * time.Millisecond, MaxAttempts: 2}

	if d, ok := policy.Next(2); !ok || d != 500*time.Millisecond {
		t.Errorf("Next(2) = %v, %v; want 500ms, true", d, ok)
	}
	if _, ok := policy.Next(3); ok {
		t.Error("Next(3) allowed past the ceiling")
	}
}
