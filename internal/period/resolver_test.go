package period

import (
	"testing"
	"time"
)

var ref = time.Date(2026, 8, 31, 15, 45, 0, 0, time.UTC)

func TestResolve(t *testing.T) {
	tests := []struct {
		token    string
		wantDays int
	}{
		{"7d", 7},
		{"30d", 30},
		{"60d", 60},
		{"90d", 90},
		{"1y", 365},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			r := Resolve(tt.token, ref)

			if got := r.Days(); got != tt.wantDays {
				t.Errorf("Days() = %d, want %d", got, tt.wantDays)
			}

			wantEnd := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
			if !r.End.Equal(wantEnd) {
				t.Errorf("End = %v, want %v (time of day dropped)", r.End, wantEnd)
			}
		})
	}
}

func TestResolveLenientDefault(t *testing.T) {
	// Unknown tokens fall back to 30d instead of failing.
	for _, token := range []string{"", "14d", "all", "garbage"} {
		r := Resolve(token, ref)
		if got := r.Days(); got != 30 {
			t.Errorf("Resolve(%q).Days() = %d, want 30", token, got)
		}
	}
}

func TestComparison(t *testing.T) {
	r := Resolve("30d", ref)
	prev := r.Comparison()

	if !prev.End.Equal(r.Start) {
		t.Errorf("comparison End = %v, want current Start %v", prev.End, r.Start)
	}

	if prev.End.Sub(prev.Start) != r.End.Sub(r.Start) {
		t.Errorf("comparison length %v != current length %v",
			prev.End.Sub(prev.Start), r.End.Sub(r.Start))
	}

	// The boundary day belongs to the current window only.
	if prev.ContainsHalfOpen(r.Start) {
		t.Error("comparison window must not contain the current window's start")
	}
	if !prev.ContainsHalfOpen(prev.Start) {
		t.Error("comparison window must contain its own start")
	}
}

func TestContains(t *testing.T) {
	r := Resolve("7d", ref)

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"inside", r.Start.AddDate(0, 0, 3), true},
		{"start inclusive", r.Start, true},
		{"end inclusive", r.End, true},
		{"before", r.Start.AddDate(0, 0, -1), false},
		{"after", r.End.AddDate(0, 0, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.t); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestExplicit(t *testing.T) {
	start := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 20, 23, 0, 0, 0, time.UTC)

	r := Explicit(start, end)
	if r.Days() != 10 {
		t.Errorf("Days() = %d, want 10", r.Days())
	}
}
