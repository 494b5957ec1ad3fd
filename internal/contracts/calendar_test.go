package contracts

import (
	"testing"
	"time"
)

func TestDateKeyFor(t *testing.T) {
	d := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	if got := DateKeyFor(d); got != 20260831 {
		t.Errorf("DateKeyFor() = %d, want 20260831", got)
	}
}

func TestWeekdayIndex(t *testing.T) {
	tests := []struct {
		date time.Time
		want int
	}{
		{time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), 0}, // Monday
		{time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC), 2},  // Wednesday
		{time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC), 5},  // Saturday
		{time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC), 6},  // Sunday
	}

	for _, tt := range tests {
		if got := WeekdayIndex(tt.date); got != tt.want {
			t.Errorf("WeekdayIndex(%s) = %d, want %d", tt.date.Weekday(), got, tt.want)
		}
	}
}
