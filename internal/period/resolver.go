// Package period maps symbolic period tokens onto absolute date ranges
// and their immediately preceding comparison windows.
package period

import "time"

// Known period tokens.
const (
	Token7d  = "7d"
	Token30d = "30d"
	Token60d = "60d"
	Token90d = "90d"
	Token1y  = "1y"

	// DefaultToken is used for empty or unrecognized tokens. Lenient by
	// policy: an unknown token is not an error.
	DefaultToken = Token30d
)

var tokenDays = map[string]int{
	Token7d:  7,
	Token30d: 30,
	Token60d: 60,
	Token90d: 90,
	Token1y:  365,
}

// Range is an inclusive date window.
type Range struct {
	Start time.Time
	End   time.Time
}

// Days returns the window length in days.
func (r Range) Days() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

// Contains reports whether t falls inside the window (inclusive bounds).
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Comparison returns the equal-length window immediately preceding this
// one, as a half-open interval [Start, End): its End equals this range's
// Start, excluded from the comparison itself.
func (r Range) Comparison() Range {
	length := r.End.Sub(r.Start)
	return Range{
		Start: r.Start.Add(-length),
		End:   r.Start,
	}
}

// ContainsHalfOpen reports whether t falls in [Start, End). Used for
// comparison windows so the boundary day is never counted twice.
func (r Range) ContainsHalfOpen(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Resolve maps a symbolic token onto an absolute range ending at ref.
// Unrecognized tokens resolve to the 30-day default.
func Resolve(token string, ref time.Time) Range {
	days, ok := tokenDays[token]
	if !ok {
		days = tokenDays[DefaultToken]
	}

	end := truncateDay(ref)
	return Range{
		Start: end.AddDate(0, 0, -days),
		End:   end,
	}
}

// Explicit builds a range from an explicit (start, end) pair, normalizing
// both to day precision.
func Explicit(start, end time.Time) Range {
	return Range{
		Start: truncateDay(start),
		End:   truncateDay(end),
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
