package contracts

import "time"

// CalendarDay is one row of the date dimension. Aggregations join on it
// instead of re-deriving calendar math from timestamps, and the forecaster
// uses it to zero-fill days with no orders.
type CalendarDay struct {
	DateKey   int       `json:"date_key"`
	Date      time.Time `json:"full_date"`
	DayOfWeek int       `json:"day_of_week"` // 0 = Monday .. 6 = Sunday
	DayName   string    `json:"day_of_week_name"`
	Month     int       `json:"month_number"`
	Quarter   int       `json:"quarter"`
	Year      int       `json:"year"`
	IsWeekend bool      `json:"is_weekend"`
	IsHoliday bool      `json:"is_holiday"`
}

// DateKeyFor returns the yyyymmdd surrogate key for a date.
func DateKeyFor(d time.Time) int {
	return d.Year()*10000 + int(d.Month())*100 + d.Day()
}

// WeekdayIndex maps a date onto the dimension's Monday-based weekday
// numbering (0 = Monday .. 6 = Sunday).
func WeekdayIndex(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}
