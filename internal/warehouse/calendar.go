package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cortexbi/cortex/internal/contracts"
)

// CalendarRepository implements contracts.CalendarSource on dim_dates.
type CalendarRepository struct {
	pool *pgxpool.Pool
}

func NewCalendarRepository(pool *pgxpool.Pool) *CalendarRepository {
	return &CalendarRepository{pool: pool}
}

// DaysInRange loads the date dimension for [from, to] inclusive, one row
// per calendar day in date order.
func (r *CalendarRepository) DaysInRange(ctx context.Context, from, to time.Time) ([]contracts.CalendarDay, error) {
	query := `
		SELECT date_key, full_date, day_of_week, day_of_week_name,
			month_number, quarter, year, is_weekend, is_holiday
		FROM dim_dates
		WHERE full_date >= $1 AND full_date <= $2
		ORDER BY full_date ASC
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query calendar: %w", err)
	}
	defer rows.Close()

	var days []contracts.CalendarDay
	for rows.Next() {
		var d contracts.CalendarDay
		err := rows.Scan(
			&d.DateKey, &d.Date, &d.DayOfWeek, &d.DayName,
			&d.Month, &d.Quarter, &d.Year, &d.IsWeekend, &d.IsHoliday,
		)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}
