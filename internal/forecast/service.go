package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cortexbi/cortex/internal/contracts"
)

// BuildReport loads the trailing historyDays of zero-filled daily revenue
// from the warehouse and projects horizon days forward. The same-window
// revenue one year earlier feeds the YoY comparison.
func (f *Forecaster) BuildReport(
	ctx context.Context,
	calendar contracts.CalendarSource,
	orders contracts.OrderSource,
	historyDays, horizon int,
) (*contracts.ForecastReport, error) {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -(historyDays - 1))

	days, err := calendar.DaysInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load calendar: %w", err)
	}
	rangeOrders, err := orders.OrdersInRange(ctx, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	history := History(days, rangeOrders)

	lastYear := 0.0
	if len(history) > 0 {
		yStart, yEnd := YearAgoWindow(history[len(history)-1].Date, horizon)
		lastOrders, err := orders.OrdersInRange(ctx, yStart, yEnd.AddDate(0, 0, 1))
		if err != nil {
			return nil, fmt.Errorf("load last-year orders: %w", err)
		}
		total := decimal.Zero
		for i := range lastOrders {
			if !lastOrders[i].IsCancelled() {
				total = total.Add(lastOrders[i].TotalAmount)
			}
		}
		lastYear, _ = total.Float64()
	}

	return f.Forecast(history, horizon, lastYear)
}
