package kpi

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/internal/period"
)

// Heatmap buckets non-cancelled orders in the window by weekday and hour
// of day, ordered Sunday 00:00 first. Empty slots are not emitted.
func (a *Aggregator) Heatmap(r period.Range, orders []contracts.Order) []contracts.HeatmapCell {
	type slot struct {
		dow  int
		hour int
	}
	cells := make(map[slot]*contracts.HeatmapCell)
	for i := range orders {
		o := &orders[i]
		if o.IsCancelled() || !r.Contains(o.CreatedAt) {
			continue
		}
		created := o.CreatedAt.UTC()
		k := slot{dow: int(created.Weekday()), hour: created.Hour()}
		cell, ok := cells[k]
		if !ok {
			cell = &contracts.HeatmapCell{DayOfWeek: k.dow, Hour: k.hour, Revenue: decimal.Zero}
			cells[k] = cell
		}
		cell.Orders++
		cell.Revenue = cell.Revenue.Add(o.TotalAmount)
	}

	out := make([]contracts.HeatmapCell, 0, len(cells))
	for _, cell := range cells {
		out = append(out, *cell)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].Hour < out[j].Hour
	})
	return out
}

// comparisonWindows are the named date windows of the period comparison,
// all inclusive of their end date.
func comparisonWindows(today time.Time) map[string]period.Range {
	firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonthEnd := firstOfMonth.AddDate(0, 0, -1)
	lastMonthStart := time.Date(lastMonthEnd.Year(), lastMonthEnd.Month(), 1, 0, 0, 0, 0, time.UTC)

	return map[string]period.Range{
		"today":        {Start: today, End: today},
		"yesterday":    {Start: today.AddDate(0, 0, -1), End: today.AddDate(0, 0, -1)},
		"last_7_days":  {Start: today.AddDate(0, 0, -7), End: today},
		"last_30_days": {Start: today.AddDate(0, 0, -30), End: today},
		"this_month":   {Start: firstOfMonth, End: today},
		"last_month":   {Start: lastMonthStart, End: lastMonthEnd},
	}
}

// PeriodComparison tallies non-cancelled order volume over the standard
// comparison windows ending at asOf's date.
func (a *Aggregator) PeriodComparison(orders []contracts.Order, asOf time.Time) map[string]contracts.PeriodSnapshot {
	today := dayOf(asOf)
	windows := comparisonWindows(today)

	customers := make(map[string]map[int64]struct{}, len(windows))
	snapshots := make(map[string]contracts.PeriodSnapshot, len(windows))
	for name := range windows {
		customers[name] = make(map[int64]struct{})
		snapshots[name] = contracts.PeriodSnapshot{Revenue: decimal.Zero}
	}

	for i := range orders {
		o := &orders[i]
		if o.IsCancelled() {
			continue
		}
		day := dayOf(o.CreatedAt)
		for name, w := range windows {
			if day.Before(w.Start) || day.After(w.End) {
				continue
			}
			snap := snapshots[name]
			snap.Orders++
			snap.Revenue = snap.Revenue.Add(o.TotalAmount)
			customers[name][o.CustomerID] = struct{}{}
			snapshots[name] = snap
		}
	}

	for name, snap := range snapshots {
		snap.Customers = len(customers[name])
		snapshots[name] = snap
	}
	return snapshots
}
