// Package cohort builds the monthly acquisition cohort retention grid and
// lifetime value summaries.
package cohort

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/pkg/logger"
)

// maxOffset is the last month offset in the retention grid; each cohort is
// observed at offsets 0 through maxOffset inclusive.
const maxOffset = 11

// Engine recomputes the cohort retention grid from a full customer and
// order snapshot.
type Engine struct {
	logger *logger.Logger
}

func NewEngine(log *logger.Logger) *Engine {
	return &Engine{logger: log}
}

type cohortCell struct {
	active  map[int64]struct{}
	orders  int
	revenue decimal.Decimal
}

type cohortWindow struct {
	members map[int64]struct{}
	cells   [maxOffset + 1]cohortCell
}

// Retention computes one grid cell per (cohort month, month offset) pair.
// An order's offset is the number of complete calendar months between its
// customer's own first order and the order, so month windows are anchored
// on each acquisition date, not on the cohort month. Offsets opening after
// asOf are not emitted; zero-size cohorts are skipped entirely.
func (e *Engine) Retention(customers []contracts.Customer, orders []contracts.Order, asOf time.Time) []contracts.CohortMetric {
	cohorts := make(map[time.Time]*cohortWindow)
	cohortOf := make(map[int64]time.Time, len(customers))
	firstOf := make(map[int64]time.Time, len(customers))

	for i := range customers {
		c := &customers[i]
		month, ok := c.CohortMonth()
		if !ok {
			continue
		}
		w, exists := cohorts[month]
		if !exists {
			w = &cohortWindow{members: make(map[int64]struct{})}
			cohorts[month] = w
		}
		w.members[c.ID] = struct{}{}
		cohortOf[c.ID] = month
		firstOf[c.ID] = c.FirstOrderDate.UTC()
	}

	for i := range orders {
		o := &orders[i]
		if o.IsCancelled() {
			continue
		}
		month, ok := cohortOf[o.CustomerID]
		if !ok {
			continue
		}
		offset := monthsSince(firstOf[o.CustomerID], o.CreatedAt.UTC())
		if offset < 0 || offset > maxOffset {
			continue
		}
		cell := &cohorts[month].cells[offset]
		if cell.active == nil {
			cell.active = make(map[int64]struct{})
		}
		cell.active[o.CustomerID] = struct{}{}
		cell.orders++
		cell.revenue = cell.revenue.Add(o.TotalAmount)
	}

	var grid []contracts.CohortMetric
	for month, w := range cohorts {
		size := len(w.members)
		if size == 0 {
			continue
		}

		cumulative := decimal.Zero
		for offset := 0; offset <= maxOffset; offset++ {
			if month.AddDate(0, offset, 0).After(asOf) {
				break
			}
			cell := &w.cells[offset]

			cumulative = cumulative.Add(cell.revenue)
			grid = append(grid, contracts.CohortMetric{
				CohortMonth:            month,
				MonthsSinceAcquisition: offset,
				CohortSize:             size,
				ActiveCustomers:        len(cell.active),
				Orders:                 cell.orders,
				Revenue:                cell.revenue.Round(2),
				RetentionRate:          round2(float64(len(cell.active)) / float64(size) * 100),
				LTV:                    cumulative.Div(decimal.NewFromInt(int64(size))).Round(2),
			})
		}
	}

	sort.Slice(grid, func(i, j int) bool {
		if !grid[i].CohortMonth.Equal(grid[j].CohortMonth) {
			return grid[i].CohortMonth.Before(grid[j].CohortMonth)
		}
		return grid[i].MonthsSinceAcquisition < grid[j].MonthsSinceAcquisition
	})

	e.logger.WithFields(map[string]interface{}{
		"cohorts": len(cohorts),
		"cells":   len(grid),
	}).Info("cohort retention grid computed")

	return grid
}

// LTVByChannel summarises lifetime value per cohort month and acquisition
// channel, using each customer's running totals.
func (e *Engine) LTVByChannel(customers []contracts.Customer) []contracts.CohortLTV {
	type key struct {
		month   time.Time
		channel string
	}
	type sums struct {
		size    int
		revenue decimal.Decimal
		orders  int
	}

	groups := make(map[key]*sums)
	for i := range customers {
		c := &customers[i]
		month, ok := c.CohortMonth()
		if !ok {
			continue
		}
		channel := c.FirstOrderChannel
		if channel == "" {
			channel = "unknown"
		}
		k := key{month: month, channel: channel}
		s, exists := groups[k]
		if !exists {
			s = &sums{revenue: decimal.Zero}
			groups[k] = s
		}
		s.size++
		s.revenue = s.revenue.Add(c.TotalRevenue)
		s.orders += c.TotalOrders
	}

	out := make([]contracts.CohortLTV, 0, len(groups))
	for k, s := range groups {
		out = append(out, contracts.CohortLTV{
			CohortMonth:        k.month,
			AcquisitionChannel: k.channel,
			CohortSize:         s.size,
			TotalLTV:           s.revenue.Round(2),
			AvgLTV:             s.revenue.Div(decimal.NewFromInt(int64(s.size))).Round(2),
			AvgOrders:          round2(float64(s.orders) / float64(s.size)),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CohortMonth.Equal(out[j].CohortMonth) {
			return out[i].CohortMonth.Before(out[j].CohortMonth)
		}
		return out[i].AcquisitionChannel < out[j].AcquisitionChannel
	})

	return out
}

// monthsSince returns the number of complete calendar months elapsed from
// first to at, the way SQL TIMESTAMPDIFF(MONTH, first, at) counts them: the
// raw month difference, less one when at has not yet reached first's day of
// month (or its time of day on the same day). Negative when at precedes
// first.
func monthsSince(first, at time.Time) int {
	months := (at.Year()-first.Year())*12 + int(at.Month()) - int(first.Month())
	switch {
	case at.Day() < first.Day():
		months--
	case at.Day() == first.Day():
		fd := time.Duration(first.Hour())*time.Hour + time.Duration(first.Minute())*time.Minute + time.Duration(first.Second())*time.Second
		ad := time.Duration(at.Hour())*time.Hour + time.Duration(at.Minute())*time.Minute + time.Duration(at.Second())*time.Second
		if ad < fd {
			months--
		}
	}
	return months
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
