// Package forecast projects daily revenue with an ordinary least-squares
// trend and day-of-week seasonal factors.
package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/pkg/logger"
)

const (
	// ModelMethod names the projection method in reports.
	ModelMethod = "Linear Regression with DOW Seasonality"

	minHorizon     = 7
	maxHorizon     = 90
	defaultHorizon = 30

	// boundShare is the half-width of the confidence band as a fraction of
	// mean historical revenue.
	boundShare = 0.10
)

// Forecaster fits a trend over zero-filled daily history and projects a
// bounded forecast.
type Forecaster struct {
	minPoints int
	logger    *logger.Logger
}

// NewForecaster creates a forecaster. minPoints is the minimum number of
// history days required before projecting (typically 30).
func NewForecaster(minPoints int, log *logger.Logger) *Forecaster {
	return &Forecaster{minPoints: minPoints, logger: log}
}

// History builds the zero-filled daily revenue series for the calendar
// days given, summing non-cancelled orders by date key. Every calendar day
// appears exactly once, in date order, regardless of order activity.
func History(days []contracts.CalendarDay, orders []contracts.Order) []contracts.DailyRevenue {
	type daySums struct {
		revenue float64
		orders  int
	}
	byKey := make(map[int]*daySums)
	for i := range orders {
		o := &orders[i]
		if o.IsCancelled() {
			continue
		}
		s, ok := byKey[o.DateKey]
		if !ok {
			s = &daySums{}
			byKey[o.DateKey] = s
		}
		amount, _ := o.TotalAmount.Float64()
		s.revenue += amount
		s.orders++
	}

	series := make([]contracts.DailyRevenue, 0, len(days))
	for _, d := range days {
		point := contracts.DailyRevenue{Date: d.Date}
		if s, ok := byKey[d.DateKey]; ok {
			point.Revenue = s.revenue
			point.Orders = s.orders
		}
		series = append(series, point)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series
}

// Forecast fits trend and seasonality over history and projects horizon
// days past the last history date. lastYear is the recorded revenue for
// the same calendar window one year prior; pass 0 when unknown. Returns
// ErrInsufficientData when history is shorter than the configured minimum.
func (f *Forecaster) Forecast(history []contracts.DailyRevenue, horizon int, lastYear float64) (*contracts.ForecastReport, error) {
	n := len(history)
	if n < f.minPoints {
		return nil, contracts.ErrInsufficientData
	}
	horizon = clampHorizon(horizon)

	slope, intercept := fitTrend(history)
	factors, mean := seasonalFactors(history)

	lastDate := history[n-1].Date
	points := make([]contracts.ForecastPoint, 0, horizon)
	total := 0.0

	for i := 1; i <= horizon; i++ {
		date := lastDate.AddDate(0, 0, i)
		weekday := contracts.WeekdayIndex(date)
		point := contracts.ForecastPoint{
			Date:      date,
			DayOfWeek: date.Weekday().String(),
		}

		value := (intercept + slope*float64(n-1+i)) * factors[weekday]
		if isFinite(value) {
			lower := math.Max(0, value-boundShare*mean)
			upper := value + boundShare*mean
			point.Predicted = f64ptr(round2(value))
			point.LowerBound = f64ptr(round2(lower))
			point.UpperBound = f64ptr(round2(upper))
			total += value
		}
		points = append(points, point)
	}

	summary := contracts.ForecastSummary{
		TotalPredicted:  round2(total),
		AvgDailyRevenue: round2(total / float64(horizon)),
		LastYearRevenue: round2(lastYear),
	}
	if lastYear > 0 {
		change := (total - lastYear) / lastYear * 100
		if isFinite(change) {
			summary.YoYChange = f64ptr(round2(change))
		}
	}

	model := contracts.ForecastModelInfo{
		Method:       ModelMethod,
		TrainingDays: n,
	}
	if isFinite(slope) {
		model.TrendSlope = f64ptr(round2(slope))
	}

	f.logger.WithFields(map[string]interface{}{
		"training_days": n,
		"horizon":       horizon,
	}).Info("sales forecast computed")

	return &contracts.ForecastReport{Points: points, Summary: summary, Model: model}, nil
}

// fitTrend returns the closed-form OLS slope and intercept of revenue
// over the index sequence t = 0..n-1.
func fitTrend(history []contracts.DailyRevenue) (slope, intercept float64) {
	n := float64(len(history))
	var sumT, sumY, sumTY, sumTT float64
	for i, p := range history {
		t := float64(i)
		sumT += t
		sumY += p.Revenue
		sumTY += t * p.Revenue
		sumTT += t * t
	}

	denom := n*sumTT - sumT*sumT
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumTY - sumT*sumY) / denom
	intercept = (sumY - slope*sumT) / n
	return slope, intercept
}

// seasonalFactors returns a factor per Monday-based weekday, computed as
// mean(revenue on weekday) / mean(all revenue). Weekdays absent from
// history, or a zero overall mean, yield a neutral factor of 1.
func seasonalFactors(history []contracts.DailyRevenue) ([7]float64, float64) {
	var sums [7]float64
	var counts [7]int
	total := 0.0
	for _, p := range history {
		w := contracts.WeekdayIndex(p.Date)
		sums[w] += p.Revenue
		counts[w]++
		total += p.Revenue
	}

	mean := total / float64(len(history))

	var factors [7]float64
	for w := range factors {
		factors[w] = 1
		if counts[w] > 0 && mean > 0 {
			f := (sums[w] / float64(counts[w])) / mean
			if isFinite(f) {
				factors[w] = f
			}
		}
	}
	return factors, mean
}

func clampHorizon(h int) int {
	switch {
	case h == 0:
		return defaultHorizon
	case h < minHorizon:
		return minHorizon
	case h > maxHorizon:
		return maxHorizon
	}
	return h
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func f64ptr(v float64) *float64 { return &v }

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// YearAgoWindow returns the same calendar window one year before the
// horizon window that starts the day after lastHistoryDate.
func YearAgoWindow(lastHistoryDate time.Time, horizon int) (start, end time.Time) {
	horizon = clampHorizon(horizon)
	start = lastHistoryDate.AddDate(-1, 0, 1)
	end = start.AddDate(0, 0, horizon-1)
	return start, end
}
