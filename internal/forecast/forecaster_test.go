package forecast

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/pkg/config"
	"github.com/cortexbi/cortex/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

// linearHistory builds n days ending 2025-06-30 with revenue = base + inc*t.
func linearHistory(n int, base, inc float64) []contracts.DailyRevenue {
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	series := make([]contracts.DailyRevenue, 0, n)
	for t := 0; t < n; t++ {
		series = append(series, contracts.DailyRevenue{
			Date:    end.AddDate(0, 0, t-(n-1)),
			Revenue: base + inc*float64(t),
		})
	}
	return series
}

func TestFitTrendRecoversSlope(t *testing.T) {
	// Strictly increasing series with constant increment: the recovered
	// slope equals the true per-day increment.
	history := linearHistory(60, 100, 5)
	slope, intercept := fitTrend(history)
	assert.InDelta(t, 5.0, slope, 1e-9)
	assert.InDelta(t, 100.0, intercept, 1e-9)
}

func TestFitTrendFlatSeries(t *testing.T) {
	slope, intercept := fitTrend(linearHistory(30, 250, 0))
	assert.InDelta(t, 0.0, slope, 1e-9)
	assert.InDelta(t, 250.0, intercept, 1e-9)
}

func TestSeasonalFactorsNeutralOnLinearWeeks(t *testing.T) {
	// 70 days of identical revenue: every weekday factor is exactly 1.
	factors, mean := seasonalFactors(linearHistory(70, 300, 0))
	assert.InDelta(t, 300.0, mean, 1e-9)
	for w, f := range factors {
		assert.InDeltaf(t, 1.0, f, 1e-9, "weekday %d", w)
	}
}

func TestSeasonalFactorsZeroMean(t *testing.T) {
	factors, mean := seasonalFactors(linearHistory(30, 0, 0))
	assert.Equal(t, 0.0, mean)
	for _, f := range factors {
		assert.Equal(t, 1.0, f)
	}
}

func TestForecastLinearSeries(t *testing.T) {
	f := NewForecaster(30, testLogger())
	history := linearHistory(60, 100, 5)

	report, err := f.Forecast(history, 7, 0)
	require.NoError(t, err)
	require.Len(t, report.Points, 7)

	require.NotNil(t, report.Model.TrendSlope)
	assert.InDelta(t, 5.0, *report.Model.TrendSlope, 0.01)
	assert.Equal(t, ModelMethod, report.Model.Method)
	assert.Equal(t, 60, report.Model.TrainingDays)

	// Weekday factors reshape individual days, but the projection stays
	// within the envelope of the trend across one seasonal cycle.
	first := report.Points[0]
	require.NotNil(t, first.Predicted)
	trend := 100 + 5*60.0
	assert.Greater(t, *first.Predicted, trend*0.9)
	assert.Less(t, *first.Predicted, trend*1.1)

	// The band half-width is 10% of mean history on both sides.
	mean := 100 + 5*59.0/2
	require.NotNil(t, first.LowerBound)
	require.NotNil(t, first.UpperBound)
	assert.InDelta(t, 0.2*mean, *first.UpperBound-*first.LowerBound, 0.01)

	// Dates continue day by day after the last history date.
	assert.Equal(t, history[len(history)-1].Date.AddDate(0, 0, 1), first.Date)
	assert.Equal(t, first.Date.Weekday().String(), first.DayOfWeek)
}

func TestForecastFlatSeriesExactValues(t *testing.T) {
	// A flat series has neutral weekday factors, so every projected day is
	// the series level with symmetric bounds.
	f := NewForecaster(30, testLogger())
	report, err := f.Forecast(linearHistory(56, 400, 0), 14, 0)
	require.NoError(t, err)
	require.Len(t, report.Points, 14)

	for _, p := range report.Points {
		require.NotNil(t, p.Predicted)
		assert.InDelta(t, 400.0, *p.Predicted, 0.01)
		assert.InDelta(t, 360.0, *p.LowerBound, 0.01)
		assert.InDelta(t, 440.0, *p.UpperBound, 0.01)
	}

	assert.InDelta(t, 5600.0, report.Summary.TotalPredicted, 0.1)
	assert.InDelta(t, 400.0, report.Summary.AvgDailyRevenue, 0.01)
}

func TestForecastInsufficientHistory(t *testing.T) {
	f := NewForecaster(30, testLogger())
	_, err := f.Forecast(linearHistory(29, 100, 1), 30, 0)
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
}

func TestForecastLowerBoundFloorsAtZero(t *testing.T) {
	// Near-zero flat revenue: lower bound clamps to 0 instead of going
	// negative.
	f := NewForecaster(30, testLogger())
	report, err := f.Forecast(linearHistory(30, 1, 0), 7, 0)
	require.NoError(t, err)

	for _, p := range report.Points {
		require.NotNil(t, p.LowerBound)
		assert.GreaterOrEqual(t, *p.LowerBound, 0.0)
	}
}

func TestForecastDecliningTrendBounds(t *testing.T) {
	// A declining trend may project below zero; the lower bound still
	// never does.
	f := NewForecaster(30, testLogger())
	report, err := f.Forecast(linearHistory(40, 100, -3), 30, 0)
	require.NoError(t, err)

	for _, p := range report.Points {
		if p.LowerBound != nil {
			assert.GreaterOrEqual(t, *p.LowerBound, 0.0)
		}
	}
}

func TestForecastYoY(t *testing.T) {
	f := NewForecaster(30, testLogger())

	report, err := f.Forecast(linearHistory(30, 100, 0), 7, 350)
	require.NoError(t, err)
	require.NotNil(t, report.Summary.YoYChange)
	assert.InDelta(t, 100.0, *report.Summary.YoYChange, 0.01) // 700 vs 350

	report, err = f.Forecast(linearHistory(30, 100, 0), 7, 0)
	require.NoError(t, err)
	assert.Nil(t, report.Summary.YoYChange, "no YoY without last-year revenue")
}

func TestForecastHorizonClamp(t *testing.T) {
	f := NewForecaster(30, testLogger())
	history := linearHistory(60, 100, 1)

	tests := []struct {
		in, want int
	}{
		{0, 30},
		{3, 7},
		{45, 45},
		{365, 90},
	}
	for _, tt := range tests {
		report, err := f.Forecast(history, tt.in, 0)
		require.NoError(t, err)
		assert.Lenf(t, report.Points, tt.want, "horizon %d", tt.in)
	}
}

func TestHistoryZeroFills(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	days := make([]contracts.CalendarDay, 0, 5)
	for i := 0; i < 5; i++ {
		d := start.AddDate(0, 0, i)
		days = append(days, contracts.CalendarDay{DateKey: contracts.DateKeyFor(d), Date: d})
	}

	cancelled := contracts.Order{ID: 3, DateKey: 20250603, Status: contracts.OrderCancelled, TotalAmount: decimal.NewFromInt(999)}
	orders := []contracts.Order{
		{ID: 1, DateKey: 20250601, Status: contracts.OrderDelivered, TotalAmount: decimal.NewFromInt(100)},
		{ID: 2, DateKey: 20250601, Status: contracts.OrderPaid, TotalAmount: decimal.NewFromInt(50)},
		cancelled,
		{ID: 4, DateKey: 20250605, Status: contracts.OrderShipped, TotalAmount: decimal.NewFromInt(70)},
	}

	series := History(days, orders)
	require.Len(t, series, 5)

	assert.InDelta(t, 150.0, series[0].Revenue, 1e-9)
	assert.Equal(t, 2, series[0].Orders)
	assert.InDelta(t, 0.0, series[1].Revenue, 1e-9)
	assert.InDelta(t, 0.0, series[2].Revenue, 1e-9, "cancelled order contributes nothing")
	assert.InDelta(t, 70.0, series[4].Revenue, 1e-9)
}

func TestYearAgoWindow(t *testing.T) {
	last := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	start, end := YearAgoWindow(last, 30)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 7, 30, 0, 0, 0, 0, time.UTC), end)
}
