package contracts

import "time"

// ForecastPoint is one projected day. Predicted is nil when the model
// produced a non-finite value; such values are suppressed, never emitted.
type ForecastPoint struct {
	Date       time.Time `json:"date"`
	Predicted  *float64  `json:"predicted_revenue"`
	LowerBound *float64  `json:"lower_bound"`
	UpperBound *float64  `json:"upper_bound"`
	DayOfWeek  string    `json:"day_of_week"`
}

// ForecastSummary aggregates the projection and compares it with the same
// calendar window one year prior. YoYChange is nil when last year has no
// recorded revenue for the window.
type ForecastSummary struct {
	TotalPredicted  float64  `json:"total_predicted_revenue"`
	AvgDailyRevenue float64  `json:"avg_daily_revenue"`
	LastYearRevenue float64  `json:"last_year_same_period"`
	YoYChange       *float64 `json:"yoy_change"`
}

// ForecastModelInfo describes how the projection was produced.
type ForecastModelInfo struct {
	Method       string   `json:"method"`
	TrainingDays int      `json:"training_days"`
	TrendSlope   *float64 `json:"trend_slope"`
}

// ForecastReport is the full sales forecast payload.
type ForecastReport struct {
	Points  []ForecastPoint   `json:"predictions"`
	Summary ForecastSummary   `json:"summary"`
	Model   ForecastModelInfo `json:"model_info"`
}

// DailyRevenue is one day of zero-filled revenue history fed to the
// forecaster.
type DailyRevenue struct {
	Date    time.Time `json:"date"`
	Revenue float64   `json:"revenue"`
	Orders  int       `json:"orders"`
}
