package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/internal/forecast"
	"github.com/cortexbi/cortex/pkg/logger"
	"github.com/cortexbi/cortex/pkg/redis"
)

// ForecastWarmJob precomputes the default sales forecast into the cache
// each morning so the first dashboard request of the day does not pay for
// the fit.
type ForecastWarmJob struct {
	forecaster *forecast.Forecaster
	calendar   contracts.CalendarSource
	orders     contracts.OrderSource
	cache      *redis.Cache

	historyDays int
	cacheTTL    time.Duration

	logger *logger.Logger
}

func NewForecastWarmJob(
	forecaster *forecast.Forecaster,
	calendar contracts.CalendarSource,
	orders contracts.OrderSource,
	cache *redis.Cache,
	historyDays int,
	cacheTTL time.Duration,
	log *logger.Logger,
) *ForecastWarmJob {
	return &ForecastWarmJob{
		forecaster:  forecaster,
		calendar:    calendar,
		orders:      orders,
		cache:       cache,
		historyDays: historyDays,
		cacheTTL:    cacheTTL,
		logger:      log,
	}
}

func (j *ForecastWarmJob) Name() string {
	return "forecast_warm"
}

// Schedule runs at 4 AM daily, after the recompute.
func (j *ForecastWarmJob) Schedule() string {
	return "0 0 4 * * *"
}

func (j *ForecastWarmJob) Run(ctx context.Context) error {
	report, err := j.forecaster.BuildReport(ctx, j.calendar, j.orders, j.historyDays, 0)
	if err != nil {
		if errors.Is(err, contracts.ErrInsufficientData) {
			j.logger.Warn("forecast warm skipped: insufficient history")
			return nil
		}
		return err
	}

	if err := j.cache.Set(ctx, "forecast:sales:30", report, j.cacheTTL); err != nil {
		return fmt.Errorf("cache forecast: %w", err)
	}

	j.logger.WithField("training_days", report.Model.TrainingDays).Info("Forecast cache warmed")
	return nil
}
