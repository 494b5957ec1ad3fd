package commands

import (
	"fmt"

	"github.com/cortexbi/cortex/internal/abc"
	"github.com/cortexbi/cortex/internal/attribution"
	"github.com/cortexbi/cortex/internal/churn"
	"github.com/cortexbi/cortex/internal/cohort"
	"github.com/cortexbi/cortex/internal/forecast"
	"github.com/cortexbi/cortex/internal/insights"
	"github.com/cortexbi/cortex/internal/kpi"
	"github.com/cortexbi/cortex/internal/pipeline"
	"github.com/cortexbi/cortex/internal/scheduler"
	"github.com/cortexbi/cortex/internal/scheduler/jobs"
	"github.com/cortexbi/cortex/internal/segmentation"
	"github.com/cortexbi/cortex/internal/warehouse"
	"github.com/cortexbi/cortex/pkg/config"
	"github.com/cortexbi/cortex/pkg/database"
	"github.com/cortexbi/cortex/pkg/logger"
	"github.com/cortexbi/cortex/pkg/redis"
)

// app bundles the shared dependency graph behind every command: config,
// infrastructure clients, repositories and engines.
type app struct {
	cfg *config.Config
	log *logger.Logger

	db          *database.DB
	redisClient *redis.Client
	cache       *redis.Cache

	customers    *warehouse.CustomerRepository
	orders       *warehouse.OrderRepository
	products     *warehouse.ProductRepository
	campaigns    *warehouse.CampaignRepository
	channels     *warehouse.ChannelRepository
	calendar     *warehouse.CalendarRepository
	cohortStore  *warehouse.CohortRepository
	attributions *warehouse.AttributionRepository

	aggregator   *kpi.Aggregator
	segmentation *segmentation.Engine
	churn        *churn.Scorer
	cohorts      *cohort.Engine
	classifier   *abc.Classifier
	forecaster   *forecast.Forecaster
	matcher      *attribution.Matcher
	insights     *insights.Engine

	orchestrator *pipeline.Orchestrator
}

// initApp loads config and wires the full dependency graph.
func initApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	a := &app{
		cfg:         cfg,
		log:         log,
		db:          db,
		redisClient: redisClient,
		cache:       redis.NewCache(redisClient, "cortex"),

		customers:    warehouse.NewCustomerRepository(db.Pool),
		orders:       warehouse.NewOrderRepository(db.Pool),
		products:     warehouse.NewProductRepository(db.Pool),
		campaigns:    warehouse.NewCampaignRepository(db.Pool),
		channels:     warehouse.NewChannelRepository(db.Pool),
		calendar:     warehouse.NewCalendarRepository(db.Pool),
		cohortStore:  warehouse.NewCohortRepository(db.Pool),
		attributions: warehouse.NewAttributionRepository(db.Pool),

		aggregator:   kpi.NewAggregator(log),
		segmentation: segmentation.NewEngine(cfg.Analytics.VIPPercentile, log),
		churn:        churn.NewScorer(cfg.Analytics.ChurnDays, log),
		cohorts:      cohort.NewEngine(log),
		classifier:   abc.NewClassifier(log),
		forecaster:   forecast.NewForecaster(cfg.Analytics.ForecastMinPoints, log),
		matcher:      attribution.NewMatcher(log),
		insights:     insights.NewEngine(log),
	}

	a.orchestrator = pipeline.NewOrchestrator(
		a.segmentation, a.cohorts, a.classifier, a.churn, a.matcher,
		pipeline.Sources{
			Customers: a.customers,
			Orders:    a.orders,
			Products:  a.products,
			Campaigns: a.campaigns,
		},
		pipeline.Sinks{
			CustomerScores: a.customers,
			ProductClasses: a.products,
			Cohorts:        a.cohortStore,
			Attributions:   a.attributions,
		},
		log,
	)

	return a, nil
}

// Close releases the infrastructure clients.
func (a *app) Close() {
	if a.redisClient != nil {
		a.redisClient.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// newScheduler registers the recurring jobs on a fresh scheduler.
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	if err := sched.AddJob(jobs.NewRecomputeJob(a.orchestrator, a.cache, a.log)); err != nil {
		return nil, fmt.Errorf("register recompute job: %w", err)
	}
	warm := jobs.NewForecastWarmJob(
		a.forecaster, a.calendar, a.orders, a.cache,
		a.cfg.Analytics.ForecastHistoryDays, a.cfg.Analytics.CacheTTL, a.log,
	)
	if err := sched.AddJob(warm); err != nil {
		return nil, fmt.Errorf("register forecast warm job: %w", err)
	}

	return sched, nil
}
