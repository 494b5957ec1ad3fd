package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cortexbi/cortex/internal/api"
	"github.com/cortexbi/cortex/internal/api/handlers"
	"github.com/cortexbi/cortex/internal/kpi"
	"github.com/cortexbi/cortex/internal/period"
	"github.com/cortexbi/cortex/internal/scheduler"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Start the analytics REST API server.

Endpoints:
  GET  /health                           - Health check
  GET  /api/dashboard/kpis               - Headline KPIs for a period
  GET  /api/dashboard/revenue-series     - Daily revenue series
  GET  /api/dashboard/top-products       - Product revenue ranking
  GET  /api/dashboard/top-channels       - Channel revenue share
  GET  /api/dashboard/alerts             - Week-over-week alerts
  GET  /api/customers/segments           - RFM segment distribution
  GET  /api/customers/churn-risk         - Churn risk cohorts
  GET  /api/customers/{id}               - One customer
  GET  /api/cohorts/retention            - Retention grid
  GET  /api/cohorts/ltv                  - LTV by acquisition channel
  GET  /api/products/abc                 - ABC classification
  GET  /api/orders/heatmap               - Orders by weekday and hour
  GET  /api/orders/comparison            - Standard period comparison
  GET  /api/campaigns/performance        - Campaign spend vs attribution
  GET  /api/campaigns/funnel             - Funnel stage aggregates
  GET  /api/campaigns/attribution        - Attribution breakdown
  GET  /api/campaigns/roas-by-platform   - ROAS per ad platform
  GET  /api/campaigns/spend-revenue      - Daily spend vs revenue trend
  GET  /api/predictions/sales            - Sales forecast
  GET  /api/predictions/recommendations  - Action recommendations
  POST /api/pipeline/run                 - Trigger a recompute
  GET  /ws/kpis                          - Live KPI stream

Example:
  go run ./cmd/cortex api
  go run ./cmd/cortex api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", true, "run the job scheduler alongside the API")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Cortex API Server ===")

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	log := a.log
	log.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"env":  a.cfg.Env,
	}).Info("Initializing API server")

	ttl := a.cfg.Analytics.CacheTTL

	dashboard := handlers.NewDashboardHandler(
		a.orders, a.campaigns, a.channels, a.calendar, a.products, a.customers,
		a.aggregator, a.insights, a.cache, ttl, log,
	)
	customers := handlers.NewCustomerHandler(
		a.customers, a.orders, a.segmentation, a.churn, a.cohorts, a.cache, ttl, log,
	)
	products := handlers.NewProductHandler(a.products, a.classifier, log)
	orderAnalytics := handlers.NewOrderHandler(a.orders, a.aggregator, log)
	campaigns := handlers.NewCampaignHandler(a.campaigns, a.orders, a.channels, a.attributions, a.aggregator, log)
	predictions := handlers.NewPredictionHandler(
		a.forecaster, a.calendar, a.orders, a.customers, a.products,
		a.churn, a.insights, a.cfg.Analytics.ForecastHistoryDays, a.cache, ttl, log,
	)

	var sched *scheduler.Scheduler
	if apiWithScheduler {
		sched, err = a.newScheduler()
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	ops := handlers.NewOpsHandler(a.orchestrator, sched, log)

	live := handlers.NewLiveHandler(func(ctx context.Context) (interface{}, error) {
		token := period.DefaultToken
		rng := period.Resolve(token, time.Now().UTC())
		prev := rng.Comparison()

		orders, err := a.orders.OrdersInRange(ctx, prev.Start, rng.End.AddDate(0, 0, 1))
		if err != nil {
			return nil, err
		}
		spend, err := a.campaigns.SpendInRange(ctx, prev.Start, rng.End.AddDate(0, 0, 1))
		if err != nil {
			return nil, err
		}
		allCampaigns, err := a.campaigns.AllCampaigns(ctx)
		if err != nil {
			return nil, err
		}
		return a.aggregator.Aggregate(token, rng, orders, spend, allCampaigns, kpi.Filters{}), nil
	}, 10*time.Second, log)

	router := api.NewRouter(api.Handlers{
		Dashboard:   dashboard,
		Customers:   customers,
		Products:    products,
		Orders:      orderAnalytics,
		Campaigns:   campaigns,
		Predictions: predictions,
		Ops:         ops,
		Live:        live,
	}, log)

	server := api.New(a.cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\nServer running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
