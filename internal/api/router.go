package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/cortexbi/cortex/internal/api/handlers"
	"github.com/cortexbi/cortex/pkg/logger"
)

// Request rate limit across all endpoints.
const (
	requestsPerSecond = 50
	requestBurst      = 100
)

// Handlers bundles the endpoint handlers wired into the router.
type Handlers struct {
	Dashboard   *handlers.DashboardHandler
	Customers   *handlers.CustomerHandler
	Products    *handlers.ProductHandler
	Orders      *handlers.OrderHandler
	Campaigns   *handlers.CampaignHandler
	Predictions *handlers.PredictionHandler
	Ops         *handlers.OpsHandler
	Live        *handlers.LiveHandler
}

// NewRouter creates and configures the HTTP router.
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Live KPI stream (outside the rate-limited API prefix)
	r.HandleFunc("/ws/kpis", h.Live.ServeKPIs).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Dashboard
	api.HandleFunc("/dashboard/kpis", h.Dashboard.GetKPIs).Methods("GET")
	api.HandleFunc("/dashboard/revenue-series", h.Dashboard.GetRevenueSeries).Methods("GET")
	api.HandleFunc("/dashboard/top-products", h.Dashboard.GetTopProducts).Methods("GET")
	api.HandleFunc("/dashboard/top-channels", h.Dashboard.GetTopChannels).Methods("GET")
	api.HandleFunc("/dashboard/alerts", h.Dashboard.GetAlerts).Methods("GET")

	// Customers and cohorts
	api.HandleFunc("/customers/segments", h.Customers.GetSegments).Methods("GET")
	api.HandleFunc("/customers/churn-risk", h.Customers.GetChurnRisk).Methods("GET")
	api.HandleFunc("/customers/{id:[0-9]+}", h.Customers.GetCustomer).Methods("GET")
	api.HandleFunc("/cohorts/retention", h.Customers.GetRetention).Methods("GET")
	api.HandleFunc("/cohorts/ltv", h.Customers.GetCohortLTV).Methods("GET")

	// Products
	api.HandleFunc("/products/abc", h.Products.GetABC).Methods("GET")

	// Orders
	api.HandleFunc("/orders/heatmap", h.Orders.GetHeatmap).Methods("GET")
	api.HandleFunc("/orders/comparison", h.Orders.GetComparison).Methods("GET")

	// Campaigns
	api.HandleFunc("/campaigns/performance", h.Campaigns.GetPerformance).Methods("GET")
	api.HandleFunc("/campaigns/funnel", h.Campaigns.GetFunnel).Methods("GET")
	api.HandleFunc("/campaigns/attribution", h.Campaigns.GetAttribution).Methods("GET")
	api.HandleFunc("/campaigns/roas-by-platform", h.Campaigns.GetROASByPlatform).Methods("GET")
	api.HandleFunc("/campaigns/spend-revenue", h.Campaigns.GetSpendRevenue).Methods("GET")

	// Predictions
	api.HandleFunc("/predictions/sales", h.Predictions.GetSalesForecast).Methods("GET")
	api.HandleFunc("/predictions/recommendations", h.Predictions.GetRecommendations).Methods("GET")

	// Pipeline and jobs
	api.HandleFunc("/pipeline/run", h.Ops.RunPipeline).Methods("POST")
	api.HandleFunc("/jobs", h.Ops.GetJobs).Methods("GET")
	api.HandleFunc("/jobs/{name}/history", h.Ops.GetJobHistory).Methods("GET")
	api.HandleFunc("/jobs/{name}/run", h.Ops.TriggerJob).Methods("POST")

	api.Use(rateLimitMiddleware(rate.NewLimiter(requestsPerSecond, requestBurst)))

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "cortex-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware sheds load once the shared token bucket is empty.
func rateLimitMiddleware(limiter *rate.Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "rate limit exceeded",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
