package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cortexbi/cortex/internal/churn"
	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/internal/forecast"
	"github.com/cortexbi/cortex/internal/insights"
	"github.com/cortexbi/cortex/pkg/logger"
	"github.com/cortexbi/cortex/pkg/redis"
)

// lowStockUnits is the stock level below which a class A product counts
// as critically low.
const lowStockUnits = 10

// PredictionHandler serves the forecast and recommendation endpoints.
type PredictionHandler struct {
	forecaster *forecast.Forecaster
	calendar   contracts.CalendarSource
	orders     contracts.OrderSource
	customers  contracts.CustomerSource
	products   contracts.ProductSource

	churn    *churn.Scorer
	insights *insights.Engine

	historyDays int
	cache       *redis.Cache
	cacheTTL    time.Duration
	logger      *logger.Logger
}

// NewPredictionHandler creates a new prediction handler.
func NewPredictionHandler(
	forecaster *forecast.Forecaster,
	calendar contracts.CalendarSource,
	orders contracts.OrderSource,
	customers contracts.CustomerSource,
	products contracts.ProductSource,
	churnScorer *churn.Scorer,
	insightsEngine *insights.Engine,
	historyDays int,
	cache *redis.Cache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *PredictionHandler {
	return &PredictionHandler{
		forecaster:  forecaster,
		calendar:    calendar,
		orders:      orders,
		customers:   customers,
		products:    products,
		churn:       churnScorer,
		insights:    insightsEngine,
		historyDays: historyDays,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      log,
	}
}

// GetSalesForecast projects daily revenue over the requested horizon.
// GET /api/predictions/sales?days=30
func (h *PredictionHandler) GetSalesForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	days := queryInt(r, "days", 0)

	cacheKey := fmt.Sprintf("forecast:sales:%d", days)
	var cached contracts.ForecastReport
	if hit, _ := h.cache.Get(ctx, cacheKey, &cached); hit {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	report, err := h.forecaster.BuildReport(ctx, h.calendar, h.orders, h.historyDays, days)
	if err != nil {
		if errors.Is(err, contracts.ErrInsufficientData) {
			respondError(w, http.StatusUnprocessableEntity, "not enough sales history to fit a forecast")
			return
		}
		h.logger.WithError(err).Error("Failed to build forecast")
		respondError(w, http.StatusInternalServerError, "failed to build forecast")
		return
	}

	if err := h.cache.Set(ctx, cacheKey, report, h.cacheTTL); err != nil {
		h.logger.WithError(err).Warn("Failed to cache forecast")
	}
	respondJSON(w, http.StatusOK, report)
}

// GetRecommendations evaluates the recommendation rules over the current
// population.
// GET /api/predictions/recommendations
func (h *PredictionHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customers, err := h.customers.CustomersWithOrders(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load customers")
		respondError(w, http.StatusInternalServerError, "failed to load customers")
		return
	}
	products, err := h.products.AllProducts(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load products")
		respondError(w, http.StatusInternalServerError, "failed to load products")
		return
	}

	stats := insights.PopulationStats{
		AtRiskCustomers: h.churn.Report(customers).AtRiskCount,
	}
	for i := range customers {
		if customers[i].IsChurned && customers[i].IsVIP {
			stats.ChurnedVIPs++
		}
	}
	for i := range products {
		p := &products[i]
		if p.ABC != nil && *p.ABC == contracts.ClassA && p.StockQuantity < lowStockUnits {
			stats.LowStockClassA++
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": h.insights.Recommendations(stats, time.Now().UTC()),
	})
}
