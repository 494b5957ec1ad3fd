package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/cortexbi/cortex/internal/churn"
	"github.com/cortexbi/cortex/internal/cohort"
	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/internal/segmentation"
	"github.com/cortexbi/cortex/pkg/logger"
	"github.com/cortexbi/cortex/pkg/redis"
)

// CustomerHandler serves segment, churn and cohort endpoints over the
// customer population.
type CustomerHandler struct {
	customers contracts.CustomerSource
	orders    contracts.OrderSource

	segmentation *segmentation.Engine
	churn        *churn.Scorer
	cohorts      *cohort.Engine

	cache    *redis.Cache
	cacheTTL time.Duration
	logger   *logger.Logger
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(
	customers contracts.CustomerSource,
	orders contracts.OrderSource,
	segmentationEngine *segmentation.Engine,
	churnScorer *churn.Scorer,
	cohortEngine *cohort.Engine,
	cache *redis.Cache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *CustomerHandler {
	return &CustomerHandler{
		customers:    customers,
		orders:       orders,
		segmentation: segmentationEngine,
		churn:        churnScorer,
		cohorts:      cohortEngine,
		cache:        cache,
		cacheTTL:     cacheTTL,
		logger:       log,
	}
}

// GetSegments returns the RFM segment distribution.
// GET /api/customers/segments
func (h *CustomerHandler) GetSegments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cached []contracts.SegmentSummary
	if hit, _ := h.cache.Get(ctx, "customers:segments", &cached); hit {
		respondJSON(w, http.StatusOK, map[string]interface{}{"segments": cached})
		return
	}

	customers, err := h.customers.CustomersWithOrders(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load customers")
		respondError(w, http.StatusInternalServerError, "failed to load customers")
		return
	}

	summaries := h.segmentation.Summaries(customers)
	if err := h.cache.Set(ctx, "customers:segments", summaries, h.cacheTTL); err != nil {
		h.logger.WithError(err).Warn("Failed to cache segment summaries")
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"segments": summaries})
}

// GetChurnRisk returns the at-risk and high-risk cohorts.
// GET /api/customers/churn-risk
func (h *CustomerHandler) GetChurnRisk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cached contracts.ChurnReport
	if hit, _ := h.cache.Get(ctx, "customers:churn_risk", &cached); hit {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	customers, err := h.customers.CustomersWithOrders(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load customers")
		respondError(w, http.StatusInternalServerError, "failed to load customers")
		return
	}

	report := h.churn.Report(customers)
	if err := h.cache.Set(ctx, "customers:churn_risk", report, h.cacheTTL); err != nil {
		h.logger.WithError(err).Warn("Failed to cache churn report")
	}
	respondJSON(w, http.StatusOK, report)
}

// GetCustomer returns one customer dimension row.
// GET /api/customers/{id}
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	customer, err := h.customers.CustomerByID(ctx, id)
	if err != nil {
		if errors.Is(err, contracts.ErrNotFound) {
			respondError(w, http.StatusNotFound, "customer not found")
			return
		}
		h.logger.WithError(err).Error("Failed to load customer")
		respondError(w, http.StatusInternalServerError, "failed to load customer")
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

// GetRetention returns the cohort retention grid.
// GET /api/cohorts/retention
func (h *CustomerHandler) GetRetention(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cached []contracts.CohortMetric
	if hit, _ := h.cache.Get(ctx, "cohorts:retention", &cached); hit {
		respondJSON(w, http.StatusOK, map[string]interface{}{"cohorts": cached})
		return
	}

	customers, err := h.customers.CustomersWithOrders(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load customers")
		respondError(w, http.StatusInternalServerError, "failed to load customers")
		return
	}
	orders, err := h.orders.AllOrders(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load orders")
		respondError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}

	grid := h.cohorts.Retention(customers, orders, time.Now().UTC())
	if err := h.cache.Set(ctx, "cohorts:retention", grid, h.cacheTTL); err != nil {
		h.logger.WithError(err).Warn("Failed to cache retention grid")
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"cohorts": grid})
}

// GetCohortLTV returns lifetime value by cohort and acquisition channel.
// GET /api/cohorts/ltv
func (h *CustomerHandler) GetCohortLTV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customers, err := h.customers.CustomersWithOrders(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load customers")
		respondError(w, http.StatusInternalServerError, "failed to load customers")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"cohorts": h.cohorts.LTVByChannel(customers),
	})
}
