package handlers

import (
	"net/http"
	"time"

	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/internal/kpi"
	"github.com/cortexbi/cortex/internal/period"
	"github.com/cortexbi/cortex/pkg/logger"
)

// OrderHandler serves order volume analytics.
type OrderHandler struct {
	orders     contracts.OrderSource
	aggregator *kpi.Aggregator
	logger     *logger.Logger
}

// NewOrderHandler creates a new order analytics handler.
func NewOrderHandler(orders contracts.OrderSource, aggregator *kpi.Aggregator, log *logger.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, aggregator: aggregator, logger: log}
}

// GetHeatmap buckets order volume by weekday and hour over the period.
// GET /api/orders/heatmap?period=30d
func (h *OrderHandler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := periodToken(r)
	rng := period.Resolve(token, time.Now().UTC())

	orders, err := h.orders.OrdersInRange(ctx, rng.Start, rng.End.AddDate(0, 0, 1))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load orders")
		respondError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"period": token,
		"cells":  h.aggregator.Heatmap(rng, orders),
	})
}

// GetComparison tallies order volume over the standard comparison windows
// (today through last month).
// GET /api/orders/comparison
func (h *OrderHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	// Last month's first day can reach further back than 30 days.
	earliest := today.AddDate(0, 0, -30)
	if lastMonthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0); lastMonthStart.Before(earliest) {
		earliest = lastMonthStart
	}

	orders, err := h.orders.OrdersInRange(ctx, earliest, today.AddDate(0, 0, 1))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load orders")
		respondError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"periods": h.aggregator.PeriodComparison(orders, now),
	})
}
