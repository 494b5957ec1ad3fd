package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/internal/insights"
	"github.com/cortexbi/cortex/internal/kpi"
	"github.com/cortexbi/cortex/internal/period"
	"github.com/cortexbi/cortex/pkg/logger"
	"github.com/cortexbi/cortex/pkg/redis"
)

// DashboardHandler serves the headline dashboard endpoints: KPIs, the
// revenue series, top rankings and alerts.
type DashboardHandler struct {
	orders    contracts.OrderSource
	campaigns contracts.CampaignSource
	channels  contracts.ChannelSource
	calendar  contracts.CalendarSource
	products  contracts.ProductSource
	customers contracts.CustomerSource

	aggregator *kpi.Aggregator
	insights   *insights.Engine

	cache    *redis.Cache
	cacheTTL time.Duration
	logger   *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(
	orders contracts.OrderSource,
	campaigns contracts.CampaignSource,
	channels contracts.ChannelSource,
	calendar contracts.CalendarSource,
	products contracts.ProductSource,
	customers contracts.CustomerSource,
	aggregator *kpi.Aggregator,
	insightsEngine *insights.Engine,
	cache *redis.Cache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		orders:     orders,
		campaigns:  campaigns,
		channels:   channels,
		calendar:   calendar,
		products:   products,
		customers:  customers,
		aggregator: aggregator,
		insights:   insightsEngine,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     log,
	}
}

// periodToken normalizes the period query parameter.
func periodToken(r *http.Request) string {
	token := r.URL.Query().Get("period")
	if token == "" {
		return period.DefaultToken
	}
	return token
}

// GetKPIs returns the KPI report for the requested period.
// GET /api/dashboard/kpis?period=30d&channel_id=3
func (h *DashboardHandler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := periodToken(r)

	filters := kpi.Filters{}
	if raw := r.URL.Query().Get("channel_id"); raw != "" {
		id := queryInt(r, "channel_id", 0)
		filters.ChannelID = &id
	}

	cacheKey := fmt.Sprintf("kpis:%s:%v", token, r.URL.Query().Get("channel_id"))
	var cached contracts.KPIReport
	if hit, _ := h.cache.Get(ctx, cacheKey, &cached); hit {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	rng := period.Resolve(token, time.Now().UTC())
	prev := rng.Comparison()

	orders, err := h.orders.OrdersInRange(ctx, prev.Start, rng.End.AddDate(0, 0, 1))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load orders")
		respondError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}
	spend, err := h.campaigns.SpendInRange(ctx, prev.Start, rng.End.AddDate(0, 0, 1))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load ad spend")
		respondError(w, http.StatusInternalServerError, "failed to load ad spend")
		return
	}
	campaigns, err := h.campaigns.AllCampaigns(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load campaigns")
		respondError(w, http.StatusInternalServerError, "failed to load campaigns")
		return
	}

	report := h.aggregator.Aggregate(token, rng, orders, spend, campaigns, filters)

	if err := h.cache.Set(ctx, cacheKey, report, h.cacheTTL); err != nil {
		h.logger.WithError(err).Warn("Failed to cache KPI report")
	}
	respondJSON(w, http.StatusOK, report)
}

// GetRevenueSeries returns the zero-filled daily revenue series.
// GET /api/dashboard/revenue-series?period=30d
func (h *DashboardHandler) GetRevenueSeries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := periodToken(r)
	rng := period.Resolve(token, time.Now().UTC())

	days, err := h.calendar.DaysInRange(ctx, rng.Start, rng.End)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load calendar")
		respondError(w, http.StatusInternalServerError, "failed to load calendar")
		return
	}
	orders, err := h.orders.OrdersInRange(ctx, rng.Start, rng.End.AddDate(0, 0, 1))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load orders")
		respondError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"period": token,
		"series": h.aggregator.RevenueSeries(rng, orders, days),
	})
}

// GetTopProducts returns the product revenue ranking for the period.
// GET /api/dashboard/top-products?period=30d&limit=10
func (h *DashboardHandler) GetTopProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := periodToken(r)
	limit := queryInt(r, "limit", 10)
	rng := period.Resolve(token, time.Now().UTC())

	orders, err := h.orders.OrdersInRange(ctx, rng.Start, rng.End.AddDate(0, 0, 1))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load orders")
		respondError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}
	items, err := h.orders.ItemsInRange(ctx, rng.Start, rng.End.AddDate(0, 0, 1))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load order items")
		respondError(w, http.StatusInternalServerError, "failed to load order items")
		return
	}
	products, err := h.products.AllProducts(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load products")
		respondError(w, http.StatusInternalServerError, "failed to load products")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"period":   token,
		"products": h.aggregator.TopProducts(rng, orders, items, products, limit),
	})
}

// GetTopChannels returns each channel's share of period revenue.
// GET /api/dashboard/top-channels?period=30d
func (h *DashboardHandler) GetTopChannels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := periodToken(r)
	rng := period.Resolve(token, time.Now().UTC())

	orders, err := h.orders.OrdersInRange(ctx, rng.Start, rng.End.AddDate(0, 0, 1))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load orders")
		respondError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}
	channels, err := h.channels.AllChannels(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load channels")
		respondError(w, http.StatusInternalServerError, "failed to load channels")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"period":   token,
		"channels": h.aggregator.TopChannels(rng, orders, channels),
	})
}

// GetAlerts evaluates the week-over-week alert rules.
// GET /api/dashboard/alerts
func (h *DashboardHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now().UTC()

	metrics, err := h.weeklyMetrics(ctx, now)
	if err != nil {
		h.logger.WithError(err).Error("Failed to assemble weekly metrics")
		respondError(w, http.StatusInternalServerError, "failed to assemble weekly metrics")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": h.insights.Alerts(*metrics, now),
	})
}

// weeklyMetrics sums the trailing week against the week before it.
func (h *DashboardHandler) weeklyMetrics(ctx context.Context, now time.Time) (*insights.WeeklyMetrics, error) {
	week := period.Resolve(period.Token7d, now)
	prev := week.Comparison()

	orders, err := h.orders.OrdersInRange(ctx, prev.Start, week.End.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	spend, err := h.campaigns.SpendInRange(ctx, prev.Start, week.End.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("load ad spend: %w", err)
	}
	customers, err := h.customers.CustomersWithOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}

	m := insights.WeeklyMetrics{TotalCustomers: len(customers)}
	for i := range orders {
		o := &orders[i]
		if o.IsCancelled() {
			continue
		}
		amount, _ := o.TotalAmount.Float64()
		switch {
		case week.Contains(o.CreatedAt):
			m.CurrentRevenue += amount
		case prev.ContainsHalfOpen(o.CreatedAt):
			m.PreviousRevenue += amount
		}
	}
	for i := range spend {
		s := &spend[i]
		amount, _ := s.Spend.Float64()
		switch {
		case week.Contains(s.Date):
			m.CurrentSpend += amount
		case prev.ContainsHalfOpen(s.Date):
			m.PreviousSpend += amount
		}
	}
	for i := range customers {
		if customers[i].IsChurned {
			m.ChurnedCustomers++
		}
	}
	return &m, nil
}
