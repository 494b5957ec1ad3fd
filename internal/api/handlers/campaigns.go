package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/internal/kpi"
	"github.com/cortexbi/cortex/internal/period"
	"github.com/cortexbi/cortex/pkg/logger"
)

// CampaignHandler serves campaign and funnel performance endpoints,
// joining ad spend with attributed revenue.
type CampaignHandler struct {
	campaigns    contracts.CampaignSource
	orders       contracts.OrderSource
	channels     contracts.ChannelSource
	attributions contracts.AttributionSource

	aggregator *kpi.Aggregator
	logger     *logger.Logger
}

// NewCampaignHandler creates a new campaign handler.
func NewCampaignHandler(
	campaigns contracts.CampaignSource,
	orders contracts.OrderSource,
	channels contracts.ChannelSource,
	attributions contracts.AttributionSource,
	aggregator *kpi.Aggregator,
	log *logger.Logger,
) *CampaignHandler {
	return &CampaignHandler{
		campaigns:    campaigns,
		orders:       orders,
		channels:     channels,
		attributions: attributions,
		aggregator:   aggregator,
		logger:       log,
	}
}

// GetPerformance returns per-campaign spend and attributed results.
// GET /api/campaigns/performance?period=30d&platform=meta
func (h *CampaignHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := periodToken(r)
	platform := r.URL.Query().Get("platform")

	perfs, err := h.performance(ctx, token, platform)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute campaign performance")
		respondError(w, http.StatusInternalServerError, "failed to compute campaign performance")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"period":    token,
		"campaigns": perfs,
	})
}

// GetFunnel aggregates campaign performance per funnel stage.
// GET /api/campaigns/funnel?period=30d
func (h *CampaignHandler) GetFunnel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := periodToken(r)

	perfs, err := h.performance(ctx, token, "")
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute funnel performance")
		respondError(w, http.StatusInternalServerError, "failed to compute funnel performance")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"period": token,
		"stages": h.aggregator.FunnelPerformance(perfs),
	})
}

// attributionBreakdown is one channel's or campaign's share of attributed
// revenue.
type attributionBreakdown struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// GetAttribution breaks persisted last-click attributions down by channel
// and by campaign.
// GET /api/campaigns/attribution
func (h *CampaignHandler) GetAttribution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.attributions.AttributionsForModel(ctx, contracts.ModelLastClick)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load attributions")
		respondError(w, http.StatusInternalServerError, "failed to load attributions")
		return
	}
	campaigns, err := h.campaigns.AllCampaigns(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load campaigns")
		respondError(w, http.StatusInternalServerError, "failed to load campaigns")
		return
	}
	channels, err := h.channels.AllChannels(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load channels")
		respondError(w, http.StatusInternalServerError, "failed to load channels")
		return
	}

	campaignNames := make(map[int64]string, len(campaigns))
	for i := range campaigns {
		campaignNames[campaigns[i].ID] = campaigns[i].Name
	}
	channelNames := make(map[int]string, len(channels))
	for i := range channels {
		channelNames[channels[i].ID] = channels[i].Name
	}

	byChannel := make(map[int64]*attributionBreakdown)
	byCampaign := make(map[int64]*attributionBreakdown)
	for i := range rows {
		a := &rows[i]
		if a.ChannelID != nil {
			id := int64(*a.ChannelID)
			b, ok := byChannel[id]
			if !ok {
				b = &attributionBreakdown{ID: id, Name: channelNames[*a.ChannelID], Revenue: decimal.Zero}
				byChannel[id] = b
			}
			b.Orders++
			b.Revenue = b.Revenue.Add(a.AttributedRevenue)
		}
		if a.CampaignID != nil {
			b, ok := byCampaign[*a.CampaignID]
			if !ok {
				b = &attributionBreakdown{ID: *a.CampaignID, Name: campaignNames[*a.CampaignID], Revenue: decimal.Zero}
				byCampaign[*a.CampaignID] = b
			}
			b.Orders++
			b.Revenue = b.Revenue.Add(a.AttributedRevenue)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"model":     contracts.ModelLastClick,
		"channels":  sortedBreakdowns(byChannel),
		"campaigns": sortedBreakdowns(byCampaign),
	})
}

// sortedBreakdowns orders the aggregated rows by revenue, highest first.
func sortedBreakdowns(m map[int64]*attributionBreakdown) []attributionBreakdown {
	out := make([]attributionBreakdown, 0, len(m))
	for _, b := range m {
		out = append(out, *b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// GetROASByPlatform rolls spend and attributed revenue up per ad platform.
// GET /api/campaigns/roas-by-platform?period=30d
func (h *CampaignHandler) GetROASByPlatform(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := periodToken(r)

	rng, campaigns, spend, attributions, orders, err := h.loadWindow(ctx, token)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute platform performance")
		respondError(w, http.StatusInternalServerError, "failed to compute platform performance")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"period":    token,
		"platforms": h.aggregator.PlatformPerformance(rng, campaigns, spend, attributions, orders),
	})
}

// GetSpendRevenue returns the daily spend versus revenue trend.
// GET /api/campaigns/spend-revenue?period=30d
func (h *CampaignHandler) GetSpendRevenue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := periodToken(r)
	rng := period.Resolve(token, time.Now().UTC())

	spend, err := h.campaigns.SpendInRange(ctx, rng.Start, rng.End.AddDate(0, 0, 1))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load ad spend")
		respondError(w, http.StatusInternalServerError, "failed to load ad spend")
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
		"trend":  h.aggregator.SpendRevenueTrend(rng, spend, orders),
	})
}

func (h *CampaignHandler) performance(ctx context.Context, token, platform string) ([]contracts.CampaignPerformance, error) {
	rng, campaigns, spend, attributions, orders, err := h.loadWindow(ctx, token)
	if err != nil {
		return nil, err
	}
	return h.aggregator.CampaignPerformance(rng, campaigns, spend, attributions, orders, platform), nil
}

func (h *CampaignHandler) loadWindow(ctx context.Context, token string) (period.Range, []contracts.Campaign, []contracts.AdSpend, []contracts.Attribution, []contracts.Order, error) {
	rng := period.Resolve(token, time.Now().UTC())

	campaigns, err := h.campaigns.AllCampaigns(ctx)
	if err != nil {
		return rng, nil, nil, nil, nil, fmt.Errorf("load campaigns: %w", err)
	}
	spend, err := h.campaigns.SpendInRange(ctx, rng.Start, rng.End.AddDate(0, 0, 1))
	if err != nil {
		return rng, nil, nil, nil, nil, fmt.Errorf("load ad spend: %w", err)
	}
	attributions, err := h.attributions.AttributionsForModel(ctx, contracts.ModelLastClick)
	if err != nil {
		return rng, nil, nil, nil, nil, fmt.Errorf("load attributions: %w", err)
	}
	orders, err := h.orders.OrdersInRange(ctx, rng.Start, rng.End.AddDate(0, 0, 1))
	if err != nil {
		return rng, nil, nil, nil, nil, fmt.Errorf("load orders: %w", err)
	}

	return rng, campaigns, spend, attributions, orders, nil
}
