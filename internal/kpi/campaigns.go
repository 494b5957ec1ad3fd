package kpi

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/internal/period"
)

var funnelOrder = map[contracts.FunnelStage]int{
	contracts.FunnelTOFU: 1,
	contracts.FunnelMOFU: 2,
	contracts.FunnelBOFU: 3,
}

// CampaignPerformance joins each campaign's spend in range with its
// attributed orders and revenue. Ratio metrics are nil when their
// denominator is zero.
func (a *Aggregator) CampaignPerformance(
	r period.Range,
	campaigns []contracts.Campaign,
	spend []contracts.AdSpend,
	attributions []contracts.Attribution,
	orders []contracts.Order,
	platform string,
) []contracts.CampaignPerformance {
	type spendSums struct {
		spend       decimal.Decimal
		impressions int64
		clicks      int64
	}
	spendByCampaign := make(map[int64]*spendSums)
	for i := range spend {
		s := &spend[i]
		if !r.Contains(s.Date) {
			continue
		}
		sums, ok := spendByCampaign[s.CampaignID]
		if !ok {
			sums = &spendSums{spend: decimal.Zero}
			spendByCampaign[s.CampaignID] = sums
		}
		sums.spend = sums.spend.Add(s.Spend)
		sums.impressions += s.Impressions
		sums.clicks += s.Clicks
	}

	// Attributed revenue restricted to orders inside the window.
	orderInRange := make(map[int64]bool, len(orders))
	for i := range orders {
		o := &orders[i]
		orderInRange[o.ID] = !o.IsCancelled() && r.Contains(o.CreatedAt)
	}

	type attrSums struct {
		orders  int
		revenue decimal.Decimal
	}
	attrByCampaign := make(map[int64]*attrSums)
	for i := range attributions {
		at := &attributions[i]
		if at.CampaignID == nil || !orderInRange[at.OrderID] {
			continue
		}
		sums, ok := attrByCampaign[*at.CampaignID]
		if !ok {
			sums = &attrSums{revenue: decimal.Zero}
			attrByCampaign[*at.CampaignID] = sums
		}
		sums.orders++
		sums.revenue = sums.revenue.Add(at.AttributedRevenue)
	}

	results := make([]contracts.CampaignPerformance, 0, len(campaigns))
	for i := range campaigns {
		c := &campaigns[i]
		if platform != "" && c.Platform != platform {
			continue
		}
		sums, hasSpend := spendByCampaign[c.ID]
		attr := attrByCampaign[c.ID]
		if !hasSpend && attr == nil {
			continue
		}

		perf := contracts.CampaignPerformance{
			CampaignID:  c.ID,
			Name:        c.Name,
			Platform:    c.Platform,
			FunnelStage: c.FunnelStage,
			Spend:       decimal.Zero,
			Revenue:     decimal.Zero,
		}
		if hasSpend {
			perf.Spend = sums.spend
			perf.Impressions = sums.impressions
			perf.Clicks = sums.clicks
		}
		if attr != nil {
			perf.Orders = attr.orders
			perf.Revenue = attr.revenue
		}

		if perf.Spend.IsPositive() {
			roas := perf.Revenue.Div(perf.Spend).Round(2)
			perf.ROAS = &roas
		}
		if perf.Orders > 0 {
			cpa := perf.Spend.Div(decimal.NewFromInt(int64(perf.Orders))).Round(2)
			perf.CPA = &cpa
		}
		if perf.Clicks > 0 {
			cpc := perf.Spend.Div(decimal.NewFromInt(perf.Clicks)).Round(2)
			perf.CPC = &cpc
		}
		if perf.Impressions > 0 {
			ctr := round2(float64(perf.Clicks) / float64(perf.Impressions) * 100)
			perf.CTR = &ctr
		}

		results = append(results, perf)
	}

	sort.Slice(results, func(i, j int) bool {
		if !results[i].Spend.Equal(results[j].Spend) {
			return results[i].Spend.GreaterThan(results[j].Spend)
		}
		return results[i].CampaignID < results[j].CampaignID
	})

	return results
}

// PlatformPerformance rolls spend and attributed results up per ad
// platform. Only platforms with spend in the window are reported.
func (a *Aggregator) PlatformPerformance(
	r period.Range,
	campaigns []contracts.Campaign,
	spend []contracts.AdSpend,
	attributions []contracts.Attribution,
	orders []contracts.Order,
) []contracts.PlatformPerformance {
	platformOf := make(map[int64]string, len(campaigns))
	for i := range campaigns {
		platformOf[campaigns[i].ID] = campaigns[i].Platform
	}

	type platformSums struct {
		campaigns   map[int64]struct{}
		spend       decimal.Decimal
		impressions int64
		clicks      int64
		orders      int
		revenue     decimal.Decimal
	}
	byPlatform := make(map[string]*platformSums)
	sums := func(platform string) *platformSums {
		s, ok := byPlatform[platform]
		if !ok {
			s = &platformSums{
				campaigns: make(map[int64]struct{}),
				spend:     decimal.Zero,
				revenue:   decimal.Zero,
			}
			byPlatform[platform] = s
		}
		return s
	}

	for i := range spend {
		row := &spend[i]
		if !r.Contains(row.Date) {
			continue
		}
		platform, ok := platformOf[row.CampaignID]
		if !ok {
			continue
		}
		s := sums(platform)
		s.campaigns[row.CampaignID] = struct{}{}
		s.spend = s.spend.Add(row.Spend)
		s.impressions += row.Impressions
		s.clicks += row.Clicks
	}

	orderInRange := make(map[int64]bool, len(orders))
	for i := range orders {
		o := &orders[i]
		orderInRange[o.ID] = !o.IsCancelled() && r.Contains(o.CreatedAt)
	}
	for i := range attributions {
		at := &attributions[i]
		if at.CampaignID == nil || !orderInRange[at.OrderID] {
			continue
		}
		platform, ok := platformOf[*at.CampaignID]
		if !ok {
			continue
		}
		s, ok := byPlatform[platform]
		if !ok {
			// Revenue without spend in the window is not reported.
			continue
		}
		s.orders++
		s.revenue = s.revenue.Add(at.AttributedRevenue)
	}

	results := make([]contracts.PlatformPerformance, 0, len(byPlatform))
	for platform, s := range byPlatform {
		perf := contracts.PlatformPerformance{
			Platform:    platform,
			Campaigns:   len(s.campaigns),
			Spend:       s.spend,
			Impressions: s.impressions,
			Clicks:      s.clicks,
			Orders:      s.orders,
			Revenue:     s.revenue,
		}
		if perf.Spend.IsPositive() {
			roas := perf.Revenue.Div(perf.Spend).Round(2)
			perf.ROAS = &roas
		}
		if perf.Orders > 0 {
			cpa := perf.Spend.Div(decimal.NewFromInt(int64(perf.Orders))).Round(2)
			perf.CPA = &cpa
		}
		if perf.Impressions > 0 {
			ctr := round2(float64(perf.Clicks) / float64(perf.Impressions) * 100)
			perf.CTR = &ctr
		}
		results = append(results, perf)
	}

	sort.Slice(results, func(i, j int) bool {
		if !results[i].Spend.Equal(results[j].Spend) {
			return results[i].Spend.GreaterThan(results[j].Spend)
		}
		return results[i].Platform < results[j].Platform
	})

	return results
}

// SpendRevenueTrend pairs daily ad spend with daily non-cancelled order
// revenue. Days with neither spend nor revenue are omitted; ROAS is nil on
// days without spend.
func (a *Aggregator) SpendRevenueTrend(
	r period.Range,
	spend []contracts.AdSpend,
	orders []contracts.Order,
) []contracts.SpendRevenuePoint {
	spendByDay := make(map[time.Time]decimal.Decimal)
	for i := range spend {
		row := &spend[i]
		if !r.Contains(row.Date) {
			continue
		}
		day := dayOf(row.Date)
		spendByDay[day] = spendByDay[day].Add(row.Spend)
	}

	revenueByDay := make(map[time.Time]decimal.Decimal)
	for i := range orders {
		o := &orders[i]
		if o.IsCancelled() || !r.Contains(o.CreatedAt) {
			continue
		}
		day := dayOf(o.CreatedAt)
		revenueByDay[day] = revenueByDay[day].Add(o.TotalAmount)
	}

	days := make(map[time.Time]struct{}, len(spendByDay)+len(revenueByDay))
	for day := range spendByDay {
		days[day] = struct{}{}
	}
	for day := range revenueByDay {
		days[day] = struct{}{}
	}

	trend := make([]contracts.SpendRevenuePoint, 0, len(days))
	for day := range days {
		point := contracts.SpendRevenuePoint{
			Date:    day,
			Spend:   spendByDay[day],
			Revenue: revenueByDay[day],
		}
		if point.Spend.IsPositive() {
			roas := point.Revenue.Div(point.Spend).Round(2)
			point.ROAS = &roas
		}
		trend = append(trend, point)
	}

	sort.Slice(trend, func(i, j int) bool {
		return trend[i].Date.Before(trend[j].Date)
	})

	return trend
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FunnelPerformance rolls campaign performance up to funnel stages,
// ordered TOFU to BOFU.
func (a *Aggregator) FunnelPerformance(perfs []contracts.CampaignPerformance) []contracts.FunnelStagePerformance {
	byStage := make(map[contracts.FunnelStage]*contracts.FunnelStagePerformance)
	for i := range perfs {
		p := &perfs[i]
		if p.FunnelStage == "" {
			continue
		}
		stage, ok := byStage[p.FunnelStage]
		if !ok {
			stage = &contracts.FunnelStagePerformance{
				Stage:   p.FunnelStage,
				Order:   funnelOrder[p.FunnelStage],
				Spend:   decimal.Zero,
				Revenue: decimal.Zero,
			}
			byStage[p.FunnelStage] = stage
		}
		stage.Spend = stage.Spend.Add(p.Spend)
		stage.Orders += p.Orders
		stage.Revenue = stage.Revenue.Add(p.Revenue)
	}

	stages := make([]contracts.FunnelStagePerformance, 0, len(byStage))
	for _, stage := range byStage {
		if stage.Spend.IsPositive() {
			roas := stage.Revenue.Div(stage.Spend).Round(2)
			stage.ROAS = &roas
		}
		if stage.Orders > 0 {
			cpa := stage.Spend.Div(decimal.NewFromInt(int64(stage.Orders))).Round(2)
			stage.CPA = &cpa
		}
		stages = append(stages, *stage)
	}

	sort.Slice(stages, func(i, j int) bool {
		return stages[i].Order < stages[j].Order
	})

	return stages
}
