// Package kpi computes headline metrics for a resolved period over
// non-cancelled orders and joined ad spend.
package kpi

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/internal/period"
	"github.com/cortexbi/cortex/pkg/logger"
)

// Filters narrows an aggregation pass. Zero values mean no filtering.
type Filters struct {
	Platform  string // matches AdSpend via its campaign's platform
	ChannelID *int   // matches Order.ChannelID
}

func (f Filters) matchOrder(o *contracts.Order) bool {
	if f.ChannelID == nil {
		return true
	}
	return o.ChannelID != nil && *o.ChannelID == *f.ChannelID
}

// Aggregator computes KPI reports from in-memory snapshots. It never
// mutates its inputs.
type Aggregator struct {
	logger *logger.Logger
}

// NewAggregator creates a new KPI aggregator.
func NewAggregator(log *logger.Logger) *Aggregator {
	return &Aggregator{logger: log}
}

// windowTotals holds the raw sums for one date window.
type windowTotals struct {
	orders       int
	revenue      decimal.Decimal
	customers    int
	newCustomers int
	repeatOrders int
}

// Aggregate computes the KPI report for the current window of r with
// percentage changes against its comparison window. The order and spend
// slices must cover both windows; rows outside are ignored.
func (a *Aggregator) Aggregate(
	token string,
	r period.Range,
	orders []contracts.Order,
	spend []contracts.AdSpend,
	campaigns []contracts.Campaign,
	filters Filters,
) contracts.KPIReport {
	prev := r.Comparison()

	cur := a.totals(orders, filters, r.Contains)
	before := a.totals(orders, filters, prev.ContainsHalfOpen)

	adSpend := a.spendTotal(spend, campaigns, filters, r.Contains)

	report := contracts.KPIReport{
		Period:         token,
		PeriodStart:    r.Start,
		PeriodEnd:      r.End,
		TotalRevenue:   cur.revenue,
		TotalOrders:    cur.orders,
		TotalCustomers: cur.customers,
		NewCustomers:   cur.newCustomers,
		TotalAdSpend:   adSpend,
	}

	// AOV is zero with no orders; never a division error.
	if cur.orders > 0 {
		report.AvgOrderValue = cur.revenue.Div(decimal.NewFromInt(int64(cur.orders))).Round(2)
		report.RepeatRate = round2(float64(cur.repeatOrders) / float64(cur.orders) * 100)
	} else {
		report.AvgOrderValue = decimal.Zero
	}

	// Ratio metrics: nil (undefined) when the denominator is zero. A
	// KPI report must distinguish "no signal" from a true zero.
	if adSpend.IsPositive() {
		roas := cur.revenue.Div(adSpend).Round(2)
		report.ROAS = &roas
	}
	if cur.newCustomers > 0 {
		cac := adSpend.Div(decimal.NewFromInt(int64(cur.newCustomers))).Round(2)
		report.CAC = &cac
	}

	report.RevenueChange = pctChangeDecimal(cur.revenue, before.revenue)
	report.OrdersChange = pctChangeInt(cur.orders, before.orders)
	report.CustomersChange = pctChangeInt(cur.customers, before.customers)
	report.AOVChange = aovChange(cur, before)

	a.logger.WithFields(map[string]interface{}{
		"period":  token,
		"orders":  cur.orders,
		"revenue": cur.revenue.String(),
	}).Debug("KPI aggregation completed")

	return report
}

// totals sums one window. Cancelled orders never count.
func (a *Aggregator) totals(orders []contracts.Order, filters Filters, inWindow func(time.Time) bool) windowTotals {
	t := windowTotals{revenue: decimal.Zero}
	customers := make(map[int64]struct{})

	for i := range orders {
		o := &orders[i]
		if o.IsCancelled() || !inWindow(o.CreatedAt) || !filters.matchOrder(o) {
			continue
		}

		t.orders++
		t.revenue = t.revenue.Add(o.TotalAmount)
		customers[o.CustomerID] = struct{}{}
		if o.IsFirstOrder {
			t.newCustomers++
		}
		if o.IsRepeatOrder {
			t.repeatOrders++
		}
	}

	t.customers = len(customers)
	return t
}

// spendTotal sums ad spend in window, optionally restricted to one
// platform via the campaign dimension.
func (a *Aggregator) spendTotal(spend []contracts.AdSpend, campaigns []contracts.Campaign, filters Filters, inWindow func(time.Time) bool) decimal.Decimal {
	var platformByCampaign map[int64]string
	if filters.Platform != "" {
		platformByCampaign = make(map[int64]string, len(campaigns))
		for i := range campaigns {
			platformByCampaign[campaigns[i].ID] = campaigns[i].Platform
		}
	}

	total := decimal.Zero
	for i := range spend {
		s := &spend[i]
		if !inWindow(s.Date) {
			continue
		}
		if filters.Platform != "" && platformByCampaign[s.CampaignID] != filters.Platform {
			continue
		}
		total = total.Add(s.Spend)
	}
	return total
}

// RevenueSeries returns one point per calendar day in range, zero-filled
// from the date dimension so every day appears exactly once regardless of
// order activity.
func (a *Aggregator) RevenueSeries(r period.Range, orders []contracts.Order, calendar []contracts.CalendarDay) []contracts.RevenuePoint {
	type bucket struct {
		revenue   decimal.Decimal
		orders    int
		customers map[int64]struct{}
	}

	buckets := make(map[int]*bucket)
	for i := range orders {
		o := &orders[i]
		if o.IsCancelled() || !r.Contains(o.CreatedAt) {
			continue
		}
		key := contracts.DateKeyFor(o.CreatedAt)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{revenue: decimal.Zero, customers: make(map[int64]struct{})}
			buckets[key] = b
		}
		b.revenue = b.revenue.Add(o.TotalAmount)
		b.orders++
		b.customers[o.CustomerID] = struct{}{}
	}

	points := make([]contracts.RevenuePoint, 0, len(calendar))
	for i := range calendar {
		day := &calendar[i]
		if !r.Contains(day.Date) {
			continue
		}
		point := contracts.RevenuePoint{Date: day.Date, Revenue: decimal.Zero}
		if b, ok := buckets[day.DateKey]; ok {
			point.Revenue = b.revenue
			point.Orders = b.orders
			point.Customers = len(b.customers)
		}
		points = append(points, point)
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	return points
}

// TopProducts ranks products by revenue sold in range.
func (a *Aggregator) TopProducts(
	r period.Range,
	orders []contracts.Order,
	items []contracts.OrderItem,
	products []contracts.Product,
	limit int,
) []contracts.TopProduct {
	// Orders eligible for the window; cancelled orders drop their items.
	eligible := make(map[int64]struct{})
	for i := range orders {
		o := &orders[i]
		if !o.IsCancelled() && r.Contains(o.CreatedAt) {
			eligible[o.ID] = struct{}{}
		}
	}

	type sums struct {
		units   int
		revenue decimal.Decimal
	}
	byProduct := make(map[int64]*sums)
	for i := range items {
		item := &items[i]
		if _, ok := eligible[item.OrderID]; !ok {
			continue
		}
		s, ok := byProduct[item.ProductID]
		if !ok {
			s = &sums{revenue: decimal.Zero}
			byProduct[item.ProductID] = s
		}
		s.units += item.Quantity
		s.revenue = s.revenue.Add(item.TotalPrice)
	}

	productByID := make(map[int64]*contracts.Product, len(products))
	for i := range products {
		productByID[products[i].ID] = &products[i]
	}

	ranked := make([]contracts.TopProduct, 0, len(byProduct))
	for id, s := range byProduct {
		top := contracts.TopProduct{ProductID: id, UnitsSold: s.units, Revenue: s.revenue}
		if p, ok := productByID[id]; ok {
			top.Name = p.Name
			top.Category = p.CategoryLevel1
		}
		ranked = append(ranked, top)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].Revenue.Equal(ranked[j].Revenue) {
			return ranked[i].Revenue.GreaterThan(ranked[j].Revenue)
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// TopChannels ranks channels by revenue in range with each channel's share
// of the period total.
func (a *Aggregator) TopChannels(r period.Range, orders []contracts.Order, channels []contracts.Channel) []contracts.TopChannel {
	nameByID := make(map[int]string, len(channels))
	for i := range channels {
		nameByID[channels[i].ID] = channels[i].Name
	}

	type sums struct {
		orders  int
		revenue decimal.Decimal
	}
	byChannel := make(map[string]*sums)
	total := decimal.Zero

	for i := range orders {
		o := &orders[i]
		if o.IsCancelled() || !r.Contains(o.CreatedAt) || o.ChannelID == nil {
			continue
		}
		name, ok := nameByID[*o.ChannelID]
		if !ok {
			continue
		}
		s, found := byChannel[name]
		if !found {
			s = &sums{revenue: decimal.Zero}
			byChannel[name] = s
		}
		s.orders++
		s.revenue = s.revenue.Add(o.TotalAmount)
		total = total.Add(o.TotalAmount)
	}

	ranked := make([]contracts.TopChannel, 0, len(byChannel))
	for name, s := range byChannel {
		tc := contracts.TopChannel{Channel: name, Orders: s.orders, Revenue: s.revenue}
		if total.IsPositive() {
			share, _ := s.revenue.Div(total).Float64()
			tc.Percentage = round2(share * 100)
		}
		ranked = append(ranked, tc)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].Revenue.Equal(ranked[j].Revenue) {
			return ranked[i].Revenue.GreaterThan(ranked[j].Revenue)
		}
		return ranked[i].Channel < ranked[j].Channel
	})

	return ranked
}

// aovChange computes the AOV percentage change between two windows.
func aovChange(cur, before windowTotals) *float64 {
	if cur.orders == 0 || before.orders == 0 {
		return nil
	}
	curAOV := cur.revenue.Div(decimal.NewFromInt(int64(cur.orders)))
	prevAOV := before.revenue.Div(decimal.NewFromInt(int64(before.orders)))
	return pctChangeDecimal(curAOV, prevAOV)
}

// pctChangeDecimal returns (cur-prev)/prev*100 rounded to two decimals,
// nil when prev is not positive.
func pctChangeDecimal(cur, prev decimal.Decimal) *float64 {
	if !prev.IsPositive() {
		return nil
	}
	change, _ := cur.Sub(prev).Div(prev).Float64()
	v := round2(change * 100)
	return &v
}

// pctChangeInt is pctChangeDecimal over integer counts.
func pctChangeInt(cur, prev int) *float64 {
	if prev == 0 {
		return nil
	}
	v := round2(float64(cur-prev) / float64(prev) * 100)
	return &v
}

// round2 rounds at the output boundary only, never mid-computation.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
