// Package abc classifies products into revenue-concentration tiers using
// cumulative revenue share.
package abc

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/pkg/logger"
)

var (
	classAThreshold = decimal.NewFromFloat(0.80)
	classBThreshold = decimal.NewFromFloat(0.95)
)

// Classifier assigns A/B/C tiers over the population of products with
// recorded revenue.
type Classifier struct {
	logger *logger.Logger
}

func NewClassifier(log *logger.Logger) *Classifier {
	return &Classifier{logger: log}
}

// Classify sorts products by descending revenue and tiers them by the
// cumulative share of total revenue at each rank: A up to 80%, B up to
// 95%, C beyond. Products with no revenue are not classified. Returns
// ErrInsufficientData when no product has revenue.
func (c *Classifier) Classify(products []contracts.Product) ([]contracts.ProductClass, error) {
	ranked := make([]*contracts.Product, 0, len(products))
	total := decimal.Zero
	for i := range products {
		p := &products[i]
		if !p.HasRevenue() {
			continue
		}
		ranked = append(ranked, p)
		total = total.Add(p.TotalRevenue)
	}

	if len(ranked) == 0 {
		return nil, contracts.ErrInsufficientData
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if !ranked[i].TotalRevenue.Equal(ranked[j].TotalRevenue) {
			return ranked[i].TotalRevenue.GreaterThan(ranked[j].TotalRevenue)
		}
		return ranked[i].ID < ranked[j].ID
	})

	out := make([]contracts.ProductClass, 0, len(ranked))
	cumulative := decimal.Zero
	for i, p := range ranked {
		cumulative = cumulative.Add(p.TotalRevenue)
		share := cumulative.Div(total)

		var class contracts.ABCClass
		switch {
		case share.LessThanOrEqual(classAThreshold):
			class = contracts.ClassA
		case share.LessThanOrEqual(classBThreshold):
			class = contracts.ClassB
		default:
			class = contracts.ClassC
		}

		out = append(out, contracts.ProductClass{
			ProductID:    p.ID,
			Class:        class,
			RevenueShare: p.TotalRevenue.Div(total).Round(4),
			Rank:         i + 1,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"classified": len(out),
		"skipped":    len(products) - len(out),
	}).Info("ABC classification completed")

	return out, nil
}

// ClassSummary is the rollup of one tier across the classified population.
type ClassSummary struct {
	Class        contracts.ABCClass `json:"class"`
	ProductCount int                `json:"product_count"`
	TotalRevenue decimal.Decimal    `json:"total_revenue"`
	RevenueShare decimal.Decimal    `json:"revenue_share"`
}

// Summarize rolls a classification result up per tier, in A, B, C order.
func (c *Classifier) Summarize(products []contracts.Product, classes []contracts.ProductClass) []ClassSummary {
	revenueByID := make(map[int64]decimal.Decimal, len(products))
	for i := range products {
		revenueByID[products[i].ID] = products[i].TotalRevenue
	}

	byClass := make(map[contracts.ABCClass]*ClassSummary, 3)
	total := decimal.Zero
	for _, pc := range classes {
		s, ok := byClass[pc.Class]
		if !ok {
			s = &ClassSummary{Class: pc.Class, TotalRevenue: decimal.Zero}
			byClass[pc.Class] = s
		}
		rev := revenueByID[pc.ProductID]
		s.ProductCount++
		s.TotalRevenue = s.TotalRevenue.Add(rev)
		total = total.Add(rev)
	}

	out := make([]ClassSummary, 0, 3)
	for _, class := range []contracts.ABCClass{contracts.ClassA, contracts.ClassB, contracts.ClassC} {
		s, ok := byClass[class]
		if !ok {
			continue
		}
		if total.IsPositive() {
			s.RevenueShare = s.TotalRevenue.Div(total).Round(4)
		}
		s.TotalRevenue = s.TotalRevenue.Round(2)
		out = append(out, *s)
	}

	return out
}
