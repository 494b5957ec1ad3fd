// Package segmentation ranks customers into recency/frequency/monetary
// quintiles and assigns named segments.
package segmentation

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/pkg/logger"
)

// segmentRule is one row of the segment decision table. Rules are
// evaluated in order, first match wins; thresholds are data, not nested
// conditionals.
type segmentRule struct {
	matches func(r, f, m int) bool
	label   string
}

var segmentRules = []segmentRule{
	{func(r, f, m int) bool { return r >= 4 && f >= 4 && m >= 4 }, contracts.SegmentChampions},
	{func(r, f, m int) bool { return r >= 4 && f >= 3 }, contracts.SegmentLoyalCustomers},
	{func(r, f, m int) bool { return r >= 4 && f <= 2 }, contracts.SegmentRecentCustomers},
	{func(r, f, m int) bool { return r >= 3 && f >= 3 }, contracts.SegmentPotentialLoyalists},
	{func(r, f, m int) bool { return r <= 2 && f >= 4 }, contracts.SegmentAtRisk},
	{func(r, f, m int) bool { return r <= 2 && f >= 2 }, contracts.SegmentHibernating},
	{func(r, f, m int) bool { return r <= 1 }, contracts.SegmentLost},
}

// Engine computes RFM scores, segments and the VIP flag over the full
// customer population with at least one order.
type Engine struct {
	vipShare float64
	logger   *logger.Logger
}

// NewEngine creates a segmentation engine. vipShare is the fraction of
// the monetary ranking flagged VIP (typically 0.10).
func NewEngine(vipShare float64, log *logger.Logger) *Engine {
	return &Engine{vipShare: vipShare, logger: log}
}

// Score ranks the population on each axis independently and assigns
// quintile scores, segment labels and VIP flags. Returns
// ErrInsufficientData over an empty population. The input slice is not
// mutated; each ranking owns its working copy for the duration of the
// pass.
func (e *Engine) Score(customers []contracts.Customer) ([]contracts.CustomerScores, error) {
	population := make([]*contracts.Customer, 0, len(customers))
	for i := range customers {
		if customers[i].HasOrders() {
			population = append(population, &customers[i])
		}
	}

	n := len(population)
	if n == 0 {
		return nil, contracts.ErrInsufficientData
	}

	scores := make(map[int64]*contracts.CustomerScores, n)
	for _, c := range population {
		scores[c.ID] = &contracts.CustomerScores{CustomerID: c.ID}
	}

	// Three independent rankings. Ties keep the stable input order so a
	// given snapshot always reproduces the same scores.
	recency := rankingCopy(population)
	sort.SliceStable(recency, func(i, j int) bool {
		return recency[i].RecencyDays() < recency[j].RecencyDays()
	})
	for i, c := range recency {
		scores[c.ID].Recency = quintileScore(i, n)
	}

	frequency := rankingCopy(population)
	sort.SliceStable(frequency, func(i, j int) bool {
		return frequency[i].TotalOrders > frequency[j].TotalOrders
	})
	for i, c := range frequency {
		scores[c.ID].Frequency = quintileScore(i, n)
	}

	monetary := rankingCopy(population)
	sort.SliceStable(monetary, func(i, j int) bool {
		return monetary[i].TotalRevenue.GreaterThan(monetary[j].TotalRevenue)
	})
	for i, c := range monetary {
		scores[c.ID].Monetary = quintileScore(i, n)
	}

	// VIP assignment is its own pass over the monetary ranking, indexed
	// by that ranking alone.
	vipCount := int(math.Ceil(float64(n) * e.vipShare))
	for i := 0; i < vipCount && i < n; i++ {
		scores[monetary[i].ID].IsVIP = true
	}

	for _, s := range scores {
		s.Segment = assignSegment(s.Recency, s.Frequency, s.Monetary)
	}

	// Results in monetary-rank order: highest-value customers first.
	out := make([]contracts.CustomerScores, 0, n)
	for _, c := range monetary {
		out = append(out, *scores[c.ID])
	}

	e.logger.WithFields(map[string]interface{}{
		"population": n,
		"vips":       vipCount,
	}).Info("RFM segmentation completed")

	return out, nil
}

// quintileScore maps a 0-based rank to {1..5}, best rank scoring 5.
// Integer arithmetic: 5 - floor(i*5/n).
func quintileScore(i, n int) int {
	return 5 - i*5/n
}

// assignSegment evaluates the decision table, first match wins.
func assignSegment(r, f, m int) string {
	for _, rule := range segmentRules {
		if rule.matches(r, f, m) {
			return rule.label
		}
	}
	return contracts.SegmentOther
}

func rankingCopy(population []*contracts.Customer) []*contracts.Customer {
	cp := make([]*contracts.Customer, len(population))
	copy(cp, population)
	return cp
}

// Summaries aggregates an already-scored population into per-segment
// distribution rows, ordered by descending customer count.
func (e *Engine) Summaries(customers []contracts.Customer) []contracts.SegmentSummary {
	type sums struct {
		count   int
		revenue decimal.Decimal
		orders  int
	}
	bySegment := make(map[string]*sums)
	total := 0

	for i := range customers {
		c := &customers[i]
		if c.Segment == "" {
			continue
		}
		s, ok := bySegment[c.Segment]
		if !ok {
			s = &sums{revenue: decimal.Zero}
			bySegment[c.Segment] = s
		}
		s.count++
		s.revenue = s.revenue.Add(c.TotalRevenue)
		s.orders += c.TotalOrders
		total++
	}

	summaries := make([]contracts.SegmentSummary, 0, len(bySegment))
	for segment, s := range bySegment {
		summary := contracts.SegmentSummary{
			Segment:      segment,
			Count:        s.count,
			TotalRevenue: s.revenue,
		}
		if total > 0 {
			summary.Percentage = math.Round(float64(s.count)/float64(total)*10000) / 100
		}
		if s.count > 0 {
			summary.AvgOrders = math.Round(float64(s.orders)/float64(s.count)*100) / 100
			summary.AvgRevenue = s.revenue.Div(decimal.NewFromInt(int64(s.count))).Round(2)
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Count != summaries[j].Count {
			return summaries[i].Count > summaries[j].Count
		}
		return summaries[i].Segment < summaries[j].Segment
	})

	return summaries
}
