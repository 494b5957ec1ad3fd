// Package churn scores customer churn risk and derives the churned flag.
package churn

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/pkg/logger"
)

// cohortCap bounds the number of customers listed per risk cohort in the
// report; counts and revenue at risk still cover the whole cohort.
const cohortCap = 50

// bucket maps a lower-inclusive threshold to a score contribution. Rows
// are checked top down, first match wins.
type bucket struct {
	min    int
	points int
}

var recencyBuckets = []bucket{
	{90, 40},
	{60, 30},
	{30, 20},
	{0, 10},
}

func frequencyPoints(orders int) int {
	switch {
	case orders == 1:
		return 30
	case orders <= 3:
		return 20
	default:
		return 10
	}
}

var (
	lowValue = decimal.NewFromInt(100)
	midValue = decimal.NewFromInt(200)
)

// Score returns a churn risk score in [0,100] as the sum of independent
// recency, frequency and value contributions. The function is pure; it is
// reused by the cohort builders and by ad hoc per-customer queries.
func Score(c *contracts.Customer) int {
	score := 0

	for _, b := range recencyBuckets {
		if c.DaysSinceLastOrder >= b.min {
			score += b.points
			break
		}
	}

	score += frequencyPoints(c.TotalOrders)

	switch {
	case c.AvgOrderValue.LessThan(lowValue):
		score += 30
	case c.AvgOrderValue.LessThan(midValue):
		score += 20
	default:
		score += 10
	}

	return score
}

// Scorer builds the churn risk report and recomputes churned flags.
type Scorer struct {
	churnDays int
	logger    *logger.Logger
}

// NewScorer creates a scorer. churnDays is the inactivity threshold after
// which a customer is flagged churned (typically 90).
func NewScorer(churnDays int, log *logger.Logger) *Scorer {
	return &Scorer{churnDays: churnDays, logger: log}
}

// Report builds the two exposed risk cohorts. "At risk" holds customers
// inactive 60-89 days and not yet flagged churned; "high risk" holds
// customers inactive 90+ days and already flagged. Each cohort lists at
// most cohortCap customers ordered by descending revenue; the counts and
// revenue at risk cover every qualifying customer.
func (s *Scorer) Report(customers []contracts.Customer) contracts.ChurnReport {
	var atRisk, highRisk []contracts.RiskScoredCustomer
	revenueAtRisk := decimal.Zero

	for i := range customers {
		c := &customers[i]
		if !c.HasOrders() {
			continue
		}

		switch {
		case c.DaysSinceLastOrder >= 60 && c.DaysSinceLastOrder < 90 && !c.IsChurned:
			atRisk = append(atRisk, scored(c, contracts.RiskMedium))
			revenueAtRisk = revenueAtRisk.Add(c.TotalRevenue)
		case c.DaysSinceLastOrder >= 90 && c.IsChurned:
			highRisk = append(highRisk, scored(c, contracts.RiskHigh))
			revenueAtRisk = revenueAtRisk.Add(c.TotalRevenue)
		}
	}

	byRevenueDesc := func(rows []contracts.RiskScoredCustomer) {
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].TotalRevenue.GreaterThan(rows[j].TotalRevenue)
		})
	}
	byRevenueDesc(atRisk)
	byRevenueDesc(highRisk)

	report := contracts.ChurnReport{
		AtRiskCount:   len(atRisk),
		HighRiskCount: len(highRisk),
		RevenueAtRisk: revenueAtRisk.Round(2),
		AtRisk:        capRows(atRisk),
		HighRisk:      capRows(highRisk),
	}

	s.logger.WithFields(map[string]interface{}{
		"at_risk":   report.AtRiskCount,
		"high_risk": report.HighRiskCount,
	}).Info("churn risk report computed")

	return report
}

// Flags recomputes the churned flag for every customer with order
// history: churned when inactive for strictly more than churnDays.
func (s *Scorer) Flags(customers []contracts.Customer) []contracts.ChurnFlag {
	flags := make([]contracts.ChurnFlag, 0, len(customers))
	for i := range customers {
		c := &customers[i]
		if !c.HasOrders() {
			continue
		}
		flags = append(flags, contracts.ChurnFlag{
			CustomerID: c.ID,
			IsChurned:  c.DaysSinceLastOrder > s.churnDays,
		})
	}
	return flags
}

func scored(c *contracts.Customer, level string) contracts.RiskScoredCustomer {
	return contracts.RiskScoredCustomer{
		CustomerID:         c.ID,
		ExternalID:         c.ExternalID,
		Segment:            c.Segment,
		DaysSinceLastOrder: c.DaysSinceLastOrder,
		TotalOrders:        c.TotalOrders,
		TotalRevenue:       c.TotalRevenue,
		RiskScore:          Score(c),
		RiskLevel:          level,
	}
}

func capRows(rows []contracts.RiskScoredCustomer) []contracts.RiskScoredCustomer {
	if len(rows) > cohortCap {
		return rows[:cohortCap]
	}
	return rows
}
