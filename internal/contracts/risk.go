package contracts

import "github.com/shopspring/decimal"

// Churn risk levels for the two exposed cohorts.
const (
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// RiskScoredCustomer is a customer with a computed churn risk score.
type RiskScoredCustomer struct {
	CustomerID         int64           `json:"customer_id"`
	ExternalID         string          `json:"external_id"`
	Segment            string          `json:"segment"`
	DaysSinceLastOrder int             `json:"days_since_last_order"`
	TotalOrders        int             `json:"total_orders"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	RiskScore          int             `json:"risk_score"`
	RiskLevel          string          `json:"risk_level"`
}

// ChurnReport is the churn risk payload: the "at risk" cohort (inactive
// 60-89 days, not yet flagged churned) and the "high risk" cohort
// (inactive 90+ days and flagged churned).
type ChurnReport struct {
	AtRiskCount    int             `json:"at_risk_count"`
	HighRiskCount  int             `json:"high_risk_count"`
	RevenueAtRisk  decimal.Decimal `json:"total_revenue_at_risk"`
	AtRisk         []RiskScoredCustomer `json:"at_risk_customers"`
	HighRisk       []RiskScoredCustomer `json:"high_risk_customers"`
}

// SegmentSummary is the distribution of one RFM segment across the scored
// population.
type SegmentSummary struct {
	Segment      string          `json:"segment"`
	Count        int             `json:"count"`
	Percentage   float64         `json:"percentage"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	AvgOrders    float64         `json:"avg_orders"`
	AvgRevenue   decimal.Decimal `json:"avg_revenue"`
}
