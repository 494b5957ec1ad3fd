// Package insights derives operational alerts and recommendations from
// already-computed analytics.
package insights

import (
	"fmt"
	"math"
	"time"

	"github.com/cortexbi/cortex/pkg/logger"
)

// Alert severities.
const (
	AlertDanger  = "danger"
	AlertWarning = "warning"
	AlertInfo    = "info"
)

// Alert is one triggered metric rule.
type Alert struct {
	ID            string    `json:"alert_id"`
	Type          string    `json:"alert_type"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Metric        string    `json:"metric"`
	CurrentValue  float64   `json:"current_value"`
	Threshold     float64   `json:"threshold"`
	ChangePercent *float64  `json:"change_percent,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Recommendation is one suggested action derived from population state.
type Recommendation struct {
	ID              string `json:"id"`
	Priority        string `json:"priority"`
	Category        string `json:"category"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	PotentialImpact string `json:"potential_impact"`
	Action          string `json:"action"`
}

// WeeklyMetrics is the week-over-week input to the alert rules: totals
// for the trailing 7 days and the 7 days before that, plus churn counts
// over the whole ordered population.
type WeeklyMetrics struct {
	CurrentRevenue  float64
	PreviousRevenue float64
	CurrentSpend    float64
	PreviousSpend   float64

	ChurnedCustomers int
	TotalCustomers   int
}

// PopulationStats is the input to the recommendation rules.
type PopulationStats struct {
	ChurnedVIPs     int
	LowStockClassA  int
	AtRiskCustomers int
}

const (
	revenueDropThreshold  = -10.0
	revenueSpikeThreshold = 20.0
	minROAS               = 2.0
	maxChurnRate          = 15.0
	atRiskThreshold       = 20
)

// Engine evaluates the alert and recommendation rule sets.
type Engine struct {
	logger *logger.Logger
}

func NewEngine(log *logger.Logger) *Engine {
	return &Engine{logger: log}
}

// Alerts evaluates the week-over-week rules and returns every triggered
// alert. Rules with an undefined baseline (zero previous revenue or
// spend) stay silent rather than dividing by zero.
func (e *Engine) Alerts(m WeeklyMetrics, now time.Time) []Alert {
	var alerts []Alert

	if m.PreviousRevenue > 0 {
		change := (m.CurrentRevenue - m.PreviousRevenue) / m.PreviousRevenue * 100
		switch {
		case change < revenueDropThreshold:
			alerts = append(alerts, Alert{
				ID:            "rev_drop",
				Type:          AlertDanger,
				Title:         "Revenue Drop",
				Message:       fmt.Sprintf("Revenue fell %.1f%% versus the previous week", math.Abs(change)),
				Metric:        "revenue",
				CurrentValue:  m.CurrentRevenue,
				Threshold:     m.PreviousRevenue * 0.9,
				ChangePercent: f64ptr(round2(change)),
				CreatedAt:     now,
			})
		case change > revenueSpikeThreshold:
			alerts = append(alerts, Alert{
				ID:            "rev_spike",
				Type:          AlertInfo,
				Title:         "Revenue Spike",
				Message:       fmt.Sprintf("Revenue grew %.1f%% versus the previous week", change),
				Metric:        "revenue",
				CurrentValue:  m.CurrentRevenue,
				Threshold:     m.PreviousRevenue * 1.2,
				ChangePercent: f64ptr(round2(change)),
				CreatedAt:     now,
			})
		}
	}

	if m.CurrentSpend > 0 && m.CurrentRevenue > 0 {
		roas := m.CurrentRevenue / m.CurrentSpend
		if roas < minROAS {
			alert := Alert{
				ID:           "low_roas",
				Type:         AlertWarning,
				Title:        "Low ROAS",
				Message:      fmt.Sprintf("Current ROAS is %.2fx, below the %.0fx target", roas, minROAS),
				Metric:       "roas",
				CurrentValue: roas,
				Threshold:    minROAS,
				CreatedAt:    now,
			}
			if m.PreviousSpend > 0 && m.PreviousRevenue > 0 {
				prevROAS := m.PreviousRevenue / m.PreviousSpend
				alert.ChangePercent = f64ptr(round2((roas - prevROAS) / prevROAS * 100))
			}
			alerts = append(alerts, alert)
		}
	}

	if m.TotalCustomers > 0 {
		churnRate := float64(m.ChurnedCustomers) / float64(m.TotalCustomers) * 100
		if churnRate > maxChurnRate {
			alerts = append(alerts, Alert{
				ID:           "high_churn",
				Type:         AlertWarning,
				Title:        "High Churn Rate",
				Message:      fmt.Sprintf("%d customers (%.1f%%) have not purchased in over 90 days", m.ChurnedCustomers, churnRate),
				Metric:       "churn_rate",
				CurrentValue: churnRate,
				Threshold:    maxChurnRate,
				CreatedAt:    now,
			})
		}
	}

	e.logger.WithField("alerts", len(alerts)).Info("alert rules evaluated")
	return alerts
}

// Recommendations evaluates the population rules. The checkout
// optimization entry is always present; the rest trigger on thresholds,
// and a seasonal entry appears in October and November.
func (e *Engine) Recommendations(stats PopulationStats, now time.Time) []Recommendation {
	var recs []Recommendation

	if stats.ChurnedVIPs > 0 {
		recs = append(recs, Recommendation{
			ID:              "recover_vips",
			Priority:        "high",
			Category:        "retention",
			Title:           "Win Back VIP Customers",
			Description:     fmt.Sprintf("%d VIP customers have not purchased in over 90 days. Consider a personalized reactivation campaign.", stats.ChurnedVIPs),
			PotentialImpact: fmt.Sprintf("Potential to recover $%d+ in revenue", stats.ChurnedVIPs*500),
			Action:          "Send a personalized email campaign with an exclusive offer",
		})
	}

	if stats.LowStockClassA > 0 {
		recs = append(recs, Recommendation{
			ID:              "restock_products",
			Priority:        "high",
			Category:        "inventory",
			Title:           "Class A Products Running Low",
			Description:     fmt.Sprintf("%d class A products are at critical stock levels. Prioritize replenishment to avoid lost sales.", stats.LowStockClassA),
			PotentialImpact: "Avoid lost sales from stockouts",
			Action:          "Review suppliers and expedite purchase orders",
		})
	}

	recs = append(recs, Recommendation{
		ID:              "optimize_checkout",
		Priority:        "medium",
		Category:        "conversion",
		Title:           "Improve Conversion Rate",
		Description:     "Cart abandonment sits around 75%. Consider abandoned-cart remarketing.",
		PotentialImpact: "10-15% more conversions",
		Action:          "Set up an abandoned-cart email automation",
	})

	if stats.AtRiskCustomers > atRiskThreshold {
		recs = append(recs, Recommendation{
			ID:              "save_at_risk",
			Priority:        "medium",
			Category:        "retention",
			Title:           "At-Risk Customers",
			Description:     fmt.Sprintf("%d previously frequent buyers are at risk of churning.", stats.AtRiskCustomers),
			PotentialImpact: fmt.Sprintf("Recover up to %.0f customers with targeted campaigns", float64(stats.AtRiskCustomers)*0.3),
			Action:          "Send a satisfaction survey plus a discount coupon",
		})
	}

	if now.Month() == time.October || now.Month() == time.November {
		recs = append(recs, Recommendation{
			ID:              "blackfriday_prep",
			Priority:        "high",
			Category:        "seasonal",
			Title:           "Black Friday Preparation",
			Description:     "Black Friday is approaching. Prepare inventory, campaigns and infrastructure.",
			PotentialImpact: "50-100% sales lift during the period",
			Action:          "Plan promotions, verify stock levels and scale capacity",
		})
	}

	return recs
}

func f64ptr(v float64) *float64 { return &v }

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
