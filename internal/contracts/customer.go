package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// RFM segment labels, assigned by the segmentation engine.
const (
	SegmentChampions          = "Champions"
	SegmentLoyalCustomers     = "Loyal Customers"
	SegmentRecentCustomers    = "Recent Customers"
	SegmentPotentialLoyalists = "Potential Loyalists"
	SegmentAtRisk             = "At Risk"
	SegmentHibernating        = "Hibernating"
	SegmentLost               = "Lost"
	SegmentOther              = "Other"
)

// Customer is a dimension row with running totals and derived scores.
// The analytics engines read customers as an immutable snapshot; only the
// batch write-back step updates the derived fields (RFM scores, segment,
// VIP and churn flags).
type Customer struct {
	ID         int64  `json:"customer_id"`
	ExternalID string `json:"external_customer_id"`
	EmailHash  string `json:"email_hash,omitempty"`

	// Demographics
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`

	// Acquisition
	FirstOrderDate     *time.Time `json:"first_order_date,omitempty"`
	FirstOrderSource   string     `json:"first_order_source,omitempty"`
	FirstOrderCampaign string     `json:"first_order_campaign,omitempty"`
	FirstOrderChannel  string     `json:"first_order_channel,omitempty"`

	// Running totals
	TotalOrders        int             `json:"total_orders"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	TotalItems         int             `json:"total_items_purchased"`
	AvgOrderValue      decimal.Decimal `json:"average_order_value"`
	LastOrderDate      *time.Time      `json:"last_order_date,omitempty"`
	DaysSinceLastOrder int             `json:"days_since_last_order"`
	LifetimeDays       int             `json:"customer_lifetime_days"`

	// RFM (1-5 per axis, 0 until scored)
	RecencyScore   int    `json:"rfm_recency_score,omitempty"`
	FrequencyScore int    `json:"rfm_frequency_score,omitempty"`
	MonetaryScore  int    `json:"rfm_monetary_score,omitempty"`
	Segment        string `json:"rfm_segment,omitempty"`

	// Flags
	IsRepeat  bool `json:"is_repeat_customer"`
	IsVIP     bool `json:"is_vip"`
	IsChurned bool `json:"is_churned"`
}

// HasOrders reports whether the customer belongs to the scored population.
func (c *Customer) HasOrders() bool {
	return c.TotalOrders > 0
}

// RecencyDays returns the recency sort key. Customers that never ordered
// sort last.
func (c *Customer) RecencyDays() int {
	if c.LastOrderDate == nil {
		return 9999
	}
	return c.DaysSinceLastOrder
}

// CohortMonth returns the acquisition month (first order date truncated to
// the first of the month, UTC) and false when the customer has no orders.
func (c *Customer) CohortMonth() (time.Time, bool) {
	if c.FirstOrderDate == nil {
		return time.Time{}, false
	}
	d := c.FirstOrderDate.UTC()
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC), true
}

// CustomerScores is the derived output of one RFM segmentation pass for a
// single customer, applied back onto the dimension row atomically.
type CustomerScores struct {
	CustomerID int64  `json:"customer_id"`
	Recency    int    `json:"recency"`
	Frequency  int    `json:"frequency"`
	Monetary   int    `json:"monetary"`
	Segment    string `json:"segment"`
	IsVIP      bool   `json:"is_vip"`
}

// ChurnFlag is the derived churn state for a single customer.
type ChurnFlag struct {
	CustomerID int64 `json:"customer_id"`
	IsChurned  bool  `json:"is_churned"`
}
