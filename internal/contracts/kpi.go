package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// KPIReport is the headline metric payload for a resolved period. Ratio
// metrics whose denominator was zero are nil: "no signal" is distinct from
// a true zero. Percentage fields are rounded to two decimals at this
// boundary and nowhere earlier.
type KPIReport struct {
	Period      string    `json:"period"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalOrders    int             `json:"total_orders"`
	TotalCustomers int             `json:"total_customers"`
	NewCustomers   int             `json:"new_customers"`
	AvgOrderValue  decimal.Decimal `json:"avg_order_value"`
	RepeatRate     float64         `json:"repeat_rate"`

	TotalAdSpend decimal.Decimal  `json:"total_ad_spend"`
	ROAS         *decimal.Decimal `json:"roas"`
	CAC          *decimal.Decimal `json:"cac"`

	RevenueChange   *float64 `json:"revenue_change"`
	OrdersChange    *float64 `json:"orders_change"`
	CustomersChange *float64 `json:"customers_change"`
	AOVChange       *float64 `json:"aov_change"`
}

// RevenuePoint is one day of the revenue series, zero-filled from the
// calendar dimension.
type RevenuePoint struct {
	Date      time.Time       `json:"date"`
	Revenue   decimal.Decimal `json:"revenue"`
	Orders    int             `json:"orders"`
	Customers int             `json:"customers"`
}

// TopProduct is a ranked product for the period.
type TopProduct struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"product_name"`
	Category  string          `json:"category"`
	UnitsSold int             `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
	Rank      int             `json:"rank"`
}

// TopChannel is a channel's share of period revenue.
type TopChannel struct {
	Channel    string          `json:"channel"`
	Orders     int             `json:"orders"`
	Revenue    decimal.Decimal `json:"revenue"`
	Percentage float64         `json:"percentage"`
}

// CampaignPerformance is spend joined with attributed results for one
// campaign over a period.
type CampaignPerformance struct {
	CampaignID  int64            `json:"campaign_id"`
	Name        string           `json:"campaign_name"`
	Platform    string           `json:"platform"`
	FunnelStage FunnelStage      `json:"funnel_stage"`
	Spend       decimal.Decimal  `json:"spend"`
	Impressions int64            `json:"impressions"`
	Clicks      int64            `json:"clicks"`
	Orders      int              `json:"orders"`
	Revenue     decimal.Decimal  `json:"revenue"`
	ROAS        *decimal.Decimal `json:"roas"`
	CPA         *decimal.Decimal `json:"cpa"`
	CPC         *decimal.Decimal `json:"cpc"`
	CTR         *float64         `json:"ctr"`
}

// PlatformPerformance aggregates campaign performance per ad platform.
type PlatformPerformance struct {
	Platform    string           `json:"platform"`
	Campaigns   int              `json:"campaigns"`
	Spend       decimal.Decimal  `json:"spend"`
	Impressions int64            `json:"impressions"`
	Clicks      int64            `json:"clicks"`
	Orders      int              `json:"orders"`
	Revenue     decimal.Decimal  `json:"revenue"`
	ROAS        *decimal.Decimal `json:"roas"`
	CPA         *decimal.Decimal `json:"cpa"`
	CTR         *float64         `json:"ctr"`
}

// SpendRevenuePoint is one day of the spend versus revenue trend.
type SpendRevenuePoint struct {
	Date    time.Time        `json:"date"`
	Spend   decimal.Decimal  `json:"spend"`
	Revenue decimal.Decimal  `json:"revenue"`
	ROAS    *decimal.Decimal `json:"roas"`
}

// HeatmapCell is order volume for one (weekday, hour) slot; weekdays are
// numbered Sunday=0 per time.Weekday.
type HeatmapCell struct {
	DayOfWeek int             `json:"day_of_week"`
	Hour      int             `json:"hour"`
	Orders    int             `json:"orders"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// PeriodSnapshot is order volume over one named comparison window.
type PeriodSnapshot struct {
	Orders    int             `json:"orders"`
	Revenue   decimal.Decimal `json:"revenue"`
	Customers int             `json:"customers"`
}

// FunnelStagePerformance aggregates campaign performance per funnel stage.
type FunnelStagePerformance struct {
	Stage   FunnelStage      `json:"funnel_stage"`
	Order   int              `json:"order"`
	Spend   decimal.Decimal  `json:"spend"`
	Orders  int              `json:"orders"`
	Revenue decimal.Decimal  `json:"revenue"`
	ROAS    *decimal.Decimal `json:"roas"`
	CPA     *decimal.Decimal `json:"cpa"`
}
