package contracts

import "github.com/shopspring/decimal"

// Attribution models. Only last-click is computed today; the fractional
// attributed-orders column supports multi-touch models without a schema
// change.
const (
	ModelLastClick = "last_click"
)

// Attribution links an order's revenue to a channel and, when the matcher
// resolves one, a campaign. One row per (order, model).
type Attribution struct {
	ID         int64  `json:"attribution_id"`
	OrderID    int64  `json:"order_id"`
	CampaignID *int64 `json:"campaign_id,omitempty"`
	ChannelID  *int   `json:"channel_id,omitempty"`

	Model string `json:"attribution_model"`

	AttributedRevenue decimal.Decimal `json:"attributed_revenue"`
	AttributedOrders  decimal.Decimal `json:"attributed_orders"`

	TouchpointPosition string `json:"touchpoint_position,omitempty"`
}
