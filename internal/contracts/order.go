package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderCancelled OrderStatus = "cancelled"
	OrderPending   OrderStatus = "pending"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderPaid      OrderStatus = "paid"
)

// Order is a fact row. Cancelled orders are excluded from every revenue
// aggregation.
type Order struct {
	ID         int64 `json:"order_id"`
	ExternalID string `json:"external_order_id"`
	CustomerID int64 `json:"customer_id"`
	DateKey    int   `json:"date_key"`

	CreatedAt time.Time `json:"order_created_at"`

	Status        OrderStatus `json:"order_status"`
	PaymentMethod string      `json:"payment_method,omitempty"`

	// Values
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`

	TotalItems    int `json:"total_items"`
	TotalQuantity int `json:"total_quantity"`

	// Attribution
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	ChannelID   *int   `json:"channel_id,omitempty"`

	// Click identifiers
	GCLID string `json:"gclid,omitempty"`
	FBC   string `json:"fbc,omitempty"`
	TTCLID string `json:"ttclid,omitempty"`

	IsFirstOrder  bool `json:"is_first_order"`
	IsRepeatOrder bool `json:"is_repeat_order"`
}

// IsCancelled reports whether the order is excluded from aggregations.
func (o *Order) IsCancelled() bool {
	return o.Status == OrderCancelled
}

// ComputedTotal returns subtotal + shipping - discount. At creation this
// must equal TotalAmount.
func (o *Order) ComputedTotal() decimal.Decimal {
	return o.Subtotal.Add(o.ShippingCost).Sub(o.DiscountAmount)
}

// OrderItem is a line of an order, tied to one product.
type OrderItem struct {
	ID        int64 `json:"order_item_id"`
	OrderID   int64 `json:"order_id"`
	ProductID int64 `json:"product_id"`
	DateKey   int   `json:"date_key"`

	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalPrice     decimal.Decimal `json:"total_price"`
}

// LineTotal returns unit price x quantity before discount allocation.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
