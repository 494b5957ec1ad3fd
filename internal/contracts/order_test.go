package contracts

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrder_ComputedTotal(t *testing.T) {
	tests := []struct {
		name     string
		subtotal string
		shipping string
		discount string
		want     string
	}{
		{"plain", "100.00", "10.00", "0.00", "110.00"},
		{"with discount", "250.50", "15.90", "30.00", "236.40"},
		{"free shipping full discount", "80.00", "0.00", "80.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{
				Subtotal:       decimal.RequireFromString(tt.subtotal),
				ShippingCost:   decimal.RequireFromString(tt.shipping),
				DiscountAmount: decimal.RequireFromString(tt.discount),
			}
			if got := o.ComputedTotal(); !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ComputedTotal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOrder_IsCancelled(t *testing.T) {
	for _, status := range []OrderStatus{OrderPending, OrderShipped, OrderDelivered, OrderPaid} {
		o := &Order{Status: status}
		if o.IsCancelled() {
			t.Errorf("order with status %q should not be cancelled", status)
		}
	}

	o := &Order{Status: OrderCancelled}
	if !o.IsCancelled() {
		t.Error("cancelled order not reported as cancelled")
	}
}

func TestOrderItem_LineTotal(t *testing.T) {
	item := &OrderItem{
		Quantity:  3,
		UnitPrice: decimal.RequireFromString("19.90"),
	}

	want := decimal.RequireFromString("59.70")
	if got := item.LineTotal(); !got.Equal(want) {
		t.Errorf("LineTotal() = %s, want %s", got, want)
	}
}
