package contracts

import (
	"testing"
	"time"
)

func TestCustomer_CohortMonth(t *testing.T) {
	first := time.Date(2025, 3, 17, 14, 30, 0, 0, time.UTC)
	c := &Customer{FirstOrderDate: &first, TotalOrders: 2}

	month, ok := c.CohortMonth()
	if !ok {
		t.Fatal("expected cohort month for customer with orders")
	}

	want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if !month.Equal(want) {
		t.Errorf("CohortMonth() = %v, want %v", month, want)
	}
}

func TestCustomer_CohortMonthWithoutOrders(t *testing.T) {
	c := &Customer{}
	if _, ok := c.CohortMonth(); ok {
		t.Error("expected no cohort month for customer without a first order")
	}
}

func TestCustomer_RecencyDays(t *testing.T) {
	last := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		customer *Customer
		want     int
	}{
		{"with last order", &Customer{LastOrderDate: &last, DaysSinceLastOrder: 42}, 42},
		{"never ordered sorts last", &Customer{}, 9999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.customer.RecencyDays(); got != tt.want {
				t.Errorf("RecencyDays() = %d, want %d", got, tt.want)
			}
		})
	}
}
