package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// CohortMetric is one cell of the retention grid: one acquisition-month
// cohort observed at one integer month offset since acquisition. The grid
// is fully recomputed each run, never incrementally maintained.
type CohortMetric struct {
	CohortMonth            time.Time       `json:"cohort_month"`
	MonthsSinceAcquisition int             `json:"months_since_acquisition"`
	CohortSize             int             `json:"cohort_size"`
	ActiveCustomers        int             `json:"active_customers"`
	Orders                 int             `json:"orders"`
	Revenue                decimal.Decimal `json:"revenue"`
	RetentionRate          float64         `json:"retention_rate"`
	LTV                    decimal.Decimal `json:"ltv"` // cumulative revenue per cohort customer
}

// CohortLTV is a cohort-by-acquisition-channel lifetime value summary.
type CohortLTV struct {
	CohortMonth        time.Time       `json:"cohort_month"`
	AcquisitionChannel string          `json:"acquisition_channel"`
	CohortSize         int             `json:"cohort_size"`
	TotalLTV           decimal.Decimal `json:"total_ltv"`
	AvgLTV             decimal.Decimal `json:"avg_ltv"`
	AvgOrders          float64         `json:"avg_orders"`
}
