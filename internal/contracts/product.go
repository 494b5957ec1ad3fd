package contracts

import "github.com/shopspring/decimal"

// ABCClass is a revenue-concentration tier. Products with no recorded
// revenue carry no class at all: absence of sales is a distinct state from
// "low-value tail".
type ABCClass string

const (
	ClassA ABCClass = "A"
	ClassB ABCClass = "B"
	ClassC ABCClass = "C"
)

// Product is a dimension row with running sales totals.
type Product struct {
	ID         int64  `json:"product_id"`
	ExternalID string `json:"external_product_id"`
	SKU        string `json:"sku,omitempty"`
	Name       string `json:"product_name"`

	// Category hierarchy
	CategoryLevel1 string `json:"category_level_1,omitempty"`
	CategoryLevel2 string `json:"category_level_2,omitempty"`
	CategoryLevel3 string `json:"category_level_3,omitempty"`
	Brand          string `json:"brand,omitempty"`

	// Pricing
	CurrentPrice decimal.Decimal `json:"current_price"`
	CostPrice    decimal.Decimal `json:"cost_price"`

	IsActive      bool `json:"is_active"`
	StockQuantity int  `json:"stock_quantity"`

	// Running totals
	TotalUnitsSold int             `json:"total_units_sold"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`

	// Derived, nil until the classifier has run
	ABC *ABCClass `json:"abc_classification,omitempty"`
}

// HasRevenue reports whether the product belongs to the classified
// population.
func (p *Product) HasRevenue() bool {
	return p.TotalRevenue.IsPositive()
}

// ProductClass is the derived output of one ABC classification pass for a
// single product.
type ProductClass struct {
	ProductID    int64           `json:"product_id"`
	Class        ABCClass        `json:"class"`
	RevenueShare decimal.Decimal `json:"revenue_share"`
	Rank         int             `json:"rank"`
}
