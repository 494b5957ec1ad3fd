package attribution

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/pkg/config"
	"github.com/cortexbi/cortex/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func campaign(id int64, source, utmCampaign string, active bool) contracts.Campaign {
	return contracts.Campaign{ID: id, UTMSource: source, UTMCampaign: utmCampaign, IsActive: active}
}

func utmOrder(id int64, source, utmCampaign string, amount float64) contracts.Order {
	ch := 3
	return contracts.Order{
		ID:          id,
		Status:      contracts.OrderDelivered,
		TotalAmount: decimal.NewFromFloat(amount),
		UTMSource:   source,
		UTMCampaign: utmCampaign,
		ChannelID:   &ch,
	}
}

func TestMatchSubstringJoin(t *testing.T) {
	orders := []contracts.Order{utmOrder(1, "google", "search_3", 149.99)}
	campaigns := []contracts.Campaign{
		campaign(10, "google", "brand_search_31_exact", true),
		campaign(11, "meta", "search_3", true),
	}

	rows := NewMatcher(testLogger()).Match(orders, campaigns)
	require.Len(t, rows, 1)

	row := rows[0]
	require.NotNil(t, row.CampaignID)
	assert.Equal(t, int64(10), *row.CampaignID)
	assert.Equal(t, contracts.ModelLastClick, row.Model)
	assert.True(t, row.AttributedRevenue.Equal(decimal.NewFromFloat(149.99)), "full order total, exact")
	assert.True(t, row.AttributedOrders.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "last", row.TouchpointPosition)
	require.NotNil(t, row.ChannelID)
	assert.Equal(t, 3, *row.ChannelID)
}

func TestMatchLowestCampaignIDWins(t *testing.T) {
	// Two active campaigns both contain the order's campaign string; the
	// lowest campaign ID wins regardless of input order.
	orders := []contracts.Order{utmOrder(1, "google", "search_3", 100)}
	campaigns := []contracts.Campaign{
		campaign(42, "google", "search_3_retarget", true),
		campaign(7, "google", "search_3_prospect", true),
	}

	rows := NewMatcher(testLogger()).Match(orders, campaigns)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].CampaignID)
	assert.Equal(t, int64(7), *rows[0].CampaignID)
}

func TestMatchIgnoresInactiveCampaigns(t *testing.T) {
	orders := []contracts.Order{utmOrder(1, "google", "search_3", 100)}
	campaigns := []contracts.Campaign{
		campaign(5, "google", "search_3", false),
		campaign(9, "google", "search_3", true),
	}

	rows := NewMatcher(testLogger()).Match(orders, campaigns)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].CampaignID)
	assert.Equal(t, int64(9), *rows[0].CampaignID)
}

func TestMatchFallsBackToChannelOnly(t *testing.T) {
	tests := []struct {
		name  string
		order contracts.Order
	}{
		{"no utm fields", utmOrder(1, "", "", 100)},
		{"source only", utmOrder(2, "google", "", 100)},
		{"no matching source", utmOrder(3, "tiktok", "search_3", 100)},
		{"source differs by case", utmOrder(4, "Google", "search_3", 100)},
	}
	campaigns := []contracts.Campaign{campaign(10, "google", "search_3", true)}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := NewMatcher(testLogger()).Match([]contracts.Order{tt.order}, campaigns)
			require.Len(t, rows, 1)
			assert.Nil(t, rows[0].CampaignID)
			require.NotNil(t, rows[0].ChannelID)
			assert.True(t, rows[0].AttributedRevenue.Equal(decimal.NewFromInt(100)))
		})
	}
}

func TestMatchSkipsCancelledOrders(t *testing.T) {
	cancelled := utmOrder(1, "google", "search_3", 100)
	cancelled.Status = contracts.OrderCancelled
	orders := []contracts.Order{cancelled, utmOrder(2, "google", "search_3", 50)}

	rows := NewMatcher(testLogger()).Match(orders, []contracts.Campaign{campaign(10, "google", "search_3", true)})
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].OrderID)
}
