package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexbi/cortex/pkg/config"
	"github.com/cortexbi/cortex/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func alertByID(alerts []Alert, id string) *Alert {
	for i := range alerts {
		if alerts[i].ID == id {
			return &alerts[i]
		}
	}
	return nil
}

func recByID(recs []Recommendation, id string) *Recommendation {
	for i := range recs {
		if recs[i].ID == id {
			return &recs[i]
		}
	}
	return nil
}

func TestAlertsRevenueDrop(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	alerts := NewEngine(testLogger()).Alerts(WeeklyMetrics{
		CurrentRevenue:  800,
		PreviousRevenue: 1000,
	}, now)

	drop := alertByID(alerts, "rev_drop")
	require.NotNil(t, drop)
	assert.Equal(t, AlertDanger, drop.Type)
	require.NotNil(t, drop.ChangePercent)
	assert.InDelta(t, -20.0, *drop.ChangePercent, 0.001)
	assert.Nil(t, alertByID(alerts, "rev_spike"))
}

func TestAlertsRevenueSpike(t *testing.T) {
	alerts := NewEngine(testLogger()).Alerts(WeeklyMetrics{
		CurrentRevenue:  1300,
		PreviousRevenue: 1000,
	}, time.Now())

	spike := alertByID(alerts, "rev_spike")
	require.NotNil(t, spike)
	assert.Equal(t, AlertInfo, spike.Type)
}

func TestAlertsRevenueWithinBand(t *testing.T) {
	// -10% and +20% are exclusive thresholds.
	alerts := NewEngine(testLogger()).Alerts(WeeklyMetrics{
		CurrentRevenue:  900,
		PreviousRevenue: 1000,
	}, time.Now())
	assert.Nil(t, alertByID(alerts, "rev_drop"))
	assert.Nil(t, alertByID(alerts, "rev_spike"))
}

func TestAlertsLowROAS(t *testing.T) {
	alerts := NewEngine(testLogger()).Alerts(WeeklyMetrics{
		CurrentRevenue:  1000,
		PreviousRevenue: 1000,
		CurrentSpend:    600,
		PreviousSpend:   400,
	}, time.Now())

	low := alertByID(alerts, "low_roas")
	require.NotNil(t, low)
	assert.Equal(t, AlertWarning, low.Type)
	assert.InDelta(t, 1.6667, low.CurrentValue, 0.001)
	require.NotNil(t, low.ChangePercent)
	// 1.667x vs 2.5x previous week.
	assert.InDelta(t, -33.33, *low.ChangePercent, 0.01)
}

func TestAlertsHighChurn(t *testing.T) {
	alerts := NewEngine(testLogger()).Alerts(WeeklyMetrics{
		ChurnedCustomers: 20,
		TotalCustomers:   100,
	}, time.Now())

	churn := alertByID(alerts, "high_churn")
	require.NotNil(t, churn)
	assert.InDelta(t, 20.0, churn.CurrentValue, 0.001)
}

func TestAlertsSilentWithoutBaseline(t *testing.T) {
	// No previous revenue, no spend, no customers: nothing can trigger.
	alerts := NewEngine(testLogger()).Alerts(WeeklyMetrics{CurrentRevenue: 500}, time.Now())
	assert.Empty(t, alerts)
}

func TestRecommendations(t *testing.T) {
	june := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	recs := NewEngine(testLogger()).Recommendations(PopulationStats{
		ChurnedVIPs:     4,
		LowStockClassA:  2,
		AtRiskCustomers: 35,
	}, june)

	require.NotNil(t, recByID(recs, "recover_vips"))
	require.NotNil(t, recByID(recs, "restock_products"))
	require.NotNil(t, recByID(recs, "optimize_checkout"))
	require.NotNil(t, recByID(recs, "save_at_risk"))
	assert.Nil(t, recByID(recs, "blackfriday_prep"))

	vips := recByID(recs, "recover_vips")
	assert.Equal(t, "high", vips.Priority)
	assert.Contains(t, vips.PotentialImpact, "2000")
}

func TestRecommendationsBaseline(t *testing.T) {
	// An empty population still yields the standing checkout entry.
	recs := NewEngine(testLogger()).Recommendations(PopulationStats{}, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, recs, 1)
	assert.Equal(t, "optimize_checkout", recs[0].ID)
}

func TestRecommendationsSeasonal(t *testing.T) {
	october := time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC)
	recs := NewEngine(testLogger()).Recommendations(PopulationStats{}, october)
	assert.NotNil(t, recByID(recs, "blackfriday_prep"))
}

func TestRecommendationsAtRiskThreshold(t *testing.T) {
	// Exactly 20 at-risk customers stays below the trigger.
	recs := NewEngine(testLogger()).Recommendations(PopulationStats{AtRiskCustomers: 20}, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.Nil(t, recByID(recs, "save_at_risk"))
}
