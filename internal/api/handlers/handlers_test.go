package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexbi/cortex/internal/abc"
	"github.com/cortexbi/cortex/internal/churn"
	"github.com/cortexbi/cortex/internal/cohort"
	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/internal/insights"
	"github.com/cortexbi/cortex/internal/kpi"
	"github.com/cortexbi/cortex/internal/segmentation"
	"github.com/cortexbi/cortex/pkg/config"
	"github.com/cortexbi/cortex/pkg/logger"
	"github.com/cortexbi/cortex/pkg/redis"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

// noopCache builds a cache helper backed by a disabled client: every Get
// misses, every Set is dropped.
func noopCache(t *testing.T) *redis.Cache {
	t.Helper()
	client, err := redis.New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return redis.NewCache(client, "test")
}

type fakeStore struct {
	customers    []contracts.Customer
	orders       []contracts.Order
	items        []contracts.OrderItem
	products     []contracts.Product
	campaigns    []contracts.Campaign
	spend        []contracts.AdSpend
	channels     []contracts.Channel
	days         []contracts.CalendarDay
	attributions []contracts.Attribution
}

func (s *fakeStore) CustomersWithOrders(ctx context.Context) ([]contracts.Customer, error) {
	return s.customers, nil
}

func (s *fakeStore) CustomerByID(ctx context.Context, id int64) (*contracts.Customer, error) {
	for i := range s.customers {
		if s.customers[i].ID == id {
			return &s.customers[i], nil
		}
	}
	return nil, contracts.ErrNotFound
}

func (s *fakeStore) OrdersInRange(ctx context.Context, from, to time.Time) ([]contracts.Order, error) {
	return s.orders, nil
}

func (s *fakeStore) AllOrders(ctx context.Context) ([]contracts.Order, error) {
	return s.orders, nil
}

func (s *fakeStore) ItemsInRange(ctx context.Context, from, to time.Time) ([]contracts.OrderItem, error) {
	return s.items, nil
}

func (s *fakeStore) AllProducts(ctx context.Context) ([]contracts.Product, error) {
	return s.products, nil
}

func (s *fakeStore) ProductByID(ctx context.Context, id int64) (*contracts.Product, error) {
	return nil, contracts.ErrNotFound
}

func (s *fakeStore) AllCampaigns(ctx context.Context) ([]contracts.Campaign, error) {
	return s.campaigns, nil
}

func (s *fakeStore) SpendInRange(ctx context.Context, from, to time.Time) ([]contracts.AdSpend, error) {
	return s.spend, nil
}

func (s *fakeStore) AllChannels(ctx context.Context) ([]contracts.Channel, error) {
	return s.channels, nil
}

func (s *fakeStore) DaysInRange(ctx context.Context, from, to time.Time) ([]contracts.CalendarDay, error) {
	return s.days, nil
}

func (s *fakeStore) AttributionsForModel(ctx context.Context, model string) ([]contracts.Attribution, error) {
	return s.attributions, nil
}

func seededStore() *fakeStore {
	now := time.Now().UTC()
	store := &fakeStore{}

	for i := 0; i < 4; i++ {
		created := now.AddDate(0, 0, -(i + 1))
		store.orders = append(store.orders, contracts.Order{
			ID:          int64(i + 1),
			CustomerID:  int64(i + 1),
			CreatedAt:   created,
			DateKey:     contracts.DateKeyFor(created),
			Status:      contracts.OrderDelivered,
			TotalAmount: decimal.NewFromInt(100),
		})

		first := now.AddDate(0, -1, 0)
		last := created
		store.customers = append(store.customers, contracts.Customer{
			ID:                 int64(i + 1),
			TotalOrders:        1,
			TotalRevenue:       decimal.NewFromInt(100),
			FirstOrderDate:     &first,
			LastOrderDate:      &last,
			DaysSinceLastOrder: i + 1,
		})
	}

	classA := contracts.ClassA
	store.products = []contracts.Product{
		{ID: 1, Name: "anchor", TotalRevenue: decimal.NewFromInt(900), ABC: &classA, StockQuantity: 3},
		{ID: 2, Name: "tail", TotalRevenue: decimal.NewFromInt(100), StockQuantity: 50},
	}
	return store
}

func newDashboardHandler(store *fakeStore, t *testing.T) *DashboardHandler {
	log := testLogger()
	return NewDashboardHandler(
		store, store, store, store, store, store,
		kpi.NewAggregator(log), insights.NewEngine(log),
		noopCache(t), time.Minute, log,
	)
}

func TestGetKPIs(t *testing.T) {
	h := newDashboardHandler(seededStore(), t)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/kpis?period=7d", nil)
	rec := httptest.NewRecorder()
	h.GetKPIs(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var report contracts.KPIReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "7d", report.Period)
	assert.Equal(t, 4, report.TotalOrders)
	assert.True(t, report.TotalRevenue.Equal(decimal.NewFromInt(400)))
}

func TestGetKPIsDefaultsPeriod(t *testing.T) {
	h := newDashboardHandler(seededStore(), t)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/kpis", nil)
	rec := httptest.NewRecorder()
	h.GetKPIs(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var report contracts.KPIReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "30d", report.Period)
}

func TestGetAlertsSilentWithoutBaseline(t *testing.T) {
	h := newDashboardHandler(&fakeStore{}, t)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/alerts", nil)
	rec := httptest.NewRecorder()
	h.GetAlerts(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Alerts []insights.Alert `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Empty(t, payload.Alerts)
}

func newCustomerHandler(store *fakeStore, t *testing.T) *CustomerHandler {
	log := testLogger()
	return NewCustomerHandler(
		store, store,
		segmentation.NewEngine(0.10, log),
		churn.NewScorer(90, log),
		cohort.NewEngine(log),
		noopCache(t), time.Minute, log,
	)
}

func TestGetCustomer(t *testing.T) {
	h := newCustomerHandler(seededStore(), t)

	req := httptest.NewRequest(http.MethodGet, "/api/customers/2", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "2"})
	rec := httptest.NewRecorder()
	h.GetCustomer(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var customer contracts.Customer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &customer))
	assert.Equal(t, int64(2), customer.ID)
}

func TestGetCustomerNotFound(t *testing.T) {
	h := newCustomerHandler(seededStore(), t)

	req := httptest.NewRequest(http.MethodGet, "/api/customers/999", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "999"})
	rec := httptest.NewRecorder()
	h.GetCustomer(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSegments(t *testing.T) {
	h := newCustomerHandler(seededStore(), t)

	req := httptest.NewRequest(http.MethodGet, "/api/customers/segments", nil)
	rec := httptest.NewRecorder()
	h.GetSegments(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Segments []contracts.SegmentSummary `json:"segments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.Segments)

	total := 0
	for _, s := range payload.Segments {
		total += s.Count
	}
	assert.Equal(t, 4, total)
}

func TestGetRetention(t *testing.T) {
	h := newCustomerHandler(seededStore(), t)

	req := httptest.NewRequest(http.MethodGet, "/api/cohorts/retention", nil)
	rec := httptest.NewRecorder()
	h.GetRetention(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Cohorts []contracts.CohortMetric `json:"cohorts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.Cohorts)
	assert.Equal(t, 4, payload.Cohorts[0].CohortSize)
}

func TestGetABC(t *testing.T) {
	h := NewProductHandler(seededStore(), abc.NewClassifier(testLogger()), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/products/abc", nil)
	rec := httptest.NewRecorder()
	h.GetABC(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Classes []contracts.ProductClass `json:"classes"`
		Summary []abc.ClassSummary       `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Classes, 2)
	assert.Equal(t, contracts.ClassA, payload.Classes[0].Class)
}

func TestGetABCEmptyCatalog(t *testing.T) {
	h := NewProductHandler(&fakeStore{}, abc.NewClassifier(testLogger()), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/products/abc", nil)
	rec := httptest.NewRecorder()
	h.GetABC(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Classes []contracts.ProductClass `json:"classes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Empty(t, payload.Classes)
}

func TestGetAttributionBreakdown(t *testing.T) {
	store := seededStore()
	campaignID := int64(7)
	channelID := 3
	store.campaigns = []contracts.Campaign{{ID: 7, Name: "brand_search"}}
	store.channels = []contracts.Channel{{ID: 3, Name: "google"}}
	store.attributions = []contracts.Attribution{
		{OrderID: 1, CampaignID: &campaignID, ChannelID: &channelID, AttributedRevenue: decimal.NewFromInt(100), AttributedOrders: decimal.NewFromInt(1)},
		{OrderID: 2, CampaignID: &campaignID, ChannelID: &channelID, AttributedRevenue: decimal.NewFromInt(50), AttributedOrders: decimal.NewFromInt(1)},
		{OrderID: 3, ChannelID: &channelID, AttributedRevenue: decimal.NewFromInt(25), AttributedOrders: decimal.NewFromInt(1)},
	}

	log := testLogger()
	h := NewCampaignHandler(store, store, store, store, kpi.NewAggregator(log), log)

	req := httptest.NewRequest(http.MethodGet, "/api/campaigns/attribution", nil)
	rec := httptest.NewRecorder()
	h.GetAttribution(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Model     string                 `json:"model"`
		Channels  []attributionBreakdown `json:"channels"`
		Campaigns []attributionBreakdown `json:"campaigns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))

	assert.Equal(t, contracts.ModelLastClick, payload.Model)
	require.Len(t, payload.Channels, 1)
	assert.Equal(t, "google", payload.Channels[0].Name)
	assert.Equal(t, 3, payload.Channels[0].Orders)
	assert.True(t, payload.Channels[0].Revenue.Equal(decimal.NewFromInt(175)))

	// The channel-only fallback row carries no campaign credit.
	require.Len(t, payload.Campaigns, 1)
	assert.Equal(t, "brand_search", payload.Campaigns[0].Name)
	assert.Equal(t, 2, payload.Campaigns[0].Orders)
	assert.True(t, payload.Campaigns[0].Revenue.Equal(decimal.NewFromInt(150)))
}

func TestGetROASByPlatform(t *testing.T) {
	store := seededStore()
	campaignID := int64(7)
	store.campaigns = []contracts.Campaign{{ID: 7, Name: "brand_search", Platform: "google"}}
	store.spend = []contracts.AdSpend{
		{ID: 1, CampaignID: 7, Date: time.Now().UTC().AddDate(0, 0, -1), Spend: decimal.NewFromInt(50), Impressions: 1000, Clicks: 20},
	}
	store.attributions = []contracts.Attribution{
		{OrderID: 1, CampaignID: &campaignID, AttributedRevenue: decimal.NewFromInt(100), AttributedOrders: decimal.NewFromInt(1)},
	}

	log := testLogger()
	h := NewCampaignHandler(store, store, store, store, kpi.NewAggregator(log), log)

	req := httptest.NewRequest(http.MethodGet, "/api/campaigns/roas-by-platform?period=7d", nil)
	rec := httptest.NewRecorder()
	h.GetROASByPlatform(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Period    string                          `json:"period"`
		Platforms []contracts.PlatformPerformance `json:"platforms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))

	assert.Equal(t, "7d", payload.Period)
	require.Len(t, payload.Platforms, 1)
	google := payload.Platforms[0]
	assert.Equal(t, "google", google.Platform)
	assert.Equal(t, 1, google.Campaigns)
	assert.True(t, google.Spend.Equal(decimal.NewFromInt(50)))
	assert.True(t, google.Revenue.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, google.ROAS)
	assert.True(t, google.ROAS.Equal(decimal.NewFromInt(2)))
}

func TestGetOrdersComparison(t *testing.T) {
	store := seededStore()
	log := testLogger()
	h := NewOrderHandler(store, kpi.NewAggregator(log), log)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/comparison", nil)
	rec := httptest.NewRecorder()
	h.GetComparison(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Periods map[string]contracts.PeriodSnapshot `json:"periods"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Periods, 6)

	// Seeded orders sit 1-4 days back, all inside the 7-day window.
	week := payload.Periods["last_7_days"]
	assert.Equal(t, 4, week.Orders)
	assert.True(t, week.Revenue.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, 0, payload.Periods["today"].Orders)
	assert.Equal(t, 1, payload.Periods["yesterday"].Orders)
}

func TestGetRecommendationsFlagsPopulationState(t *testing.T) {
	store := seededStore()
	store.customers[0].IsChurned = true
	store.customers[0].IsVIP = true

	log := testLogger()
	h := NewPredictionHandler(
		nil, store, store, store, store,
		churn.NewScorer(90, log), insights.NewEngine(log),
		90, noopCache(t), time.Minute, log,
	)

	req := httptest.NewRequest(http.MethodGet, "/api/predictions/recommendations", nil)
	rec := httptest.NewRecorder()
	h.GetRecommendations(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Recommendations []insights.Recommendation `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))

	ids := make(map[string]bool)
	for _, item := range payload.Recommendations {
		ids[item.ID] = true
	}
	assert.True(t, ids["recover_vips"], "churned VIP should trigger recovery")
	assert.True(t, ids["restock_products"], "low-stock class A should trigger restock")
	assert.True(t, ids["optimize_checkout"])
}
