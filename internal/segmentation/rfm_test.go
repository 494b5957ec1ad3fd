package segmentation

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/pkg/config"
	"github.com/cortexbi/cortex/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json"})
}

func customerWithHistory(id int64, daysAgo, orders int, revenue float64) contracts.Customer {
	last := time.Now().UTC().AddDate(0, 0, -daysAgo)
	return contracts.Customer{
		ID:                 id,
		TotalOrders:        orders,
		TotalRevenue:       decimal.NewFromFloat(revenue),
		LastOrderDate:      &last,
		DaysSinceLastOrder: daysAgo,
	}
}

func TestScoreQuintileBlocks(t *testing.T) {
	// 100 customers, one order each, strictly decreasing revenue: the
	// monetary scores must form 20-customer blocks 5,5,..,4,4,..,1,1.
	customers := make([]contracts.Customer, 0, 100)
	for i := 0; i < 100; i++ {
		customers = append(customers, customerWithHistory(int64(i+1), 10, 1, float64(10000-i*10)))
	}

	engine := NewEngine(0.10, testLogger())
	scores, err := engine.Score(customers)
	require.NoError(t, err)
	require.Len(t, scores, 100)

	// Score() returns monetary-rank order, so position i in the result
	// is monetary rank i.
	for i, s := range scores {
		want := 5 - i*5/100
		assert.Equalf(t, want, s.Monetary, "rank %d (customer %d)", i, s.CustomerID)
	}
}

func TestScoreQuintilePartition(t *testing.T) {
	for _, n := range []int{10, 23, 97, 250} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			customers := make([]contracts.Customer, 0, n)
			for i := 0; i < n; i++ {
				customers = append(customers, customerWithHistory(int64(i+1), i+1, i+1, float64((i+1)*100)))
			}

			engine := NewEngine(0.10, testLogger())
			scores, err := engine.Score(customers)
			require.NoError(t, err)

			counts := map[int]int{}
			for _, s := range scores {
				require.GreaterOrEqual(t, s.Monetary, 1)
				require.LessOrEqual(t, s.Monetary, 5)
				counts[s.Monetary]++
			}

			// Each quintile holds between floor(n/5) and ceil(n/5) customers.
			for score := 1; score <= 5; score++ {
				assert.GreaterOrEqualf(t, counts[score], n/5, "score %d", score)
				assert.LessOrEqualf(t, counts[score], (n+4)/5, "score %d", score)
			}
		})
	}
}

func TestScoreVIPFlag(t *testing.T) {
	// 95 customers: ceil(95 * 0.10) = 10 VIPs, taken from the top of the
	// monetary ranking.
	customers := make([]contracts.Customer, 0, 95)
	for i := 0; i < 95; i++ {
		customers = append(customers, customerWithHistory(int64(i+1), 5, 2, float64(9500-i*100)))
	}

	engine := NewEngine(0.10, testLogger())
	scores, err := engine.Score(customers)
	require.NoError(t, err)

	vips := 0
	for i, s := range scores {
		if s.IsVIP {
			vips++
			assert.Lessf(t, i, 10, "VIP outside top of monetary ranking: customer %d", s.CustomerID)
		}
	}
	assert.Equal(t, 10, vips)
}

func TestScoreSegmentAssignment(t *testing.T) {
	tests := []struct {
		name    string
		r, f, m int
		want    string
	}{
		{"champion", 5, 5, 5, contracts.SegmentChampions},
		{"champion boundary", 4, 4, 4, contracts.SegmentChampions},
		{"loyal", 5, 3, 2, contracts.SegmentLoyalCustomers},
		{"recent", 5, 1, 1, contracts.SegmentRecentCustomers},
		{"potential loyalist", 3, 3, 3, contracts.SegmentPotentialLoyalists},
		{"at risk", 1, 5, 5, contracts.SegmentAtRisk},
		{"hibernating", 2, 2, 1, contracts.SegmentHibernating},
		{"lost", 1, 1, 1, contracts.SegmentLost},
		{"other", 3, 1, 1, contracts.SegmentOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, assignSegment(tt.r, tt.f, tt.m))
		})
	}
}

func TestScoreSkipsCustomersWithoutOrders(t *testing.T) {
	customers := []contracts.Customer{
		customerWithHistory(1, 5, 3, 500),
		{ID: 2, TotalOrders: 0, TotalRevenue: decimal.Zero},
		customerWithHistory(3, 40, 1, 100),
	}

	engine := NewEngine(0.10, testLogger())
	scores, err := engine.Score(customers)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	for _, s := range scores {
		assert.NotEqual(t, int64(2), s.CustomerID)
	}
}

func TestScoreEmptyPopulation(t *testing.T) {
	engine := NewEngine(0.10, testLogger())

	_, err := engine.Score(nil)
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)

	_, err = engine.Score([]contracts.Customer{{ID: 1, TotalOrders: 0}})
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
}

func TestScoreMissingLastOrderDateRanksWorst(t *testing.T) {
	// A customer with orders but no last order date sorts to the cold end
	// of the recency ranking.
	noDate := contracts.Customer{ID: 99, TotalOrders: 1, TotalRevenue: decimal.NewFromInt(50)}
	customers := []contracts.Customer{noDate}
	for i := 0; i < 9; i++ {
		customers = append(customers, customerWithHistory(int64(i+1), i+1, 1, 100))
	}

	engine := NewEngine(0.10, testLogger())
	scores, err := engine.Score(customers)
	require.NoError(t, err)

	for _, s := range scores {
		if s.CustomerID == 99 {
			assert.Equal(t, 1, s.Recency)
		}
	}
}

func TestSummaries(t *testing.T) {
	customers := []contracts.Customer{
		{ID: 1, Segment: contracts.SegmentChampions, TotalOrders: 10, TotalRevenue: decimal.NewFromInt(1000)},
		{ID: 2, Segment: contracts.SegmentChampions, TotalOrders: 6, TotalRevenue: decimal.NewFromInt(600)},
		{ID: 3, Segment: contracts.SegmentLost, TotalOrders: 1, TotalRevenue: decimal.NewFromInt(50)},
		{ID: 4, Segment: ""},
	}

	engine := NewEngine(0.10, testLogger())
	summaries := engine.Summaries(customers)
	require.Len(t, summaries, 2)

	assert.Equal(t, contracts.SegmentChampions, summaries[0].Segment)
	assert.Equal(t, 2, summaries[0].Count)
	assert.InDelta(t, 66.67, summaries[0].Percentage, 0.001)
	assert.True(t, summaries[0].TotalRevenue.Equal(decimal.NewFromInt(1600)))
	assert.InDelta(t, 8.0, summaries[0].AvgOrders, 0.001)
	assert.True(t, summaries[0].AvgRevenue.Equal(decimal.NewFromInt(800)))

	assert.Equal(t, contracts.SegmentLost, summaries[1].Segment)
	assert.Equal(t, 1, summaries[1].Count)
}
