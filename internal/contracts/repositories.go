package contracts

import (
	"context"
	"time"
)

// Snapshot sources. The engines never issue joins themselves: they are
// handed materialized, read-only record sets loaded through these
// interfaces.

// CustomerSource loads customer snapshots.
type CustomerSource interface {
	CustomersWithOrders(ctx context.Context) ([]Customer, error)
	CustomerByID(ctx context.Context, id int64) (*Customer, error)
}

// OrderSource loads order snapshots. Both loaders exclude nothing; status
// filtering is the engines' concern so cancelled-order handling stays in
// one place per engine.
type OrderSource interface {
	OrdersInRange(ctx context.Context, from, to time.Time) ([]Order, error)
	AllOrders(ctx context.Context) ([]Order, error)
	ItemsInRange(ctx context.Context, from, to time.Time) ([]OrderItem, error)
}

// ProductSource loads product snapshots.
type ProductSource interface {
	AllProducts(ctx context.Context) ([]Product, error)
	ProductByID(ctx context.Context, id int64) (*Product, error)
}

// CampaignSource loads campaign and spend snapshots.
type CampaignSource interface {
	AllCampaigns(ctx context.Context) ([]Campaign, error)
	SpendInRange(ctx context.Context, from, to time.Time) ([]AdSpend, error)
}

// ChannelSource loads the channel taxonomy.
type ChannelSource interface {
	AllChannels(ctx context.Context) ([]Channel, error)
}

// CalendarSource loads date dimension rows.
type CalendarSource interface {
	DaysInRange(ctx context.Context, from, to time.Time) ([]CalendarDay, error)
}

// AttributionSource reads back persisted attribution rows for one model.
type AttributionSource interface {
	AttributionsForModel(ctx context.Context, model string) ([]Attribution, error)
}

// Derived-attribute sinks. Each write-back is a full batch applied in a
// single transaction so concurrent readers never observe a partial
// ranking.

// CustomerScoreSink persists RFM scores, segments, VIP and churn flags.
type CustomerScoreSink interface {
	ApplyScores(ctx context.Context, scores []CustomerScores) error
	ApplyChurnFlags(ctx context.Context, flags []ChurnFlag) error
}

// ProductClassSink persists ABC classes.
type ProductClassSink interface {
	ApplyClasses(ctx context.Context, classes []ProductClass) error
}

// CohortSink replaces the derived cohort metric grid.
type CohortSink interface {
	ReplaceCohortMetrics(ctx context.Context, metrics []CohortMetric) error
}

// AttributionSink replaces the attribution rows for one model.
type AttributionSink interface {
	ReplaceAttributions(ctx context.Context, model string, rows []Attribution) error
}
