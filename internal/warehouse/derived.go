package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cortexbi/cortex/internal/contracts"
)

// CohortRepository implements contracts.CohortSink on fct_cohort_metrics.
type CohortRepository struct {
	pool *pgxpool.Pool
}

func NewCohortRepository(pool *pgxpool.Pool) *CohortRepository {
	return &CohortRepository{pool: pool}
}

// ReplaceCohortMetrics swaps the whole derived grid in one transaction.
// The grid is recomputed, never incrementally maintained.
func (r *CohortRepository) ReplaceCohortMetrics(ctx context.Context, metrics []contracts.CohortMetric) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM fct_cohort_metrics`); err != nil {
		return fmt.Errorf("clear cohort metrics: %w", err)
	}

	query := `
		INSERT INTO fct_cohort_metrics (
			cohort_month, months_since_acquisition, cohort_size,
			active_customers, orders, revenue,
			retention_rate, cumulative_revenue_per_customer
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, m := range metrics {
		_, err := tx.Exec(ctx, query,
			m.CohortMonth, m.MonthsSinceAcquisition, m.CohortSize,
			m.ActiveCustomers, m.Orders, m.Revenue,
			m.RetentionRate, m.LTV,
		)
		if err != nil {
			return fmt.Errorf("insert cohort metric %s/%d: %w",
				m.CohortMonth.Format("2006-01"), m.MonthsSinceAcquisition, err)
		}
	}
	return tx.Commit(ctx)
}

// AttributionRepository implements contracts.AttributionSink on
// fct_attribution.
type AttributionRepository struct {
	pool *pgxpool.Pool
}

func NewAttributionRepository(pool *pgxpool.Pool) *AttributionRepository {
	return &AttributionRepository{pool: pool}
}

// ReplaceAttributions swaps every row of one model in one transaction;
// rows of other models are untouched.
func (r *AttributionRepository) ReplaceAttributions(ctx context.Context, model string, rows []contracts.Attribution) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM fct_attribution WHERE attribution_model = $1`, model); err != nil {
		return fmt.Errorf("clear attributions: %w", err)
	}

	query := `
		INSERT INTO fct_attribution (
			order_id, campaign_id, channel_id, attribution_model,
			attributed_revenue, attributed_orders, touchpoint_position
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, a := range rows {
		_, err := tx.Exec(ctx, query,
			a.OrderID, a.CampaignID, a.ChannelID, model,
			a.AttributedRevenue, a.AttributedOrders, a.TouchpointPosition,
		)
		if err != nil {
			return fmt.Errorf("insert attribution for order %d: %w", a.OrderID, err)
		}
	}
	return tx.Commit(ctx)
}

// AttributionsForModel loads every persisted row of one model.
func (r *AttributionRepository) AttributionsForModel(ctx context.Context, model string) ([]contracts.Attribution, error) {
	query := `
		SELECT
			attribution_id, order_id, campaign_id, channel_id,
			attribution_model, attributed_revenue, attributed_orders,
			COALESCE(touchpoint_position, '')
		FROM fct_attribution
		WHERE attribution_model = $1
		ORDER BY attribution_id
	`

	rows, err := r.pool.Query(ctx, query, model)
	if err != nil {
		return nil, fmt.Errorf("query attributions: %w", err)
	}
	defer rows.Close()

	var result []contracts.Attribution
	for rows.Next() {
		var a contracts.Attribution
		err := rows.Scan(
			&a.ID, &a.OrderID, &a.CampaignID, &a.ChannelID,
			&a.Model, &a.AttributedRevenue, &a.AttributedOrders,
			&a.TouchpointPosition,
		)
		if err != nil {
			return nil, fmt.Errorf("scan attribution: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
