// Package warehouse implements the snapshot sources and derived-attribute
// sinks on the PostgreSQL star schema.
package warehouse

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cortexbi/cortex/internal/contracts"
)

// CustomerRepository implements contracts.CustomerSource and
// contracts.CustomerScoreSink on dim_customers.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

const customerColumns = `
	customer_id, external_customer_id, COALESCE(email_hash, ''),
	COALESCE(city, ''), COALESCE(state, ''), COALESCE(country, ''),
	first_order_date, COALESCE(first_order_source, ''),
	COALESCE(first_order_campaign, ''), COALESCE(first_order_channel, ''),
	total_orders, total_revenue, total_items_purchased, average_order_value,
	last_order_date, COALESCE(days_since_last_order, 0),
	COALESCE(customer_lifetime_days, 0),
	COALESCE(rfm_recency_score, 0), COALESCE(rfm_frequency_score, 0),
	COALESCE(rfm_monetary_score, 0), COALESCE(rfm_segment, ''),
	is_repeat_customer, is_vip, is_churned
`

// CustomersWithOrders loads the full scored population: every customer
// with at least one order.
func (r *CustomerRepository) CustomersWithOrders(ctx context.Context) ([]contracts.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM dim_customers
		WHERE total_orders > 0
		ORDER BY customer_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var customers []contracts.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// CustomerByID loads one customer regardless of order history.
func (r *CustomerRepository) CustomerByID(ctx context.Context, id int64) (*contracts.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM dim_customers
		WHERE customer_id = $1
	`

	c, err := scanCustomer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contracts.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanCustomer(row pgx.Row) (contracts.Customer, error) {
	var c contracts.Customer
	err := row.Scan(
		&c.ID, &c.ExternalID, &c.EmailHash,
		&c.City, &c.State, &c.Country,
		&c.FirstOrderDate, &c.FirstOrderSource,
		&c.FirstOrderCampaign, &c.FirstOrderChannel,
		&c.TotalOrders, &c.TotalRevenue, &c.TotalItems, &c.AvgOrderValue,
		&c.LastOrderDate, &c.DaysSinceLastOrder,
		&c.LifetimeDays,
		&c.RecencyScore, &c.FrequencyScore,
		&c.MonetaryScore, &c.Segment,
		&c.IsRepeat, &c.IsVIP, &c.IsChurned,
	)
	return c, err
}

// ApplyScores writes one segmentation pass back in a single transaction so
// readers never observe a partial ranking.
func (r *CustomerRepository) ApplyScores(ctx context.Context, scores []contracts.CustomerScores) error {
	if len(scores) == 0 {
		return nil
	}

	query := `
		UPDATE dim_customers SET
			rfm_recency_score = $2,
			rfm_frequency_score = $3,
			rfm_monetary_score = $4,
			rfm_segment = $5,
			is_vip = $6,
			updated_at = NOW()
		WHERE customer_id = $1
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, s := range scores {
		_, err := tx.Exec(ctx, query, s.CustomerID, s.Recency, s.Frequency, s.Monetary, s.Segment, s.IsVIP)
		if err != nil {
			return fmt.Errorf("apply scores for customer %d: %w", s.CustomerID, err)
		}
	}
	return tx.Commit(ctx)
}

// ApplyChurnFlags writes one churn recompute back in a single transaction.
func (r *CustomerRepository) ApplyChurnFlags(ctx context.Context, flags []contracts.ChurnFlag) error {
	if len(flags) == 0 {
		return nil
	}

	query := `
		UPDATE dim_customers SET
			is_churned = $2,
			updated_at = NOW()
		WHERE customer_id = $1
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, f := range flags {
		if _, err := tx.Exec(ctx, query, f.CustomerID, f.IsChurned); err != nil {
			return fmt.Errorf("apply churn flag for customer %d: %w", f.CustomerID, err)
		}
	}
	return tx.Commit(ctx)
}
