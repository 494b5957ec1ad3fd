package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cortexbi/cortex/internal/contracts"
)

// OrderRepository implements contracts.OrderSource on fct_orders and
// fct_order_items. Loaders return every status; cancelled-order filtering
// belongs to the engines.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `
	order_id, external_order_id, customer_id, date_key,
	order_created_at, order_status, COALESCE(payment_method, ''),
	subtotal, shipping_cost, discount_amount, total_amount,
	total_items, total_quantity,
	COALESCE(utm_source, ''), COALESCE(utm_medium, ''), COALESCE(utm_campaign, ''),
	channel_id,
	COALESCE(gclid, ''), COALESCE(fbc, ''), COALESCE(ttclid, ''),
	is_first_order, is_repeat_order
`

// OrdersInRange loads orders created within the half-open window [from, to).
func (r *OrderRepository) OrdersInRange(ctx context.Context, from, to time.Time) ([]contracts.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM fct_orders
		WHERE order_created_at >= $1 AND order_created_at < $2
		ORDER BY order_created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

// AllOrders loads the complete order history for cohort computation.
func (r *OrderRepository) AllOrders(ctx context.Context) ([]contracts.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM fct_orders
		ORDER BY order_created_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]contracts.Order, error) {
	var orders []contracts.Order
	for rows.Next() {
		var o contracts.Order
		err := rows.Scan(
			&o.ID, &o.ExternalID, &o.CustomerID, &o.DateKey,
			&o.CreatedAt, &o.Status, &o.PaymentMethod,
			&o.Subtotal, &o.ShippingCost, &o.DiscountAmount, &o.TotalAmount,
			&o.TotalItems, &o.TotalQuantity,
			&o.UTMSource, &o.UTMMedium, &o.UTMCampaign,
			&o.ChannelID,
			&o.GCLID, &o.FBC, &o.TTCLID,
			&o.IsFirstOrder, &o.IsRepeatOrder,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ItemsInRange loads order items whose order was created within the
// half-open window [from, to).
func (r *OrderRepository) ItemsInRange(ctx context.Context, from, to time.Time) ([]contracts.OrderItem, error) {
	query := `
		SELECT i.order_item_id, i.order_id, i.product_id, i.date_key,
			i.quantity, i.unit_price, COALESCE(i.discount_amount, 0), i.total_price
		FROM fct_order_items i
		JOIN fct_orders o ON i.order_id = o.order_id
		WHERE o.order_created_at >= $1 AND o.order_created_at < $2
		ORDER BY i.order_item_id ASC
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []contracts.OrderItem
	for rows.Next() {
		var i contracts.OrderItem
		err := rows.Scan(
			&i.ID, &i.OrderID, &i.ProductID, &i.DateKey,
			&i.Quantity, &i.UnitPrice, &i.DiscountAmount, &i.TotalPrice,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
