package warehouse

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cortexbi/cortex/internal/contracts"
)

// ProductRepository implements contracts.ProductSource and
// contracts.ProductClassSink on dim_products.
type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `
	product_id, external_product_id, COALESCE(sku, ''), product_name,
	COALESCE(category_level_1, ''), COALESCE(category_level_2, ''),
	COALESCE(category_level_3, ''), COALESCE(brand, ''),
	COALESCE(current_price, 0), COALESCE(cost_price, 0),
	is_active, COALESCE(stock_quantity, 0),
	COALESCE(total_units_sold, 0), COALESCE(total_revenue, 0),
	abc_classification
`

// AllProducts loads the full catalog, classified or not.
func (r *ProductRepository) AllProducts(ctx context.Context) ([]contracts.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM dim_products
		ORDER BY product_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []contracts.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ProductByID loads one product.
func (r *ProductRepository) ProductByID(ctx context.Context, id int64) (*contracts.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM dim_products
		WHERE product_id = $1
	`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contracts.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanProduct(row pgx.Row) (contracts.Product, error) {
	var p contracts.Product
	var abc *string
	err := row.Scan(
		&p.ID, &p.ExternalID, &p.SKU, &p.Name,
		&p.CategoryLevel1, &p.CategoryLevel2,
		&p.CategoryLevel3, &p.Brand,
		&p.CurrentPrice, &p.CostPrice,
		&p.IsActive, &p.StockQuantity,
		&p.TotalUnitsSold, &p.TotalRevenue,
		&abc,
	)
	if err != nil {
		return p, err
	}
	if abc != nil {
		class := contracts.ABCClass(*abc)
		p.ABC = &class
	}
	return p, nil
}

// ApplyClasses writes one classification pass back in a single
// transaction. Products outside the pass keep their previous class.
func (r *ProductRepository) ApplyClasses(ctx context.Context, classes []contracts.ProductClass) error {
	if len(classes) == 0 {
		return nil
	}

	query := `
		UPDATE dim_products SET
			abc_classification = $2,
			updated_at = NOW()
		WHERE product_id = $1
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range classes {
		if _, err := tx.Exec(ctx, query, c.ProductID, string(c.Class)); err != nil {
			return fmt.Errorf("apply class for product %d: %w", c.ProductID, err)
		}
	}
	return tx.Commit(ctx)
}
