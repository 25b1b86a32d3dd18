package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Read-only lookups into the directory tables (products, customers, routes,
// price history). The sales-ops core never mutates these, except for the
// best-effort route assignment marker.

const getDriver = `
SELECT id, full_name, phone, is_active, created_at
FROM drivers
WHERE id = $1
`

func (q *Queries) GetDriver(ctx context.Context, id uuid.UUID) (Driver, error) {
	row := q.db.QueryRow(ctx, getDriver, id)
	var d Driver
	err := row.Scan(&d.ID, &d.FullName, &d.Phone, &d.IsActive, &d.CreatedAt)
	return d, err
}

const getRoute = `
SELECT id, name, is_active, created_at
FROM routes
WHERE id = $1
`

func (q *Queries) GetRoute(ctx context.Context, id uuid.UUID) (Route, error) {
	row := q.db.QueryRow(ctx, getRoute, id)
	var r Route
	err := row.Scan(&r.ID, &r.Name, &r.IsActive, &r.CreatedAt)
	return r, err
}

const getProductForSale = `
SELECT id, name, default_price, is_active, created_at
FROM products
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetProductForSale(ctx context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(ctx, getProductForSale, id)
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.DefaultPrice, &p.IsActive, &p.CreatedAt)
	return p, err
}

const getCustomerForSale = `
SELECT id, name, route_id, is_active, created_at
FROM customers
WHERE id = $1
`

func (q *Queries) GetCustomerForSale(ctx context.Context, id uuid.UUID) (Customer, error) {
	row := q.db.QueryRow(ctx, getCustomerForSale, id)
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.RouteID, &c.IsActive, &c.CreatedAt)
	return c, err
}

const getLatestCustomerPrice = `
SELECT price
FROM customer_prices
WHERE customer_id = $1 AND product_id = $2 AND effective_date <= $3
ORDER BY effective_date DESC
LIMIT 1
`

type GetLatestCustomerPriceParams struct {
	CustomerID uuid.UUID
	ProductID  uuid.UUID
	AsOf       pgtype.Date
}

func (q *Queries) GetLatestCustomerPrice(ctx context.Context, arg GetLatestCustomerPriceParams) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, getLatestCustomerPrice, arg.CustomerID, arg.ProductID, arg.AsOf)
	var price pgtype.Numeric
	err := row.Scan(&price)
	return price, err
}

const getLossReason = `
SELECT id, name, is_active
FROM loss_reasons
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetLossReason(ctx context.Context, id uuid.UUID) (LossReason, error) {
	row := q.db.QueryRow(ctx, getLossReason, id)
	var lr LossReason
	err := row.Scan(&lr.ID, &lr.Name, &lr.IsActive)
	return lr, err
}

const upsertRouteAssignment = `
INSERT INTO route_assignments (route_id, customer_id, sales_count, last_sale_at)
VALUES ($1, $2, 1, now())
ON CONFLICT (route_id, customer_id)
DO UPDATE SET sales_count = route_assignments.sales_count + 1, last_sale_at = now()
RETURNING id, route_id, customer_id, sales_count, last_sale_at
`

type UpsertRouteAssignmentParams struct {
	RouteID    uuid.UUID
	CustomerID uuid.UUID
}

func (q *Queries) UpsertRouteAssignment(ctx context.Context, arg UpsertRouteAssignmentParams) (RouteAssignment, error) {
	row := q.db.QueryRow(ctx, upsertRouteAssignment, arg.RouteID, arg.CustomerID)
	var ra RouteAssignment
	err := row.Scan(&ra.ID, &ra.RouteID, &ra.CustomerID, &ra.SalesCount, &ra.LastSaleAt)
	return ra, err
}
