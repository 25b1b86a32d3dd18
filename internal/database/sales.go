package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const deleteSalesBySummary = `
DELETE FROM driver_sales
WHERE summary_id = $1
`

// DeleteSalesBySummary clears a day's sales before a batch reinsert.
// Sale items cascade via the driver_sale_items foreign key.
func (q *Queries) DeleteSalesBySummary(ctx context.Context, summaryID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteSalesBySummary, summaryID)
	return err
}

const createDriverSale = `
INSERT INTO driver_sales (summary_id, customer_id, payment_type, notes, total_amount)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, summary_id, customer_id, payment_type, notes, total_amount, created_at
`

type CreateDriverSaleParams struct {
	SummaryID   uuid.UUID
	CustomerID  uuid.UUID
	PaymentType string
	Notes       pgtype.Text
	TotalAmount pgtype.Numeric
}

func (q *Queries) CreateDriverSale(ctx context.Context, arg CreateDriverSaleParams) (DriverSale, error) {
	row := q.db.QueryRow(ctx, createDriverSale, arg.SummaryID, arg.CustomerID, arg.PaymentType, arg.Notes, arg.TotalAmount)
	var s DriverSale
	err := row.Scan(&s.ID, &s.SummaryID, &s.CustomerID, &s.PaymentType, &s.Notes, &s.TotalAmount, &s.CreatedAt)
	return s, err
}

const createDriverSaleItem = `
INSERT INTO driver_sale_items (sale_id, product_id, quantity, unit_price, transaction_type)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, sale_id, product_id, quantity, unit_price, transaction_type
`

type CreateDriverSaleItemParams struct {
	SaleID          uuid.UUID
	ProductID       uuid.UUID
	Quantity        int32
	UnitPrice       pgtype.Numeric
	TransactionType string
}

func (q *Queries) CreateDriverSaleItem(ctx context.Context, arg CreateDriverSaleItemParams) (DriverSaleItem, error) {
	row := q.db.QueryRow(ctx, createDriverSaleItem, arg.SaleID, arg.ProductID, arg.Quantity, arg.UnitPrice, arg.TransactionType)
	var i DriverSaleItem
	err := row.Scan(&i.ID, &i.SaleID, &i.ProductID, &i.Quantity, &i.UnitPrice, &i.TransactionType)
	return i, err
}

const listSalesBySummary = `
SELECT id, summary_id, customer_id, payment_type, notes, total_amount, created_at
FROM driver_sales
WHERE summary_id = $1
ORDER BY created_at
`

func (q *Queries) ListSalesBySummary(ctx context.Context, summaryID uuid.UUID) ([]DriverSale, error) {
	rows, err := q.db.Query(ctx, listSalesBySummary, summaryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DriverSale
	for rows.Next() {
		var s DriverSale
		if err := rows.Scan(&s.ID, &s.SummaryID, &s.CustomerID, &s.PaymentType, &s.Notes, &s.TotalAmount, &s.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const listSaleItemsBySale = `
SELECT id, sale_id, product_id, quantity, unit_price, transaction_type
FROM driver_sale_items
WHERE sale_id = $1
ORDER BY id
`

func (q *Queries) ListSaleItemsBySale(ctx context.Context, saleID uuid.UUID) ([]DriverSaleItem, error) {
	rows, err := q.db.Query(ctx, listSaleItemsBySale, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DriverSaleItem
	for rows.Next() {
		var i DriverSaleItem
		if err := rows.Scan(&i.ID, &i.SaleID, &i.ProductID, &i.Quantity, &i.UnitPrice, &i.TransactionType); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
