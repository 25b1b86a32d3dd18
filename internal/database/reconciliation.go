package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Per-product aggregates feeding the reconciliation view. Each query groups
// one ledger by product; the service merges the three maps in memory.

const sumLoadedByDriverDate = `
SELECT l.product_id, p.name, COALESCE(SUM(l.quantity_loaded), 0)::bigint
FROM loading_logs l
JOIN products p ON p.id = l.product_id
WHERE l.driver_id = $1 AND (l.loaded_at AT TIME ZONE 'UTC')::date = $2
GROUP BY l.product_id, p.name
`

type SumLoadedByDriverDateParams struct {
	DriverID uuid.UUID
	Date     pgtype.Date
}

type ProductQuantityRow struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int64
}

func (q *Queries) SumLoadedByDriverDate(ctx context.Context, arg SumLoadedByDriverDateParams) ([]ProductQuantityRow, error) {
	rows, err := q.db.Query(ctx, sumLoadedByDriverDate, arg.DriverID, arg.Date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProductQuantityRow
	for rows.Next() {
		var r ProductQuantityRow
		if err := rows.Scan(&r.ProductID, &r.ProductName, &r.Quantity); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const sumSoldBySummary = `
SELECT i.product_id, p.name, COALESCE(SUM(i.quantity), 0)::bigint
FROM driver_sale_items i
JOIN driver_sales s ON s.id = i.sale_id
JOIN products p ON p.id = i.product_id
WHERE s.summary_id = $1
GROUP BY i.product_id, p.name
`

// SumSoldBySummary counts every item row regardless of transaction type.
// Giveaways and internal use move stock even though they carry no money.
func (q *Queries) SumSoldBySummary(ctx context.Context, summaryID uuid.UUID) ([]ProductQuantityRow, error) {
	rows, err := q.db.Query(ctx, sumSoldBySummary, summaryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProductQuantityRow
	for rows.Next() {
		var r ProductQuantityRow
		if err := rows.Scan(&r.ProductID, &r.ProductName, &r.Quantity); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const sumReturnedByDriverDate = `
SELECT r.product_id, p.name, COALESCE(SUM(r.quantity_returned), 0)::bigint
FROM product_returns r
JOIN products p ON p.id = r.product_id
WHERE r.driver_id = $1 AND r.return_date = $2
GROUP BY r.product_id, p.name
`

type SumReturnedByDriverDateParams struct {
	DriverID uuid.UUID
	Date     pgtype.Date
}

func (q *Queries) SumReturnedByDriverDate(ctx context.Context, arg SumReturnedByDriverDateParams) ([]ProductQuantityRow, error) {
	rows, err := q.db.Query(ctx, sumReturnedByDriverDate, arg.DriverID, arg.Date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProductQuantityRow
	for rows.Next() {
		var r ProductQuantityRow
		if err := rows.Scan(&r.ProductID, &r.ProductName, &r.Quantity); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const sumPackagingByDriverDate = `
SELECT l.packaging_type_id, t.name, COALESCE(SUM(l.quantity_out), 0)::bigint, COALESCE(SUM(l.quantity_returned), 0)::bigint
FROM packaging_logs l
JOIN packaging_types t ON t.id = l.packaging_type_id
WHERE l.driver_id = $1 AND l.log_date = $2
GROUP BY l.packaging_type_id, t.name
`

type SumPackagingByDriverDateParams struct {
	DriverID uuid.UUID
	Date     pgtype.Date
}

type PackagingSumRow struct {
	PackagingTypeID   uuid.UUID
	PackagingTypeName string
	QuantityOut       int64
	QuantityReturned  int64
}

func (q *Queries) SumPackagingByDriverDate(ctx context.Context, arg SumPackagingByDriverDateParams) ([]PackagingSumRow, error) {
	rows, err := q.db.Query(ctx, sumPackagingByDriverDate, arg.DriverID, arg.Date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PackagingSumRow
	for rows.Next() {
		var r PackagingSumRow
		if err := rows.Scan(&r.PackagingTypeID, &r.PackagingTypeName, &r.QuantityOut, &r.QuantityReturned); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
