package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createLoadingLog = `
INSERT INTO loading_logs (batch_key, driver_id, route_id, load_type, loaded_at, product_id, quantity_loaded, notes, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, batch_key, driver_id, route_id, load_type, loaded_at, product_id, quantity_loaded, notes, created_by, created_at
`

type CreateLoadingLogParams struct {
	BatchKey       uuid.UUID
	DriverID       uuid.UUID
	RouteID        pgtype.UUID
	LoadType       string
	LoadedAt       time.Time
	ProductID      uuid.UUID
	QuantityLoaded int32
	Notes          pgtype.Text
	CreatedBy      uuid.UUID
}

func (q *Queries) CreateLoadingLog(ctx context.Context, arg CreateLoadingLogParams) (LoadingLog, error) {
	row := q.db.QueryRow(ctx, createLoadingLog,
		arg.BatchKey,
		arg.DriverID,
		arg.RouteID,
		arg.LoadType,
		arg.LoadedAt,
		arg.ProductID,
		arg.QuantityLoaded,
		arg.Notes,
		arg.CreatedBy,
	)
	var l LoadingLog
	err := row.Scan(&l.ID, &l.BatchKey, &l.DriverID, &l.RouteID, &l.LoadType, &l.LoadedAt, &l.ProductID, &l.QuantityLoaded, &l.Notes, &l.CreatedBy, &l.CreatedAt)
	return l, err
}

const getLoadingBatchHead = `
SELECT id, batch_key, driver_id, route_id, load_type, loaded_at, product_id, quantity_loaded, notes, created_by, created_at
FROM loading_logs
WHERE batch_key = $1
ORDER BY created_at
LIMIT 1
`

// GetLoadingBatchHead returns one row of a batch so callers can recover the
// batch-level fields (driver, route, load type, timestamp) before a replace.
func (q *Queries) GetLoadingBatchHead(ctx context.Context, batchKey uuid.UUID) (LoadingLog, error) {
	row := q.db.QueryRow(ctx, getLoadingBatchHead, batchKey)
	var l LoadingLog
	err := row.Scan(&l.ID, &l.BatchKey, &l.DriverID, &l.RouteID, &l.LoadType, &l.LoadedAt, &l.ProductID, &l.QuantityLoaded, &l.Notes, &l.CreatedBy, &l.CreatedAt)
	return l, err
}

const deleteLoadingBatch = `
DELETE FROM loading_logs
WHERE batch_key = $1
`

func (q *Queries) DeleteLoadingBatch(ctx context.Context, batchKey uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteLoadingBatch, batchKey)
	return err
}

const listLoadingLogs = `
SELECT l.id, l.batch_key, l.driver_id, d.full_name, l.route_id, l.load_type, l.loaded_at,
       l.product_id, p.name, l.quantity_loaded, l.notes, l.created_by, l.created_at
FROM loading_logs l
JOIN drivers d ON d.id = l.driver_id
JOIN products p ON p.id = l.product_id
WHERE ($1::uuid IS NULL OR l.driver_id = $1)
  AND ($2::date IS NULL OR (l.loaded_at AT TIME ZONE 'UTC')::date = $2)
  AND ($3::text IS NULL OR d.full_name ILIKE '%' || $3 || '%')
ORDER BY l.loaded_at DESC, l.batch_key, l.created_at
LIMIT $4 OFFSET $5
`

type ListLoadingLogsParams struct {
	DriverID   pgtype.UUID
	Date       pgtype.Date
	DriverName pgtype.Text
	Limit      int32
	Offset     int32
}

type ListLoadingLogsRow struct {
	ID             uuid.UUID
	BatchKey       uuid.UUID
	DriverID       uuid.UUID
	DriverName     string
	RouteID        pgtype.UUID
	LoadType       string
	LoadedAt       time.Time
	ProductID      uuid.UUID
	ProductName    string
	QuantityLoaded int32
	Notes          pgtype.Text
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
}

// ListLoadingLogs returns flat per-product rows; callers group by batch_key
// client-side. The store stays normalized per (batch, product).
func (q *Queries) ListLoadingLogs(ctx context.Context, arg ListLoadingLogsParams) ([]ListLoadingLogsRow, error) {
	rows, err := q.db.Query(ctx, listLoadingLogs, arg.DriverID, arg.Date, arg.DriverName, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListLoadingLogsRow
	for rows.Next() {
		var r ListLoadingLogsRow
		if err := rows.Scan(&r.ID, &r.BatchKey, &r.DriverID, &r.DriverName, &r.RouteID, &r.LoadType, &r.LoadedAt,
			&r.ProductID, &r.ProductName, &r.QuantityLoaded, &r.Notes, &r.CreatedBy, &r.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const countSalesForDriverDate = `
SELECT COUNT(*)
FROM driver_sales s
JOIN driver_daily_summaries dds ON dds.id = s.summary_id
WHERE dds.driver_id = $1 AND dds.sale_date = $2
`

type CountSalesForDriverDateParams struct {
	DriverID uuid.UUID
	SaleDate pgtype.Date
}

// CountSalesForDriverDate reports whether any sales already reference the
// driver's day. Loading batches for that day are then locked against replace.
func (q *Queries) CountSalesForDriverDate(ctx context.Context, arg CountSalesForDriverDateParams) (int64, error) {
	row := q.db.QueryRow(ctx, countSalesForDriverDate, arg.DriverID, arg.SaleDate)
	var count int64
	err := row.Scan(&count)
	return count, err
}
