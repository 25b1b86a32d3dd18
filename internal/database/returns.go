package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const deleteProductReturnsByDriverDate = `
DELETE FROM product_returns
WHERE driver_id = $1 AND return_date = $2
`

type DeleteProductReturnsByDriverDateParams struct {
	DriverID   uuid.UUID
	ReturnDate pgtype.Date
}

func (q *Queries) DeleteProductReturnsByDriverDate(ctx context.Context, arg DeleteProductReturnsByDriverDateParams) error {
	_, err := q.db.Exec(ctx, deleteProductReturnsByDriverDate, arg.DriverID, arg.ReturnDate)
	return err
}

const createProductReturn = `
INSERT INTO product_returns (driver_id, return_date, product_id, quantity_returned, loss_reason_id, custom_reason, summary_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, driver_id, return_date, product_id, quantity_returned, loss_reason_id, custom_reason, summary_id, created_at
`

type CreateProductReturnParams struct {
	DriverID         uuid.UUID
	ReturnDate       pgtype.Date
	ProductID        uuid.UUID
	QuantityReturned int32
	LossReasonID     pgtype.UUID
	CustomReason     pgtype.Text
	SummaryID        uuid.UUID
}

func (q *Queries) CreateProductReturn(ctx context.Context, arg CreateProductReturnParams) (ProductReturn, error) {
	row := q.db.QueryRow(ctx, createProductReturn,
		arg.DriverID, arg.ReturnDate, arg.ProductID, arg.QuantityReturned, arg.LossReasonID, arg.CustomReason, arg.SummaryID)
	var r ProductReturn
	err := row.Scan(&r.ID, &r.DriverID, &r.ReturnDate, &r.ProductID, &r.QuantityReturned, &r.LossReasonID, &r.CustomReason, &r.SummaryID, &r.CreatedAt)
	return r, err
}

const listProductReturnsByDriverDate = `
SELECT id, driver_id, return_date, product_id, quantity_returned, loss_reason_id, custom_reason, summary_id, created_at
FROM product_returns
WHERE driver_id = $1 AND return_date = $2
ORDER BY created_at
`

type ListProductReturnsByDriverDateParams struct {
	DriverID   uuid.UUID
	ReturnDate pgtype.Date
}

func (q *Queries) ListProductReturnsByDriverDate(ctx context.Context, arg ListProductReturnsByDriverDateParams) ([]ProductReturn, error) {
	rows, err := q.db.Query(ctx, listProductReturnsByDriverDate, arg.DriverID, arg.ReturnDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProductReturn
	for rows.Next() {
		var r ProductReturn
		if err := rows.Scan(&r.ID, &r.DriverID, &r.ReturnDate, &r.ProductID, &r.QuantityReturned, &r.LossReasonID, &r.CustomReason, &r.SummaryID, &r.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const deletePackagingLogsByDriverDate = `
DELETE FROM packaging_logs
WHERE driver_id = $1 AND log_date = $2
`

type DeletePackagingLogsByDriverDateParams struct {
	DriverID uuid.UUID
	LogDate  pgtype.Date
}

func (q *Queries) DeletePackagingLogsByDriverDate(ctx context.Context, arg DeletePackagingLogsByDriverDateParams) error {
	_, err := q.db.Exec(ctx, deletePackagingLogsByDriverDate, arg.DriverID, arg.LogDate)
	return err
}

const createPackagingLog = `
INSERT INTO packaging_logs (driver_id, log_date, packaging_type_id, quantity_out, quantity_returned, summary_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, driver_id, log_date, packaging_type_id, quantity_out, quantity_returned, summary_id, created_at
`

type CreatePackagingLogParams struct {
	DriverID         uuid.UUID
	LogDate          pgtype.Date
	PackagingTypeID  uuid.UUID
	QuantityOut      int32
	QuantityReturned int32
	SummaryID        uuid.UUID
}

func (q *Queries) CreatePackagingLog(ctx context.Context, arg CreatePackagingLogParams) (PackagingLog, error) {
	row := q.db.QueryRow(ctx, createPackagingLog,
		arg.DriverID, arg.LogDate, arg.PackagingTypeID, arg.QuantityOut, arg.QuantityReturned, arg.SummaryID)
	var l PackagingLog
	err := row.Scan(&l.ID, &l.DriverID, &l.LogDate, &l.PackagingTypeID, &l.QuantityOut, &l.QuantityReturned, &l.SummaryID, &l.CreatedAt)
	return l, err
}

const listPackagingLogsByDriverDate = `
SELECT id, driver_id, log_date, packaging_type_id, quantity_out, quantity_returned, summary_id, created_at
FROM packaging_logs
WHERE driver_id = $1 AND log_date = $2
ORDER BY created_at
`

type ListPackagingLogsByDriverDateParams struct {
	DriverID uuid.UUID
	LogDate  pgtype.Date
}

func (q *Queries) ListPackagingLogsByDriverDate(ctx context.Context, arg ListPackagingLogsByDriverDateParams) ([]PackagingLog, error) {
	rows, err := q.db.Query(ctx, listPackagingLogsByDriverDate, arg.DriverID, arg.LogDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PackagingLog
	for rows.Next() {
		var l PackagingLog
		if err := rows.Scan(&l.ID, &l.DriverID, &l.LogDate, &l.PackagingTypeID, &l.QuantityOut, &l.QuantityReturned, &l.SummaryID, &l.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}
