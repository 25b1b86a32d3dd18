package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const summaryColumns = `id, driver_id, sale_date, route_id, total_cash_sales, total_credit_sales, total_other_sales, reconciliation_status, created_at, updated_at`

func scanSummary(row interface{ Scan(...any) error }) (DriverDailySummary, error) {
	var s DriverDailySummary
	err := row.Scan(&s.ID, &s.DriverID, &s.SaleDate, &s.RouteID, &s.TotalCashSales, &s.TotalCreditSales, &s.TotalOtherSales, &s.ReconciliationStatus, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

const createDriverDailySummary = `
INSERT INTO driver_daily_summaries (driver_id, sale_date, route_id)
VALUES ($1, $2, $3)
ON CONFLICT (driver_id, sale_date) DO NOTHING
RETURNING ` + summaryColumns

type CreateDriverDailySummaryParams struct {
	DriverID uuid.UUID
	SaleDate pgtype.Date
	RouteID  pgtype.UUID
}

// CreateDriverDailySummary inserts the day's summary row. On a
// (driver_id, sale_date) conflict no row is returned (pgx.ErrNoRows);
// callers then fetch the existing row, which stays unchanged.
func (q *Queries) CreateDriverDailySummary(ctx context.Context, arg CreateDriverDailySummaryParams) (DriverDailySummary, error) {
	return scanSummary(q.db.QueryRow(ctx, createDriverDailySummary, arg.DriverID, arg.SaleDate, arg.RouteID))
}

const getDriverDailySummary = `
SELECT ` + summaryColumns + `
FROM driver_daily_summaries
WHERE id = $1
`

func (q *Queries) GetDriverDailySummary(ctx context.Context, id uuid.UUID) (DriverDailySummary, error) {
	return scanSummary(q.db.QueryRow(ctx, getDriverDailySummary, id))
}

const getDriverDailySummaryForUpdate = `
SELECT ` + summaryColumns + `
FROM driver_daily_summaries
WHERE id = $1
FOR UPDATE
`

// GetDriverDailySummaryForUpdate locks the summary row for the duration of
// the transaction, serializing concurrent batch submissions for the same day.
func (q *Queries) GetDriverDailySummaryForUpdate(ctx context.Context, id uuid.UUID) (DriverDailySummary, error) {
	return scanSummary(q.db.QueryRow(ctx, getDriverDailySummaryForUpdate, id))
}

const getDriverDailySummaryByDriverDate = `
SELECT ` + summaryColumns + `
FROM driver_daily_summaries
WHERE driver_id = $1 AND sale_date = $2
`

type GetDriverDailySummaryByDriverDateParams struct {
	DriverID uuid.UUID
	SaleDate pgtype.Date
}

func (q *Queries) GetDriverDailySummaryByDriverDate(ctx context.Context, arg GetDriverDailySummaryByDriverDateParams) (DriverDailySummary, error) {
	return scanSummary(q.db.QueryRow(ctx, getDriverDailySummaryByDriverDate, arg.DriverID, arg.SaleDate))
}

const updateSummaryRoute = `
UPDATE driver_daily_summaries
SET route_id = $2, updated_at = now()
WHERE id = $1
RETURNING ` + summaryColumns

type UpdateSummaryRouteParams struct {
	ID      uuid.UUID
	RouteID pgtype.UUID
}

func (q *Queries) UpdateSummaryRoute(ctx context.Context, arg UpdateSummaryRouteParams) (DriverDailySummary, error) {
	return scanSummary(q.db.QueryRow(ctx, updateSummaryRoute, arg.ID, arg.RouteID))
}

const reconcileSummary = `
UPDATE driver_daily_summaries
SET reconciliation_status = 'RECONCILED', updated_at = now()
WHERE id = $1 AND reconciliation_status = 'PENDING'
RETURNING ` + summaryColumns

// ReconcileSummary flips PENDING to RECONCILED. The transition is one-way;
// an already-reconciled summary yields pgx.ErrNoRows.
func (q *Queries) ReconcileSummary(ctx context.Context, id uuid.UUID) (DriverDailySummary, error) {
	return scanSummary(q.db.QueryRow(ctx, reconcileSummary, id))
}

const recomputeSummaryTotals = `
UPDATE driver_daily_summaries s
SET total_cash_sales = sub.cash,
    total_credit_sales = sub.credit,
    total_other_sales = sub.other,
    updated_at = now()
FROM (
    SELECT
        COALESCE(SUM(total_amount) FILTER (WHERE payment_type = 'CASH'), 0)   AS cash,
        COALESCE(SUM(total_amount) FILTER (WHERE payment_type = 'CREDIT'), 0) AS credit,
        COALESCE(SUM(total_amount) FILTER (WHERE payment_type NOT IN ('CASH', 'CREDIT')), 0) AS other
    FROM driver_sales
    WHERE summary_id = $1
) sub
WHERE s.id = $1
RETURNING s.id, s.driver_id, s.sale_date, s.route_id, s.total_cash_sales, s.total_credit_sales, s.total_other_sales, s.reconciliation_status, s.created_at, s.updated_at
`

// RecomputeSummaryTotals re-derives the three payment buckets from the
// current driver_sales rows. This is the only statement that writes the
// totals; every sales writer must call it inside the same transaction.
func (q *Queries) RecomputeSummaryTotals(ctx context.Context, id uuid.UUID) (DriverDailySummary, error) {
	return scanSummary(q.db.QueryRow(ctx, recomputeSummaryTotals, id))
}
