package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/database"
)

// Errors returned by the returns service.
var (
	ErrInvalidDate            = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidProductID       = errors.New("invalid product_id")
	ErrInvalidQuantity        = errors.New("quantity must be > 0")
	ErrInvalidLossReasonID    = errors.New("invalid loss_reason_id")
	ErrLossReasonNotFound     = errors.New("loss reason not found")
	ErrInvalidPackagingTypeID = errors.New("invalid packaging_type_id")
	ErrReasonRequired         = errors.New("loss_reason_id or custom_reason is required")
)

// ReturnsStore defines the DB methods needed for the returns flows.
// Satisfied by *database.Queries (and its WithTx variant).
type ReturnsStore interface {
	GetDriverDailySummaryByDriverDate(ctx context.Context, arg database.GetDriverDailySummaryByDriverDateParams) (database.DriverDailySummary, error)
	DeleteProductReturnsByDriverDate(ctx context.Context, arg database.DeleteProductReturnsByDriverDateParams) error
	CreateProductReturn(ctx context.Context, arg database.CreateProductReturnParams) (database.ProductReturn, error)
	DeletePackagingLogsByDriverDate(ctx context.Context, arg database.DeletePackagingLogsByDriverDateParams) error
	CreatePackagingLog(ctx context.Context, arg database.CreatePackagingLogParams) (database.PackagingLog, error)
	GetLossReason(ctx context.Context, id uuid.UUID) (database.LossReason, error)
}

// NewReturnsStore creates a ReturnsStore from a DBTX (pool or tx).
type NewReturnsStore func(db database.DBTX) ReturnsStore

// SubmitDailyReturnsRequest replaces a driver's returns and packaging
// movements for one day. Unlike the sales batch there is no per-row skip:
// the payload is pre-validated end to end and any bad row fails the request.
type SubmitDailyReturnsRequest struct {
	DriverID      uuid.UUID
	Date          string // YYYY-MM-DD
	Returns       []ProductReturnRequest
	PackagingLogs []PackagingLogRequest
}

// ProductReturnRequest is one returned-product line. The reason fields are
// optional here; end-of-day unloading often has no loss story to tell yet.
type ProductReturnRequest struct {
	ProductID    string
	Quantity     int32
	LossReasonID string
	CustomReason string
}

// PackagingLogRequest is one packaging-type movement line.
type PackagingLogRequest struct {
	PackagingTypeID  string
	QuantityOut      int32
	QuantityReturned int32
}

// SubmitDailyReturnsResult is the replaced state for the day.
type SubmitDailyReturnsResult struct {
	Summary       database.DriverDailySummary
	Returns       []database.ProductReturn
	PackagingLogs []database.PackagingLog
}

// CreateReturnRequest is a single interactive return. A reason is mandatory
// on this path: someone standing at the dock recording a loss knows why.
type CreateReturnRequest struct {
	DriverID     uuid.UUID
	Date         string // YYYY-MM-DD
	ProductID    string
	Quantity     int32
	LossReasonID string
	CustomReason string
}

// ReturnsService handles product returns and packaging movements.
type ReturnsService struct {
	pool     TxBeginner
	newStore NewReturnsStore
}

// NewReturnsService creates a new ReturnsService.
func NewReturnsService(pool TxBeginner, newStore NewReturnsStore) *ReturnsService {
	return &ReturnsService{pool: pool, newStore: newStore}
}

// SubmitDailyReturns deletes and reinserts the driver's product returns and
// packaging logs for the date, atomically. It never touches the summary's
// payment totals; returns only feed the reconciliation view.
func (s *ReturnsService) SubmitDailyReturns(ctx context.Context, req SubmitDailyReturnsRequest) (*SubmitDailyReturnsResult, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	summary, err := store.GetDriverDailySummaryByDriverDate(ctx, database.GetDriverDailySummaryByDriverDateParams{
		DriverID: req.DriverID,
		SaleDate: date,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSummaryNotFound
		}
		return nil, fmt.Errorf("get summary: %w", err)
	}

	if err := store.DeleteProductReturnsByDriverDate(ctx, database.DeleteProductReturnsByDriverDateParams{
		DriverID:   req.DriverID,
		ReturnDate: date,
	}); err != nil {
		return nil, fmt.Errorf("delete returns: %w", err)
	}
	if err := store.DeletePackagingLogsByDriverDate(ctx, database.DeletePackagingLogsByDriverDateParams{
		DriverID: req.DriverID,
		LogDate:  date,
	}); err != nil {
		return nil, fmt.Errorf("delete packaging logs: %w", err)
	}

	result := &SubmitDailyReturnsResult{}

	for i, ret := range req.Returns {
		productID, err := uuid.Parse(ret.ProductID)
		if err != nil {
			return nil, fmt.Errorf("returns[%d]: %w", i, ErrInvalidProductID)
		}
		lossReasonID, err := parseOptionalUUID(ret.LossReasonID)
		if err != nil {
			return nil, fmt.Errorf("returns[%d]: %w", i, ErrInvalidLossReasonID)
		}
		customReason := pgtype.Text{}
		if ret.CustomReason != "" {
			customReason = pgtype.Text{String: ret.CustomReason, Valid: true}
		}
		created, err := store.CreateProductReturn(ctx, database.CreateProductReturnParams{
			DriverID:         req.DriverID,
			ReturnDate:       date,
			ProductID:        productID,
			QuantityReturned: ret.Quantity,
			LossReasonID:     lossReasonID,
			CustomReason:     customReason,
			SummaryID:        summary.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("returns[%d]: create return: %w", i, err)
		}
		result.Returns = append(result.Returns, created)
	}

	for i, pl := range req.PackagingLogs {
		typeID, err := uuid.Parse(pl.PackagingTypeID)
		if err != nil {
			return nil, fmt.Errorf("packaging_logs[%d]: %w", i, ErrInvalidPackagingTypeID)
		}
		created, err := store.CreatePackagingLog(ctx, database.CreatePackagingLogParams{
			DriverID:         req.DriverID,
			LogDate:          date,
			PackagingTypeID:  typeID,
			QuantityOut:      pl.QuantityOut,
			QuantityReturned: pl.QuantityReturned,
			SummaryID:        summary.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("packaging_logs[%d]: create packaging log: %w", i, err)
		}
		result.PackagingLogs = append(result.PackagingLogs, created)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	result.Summary = summary
	return result, nil
}

// CreateReturn appends one return row for the day. Unlike the end-of-day
// batch, this path requires a reason and validates the loss reason exists.
func (s *ReturnsService) CreateReturn(ctx context.Context, req CreateReturnRequest) (*database.ProductReturn, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if req.LossReasonID == "" && req.CustomReason == "" {
		return nil, ErrReasonRequired
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, ErrInvalidProductID
	}
	lossReasonID, err := parseOptionalUUID(req.LossReasonID)
	if err != nil {
		return nil, ErrInvalidLossReasonID
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	summary, err := store.GetDriverDailySummaryByDriverDate(ctx, database.GetDriverDailySummaryByDriverDateParams{
		DriverID: req.DriverID,
		SaleDate: date,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSummaryNotFound
		}
		return nil, fmt.Errorf("get summary: %w", err)
	}

	if lossReasonID.Valid {
		if _, err := store.GetLossReason(ctx, uuid.UUID(lossReasonID.Bytes)); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrLossReasonNotFound
			}
			return nil, fmt.Errorf("get loss reason: %w", err)
		}
	}

	customReason := pgtype.Text{}
	if req.CustomReason != "" {
		customReason = pgtype.Text{String: req.CustomReason, Valid: true}
	}

	created, err := store.CreateProductReturn(ctx, database.CreateProductReturnParams{
		DriverID:         req.DriverID,
		ReturnDate:       date,
		ProductID:        productID,
		QuantityReturned: req.Quantity,
		LossReasonID:     lossReasonID,
		CustomReason:     customReason,
		SummaryID:        summary.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("create return: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &created, nil
}

// --- Helpers ---

func parseDate(s string) (pgtype.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return pgtype.Date{}, ErrInvalidDate
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

func parseOptionalUUID(s string) (pgtype.UUID, error) {
	if s == "" {
		return pgtype.UUID{}, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}
