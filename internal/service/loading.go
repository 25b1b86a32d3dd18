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
	"github.com/lolcabb/ice-delivery-app-sub001/internal/enum"
)

// Errors returned by the loading service.
var (
	ErrEmptyLines      = errors.New("lines are required")
	ErrInvalidLoadType = errors.New("invalid load_type")
	ErrInvalidRouteID  = errors.New("invalid route_id")
	ErrInvalidLoadedAt = errors.New("invalid loaded_at, expected RFC3339")
	ErrBatchNotFound   = errors.New("loading batch not found")
	ErrBatchLocked     = errors.New("loading batch has sales recorded for its day")
)

// LoadingStore defines the DB methods needed for loading batches.
// Satisfied by *database.Queries (and its WithTx variant).
type LoadingStore interface {
	CreateLoadingLog(ctx context.Context, arg database.CreateLoadingLogParams) (database.LoadingLog, error)
	GetLoadingBatchHead(ctx context.Context, batchKey uuid.UUID) (database.LoadingLog, error)
	DeleteLoadingBatch(ctx context.Context, batchKey uuid.UUID) error
	CountSalesForDriverDate(ctx context.Context, arg database.CountSalesForDriverDateParams) (int64, error)
}

// NewLoadingStore creates a LoadingStore from a DBTX (pool or tx).
type NewLoadingStore func(db database.DBTX) LoadingStore

// LoadingLineRequest is one product on a loading batch.
type LoadingLineRequest struct {
	ProductID string
	Quantity  int32
}

// RecordLoadingBatchRequest is the input for recording a truck load.
type RecordLoadingBatchRequest struct {
	DriverID  uuid.UUID
	RouteID   string
	LoadType  string
	LoadedAt  string // RFC3339; empty means now
	Notes     string
	CreatedBy uuid.UUID
	Lines     []LoadingLineRequest
}

// ReplaceLoadingBatchRequest swaps out every line of an existing batch.
type ReplaceLoadingBatchRequest struct {
	BatchKey uuid.UUID
	Notes    string
	Lines    []LoadingLineRequest
}

// LoadingBatchResult is the stored batch after a record or replace.
type LoadingBatchResult struct {
	BatchKey uuid.UUID
	Logs     []database.LoadingLog
}

// LoadingService handles loading batch business logic.
type LoadingService struct {
	pool     TxBeginner
	newStore NewLoadingStore
}

// NewLoadingService creates a new LoadingService.
func NewLoadingService(pool TxBeginner, newStore NewLoadingStore) *LoadingService {
	return &LoadingService{pool: pool, newStore: newStore}
}

// RecordBatch inserts one row per product line under a freshly minted batch
// key. The key is always server-generated; clients refer to it afterwards.
func (s *LoadingService) RecordBatch(ctx context.Context, req RecordLoadingBatchRequest) (*LoadingBatchResult, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyLines
	}
	if !isValidLoadType(req.LoadType) {
		return nil, ErrInvalidLoadType
	}
	routeID, err := parseOptionalUUID(req.RouteID)
	if err != nil {
		return nil, ErrInvalidRouteID
	}
	loadedAt := time.Now().UTC()
	if req.LoadedAt != "" {
		loadedAt, err = time.Parse(time.RFC3339, req.LoadedAt)
		if err != nil {
			return nil, ErrInvalidLoadedAt
		}
	}
	lines, err := validateLines(req.Lines)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}

	result := &LoadingBatchResult{BatchKey: uuid.New()}
	for i, line := range lines {
		created, err := store.CreateLoadingLog(ctx, database.CreateLoadingLogParams{
			BatchKey:       result.BatchKey,
			DriverID:       req.DriverID,
			RouteID:        routeID,
			LoadType:       req.LoadType,
			LoadedAt:       loadedAt,
			ProductID:      line.productID,
			QuantityLoaded: line.quantity,
			Notes:          notes,
			CreatedBy:      req.CreatedBy,
		})
		if err != nil {
			return nil, fmt.Errorf("lines[%d]: create loading log: %w", i, err)
		}
		result.Logs = append(result.Logs, created)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}

// ReplaceBatch deletes and reinserts every line of the batch, keeping its
// key and batch-level fields. Once any sale references the batch's day the
// replace is refused; corrections after that point go through the sales
// batch, not the loading ledger.
func (s *LoadingService) ReplaceBatch(ctx context.Context, req ReplaceLoadingBatchRequest) (*LoadingBatchResult, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyLines
	}
	lines, err := validateLines(req.Lines)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	head, err := store.GetLoadingBatchHead(ctx, req.BatchKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}

	// A batch belongs to the UTC calendar day of its loaded_at, matching
	// how listing and reconciliation bucket loading rows.
	count, err := store.CountSalesForDriverDate(ctx, database.CountSalesForDriverDateParams{
		DriverID: head.DriverID,
		SaleDate: pgtype.Date{Time: head.LoadedAt.UTC(), Valid: true},
	})
	if err != nil {
		return nil, fmt.Errorf("count sales: %w", err)
	}
	if count > 0 {
		return nil, ErrBatchLocked
	}

	if err := store.DeleteLoadingBatch(ctx, req.BatchKey); err != nil {
		return nil, fmt.Errorf("delete batch: %w", err)
	}

	notes := head.Notes
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}

	result := &LoadingBatchResult{BatchKey: req.BatchKey}
	for i, line := range lines {
		created, err := store.CreateLoadingLog(ctx, database.CreateLoadingLogParams{
			BatchKey:       req.BatchKey,
			DriverID:       head.DriverID,
			RouteID:        head.RouteID,
			LoadType:       head.LoadType,
			LoadedAt:       head.LoadedAt,
			ProductID:      line.productID,
			QuantityLoaded: line.quantity,
			Notes:          notes,
			CreatedBy:      head.CreatedBy,
		})
		if err != nil {
			return nil, fmt.Errorf("lines[%d]: create loading log: %w", i, err)
		}
		result.Logs = append(result.Logs, created)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}

// --- Helpers ---

type loadingLine struct {
	productID uuid.UUID
	quantity  int32
}

func validateLines(lines []LoadingLineRequest) ([]loadingLine, error) {
	out := make([]loadingLine, 0, len(lines))
	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("lines[%d]: %w", i, ErrInvalidQuantity)
		}
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("lines[%d]: %w", i, ErrInvalidProductID)
		}
		out = append(out, loadingLine{productID: productID, quantity: line.Quantity})
	}
	return out, nil
}

func isValidLoadType(s string) bool {
	switch s {
	case enum.LoadTypeInitial, enum.LoadTypeReload:
		return true
	}
	return false
}
