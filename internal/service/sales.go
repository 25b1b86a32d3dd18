package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/database"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by the sales service.
var (
	ErrSummaryNotFound = errors.New("daily summary not found")
)

// Skip reasons recorded per entry or per item. Data-quality problems inside a
// batch never fail the request; the row is skipped and the reason reported.
const (
	SkipInvalidCustomerID   = "invalid customer_id"
	SkipCustomerNotFound    = "customer not found"
	SkipCustomerInactive    = "customer is inactive"
	SkipInvalidPaymentType  = "invalid payment_type"
	SkipNoValidItems        = "no valid items"
	SkipInvalidQuantity     = "quantity must be > 0"
	SkipInvalidProductID    = "invalid product_id"
	SkipProductNotFound     = "product not found"
	SkipInvalidUnitPrice    = "invalid unit_price"
	SkipInvalidTxType       = "invalid transaction_type"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// SalesStore defines the DB methods needed for the daily sales batch.
// Satisfied by *database.Queries (and its WithTx variant).
type SalesStore interface {
	GetDriverDailySummaryForUpdate(ctx context.Context, id uuid.UUID) (database.DriverDailySummary, error)
	DeleteSalesBySummary(ctx context.Context, summaryID uuid.UUID) error
	GetCustomerForSale(ctx context.Context, id uuid.UUID) (database.Customer, error)
	GetProductForSale(ctx context.Context, id uuid.UUID) (database.Product, error)
	GetLatestCustomerPrice(ctx context.Context, arg database.GetLatestCustomerPriceParams) (pgtype.Numeric, error)
	CreateDriverSale(ctx context.Context, arg database.CreateDriverSaleParams) (database.DriverSale, error)
	CreateDriverSaleItem(ctx context.Context, arg database.CreateDriverSaleItemParams) (database.DriverSaleItem, error)
	UpsertRouteAssignment(ctx context.Context, arg database.UpsertRouteAssignmentParams) (database.RouteAssignment, error)
	RecomputeSummaryTotals(ctx context.Context, id uuid.UUID) (database.DriverDailySummary, error)
}

// NewSalesStore creates a SalesStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewSalesStore func(db database.DBTX) SalesStore

// SubmitDailySalesRequest is the validated input for a full-day sales batch.
type SubmitDailySalesRequest struct {
	SummaryID uuid.UUID
	Entries   []SaleEntryRequest
}

// SaleEntryRequest is one customer visit within the batch.
type SaleEntryRequest struct {
	CustomerID  string
	PaymentType string
	Notes       string
	Items       []SaleItemRequest
}

// SaleItemRequest is a single product line on a sale entry.
type SaleItemRequest struct {
	ProductID       string
	Quantity        int32
	UnitPrice       string // optional; empty triggers price resolution
	TransactionType string
}

// SkippedItemResult names an item that was dropped from an accepted entry.
type SkippedItemResult struct {
	Index  int
	Reason string
}

// SaleEntryResult is the per-entry outcome of the batch.
type SaleEntryResult struct {
	Index        int
	Accepted     bool
	SkipReason   string
	SaleID       uuid.UUID
	TotalAmount  decimal.Decimal
	SkippedItems []SkippedItemResult
}

// SubmitDailySalesResult is the outcome of replacing a day's sales.
// TotalAmount is the sum over accepted entries only.
type SubmitDailySalesResult struct {
	Summary        database.DriverDailySummary
	ProcessedSales int
	SkippedSales   int
	TotalAmount    decimal.Decimal
	Results        []SaleEntryResult
}

// SalesService handles the daily sales batch business logic.
type SalesService struct {
	pool     TxBeginner
	newStore NewSalesStore
}

// NewSalesService creates a new SalesService.
func NewSalesService(pool TxBeginner, newStore NewSalesStore) *SalesService {
	return &SalesService{pool: pool, newStore: newStore}
}

// preparedItem holds a validated item ready to insert.
type preparedItem struct {
	productID       uuid.UUID
	quantity        int32
	unitPrice       decimal.Decimal
	transactionType string
}

// SubmitDailySales replaces the summary's entire sales set with the given
// batch and recomputes the payment-bucket totals, all in one transaction.
// Submitting the same batch twice yields the same stored state. The summary
// row is locked for the duration, so concurrent submissions for the same day
// serialize instead of interleaving the delete and reinsert.
func (s *SalesService) SubmitDailySales(ctx context.Context, req SubmitDailySalesRequest) (*SubmitDailySalesResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	summary, err := store.GetDriverDailySummaryForUpdate(ctx, req.SummaryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSummaryNotFound
		}
		return nil, fmt.Errorf("get summary: %w", err)
	}

	if err := store.DeleteSalesBySummary(ctx, summary.ID); err != nil {
		return nil, fmt.Errorf("delete sales: %w", err)
	}

	result := &SubmitDailySalesResult{TotalAmount: decimal.Zero}

	for i, entry := range req.Entries {
		entryResult, err := s.processEntry(ctx, store, summary, i, entry)
		if err != nil {
			return nil, err
		}
		if entryResult.Accepted {
			result.ProcessedSales++
			result.TotalAmount = result.TotalAmount.Add(entryResult.TotalAmount)
		} else {
			result.SkippedSales++
			log.Printf("sales batch %s: skipped entry %d: %s", summary.ID, i, entryResult.SkipReason)
		}
		result.Results = append(result.Results, *entryResult)
	}

	updated, err := store.RecomputeSummaryTotals(ctx, summary.ID)
	if err != nil {
		return nil, fmt.Errorf("recompute totals: %w", err)
	}
	result.Summary = updated

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}

// processEntry validates and persists one sale entry. A data-quality problem
// returns a skipped result with a nil error; only persistence failures abort.
func (s *SalesService) processEntry(ctx context.Context, store SalesStore, summary database.DriverDailySummary, index int, entry SaleEntryRequest) (*SaleEntryResult, error) {
	skipped := func(reason string) *SaleEntryResult {
		return &SaleEntryResult{Index: index, SkipReason: reason}
	}

	customerID, err := uuid.Parse(entry.CustomerID)
	if err != nil {
		return skipped(SkipInvalidCustomerID), nil
	}

	customer, err := store.GetCustomerForSale(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return skipped(SkipCustomerNotFound), nil
		}
		return nil, fmt.Errorf("entry[%d]: get customer: %w", index, err)
	}
	if !customer.IsActive {
		return skipped(SkipCustomerInactive), nil
	}

	if !isValidPaymentType(entry.PaymentType) {
		return skipped(SkipInvalidPaymentType), nil
	}

	// Validate items before any write so a skipped entry leaves no rows.
	var items []preparedItem
	var skippedItems []SkippedItemResult
	for j, item := range entry.Items {
		prepared, reason, err := s.prepareItem(ctx, store, summary, customerID, item)
		if err != nil {
			return nil, fmt.Errorf("entry[%d].items[%d]: %w", index, j, err)
		}
		if reason != "" {
			skippedItems = append(skippedItems, SkippedItemResult{Index: j, Reason: reason})
			continue
		}
		items = append(items, *prepared)
	}
	if len(items) == 0 {
		res := skipped(SkipNoValidItems)
		res.SkippedItems = skippedItems
		return res, nil
	}

	// Only SALE lines carry money; giveaways and internal use are persisted
	// at their resolved price but contribute nothing to the total.
	total := decimal.Zero
	for _, it := range items {
		if it.transactionType == enum.TransactionTypeSale {
			total = total.Add(it.unitPrice.Mul(decimal.NewFromInt32(it.quantity)))
		}
	}

	notes := pgtype.Text{}
	if entry.Notes != "" {
		notes = pgtype.Text{String: entry.Notes, Valid: true}
	}

	sale, err := store.CreateDriverSale(ctx, database.CreateDriverSaleParams{
		SummaryID:   summary.ID,
		CustomerID:  customerID,
		PaymentType: entry.PaymentType,
		Notes:       notes,
		TotalAmount: decimalToNumeric(total),
	})
	if err != nil {
		return nil, fmt.Errorf("entry[%d]: create sale: %w", index, err)
	}

	for _, it := range items {
		_, err := store.CreateDriverSaleItem(ctx, database.CreateDriverSaleItemParams{
			SaleID:          sale.ID,
			ProductID:       it.productID,
			Quantity:        it.quantity,
			UnitPrice:       decimalToNumeric(it.unitPrice),
			TransactionType: it.transactionType,
		})
		if err != nil {
			return nil, fmt.Errorf("entry[%d]: create sale item: %w", index, err)
		}
	}

	// Best effort: a failed assignment marker never fails the batch.
	if summary.RouteID.Valid {
		routeID := uuid.UUID(summary.RouteID.Bytes)
		if _, err := store.UpsertRouteAssignment(ctx, database.UpsertRouteAssignmentParams{
			RouteID:    routeID,
			CustomerID: customerID,
		}); err != nil {
			log.Printf("sales batch %s: route assignment for customer %s: %v", summary.ID, customerID, err)
		}
	}

	return &SaleEntryResult{
		Index:        index,
		Accepted:     true,
		SaleID:       sale.ID,
		TotalAmount:  total,
		SkippedItems: skippedItems,
	}, nil
}

// prepareItem validates a single item and resolves its unit price:
// payload price, else the customer's latest agreed price as of the sale
// date, else the product default, else zero.
func (s *SalesService) prepareItem(ctx context.Context, store SalesStore, summary database.DriverDailySummary, customerID uuid.UUID, item SaleItemRequest) (*preparedItem, string, error) {
	if item.Quantity <= 0 {
		return nil, SkipInvalidQuantity, nil
	}

	productID, err := uuid.Parse(item.ProductID)
	if err != nil {
		return nil, SkipInvalidProductID, nil
	}
	product, err := store.GetProductForSale(ctx, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, SkipProductNotFound, nil
		}
		return nil, "", fmt.Errorf("get product: %w", err)
	}

	txType := item.TransactionType
	if txType == "" {
		txType = enum.TransactionTypeSale
	}
	if !isValidTransactionType(txType) {
		return nil, SkipInvalidTxType, nil
	}

	var unitPrice decimal.Decimal
	switch {
	case item.UnitPrice != "":
		unitPrice, err = decimal.NewFromString(item.UnitPrice)
		if err != nil || unitPrice.IsNegative() {
			return nil, SkipInvalidUnitPrice, nil
		}
	default:
		price, err := store.GetLatestCustomerPrice(ctx, database.GetLatestCustomerPriceParams{
			CustomerID: customerID,
			ProductID:  productID,
			AsOf:       summary.SaleDate,
		})
		switch {
		case err == nil:
			unitPrice = numericToDecimal(price)
		case errors.Is(err, pgx.ErrNoRows):
			unitPrice = numericToDecimal(product.DefaultPrice)
		default:
			return nil, "", fmt.Errorf("get customer price: %w", err)
		}
	}

	return &preparedItem{
		productID:       productID,
		quantity:        item.Quantity,
		unitPrice:       unitPrice,
		transactionType: txType,
	}, "", nil
}

// --- Helpers ---

func isValidPaymentType(s string) bool {
	switch s {
	case enum.PaymentTypeCash, enum.PaymentTypeDebit, enum.PaymentTypeCredit:
		return true
	}
	return false
}

func isValidTransactionType(s string) bool {
	switch s {
	case enum.TransactionTypeSale, enum.TransactionTypeGiveaway, enum.TransactionTypeInternalUse:
		return true
	}
	return false
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
