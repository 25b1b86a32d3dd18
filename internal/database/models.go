package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	FullName       string
	Role           string
	IsActive       bool
	CreatedAt      time.Time
}

type Driver struct {
	ID        uuid.UUID
	FullName  string
	Phone     pgtype.Text
	IsActive  bool
	CreatedAt time.Time
}

type Route struct {
	ID        uuid.UUID
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

type Product struct {
	ID           uuid.UUID
	Name         string
	DefaultPrice pgtype.Numeric
	IsActive     bool
	CreatedAt    time.Time
}

type Customer struct {
	ID        uuid.UUID
	Name      string
	RouteID   pgtype.UUID
	IsActive  bool
	CreatedAt time.Time
}

type PackagingType struct {
	ID       uuid.UUID
	Name     string
	IsActive bool
}

type LossReason struct {
	ID       uuid.UUID
	Name     string
	IsActive bool
}

// RouteAssignment is the per-customer "last sale" marker on a route.
// sales_count is best-effort bookkeeping, not part of the financial ledger.
type RouteAssignment struct {
	ID         uuid.UUID
	RouteID    uuid.UUID
	CustomerID uuid.UUID
	SalesCount int32
	LastSaleAt pgtype.Timestamptz
}

// LoadingLog is one (batch_key, product) row. A batch of products loaded
// together shares a batch_key minted at creation time.
type LoadingLog struct {
	ID             uuid.UUID
	BatchKey       uuid.UUID
	DriverID       uuid.UUID
	RouteID        pgtype.UUID
	LoadType       string
	LoadedAt       time.Time
	ProductID      uuid.UUID
	QuantityLoaded int32
	Notes          pgtype.Text
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
}

type DriverDailySummary struct {
	ID                   uuid.UUID
	DriverID             uuid.UUID
	SaleDate             pgtype.Date
	RouteID              pgtype.UUID
	TotalCashSales       pgtype.Numeric
	TotalCreditSales     pgtype.Numeric
	TotalOtherSales      pgtype.Numeric
	ReconciliationStatus string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type DriverSale struct {
	ID          uuid.UUID
	SummaryID   uuid.UUID
	CustomerID  uuid.UUID
	PaymentType string
	Notes       pgtype.Text
	TotalAmount pgtype.Numeric
	CreatedAt   time.Time
}

type DriverSaleItem struct {
	ID              uuid.UUID
	SaleID          uuid.UUID
	ProductID       uuid.UUID
	Quantity        int32
	UnitPrice       pgtype.Numeric
	TransactionType string
}

type ProductReturn struct {
	ID               uuid.UUID
	DriverID         uuid.UUID
	ReturnDate       pgtype.Date
	ProductID        uuid.UUID
	QuantityReturned int32
	LossReasonID     pgtype.UUID
	CustomReason     pgtype.Text
	SummaryID        uuid.UUID
	CreatedAt        time.Time
}

type PackagingLog struct {
	ID               uuid.UUID
	DriverID         uuid.UUID
	LogDate          pgtype.Date
	PackagingTypeID  uuid.UUID
	QuantityOut      int32
	QuantityReturned int32
	SummaryID        uuid.UUID
	CreatedAt        time.Time
}
