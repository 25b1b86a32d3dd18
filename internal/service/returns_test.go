package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/database"
)

// mockReturnsStore implements ReturnsStore with configurable behavior.
type mockReturnsStore struct {
	getSummaryByDriverDateFn func(ctx context.Context, arg database.GetDriverDailySummaryByDriverDateParams) (database.DriverDailySummary, error)
	deleteReturnsFn          func(ctx context.Context, arg database.DeleteProductReturnsByDriverDateParams) error
	createReturnFn           func(ctx context.Context, arg database.CreateProductReturnParams) (database.ProductReturn, error)
	deletePackagingFn        func(ctx context.Context, arg database.DeletePackagingLogsByDriverDateParams) error
	createPackagingFn        func(ctx context.Context, arg database.CreatePackagingLogParams) (database.PackagingLog, error)
	getLossReasonFn          func(ctx context.Context, id uuid.UUID) (database.LossReason, error)
}

func (m *mockReturnsStore) GetDriverDailySummaryByDriverDate(ctx context.Context, arg database.GetDriverDailySummaryByDriverDateParams) (database.DriverDailySummary, error) {
	return m.getSummaryByDriverDateFn(ctx, arg)
}
func (m *mockReturnsStore) DeleteProductReturnsByDriverDate(ctx context.Context, arg database.DeleteProductReturnsByDriverDateParams) error {
	return m.deleteReturnsFn(ctx, arg)
}
func (m *mockReturnsStore) CreateProductReturn(ctx context.Context, arg database.CreateProductReturnParams) (database.ProductReturn, error) {
	return m.createReturnFn(ctx, arg)
}
func (m *mockReturnsStore) DeletePackagingLogsByDriverDate(ctx context.Context, arg database.DeletePackagingLogsByDriverDateParams) error {
	return m.deletePackagingFn(ctx, arg)
}
func (m *mockReturnsStore) CreatePackagingLog(ctx context.Context, arg database.CreatePackagingLogParams) (database.PackagingLog, error) {
	return m.createPackagingFn(ctx, arg)
}
func (m *mockReturnsStore) GetLossReason(ctx context.Context, id uuid.UUID) (database.LossReason, error) {
	return m.getLossReasonFn(ctx, id)
}

func defaultReturnsStore(summaryID, driverID uuid.UUID) *mockReturnsStore {
	return &mockReturnsStore{
		getSummaryByDriverDateFn: func(ctx context.Context, arg database.GetDriverDailySummaryByDriverDateParams) (database.DriverDailySummary, error) {
			if arg.DriverID == driverID {
				s := testSummary(summaryID)
				s.DriverID = driverID
				return s, nil
			}
			return database.DriverDailySummary{}, pgx.ErrNoRows
		},
		deleteReturnsFn: func(ctx context.Context, arg database.DeleteProductReturnsByDriverDateParams) error { return nil },
		createReturnFn: func(ctx context.Context, arg database.CreateProductReturnParams) (database.ProductReturn, error) {
			return database.ProductReturn{
				ID:               uuid.New(),
				DriverID:         arg.DriverID,
				ReturnDate:       arg.ReturnDate,
				ProductID:        arg.ProductID,
				QuantityReturned: arg.QuantityReturned,
				LossReasonID:     arg.LossReasonID,
				CustomReason:     arg.CustomReason,
				SummaryID:        arg.SummaryID,
			}, nil
		},
		deletePackagingFn: func(ctx context.Context, arg database.DeletePackagingLogsByDriverDateParams) error { return nil },
		createPackagingFn: func(ctx context.Context, arg database.CreatePackagingLogParams) (database.PackagingLog, error) {
			return database.PackagingLog{
				ID:               uuid.New(),
				DriverID:         arg.DriverID,
				LogDate:          arg.LogDate,
				PackagingTypeID:  arg.PackagingTypeID,
				QuantityOut:      arg.QuantityOut,
				QuantityReturned: arg.QuantityReturned,
				SummaryID:        arg.SummaryID,
			}, nil
		},
		getLossReasonFn: func(ctx context.Context, id uuid.UUID) (database.LossReason, error) {
			return database.LossReason{}, pgx.ErrNoRows
		},
	}
}

func newReturnsTestService(store *mockReturnsStore) *ReturnsService {
	pool := &mockTxBeginner{tx: &mockTx{}}
	newStore := func(db database.DBTX) ReturnsStore { return store }
	return NewReturnsService(pool, newStore)
}

// =====================
// Daily batch
// =====================

func TestSubmitDailyReturns_SummaryNotFound(t *testing.T) {
	store := defaultReturnsStore(uuid.New(), uuid.New())
	svc := newReturnsTestService(store)

	_, err := svc.SubmitDailyReturns(context.Background(), SubmitDailyReturnsRequest{
		DriverID: uuid.New(),
		Date:     "2026-03-02",
	})
	if !errors.Is(err, ErrSummaryNotFound) {
		t.Fatalf("expected ErrSummaryNotFound, got: %v", err)
	}
}

func TestSubmitDailyReturns_InvalidDate(t *testing.T) {
	store := defaultReturnsStore(uuid.New(), uuid.New())
	svc := newReturnsTestService(store)

	_, err := svc.SubmitDailyReturns(context.Background(), SubmitDailyReturnsRequest{
		DriverID: uuid.New(),
		Date:     "02/03/2026",
	})
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got: %v", err)
	}
}

func TestSubmitDailyReturns_ReplacesBothSets(t *testing.T) {
	summaryID := uuid.New()
	driverID := uuid.New()
	store := defaultReturnsStore(summaryID, driverID)

	var calls []string
	store.deleteReturnsFn = func(ctx context.Context, arg database.DeleteProductReturnsByDriverDateParams) error {
		calls = append(calls, "delete-returns")
		return nil
	}
	store.deletePackagingFn = func(ctx context.Context, arg database.DeletePackagingLogsByDriverDateParams) error {
		calls = append(calls, "delete-packaging")
		return nil
	}
	baseReturn := store.createReturnFn
	store.createReturnFn = func(ctx context.Context, arg database.CreateProductReturnParams) (database.ProductReturn, error) {
		calls = append(calls, "insert-return")
		return baseReturn(ctx, arg)
	}
	basePackaging := store.createPackagingFn
	store.createPackagingFn = func(ctx context.Context, arg database.CreatePackagingLogParams) (database.PackagingLog, error) {
		calls = append(calls, "insert-packaging")
		return basePackaging(ctx, arg)
	}

	svc := newReturnsTestService(store)
	result, err := svc.SubmitDailyReturns(context.Background(), SubmitDailyReturnsRequest{
		DriverID: driverID,
		Date:     "2026-03-02",
		Returns: []ProductReturnRequest{
			{ProductID: uuid.New().String(), Quantity: 3},
		},
		PackagingLogs: []PackagingLogRequest{
			{PackagingTypeID: uuid.New().String(), QuantityOut: 20, QuantityReturned: 18},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"delete-returns", "delete-packaging", "insert-return", "insert-packaging"}
	if len(calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, calls)
		}
	}
	if len(result.Returns) != 1 || len(result.PackagingLogs) != 1 {
		t.Errorf("expected 1 return and 1 packaging log, got %d/%d", len(result.Returns), len(result.PackagingLogs))
	}
}

func TestSubmitDailyReturns_NullReasonAccepted(t *testing.T) {
	summaryID := uuid.New()
	driverID := uuid.New()
	store := defaultReturnsStore(summaryID, driverID)

	var captured database.CreateProductReturnParams
	store.createReturnFn = func(ctx context.Context, arg database.CreateProductReturnParams) (database.ProductReturn, error) {
		captured = arg
		return database.ProductReturn{ID: uuid.New()}, nil
	}

	svc := newReturnsTestService(store)
	_, err := svc.SubmitDailyReturns(context.Background(), SubmitDailyReturnsRequest{
		DriverID: driverID,
		Date:     "2026-03-02",
		Returns: []ProductReturnRequest{
			{ProductID: uuid.New().String(), Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("batch returns must accept missing reasons: %v", err)
	}
	if captured.LossReasonID.Valid || captured.CustomReason.Valid {
		t.Error("expected null loss reason and custom reason")
	}
}

func TestSubmitDailyReturns_InvalidProductIDAborts(t *testing.T) {
	summaryID := uuid.New()
	driverID := uuid.New()
	store := defaultReturnsStore(summaryID, driverID)
	svc := newReturnsTestService(store)

	_, err := svc.SubmitDailyReturns(context.Background(), SubmitDailyReturnsRequest{
		DriverID: driverID,
		Date:     "2026-03-02",
		Returns: []ProductReturnRequest{
			{ProductID: "not-a-uuid", Quantity: 3},
		},
	})
	if !errors.Is(err, ErrInvalidProductID) {
		t.Fatalf("expected ErrInvalidProductID, got: %v", err)
	}
}

// =====================
// Interactive single return
// =====================

func TestCreateReturn_ReasonRequired(t *testing.T) {
	summaryID := uuid.New()
	driverID := uuid.New()
	store := defaultReturnsStore(summaryID, driverID)
	svc := newReturnsTestService(store)

	_, err := svc.CreateReturn(context.Background(), CreateReturnRequest{
		DriverID:  driverID,
		Date:      "2026-03-02",
		ProductID: uuid.New().String(),
		Quantity:  2,
	})
	if !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got: %v", err)
	}
}

func TestCreateReturn_CustomReasonSufficient(t *testing.T) {
	summaryID := uuid.New()
	driverID := uuid.New()
	store := defaultReturnsStore(summaryID, driverID)

	var captured database.CreateProductReturnParams
	store.createReturnFn = func(ctx context.Context, arg database.CreateProductReturnParams) (database.ProductReturn, error) {
		captured = arg
		return database.ProductReturn{ID: uuid.New(), CustomReason: arg.CustomReason}, nil
	}

	svc := newReturnsTestService(store)
	_, err := svc.CreateReturn(context.Background(), CreateReturnRequest{
		DriverID:     driverID,
		Date:         "2026-03-02",
		ProductID:    uuid.New().String(),
		Quantity:     2,
		CustomReason: "melted in traffic",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !captured.CustomReason.Valid || captured.CustomReason.String != "melted in traffic" {
		t.Errorf("custom reason: got %v", captured.CustomReason)
	}
}

func TestCreateReturn_LossReasonValidated(t *testing.T) {
	summaryID := uuid.New()
	driverID := uuid.New()
	store := defaultReturnsStore(summaryID, driverID)
	lossReasonID := uuid.New()
	store.getLossReasonFn = func(ctx context.Context, id uuid.UUID) (database.LossReason, error) {
		if id == lossReasonID {
			return database.LossReason{ID: lossReasonID, Name: "Melted", IsActive: true}, nil
		}
		return database.LossReason{}, pgx.ErrNoRows
	}

	svc := newReturnsTestService(store)

	_, err := svc.CreateReturn(context.Background(), CreateReturnRequest{
		DriverID:     driverID,
		Date:         "2026-03-02",
		ProductID:    uuid.New().String(),
		Quantity:     2,
		LossReasonID: uuid.New().String(), // unknown
	})
	if !errors.Is(err, ErrLossReasonNotFound) {
		t.Fatalf("expected ErrLossReasonNotFound, got: %v", err)
	}

	created, err := svc.CreateReturn(context.Background(), CreateReturnRequest{
		DriverID:     driverID,
		Date:         "2026-03-02",
		ProductID:    uuid.New().String(),
		Quantity:     2,
		LossReasonID: lossReasonID.String(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected created return")
	}
}

func TestCreateReturn_ZeroQuantity(t *testing.T) {
	store := defaultReturnsStore(uuid.New(), uuid.New())
	svc := newReturnsTestService(store)

	_, err := svc.CreateReturn(context.Background(), CreateReturnRequest{
		DriverID:     uuid.New(),
		Date:         "2026-03-02",
		ProductID:    uuid.New().String(),
		Quantity:     0,
		CustomReason: "dropped",
	})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got: %v", err)
	}
}

func TestCreateReturn_SummaryLinked(t *testing.T) {
	summaryID := uuid.New()
	driverID := uuid.New()
	store := defaultReturnsStore(summaryID, driverID)

	var captured database.CreateProductReturnParams
	store.createReturnFn = func(ctx context.Context, arg database.CreateProductReturnParams) (database.ProductReturn, error) {
		captured = arg
		return database.ProductReturn{ID: uuid.New()}, nil
	}

	svc := newReturnsTestService(store)
	_, err := svc.CreateReturn(context.Background(), CreateReturnRequest{
		DriverID:     driverID,
		Date:         "2026-03-02",
		ProductID:    uuid.New().String(),
		Quantity:     1,
		CustomReason: "cracked block",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.SummaryID != summaryID {
		t.Errorf("summary_id: got %v, want %v", captured.SummaryID, summaryID)
	}
	if !captured.ReturnDate.Valid {
		t.Error("return_date should be set")
	}
}
