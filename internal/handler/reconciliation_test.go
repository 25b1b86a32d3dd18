package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/database"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/handler"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/middleware"
)

// --- Mock ReconciliationStore ---

type mockReconciliationStore struct {
	getSummaryFn   func(ctx context.Context, arg database.GetDriverDailySummaryByDriverDateParams) (database.DriverDailySummary, error)
	sumLoadedFn    func(ctx context.Context, arg database.SumLoadedByDriverDateParams) ([]database.ProductQuantityRow, error)
	sumSoldFn      func(ctx context.Context, summaryID uuid.UUID) ([]database.ProductQuantityRow, error)
	sumReturnedFn  func(ctx context.Context, arg database.SumReturnedByDriverDateParams) ([]database.ProductQuantityRow, error)
	sumPackagingFn func(ctx context.Context, arg database.SumPackagingByDriverDateParams) ([]database.PackagingSumRow, error)
}

func (m *mockReconciliationStore) GetDriverDailySummaryByDriverDate(ctx context.Context, arg database.GetDriverDailySummaryByDriverDateParams) (database.DriverDailySummary, error) {
	return m.getSummaryFn(ctx, arg)
}

func (m *mockReconciliationStore) SumLoadedByDriverDate(ctx context.Context, arg database.SumLoadedByDriverDateParams) ([]database.ProductQuantityRow, error) {
	return m.sumLoadedFn(ctx, arg)
}

func (m *mockReconciliationStore) SumSoldBySummary(ctx context.Context, summaryID uuid.UUID) ([]database.ProductQuantityRow, error) {
	return m.sumSoldFn(ctx, summaryID)
}

func (m *mockReconciliationStore) SumReturnedByDriverDate(ctx context.Context, arg database.SumReturnedByDriverDateParams) ([]database.ProductQuantityRow, error) {
	return m.sumReturnedFn(ctx, arg)
}

func (m *mockReconciliationStore) SumPackagingByDriverDate(ctx context.Context, arg database.SumPackagingByDriverDateParams) ([]database.PackagingSumRow, error) {
	return m.sumPackagingFn(ctx, arg)
}

func setupReconciliationRouter(store *mockReconciliationStore) *chi.Mux {
	h := handler.NewReconciliationHandler(store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/sales-ops", h.RegisterRoutes)
	return r
}

// defaultReconciliationStore returns a store with a started day and empty ledgers.
func defaultReconciliationStore(driverID uuid.UUID) *mockReconciliationStore {
	summary := salesTestSummary(driverID)
	return &mockReconciliationStore{
		getSummaryFn: func(_ context.Context, _ database.GetDriverDailySummaryByDriverDateParams) (database.DriverDailySummary, error) {
			return summary, nil
		},
		sumLoadedFn: func(_ context.Context, _ database.SumLoadedByDriverDateParams) ([]database.ProductQuantityRow, error) {
			return nil, nil
		},
		sumSoldFn: func(_ context.Context, _ uuid.UUID) ([]database.ProductQuantityRow, error) {
			return nil, nil
		},
		sumReturnedFn: func(_ context.Context, _ database.SumReturnedByDriverDateParams) ([]database.ProductQuantityRow, error) {
			return nil, nil
		},
		sumPackagingFn: func(_ context.Context, _ database.SumPackagingByDriverDateParams) ([]database.PackagingSumRow, error) {
			return nil, nil
		},
	}
}

// --- Tests ---

func TestReconciliationView_NoSummary(t *testing.T) {
	store := defaultReconciliationStore(uuid.New())
	store.getSummaryFn = func(_ context.Context, _ database.GetDriverDailySummaryByDriverDateParams) (database.DriverDailySummary, error) {
		return database.DriverDailySummary{}, pgx.ErrNoRows
	}
	router := setupReconciliationRouter(store)

	rr := doAuthRequest(t, router, "GET",
		"/sales-ops/reconciliation-summary?driver_id="+uuid.New().String()+"&date=2026-03-02",
		nil, managerClaims())

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestReconciliationView_LossMath(t *testing.T) {
	driverID := uuid.New()
	tubeID := uuid.New()
	crushedID := uuid.New()

	store := defaultReconciliationStore(driverID)
	store.sumLoadedFn = func(_ context.Context, _ database.SumLoadedByDriverDateParams) ([]database.ProductQuantityRow, error) {
		return []database.ProductQuantityRow{
			{ProductID: crushedID, ProductName: "Crushed Ice 20kg", Quantity: 10},
			{ProductID: tubeID, ProductName: "Ice Tube 10kg", Quantity: 40},
		}, nil
	}
	store.sumSoldFn = func(_ context.Context, _ uuid.UUID) ([]database.ProductQuantityRow, error) {
		return []database.ProductQuantityRow{
			// Over-sold against the loading ledger: loss goes negative
			{ProductID: crushedID, ProductName: "Crushed Ice 20kg", Quantity: 12},
			{ProductID: tubeID, ProductName: "Ice Tube 10kg", Quantity: 30},
		}, nil
	}
	store.sumReturnedFn = func(_ context.Context, _ database.SumReturnedByDriverDateParams) ([]database.ProductQuantityRow, error) {
		return []database.ProductQuantityRow{
			{ProductID: tubeID, ProductName: "Ice Tube 10kg", Quantity: 7},
		}, nil
	}
	router := setupReconciliationRouter(store)

	rr := doAuthRequest(t, router, "GET",
		"/sales-ops/reconciliation-summary?driver_id="+driverID.String()+"&date=2026-03-02",
		nil, managerClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeJSONMap(t, rr)
	rows := resp["product_reconciliation"].([]interface{})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	// Sorted by product name
	crushed := rows[0].(map[string]interface{})
	if crushed["product_name"] != "Crushed Ice 20kg" {
		t.Fatalf("rows[0]: got %v, want Crushed Ice 20kg", crushed["product_name"])
	}
	if crushed["loss"].(float64) != -2 {
		t.Errorf("crushed loss: got %v, want -2", crushed["loss"])
	}

	tube := rows[1].(map[string]interface{})
	if tube["loaded"].(float64) != 40 || tube["sold"].(float64) != 30 || tube["returned"].(float64) != 7 {
		t.Errorf("tube row: got %v", tube)
	}
	if tube["loss"].(float64) != 3 {
		t.Errorf("tube loss: got %v, want 3", tube["loss"])
	}
}

// A product only present on one side still gets a row with zeros elsewhere.
func TestReconciliationView_OuterJoin(t *testing.T) {
	driverID := uuid.New()
	returnedOnlyID := uuid.New()

	store := defaultReconciliationStore(driverID)
	store.sumReturnedFn = func(_ context.Context, _ database.SumReturnedByDriverDateParams) ([]database.ProductQuantityRow, error) {
		return []database.ProductQuantityRow{
			{ProductID: returnedOnlyID, ProductName: "Block Ice 25kg", Quantity: 2},
		}, nil
	}
	router := setupReconciliationRouter(store)

	rr := doAuthRequest(t, router, "GET",
		"/sales-ops/reconciliation-summary?driver_id="+driverID.String()+"&date=2026-03-02",
		nil, managerClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	resp := decodeJSONMap(t, rr)
	rows := resp["product_reconciliation"].([]interface{})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0].(map[string]interface{})
	if row["loaded"].(float64) != 0 || row["sold"].(float64) != 0 {
		t.Errorf("expected zero loaded/sold, got %v", row)
	}
	if row["loss"].(float64) != -2 {
		t.Errorf("loss: got %v, want -2", row["loss"])
	}
}

func TestReconciliationView_PackagingOutstanding(t *testing.T) {
	driverID := uuid.New()
	crateID := uuid.New()

	store := defaultReconciliationStore(driverID)
	store.sumPackagingFn = func(_ context.Context, _ database.SumPackagingByDriverDateParams) ([]database.PackagingSumRow, error) {
		return []database.PackagingSumRow{
			{PackagingTypeID: crateID, PackagingTypeName: "Plastic Crate", QuantityOut: 20, QuantityReturned: 17},
		}, nil
	}
	router := setupReconciliationRouter(store)

	rr := doAuthRequest(t, router, "GET",
		"/sales-ops/reconciliation-summary?driver_id="+driverID.String()+"&date=2026-03-02",
		nil, managerClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	resp := decodeJSONMap(t, rr)
	packaging := resp["packaging"].([]interface{})
	if len(packaging) != 1 {
		t.Fatalf("expected 1 packaging row, got %d", len(packaging))
	}
	row := packaging[0].(map[string]interface{})
	if row["outstanding"].(float64) != 3 {
		t.Errorf("outstanding: got %v, want 3", row["outstanding"])
	}
}

func TestReconciliationView_InvalidDriverID(t *testing.T) {
	router := setupReconciliationRouter(defaultReconciliationStore(uuid.New()))

	rr := doAuthRequest(t, router, "GET",
		"/sales-ops/reconciliation-summary?driver_id=bogus&date=2026-03-02", nil, managerClaims())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
