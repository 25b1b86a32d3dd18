package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/database"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/enum"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/handler"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/middleware"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/service"
	"github.com/shopspring/decimal"
)

// --- Mock SalesServicer / Broadcaster ---

type mockSalesServicer struct {
	submitFn func(ctx context.Context, req service.SubmitDailySalesRequest) (*service.SubmitDailySalesResult, error)
}

func (m *mockSalesServicer) SubmitDailySales(ctx context.Context, req service.SubmitDailySalesRequest) (*service.SubmitDailySalesResult, error) {
	return m.submitFn(ctx, req)
}

type mockBroadcaster struct {
	driverID uuid.UUID
	payloads []interface{}
}

func (m *mockBroadcaster) BroadcastToDriver(driverID uuid.UUID, payload interface{}) {
	m.driverID = driverID
	m.payloads = append(m.payloads, payload)
}

func setupSalesRouter(svc *mockSalesServicer, hub handler.Broadcaster) *chi.Mux {
	h := handler.NewSalesHandler(svc, hub)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/sales-ops/sales-entry", h.RegisterRoutes)
	return r
}

func salesTestSummary(driverID uuid.UUID) database.DriverDailySummary {
	return database.DriverDailySummary{
		ID:                   uuid.New(),
		DriverID:             driverID,
		SaleDate:             pgtype.Date{Time: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Valid: true},
		TotalCashSales:       makeNumeric("150.00"),
		TotalCreditSales:     makeNumeric("0"),
		TotalOtherSales:      makeNumeric("0"),
		ReconciliationStatus: enum.ReconciliationStatusPending,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
}

// --- SubmitBatch Tests ---

func TestSubmitSalesBatch_HappyPath(t *testing.T) {
	driverID := uuid.New()
	summary := salesTestSummary(driverID)
	saleID := uuid.New()

	svc := &mockSalesServicer{
		submitFn: func(_ context.Context, req service.SubmitDailySalesRequest) (*service.SubmitDailySalesResult, error) {
			if req.SummaryID != summary.ID {
				t.Errorf("summary_id: got %s, want %s", req.SummaryID, summary.ID)
			}
			return &service.SubmitDailySalesResult{
				Summary:        summary,
				ProcessedSales: 1,
				SkippedSales:   1,
				TotalAmount:    decimal.RequireFromString("150.00"),
				Results: []service.SaleEntryResult{
					{Index: 0, Accepted: true, SaleID: saleID, TotalAmount: decimal.RequireFromString("150.00")},
					{Index: 1, Accepted: false, SkipReason: "customer not found", TotalAmount: decimal.Zero},
				},
			}, nil
		},
	}
	hub := &mockBroadcaster{}
	router := setupSalesRouter(svc, hub)

	rr := doAuthRequest(t, router, "POST", "/sales-ops/sales-entry/batch", map[string]interface{}{
		"summary_id": summary.ID.String(),
		"sales": []map[string]interface{}{
			{
				"customer_id":  uuid.New().String(),
				"payment_type": "CASH",
				"items": []map[string]interface{}{
					{"product_id": uuid.New().String(), "quantity": 3},
				},
			},
			{
				"customer_id":  uuid.New().String(),
				"payment_type": "CASH",
				"items": []map[string]interface{}{
					{"product_id": uuid.New().String(), "quantity": 1},
				},
			},
		},
	}, managerClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeJSONMap(t, rr)
	if resp["processed_sales"].(float64) != 1 {
		t.Errorf("processed_sales: got %v, want 1", resp["processed_sales"])
	}
	if resp["skipped_sales"].(float64) != 1 {
		t.Errorf("skipped_sales: got %v, want 1", resp["skipped_sales"])
	}
	// Batch total covers accepted entries only
	if resp["total_amount"] != "150.00" {
		t.Errorf("total_amount: got %v, want 150.00", resp["total_amount"])
	}

	results := resp["results"].([]interface{})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	accepted := results[0].(map[string]interface{})
	if accepted["status"] != "accepted" {
		t.Errorf("results[0].status: got %v, want accepted", accepted["status"])
	}
	if accepted["sale_id"] != saleID.String() {
		t.Errorf("results[0].sale_id: got %v, want %s", accepted["sale_id"], saleID)
	}
	if accepted["total_amount"] != "150.00" {
		t.Errorf("results[0].total_amount: got %v, want 150.00", accepted["total_amount"])
	}

	skipped := results[1].(map[string]interface{})
	if skipped["status"] != "skipped" {
		t.Errorf("results[1].status: got %v, want skipped", skipped["status"])
	}
	if skipped["skip_reason"] != "customer not found" {
		t.Errorf("results[1].skip_reason: got %v, want 'customer not found'", skipped["skip_reason"])
	}
	if _, hasSaleID := skipped["sale_id"]; hasSaleID {
		t.Error("skipped result should not carry a sale_id")
	}
}

func TestSubmitSalesBatch_BroadcastsSummaryUpdate(t *testing.T) {
	driverID := uuid.New()
	summary := salesTestSummary(driverID)

	svc := &mockSalesServicer{
		submitFn: func(_ context.Context, _ service.SubmitDailySalesRequest) (*service.SubmitDailySalesResult, error) {
			return &service.SubmitDailySalesResult{Summary: summary}, nil
		},
	}
	hub := &mockBroadcaster{}
	router := setupSalesRouter(svc, hub)

	rr := doAuthRequest(t, router, "POST", "/sales-ops/sales-entry/batch", map[string]interface{}{
		"summary_id": summary.ID.String(),
		"sales":      []map[string]interface{}{},
	}, managerClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if len(hub.payloads) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(hub.payloads))
	}
	if hub.driverID != driverID {
		t.Errorf("broadcast driver: got %s, want %s", hub.driverID, driverID)
	}

	payload := hub.payloads[0].(map[string]interface{})
	if payload["type"] != "summary.updated" {
		t.Errorf("broadcast type: got %v, want summary.updated", payload["type"])
	}
}

func TestSubmitSalesBatch_NilHub(t *testing.T) {
	summary := salesTestSummary(uuid.New())

	svc := &mockSalesServicer{
		submitFn: func(_ context.Context, _ service.SubmitDailySalesRequest) (*service.SubmitDailySalesResult, error) {
			return &service.SubmitDailySalesResult{Summary: summary}, nil
		},
	}
	router := setupSalesRouter(svc, nil)

	rr := doAuthRequest(t, router, "POST", "/sales-ops/sales-entry/batch", map[string]interface{}{
		"summary_id": summary.ID.String(),
		"sales":      []map[string]interface{}{},
	}, managerClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestSubmitSalesBatch_SummaryNotFound(t *testing.T) {
	svc := &mockSalesServicer{
		submitFn: func(_ context.Context, _ service.SubmitDailySalesRequest) (*service.SubmitDailySalesResult, error) {
			return nil, service.ErrSummaryNotFound
		},
	}
	hub := &mockBroadcaster{}
	router := setupSalesRouter(svc, hub)

	rr := doAuthRequest(t, router, "POST", "/sales-ops/sales-entry/batch", map[string]interface{}{
		"summary_id": uuid.New().String(),
		"sales":      []map[string]interface{}{},
	}, managerClaims())

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	if len(hub.payloads) != 0 {
		t.Error("failed batch must not broadcast")
	}
}

func TestSubmitSalesBatch_InvalidSummaryID(t *testing.T) {
	router := setupSalesRouter(&mockSalesServicer{}, &mockBroadcaster{})

	rr := doAuthRequest(t, router, "POST", "/sales-ops/sales-entry/batch", map[string]interface{}{
		"summary_id": "not-a-uuid",
	}, managerClaims())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
