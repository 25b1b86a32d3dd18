package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/database"
)

// ReconciliationStore defines the database methods needed by the
// reconciliation view. Satisfied by *database.Queries.
type ReconciliationStore interface {
	GetDriverDailySummaryByDriverDate(ctx context.Context, arg database.GetDriverDailySummaryByDriverDateParams) (database.DriverDailySummary, error)
	SumLoadedByDriverDate(ctx context.Context, arg database.SumLoadedByDriverDateParams) ([]database.ProductQuantityRow, error)
	SumSoldBySummary(ctx context.Context, summaryID uuid.UUID) ([]database.ProductQuantityRow, error)
	SumReturnedByDriverDate(ctx context.Context, arg database.SumReturnedByDriverDateParams) ([]database.ProductQuantityRow, error)
	SumPackagingByDriverDate(ctx context.Context, arg database.SumPackagingByDriverDateParams) ([]database.PackagingSumRow, error)
}

// ReconciliationHandler serves the derived loaded/sold/returned/loss view.
type ReconciliationHandler struct {
	store ReconciliationStore
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(store ReconciliationStore) *ReconciliationHandler {
	return &ReconciliationHandler{store: store}
}

// RegisterRoutes registers reconciliation endpoints on the given Chi router.
// Expected to be mounted at /sales-ops
func (h *ReconciliationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reconciliation-summary", h.Get)
}

// --- Response types ---

type productReconciliationRow struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Loaded      int64     `json:"loaded"`
	Sold        int64     `json:"sold"`
	Returned    int64     `json:"returned"`
	Loss        int64     `json:"loss"`
}

type packagingReconciliationRow struct {
	PackagingTypeID   uuid.UUID `json:"packaging_type_id"`
	PackagingTypeName string    `json:"packaging_type_name"`
	QuantityOut       int64     `json:"quantity_out"`
	QuantityReturned  int64     `json:"quantity_returned"`
	Outstanding       int64     `json:"outstanding"`
}

type reconciliationResponse struct {
	Summary               summaryResponse              `json:"summary"`
	ProductReconciliation []productReconciliationRow   `json:"product_reconciliation"`
	Packaging             []packagingReconciliationRow `json:"packaging"`
}

// --- Handlers ---

// Get handles GET /sales-ops/reconciliation-summary?driver_id=&date=.
// loss = loaded - sold - returned per product; negative losses are reported
// as-is since they flag over-selling against the loading ledger.
func (h *ReconciliationHandler) Get(w http.ResponseWriter, r *http.Request) {
	driverID, err := uuid.Parse(r.URL.Query().Get("driver_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid driver_id"})
		return
	}
	date, err := parseDateParam(r.URL.Query().Get("date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	// The view only exists once the day has been started.
	summary, err := h.store.GetDriverDailySummaryByDriverDate(r.Context(), database.GetDriverDailySummaryByDriverDateParams{
		DriverID: driverID,
		SaleDate: date,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "summary not found"})
			return
		}
		log.Printf("ERROR: get summary for reconciliation: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	loaded, err := h.store.SumLoadedByDriverDate(r.Context(), database.SumLoadedByDriverDateParams{DriverID: driverID, Date: date})
	if err != nil {
		log.Printf("ERROR: sum loaded: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	sold, err := h.store.SumSoldBySummary(r.Context(), summary.ID)
	if err != nil {
		log.Printf("ERROR: sum sold: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	returned, err := h.store.SumReturnedByDriverDate(r.Context(), database.SumReturnedByDriverDateParams{DriverID: driverID, Date: date})
	if err != nil {
		log.Printf("ERROR: sum returned: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	packaging, err := h.store.SumPackagingByDriverDate(r.Context(), database.SumPackagingByDriverDateParams{DriverID: driverID, Date: date})
	if err != nil {
		log.Printf("ERROR: sum packaging: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := reconciliationResponse{
		Summary:               dbSummaryToResponse(summary),
		ProductReconciliation: mergeReconciliationRows(loaded, sold, returned),
		Packaging:             make([]packagingReconciliationRow, len(packaging)),
	}
	for i, p := range packaging {
		resp.Packaging[i] = packagingReconciliationRow{
			PackagingTypeID:   p.PackagingTypeID,
			PackagingTypeName: p.PackagingTypeName,
			QuantityOut:       p.QuantityOut,
			QuantityReturned:  p.QuantityReturned,
			Outstanding:       p.QuantityOut - p.QuantityReturned,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

// mergeReconciliationRows outer-joins the three per-product aggregates. A
// product appearing in any one ledger gets a row; missing sides count zero.
func mergeReconciliationRows(loaded, sold, returned []database.ProductQuantityRow) []productReconciliationRow {
	merged := make(map[uuid.UUID]*productReconciliationRow)
	get := func(r database.ProductQuantityRow) *productReconciliationRow {
		row, ok := merged[r.ProductID]
		if !ok {
			row = &productReconciliationRow{ProductID: r.ProductID, ProductName: r.ProductName}
			merged[r.ProductID] = row
		}
		return row
	}
	for _, r := range loaded {
		get(r).Loaded = r.Quantity
	}
	for _, r := range sold {
		get(r).Sold = r.Quantity
	}
	for _, r := range returned {
		get(r).Returned = r.Quantity
	}

	rows := make([]productReconciliationRow, 0, len(merged))
	for _, row := range merged {
		row.Loss = row.Loaded - row.Sold - row.Returned
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ProductName < rows[j].ProductName })
	return rows
}
