package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/service"
)

// SalesServicer defines the service methods needed by sales handlers.
// Satisfied by *service.SalesService; narrow interface for testability.
type SalesServicer interface {
	SubmitDailySales(ctx context.Context, req service.SubmitDailySalesRequest) (*service.SubmitDailySalesResult, error)
}

// Broadcaster pushes an event to every watcher of a driver's day.
// Satisfied by *ws.Hub; nil-safe via NewSalesHandler.
type Broadcaster interface {
	BroadcastToDriver(driverID uuid.UUID, payload interface{})
}

// SalesHandler handles the daily sales batch endpoint.
type SalesHandler struct {
	svc SalesServicer
	hub Broadcaster
}

// NewSalesHandler creates a new SalesHandler. hub may be nil.
func NewSalesHandler(svc SalesServicer, hub Broadcaster) *SalesHandler {
	return &SalesHandler{svc: svc, hub: hub}
}

// RegisterRoutes registers sales endpoints on the given Chi router.
// Expected to be mounted at /sales-ops/sales-entry
func (h *SalesHandler) RegisterRoutes(r chi.Router) {
	r.Post("/batch", h.SubmitBatch)
}

// --- Request / Response types ---

type saleItemRequest struct {
	ProductID       string `json:"product_id"`
	Quantity        int32  `json:"quantity"`
	UnitPrice       string `json:"unit_price"`
	TransactionType string `json:"transaction_type"`
}

type saleEntryRequest struct {
	CustomerID  string            `json:"customer_id"`
	PaymentType string            `json:"payment_type"`
	Notes       string            `json:"notes"`
	Items       []saleItemRequest `json:"items"`
}

type submitBatchRequest struct {
	SummaryID string             `json:"summary_id"`
	Sales     []saleEntryRequest `json:"sales"`
}

type skippedItemResponse struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type saleEntryResultResponse struct {
	Index        int                   `json:"index"`
	Status       string                `json:"status"`
	SkipReason   string                `json:"skip_reason,omitempty"`
	SaleID       *uuid.UUID            `json:"sale_id,omitempty"`
	TotalAmount  string                `json:"total_amount"`
	SkippedItems []skippedItemResponse `json:"skipped_items,omitempty"`
}

type submitBatchResponse struct {
	Summary        summaryResponse           `json:"summary"`
	ProcessedSales int                       `json:"processed_sales"`
	SkippedSales   int                       `json:"skipped_sales"`
	TotalAmount    string                    `json:"total_amount"`
	Results        []saleEntryResultResponse `json:"results"`
}

// --- Handlers ---

// SubmitBatch handles POST /sales-ops/sales-entry/batch.
// The payload replaces the summary's entire day of sales.
func (h *SalesHandler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req submitBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	summaryID, err := uuid.Parse(req.SummaryID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid summary_id"})
		return
	}

	entries := make([]service.SaleEntryRequest, len(req.Sales))
	for i, e := range req.Sales {
		items := make([]service.SaleItemRequest, len(e.Items))
		for j, it := range e.Items {
			items[j] = service.SaleItemRequest{
				ProductID:       it.ProductID,
				Quantity:        it.Quantity,
				UnitPrice:       it.UnitPrice,
				TransactionType: it.TransactionType,
			}
		}
		entries[i] = service.SaleEntryRequest{
			CustomerID:  e.CustomerID,
			PaymentType: e.PaymentType,
			Notes:       e.Notes,
			Items:       items,
		}
	}

	result, err := h.svc.SubmitDailySales(r.Context(), service.SubmitDailySalesRequest{
		SummaryID: summaryID,
		Entries:   entries,
	})
	if err != nil {
		if errors.Is(err, service.ErrSummaryNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "summary not found"})
			return
		}
		log.Printf("ERROR: submit sales batch: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := submitBatchResponse{
		Summary:        dbSummaryToResponse(result.Summary),
		ProcessedSales: result.ProcessedSales,
		SkippedSales:   result.SkippedSales,
		TotalAmount:    result.TotalAmount.StringFixed(2),
		Results:        make([]saleEntryResultResponse, len(result.Results)),
	}
	for i, res := range result.Results {
		rr := saleEntryResultResponse{
			Index:       res.Index,
			Status:      "skipped",
			SkipReason:  res.SkipReason,
			TotalAmount: res.TotalAmount.StringFixed(2),
		}
		if res.Accepted {
			rr.Status = "accepted"
			saleID := res.SaleID
			rr.SaleID = &saleID
		}
		for _, si := range res.SkippedItems {
			rr.SkippedItems = append(rr.SkippedItems, skippedItemResponse{Index: si.Index, Reason: si.Reason})
		}
		resp.Results[i] = rr
	}

	// Notify after commit so watchers never see uncommitted state.
	if h.hub != nil {
		h.hub.BroadcastToDriver(result.Summary.DriverID, map[string]interface{}{
			"type":    "summary.updated",
			"summary": resp.Summary,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
