package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/database"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/middleware"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/service"
)

// LoadingServicer defines the service methods needed by loading handlers.
// Satisfied by *service.LoadingService; narrow interface for testability.
type LoadingServicer interface {
	RecordBatch(ctx context.Context, req service.RecordLoadingBatchRequest) (*service.LoadingBatchResult, error)
	ReplaceBatch(ctx context.Context, req service.ReplaceLoadingBatchRequest) (*service.LoadingBatchResult, error)
}

// LoadingStore defines the database methods needed by loading read handlers.
type LoadingStore interface {
	ListLoadingLogs(ctx context.Context, arg database.ListLoadingLogsParams) ([]database.ListLoadingLogsRow, error)
}

// LoadingHandler handles loading log endpoints.
type LoadingHandler struct {
	svc   LoadingServicer
	store LoadingStore
}

// NewLoadingHandler creates a new LoadingHandler.
func NewLoadingHandler(svc LoadingServicer, store LoadingStore) *LoadingHandler {
	return &LoadingHandler{svc: svc, store: store}
}

// RegisterRoutes registers loading endpoints on the given Chi router.
// Expected to be mounted at /sales-ops/loading-logs
func (h *LoadingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Record)
	r.Get("/", h.List)
	r.Put("/{batchKey}", h.Replace)
}

// --- Request / Response types ---

type loadingLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

type recordLoadingRequest struct {
	DriverID string               `json:"driver_id"`
	RouteID  string               `json:"route_id"`
	LoadType string               `json:"load_type"`
	LoadedAt string               `json:"loaded_at"`
	Notes    string               `json:"notes"`
	Lines    []loadingLineRequest `json:"lines"`
}

type replaceLoadingRequest struct {
	Notes string               `json:"notes"`
	Lines []loadingLineRequest `json:"lines"`
}

type loadingLogResponse struct {
	ID             uuid.UUID `json:"id"`
	BatchKey       uuid.UUID `json:"batch_key"`
	DriverID       uuid.UUID `json:"driver_id"`
	DriverName     string    `json:"driver_name,omitempty"`
	RouteID        *string   `json:"route_id"`
	LoadType       string    `json:"load_type"`
	LoadedAt       time.Time `json:"loaded_at"`
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name,omitempty"`
	QuantityLoaded int32     `json:"quantity_loaded"`
	Notes          *string   `json:"notes"`
}

type loadingBatchResponse struct {
	BatchKey uuid.UUID            `json:"batch_key"`
	Logs     []loadingLogResponse `json:"logs"`
}

// --- Handlers ---

// Record handles POST /sales-ops/loading-logs.
func (h *LoadingHandler) Record(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req recordLoadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid driver_id"})
		return
	}

	lines := make([]service.LoadingLineRequest, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = service.LoadingLineRequest{ProductID: l.ProductID, Quantity: l.Quantity}
	}

	result, err := h.svc.RecordBatch(r.Context(), service.RecordLoadingBatchRequest{
		DriverID:  driverID,
		RouteID:   req.RouteID,
		LoadType:  req.LoadType,
		LoadedAt:  req.LoadedAt,
		Notes:     req.Notes,
		CreatedBy: claims.UserID,
		Lines:     lines,
	})
	if err != nil {
		writeLoadingError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toLoadingBatchResponse(result))
}

// Replace handles PUT /sales-ops/loading-logs/{batchKey}.
func (h *LoadingHandler) Replace(w http.ResponseWriter, r *http.Request) {
	batchKey, err := uuid.Parse(chi.URLParam(r, "batchKey"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid batch key"})
		return
	}

	var req replaceLoadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	lines := make([]service.LoadingLineRequest, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = service.LoadingLineRequest{ProductID: l.ProductID, Quantity: l.Quantity}
	}

	result, err := h.svc.ReplaceBatch(r.Context(), service.ReplaceLoadingBatchRequest{
		BatchKey: batchKey,
		Notes:    req.Notes,
		Lines:    lines,
	})
	if err != nil {
		writeLoadingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoadingBatchResponse(result))
}

// List handles GET /sales-ops/loading-logs.
// Rows are flat per (batch, product); clients group by batch_key.
func (h *LoadingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	driverID := pgtype.UUID{}
	if v := q.Get("driver_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid driver_id"})
			return
		}
		driverID = pgtype.UUID{Bytes: id, Valid: true}
	}

	date := pgtype.Date{}
	if v := q.Get("date"); v != "" {
		var err error
		date, err = parseDateParam(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
	}

	driverName := pgtype.Text{}
	if v := q.Get("driver_name"); v != "" {
		driverName = pgtype.Text{String: v, Valid: true}
	}

	limit := int32(50)
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 200 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = int32(n)
	}
	offset := int32(0)
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid offset"})
			return
		}
		offset = int32(n)
	}

	rows, err := h.store.ListLoadingLogs(r.Context(), database.ListLoadingLogsParams{
		DriverID:   driverID,
		Date:       date,
		DriverName: driverName,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		log.Printf("ERROR: list loading logs: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]loadingLogResponse, len(rows))
	for i, row := range rows {
		resp[i] = loadingLogResponse{
			ID:             row.ID,
			BatchKey:       row.BatchKey,
			DriverID:       row.DriverID,
			DriverName:     row.DriverName,
			LoadType:       row.LoadType,
			LoadedAt:       row.LoadedAt,
			ProductID:      row.ProductID,
			ProductName:    row.ProductName,
			QuantityLoaded: row.QuantityLoaded,
		}
		if row.RouteID.Valid {
			rid := uuid.UUID(row.RouteID.Bytes).String()
			resp[i].RouteID = &rid
		}
		if row.Notes.Valid {
			resp[i].Notes = &row.Notes.String
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func writeLoadingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyLines),
		errors.Is(err, service.ErrInvalidLoadType),
		errors.Is(err, service.ErrInvalidRouteID),
		errors.Is(err, service.ErrInvalidLoadedAt),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidProductID):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrBatchNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrBatchLocked):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: loading batch: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func toLoadingBatchResponse(result *service.LoadingBatchResult) loadingBatchResponse {
	resp := loadingBatchResponse{BatchKey: result.BatchKey, Logs: make([]loadingLogResponse, len(result.Logs))}
	for i, l := range result.Logs {
		resp.Logs[i] = loadingLogResponse{
			ID:             l.ID,
			BatchKey:       l.BatchKey,
			DriverID:       l.DriverID,
			LoadType:       l.LoadType,
			LoadedAt:       l.LoadedAt,
			ProductID:      l.ProductID,
			QuantityLoaded: l.QuantityLoaded,
		}
		if l.RouteID.Valid {
			rid := uuid.UUID(l.RouteID.Bytes).String()
			resp.Logs[i].RouteID = &rid
		}
		if l.Notes.Valid {
			resp.Logs[i].Notes = &l.Notes.String
		}
	}
	return resp
}
