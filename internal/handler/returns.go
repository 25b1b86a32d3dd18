package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/database"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/service"
)

// ReturnsServicer defines the service methods needed by returns handlers.
// Satisfied by *service.ReturnsService; narrow interface for testability.
type ReturnsServicer interface {
	SubmitDailyReturns(ctx context.Context, req service.SubmitDailyReturnsRequest) (*service.SubmitDailyReturnsResult, error)
	CreateReturn(ctx context.Context, req service.CreateReturnRequest) (*database.ProductReturn, error)
}

// ReturnsStore defines the database methods needed by returns read handlers.
type ReturnsStore interface {
	ListProductReturnsByDriverDate(ctx context.Context, arg database.ListProductReturnsByDriverDateParams) ([]database.ProductReturn, error)
	ListPackagingLogsByDriverDate(ctx context.Context, arg database.ListPackagingLogsByDriverDateParams) ([]database.PackagingLog, error)
}

// ReturnsHandler handles product return and packaging log endpoints.
type ReturnsHandler struct {
	svc   ReturnsServicer
	store ReturnsStore
}

// NewReturnsHandler creates a new ReturnsHandler.
func NewReturnsHandler(svc ReturnsServicer, store ReturnsStore) *ReturnsHandler {
	return &ReturnsHandler{svc: svc, store: store}
}

// RegisterRoutes registers returns endpoints on the given Chi router.
// Expected to be mounted at /sales-ops
func (h *ReturnsHandler) RegisterRoutes(r chi.Router) {
	r.Post("/batch-returns", h.SubmitBatch)
	r.Post("/product-returns", h.Create)
	r.Get("/product-returns", h.List)
}

// --- Request / Response types ---

type productReturnRequest struct {
	ProductID    string `json:"product_id"`
	Quantity     int32  `json:"quantity"`
	LossReasonID string `json:"loss_reason_id"`
	CustomReason string `json:"custom_reason"`
}

type packagingLogRequest struct {
	PackagingTypeID  string `json:"packaging_type_id"`
	QuantityOut      int32  `json:"quantity_out"`
	QuantityReturned int32  `json:"quantity_returned"`
}

type submitReturnsRequest struct {
	DriverID      string                 `json:"driver_id"`
	Date          string                 `json:"date"`
	Returns       []productReturnRequest `json:"returns"`
	PackagingLogs []packagingLogRequest  `json:"packaging_logs"`
}

type createReturnRequest struct {
	DriverID     string `json:"driver_id"`
	Date         string `json:"date"`
	ProductID    string `json:"product_id"`
	Quantity     int32  `json:"quantity"`
	LossReasonID string `json:"loss_reason_id"`
	CustomReason string `json:"custom_reason"`
}

type productReturnResponse struct {
	ID               uuid.UUID `json:"id"`
	DriverID         uuid.UUID `json:"driver_id"`
	ReturnDate       string    `json:"return_date"`
	ProductID        uuid.UUID `json:"product_id"`
	QuantityReturned int32     `json:"quantity_returned"`
	LossReasonID     *string   `json:"loss_reason_id"`
	CustomReason     *string   `json:"custom_reason"`
	SummaryID        uuid.UUID `json:"summary_id"`
	CreatedAt        time.Time `json:"created_at"`
}

type packagingLogResponse struct {
	ID               uuid.UUID `json:"id"`
	DriverID         uuid.UUID `json:"driver_id"`
	LogDate          string    `json:"log_date"`
	PackagingTypeID  uuid.UUID `json:"packaging_type_id"`
	QuantityOut      int32     `json:"quantity_out"`
	QuantityReturned int32     `json:"quantity_returned"`
}

type submitReturnsResponse struct {
	Summary       summaryResponse         `json:"summary"`
	Returns       []productReturnResponse `json:"returns"`
	PackagingLogs []packagingLogResponse  `json:"packaging_logs"`
}

type listReturnsResponse struct {
	Returns       []productReturnResponse `json:"returns"`
	PackagingLogs []packagingLogResponse  `json:"packaging_logs"`
}

// --- Handlers ---

// SubmitBatch handles POST /sales-ops/batch-returns.
// Replaces the driver's returns and packaging logs for the day. This path
// does not touch sales totals.
func (h *ReturnsHandler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req submitReturnsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid driver_id"})
		return
	}

	returns := make([]service.ProductReturnRequest, len(req.Returns))
	for i, ret := range req.Returns {
		returns[i] = service.ProductReturnRequest{
			ProductID:    ret.ProductID,
			Quantity:     ret.Quantity,
			LossReasonID: ret.LossReasonID,
			CustomReason: ret.CustomReason,
		}
	}
	packaging := make([]service.PackagingLogRequest, len(req.PackagingLogs))
	for i, pl := range req.PackagingLogs {
		packaging[i] = service.PackagingLogRequest{
			PackagingTypeID:  pl.PackagingTypeID,
			QuantityOut:      pl.QuantityOut,
			QuantityReturned: pl.QuantityReturned,
		}
	}

	result, err := h.svc.SubmitDailyReturns(r.Context(), service.SubmitDailyReturnsRequest{
		DriverID:      driverID,
		Date:          req.Date,
		Returns:       returns,
		PackagingLogs: packaging,
	})
	if err != nil {
		writeReturnsError(w, err)
		return
	}

	resp := submitReturnsResponse{
		Summary:       dbSummaryToResponse(result.Summary),
		Returns:       make([]productReturnResponse, len(result.Returns)),
		PackagingLogs: make([]packagingLogResponse, len(result.PackagingLogs)),
	}
	for i, ret := range result.Returns {
		resp.Returns[i] = dbReturnToResponse(ret)
	}
	for i, pl := range result.PackagingLogs {
		resp.PackagingLogs[i] = dbPackagingLogToResponse(pl)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /sales-ops/product-returns.
// The interactive path: one return, reason mandatory.
func (h *ReturnsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid driver_id"})
		return
	}

	created, err := h.svc.CreateReturn(r.Context(), service.CreateReturnRequest{
		DriverID:     driverID,
		Date:         req.Date,
		ProductID:    req.ProductID,
		Quantity:     req.Quantity,
		LossReasonID: req.LossReasonID,
		CustomReason: req.CustomReason,
	})
	if err != nil {
		writeReturnsError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dbReturnToResponse(*created))
}

// List handles GET /sales-ops/product-returns?driver_id=&date=.
func (h *ReturnsHandler) List(w http.ResponseWriter, r *http.Request) {
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

	returns, err := h.store.ListProductReturnsByDriverDate(r.Context(), database.ListProductReturnsByDriverDateParams{
		DriverID:   driverID,
		ReturnDate: date,
	})
	if err != nil {
		log.Printf("ERROR: list returns: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	packaging, err := h.store.ListPackagingLogsByDriverDate(r.Context(), database.ListPackagingLogsByDriverDateParams{
		DriverID: driverID,
		LogDate:  date,
	})
	if err != nil {
		log.Printf("ERROR: list packaging logs: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := listReturnsResponse{
		Returns:       make([]productReturnResponse, len(returns)),
		PackagingLogs: make([]packagingLogResponse, len(packaging)),
	}
	for i, ret := range returns {
		resp.Returns[i] = dbReturnToResponse(ret)
	}
	for i, pl := range packaging {
		resp.PackagingLogs[i] = dbPackagingLogToResponse(pl)
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func writeReturnsError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidProductID),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidLossReasonID),
		errors.Is(err, service.ErrInvalidPackagingTypeID),
		errors.Is(err, service.ErrReasonRequired):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrSummaryNotFound),
		errors.Is(err, service.ErrLossReasonNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: returns: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func dbReturnToResponse(ret database.ProductReturn) productReturnResponse {
	resp := productReturnResponse{
		ID:               ret.ID,
		DriverID:         ret.DriverID,
		ReturnDate:       ret.ReturnDate.Time.Format("2006-01-02"),
		ProductID:        ret.ProductID,
		QuantityReturned: ret.QuantityReturned,
		SummaryID:        ret.SummaryID,
		CreatedAt:        ret.CreatedAt,
	}
	if ret.LossReasonID.Valid {
		id := uuid.UUID(ret.LossReasonID.Bytes).String()
		resp.LossReasonID = &id
	}
	if ret.CustomReason.Valid {
		resp.CustomReason = &ret.CustomReason.String
	}
	return resp
}

func dbPackagingLogToResponse(pl database.PackagingLog) packagingLogResponse {
	return packagingLogResponse{
		ID:               pl.ID,
		DriverID:         pl.DriverID,
		LogDate:          pl.LogDate.Time.Format("2006-01-02"),
		PackagingTypeID:  pl.PackagingTypeID,
		QuantityOut:      pl.QuantityOut,
		QuantityReturned: pl.QuantityReturned,
	}
}
