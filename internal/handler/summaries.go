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
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/database"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/enum"
	"github.com/shopspring/decimal"
)

// SummaryStore defines the database methods needed by summary handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type SummaryStore interface {
	GetDriver(ctx context.Context, id uuid.UUID) (database.Driver, error)
	GetRoute(ctx context.Context, id uuid.UUID) (database.Route, error)
	CreateDriverDailySummary(ctx context.Context, arg database.CreateDriverDailySummaryParams) (database.DriverDailySummary, error)
	GetDriverDailySummary(ctx context.Context, id uuid.UUID) (database.DriverDailySummary, error)
	GetDriverDailySummaryByDriverDate(ctx context.Context, arg database.GetDriverDailySummaryByDriverDateParams) (database.DriverDailySummary, error)
	UpdateSummaryRoute(ctx context.Context, arg database.UpdateSummaryRouteParams) (database.DriverDailySummary, error)
	ReconcileSummary(ctx context.Context, id uuid.UUID) (database.DriverDailySummary, error)
}

// SummaryHandler handles driver daily summary endpoints.
type SummaryHandler struct {
	store SummaryStore
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(store SummaryStore) *SummaryHandler {
	return &SummaryHandler{store: store}
}

// RegisterRoutes registers summary endpoints on the given Chi router.
// Expected to be mounted at /sales-ops/driver-daily-summaries
func (h *SummaryHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.StartDay)
	r.Get("/", h.GetByDriverDate)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/route", h.UpdateRoute)
	r.Post("/{id}/reconcile", h.Reconcile)
}

// --- Request / Response types ---

type startDayRequest struct {
	DriverID string `json:"driver_id"`
	Date     string `json:"date"`
	RouteID  string `json:"route_id"`
}

type updateRouteRequest struct {
	RouteID string `json:"route_id"`
}

type summaryResponse struct {
	ID                   uuid.UUID `json:"id"`
	DriverID             uuid.UUID `json:"driver_id"`
	SaleDate             string    `json:"sale_date"`
	RouteID              *string   `json:"route_id"`
	TotalCashSales       string    `json:"total_cash_sales"`
	TotalCreditSales     string    `json:"total_credit_sales"`
	TotalOtherSales      string    `json:"total_other_sales"`
	ReconciliationStatus string    `json:"reconciliation_status"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// --- Handlers ---

// StartDay handles POST /sales-ops/driver-daily-summaries.
// Starting an already-started day returns the existing summary untouched,
// so clients can call this blindly every morning.
func (h *SummaryHandler) StartDay(w http.ResponseWriter, r *http.Request) {
	var req startDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid driver_id"})
		return
	}
	date, err := parseDateParam(req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	driver, err := h.store.GetDriver(r.Context(), driverID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "driver not found"})
			return
		}
		log.Printf("ERROR: get driver for start day: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if !driver.IsActive {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "driver is inactive"})
		return
	}

	routeID := pgtype.UUID{}
	if req.RouteID != "" {
		rid, err := uuid.Parse(req.RouteID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid route_id"})
			return
		}
		if _, err := h.store.GetRoute(r.Context(), rid); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "route not found"})
				return
			}
			log.Printf("ERROR: get route for start day: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		routeID = pgtype.UUID{Bytes: rid, Valid: true}
	}

	summary, err := h.store.CreateDriverDailySummary(r.Context(), database.CreateDriverDailySummaryParams{
		DriverID: driverID,
		SaleDate: date,
		RouteID:  routeID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Conflict on (driver_id, sale_date): the day was already started.
			existing, err := h.store.GetDriverDailySummaryByDriverDate(r.Context(), database.GetDriverDailySummaryByDriverDateParams{
				DriverID: driverID,
				SaleDate: date,
			})
			if err != nil {
				log.Printf("ERROR: get existing summary for start day: %v", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}
			writeJSON(w, http.StatusOK, dbSummaryToResponse(existing))
			return
		}
		log.Printf("ERROR: create summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, dbSummaryToResponse(summary))
}

// Get handles GET /sales-ops/driver-daily-summaries/{id}.
func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid summary ID"})
		return
	}

	summary, err := h.store.GetDriverDailySummary(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "summary not found"})
			return
		}
		log.Printf("ERROR: get summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbSummaryToResponse(summary))
}

// GetByDriverDate handles GET /sales-ops/driver-daily-summaries?driver_id=&date=.
func (h *SummaryHandler) GetByDriverDate(w http.ResponseWriter, r *http.Request) {
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

	summary, err := h.store.GetDriverDailySummaryByDriverDate(r.Context(), database.GetDriverDailySummaryByDriverDateParams{
		DriverID: driverID,
		SaleDate: date,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "summary not found"})
			return
		}
		log.Printf("ERROR: get summary by driver/date: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbSummaryToResponse(summary))
}

// UpdateRoute handles PATCH /sales-ops/driver-daily-summaries/{id}/route.
// An empty route_id clears the assignment.
func (h *SummaryHandler) UpdateRoute(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid summary ID"})
		return
	}

	var req updateRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	routeID := pgtype.UUID{}
	if req.RouteID != "" {
		rid, err := uuid.Parse(req.RouteID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid route_id"})
			return
		}
		if _, err := h.store.GetRoute(r.Context(), rid); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "route not found"})
				return
			}
			log.Printf("ERROR: get route for summary update: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		routeID = pgtype.UUID{Bytes: rid, Valid: true}
	}

	summary, err := h.store.UpdateSummaryRoute(r.Context(), database.UpdateSummaryRouteParams{
		ID:      id,
		RouteID: routeID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "summary not found"})
			return
		}
		log.Printf("ERROR: update summary route: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbSummaryToResponse(summary))
}

// Reconcile handles POST /sales-ops/driver-daily-summaries/{id}/reconcile.
func (h *SummaryHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid summary ID"})
		return
	}

	summary, err := h.store.ReconcileSummary(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the summary does not exist or it is already reconciled.
			existing, getErr := h.store.GetDriverDailySummary(r.Context(), id)
			if getErr != nil {
				if errors.Is(getErr, pgx.ErrNoRows) {
					writeJSON(w, http.StatusNotFound, map[string]string{"error": "summary not found"})
					return
				}
				log.Printf("ERROR: get summary after reconcile miss: %v", getErr)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}
			if existing.ReconciliationStatus == enum.ReconciliationStatusReconciled {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "summary is already reconciled"})
				return
			}
			writeJSON(w, http.StatusConflict, map[string]string{"error": "summary could not be reconciled"})
			return
		}
		log.Printf("ERROR: reconcile summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbSummaryToResponse(summary))
}

// --- Helpers ---

func parseDateParam(s string) (pgtype.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return pgtype.Date{}, err
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func dbSummaryToResponse(s database.DriverDailySummary) summaryResponse {
	resp := summaryResponse{
		ID:                   s.ID,
		DriverID:             s.DriverID,
		SaleDate:             s.SaleDate.Time.Format("2006-01-02"),
		TotalCashSales:       numericToString(s.TotalCashSales),
		TotalCreditSales:     numericToString(s.TotalCreditSales),
		TotalOtherSales:      numericToString(s.TotalOtherSales),
		ReconciliationStatus: s.ReconciliationStatus,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
	if s.RouteID.Valid {
		rid := uuid.UUID(s.RouteID.Bytes).String()
		resp.RouteID = &rid
	}
	return resp
}
