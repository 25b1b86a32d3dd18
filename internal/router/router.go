package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/config"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/database"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/enum"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/handler"
	mw "github.com/lolcabb/ice-delivery-app-sub001/internal/middleware"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/service"
	"github.com/lolcabb/ice-delivery-app-sub001/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // ops dashboard dev server
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/drivers/{did}/sales-ops", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Back-office routes: sales-ops data entry is done by staff on
		// behalf of drivers, so drivers themselves have no write access.
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleAreaManager))

			r.Route("/sales-ops", func(r chi.Router) {
				// Loading logs
				loadingService := service.NewLoadingService(pool, func(db database.DBTX) service.LoadingStore {
					return database.New(db)
				})
				loadingHandler := handler.NewLoadingHandler(loadingService, queries)
				r.Route("/loading-logs", loadingHandler.RegisterRoutes)

				// Daily summaries
				summaryHandler := handler.NewSummaryHandler(queries)
				r.Route("/driver-daily-summaries", summaryHandler.RegisterRoutes)

				// Sales entry
				salesService := service.NewSalesService(pool, func(db database.DBTX) service.SalesStore {
					return database.New(db)
				})
				salesHandler := handler.NewSalesHandler(salesService, hub)
				r.Route("/sales-entry", salesHandler.RegisterRoutes)

				// Returns and packaging logs
				returnsService := service.NewReturnsService(pool, func(db database.DBTX) service.ReturnsStore {
					return database.New(db)
				})
				returnsHandler := handler.NewReturnsHandler(returnsService, queries)
				returnsHandler.RegisterRoutes(r)

				// Reconciliation view
				reconciliationHandler := handler.NewReconciliationHandler(queries)
				reconciliationHandler.RegisterRoutes(r)
			})
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
