package router

import (
	"net/http"

	"skinvault-api/internal/handler"
	"skinvault-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler          *handler.Handler
	PriceHandler     *handler.PriceHandler
	InventoryHandler *handler.InventoryHandler
	AuthHandler      *handler.AuthHandler
	RefreshHandler   *handler.RefreshHandler
	AuthMiddleware   func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Token"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no session required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
		r.Get("/api/v1/health", cfg.Handler.Health)
	}

	if cfg.AuthHandler != nil {
		r.Post("/api/v1/auth/session", cfg.AuthHandler.CreateSession)
		r.Post("/api/v1/auth/revoke", cfg.AuthHandler.RevokeSession)
	}

	// Scheduled refresh: guarded by its own shared secret, not sessions.
	if cfg.RefreshHandler != nil {
		r.Post("/api/v1/cron/refresh", cfg.RefreshHandler.Run)
		r.Get("/api/v1/cron/refresh/history", cfg.RefreshHandler.History)
	}

	// AUTHENTICATED routes
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		r.Route("/api/v1", func(r chi.Router) {
			if cfg.PriceHandler != nil {
				r.Get("/prices/{item_id}", cfg.PriceHandler.GetItemPrices)
				r.Post("/prices/batch", cfg.PriceHandler.FetchBatch)
			}

			if cfg.InventoryHandler != nil {
				r.Post("/inventory/sync", cfg.InventoryHandler.Sync)
				r.Get("/inventory", cfg.InventoryHandler.Get)
			}
		})
	})

	return r
}
