package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/splitbill-app/api/internal/handler"
	"github.com/splitbill-app/api/internal/service"
	"github.com/splitbill-app/api/internal/store"
	"github.com/splitbill-app/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// backend names the configured store backend for the health endpoint.
func New(st store.Store, hub *ws.Hub, backend string) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// The API is public (guests reach it via QR scans), so CORS is wide
	// open like the original deployment.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","backend":%q}`, backend)
	})

	// WebSocket subscriptions, one room per restaurant
	r.Get("/ws/restaurants/{restaurant}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, w, r)
	})

	payments := service.NewPayments(st)
	dashboard := service.NewDashboard(st)

	r.Route("/api", func(r chi.Router) {
		handler.NewTableHandler(st, hub).RegisterRoutes(r)
		handler.NewBillHandler(st, hub).RegisterRoutes(r)
		handler.NewPaymentHandler(payments, st, hub).RegisterRoutes(r)
		handler.NewDashboardHandler(dashboard, st).RegisterRoutes(r)
	})

	return r
}
