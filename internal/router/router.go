package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/resto-pos/admin-api/internal/backend"
	"github.com/resto-pos/admin-api/internal/config"
	"github.com/resto-pos/admin-api/internal/enum"
	"github.com/resto-pos/admin-api/internal/handler"
	mw "github.com/resto-pos/admin-api/internal/middleware"
	"github.com/resto-pos/admin-api/internal/service"
	"github.com/resto-pos/admin-api/internal/ws"
)

// New creates a Chi router with all application routes wired up. Both
// dashboard roles call the same services; the route groups differ only in
// which actions they expose.
func New(cfg *config.Config, client *backend.Client, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
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

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/branches/{bid}/events", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Services (role-agnostic)
	tables := service.NewTableManager(client)
	orderService := service.NewOrderService(client, tables, hub)
	billingService := service.NewBillingService(client, service.BillingOptions{
		ServiceChargeMode: cfg.ServiceChargeMode,
		ServiceChargePct:  cfg.ServiceChargePct,
	}, hub)
	paymentService := service.NewPaymentService(client, tables, hub)
	printService := service.NewPrintService(client, cfg.PrintTimeout)
	lookupService := service.NewLookupService(client)

	orderHandler := handler.NewOrderHandler(orderService)
	billHandler := handler.NewBillHandler(billingService, orderService)
	paymentHandler := handler.NewPaymentHandler(paymentService, billingService, orderService, lookupService)
	printHandler := handler.NewPrintHandler(printService, orderService, billingService, lookupService)
	lookupHandler := handler.NewLookupHandler(lookupService)

	// Protected routes (require authentication and a branch scope)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.RequireBranch)

		// Branch-admin surface: the full lifecycle.
		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleBranchAdmin))

			r.Route("/orders", func(r chi.Router) {
				orderHandler.RegisterRoutes(r)
				r.Route("/{id}/bill", billHandler.RegisterRoutes)
				r.Route("/{id}/payment", paymentHandler.RegisterRoutes)
				r.Route("/{id}/print", printHandler.RegisterRoutes)
			})
			lookupHandler.RegisterRoutes(r)
		})

		// Accountant surface: read orders, generate bills, settle payments,
		// print receipts. No status dropdown, deletes, or table management.
		r.Route("/accounting", func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAccountant))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", orderHandler.List)
				r.Get("/{id}", orderHandler.Get)
				r.Route("/{id}/bill", billHandler.RegisterRoutes)
				r.Route("/{id}/payment", paymentHandler.RegisterRoutes)
				r.Post("/{id}/print/receipt", printHandler.Receipt)
			})
			r.Get("/customers", lookupHandler.Customers)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
