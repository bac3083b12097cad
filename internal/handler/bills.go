package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/resto-pos/admin-api/internal/backend"
	"github.com/resto-pos/admin-api/internal/domain"
	"github.com/resto-pos/admin-api/internal/middleware"
	"github.com/resto-pos/admin-api/internal/service"
	"github.com/shopspring/decimal"
)

// BillServicer defines the service methods needed by bill handlers.
// Satisfied by *service.BillingService.
type BillServicer interface {
	GenerateBill(ctx context.Context, scope backend.Scope, order domain.Order, in service.GenerateBillInput) (*service.GenerateBillResult, error)
	FetchBill(ctx context.Context, scope backend.Scope, orderID int64) (domain.Bill, bool, error)
}

// orderLoader loads one order; satisfied by *service.OrderService.
type orderLoader interface {
	Get(ctx context.Context, scope backend.Scope, orderID int64, cached []domain.Order) (service.GetResult, error)
}

// BillHandler handles bill endpoints.
type BillHandler struct {
	svc    BillServicer
	orders orderLoader
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(svc BillServicer, orders orderLoader) *BillHandler {
	return &BillHandler{svc: svc, orders: orders}
}

// RegisterRoutes registers bill endpoints on the given Chi router.
// Expected to be mounted at /orders/{id}/bill.
func (h *BillHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Generate)
	r.Get("/", h.Get)
}

type generateBillRequest struct {
	ServiceCharge      string `json:"service_charge"`
	DiscountPercentage string `json:"discount_percentage"`
}

// Generate handles POST /orders/{id}/bill.
func (h *BillHandler) Generate(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req generateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	in := service.GenerateBillInput{}
	if req.ServiceCharge != "" {
		d, err := decimal.NewFromString(req.ServiceCharge)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid service_charge"})
			return
		}
		in.ServiceCharge = d
	}
	if req.DiscountPercentage != "" {
		d, err := decimal.NewFromString(req.DiscountPercentage)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid discount_percentage"})
			return
		}
		in.DiscountPercentage = d
	}

	scope := middleware.ScopeFromContext(r.Context())
	loaded, err := h.orders.Get(r.Context(), scope, id, nil)
	if err != nil {
		log.Printf("ERROR: load order %d for billing: %v", id, err)
		writeServiceError(w, err)
		return
	}

	res, err := h.svc.GenerateBill(r.Context(), scope, loaded.Order, in)
	if err != nil {
		log.Printf("ERROR: generate bill for order %d: %v", id, err)
		writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if res.AlreadyExisted {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{
		"success":         true,
		"bill":            toBillResponse(res.Bill),
		"already_existed": res.AlreadyExisted,
		"warnings":        res.Warnings,
	})
}

// Get handles GET /orders/{id}/bill.
func (h *BillHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	scope := middleware.ScopeFromContext(r.Context())
	bill, found, err := h.svc.FetchBill(r.Context(), scope, id)
	if err != nil {
		log.Printf("ERROR: fetch bill for order %d: %v", id, err)
		writeServiceError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no bill generated for this order"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bill": toBillResponse(bill)})
}
