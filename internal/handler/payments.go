package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/resto-pos/admin-api/internal/backend"
	"github.com/resto-pos/admin-api/internal/domain"
	"github.com/resto-pos/admin-api/internal/enum"
	"github.com/resto-pos/admin-api/internal/middleware"
	"github.com/resto-pos/admin-api/internal/service"
	"github.com/shopspring/decimal"
)

// PaymentServicer defines the service methods needed by payment handlers.
// Satisfied by *service.PaymentService.
type PaymentServicer interface {
	PayBill(ctx context.Context, scope backend.Scope, order domain.Order, bill domain.Bill, in service.PayBillInput, customers []domain.Customer) (*service.PayBillResult, error)
}

// customerLister is satisfied by *service.LookupService.
type customerLister interface {
	Customers(ctx context.Context, scope backend.Scope) ([]domain.Customer, error)
}

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	svc       PaymentServicer
	bills     BillServicer
	orders    orderLoader
	customers customerLister
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(svc PaymentServicer, bills BillServicer, orders orderLoader, customers customerLister) *PaymentHandler {
	return &PaymentHandler{svc: svc, bills: bills, orders: orders, customers: customers}
}

// RegisterRoutes registers payment endpoints on the given Chi router.
// Expected to be mounted at /orders/{id}/payment.
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Pay)
}

type payRequest struct {
	PaymentMethod string `json:"payment_method"`
	CashReceived  string `json:"cash_received"`
	CustomerID    *int64 `json:"customer_id"`
}

type customerResponse struct {
	ID    int64  `json:"customer_id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Pay handles POST /orders/{id}/payment.
func (h *PaymentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.PaymentMethod == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payment_method is required"})
		return
	}

	in := service.PayBillInput{CustomerID: req.CustomerID}
	mode, ok := enum.NormalizePaymentMethod(req.PaymentMethod)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_method"})
		return
	}
	in.Mode = mode

	if req.CashReceived != "" {
		d, err := decimal.NewFromString(req.CashReceived)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cash_received"})
			return
		}
		in.CashReceived = &d
	}

	scope := middleware.ScopeFromContext(r.Context())
	loaded, err := h.orders.Get(r.Context(), scope, id, nil)
	if err != nil {
		log.Printf("ERROR: load order %d for payment: %v", id, err)
		writeServiceError(w, err)
		return
	}

	bill, found, err := h.bills.FetchBill(r.Context(), scope, id)
	if err != nil {
		log.Printf("ERROR: fetch bill for payment on order %d: %v", id, err)
		writeServiceError(w, err)
		return
	}
	if !found {
		writeServiceError(w, service.ErrBillNotGenerated)
		return
	}

	// Customer list is only needed to surface credit customer details; a
	// failed lookup must not block the payment.
	var customers []domain.Customer
	if in.Mode == enum.PaymentMethodCredit {
		customers, err = h.customers.Customers(r.Context(), scope)
		if err != nil {
			log.Printf("WARN: list customers for credit payment: %v", err)
		}
	}

	res, err := h.svc.PayBill(r.Context(), scope, loaded.Order, bill, in, customers)
	if err != nil {
		log.Printf("ERROR: pay bill for order %d: %v", id, err)
		writeServiceError(w, err)
		return
	}

	body := map[string]any{
		"success":      true,
		"bill":         toBillResponse(res.Bill),
		"order_status": res.OrderStatus,
		"change":       amount(res.Change),
		"warnings":     res.Warnings,
	}
	if res.Customer != nil {
		body["customer"] = customerResponse{
			ID:    res.Customer.ID,
			Name:  res.Customer.Name,
			Phone: res.Customer.Phone,
		}
	}
	writeJSON(w, http.StatusOK, body)
}
