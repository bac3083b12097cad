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
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	List(ctx context.Context, scope backend.Scope, f backend.OrderFilter) ([]domain.Order, error)
	Get(ctx context.Context, scope backend.Scope, orderID int64, cached []domain.Order) (service.GetResult, error)
	SetStatus(ctx context.Context, scope backend.Scope, order domain.Order, newStatus string) (*service.SetStatusResult, error)
	Delete(ctx context.Context, scope backend.Scope, order domain.Order) error
	TransferTable(ctx context.Context, scope backend.Scope, order domain.Order, newTableID int64) (*service.TransferResult, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc OrderServicer
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Patch("/{id}/table", h.TransferTable)
	r.Delete("/{id}", h.Delete)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type transferTableRequest struct {
	TableID int64 `json:"table_id"`
}

// List handles GET /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFromContext(r.Context())
	q := r.URL.Query()
	orders, err := h.svc.List(r.Context(), scope, backend.OrderFilter{
		Status:   q.Get("status"),
		FromDate: q.Get("from_date"),
		ToDate:   q.Get("to_date"),
	})
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeServiceError(w, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": resp})
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	scope := middleware.ScopeFromContext(r.Context())

	res, err := h.svc.Get(r.Context(), scope, id, nil)
	if err != nil {
		log.Printf("ERROR: get order %d: %v", id, err)
		writeServiceError(w, err)
		return
	}

	body := map[string]any{"order": toOrderResponse(res.Order)}
	if res.Warning != "" {
		body["warnings"] = []string{res.Warning}
	}
	writeJSON(w, http.StatusOK, body)
}

// UpdateStatus handles PATCH /orders/{id}/status — the operator dropdown.
// BillGenerated and Complete are rejected here; they belong to the billing
// and payment flows.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	scope := middleware.ScopeFromContext(r.Context())
	loaded, err := h.svc.Get(r.Context(), scope, id, nil)
	if err != nil {
		log.Printf("ERROR: load order %d for status change: %v", id, err)
		writeServiceError(w, err)
		return
	}

	res, err := h.svc.SetStatus(r.Context(), scope, loaded.Order, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"status":   res.Status,
		"warnings": res.Warnings,
	})
}

// TransferTable handles PATCH /orders/{id}/table.
func (h *OrderHandler) TransferTable(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req transferTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TableID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table_id is required"})
		return
	}

	scope := middleware.ScopeFromContext(r.Context())
	loaded, err := h.svc.Get(r.Context(), scope, id, nil)
	if err != nil {
		log.Printf("ERROR: load order %d for transfer: %v", id, err)
		writeServiceError(w, err)
		return
	}

	res, err := h.svc.TransferTable(r.Context(), scope, loaded.Order, req.TableID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"warnings": res.Warnings,
	})
}

// Delete handles DELETE /orders/{id}. Completed orders are refused.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	scope := middleware.ScopeFromContext(r.Context())
	loaded, err := h.svc.Get(r.Context(), scope, id, nil)
	if err != nil {
		log.Printf("ERROR: load order %d for delete: %v", id, err)
		writeServiceError(w, err)
		return
	}

	if err := h.svc.Delete(r.Context(), scope, loaded.Order); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
