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

// PrintServicer defines the service methods needed by print handlers.
// Satisfied by *service.PrintService.
type PrintServicer interface {
	DispatchKOT(ctx context.Context, scope backend.Scope, order domain.Order, categories []domain.Category) ([]service.KitchenDispatch, error)
	PrintBillReceipt(ctx context.Context, scope backend.Scope, order domain.Order, bill domain.Bill, receiptHTML string) (*service.ReceiptPrintResult, error)
}

// categoryLister is satisfied by *service.LookupService.
type categoryLister interface {
	Categories(ctx context.Context, scope backend.Scope) ([]domain.Category, error)
}

// PrintHandler handles print dispatch endpoints.
type PrintHandler struct {
	svc        PrintServicer
	orders     orderLoader
	bills      BillServicer
	categories categoryLister
}

// NewPrintHandler creates a new PrintHandler.
func NewPrintHandler(svc PrintServicer, orders orderLoader, bills BillServicer, categories categoryLister) *PrintHandler {
	return &PrintHandler{svc: svc, orders: orders, bills: bills, categories: categories}
}

// RegisterRoutes registers print endpoints on the given Chi router.
// Expected to be mounted at /orders/{id}/print.
func (h *PrintHandler) RegisterRoutes(r chi.Router) {
	r.Post("/kot", h.KOT)
	r.Post("/receipt", h.Receipt)
}

type kitchenDispatchResponse struct {
	JobID         string `json:"job_id"`
	KitchenID     int64  `json:"kitchen_id"`
	ItemCount     int    `json:"item_count"`
	Outcome       string `json:"outcome"`
	Attempts      int    `json:"attempts"`
	FallbackLocal bool   `json:"fallback_local,omitempty"`
	Detail        string `json:"detail,omitempty"`
}

type receiptRequest struct {
	ReceiptContent string `json:"receipt_content"`
}

// KOT handles POST /orders/{id}/print/kot: one print job per kitchen with
// items on this order. Per-kitchen failures are reported, never fatal.
func (h *PrintHandler) KOT(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	scope := middleware.ScopeFromContext(r.Context())
	loaded, err := h.orders.Get(r.Context(), scope, id, nil)
	if err != nil {
		log.Printf("ERROR: load order %d for KOT: %v", id, err)
		writeServiceError(w, err)
		return
	}

	categories, err := h.categories.Categories(r.Context(), scope)
	if err != nil {
		// Routing can still succeed off item-level kitchen fields.
		log.Printf("WARN: list categories for KOT on order %d: %v", id, err)
	}

	dispatches, err := h.svc.DispatchKOT(r.Context(), scope, loaded.Order, categories)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]kitchenDispatchResponse, len(dispatches))
	allOK := true
	for i, d := range dispatches {
		resp[i] = kitchenDispatchResponse{
			JobID:         d.JobID.String(),
			KitchenID:     d.KitchenID,
			ItemCount:     d.ItemCount,
			Outcome:       string(d.Outcome),
			Attempts:      d.Attempts,
			FallbackLocal: d.FallbackLocal,
			Detail:        d.Detail,
		}
		if d.Outcome != service.OutcomeSuccess {
			allOK = false
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    allOK,
		"dispatches": resp,
	})
}

// Receipt handles POST /orders/{id}/print/receipt.
func (h *PrintHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req receiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	scope := middleware.ScopeFromContext(r.Context())
	loaded, err := h.orders.Get(r.Context(), scope, id, nil)
	if err != nil {
		log.Printf("ERROR: load order %d for receipt print: %v", id, err)
		writeServiceError(w, err)
		return
	}

	bill, found, err := h.bills.FetchBill(r.Context(), scope, id)
	if err != nil {
		log.Printf("ERROR: fetch bill for receipt print on order %d: %v", id, err)
		writeServiceError(w, err)
		return
	}
	if !found {
		writeServiceError(w, service.ErrBillNotGenerated)
		return
	}

	res, err := h.svc.PrintBillReceipt(r.Context(), scope, loaded.Order, bill, req.ReceiptContent)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        res.Outcome == service.OutcomeSuccess,
		"outcome":        string(res.Outcome),
		"attempts":       res.Attempts,
		"fallback_local": res.FallbackLocal,
		"detail":         res.Detail,
		"warnings":       res.Warnings,
	})
}
