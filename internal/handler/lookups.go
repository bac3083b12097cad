package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/resto-pos/admin-api/internal/backend"
	"github.com/resto-pos/admin-api/internal/domain"
	"github.com/resto-pos/admin-api/internal/middleware"
)

// LookupServicer defines the reference-data reads the dashboard needs.
// Satisfied by *service.LookupService.
type LookupServicer interface {
	Tables(ctx context.Context, scope backend.Scope) ([]domain.Table, error)
	Customers(ctx context.Context, scope backend.Scope) ([]domain.Customer, error)
}

// LookupHandler serves tables and customers.
type LookupHandler struct {
	svc LookupServicer
}

// NewLookupHandler creates a new LookupHandler.
func NewLookupHandler(svc LookupServicer) *LookupHandler {
	return &LookupHandler{svc: svc}
}

// RegisterRoutes registers lookup endpoints on the given Chi router.
func (h *LookupHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tables", h.Tables)
	r.Get("/customers", h.Customers)
}

type tableResponse struct {
	TableID  int64  `json:"table_id"`
	HallID   int64  `json:"hall_id"`
	Number   string `json:"table_number"`
	Capacity int64  `json:"capacity"`
	Status   string `json:"status"`
}

// Tables handles GET /tables.
func (h *LookupHandler) Tables(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFromContext(r.Context())
	tables, err := h.svc.Tables(r.Context(), scope)
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		writeServiceError(w, err)
		return
	}
	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = tableResponse{
			TableID:  t.ID,
			HallID:   t.HallID,
			Number:   t.Number,
			Capacity: t.Capacity,
			Status:   t.Status,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": resp})
}

// Customers handles GET /customers.
func (h *LookupHandler) Customers(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFromContext(r.Context())
	customers, err := h.svc.Customers(r.Context(), scope)
	if err != nil {
		log.Printf("ERROR: list customers: %v", err)
		writeServiceError(w, err)
		return
	}
	resp := make([]customerResponse, len(customers))
	for i, c := range customers {
		resp[i] = customerResponse{ID: c.ID, Name: c.Name, Phone: c.Phone}
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": resp})
}
