package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/resto-pos/admin-api/internal/backend"
	"github.com/resto-pos/admin-api/internal/domain"
	"github.com/resto-pos/admin-api/internal/service"
	"github.com/shopspring/decimal"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeServiceError maps service and backend errors onto HTTP statuses. All
// client-side validation failures are 4xx; backend trouble is 502 with the
// diagnostic detail the error already carries.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownStatus),
		errors.Is(err, service.ErrInvalidDiscountPct),
		errors.Is(err, service.ErrNegativeServiceCharge),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrCreditNeedsCustomer),
		errors.Is(err, service.ErrCashReceivedMissing),
		errors.Is(err, service.ErrInsufficientCash),
		errors.Is(err, backend.ErrMissingBranch):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrManualBillGenerated),
		errors.Is(err, service.ErrManualComplete),
		errors.Is(err, service.ErrOrderNotBillable),
		errors.Is(err, service.ErrTransitionNotAllowed),
		errors.Is(err, service.ErrOrderNotEditable),
		errors.Is(err, service.ErrOrderNotDeletable),
		errors.Is(err, service.ErrTableOccupied),
		errors.Is(err, service.ErrBillAlreadySettled),
		errors.Is(err, service.ErrBillNotGenerated):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrTableNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyReceipt),
		errors.Is(err, service.ErrNoKitchenItems),
		errors.Is(err, service.ErrOrderUnresolved):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrBillCreationAmbiguous):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error":   "backend call failed",
				"details": apiErr.Message,
				"status":  apiErr.StatusCode,
				"body":    apiErr.Body,
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func orderIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// --- Response types shared across handlers ---

type orderResponse struct {
	ID             int64               `json:"order_id"`
	Number         string              `json:"order_number"`
	Type           string              `json:"order_type,omitempty"`
	TableID        *int64              `json:"table_id,omitempty"`
	HallID         *int64              `json:"hall_id,omitempty"`
	HallName       string              `json:"hall_name,omitempty"`
	CustomerName   string              `json:"customer_name,omitempty"`
	Status         string              `json:"status"`
	DisplayStatus  string              `json:"display_status"`
	PaymentStatus  string              `json:"payment_status,omitempty"`
	PaymentMethod  string              `json:"payment_method,omitempty"`
	Subtotal       string              `json:"subtotal"`
	ServiceCharge  string              `json:"service_charge"`
	DiscountAmount string              `json:"discount_amount"`
	NetTotal       string              `json:"net_total"`
	CreatedAt      *time.Time          `json:"created_at,omitempty"`
	CanEdit        bool                `json:"can_edit"`
	CanDelete      bool                `json:"can_delete"`
	Limited        bool                `json:"limited,omitempty"`
	Items          []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	DishID    int64  `json:"dish_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type billResponse struct {
	BillID         *int64 `json:"bill_id"`
	OrderID        int64  `json:"order_id"`
	TotalAmount    string `json:"total_amount"`
	ServiceCharge  string `json:"service_charge"`
	DiscountAmount string `json:"discount_amount"`
	GrandTotal     string `json:"grand_total"`
	PaymentStatus  string `json:"payment_status"`
	PaymentMethod  string `json:"payment_method"`
	CashReceived   string `json:"cash_received"`
	Change         string `json:"change"`
	CustomerID     *int64 `json:"customer_id,omitempty"`
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toOrderResponse(o domain.Order) orderResponse {
	resp := orderResponse{
		ID:             o.ID,
		Number:         o.Number,
		Type:           o.Type,
		TableID:        o.TableID,
		HallID:         o.HallID,
		HallName:       o.HallName,
		CustomerName:   o.CustomerName,
		Status:         o.Status,
		DisplayStatus:  o.DisplayStatus(),
		PaymentStatus:  o.PaymentStatus,
		PaymentMethod:  o.PaymentMethod,
		Subtotal:       amount(o.Subtotal),
		ServiceCharge:  amount(o.ServiceCharge),
		DiscountAmount: amount(o.DiscountAmount),
		NetTotal:       amount(o.NetTotal),
		CanEdit:        service.CanEdit(o.Status) && !o.Stub,
		CanDelete:      service.CanDelete(o.Status) && !o.Stub,
		Limited:        o.Stub,
	}
	if !o.CreatedAt.IsZero() {
		t := o.CreatedAt
		resp.CreatedAt = &t
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			DishID:    it.DishID,
			Name:      it.Name,
			UnitPrice: amount(it.UnitPrice),
			Quantity:  it.Quantity,
			LineTotal: amount(it.LineTotal),
		})
	}
	return resp
}

func toBillResponse(b domain.Bill) billResponse {
	return billResponse{
		BillID:         b.ID,
		OrderID:        b.OrderID,
		TotalAmount:    amount(b.TotalAmount),
		ServiceCharge:  amount(b.ServiceCharge),
		DiscountAmount: amount(b.DiscountAmount),
		GrandTotal:     amount(b.GrandTotal),
		PaymentStatus:  b.PaymentStatus,
		PaymentMethod:  b.PaymentMethod,
		CashReceived:   amount(b.CashReceived),
		Change:         amount(b.Change),
		CustomerID:     b.CustomerID,
	}
}
