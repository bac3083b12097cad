package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/resto-pos/admin-api/internal/backend"
	"github.com/resto-pos/admin-api/internal/domain"
	"github.com/resto-pos/admin-api/internal/enum"
	"github.com/resto-pos/admin-api/internal/handler"
	"github.com/resto-pos/admin-api/internal/middleware"
	"github.com/resto-pos/admin-api/internal/service"
	"github.com/shopspring/decimal"
)

// --- Mock BillServicer ---

type mockBillService struct {
	generateFn func(ctx context.Context, scope backend.Scope, order domain.Order, in service.GenerateBillInput) (*service.GenerateBillResult, error)
	fetchFn    func(ctx context.Context, scope backend.Scope, orderID int64) (domain.Bill, bool, error)
}

func (m *mockBillService) GenerateBill(ctx context.Context, scope backend.Scope, order domain.Order, in service.GenerateBillInput) (*service.GenerateBillResult, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, scope, order, in)
	}
	return &service.GenerateBillResult{}, nil
}

func (m *mockBillService) FetchBill(ctx context.Context, scope backend.Scope, orderID int64) (domain.Bill, bool, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, scope, orderID)
	}
	return domain.Bill{}, false, nil
}

func billRouter(bills *mockBillService, orders *mockOrderService) http.Handler {
	h := handler.NewBillHandler(bills, orders)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testSecret))
		r.Use(middleware.RequireBranch)
		r.Route("/orders/{id}/bill", h.RegisterRoutes)
	})
	return r
}

func testBill(orderID int64) domain.Bill {
	id := int64(33)
	return domain.Bill{
		ID:            &id,
		OrderID:       orderID,
		TotalAmount:   decimal.NewFromInt(1000),
		ServiceCharge: decimal.NewFromInt(100),
		DiscountAmount: decimal.RequireFromString("110"),
		GrandTotal:    decimal.NewFromInt(990),
		PaymentStatus: enum.PaymentStatusUnpaid,
		PaymentMethod: enum.PaymentMethodCash,
	}
}

func TestGenerateBill_Created(t *testing.T) {
	var gotInput service.GenerateBillInput
	bills := &mockBillService{
		generateFn: func(ctx context.Context, scope backend.Scope, order domain.Order, in service.GenerateBillInput) (*service.GenerateBillResult, error) {
			gotInput = in
			return &service.GenerateBillResult{Bill: testBill(order.ID)}, nil
		},
	}

	rr := httptest.NewRecorder()
	billRouter(bills, &mockOrderService{}).ServeHTTP(rr, authedRequest(t, "POST", "/orders/7/bill", map[string]string{
		"service_charge":      "100",
		"discount_percentage": "10",
	}))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	if !gotInput.ServiceCharge.Equal(decimal.NewFromInt(100)) || !gotInput.DiscountPercentage.Equal(decimal.NewFromInt(10)) {
		t.Errorf("input: %+v", gotInput)
	}

	var body struct {
		Bill map[string]any `json:"bill"`
	}
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body.Bill["grand_total"] != "990.00" {
		t.Errorf("grand total: %v", body.Bill["grand_total"])
	}
}

func TestGenerateBill_AlreadyExisted(t *testing.T) {
	bills := &mockBillService{
		generateFn: func(ctx context.Context, scope backend.Scope, order domain.Order, in service.GenerateBillInput) (*service.GenerateBillResult, error) {
			return &service.GenerateBillResult{Bill: testBill(order.ID), AlreadyExisted: true}, nil
		},
	}

	rr := httptest.NewRecorder()
	billRouter(bills, &mockOrderService{}).ServeHTTP(rr, authedRequest(t, "POST", "/orders/7/bill", map[string]string{}))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d for an idempotent repeat", rr.Code, http.StatusOK)
	}
	var body struct {
		AlreadyExisted bool `json:"already_existed"`
	}
	json.Unmarshal(rr.Body.Bytes(), &body)
	if !body.AlreadyExisted {
		t.Error("already_existed flag missing")
	}
}

func TestGenerateBill_TerminalOrderRefused(t *testing.T) {
	bills := &mockBillService{
		generateFn: func(ctx context.Context, scope backend.Scope, order domain.Order, in service.GenerateBillInput) (*service.GenerateBillResult, error) {
			return nil, service.ErrOrderNotBillable
		},
	}

	rr := httptest.NewRecorder()
	billRouter(bills, &mockOrderService{}).ServeHTTP(rr, authedRequest(t, "POST", "/orders/7/bill", map[string]string{}))

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestGenerateBill_AmbiguousCreation(t *testing.T) {
	bills := &mockBillService{
		generateFn: func(ctx context.Context, scope backend.Scope, order domain.Order, in service.GenerateBillInput) (*service.GenerateBillResult, error) {
			return nil, service.ErrBillCreationAmbiguous
		},
	}

	rr := httptest.NewRecorder()
	billRouter(bills, &mockOrderService{}).ServeHTTP(rr, authedRequest(t, "POST", "/orders/7/bill", map[string]string{}))

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadGateway)
	}
}

func TestGenerateBill_BadDecimal(t *testing.T) {
	rr := httptest.NewRecorder()
	billRouter(&mockBillService{}, &mockOrderService{}).ServeHTTP(rr, authedRequest(t, "POST", "/orders/7/bill", map[string]string{
		"discount_percentage": "ten",
	}))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGetBill_NotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	billRouter(&mockBillService{}, &mockOrderService{}).ServeHTTP(rr, authedRequest(t, "GET", "/orders/7/bill", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestGetBill_Found(t *testing.T) {
	bills := &mockBillService{
		fetchFn: func(ctx context.Context, scope backend.Scope, orderID int64) (domain.Bill, bool, error) {
			return testBill(orderID), true, nil
		},
	}

	rr := httptest.NewRecorder()
	billRouter(bills, &mockOrderService{}).ServeHTTP(rr, authedRequest(t, "GET", "/orders/7/bill", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var body struct {
		Bill map[string]any `json:"bill"`
	}
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body.Bill["payment_status"] != enum.PaymentStatusUnpaid {
		t.Errorf("bill: %v", body.Bill)
	}
}
