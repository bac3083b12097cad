package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/resto-pos/admin-api/internal/backend"
	"github.com/resto-pos/admin-api/internal/domain"
	"github.com/resto-pos/admin-api/internal/enum"
	"github.com/resto-pos/admin-api/internal/projection"
	"github.com/shopspring/decimal"
)

// Errors returned by the billing service.
var (
	ErrInvalidDiscountPct     = errors.New("discount percentage must be between 0 and 100")
	ErrNegativeServiceCharge  = errors.New("service charge must not be negative")
	ErrOrderNotBillable       = errors.New("order can no longer be billed")
	ErrBillCreationAmbiguous  = errors.New("bill may have been created but no bill id was returned")
	ErrBillCreationFailed     = errors.New("bill creation failed")
	ErrEmptyReceipt           = errors.New("no items resolved for the receipt")
	ErrServiceChargePctNotSet = errors.New("service charge percentage is not configured")
)

// Service charge policy. Manual takes the operator-entered amount as-is;
// AutoPct computes pct of the subtotal for DineIn orders.
const (
	ServiceChargeManual  = "manual"
	ServiceChargeAutoPct = "auto_pct"
)

// BillingBackend is the remote surface the bill generator needs.
// Satisfied by *backend.Client.
type BillingBackend interface {
	FetchBillByOrder(ctx context.Context, scope backend.Scope, orderID int64) (any, error)
	CreateBill(ctx context.Context, scope backend.Scope, req backend.CreateBillRequest) (any, error)
	UpdateOrderStatus(ctx context.Context, scope backend.Scope, upd backend.StatusUpdate) error
}

// BillingOptions selects the service charge policy.
type BillingOptions struct {
	ServiceChargeMode string
	ServiceChargePct  decimal.Decimal
}

// BillingService turns a running order into an unpaid bill.
type BillingService struct {
	backend  BillingBackend
	opts     BillingOptions
	notifier Notifier
}

// NewBillingService creates a BillingService.
func NewBillingService(b BillingBackend, opts BillingOptions, n Notifier) *BillingService {
	if opts.ServiceChargeMode == "" {
		opts.ServiceChargeMode = ServiceChargeManual
	}
	if n == nil {
		n = NopNotifier{}
	}
	return &BillingService{backend: b, opts: opts, notifier: n}
}

// GenerateBillInput is the operator-entered part of a bill.
type GenerateBillInput struct {
	ServiceCharge      decimal.Decimal // absolute currency, Manual mode
	DiscountPercentage decimal.Decimal // 0..100
}

// GenerateBillResult is a generated (or re-fetched) bill plus side-effect
// warnings.
type GenerateBillResult struct {
	Bill           domain.Bill
	AlreadyExisted bool
	Warnings       []string
}

var hundred = decimal.NewFromInt(100)

// ComputeBill applies the bill arithmetic:
//
//	discount = (subtotal + serviceCharge) * pct / 100
//	grand    = max(0, subtotal + serviceCharge - discount)
func ComputeBill(subtotal, serviceCharge, discountPct decimal.Decimal) (discount, grand decimal.Decimal) {
	discount = subtotal.Add(serviceCharge).Mul(discountPct).Div(hundred)
	grand = subtotal.Add(serviceCharge).Sub(discount)
	if grand.IsNegative() {
		grand = decimal.Zero
	}
	return discount, grand
}

// serviceCharge resolves the effective service charge for the order under
// the configured policy.
func (s *BillingService) serviceCharge(order domain.Order, in GenerateBillInput) (decimal.Decimal, error) {
	if s.opts.ServiceChargeMode == ServiceChargeAutoPct && order.Type == enum.OrderTypeDineIn {
		if s.opts.ServiceChargePct.IsZero() {
			return decimal.Zero, ErrServiceChargePctNotSet
		}
		return order.Subtotal.Mul(s.opts.ServiceChargePct).Div(hundred), nil
	}
	return in.ServiceCharge, nil
}

// GenerateBill computes and persists a bill for the order, then advances the
// order to BillGenerated. Bill creation is primary: a failed status advance
// surfaces as a warning, never a rollback. Generation is idempotent: an
// existing bill is returned instead of creating a duplicate.
func (s *BillingService) GenerateBill(ctx context.Context, scope backend.Scope, order domain.Order, in GenerateBillInput) (*GenerateBillResult, error) {
	if order.ID == 0 || order.Stub {
		return nil, ErrOrderUnresolved
	}
	// Terminal orders never reach BillGenerated. An order already billed falls
	// through to the idempotent refetch below.
	switch order.Status {
	case enum.OrderStatusCancelled, enum.OrderStatusComplete:
		return nil, fmt.Errorf("%w: order is %s", ErrOrderNotBillable, order.Status)
	}
	if in.DiscountPercentage.IsNegative() || in.DiscountPercentage.GreaterThan(hundred) {
		return nil, ErrInvalidDiscountPct
	}
	if in.ServiceCharge.IsNegative() {
		return nil, ErrNegativeServiceCharge
	}

	// Fetch-existing-first keeps generation idempotent. A fetch failure is
	// not fatal; the backend enforces nothing here, so we log and continue.
	if raw, err := s.backend.FetchBillByOrder(ctx, scope, order.ID); err == nil {
		if existing, ok := projection.MapBill(raw, order.ID); ok {
			return &GenerateBillResult{Bill: existing, AlreadyExisted: true}, nil
		}
	} else {
		log.Printf("WARN: fetch existing bill for order %d: %v", order.ID, err)
	}

	serviceCharge, err := s.serviceCharge(order, in)
	if err != nil {
		return nil, err
	}
	discount, grand := ComputeBill(order.Subtotal, serviceCharge, in.DiscountPercentage)

	raw, err := s.backend.CreateBill(ctx, scope, backend.CreateBillRequest{
		OrderID:       order.ID,
		TotalAmount:   order.Subtotal,
		ServiceCharge: serviceCharge,
		Discount:      discount,
		GrandTotal:    grand,
		PaymentMethod: enum.PaymentMethodCash,
		PaymentStatus: enum.PaymentStatusUnpaid,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBillCreationFailed, err)
	}

	billID, ok := extractBillID(raw)
	if !ok {
		// The backend may have created the bill with no way to reference it.
		return nil, ErrBillCreationAmbiguous
	}

	bill := domain.Bill{
		ID:             &billID,
		OrderID:        order.ID,
		TotalAmount:    order.Subtotal,
		ServiceCharge:  serviceCharge,
		DiscountAmount: discount,
		GrandTotal:     grand,
		PaymentStatus:  enum.PaymentStatusUnpaid,
		PaymentMethod:  enum.PaymentMethodCash,
	}

	res := &GenerateBillResult{Bill: bill}

	// Downstream of a successful bill: advance the order. Sequenced, never
	// concurrent — BillGenerated is meaningless without the bill.
	if err := s.backend.UpdateOrderStatus(ctx, scope, backend.StatusUpdate{
		OrderID: order.ID,
		Status:  enum.OrderStatusBillGenerated,
	}); err != nil {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("bill #%d created but order status not updated: %v", billID, err))
		log.Printf("WARN: advance order %d to BillGenerated: %v", order.ID, err)
	}

	s.notifier.Notify(scope.BranchID, EventBillsUpdated)
	s.notifier.Notify(scope.BranchID, EventOrdersUpdated)
	return res, nil
}

// FetchBill reads the order's existing bill, if any.
func (s *BillingService) FetchBill(ctx context.Context, scope backend.Scope, orderID int64) (domain.Bill, bool, error) {
	raw, err := s.backend.FetchBillByOrder(ctx, scope, orderID)
	if err != nil {
		return domain.Bill{}, false, fmt.Errorf("fetch bill for order %d: %w", orderID, err)
	}
	bill, ok := projection.MapBill(raw, orderID)
	return bill, ok, nil
}

// extractBillID pulls the created bill id out of a create response. Success
// requires a positive success flag (same loose typing the client accepts
// everywhere else) plus data carrying bill_id directly or nested under
// data.bill.
func extractBillID(raw any) (int64, bool) {
	obj, ok := raw.(map[string]any)
	if !ok || !backend.SuccessOf(raw) {
		return 0, false
	}
	data, ok := obj["data"].(map[string]any)
	if !ok {
		return 0, false
	}
	if id, ok := billIDField(data); ok {
		return id, true
	}
	if bill, ok := data["bill"].(map[string]any); ok {
		return billIDField(bill)
	}
	return 0, false
}

func billIDField(rec map[string]any) (int64, bool) {
	switch v := rec["bill_id"].(type) {
	case float64:
		return int64(v), v != 0
	case string:
		var id int64
		if _, err := fmt.Sscan(v, &id); err == nil && id != 0 {
			return id, true
		}
	}
	return 0, false
}

// ReceiptItems resolves an order's items into printable receipt lines. Name
// and line-total synonym resolution happens at projection time; an empty
// result is a user-facing error — a blank bill must never print.
func ReceiptItems(order domain.Order) ([]backend.ReceiptItem, error) {
	items := make([]backend.ReceiptItem, 0, len(order.Items))
	for _, it := range order.Items {
		if it.Name == "" {
			continue
		}
		total := it.LineTotal
		if total.IsZero() {
			total = it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))
		}
		items = append(items, backend.ReceiptItem{
			Name:     it.Name,
			Quantity: it.Quantity,
			Total:    total,
		})
	}
	if len(items) == 0 {
		return nil, ErrEmptyReceipt
	}
	return items, nil
}
