package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/resto-pos/admin-api/internal/backend"
	"github.com/resto-pos/admin-api/internal/domain"
	"github.com/resto-pos/admin-api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by the payment processor. All of them reject before any
// network call is made.
var (
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrCreditNeedsCustomer  = errors.New("credit payment requires a customer")
	ErrCashReceivedMissing  = errors.New("cash received is required for cash payments")
	ErrInsufficientCash     = errors.New("cash received is below the grand total")
	ErrBillNotGenerated     = errors.New("no bill has been generated for this order")
	ErrBillAlreadySettled   = errors.New("bill is already settled")
)

// PaymentBackend is the remote surface the payment processor needs.
// Satisfied by *backend.Client.
type PaymentBackend interface {
	UpdateBillPayment(ctx context.Context, scope backend.Scope, req backend.UpdateBillPaymentRequest) error
	UpdateOrderStatus(ctx context.Context, scope backend.Scope, upd backend.StatusUpdate) error
}

// PaymentService settles generated bills.
type PaymentService struct {
	backend  PaymentBackend
	tables   *TableManager
	notifier Notifier
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(b PaymentBackend, tables *TableManager, n Notifier) *PaymentService {
	if n == nil {
		n = NopNotifier{}
	}
	return &PaymentService{backend: b, tables: tables, notifier: n}
}

// PayBillInput is the operator's settlement entry.
type PayBillInput struct {
	Mode         string // enum.PaymentMethod*
	CashReceived *decimal.Decimal
	CustomerID   *int64
}

// PayBillResult reports a settled bill. Warnings carry partial failures: the
// bill update succeeded but a downstream effect (order status, table release)
// did not.
type PayBillResult struct {
	Bill        domain.Bill
	OrderStatus string
	Change      decimal.Decimal
	Customer    *domain.Customer
	Warnings    []string
}

// validate applies all client-side payment rules and resolves the received /
// change amounts for the mode.
func validatePayment(bill domain.Bill, in PayBillInput) (received, change decimal.Decimal, err error) {
	if !enum.IsValidPaymentMethod(in.Mode) {
		return decimal.Zero, decimal.Zero, ErrInvalidPaymentMethod
	}
	switch in.Mode {
	case enum.PaymentMethodCredit:
		if in.CustomerID == nil {
			return decimal.Zero, decimal.Zero, ErrCreditNeedsCustomer
		}
		return decimal.Zero, decimal.Zero, nil
	case enum.PaymentMethodCash:
		if in.CashReceived == nil {
			return decimal.Zero, decimal.Zero, ErrCashReceivedMissing
		}
		if in.CashReceived.LessThan(bill.GrandTotal) {
			return decimal.Zero, decimal.Zero, ErrInsufficientCash
		}
		change = in.CashReceived.Sub(bill.GrandTotal)
		if change.IsNegative() {
			change = decimal.Zero
		}
		return *in.CashReceived, change, nil
	default:
		// Card / Online: no partial payment concept.
		return bill.GrandTotal, decimal.Zero, nil
	}
}

// PayBill validates and applies a payment against a generated bill, then
// advances the owning order. The bill update is primary: its failure is a
// hard error and stops everything downstream. A failed order-status update or
// table release downgrades to a warning; the recorded payment stands.
func (s *PaymentService) PayBill(ctx context.Context, scope backend.Scope, order domain.Order, bill domain.Bill, in PayBillInput, customers []domain.Customer) (*PayBillResult, error) {
	if order.Stub {
		return nil, ErrOrderUnresolved
	}
	if bill.ID == nil && bill.OrderID == 0 {
		return nil, ErrBillNotGenerated
	}
	if bill.PaymentStatus == enum.PaymentStatusPaid || bill.PaymentStatus == enum.PaymentStatusCredit {
		return nil, ErrBillAlreadySettled
	}

	received, change, err := validatePayment(bill, in)
	if err != nil {
		return nil, err
	}

	isCredit := in.Mode == enum.PaymentMethodCredit
	billStatus := enum.PaymentStatusPaid
	if isCredit {
		billStatus = enum.PaymentStatusCredit
	}

	// Bill update first. bill_id and order_id travel together so the backend
	// updates the existing bill; no total field may appear here (that is the
	// backend's create-a-new-bill signal).
	upd := backend.UpdateBillPaymentRequest{
		BillID:        bill.ID,
		OrderID:       bill.OrderID,
		PaymentStatus: billStatus,
		PaymentMethod: in.Mode,
		CustomerID:    in.CustomerID,
	}
	if in.Mode == enum.PaymentMethodCash {
		upd.CashReceived = &received
		upd.Change = &change
	}
	if err := s.backend.UpdateBillPayment(ctx, scope, upd); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	settled := bill
	settled.PaymentStatus = billStatus
	settled.PaymentMethod = in.Mode
	settled.CashReceived = received
	settled.Change = change
	settled.CustomerID = in.CustomerID

	res := &PayBillResult{Bill: settled, Change: change}

	// Order status second, sequenced after the bill. Credit is not a legal
	// order status: the order stays BillGenerated and credit-ness rides on
	// the payment metadata.
	statusUpd := backend.StatusUpdate{OrderID: order.ID}
	if isCredit {
		statusUpd.Status = enum.OrderStatusBillGenerated
		statusUpd.PaymentStatus = enum.PaymentStatusCredit
		statusUpd.PaymentMethod = enum.PaymentMethodCredit
		res.OrderStatus = enum.OrderStatusBillGenerated
	} else {
		statusUpd.Status = enum.OrderStatusComplete
		res.OrderStatus = enum.OrderStatusComplete
	}
	if err := s.backend.UpdateOrderStatus(ctx, scope, statusUpd); err != nil {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("payment recorded but order status is stale; mark the order %s manually: %v", res.OrderStatus, err))
		log.Printf("WARN: advance order %d after payment: %v", order.ID, err)
	}

	// Terminal (or credit-settled) DineIn orders free their table.
	if order.Type == enum.OrderTypeDineIn && order.TableID != nil {
		if err := s.tables.Release(ctx, scope, *order.TableID); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("table not released: %v", err))
			log.Printf("WARN: release table for paid order %d: %v", order.ID, err)
		} else {
			s.notifier.Notify(scope.BranchID, EventTablesUpdated)
		}
	}

	if isCredit {
		for i := range customers {
			if in.CustomerID != nil && customers[i].ID == *in.CustomerID {
				res.Customer = &customers[i]
				break
			}
		}
	}

	s.notifier.Notify(scope.BranchID, EventBillsUpdated)
	s.notifier.Notify(scope.BranchID, EventOrdersUpdated)
	return res, nil
}
