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
)

// ErrOrderUnresolved marks an order that could only be rendered as a stub;
// actions that need real order data must be refused.
var ErrOrderUnresolved = errors.New("order data could not be resolved")

// Dashboard refresh events broadcast after successful mutations.
const (
	EventOrdersUpdated = "orders.updated"
	EventBillsUpdated  = "bills.updated"
	EventTablesUpdated = "tables.updated"
)

// OrderBackend is the remote order surface.
// Satisfied by *backend.Client; narrow interface for testability.
type OrderBackend interface {
	ListOrders(ctx context.Context, scope backend.Scope, f backend.OrderFilter) (any, error)
	GetOrder(ctx context.Context, scope backend.Scope, orderID int64) (any, error)
	UpdateOrderStatus(ctx context.Context, scope backend.Scope, upd backend.StatusUpdate) error
	UpdateOrder(ctx context.Context, scope backend.Scope, upd backend.OrderUpdate) error
	DeleteOrder(ctx context.Context, scope backend.Scope, orderID int64) error
}

// OrderService loads, mutates, and deletes orders. Both dashboard roles call
// the same service; role differences live entirely in the router.
type OrderService struct {
	backend  OrderBackend
	tables   *TableManager
	notifier Notifier
}

// NewOrderService creates an OrderService.
func NewOrderService(b OrderBackend, tables *TableManager, n Notifier) *OrderService {
	if n == nil {
		n = NopNotifier{}
	}
	return &OrderService{backend: b, tables: tables, notifier: n}
}

// List fetches and projects the branch's orders.
func (s *OrderService) List(ctx context.Context, scope backend.Scope, f backend.OrderFilter) ([]domain.Order, error) {
	raw, err := s.backend.ListOrders(ctx, scope, f)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return projection.MapOrders(raw), nil
}

// GetResult is a loaded order plus any non-fatal data warning.
type GetResult struct {
	Order   domain.Order
	Warning string
}

// Get loads one order, running the response through the projection chain and
// falling back to cached orders before synthesizing a stub.
func (s *OrderService) Get(ctx context.Context, scope backend.Scope, orderID int64, cached []domain.Order) (GetResult, error) {
	raw, err := s.backend.GetOrder(ctx, scope, orderID)
	if err != nil {
		return GetResult{}, fmt.Errorf("get order %d: %w", orderID, err)
	}
	order, warning := projection.MapOrder(raw, projection.Options{
		OrderID:  orderID,
		Fallback: cached,
	})
	return GetResult{Order: order, Warning: warning}, nil
}

// SetStatusResult reports a manual status change and its side-effect warnings.
type SetStatusResult struct {
	Status   string
	Warnings []string
}

// SetStatus applies an operator-dropdown status change. BillGenerated and
// Complete are rejected here before any network call; they are owned by the
// billing and payment services.
func (s *OrderService) SetStatus(ctx context.Context, scope backend.Scope, order domain.Order, newStatus string) (*SetStatusResult, error) {
	target, ok := enum.NormalizeOrderStatus(newStatus)
	if !ok {
		return nil, ErrUnknownStatus
	}
	if err := CheckManualTransition(order.Status, target); err != nil {
		return nil, err
	}

	if err := s.backend.UpdateOrderStatus(ctx, scope, backend.StatusUpdate{
		OrderID: order.ID,
		Status:  target,
	}); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	res := &SetStatusResult{Status: target}

	// A cancelled DineIn order frees its table. Failure here never blocks the
	// status change that already succeeded.
	if target == enum.OrderStatusCancelled && order.Type == enum.OrderTypeDineIn && order.TableID != nil {
		if err := s.tables.Release(ctx, scope, *order.TableID); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("table not released: %v", err))
			log.Printf("WARN: release table for cancelled order %d: %v", order.ID, err)
		} else {
			s.notifier.Notify(scope.BranchID, EventTablesUpdated)
		}
	}

	s.notifier.Notify(scope.BranchID, EventOrdersUpdated)
	return res, nil
}

// Delete removes an order. Completed orders are refused client-side; the
// backend enforces the same rule.
func (s *OrderService) Delete(ctx context.Context, scope backend.Scope, order domain.Order) error {
	if !CanDelete(order.Status) {
		return ErrOrderNotDeletable
	}
	if err := s.backend.DeleteOrder(ctx, scope, order.ID); err != nil {
		return fmt.Errorf("delete order %d: %w", order.ID, err)
	}
	s.notifier.Notify(scope.BranchID, EventOrdersUpdated)
	return nil
}

// TransferResult reports a table transfer and its side-effect warnings.
type TransferResult struct {
	Warnings []string
}

// TransferTable moves an editable DineIn order onto another table. The order
// update is primary; table occupancy writes are side effects whose failures
// downgrade to warnings.
func (s *OrderService) TransferTable(ctx context.Context, scope backend.Scope, order domain.Order, newTableID int64) (*TransferResult, error) {
	if order.Stub {
		return nil, ErrOrderUnresolved
	}
	if !CanEdit(order.Status) {
		return nil, ErrOrderNotEditable
	}

	var oldTableID int64
	if order.TableID != nil {
		oldTableID = *order.TableID
	}

	// Fresh-read occupancy check before anything is written. A table running
	// another order, or one we cannot verify, refuses the whole transfer.
	if newTableID != oldTableID {
		if err := s.tables.EnsureAvailable(ctx, scope, newTableID, order.TableID); err != nil {
			return nil, err
		}
	}

	if err := s.backend.UpdateOrder(ctx, scope, backend.OrderUpdate{
		OrderID:        order.ID,
		OrderNumber:    order.Number,
		TableID:        &newTableID,
		HallID:         order.HallID,
		CustomerName:   order.CustomerName,
		DiscountAmount: order.DiscountAmount,
		GTotalAmount:   order.Subtotal,
		NetTotalAmount: order.NetTotal,
	}); err != nil {
		return nil, fmt.Errorf("update order %d: %w", order.ID, err)
	}

	// Table writes are side effects of the order update that just succeeded;
	// from here every failure downgrades to a warning.
	res := &TransferResult{}
	if newTableID != oldTableID {
		if err := s.tables.Occupy(ctx, scope, newTableID, order.TableID); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("new table not marked Running: %v", err))
			log.Printf("WARN: occupy table %d for order %d: %v", newTableID, order.ID, err)
		}
		if oldTableID != 0 {
			if err := s.tables.Release(ctx, scope, oldTableID); err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("old table not released: %v", err))
				log.Printf("WARN: release old table %d for order %d: %v", oldTableID, order.ID, err)
			}
		}
	}

	s.notifier.Notify(scope.BranchID, EventOrdersUpdated)
	s.notifier.Notify(scope.BranchID, EventTablesUpdated)
	return res, nil
}
