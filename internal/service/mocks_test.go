package service_test

import (
	"context"
	"sync"

	"github.com/resto-pos/admin-api/internal/backend"
)

// Shared function-field mocks for the narrow backend interfaces. Unset
// functions answer with harmless defaults so each test only wires what it
// asserts on.

var testScope = backend.Scope{Terminal: "T1", BranchID: 4}

type mockOrderBackend struct {
	listOrdersFn        func(ctx context.Context, scope backend.Scope, f backend.OrderFilter) (any, error)
	getOrderFn          func(ctx context.Context, scope backend.Scope, orderID int64) (any, error)
	updateOrderStatusFn func(ctx context.Context, scope backend.Scope, upd backend.StatusUpdate) error
	updateOrderFn       func(ctx context.Context, scope backend.Scope, upd backend.OrderUpdate) error
	deleteOrderFn       func(ctx context.Context, scope backend.Scope, orderID int64) error
}

func (m *mockOrderBackend) ListOrders(ctx context.Context, scope backend.Scope, f backend.OrderFilter) (any, error) {
	if m.listOrdersFn != nil {
		return m.listOrdersFn(ctx, scope, f)
	}
	return map[string]any{"success": true, "data": []any{}}, nil
}

func (m *mockOrderBackend) GetOrder(ctx context.Context, scope backend.Scope, orderID int64) (any, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(ctx, scope, orderID)
	}
	return map[string]any{"success": false}, nil
}

func (m *mockOrderBackend) UpdateOrderStatus(ctx context.Context, scope backend.Scope, upd backend.StatusUpdate) error {
	if m.updateOrderStatusFn != nil {
		return m.updateOrderStatusFn(ctx, scope, upd)
	}
	return nil
}

func (m *mockOrderBackend) UpdateOrder(ctx context.Context, scope backend.Scope, upd backend.OrderUpdate) error {
	if m.updateOrderFn != nil {
		return m.updateOrderFn(ctx, scope, upd)
	}
	return nil
}

func (m *mockOrderBackend) DeleteOrder(ctx context.Context, scope backend.Scope, orderID int64) error {
	if m.deleteOrderFn != nil {
		return m.deleteOrderFn(ctx, scope, orderID)
	}
	return nil
}

type mockBillingBackend struct {
	fetchBillFn         func(ctx context.Context, scope backend.Scope, orderID int64) (any, error)
	createBillFn        func(ctx context.Context, scope backend.Scope, req backend.CreateBillRequest) (any, error)
	updateOrderStatusFn func(ctx context.Context, scope backend.Scope, upd backend.StatusUpdate) error
}

func (m *mockBillingBackend) FetchBillByOrder(ctx context.Context, scope backend.Scope, orderID int64) (any, error) {
	if m.fetchBillFn != nil {
		return m.fetchBillFn(ctx, scope, orderID)
	}
	return map[string]any{"success": true, "data": map[string]any{}}, nil
}

func (m *mockBillingBackend) CreateBill(ctx context.Context, scope backend.Scope, req backend.CreateBillRequest) (any, error) {
	if m.createBillFn != nil {
		return m.createBillFn(ctx, scope, req)
	}
	return map[string]any{"success": true, "data": map[string]any{"bill_id": 1.0}}, nil
}

func (m *mockBillingBackend) UpdateOrderStatus(ctx context.Context, scope backend.Scope, upd backend.StatusUpdate) error {
	if m.updateOrderStatusFn != nil {
		return m.updateOrderStatusFn(ctx, scope, upd)
	}
	return nil
}

type mockPaymentBackend struct {
	updateBillPaymentFn func(ctx context.Context, scope backend.Scope, req backend.UpdateBillPaymentRequest) error
	updateOrderStatusFn func(ctx context.Context, scope backend.Scope, upd backend.StatusUpdate) error
}

func (m *mockPaymentBackend) UpdateBillPayment(ctx context.Context, scope backend.Scope, req backend.UpdateBillPaymentRequest) error {
	if m.updateBillPaymentFn != nil {
		return m.updateBillPaymentFn(ctx, scope, req)
	}
	return nil
}

func (m *mockPaymentBackend) UpdateOrderStatus(ctx context.Context, scope backend.Scope, upd backend.StatusUpdate) error {
	if m.updateOrderStatusFn != nil {
		return m.updateOrderStatusFn(ctx, scope, upd)
	}
	return nil
}

type mockTableBackend struct {
	listTablesFn  func(ctx context.Context, scope backend.Scope) (any, error)
	updateTableFn func(ctx context.Context, scope backend.Scope, upd backend.TableUpdate) error
}

func (m *mockTableBackend) ListTables(ctx context.Context, scope backend.Scope) (any, error) {
	if m.listTablesFn != nil {
		return m.listTablesFn(ctx, scope)
	}
	return map[string]any{"data": []any{}}, nil
}

func (m *mockTableBackend) UpdateTable(ctx context.Context, scope backend.Scope, upd backend.TableUpdate) error {
	if m.updateTableFn != nil {
		return m.updateTableFn(ctx, scope, upd)
	}
	return nil
}

type mockPrintBackend struct {
	printKitchenFn      func(ctx context.Context, scope backend.Scope, req backend.KitchenPrintRequest) (any, error)
	printReceiptFn      func(ctx context.Context, scope backend.Scope, req backend.ReceiptPrintRequest) (any, error)
	updateOrderStatusFn func(ctx context.Context, scope backend.Scope, upd backend.StatusUpdate) error
}

func (m *mockPrintBackend) PrintKitchen(ctx context.Context, scope backend.Scope, req backend.KitchenPrintRequest) (any, error) {
	if m.printKitchenFn != nil {
		return m.printKitchenFn(ctx, scope, req)
	}
	return map[string]any{"printed": true}, nil
}

func (m *mockPrintBackend) PrintReceipt(ctx context.Context, scope backend.Scope, req backend.ReceiptPrintRequest) (any, error) {
	if m.printReceiptFn != nil {
		return m.printReceiptFn(ctx, scope, req)
	}
	return map[string]any{"printed": true}, nil
}

func (m *mockPrintBackend) UpdateOrderStatus(ctx context.Context, scope backend.Scope, upd backend.StatusUpdate) error {
	if m.updateOrderStatusFn != nil {
		return m.updateOrderStatusFn(ctx, scope, upd)
	}
	return nil
}

// recordingNotifier collects broadcast events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Notify(branchID int64, event string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) has(event string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range n.events {
		if e == event {
			return true
		}
	}
	return false
}

// tableList builds a ListTables payload with the given table records.
func tableList(tables ...map[string]any) map[string]any {
	arr := make([]any, len(tables))
	for i, t := range tables {
		arr[i] = t
	}
	return map[string]any{"success": true, "data": arr}
}
