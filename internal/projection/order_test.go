package projection_test

import (
	"testing"

	"github.com/resto-pos/admin-api/internal/domain"
	"github.com/resto-pos/admin-api/internal/enum"
	"github.com/resto-pos/admin-api/internal/projection"
	"github.com/shopspring/decimal"
)

func record(id float64, status string) map[string]any {
	return map[string]any{
		"order_id":     id,
		"order_status": status,
		"order_type":   "dine_in",
	}
}

func TestMapOrder_Shapes(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"bare array", []any{record(7, "running")}},
		{"data array", map[string]any{"data": []any{record(7, "running")}}},
		{"success data object", map[string]any{"success": true, "data": record(7, "running")}},
		{"bare object", record(7, "running")},
		{"order key", map[string]any{"order": record(7, "running")}},
		{"order key array", map[string]any{"order": []any{record(7, "running")}}},
		{"unknown key array", map[string]any{"result_rows": []any{record(7, "running")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, warning := projection.MapOrder(tt.raw, projection.Options{OrderID: 7})
			if warning != "" {
				t.Fatalf("unexpected warning %q", warning)
			}
			if order.ID != 7 {
				t.Errorf("order ID: got %d, want 7", order.ID)
			}
			if order.Status != enum.OrderStatusRunning {
				t.Errorf("status: got %q, want %q", order.Status, enum.OrderStatusRunning)
			}
			if order.Type != enum.OrderTypeDineIn {
				t.Errorf("type: got %q, want %q", order.Type, enum.OrderTypeDineIn)
			}
			if order.Stub {
				t.Error("order should not be a stub")
			}
		})
	}
}

func TestMapOrder_FallbackToCachedList(t *testing.T) {
	cached := []domain.Order{
		{ID: 3, Number: "ORD-3", Status: enum.OrderStatusRunning},
		{ID: 9, Number: "ORD-9", Status: enum.OrderStatusPending},
	}
	order, warning := projection.MapOrder(map[string]any{"success": false}, projection.Options{
		OrderID:  9,
		Fallback: cached,
	})
	if warning != "" {
		t.Fatalf("unexpected warning %q", warning)
	}
	if order.ID != 9 || order.Stub {
		t.Errorf("expected cached order 9, got %+v", order)
	}
}

func TestMapOrder_StubWhenNothingMatches(t *testing.T) {
	order, warning := projection.MapOrder(map[string]any{"success": false}, projection.Options{OrderID: 42})
	if warning != projection.WarnDetailsLimited {
		t.Fatalf("warning: got %q, want %q", warning, projection.WarnDetailsLimited)
	}
	if !order.Stub {
		t.Fatal("expected a stub order")
	}
	if order.ID != 42 || order.Number != "ORD-42" {
		t.Errorf("stub identity: got ID=%d Number=%q", order.ID, order.Number)
	}
	if order.Status != enum.OrderStatusPending {
		t.Errorf("stub status: got %q, want Pending", order.Status)
	}
}

func TestMapOrder_UnknownStatusDefaultsToPending(t *testing.T) {
	order, _ := projection.MapOrder(record(1, "weird_state"), projection.Options{OrderID: 1})
	if order.Status != enum.OrderStatusPending {
		t.Errorf("status: got %q, want Pending", order.Status)
	}
	if order.RawStatus != "weird_state" {
		t.Errorf("raw status: got %q, want the untouched backend value", order.RawStatus)
	}
}

func TestMapOrder_ItemsEmbeddedInRecord(t *testing.T) {
	raw := map[string]any{
		"order_id": 5.0,
		"items": []any{
			map[string]any{"dish_id": 1.0, "dish_name": "Karahi", "quantity": 2.0, "price": "450"},
		},
	}
	order, _ := projection.MapOrder(raw, projection.Options{OrderID: 5})
	if len(order.Items) != 1 {
		t.Fatalf("items: got %d, want 1", len(order.Items))
	}
	it := order.Items[0]
	if it.Name != "Karahi" || it.Quantity != 2 {
		t.Errorf("item: got %+v", it)
	}
	// No precomputed line total: price × qty.
	if !it.LineTotal.Equal(decimal.NewFromInt(900)) {
		t.Errorf("line total: got %s, want 900", it.LineTotal)
	}
	// Items sum backfills the missing subtotal.
	if !order.Subtotal.Equal(decimal.NewFromInt(900)) {
		t.Errorf("subtotal: got %s, want 900", order.Subtotal)
	}
}

func TestMapOrder_ItemsBesideRecord(t *testing.T) {
	raw := map[string]any{
		"success": true,
		"data":    map[string]any{"order_id": 5.0},
		"items": []any{
			map[string]any{"name": "Chai", "quantity": 1.0, "total": "120"},
		},
	}
	order, _ := projection.MapOrder(raw, projection.Options{OrderID: 5})
	if len(order.Items) != 1 {
		t.Fatalf("items: got %d, want 1", len(order.Items))
	}
	// Precomputed total wins even with no price.
	if !order.Items[0].LineTotal.Equal(decimal.NewFromInt(120)) {
		t.Errorf("line total: got %s, want 120", order.Items[0].LineTotal)
	}
}

func TestMapOrder_ItemKitchenResolution(t *testing.T) {
	raw := map[string]any{
		"order_id": 5.0,
		"items": []any{
			map[string]any{"name": "Grill", "kitchen_id": 2.0},
			map[string]any{"name": "Curry", "category": map[string]any{"kitchen_id": 3.0}},
			map[string]any{"name": "Soda", "category_id": 8.0},
		},
	}
	order, _ := projection.MapOrder(raw, projection.Options{OrderID: 5})
	if len(order.Items) != 3 {
		t.Fatalf("items: got %d, want 3", len(order.Items))
	}
	if order.Items[0].KitchenID == nil || *order.Items[0].KitchenID != 2 {
		t.Errorf("direct kitchen_id not folded: %+v", order.Items[0])
	}
	if order.Items[1].KitchenID == nil || *order.Items[1].KitchenID != 3 {
		t.Errorf("category-nested kitchen_id not folded: %+v", order.Items[1])
	}
	if order.Items[2].KitchenID != nil {
		t.Errorf("item without kitchen fields must stay nil: %+v", order.Items[2])
	}
	if order.Items[2].CategoryID == nil || *order.Items[2].CategoryID != 8 {
		t.Errorf("category_id not kept for map fallback: %+v", order.Items[2])
	}
}

func TestMapOrder_CreditDisplayStatus(t *testing.T) {
	raw := map[string]any{
		"order_id":       11.0,
		"order_status":   "billgenerated",
		"payment_status": "credit",
	}
	order, _ := projection.MapOrder(raw, projection.Options{OrderID: 11})
	if order.Status != enum.OrderStatusBillGenerated {
		t.Errorf("status: got %q, want BillGenerated", order.Status)
	}
	if order.DisplayStatus() != enum.OrderStatusCredit {
		t.Errorf("display status: got %q, want Credit", order.DisplayStatus())
	}
	if !order.IsCreditSettled() {
		t.Error("expected credit-settled order")
	}
}

func TestMapOrder_CreditStatusOnTheWire(t *testing.T) {
	// Some rows carry the display label in order_status itself. Such an order
	// is settled on credit: billed, not editable, and never a fresh Pending.
	raw := map[string]any{
		"order_id":     41.0,
		"order_status": "Credit",
	}
	order, _ := projection.MapOrder(raw, projection.Options{OrderID: 41})
	if order.Status != enum.OrderStatusBillGenerated {
		t.Errorf("status: got %q, want BillGenerated", order.Status)
	}
	if order.PaymentStatus != enum.PaymentStatusCredit {
		t.Errorf("payment status: got %q, want Credit", order.PaymentStatus)
	}
	if order.DisplayStatus() != enum.OrderStatusCredit {
		t.Errorf("display status: got %q, want Credit", order.DisplayStatus())
	}
	if order.RawStatus != "Credit" {
		t.Errorf("raw status: got %q, want the wire value kept", order.RawStatus)
	}
}

func TestMapOrders_Shapes(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want int
	}{
		{"bare array", []any{record(1, "pending"), record(2, "running")}, 2},
		{"data array", map[string]any{"data": []any{record(1, "pending")}}, 1},
		{"doubly nested", map[string]any{"data": map[string]any{"data": []any{record(1, "pending")}}}, 1},
		{"no list", map[string]any{"success": true}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := projection.MapOrders(tt.raw)
			if len(orders) != tt.want {
				t.Errorf("got %d orders, want %d", len(orders), tt.want)
			}
		})
	}
}
