package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/resto-pos/admin-api/internal/backend"
	"github.com/resto-pos/admin-api/internal/domain"
	"github.com/resto-pos/admin-api/internal/enum"
	"github.com/resto-pos/admin-api/internal/service"
)

func kitchenID(id int64) *int64 { return &id }

func kotOrder() domain.Order {
	return domain.Order{
		ID:     7,
		Type:   enum.OrderTypeDineIn,
		Status: enum.OrderStatusRunning,
		Items: []domain.OrderItem{
			{Name: "Karahi", KitchenID: kitchenID(1)},
			{Name: "Naan", KitchenID: kitchenID(1)},
			{Name: "Lassi", KitchenID: kitchenID(2)},
		},
	}
}

func TestGroupByKitchen(t *testing.T) {
	catID := int64(8)
	items := []domain.OrderItem{
		{Name: "Grill", KitchenID: kitchenID(1)},
		{Name: "Curry", CategoryID: &catID},
		{Name: "Mystery"},
	}
	groups, unrouted := service.GroupByKitchen(items, map[int64]int64{8: 2})
	if len(groups) != 2 {
		t.Fatalf("groups: got %d, want 2", len(groups))
	}
	if len(groups[1]) != 1 || len(groups[2]) != 1 {
		t.Errorf("grouping: %+v", groups)
	}
	if len(unrouted) != 1 || unrouted[0].Name != "Mystery" {
		t.Errorf("unrouted: %+v", unrouted)
	}
}

func TestResolveKitchen_ItemFieldWinsOverCategoryMap(t *testing.T) {
	catID := int64(8)
	it := domain.OrderItem{KitchenID: kitchenID(1), CategoryID: &catID}
	kid, ok := service.ResolveKitchen(it, map[int64]int64{8: 2})
	if !ok || kid != 1 {
		t.Fatalf("got (%d, %v), want the item's own kitchen 1", kid, ok)
	}
}

func TestDispatchKOT_OnePerKitchen(t *testing.T) {
	var sent []backend.KitchenPrintRequest
	b := &mockPrintBackend{
		printKitchenFn: func(ctx context.Context, scope backend.Scope, req backend.KitchenPrintRequest) (any, error) {
			sent = append(sent, req)
			return map[string]any{"printed": true}, nil
		},
	}
	svc := service.NewPrintService(b, time.Second)

	dispatches, err := svc.DispatchKOT(context.Background(), testScope, kotOrder(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sent) != 2 {
		t.Fatalf("print calls: got %d, want one per kitchen", len(sent))
	}
	if len(dispatches) != 2 {
		t.Fatalf("dispatches: got %d, want 2", len(dispatches))
	}
	counts := map[int64]int{}
	for _, d := range dispatches {
		counts[d.KitchenID] = d.ItemCount
		if d.Outcome != service.OutcomeSuccess {
			t.Errorf("kitchen %d outcome: %s", d.KitchenID, d.Outcome)
		}
		if d.JobID.String() == "00000000-0000-0000-0000-000000000000" {
			t.Error("dispatch has no job id")
		}
	}
	if counts[1] != 2 || counts[2] != 1 {
		t.Errorf("item counts: %v", counts)
	}
}

func TestDispatchKOT_OneKitchenFailureDoesNotBlockOthers(t *testing.T) {
	b := &mockPrintBackend{
		printKitchenFn: func(ctx context.Context, scope backend.Scope, req backend.KitchenPrintRequest) (any, error) {
			if req.KitchenID == 1 {
				return nil, errors.New("printer offline")
			}
			return map[string]any{"printed": true}, nil
		},
	}
	svc := service.NewPrintService(b, time.Second)

	dispatches, err := svc.DispatchKOT(context.Background(), testScope, kotOrder(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outcomes := map[int64]service.Outcome{}
	for _, d := range dispatches {
		outcomes[d.KitchenID] = d.Outcome
	}
	if outcomes[1] != service.OutcomeUnreachable {
		t.Errorf("kitchen 1: got %s, want unreachable", outcomes[1])
	}
	if outcomes[2] != service.OutcomeSuccess {
		t.Errorf("kitchen 2: got %s, want success", outcomes[2])
	}
}

func TestDispatchKOT_NothingRoutable(t *testing.T) {
	order := kotOrder()
	order.Items = []domain.OrderItem{{Name: "Mystery"}}
	svc := service.NewPrintService(&mockPrintBackend{}, time.Second)

	if _, err := svc.DispatchKOT(context.Background(), testScope, order, nil); !errors.Is(err, service.ErrNoKitchenItems) {
		t.Fatalf("got %v, want ErrNoKitchenItems", err)
	}
}

func TestDispatchKOT_CategoryMapFallback(t *testing.T) {
	catID := int64(8)
	order := kotOrder()
	order.Items = []domain.OrderItem{{Name: "Curry", CategoryID: &catID}}
	kid := int64(5)
	categories := []domain.Category{{ID: 8, Name: "Curries", KitchenID: &kid}}

	var sent *backend.KitchenPrintRequest
	b := &mockPrintBackend{
		printKitchenFn: func(ctx context.Context, scope backend.Scope, req backend.KitchenPrintRequest) (any, error) {
			sent = &req
			return map[string]any{"printed": true}, nil
		},
	}
	svc := service.NewPrintService(b, time.Second)

	if _, err := svc.DispatchKOT(context.Background(), testScope, order, categories); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent == nil || sent.KitchenID != 5 {
		t.Fatalf("routed via category map: %+v", sent)
	}
}

func TestInterpretPrintResponse(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want service.Outcome
	}{
		{"printed flag", map[string]any{"printed": true}, service.OutcomeSuccess},
		{"printed message", map[string]any{"message": "Receipt printed"}, service.OutcomeSuccess},
		{"successfully message", map[string]any{"message": "Job completed successfully"}, service.OutcomeSuccess},
		{"per-printer confirmation", map[string]any{"printers": []any{
			map[string]any{"status": "success", "printer_ip": "192.168.1.50"},
		}}, service.OutcomeSuccess},
		{"results confirmation", map[string]any{"results": []any{
			map[string]any{"status": "SUCCESS", "kitchen_name": "Grill"},
		}}, service.OutcomeSuccess},
		// Reachability is not success: the socket opened but nothing confirms
		// paper came out.
		{"reachable message", map[string]any{"message": "Printer reachable on port 9100"}, service.OutcomeAmbiguous},
		{"reachable flag", map[string]any{"reachable": true}, service.OutcomeAmbiguous},
		{"status without confirmation", map[string]any{"printers": []any{
			map[string]any{"status": "success"},
		}}, service.OutcomeAmbiguous},
		{"empty object", map[string]any{}, service.OutcomeAmbiguous},
		{"non-object", "ok", service.OutcomeAmbiguous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := service.InterpretPrintResponse(tt.raw)
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPrintBillReceipt_AdvancesUnpaidOrder(t *testing.T) {
	var statusUpd *backend.StatusUpdate
	b := &mockPrintBackend{
		updateOrderStatusFn: func(ctx context.Context, scope backend.Scope, upd backend.StatusUpdate) error {
			statusUpd = &upd
			return nil
		},
	}
	svc := service.NewPrintService(b, time.Second)

	res, err := svc.PrintBillReceipt(context.Background(), testScope, billableOrder(), unpaidBill(), "<html>bill</html>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != service.OutcomeSuccess {
		t.Fatalf("outcome: %s", res.Outcome)
	}
	if statusUpd == nil || statusUpd.Status != enum.OrderStatusBillGenerated {
		t.Fatalf("order not advanced: %+v", statusUpd)
	}
}

func TestPrintBillReceipt_CreditSettledOrderStaysPut(t *testing.T) {
	b := &mockPrintBackend{
		updateOrderStatusFn: func(ctx context.Context, scope backend.Scope, upd backend.StatusUpdate) error {
			t.Fatal("credit-settled orders keep their status after a reprint")
			return nil
		},
	}
	svc := service.NewPrintService(b, time.Second)

	order := billableOrder()
	order.Status = enum.OrderStatusBillGenerated
	order.PaymentStatus = enum.PaymentStatusCredit
	bill := unpaidBill()
	bill.PaymentStatus = enum.PaymentStatusCredit

	if _, err := svc.PrintBillReceipt(context.Background(), testScope, order, bill, "<html>bill</html>"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPrintBillReceipt_RefusesEmptyReceipt(t *testing.T) {
	svc := service.NewPrintService(&mockPrintBackend{}, time.Second)
	order := billableOrder()
	order.Items = nil

	if _, err := svc.PrintBillReceipt(context.Background(), testScope, order, unpaidBill(), ""); !errors.Is(err, service.ErrEmptyReceipt) {
		t.Fatalf("got %v, want ErrEmptyReceipt", err)
	}
}

func TestPrintBillReceipt_StatusFailureIsWarning(t *testing.T) {
	b := &mockPrintBackend{
		updateOrderStatusFn: func(ctx context.Context, scope backend.Scope, upd backend.StatusUpdate) error {
			return errors.New("status endpoint down")
		},
	}
	svc := service.NewPrintService(b, time.Second)

	res, err := svc.PrintBillReceipt(context.Background(), testScope, billableOrder(), unpaidBill(), "<html>bill</html>")
	if err != nil {
		t.Fatalf("the print succeeded; the stale status must be a warning: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings: got %v, want one", res.Warnings)
	}
}

func TestPrintRetry_SucceedsOnLaterAttempt(t *testing.T) {
	attempts := 0
	b := &mockPrintBackend{
		printReceiptFn: func(ctx context.Context, scope backend.Scope, req backend.ReceiptPrintRequest) (any, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("connection refused")
			}
			return map[string]any{"printed": true}, nil
		},
	}
	svc := service.NewPrintService(b, time.Second)

	res, err := svc.PrintBillReceipt(context.Background(), testScope, billableOrder(), unpaidBill(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != service.OutcomeSuccess {
		t.Fatalf("outcome: %s", res.Outcome)
	}
	if res.Attempts != 3 {
		t.Errorf("attempts: got %d, want 3", res.Attempts)
	}
	if res.FallbackLocal {
		t.Error("fallback must not trigger on an eventual success")
	}
}

func TestPrintRetry_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	b := &mockPrintBackend{
		printReceiptFn: func(ctx context.Context, scope backend.Scope, req backend.ReceiptPrintRequest) (any, error) {
			attempts++
			return nil, errors.New("connection refused")
		},
	}
	svc := service.NewPrintService(b, time.Second)

	res, err := svc.PrintBillReceipt(context.Background(), testScope, billableOrder(), unpaidBill(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts made: got %d, want 3", attempts)
	}
	if res.Outcome != service.OutcomeUnreachable {
		t.Errorf("outcome: got %s, want unreachable", res.Outcome)
	}
}

func TestPrintRetry_TimeoutFallsBackLocal(t *testing.T) {
	attempts := 0
	b := &mockPrintBackend{
		printReceiptFn: func(ctx context.Context, scope backend.Scope, req backend.ReceiptPrintRequest) (any, error) {
			attempts++
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	svc := service.NewPrintService(b, 20*time.Millisecond)

	res, err := svc.PrintBillReceipt(context.Background(), testScope, billableOrder(), unpaidBill(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.FallbackLocal {
		t.Fatal("a timed-out remote path must report the local fallback")
	}
	if attempts != 1 {
		t.Errorf("attempts: got %d, a deadline must not be retried", attempts)
	}
	if res.Outcome != service.OutcomeUnreachable {
		t.Errorf("outcome: got %s, want unreachable", res.Outcome)
	}
}
