package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/resto-pos/admin-api/internal/backend"
	"github.com/resto-pos/admin-api/internal/domain"
	"github.com/resto-pos/admin-api/internal/enum"
)

// ErrNoKitchenItems is returned when none of an order's items resolves to a
// kitchen, leaving nothing to dispatch.
var ErrNoKitchenItems = errors.New("no items resolved to a kitchen")

// Outcome is the three-valued print result. A reachable printer that never
// confirmed printing is a known failure mode; it must never collapse into
// success.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeUnreachable Outcome = "unreachable"
	OutcomeAmbiguous   Outcome = "ambiguous"
)

const (
	defaultPrintTimeout = 10 * time.Second
	printAttempts       = 3
	defaultRetryDelay   = 500 * time.Millisecond
)

// PrintBackend is the remote surface the dispatcher needs.
// Satisfied by *backend.Client.
type PrintBackend interface {
	PrintKitchen(ctx context.Context, scope backend.Scope, req backend.KitchenPrintRequest) (any, error)
	PrintReceipt(ctx context.Context, scope backend.Scope, req backend.ReceiptPrintRequest) (any, error)
	UpdateOrderStatus(ctx context.Context, scope backend.Scope, upd backend.StatusUpdate) error
}

// PrintService routes order items to kitchens and dispatches print jobs.
type PrintService struct {
	backend    PrintBackend
	timeout    time.Duration
	retryDelay time.Duration
}

// NewPrintService creates a PrintService. timeout bounds each remote print
// attempt; zero means the default.
func NewPrintService(b PrintBackend, timeout time.Duration) *PrintService {
	if timeout <= 0 {
		timeout = defaultPrintTimeout
	}
	return &PrintService{backend: b, timeout: timeout, retryDelay: defaultRetryDelay}
}

// CategoryKitchenMap flattens categories into the category→kitchen edge map.
func CategoryKitchenMap(categories []domain.Category) map[int64]int64 {
	m := make(map[int64]int64, len(categories))
	for _, c := range categories {
		if c.KitchenID != nil {
			m[c.ID] = *c.KitchenID
		}
	}
	return m
}

// ResolveKitchen finds an item's kitchen: the item's own kitchen fields win
// (projection already folded direct and category-nested fields into
// KitchenID); the category map is the fallback.
func ResolveKitchen(it domain.OrderItem, categoryKitchens map[int64]int64) (int64, bool) {
	if it.KitchenID != nil {
		return *it.KitchenID, true
	}
	if it.CategoryID != nil {
		if kid, ok := categoryKitchens[*it.CategoryID]; ok {
			return kid, true
		}
	}
	return 0, false
}

// GroupByKitchen buckets items by resolved kitchen. Unroutable items are
// returned separately; they are excluded from dispatch, not fatal.
func GroupByKitchen(items []domain.OrderItem, categoryKitchens map[int64]int64) (map[int64][]domain.OrderItem, []domain.OrderItem) {
	groups := make(map[int64][]domain.OrderItem)
	var unrouted []domain.OrderItem
	for _, it := range items {
		kid, ok := ResolveKitchen(it, categoryKitchens)
		if !ok {
			unrouted = append(unrouted, it)
			continue
		}
		groups[kid] = append(groups[kid], it)
	}
	return groups, unrouted
}

// KitchenDispatch is the tracked result of one kitchen's KOT print.
type KitchenDispatch struct {
	JobID     uuid.UUID
	KitchenID int64
	ItemCount int
	Outcome   Outcome
	Attempts  int
	// FallbackLocal is set when the remote print path timed out and the
	// operator should use the local/manual print path instead.
	FallbackLocal bool
	Detail        string
}

// DispatchKOT groups the order's items by kitchen and issues one independent
// print job per kitchen. One kitchen's failure never blocks another's.
func (s *PrintService) DispatchKOT(ctx context.Context, scope backend.Scope, order domain.Order, categories []domain.Category) ([]KitchenDispatch, error) {
	groups, unrouted := GroupByKitchen(order.Items, CategoryKitchenMap(categories))
	for _, it := range unrouted {
		log.Printf("WARN: item %q on order %d has no resolvable kitchen; excluded from KOT", it.Name, order.ID)
	}
	if len(groups) == 0 {
		return nil, ErrNoKitchenItems
	}

	dispatches := make([]KitchenDispatch, 0, len(groups))
	for kitchenID, items := range groups {
		d := KitchenDispatch{
			JobID:     uuid.New(),
			KitchenID: kitchenID,
			ItemCount: len(items),
		}
		d.Outcome, d.Detail, d.Attempts, d.FallbackLocal = s.printWithRetry(ctx, func(ctx context.Context) (any, error) {
			return s.backend.PrintKitchen(ctx, scope, backend.KitchenPrintRequest{
				OrderID:   order.ID,
				KitchenID: kitchenID,
			})
		})
		if d.Outcome != OutcomeSuccess {
			log.Printf("WARN: KOT print for order %d kitchen %d: %s (%s)", order.ID, kitchenID, d.Outcome, d.Detail)
		}
		dispatches = append(dispatches, d)
	}
	return dispatches, nil
}

// ReceiptPrintResult is the tracked result of a bill receipt print.
type ReceiptPrintResult struct {
	Outcome       Outcome
	Attempts      int
	FallbackLocal bool
	Detail        string
	Warnings      []string
}

// PrintBillReceipt dispatches the customer-facing bill receipt. It refuses to
// print a blank bill. After a successful print of a previously unpaid bill,
// the order advances to BillGenerated (credit-settled orders keep their
// payment metadata and stay put).
func (s *PrintService) PrintBillReceipt(ctx context.Context, scope backend.Scope, order domain.Order, bill domain.Bill, receiptHTML string) (*ReceiptPrintResult, error) {
	items, err := ReceiptItems(order)
	if err != nil {
		return nil, err
	}

	res := &ReceiptPrintResult{}
	res.Outcome, res.Detail, res.Attempts, res.FallbackLocal = s.printWithRetry(ctx, func(ctx context.Context) (any, error) {
		return s.backend.PrintReceipt(ctx, scope, backend.ReceiptPrintRequest{
			OrderID:        order.ID,
			BillID:         bill.ID,
			ReceiptContent: receiptHTML,
			Items:          items,
		})
	})
	if res.Outcome != OutcomeSuccess {
		return res, nil
	}

	if bill.PaymentStatus == enum.PaymentStatusUnpaid && !order.IsCreditSettled() {
		if err := s.backend.UpdateOrderStatus(ctx, scope, backend.StatusUpdate{
			OrderID: order.ID,
			Status:  enum.OrderStatusBillGenerated,
		}); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("receipt printed but order status not updated: %v", err))
			log.Printf("WARN: advance order %d after receipt print: %v", order.ID, err)
		}
	}
	return res, nil
}

// printWithRetry runs one print call with a per-attempt timeout, retrying
// failed or ambiguous outcomes up to printAttempts times. A timed-out remote
// path reports FallbackLocal so the operator can print locally instead of
// waiting.
func (s *PrintService) printWithRetry(ctx context.Context, call func(ctx context.Context) (any, error)) (Outcome, string, int, bool) {
	var (
		outcome Outcome = OutcomeUnreachable
		detail  string
	)
	for attempt := 1; attempt <= printAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		raw, err := call(attemptCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return OutcomeUnreachable, "print request timed out; use the local print path", attempt, true
			}
			outcome, detail = OutcomeUnreachable, err.Error()
		} else {
			outcome, detail = InterpretPrintResponse(raw)
			if outcome == OutcomeSuccess {
				return outcome, detail, attempt, false
			}
		}

		if attempt < printAttempts {
			select {
			case <-time.After(s.retryDelay):
			case <-ctx.Done():
				return outcome, detail, attempt, false
			}
		}
	}
	return outcome, detail, printAttempts, false
}

// InterpretPrintResponse classifies a print response defensively. Success
// needs an explicit positive signal: printed==true, a message saying printed/
// successfully, or a per-result entry with status "success" plus a concrete
// confirmation field. Reachability alone (port open, printer reachable) is
// ambiguous, not success.
func InterpretPrintResponse(raw any) (Outcome, string) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return OutcomeAmbiguous, "unrecognized print response"
	}

	if printed, ok := obj["printed"].(bool); ok && printed {
		return OutcomeSuccess, "printer confirmed"
	}

	msg, _ := obj["message"].(string)
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "printed") || strings.Contains(lower, "successfully") {
		return OutcomeSuccess, msg
	}

	for _, key := range []string{"printers", "results"} {
		arr, ok := obj[key].([]any)
		if !ok {
			continue
		}
		for _, e := range arr {
			entry, ok := e.(map[string]any)
			if !ok {
				continue
			}
			status, _ := entry["status"].(string)
			if !strings.EqualFold(status, "success") {
				continue
			}
			// A concrete confirmation field must accompany the status.
			for _, conf := range []string{"printer_ip", "kitchen_name", "confirmation"} {
				if v, ok := entry[conf]; ok && v != nil && v != "" {
					return OutcomeSuccess, fmt.Sprintf("%s confirmed by %v", status, v)
				}
			}
		}
	}

	if strings.Contains(lower, "reachable") || strings.Contains(lower, "port open") {
		return OutcomeAmbiguous, "printer reachable but printing unconfirmed"
	}
	if reachable, ok := obj["reachable"].(bool); ok && reachable {
		return OutcomeAmbiguous, "printer reachable but printing unconfirmed"
	}
	if msg != "" {
		return OutcomeAmbiguous, msg
	}
	return OutcomeAmbiguous, "no print confirmation in response"
}
