// Package projection extracts canonical entities out of the backend's
// unstable JSON envelopes. The same logical payload may arrive as a bare
// array, a {success,data} wrapper, a doubly-nested wrapper, or a bare object,
// and none of that may leak past this package.
package projection

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/resto-pos/admin-api/internal/domain"
	"github.com/resto-pos/admin-api/internal/enum"
	"github.com/resto-pos/admin-api/internal/money"
	"github.com/shopspring/decimal"
)

// WarnDetailsLimited is surfaced when an order had to be synthesized from its
// id alone. The caller must still render it, but disable actions that need
// real order data.
const WarnDetailsLimited = "order details could not be loaded; showing limited data"

// Options steer MapOrder when the payload itself is not enough.
type Options struct {
	// OrderID/OrderNumber seed the stub when no shape matches.
	OrderID     int64
	OrderNumber string
	// Fallback is a previously fetched order list to search by id before
	// giving up and synthesizing a stub.
	Fallback []domain.Order
}

// extractor attempts to pull the single order record out of one known
// response shape. Tried in order; first match wins.
type extractor func(raw any) (map[string]any, bool)

var orderExtractors = []extractor{
	fromArray,
	fromDataArray,
	fromSuccessData,
	fromBareObject,
	fromOrderKey,
	fromFirstArrayValue,
}

func fromArray(raw any) (map[string]any, bool) {
	arr, ok := raw.([]any)
	if !ok || len(arr) == 0 {
		return nil, false
	}
	rec, ok := arr[0].(map[string]any)
	return rec, ok
}

func fromDataArray(raw any) (map[string]any, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	arr, ok := obj["data"].([]any)
	if !ok || len(arr) == 0 {
		return nil, false
	}
	rec, ok := arr[0].(map[string]any)
	return rec, ok
}

func fromSuccessData(raw any) (map[string]any, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	if success, _ := obj["success"].(bool); !success {
		return nil, false
	}
	rec, ok := obj["data"].(map[string]any)
	return rec, ok
}

func fromBareObject(raw any) (map[string]any, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	if _, ok := obj["order_id"]; ok {
		return obj, true
	}
	if _, ok := obj["id"]; ok {
		return obj, true
	}
	return nil, false
}

func fromOrderKey(raw any) (map[string]any, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	switch v := obj["order"].(type) {
	case map[string]any:
		return v, true
	case []any:
		if len(v) > 0 {
			rec, ok := v[0].(map[string]any)
			return rec, ok
		}
	}
	return nil, false
}

// fromFirstArrayValue scans top-level keys (sorted, for determinism) for the
// first array value and takes its head.
func fromFirstArrayValue(raw any) (map[string]any, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		arr, ok := obj[k].([]any)
		if !ok || len(arr) == 0 {
			continue
		}
		if rec, ok := arr[0].(map[string]any); ok {
			return rec, true
		}
	}
	return nil, false
}

// MapOrder resolves raw into a canonical Order. The returned warning is empty
// on a clean mapping, and WarnDetailsLimited when only a stub could be built.
func MapOrder(raw any, opts Options) (domain.Order, string) {
	for _, try := range orderExtractors {
		if rec, ok := try(raw); ok {
			return orderFromRecord(rec, raw), ""
		}
	}

	// No shape matched; fall back to the cached list.
	for _, cached := range opts.Fallback {
		if cached.ID == opts.OrderID || (opts.OrderNumber != "" && cached.Number == opts.OrderNumber) {
			return cached, ""
		}
	}

	// Last resort: a stub the UI can still render.
	stub := domain.Order{
		ID:        opts.OrderID,
		Number:    opts.OrderNumber,
		Status:    enum.OrderStatusPending,
		RawStatus: enum.OrderStatusPending,
		Stub:      true,
	}
	if stub.Number == "" && stub.ID != 0 {
		stub.Number = fmt.Sprintf("ORD-%d", stub.ID)
	}
	return stub, WarnDetailsLimited
}

// MapOrders resolves a list response ({success,data:[...]}, {data:{data:[...]}}
// or a bare array) into canonical orders.
func MapOrders(raw any) []domain.Order {
	arr := listPayload(raw)
	orders := make([]domain.Order, 0, len(arr))
	for _, v := range arr {
		rec, ok := v.(map[string]any)
		if !ok {
			continue
		}
		orders = append(orders, orderFromRecord(rec, nil))
	}
	return orders
}

// listPayload digs the element slice out of a list response.
func listPayload(raw any) []any {
	switch v := raw.(type) {
	case []any:
		return v
	case map[string]any:
		switch d := v["data"].(type) {
		case []any:
			return d
		case map[string]any:
			if inner, ok := d["data"].([]any); ok {
				return inner
			}
		}
	}
	return nil
}

func orderFromRecord(rec map[string]any, top any) domain.Order {
	o := domain.Order{}
	o.ID = getInt64(rec, "order_id", "id")
	o.Number = getString(rec, "order_number", "orderid", "order_no")
	if o.Number == "" && o.ID != 0 {
		o.Number = fmt.Sprintf("ORD-%d", o.ID)
	}

	// Status: raw kept for display, normalized for all comparisons.
	rawStatus := getString(rec, "order_status", "status")
	if rawStatus == "" {
		rawStatus = enum.OrderStatusPending
	}
	o.RawStatus = rawStatus
	if st, ok := enum.NormalizeOrderStatus(rawStatus); ok {
		o.Status = st
	} else {
		o.Status = enum.OrderStatusPending
	}

	if t, ok := enum.NormalizeOrderType(getString(rec, "order_type", "type")); ok {
		o.Type = t
	}
	if id, ok := optInt64(rec, "table_id"); ok {
		o.TableID = &id
	}
	if id, ok := optInt64(rec, "hall_id"); ok {
		o.HallID = &id
	}
	o.HallName = getString(rec, "hall_name", "hall")
	o.CustomerName = getString(rec, "customer_name", "customer")
	if m, ok := enum.NormalizePaymentMethod(getString(rec, "payment_mode", "payment_method")); ok {
		o.PaymentMode = m
		o.PaymentMethod = m
	}
	switch strings.ToLower(getString(rec, "payment_status")) {
	case "unpaid":
		o.PaymentStatus = enum.PaymentStatusUnpaid
	case "paid":
		o.PaymentStatus = enum.PaymentStatusPaid
	case "credit":
		o.PaymentStatus = enum.PaymentStatusCredit
	}
	// A "Credit" order_status is the settlement leaking into the wrong field;
	// keep it visible as payment metadata when the record carries nothing else.
	if strings.EqualFold(rawStatus, enum.OrderStatusCredit) && o.PaymentStatus == "" {
		o.PaymentStatus = enum.PaymentStatusCredit
	}
	o.CreatedAt = parseTime(getString(rec, "created_at", "order_date", "date"))

	o.Items = extractItems(rec, top)

	b := money.Normalize(rec, o.Items)
	o.Subtotal = b.Subtotal
	o.ServiceCharge = b.ServiceCharge
	o.DiscountAmount = b.DiscountAmount
	o.NetTotal = b.NetTotal
	return o
}

// extractItems probes the three places items have been seen: inside the order
// record, at the top level of the response, and under a top-level data wrapper.
func extractItems(rec map[string]any, top any) []domain.OrderItem {
	if items := itemsFrom(rec["items"]); items != nil {
		return items
	}
	if obj, ok := top.(map[string]any); ok {
		if items := itemsFrom(obj["items"]); items != nil {
			return items
		}
		if data, ok := obj["data"].(map[string]any); ok {
			if items := itemsFrom(data["items"]); items != nil {
				return items
			}
		}
	}
	return nil
}

func itemsFrom(v any) []domain.OrderItem {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return nil
	}
	items := make([]domain.OrderItem, 0, len(arr))
	for _, e := range arr {
		rec, ok := e.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, itemFromRecord(rec))
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

func itemFromRecord(rec map[string]any) domain.OrderItem {
	it := domain.OrderItem{
		DishID:   getInt64(rec, "dish_id", "product_id", "item_id", "id"),
		Name:     getString(rec, "dish_name", "name", "title", "item_name", "product_name"),
		Quantity: getInt64(rec, "quantity", "qty", "count"),
	}
	if d, ok := resolveAmount(rec, "price", "unit_price", "rate"); ok {
		it.UnitPrice = d
	}
	// A precomputed line total wins over price×qty when the backend sent one.
	if d, ok := resolveAmount(rec, "total", "line_total", "total_amount", "amount", "subtotal"); ok {
		it.LineTotal = d
	} else {
		it.LineTotal = it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))
	}
	if id, ok := optInt64(rec, "category_id"); ok {
		it.CategoryID = &id
	}
	// Kitchen candidates, in routing priority order: the item's own fields
	// first, then fields nested under its category.
	if id, ok := optInt64(rec, "kitchen_id"); ok {
		it.KitchenID = &id
	} else if id, ok := optInt64(rec, "kitchen"); ok {
		it.KitchenID = &id
	} else if cat, ok := rec["category"].(map[string]any); ok {
		if id, ok := optInt64(cat, "kitchen_id"); ok {
			it.KitchenID = &id
		} else if id, ok := optInt64(cat, "kitchen"); ok {
			it.KitchenID = &id
		}
	}
	return it
}

// --- field helpers ---

func getString(rec map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			switch s := v.(type) {
			case string:
				if strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			case float64:
				return strconv.FormatFloat(s, 'f', -1, 64)
			}
		}
	}
	return ""
}

func getInt64(rec map[string]any, keys ...string) int64 {
	for _, k := range keys {
		if n, ok := optInt64(rec, k); ok {
			return n
		}
	}
	return 0
}

func optInt64(rec map[string]any, key string) (int64, bool) {
	v, ok := rec[key]
	if !ok || v == nil {
		return 0, false
	}
	d, ok := money.ParseAmount(v)
	if !ok {
		return 0, false
	}
	return d.IntPart(), true
}

func resolveAmount(rec map[string]any, keys ...string) (decimal.Decimal, bool) {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		if d, ok := money.ParseAmount(v); ok {
			return d, true
		}
	}
	return decimal.Zero, false
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
