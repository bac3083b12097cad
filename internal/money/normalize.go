// Package money collapses the backend's many field-name synonyms and mixed
// string/number encodings into one canonical breakdown. An explicit zero from
// the backend is a value, not an absence; nothing here ever overwrites it.
package money

import (
	"encoding/json"

	"github.com/resto-pos/admin-api/internal/domain"
	"github.com/shopspring/decimal"
)

// Breakdown is the canonical money view of an order or bill record.
type Breakdown struct {
	Subtotal       decimal.Decimal
	ServiceCharge  decimal.Decimal
	DiscountAmount decimal.Decimal
	NetTotal       decimal.Decimal
}

// Accepted source keys per canonical field, in priority order. These track
// every spelling the backend has been observed to emit.
var (
	subtotalKeys      = []string{"g_total_amount", "g_total", "total_amount", "total", "subtotal", "amount"}
	serviceChargeKeys = []string{"service_charge", "service_charge_amount", "servicecharge", "service_amount"}
	discountKeys      = []string{"discount_amount", "discount", "discount_value", "discount_amt"}
	netTotalKeys      = []string{"net_total_amount", "net_total", "grand_total", "grandtotal", "net_amount", "payable_amount"}
)

// ParseAmount converts a raw JSON value (float64, string, json.Number, int)
// into a decimal. The second return is false when the value carries no usable
// number.
func ParseAmount(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case string:
		if n == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

// resolve scans keys in order against the unmutated record. A key counts as
// present when it exists and its value is non-nil; an unparsable value falls
// through to the next candidate.
func resolve(record map[string]any, keys []string) (decimal.Decimal, bool) {
	for _, k := range keys {
		v, ok := record[k]
		if !ok || v == nil {
			continue
		}
		if d, ok := ParseAmount(v); ok {
			return d, true
		}
	}
	return decimal.Zero, false
}

// ItemsSum totals the items' line totals. Used only as a subtotal fallback;
// discount and service charge are never derived from items.
func ItemsSum(items []domain.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal)
	}
	return sum
}

// Normalize produces the canonical breakdown for a raw order/bill record.
// It never fails; a field with no signal at all resolves to zero.
func Normalize(record map[string]any, items []domain.OrderItem) Breakdown {
	var b Breakdown

	subtotal, subtotalExplicit := resolve(record, subtotalKeys)
	if !subtotalExplicit {
		if sum := ItemsSum(items); sum.IsPositive() {
			subtotal = sum
		}
	}
	b.Subtotal = subtotal

	b.ServiceCharge, _ = resolve(record, serviceChargeKeys)
	b.DiscountAmount, _ = resolve(record, discountKeys)

	net, netExplicit := resolve(record, netTotalKeys)
	if !netExplicit && net.IsZero() && b.Subtotal.IsPositive() {
		net = b.Subtotal
	}
	b.NetTotal = net

	return b
}
