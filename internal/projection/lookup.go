package projection

import (
	"strings"

	"github.com/resto-pos/admin-api/internal/domain"
	"github.com/resto-pos/admin-api/internal/enum"
	"github.com/resto-pos/admin-api/internal/money"
)

func equalsFold(a, b string) bool { return strings.EqualFold(a, b) }

func getStringFold(rec map[string]any, keys ...string) string {
	return strings.ToLower(getString(rec, keys...))
}

func normalizeBillAmounts(rec map[string]any) money.Breakdown {
	return money.Normalize(rec, nil)
}

// MapTables resolves a table-list response into canonical tables.
func MapTables(raw any) []domain.Table {
	arr := listPayload(raw)
	tables := make([]domain.Table, 0, len(arr))
	for _, v := range arr {
		rec, ok := v.(map[string]any)
		if !ok {
			continue
		}
		t := domain.Table{
			ID:       getInt64(rec, "table_id", "id"),
			HallID:   getInt64(rec, "hall_id"),
			Number:   getString(rec, "table_number", "table_no", "number", "name"),
			Capacity: getInt64(rec, "capacity", "seats"),
		}
		switch s := getString(rec, "status", "table_status"); {
		case equalsFold(s, enum.TableStatusRunning):
			t.Status = enum.TableStatusRunning
		default:
			t.Status = enum.TableStatusAvailable
		}
		tables = append(tables, t)
	}
	return tables
}

// MapCustomers resolves a customer-list response.
func MapCustomers(raw any) []domain.Customer {
	arr := listPayload(raw)
	customers := make([]domain.Customer, 0, len(arr))
	for _, v := range arr {
		rec, ok := v.(map[string]any)
		if !ok {
			continue
		}
		customers = append(customers, domain.Customer{
			ID:    getInt64(rec, "customer_id", "id"),
			Name:  getString(rec, "customer_name", "name"),
			Phone: getString(rec, "phone", "mobile", "phone_number"),
		})
	}
	return customers
}

// MapCategories resolves a category-list response, keeping the
// category→kitchen edge used for KOT routing.
func MapCategories(raw any) []domain.Category {
	arr := listPayload(raw)
	categories := make([]domain.Category, 0, len(arr))
	for _, v := range arr {
		rec, ok := v.(map[string]any)
		if !ok {
			continue
		}
		c := domain.Category{
			ID:   getInt64(rec, "category_id", "id"),
			Name: getString(rec, "category_name", "name"),
		}
		if id, ok := optInt64(rec, "kitchen_id"); ok {
			c.KitchenID = &id
		} else if id, ok := optInt64(rec, "kitchen"); ok {
			c.KitchenID = &id
		}
		categories = append(categories, c)
	}
	return categories
}

// MapBill resolves a bill fetch/create response. The bill record may sit at
// data, data.bill, or be the response itself; bill_id may live beside the
// record rather than inside it. Returns false when no bill is present.
func MapBill(raw any, orderID int64) (domain.Bill, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return domain.Bill{}, false
	}

	rec := obj
	var idHost map[string]any
	if data, ok := obj["data"].(map[string]any); ok {
		rec = data
		idHost = data
		if inner, ok := data["bill"].(map[string]any); ok {
			rec = inner
		}
	} else if arr, ok := obj["data"].([]any); ok && len(arr) > 0 {
		if first, ok := arr[0].(map[string]any); ok {
			rec = first
		}
	}

	billID := getInt64(rec, "bill_id", "id")
	if billID == 0 && idHost != nil {
		billID = getInt64(idHost, "bill_id")
	}
	if billID == 0 {
		return domain.Bill{}, false
	}

	b := domain.Bill{OrderID: orderID}
	b.ID = &billID
	if oid := getInt64(rec, "order_id"); oid != 0 {
		b.OrderID = oid
	}
	br := normalizeBillAmounts(rec)
	b.TotalAmount = br.Subtotal
	b.ServiceCharge = br.ServiceCharge
	b.DiscountAmount = br.DiscountAmount
	b.GrandTotal = br.NetTotal
	switch getStringFold(rec, "payment_status") {
	case "paid":
		b.PaymentStatus = enum.PaymentStatusPaid
	case "credit":
		b.PaymentStatus = enum.PaymentStatusCredit
	default:
		b.PaymentStatus = enum.PaymentStatusUnpaid
	}
	if m, ok := enum.NormalizePaymentMethod(getString(rec, "payment_method", "payment_mode")); ok {
		b.PaymentMethod = m
	}
	if d, ok := resolveAmount(rec, "cash_received", "received"); ok {
		b.CashReceived = d
	}
	if d, ok := resolveAmount(rec, "change", "change_amount"); ok {
		b.Change = d
	}
	if cid, ok := optInt64(rec, "customer_id"); ok {
		b.CustomerID = &cid
	}
	return b, true
}
