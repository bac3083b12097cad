package enum

import "strings"

// ── Order lifecycle (closed set; backend casing is not trusted) ──

const (
	OrderStatusPending       = "Pending"
	OrderStatusRunning       = "Running"
	OrderStatusBillGenerated = "BillGenerated"
	OrderStatusComplete      = "Complete"
	OrderStatusCancelled     = "Cancelled"
)

// OrderStatusCredit is a display-only label; credit-ness lives in the bill's
// payment metadata. A wire record carrying it as order_status normalizes to
// BillGenerated.
const OrderStatusCredit = "Credit"

const (
	PaymentStatusUnpaid = "Unpaid"
	PaymentStatusPaid   = "Paid"
	PaymentStatusCredit = "Credit"
)

const (
	PaymentMethodCash   = "Cash"
	PaymentMethodCard   = "Card"
	PaymentMethodOnline = "Online"
	PaymentMethodCredit = "Credit"
)

const (
	OrderTypeDineIn   = "DineIn"
	OrderTypeTakeAway = "TakeAway"
	OrderTypeDelivery = "Delivery"
)

const (
	TableStatusAvailable = "Available"
	TableStatusRunning   = "Running"
)

const (
	RoleBranchAdmin = "branch_admin"
	RoleAccountant  = "accountant"
)

// NormalizeOrderStatus maps a raw backend status string ("running", "RUNNING",
// "Bill Generated", "billgenerated", ...) onto the closed status set. The
// second return is false when the value is unrecognized.
func NormalizeOrderStatus(raw string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "")
	key = strings.ReplaceAll(key, "_", "")
	switch key {
	case "pending":
		return OrderStatusPending, true
	case "running":
		return OrderStatusRunning, true
	case "billgenerated", "billed":
		return OrderStatusBillGenerated, true
	case "complete", "completed":
		return OrderStatusComplete, true
	case "cancelled", "canceled":
		return OrderStatusCancelled, true
	case "credit":
		// Some backend rows carry the display label in order_status. The
		// order is billed; credit-ness lives in payment metadata.
		return OrderStatusBillGenerated, true
	}
	return "", false
}

// NormalizePaymentMethod maps raw backend payment method strings onto the
// closed method set.
func NormalizePaymentMethod(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cash":
		return PaymentMethodCash, true
	case "card":
		return PaymentMethodCard, true
	case "online":
		return PaymentMethodOnline, true
	case "credit":
		return PaymentMethodCredit, true
	}
	return "", false
}

// NormalizeOrderType maps raw backend order type strings ("dine_in", "dine-in",
// "takeaway", ...) onto the closed type set.
func NormalizeOrderType(raw string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "")
	key = strings.ReplaceAll(key, "_", "")
	key = strings.ReplaceAll(key, "-", "")
	switch key {
	case "dinein":
		return OrderTypeDineIn, true
	case "takeaway":
		return OrderTypeTakeAway, true
	case "delivery":
		return OrderTypeDelivery, true
	}
	return "", false
}

// IsValidPaymentMethod reports whether pm is one of the closed method set.
func IsValidPaymentMethod(pm string) bool {
	switch pm {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodOnline, PaymentMethodCredit:
		return true
	}
	return false
}
