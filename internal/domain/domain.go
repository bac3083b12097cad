// Package domain holds the canonical entities the gateway works with after
// backend responses have been normalized. All money is decimal; raw backend
// records never cross a service boundary.
package domain

import (
	"time"

	"github.com/resto-pos/admin-api/internal/enum"
	"github.com/shopspring/decimal"
)

// Order is the canonical projection of a backend order record.
type Order struct {
	ID     int64
	Number string // display form, "ORD-{id}"

	Type         string // enum.OrderType*
	TableID      *int64 // DineIn only
	HallID       *int64
	HallName     string
	CustomerName string
	PaymentMode  string
	CreatedAt    time.Time

	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	ServiceCharge  decimal.Decimal
	NetTotal       decimal.Decimal

	// Status is the normalized lifecycle value; RawStatus keeps whatever the
	// backend sent, for display.
	Status    string
	RawStatus string

	// Payment metadata carried on the order row by the backend. Credit-ness is
	// tracked here, never in Status.
	PaymentStatus string
	PaymentMethod string

	Items []OrderItem

	// Stub marks an order synthesized from nothing but an id, when no response
	// shape yielded a usable record. Actions needing real data must be gated
	// off a stub.
	Stub bool
}

// DisplayStatus is what status-colored UI should show. A bill-generated order
// whose payment metadata says Credit displays (and behaves) as Credit.
func (o Order) DisplayStatus() string {
	if o.Status == enum.OrderStatusBillGenerated && o.PaymentStatus == enum.PaymentStatusCredit {
		return enum.OrderStatusCredit
	}
	return o.Status
}

// IsCreditSettled reports whether the order was settled on credit.
func (o Order) IsCreditSettled() bool {
	return o.PaymentStatus == enum.PaymentStatusCredit
}

// OrderItem is a single line on an order.
type OrderItem struct {
	DishID    int64
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int64
	LineTotal decimal.Decimal

	CategoryID *int64
	// KitchenID is the item's own kitchen when the backend supplied one
	// (directly or nested under its category); the dispatcher falls back to
	// the category→kitchen map when nil.
	KitchenID *int64
}

// Bill is the settlement record for an order. ID is nil until the backend has
// acknowledged creation.
type Bill struct {
	ID      *int64
	OrderID int64

	TotalAmount    decimal.Decimal // order subtotal at generation time
	ServiceCharge  decimal.Decimal
	DiscountAmount decimal.Decimal // absolute currency, never a percentage
	GrandTotal     decimal.Decimal

	PaymentStatus string
	PaymentMethod string
	CashReceived  decimal.Decimal
	Change        decimal.Decimal
	CustomerID    *int64
}

// Table is an external entity referenced (and side-effected) by the lifecycle,
// never owned by it.
type Table struct {
	ID       int64
	HallID   int64
	Number   string
	Capacity int64
	Status   string // enum.TableStatus*
}

// Customer is the minimal customer view needed for credit settlement display.
type Customer struct {
	ID    int64
	Name  string
	Phone string
}

// Category carries the category→kitchen edge used for KOT routing.
type Category struct {
	ID        int64
	Name      string
	KitchenID *int64
}
