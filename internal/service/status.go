package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/resto-pos/admin-api/internal/backend"
	"github.com/resto-pos/admin-api/internal/domain"
	"github.com/resto-pos/admin-api/internal/enum"
	"github.com/resto-pos/admin-api/internal/projection"
)

// Errors returned by the status state machine.
var (
	ErrUnknownStatus        = errors.New("unknown order status")
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
	ErrManualBillGenerated  = errors.New("BillGenerated can only be reached by generating a bill")
	ErrManualComplete       = errors.New("Complete can only be reached by settling the bill")
	ErrOrderNotEditable     = errors.New("order can no longer be edited")
	ErrOrderNotDeletable    = errors.New("completed orders cannot be deleted")
	ErrTableOccupied        = errors.New("table is already running another order")
	ErrTableNotFound        = errors.New("table not found")
)

// Notifier is the fire-and-forget dashboard refresh channel. Implementations
// must never block or fail the caller.
type Notifier interface {
	Notify(branchID int64, event string)
}

// NopNotifier discards events.
type NopNotifier struct{}

func (NopNotifier) Notify(int64, string) {}

// CanEdit reports whether an order is still editable. Editing stops once a
// bill exists.
func CanEdit(status string) bool {
	return status == enum.OrderStatusPending || status == enum.OrderStatusRunning
}

// CanDelete reports whether an order may be deleted.
func CanDelete(status string) bool {
	return status != enum.OrderStatusComplete
}

// CheckManualTransition gates the operator status dropdown. BillGenerated and
// Complete are unreachable from here: they belong to the bill generator and
// the payment processor respectively. Rejections happen client-side, before
// any network call.
func CheckManualTransition(from, to string) error {
	switch to {
	case enum.OrderStatusBillGenerated:
		return ErrManualBillGenerated
	case enum.OrderStatusComplete:
		return ErrManualComplete
	case enum.OrderStatusPending, enum.OrderStatusRunning, enum.OrderStatusCancelled:
	default:
		return ErrUnknownStatus
	}
	switch from {
	case enum.OrderStatusPending, enum.OrderStatusRunning:
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, to)
}

// TableBackend is the remote table surface the state machine side-effects.
type TableBackend interface {
	ListTables(ctx context.Context, scope backend.Scope) (any, error)
	UpdateTable(ctx context.Context, scope backend.Scope, upd backend.TableUpdate) error
}

// TableManager carries out the table occupancy side effects of the order
// lifecycle. It never owns tables; every write carries the full record the
// backend requires.
type TableManager struct {
	backend TableBackend
}

// NewTableManager creates a TableManager.
func NewTableManager(b TableBackend) *TableManager {
	return &TableManager{backend: b}
}

// fetch re-reads the table list and finds one table. Occupancy decisions are
// always made against a fresh read.
func (m *TableManager) fetch(ctx context.Context, scope backend.Scope, tableID int64) (domain.Table, error) {
	raw, err := m.backend.ListTables(ctx, scope)
	if err != nil {
		return domain.Table{}, fmt.Errorf("list tables: %w", err)
	}
	for _, t := range projection.MapTables(raw) {
		if t.ID == tableID {
			return t, nil
		}
	}
	return domain.Table{}, ErrTableNotFound
}

func (m *TableManager) setStatus(ctx context.Context, scope backend.Scope, t domain.Table, status string) error {
	return m.backend.UpdateTable(ctx, scope, backend.TableUpdate{
		TableID:     t.ID,
		HallID:      t.HallID,
		TableNumber: t.Number,
		Capacity:    t.Capacity,
		Status:      status,
	})
}

// Release sets a table back to Available. Fired on entry to Complete (or
// credit settlement, or cancellation) of the owning DineIn order.
func (m *TableManager) Release(ctx context.Context, scope backend.Scope, tableID int64) error {
	t, err := m.fetch(ctx, scope, tableID)
	if err != nil {
		return err
	}
	if err := m.setStatus(ctx, scope, t, enum.TableStatusAvailable); err != nil {
		return fmt.Errorf("release table %d: %w", tableID, err)
	}
	return nil
}

// EnsureAvailable fresh-reads the table and refuses one that is running
// another order. Nothing is written; callers write only after their primary
// operation has succeeded.
func (m *TableManager) EnsureAvailable(ctx context.Context, scope backend.Scope, tableID int64, ownTableID *int64) error {
	t, err := m.fetch(ctx, scope, tableID)
	if err != nil {
		return err
	}
	own := ownTableID != nil && *ownTableID == tableID
	if t.Status == enum.TableStatusRunning && !own {
		return ErrTableOccupied
	}
	return nil
}

// Occupy seats an order on a table. The table must be Available on a fresh
// read, unless it is the order's own current table.
func (m *TableManager) Occupy(ctx context.Context, scope backend.Scope, tableID int64, ownTableID *int64) error {
	t, err := m.fetch(ctx, scope, tableID)
	if err != nil {
		return err
	}
	own := ownTableID != nil && *ownTableID == tableID
	if t.Status == enum.TableStatusRunning && !own {
		return ErrTableOccupied
	}
	if err := m.setStatus(ctx, scope, t, enum.TableStatusRunning); err != nil {
		return fmt.Errorf("occupy table %d: %w", tableID, err)
	}
	return nil
}
