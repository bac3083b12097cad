package service

import (
	"context"
	"fmt"

	"github.com/resto-pos/admin-api/internal/backend"
	"github.com/resto-pos/admin-api/internal/domain"
	"github.com/resto-pos/admin-api/internal/projection"
)

// LookupBackend is the remote read surface for reference data.
// Satisfied by *backend.Client.
type LookupBackend interface {
	ListTables(ctx context.Context, scope backend.Scope) (any, error)
	ListCustomers(ctx context.Context, scope backend.Scope) (any, error)
	ListCategories(ctx context.Context, scope backend.Scope) (any, error)
}

// LookupService reads the reference data the lifecycle needs: tables for
// occupancy, customers for credit settlement, categories for KOT routing.
type LookupService struct {
	backend LookupBackend
}

// NewLookupService creates a LookupService.
func NewLookupService(b LookupBackend) *LookupService {
	return &LookupService{backend: b}
}

func (s *LookupService) Tables(ctx context.Context, scope backend.Scope) ([]domain.Table, error) {
	raw, err := s.backend.ListTables(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return projection.MapTables(raw), nil
}

func (s *LookupService) Customers(ctx context.Context, scope backend.Scope) ([]domain.Customer, error) {
	raw, err := s.backend.ListCustomers(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return projection.MapCustomers(raw), nil
}

func (s *LookupService) Categories(ctx context.Context, scope backend.Scope) ([]domain.Category, error) {
	raw, err := s.backend.ListCategories(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return projection.MapCategories(raw), nil
}
