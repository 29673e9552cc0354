package testutil

import (
	"context"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/billora/billora/internal/domain/recurringinvoice"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/types"
)

// InMemoryRecurringInvoiceStore implements recurringinvoice.Repository
type InMemoryRecurringInvoiceStore struct {
	*InMemoryStore[*recurringinvoice.RecurringInvoice]
}

func NewInMemoryRecurringInvoiceStore() *InMemoryRecurringInvoiceStore {
	return &InMemoryRecurringInvoiceStore{
		InMemoryStore: NewInMemoryStore[*recurringinvoice.RecurringInvoice](),
	}
}

func recurringInvoiceFilterFn(ctx context.Context, r *recurringinvoice.RecurringInvoice, filter interface{}) bool {
	if r == nil || !checkTenant(ctx, r.TenantID) {
		return false
	}

	f, ok := filter.(*types.RecurringInvoiceFilter)
	if !ok {
		return true
	}

	if f.CustomerID != "" && r.CustomerID != f.CustomerID {
		return false
	}
	if len(f.RecurringInvoiceStatus) > 0 && !lo.Contains(f.RecurringInvoiceStatus, r.RecurringInvoiceStatus) {
		return false
	}

	return true
}

func recurringInvoiceSortFn(i, j *recurringinvoice.RecurringInvoice) bool {
	return i.CreatedAt.After(j.CreatedAt)
}

func (s *InMemoryRecurringInvoiceStore) CreateWithItems(ctx context.Context, r *recurringinvoice.RecurringInvoice) error {
	if r == nil {
		return ierr.NewError("recurring invoice cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, r.ID, r)
}

func (s *InMemoryRecurringInvoiceStore) Get(ctx context.Context, id string) (*recurringinvoice.RecurringInvoice, error) {
	r, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Recurring invoice with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return r, nil
}

func (s *InMemoryRecurringInvoiceStore) Update(ctx context.Context, r *recurringinvoice.RecurringInvoice) error {
	if r == nil {
		return ierr.NewError("recurring invoice cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Update(ctx, r.ID, r)
}

func (s *InMemoryRecurringInvoiceStore) List(ctx context.Context, filter *types.RecurringInvoiceFilter) ([]*recurringinvoice.RecurringInvoice, error) {
	return s.InMemoryStore.List(ctx, filter, recurringInvoiceFilterFn, recurringInvoiceSortFn)
}

func (s *InMemoryRecurringInvoiceStore) Count(ctx context.Context, filter *types.RecurringInvoiceFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, recurringInvoiceFilterFn)
}

func (s *InMemoryRecurringInvoiceStore) ListDue(ctx context.Context, asOf time.Time) ([]*recurringinvoice.RecurringInvoice, error) {
	return s.InMemoryStore.List(ctx, nil, func(ctx context.Context, r *recurringinvoice.RecurringInvoice, _ interface{}) bool {
		if !checkTenant(ctx, r.TenantID) {
			return false
		}
		return r.RecurringInvoiceStatus == types.RecurringInvoiceStatusActive && !r.NextBillingDate.After(asOf)
	}, nil)
}

func (s *InMemoryRecurringInvoiceStore) ListDueTenants(ctx context.Context, asOf time.Time) ([]string, error) {
	due, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, r *recurringinvoice.RecurringInvoice, _ interface{}) bool {
		return r.RecurringInvoiceStatus == types.RecurringInvoiceStatusActive && !r.NextBillingDate.After(asOf)
	}, nil)
	if err != nil {
		return nil, err
	}

	tenants := lo.Uniq(lo.Map(due, func(r *recurringinvoice.RecurringInvoice, _ int) string {
		return r.TenantID
	}))
	sort.Strings(tenants)
	return tenants, nil
}
