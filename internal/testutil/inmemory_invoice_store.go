package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/billora/billora/internal/domain/invoice"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]

	mu       sync.RWMutex
	payments map[string][]*invoice.Payment
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
		payments:      make(map[string][]*invoice.Payment),
	}
}

func invoiceFilterFn(ctx context.Context, inv *invoice.Invoice, filter interface{}) bool {
	if inv == nil || !checkTenant(ctx, inv.TenantID) {
		return false
	}

	f, ok := filter.(*types.InvoiceFilter)
	if !ok {
		return true
	}

	if len(f.InvoiceIDs) > 0 && !lo.Contains(f.InvoiceIDs, inv.ID) {
		return false
	}
	if f.CustomerID != "" && inv.CustomerID != f.CustomerID {
		return false
	}
	if len(f.InvoiceStatus) > 0 && !lo.Contains(f.InvoiceStatus, inv.InvoiceStatus) {
		return false
	}
	if f.TimeRangeFilter != nil {
		if f.StartTime != nil && inv.CreatedAt.Before(*f.StartTime) {
			return false
		}
		if f.EndTime != nil && inv.CreatedAt.After(*f.EndTime) {
			return false
		}
	}

	return true
}

func invoiceSortFn(i, j *invoice.Invoice) bool {
	return i.CreatedAt.After(j.CreatedAt)
}

func (s *InMemoryInvoiceStore) CreateWithLineItems(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, inv.ID, inv)
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Invoice with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	s.mu.RLock()
	inv.Payments = s.payments[id]
	s.mu.RUnlock()

	return inv, nil
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Update(ctx, inv.ID, inv)
}

func (s *InMemoryInvoiceStore) ReplaceLineItems(ctx context.Context, inv *invoice.Invoice) error {
	return s.Update(ctx, inv)
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	return s.InMemoryStore.List(ctx, filter, invoiceFilterFn, invoiceSortFn)
}

func (s *InMemoryInvoiceStore) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, invoiceFilterFn)
}

func (s *InMemoryInvoiceStore) AddPayment(ctx context.Context, payment *invoice.Payment) error {
	if payment == nil {
		return ierr.NewError("payment cannot be nil").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[payment.InvoiceID] = append(s.payments[payment.InvoiceID], payment)
	return nil
}

func (s *InMemoryInvoiceStore) ListIssuedDueBefore(ctx context.Context, t time.Time) ([]*invoice.Invoice, error) {
	return s.InMemoryStore.List(ctx, nil, func(ctx context.Context, inv *invoice.Invoice, _ interface{}) bool {
		if !checkTenant(ctx, inv.TenantID) {
			return false
		}
		if inv.InvoiceStatus != types.InvoiceStatusIssued {
			return false
		}
		return inv.DueDate != nil && !inv.DueDate.After(t)
	}, nil)
}

func (s *InMemoryInvoiceStore) ListOverdueTenants(ctx context.Context, t time.Time) ([]string, error) {
	overdue, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, inv *invoice.Invoice, _ interface{}) bool {
		if inv.InvoiceStatus != types.InvoiceStatusIssued {
			return false
		}
		return inv.DueDate != nil && !inv.DueDate.After(t)
	}, nil)
	if err != nil {
		return nil, err
	}

	tenants := lo.Uniq(lo.Map(overdue, func(inv *invoice.Invoice, _ int) string {
		return inv.TenantID
	}))
	sort.Strings(tenants)
	return tenants, nil
}

func (s *InMemoryInvoiceStore) CountDiscountRedemptions(ctx context.Context, discountID string) (int, error) {
	return s.countRedemptions(ctx, discountID, "")
}

func (s *InMemoryInvoiceStore) CountDiscountRedemptionsByCustomer(ctx context.Context, discountID, customerID string) (int, error) {
	return s.countRedemptions(ctx, discountID, customerID)
}

func (s *InMemoryInvoiceStore) countRedemptions(ctx context.Context, discountID, customerID string) (int, error) {
	return s.InMemoryStore.Count(ctx, nil, func(ctx context.Context, inv *invoice.Invoice, _ interface{}) bool {
		if !checkTenant(ctx, inv.TenantID) {
			return false
		}
		if inv.InvoiceStatus == types.InvoiceStatusVoided {
			return false
		}
		if customerID != "" && inv.CustomerID != customerID {
			return false
		}
		if inv.DiscountID != nil && *inv.DiscountID == discountID {
			return true
		}
		for _, item := range inv.LineItems {
			if item.DiscountID != nil && *item.DiscountID == discountID {
				return true
			}
		}
		return false
	})
}

func (s *InMemoryInvoiceStore) Clear() {
	s.InMemoryStore.Clear()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = make(map[string][]*invoice.Payment)
}
