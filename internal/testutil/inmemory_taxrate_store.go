package testutil

import (
	"context"

	"github.com/samber/lo"

	"github.com/billora/billora/internal/domain/taxrate"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/types"
)

// InMemoryTaxRateStore implements taxrate.Repository
type InMemoryTaxRateStore struct {
	*InMemoryStore[*taxrate.TaxRate]
}

func NewInMemoryTaxRateStore() *InMemoryTaxRateStore {
	return &InMemoryTaxRateStore{
		InMemoryStore: NewInMemoryStore[*taxrate.TaxRate](),
	}
}

func taxRateFilterFn(ctx context.Context, tr *taxrate.TaxRate, filter interface{}) bool {
	if tr == nil || !checkTenant(ctx, tr.TenantID) {
		return false
	}

	f, ok := filter.(*types.TaxRateFilter)
	if !ok {
		return true
	}

	if len(f.TaxRateIDs) > 0 && !lo.Contains(f.TaxRateIDs, tr.ID) {
		return false
	}
	if f.Code != "" && tr.Code != f.Code {
		return false
	}
	if f.ActiveOnly && !tr.Active {
		return false
	}

	return true
}

func taxRateSortFn(i, j *taxrate.TaxRate) bool {
	return i.CreatedAt.After(j.CreatedAt)
}

func (s *InMemoryTaxRateStore) Create(ctx context.Context, tr *taxrate.TaxRate) error {
	if tr == nil {
		return ierr.NewError("tax rate cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, tr.ID, tr)
}

func (s *InMemoryTaxRateStore) Get(ctx context.Context, id string) (*taxrate.TaxRate, error) {
	tr, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Tax rate with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return tr, nil
}

func (s *InMemoryTaxRateStore) GetByCode(ctx context.Context, code string) (*taxrate.TaxRate, error) {
	rates, err := s.InMemoryStore.List(ctx, nil, func(ctx context.Context, tr *taxrate.TaxRate, _ interface{}) bool {
		return checkTenant(ctx, tr.TenantID) && tr.Code == code
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return nil, ierr.NewError("tax rate not found").
			WithHintf("Tax rate with code %s was not found", code).
			Mark(ierr.ErrNotFound)
	}
	return rates[0], nil
}

func (s *InMemoryTaxRateStore) List(ctx context.Context, filter *types.TaxRateFilter) ([]*taxrate.TaxRate, error) {
	return s.InMemoryStore.List(ctx, filter, taxRateFilterFn, taxRateSortFn)
}

func (s *InMemoryTaxRateStore) Count(ctx context.Context, filter *types.TaxRateFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, taxRateFilterFn)
}

func (s *InMemoryTaxRateStore) Update(ctx context.Context, tr *taxrate.TaxRate) error {
	if tr == nil {
		return ierr.NewError("tax rate cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Update(ctx, tr.ID, tr)
}

func (s *InMemoryTaxRateStore) Delete(ctx context.Context, id string) error {
	return s.InMemoryStore.Delete(ctx, id)
}
