package testutil

import (
	"context"

	"github.com/samber/lo"

	"github.com/billora/billora/internal/domain/discount"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/types"
)

// InMemoryDiscountStore implements discount.Repository
type InMemoryDiscountStore struct {
	*InMemoryStore[*discount.Discount]
}

func NewInMemoryDiscountStore() *InMemoryDiscountStore {
	return &InMemoryDiscountStore{
		InMemoryStore: NewInMemoryStore[*discount.Discount](),
	}
}

func discountFilterFn(ctx context.Context, d *discount.Discount, filter interface{}) bool {
	if d == nil || !checkTenant(ctx, d.TenantID) {
		return false
	}

	f, ok := filter.(*types.DiscountFilter)
	if !ok {
		return true
	}

	if len(f.DiscountIDs) > 0 && !lo.Contains(f.DiscountIDs, d.ID) {
		return false
	}
	if f.Code != "" && d.Code != f.Code {
		return false
	}

	return true
}

func discountSortFn(i, j *discount.Discount) bool {
	return i.CreatedAt.After(j.CreatedAt)
}

func (s *InMemoryDiscountStore) Create(ctx context.Context, d *discount.Discount) error {
	if d == nil {
		return ierr.NewError("discount cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, d.ID, d)
}

func (s *InMemoryDiscountStore) Get(ctx context.Context, id string) (*discount.Discount, error) {
	d, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Discount with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return d, nil
}

func (s *InMemoryDiscountStore) GetByCode(ctx context.Context, code string) (*discount.Discount, error) {
	discounts, err := s.InMemoryStore.List(ctx, nil, func(ctx context.Context, d *discount.Discount, _ interface{}) bool {
		return checkTenant(ctx, d.TenantID) && d.Code == code
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(discounts) == 0 {
		return nil, ierr.NewError("discount not found").
			WithHintf("Discount with code %s was not found", code).
			Mark(ierr.ErrNotFound)
	}
	return discounts[0], nil
}

func (s *InMemoryDiscountStore) List(ctx context.Context, filter *types.DiscountFilter) ([]*discount.Discount, error) {
	return s.InMemoryStore.List(ctx, filter, discountFilterFn, discountSortFn)
}

func (s *InMemoryDiscountStore) Count(ctx context.Context, filter *types.DiscountFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, discountFilterFn)
}

func (s *InMemoryDiscountStore) Update(ctx context.Context, d *discount.Discount) error {
	if d == nil {
		return ierr.NewError("discount cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Update(ctx, d.ID, d)
}

func (s *InMemoryDiscountStore) Delete(ctx context.Context, id string) error {
	return s.InMemoryStore.Delete(ctx, id)
}
