package types

import (
	ierr "github.com/billora/billora/internal/errors"
	"github.com/samber/lo"
)

// DiscountType defines how a discount value is interpreted
type DiscountType string

const (
	// DiscountTypePercent treats the value as a percentage of the base amount
	DiscountTypePercent DiscountType = "PERCENT"
	// DiscountTypeFixed treats the value as an absolute amount in minor
	// currency units, capped at the base amount
	DiscountTypeFixed DiscountType = "FIXED"
)

func (t DiscountType) String() string {
	return string(t)
}

func (t DiscountType) Validate() error {
	allowed := []DiscountType{
		DiscountTypePercent,
		DiscountTypeFixed,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid discount type").
			WithHint("Please provide a valid discount type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// DiscountFilter represents the filter options for listing discounts
type DiscountFilter struct {
	*QueryFilter

	DiscountIDs []string `json:"discount_ids,omitempty" form:"discount_ids"`
	Code        string   `json:"code,omitempty" form:"code"`
}

// NewDiscountFilter creates a new discount filter with default options
func NewDiscountFilter() *DiscountFilter {
	return &DiscountFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

func (f *DiscountFilter) Validate() error {
	if f.QueryFilter != nil {
		return f.QueryFilter.Validate()
	}
	return nil
}

// GetLimit implements BaseFilter interface
func (f *DiscountFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetLimit()
	}
	return f.QueryFilter.GetLimit()
}

// GetOffset implements BaseFilter interface
func (f *DiscountFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOffset()
	}
	return f.QueryFilter.GetOffset()
}
