package types

import (
	ierr "github.com/billora/billora/internal/errors"
	"github.com/samber/lo"
)

// TaxBehavior defines whether an amount already contains tax (inclusive) or
// tax is added on top of it (exclusive)
type TaxBehavior string

const (
	TaxBehaviorExclusive TaxBehavior = "EXCLUSIVE"
	TaxBehaviorInclusive TaxBehavior = "INCLUSIVE"
)

func (b TaxBehavior) String() string {
	return string(b)
}

func (b TaxBehavior) Validate() error {
	allowed := []TaxBehavior{
		TaxBehaviorExclusive,
		TaxBehaviorInclusive,
	}
	if !lo.Contains(allowed, b) {
		return ierr.NewError("invalid tax behavior").
			WithHint("Please provide a valid tax behavior").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

const (
	// BasisPointsDenominator converts basis points to a fraction: 1 bp = 1/10000
	BasisPointsDenominator = 10000
)

// TaxRateFilter represents the filter options for listing tax rates
type TaxRateFilter struct {
	*QueryFilter

	TaxRateIDs []string `json:"tax_rate_ids,omitempty" form:"tax_rate_ids"`
	Code       string   `json:"code,omitempty" form:"code"`
	ActiveOnly bool     `json:"active_only,omitempty" form:"active_only"`
}

// NewTaxRateFilter creates a new tax rate filter with default options
func NewTaxRateFilter() *TaxRateFilter {
	return &TaxRateFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

func (f *TaxRateFilter) Validate() error {
	if f.QueryFilter != nil {
		return f.QueryFilter.Validate()
	}
	return nil
}

// GetLimit implements BaseFilter interface
func (f *TaxRateFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetLimit()
	}
	return f.QueryFilter.GetLimit()
}

// GetOffset implements BaseFilter interface
func (f *TaxRateFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOffset()
	}
	return f.QueryFilter.GetOffset()
}
