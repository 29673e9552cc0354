package dto

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/billora/billora/internal/domain/taxrate"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/types"
)

// CreateTaxRateRequest represents the request to create a tax rate
// @Description Request object for creating a new tax rate
type CreateTaxRateRequest struct {
	// name is the human-readable name for the tax rate (required)
	Name string `json:"name" validate:"required"`

	// code is the unique alphanumeric identifier for the tax rate (required)
	Code string `json:"code" validate:"required"`

	// description is an optional text description for the tax rate
	Description string `json:"description,omitempty"`

	// basis_points is the tax percentage in basis points (2000 = 20%)
	BasisPoints int64 `json:"basis_points"`

	// active toggles whether the rate is applied; defaults to true
	Active *bool `json:"active,omitempty"`

	// valid_from is the ISO 8601 timestamp when this tax rate becomes effective
	ValidFrom *time.Time `json:"valid_from,omitempty"`

	// valid_to is the ISO 8601 timestamp when this tax rate expires
	ValidTo *time.Time `json:"valid_to,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

func (r CreateTaxRateRequest) Validate() error {
	if r.Name == "" {
		return ierr.NewError("name is required").
			WithHint("Tax rate name is required").
			Mark(ierr.ErrValidation)
	}
	if r.Code == "" {
		return ierr.NewError("code is required").
			WithHint("Tax rate code is required").
			Mark(ierr.ErrValidation)
	}
	if r.BasisPoints < 0 {
		return ierr.NewError("basis_points cannot be negative").
			WithHint("Tax rate basis points must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	if r.ValidFrom != nil && r.ValidTo != nil && r.ValidTo.Before(*r.ValidFrom) {
		return ierr.NewError("valid_to precedes valid_from").
			WithHint("Validity window end must be after its start").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ToTaxRate converts the request into a domain tax rate
func (r CreateTaxRateRequest) ToTaxRate(ctx context.Context) *taxrate.TaxRate {
	return &taxrate.TaxRate{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TAX_RATE),
		Name:        r.Name,
		Code:        r.Code,
		Description: r.Description,
		BasisPoints: r.BasisPoints,
		Active:      lo.FromPtrOr(r.Active, true),
		ValidFrom:   r.ValidFrom,
		ValidTo:     r.ValidTo,
		Metadata:    r.Metadata,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
}

// UpdateTaxRateRequest represents the request to update a tax rate.
// Only provided fields are updated.
type UpdateTaxRateRequest struct {
	Name        *string           `json:"name,omitempty"`
	Description *string           `json:"description,omitempty"`
	Active      *bool             `json:"active,omitempty"`
	ValidFrom   *time.Time        `json:"valid_from,omitempty"`
	ValidTo     *time.Time        `json:"valid_to,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// TaxRateResponse represents the response for tax rate operations
type TaxRateResponse struct {
	*taxrate.TaxRate `json:",inline"`
}

// ListTaxRatesResponse represents the response for listing tax rates
type ListTaxRatesResponse struct {
	Items      []*TaxRateResponse        `json:"items"`
	Pagination *types.PaginationResponse `json:"pagination,omitempty"`
}
