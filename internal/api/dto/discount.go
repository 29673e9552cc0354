package dto

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/billora/billora/internal/domain/discount"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/types"
)

// CreateDiscountRequest represents the request to create a discount
// @Description Request object for creating a new discount code
type CreateDiscountRequest struct {
	// code is the unique redemption code (required)
	Code string `json:"code" validate:"required"`

	// name is the human-readable name for the discount
	Name string `json:"name"`

	// type determines how value is interpreted: PERCENT or FIXED
	Type types.DiscountType `json:"type" validate:"required"`

	// value is a whole percentage for PERCENT or a minor-unit amount for FIXED
	Value decimal.Decimal `json:"value"`

	// currency is required for FIXED discounts and binds them to one currency
	Currency string `json:"currency,omitempty"`

	// active toggles redeemability; defaults to true
	Active *bool `json:"active,omitempty"`

	ValidFrom *time.Time `json:"valid_from,omitempty"`
	ValidTo   *time.Time `json:"valid_to,omitempty"`

	// min_amount is the minimum base amount the discount applies to
	MinAmount *decimal.Decimal `json:"min_amount,omitempty"`

	// max_redemptions caps total redemptions across all customers
	MaxRedemptions *int `json:"max_redemptions,omitempty"`

	// max_redemptions_per_customer caps redemptions per customer
	MaxRedemptionsPerCustomer *int `json:"max_redemptions_per_customer,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

func (r CreateDiscountRequest) Validate() error {
	if r.Code == "" {
		return ierr.NewError("code is required").
			WithHint("Discount code is required").
			Mark(ierr.ErrValidation)
	}
	if r.ValidFrom != nil && r.ValidTo != nil && r.ValidTo.Before(*r.ValidFrom) {
		return ierr.NewError("valid_to precedes valid_from").
			WithHint("Validity window end must be after its start").
			Mark(ierr.ErrValidation)
	}
	if r.MinAmount != nil && r.MinAmount.IsNegative() {
		return ierr.NewError("min_amount cannot be negative").
			WithHint("Minimum amount must be zero or positive").
			Mark(ierr.ErrValidation)
	}

	d := r.toDiscountForValidation()
	return d.Validate()
}

func (r CreateDiscountRequest) toDiscountForValidation() *discount.Discount {
	return &discount.Discount{
		Code:     r.Code,
		Type:     r.Type,
		Value:    r.Value,
		Currency: r.Currency,
	}
}

// ToDiscount converts the request into a domain discount
func (r CreateDiscountRequest) ToDiscount(ctx context.Context) *discount.Discount {
	return &discount.Discount{
		ID:                        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DISCOUNT),
		Code:                      r.Code,
		Name:                      r.Name,
		Type:                      r.Type,
		Value:                     r.Value,
		Currency:                  r.Currency,
		Active:                    lo.FromPtrOr(r.Active, true),
		ValidFrom:                 r.ValidFrom,
		ValidTo:                   r.ValidTo,
		MinAmount:                 r.MinAmount,
		MaxRedemptions:            r.MaxRedemptions,
		MaxRedemptionsPerCustomer: r.MaxRedemptionsPerCustomer,
		Metadata:                  r.Metadata,
		BaseModel:                 types.GetDefaultBaseModel(ctx),
	}
}

// ValidateDiscountRequest asks whether a code can be redeemed against a
// prospective amount for a customer
type ValidateDiscountRequest struct {
	// code is the discount code to validate (required)
	Code string `json:"code" validate:"required"`

	// customer_id scopes per-customer redemption caps
	CustomerID string `json:"customer_id"`

	// amount is the base amount the discount would apply to, in minor units
	Amount decimal.Decimal `json:"amount"`

	// currency of the base amount
	Currency string `json:"currency"`
}

func (r ValidateDiscountRequest) Validate() error {
	if r.Code == "" {
		return ierr.NewError("code is required").
			WithHint("Discount code is required").
			Mark(ierr.ErrValidation)
	}
	if r.Amount.IsNegative() {
		return ierr.NewError("amount cannot be negative").
			WithHint("Amount must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ValidateDiscountResponse reports the outcome of a code validation
type ValidateDiscountResponse struct {
	Valid bool `json:"valid"`

	// reason is set when valid is false
	Reason string `json:"reason,omitempty"`

	// discount_amount is the amount the code would deduct, in minor units
	DiscountAmount decimal.Decimal `json:"discount_amount"`

	Discount *DiscountResponse `json:"discount,omitempty"`
}

// DiscountResponse represents the response for discount operations
type DiscountResponse struct {
	*discount.Discount `json:",inline"`
}

// ListDiscountsResponse represents the response for listing discounts
type ListDiscountsResponse struct {
	Items      []*DiscountResponse       `json:"items"`
	Pagination *types.PaginationResponse `json:"pagination,omitempty"`
}
