package discount

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/types"
)

// Discount is a reusable discount code. Percentage discounts carry a
// whole-percent value, fixed discounts carry an amount in minor units
// bound to a single currency.
type Discount struct {
	ID          string             `json:"id" db:"id"`
	Code        string             `json:"code" db:"code"`
	Name        string             `json:"name" db:"name"`
	Type        types.DiscountType `json:"type" db:"type"`
	Value       decimal.Decimal    `json:"value" db:"value"`
	Currency    string             `json:"currency,omitempty" db:"currency"`
	Active      bool               `json:"active" db:"active"`
	ValidFrom   *time.Time         `json:"valid_from,omitempty" db:"valid_from"`
	ValidTo     *time.Time         `json:"valid_to,omitempty" db:"valid_to"`
	MinAmount   *decimal.Decimal   `json:"min_amount,omitempty" db:"min_amount"`
	MaxRedemptions            *int `json:"max_redemptions,omitempty" db:"max_redemptions"`
	MaxRedemptionsPerCustomer *int `json:"max_redemptions_per_customer,omitempty" db:"max_redemptions_per_customer"`

	Metadata types.Metadata `json:"metadata,omitempty" db:"metadata"`
	types.BaseModel
}

func (d *Discount) Validate() error {
	if err := d.Type.Validate(); err != nil {
		return err
	}
	if d.Value.IsNegative() {
		return ierr.NewError("discount value must not be negative").
			WithHint("Discount value must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	if d.Type == types.DiscountTypePercent && d.Value.GreaterThan(decimal.NewFromInt(100)) {
		return ierr.NewError("percentage discount cannot exceed 100").
			WithHint("Percentage discounts are capped at 100").
			Mark(ierr.ErrValidation)
	}
	if d.Type == types.DiscountTypeFixed && d.Currency == "" {
		return ierr.NewError("fixed discount requires a currency").
			WithHint("Set a currency for fixed amount discounts").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsActiveAt reports whether the discount can be redeemed at the given
// instant, ignoring redemption caps which need invoice history.
func (d *Discount) IsActiveAt(at time.Time) bool {
	if d == nil || !d.Active {
		return false
	}
	if d.ValidFrom != nil && d.ValidFrom.After(at) {
		return false
	}
	if d.ValidTo != nil && d.ValidTo.Before(at) {
		return false
	}
	return true
}
