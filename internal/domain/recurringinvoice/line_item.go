package recurringinvoice

import (
	"github.com/shopspring/decimal"

	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/types"
)

// LineItem is a template row copied onto every generated invoice.
// Amounts are in minor units of the template currency.
type LineItem struct {
	ID                 string          `json:"id" db:"id"`
	RecurringInvoiceID string          `json:"recurring_invoice_id" db:"recurring_invoice_id"`
	Description        string          `json:"description" db:"description"`
	Quantity           decimal.Decimal `json:"quantity" db:"quantity"`
	UnitAmount         decimal.Decimal `json:"unit_amount" db:"unit_amount"`
	TaxRateID          string          `json:"tax_rate_id,omitempty" db:"tax_rate_id"`
	DiscountID         string          `json:"discount_id,omitempty" db:"discount_id"`
	Metadata           types.Metadata  `json:"metadata,omitempty" db:"metadata"`
	types.BaseModel
}

func (i *LineItem) Validate() error {
	if i.Description == "" {
		return ierr.NewError("line item description is required").
			WithHint("Each line item needs a description").
			Mark(ierr.ErrValidation)
	}
	if i.Quantity.IsNegative() || i.Quantity.IsZero() {
		return ierr.NewError("line item quantity must be positive").
			WithHint("Quantity must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	if i.UnitAmount.IsNegative() {
		return ierr.NewError("line item unit amount must not be negative").
			WithHint("Unit amount must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	return nil
}
