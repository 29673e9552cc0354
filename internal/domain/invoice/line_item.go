package invoice

import (
	"github.com/billora/billora/internal/types"
	"github.com/shopspring/decimal"
)

// LineItem represents a single line item in an invoice. Amount, DiscountAmount,
// TaxAmount and TotalAmount are derived fields recomputed on every change to
// the owning draft invoice.
type LineItem struct {
	ID          string  `json:"id" db:"id"`
	InvoiceID   string  `json:"invoice_id" db:"invoice_id"`
	Description string  `json:"description" db:"description"`
	TaxRateID   *string `json:"tax_rate_id,omitempty" db:"tax_rate_id"`
	DiscountID  *string `json:"discount_id,omitempty" db:"discount_id"`

	Quantity   decimal.Decimal `json:"quantity" db:"quantity"`
	UnitAmount decimal.Decimal `json:"unit_amount" db:"unit_amount"`

	// Derived amounts, minor units
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount" db:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount" db:"total_amount"`

	Currency string         `json:"currency" db:"currency"`
	Metadata types.Metadata `json:"metadata,omitempty" db:"metadata"`
	types.BaseModel
}

// Validate checks the line item's internal consistency
func (i *LineItem) Validate() error {
	if i.Quantity.IsNegative() || i.Quantity.IsZero() {
		return NewValidationError("quantity", "must be positive")
	}

	if i.UnitAmount.IsNegative() {
		return NewValidationError("unit_amount", "must be non negative")
	}

	if i.DiscountAmount.IsNegative() {
		return NewValidationError("discount_amount", "must be non negative")
	}

	if i.DiscountAmount.GreaterThan(i.Amount) {
		return NewValidationError("discount_amount", "must not exceed the line amount")
	}

	if i.TaxAmount.IsNegative() {
		return NewValidationError("tax_amount", "must be non negative")
	}

	return nil
}
