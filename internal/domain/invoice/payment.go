package invoice

import (
	"time"

	"github.com/billora/billora/internal/types"
	"github.com/shopspring/decimal"
)

// Payment represents a payment recorded against an issued invoice
type Payment struct {
	ID        string          `json:"id" db:"id"`
	InvoiceID string          `json:"invoice_id" db:"invoice_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Currency  string          `json:"currency" db:"currency"`
	Method    string          `json:"method,omitempty" db:"method"`
	Reference string          `json:"reference,omitempty" db:"reference"`
	Note      string          `json:"note,omitempty" db:"note"`
	PaidAt    time.Time       `json:"paid_at" db:"paid_at"`
	types.BaseModel
}

// Validate checks the payment's internal consistency
func (p *Payment) Validate() error {
	if p.Amount.IsNegative() || p.Amount.IsZero() {
		return NewValidationError("amount", "must be positive")
	}
	return nil
}
