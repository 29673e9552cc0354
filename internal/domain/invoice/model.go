package invoice

import (
	"time"

	"github.com/billora/billora/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice represents the invoice domain model. All monetary amounts are in
// minor currency units (cents) and the totals must satisfy
// total = subtotal - discount_total + tax_total and
// amount_due = total - amount_paid after every recalculation.
type Invoice struct {
	ID                 string              `json:"id" db:"id"`
	CustomerID         string              `json:"customer_id" db:"customer_id"`
	RecurringInvoiceID *string             `json:"recurring_invoice_id,omitempty" db:"recurring_invoice_id"`
	InvoiceNumber      *string             `json:"invoice_number,omitempty" db:"invoice_number"`
	InvoiceStatus      types.InvoiceStatus `json:"invoice_status" db:"invoice_status"`
	Currency           string              `json:"currency" db:"currency"`
	TaxBehavior        types.TaxBehavior   `json:"tax_behavior" db:"tax_behavior"`
	DiscountID         *string             `json:"discount_id,omitempty" db:"discount_id"`
	Subtotal           decimal.Decimal     `json:"subtotal" db:"subtotal"`
	DiscountTotal      decimal.Decimal     `json:"discount_total" db:"discount_total"`
	TaxTotal           decimal.Decimal     `json:"tax_total" db:"tax_total"`
	Total              decimal.Decimal     `json:"total" db:"total"`
	AmountPaid         decimal.Decimal     `json:"amount_paid" db:"amount_paid"`
	AmountDue          decimal.Decimal     `json:"amount_due" db:"amount_due"`
	NetTermsDays       int                 `json:"net_terms_days" db:"net_terms_days"`
	Description        string              `json:"description,omitempty" db:"description"`
	Notes              string              `json:"notes,omitempty" db:"notes"`
	CustomerEmail      *string             `json:"customer_email,omitempty" db:"customer_email"`
	IssuedAt           *time.Time          `json:"issued_at,omitempty" db:"issued_at"`
	DueDate            *time.Time          `json:"due_date,omitempty" db:"due_date"`
	PaidAt             *time.Time          `json:"paid_at,omitempty" db:"paid_at"`
	VoidedAt           *time.Time          `json:"voided_at,omitempty" db:"voided_at"`
	Metadata           types.Metadata      `json:"metadata,omitempty" db:"metadata"`
	LineItems          []*LineItem         `json:"line_items,omitempty" db:"-"`
	Payments           []*Payment          `json:"payments,omitempty" db:"-"`
	Version            int                 `json:"version" db:"version"`
	types.BaseModel
}

// New creates an empty draft invoice with zeroed totals
func New(id string, customerID string, currency string, taxBehavior types.TaxBehavior, base types.BaseModel) *Invoice {
	return &Invoice{
		ID:            id,
		CustomerID:    customerID,
		InvoiceStatus: types.InvoiceStatusDraft,
		Currency:      currency,
		TaxBehavior:   taxBehavior,
		Subtotal:      decimal.Zero,
		DiscountTotal: decimal.Zero,
		TaxTotal:      decimal.Zero,
		Total:         decimal.Zero,
		AmountPaid:    decimal.Zero,
		AmountDue:     decimal.Zero,
		NetTermsDays:  types.InvoiceDefaultNetTermsDays,
		Version:       1,
		BaseModel:     base,
	}
}

// GetRemainingAmount returns the amount still owed on the invoice
func (i *Invoice) GetRemainingAmount() decimal.Decimal {
	return i.Total.Sub(i.AmountPaid)
}

// AppendNote adds a timestamped audit note line
func (i *Invoice) AppendNote(at time.Time, note string) {
	line := at.UTC().Format(time.RFC3339) + " " + note
	if i.Notes == "" {
		i.Notes = line
		return
	}
	i.Notes = i.Notes + "\n" + line
}

// Validate checks the invoice's internal consistency
func (i *Invoice) Validate() error {
	if err := i.InvoiceStatus.Validate(); err != nil {
		return err
	}

	if i.Subtotal.IsNegative() {
		return NewValidationError("subtotal", "must be non negative")
	}

	if i.DiscountTotal.IsNegative() {
		return NewValidationError("discount_total", "must be non negative")
	}

	if i.TaxTotal.IsNegative() {
		return NewValidationError("tax_total", "must be non negative")
	}

	if i.AmountPaid.IsNegative() {
		return NewValidationError("amount_paid", "must be non negative")
	}

	if !i.Total.Equal(i.Subtotal.Sub(i.DiscountTotal).Add(i.TaxTotal)) {
		return NewValidationError("total", "must equal subtotal - discount_total + tax_total")
	}

	if !i.AmountDue.Equal(i.Total.Sub(i.AmountPaid)) {
		return NewValidationError("amount_due", "must equal total - amount_paid")
	}

	if i.AmountPaid.GreaterThan(i.Total) {
		return NewValidationError("amount_paid", "must be less than or equal to total")
	}

	// validate line items if present
	itemTotal := decimal.Zero
	for _, item := range i.LineItems {
		if item.Currency != i.Currency {
			return NewValidationError("line_items", "currency must match invoice currency")
		}
		if err := item.Validate(); err != nil {
			return err
		}
		itemTotal = itemTotal.Add(item.Amount)
	}
	if len(i.LineItems) > 0 && !itemTotal.Equal(i.Subtotal) {
		return NewValidationError("subtotal", "must equal the sum of line item amounts")
	}

	return nil
}
