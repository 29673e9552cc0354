package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/billora/billora/internal/domain/invoice"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/types"
)

// CreateInvoiceRequest represents the request to create a draft invoice
// @Description Request object for creating a new draft invoice
type CreateInvoiceRequest struct {
	// customer_id identifies the billed customer (required)
	CustomerID string `json:"customer_id" validate:"required"`

	// currency is the three-letter currency of all invoice amounts (required)
	Currency string `json:"currency" validate:"required,len=3"`

	// tax_behavior is EXCLUSIVE (tax added on top) or INCLUSIVE; defaults to EXCLUSIVE
	TaxBehavior types.TaxBehavior `json:"tax_behavior,omitempty"`

	// discount_id applies an invoice-level discount
	DiscountID *string `json:"discount_id,omitempty"`

	// net_terms_days overrides the configured payment window
	NetTermsDays *int `json:"net_terms_days,omitempty"`

	Description   string  `json:"description,omitempty"`
	CustomerEmail *string `json:"customer_email,omitempty"`

	// items optionally seeds the draft with line items
	Items []InvoiceLineItemRequest `json:"items,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

func (r CreateInvoiceRequest) Validate() error {
	if r.CustomerID == "" {
		return ierr.NewError("customer_id is required").
			WithHint("Customer ID is required").
			Mark(ierr.ErrValidation)
	}
	if len(r.Currency) != 3 {
		return ierr.NewError("invalid currency").
			WithHint("Currency must be a three-letter code").
			Mark(ierr.ErrValidation)
	}
	if r.TaxBehavior != "" {
		if err := r.TaxBehavior.Validate(); err != nil {
			return err
		}
	}
	if r.NetTermsDays != nil && *r.NetTermsDays < 0 {
		return ierr.NewError("net_terms_days cannot be negative").
			WithHint("Net terms days must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	for _, item := range r.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// InvoiceLineItemRequest represents a line item to add or update on a draft
type InvoiceLineItemRequest struct {
	// description of the billed item (required)
	Description string `json:"description" validate:"required"`

	// quantity of units, must be positive
	Quantity decimal.Decimal `json:"quantity"`

	// unit_amount is the price per unit in minor currency units
	UnitAmount decimal.Decimal `json:"unit_amount"`

	// tax_rate_id applies a tax rate to this line
	TaxRateID *string `json:"tax_rate_id,omitempty"`

	// discount_id applies a line-level discount
	DiscountID *string `json:"discount_id,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

func (r InvoiceLineItemRequest) Validate() error {
	if r.Description == "" {
		return ierr.NewError("description is required").
			WithHint("Line item description is required").
			Mark(ierr.ErrValidation)
	}
	if r.Quantity.IsNegative() || r.Quantity.IsZero() {
		return ierr.NewError("quantity must be positive").
			WithHint("Quantity must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	if r.UnitAmount.IsNegative() {
		return ierr.NewError("unit_amount cannot be negative").
			WithHint("Unit amount must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// UpdateInvoiceRequest updates mutable draft fields. Only provided fields
// are updated.
type UpdateInvoiceRequest struct {
	Description   *string            `json:"description,omitempty"`
	CustomerEmail *string            `json:"customer_email,omitempty"`
	TaxBehavior   *types.TaxBehavior `json:"tax_behavior,omitempty"`
	DiscountID    *string            `json:"discount_id,omitempty"`
	NetTermsDays  *int               `json:"net_terms_days,omitempty"`
	Metadata      map[string]string  `json:"metadata,omitempty"`
}

func (r UpdateInvoiceRequest) Validate() error {
	if r.TaxBehavior != nil {
		if err := r.TaxBehavior.Validate(); err != nil {
			return err
		}
	}
	if r.NetTermsDays != nil && *r.NetTermsDays < 0 {
		return ierr.NewError("net_terms_days cannot be negative").
			WithHint("Net terms days must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RecordPaymentRequest records a payment against an issued invoice
type RecordPaymentRequest struct {
	// amount paid in minor currency units, must be positive and at most the
	// invoice's amount due
	Amount decimal.Decimal `json:"amount"`

	// method is a free-form payment method label (bank_transfer, card, ...)
	Method string `json:"method,omitempty"`

	// reference is an external payment reference
	Reference string `json:"reference,omitempty"`

	Note string `json:"note,omitempty"`

	// paid_at defaults to now when omitted
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

func (r RecordPaymentRequest) Validate() error {
	if r.Amount.IsNegative() || r.Amount.IsZero() {
		return ierr.NewError("amount must be positive").
			WithHint("Payment amount must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// VoidInvoiceRequest cancels an issued invoice
type VoidInvoiceRequest struct {
	// reason is recorded in the invoice's audit notes
	Reason string `json:"reason,omitempty"`
}

// WriteOffInvoiceRequest abandons a past-due invoice as uncollectible
type WriteOffInvoiceRequest struct {
	// reason is recorded in the invoice's audit notes
	Reason string `json:"reason,omitempty"`
}

// InvoiceResponse represents the response for invoice operations
type InvoiceResponse struct {
	*invoice.Invoice `json:",inline"`
}

// ListInvoicesResponse represents the response for listing invoices
type ListInvoicesResponse struct {
	Items      []*InvoiceResponse        `json:"items"`
	Pagination *types.PaginationResponse `json:"pagination,omitempty"`
}

// PreviewNumberResponse carries a non-binding preview of the next document
// number for a scope
type PreviewNumberResponse struct {
	Scope  types.SequenceScope `json:"scope"`
	Number string              `json:"number"`
}

// OverdueSweepResponse summarizes an overdue status sweep
type OverdueSweepResponse struct {
	Checked     int `json:"checked"`
	MarkedOverdue int `json:"marked_overdue"`
}
