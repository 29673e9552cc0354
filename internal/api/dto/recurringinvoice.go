package dto

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/billora/billora/internal/domain/recurringinvoice"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/types"
)

// CreateRecurringInvoiceRequest represents the request to create a
// recurring invoice template
// @Description Request object for creating a recurring invoice template
type CreateRecurringInvoiceRequest struct {
	// customer_id identifies the billed customer (required)
	CustomerID string `json:"customer_id" validate:"required"`

	// currency of all generated invoices (required)
	Currency string `json:"currency" validate:"required,len=3"`

	// tax_behavior applied to generated invoices; defaults to EXCLUSIVE
	TaxBehavior types.TaxBehavior `json:"tax_behavior,omitempty"`

	// discount_id applies an invoice-level discount to generated invoices
	DiscountID string `json:"discount_id,omitempty"`

	// interval is the billing cadence unit: DAILY, WEEKLY, MONTHLY,
	// QUARTERLY or YEARLY (required)
	Interval types.BillingInterval `json:"interval" validate:"required"`

	// interval_count multiplies the interval; defaults to 1
	IntervalCount int `json:"interval_count,omitempty"`

	// day_of_month anchors monthly and longer schedules, clamped to the
	// last day of shorter months
	DayOfMonth int `json:"day_of_month,omitempty"`

	// start_date is the first billing date (required)
	StartDate time.Time `json:"start_date" validate:"required"`

	// end_date stops generation after this date
	EndDate *time.Time `json:"end_date,omitempty"`

	// max_occurrences caps how many invoices the template generates
	MaxOccurrences *int `json:"max_occurrences,omitempty"`

	// net_terms_days is the payment window on generated invoices
	NetTermsDays *int `json:"net_terms_days,omitempty"`

	Description   string `json:"description,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`

	// items are the template line items copied onto every invoice (required)
	Items []RecurringInvoiceItemRequest `json:"items" validate:"required,min=1"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// RecurringInvoiceItemRequest is one template line item
type RecurringInvoiceItemRequest struct {
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitAmount  decimal.Decimal `json:"unit_amount"`
	TaxRateID   string          `json:"tax_rate_id,omitempty"`
	DiscountID  string          `json:"discount_id,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func (r CreateRecurringInvoiceRequest) Validate() error {
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
	if r.StartDate.IsZero() {
		return ierr.NewError("start_date is required").
			WithHint("Start date is required").
			Mark(ierr.ErrValidation)
	}
	tpl := r.ToRecurringInvoice(context.Background(), types.InvoiceDefaultNetTermsDays)
	return tpl.Validate()
}

// ToRecurringInvoice converts the request into a domain template. The first
// billing date is the start date itself.
func (r CreateRecurringInvoiceRequest) ToRecurringInvoice(ctx context.Context, defaultNetTerms int) *recurringinvoice.RecurringInvoice {
	id := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_RECURRING_INVOICE)
	base := types.GetDefaultBaseModel(ctx)

	taxBehavior := r.TaxBehavior
	if taxBehavior == "" {
		taxBehavior = types.TaxBehaviorExclusive
	}

	intervalCount := r.IntervalCount
	if intervalCount == 0 {
		intervalCount = 1
	}

	items := make([]*recurringinvoice.LineItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = &recurringinvoice.LineItem{
			ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM),
			RecurringInvoiceID: id,
			Description:        item.Description,
			Quantity:           item.Quantity,
			UnitAmount:         item.UnitAmount,
			TaxRateID:          item.TaxRateID,
			DiscountID:         item.DiscountID,
			Metadata:           item.Metadata,
			BaseModel:          base,
		}
	}

	return &recurringinvoice.RecurringInvoice{
		ID:                     id,
		CustomerID:             r.CustomerID,
		CustomerEmail:          r.CustomerEmail,
		Currency:               r.Currency,
		TaxBehavior:            taxBehavior,
		DiscountID:             r.DiscountID,
		Description:            r.Description,
		NetTermsDays:           lo.FromPtrOr(r.NetTermsDays, defaultNetTerms),
		RecurringInvoiceStatus: types.RecurringInvoiceStatusActive,
		Interval:               r.Interval,
		IntervalCount:          intervalCount,
		DayOfMonth:             r.DayOfMonth,
		StartDate:              r.StartDate,
		EndDate:                r.EndDate,
		NextBillingDate:        r.StartDate,
		MaxOccurrences:         r.MaxOccurrences,
		Metadata:               r.Metadata,
		Items:                  items,
		BaseModel:              base,
	}
}

// RecurringInvoiceResponse represents the response for recurring invoice
// template operations
type RecurringInvoiceResponse struct {
	*recurringinvoice.RecurringInvoice `json:",inline"`
}

// ListRecurringInvoicesResponse represents the response for listing templates
type ListRecurringInvoicesResponse struct {
	Items      []*RecurringInvoiceResponse `json:"items"`
	Pagination *types.PaginationResponse   `json:"pagination,omitempty"`
}

// ProcessDueResponse summarizes one due-template processing run
type ProcessDueResponse struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
