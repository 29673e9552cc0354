package types

import (
	ierr "github.com/billora/billora/internal/errors"
	"github.com/samber/lo"
)

// InvoiceStatus represents the current state of an invoice in its lifecycle
type InvoiceStatus string

const (
	// InvoiceStatusDraft indicates the invoice is mutable: line items can be
	// added, updated and removed, and totals are recalculated on every change
	InvoiceStatusDraft InvoiceStatus = "DRAFT"
	// InvoiceStatusIssued indicates the invoice has been numbered and sent out;
	// line items are frozen and payments may be recorded against it
	InvoiceStatusIssued InvoiceStatus = "ISSUED"
	// InvoiceStatusPartiallyPaid indicates some but not all of the amount due has been paid
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	// InvoiceStatusPaid indicates the amount due has been fully settled
	InvoiceStatusPaid InvoiceStatus = "PAID"
	// InvoiceStatusPastDue indicates the due date elapsed before full payment
	InvoiceStatusPastDue InvoiceStatus = "PAST_DUE"
	// InvoiceStatusVoided indicates the invoice was cancelled and is no longer collectible
	InvoiceStatusVoided InvoiceStatus = "VOIDED"
	// InvoiceStatusWrittenOff indicates a past-due invoice was abandoned as uncollectible
	InvoiceStatusWrittenOff InvoiceStatus = "WRITTEN_OFF"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusIssued,
		InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid,
		InvoiceStatusPastDue,
		InvoiceStatusVoided,
		InvoiceStatusWrittenOff,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsTerminal returns true when no further transitions are possible
func (s InvoiceStatus) IsTerminal() bool {
	return lo.Contains([]InvoiceStatus{
		InvoiceStatusPaid,
		InvoiceStatusVoided,
		InvoiceStatusWrittenOff,
	}, s)
}

// IsPayable returns true when payments may be recorded against the invoice
func (s InvoiceStatus) IsPayable() bool {
	return lo.Contains([]InvoiceStatus{
		InvoiceStatusIssued,
		InvoiceStatusPartiallyPaid,
		InvoiceStatusPastDue,
	}, s)
}

const (
	// InvoiceDefaultNetTermsDays is the payment window applied when an invoice
	// does not carry its own net terms
	InvoiceDefaultNetTermsDays = 14
)

// InvoiceFilter represents the filter options for listing invoices
type InvoiceFilter struct {
	*QueryFilter
	*TimeRangeFilter

	// invoice_ids restricts results to invoices with the specified IDs
	InvoiceIDs []string `json:"invoice_ids,omitempty" form:"invoice_ids"`

	// customer_id filters invoices for a specific customer
	CustomerID string `json:"customer_id,omitempty" form:"customer_id"`

	// invoice_status filters by the current lifecycle state; multiple states
	// may be specified to include invoices in any of the listed states
	InvoiceStatus []InvoiceStatus `json:"invoice_status,omitempty" form:"invoice_status"`

	// due_before filters invoices whose due date is on or before the given time
	DueBefore *string `json:"due_before,omitempty" form:"due_before"`
}

// NewInvoiceFilter creates a new invoice filter with default options
func NewInvoiceFilter() *InvoiceFilter {
	return &InvoiceFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// NewNoLimitInvoiceFilter creates a new invoice filter without pagination
func NewNoLimitInvoiceFilter() *InvoiceFilter {
	return &InvoiceFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

func (f *InvoiceFilter) Validate() error {
	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return err
		}
	}
	if f.TimeRangeFilter != nil {
		if err := f.TimeRangeFilter.Validate(); err != nil {
			return err
		}
	}
	for _, s := range f.InvoiceStatus {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// GetLimit implements BaseFilter interface
func (f *InvoiceFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetLimit()
	}
	return f.QueryFilter.GetLimit()
}

// GetOffset implements BaseFilter interface
func (f *InvoiceFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOffset()
	}
	return f.QueryFilter.GetOffset()
}

// GetSort implements BaseFilter interface
func (f *InvoiceFilter) GetSort() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetSort()
	}
	return f.QueryFilter.GetSort()
}

// GetOrder implements BaseFilter interface
func (f *InvoiceFilter) GetOrder() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOrder()
	}
	return f.QueryFilter.GetOrder()
}

// GetStatus implements BaseFilter interface
func (f *InvoiceFilter) GetStatus() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetStatus()
	}
	return f.QueryFilter.GetStatus()
}

func (f *InvoiceFilter) IsUnlimited() bool {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().IsUnlimited()
	}
	return f.QueryFilter.IsUnlimited()
}
