package types

import (
	ierr "github.com/billora/billora/internal/errors"
	"github.com/samber/lo"
)

// BillingInterval is the unit of the cadence at which a recurring invoice
// template spawns invoices
type BillingInterval string

const (
	BillingIntervalDaily     BillingInterval = "DAILY"
	BillingIntervalWeekly    BillingInterval = "WEEKLY"
	BillingIntervalMonthly   BillingInterval = "MONTHLY"
	BillingIntervalQuarterly BillingInterval = "QUARTERLY"
	BillingIntervalYearly    BillingInterval = "YEARLY"
)

func (i BillingInterval) String() string {
	return string(i)
}

func (i BillingInterval) Validate() error {
	allowed := []BillingInterval{
		BillingIntervalDaily,
		BillingIntervalWeekly,
		BillingIntervalMonthly,
		BillingIntervalQuarterly,
		BillingIntervalYearly,
	}
	if !lo.Contains(allowed, i) {
		return ierr.NewError("invalid billing interval").
			WithHint("Please provide a valid billing interval").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RecurringInvoiceStatus represents the state of a recurring invoice template
type RecurringInvoiceStatus string

const (
	// RecurringInvoiceStatusActive indicates the template spawns invoices on schedule
	RecurringInvoiceStatusActive RecurringInvoiceStatus = "ACTIVE"
	// RecurringInvoiceStatusPaused indicates the template is skipped by the due processor
	RecurringInvoiceStatusPaused RecurringInvoiceStatus = "PAUSED"
	// RecurringInvoiceStatusCompleted indicates the occurrence limit or end date has been reached
	RecurringInvoiceStatusCompleted RecurringInvoiceStatus = "COMPLETED"
)

func (s RecurringInvoiceStatus) String() string {
	return string(s)
}

func (s RecurringInvoiceStatus) Validate() error {
	allowed := []RecurringInvoiceStatus{
		RecurringInvoiceStatusActive,
		RecurringInvoiceStatusPaused,
		RecurringInvoiceStatusCompleted,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid recurring invoice status").
			WithHint("Please provide a valid recurring invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RecurringInvoiceFilter represents the filter options for listing recurring
// invoice templates
type RecurringInvoiceFilter struct {
	*QueryFilter

	CustomerID             string                   `json:"customer_id,omitempty" form:"customer_id"`
	RecurringInvoiceStatus []RecurringInvoiceStatus `json:"recurring_invoice_status,omitempty" form:"recurring_invoice_status"`
}

// NewRecurringInvoiceFilter creates a new recurring invoice filter with default options
func NewRecurringInvoiceFilter() *RecurringInvoiceFilter {
	return &RecurringInvoiceFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

func (f *RecurringInvoiceFilter) Validate() error {
	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return err
		}
	}
	for _, s := range f.RecurringInvoiceStatus {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// GetLimit implements BaseFilter interface
func (f *RecurringInvoiceFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetLimit()
	}
	return f.QueryFilter.GetLimit()
}

// GetOffset implements BaseFilter interface
func (f *RecurringInvoiceFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOffset()
	}
	return f.QueryFilter.GetOffset()
}
