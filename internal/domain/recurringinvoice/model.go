package recurringinvoice

import (
	"time"

	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/types"
)

// RecurringInvoice is a template that generates invoices on a billing
// schedule. NextBillingDate always points at the next occurrence; the
// occurrence counter and optional caps decide when the template
// completes.
type RecurringInvoice struct {
	ID            string                       `json:"id" db:"id"`
	CustomerID    string                       `json:"customer_id" db:"customer_id"`
	CustomerEmail string                       `json:"customer_email,omitempty" db:"customer_email"`
	Currency      string                       `json:"currency" db:"currency"`
	TaxBehavior   types.TaxBehavior            `json:"tax_behavior" db:"tax_behavior"`
	DiscountID    string                       `json:"discount_id,omitempty" db:"discount_id"`
	Description   string                       `json:"description,omitempty" db:"description"`
	NetTermsDays  int                          `json:"net_terms_days" db:"net_terms_days"`
	RecurringInvoiceStatus types.RecurringInvoiceStatus `json:"status" db:"recurring_status"`

	Interval      types.BillingInterval `json:"interval" db:"billing_interval"`
	IntervalCount int                   `json:"interval_count" db:"interval_count"`
	// DayOfMonth anchors monthly and longer schedules, clamped to the
	// last day of shorter months. Zero means follow the start date.
	DayOfMonth int `json:"day_of_month,omitempty" db:"day_of_month"`

	StartDate       time.Time  `json:"start_date" db:"start_date"`
	EndDate         *time.Time `json:"end_date,omitempty" db:"end_date"`
	NextBillingDate time.Time  `json:"next_billing_date" db:"next_billing_date"`
	LastRunAt       *time.Time `json:"last_run_at,omitempty" db:"last_run_at"`

	MaxOccurrences  *int `json:"max_occurrences,omitempty" db:"max_occurrences"`
	OccurrenceCount int  `json:"occurrence_count" db:"occurrence_count"`

	Metadata types.Metadata `json:"metadata,omitempty" db:"metadata"`

	Items []*LineItem `json:"items,omitempty" db:"-"`
	types.BaseModel
}

func (r *RecurringInvoice) Validate() error {
	if err := r.Interval.Validate(); err != nil {
		return err
	}
	if err := r.TaxBehavior.Validate(); err != nil {
		return err
	}
	if r.IntervalCount < 1 {
		return ierr.NewError("interval count must be at least 1").
			WithHint("Interval count must be a positive integer").
			Mark(ierr.ErrValidation)
	}
	if r.DayOfMonth < 0 || r.DayOfMonth > 31 {
		return ierr.NewError("day of month must be between 1 and 31").
			WithHint("Day of month anchors the billing day").
			Mark(ierr.ErrValidation)
	}
	if r.MaxOccurrences != nil && *r.MaxOccurrences < 1 {
		return ierr.NewError("max occurrences must be at least 1").
			WithHint("Max occurrences must be a positive integer").
			Mark(ierr.ErrValidation)
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return ierr.NewError("end date must not precede start date").
			WithHint("End date must be on or after the start date").
			Mark(ierr.ErrValidation)
	}
	if len(r.Items) == 0 {
		return ierr.NewError("recurring invoice requires at least one item").
			WithHint("Add at least one line item to the template").
			Mark(ierr.ErrValidation)
	}
	for _, item := range r.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsExhausted reports whether the template has produced all the
// occurrences it is allowed to, either by cap or by end date.
func (r *RecurringInvoice) IsExhausted() bool {
	if r.MaxOccurrences != nil && r.OccurrenceCount >= *r.MaxOccurrences {
		return true
	}
	if r.EndDate != nil && r.NextBillingDate.After(*r.EndDate) {
		return true
	}
	return false
}
