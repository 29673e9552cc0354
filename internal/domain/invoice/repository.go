package invoice

import (
	"context"
	"time"

	"github.com/billora/billora/internal/types"
)

// Repository defines the interface for invoice persistence operations
type Repository interface {
	// CreateWithLineItems creates a new invoice together with its line items
	CreateWithLineItems(ctx context.Context, invoice *Invoice) error

	// Get retrieves an invoice by ID including its line items and payments
	Get(ctx context.Context, id string) (*Invoice, error)

	// Update updates the invoice row (totals, status, timestamps)
	Update(ctx context.Context, invoice *Invoice) error

	// ReplaceLineItems persists the invoice's current line items and totals
	// in one shot, used after a recalculation
	ReplaceLineItems(ctx context.Context, invoice *Invoice) error

	// List retrieves invoices based on filter criteria
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)

	// Count returns the total count of invoices based on filter criteria
	Count(ctx context.Context, filter *types.InvoiceFilter) (int, error)

	// AddPayment appends a payment row for the invoice
	AddPayment(ctx context.Context, payment *Payment) error

	// ListIssuedDueBefore retrieves issued invoices whose due date is on or
	// before the given time, for the overdue sweep
	ListIssuedDueBefore(ctx context.Context, t time.Time) ([]*Invoice, error)

	// ListOverdueTenants returns the distinct tenants holding issued invoices
	// past the given due date, regardless of the context tenant. The overdue
	// cron fans out over this list with per-tenant contexts.
	ListOverdueTenants(ctx context.Context, t time.Time) ([]string, error)

	// CountDiscountRedemptions returns how many non-voided invoices reference
	// the discount, on the invoice itself or any line item
	CountDiscountRedemptions(ctx context.Context, discountID string) (int, error)

	// CountDiscountRedemptionsByCustomer is CountDiscountRedemptions scoped
	// to a single customer
	CountDiscountRedemptionsByCustomer(ctx context.Context, discountID, customerID string) (int, error)
}
