package recurringinvoice

import (
	"context"
	"time"

	"github.com/billora/billora/internal/types"
)

type Repository interface {
	CreateWithItems(ctx context.Context, r *RecurringInvoice) error
	Get(ctx context.Context, id string) (*RecurringInvoice, error)
	Update(ctx context.Context, r *RecurringInvoice) error
	List(ctx context.Context, filter *types.RecurringInvoiceFilter) ([]*RecurringInvoice, error)
	Count(ctx context.Context, filter *types.RecurringInvoiceFilter) (int, error)

	// ListDue returns active templates whose next billing date is on or
	// before the given instant, with items loaded.
	ListDue(ctx context.Context, asOf time.Time) ([]*RecurringInvoice, error)

	// ListDueTenants returns the distinct tenants that have due templates as
	// of the given instant, regardless of the context tenant. The billing
	// cron fans out over this list with per-tenant contexts.
	ListDueTenants(ctx context.Context, asOf time.Time) ([]string, error)
}
