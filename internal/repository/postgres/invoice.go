package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/samber/lo"

	"github.com/billora/billora/internal/domain/invoice"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/logger"
	"github.com/billora/billora/internal/postgres"
	"github.com/billora/billora/internal/types"
)

type invoiceRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewInvoiceRepository creates a new instance of invoice repository
func NewInvoiceRepository(db postgres.IClient, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{
		db:     db,
		logger: logger,
	}
}

const insertInvoiceQuery = `
	INSERT INTO invoices (
		id, customer_id, recurring_invoice_id, invoice_number, invoice_status,
		currency, tax_behavior, discount_id, subtotal, discount_total, tax_total,
		total, amount_paid, amount_due, net_terms_days, description, notes,
		customer_email, issued_at, due_date, paid_at, voided_at, metadata, version,
		tenant_id, status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :customer_id, :recurring_invoice_id, :invoice_number, :invoice_status,
		:currency, :tax_behavior, :discount_id, :subtotal, :discount_total, :tax_total,
		:total, :amount_paid, :amount_due, :net_terms_days, :description, :notes,
		:customer_email, :issued_at, :due_date, :paid_at, :voided_at, :metadata, :version,
		:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
	)`

const insertLineItemQuery = `
	INSERT INTO invoice_line_items (
		id, invoice_id, description, tax_rate_id, discount_id, quantity,
		unit_amount, amount, discount_amount, tax_amount, total_amount, currency,
		metadata, tenant_id, status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :invoice_id, :description, :tax_rate_id, :discount_id, :quantity,
		:unit_amount, :amount, :discount_amount, :tax_amount, :total_amount, :currency,
		:metadata, :tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
	)`

func (r *invoiceRepository) CreateWithLineItems(ctx context.Context, inv *invoice.Invoice) error {
	return r.db.WithTx(ctx, func(ctx context.Context) error {
		if _, err := r.db.NamedExecContext(ctx, insertInvoiceQuery, inv); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to create invoice").
				Mark(ierr.ErrDatabase)
		}
		for _, item := range inv.LineItems {
			if _, err := r.db.NamedExecContext(ctx, insertLineItemQuery, item); err != nil {
				return ierr.WithError(err).
					WithHint("Failed to create invoice line item").
					Mark(ierr.ErrDatabase)
			}
		}
		return nil
	})
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	query := `
		SELECT * FROM invoices
		WHERE id = :id
		AND tenant_id = :tenant_id
		AND status = :status`

	params := map[string]interface{}{
		"id":        id,
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query invoice").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("invoice not found").
			WithHint("The invoice does not exist").
			WithReportableDetails(map[string]any{"id": id}).
			Mark(ierr.ErrNotFound)
	}

	var inv invoice.Invoice
	if err := rows.StructScan(&inv); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan invoice").
			Mark(ierr.ErrDatabase)
	}
	rows.Close()

	if err := r.loadLineItems(ctx, &inv); err != nil {
		return nil, err
	}
	if err := r.loadPayments(ctx, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepository) loadLineItems(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		SELECT * FROM invoice_line_items
		WHERE invoice_id = :invoice_id
		AND tenant_id = :tenant_id
		AND status = :status
		ORDER BY created_at ASC, id ASC`

	params := map[string]interface{}{
		"invoice_id": inv.ID,
		"tenant_id":  types.GetTenantID(ctx),
		"status":     types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to query invoice line items").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	for rows.Next() {
		var item invoice.LineItem
		if err := rows.StructScan(&item); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to scan invoice line item").
				Mark(ierr.ErrDatabase)
		}
		inv.LineItems = append(inv.LineItems, &item)
	}
	return rows.Err()
}

func (r *invoiceRepository) loadPayments(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		SELECT * FROM invoice_payments
		WHERE invoice_id = :invoice_id
		AND tenant_id = :tenant_id
		AND status = :status
		ORDER BY paid_at ASC, id ASC`

	params := map[string]interface{}{
		"invoice_id": inv.ID,
		"tenant_id":  types.GetTenantID(ctx),
		"status":     types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to query invoice payments").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	for rows.Next() {
		var payment invoice.Payment
		if err := rows.StructScan(&payment); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to scan invoice payment").
				Mark(ierr.ErrDatabase)
		}
		inv.Payments = append(inv.Payments, &payment)
	}
	return rows.Err()
}

func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		UPDATE invoices
		SET
			invoice_number = :invoice_number,
			invoice_status = :invoice_status,
			discount_id = :discount_id,
			tax_behavior = :tax_behavior,
			subtotal = :subtotal,
			discount_total = :discount_total,
			tax_total = :tax_total,
			total = :total,
			amount_paid = :amount_paid,
			amount_due = :amount_due,
			net_terms_days = :net_terms_days,
			description = :description,
			notes = :notes,
			customer_email = :customer_email,
			issued_at = :issued_at,
			due_date = :due_date,
			paid_at = :paid_at,
			voided_at = :voided_at,
			metadata = :metadata,
			version = :version,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
		AND tenant_id = :tenant_id
		AND status = 'published'`

	result, err := r.db.NamedExecContext(ctx, query, inv)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update invoice").
			Mark(ierr.ErrDatabase)
	}
	return requireRowAffected(result, "invoice")
}

// ReplaceLineItems rewrites the invoice's line items and totals in one
// transaction. Old rows are hard deleted, the caller's items are the source
// of truth after every recalculation.
func (r *invoiceRepository) ReplaceLineItems(ctx context.Context, inv *invoice.Invoice) error {
	return r.db.WithTx(ctx, func(ctx context.Context) error {
		deleteQuery := `
			DELETE FROM invoice_line_items
			WHERE invoice_id = :invoice_id
			AND tenant_id = :tenant_id`

		params := map[string]interface{}{
			"invoice_id": inv.ID,
			"tenant_id":  types.GetTenantID(ctx),
		}
		if _, err := r.db.NamedExecContext(ctx, deleteQuery, params); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to clear invoice line items").
				Mark(ierr.ErrDatabase)
		}

		for _, item := range inv.LineItems {
			if _, err := r.db.NamedExecContext(ctx, insertLineItemQuery, item); err != nil {
				return ierr.WithError(err).
					WithHint("Failed to create invoice line item").
					Mark(ierr.ErrDatabase)
			}
		}

		return r.Update(ctx, inv)
	})
}

func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	query, params := r.buildListQuery(ctx, "SELECT *", filter)
	query += fmt.Sprintf(" ORDER BY created_at %s", sortOrder(filter.GetOrder()))
	if !filter.IsUnlimited() {
		query += " LIMIT :limit OFFSET :offset"
		params["limit"] = filter.GetLimit()
		params["offset"] = filter.GetOffset()
	}

	return r.queryInvoices(ctx, query, params)
}

func (r *invoiceRepository) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	query, params := r.buildListQuery(ctx, "SELECT COUNT(*) AS count", filter)

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count invoices").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, ierr.WithError(err).
				WithHint("Failed to scan count").
				Mark(ierr.ErrDatabase)
		}
	}
	return count, rows.Err()
}

func (r *invoiceRepository) buildListQuery(ctx context.Context, selectClause string, filter *types.InvoiceFilter) (string, map[string]interface{}) {
	query := selectClause + ` FROM invoices
		WHERE tenant_id = :tenant_id
		AND status = :status`

	params := map[string]interface{}{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	if len(filter.InvoiceIDs) > 0 {
		query += " AND id = ANY(:ids)"
		params["ids"] = pq.Array(filter.InvoiceIDs)
	}
	if filter.CustomerID != "" {
		query += " AND customer_id = :customer_id"
		params["customer_id"] = filter.CustomerID
	}
	if len(filter.InvoiceStatus) > 0 {
		query += " AND invoice_status = ANY(:invoice_status)"
		params["invoice_status"] = pq.Array(lo.Map(filter.InvoiceStatus, func(s types.InvoiceStatus, _ int) string {
			return string(s)
		}))
	}
	if filter.DueBefore != nil && *filter.DueBefore != "" {
		query += " AND due_date <= :due_before"
		params["due_before"] = *filter.DueBefore
	}
	if filter.TimeRangeFilter != nil {
		if filter.StartTime != nil {
			query += " AND created_at >= :start_time"
			params["start_time"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			query += " AND created_at <= :end_time"
			params["end_time"] = *filter.EndTime
		}
	}

	return query, params
}

func (r *invoiceRepository) queryInvoices(ctx context.Context, query string, params map[string]interface{}) ([]*invoice.Invoice, error) {
	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list invoices").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var invoices []*invoice.Invoice
	for rows.Next() {
		var inv invoice.Invoice
		if err := rows.StructScan(&inv); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan invoice").
				Mark(ierr.ErrDatabase)
		}
		invoices = append(invoices, &inv)
	}
	return invoices, rows.Err()
}

func (r *invoiceRepository) AddPayment(ctx context.Context, payment *invoice.Payment) error {
	query := `
		INSERT INTO invoice_payments (
			id, invoice_id, amount, currency, method, reference, note, paid_at,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :invoice_id, :amount, :currency, :method, :reference, :note, :paid_at,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to record payment").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) ListIssuedDueBefore(ctx context.Context, t time.Time) ([]*invoice.Invoice, error) {
	query := `
		SELECT * FROM invoices
		WHERE tenant_id = :tenant_id
		AND status = :status
		AND invoice_status = :invoice_status
		AND due_date IS NOT NULL
		AND due_date <= :due_before
		ORDER BY due_date ASC`

	params := map[string]interface{}{
		"tenant_id":      types.GetTenantID(ctx),
		"status":         types.StatusPublished,
		"invoice_status": types.InvoiceStatusIssued,
		"due_before":     t,
	}

	return r.queryInvoices(ctx, query, params)
}

func (r *invoiceRepository) ListOverdueTenants(ctx context.Context, t time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT tenant_id FROM invoices
		WHERE status = :status
		AND invoice_status = :invoice_status
		AND due_date IS NOT NULL
		AND due_date <= :due_before`

	params := map[string]interface{}{
		"status":         types.StatusPublished,
		"invoice_status": types.InvoiceStatusIssued,
		"due_before":     t,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list tenants with overdue invoices").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var tenants []string
	for rows.Next() {
		var tenantID string
		if err := rows.Scan(&tenantID); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan tenant id").
				Mark(ierr.ErrDatabase)
		}
		tenants = append(tenants, tenantID)
	}
	return tenants, rows.Err()
}

func (r *invoiceRepository) CountDiscountRedemptions(ctx context.Context, discountID string) (int, error) {
	return r.countRedemptions(ctx, discountID, "")
}

func (r *invoiceRepository) CountDiscountRedemptionsByCustomer(ctx context.Context, discountID, customerID string) (int, error) {
	return r.countRedemptions(ctx, discountID, customerID)
}

// countRedemptions counts non-voided invoices that reference the discount on
// the invoice itself or on any of its line items
func (r *invoiceRepository) countRedemptions(ctx context.Context, discountID, customerID string) (int, error) {
	query := `
		SELECT COUNT(DISTINCT i.id) AS count
		FROM invoices i
		LEFT JOIN invoice_line_items li
			ON li.invoice_id = i.id
			AND li.tenant_id = i.tenant_id
			AND li.status = :status
			AND li.discount_id = :discount_id
		WHERE i.tenant_id = :tenant_id
		AND i.status = :status
		AND i.invoice_status != :voided
		AND (i.discount_id = :discount_id OR li.id IS NOT NULL)`

	params := map[string]interface{}{
		"discount_id": discountID,
		"tenant_id":   types.GetTenantID(ctx),
		"status":      types.StatusPublished,
		"voided":      types.InvoiceStatusVoided,
	}

	if customerID != "" {
		query += " AND i.customer_id = :customer_id"
		params["customer_id"] = customerID
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count discount redemptions").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, ierr.WithError(err).
				WithHint("Failed to scan count").
				Mark(ierr.ErrDatabase)
		}
	}
	return count, rows.Err()
}
