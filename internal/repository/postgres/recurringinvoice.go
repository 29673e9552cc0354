package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/samber/lo"

	"github.com/billora/billora/internal/domain/recurringinvoice"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/logger"
	"github.com/billora/billora/internal/postgres"
	"github.com/billora/billora/internal/types"
)

type recurringInvoiceRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewRecurringInvoiceRepository creates a new instance of recurring invoice repository
func NewRecurringInvoiceRepository(db postgres.IClient, logger *logger.Logger) recurringinvoice.Repository {
	return &recurringInvoiceRepository{
		db:     db,
		logger: logger,
	}
}

const insertRecurringItemQuery = `
	INSERT INTO recurring_invoice_items (
		id, recurring_invoice_id, description, quantity, unit_amount,
		tax_rate_id, discount_id, metadata,
		tenant_id, status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :recurring_invoice_id, :description, :quantity, :unit_amount,
		:tax_rate_id, :discount_id, :metadata,
		:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
	)`

func (r *recurringInvoiceRepository) CreateWithItems(ctx context.Context, template *recurringinvoice.RecurringInvoice) error {
	query := `
		INSERT INTO recurring_invoices (
			id, customer_id, customer_email, currency, tax_behavior, discount_id,
			description, net_terms_days, recurring_status, billing_interval,
			interval_count, day_of_month, start_date, end_date, next_billing_date,
			last_run_at, max_occurrences, occurrence_count, metadata,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :customer_id, :customer_email, :currency, :tax_behavior, :discount_id,
			:description, :net_terms_days, :recurring_status, :billing_interval,
			:interval_count, :day_of_month, :start_date, :end_date, :next_billing_date,
			:last_run_at, :max_occurrences, :occurrence_count, :metadata,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	return r.db.WithTx(ctx, func(ctx context.Context) error {
		if _, err := r.db.NamedExecContext(ctx, query, template); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to create recurring invoice").
				Mark(ierr.ErrDatabase)
		}
		for _, item := range template.Items {
			if _, err := r.db.NamedExecContext(ctx, insertRecurringItemQuery, item); err != nil {
				return ierr.WithError(err).
					WithHint("Failed to create recurring invoice item").
					Mark(ierr.ErrDatabase)
			}
		}
		return nil
	})
}

func (r *recurringInvoiceRepository) Get(ctx context.Context, id string) (*recurringinvoice.RecurringInvoice, error) {
	query := `
		SELECT * FROM recurring_invoices
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
			WithHint("Failed to query recurring invoice").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("recurring invoice not found").
			WithHint("The recurring invoice does not exist").
			WithReportableDetails(map[string]any{"id": id}).
			Mark(ierr.ErrNotFound)
	}

	var template recurringinvoice.RecurringInvoice
	if err := rows.StructScan(&template); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan recurring invoice").
			Mark(ierr.ErrDatabase)
	}
	rows.Close()

	if err := r.loadItems(ctx, []*recurringinvoice.RecurringInvoice{&template}); err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *recurringInvoiceRepository) loadItems(ctx context.Context, templates []*recurringinvoice.RecurringInvoice) error {
	if len(templates) == 0 {
		return nil
	}

	byID := make(map[string]*recurringinvoice.RecurringInvoice, len(templates))
	ids := make([]string, 0, len(templates))
	for _, t := range templates {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	query := `
		SELECT * FROM recurring_invoice_items
		WHERE recurring_invoice_id = ANY(:ids)
		AND tenant_id = :tenant_id
		AND status = :status
		ORDER BY created_at ASC, id ASC`

	params := map[string]interface{}{
		"ids":       pq.Array(ids),
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to query recurring invoice items").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	for rows.Next() {
		var item recurringinvoice.LineItem
		if err := rows.StructScan(&item); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to scan recurring invoice item").
				Mark(ierr.ErrDatabase)
		}
		if t, ok := byID[item.RecurringInvoiceID]; ok {
			t.Items = append(t.Items, &item)
		}
	}
	return rows.Err()
}

func (r *recurringInvoiceRepository) Update(ctx context.Context, template *recurringinvoice.RecurringInvoice) error {
	query := `
		UPDATE recurring_invoices
		SET
			customer_email = :customer_email,
			discount_id = :discount_id,
			description = :description,
			net_terms_days = :net_terms_days,
			recurring_status = :recurring_status,
			next_billing_date = :next_billing_date,
			last_run_at = :last_run_at,
			end_date = :end_date,
			max_occurrences = :max_occurrences,
			occurrence_count = :occurrence_count,
			metadata = :metadata,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
		AND tenant_id = :tenant_id
		AND status = 'published'`

	result, err := r.db.NamedExecContext(ctx, query, template)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update recurring invoice").
			Mark(ierr.ErrDatabase)
	}
	return requireRowAffected(result, "recurring invoice")
}

func (r *recurringInvoiceRepository) List(ctx context.Context, filter *types.RecurringInvoiceFilter) ([]*recurringinvoice.RecurringInvoice, error) {
	query, params := r.buildListQuery(ctx, "SELECT *", filter)
	query += fmt.Sprintf(" ORDER BY created_at %s", sortOrder(filter.GetOrder()))
	if !filter.IsUnlimited() {
		query += " LIMIT :limit OFFSET :offset"
		params["limit"] = filter.GetLimit()
		params["offset"] = filter.GetOffset()
	}

	templates, err := r.queryTemplates(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *recurringInvoiceRepository) Count(ctx context.Context, filter *types.RecurringInvoiceFilter) (int, error) {
	query, params := r.buildListQuery(ctx, "SELECT COUNT(*) AS count", filter)

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count recurring invoices").
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

func (r *recurringInvoiceRepository) buildListQuery(ctx context.Context, selectClause string, filter *types.RecurringInvoiceFilter) (string, map[string]interface{}) {
	query := selectClause + ` FROM recurring_invoices
		WHERE tenant_id = :tenant_id
		AND status = :status`

	params := map[string]interface{}{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	if filter.CustomerID != "" {
		query += " AND customer_id = :customer_id"
		params["customer_id"] = filter.CustomerID
	}
	if len(filter.RecurringInvoiceStatus) > 0 {
		query += " AND recurring_status = ANY(:recurring_status)"
		params["recurring_status"] = pq.Array(lo.Map(filter.RecurringInvoiceStatus, func(s types.RecurringInvoiceStatus, _ int) string {
			return string(s)
		}))
	}

	return query, params
}

func (r *recurringInvoiceRepository) ListDue(ctx context.Context, asOf time.Time) ([]*recurringinvoice.RecurringInvoice, error) {
	query := `
		SELECT * FROM recurring_invoices
		WHERE tenant_id = :tenant_id
		AND status = :status
		AND recurring_status = :recurring_status
		AND next_billing_date <= :as_of
		ORDER BY next_billing_date ASC`

	params := map[string]interface{}{
		"tenant_id":        types.GetTenantID(ctx),
		"status":           types.StatusPublished,
		"recurring_status": types.RecurringInvoiceStatusActive,
		"as_of":            asOf,
	}

	templates, err := r.queryTemplates(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *recurringInvoiceRepository) ListDueTenants(ctx context.Context, asOf time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT tenant_id FROM recurring_invoices
		WHERE status = :status
		AND recurring_status = :recurring_status
		AND next_billing_date <= :as_of`

	params := map[string]interface{}{
		"status":           types.StatusPublished,
		"recurring_status": types.RecurringInvoiceStatusActive,
		"as_of":            asOf,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list tenants with due recurring invoices").
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

func (r *recurringInvoiceRepository) queryTemplates(ctx context.Context, query string, params map[string]interface{}) ([]*recurringinvoice.RecurringInvoice, error) {
	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list recurring invoices").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var templates []*recurringinvoice.RecurringInvoice
	for rows.Next() {
		var template recurringinvoice.RecurringInvoice
		if err := rows.StructScan(&template); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan recurring invoice").
				Mark(ierr.ErrDatabase)
		}
		templates = append(templates, &template)
	}
	return templates, rows.Err()
}
