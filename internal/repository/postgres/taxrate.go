package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/billora/billora/internal/domain/taxrate"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/logger"
	"github.com/billora/billora/internal/postgres"
	"github.com/billora/billora/internal/types"
)

type taxRateRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewTaxRateRepository creates a new instance of tax rate repository
func NewTaxRateRepository(db postgres.IClient, logger *logger.Logger) taxrate.Repository {
	return &taxRateRepository{
		db:     db,
		logger: logger,
	}
}

func (r *taxRateRepository) Create(ctx context.Context, rate *taxrate.TaxRate) error {
	query := `
		INSERT INTO tax_rates (
			id, name, code, description, basis_points, active, valid_from, valid_to,
			metadata, tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :name, :code, :description, :basis_points, :active, :valid_from, :valid_to,
			:metadata, :tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.NamedExecContext(ctx, query, rate); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create tax rate").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *taxRateRepository) Get(ctx context.Context, id string) (*taxrate.TaxRate, error) {
	query := `
		SELECT * FROM tax_rates
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
			WithHint("Failed to query tax rate").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("tax rate not found").
			WithHint("The tax rate does not exist").
			WithReportableDetails(map[string]any{"id": id}).
			Mark(ierr.ErrNotFound)
	}

	var rate taxrate.TaxRate
	if err := rows.StructScan(&rate); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan tax rate").
			Mark(ierr.ErrDatabase)
	}
	return &rate, nil
}

func (r *taxRateRepository) GetByCode(ctx context.Context, code string) (*taxrate.TaxRate, error) {
	query := `
		SELECT * FROM tax_rates
		WHERE code = :code
		AND tenant_id = :tenant_id
		AND status = :status`

	params := map[string]interface{}{
		"code":      code,
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query tax rate").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("tax rate not found").
			WithHint("The tax rate code does not exist").
			WithReportableDetails(map[string]any{"code": code}).
			Mark(ierr.ErrNotFound)
	}

	var rate taxrate.TaxRate
	if err := rows.StructScan(&rate); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan tax rate").
			Mark(ierr.ErrDatabase)
	}
	return &rate, nil
}

func (r *taxRateRepository) List(ctx context.Context, filter *types.TaxRateFilter) ([]*taxrate.TaxRate, error) {
	query, params := r.buildListQuery(ctx, "SELECT *", filter)
	query += fmt.Sprintf(" ORDER BY created_at %s", sortOrder(filter.GetOrder()))
	if !filter.IsUnlimited() {
		query += " LIMIT :limit OFFSET :offset"
		params["limit"] = filter.GetLimit()
		params["offset"] = filter.GetOffset()
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list tax rates").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var rates []*taxrate.TaxRate
	for rows.Next() {
		var rate taxrate.TaxRate
		if err := rows.StructScan(&rate); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan tax rate").
				Mark(ierr.ErrDatabase)
		}
		rates = append(rates, &rate)
	}
	return rates, rows.Err()
}

func (r *taxRateRepository) Count(ctx context.Context, filter *types.TaxRateFilter) (int, error) {
	query, params := r.buildListQuery(ctx, "SELECT COUNT(*) AS count", filter)

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count tax rates").
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

func (r *taxRateRepository) buildListQuery(ctx context.Context, selectClause string, filter *types.TaxRateFilter) (string, map[string]interface{}) {
	query := selectClause + ` FROM tax_rates
		WHERE tenant_id = :tenant_id
		AND status = :status`

	params := map[string]interface{}{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	if len(filter.TaxRateIDs) > 0 {
		query += " AND id = ANY(:ids)"
		params["ids"] = pq.Array(filter.TaxRateIDs)
	}
	if filter.Code != "" {
		query += " AND code = :code"
		params["code"] = filter.Code
	}
	if filter.ActiveOnly {
		query += " AND active = TRUE"
	}

	return query, params
}

func (r *taxRateRepository) Update(ctx context.Context, rate *taxrate.TaxRate) error {
	query := `
		UPDATE tax_rates
		SET
			name = :name,
			description = :description,
			basis_points = :basis_points,
			active = :active,
			valid_from = :valid_from,
			valid_to = :valid_to,
			metadata = :metadata,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
		AND tenant_id = :tenant_id
		AND status = 'published'`

	result, err := r.db.NamedExecContext(ctx, query, rate)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update tax rate").
			Mark(ierr.ErrDatabase)
	}
	return requireRowAffected(result, "tax rate")
}

func (r *taxRateRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE tax_rates
		SET status = :deleted, updated_at = NOW(), updated_by = :updated_by
		WHERE id = :id
		AND tenant_id = :tenant_id
		AND status = :status`

	params := map[string]interface{}{
		"id":         id,
		"deleted":    types.StatusDeleted,
		"updated_by": types.GetUserID(ctx),
		"tenant_id":  types.GetTenantID(ctx),
		"status":     types.StatusPublished,
	}

	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete tax rate").
			Mark(ierr.ErrDatabase)
	}
	return requireRowAffected(result, "tax rate")
}
