package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/billora/billora/internal/domain/discount"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/logger"
	"github.com/billora/billora/internal/postgres"
	"github.com/billora/billora/internal/types"
)

type discountRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewDiscountRepository creates a new instance of discount repository
func NewDiscountRepository(db postgres.IClient, logger *logger.Logger) discount.Repository {
	return &discountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *discountRepository) Create(ctx context.Context, d *discount.Discount) error {
	query := `
		INSERT INTO discounts (
			id, code, name, type, value, currency, active, valid_from, valid_to,
			min_amount, max_redemptions, max_redemptions_per_customer, metadata,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :code, :name, :type, :value, :currency, :active, :valid_from, :valid_to,
			:min_amount, :max_redemptions, :max_redemptions_per_customer, :metadata,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create discount").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *discountRepository) Get(ctx context.Context, id string) (*discount.Discount, error) {
	return r.getOne(ctx, "id", id)
}

func (r *discountRepository) GetByCode(ctx context.Context, code string) (*discount.Discount, error) {
	return r.getOne(ctx, "code", code)
}

func (r *discountRepository) getOne(ctx context.Context, column, value string) (*discount.Discount, error) {
	query := fmt.Sprintf(`
		SELECT * FROM discounts
		WHERE %s = :value
		AND tenant_id = :tenant_id
		AND status = :status`, column)

	params := map[string]interface{}{
		"value":     value,
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query discount").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("discount not found").
			WithHint("The discount does not exist").
			WithReportableDetails(map[string]any{column: value}).
			Mark(ierr.ErrNotFound)
	}

	var d discount.Discount
	if err := rows.StructScan(&d); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan discount").
			Mark(ierr.ErrDatabase)
	}
	return &d, nil
}

func (r *discountRepository) List(ctx context.Context, filter *types.DiscountFilter) ([]*discount.Discount, error) {
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
			WithHint("Failed to list discounts").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var discounts []*discount.Discount
	for rows.Next() {
		var d discount.Discount
		if err := rows.StructScan(&d); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan discount").
				Mark(ierr.ErrDatabase)
		}
		discounts = append(discounts, &d)
	}
	return discounts, rows.Err()
}

func (r *discountRepository) Count(ctx context.Context, filter *types.DiscountFilter) (int, error) {
	query, params := r.buildListQuery(ctx, "SELECT COUNT(*) AS count", filter)

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count discounts").
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

func (r *discountRepository) buildListQuery(ctx context.Context, selectClause string, filter *types.DiscountFilter) (string, map[string]interface{}) {
	query := selectClause + ` FROM discounts
		WHERE tenant_id = :tenant_id
		AND status = :status`

	params := map[string]interface{}{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	if len(filter.DiscountIDs) > 0 {
		query += " AND id = ANY(:ids)"
		params["ids"] = pq.Array(filter.DiscountIDs)
	}
	if filter.Code != "" {
		query += " AND code = :code"
		params["code"] = filter.Code
	}

	return query, params
}

func (r *discountRepository) Update(ctx context.Context, d *discount.Discount) error {
	query := `
		UPDATE discounts
		SET
			name = :name,
			value = :value,
			currency = :currency,
			active = :active,
			valid_from = :valid_from,
			valid_to = :valid_to,
			min_amount = :min_amount,
			max_redemptions = :max_redemptions,
			max_redemptions_per_customer = :max_redemptions_per_customer,
			metadata = :metadata,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
		AND tenant_id = :tenant_id
		AND status = 'published'`

	result, err := r.db.NamedExecContext(ctx, query, d)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update discount").
			Mark(ierr.ErrDatabase)
	}
	return requireRowAffected(result, "discount")
}

func (r *discountRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE discounts
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
			WithHint("Failed to delete discount").
			Mark(ierr.ErrDatabase)
	}
	return requireRowAffected(result, "discount")
}
