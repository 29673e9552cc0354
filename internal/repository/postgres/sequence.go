package postgres

import (
	"context"
	"time"

	"github.com/billora/billora/internal/domain/sequence"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/logger"
	"github.com/billora/billora/internal/postgres"
	"github.com/billora/billora/internal/types"
)

type sequenceRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewSequenceRepository creates a new instance of sequence repository
func NewSequenceRepository(db postgres.IClient, logger *logger.Logger) sequence.Repository {
	return &sequenceRepository{
		db:     db,
		logger: logger,
	}
}

// NextValue increments the (tenant, scope, year) counter under a row lock.
// The insert seeds the counter at zero on first use; ON CONFLICT makes the
// seed a no-op when two transactions race on the first number.
func (r *sequenceRepository) NextValue(ctx context.Context, scope types.SequenceScope, year int, prefix string) (int64, error) {
	now := time.Now().UTC()
	seedParams := map[string]interface{}{
		"id":         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SEQUENCE),
		"scope":      scope,
		"year":       year,
		"prefix":     prefix,
		"tenant_id":  types.GetTenantID(ctx),
		"status":     types.StatusPublished,
		"created_at": now,
		"updated_at": now,
		"created_by": types.GetUserID(ctx),
		"updated_by": types.GetUserID(ctx),
	}

	seedQuery := `
		INSERT INTO sequences (
			id, scope, year, prefix, value,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :scope, :year, :prefix, 0,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)
		ON CONFLICT (tenant_id, scope, year) DO NOTHING`

	if _, err := r.db.NamedExecContext(ctx, seedQuery, seedParams); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to initialize sequence").
			Mark(ierr.ErrDatabase)
	}

	params := map[string]interface{}{
		"scope":      scope,
		"year":       year,
		"tenant_id":  types.GetTenantID(ctx),
		"updated_at": now,
		"updated_by": types.GetUserID(ctx),
	}

	query := `
		UPDATE sequences
		SET value = value + 1, updated_at = :updated_at, updated_by = :updated_by
		WHERE tenant_id = :tenant_id
		AND scope = :scope
		AND year = :year
		RETURNING value`

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to increment sequence").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return 0, ierr.NewError("sequence row missing after seed").
			WithReportableDetails(map[string]any{"scope": scope, "year": year}).
			Mark(ierr.ErrDatabase)
	}

	var value int64
	if err := rows.Scan(&value); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to scan sequence value").
			Mark(ierr.ErrDatabase)
	}
	return value, rows.Err()
}

func (r *sequenceRepository) CurrentValue(ctx context.Context, scope types.SequenceScope, year int) (int64, error) {
	query := `
		SELECT value FROM sequences
		WHERE tenant_id = :tenant_id
		AND scope = :scope
		AND year = :year`

	params := map[string]interface{}{
		"scope":     scope,
		"year":      year,
		"tenant_id": types.GetTenantID(ctx),
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to query sequence").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return 0, nil
	}

	var value int64
	if err := rows.Scan(&value); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to scan sequence value").
			Mark(ierr.ErrDatabase)
	}
	return value, rows.Err()
}
