package testutil

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/logger"
	"github.com/billora/billora/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil)

// MockPostgresClient is a mock implementation of postgres client for testing.
// Transactions execute the callback directly; services under test use the
// in-memory stores for persistence, so no SQL ever runs.
type MockPostgresClient struct {
	logger *logger.Logger
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) postgres.IClient {
	return &MockPostgresClient{
		logger: logger,
	}
}

// WithTx executes the given function without a real transaction. After-commit
// hooks still honor nesting: only the outermost call flushes them, and only
// when the callback succeeds.
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	ctx, hooks := postgres.InstallTxHooks(ctx)
	if err := fn(ctx); err != nil {
		return err
	}
	if hooks != nil {
		hooks.Run()
	}
	return nil
}

func (c *MockPostgresClient) Querier(ctx context.Context) postgres.Querier {
	return nil
}

func (c *MockPostgresClient) NamedQueryContext(ctx context.Context, query string, arg interface{}) (*sqlx.Rows, error) {
	return nil, ierr.NewError("raw queries are not supported by the mock client").
		Mark(ierr.ErrSystem)
}

func (c *MockPostgresClient) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	return nil, ierr.NewError("raw queries are not supported by the mock client").
		Mark(ierr.ErrSystem)
}
