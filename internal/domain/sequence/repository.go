package sequence

import (
	"context"

	"github.com/billora/billora/internal/types"
)

type Repository interface {
	// NextValue atomically increments and returns the counter for the
	// tenant's (scope, year) pair, creating the row on first use. Callers
	// must run it inside a transaction so the reserved value is released
	// on rollback.
	NextValue(ctx context.Context, scope types.SequenceScope, year int, prefix string) (int64, error)

	// CurrentValue returns the last reserved value without locking, or
	// zero when the counter does not exist yet.
	CurrentValue(ctx context.Context, scope types.SequenceScope, year int) (int64, error)
}
