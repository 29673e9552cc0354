package postgres

import (
	"database/sql"
	"fmt"
	"strings"

	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/types"
)

// sortOrder normalizes the filter order into a SQL keyword
func sortOrder(order string) string {
	if strings.EqualFold(order, types.OrderAsc) {
		return "ASC"
	}
	return "DESC"
}

// requireRowAffected converts a zero-row update into a not found error,
// which covers rows owned by another tenant or already deleted
func requireRowAffected(result sql.Result, entity string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to read affected rows").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError(fmt.Sprintf("%s not found", entity)).
			WithHint(fmt.Sprintf("The %s does not exist", entity)).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
