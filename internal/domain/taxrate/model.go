package taxrate

import (
	"time"

	"github.com/billora/billora/internal/types"
)

// TaxRate represents a percentage tax rate with basis-point precision
// (1 bp = 0.01%) and an optional validity window.
type TaxRate struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Code        string `json:"code" db:"code"`
	Description string `json:"description,omitempty" db:"description"`

	// BasisPoints is the tax percentage in basis points, e.g. 2000 = 20%
	BasisPoints int64 `json:"basis_points" db:"basis_points"`

	Active    bool       `json:"active" db:"active"`
	ValidFrom *time.Time `json:"valid_from,omitempty" db:"valid_from"`
	ValidTo   *time.Time `json:"valid_to,omitempty" db:"valid_to"`

	Metadata types.Metadata `json:"metadata,omitempty" db:"metadata"`
	types.BaseModel
}

// IsActiveAt reports whether the rate applies at the given instant,
// honoring the active flag and the validity window.
func (t *TaxRate) IsActiveAt(at time.Time) bool {
	if t == nil || !t.Active {
		return false
	}
	if t.ValidFrom != nil && t.ValidFrom.After(at) {
		return false
	}
	if t.ValidTo != nil && t.ValidTo.Before(at) {
		return false
	}
	return true
}
