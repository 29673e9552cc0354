package sequence

import (
	"fmt"

	"github.com/billora/billora/internal/types"
)

// Sequence is a per-tenant counter scoped by document kind and calendar
// year. Counters start at zero and only ever move forward.
type Sequence struct {
	ID     string              `json:"id" db:"id"`
	Scope  types.SequenceScope `json:"scope" db:"scope"`
	Year   int                 `json:"year" db:"year"`
	Prefix string              `json:"prefix" db:"prefix"`
	Value  int64               `json:"value" db:"value"`
	types.BaseModel
}

// FormatNumber renders a document number like INV-2026-000042.
func FormatNumber(prefix string, year int, value int64) string {
	return fmt.Sprintf("%s-%d-%0*d", prefix, year, types.SequenceSuffixLength, value)
}
