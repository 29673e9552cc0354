package types

import (
	ierr "github.com/billora/billora/internal/errors"
	"github.com/samber/lo"
)

// SequenceScope is a namespace under which numbering is independently counted
type SequenceScope string

const (
	SequenceScopeInvoice    SequenceScope = "invoice"
	SequenceScopeCreditNote SequenceScope = "credit_note"
)

func (s SequenceScope) String() string {
	return string(s)
}

func (s SequenceScope) Validate() error {
	allowed := []SequenceScope{
		SequenceScopeInvoice,
		SequenceScopeCreditNote,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid sequence scope").
			WithHint("Please provide a valid sequence scope").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

const (
	// SequenceSuffixLength is the zero-padded width of the numeric part of a
	// generated number, e.g. INV-2026-000042
	SequenceSuffixLength = 6
)
