package service

import (
	"context"
	"time"

	"github.com/billora/billora/internal/domain/sequence"
	"github.com/billora/billora/internal/types"
)

// NumberingService hands out gapless per-tenant document numbers, counted
// independently per scope and calendar year.
type NumberingService interface {
	// ReserveNumber atomically reserves and returns the next number for
	// the scope, e.g. INV-2026-000042. Safe under concurrency: the counter
	// row is locked for the duration of the surrounding transaction.
	ReserveNumber(ctx context.Context, scope types.SequenceScope) (string, error)

	// PreviewNextNumber returns the number ReserveNumber would most likely
	// produce, without reserving it. Best effort only: a concurrent
	// reservation can make the preview stale.
	PreviewNextNumber(ctx context.Context, scope types.SequenceScope) (string, error)
}

type numberingService struct {
	ServiceParams
}

func NewNumberingService(params ServiceParams) NumberingService {
	return &numberingService{
		ServiceParams: params,
	}
}

func (s *numberingService) ReserveNumber(ctx context.Context, scope types.SequenceScope) (string, error) {
	if err := scope.Validate(); err != nil {
		return "", err
	}

	prefix := s.prefixFor(scope)
	year := time.Now().UTC().Year()

	var number string
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		value, err := s.SequenceRepo.NextValue(ctx, scope, year, prefix)
		if err != nil {
			return err
		}
		number = sequence.FormatNumber(prefix, year, value)
		return nil
	})
	if err != nil {
		return "", err
	}

	s.Logger.Debugw("reserved document number",
		"scope", scope,
		"number", number,
	)

	return number, nil
}

func (s *numberingService) PreviewNextNumber(ctx context.Context, scope types.SequenceScope) (string, error) {
	if err := scope.Validate(); err != nil {
		return "", err
	}

	prefix := s.prefixFor(scope)
	year := time.Now().UTC().Year()

	value, err := s.SequenceRepo.CurrentValue(ctx, scope, year)
	if err != nil {
		return "", err
	}

	return sequence.FormatNumber(prefix, year, value+1), nil
}

func (s *numberingService) prefixFor(scope types.SequenceScope) string {
	switch scope {
	case types.SequenceScopeCreditNote:
		return s.Config.Invoice.CreditNotePrefix
	default:
		return s.Config.Invoice.NumberPrefix
	}
}
