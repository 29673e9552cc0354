package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billora/billora/internal/api/dto"
	"github.com/billora/billora/internal/cache"
	"github.com/billora/billora/internal/domain/taxrate"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/types"
)

// TaxService owns the tax rate catalog and the tax arithmetic applied to
// invoice amounts.
type TaxService interface {
	CreateTaxRate(ctx context.Context, req dto.CreateTaxRateRequest) (*dto.TaxRateResponse, error)
	GetTaxRate(ctx context.Context, id string) (*dto.TaxRateResponse, error)
	GetTaxRateByCode(ctx context.Context, code string) (*dto.TaxRateResponse, error)
	ListTaxRates(ctx context.Context, filter *types.TaxRateFilter) (*dto.ListTaxRatesResponse, error)
	UpdateTaxRate(ctx context.Context, id string, req dto.UpdateTaxRateRequest) (*dto.TaxRateResponse, error)
	DeleteTaxRate(ctx context.Context, id string) error

	// CalculateTax computes the tax amount for a minor-unit amount.
	// Exclusive rates add tax on top; inclusive rates extract the tax
	// contained in the amount. Returns zero for a nil or inactive rate.
	CalculateTax(rate *taxrate.TaxRate, amount decimal.Decimal, behavior types.TaxBehavior, at time.Time) decimal.Decimal

	// PreTaxAmount strips an inclusive tax from a total. Returns the total
	// unchanged for a nil or zero rate.
	PreTaxAmount(total decimal.Decimal, rate *taxrate.TaxRate) decimal.Decimal
}

type taxService struct {
	ServiceParams
}

func NewTaxService(params ServiceParams) TaxService {
	return &taxService{
		ServiceParams: params,
	}
}

func (s *taxService) CreateTaxRate(ctx context.Context, req dto.CreateTaxRateRequest) (*dto.TaxRateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.TaxRateRepo.GetByCode(ctx, req.Code); err == nil && existing != nil {
		return nil, ierr.NewError("tax rate code already exists").
			WithHint("Tax rate codes must be unique per tenant").
			WithReportableDetails(map[string]any{"code": req.Code}).
			Mark(ierr.ErrAlreadyExists)
	} else if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	rate := req.ToTaxRate(ctx)
	if err := s.TaxRateRepo.Create(ctx, rate); err != nil {
		return nil, err
	}

	s.Logger.Infow("created tax rate",
		"tax_rate_id", rate.ID,
		"code", rate.Code,
		"basis_points", rate.BasisPoints,
	)

	return &dto.TaxRateResponse{TaxRate: rate}, nil
}

func (s *taxService) GetTaxRate(ctx context.Context, id string) (*dto.TaxRateResponse, error) {
	if id == "" {
		return nil, ierr.NewError("tax rate id is required").
			WithHint("Tax rate ID is required").
			Mark(ierr.ErrValidation)
	}

	rate, err := s.TaxRateRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return &dto.TaxRateResponse{TaxRate: rate}, nil
}

func (s *taxService) GetTaxRateByCode(ctx context.Context, code string) (*dto.TaxRateResponse, error) {
	if code == "" {
		return nil, ierr.NewError("tax rate code is required").
			WithHint("Tax rate code is required").
			Mark(ierr.ErrValidation)
	}

	key := cache.GenerateKey(cache.PrefixTaxRate, types.GetTenantID(ctx), code)
	if cached, ok := s.Cache.Get(ctx, key); ok {
		if rate, ok := cached.(*taxrate.TaxRate); ok {
			return &dto.TaxRateResponse{TaxRate: rate}, nil
		}
	}

	rate, err := s.TaxRateRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, key, rate, cache.DefaultExpiration)
	return &dto.TaxRateResponse{TaxRate: rate}, nil
}

func (s *taxService) ListTaxRates(ctx context.Context, filter *types.TaxRateFilter) (*dto.ListTaxRatesResponse, error) {
	if filter == nil {
		filter = types.NewTaxRateFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	rates, err := s.TaxRateRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.TaxRateRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.TaxRateResponse, len(rates))
	for i, rate := range rates {
		items[i] = &dto.TaxRateResponse{TaxRate: rate}
	}

	return &dto.ListTaxRatesResponse{
		Items: items,
		Pagination: types.NewPaginationResponse(total, filter.GetLimit(), filter.GetOffset()),
	}, nil
}

func (s *taxService) UpdateTaxRate(ctx context.Context, id string, req dto.UpdateTaxRateRequest) (*dto.TaxRateResponse, error) {
	rate, err := s.TaxRateRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		rate.Name = *req.Name
	}
	if req.Description != nil {
		rate.Description = *req.Description
	}
	if req.Active != nil {
		rate.Active = *req.Active
	}
	if req.ValidFrom != nil {
		rate.ValidFrom = req.ValidFrom
	}
	if req.ValidTo != nil {
		rate.ValidTo = req.ValidTo
	}
	if req.Metadata != nil {
		rate.Metadata = req.Metadata
	}
	rate.UpdatedAt = time.Now().UTC()
	rate.UpdatedBy = types.GetUserID(ctx)

	if err := s.TaxRateRepo.Update(ctx, rate); err != nil {
		return nil, err
	}

	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixTaxRate, types.GetTenantID(ctx), rate.Code))

	return &dto.TaxRateResponse{TaxRate: rate}, nil
}

func (s *taxService) DeleteTaxRate(ctx context.Context, id string) error {
	rate, err := s.TaxRateRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.TaxRateRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixTaxRate, types.GetTenantID(ctx), rate.Code))
	return nil
}

func (s *taxService) CalculateTax(rate *taxrate.TaxRate, amount decimal.Decimal, behavior types.TaxBehavior, at time.Time) decimal.Decimal {
	if rate == nil || !rate.IsActiveAt(at) {
		return decimal.Zero
	}
	if amount.IsNegative() || rate.BasisPoints == 0 {
		return decimal.Zero
	}

	bp := decimal.NewFromInt(rate.BasisPoints)
	den := decimal.NewFromInt(types.BasisPointsDenominator)

	if behavior == types.TaxBehaviorInclusive {
		// tax contained in the amount: amount * bp / (10000 + bp)
		return amount.Mul(bp).Div(den.Add(bp)).Round(0)
	}

	// tax on top of the amount: amount * bp / 10000
	return amount.Mul(bp).Div(den).Round(0)
}

func (s *taxService) PreTaxAmount(total decimal.Decimal, rate *taxrate.TaxRate) decimal.Decimal {
	if rate == nil || rate.BasisPoints == 0 {
		return total
	}

	bp := decimal.NewFromInt(rate.BasisPoints)
	den := decimal.NewFromInt(types.BasisPointsDenominator)

	return total.Mul(den).Div(den.Add(bp)).Round(0)
}
