package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billora/billora/internal/api/dto"
	"github.com/billora/billora/internal/cache"
	"github.com/billora/billora/internal/domain/discount"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/types"
)

// DiscountService owns the discount catalog, redemption validation and the
// discount arithmetic applied to invoice amounts.
type DiscountService interface {
	CreateDiscount(ctx context.Context, req dto.CreateDiscountRequest) (*dto.DiscountResponse, error)
	GetDiscount(ctx context.Context, id string) (*dto.DiscountResponse, error)
	GetDiscountByCode(ctx context.Context, code string) (*dto.DiscountResponse, error)
	ListDiscounts(ctx context.Context, filter *types.DiscountFilter) (*dto.ListDiscountsResponse, error)
	DeleteDiscount(ctx context.Context, id string) error

	// CalculateDiscount computes the deduction a discount yields on a
	// minor-unit amount. Zero when the discount is nil, not redeemable,
	// the amount is below its minimum, or a fixed discount's currency
	// does not match.
	CalculateDiscount(ctx context.Context, d *discount.Discount, amount decimal.Decimal, currency, customerID string, at time.Time) decimal.Decimal

	// IsValid reports whether the discount is redeemable at the given
	// instant, including redemption caps derived from invoice history.
	// The second return value carries the rejection reason.
	IsValid(ctx context.Context, d *discount.Discount, customerID string, at time.Time) (bool, string)

	// ValidateCode resolves a code and reports whether it can be redeemed
	// against the given amount, with the deduction it would yield.
	ValidateCode(ctx context.Context, req dto.ValidateDiscountRequest) (*dto.ValidateDiscountResponse, error)
}

type discountService struct {
	ServiceParams
}

func NewDiscountService(params ServiceParams) DiscountService {
	return &discountService{
		ServiceParams: params,
	}
}

func (s *discountService) CreateDiscount(ctx context.Context, req dto.CreateDiscountRequest) (*dto.DiscountResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.DiscountRepo.GetByCode(ctx, req.Code); err == nil && existing != nil {
		return nil, ierr.NewError("discount code already exists").
			WithHint("Discount codes must be unique per tenant").
			WithReportableDetails(map[string]any{"code": req.Code}).
			Mark(ierr.ErrAlreadyExists)
	} else if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	d := req.ToDiscount(ctx)
	if err := s.DiscountRepo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.Logger.Infow("created discount",
		"discount_id", d.ID,
		"code", d.Code,
		"type", d.Type,
	)

	return &dto.DiscountResponse{Discount: d}, nil
}

func (s *discountService) GetDiscount(ctx context.Context, id string) (*dto.DiscountResponse, error) {
	if id == "" {
		return nil, ierr.NewError("discount id is required").
			WithHint("Discount ID is required").
			Mark(ierr.ErrValidation)
	}

	d, err := s.DiscountRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return &dto.DiscountResponse{Discount: d}, nil
}

func (s *discountService) GetDiscountByCode(ctx context.Context, code string) (*dto.DiscountResponse, error) {
	if code == "" {
		return nil, ierr.NewError("discount code is required").
			WithHint("Discount code is required").
			Mark(ierr.ErrValidation)
	}

	key := cache.GenerateKey(cache.PrefixDiscount, types.GetTenantID(ctx), code)
	if cached, ok := s.Cache.Get(ctx, key); ok {
		if d, ok := cached.(*discount.Discount); ok {
			return &dto.DiscountResponse{Discount: d}, nil
		}
	}

	d, err := s.DiscountRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, key, d, cache.DefaultExpiration)
	return &dto.DiscountResponse{Discount: d}, nil
}

func (s *discountService) ListDiscounts(ctx context.Context, filter *types.DiscountFilter) (*dto.ListDiscountsResponse, error) {
	if filter == nil {
		filter = types.NewDiscountFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	discounts, err := s.DiscountRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.DiscountRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.DiscountResponse, len(discounts))
	for i, d := range discounts {
		items[i] = &dto.DiscountResponse{Discount: d}
	}

	return &dto.ListDiscountsResponse{
		Items:      items,
		Pagination: types.NewPaginationResponse(total, filter.GetLimit(), filter.GetOffset()),
	}, nil
}

func (s *discountService) DeleteDiscount(ctx context.Context, id string) error {
	d, err := s.DiscountRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.DiscountRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixDiscount, types.GetTenantID(ctx), d.Code))
	return nil
}

func (s *discountService) CalculateDiscount(ctx context.Context, d *discount.Discount, amount decimal.Decimal, currency, customerID string, at time.Time) decimal.Decimal {
	if d == nil || amount.IsNegative() || amount.IsZero() {
		return decimal.Zero
	}

	if valid, reason := s.IsValid(ctx, d, customerID, at); !valid {
		s.Logger.Debugw("discount not applied",
			"discount_id", d.ID,
			"reason", reason,
		)
		return decimal.Zero
	}

	if d.MinAmount != nil && amount.LessThan(*d.MinAmount) {
		return decimal.Zero
	}

	switch d.Type {
	case types.DiscountTypePercent:
		return amount.Mul(d.Value).Div(decimal.NewFromInt(100)).Round(0)
	case types.DiscountTypeFixed:
		if d.Currency != currency {
			return decimal.Zero
		}
		return decimal.Min(d.Value, amount)
	}

	return decimal.Zero
}

func (s *discountService) IsValid(ctx context.Context, d *discount.Discount, customerID string, at time.Time) (bool, string) {
	if d == nil {
		return false, "discount not found"
	}
	if !d.Active {
		return false, "discount is inactive"
	}
	if d.ValidFrom != nil && d.ValidFrom.After(at) {
		return false, "discount is not yet valid"
	}
	if d.ValidTo != nil && d.ValidTo.Before(at) {
		return false, "discount has expired"
	}

	if d.MaxRedemptions != nil {
		count, err := s.InvoiceRepo.CountDiscountRedemptions(ctx, d.ID)
		if err != nil {
			s.Logger.Errorw("failed to count discount redemptions",
				"error", err,
				"discount_id", d.ID,
			)
			return false, "redemption count unavailable"
		}
		if count >= *d.MaxRedemptions {
			return false, "discount redemption limit reached"
		}
	}

	if d.MaxRedemptionsPerCustomer != nil && customerID != "" {
		count, err := s.InvoiceRepo.CountDiscountRedemptionsByCustomer(ctx, d.ID, customerID)
		if err != nil {
			s.Logger.Errorw("failed to count customer discount redemptions",
				"error", err,
				"discount_id", d.ID,
				"customer_id", customerID,
			)
			return false, "redemption count unavailable"
		}
		if count >= *d.MaxRedemptionsPerCustomer {
			return false, "customer redemption limit reached"
		}
	}

	return true, ""
}

func (s *discountService) ValidateCode(ctx context.Context, req dto.ValidateDiscountRequest) (*dto.ValidateDiscountResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	d, err := s.DiscountRepo.GetByCode(ctx, req.Code)
	if err != nil {
		if ierr.IsNotFound(err) {
			return &dto.ValidateDiscountResponse{
				Valid:          false,
				Reason:         "discount not found",
				DiscountAmount: decimal.Zero,
			}, nil
		}
		return nil, err
	}

	now := time.Now().UTC()
	if valid, reason := s.IsValid(ctx, d, req.CustomerID, now); !valid {
		return &dto.ValidateDiscountResponse{
			Valid:          false,
			Reason:         reason,
			DiscountAmount: decimal.Zero,
		}, nil
	}

	if d.MinAmount != nil && req.Amount.LessThan(*d.MinAmount) {
		return &dto.ValidateDiscountResponse{
			Valid:          false,
			Reason:         "amount is below the discount minimum",
			DiscountAmount: decimal.Zero,
		}, nil
	}

	if d.Type == types.DiscountTypeFixed && req.Currency != "" && d.Currency != req.Currency {
		return &dto.ValidateDiscountResponse{
			Valid:          false,
			Reason:         "discount currency does not match",
			DiscountAmount: decimal.Zero,
		}, nil
	}

	amount := s.CalculateDiscount(ctx, d, req.Amount, req.Currency, req.CustomerID, now)

	return &dto.ValidateDiscountResponse{
		Valid:          true,
		DiscountAmount: amount,
		Discount:       &dto.DiscountResponse{Discount: d},
	}, nil
}
