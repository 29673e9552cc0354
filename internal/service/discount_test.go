package service

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/billora/billora/internal/api/dto"
	"github.com/billora/billora/internal/domain/discount"
	"github.com/billora/billora/internal/domain/invoice"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/testutil"
	"github.com/billora/billora/internal/types"
)

type DiscountServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  DiscountService
	testData struct {
		discounts struct {
			tenPercent *discount.Discount
			fixed500   *discount.Discount
			inactive   *discount.Discount
			expired    *discount.Discount
			capped     *discount.Discount
		}
		now time.Time
	}
}

func TestDiscountService(t *testing.T) {
	suite.Run(t, new(DiscountServiceSuite))
}

func (s *DiscountServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *DiscountServiceSuite) setupService() {
	s.service = NewDiscountService(ServiceParams{
		Logger:               s.GetLogger(),
		Config:               s.GetConfig(),
		DB:                   s.GetDB(),
		Cache:                s.GetCache(),
		PDFGenerator:         s.GetPDFGenerator(),
		InvoiceRepo:          s.GetStores().InvoiceRepo,
		TaxRateRepo:          s.GetStores().TaxRateRepo,
		DiscountRepo:         s.GetStores().DiscountRepo,
		SequenceRepo:         s.GetStores().SequenceRepo,
		RecurringInvoiceRepo: s.GetStores().RecurringInvoiceRepo,
		WebhookPublisher:     s.GetWebhookPublisher(),
	})
}

func (s *DiscountServiceSuite) newDiscount(code string, dType types.DiscountType, value int64, mutate func(*discount.Discount)) *discount.Discount {
	d := &discount.Discount{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DISCOUNT),
		Code:      code,
		Name:      code,
		Type:      dType,
		Value:     decimal.NewFromInt(value),
		Active:    true,
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	if dType == types.DiscountTypeFixed {
		d.Currency = "USD"
	}
	if mutate != nil {
		mutate(d)
	}
	s.NoError(s.GetStores().DiscountRepo.Create(s.GetContext(), d))
	return d
}

func (s *DiscountServiceSuite) setupTestData() {
	s.testData.now = s.GetNow()

	s.testData.discounts.tenPercent = s.newDiscount("SAVE10", types.DiscountTypePercent, 10, nil)
	s.testData.discounts.fixed500 = s.newDiscount("FLAT500", types.DiscountTypeFixed, 500, nil)
	s.testData.discounts.inactive = s.newDiscount("DISABLED", types.DiscountTypePercent, 10, func(d *discount.Discount) {
		d.Active = false
	})
	s.testData.discounts.expired = s.newDiscount("EXPIRED", types.DiscountTypePercent, 10, func(d *discount.Discount) {
		d.ValidTo = lo.ToPtr(s.testData.now.AddDate(0, -1, 0))
	})
	s.testData.discounts.capped = s.newDiscount("CAPPED", types.DiscountTypePercent, 10, func(d *discount.Discount) {
		d.MaxRedemptions = lo.ToPtr(1)
		d.MaxRedemptionsPerCustomer = lo.ToPtr(1)
	})
}

// seedRedemption records an issued invoice referencing the discount so the
// redemption counters see it.
func (s *DiscountServiceSuite) seedRedemption(d *discount.Discount, customerID string) {
	inv := invoice.New(
		types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		customerID,
		"USD",
		types.TaxBehaviorExclusive,
		types.GetDefaultBaseModel(s.GetContext()),
	)
	inv.InvoiceStatus = types.InvoiceStatusIssued
	inv.DiscountID = lo.ToPtr(d.ID)
	s.NoError(s.GetStores().InvoiceRepo.CreateWithLineItems(s.GetContext(), inv))
}

func (s *DiscountServiceSuite) TestCalculateDiscountPercent() {
	tests := []struct {
		name     string
		amount   int64
		expected int64
	}{
		{"10 percent of 1000", 1000, 100},
		{"rounds half up", 105, 11},
		{"rounds down", 104, 10},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			got := s.service.CalculateDiscount(
				s.GetContext(), s.testData.discounts.tenPercent,
				decimal.NewFromInt(tt.amount), "USD", "cust_1", s.testData.now)
			s.True(decimal.NewFromInt(tt.expected).Equal(got), "expected %d, got %s", tt.expected, got)
		})
	}
}

func (s *DiscountServiceSuite) TestCalculateDiscountFixed() {
	got := s.service.CalculateDiscount(
		s.GetContext(), s.testData.discounts.fixed500,
		decimal.NewFromInt(1000), "USD", "cust_1", s.testData.now)
	s.True(decimal.NewFromInt(500).Equal(got), "got %s", got)

	// capped at the base amount
	got = s.service.CalculateDiscount(
		s.GetContext(), s.testData.discounts.fixed500,
		decimal.NewFromInt(300), "USD", "cust_1", s.testData.now)
	s.True(decimal.NewFromInt(300).Equal(got), "got %s", got)

	// currency mismatch yields nothing
	got = s.service.CalculateDiscount(
		s.GetContext(), s.testData.discounts.fixed500,
		decimal.NewFromInt(1000), "EUR", "cust_1", s.testData.now)
	s.True(got.IsZero(), "got %s", got)
}

func (s *DiscountServiceSuite) TestCalculateDiscountMinAmount() {
	d := s.newDiscount("MIN1000", types.DiscountTypePercent, 10, func(d *discount.Discount) {
		d.MinAmount = lo.ToPtr(decimal.NewFromInt(1000))
	})

	got := s.service.CalculateDiscount(s.GetContext(), d, decimal.NewFromInt(999), "USD", "cust_1", s.testData.now)
	s.True(got.IsZero(), "got %s", got)

	got = s.service.CalculateDiscount(s.GetContext(), d, decimal.NewFromInt(1000), "USD", "cust_1", s.testData.now)
	s.True(decimal.NewFromInt(100).Equal(got), "got %s", got)
}

func (s *DiscountServiceSuite) TestCalculateDiscountInapplicable() {
	amount := decimal.NewFromInt(1000)

	s.True(s.service.CalculateDiscount(s.GetContext(), nil, amount, "USD", "cust_1", s.testData.now).IsZero())
	s.True(s.service.CalculateDiscount(s.GetContext(), s.testData.discounts.inactive, amount, "USD", "cust_1", s.testData.now).IsZero())
	s.True(s.service.CalculateDiscount(s.GetContext(), s.testData.discounts.expired, amount, "USD", "cust_1", s.testData.now).IsZero())
	s.True(s.service.CalculateDiscount(s.GetContext(), s.testData.discounts.tenPercent, decimal.Zero, "USD", "cust_1", s.testData.now).IsZero())
}

func (s *DiscountServiceSuite) TestIsValidWindow() {
	future := s.newDiscount("SOON", types.DiscountTypePercent, 10, func(d *discount.Discount) {
		d.ValidFrom = lo.ToPtr(s.testData.now.AddDate(0, 1, 0))
	})

	valid, reason := s.service.IsValid(s.GetContext(), future, "cust_1", s.testData.now)
	s.False(valid)
	s.Equal("discount is not yet valid", reason)

	valid, _ = s.service.IsValid(s.GetContext(), future, "cust_1", s.testData.now.AddDate(0, 2, 0))
	s.True(valid)

	valid, reason = s.service.IsValid(s.GetContext(), s.testData.discounts.expired, "cust_1", s.testData.now)
	s.False(valid)
	s.Equal("discount has expired", reason)
}

func (s *DiscountServiceSuite) TestIsValidRedemptionCap() {
	valid, _ := s.service.IsValid(s.GetContext(), s.testData.discounts.capped, "cust_1", s.testData.now)
	s.True(valid)

	s.seedRedemption(s.testData.discounts.capped, "cust_2")

	valid, reason := s.service.IsValid(s.GetContext(), s.testData.discounts.capped, "cust_1", s.testData.now)
	s.False(valid)
	s.Equal("discount redemption limit reached", reason)
}

func (s *DiscountServiceSuite) TestIsValidPerCustomerCap() {
	d := s.newDiscount("ONCEEACH", types.DiscountTypePercent, 10, func(d *discount.Discount) {
		d.MaxRedemptionsPerCustomer = lo.ToPtr(1)
	})

	s.seedRedemption(d, "cust_1")

	valid, reason := s.service.IsValid(s.GetContext(), d, "cust_1", s.testData.now)
	s.False(valid)
	s.Equal("customer redemption limit reached", reason)

	// a different customer is still allowed
	valid, _ = s.service.IsValid(s.GetContext(), d, "cust_2", s.testData.now)
	s.True(valid)
}

func (s *DiscountServiceSuite) TestCreateDiscount() {
	resp, err := s.service.CreateDiscount(s.GetContext(), dto.CreateDiscountRequest{
		Code:  "WELCOME20",
		Name:  "Welcome discount",
		Type:  types.DiscountTypePercent,
		Value: decimal.NewFromInt(20),
	})
	s.NoError(err)
	s.Equal("WELCOME20", resp.Code)
	s.True(resp.Active)
}

func (s *DiscountServiceSuite) TestCreateDiscountDuplicateCode() {
	_, err := s.service.CreateDiscount(s.GetContext(), dto.CreateDiscountRequest{
		Code:  "SAVE10",
		Type:  types.DiscountTypePercent,
		Value: decimal.NewFromInt(15),
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *DiscountServiceSuite) TestValidateCode() {
	resp, err := s.service.ValidateCode(s.GetContext(), dto.ValidateDiscountRequest{
		Code:     "SAVE10",
		Amount:   decimal.NewFromInt(1000),
		Currency: "USD",
	})
	s.NoError(err)
	s.True(resp.Valid)
	s.True(decimal.NewFromInt(100).Equal(resp.DiscountAmount), "got %s", resp.DiscountAmount)
	s.NotNil(resp.Discount)
}

func (s *DiscountServiceSuite) TestValidateCodeRejections() {
	tests := []struct {
		name   string
		code   string
		reason string
	}{
		{"unknown code", "NOPE", "discount not found"},
		{"inactive", "DISABLED", "discount is inactive"},
		{"expired", "EXPIRED", "discount has expired"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp, err := s.service.ValidateCode(s.GetContext(), dto.ValidateDiscountRequest{
				Code:     tt.code,
				Amount:   decimal.NewFromInt(1000),
				Currency: "USD",
			})
			s.NoError(err)
			s.False(resp.Valid)
			s.Equal(tt.reason, resp.Reason)
			s.True(resp.DiscountAmount.IsZero())
		})
	}
}

func (s *DiscountServiceSuite) TestDeleteDiscount() {
	err := s.service.DeleteDiscount(s.GetContext(), s.testData.discounts.tenPercent.ID)
	s.NoError(err)

	_, err = s.service.GetDiscount(s.GetContext(), s.testData.discounts.tenPercent.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *DiscountServiceSuite) TestListDiscounts() {
	resp, err := s.service.ListDiscounts(s.GetContext(), nil)
	s.NoError(err)
	s.Len(resp.Items, 5)
	s.Equal(5, resp.Pagination.Total)

	resp, err = s.service.ListDiscounts(s.GetContext(), &types.DiscountFilter{
		QueryFilter: types.NewDefaultQueryFilter(),
		Code:        "FLAT500",
	})
	s.NoError(err)
	s.Len(resp.Items, 1)
	s.Equal(s.testData.discounts.fixed500.ID, resp.Items[0].ID)
}
