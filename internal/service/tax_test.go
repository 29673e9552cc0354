package service

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/billora/billora/internal/api/dto"
	"github.com/billora/billora/internal/domain/taxrate"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/testutil"
	"github.com/billora/billora/internal/types"
)

type TaxServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  TaxService
	testData struct {
		taxRates struct {
			vat         *taxrate.TaxRate
			gst         *taxrate.TaxRate
			inactive    *taxrate.TaxRate
			expired     *taxrate.TaxRate
			zeroPercent *taxrate.TaxRate
		}
		now time.Time
	}
}

func TestTaxService(t *testing.T) {
	suite.Run(t, new(TaxServiceSuite))
}

func (s *TaxServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *TaxServiceSuite) setupService() {
	s.service = NewTaxService(ServiceParams{
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

func (s *TaxServiceSuite) setupTestData() {
	s.testData.now = s.GetNow()

	s.testData.taxRates.vat = &taxrate.TaxRate{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TAX_RATE),
		Name:        "VAT 20%",
		Code:        "VAT20",
		BasisPoints: 2000,
		Active:      true,
		BaseModel:   types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().TaxRateRepo.Create(s.GetContext(), s.testData.taxRates.vat))

	s.testData.taxRates.gst = &taxrate.TaxRate{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TAX_RATE),
		Name:        "GST 5%",
		Code:        "GST5",
		BasisPoints: 500,
		Active:      true,
		BaseModel:   types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().TaxRateRepo.Create(s.GetContext(), s.testData.taxRates.gst))

	s.testData.taxRates.inactive = &taxrate.TaxRate{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TAX_RATE),
		Name:        "Disabled",
		Code:        "DISABLED",
		BasisPoints: 1000,
		Active:      false,
		BaseModel:   types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().TaxRateRepo.Create(s.GetContext(), s.testData.taxRates.inactive))

	s.testData.taxRates.expired = &taxrate.TaxRate{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TAX_RATE),
		Name:        "Old VAT",
		Code:        "VAT_OLD",
		BasisPoints: 1750,
		Active:      true,
		ValidTo:     lo.ToPtr(s.testData.now.AddDate(-1, 0, 0)),
		BaseModel:   types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().TaxRateRepo.Create(s.GetContext(), s.testData.taxRates.expired))

	s.testData.taxRates.zeroPercent = &taxrate.TaxRate{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TAX_RATE),
		Name:        "Zero rated",
		Code:        "ZERO",
		BasisPoints: 0,
		Active:      true,
		BaseModel:   types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().TaxRateRepo.Create(s.GetContext(), s.testData.taxRates.zeroPercent))
}

func (s *TaxServiceSuite) TestCalculateTaxExclusive() {
	tests := []struct {
		name     string
		rate     *taxrate.TaxRate
		amount   decimal.Decimal
		expected decimal.Decimal
	}{
		{
			name:     "20 percent on 1000",
			rate:     s.testData.taxRates.vat,
			amount:   decimal.NewFromInt(1000),
			expected: decimal.NewFromInt(200),
		},
		{
			name:     "5 percent on 999 rounds half up",
			rate:     s.testData.taxRates.gst,
			amount:   decimal.NewFromInt(999),
			expected: decimal.NewFromInt(50),
		},
		{
			name:     "zero amount",
			rate:     s.testData.taxRates.vat,
			amount:   decimal.Zero,
			expected: decimal.Zero,
		},
		{
			name:     "zero basis points",
			rate:     s.testData.taxRates.zeroPercent,
			amount:   decimal.NewFromInt(1000),
			expected: decimal.Zero,
		},
		{
			name:     "negative amount",
			rate:     s.testData.taxRates.vat,
			amount:   decimal.NewFromInt(-500),
			expected: decimal.Zero,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			got := s.service.CalculateTax(tt.rate, tt.amount, types.TaxBehaviorExclusive, s.testData.now)
			s.True(tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func (s *TaxServiceSuite) TestCalculateTaxInclusive() {
	// a gross of 1200 at 20% inclusive contains 200 of tax
	got := s.service.CalculateTax(s.testData.taxRates.vat, decimal.NewFromInt(1200), types.TaxBehaviorInclusive, s.testData.now)
	s.True(decimal.NewFromInt(200).Equal(got), "got %s", got)

	// 5% inclusive on 1050 contains 50
	got = s.service.CalculateTax(s.testData.taxRates.gst, decimal.NewFromInt(1050), types.TaxBehaviorInclusive, s.testData.now)
	s.True(decimal.NewFromInt(50).Equal(got), "got %s", got)
}

func (s *TaxServiceSuite) TestCalculateTaxInactiveRates() {
	amount := decimal.NewFromInt(1000)

	s.True(s.service.CalculateTax(nil, amount, types.TaxBehaviorExclusive, s.testData.now).IsZero())
	s.True(s.service.CalculateTax(s.testData.taxRates.inactive, amount, types.TaxBehaviorExclusive, s.testData.now).IsZero())
	s.True(s.service.CalculateTax(s.testData.taxRates.expired, amount, types.TaxBehaviorExclusive, s.testData.now).IsZero())

	// the expired rate was applicable two years ago
	past := s.testData.now.AddDate(-2, 0, 0)
	got := s.service.CalculateTax(s.testData.taxRates.expired, amount, types.TaxBehaviorExclusive, past)
	s.True(decimal.NewFromInt(175).Equal(got), "got %s", got)
}

func (s *TaxServiceSuite) TestPreTaxAmount() {
	got := s.service.PreTaxAmount(decimal.NewFromInt(1200), s.testData.taxRates.vat)
	s.True(decimal.NewFromInt(1000).Equal(got), "got %s", got)

	// zero rate leaves the total untouched
	got = s.service.PreTaxAmount(decimal.NewFromInt(1200), s.testData.taxRates.zeroPercent)
	s.True(decimal.NewFromInt(1200).Equal(got), "got %s", got)

	got = s.service.PreTaxAmount(decimal.NewFromInt(1200), nil)
	s.True(decimal.NewFromInt(1200).Equal(got), "got %s", got)
}

func (s *TaxServiceSuite) TestCreateTaxRate() {
	resp, err := s.service.CreateTaxRate(s.GetContext(), dto.CreateTaxRateRequest{
		Name:        "Reduced VAT",
		Code:        "VAT5",
		BasisPoints: 500,
	})
	s.NoError(err)
	s.NotNil(resp)
	s.Equal("VAT5", resp.Code)
	s.Equal(int64(500), resp.BasisPoints)
	s.True(resp.Active)

	stored, err := s.GetStores().TaxRateRepo.Get(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal("Reduced VAT", stored.Name)
}

func (s *TaxServiceSuite) TestCreateTaxRateDuplicateCode() {
	_, err := s.service.CreateTaxRate(s.GetContext(), dto.CreateTaxRateRequest{
		Name:        "Another VAT",
		Code:        "VAT20",
		BasisPoints: 2100,
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *TaxServiceSuite) TestCreateTaxRateValidation() {
	_, err := s.service.CreateTaxRate(s.GetContext(), dto.CreateTaxRateRequest{
		Code:        "NONAME",
		BasisPoints: 100,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.service.CreateTaxRate(s.GetContext(), dto.CreateTaxRateRequest{
		Name:        "Negative",
		Code:        "NEG",
		BasisPoints: -100,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *TaxServiceSuite) TestGetTaxRateByCodeCaches() {
	resp, err := s.service.GetTaxRateByCode(s.GetContext(), "VAT20")
	s.NoError(err)
	s.Equal(s.testData.taxRates.vat.ID, resp.ID)

	// a repo-level delete does not invalidate the cache, so the cached
	// rate is still served
	s.NoError(s.GetStores().TaxRateRepo.Delete(s.GetContext(), s.testData.taxRates.vat.ID))
	resp, err = s.service.GetTaxRateByCode(s.GetContext(), "VAT20")
	s.NoError(err)
	s.Equal(s.testData.taxRates.vat.ID, resp.ID)
}

func (s *TaxServiceSuite) TestUpdateTaxRateInvalidatesCache() {
	_, err := s.service.GetTaxRateByCode(s.GetContext(), "VAT20")
	s.NoError(err)

	_, err = s.service.UpdateTaxRate(s.GetContext(), s.testData.taxRates.vat.ID, dto.UpdateTaxRateRequest{
		Name: lo.ToPtr("VAT standard"),
	})
	s.NoError(err)

	resp, err := s.service.GetTaxRateByCode(s.GetContext(), "VAT20")
	s.NoError(err)
	s.Equal("VAT standard", resp.Name)
}

func (s *TaxServiceSuite) TestDeleteTaxRate() {
	err := s.service.DeleteTaxRate(s.GetContext(), s.testData.taxRates.gst.ID)
	s.NoError(err)

	_, err = s.service.GetTaxRate(s.GetContext(), s.testData.taxRates.gst.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))

	_, err = s.service.GetTaxRateByCode(s.GetContext(), "GST5")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *TaxServiceSuite) TestListTaxRates() {
	resp, err := s.service.ListTaxRates(s.GetContext(), nil)
	s.NoError(err)
	s.Len(resp.Items, 5)
	s.Equal(5, resp.Pagination.Total)

	resp, err = s.service.ListTaxRates(s.GetContext(), &types.TaxRateFilter{
		QueryFilter: types.NewDefaultQueryFilter(),
		ActiveOnly:  true,
	})
	s.NoError(err)
	s.Len(resp.Items, 4)
}
