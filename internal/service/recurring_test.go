package service

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/billora/billora/internal/api/dto"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/testutil"
	"github.com/billora/billora/internal/types"
)

type RecurringInvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	service        RecurringInvoiceService
	invoiceService InvoiceService
}

func TestRecurringInvoiceService(t *testing.T) {
	suite.Run(t, new(RecurringInvoiceServiceSuite))
}

func (s *RecurringInvoiceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	params := ServiceParams{
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
	}
	s.service = NewRecurringInvoiceService(params)
	s.invoiceService = NewInvoiceService(params)
}

func (s *RecurringInvoiceServiceSuite) createTemplate(mutate func(*dto.CreateRecurringInvoiceRequest)) *dto.RecurringInvoiceResponse {
	req := dto.CreateRecurringInvoiceRequest{
		CustomerID: "cust_1",
		Currency:   "USD",
		Interval:   types.BillingIntervalMonthly,
		StartDate:  s.GetNow().AddDate(0, 0, -1),
		Items: []dto.RecurringInvoiceItemRequest{
			{
				Description: "Subscription",
				Quantity:    decimal.NewFromInt(1),
				UnitAmount:  decimal.NewFromInt(2500),
			},
		},
	}
	if mutate != nil {
		mutate(&req)
	}

	resp, err := s.service.CreateRecurringInvoice(s.GetContext(), req)
	s.Require().NoError(err)
	return resp
}

func (s *RecurringInvoiceServiceSuite) TestCreateRecurringInvoice() {
	resp := s.createTemplate(nil)

	s.Equal(types.RecurringInvoiceStatusActive, resp.RecurringInvoiceStatus)
	s.Equal(1, resp.IntervalCount)
	s.Equal(0, resp.OccurrenceCount)
	s.Equal(resp.StartDate, resp.NextBillingDate)
	s.Len(resp.Items, 1)
}

func (s *RecurringInvoiceServiceSuite) TestCreateRecurringInvoiceValidation() {
	_, err := s.service.CreateRecurringInvoice(s.GetContext(), dto.CreateRecurringInvoiceRequest{
		CustomerID: "cust_1",
		Currency:   "USD",
		Interval:   types.BillingIntervalMonthly,
		StartDate:  s.GetNow(),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.service.CreateRecurringInvoice(s.GetContext(), dto.CreateRecurringInvoiceRequest{
		CustomerID: "cust_1",
		Currency:   "USD",
		Interval:   types.BillingInterval("FORTNIGHTLY"),
		StartDate:  s.GetNow(),
		Items: []dto.RecurringInvoiceItemRequest{
			{Description: "Subscription", Quantity: decimal.NewFromInt(1), UnitAmount: decimal.NewFromInt(100)},
		},
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *RecurringInvoiceServiceSuite) TestCalculateNextBillingDate() {
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name      string
		from      time.Time
		interval  types.BillingInterval
		count     int
		preferred int
		expected  time.Time
	}{
		{
			name:     "daily",
			from:     date(2026, time.March, 10),
			interval: types.BillingIntervalDaily,
			count:    5,
			expected: date(2026, time.March, 15),
		},
		{
			name:     "weekly",
			from:     date(2026, time.March, 10),
			interval: types.BillingIntervalWeekly,
			count:    2,
			expected: date(2026, time.March, 24),
		},
		{
			name:     "monthly",
			from:     date(2026, time.March, 10),
			interval: types.BillingIntervalMonthly,
			count:    1,
			expected: date(2026, time.April, 10),
		},
		{
			name:      "monthly clamps to short month",
			from:      date(2026, time.January, 31),
			interval:  types.BillingIntervalMonthly,
			count:     1,
			preferred: 31,
			expected:  date(2026, time.February, 28),
		},
		{
			name:      "clamped month recovers the anchor day",
			from:      date(2026, time.February, 28),
			interval:  types.BillingIntervalMonthly,
			count:     1,
			preferred: 31,
			expected:  date(2026, time.March, 31),
		},
		{
			name:      "leap year february",
			from:      date(2028, time.January, 31),
			interval:  types.BillingIntervalMonthly,
			count:     1,
			preferred: 31,
			expected:  date(2028, time.February, 29),
		},
		{
			name:     "quarterly is three months",
			from:     date(2026, time.November, 15),
			interval: types.BillingIntervalQuarterly,
			count:    1,
			expected: date(2027, time.February, 15),
		},
		{
			name:     "yearly",
			from:     date(2026, time.March, 1),
			interval: types.BillingIntervalYearly,
			count:    2,
			expected: date(2028, time.March, 1),
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			got, err := s.service.CalculateNextBillingDate(tt.from, tt.interval, tt.count, tt.preferred)
			s.NoError(err)
			s.True(tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func (s *RecurringInvoiceServiceSuite) TestCalculateNextBillingDateInvalidCount() {
	_, err := s.service.CalculateNextBillingDate(s.GetNow(), types.BillingIntervalMonthly, 0, 0)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *RecurringInvoiceServiceSuite) TestGenerateInvoice() {
	created := s.createTemplate(nil)
	template, err := s.GetStores().RecurringInvoiceRepo.Get(s.GetContext(), created.ID)
	s.Require().NoError(err)
	previousBillingDate := template.NextBillingDate

	issued, err := s.service.GenerateInvoice(s.GetContext(), template)
	s.NoError(err)
	s.Equal(types.InvoiceStatusIssued, issued.InvoiceStatus)
	s.NotNil(issued.InvoiceNumber)
	s.Require().NotNil(issued.Invoice.RecurringInvoiceID)
	s.Equal(template.ID, *issued.Invoice.RecurringInvoiceID)
	s.True(decimal.NewFromInt(2500).Equal(issued.Total), "total %s", issued.Total)

	s.Equal(1, template.OccurrenceCount)
	s.NotNil(template.LastRunAt)
	s.True(template.NextBillingDate.After(previousBillingDate))
	s.Equal(types.RecurringInvoiceStatusActive, template.RecurringInvoiceStatus)

	s.Contains(s.GetWebhookPublisher().EventNames(), types.WebhookEventInvoiceIssued)
}

func (s *RecurringInvoiceServiceSuite) TestGenerateInvoiceFailureEmitsNoEvents() {
	created := s.createTemplate(nil)
	template, err := s.GetStores().RecurringInvoiceRepo.Get(s.GetContext(), created.ID)
	s.Require().NoError(err)

	// break the schedule advance so generation fails after issuing
	template.IntervalCount = 0
	s.Require().NoError(s.GetStores().RecurringInvoiceRepo.Update(s.GetContext(), template))

	_, err = s.service.GenerateInvoice(s.GetContext(), template)
	s.Error(err)
	s.Empty(s.GetWebhookPublisher().Events())
}

func (s *RecurringInvoiceServiceSuite) TestGenerateInvoiceCompletesOnMaxOccurrences() {
	created := s.createTemplate(func(req *dto.CreateRecurringInvoiceRequest) {
		req.MaxOccurrences = lo.ToPtr(1)
	})
	template, err := s.GetStores().RecurringInvoiceRepo.Get(s.GetContext(), created.ID)
	s.Require().NoError(err)

	_, err = s.service.GenerateInvoice(s.GetContext(), template)
	s.NoError(err)
	s.Equal(types.RecurringInvoiceStatusCompleted, template.RecurringInvoiceStatus)

	stored, err := s.GetStores().RecurringInvoiceRepo.Get(s.GetContext(), template.ID)
	s.NoError(err)
	s.Equal(types.RecurringInvoiceStatusCompleted, stored.RecurringInvoiceStatus)
}

func (s *RecurringInvoiceServiceSuite) TestGenerateInvoiceCompletesPastEndDate() {
	created := s.createTemplate(func(req *dto.CreateRecurringInvoiceRequest) {
		req.EndDate = lo.ToPtr(s.GetNow().AddDate(0, 0, 7))
	})
	template, err := s.GetStores().RecurringInvoiceRepo.Get(s.GetContext(), created.ID)
	s.Require().NoError(err)

	// the next monthly billing date lands past the end date
	_, err = s.service.GenerateInvoice(s.GetContext(), template)
	s.NoError(err)
	s.Equal(types.RecurringInvoiceStatusCompleted, template.RecurringInvoiceStatus)
}

func (s *RecurringInvoiceServiceSuite) TestPauseAndResume() {
	created := s.createTemplate(nil)

	resp, err := s.service.Pause(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(types.RecurringInvoiceStatusPaused, resp.RecurringInvoiceStatus)

	// pausing twice is rejected
	_, err = s.service.Pause(s.GetContext(), created.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	resp, err = s.service.Resume(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(types.RecurringInvoiceStatusActive, resp.RecurringInvoiceStatus)

	_, err = s.service.Resume(s.GetContext(), created.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *RecurringInvoiceServiceSuite) TestProcessAllDue() {
	due := s.createTemplate(nil)

	// not due yet: first billing date is a month out
	s.createTemplate(func(req *dto.CreateRecurringInvoiceRequest) {
		req.StartDate = s.GetNow().AddDate(0, 1, 0)
	})

	// paused templates are skipped even when due
	paused := s.createTemplate(nil)
	_, err := s.service.Pause(s.GetContext(), paused.ID)
	s.Require().NoError(err)

	resp, err := s.service.ProcessAllDue(s.GetContext())
	s.NoError(err)
	s.Equal(1, resp.Processed)
	s.Equal(1, resp.Succeeded)
	s.Equal(0, resp.Failed)

	invoices, err := s.invoiceService.ListInvoices(s.GetContext(), nil)
	s.NoError(err)
	s.Require().Len(invoices.Items, 1)
	s.Require().NotNil(invoices.Items[0].RecurringInvoiceID)
	s.Equal(due.ID, *invoices.Items[0].RecurringInvoiceID)
}

func (s *RecurringInvoiceServiceSuite) TestProcessAllDueSpansTenants() {
	otherTenant := types.SetTenantID(s.GetContext(), "tenant_other")

	created, err := s.service.CreateRecurringInvoice(otherTenant, dto.CreateRecurringInvoiceRequest{
		CustomerID: "cust_9",
		Currency:   "USD",
		Interval:   types.BillingIntervalMonthly,
		StartDate:  s.GetNow().AddDate(0, 0, -1),
		Items: []dto.RecurringInvoiceItemRequest{
			{Description: "Subscription", Quantity: decimal.NewFromInt(1), UnitAmount: decimal.NewFromInt(900)},
		},
	})
	s.Require().NoError(err)

	// the cron caller runs under the default tenant
	resp, err := s.service.ProcessAllDue(s.GetContext())
	s.NoError(err)
	s.Equal(1, resp.Processed)
	s.Equal(1, resp.Succeeded)

	invoices, err := s.invoiceService.ListInvoices(otherTenant, nil)
	s.NoError(err)
	s.Require().Len(invoices.Items, 1)
	s.Require().NotNil(invoices.Items[0].RecurringInvoiceID)
	s.Equal(created.ID, *invoices.Items[0].RecurringInvoiceID)
	s.Equal("tenant_other", invoices.Items[0].TenantID)
}

func (s *RecurringInvoiceServiceSuite) TestProcessAllDueIsolatesFailures() {
	s.createTemplate(nil)

	// zero-amount items produce an invoice that cannot be issued, so this
	// template fails while the other succeeds
	s.createTemplate(func(req *dto.CreateRecurringInvoiceRequest) {
		req.Items[0].UnitAmount = decimal.Zero
	})

	resp, err := s.service.ProcessAllDue(s.GetContext())
	s.NoError(err)
	s.Equal(2, resp.Processed)
	s.Equal(1, resp.Succeeded)
	s.Equal(1, resp.Failed)
}

func (s *RecurringInvoiceServiceSuite) TestListRecurringInvoices() {
	s.createTemplate(nil)
	other := s.createTemplate(func(req *dto.CreateRecurringInvoiceRequest) {
		req.CustomerID = "cust_2"
	})

	resp, err := s.service.ListRecurringInvoices(s.GetContext(), nil)
	s.NoError(err)
	s.Len(resp.Items, 2)

	resp, err = s.service.ListRecurringInvoices(s.GetContext(), &types.RecurringInvoiceFilter{
		QueryFilter: types.NewDefaultQueryFilter(),
		CustomerID:  "cust_2",
	})
	s.NoError(err)
	s.Require().Len(resp.Items, 1)
	s.Equal(other.ID, resp.Items[0].ID)
}
