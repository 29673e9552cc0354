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
	"github.com/billora/billora/internal/domain/taxrate"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/testutil"
	"github.com/billora/billora/internal/types"
)

type InvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  InvoiceService
	testData struct {
		vat        *taxrate.TaxRate
		tenPercent *discount.Discount
		now        time.Time
	}
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewInvoiceService(ServiceParams{
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
	s.setupTestData()
}

func (s *InvoiceServiceSuite) setupTestData() {
	s.testData.now = s.GetNow()

	s.testData.vat = &taxrate.TaxRate{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TAX_RATE),
		Name:        "VAT 20%",
		Code:        "VAT20",
		BasisPoints: 2000,
		Active:      true,
		BaseModel:   types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().TaxRateRepo.Create(s.GetContext(), s.testData.vat))

	s.testData.tenPercent = &discount.Discount{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DISCOUNT),
		Code:      "SAVE10",
		Name:      "Save 10%",
		Type:      types.DiscountTypePercent,
		Value:     decimal.NewFromInt(10),
		Active:    true,
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().DiscountRepo.Create(s.GetContext(), s.testData.tenPercent))
}

func (s *InvoiceServiceSuite) createDraft(mutate func(*dto.CreateInvoiceRequest)) *dto.InvoiceResponse {
	req := dto.CreateInvoiceRequest{
		CustomerID: "cust_1",
		Currency:   "USD",
		Items: []dto.InvoiceLineItemRequest{
			{
				Description: "Consulting",
				Quantity:    decimal.NewFromInt(2),
				UnitAmount:  decimal.NewFromInt(500),
				TaxRateID:   lo.ToPtr(s.testData.vat.ID),
			},
		},
	}
	if mutate != nil {
		mutate(&req)
	}

	resp, err := s.service.CreateDraft(s.GetContext(), req)
	s.Require().NoError(err)
	return resp
}

func (s *InvoiceServiceSuite) issueDraft(id string) *dto.InvoiceResponse {
	resp, err := s.service.Issue(s.GetContext(), id)
	s.Require().NoError(err)
	return resp
}

func (s *InvoiceServiceSuite) TestCreateDraftExclusiveTax() {
	resp := s.createDraft(nil)

	s.Equal(types.InvoiceStatusDraft, resp.InvoiceStatus)
	s.Nil(resp.InvoiceNumber)
	s.True(decimal.NewFromInt(1000).Equal(resp.Subtotal), "subtotal %s", resp.Subtotal)
	s.True(resp.DiscountTotal.IsZero())
	s.True(decimal.NewFromInt(200).Equal(resp.TaxTotal), "tax %s", resp.TaxTotal)
	s.True(decimal.NewFromInt(1200).Equal(resp.Total), "total %s", resp.Total)
	s.True(decimal.NewFromInt(1200).Equal(resp.AmountDue))

	s.Require().Len(resp.LineItems, 1)
	item := resp.LineItems[0]
	s.True(decimal.NewFromInt(1000).Equal(item.Amount))
	s.True(decimal.NewFromInt(200).Equal(item.TaxAmount))
	s.True(decimal.NewFromInt(1200).Equal(item.TotalAmount))
}

func (s *InvoiceServiceSuite) TestCreateDraftInclusiveTax() {
	resp := s.createDraft(func(req *dto.CreateInvoiceRequest) {
		req.TaxBehavior = types.TaxBehaviorInclusive
		req.Items[0].Quantity = decimal.NewFromInt(1)
		req.Items[0].UnitAmount = decimal.NewFromInt(1200)
	})

	// the gross of 1200 contains 200 of tax, so the stored line amount is
	// the 1000 net and the invariant total = subtotal - discounts + tax
	// reproduces the gross
	s.True(decimal.NewFromInt(1000).Equal(resp.Subtotal), "subtotal %s", resp.Subtotal)
	s.True(decimal.NewFromInt(200).Equal(resp.TaxTotal), "tax %s", resp.TaxTotal)
	s.True(decimal.NewFromInt(1200).Equal(resp.Total), "total %s", resp.Total)
}

func (s *InvoiceServiceSuite) TestCreateDraftWithLineDiscount() {
	resp := s.createDraft(func(req *dto.CreateInvoiceRequest) {
		req.Items[0].DiscountID = lo.ToPtr(s.testData.tenPercent.ID)
	})

	// discount applies before tax: 1000 - 100 = 900 taxed at 20%
	s.True(decimal.NewFromInt(1000).Equal(resp.Subtotal))
	s.True(decimal.NewFromInt(100).Equal(resp.DiscountTotal), "discount %s", resp.DiscountTotal)
	s.True(decimal.NewFromInt(180).Equal(resp.TaxTotal), "tax %s", resp.TaxTotal)
	s.True(decimal.NewFromInt(1080).Equal(resp.Total), "total %s", resp.Total)
}

func (s *InvoiceServiceSuite) TestCreateDraftWithInvoiceDiscount() {
	resp := s.createDraft(func(req *dto.CreateInvoiceRequest) {
		req.DiscountID = lo.ToPtr(s.testData.tenPercent.ID)
	})

	// the invoice-level discount comes off the subtotal; line tax is
	// unaffected by it
	s.True(decimal.NewFromInt(1000).Equal(resp.Subtotal))
	s.True(decimal.NewFromInt(100).Equal(resp.DiscountTotal))
	s.True(decimal.NewFromInt(200).Equal(resp.TaxTotal))
	s.True(decimal.NewFromInt(1100).Equal(resp.Total), "total %s", resp.Total)
}

func (s *InvoiceServiceSuite) TestCreateDraftDanglingTaxRate() {
	resp := s.createDraft(func(req *dto.CreateInvoiceRequest) {
		req.Items[0].TaxRateID = lo.ToPtr("taxrate_missing")
	})

	// an unknown rate behaves as no tax
	s.True(resp.TaxTotal.IsZero())
	s.True(decimal.NewFromInt(1000).Equal(resp.Total))
}

func (s *InvoiceServiceSuite) TestCreateDraftValidation() {
	_, err := s.service.CreateDraft(s.GetContext(), dto.CreateInvoiceRequest{
		Currency: "USD",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.service.CreateDraft(s.GetContext(), dto.CreateInvoiceRequest{
		CustomerID: "cust_1",
		Currency:   "US",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.service.CreateDraft(s.GetContext(), dto.CreateInvoiceRequest{
		CustomerID: "cust_1",
		Currency:   "USD",
		Items: []dto.InvoiceLineItemRequest{
			{Description: "Free", Quantity: decimal.Zero, UnitAmount: decimal.NewFromInt(100)},
		},
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *InvoiceServiceSuite) TestAddItemRecalculates() {
	draft := s.createDraft(nil)

	resp, err := s.service.AddItem(s.GetContext(), draft.ID, dto.InvoiceLineItemRequest{
		Description: "Support",
		Quantity:    decimal.NewFromInt(1),
		UnitAmount:  decimal.NewFromInt(300),
	})
	s.NoError(err)
	s.Len(resp.LineItems, 2)
	s.True(decimal.NewFromInt(1300).Equal(resp.Subtotal), "subtotal %s", resp.Subtotal)
	s.True(decimal.NewFromInt(1500).Equal(resp.Total), "total %s", resp.Total)
}

func (s *InvoiceServiceSuite) TestUpdateItem() {
	draft := s.createDraft(nil)
	itemID := draft.LineItems[0].ID

	resp, err := s.service.UpdateItem(s.GetContext(), draft.ID, itemID, dto.InvoiceLineItemRequest{
		Description: "Consulting",
		Quantity:    decimal.NewFromInt(3),
		UnitAmount:  decimal.NewFromInt(500),
	})
	s.NoError(err)
	s.True(decimal.NewFromInt(1500).Equal(resp.Subtotal), "subtotal %s", resp.Subtotal)
	// the tax rate reference was dropped by the update
	s.True(resp.TaxTotal.IsZero())
}

func (s *InvoiceServiceSuite) TestRemoveItem() {
	draft := s.createDraft(nil)

	resp, err := s.service.AddItem(s.GetContext(), draft.ID, dto.InvoiceLineItemRequest{
		Description: "Support",
		Quantity:    decimal.NewFromInt(1),
		UnitAmount:  decimal.NewFromInt(300),
	})
	s.NoError(err)

	resp, err = s.service.RemoveItem(s.GetContext(), draft.ID, resp.LineItems[1].ID)
	s.NoError(err)
	s.Len(resp.LineItems, 1)
	s.True(decimal.NewFromInt(1200).Equal(resp.Total))

	_, err = s.service.RemoveItem(s.GetContext(), draft.ID, "item_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestItemEditsRequireDraft() {
	draft := s.createDraft(nil)
	s.issueDraft(draft.ID)

	_, err := s.service.AddItem(s.GetContext(), draft.ID, dto.InvoiceLineItemRequest{
		Description: "Late addition",
		Quantity:    decimal.NewFromInt(1),
		UnitAmount:  decimal.NewFromInt(100),
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	_, err = s.service.RemoveItem(s.GetContext(), draft.ID, draft.LineItems[0].ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	_, err = s.service.UpdateDraft(s.GetContext(), draft.ID, dto.UpdateInvoiceRequest{
		Description: lo.ToPtr("too late"),
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestUpdateDraftSwitchesTaxBehavior() {
	draft := s.createDraft(nil)

	resp, err := s.service.UpdateDraft(s.GetContext(), draft.ID, dto.UpdateInvoiceRequest{
		TaxBehavior: lo.ToPtr(types.TaxBehaviorInclusive),
	})
	s.NoError(err)

	// the same 1000 gross now contains its tax instead of adding it
	s.True(decimal.NewFromInt(833).Equal(resp.Subtotal), "subtotal %s", resp.Subtotal)
	s.True(decimal.NewFromInt(167).Equal(resp.TaxTotal), "tax %s", resp.TaxTotal)
	s.True(decimal.NewFromInt(1000).Equal(resp.Total), "total %s", resp.Total)
}

func (s *InvoiceServiceSuite) TestIssue() {
	draft := s.createDraft(nil)

	resp := s.issueDraft(draft.ID)
	s.Equal(types.InvoiceStatusIssued, resp.InvoiceStatus)
	s.Require().NotNil(resp.InvoiceNumber)
	s.Contains(*resp.InvoiceNumber, "INV-")
	s.Require().NotNil(resp.IssuedAt)
	s.Require().NotNil(resp.DueDate)
	s.Equal(
		resp.IssuedAt.AddDate(0, 0, types.InvoiceDefaultNetTermsDays).Truncate(time.Second),
		resp.DueDate.Truncate(time.Second),
	)

	s.Contains(s.GetWebhookPublisher().EventNames(), types.WebhookEventInvoiceIssued)
}

func (s *InvoiceServiceSuite) TestIssueRequiresDraftWithItems() {
	draft := s.createDraft(nil)
	s.issueDraft(draft.ID)

	_, err := s.service.Issue(s.GetContext(), draft.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	empty, err := s.service.CreateDraft(s.GetContext(), dto.CreateInvoiceRequest{
		CustomerID: "cust_1",
		Currency:   "USD",
	})
	s.NoError(err)

	_, err = s.service.Issue(s.GetContext(), empty.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestRecordPaymentPartialThenFull() {
	draft := s.createDraft(nil)
	issued := s.issueDraft(draft.ID)

	resp, err := s.service.RecordPayment(s.GetContext(), issued.ID, dto.RecordPaymentRequest{
		Amount: decimal.NewFromInt(700),
		Method: "bank_transfer",
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusPartiallyPaid, resp.InvoiceStatus)
	s.True(decimal.NewFromInt(700).Equal(resp.AmountPaid))
	s.True(decimal.NewFromInt(500).Equal(resp.AmountDue))
	s.Nil(resp.PaidAt)

	resp, err = s.service.RecordPayment(s.GetContext(), issued.ID, dto.RecordPaymentRequest{
		Amount: decimal.NewFromInt(500),
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, resp.InvoiceStatus)
	s.True(resp.AmountDue.IsZero())
	s.NotNil(resp.PaidAt)
	s.Len(resp.Payments, 2)

	s.Contains(s.GetWebhookPublisher().EventNames(), types.WebhookEventInvoicePaid)
}

func (s *InvoiceServiceSuite) TestRecordPaymentOverpayRejected() {
	draft := s.createDraft(nil)
	issued := s.issueDraft(draft.ID)

	_, err := s.service.RecordPayment(s.GetContext(), issued.ID, dto.RecordPaymentRequest{
		Amount: decimal.NewFromInt(1201),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.service.RecordPayment(s.GetContext(), issued.ID, dto.RecordPaymentRequest{
		Amount: decimal.Zero,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *InvoiceServiceSuite) TestRecordPaymentRequiresPayableStatus() {
	draft := s.createDraft(nil)

	_, err := s.service.RecordPayment(s.GetContext(), draft.ID, dto.RecordPaymentRequest{
		Amount: decimal.NewFromInt(100),
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestPartialPaymentKeepsPastDueStatus() {
	inv := s.seedPastDueInvoice()

	resp, err := s.service.RecordPayment(s.GetContext(), inv.ID, dto.RecordPaymentRequest{
		Amount: decimal.NewFromInt(100),
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusPastDue, resp.InvoiceStatus)

	// paying the rest still settles it
	resp, err = s.service.RecordPayment(s.GetContext(), inv.ID, dto.RecordPaymentRequest{
		Amount: resp.AmountDue,
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, resp.InvoiceStatus)
}

func (s *InvoiceServiceSuite) TestVoid() {
	draft := s.createDraft(nil)
	issued := s.issueDraft(draft.ID)

	resp, err := s.service.Void(s.GetContext(), issued.ID, dto.VoidInvoiceRequest{Reason: "duplicate"})
	s.NoError(err)
	s.Equal(types.InvoiceStatusVoided, resp.InvoiceStatus)
	s.NotNil(resp.VoidedAt)
	s.Contains(resp.Notes, "voided: duplicate")

	s.Contains(s.GetWebhookPublisher().EventNames(), types.WebhookEventInvoiceVoided)

	// voided is terminal
	_, err = s.service.Void(s.GetContext(), issued.ID, dto.VoidInvoiceRequest{})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestVoidRequiresIssuedStatus() {
	draft := s.createDraft(nil)

	_, err := s.service.Void(s.GetContext(), draft.ID, dto.VoidInvoiceRequest{})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestWriteOff() {
	inv := s.seedPastDueInvoice()

	resp, err := s.service.WriteOff(s.GetContext(), inv.ID, dto.WriteOffInvoiceRequest{Reason: "uncollectible"})
	s.NoError(err)
	s.Equal(types.InvoiceStatusWrittenOff, resp.InvoiceStatus)
	s.Contains(resp.Notes, "written off: uncollectible")

	s.Contains(s.GetWebhookPublisher().EventNames(), types.WebhookEventInvoiceWrittenOff)
}

func (s *InvoiceServiceSuite) TestWriteOffRequiresPastDue() {
	draft := s.createDraft(nil)
	issued := s.issueDraft(draft.ID)

	_, err := s.service.WriteOff(s.GetContext(), issued.ID, dto.WriteOffInvoiceRequest{})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestProcessOverdue() {
	draft := s.createDraft(nil)
	issued := s.issueDraft(draft.ID)

	// backdate the due date past the sweep cutoff
	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), issued.ID)
	s.NoError(err)
	inv.DueDate = lo.ToPtr(s.testData.now.AddDate(0, 0, -1))
	s.NoError(s.GetStores().InvoiceRepo.Update(s.GetContext(), inv))

	// a second invoice still within terms is untouched
	current := s.createDraft(nil)
	s.issueDraft(current.ID)

	resp, err := s.service.ProcessOverdue(s.GetContext())
	s.NoError(err)
	s.Equal(1, resp.Checked)
	s.Equal(1, resp.MarkedOverdue)

	swept, err := s.service.GetInvoice(s.GetContext(), issued.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPastDue, swept.InvoiceStatus)

	untouched, err := s.service.GetInvoice(s.GetContext(), current.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusIssued, untouched.InvoiceStatus)

	s.Contains(s.GetWebhookPublisher().EventNames(), types.WebhookEventInvoicePastDue)
}

func (s *InvoiceServiceSuite) TestProcessOverdueSweepsAllTenants() {
	otherTenant := types.SetTenantID(s.GetContext(), "tenant_other")

	draft, err := s.service.CreateDraft(otherTenant, dto.CreateInvoiceRequest{
		CustomerID: "cust_9",
		Currency:   "USD",
		Items: []dto.InvoiceLineItemRequest{
			{Description: "Consulting", Quantity: decimal.NewFromInt(1), UnitAmount: decimal.NewFromInt(800)},
		},
	})
	s.Require().NoError(err)
	issued, err := s.service.Issue(otherTenant, draft.ID)
	s.Require().NoError(err)

	inv, err := s.GetStores().InvoiceRepo.Get(otherTenant, issued.ID)
	s.Require().NoError(err)
	inv.DueDate = lo.ToPtr(s.testData.now.AddDate(0, 0, -1))
	s.Require().NoError(s.GetStores().InvoiceRepo.Update(otherTenant, inv))

	// the cron caller runs under the default tenant
	resp, err := s.service.ProcessOverdue(s.GetContext())
	s.NoError(err)
	s.Equal(1, resp.Checked)
	s.Equal(1, resp.MarkedOverdue)

	swept, err := s.service.GetInvoice(otherTenant, issued.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPastDue, swept.InvoiceStatus)
}

func (s *InvoiceServiceSuite) TestProcessOverdueSkipsPartiallyPaid() {
	draft := s.createDraft(nil)
	issued := s.issueDraft(draft.ID)

	_, err := s.service.RecordPayment(s.GetContext(), issued.ID, dto.RecordPaymentRequest{
		Amount: decimal.NewFromInt(200),
	})
	s.NoError(err)

	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), issued.ID)
	s.NoError(err)
	inv.DueDate = lo.ToPtr(s.testData.now.AddDate(0, 0, -1))
	s.NoError(s.GetStores().InvoiceRepo.Update(s.GetContext(), inv))

	resp, err := s.service.ProcessOverdue(s.GetContext())
	s.NoError(err)
	s.Equal(0, resp.Checked)
	s.Equal(0, resp.MarkedOverdue)

	// still payable and still voidable
	kept, err := s.service.GetInvoice(s.GetContext(), issued.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPartiallyPaid, kept.InvoiceStatus)

	_, err = s.service.Void(s.GetContext(), issued.ID, dto.VoidInvoiceRequest{Reason: "customer dispute"})
	s.NoError(err)
}

func (s *InvoiceServiceSuite) TestGetInvoicePDF() {
	draft := s.createDraft(nil)

	pdf, err := s.service.GetInvoicePDF(s.GetContext(), draft.ID)
	s.NoError(err)
	s.NotEmpty(pdf)
	s.Contains(string(pdf), "%PDF")
}

func (s *InvoiceServiceSuite) TestListInvoices() {
	s.createDraft(nil)
	second := s.createDraft(func(req *dto.CreateInvoiceRequest) {
		req.CustomerID = "cust_2"
	})
	s.issueDraft(second.ID)

	resp, err := s.service.ListInvoices(s.GetContext(), nil)
	s.NoError(err)
	s.Len(resp.Items, 2)

	resp, err = s.service.ListInvoices(s.GetContext(), &types.InvoiceFilter{
		QueryFilter: types.NewDefaultQueryFilter(),
		CustomerID:  "cust_2",
	})
	s.NoError(err)
	s.Len(resp.Items, 1)

	resp, err = s.service.ListInvoices(s.GetContext(), &types.InvoiceFilter{
		QueryFilter:   types.NewDefaultQueryFilter(),
		InvoiceStatus: []types.InvoiceStatus{types.InvoiceStatusIssued},
	})
	s.NoError(err)
	s.Len(resp.Items, 1)
	s.Equal(second.ID, resp.Items[0].ID)
}

// seedPastDueInvoice issues an invoice and marks it past due the way the
// overdue sweep would.
func (s *InvoiceServiceSuite) seedPastDueInvoice() *invoice.Invoice {
	draft := s.createDraft(nil)
	issued := s.issueDraft(draft.ID)

	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), issued.ID)
	s.Require().NoError(err)
	inv.InvoiceStatus = types.InvoiceStatusPastDue
	inv.DueDate = lo.ToPtr(s.testData.now.AddDate(0, 0, -1))
	s.Require().NoError(s.GetStores().InvoiceRepo.Update(s.GetContext(), inv))
	return inv
}
