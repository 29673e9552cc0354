package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billora/billora/internal/api/dto"
	"github.com/billora/billora/internal/domain/discount"
	"github.com/billora/billora/internal/domain/invoice"
	"github.com/billora/billora/internal/domain/taxrate"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/pdfgen"
	"github.com/billora/billora/internal/postgres"
	"github.com/billora/billora/internal/types"
	webhookDto "github.com/billora/billora/internal/webhook/dto"
)

// InvoiceService orchestrates the invoice lifecycle: draft editing with
// full recalculation, issuing with number reservation, payments and the
// terminal transitions.
type InvoiceService interface {
	CreateDraft(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)
	UpdateDraft(ctx context.Context, id string, req dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error)

	AddItem(ctx context.Context, invoiceID string, req dto.InvoiceLineItemRequest) (*dto.InvoiceResponse, error)
	UpdateItem(ctx context.Context, invoiceID, itemID string, req dto.InvoiceLineItemRequest) (*dto.InvoiceResponse, error)
	RemoveItem(ctx context.Context, invoiceID, itemID string) (*dto.InvoiceResponse, error)

	Issue(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	RecordPayment(ctx context.Context, id string, req dto.RecordPaymentRequest) (*dto.InvoiceResponse, error)
	Void(ctx context.Context, id string, req dto.VoidInvoiceRequest) (*dto.InvoiceResponse, error)
	WriteOff(ctx context.Context, id string, req dto.WriteOffInvoiceRequest) (*dto.InvoiceResponse, error)

	// ProcessOverdue flips issued invoices to PAST_DUE once their due date
	// has elapsed, sweeping every tenant. Driven by the cron endpoint.
	ProcessOverdue(ctx context.Context) (*dto.OverdueSweepResponse, error)

	GetInvoicePDF(ctx context.Context, id string) ([]byte, error)
}

type invoiceService struct {
	ServiceParams
	taxService      TaxService
	discountService DiscountService
	numbering       NumberingService
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{
		ServiceParams:   params,
		taxService:      NewTaxService(params),
		discountService: NewDiscountService(params),
		numbering:       NewNumberingService(params),
	}
}

func (s *invoiceService) CreateDraft(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	taxBehavior := req.TaxBehavior
	if taxBehavior == "" {
		taxBehavior = types.TaxBehaviorExclusive
	}

	inv := invoice.New(
		types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		req.CustomerID,
		req.Currency,
		taxBehavior,
		types.GetDefaultBaseModel(ctx),
	)
	inv.Description = req.Description
	inv.CustomerEmail = req.CustomerEmail
	inv.Metadata = req.Metadata
	inv.DiscountID = req.DiscountID
	inv.NetTermsDays = s.Config.Invoice.DefaultNetTermsDays
	if req.NetTermsDays != nil {
		inv.NetTermsDays = *req.NetTermsDays
	}

	for _, item := range req.Items {
		inv.LineItems = append(inv.LineItems, s.newLineItem(ctx, inv, item))
	}

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.recalculate(ctx, inv, time.Now().UTC()); err != nil {
			return err
		}
		return s.InvoiceRepo.CreateWithLineItems(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("created draft invoice",
		"invoice_id", inv.ID,
		"customer_id", inv.CustomerID,
		"currency", inv.Currency,
	)

	return &dto.InvoiceResponse{Invoice: inv}, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	if id == "" {
		return nil, ierr.NewError("invoice id is required").
			WithHint("Invoice ID is required").
			Mark(ierr.ErrValidation)
	}

	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return &dto.InvoiceResponse{Invoice: inv}, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.InvoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		items[i] = &dto.InvoiceResponse{Invoice: inv}
	}

	return &dto.ListInvoicesResponse{
		Items:      items,
		Pagination: types.NewPaginationResponse(total, filter.GetLimit(), filter.GetOffset()),
	}, nil
}

func (s *invoiceService) UpdateDraft(ctx context.Context, id string, req dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var inv *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.getDraft(ctx, id)
		if err != nil {
			return err
		}

		if req.Description != nil {
			inv.Description = *req.Description
		}
		if req.CustomerEmail != nil {
			inv.CustomerEmail = req.CustomerEmail
		}
		if req.TaxBehavior != nil {
			inv.TaxBehavior = *req.TaxBehavior
		}
		if req.DiscountID != nil {
			inv.DiscountID = req.DiscountID
		}
		if req.NetTermsDays != nil {
			inv.NetTermsDays = *req.NetTermsDays
		}
		if req.Metadata != nil {
			inv.Metadata = req.Metadata
		}

		if err := s.recalculate(ctx, inv, time.Now().UTC()); err != nil {
			return err
		}
		return s.InvoiceRepo.ReplaceLineItems(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	return &dto.InvoiceResponse{Invoice: inv}, nil
}

func (s *invoiceService) AddItem(ctx context.Context, invoiceID string, req dto.InvoiceLineItemRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var inv *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.getDraft(ctx, invoiceID)
		if err != nil {
			return err
		}

		inv.LineItems = append(inv.LineItems, s.newLineItem(ctx, inv, req))

		if err := s.recalculate(ctx, inv, time.Now().UTC()); err != nil {
			return err
		}
		return s.InvoiceRepo.ReplaceLineItems(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	return &dto.InvoiceResponse{Invoice: inv}, nil
}

func (s *invoiceService) UpdateItem(ctx context.Context, invoiceID, itemID string, req dto.InvoiceLineItemRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var inv *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.getDraft(ctx, invoiceID)
		if err != nil {
			return err
		}

		item := s.findItem(inv, itemID)
		if item == nil {
			return ierr.NewError("line item not found").
				WithHint("The line item does not exist on this invoice").
				WithReportableDetails(map[string]any{"item_id": itemID}).
				Mark(ierr.ErrNotFound)
		}

		item.Description = req.Description
		item.Quantity = req.Quantity
		item.UnitAmount = req.UnitAmount
		item.TaxRateID = req.TaxRateID
		item.DiscountID = req.DiscountID
		if req.Metadata != nil {
			item.Metadata = req.Metadata
		}
		item.UpdatedAt = time.Now().UTC()
		item.UpdatedBy = types.GetUserID(ctx)

		if err := s.recalculate(ctx, inv, time.Now().UTC()); err != nil {
			return err
		}
		return s.InvoiceRepo.ReplaceLineItems(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	return &dto.InvoiceResponse{Invoice: inv}, nil
}

func (s *invoiceService) RemoveItem(ctx context.Context, invoiceID, itemID string) (*dto.InvoiceResponse, error) {
	var inv *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.getDraft(ctx, invoiceID)
		if err != nil {
			return err
		}

		if s.findItem(inv, itemID) == nil {
			return ierr.NewError("line item not found").
				WithHint("The line item does not exist on this invoice").
				WithReportableDetails(map[string]any{"item_id": itemID}).
				Mark(ierr.ErrNotFound)
		}

		kept := make([]*invoice.LineItem, 0, len(inv.LineItems)-1)
		for _, item := range inv.LineItems {
			if item.ID != itemID {
				kept = append(kept, item)
			}
		}
		inv.LineItems = kept

		if err := s.recalculate(ctx, inv, time.Now().UTC()); err != nil {
			return err
		}
		return s.InvoiceRepo.ReplaceLineItems(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	return &dto.InvoiceResponse{Invoice: inv}, nil
}

func (s *invoiceService) Issue(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	var inv *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.InvoiceRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		if inv.InvoiceStatus != types.InvoiceStatusDraft {
			return ierr.NewError("only draft invoices can be issued").
				WithHint("The invoice has already been issued").
				WithReportableDetails(map[string]any{"invoice_status": inv.InvoiceStatus}).
				Mark(ierr.ErrInvalidOperation)
		}
		if len(inv.LineItems) == 0 {
			return ierr.NewError("invoice has no line items").
				WithHint("Add at least one line item before issuing").
				Mark(ierr.ErrInvalidOperation)
		}
		if !inv.Total.IsPositive() {
			return ierr.NewError("invoice total must be positive").
				WithHint("The invoice total must be greater than zero to issue").
				Mark(ierr.ErrInvalidOperation)
		}

		number, err := s.numbering.ReserveNumber(ctx, types.SequenceScopeInvoice)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		dueDate := now.AddDate(0, 0, inv.NetTermsDays)

		inv.InvoiceNumber = &number
		inv.InvoiceStatus = types.InvoiceStatusIssued
		inv.IssuedAt = &now
		inv.DueDate = &dueDate
		inv.UpdatedAt = now
		inv.UpdatedBy = types.GetUserID(ctx)

		return s.InvoiceRepo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("issued invoice",
		"invoice_id", inv.ID,
		"invoice_number", *inv.InvoiceNumber,
		"total", inv.Total,
	)

	s.publishWebhookEvent(ctx, types.WebhookEventInvoiceIssued, inv.ID)

	return &dto.InvoiceResponse{Invoice: inv}, nil
}

func (s *invoiceService) RecordPayment(ctx context.Context, id string, req dto.RecordPaymentRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var inv *invoice.Invoice
	var paidInFull bool
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.InvoiceRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		if !inv.InvoiceStatus.IsPayable() {
			return ierr.NewError("invoice does not accept payments").
				WithHint("Payments can only be recorded against issued invoices").
				WithReportableDetails(map[string]any{"invoice_status": inv.InvoiceStatus}).
				Mark(ierr.ErrInvalidOperation)
		}
		if req.Amount.GreaterThan(inv.AmountDue) {
			return ierr.NewError("payment exceeds amount due").
				WithHint("Payment amount cannot exceed the invoice's amount due").
				WithReportableDetails(map[string]any{
					"amount":     req.Amount,
					"amount_due": inv.AmountDue,
				}).
				Mark(ierr.ErrValidation)
		}

		now := time.Now().UTC()
		paidAt := now
		if req.PaidAt != nil {
			paidAt = *req.PaidAt
		}

		payment := &invoice.Payment{
			ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
			InvoiceID: inv.ID,
			Amount:    req.Amount,
			Currency:  inv.Currency,
			Method:    req.Method,
			Reference: req.Reference,
			Note:      req.Note,
			PaidAt:    paidAt,
			BaseModel: types.GetDefaultBaseModel(ctx),
		}
		if err := s.InvoiceRepo.AddPayment(ctx, payment); err != nil {
			return err
		}

		inv.AmountPaid = inv.AmountPaid.Add(req.Amount)
		inv.AmountDue = inv.Total.Sub(inv.AmountPaid)
		inv.Payments = append(inv.Payments, payment)

		if inv.AmountDue.IsZero() {
			inv.InvoiceStatus = types.InvoiceStatusPaid
			inv.PaidAt = &now
			paidInFull = true
		} else if inv.InvoiceStatus == types.InvoiceStatusIssued {
			// a partially paid past-due invoice stays past due
			inv.InvoiceStatus = types.InvoiceStatusPartiallyPaid
		}
		inv.UpdatedAt = now
		inv.UpdatedBy = types.GetUserID(ctx)

		return s.InvoiceRepo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("recorded payment",
		"invoice_id", inv.ID,
		"amount", req.Amount,
		"invoice_status", inv.InvoiceStatus,
	)

	if paidInFull {
		s.publishWebhookEvent(ctx, types.WebhookEventInvoicePaid, inv.ID)
	}

	return &dto.InvoiceResponse{Invoice: inv}, nil
}

func (s *invoiceService) Void(ctx context.Context, id string, req dto.VoidInvoiceRequest) (*dto.InvoiceResponse, error) {
	var inv *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.InvoiceRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		if inv.InvoiceStatus != types.InvoiceStatusIssued &&
			inv.InvoiceStatus != types.InvoiceStatusPartiallyPaid {
			return ierr.NewError("invoice cannot be voided").
				WithHint("Only issued or partially paid invoices can be voided").
				WithReportableDetails(map[string]any{"invoice_status": inv.InvoiceStatus}).
				Mark(ierr.ErrInvalidOperation)
		}

		now := time.Now().UTC()
		inv.InvoiceStatus = types.InvoiceStatusVoided
		inv.VoidedAt = &now
		note := "voided"
		if req.Reason != "" {
			note = "voided: " + req.Reason
		}
		inv.AppendNote(now, note)
		inv.UpdatedAt = now
		inv.UpdatedBy = types.GetUserID(ctx)

		return s.InvoiceRepo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.publishWebhookEvent(ctx, types.WebhookEventInvoiceVoided, inv.ID)

	return &dto.InvoiceResponse{Invoice: inv}, nil
}

func (s *invoiceService) WriteOff(ctx context.Context, id string, req dto.WriteOffInvoiceRequest) (*dto.InvoiceResponse, error) {
	var inv *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.InvoiceRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		if inv.InvoiceStatus != types.InvoiceStatusPastDue {
			return ierr.NewError("invoice cannot be written off").
				WithHint("Only past due invoices can be written off").
				WithReportableDetails(map[string]any{"invoice_status": inv.InvoiceStatus}).
				Mark(ierr.ErrInvalidOperation)
		}

		now := time.Now().UTC()
		inv.InvoiceStatus = types.InvoiceStatusWrittenOff
		note := "written off"
		if req.Reason != "" {
			note = "written off: " + req.Reason
		}
		inv.AppendNote(now, note)
		inv.UpdatedAt = now
		inv.UpdatedBy = types.GetUserID(ctx)

		return s.InvoiceRepo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.publishWebhookEvent(ctx, types.WebhookEventInvoiceWrittenOff, inv.ID)

	return &dto.InvoiceResponse{Invoice: inv}, nil
}

func (s *invoiceService) ProcessOverdue(ctx context.Context) (*dto.OverdueSweepResponse, error) {
	now := time.Now().UTC()
	tenants, err := s.InvoiceRepo.ListOverdueTenants(ctx, now)
	if err != nil {
		return nil, err
	}

	resp := &dto.OverdueSweepResponse{}
	for _, tenantID := range tenants {
		tenantCtx := types.SetTenantID(ctx, tenantID)
		overdue, err := s.InvoiceRepo.ListIssuedDueBefore(tenantCtx, now)
		if err != nil {
			s.Logger.Errorw("failed to list overdue invoices",
				"error", err,
				"tenant_id", tenantID,
			)
			continue
		}

		resp.Checked += len(overdue)
		for _, inv := range overdue {
			inv := inv
			err := s.DB.WithTx(tenantCtx, func(ctx context.Context) error {
				inv.InvoiceStatus = types.InvoiceStatusPastDue
				inv.UpdatedAt = now
				return s.InvoiceRepo.Update(ctx, inv)
			})
			if err != nil {
				s.Logger.Errorw("failed to mark invoice past due",
					"error", err,
					"invoice_id", inv.ID,
				)
				continue
			}
			resp.MarkedOverdue++
			s.publishWebhookEvent(tenantCtx, types.WebhookEventInvoicePastDue, inv.ID)
		}
	}

	return resp, nil
}

func (s *invoiceService) GetInvoicePDF(ctx context.Context, id string) ([]byte, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.PDFGenerator.Generate(ctx, invoiceToPDFData(inv))
}

// getDraft loads an invoice and enforces the draft-only precondition of
// item and field edits.
func (s *invoiceService) getDraft(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.InvoiceStatus != types.InvoiceStatusDraft {
		return nil, ierr.NewError("invoice is not in draft status").
			WithHint("Line items can only be changed on draft invoices").
			WithReportableDetails(map[string]any{"invoice_status": inv.InvoiceStatus}).
			Mark(ierr.ErrInvalidOperation)
	}
	return inv, nil
}

func (s *invoiceService) findItem(inv *invoice.Invoice, itemID string) *invoice.LineItem {
	for _, item := range inv.LineItems {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}

func (s *invoiceService) newLineItem(ctx context.Context, inv *invoice.Invoice, req dto.InvoiceLineItemRequest) *invoice.LineItem {
	return &invoice.LineItem{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM),
		InvoiceID:   inv.ID,
		Description: req.Description,
		TaxRateID:   req.TaxRateID,
		DiscountID:  req.DiscountID,
		Quantity:    req.Quantity,
		UnitAmount:  req.UnitAmount,
		Currency:    inv.Currency,
		Metadata:    req.Metadata,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
}

// recalculate recomputes every derived amount on the invoice: per line,
// discount first, then tax on the post-discount amount. For inclusive tax
// behavior the stored line amount is net of the extracted tax, so the
// invariant total = subtotal - discount_total + tax_total always equals
// what the customer owes.
func (s *invoiceService) recalculate(ctx context.Context, inv *invoice.Invoice, at time.Time) error {
	rates, discounts, err := s.resolveReferences(ctx, inv)
	if err != nil {
		return err
	}

	subtotal := decimal.Zero
	itemDiscountTotal := decimal.Zero
	taxTotal := decimal.Zero

	for _, item := range inv.LineItems {
		gross := item.Quantity.Mul(item.UnitAmount).Round(0)

		var lineDiscount decimal.Decimal
		if item.DiscountID != nil {
			lineDiscount = s.discountService.CalculateDiscount(
				ctx, discounts[*item.DiscountID], gross, inv.Currency, inv.CustomerID, at)
		}

		base := gross.Sub(lineDiscount)

		var tax decimal.Decimal
		if item.TaxRateID != nil {
			tax = s.taxService.CalculateTax(rates[*item.TaxRateID], base, inv.TaxBehavior, at)
		}

		amount := gross
		if inv.TaxBehavior == types.TaxBehaviorInclusive {
			amount = gross.Sub(tax)
		}

		item.Amount = amount
		item.DiscountAmount = lineDiscount
		item.TaxAmount = tax
		item.TotalAmount = amount.Sub(lineDiscount).Add(tax)

		subtotal = subtotal.Add(amount)
		itemDiscountTotal = itemDiscountTotal.Add(lineDiscount)
		taxTotal = taxTotal.Add(tax)
	}

	var invoiceDiscount decimal.Decimal
	if inv.DiscountID != nil {
		invoiceDiscount = s.discountService.CalculateDiscount(
			ctx, discounts[*inv.DiscountID], subtotal.Sub(itemDiscountTotal), inv.Currency, inv.CustomerID, at)
	}

	inv.Subtotal = subtotal
	inv.DiscountTotal = itemDiscountTotal.Add(invoiceDiscount)
	inv.TaxTotal = taxTotal
	inv.Total = inv.Subtotal.Sub(inv.DiscountTotal).Add(inv.TaxTotal)
	inv.AmountDue = inv.Total.Sub(inv.AmountPaid)
	inv.UpdatedAt = at
	inv.UpdatedBy = types.GetUserID(ctx)
	inv.Version++

	return inv.Validate()
}

// resolveReferences loads the tax rates and discounts referenced by the
// invoice and its line items. A dangling reference resolves to nil, which
// the calculators treat as "no rate / no discount".
func (s *invoiceService) resolveReferences(ctx context.Context, inv *invoice.Invoice) (map[string]*taxrate.TaxRate, map[string]*discount.Discount, error) {
	rates := make(map[string]*taxrate.TaxRate)
	discounts := make(map[string]*discount.Discount)

	collectDiscount := func(id *string) error {
		if id == nil || *id == "" {
			return nil
		}
		if _, ok := discounts[*id]; ok {
			return nil
		}
		d, err := s.DiscountRepo.Get(ctx, *id)
		if err != nil {
			if ierr.IsNotFound(err) {
				s.Logger.Warnw("invoice references unknown discount", "discount_id", *id, "invoice_id", inv.ID)
				discounts[*id] = nil
				return nil
			}
			return err
		}
		discounts[*id] = d
		return nil
	}

	if err := collectDiscount(inv.DiscountID); err != nil {
		return nil, nil, err
	}

	for _, item := range inv.LineItems {
		if err := collectDiscount(item.DiscountID); err != nil {
			return nil, nil, err
		}
		if item.TaxRateID == nil || *item.TaxRateID == "" {
			continue
		}
		if _, ok := rates[*item.TaxRateID]; ok {
			continue
		}
		rate, err := s.TaxRateRepo.Get(ctx, *item.TaxRateID)
		if err != nil {
			if ierr.IsNotFound(err) {
				s.Logger.Warnw("invoice references unknown tax rate", "tax_rate_id", *item.TaxRateID, "invoice_id", inv.ID)
				rates[*item.TaxRateID] = nil
				continue
			}
			return nil, nil, err
		}
		rates[*item.TaxRateID] = rate
	}

	return rates, discounts, nil
}

// publishWebhookEvent fires a domain event carrying the invoice reference.
// When the context carries an open transaction the publish waits for the
// outermost commit, so no event escapes for work that rolls back. Publish
// failures are logged, never fatal to the owning operation.
func (s *invoiceService) publishWebhookEvent(ctx context.Context, eventName, invoiceID string) {
	payload, err := json.Marshal(webhookDto.InternalInvoiceEvent{
		InvoiceID: invoiceID,
		TenantID:  types.GetTenantID(ctx),
	})
	if err != nil {
		s.Logger.Errorw("failed to marshal webhook payload", "error", err, "invoice_id", invoiceID)
		return
	}

	event := &types.WebhookEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventName: eventName,
		TenantID:  types.GetTenantID(ctx),
		UserID:    types.GetUserID(ctx),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	postgres.RunAfterCommit(ctx, func() {
		if err := s.WebhookPublisher.PublishWebhook(ctx, event); err != nil {
			s.Logger.Errorw("failed to publish webhook event",
				"error", err,
				"event_name", eventName,
				"invoice_id", invoiceID,
			)
		}
	})
}

func invoiceToPDFData(inv *invoice.Invoice) *pdfgen.InvoiceData {
	number := ""
	if inv.InvoiceNumber != nil {
		number = *inv.InvoiceNumber
	}
	email := ""
	if inv.CustomerEmail != nil {
		email = *inv.CustomerEmail
	}

	items := make([]pdfgen.LineItemData, len(inv.LineItems))
	for i, item := range inv.LineItems {
		items[i] = pdfgen.LineItemData{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitAmount:  item.UnitAmount,
			Amount:      item.TotalAmount,
		}
	}

	return &pdfgen.InvoiceData{
		ID:            inv.ID,
		InvoiceNumber: number,
		CustomerID:    inv.CustomerID,
		CustomerEmail: email,
		Status:        inv.InvoiceStatus.String(),
		Currency:      inv.Currency,
		IssuedAt:      inv.IssuedAt,
		DueDate:       inv.DueDate,
		Notes:         inv.Notes,
		Subtotal:      inv.Subtotal,
		DiscountTotal: inv.DiscountTotal,
		TaxTotal:      inv.TaxTotal,
		Total:         inv.Total,
		AmountPaid:    inv.AmountPaid,
		AmountDue:     inv.AmountDue,
		Items:         items,
	}
}
