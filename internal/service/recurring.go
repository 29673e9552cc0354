package service

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/billora/billora/internal/api/dto"
	"github.com/billora/billora/internal/domain/recurringinvoice"
	"github.com/billora/billora/internal/email"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/types"
)

// RecurringInvoiceService manages invoice templates and turns the due ones
// into issued invoices on their billing schedule.
type RecurringInvoiceService interface {
	CreateRecurringInvoice(ctx context.Context, req dto.CreateRecurringInvoiceRequest) (*dto.RecurringInvoiceResponse, error)
	GetRecurringInvoice(ctx context.Context, id string) (*dto.RecurringInvoiceResponse, error)
	ListRecurringInvoices(ctx context.Context, filter *types.RecurringInvoiceFilter) (*dto.ListRecurringInvoicesResponse, error)
	Pause(ctx context.Context, id string) (*dto.RecurringInvoiceResponse, error)
	Resume(ctx context.Context, id string) (*dto.RecurringInvoiceResponse, error)

	// CalculateNextBillingDate advances a billing date by count intervals,
	// clamping the preferred day-of-month to the target month's length.
	CalculateNextBillingDate(from time.Time, interval types.BillingInterval, count int, preferredDay int) (time.Time, error)

	// GenerateInvoice produces and issues one invoice from the template,
	// then advances its schedule. Emailing the invoice is best effort.
	GenerateInvoice(ctx context.Context, template *recurringinvoice.RecurringInvoice) (*dto.InvoiceResponse, error)

	// ProcessAllDue generates invoices for every active template whose next
	// billing date has arrived, sweeping every tenant. Per-template failures
	// are logged and do not abort the batch.
	ProcessAllDue(ctx context.Context) (*dto.ProcessDueResponse, error)
}

type recurringInvoiceService struct {
	ServiceParams
	invoiceService InvoiceService
}

func NewRecurringInvoiceService(params ServiceParams) RecurringInvoiceService {
	return &recurringInvoiceService{
		ServiceParams:  params,
		invoiceService: NewInvoiceService(params),
	}
}

func (s *recurringInvoiceService) CreateRecurringInvoice(ctx context.Context, req dto.CreateRecurringInvoiceRequest) (*dto.RecurringInvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	template := req.ToRecurringInvoice(ctx, s.Config.Invoice.DefaultNetTermsDays)
	if err := template.Validate(); err != nil {
		return nil, err
	}

	if err := s.RecurringInvoiceRepo.CreateWithItems(ctx, template); err != nil {
		return nil, err
	}

	s.Logger.Infow("created recurring invoice template",
		"recurring_invoice_id", template.ID,
		"customer_id", template.CustomerID,
		"interval", template.Interval,
		"next_billing_date", template.NextBillingDate,
	)

	return &dto.RecurringInvoiceResponse{RecurringInvoice: template}, nil
}

func (s *recurringInvoiceService) GetRecurringInvoice(ctx context.Context, id string) (*dto.RecurringInvoiceResponse, error) {
	if id == "" {
		return nil, ierr.NewError("recurring invoice id is required").
			WithHint("Recurring invoice ID is required").
			Mark(ierr.ErrValidation)
	}

	template, err := s.RecurringInvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return &dto.RecurringInvoiceResponse{RecurringInvoice: template}, nil
}

func (s *recurringInvoiceService) ListRecurringInvoices(ctx context.Context, filter *types.RecurringInvoiceFilter) (*dto.ListRecurringInvoicesResponse, error) {
	if filter == nil {
		filter = types.NewRecurringInvoiceFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	templates, err := s.RecurringInvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.RecurringInvoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.RecurringInvoiceResponse, len(templates))
	for i, template := range templates {
		items[i] = &dto.RecurringInvoiceResponse{RecurringInvoice: template}
	}

	return &dto.ListRecurringInvoicesResponse{
		Items:      items,
		Pagination: types.NewPaginationResponse(total, filter.GetLimit(), filter.GetOffset()),
	}, nil
}

func (s *recurringInvoiceService) Pause(ctx context.Context, id string) (*dto.RecurringInvoiceResponse, error) {
	return s.setStatus(ctx, id, types.RecurringInvoiceStatusActive, types.RecurringInvoiceStatusPaused)
}

func (s *recurringInvoiceService) Resume(ctx context.Context, id string) (*dto.RecurringInvoiceResponse, error) {
	return s.setStatus(ctx, id, types.RecurringInvoiceStatusPaused, types.RecurringInvoiceStatusActive)
}

func (s *recurringInvoiceService) setStatus(ctx context.Context, id string, from, to types.RecurringInvoiceStatus) (*dto.RecurringInvoiceResponse, error) {
	template, err := s.RecurringInvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if template.RecurringInvoiceStatus != from {
		return nil, ierr.NewError("invalid recurring invoice status transition").
			WithHint("The template is not in a state that allows this transition").
			WithReportableDetails(map[string]any{
				"current": template.RecurringInvoiceStatus,
				"target":  to,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	template.RecurringInvoiceStatus = to
	template.UpdatedAt = time.Now().UTC()
	template.UpdatedBy = types.GetUserID(ctx)

	if err := s.RecurringInvoiceRepo.Update(ctx, template); err != nil {
		return nil, err
	}

	return &dto.RecurringInvoiceResponse{RecurringInvoice: template}, nil
}

func (s *recurringInvoiceService) CalculateNextBillingDate(from time.Time, interval types.BillingInterval, count int, preferredDay int) (time.Time, error) {
	return types.NextBillingDate(from, interval, count, preferredDay)
}

func (s *recurringInvoiceService) GenerateInvoice(ctx context.Context, template *recurringinvoice.RecurringInvoice) (*dto.InvoiceResponse, error) {
	var issued *dto.InvoiceResponse

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		req := dto.CreateInvoiceRequest{
			CustomerID:   template.CustomerID,
			Currency:     template.Currency,
			TaxBehavior:  template.TaxBehavior,
			NetTermsDays: lo.ToPtr(template.NetTermsDays),
			Description:  template.Description,
			Metadata:     template.Metadata,
		}
		if template.DiscountID != "" {
			req.DiscountID = lo.ToPtr(template.DiscountID)
		}
		if template.CustomerEmail != "" {
			req.CustomerEmail = lo.ToPtr(template.CustomerEmail)
		}
		for _, item := range template.Items {
			lineReq := dto.InvoiceLineItemRequest{
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitAmount:  item.UnitAmount,
				Metadata:    item.Metadata,
			}
			if item.TaxRateID != "" {
				lineReq.TaxRateID = lo.ToPtr(item.TaxRateID)
			}
			if item.DiscountID != "" {
				lineReq.DiscountID = lo.ToPtr(item.DiscountID)
			}
			req.Items = append(req.Items, lineReq)
		}

		draft, err := s.invoiceService.CreateDraft(ctx, req)
		if err != nil {
			return err
		}

		draft.Invoice.RecurringInvoiceID = lo.ToPtr(template.ID)
		if err := s.InvoiceRepo.Update(ctx, draft.Invoice); err != nil {
			return err
		}

		issued, err = s.invoiceService.Issue(ctx, draft.Invoice.ID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		template.OccurrenceCount++
		template.LastRunAt = &now
		next, err := s.CalculateNextBillingDate(
			template.NextBillingDate, template.Interval, template.IntervalCount, template.DayOfMonth)
		if err != nil {
			return err
		}
		template.NextBillingDate = next
		if template.IsExhausted() {
			template.RecurringInvoiceStatus = types.RecurringInvoiceStatusCompleted
		}
		template.UpdatedAt = now

		return s.RecurringInvoiceRepo.Update(ctx, template)
	})
	if err != nil {
		return nil, err
	}

	s.sendInvoiceEmail(ctx, template, issued)

	s.Logger.Infow("generated invoice from template",
		"recurring_invoice_id", template.ID,
		"invoice_id", issued.Invoice.ID,
		"occurrence_count", template.OccurrenceCount,
		"next_billing_date", template.NextBillingDate,
	)

	return issued, nil
}

func (s *recurringInvoiceService) ProcessAllDue(ctx context.Context) (*dto.ProcessDueResponse, error) {
	now := time.Now().UTC()
	tenants, err := s.RecurringInvoiceRepo.ListDueTenants(ctx, now)
	if err != nil {
		return nil, err
	}

	resp := &dto.ProcessDueResponse{}
	for _, tenantID := range tenants {
		tenantCtx := types.SetTenantID(ctx, tenantID)
		due, err := s.RecurringInvoiceRepo.ListDue(tenantCtx, now)
		if err != nil {
			s.Logger.Errorw("failed to list due recurring invoices",
				"error", err,
				"tenant_id", tenantID,
			)
			continue
		}

		resp.Processed += len(due)
		for _, template := range due {
			if _, err := s.GenerateInvoice(tenantCtx, template); err != nil {
				s.Logger.Errorw("failed to generate invoice from template",
					"error", err,
					"recurring_invoice_id", template.ID,
				)
				resp.Failed++
				continue
			}
			resp.Succeeded++
		}
	}

	s.Logger.Infow("processed due recurring invoices",
		"processed", resp.Processed,
		"succeeded", resp.Succeeded,
		"failed", resp.Failed,
	)

	return resp, nil
}

// sendInvoiceEmail mails the freshly issued invoice. Failures are logged
// and never fail the generation.
func (s *recurringInvoiceService) sendInvoiceEmail(ctx context.Context, template *recurringinvoice.RecurringInvoice, issued *dto.InvoiceResponse) {
	if s.EmailService == nil || template.CustomerEmail == "" {
		return
	}

	var pdf []byte
	if s.PDFGenerator != nil {
		var err error
		pdf, err = s.PDFGenerator.Generate(ctx, invoiceToPDFData(issued.Invoice))
		if err != nil {
			s.Logger.Warnw("failed to render invoice pdf for email",
				"error", err,
				"invoice_id", issued.Invoice.ID,
			)
		}
	}

	req := email.SendInvoiceRequest{
		ToAddress:     template.CustomerEmail,
		InvoiceNumber: lo.FromPtr(issued.Invoice.InvoiceNumber),
		Total:         issued.Invoice.Total.String(),
		Currency:      issued.Invoice.Currency,
		DueDate:       issued.Invoice.DueDate,
		PDF:           pdf,
	}
	if err := s.EmailService.SendInvoice(ctx, req); err != nil {
		s.Logger.Errorw("failed to email invoice",
			"error", err,
			"invoice_id", issued.Invoice.ID,
			"to", template.CustomerEmail,
		)
	}
}
