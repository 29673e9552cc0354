package email

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/resend/resend-go/v2"

	"github.com/billora/billora/internal/logger"
)

// SendInvoiceRequest carries everything needed to mail an invoice to a
// customer, with the rendered PDF attached when available.
type SendInvoiceRequest struct {
	ToAddress     string
	InvoiceNumber string
	Total         string
	Currency      string
	DueDate       *time.Time
	PDF           []byte
}

// Service sends transactional mail. Send failures are retried with
// exponential backoff; a disabled client makes every call a no-op.
type Service struct {
	client *Client
	logger *logger.Logger
}

func NewService(client *Client, logger *logger.Logger) *Service {
	return &Service{
		client: client,
		logger: logger,
	}
}

// SendInvoice mails an issued invoice to the customer.
func (s *Service) SendInvoice(ctx context.Context, req SendInvoiceRequest) error {
	if !s.client.IsEnabled() {
		s.logger.Debugw("email client disabled, skipping invoice email",
			"to", req.ToAddress,
			"invoice_number", req.InvoiceNumber,
		)
		return nil
	}

	if req.ToAddress == "" {
		s.logger.Warnw("no customer email on invoice, skipping send",
			"invoice_number", req.InvoiceNumber,
		)
		return nil
	}

	subject := fmt.Sprintf("Invoice %s", req.InvoiceNumber)
	text := fmt.Sprintf("Your invoice %s for %s %s is ready.", req.InvoiceNumber, req.Total, req.Currency)
	if req.DueDate != nil {
		text += fmt.Sprintf(" Payment is due by %s.", req.DueDate.Format("January 2, 2006"))
	}

	var attachments []*resend.Attachment
	if len(req.PDF) > 0 {
		attachments = append(attachments, &resend.Attachment{
			Filename: fmt.Sprintf("%s.pdf", req.InvoiceNumber),
			Content:  req.PDF,
		})
	}

	operation := func() error {
		_, err := s.client.Send(ctx, s.client.GetFromAddress(), req.ToAddress, subject, "", text, attachments)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		s.logger.Errorw("failed to send invoice email",
			"error", err,
			"to", req.ToAddress,
			"invoice_number", req.InvoiceNumber,
		)
		return err
	}

	s.logger.Infow("invoice email sent",
		"to", req.ToAddress,
		"invoice_number", req.InvoiceNumber,
	)

	return nil
}
