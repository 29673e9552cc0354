package payload

import (
	"context"
	"encoding/json"

	ierr "github.com/billora/billora/internal/errors"
	webhookDto "github.com/billora/billora/internal/webhook/dto"
)

type InvoicePayloadBuilder struct {
	services *Services
}

func NewInvoicePayloadBuilder(services *Services) PayloadBuilder {
	return &InvoicePayloadBuilder{
		services: services,
	}
}

// BuildPayload builds the webhook payload for invoice events
func (b *InvoicePayloadBuilder) BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error) {
	var parsedPayload webhookDto.InternalInvoiceEvent

	err := json.Unmarshal(data, &parsedPayload)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unable to unmarshal invoice event payload").
			Mark(ierr.ErrInvalidOperation)
	}

	if parsedPayload.InvoiceID == "" || parsedPayload.TenantID == "" {
		return nil, ierr.NewError("invalid data for invoice event").
			WithHint("Please provide a valid invoice ID and tenant ID").
			Mark(ierr.ErrInvalidOperation)
	}

	invoice, err := b.services.InvoiceService.GetInvoice(ctx, parsedPayload.InvoiceID)
	if err != nil {
		return nil, err
	}

	payload := webhookDto.NewInvoiceWebhookPayload(invoice, eventType)

	return json.Marshal(payload)
}
