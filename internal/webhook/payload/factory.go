package payload

import (
	"fmt"

	"github.com/billora/billora/internal/types"
)

// PayloadBuilderFactory returns the builder registered for an event type.
type PayloadBuilderFactory interface {
	GetBuilder(eventType string) (PayloadBuilder, error)
}

type payloadBuilderFactory struct {
	builders map[string]func() PayloadBuilder
	services *Services
}

func NewPayloadBuilderFactory(services *Services) PayloadBuilderFactory {
	f := &payloadBuilderFactory{
		builders: make(map[string]func() PayloadBuilder),
		services: services,
	}

	invoiceEvents := []string{
		types.WebhookEventInvoiceIssued,
		types.WebhookEventInvoicePaid,
		types.WebhookEventInvoiceVoided,
		types.WebhookEventInvoiceWrittenOff,
		types.WebhookEventInvoicePastDue,
	}
	for _, event := range invoiceEvents {
		f.builders[event] = func() PayloadBuilder {
			return NewInvoicePayloadBuilder(f.services)
		}
	}

	return f
}

func (f *payloadBuilderFactory) GetBuilder(eventType string) (PayloadBuilder, error) {
	builderFn, ok := f.builders[eventType]
	if !ok {
		return nil, fmt.Errorf("no builder registered for event type: %s", eventType)
	}
	return builderFn(), nil
}
