package webhook

import (
	"go.uber.org/fx"

	"github.com/billora/billora/internal/config"
	"github.com/billora/billora/internal/httpclient"
	"github.com/billora/billora/internal/logger"
	"github.com/billora/billora/internal/pubsub"
	"github.com/billora/billora/internal/pubsub/memory"
	"github.com/billora/billora/internal/service"
	"github.com/billora/billora/internal/webhook/handler"
	"github.com/billora/billora/internal/webhook/payload"
	"github.com/billora/billora/internal/webhook/publisher"
)

// Module provides all webhook-related dependencies
var Module = fx.Options(
	fx.Provide(
		providePubSub,
		provideHTTPClient,
		publisher.NewPublisher,
		handler.NewHandler,
		providePayloadBuilderFactory,
		NewWebhookService,
	),
)

func providePayloadBuilderFactory(
	invoiceService service.InvoiceService,
) payload.PayloadBuilderFactory {
	services := payload.NewServices(invoiceService)
	return payload.NewPayloadBuilderFactory(services)
}

func providePubSub(
	cfg *config.Configuration,
	logger *logger.Logger,
) pubsub.PubSub {
	return memory.NewPubSub(cfg, logger)
}

func provideHTTPClient(cfg *config.Configuration) httpclient.Client {
	return httpclient.NewRetryableClient(cfg.Webhook.MaxRetries)
}
