package handler

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/billora/billora/internal/config"
	"github.com/billora/billora/internal/httpclient"
	"github.com/billora/billora/internal/logger"
	"github.com/billora/billora/internal/pubsub"
	"github.com/billora/billora/internal/types"
	"github.com/billora/billora/internal/webhook/payload"
)

// Handler consumes webhook events and delivers them to the configured
// endpoint.
type Handler interface {
	HandleWebhookEvents(ctx context.Context) error
	Close() error
}

type handler struct {
	pubSub  pubsub.PubSub
	config  *config.Webhook
	factory payload.PayloadBuilderFactory
	client  httpclient.Client
	logger  *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHandler(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	factory payload.PayloadBuilderFactory,
	client httpclient.Client,
	logger *logger.Logger,
) (Handler, error) {
	return &handler{
		pubSub:  pubSub,
		config:  &cfg.Webhook,
		factory: factory,
		client:  client,
		logger:  logger,
	}, nil
}

// HandleWebhookEvents subscribes to the webhook topic and consumes
// messages until the context is cancelled or Close is called.
func (h *handler) HandleWebhookEvents(ctx context.Context) error {
	ctx, h.cancel = context.WithCancel(ctx)

	messages, err := h.pubSub.Subscribe(ctx, h.config.Topic)
	if err != nil {
		return err
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for msg := range messages {
			if err := h.processMessage(msg); err != nil {
				h.logger.Errorw("failed to process webhook message",
					"error", err,
					"message_uuid", msg.UUID,
				)
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()

	return nil
}

func (h *handler) processMessage(msg *message.Message) error {
	ctx := msg.Context()

	var event types.WebhookEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		h.logger.Errorw("failed to unmarshal webhook event",
			"error", err,
			"message_uuid", msg.UUID,
		)
		// malformed payloads will never deliver, drop them
		return nil
	}

	ctx = types.SetTenantID(ctx, event.TenantID)
	ctx = types.SetUserID(ctx, event.UserID)

	if !h.config.Enabled || h.config.Endpoint == "" {
		h.logger.Debugw("webhook delivery disabled, dropping event",
			"event_name", event.EventName,
			"tenant_id", event.TenantID,
		)
		return nil
	}

	builder, err := h.factory.GetBuilder(event.EventName)
	if err != nil {
		return err
	}

	webhookPayload, err := builder.BuildPayload(ctx, event.EventName, event.Payload)
	if err != nil {
		return err
	}

	req := &httpclient.Request{
		Method: "POST",
		URL:    h.config.Endpoint,
		Headers: map[string]string{
			"X-Webhook-Event": event.EventName,
			"X-Tenant-ID":     event.TenantID,
		},
		Body: webhookPayload,
	}

	resp, err := h.client.Send(ctx, req)
	if err != nil {
		h.logger.Errorw("failed to deliver webhook",
			"error", err,
			"message_uuid", msg.UUID,
			"tenant_id", event.TenantID,
			"event", event.EventName,
		)
		return err
	}

	h.logger.Infow("webhook delivered",
		"message_uuid", msg.UUID,
		"tenant_id", event.TenantID,
		"event", event.EventName,
		"status_code", resp.StatusCode,
	)

	return nil
}

func (h *handler) Close() error {
	if h.cancel != nil {
		h.cancel()
	}
	h.wg.Wait()
	return nil
}
