package webhook

import (
	"context"
	"fmt"

	"github.com/billora/billora/internal/config"
	"github.com/billora/billora/internal/httpclient"
	"github.com/billora/billora/internal/logger"
	"github.com/billora/billora/internal/webhook/handler"
	"github.com/billora/billora/internal/webhook/payload"
	"github.com/billora/billora/internal/webhook/publisher"
)

// WebhookService orchestrates webhook publication and delivery.
type WebhookService struct {
	config    *config.Configuration
	publisher publisher.WebhookPublisher
	handler   handler.Handler
	factory   payload.PayloadBuilderFactory
	client    httpclient.Client
	logger    *logger.Logger
}

func NewWebhookService(
	cfg *config.Configuration,
	publisher publisher.WebhookPublisher,
	h handler.Handler,
	f payload.PayloadBuilderFactory,
	c httpclient.Client,
	l *logger.Logger,
) *WebhookService {
	return &WebhookService{
		config:    cfg,
		publisher: publisher,
		handler:   h,
		factory:   f,
		client:    c,
		logger:    l,
	}
}

func (s *WebhookService) Start(ctx context.Context) error {
	if !s.config.Webhook.Enabled {
		s.logger.Info("webhook service disabled")
		return nil
	}

	if err := s.handler.HandleWebhookEvents(ctx); err != nil {
		return fmt.Errorf("failed to start webhook handler: %w", err)
	}

	s.logger.Info("webhook service started")
	return nil
}

func (s *WebhookService) Stop() error {
	if err := s.handler.Close(); err != nil {
		s.logger.Errorw("failed to close webhook handler", "error", err)
		return fmt.Errorf("failed to close webhook handler: %w", err)
	}

	if err := s.publisher.Close(); err != nil {
		s.logger.Errorw("failed to close webhook publisher", "error", err)
		return fmt.Errorf("failed to close webhook publisher: %w", err)
	}

	s.logger.Info("webhook service stopped")
	return nil
}
