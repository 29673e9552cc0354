package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/billora/billora/internal/config"
)

// Client wraps the resend API client. A client built from a disabled or
// keyless configuration silently stays inert.
type Client struct {
	client      *resend.Client
	enabled     bool
	fromAddress string
	replyTo     string
}

func NewClient(cfg *config.Configuration) *Client {
	if !cfg.Email.Enabled || cfg.Email.APIKey == "" {
		return &Client{enabled: false}
	}

	return &Client{
		client:      resend.NewClient(cfg.Email.APIKey),
		enabled:     true,
		fromAddress: cfg.Email.FromAddress,
		replyTo:     cfg.Email.ReplyTo,
	}
}

func (c *Client) IsEnabled() bool {
	return c.enabled
}

func (c *Client) GetFromAddress() string {
	return c.fromAddress
}

// Send sends an email with optional attachments and returns the
// provider message id.
func (c *Client) Send(ctx context.Context, from, to, subject, htmlContent, textContent string, attachments []*resend.Attachment) (string, error) {
	if !c.enabled {
		return "", fmt.Errorf("email client is disabled")
	}

	params := &resend.SendEmailRequest{
		From:        from,
		To:          []string{to},
		Subject:     subject,
		Html:        htmlContent,
		Text:        textContent,
		Attachments: attachments,
	}

	if c.replyTo != "" {
		params.ReplyTo = c.replyTo
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	return sent.Id, nil
}
