package types

import (
	"encoding/json"
	"time"
)

// WebhookEvent represents a domain event published on the webhook topic
type WebhookEvent struct {
	ID        string          `json:"id"`
	EventName string          `json:"event_name"`
	TenantID  string          `json:"tenant_id"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Common webhook event names
const (
	WebhookEventInvoiceIssued     = "invoice.issued"
	WebhookEventInvoicePaid       = "invoice.paid"
	WebhookEventInvoiceVoided     = "invoice.voided"
	WebhookEventInvoiceWrittenOff = "invoice.written_off"
	WebhookEventInvoicePastDue    = "invoice.past_due"
)
