package pdfgen

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceData is the renderer input, assembled by the invoice service
// from a stored invoice.
type InvoiceData struct {
	ID            string
	InvoiceNumber string
	CustomerID    string
	CustomerEmail string
	Status        string
	Currency      string
	IssuedAt      *time.Time
	DueDate       *time.Time
	Notes         string

	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	TaxTotal      decimal.Decimal
	Total         decimal.Decimal
	AmountPaid    decimal.Decimal
	AmountDue     decimal.Decimal

	Items []LineItemData
}

// LineItemData is one invoice row for rendering.
type LineItemData struct {
	Description string
	Quantity    decimal.Decimal
	UnitAmount  decimal.Decimal
	Amount      decimal.Decimal
}

// Generator renders an invoice document as PDF bytes.
type Generator interface {
	Generate(ctx context.Context, data *InvoiceData) ([]byte, error)
}
