package testutil

import (
	"context"

	"github.com/billora/billora/internal/logger"
	"github.com/billora/billora/internal/pdfgen"
)

var _ pdfgen.Generator = (*MockPDFGenerator)(nil)

// MockPDFGenerator returns a fixed payload instead of invoking typst
type MockPDFGenerator struct {
	logger *logger.Logger
}

func NewMockPDFGenerator(logger *logger.Logger) pdfgen.Generator {
	return &MockPDFGenerator{
		logger: logger,
	}
}

func (m *MockPDFGenerator) Generate(ctx context.Context, data *pdfgen.InvoiceData) ([]byte, error) {
	return []byte("%PDF-1.7 test"), nil
}
