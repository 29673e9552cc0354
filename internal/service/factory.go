package service

import (
	"github.com/billora/billora/internal/cache"
	"github.com/billora/billora/internal/config"
	"github.com/billora/billora/internal/domain/discount"
	"github.com/billora/billora/internal/domain/invoice"
	"github.com/billora/billora/internal/domain/recurringinvoice"
	"github.com/billora/billora/internal/domain/sequence"
	"github.com/billora/billora/internal/domain/taxrate"
	"github.com/billora/billora/internal/email"
	"github.com/billora/billora/internal/logger"
	"github.com/billora/billora/internal/pdfgen"
	"github.com/billora/billora/internal/postgres"
	webhookPublisher "github.com/billora/billora/internal/webhook/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger       *logger.Logger
	Config       *config.Configuration
	DB           postgres.IClient
	Cache        cache.Cache
	PDFGenerator pdfgen.Generator
	EmailService *email.Service

	// Repositories
	InvoiceRepo          invoice.Repository
	TaxRateRepo          taxrate.Repository
	DiscountRepo         discount.Repository
	SequenceRepo         sequence.Repository
	RecurringInvoiceRepo recurringinvoice.Repository

	// Publishers
	WebhookPublisher webhookPublisher.WebhookPublisher
}

// NewServiceParams creates a new ServiceParams with all dependencies
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	cache cache.Cache,
	pdfGenerator pdfgen.Generator,
	emailService *email.Service,
	invoiceRepo invoice.Repository,
	taxRateRepo taxrate.Repository,
	discountRepo discount.Repository,
	sequenceRepo sequence.Repository,
	recurringInvoiceRepo recurringinvoice.Repository,
	webhookPublisher webhookPublisher.WebhookPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:               logger,
		Config:               config,
		DB:                   db,
		Cache:                cache,
		PDFGenerator:         pdfGenerator,
		EmailService:         emailService,
		InvoiceRepo:          invoiceRepo,
		TaxRateRepo:          taxRateRepo,
		DiscountRepo:         discountRepo,
		SequenceRepo:         sequenceRepo,
		RecurringInvoiceRepo: recurringInvoiceRepo,
		WebhookPublisher:     webhookPublisher,
	}
}
