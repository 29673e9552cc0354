package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/billora/billora/internal/cache"
	"github.com/billora/billora/internal/config"
	"github.com/billora/billora/internal/domain/discount"
	"github.com/billora/billora/internal/domain/invoice"
	"github.com/billora/billora/internal/domain/recurringinvoice"
	"github.com/billora/billora/internal/domain/sequence"
	"github.com/billora/billora/internal/domain/taxrate"
	"github.com/billora/billora/internal/logger"
	"github.com/billora/billora/internal/pdfgen"
	"github.com/billora/billora/internal/postgres"
	"github.com/billora/billora/internal/types"
	"github.com/billora/billora/internal/validator"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	InvoiceRepo          invoice.Repository
	TaxRateRepo          taxrate.Repository
	DiscountRepo         discount.Repository
	SequenceRepo         sequence.Repository
	RecurringInvoiceRepo recurringinvoice.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx              context.Context
	stores           Stores
	webhookPublisher *InMemoryWebhookPublisher
	db               postgres.IClient
	logger           *logger.Logger
	config           *config.Configuration
	cache            cache.Cache
	pdfGenerator     pdfgen.Generator
	now              time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	s.config = cfg

	var err error
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}

	s.cache = cache.NewInMemoryCache(cfg)
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
	s.cache.Flush(s.ctx)
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = context.Background()
	s.ctx = context.WithValue(s.ctx, types.CtxTenantID, types.DefaultTenantID)
	s.ctx = context.WithValue(s.ctx, types.CtxUserID, types.DefaultUserID)
	s.ctx = context.WithValue(s.ctx, types.CtxRequestID, types.GenerateUUID())
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		InvoiceRepo:          NewInMemoryInvoiceStore(),
		TaxRateRepo:          NewInMemoryTaxRateStore(),
		DiscountRepo:         NewInMemoryDiscountStore(),
		SequenceRepo:         NewInMemorySequenceStore(),
		RecurringInvoiceRepo: NewInMemoryRecurringInvoiceStore(),
	}

	s.db = NewMockPostgresClient(s.logger)
	s.pdfGenerator = NewMockPDFGenerator(s.logger)
	s.webhookPublisher = NewInMemoryWebhookPublisher()
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.InvoiceRepo.(*InMemoryInvoiceStore).Clear()
	s.stores.TaxRateRepo.(*InMemoryTaxRateStore).Clear()
	s.stores.DiscountRepo.(*InMemoryDiscountStore).Clear()
	s.stores.SequenceRepo.(*InMemorySequenceStore).Clear()
	s.stores.RecurringInvoiceRepo.(*InMemoryRecurringInvoiceStore).Clear()
	s.webhookPublisher.Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetWebhookPublisher returns the test webhook publisher
func (s *BaseServiceTestSuite) GetWebhookPublisher() *InMemoryWebhookPublisher {
	return s.webhookPublisher
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetCache returns the test cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetPDFGenerator returns the test pdf generator
func (s *BaseServiceTestSuite) GetPDFGenerator() pdfgen.Generator {
	return s.pdfGenerator
}

// GetNow returns the current test time in UTC
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
