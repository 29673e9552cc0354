package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/billora/billora/internal/testutil"
	"github.com/billora/billora/internal/types"
)

type NumberingServiceSuite struct {
	testutil.BaseServiceTestSuite
	service NumberingService
}

func TestNumberingService(t *testing.T) {
	suite.Run(t, new(NumberingServiceSuite))
}

func (s *NumberingServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewNumberingService(ServiceParams{
		Logger:               s.GetLogger(),
		Config:               s.GetConfig(),
		DB:                   s.GetDB(),
		Cache:                s.GetCache(),
		PDFGenerator:         s.GetPDFGenerator(),
		InvoiceRepo:          s.GetStores().InvoiceRepo,
		TaxRateRepo:          s.GetStores().TaxRateRepo,
		DiscountRepo:         s.GetStores().DiscountRepo,
		SequenceRepo:         s.GetStores().SequenceRepo,
		RecurringInvoiceRepo: s.GetStores().RecurringInvoiceRepo,
		WebhookPublisher:     s.GetWebhookPublisher(),
	})
}

func (s *NumberingServiceSuite) TestReserveNumberFormat() {
	year := time.Now().UTC().Year()

	number, err := s.service.ReserveNumber(s.GetContext(), types.SequenceScopeInvoice)
	s.NoError(err)
	s.Equal(fmt.Sprintf("INV-%d-000001", year), number)
}

func (s *NumberingServiceSuite) TestReserveNumberSequential() {
	var numbers []string
	for i := 0; i < 5; i++ {
		number, err := s.service.ReserveNumber(s.GetContext(), types.SequenceScopeInvoice)
		s.NoError(err)
		numbers = append(numbers, number)
	}

	year := time.Now().UTC().Year()
	for i, number := range numbers {
		s.Equal(fmt.Sprintf("INV-%d-%06d", year, i+1), number)
	}
}

func (s *NumberingServiceSuite) TestScopesCountIndependently() {
	year := time.Now().UTC().Year()

	invNumber, err := s.service.ReserveNumber(s.GetContext(), types.SequenceScopeInvoice)
	s.NoError(err)
	s.Equal(fmt.Sprintf("INV-%d-000001", year), invNumber)

	cnNumber, err := s.service.ReserveNumber(s.GetContext(), types.SequenceScopeCreditNote)
	s.NoError(err)
	s.Equal(fmt.Sprintf("CN-%d-000001", year), cnNumber)

	// the invoice counter was not advanced by the credit note reservation
	invNumber, err = s.service.ReserveNumber(s.GetContext(), types.SequenceScopeInvoice)
	s.NoError(err)
	s.Equal(fmt.Sprintf("INV-%d-000002", year), invNumber)
}

func (s *NumberingServiceSuite) TestReserveNumberConcurrent() {
	const reservations = 50

	results := make(chan string, reservations)
	var wg sync.WaitGroup
	for i := 0; i < reservations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := s.service.ReserveNumber(s.GetContext(), types.SequenceScopeInvoice)
			s.NoError(err)
			results <- number
		}()
	}
	wg.Wait()
	close(results)

	// every reservation is distinct and the set is gapless
	seen := make(map[string]bool, reservations)
	for number := range results {
		s.False(seen[number], "number %s reserved twice", number)
		seen[number] = true
	}
	s.Len(seen, reservations)

	year := time.Now().UTC().Year()
	for i := 1; i <= reservations; i++ {
		s.True(seen[fmt.Sprintf("INV-%d-%06d", year, i)], "missing reservation %d", i)
	}
}

func (s *NumberingServiceSuite) TestPreviewDoesNotReserve() {
	year := time.Now().UTC().Year()

	preview, err := s.service.PreviewNextNumber(s.GetContext(), types.SequenceScopeInvoice)
	s.NoError(err)
	s.Equal(fmt.Sprintf("INV-%d-000001", year), preview)

	// previewing again yields the same number
	preview, err = s.service.PreviewNextNumber(s.GetContext(), types.SequenceScopeInvoice)
	s.NoError(err)
	s.Equal(fmt.Sprintf("INV-%d-000001", year), preview)

	// and the reservation hands out exactly the previewed number
	number, err := s.service.ReserveNumber(s.GetContext(), types.SequenceScopeInvoice)
	s.NoError(err)
	s.Equal(preview, number)

	preview, err = s.service.PreviewNextNumber(s.GetContext(), types.SequenceScopeInvoice)
	s.NoError(err)
	s.Equal(fmt.Sprintf("INV-%d-000002", year), preview)
}

func (s *NumberingServiceSuite) TestInvalidScope() {
	_, err := s.service.ReserveNumber(s.GetContext(), types.SequenceScope("purchase_order"))
	s.Error(err)

	_, err = s.service.PreviewNextNumber(s.GetContext(), types.SequenceScope("purchase_order"))
	s.Error(err)
}
