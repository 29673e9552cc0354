package repository

import (
	"github.com/billora/billora/internal/domain/discount"
	"github.com/billora/billora/internal/domain/invoice"
	"github.com/billora/billora/internal/domain/recurringinvoice"
	"github.com/billora/billora/internal/domain/sequence"
	"github.com/billora/billora/internal/domain/taxrate"
	"github.com/billora/billora/internal/logger"
	"github.com/billora/billora/internal/postgres"
	postgresRepo "github.com/billora/billora/internal/repository/postgres"
)

func NewInvoiceRepository(db postgres.IClient, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(db, logger)
}

func NewTaxRateRepository(db postgres.IClient, logger *logger.Logger) taxrate.Repository {
	return postgresRepo.NewTaxRateRepository(db, logger)
}

func NewDiscountRepository(db postgres.IClient, logger *logger.Logger) discount.Repository {
	return postgresRepo.NewDiscountRepository(db, logger)
}

func NewSequenceRepository(db postgres.IClient, logger *logger.Logger) sequence.Repository {
	return postgresRepo.NewSequenceRepository(db, logger)
}

func NewRecurringInvoiceRepository(db postgres.IClient, logger *logger.Logger) recurringinvoice.Repository {
	return postgresRepo.NewRecurringInvoiceRepository(db, logger)
}
