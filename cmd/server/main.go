package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/billora/billora/internal/api"
	"github.com/billora/billora/internal/api/cron"
	v1 "github.com/billora/billora/internal/api/v1"
	"github.com/billora/billora/internal/cache"
	"github.com/billora/billora/internal/config"
	"github.com/billora/billora/internal/email"
	"github.com/billora/billora/internal/logger"
	"github.com/billora/billora/internal/pdfgen"
	"github.com/billora/billora/internal/postgres"
	"github.com/billora/billora/internal/repository"
	"github.com/billora/billora/internal/service"
	"github.com/billora/billora/internal/types"
	"github.com/billora/billora/internal/validator"
	"github.com/billora/billora/internal/webhook"
)

// @title Billora API
// @version 1.0
// @description Invoicing API service
// @BasePath /v1
// @schemes http https

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// Postgres
			postgres.NewDB,
			postgres.NewClient,

			// PDF rendering
			pdfgen.NewTypstRenderer,

			// Email
			email.NewClient,
			email.NewService,

			// Repositories
			repository.NewInvoiceRepository,
			repository.NewTaxRateRepository,
			repository.NewDiscountRepository,
			repository.NewSequenceRepository,
			repository.NewRecurringInvoiceRepository,
		),
	)

	// Webhook module (must be initialised before services)
	opts = append(opts, webhook.Module)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewTaxService,
			service.NewDiscountService,
			service.NewNumberingService,
			service.NewInvoiceService,
			service.NewRecurringInvoiceService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	cfg *config.Configuration,
	logger *logger.Logger,
	invoiceService service.InvoiceService,
	taxService service.TaxService,
	discountService service.DiscountService,
	numberingService service.NumberingService,
	recurringService service.RecurringInvoiceService,
) api.Handlers {
	return api.Handlers{
		Health:           v1.NewHealthHandler(logger),
		Invoice:          v1.NewInvoiceHandler(invoiceService, numberingService, logger),
		TaxRate:          v1.NewTaxRateHandler(taxService, logger),
		Discount:         v1.NewDiscountHandler(discountService, logger),
		RecurringInvoice: v1.NewRecurringInvoiceHandler(recurringService, logger),

		CronInvoice:          cron.NewInvoiceHandler(invoiceService, logger),
		CronRecurringInvoice: cron.NewRecurringInvoiceHandler(recurringService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration) *gin.Engine {
	return api.NewRouter(handlers, cfg)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	db *postgres.DB,
	webhookService *webhook.WebhookService,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
		startWebhookConsumer(lc, webhookService, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			db.Close()
			return nil
		},
	})
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}

func startWebhookConsumer(
	lc fx.Lifecycle,
	webhookService *webhook.WebhookService,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// the consumer runs until Stop; detach it from the startup context
			return webhookService.Start(context.Background())
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping webhook service")
			return webhookService.Stop()
		},
	})
}
