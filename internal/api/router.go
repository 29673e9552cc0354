package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/billora/billora/internal/api/cron"
	v1 "github.com/billora/billora/internal/api/v1"
	"github.com/billora/billora/internal/config"
	"github.com/billora/billora/internal/rest/middleware"
	"github.com/billora/billora/internal/types"
)

type Handlers struct {
	Health           *v1.HealthHandler
	Invoice          *v1.InvoiceHandler
	TaxRate          *v1.TaxRateHandler
	Discount         *v1.DiscountHandler
	RecurringInvoice *v1.RecurringInvoiceHandler

	CronInvoice          *cron.InvoiceHandler
	CronRecurringInvoice *cron.RecurringInvoiceHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration) *gin.Engine {
	if cfg.Logging.Level != types.LogLevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1Group := router.Group("/v1", middleware.TenantMiddleware)
	registerV1Routes(v1Group, handlers)

	cronGroup := router.Group("/cron", middleware.TenantMiddleware)
	registerCronRoutes(cronGroup, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	invoices := router.Group("/invoices")
	{
		invoices.POST("", handlers.Invoice.CreateInvoice)
		invoices.GET("", handlers.Invoice.ListInvoices)
		invoices.GET("/number/preview", handlers.Invoice.PreviewNextNumber)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
		invoices.PUT("/:id", handlers.Invoice.UpdateInvoice)
		invoices.POST("/:id/items", handlers.Invoice.AddLineItem)
		invoices.PUT("/:id/items/:item_id", handlers.Invoice.UpdateLineItem)
		invoices.DELETE("/:id/items/:item_id", handlers.Invoice.RemoveLineItem)
		invoices.POST("/:id/issue", handlers.Invoice.IssueInvoice)
		invoices.POST("/:id/payments", handlers.Invoice.RecordPayment)
		invoices.POST("/:id/void", handlers.Invoice.VoidInvoice)
		invoices.POST("/:id/write-off", handlers.Invoice.WriteOffInvoice)
		invoices.GET("/:id/pdf", handlers.Invoice.GetInvoicePDF)
	}

	taxRates := router.Group("/taxrates")
	{
		taxRates.POST("", handlers.TaxRate.CreateTaxRate)
		taxRates.GET("", handlers.TaxRate.ListTaxRates)
		taxRates.GET("/:id", handlers.TaxRate.GetTaxRate)
		taxRates.PUT("/:id", handlers.TaxRate.UpdateTaxRate)
		taxRates.DELETE("/:id", handlers.TaxRate.DeleteTaxRate)
	}

	discounts := router.Group("/discounts")
	{
		discounts.POST("", handlers.Discount.CreateDiscount)
		discounts.GET("", handlers.Discount.ListDiscounts)
		discounts.POST("/validate", handlers.Discount.ValidateDiscount)
		discounts.GET("/:id", handlers.Discount.GetDiscount)
		discounts.DELETE("/:id", handlers.Discount.DeleteDiscount)
	}

	recurring := router.Group("/recurring-invoices")
	{
		recurring.POST("", handlers.RecurringInvoice.CreateRecurringInvoice)
		recurring.GET("", handlers.RecurringInvoice.ListRecurringInvoices)
		recurring.GET("/:id", handlers.RecurringInvoice.GetRecurringInvoice)
		recurring.POST("/:id/pause", handlers.RecurringInvoice.PauseRecurringInvoice)
		recurring.POST("/:id/resume", handlers.RecurringInvoice.ResumeRecurringInvoice)
	}
}

func registerCronRoutes(router *gin.RouterGroup, handlers Handlers) {
	invoices := router.Group("/invoices")
	{
		invoices.POST("/check-overdue", handlers.CronInvoice.CheckOverdue)
	}

	recurring := router.Group("/recurring-invoices")
	{
		recurring.POST("/process-due", handlers.CronRecurringInvoice.ProcessDue)
	}
}
