package cron

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/billora/billora/internal/logger"
	"github.com/billora/billora/internal/service"
)

// RecurringInvoiceHandler handles recurring invoice cron jobs
type RecurringInvoiceHandler struct {
	recurringService service.RecurringInvoiceService
	logger           *logger.Logger
}

// NewRecurringInvoiceHandler creates a new recurring invoice cron handler
func NewRecurringInvoiceHandler(recurringService service.RecurringInvoiceService, logger *logger.Logger) *RecurringInvoiceHandler {
	return &RecurringInvoiceHandler{
		recurringService: recurringService,
		logger:           logger,
	}
}

// ProcessDue generates and issues invoices for every active template whose
// next billing date has arrived, across all tenants. Each template runs in
// its own transaction so a failing template never blocks the rest of the
// batch.
func (h *RecurringInvoiceHandler) ProcessDue(c *gin.Context) {
	h.logger.Infow("starting recurring invoice run", "time", time.Now().UTC().Format(time.RFC3339))

	resp, err := h.recurringService.ProcessAllDue(c.Request.Context())
	if err != nil {
		h.logger.Errorw("recurring invoice run failed", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed recurring invoice run",
		"processed", resp.Processed,
		"succeeded", resp.Succeeded,
		"failed", resp.Failed)

	c.JSON(http.StatusOK, resp)
}
