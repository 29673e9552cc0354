package cron

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/billora/billora/internal/logger"
	"github.com/billora/billora/internal/service"
)

// InvoiceHandler handles invoice related cron jobs
type InvoiceHandler struct {
	invoiceService service.InvoiceService
	logger         *logger.Logger
}

// NewInvoiceHandler creates a new invoice cron handler
func NewInvoiceHandler(invoiceService service.InvoiceService, logger *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// CheckOverdue sweeps issued invoices whose due date has elapsed, across all
// tenants, and marks them past due. Failures on individual invoices are
// logged and skipped so one bad row never stalls the sweep.
func (h *InvoiceHandler) CheckOverdue(c *gin.Context) {
	h.logger.Infow("starting overdue invoice sweep", "time", time.Now().UTC().Format(time.RFC3339))

	resp, err := h.invoiceService.ProcessOverdue(c.Request.Context())
	if err != nil {
		h.logger.Errorw("overdue invoice sweep failed", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed overdue invoice sweep",
		"checked", resp.Checked,
		"marked_overdue", resp.MarkedOverdue)

	c.JSON(http.StatusOK, resp)
}
