package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billora/billora/internal/api/dto"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/logger"
	"github.com/billora/billora/internal/service"
	"github.com/billora/billora/internal/types"
)

type RecurringInvoiceHandler struct {
	service service.RecurringInvoiceService
	logger  *logger.Logger
}

func NewRecurringInvoiceHandler(service service.RecurringInvoiceService, logger *logger.Logger) *RecurringInvoiceHandler {
	return &RecurringInvoiceHandler{
		service: service,
		logger:  logger,
	}
}

// CreateRecurringInvoice godoc
// @Summary Create a recurring invoice template
// @Tags RecurringInvoices
// @Accept json
// @Produce json
// @Param template body dto.CreateRecurringInvoiceRequest true "Template details"
// @Success 201 {object} dto.RecurringInvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /recurring-invoices [post]
func (h *RecurringInvoiceHandler) CreateRecurringInvoice(c *gin.Context) {
	var req dto.CreateRecurringInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateRecurringInvoice(c.Request.Context(), req)
	if err != nil {
		h.logger.Errorw("failed to create recurring invoice", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetRecurringInvoice godoc
// @Summary Get a recurring invoice template by ID
// @Tags RecurringInvoices
// @Produce json
// @Param id path string true "Recurring invoice ID"
// @Success 200 {object} dto.RecurringInvoiceResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /recurring-invoices/{id} [get]
func (h *RecurringInvoiceHandler) GetRecurringInvoice(c *gin.Context) {
	resp, err := h.service.GetRecurringInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListRecurringInvoices godoc
// @Summary List recurring invoice templates
// @Tags RecurringInvoices
// @Produce json
// @Param filter query types.RecurringInvoiceFilter false "Filter"
// @Success 200 {object} dto.ListRecurringInvoicesResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /recurring-invoices [get]
func (h *RecurringInvoiceHandler) ListRecurringInvoices(c *gin.Context) {
	var filter types.RecurringInvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid query parameters").Mark(ierr.ErrValidation))
		return
	}

	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}

	if err := filter.Validate(); err != nil {
		c.Error(err)
		return
	}

	resp, err := h.service.ListRecurringInvoices(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PauseRecurringInvoice godoc
// @Summary Pause an active recurring invoice template
// @Tags RecurringInvoices
// @Produce json
// @Param id path string true "Recurring invoice ID"
// @Success 200 {object} dto.RecurringInvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /recurring-invoices/{id}/pause [post]
func (h *RecurringInvoiceHandler) PauseRecurringInvoice(c *gin.Context) {
	resp, err := h.service.Pause(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ResumeRecurringInvoice godoc
// @Summary Resume a paused recurring invoice template
// @Tags RecurringInvoices
// @Produce json
// @Param id path string true "Recurring invoice ID"
// @Success 200 {object} dto.RecurringInvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /recurring-invoices/{id}/resume [post]
func (h *RecurringInvoiceHandler) ResumeRecurringInvoice(c *gin.Context) {
	resp, err := h.service.Resume(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
