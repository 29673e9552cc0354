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

type TaxRateHandler struct {
	service service.TaxService
	logger  *logger.Logger
}

func NewTaxRateHandler(service service.TaxService, logger *logger.Logger) *TaxRateHandler {
	return &TaxRateHandler{
		service: service,
		logger:  logger,
	}
}

// CreateTaxRate godoc
// @Summary Create a tax rate
// @Tags TaxRates
// @Accept json
// @Produce json
// @Param tax_rate body dto.CreateTaxRateRequest true "Tax rate details"
// @Success 201 {object} dto.TaxRateResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /taxrates [post]
func (h *TaxRateHandler) CreateTaxRate(c *gin.Context) {
	var req dto.CreateTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateTaxRate(c.Request.Context(), req)
	if err != nil {
		h.logger.Errorw("failed to create tax rate", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetTaxRate godoc
// @Summary Get a tax rate by ID
// @Tags TaxRates
// @Produce json
// @Param id path string true "Tax rate ID"
// @Success 200 {object} dto.TaxRateResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /taxrates/{id} [get]
func (h *TaxRateHandler) GetTaxRate(c *gin.Context) {
	resp, err := h.service.GetTaxRate(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListTaxRates godoc
// @Summary List tax rates
// @Tags TaxRates
// @Produce json
// @Param filter query types.TaxRateFilter false "Filter"
// @Success 200 {object} dto.ListTaxRatesResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /taxrates [get]
func (h *TaxRateHandler) ListTaxRates(c *gin.Context) {
	var filter types.TaxRateFilter
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

	resp, err := h.service.ListTaxRates(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateTaxRate godoc
// @Summary Update a tax rate
// @Tags TaxRates
// @Accept json
// @Produce json
// @Param id path string true "Tax rate ID"
// @Param tax_rate body dto.UpdateTaxRateRequest true "Fields to update"
// @Success 200 {object} dto.TaxRateResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /taxrates/{id} [put]
func (h *TaxRateHandler) UpdateTaxRate(c *gin.Context) {
	var req dto.UpdateTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.UpdateTaxRate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteTaxRate godoc
// @Summary Delete a tax rate
// @Tags TaxRates
// @Produce json
// @Param id path string true "Tax rate ID"
// @Success 204
// @Failure 404 {object} ierr.ErrorResponse
// @Router /taxrates/{id} [delete]
func (h *TaxRateHandler) DeleteTaxRate(c *gin.Context) {
	if err := h.service.DeleteTaxRate(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
