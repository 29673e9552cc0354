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

type DiscountHandler struct {
	service service.DiscountService
	logger  *logger.Logger
}

func NewDiscountHandler(service service.DiscountService, logger *logger.Logger) *DiscountHandler {
	return &DiscountHandler{
		service: service,
		logger:  logger,
	}
}

// CreateDiscount godoc
// @Summary Create a discount
// @Tags Discounts
// @Accept json
// @Produce json
// @Param discount body dto.CreateDiscountRequest true "Discount details"
// @Success 201 {object} dto.DiscountResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /discounts [post]
func (h *DiscountHandler) CreateDiscount(c *gin.Context) {
	var req dto.CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateDiscount(c.Request.Context(), req)
	if err != nil {
		h.logger.Errorw("failed to create discount", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetDiscount godoc
// @Summary Get a discount by ID
// @Tags Discounts
// @Produce json
// @Param id path string true "Discount ID"
// @Success 200 {object} dto.DiscountResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /discounts/{id} [get]
func (h *DiscountHandler) GetDiscount(c *gin.Context) {
	resp, err := h.service.GetDiscount(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListDiscounts godoc
// @Summary List discounts
// @Tags Discounts
// @Produce json
// @Param filter query types.DiscountFilter false "Filter"
// @Success 200 {object} dto.ListDiscountsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /discounts [get]
func (h *DiscountHandler) ListDiscounts(c *gin.Context) {
	var filter types.DiscountFilter
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

	resp, err := h.service.ListDiscounts(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ValidateDiscount godoc
// @Summary Validate a discount code
// @Description Check whether a code is redeemable for a customer and amount, and preview the discount amount
// @Tags Discounts
// @Accept json
// @Produce json
// @Param validation body dto.ValidateDiscountRequest true "Validation details"
// @Success 200 {object} dto.ValidateDiscountResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /discounts/validate [post]
func (h *DiscountHandler) ValidateDiscount(c *gin.Context) {
	var req dto.ValidateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ValidateCode(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteDiscount godoc
// @Summary Delete a discount
// @Tags Discounts
// @Produce json
// @Param id path string true "Discount ID"
// @Success 204
// @Failure 404 {object} ierr.ErrorResponse
// @Router /discounts/{id} [delete]
func (h *DiscountHandler) DeleteDiscount(c *gin.Context) {
	if err := h.service.DeleteDiscount(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
