package v1

import (
	"net/http"

	"github.com/flexprice/flexgym/internal/api/dto"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/service"
	"github.com/gin-gonic/gin"
)

// PreviewHandler exposes the calculators. Nothing here writes.
type PreviewHandler struct {
	service service.CalculatorService
	log     *logger.Logger
}

func NewPreviewHandler(service service.CalculatorService, log *logger.Logger) *PreviewHandler {
	return &PreviewHandler{service: service, log: log}
}

// @Summary Preview a proration
// @Description Compute what a package change would cost without applying it
// @Tags Previews
// @Accept json
// @Produce json
// @Param request body dto.ProrationPreviewRequest true "Source and target"
// @Success 200 {object} dto.ProrationPreviewResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /previews/proration [post]
func (h *PreviewHandler) Proration(c *gin.Context) {
	var req dto.ProrationPreviewRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.PreviewProration(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Preview a commission
// @Tags Previews
// @Accept json
// @Produce json
// @Param request body dto.CommissionPreviewRequest true "Rule and package"
// @Success 200 {object} dto.CommissionPreviewResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /previews/commission [post]
func (h *PreviewHandler) Commission(c *gin.Context) {
	var req dto.CommissionPreviewRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.PreviewCommission(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Preview an installment schedule
// @Tags Previews
// @Accept json
// @Produce json
// @Param request body dto.InstallmentPreviewRequest true "Plan"
// @Success 200 {object} dto.InstallmentPreviewResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /previews/installments [post]
func (h *PreviewHandler) Installments(c *gin.Context) {
	var req dto.InstallmentPreviewRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.PreviewInstallments(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Resize installment due dates
// @Description Keep the due dates already entered and fill in the rest for the new count
// @Tags Previews
// @Accept json
// @Produce json
// @Param request body dto.ResizeDueDatesRequest true "Dates"
// @Success 200 {object} dto.ResizeDueDatesResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /previews/installments/resize [post]
func (h *PreviewHandler) ResizeDueDates(c *gin.Context) {
	var req dto.ResizeDueDatesRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.ResizeDueDates(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
