package v1

import (
	"net/http"

	"github.com/flexprice/flexgym/internal/api/dto"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/publisher"
	"github.com/flexprice/flexgym/internal/service"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service service.PaymentService
	events  publisher.LifecycleEventPublisher
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, events publisher.LifecycleEventPublisher, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, events: events, log: log}
}

// @Summary Record a payment
// @Description Record a payment against what a membership still owes. Replaying the same request returns the stored payment.
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Membership ID"
// @Param payment body dto.RecordPaymentRequest true "Payment"
// @Success 201 {object} dto.PaymentResponse
// @Success 200 {object} dto.PaymentResponse "Duplicate request"
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /memberships/{id}/payments [post]
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.RecordPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	if resp.Duplicate {
		c.JSON(http.StatusOK, resp)
		return
	}
	publishEvents(c, h.events, h.log, resp.Events)
	c.JSON(http.StatusCreated, resp)
}

// @Summary List payments
// @Tags Payments
// @Produce json
// @Param id path string true "Membership ID"
// @Success 200 {object} dto.ListPaymentsResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /memberships/{id}/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	resp, err := h.service.ListPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Create a payment plan
// @Description Spread what a membership still owes over installments
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Membership ID"
// @Param plan body dto.CreatePaymentPlanRequest true "Plan"
// @Success 201 {object} dto.PaymentPlanResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /memberships/{id}/payment-plan [post]
func (h *PaymentHandler) CreatePaymentPlan(c *gin.Context) {
	var req dto.CreatePaymentPlanRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.CreatePaymentPlan(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	publishEvents(c, h.events, h.log, resp.Events)
	c.JSON(http.StatusCreated, resp)
}
