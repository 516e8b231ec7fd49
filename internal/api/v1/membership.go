package v1

import (
	"net/http"

	"github.com/flexprice/flexgym/internal/api/dto"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/publisher"
	"github.com/flexprice/flexgym/internal/service"
	"github.com/gin-gonic/gin"
)

type MembershipHandler struct {
	service service.MembershipService
	events  publisher.LifecycleEventPublisher
	log     *logger.Logger
}

func NewMembershipHandler(service service.MembershipService, events publisher.LifecycleEventPublisher, log *logger.Logger) *MembershipHandler {
	return &MembershipHandler{service: service, events: events, log: log}
}

// @Summary Purchase a membership
// @Description Sell a package to a member, optionally with a down payment, a payment plan and a trainer commission rule
// @Tags Memberships
// @Accept json
// @Produce json
// @Param membership body dto.PurchaseMembershipRequest true "Purchase details"
// @Success 201 {object} dto.PurchaseMembershipResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /memberships [post]
func (h *MembershipHandler) Purchase(c *gin.Context) {
	var req dto.PurchaseMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.Purchase(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	publishEvents(c, h.events, h.log, resp.Events)
	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a membership
// @Description Get a membership with the actions its status allows
// @Tags Memberships
// @Produce json
// @Param id path string true "Membership ID"
// @Success 200 {object} dto.MembershipResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /memberships/{id} [get]
func (h *MembershipHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Membership ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List membership changes
// @Description Get the audit history of a membership, oldest first
// @Tags Memberships
// @Produce json
// @Param id path string true "Membership ID"
// @Success 200 {object} dto.ListMembershipChangesResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /memberships/{id}/changes [get]
func (h *MembershipHandler) ListChanges(c *gin.Context) {
	resp, err := h.service.ListChanges(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
