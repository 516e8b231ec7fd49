package v1

import (
	"context"
	"net/http"

	"github.com/flexprice/flexgym/internal/api/dto"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/publisher"
	"github.com/flexprice/flexgym/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LifecycleHandler struct {
	service service.LifecycleService
	events  publisher.LifecycleEventPublisher
	log     *logger.Logger
}

func NewLifecycleHandler(service service.LifecycleService, events publisher.LifecycleEventPublisher, log *logger.Logger) *LifecycleHandler {
	return &LifecycleHandler{service: service, events: events, log: log}
}

// respond publishes the events of a finished transition and writes resp
func (h *LifecycleHandler) respond(c *gin.Context, action string, resp *dto.LifecycleResponse, err error) {
	if err != nil {
		if ierr.IsPartiallyApplied(err) {
			h.log.With(
				zap.String("action", action),
				zap.String("membership_id", c.Param("id")),
			).Errorw("transition left partial writes", "error", err)
		}
		c.Error(err)
		return
	}
	publishEvents(c, h.events, h.log, resp.Events)
	c.JSON(http.StatusOK, resp)
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return false
	}
	return true
}

// @Summary Upgrade a membership
// @Description Move a membership to a more expensive package. The current membership is closed and a successor is created with the prorated amount due.
// @Tags Memberships
// @Accept json
// @Produce json
// @Param id path string true "Membership ID"
// @Param request body dto.ChangePackageRequest true "Target package and policy"
// @Success 200 {object} dto.LifecycleResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /memberships/{id}/upgrade [post]
func (h *LifecycleHandler) Upgrade(c *gin.Context) {
	var req dto.ChangePackageRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Upgrade(c.Request.Context(), c.Param("id"), req)
	h.respond(c, "upgrade", resp, err)
}

// @Summary Downgrade a membership
// @Description Move a membership to a cheaper package. Value left over goes to the member's store credit.
// @Tags Memberships
// @Accept json
// @Produce json
// @Param id path string true "Membership ID"
// @Param request body dto.ChangePackageRequest true "Target package and policy"
// @Success 200 {object} dto.LifecycleResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /memberships/{id}/downgrade [post]
func (h *LifecycleHandler) Downgrade(c *gin.Context) {
	var req dto.ChangePackageRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Downgrade(c.Request.Context(), c.Param("id"), req)
	h.respond(c, "downgrade", resp, err)
}

// @Summary Transfer a membership
// @Description Hand the remaining days of a membership to another member, existing or new
// @Tags Memberships
// @Accept json
// @Produce json
// @Param id path string true "Membership ID"
// @Param request body dto.TransferMembershipRequest true "Transfer details"
// @Success 200 {object} dto.LifecycleResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /memberships/{id}/transfer [post]
func (h *LifecycleHandler) Transfer(c *gin.Context) {
	var req dto.TransferMembershipRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Transfer(c.Request.Context(), c.Param("id"), req)
	h.respond(c, "transfer", resp, err)
}

// @Summary Freeze a membership
// @Description Pause a membership and push its end date out by the freeze duration
// @Tags Memberships
// @Accept json
// @Produce json
// @Param id path string true "Membership ID"
// @Param request body dto.FreezeMembershipRequest true "Freeze details"
// @Success 200 {object} dto.LifecycleResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /memberships/{id}/freeze [post]
func (h *LifecycleHandler) Freeze(c *gin.Context) {
	var req dto.FreezeMembershipRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Freeze(c.Request.Context(), c.Param("id"), req)
	h.respond(c, "freeze", resp, err)
}

// statusChange handles the transitions that only take a reason
func (h *LifecycleHandler) statusChange(action string, fn func(context.Context, string, dto.StatusChangeRequest) (*dto.LifecycleResponse, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.StatusChangeRequest
		if !bindJSON(c, &req) {
			return
		}
		resp, err := fn(c.Request.Context(), c.Param("id"), req)
		h.respond(c, action, resp, err)
	}
}

// @Summary Unfreeze a membership
// @Tags Memberships
// @Accept json
// @Produce json
// @Param id path string true "Membership ID"
// @Param request body dto.StatusChangeRequest true "Reason"
// @Success 200 {object} dto.LifecycleResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /memberships/{id}/unfreeze [post]
func (h *LifecycleHandler) Unfreeze(c *gin.Context) {
	h.statusChange("unfreeze", h.service.Unfreeze)(c)
}

// @Summary Suspend a membership
// @Tags Memberships
// @Accept json
// @Produce json
// @Param id path string true "Membership ID"
// @Param request body dto.StatusChangeRequest true "Reason"
// @Success 200 {object} dto.LifecycleResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /memberships/{id}/suspend [post]
func (h *LifecycleHandler) Suspend(c *gin.Context) {
	h.statusChange("suspend", h.service.Suspend)(c)
}

// @Summary Reactivate a membership
// @Tags Memberships
// @Accept json
// @Produce json
// @Param id path string true "Membership ID"
// @Param request body dto.StatusChangeRequest true "Reason"
// @Success 200 {object} dto.LifecycleResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /memberships/{id}/reactivate [post]
func (h *LifecycleHandler) Reactivate(c *gin.Context) {
	h.statusChange("reactivate", h.service.Reactivate)(c)
}

// @Summary Cancel a membership
// @Tags Memberships
// @Accept json
// @Produce json
// @Param id path string true "Membership ID"
// @Param request body dto.StatusChangeRequest true "Reason"
// @Success 200 {object} dto.LifecycleResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /memberships/{id}/cancel [post]
func (h *LifecycleHandler) Cancel(c *gin.Context) {
	h.statusChange("cancel", h.service.Cancel)(c)
}

// @Summary Expire a membership
// @Tags Memberships
// @Accept json
// @Produce json
// @Param id path string true "Membership ID"
// @Param request body dto.StatusChangeRequest true "Reason"
// @Success 200 {object} dto.LifecycleResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /memberships/{id}/expire [post]
func (h *LifecycleHandler) Expire(c *gin.Context) {
	h.statusChange("expire", h.service.Expire)(c)
}

// @Summary Change the trainer of a membership
// @Description Move the personal trainer and the commission still attached to unused sessions
// @Tags Memberships
// @Accept json
// @Produce json
// @Param id path string true "Membership ID"
// @Param request body dto.ChangeTrainerRequest true "New trainer"
// @Success 200 {object} dto.TrainerChangeResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /memberships/{id}/trainer [post]
func (h *LifecycleHandler) ChangeTrainer(c *gin.Context) {
	var req dto.ChangeTrainerRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.ChangeTrainer(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}
	publishEvents(c, h.events, h.log, resp.Events)
	c.JSON(http.StatusOK, resp)
}
