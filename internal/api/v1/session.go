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

type SessionHandler struct {
	service service.SessionService
	events  publisher.LifecycleEventPublisher
	log     *logger.Logger
}

func NewSessionHandler(service service.SessionService, events publisher.LifecycleEventPublisher, log *logger.Logger) *SessionHandler {
	return &SessionHandler{service: service, events: events, log: log}
}

// @Summary Schedule a session
// @Description Book a personal training session on a membership
// @Tags Sessions
// @Accept json
// @Produce json
// @Param session body dto.ScheduleSessionRequest true "Session"
// @Success 201 {object} dto.SessionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse "Trainer already booked"
// @Router /sessions [post]
func (h *SessionHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Schedule(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	publishEvents(c, h.events, h.log, resp.Events)
	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.Session
// @Failure 404 {object} ierr.ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	resp, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Complete a session
// @Description Mark a session as held and log the trainer's earning for it
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.CompleteSessionRequest false "Notes"
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /sessions/{id}/complete [post]
func (h *SessionHandler) Complete(c *gin.Context) {
	var req dto.CompleteSessionRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Complete(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	publishEvents(c, h.events, h.log, resp.Events)
	c.JSON(http.StatusOK, resp)
}

// @Summary Cancel a session
// @Description Call a session off. A no show keeps the session used.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.CancelSessionRequest true "Reason"
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /sessions/{id}/cancel [post]
func (h *SessionHandler) Cancel(c *gin.Context) {
	var req dto.CancelSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Cancel(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	publishEvents(c, h.events, h.log, resp.Events)
	c.JSON(http.StatusOK, resp)
}

// @Summary Find conflicting sessions
// @Description List a trainer's sessions that overlap a slot
// @Tags Sessions
// @Produce json
// @Param trainer_id query string true "Trainer ID"
// @Param session_date query string true "Date" format(date)
// @Param start_time query string true "Start time" example(09:00)
// @Param end_time query string true "End time" example(10:00)
// @Success 200 {object} dto.ListSessionsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /sessions/conflicts [get]
func (h *SessionHandler) Conflicts(c *gin.Context) {
	var req dto.SessionConflictsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid query parameters").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.Conflicts(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary List the sessions of a membership
// @Tags Sessions
// @Produce json
// @Param id path string true "Membership ID"
// @Success 200 {object} dto.ListSessionsResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /memberships/{id}/sessions [get]
func (h *SessionHandler) ListByMembership(c *gin.Context) {
	resp, err := h.service.ListByMembership(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
