package v1

import (
	"net/http"

	"github.com/flexprice/flexgym/internal/api/dto"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/publisher"
	"github.com/flexprice/flexgym/internal/service"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	members     service.MemberService
	memberships service.MembershipService
	credits     service.CreditService
	events      publisher.LifecycleEventPublisher
	log         *logger.Logger
}

func NewMemberHandler(
	members service.MemberService,
	memberships service.MembershipService,
	credits service.CreditService,
	events publisher.LifecycleEventPublisher,
	log *logger.Logger,
) *MemberHandler {
	return &MemberHandler{
		members:     members,
		memberships: memberships,
		credits:     credits,
		events:      events,
		log:         log,
	}
}

// @Summary Create a member
// @Tags Members
// @Accept json
// @Produce json
// @Param member body dto.CreateMemberRequest true "Member profile"
// @Success 201 {object} dto.MemberResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /members [post]
func (h *MemberHandler) Create(c *gin.Context) {
	var req dto.CreateMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.members.CreateMember(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a member
// @Tags Members
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} dto.MemberResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /members/{id} [get]
func (h *MemberHandler) Get(c *gin.Context) {
	resp, err := h.members.GetMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary List a member's memberships
// @Tags Members
// @Produce json
// @Param id path string true "Member ID"
// @Param filter query types.QueryFilter false "Pagination"
// @Success 200 {object} dto.ListMembershipsResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /members/{id}/memberships [get]
func (h *MemberHandler) ListMemberships(c *gin.Context) {
	filter := types.NewDefaultQueryFilter()
	if err := c.ShouldBindQuery(filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}
	resp, err := h.memberships.ListByMember(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Get a member's store credit
// @Description Current balance with the most recent ledger lines
// @Tags Credits
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} dto.CreditBalanceResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /members/{id}/credits [get]
func (h *MemberHandler) GetCredits(c *gin.Context) {
	resp, err := h.credits.GetBalance(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary List credit transactions
// @Tags Credits
// @Produce json
// @Param id path string true "Member ID"
// @Param filter query dto.CreditTransactionFilter false "Filter"
// @Success 200 {object} dto.CreditBalanceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /members/{id}/credits/transactions [get]
func (h *MemberHandler) ListCreditTransactions(c *gin.Context) {
	filter := &dto.CreditTransactionFilter{QueryFilter: *types.NewDefaultQueryFilter()}
	if err := c.ShouldBindQuery(filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}
	resp, err := h.credits.ListTransactions(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Adjust store credit
// @Description Manual correction of a member's credit. Negative amounts take credit away.
// @Tags Credits
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Param request body dto.CreditAdjustmentRequest true "Adjustment"
// @Success 201 {object} dto.CreditTransactionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /members/{id}/credits/adjustments [post]
func (h *MemberHandler) AdjustCredits(c *gin.Context) {
	var req dto.CreditAdjustmentRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.credits.Adjust(c.Request.Context(), c.Param("id"), req)
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
