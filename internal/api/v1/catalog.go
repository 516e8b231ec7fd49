package v1

import (
	"net/http"

	"github.com/flexprice/flexgym/internal/api/dto"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/service"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/gin-gonic/gin"
)

type PackageHandler struct {
	service service.PackageService
	log     *logger.Logger
}

func NewPackageHandler(service service.PackageService, log *logger.Logger) *PackageHandler {
	return &PackageHandler{service: service, log: log}
}

// @Summary Create a package
// @Tags Packages
// @Accept json
// @Produce json
// @Param package body dto.CreatePackageRequest true "Package"
// @Success 201 {object} pkg.Package
// @Failure 400 {object} ierr.ErrorResponse
// @Router /packages [post]
func (h *PackageHandler) Create(c *gin.Context) {
	var req dto.CreatePackageRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.CreatePackage(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a package
// @Tags Packages
// @Produce json
// @Param id path string true "Package ID"
// @Success 200 {object} pkg.Package
// @Failure 404 {object} ierr.ErrorResponse
// @Router /packages/{id} [get]
func (h *PackageHandler) Get(c *gin.Context) {
	resp, err := h.service.GetPackage(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary List packages
// @Tags Packages
// @Produce json
// @Param filter query types.QueryFilter false "Pagination"
// @Success 200 {object} dto.ListPackagesResponse
// @Router /packages [get]
func (h *PackageHandler) List(c *gin.Context) {
	filter := types.NewDefaultQueryFilter()
	if err := c.ShouldBindQuery(filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}
	resp, err := h.service.ListPackages(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type TrainerHandler struct {
	service service.TrainerService
	log     *logger.Logger
}

func NewTrainerHandler(service service.TrainerService, log *logger.Logger) *TrainerHandler {
	return &TrainerHandler{service: service, log: log}
}

// @Summary List trainer earnings
// @Description Ledger lines of a trainer and their sum, transfers and reversals included
// @Tags Trainers
// @Produce json
// @Param id path string true "Trainer ID"
// @Param filter query dto.TrainerEarningsFilter false "Filter"
// @Success 200 {object} dto.TrainerEarningsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /trainers/{id}/earnings [get]
func (h *TrainerHandler) ListEarnings(c *gin.Context) {
	filter := &dto.TrainerEarningsFilter{QueryFilter: *types.NewDefaultQueryFilter()}
	if err := c.ShouldBindQuery(filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}
	resp, err := h.service.ListEarnings(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
