package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/barnierg76/stemacteren-planning/internal/dto"
	"github.com/barnierg76/stemacteren-planning/internal/models"
	"github.com/barnierg76/stemacteren-planning/pkg/response"
)

type catalogService interface {
	Types(ctx context.Context, includeInactive bool) ([]models.WorkshopType, error)
	Type(ctx context.Context, id string) (*models.WorkshopType, error)
	CreateType(ctx context.Context, req dto.CreateWorkshopTypeRequest) (*models.WorkshopType, error)
	UpdateType(ctx context.Context, id string, req dto.UpdateWorkshopTypeRequest) (*models.WorkshopType, error)
	Locations(ctx context.Context, includeInactive bool) ([]models.Location, error)
	Location(ctx context.Context, id string) (*models.Location, error)
	CreateLocation(ctx context.Context, req dto.CreateLocationRequest) (*models.Location, error)
	UpdateLocation(ctx context.Context, id string, req dto.UpdateLocationRequest) (*models.Location, error)
}

// CatalogHandler exposes workshop type and location catalogue endpoints.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler builds a new handler.
func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func includeInactive(c *gin.Context) bool {
	value, err := strconv.ParseBool(c.DefaultQuery("include_inactive", "false"))
	return err == nil && value
}

// Types godoc
// @Summary List workshop types
// @Tags Catalogue
// @Produce json
// @Param include_inactive query bool false "Include deactivated entries"
// @Success 200 {object} response.Envelope
// @Router /catalog/types [get]
func (h *CatalogHandler) Types(c *gin.Context) {
	types, err := h.service.Types(c.Request.Context(), includeInactive(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// Type godoc
// @Summary Get workshop type by ID
// @Tags Catalogue
// @Produce json
// @Param id path string true "Workshop type ID"
// @Success 200 {object} response.Envelope
// @Router /catalog/types/{id} [get]
func (h *CatalogHandler) Type(c *gin.Context) {
	wt, err := h.service.Type(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, wt, nil)
}

// CreateType godoc
// @Summary Add a workshop type to the catalogue
// @Tags Catalogue
// @Accept json
// @Produce json
// @Param payload body dto.CreateWorkshopTypeRequest true "Workshop type payload"
// @Success 201 {object} response.Envelope
// @Router /catalog/types [post]
func (h *CatalogHandler) CreateType(c *gin.Context) {
	var req dto.CreateWorkshopTypeRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	wt, err := h.service.CreateType(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, wt)
}

// UpdateType godoc
// @Summary Patch a workshop type
// @Tags Catalogue
// @Accept json
// @Produce json
// @Param id path string true "Workshop type ID"
// @Param payload body dto.UpdateWorkshopTypeRequest true "Patch payload"
// @Success 200 {object} response.Envelope
// @Router /catalog/types/{id} [put]
func (h *CatalogHandler) UpdateType(c *gin.Context) {
	var req dto.UpdateWorkshopTypeRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	wt, err := h.service.UpdateType(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, wt, nil)
}

// Locations godoc
// @Summary List locations
// @Tags Catalogue
// @Produce json
// @Param include_inactive query bool false "Include deactivated venues"
// @Success 200 {object} response.Envelope
// @Router /catalog/locations [get]
func (h *CatalogHandler) Locations(c *gin.Context) {
	locations, err := h.service.Locations(c.Request.Context(), includeInactive(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, locations, nil)
}

// Location godoc
// @Summary Get location by ID
// @Tags Catalogue
// @Produce json
// @Param id path string true "Location ID"
// @Success 200 {object} response.Envelope
// @Router /catalog/locations/{id} [get]
func (h *CatalogHandler) Location(c *gin.Context) {
	loc, err := h.service.Location(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loc, nil)
}

// CreateLocation godoc
// @Summary Add a location
// @Tags Catalogue
// @Accept json
// @Produce json
// @Param payload body dto.CreateLocationRequest true "Location payload"
// @Success 201 {object} response.Envelope
// @Router /catalog/locations [post]
func (h *CatalogHandler) CreateLocation(c *gin.Context) {
	var req dto.CreateLocationRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	loc, err := h.service.CreateLocation(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, loc)
}

// UpdateLocation godoc
// @Summary Patch a location
// @Tags Catalogue
// @Accept json
// @Produce json
// @Param id path string true "Location ID"
// @Param payload body dto.UpdateLocationRequest true "Patch payload"
// @Success 200 {object} response.Envelope
// @Router /catalog/locations/{id} [put]
func (h *CatalogHandler) UpdateLocation(c *gin.Context) {
	var req dto.UpdateLocationRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	loc, err := h.service.UpdateLocation(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loc, nil)
}
