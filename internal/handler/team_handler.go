package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/barnierg76/stemacteren-planning/internal/dto"
	"github.com/barnierg76/stemacteren-planning/internal/models"
	"github.com/barnierg76/stemacteren-planning/pkg/response"
)

type teamRoster interface {
	List(ctx context.Context, query dto.PersonQuery) ([]dto.PersonResponse, *models.Pagination, error)
	Get(ctx context.Context, id string) (*dto.PersonResponse, error)
	Create(ctx context.Context, req dto.CreatePersonRequest) (*dto.PersonResponse, error)
	Update(ctx context.Context, id string, req dto.UpdatePersonRequest) (*dto.PersonResponse, error)
	Availability(ctx context.Context, personID string, from, to *time.Time) ([]models.Availability, error)
	DeclareAvailability(ctx context.Context, personID string, req dto.CreateAvailabilityRequest) (*models.Availability, error)
	RemoveAvailability(ctx context.Context, id string) error
}

// TeamHandler exposes roster and availability endpoints.
type TeamHandler struct {
	service teamRoster
}

// NewTeamHandler builds a new handler.
func NewTeamHandler(service teamRoster) *TeamHandler {
	return &TeamHandler{service: service}
}

// List godoc
// @Summary List roster members
// @Tags Team
// @Produce json
// @Param type query string false "Person type"
// @Param search query string false "Name search"
// @Param active query bool false "Active filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /team [get]
func (h *TeamHandler) List(c *gin.Context) {
	query := dto.PersonQuery{
		Type:     c.Query("type"),
		Search:   c.Query("search"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			query.Active = &active
		}
	}
	persons, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, persons, pagination)
}

// Get godoc
// @Summary Get roster member by ID
// @Tags Team
// @Produce json
// @Param id path string true "Person ID"
// @Success 200 {object} response.Envelope
// @Router /team/{id} [get]
func (h *TeamHandler) Get(c *gin.Context) {
	person, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, person, nil)
}

// Create godoc
// @Summary Add a person to the roster
// @Tags Team
// @Accept json
// @Produce json
// @Param payload body dto.CreatePersonRequest true "Person payload"
// @Success 201 {object} response.Envelope
// @Router /team [post]
func (h *TeamHandler) Create(c *gin.Context) {
	var req dto.CreatePersonRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	person, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, person)
}

// Update godoc
// @Summary Patch roster member fields
// @Tags Team
// @Accept json
// @Produce json
// @Param id path string true "Person ID"
// @Param payload body dto.UpdatePersonRequest true "Patch payload"
// @Success 200 {object} response.Envelope
// @Router /team/{id} [put]
func (h *TeamHandler) Update(c *gin.Context) {
	var req dto.UpdatePersonRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	person, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, person, nil)
}

// Availability godoc
// @Summary List availability windows for a person
// @Tags Team
// @Produce json
// @Param id path string true "Person ID"
// @Param from query string false "Window start"
// @Param to query string false "Window end"
// @Success 200 {object} response.Envelope
// @Router /team/{id}/availability [get]
func (h *TeamHandler) Availability(c *gin.Context) {
	from, err := queryDate(c, "from")
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := queryDate(c, "to")
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.service.Availability(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// DeclareAvailability godoc
// @Summary Declare an availability window for a person
// @Tags Team
// @Accept json
// @Produce json
// @Param id path string true "Person ID"
// @Param payload body dto.CreateAvailabilityRequest true "Availability payload"
// @Success 201 {object} response.Envelope
// @Router /team/{id}/availability [post]
func (h *TeamHandler) DeclareAvailability(c *gin.Context) {
	var req dto.CreateAvailabilityRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	entry, err := h.service.DeclareAvailability(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// RemoveAvailability godoc
// @Summary Remove an availability window
// @Tags Team
// @Param id path string true "Person ID"
// @Param entryId path string true "Availability entry ID"
// @Success 204
// @Router /team/{id}/availability/{entryId} [delete]
func (h *TeamHandler) RemoveAvailability(c *gin.Context) {
	if err := h.service.RemoveAvailability(c.Request.Context(), c.Param("entryId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
