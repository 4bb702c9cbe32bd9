package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/barnierg76/stemacteren-planning/internal/dto"
	"github.com/barnierg76/stemacteren-planning/internal/models"
	"github.com/barnierg76/stemacteren-planning/pkg/response"
)

type workshopManager interface {
	List(ctx context.Context, query dto.WorkshopQuery) ([]dto.WorkshopResponse, *models.Pagination, error)
	Get(ctx context.Context, id string) (*dto.WorkshopResponse, error)
	Create(ctx context.Context, req dto.CreateWorkshopRequest) (*dto.WorkshopResponse, *models.ValidationResult, error)
	Update(ctx context.Context, id string, req dto.UpdateWorkshopRequest) (*dto.WorkshopResponse, *models.ValidationResult, error)
	Cancel(ctx context.Context, id string) (*dto.WorkshopResponse, error)
	Transition(ctx context.Context, id string, to models.WorkshopStatus) (*dto.WorkshopResponse, error)
	AuditTrail(ctx context.Context, id string) ([]models.AuditLog, error)
}

// WorkshopHandler exposes workshop CRUD and lifecycle endpoints.
type WorkshopHandler struct {
	service workshopManager
}

// NewWorkshopHandler builds a new handler.
func NewWorkshopHandler(service workshopManager) *WorkshopHandler {
	return &WorkshopHandler{service: service}
}

// List godoc
// @Summary List workshops
// @Tags Workshops
// @Produce json
// @Param status query string false "Lifecycle status"
// @Param location_id query string false "Location ID"
// @Param workshop_type_id query string false "Workshop type ID"
// @Param from query string false "Window start (2006-01-02)"
// @Param to query string false "Window end (2006-01-02)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /workshops [get]
func (h *WorkshopHandler) List(c *gin.Context) {
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
	query := dto.WorkshopQuery{
		Status:         c.Query("status"),
		LocationID:     c.Query("location_id"),
		WorkshopTypeID: c.Query("workshop_type_id"),
		From:           from,
		To:             to,
		Page:           queryInt(c, "page", 1),
		PageSize:       queryInt(c, "page_size", 20),
	}
	workshops, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workshops, pagination)
}

// Get godoc
// @Summary Get workshop by ID
// @Tags Workshops
// @Produce json
// @Param id path string true "Workshop ID"
// @Success 200 {object} response.Envelope
// @Router /workshops/{id} [get]
func (h *WorkshopHandler) Get(c *gin.Context) {
	workshop, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workshop, nil)
}

// Create godoc
// @Summary Create a workshop as draft
// @Description Runs the full rule set first. Blocking findings come back as
// @Description a 422 with the validation result and nothing is committed.
// @Tags Workshops
// @Accept json
// @Produce json
// @Param payload body dto.CreateWorkshopRequest true "Workshop payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /workshops [post]
func (h *WorkshopHandler) Create(c *gin.Context) {
	var req dto.CreateWorkshopRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	workshop, result, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if workshop == nil {
		response.JSON(c, http.StatusUnprocessableEntity, result, nil)
		return
	}
	response.Created(c, workshop)
}

// Update godoc
// @Summary Update a non-terminal workshop
// @Tags Workshops
// @Accept json
// @Produce json
// @Param id path string true "Workshop ID"
// @Param payload body dto.UpdateWorkshopRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /workshops/{id} [put]
func (h *WorkshopHandler) Update(c *gin.Context) {
	var req dto.UpdateWorkshopRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	workshop, result, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if workshop == nil {
		response.JSON(c, http.StatusUnprocessableEntity, result, nil)
		return
	}
	response.JSON(c, http.StatusOK, workshop, nil)
}

// Cancel godoc
// @Summary Cancel a workshop
// @Tags Workshops
// @Produce json
// @Param id path string true "Workshop ID"
// @Success 200 {object} response.Envelope
// @Router /workshops/{id} [delete]
func (h *WorkshopHandler) Cancel(c *gin.Context) {
	workshop, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workshop, nil)
}

// Transition godoc
// @Summary Move a workshop to a new lifecycle status
// @Tags Workshops
// @Accept json
// @Produce json
// @Param id path string true "Workshop ID"
// @Param payload body dto.TransitionRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Router /workshops/{id}/transition [post]
func (h *WorkshopHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	workshop, err := h.service.Transition(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workshop, nil)
}

// AuditTrail godoc
// @Summary List audit entries for a workshop
// @Tags Workshops
// @Produce json
// @Param id path string true "Workshop ID"
// @Success 200 {object} response.Envelope
// @Router /workshops/{id}/audit [get]
func (h *WorkshopHandler) AuditTrail(c *gin.Context) {
	entries, err := h.service.AuditTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
