package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/barnierg76/stemacteren-planning/internal/dto"
	"github.com/barnierg76/stemacteren-planning/internal/models"
	"github.com/barnierg76/stemacteren-planning/internal/service"
	"github.com/barnierg76/stemacteren-planning/pkg/response"
)

type placementValidator interface {
	Validate(ctx context.Context, op models.Operation, placement models.Placement) (*models.ValidationResult, error)
	ValidateRange(ctx context.Context, from, to time.Time) ([]dto.RangeValidationEntry, error)
}

type placementSuggester interface {
	Suggest(ctx context.Context, req dto.SuggestRequest) ([]models.Suggestion, error)
}

// PlanningHandler exposes the rule engine and the suggestion engine.
type PlanningHandler struct {
	validator placementValidator
	suggester placementSuggester
	metrics   *service.MetricsService
}

// NewPlanningHandler builds a new handler.
func NewPlanningHandler(validator placementValidator, suggester placementSuggester, metrics *service.MetricsService) *PlanningHandler {
	return &PlanningHandler{validator: validator, suggester: suggester, metrics: metrics}
}

// Validate godoc
// @Summary Dry-run the full rule set over a candidate placement
// @Tags Planning
// @Accept json
// @Produce json
// @Param payload body dto.ValidatePlacementRequest true "Placement payload"
// @Success 200 {object} response.Envelope
// @Router /planning/validate [post]
func (h *PlanningHandler) Validate(c *gin.Context) {
	var req dto.ValidatePlacementRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.validator.Validate(c.Request.Context(), req.Operation, req.Placement)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveValidation(string(req.Operation), result.IsValid, len(result.Errors), len(result.Warnings))
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ValidateRange godoc
// @Summary Re-validate every active workshop in a date window
// @Tags Planning
// @Accept json
// @Produce json
// @Param payload body dto.ValidateRangeRequest true "Window payload"
// @Success 200 {object} response.Envelope
// @Router /planning/validate-range [post]
func (h *PlanningHandler) ValidateRange(c *gin.Context) {
	var req dto.ValidateRangeRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.validator.ValidateRange(c.Request.Context(), req.From, req.To)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		for _, entry := range entries {
			if entry.Result == nil {
				continue
			}
			h.metrics.ObserveValidation(string(models.OpRangeValidate), entry.Result.IsValid, len(entry.Result.Errors), len(entry.Result.Warnings))
		}
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Suggest godoc
// @Summary Rank open slots for a workshop type
// @Tags Planning
// @Accept json
// @Produce json
// @Param payload body dto.SuggestRequest true "Suggestion payload"
// @Success 200 {object} response.Envelope
// @Router /planning/suggest [post]
func (h *PlanningHandler) Suggest(c *gin.Context) {
	var req dto.SuggestRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	suggestions, err := h.suggester.Suggest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveSuggestionRun(len(suggestions))
	}
	response.JSON(c, http.StatusOK, suggestions, nil)
}
