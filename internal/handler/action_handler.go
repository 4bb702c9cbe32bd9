package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/barnierg76/stemacteren-planning/internal/dto"
	"github.com/barnierg76/stemacteren-planning/internal/models"
	"github.com/barnierg76/stemacteren-planning/internal/service"
	appErrors "github.com/barnierg76/stemacteren-planning/pkg/errors"
	"github.com/barnierg76/stemacteren-planning/pkg/response"
)

type actionStager interface {
	Stage(ctx context.Context, req dto.StageActionRequest) (*models.ProposedAction, error)
	Pending(sessionKey string) (*models.ProposedAction, error)
	Confirm(ctx context.Context, req dto.ConfirmActionRequest) (*models.ActionOutcome, error)
}

// ActionHandler exposes the stage, inspect, confirm protocol. Every mutation
// staged here stays invisible to the schedule until it is confirmed.
type ActionHandler struct {
	service actionStager
	metrics *service.MetricsService
}

// NewActionHandler builds a new handler.
func NewActionHandler(svc actionStager, metrics *service.MetricsService) *ActionHandler {
	return &ActionHandler{service: svc, metrics: metrics}
}

// Stage godoc
// @Summary Stage a mutation for later confirmation
// @Tags Actions
// @Accept json
// @Produce json
// @Param payload body dto.StageActionRequest true "Action payload"
// @Success 201 {object} response.Envelope
// @Router /actions [post]
func (h *ActionHandler) Stage(c *gin.Context) {
	var req dto.StageActionRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	action, err := h.service.Stage(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, action)
}

// Pending godoc
// @Summary Get the outstanding staged action for a session
// @Tags Actions
// @Produce json
// @Param session_key query string true "Session key"
// @Success 200 {object} response.Envelope
// @Router /actions/pending [get]
func (h *ActionHandler) Pending(c *gin.Context) {
	sessionKey := c.Query("session_key")
	if sessionKey == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "session_key required"))
		return
	}
	action, err := h.service.Pending(sessionKey)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, action, nil)
}

// Confirm godoc
// @Summary Approve or reject a staged action
// @Tags Actions
// @Accept json
// @Produce json
// @Param payload body dto.ConfirmActionRequest true "Confirmation payload"
// @Success 200 {object} response.Envelope
// @Router /actions/confirm [post]
func (h *ActionHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmActionRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	outcome, err := h.service.Confirm(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveActionResolution(string(outcome.State))
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}
