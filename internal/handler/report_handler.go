package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/barnierg76/stemacteren-planning/internal/models"
	"github.com/barnierg76/stemacteren-planning/pkg/response"
)

type scheduleReporter interface {
	Conflicts(ctx context.Context, from, to time.Time) ([]models.ConflictRecord, error)
	RevenueForecast(ctx context.Context, from, to time.Time) (*models.RevenueForecast, error)
	Capacity(ctx context.Context, from, to time.Time) ([]models.CapacityEntry, error)
	Targets(ctx context.Context, year int) (*models.TargetReport, error)
}

// ReportHandler exposes schedule reporting endpoints.
type ReportHandler struct {
	service scheduleReporter
}

// NewReportHandler builds a new handler.
func NewReportHandler(service scheduleReporter) *ReportHandler {
	return &ReportHandler{service: service}
}

// Conflicts godoc
// @Summary Classified conflicts in a date window
// @Tags Reports
// @Produce json
// @Param from query string true "Window start (2006-01-02)"
// @Param to query string true "Window end (2006-01-02)"
// @Success 200 {object} response.Envelope
// @Router /reports/conflicts [get]
func (h *ReportHandler) Conflicts(c *gin.Context) {
	from, to, err := queryDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	records, err := h.service.Conflicts(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Revenue godoc
// @Summary Revenue forecast over a date window
// @Tags Reports
// @Produce json
// @Param from query string true "Window start (2006-01-02)"
// @Param to query string true "Window end (2006-01-02)"
// @Success 200 {object} response.Envelope
// @Router /reports/revenue [get]
func (h *ReportHandler) Revenue(c *gin.Context) {
	from, to, err := queryDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	forecast, err := h.service.RevenueForecast(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, forecast, nil)
}

// Capacity godoc
// @Summary Location capacity utilization over a date window
// @Tags Reports
// @Produce json
// @Param from query string true "Window start (2006-01-02)"
// @Param to query string true "Window end (2006-01-02)"
// @Success 200 {object} response.Envelope
// @Router /reports/capacity [get]
func (h *ReportHandler) Capacity(c *gin.Context) {
	from, to, err := queryDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.service.Capacity(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Targets godoc
// @Summary Progress against yearly workshop targets
// @Tags Reports
// @Produce json
// @Param year query int false "Target year (defaults to current)"
// @Success 200 {object} response.Envelope
// @Router /reports/targets [get]
func (h *ReportHandler) Targets(c *gin.Context) {
	report, err := h.service.Targets(c.Request.Context(), queryInt(c, "year", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
