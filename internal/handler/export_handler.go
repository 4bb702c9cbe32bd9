package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/barnierg76/stemacteren-planning/internal/service"
	appErrors "github.com/barnierg76/stemacteren-planning/pkg/errors"
	"github.com/barnierg76/stemacteren-planning/pkg/response"
)

type scheduleExporter interface {
	Schedule(ctx context.Context, format string, from, to time.Time) (*service.ExportFile, error)
}

// ExportHandler serves schedule downloads.
type ExportHandler struct {
	service scheduleExporter
	enabled bool
}

// NewExportHandler builds a new handler. A disabled handler answers every
// request with 503 so the route surface stays stable across deployments.
func NewExportHandler(service scheduleExporter, enabled bool) *ExportHandler {
	return &ExportHandler{service: service, enabled: enabled}
}

// Schedule godoc
// @Summary Download the planned schedule as CSV or PDF
// @Tags Export
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "Export format (csv or pdf)"
// @Param from query string true "Window start (2006-01-02)"
// @Param to query string true "Window end (2006-01-02)"
// @Success 200 {file} file
// @Router /export/schedule [get]
func (h *ExportHandler) Schedule(c *gin.Context) {
	if !h.enabled {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "export is disabled"))
		return
	}
	format := c.DefaultQuery("format", "csv")
	from, to, err := queryDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.Schedule(c.Request.Context(), format, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
