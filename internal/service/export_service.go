package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/barnierg76/stemacteren-planning/internal/models"
	appErrors "github.com/barnierg76/stemacteren-planning/pkg/errors"
	"github.com/barnierg76/stemacteren-planning/pkg/export"
)

type exportWorkshopLister interface {
	List(ctx context.Context, filter models.WorkshopFilter) ([]models.Workshop, int, error)
	AssignmentsFor(ctx context.Context, workshopID string) ([]models.Assignment, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the planned schedule as CSV or PDF downloads.
type ExportService struct {
	workshops exportWorkshopLister
	types     validationTypeReader
	locations suggestionLocationReader
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(workshops exportWorkshopLister, types validationTypeReader, locations suggestionLocationReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		workshops: workshops,
		types:     types,
		locations: locations,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// Schedule renders the schedule in the requested format.
func (s *ExportService) Schedule(ctx context.Context, format string, from, to time.Time) (*ExportFile, error) {
	dataset, err := s.buildDataset(ctx, from, to)
	if err != nil {
		return nil, err
	}
	stamp := time.Now().UTC().Format("20060102")
	switch strings.ToLower(format) {
	case "csv":
		data, err := s.csv.Render(*dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("schedule-%s.csv", stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case "pdf":
		data, err := s.pdf.Render(*dataset, fmt.Sprintf("Workshop schedule %s to %s", from.Format("2006-01-02"), to.Format("2006-01-02")))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("schedule-%s.pdf", stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *ExportService) buildDataset(ctx context.Context, from, to time.Time) (*export.Dataset, error) {
	filter := models.WorkshopFilter{FromDate: &from, ToDate: &to, PageSize: 100}
	dataset := &export.Dataset{
		Headers: []string{"Code", "Type", "Location", "Status", "Start", "End", "Staff"},
	}
	typesByID := map[string]models.WorkshopType{}
	if allTypes, err := s.types.List(ctx, false); err == nil {
		for _, t := range allTypes {
			typesByID[t.ID] = t
		}
	}
	locationsByID := map[string]models.Location{}
	if locations, err := s.locations.List(ctx, false); err == nil {
		for _, loc := range locations {
			locationsByID[loc.ID] = loc
		}
	}

	for page := 1; ; page++ {
		filter.Page = page
		workshops, total, err := s.workshops.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "schedule is temporarily unavailable")
		}
		for _, w := range workshops {
			if t, ok := typesByID[w.WorkshopTypeID]; ok {
				w.Type = &t
			}
			if loc, ok := locationsByID[w.LocationID]; ok {
				w.Location = &loc
			}
			staff := ""
			if assignments, err := s.workshops.AssignmentsFor(ctx, w.ID); err == nil {
				names := make([]string, 0, len(assignments))
				for _, a := range assignments {
					names = append(names, fmt.Sprintf("%s (%s)", a.PersonName, a.Role))
				}
				staff = strings.Join(names, "; ")
			}
			typeName := w.WorkshopTypeID
			if w.Type != nil {
				typeName = w.Type.Name
			}
			locationName := w.LocationID
			if w.Location != nil {
				locationName = w.Location.Name
			}
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Code":     w.DisplayCode(),
				"Type":     typeName,
				"Location": locationName,
				"Status":   string(w.Status),
				"Start":    w.StartDate.Format("2006-01-02"),
				"End":      w.EndDate.Format("2006-01-02"),
				"Staff":    staff,
			})
		}
		if page*filter.PageSize >= total || len(workshops) == 0 {
			break
		}
	}
	return dataset, nil
}
