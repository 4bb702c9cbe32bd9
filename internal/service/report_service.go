package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/barnierg76/stemacteren-planning/internal/dto"
	"github.com/barnierg76/stemacteren-planning/internal/models"
	appErrors "github.com/barnierg76/stemacteren-planning/pkg/errors"
)

type rangeValidator interface {
	ValidateRange(ctx context.Context, from, to time.Time) ([]dto.RangeValidationEntry, error)
}

type reportWorkshopReader interface {
	List(ctx context.Context, filter models.WorkshopFilter) ([]models.Workshop, int, error)
	SessionsInRange(ctx context.Context, from, to time.Time, excludeID string) ([]models.SessionRow, error)
}

type reportLocationReader interface {
	List(ctx context.Context, activeOnly bool) ([]models.Location, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Location, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ReportServiceConfig tunes report caching.
type ReportServiceConfig struct {
	CacheTTL time.Duration
}

// ReportService produces the conflicts, revenue, capacity and target views
// over the planned schedule. Results are cached briefly; every report is a
// pure projection so a stale read is at worst a few minutes old.
type ReportService struct {
	validator rangeValidator
	workshops reportWorkshopReader
	types     validationTypeReader
	locations reportLocationReader
	settings  planningSettings
	cache     reportCache
	cacheTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService constructs a ReportService.
func NewReportService(
	validator rangeValidator,
	workshops reportWorkshopReader,
	types validationTypeReader,
	locations reportLocationReader,
	settings planningSettings,
	cache reportCache,
	logger *zap.Logger,
	cfg ReportServiceConfig,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ReportService{
		validator: validator,
		workshops: workshops,
		types:     types,
		locations: locations,
		settings:  settings,
		cache:     cache,
		cacheTTL:  ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// Conflicts re-validates the window and flattens every finding into conflict
// records.
func (s *ReportService) Conflicts(ctx context.Context, from, to time.Time) ([]models.ConflictRecord, error) {
	key := fmt.Sprintf("report:conflicts:%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached []models.ConflictRecord
	if s.cache != nil && s.cache.Get(ctx, key, &cached) == nil {
		return cached, nil
	}

	entries, err := s.validator.ValidateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	workshops, err := s.workshopsInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	startDates := make(map[string]time.Time, len(workshops))
	for _, w := range workshops {
		startDates[w.ID] = w.StartDate
	}

	records := []models.ConflictRecord{}
	for _, entry := range entries {
		date := startDates[entry.WorkshopID]
		for _, finding := range entry.Result.Errors {
			records = append(records, models.ConflictRecord{
				Type:        classifyConflict(finding),
				Date:        date,
				WorkshopID:  entry.WorkshopID,
				WorkshopRef: entry.WorkshopRef,
				Message:     finding.Message,
			})
		}
		for _, finding := range entry.Result.Warnings {
			records = append(records, models.ConflictRecord{
				Type:        models.ConflictRuleViolation,
				Date:        date,
				WorkshopID:  entry.WorkshopID,
				WorkshopRef: entry.WorkshopRef,
				Message:     finding.Message,
			})
		}
	}

	s.cacheSet(ctx, key, records)
	return records, nil
}

// RevenueForecast projects expected revenue over the window. Confirmed and
// completed workshops count at full booked capacity; the rest are scaled by
// the configured fill ratio.
func (s *ReportService) RevenueForecast(ctx context.Context, from, to time.Time) (*models.RevenueForecast, error) {
	key := fmt.Sprintf("report:revenue:%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached models.RevenueForecast
	if s.cache != nil && s.cache.Get(ctx, key, &cached) == nil {
		return &cached, nil
	}

	settings, err := s.settings.Planning(ctx)
	if err != nil {
		return nil, err
	}
	workshops, err := s.workshopsInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	typesByID, err := s.typesByID(ctx)
	if err != nil {
		return nil, err
	}
	locationRefs, err := s.locationRefs(ctx, workshops)
	if err != nil {
		return nil, err
	}

	forecast := &models.RevenueForecast{
		From:      from,
		To:        to,
		FillRatio: settings.ForecastFillRatio,
		Entries:   []models.RevenueForecastEntry{},
	}
	byType := map[string]*models.RevenueByType{}
	for _, w := range workshops {
		if w.Status == models.StatusCancelled {
			continue
		}
		// Revenue lands in the period a workshop starts. Workshops spanning
		// the boundary would otherwise be counted in adjacent windows too.
		if w.StartDate.Before(from) || w.StartDate.After(to) {
			continue
		}
		wt, ok := typesByID[w.WorkshopTypeID]
		if !ok {
			continue
		}
		capacity := wt.MaxParticipants
		if w.MaxParticipants != nil {
			capacity = *w.MaxParticipants
		}
		fill := settings.ForecastFillRatio
		if w.Status == models.StatusConfirmed || w.Status == models.StatusCompleted {
			fill = 1.0
		}
		seats := float64(capacity) * fill
		if w.CurrentParticipants > 0 {
			seats = float64(w.CurrentParticipants)
		}
		expected := seats * wt.Price

		w.Type = &wt
		if loc, ok := locationRefs[w.LocationID]; ok {
			w.Location = &loc
		}
		forecast.Entries = append(forecast.Entries, models.RevenueForecastEntry{
			WorkshopID:    w.ID,
			WorkshopRef:   w.DisplayCode(),
			StartDate:     w.StartDate,
			Status:        w.Status,
			Capacity:      capacity,
			ExpectedSeats: seats,
			Price:         wt.Price,
			Expected:      expected,
		})
		forecast.Total += expected

		agg, ok := byType[wt.ID]
		if !ok {
			agg = &models.RevenueByType{WorkshopTypeID: wt.ID, TypeCode: wt.Code}
			byType[wt.ID] = agg
		}
		agg.Workshops++
		agg.Expected += expected
	}
	forecast.ByType = make([]models.RevenueByType, 0, len(byType))
	for _, agg := range byType {
		forecast.ByType = append(forecast.ByType, *agg)
	}
	sort.Slice(forecast.ByType, func(i, j int) bool {
		return forecast.ByType[i].TypeCode < forecast.ByType[j].TypeCode
	})

	s.cacheSet(ctx, key, forecast)
	return forecast, nil
}

// Capacity reports per-location utilization: booked days against open days
// in the window.
func (s *ReportService) Capacity(ctx context.Context, from, to time.Time) ([]models.CapacityEntry, error) {
	key := fmt.Sprintf("report:capacity:%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached []models.CapacityEntry
	if s.cache != nil && s.cache.Get(ctx, key, &cached) == nil {
		return cached, nil
	}

	locations, err := s.locations.List(ctx, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "locations are temporarily unavailable")
	}
	sessions, err := s.workshops.SessionsInRange(ctx, from, to, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "schedule is temporarily unavailable")
	}
	booked := make(map[string]map[string]struct{})
	for _, row := range sessions {
		if booked[row.LocationID] == nil {
			booked[row.LocationID] = make(map[string]struct{})
		}
		booked[row.LocationID][row.Date.Format("2006-01-02")] = struct{}{}
	}

	entries := []models.CapacityEntry{}
	for _, loc := range locations {
		open := 0
		for date := truncateDay(from); !date.After(to); date = date.AddDate(0, 0, 1) {
			if loc.OperatesOn(date) {
				open++
			}
		}
		used := len(booked[loc.ID])
		utilization := 0.0
		if open > 0 {
			utilization = float64(used) / float64(open)
		}
		entries = append(entries, models.CapacityEntry{
			LocationID:   loc.ID,
			LocationName: loc.Name,
			OpenDays:     open,
			BookedDays:   used,
			Utilization:  utilization,
		})
	}

	s.cacheSet(ctx, key, entries)
	return entries, nil
}

// Targets compares the year's planned and completed workshop counts per type
// against the configured yearly targets.
func (s *ReportService) Targets(ctx context.Context, year int) (*models.TargetReport, error) {
	if year == 0 {
		year = s.now().UTC().Year()
	}
	key := fmt.Sprintf("report:targets:%d", year)
	var cached models.TargetReport
	if s.cache != nil && s.cache.Get(ctx, key, &cached) == nil {
		return &cached, nil
	}

	settings, err := s.settings.Planning(ctx)
	if err != nil {
		return nil, err
	}
	targets := settings.YearlyTargets[strconv.Itoa(year)]

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	workshops, err := s.workshopsInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	typesByID, err := s.typesByID(ctx)
	if err != nil {
		return nil, err
	}

	planned := make(map[string]int)
	completed := make(map[string]int)
	for _, w := range workshops {
		wt, ok := typesByID[w.WorkshopTypeID]
		if !ok || w.Status == models.StatusCancelled {
			continue
		}
		planned[wt.Code]++
		if w.Status == models.StatusCompleted {
			completed[wt.Code]++
		}
	}

	report := &models.TargetReport{Year: year, Entries: []models.TargetProgress{}}
	codes := make([]string, 0, len(targets))
	for code := range targets {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		target := targets[code]
		progress := 0.0
		if target > 0 {
			progress = float64(planned[code]) / float64(target)
		}
		entry := models.TargetProgress{
			TypeCode:  code,
			Target:    target,
			Planned:   planned[code],
			Completed: completed[code],
			Progress:  progress,
		}
		for id, wt := range typesByID {
			if wt.Code == code {
				entry.WorkshopTypeID = id
			}
		}
		report.Entries = append(report.Entries, entry)
	}

	s.cacheSet(ctx, key, report)
	return report, nil
}

func (s *ReportService) workshopsInRange(ctx context.Context, from, to time.Time) ([]models.Workshop, error) {
	filter := models.WorkshopFilter{FromDate: &from, ToDate: &to, PageSize: 100}
	var out []models.Workshop
	for page := 1; ; page++ {
		filter.Page = page
		workshops, total, err := s.workshops.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "schedule is temporarily unavailable")
		}
		out = append(out, workshops...)
		if len(out) >= total || len(workshops) == 0 {
			break
		}
	}
	return out, nil
}

func (s *ReportService) typesByID(ctx context.Context) (map[string]models.WorkshopType, error) {
	allTypes, err := s.types.List(ctx, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "catalogue is temporarily unavailable")
	}
	out := make(map[string]models.WorkshopType, len(allTypes))
	for _, t := range allTypes {
		out[t.ID] = t
	}
	return out, nil
}

func (s *ReportService) locationRefs(ctx context.Context, workshops []models.Workshop) (map[string]models.Location, error) {
	ids := make([]string, 0, len(workshops))
	seen := make(map[string]struct{})
	for _, w := range workshops {
		if _, ok := seen[w.LocationID]; ok {
			continue
		}
		seen[w.LocationID] = struct{}{}
		ids = append(ids, w.LocationID)
	}
	refs, err := s.locations.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "locations are temporarily unavailable")
	}
	return refs, nil
}

func (s *ReportService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache report", zap.String("key", key), zap.Error(err))
	}
}

func classifyConflict(finding models.Finding) models.ConflictType {
	switch finding.Field {
	case "location_id":
		if strings.Contains(finding.Message, "double-booked") {
			return models.ConflictDoubleBooking
		}
		return models.ConflictLocationOverlap
	case "staff":
		if strings.Contains(finding.Message, "technician") {
			return models.ConflictMissingTechnician
		}
		return models.ConflictUnavailableStaff
	default:
		return models.ConflictRuleViolation
	}
}
