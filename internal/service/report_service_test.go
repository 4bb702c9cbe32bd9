package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barnierg76/stemacteren-planning/internal/dto"
	"github.com/barnierg76/stemacteren-planning/internal/models"
	appErrors "github.com/barnierg76/stemacteren-planning/pkg/errors"
)

type rangeValidatorStub struct {
	entries []dto.RangeValidationEntry
	err     error
	calls   int
}

func (s *rangeValidatorStub) ValidateRange(ctx context.Context, from, to time.Time) ([]dto.RangeValidationEntry, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.entries, nil
}

type cacheStub struct {
	items map[string][]byte
	sets  int
	hits  int
}

func newCacheStub() *cacheStub {
	return &cacheStub{items: map[string][]byte{}}
}

func (s *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := s.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	s.hits++
	return json.Unmarshal(raw, dest)
}

func (s *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.items[key] = raw
	s.sets++
	return nil
}

type reportFixture struct {
	service   *ReportService
	validator *rangeValidatorStub
	workshops *workshopRepoStub
	types     *typeRepoStub
	locations *locationRepoStub
	cache     *cacheStub
}

func newReportFixture() reportFixture {
	validator := &rangeValidatorStub{}
	workshops := newWorkshopRepoStub()
	types := &typeRepoStub{types: map[string]models.WorkshopType{
		"type-bws": {ID: "type-bws", Code: "BWS", Name: "Basisworkshop", MaxParticipants: 12, Price: 295, IsActive: true},
	}}
	locations := &locationRepoStub{locations: map[string]models.Location{
		"loc-ams": *weekdayLocation(),
	}}
	cache := newCacheStub()
	svc := NewReportService(validator, workshops, types, locations, settingsStub{settings: defaultTestSettings()}, cache, nil, ReportServiceConfig{})
	svc.now = func() time.Time { return ruleTestNow }
	return reportFixture{
		service:   svc,
		validator: validator,
		workshops: workshops,
		types:     types,
		locations: locations,
		cache:     cache,
	}
}

func TestConflictClassification(t *testing.T) {
	f := newReportFixture()
	result := models.NewValidationResult()
	result.AddError("location_id", "location is double-booked: overlaps workshop ws-9 (2026-11-16)")
	result.AddError("staff", "Anna is unavailable on 2026-11-16")
	result.AddError("staff", "this workshop type requires a technician and none is assigned")
	result.AddError("start_date", "this workshop type may not start on Wednesday")
	result.AddWarning("start_date", "start date is 6.0 weeks away, under the ideal publication lead of 8 weeks")
	f.validator.entries = []dto.RangeValidationEntry{
		{WorkshopID: "ws-1", WorkshopRef: "BWS-AMS-2026-11-16", Result: result},
	}

	from := testMonday(ruleTestNow, 10)
	records, err := f.service.Conflicts(context.Background(), from, from.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, models.ConflictDoubleBooking, records[0].Type)
	assert.Equal(t, models.ConflictUnavailableStaff, records[1].Type)
	assert.Equal(t, models.ConflictMissingTechnician, records[2].Type)
	assert.Equal(t, models.ConflictRuleViolation, records[3].Type)
	assert.Equal(t, models.ConflictRuleViolation, records[4].Type)
	assert.Equal(t, "BWS-AMS-2026-11-16", records[0].WorkshopRef)
}

func TestConflictsServedFromCache(t *testing.T) {
	f := newReportFixture()
	from := testMonday(ruleTestNow, 10)
	to := from.AddDate(0, 0, 7)

	_, err := f.service.Conflicts(context.Background(), from, to)
	require.NoError(t, err)
	_, err = f.service.Conflicts(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, f.validator.calls)
	assert.Equal(t, 1, f.cache.hits)
}

func TestRevenueForecast(t *testing.T) {
	f := newReportFixture()
	start := testMonday(ruleTestNow, 10)
	override := 8
	f.workshops.workshops["ws-draft"] = models.Workshop{
		ID: "ws-draft", WorkshopTypeID: "type-bws", LocationID: "loc-ams",
		Status: models.StatusDraft, StartDate: start, EndDate: start,
	}
	f.workshops.workshops["ws-confirmed"] = models.Workshop{
		ID: "ws-confirmed", WorkshopTypeID: "type-bws", LocationID: "loc-ams",
		Status: models.StatusConfirmed, StartDate: start.AddDate(0, 0, 1), EndDate: start.AddDate(0, 0, 1),
		MaxParticipants: &override,
	}
	f.workshops.workshops["ws-cancelled"] = models.Workshop{
		ID: "ws-cancelled", WorkshopTypeID: "type-bws", LocationID: "loc-ams",
		Status: models.StatusCancelled, StartDate: start, EndDate: start,
	}

	forecast, err := f.service.RevenueForecast(context.Background(), start, start.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, forecast.Entries, 2)
	assert.Equal(t, 0.75, forecast.FillRatio)

	byID := map[string]models.RevenueForecastEntry{}
	for _, e := range forecast.Entries {
		byID[e.WorkshopID] = e
	}
	// Draft: type capacity scaled by the fill ratio.
	assert.InDelta(t, 12*0.75*295, byID["ws-draft"].Expected, 0.001)
	// Confirmed: workshop-level capacity override at full fill.
	assert.Equal(t, 8, byID["ws-confirmed"].Capacity)
	assert.InDelta(t, 8*295, byID["ws-confirmed"].Expected, 0.001)
	assert.InDelta(t, 12*0.75*295+8*295, forecast.Total, 0.001)
}

func TestRevenueForecastAttributesSpanningWorkshopToStartPeriod(t *testing.T) {
	f := newReportFixture()
	windowA := testMonday(ruleTestNow, 10)
	windowB := windowA.AddDate(0, 0, 7)
	// Starts in window A, runs into window B.
	f.workshops.workshops["ws-span"] = models.Workshop{
		ID: "ws-span", WorkshopTypeID: "type-bws", LocationID: "loc-ams",
		Status: models.StatusPublished, StartDate: windowB.AddDate(0, 0, -2), EndDate: windowB.AddDate(0, 0, 2),
	}

	first, err := f.service.RevenueForecast(context.Background(), windowA, windowB.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, first.Entries, 1)
	assert.Equal(t, "ws-span", first.Entries[0].WorkshopID)

	second, err := f.service.RevenueForecast(context.Background(), windowB, windowB.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Empty(t, second.Entries)
	assert.Zero(t, second.Total)
}

func TestRevenueForecastGroupsByType(t *testing.T) {
	f := newReportFixture()
	f.types.types["type-st"] = models.WorkshopType{
		ID: "type-st", Code: "ST", Name: "Stemtest", MaxParticipants: 4, Price: 95, IsActive: true,
	}
	start := testMonday(ruleTestNow, 10)
	f.workshops.workshops["ws-1"] = models.Workshop{
		ID: "ws-1", WorkshopTypeID: "type-bws", LocationID: "loc-ams",
		Status: models.StatusDraft, StartDate: start, EndDate: start,
	}
	f.workshops.workshops["ws-2"] = models.Workshop{
		ID: "ws-2", WorkshopTypeID: "type-bws", LocationID: "loc-ams",
		Status: models.StatusDraft, StartDate: start.AddDate(0, 0, 1), EndDate: start.AddDate(0, 0, 1),
	}
	f.workshops.workshops["ws-3"] = models.Workshop{
		ID: "ws-3", WorkshopTypeID: "type-st", LocationID: "loc-ams",
		Status: models.StatusDraft, StartDate: start, EndDate: start,
	}

	forecast, err := f.service.RevenueForecast(context.Background(), start, start.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, forecast.ByType, 2)
	// Sorted by type code.
	assert.Equal(t, "BWS", forecast.ByType[0].TypeCode)
	assert.Equal(t, 2, forecast.ByType[0].Workshops)
	assert.InDelta(t, 2*12*0.75*295, forecast.ByType[0].Expected, 0.001)
	assert.Equal(t, "ST", forecast.ByType[1].TypeCode)
	assert.Equal(t, 1, forecast.ByType[1].Workshops)
	assert.InDelta(t, 4*0.75*95, forecast.ByType[1].Expected, 0.001)
}

func TestRevenueForecastPrefersBookedSeats(t *testing.T) {
	f := newReportFixture()
	start := testMonday(ruleTestNow, 10)
	f.workshops.workshops["ws-booked"] = models.Workshop{
		ID: "ws-booked", WorkshopTypeID: "type-bws", LocationID: "loc-ams",
		Status: models.StatusPublished, StartDate: start, EndDate: start,
		CurrentParticipants: 5,
	}

	forecast, err := f.service.RevenueForecast(context.Background(), start, start.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, forecast.Entries, 1)
	assert.InDelta(t, 5.0, forecast.Entries[0].ExpectedSeats, 0.001)
	assert.InDelta(t, 5*295, forecast.Entries[0].Expected, 0.001)
}

func TestCapacityUtilization(t *testing.T) {
	f := newReportFixture()
	from := testMonday(ruleTestNow, 10)
	to := from.AddDate(0, 0, 6)
	f.workshops.sessions = []models.SessionRow{
		{WorkshopID: "ws-1", LocationID: "loc-ams", SessionNumber: 1, Date: from},
		{WorkshopID: "ws-1", LocationID: "loc-ams", SessionNumber: 2, Date: from.AddDate(0, 0, 2)},
		{WorkshopID: "ws-2", LocationID: "loc-ams", SessionNumber: 1, Date: from},
	}

	entries, err := f.service.Capacity(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	// Mon through Fri are open; two distinct dates are booked.
	assert.Equal(t, 5, entries[0].OpenDays)
	assert.Equal(t, 2, entries[0].BookedDays)
	assert.InDelta(t, 0.4, entries[0].Utilization, 0.001)
}

func TestTargetProgress(t *testing.T) {
	f := newReportFixture()
	settings := defaultTestSettings()
	settings.YearlyTargets = map[string]map[string]int{
		"2026": {"BWS": 10},
	}
	f.service.settings = settingsStub{settings: settings}

	start := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	f.workshops.workshops["ws-1"] = models.Workshop{
		ID: "ws-1", WorkshopTypeID: "type-bws", LocationID: "loc-ams",
		Status: models.StatusCompleted, StartDate: start, EndDate: start,
	}
	f.workshops.workshops["ws-2"] = models.Workshop{
		ID: "ws-2", WorkshopTypeID: "type-bws", LocationID: "loc-ams",
		Status: models.StatusPublished, StartDate: start.AddDate(0, 1, 0), EndDate: start.AddDate(0, 1, 0),
	}
	f.workshops.workshops["ws-3"] = models.Workshop{
		ID: "ws-3", WorkshopTypeID: "type-bws", LocationID: "loc-ams",
		Status: models.StatusCancelled, StartDate: start, EndDate: start,
	}

	report, err := f.service.Targets(context.Background(), 2026)
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	entry := report.Entries[0]
	assert.Equal(t, "BWS", entry.TypeCode)
	assert.Equal(t, 10, entry.Target)
	assert.Equal(t, 2, entry.Planned)
	assert.Equal(t, 1, entry.Completed)
	assert.InDelta(t, 0.2, entry.Progress, 0.001)
}

func TestTargetsDefaultYear(t *testing.T) {
	f := newReportFixture()

	report, err := f.service.Targets(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2026, report.Year)
	assert.Empty(t, report.Entries)
}
