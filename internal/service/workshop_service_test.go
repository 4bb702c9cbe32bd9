package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barnierg76/stemacteren-planning/internal/dto"
	"github.com/barnierg76/stemacteren-planning/internal/models"
	appErrors "github.com/barnierg76/stemacteren-planning/pkg/errors"
)

type validatorStub struct {
	result     *models.ValidationResult
	err        error
	operations []models.Operation
	placements []models.Placement
}

func (s *validatorStub) Validate(ctx context.Context, op models.Operation, placement models.Placement) (*models.ValidationResult, error) {
	s.operations = append(s.operations, op)
	s.placements = append(s.placements, placement)
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return models.NewValidationResult(), nil
}

type workshopFixture struct {
	service   *WorkshopService
	repo      *workshopRepoStub
	validator *validatorStub
	audit     *auditStub
}

func newWorkshopFixture() workshopFixture {
	repo := newWorkshopRepoStub()
	types := &typeRepoStub{types: map[string]models.WorkshopType{
		"type-bws": {ID: "type-bws", Code: "BWS", Name: "Basisworkshop", IsActive: true},
	}}
	locations := &locationRepoStub{locations: map[string]models.Location{
		"loc-ams": *weekdayLocation(),
	}}
	validator := &validatorStub{}
	audit := &auditStub{}
	return workshopFixture{
		service:   NewWorkshopService(repo, types, locations, validator, audit, nil),
		repo:      repo,
		validator: validator,
		audit:     audit,
	}
}

func createRequest() dto.CreateWorkshopRequest {
	start := testMonday(ruleTestNow, 10)
	return dto.CreateWorkshopRequest{
		WorkshopTypeID: "type-bws",
		LocationID:     "loc-ams",
		Sessions: []dto.SessionInput{
			{SessionNumber: 1, Date: start, StartTime: "19:30", EndTime: "22:00", IsEvening: true},
			{SessionNumber: 2, Date: start.AddDate(0, 0, 7), StartTime: "19:30", EndTime: "22:00", IsEvening: true},
		},
		Staff: []dto.StaffInput{
			{PersonID: "person-anna", Role: models.RoleInstructor},
		},
	}
}

func (f workshopFixture) seedWorkshop(id string, status models.WorkshopStatus) {
	start := testMonday(ruleTestNow, 10)
	f.repo.workshops[id] = models.Workshop{
		ID: id, WorkshopTypeID: "type-bws", LocationID: "loc-ams",
		Status: status, StartDate: start, EndDate: start.AddDate(0, 0, 7),
		Sessions: []models.WorkshopSession{
			{ID: id + "-s1", WorkshopID: id, SessionNumber: 1, Date: start, IsEvening: true},
			{ID: id + "-s2", WorkshopID: id, SessionNumber: 2, Date: start.AddDate(0, 0, 7), IsEvening: true},
		},
	}
}

func TestCreateCommitsValidPlacement(t *testing.T) {
	f := newWorkshopFixture()

	resp, result, err := f.service.Create(context.Background(), createRequest())
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, result.IsValid)
	assert.Equal(t, models.StatusDraft, resp.Workshop.Status)
	assert.Contains(t, resp.DisplayCode, "BWS-AMS-")
	require.Len(t, f.repo.created, 1)
	assert.Equal(t, []models.Operation{models.OpCreate}, f.validator.operations)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditActionWorkshopCreate, f.audit.entries[0].Action)
}

func TestCreateReturnsFindingsWithoutCommitting(t *testing.T) {
	f := newWorkshopFixture()
	invalid := models.NewValidationResult()
	invalid.AddError("start_date", "start date is too close")
	f.validator.result = invalid

	resp, result, err := f.service.Create(context.Background(), createRequest())
	require.NoError(t, err)
	assert.Nil(t, resp)
	require.NotNil(t, result)
	assert.False(t, result.IsValid)
	assert.Empty(t, f.repo.created)
	assert.Empty(t, f.audit.entries)
}

func TestCreateLosesConcurrentCommit(t *testing.T) {
	f := newWorkshopFixture()
	f.repo.commitConflicts = []string{"ws-other"}

	resp, result, err := f.service.Create(context.Background(), createRequest())
	require.Error(t, err)
	assert.Nil(t, resp)
	require.NotNil(t, result)
	assert.True(t, result.IsValid)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "ws-other")
}

func TestUpdateRefusesTerminalWorkshop(t *testing.T) {
	f := newWorkshopFixture()
	f.seedWorkshop("ws-done", models.StatusCompleted)

	_, _, err := f.service.Update(context.Background(), "ws-done", dto.UpdateWorkshopRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.updated)
}

func TestUpdateValidatesWithOwnWorkshopExcluded(t *testing.T) {
	f := newWorkshopFixture()
	f.seedWorkshop("ws-1", models.StatusDraft)
	newLoc := "loc-ams"

	_, result, err := f.service.Update(context.Background(), "ws-1", dto.UpdateWorkshopRequest{LocationID: &newLoc})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	require.Len(t, f.validator.placements, 1)
	require.NotNil(t, f.validator.placements[0].WorkshopID)
	assert.Equal(t, "ws-1", *f.validator.placements[0].WorkshopID)
	assert.Equal(t, []models.Operation{models.OpUpdate}, f.validator.operations)
	require.Len(t, f.repo.updated, 1)
}

func TestUpdateUnknownWorkshop(t *testing.T) {
	f := newWorkshopFixture()

	_, _, err := f.service.Update(context.Background(), "ws-missing", dto.UpdateWorkshopRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from    models.WorkshopStatus
		to      models.WorkshopStatus
		allowed bool
	}{
		{models.StatusDraft, models.StatusPublished, true},
		{models.StatusDraft, models.StatusCancelled, true},
		{models.StatusDraft, models.StatusConfirmed, false},
		{models.StatusDraft, models.StatusCompleted, false},
		{models.StatusPublished, models.StatusConfirmed, true},
		{models.StatusPublished, models.StatusCancelled, true},
		{models.StatusPublished, models.StatusCompleted, false},
		{models.StatusConfirmed, models.StatusCompleted, true},
		{models.StatusConfirmed, models.StatusCancelled, true},
		{models.StatusConfirmed, models.StatusPublished, false},
		{models.StatusCompleted, models.StatusCancelled, false},
		{models.StatusCancelled, models.StatusDraft, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			f := newWorkshopFixture()
			f.seedWorkshop("ws-1", tt.from)

			resp, err := f.service.Transition(context.Background(), "ws-1", tt.to)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, resp.Workshop.Status)
			} else {
				require.Error(t, err)
				assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
			}
		})
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	f := newWorkshopFixture()
	f.seedWorkshop("ws-1", models.StatusDraft)

	_, err := f.service.Transition(context.Background(), "ws-1", models.WorkshopStatus("ARCHIVED"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPublishRevalidates(t *testing.T) {
	f := newWorkshopFixture()
	f.seedWorkshop("ws-1", models.StatusDraft)

	resp, err := f.service.Transition(context.Background(), "ws-1", models.StatusPublished)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, resp.Workshop.Status)
	assert.NotNil(t, resp.Workshop.PublishedAt)
	assert.Equal(t, []models.Operation{models.OpUpdate}, f.validator.operations)
}

func TestPublishRefusedWhenInvalid(t *testing.T) {
	f := newWorkshopFixture()
	f.seedWorkshop("ws-1", models.StatusDraft)
	invalid := models.NewValidationResult()
	invalid.AddError("staff", "Anna is unavailable on 2026-11-09")
	f.validator.result = invalid

	_, err := f.service.Transition(context.Background(), "ws-1", models.StatusPublished)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "cannot be published")
	w := f.repo.workshops["ws-1"]
	assert.Equal(t, models.StatusDraft, w.Status)
}

func TestTransitionLostRace(t *testing.T) {
	f := newWorkshopFixture()
	f.seedWorkshop("ws-1", models.StatusPublished)
	f.repo.transitionOK = false

	_, err := f.service.Transition(context.Background(), "ws-1", models.StatusConfirmed)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCancelRecordsAudit(t *testing.T) {
	f := newWorkshopFixture()
	f.seedWorkshop("ws-1", models.StatusPublished)

	resp, err := f.service.Cancel(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, resp.Workshop.Status)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditActionWorkshopCancel, f.audit.entries[0].Action)
}

func TestAuditTrail(t *testing.T) {
	f := newWorkshopFixture()
	f.seedWorkshop("ws-1", models.StatusDraft)
	_, err := f.service.Cancel(context.Background(), "ws-1")
	require.NoError(t, err)

	trail, err := f.service.AuditTrail(context.Background(), "ws-1")
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, models.AuditActionWorkshopCancel, trail[0].Action)
}

func TestGetUnknownWorkshop(t *testing.T) {
	f := newWorkshopFixture()

	_, err := f.service.Get(context.Background(), "ws-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestListAddsDisplayCodes(t *testing.T) {
	f := newWorkshopFixture()
	f.seedWorkshop("ws-1", models.StatusDraft)

	out, page, err := f.service.List(context.Background(), dto.WorkshopQuery{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Contains(t, out[0].DisplayCode, "BWS-AMS-")
	assert.Equal(t, 1, page.TotalCount)
}
