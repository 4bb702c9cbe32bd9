package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barnierg76/stemacteren-planning/internal/dto"
	"github.com/barnierg76/stemacteren-planning/internal/models"
	appErrors "github.com/barnierg76/stemacteren-planning/pkg/errors"
)

func newTeamFixture() (*TeamService, *personRepoStub, *availabilityRepoStub) {
	persons := &personRepoStub{
		persons: map[string]models.Person{
			"person-anna": {ID: "person-anna", Name: "Anna", Type: models.PersonInstructor, IsActive: true},
		},
		authorized: map[string][]string{
			"person-anna": {"type-bws"},
		},
	}
	availability := &availabilityRepoStub{entries: map[string][]models.Availability{}}
	return NewTeamService(persons, availability, nil), persons, availability
}

func TestTeamGetIncludesAuthorizations(t *testing.T) {
	svc, _, _ := newTeamFixture()

	resp, err := svc.Get(context.Background(), "person-anna")
	require.NoError(t, err)
	assert.Equal(t, "Anna", resp.Name)
	assert.Equal(t, []string{"type-bws"}, resp.WorkshopTypeIDs)
}

func TestTeamGetUnknownPerson(t *testing.T) {
	svc, _, _ := newTeamFixture()

	_, err := svc.Get(context.Background(), "person-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTeamCreateStoresAuthorizations(t *testing.T) {
	svc, persons, _ := newTeamFixture()

	resp, err := svc.Create(context.Background(), dto.CreatePersonRequest{
		Name:            "Bert",
		Type:            models.PersonExternalInstructor,
		WorkshopTypeIDs: []string{"type-bws"},
	})
	require.NoError(t, err)
	assert.True(t, resp.IsActive)
	assert.Equal(t, []string{"type-bws"}, resp.WorkshopTypeIDs)
	assert.Contains(t, persons.persons, resp.ID)
}

func TestTeamUpdatePatchesFields(t *testing.T) {
	svc, persons, _ := newTeamFixture()
	three := 3
	inactive := false

	resp, err := svc.Update(context.Background(), "person-anna", dto.UpdatePersonRequest{
		MaxDaysPerWeek: &three,
		IsActive:       &inactive,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.MaxDaysPerWeek)
	assert.Equal(t, 3, *resp.MaxDaysPerWeek)
	assert.False(t, resp.IsActive)
	// Untouched fields survive the patch.
	assert.Equal(t, "Anna", persons.persons["person-anna"].Name)
}

func TestDeclareAvailability(t *testing.T) {
	svc, _, availability := newTeamFixture()
	start := testMonday(ruleTestNow, 6)

	entry, err := svc.DeclareAvailability(context.Background(), "person-anna", dto.CreateAvailabilityRequest{
		Kind:      models.AvailabilityUnavailable,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 4),
	})
	require.NoError(t, err)
	assert.Equal(t, "person-anna", entry.PersonID)
	assert.Len(t, availability.entries["person-anna"], 1)
}

func TestDeclareAvailabilityRejectsInvertedWindow(t *testing.T) {
	svc, _, availability := newTeamFixture()
	start := testMonday(ruleTestNow, 6)

	_, err := svc.DeclareAvailability(context.Background(), "person-anna", dto.CreateAvailabilityRequest{
		Kind:      models.AvailabilityAvailable,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, -1),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, availability.entries["person-anna"])
}

func TestAvailabilityForUnknownPerson(t *testing.T) {
	svc, _, _ := newTeamFixture()
	var from, to *time.Time

	_, err := svc.Availability(context.Background(), "person-missing", from, to)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityReturnsEmptySlice(t *testing.T) {
	svc, _, _ := newTeamFixture()

	entries, err := svc.Availability(context.Background(), "person-anna", nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}
