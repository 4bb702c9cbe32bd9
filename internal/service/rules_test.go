package service

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barnierg76/stemacteren-planning/internal/models"
)

var ruleTestNow = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

func weekdayLocation() *models.Location {
	return &models.Location{
		ID:            "loc-ams",
		Code:          "AMS",
		Name:          "Amsterdam",
		AvailableDays: []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		IsActive:      true,
	}
}

func baseRuleContext() RuleContext {
	return RuleContext{
		Now:       ruleTestNow,
		Operation: models.OpCreate,
		Type: &models.WorkshopType{
			ID:           "type-bws",
			Code:         "BWS",
			Name:         "Basisworkshop Stemacteren",
			DurationType: models.DurationEveningSeries,
			SessionCount: 3,
			IsActive:     true,
		},
		Location: weekdayLocation(),
		Types:    map[string]models.WorkshopType{},
		Persons: map[string]models.Person{
			"person-anna": {ID: "person-anna", Name: "Anna", Type: models.PersonInstructor, IsActive: true},
		},
		Authorizations: map[string]map[string]bool{
			"person-anna": {"type-bws": true},
		},
		Availability: map[string][]models.Availability{},
		Settings:     defaultTestSettings(),
	}
}

// basePlacement starts on a Monday ten weeks out, which clears the lead time
// and operating day rules.
func basePlacement() models.Placement {
	start := testMonday(ruleTestNow, 10)
	return models.Placement{
		WorkshopTypeID: "type-bws",
		LocationID:     "loc-ams",
		Sessions: []models.SessionPlan{
			{SessionNumber: 1, Date: start, StartTime: "19:30", EndTime: "22:00", IsEvening: true},
			{SessionNumber: 2, Date: start.AddDate(0, 0, 7), StartTime: "19:30", EndTime: "22:00", IsEvening: true},
			{SessionNumber: 3, Date: start.AddDate(0, 0, 14), StartTime: "19:30", EndTime: "22:00", IsEvening: true},
		},
		Staff: []models.StaffAssignment{
			{PersonID: "person-anna", Role: models.RoleInstructor},
		},
	}
}

func runCheckers(p models.Placement, ctx RuleContext) *models.ValidationResult {
	res := models.NewValidationResult()
	for _, c := range Checkers() {
		if c.Applies(ctx.Operation) {
			c.Check(p, ctx, res)
		}
	}
	return res
}

func TestCheckersDeclaredOrder(t *testing.T) {
	names := make([]string, 0)
	for _, c := range Checkers() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{
		"location_capacity",
		"operating_days",
		"instructor_eligibility",
		"weekly_load",
		"energy",
		"availability",
		"lead_time",
		"session_overrides",
		"stemtest_cap",
		"technician",
	}, names)
}

func TestCheckersSkipCancel(t *testing.T) {
	for _, c := range Checkers() {
		assert.False(t, c.Applies(models.OpCancel), c.Name())
		assert.True(t, c.Applies(models.OpCreate), c.Name())
		assert.True(t, c.Applies(models.OpRangeValidate), c.Name())
	}
}

func TestCleanPlacementPasses(t *testing.T) {
	res := runCheckers(basePlacement(), baseRuleContext())
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestRunIsDeterministic(t *testing.T) {
	p := basePlacement()
	ctx := baseRuleContext()
	first := runCheckers(p, ctx)
	for i := 0; i < 5; i++ {
		again := runCheckers(p, ctx)
		assert.Equal(t, first, again)
	}
}

func TestExcludedStartDay(t *testing.T) {
	ctx := baseRuleContext()
	ctx.TypeRules = models.TypeRules{
		ExcludedStartDays: []string{"wednesday"},
		DayExclusionScope: models.DayExclusionFirstSession,
	}

	p := basePlacement()
	wednesday := testMonday(ruleTestNow, 10).AddDate(0, 0, 2)
	p.Sessions = []models.SessionPlan{
		{SessionNumber: 1, Date: wednesday, IsEvening: true},
		{SessionNumber: 2, Date: wednesday.AddDate(0, 0, 7), IsEvening: true},
	}

	res := runCheckers(p, ctx)
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "start_date", res.Errors[0].Field)
	assert.Contains(t, res.Errors[0].Message, "may not start on Wednesday")
}

func TestDisallowedLocationForType(t *testing.T) {
	ctx := baseRuleContext()
	ctx.TypeRules = models.TypeRules{AllowedLocations: []string{"UTR", "EIN"}}

	res := runCheckers(basePlacement(), ctx)
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "location_id", res.Errors[0].Field)
	assert.Contains(t, res.Errors[0].Message, "cannot run at location AMS")
}

func TestAllowedLocationForTypePasses(t *testing.T) {
	ctx := baseRuleContext()
	ctx.TypeRules = models.TypeRules{AllowedLocations: []string{"ams"}}

	res := runCheckers(basePlacement(), ctx)
	assert.True(t, res.IsValid)
}

func TestExcludedDayAllSessionsScope(t *testing.T) {
	ctx := baseRuleContext()
	ctx.TypeRules = models.TypeRules{
		ExcludedStartDays: []string{"wednesday"},
		DayExclusionScope: models.DayExclusionAllSessions,
	}

	p := basePlacement()
	monday := testMonday(ruleTestNow, 10)
	p.Sessions = []models.SessionPlan{
		{SessionNumber: 1, Date: monday, IsEvening: true},
		{SessionNumber: 2, Date: monday.AddDate(0, 0, 2), IsEvening: true}, // Wednesday
	}

	res := runCheckers(p, ctx)
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "sessions", res.Errors[0].Field)
	assert.Contains(t, res.Errors[0].Message, "session 2")
}

func TestLocationClosedOnStartDay(t *testing.T) {
	ctx := baseRuleContext()
	ctx.Location.AvailableDays = []string{"tuesday", "thursday"}

	res := runCheckers(basePlacement(), ctx)
	assert.False(t, res.IsValid)
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0].Message, "does not operate on Monday")
}

func TestUnavailableInstructor(t *testing.T) {
	ctx := baseRuleContext()
	p := basePlacement()
	ctx.Availability["person-anna"] = []models.Availability{
		{PersonID: "person-anna", Kind: models.AvailabilityUnavailable, StartDate: p.Sessions[1].Date, EndDate: p.Sessions[1].Date},
	}

	res := runCheckers(p, ctx)
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "staff", res.Errors[0].Field)
	assert.Contains(t, res.Errors[0].Message, "Anna is unavailable on "+p.Sessions[1].Date.Format("2006-01-02"))
}

func TestUnavailableOverridesPreferred(t *testing.T) {
	ctx := baseRuleContext()
	p := basePlacement()
	date := p.Sessions[0].Date
	ctx.Availability["person-anna"] = []models.Availability{
		{PersonID: "person-anna", Kind: models.AvailabilityPreferred, StartDate: date, EndDate: date},
		{PersonID: "person-anna", Kind: models.AvailabilityUnavailable, StartDate: date, EndDate: date},
	}

	res := runCheckers(p, ctx)
	assert.False(t, res.IsValid)
}

func TestUnusedPreferredWindowWarns(t *testing.T) {
	ctx := baseRuleContext()
	p := basePlacement()
	far := p.EndDate().AddDate(0, 2, 0)
	ctx.Availability["person-anna"] = []models.Availability{
		{PersonID: "person-anna", Kind: models.AvailabilityPreferred, StartDate: far, EndDate: far.AddDate(0, 0, 4)},
	}

	res := runCheckers(p, ctx)
	assert.True(t, res.IsValid)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].Message, "preferred dates")
}

func TestSilenceIsNotAFinding(t *testing.T) {
	ctx := baseRuleContext()
	delete(ctx.Availability, "person-anna")

	res := runCheckers(basePlacement(), ctx)
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Warnings)
}

func TestLeadTimeThresholds(t *testing.T) {
	tests := []struct {
		name       string
		weeksAhead int
		wantError  bool
		wantWarn   bool
	}{
		{name: "below minimum", weeksAhead: 3, wantError: true},
		{name: "under ideal", weeksAhead: 6, wantWarn: true},
		{name: "comfortable", weeksAhead: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := baseRuleContext()
			p := basePlacement()
			start := testMonday(ruleTestNow, tt.weeksAhead)
			p.Sessions = []models.SessionPlan{{SessionNumber: 1, Date: start, IsEvening: true}}

			res := runCheckers(p, ctx)
			if tt.wantError {
				assert.False(t, res.IsValid)
				require.NotEmpty(t, res.Errors)
				assert.Contains(t, res.Errors[0].Message, "minimum publication lead")
			} else {
				assert.True(t, res.IsValid)
			}
			if tt.wantWarn {
				require.NotEmpty(t, res.Warnings)
				assert.Contains(t, res.Warnings[0].Message, "ideal publication lead")
			}
			if !tt.wantError && !tt.wantWarn {
				assert.Empty(t, res.Errors)
				assert.Empty(t, res.Warnings)
			}
		})
	}
}

func TestLocationDoubleBooking(t *testing.T) {
	ctx := baseRuleContext()
	p := basePlacement()
	ctx.Workshops = []models.Workshop{
		{ID: "ws-existing", LocationID: "loc-ams", Status: models.StatusPublished, StartDate: p.Sessions[1].Date, EndDate: p.Sessions[2].Date},
	}

	res := runCheckers(p, ctx)
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "location_id", res.Errors[0].Field)
	assert.Contains(t, res.Errors[0].Message, "ws-existing")
}

func TestOtherLocationDoesNotConflict(t *testing.T) {
	ctx := baseRuleContext()
	p := basePlacement()
	ctx.Workshops = []models.Workshop{
		{ID: "ws-elsewhere", LocationID: "loc-utr", StartDate: p.StartDate(), EndDate: p.EndDate()},
	}

	res := runCheckers(p, ctx)
	assert.True(t, res.IsValid)
}

func TestEligibility(t *testing.T) {
	ctx := baseRuleContext()
	ctx.Persons["person-bert"] = models.Person{ID: "person-bert", Name: "Bert", Type: models.PersonInstructor, IsActive: false}
	ctx.Persons["person-carla"] = models.Person{ID: "person-carla", Name: "Carla", Type: models.PersonTechnician, IsActive: true}

	p := basePlacement()
	p.Staff = []models.StaffAssignment{
		{PersonID: "person-ghost", Role: models.RoleInstructor},
		{PersonID: "person-bert", Role: models.RoleInstructor},
		{PersonID: "person-carla", Role: models.RoleInstructor},
		{PersonID: "person-anna", Role: models.RoleInstructor},
	}

	res := runCheckers(p, ctx)
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors[0].Message, "does not exist")
	assert.Contains(t, res.Errors[1].Message, "Bert is not active")
	assert.Contains(t, res.Errors[2].Message, "Carla is not an instructor")
}

func TestUnauthorizedInstructor(t *testing.T) {
	ctx := baseRuleContext()
	ctx.Authorizations["person-anna"] = map[string]bool{"type-other": true}

	res := runCheckers(basePlacement(), ctx)
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "not authorized for this workshop type")
}

func TestWeeklyLoadCap(t *testing.T) {
	ctx := baseRuleContext()
	two := 2
	person := ctx.Persons["person-anna"]
	person.MaxDaysPerWeek = &two
	ctx.Persons["person-anna"] = person

	p := basePlacement()
	monday := testMonday(ruleTestNow, 10)
	p.Sessions = []models.SessionPlan{
		{SessionNumber: 1, Date: monday},
		{SessionNumber: 2, Date: monday.AddDate(0, 0, 1)},
		{SessionNumber: 3, Date: monday.AddDate(0, 0, 3)},
	}

	res := runCheckers(p, ctx)
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "would work 3 days")
	assert.Contains(t, res.Errors[0].Message, "cap of 2")
}

func TestWeeklyLoadCountsExistingSchedule(t *testing.T) {
	ctx := baseRuleContext()
	monday := testMonday(ruleTestNow, 10)
	// Tuesday through Saturday already staffed; the Monday candidate makes six.
	for i := 0; i < 5; i++ {
		ctx.Staffing = append(ctx.Staffing, models.StaffingRow{
			WorkshopID: "ws-other", WorkshopTypeID: "type-bws", PersonID: "person-anna",
			Date: monday.AddDate(0, 0, i+1), Role: models.RoleInstructor,
		})
	}

	p := basePlacement()
	p.Sessions = []models.SessionPlan{{SessionNumber: 1, Date: monday}}

	res := runCheckers(p, ctx)
	assert.False(t, res.IsValid)
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0].Message, "would work 6 days")
}

func TestWeeklyLoadAllowsExactCap(t *testing.T) {
	ctx := baseRuleContext()
	monday := testMonday(ruleTestNow, 10)
	for i := 0; i < 4; i++ {
		ctx.Staffing = append(ctx.Staffing, models.StaffingRow{
			WorkshopID: "ws-other", WorkshopTypeID: "type-bws", PersonID: "person-anna",
			Date: monday.AddDate(0, 0, i+1), Role: models.RoleInstructor,
		})
	}

	p := basePlacement()
	p.Sessions = []models.SessionPlan{{SessionNumber: 1, Date: monday}}

	res := runCheckers(p, ctx)
	assert.True(t, res.IsValid)
}

func TestEnergyRule(t *testing.T) {
	ctx := baseRuleContext()
	ctx.Types["type-intense"] = models.WorkshopType{
		ID:    "type-intense",
		Rules: types.JSONText(`{"high_intensity": true}`),
	}
	day := testMonday(ruleTestNow, 10)
	ctx.Staffing = []models.StaffingRow{
		{WorkshopID: "ws-day", WorkshopTypeID: "type-intense", PersonID: "person-anna", Date: day, IsEvening: false},
	}

	p := basePlacement()
	p.Sessions = []models.SessionPlan{{SessionNumber: 1, Date: day, IsEvening: true}}

	res := runCheckers(p, ctx)
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "high intensity day with an evening session")
}

func TestEnergyRuleDisabledBySetting(t *testing.T) {
	ctx := baseRuleContext()
	ctx.Settings.EnergyFullDayBlocksEve = false
	ctx.Types["type-intense"] = models.WorkshopType{
		ID:    "type-intense",
		Rules: types.JSONText(`{"high_intensity": true}`),
	}
	day := testMonday(ruleTestNow, 10)
	ctx.Staffing = []models.StaffingRow{
		{WorkshopID: "ws-day", WorkshopTypeID: "type-intense", PersonID: "person-anna", Date: day, IsEvening: false},
	}

	p := basePlacement()
	p.Sessions = []models.SessionPlan{{SessionNumber: 1, Date: day, IsEvening: true}}

	res := runCheckers(p, ctx)
	assert.True(t, res.IsValid)
}

func TestFixedSessionInstructor(t *testing.T) {
	ctx := baseRuleContext()
	ctx.Persons["person-douwe"] = models.Person{ID: "person-douwe", Name: "Douwe", Type: models.PersonInstructor, IsActive: true}
	ctx.Authorizations["person-douwe"] = map[string]bool{"type-bws": true}
	ctx.TypeRules = models.TypeRules{
		FixedSessionInstructors: map[string]string{"2": "person-douwe"},
	}

	res := runCheckers(basePlacement(), ctx)
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "session 2 of this workshop type must be taught by Douwe")

	two := 2
	p := basePlacement()
	p.Staff = append(p.Staff, models.StaffAssignment{PersonID: "person-douwe", Role: models.RoleCoInstructor, SessionNumber: &two})
	res = runCheckers(p, ctx)
	assert.True(t, res.IsValid)
}

func TestStemtestDailyCap(t *testing.T) {
	ctx := baseRuleContext()
	ctx.TypeRules = models.TypeRules{StemtestSessions: []int{1}}
	ctx.Types["type-bws"] = *ctx.Type
	day := testMonday(ruleTestNow, 10)
	ctx.Staffing = []models.StaffingRow{
		{WorkshopID: "ws-a", WorkshopTypeID: "type-st", PersonID: "person-anna", Date: day, SessionNumber: 1},
		{WorkshopID: "ws-b", WorkshopTypeID: "type-st", PersonID: "person-anna", Date: day, SessionNumber: 1},
	}
	ctx.Types["type-st"] = models.WorkshopType{
		ID:    "type-st",
		Rules: types.JSONText(`{"stemtest_sessions": [1]}`),
	}

	p := basePlacement()
	p.Sessions = []models.SessionPlan{{SessionNumber: 1, Date: day}}

	res := runCheckers(p, ctx)
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "would run 3 voice tests")
	assert.Contains(t, res.Errors[0].Message, "daily cap of 2")
}

func TestTechnicianRequired(t *testing.T) {
	ctx := baseRuleContext()
	ctx.Type.RequiresTechnician = true

	res := runCheckers(basePlacement(), ctx)
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "requires a technician")
}

func TestTechnicianUnavailable(t *testing.T) {
	ctx := baseRuleContext()
	ctx.Type.RequiresTechnician = true
	ctx.Persons["person-tess"] = models.Person{ID: "person-tess", Name: "Tess", Type: models.PersonTechnician, IsActive: true}
	p := basePlacement()
	ctx.Availability["person-tess"] = []models.Availability{
		{PersonID: "person-tess", Kind: models.AvailabilityUnavailable, StartDate: p.Sessions[0].Date, EndDate: p.Sessions[0].Date},
	}
	p.Staff = append(p.Staff, models.StaffAssignment{PersonID: "person-tess", Role: models.RoleTechnician})

	res := runCheckers(p, ctx)
	assert.False(t, res.IsValid)
	// Flagged by both the availability rule and the technician rule.
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[1].Message, "technician Tess is unavailable")
}

func TestFindingsAccumulateAcrossRules(t *testing.T) {
	ctx := baseRuleContext()
	ctx.TypeRules = models.TypeRules{ExcludedStartDays: []string{"monday"}}
	ctx.Authorizations["person-anna"] = nil
	p := basePlacement()
	p.Sessions = []models.SessionPlan{{SessionNumber: 1, Date: testMonday(ruleTestNow, 2)}}

	res := runCheckers(p, ctx)
	assert.False(t, res.IsValid)
	// Start day exclusion, missing authorization and short lead all report.
	require.Len(t, res.Errors, 3)
	assert.Equal(t, "start_date", res.Errors[0].Field)
	assert.Equal(t, "staff", res.Errors[1].Field)
	assert.Equal(t, "start_date", res.Errors[2].Field)
}
