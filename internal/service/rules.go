package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/barnierg76/stemacteren-planning/internal/models"
)

// RuleContext is the read-only snapshot a rule run evaluates against. The
// orchestrator builds it once per run; checkers never touch storage, so the
// same placement and context always produce the same findings.
type RuleContext struct {
	Now       time.Time
	Operation models.Operation

	Type      *models.WorkshopType
	TypeRules models.TypeRules
	Location  *models.Location

	// Types indexes every workshop type so checkers can decode the rules
	// of other scheduled workshops.
	Types map[string]models.WorkshopType

	Persons        map[string]models.Person
	Authorizations map[string]map[string]bool
	Availability   map[string][]models.Availability

	// Workshops and Staffing cover active schedule state in the scan
	// window, already excluding the placement's own workshop on updates.
	Workshops []models.Workshop
	Staffing  []models.StaffingRow

	Settings PlanningSettings
}

// Checker is one composable placement rule. Check appends findings to the
// result and never short-circuits the run.
type Checker interface {
	Name() string
	Applies(op models.Operation) bool
	Check(p models.Placement, ctx RuleContext, res *models.ValidationResult)
}

// Checkers returns the full rule set in declared evaluation order. The order
// is part of the wire contract: findings surface in this sequence.
func Checkers() []Checker {
	return []Checker{
		locationCapacityChecker{},
		operatingDaysChecker{},
		eligibilityChecker{},
		weeklyLoadChecker{},
		energyChecker{},
		availabilityChecker{},
		leadTimeChecker{},
		sessionOverrideChecker{},
		stemtestCapChecker{},
		technicianChecker{},
	}
}

// placementOp reports whether the operation describes a future placement.
// Cancels tear a workshop down, so no placement rule applies to them.
func placementOp(op models.Operation) bool {
	return op == models.OpCreate || op == models.OpUpdate || op == models.OpRangeValidate
}

type locationCapacityChecker struct{}

func (locationCapacityChecker) Name() string { return "location_capacity" }

func (locationCapacityChecker) Applies(op models.Operation) bool { return placementOp(op) }

func (locationCapacityChecker) Check(p models.Placement, ctx RuleContext, res *models.ValidationResult) {
	start, end := p.StartDate(), p.EndDate()
	if start.IsZero() {
		return
	}
	for _, w := range ctx.Workshops {
		if w.LocationID != p.LocationID {
			continue
		}
		// Inclusive range overlap on both ends.
		if !w.EndDate.Before(start) && !w.StartDate.After(end) {
			res.AddError("location_id", fmt.Sprintf("location is double-booked: overlaps workshop %s (%s)", w.ID, w.StartDate.Format("2006-01-02")))
		}
	}
}

type operatingDaysChecker struct{}

func (operatingDaysChecker) Name() string { return "operating_days" }

func (operatingDaysChecker) Applies(op models.Operation) bool { return placementOp(op) }

func (operatingDaysChecker) Check(p models.Placement, ctx RuleContext, res *models.ValidationResult) {
	start := p.StartDate()
	if start.IsZero() {
		return
	}
	if ctx.Location != nil && !ctx.Location.OperatesOn(start) {
		res.AddError("start_date", fmt.Sprintf("location %s does not operate on %s", ctx.Location.Code, start.Weekday()))
	}
	if ctx.Location != nil && !ctx.TypeRules.AllowsLocation(ctx.Location.Code) {
		res.AddError("location_id", fmt.Sprintf("this workshop type cannot run at location %s", ctx.Location.Code))
	}
	if len(ctx.TypeRules.ExcludedStartDays) == 0 {
		return
	}
	switch ctx.TypeRules.DayExclusionScope {
	case models.DayExclusionAllSessions:
		for _, s := range p.Sessions {
			if ctx.TypeRules.ExcludesDay(s.Date) {
				res.AddError("sessions", fmt.Sprintf("session %d falls on %s, which this workshop type excludes", s.SessionNumber, s.Date.Weekday()))
			}
		}
	default:
		if ctx.TypeRules.ExcludesDay(start) {
			res.AddError("start_date", fmt.Sprintf("this workshop type may not start on %s", start.Weekday()))
		}
	}
}

type eligibilityChecker struct{}

func (eligibilityChecker) Name() string { return "instructor_eligibility" }

func (eligibilityChecker) Applies(op models.Operation) bool { return placementOp(op) }

func (eligibilityChecker) Check(p models.Placement, ctx RuleContext, res *models.ValidationResult) {
	for _, staff := range p.Staff {
		person, ok := ctx.Persons[staff.PersonID]
		if !ok {
			res.AddError("staff", fmt.Sprintf("person %s does not exist", staff.PersonID))
			continue
		}
		if !person.IsActive {
			res.AddError("staff", fmt.Sprintf("%s is not active", person.Name))
			continue
		}
		switch staff.Role {
		case models.RoleInstructor, models.RoleCoInstructor:
			if !person.Type.IsInstructor() {
				res.AddError("staff", fmt.Sprintf("%s is not an instructor", person.Name))
				continue
			}
			if !ctx.Authorizations[staff.PersonID][p.WorkshopTypeID] {
				res.AddError("staff", fmt.Sprintf("%s is not authorized for this workshop type", person.Name))
			}
		case models.RoleTechnician:
			if person.Type != models.PersonTechnician {
				res.AddError("staff", fmt.Sprintf("%s is not a technician", person.Name))
			}
		}
	}
}

type weeklyLoadChecker struct{}

func (weeklyLoadChecker) Name() string { return "weekly_load" }

func (weeklyLoadChecker) Applies(op models.Operation) bool { return placementOp(op) }

func (weeklyLoadChecker) Check(p models.Placement, ctx RuleContext, res *models.ValidationResult) {
	for _, personID := range p.Instructors() {
		limit := ctx.Settings.DefaultMaxDaysPerWeek
		if person, ok := ctx.Persons[personID]; ok && person.MaxDaysPerWeek != nil {
			limit = *person.MaxDaysPerWeek
		}
		if limit <= 0 {
			continue
		}
		// Distinct scheduled days per ISO week, existing plus candidate.
		days := make(map[string]map[string]struct{})
		for _, row := range ctx.Staffing {
			if row.PersonID != personID {
				continue
			}
			addWeekDay(days, row.Date)
		}
		for _, s := range p.Sessions {
			if staffedOn(p, personID, s.SessionNumber) {
				addWeekDay(days, s.Date)
			}
		}
		for week, set := range days {
			if len(set) > limit {
				name := personID
				if person, ok := ctx.Persons[personID]; ok {
					name = person.Name
				}
				res.AddError("staff", fmt.Sprintf("%s would work %d days in week %s, above the cap of %d", name, len(set), week, limit))
			}
		}
	}
}

func addWeekDay(days map[string]map[string]struct{}, date time.Time) {
	year, week := date.ISOWeek()
	key := fmt.Sprintf("%d-W%02d", year, week)
	if days[key] == nil {
		days[key] = make(map[string]struct{})
	}
	days[key][date.Format("2006-01-02")] = struct{}{}
}

func staffedOn(p models.Placement, personID string, sessionNumber int) bool {
	for _, s := range p.StaffFor(sessionNumber) {
		if s.PersonID == personID {
			return true
		}
	}
	return false
}

type energyChecker struct{}

func (energyChecker) Name() string { return "energy" }

func (energyChecker) Applies(op models.Operation) bool { return placementOp(op) }

func (energyChecker) Check(p models.Placement, ctx RuleContext, res *models.ValidationResult) {
	if !ctx.Settings.EnergyFullDayBlocksEve {
		return
	}
	candidateIntense := ctx.TypeRules.HighIntensity
	for _, s := range p.Sessions {
		date := s.Date.Format("2006-01-02")
		for _, staff := range p.StaffFor(s.SessionNumber) {
			if staff.Role == models.RoleGuest {
				continue
			}
			for _, row := range ctx.Staffing {
				if row.PersonID != staff.PersonID || row.Date.Format("2006-01-02") != date {
					continue
				}
				otherIntense := false
				if t, ok := ctx.Types[row.WorkshopTypeID]; ok {
					otherIntense = t.DecodedRules().HighIntensity
				}
				// A high intensity day and an evening block may not
				// land on the same person on the same date.
				if (candidateIntense && row.IsEvening) || (s.IsEvening && otherIntense) {
					name := staff.PersonID
					if person, ok := ctx.Persons[staff.PersonID]; ok {
						name = person.Name
					}
					res.AddError("staff", fmt.Sprintf("%s cannot combine a high intensity day with an evening session on %s", name, date))
				}
			}
		}
	}
}

type availabilityChecker struct{}

func (availabilityChecker) Name() string { return "availability" }

func (availabilityChecker) Applies(op models.Operation) bool { return placementOp(op) }

func (availabilityChecker) Check(p models.Placement, ctx RuleContext, res *models.ValidationResult) {
	for _, s := range p.Sessions {
		for _, staff := range p.StaffFor(s.SessionNumber) {
			entries := ctx.Availability[staff.PersonID]
			kind, found := models.ResolveAvailability(entries, s.Date)
			if found && kind == models.AvailabilityUnavailable {
				name := staff.PersonID
				if person, ok := ctx.Persons[staff.PersonID]; ok {
					name = person.Name
				}
				res.AddError("staff", fmt.Sprintf("%s is unavailable on %s", name, s.Date.Format("2006-01-02")))
			}
		}
	}
	// Silence passes, but flag a person whose declared PREFERRED window is
	// being passed over entirely.
	warned := make(map[string]bool)
	for _, staff := range p.Staff {
		if warned[staff.PersonID] {
			continue
		}
		entries := ctx.Availability[staff.PersonID]
		if len(entries) == 0 {
			continue
		}
		hasPreferred := false
		preferredUsed := false
		for _, e := range entries {
			if e.Kind != models.AvailabilityPreferred {
				continue
			}
			hasPreferred = true
			for _, s := range p.Sessions {
				if e.Covers(s.Date) {
					preferredUsed = true
				}
			}
		}
		if hasPreferred && !preferredUsed {
			name := staff.PersonID
			if person, ok := ctx.Persons[staff.PersonID]; ok {
				name = person.Name
			}
			res.AddWarning("staff", fmt.Sprintf("%s has preferred dates that this placement does not use", name))
			warned[staff.PersonID] = true
		}
	}
}

type leadTimeChecker struct{}

func (leadTimeChecker) Name() string { return "lead_time" }

func (leadTimeChecker) Applies(op models.Operation) bool { return placementOp(op) }

func (leadTimeChecker) Check(p models.Placement, ctx RuleContext, res *models.ValidationResult) {
	start := p.StartDate()
	if start.IsZero() {
		return
	}
	weeks := start.Sub(ctx.Now).Hours() / (24 * 7)
	if weeks < float64(ctx.Settings.LeadTimeMinimumWeeks) {
		res.AddError("start_date", fmt.Sprintf("start date is %.1f weeks away, below the minimum publication lead of %d weeks", weeks, ctx.Settings.LeadTimeMinimumWeeks))
		return
	}
	if weeks < float64(ctx.Settings.LeadTimeIdealWeeks) {
		res.AddWarning("start_date", fmt.Sprintf("start date is %.1f weeks away, under the ideal publication lead of %d weeks", weeks, ctx.Settings.LeadTimeIdealWeeks))
	}
}

type sessionOverrideChecker struct{}

func (sessionOverrideChecker) Name() string { return "session_overrides" }

func (sessionOverrideChecker) Applies(op models.Operation) bool { return placementOp(op) }

func (sessionOverrideChecker) Check(p models.Placement, ctx RuleContext, res *models.ValidationResult) {
	for sessionKey, requiredID := range ctx.TypeRules.FixedSessionInstructors {
		sessionNumber, err := strconv.Atoi(sessionKey)
		if err != nil {
			continue
		}
		present := false
		for _, s := range p.Sessions {
			if s.SessionNumber == sessionNumber {
				present = true
			}
		}
		if !present {
			continue
		}
		satisfied := false
		for _, staff := range p.StaffFor(sessionNumber) {
			if staff.PersonID == requiredID && (staff.Role == models.RoleInstructor || staff.Role == models.RoleCoInstructor) {
				satisfied = true
			}
		}
		if !satisfied {
			name := requiredID
			if person, ok := ctx.Persons[requiredID]; ok {
				name = person.Name
			}
			res.AddError("staff", fmt.Sprintf("session %d of this workshop type must be taught by %s", sessionNumber, name))
		}
	}
}

type stemtestCapChecker struct{}

func (stemtestCapChecker) Name() string { return "stemtest_cap" }

func (stemtestCapChecker) Applies(op models.Operation) bool { return placementOp(op) }

func (stemtestCapChecker) Check(p models.Placement, ctx RuleContext, res *models.ValidationResult) {
	limit := ctx.Settings.MaxStemtestsPerDay
	if limit <= 0 || len(ctx.TypeRules.StemtestSessions) == 0 {
		return
	}
	// Count tests per person per day across existing schedule and candidate.
	counts := make(map[string]map[string]int)
	for _, row := range ctx.Staffing {
		t, ok := ctx.Types[row.WorkshopTypeID]
		if !ok || !t.DecodedRules().IsStemtestSession(row.SessionNumber) {
			continue
		}
		bump(counts, row.PersonID, row.Date)
	}
	for _, s := range p.Sessions {
		if !ctx.TypeRules.IsStemtestSession(s.SessionNumber) {
			continue
		}
		for _, staff := range p.StaffFor(s.SessionNumber) {
			if staff.Role != models.RoleInstructor && staff.Role != models.RoleCoInstructor {
				continue
			}
			bump(counts, staff.PersonID, s.Date)
		}
	}
	reported := make(map[string]bool)
	for _, s := range p.Sessions {
		if !ctx.TypeRules.IsStemtestSession(s.SessionNumber) {
			continue
		}
		date := s.Date.Format("2006-01-02")
		for _, staff := range p.StaffFor(s.SessionNumber) {
			key := staff.PersonID + "|" + date
			if reported[key] {
				continue
			}
			if counts[staff.PersonID][date] > limit {
				name := staff.PersonID
				if person, ok := ctx.Persons[staff.PersonID]; ok {
					name = person.Name
				}
				res.AddError("staff", fmt.Sprintf("%s would run %d voice tests on %s, above the daily cap of %d", name, counts[staff.PersonID][date], date, limit))
				reported[key] = true
			}
		}
	}
}

func bump(counts map[string]map[string]int, personID string, date time.Time) {
	key := date.Format("2006-01-02")
	if counts[personID] == nil {
		counts[personID] = make(map[string]int)
	}
	counts[personID][key]++
}

type technicianChecker struct{}

func (technicianChecker) Name() string { return "technician" }

func (technicianChecker) Applies(op models.Operation) bool { return placementOp(op) }

func (technicianChecker) Check(p models.Placement, ctx RuleContext, res *models.ValidationResult) {
	if ctx.Type == nil || !ctx.Type.RequiresTechnician {
		return
	}
	var technicians []models.StaffAssignment
	for _, staff := range p.Staff {
		if staff.Role == models.RoleTechnician {
			technicians = append(technicians, staff)
		}
	}
	if len(technicians) == 0 {
		res.AddError("staff", "this workshop type requires a technician and none is assigned")
		return
	}
	for _, tech := range technicians {
		for _, s := range p.Sessions {
			if tech.SessionNumber != nil && *tech.SessionNumber != s.SessionNumber {
				continue
			}
			kind, found := models.ResolveAvailability(ctx.Availability[tech.PersonID], s.Date)
			if found && kind == models.AvailabilityUnavailable {
				name := tech.PersonID
				if person, ok := ctx.Persons[tech.PersonID]; ok {
					name = person.Name
				}
				res.AddError("staff", fmt.Sprintf("technician %s is unavailable on %s", name, s.Date.Format("2006-01-02")))
			}
		}
	}
}
