package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/barnierg76/stemacteren-planning/internal/dto"
	"github.com/barnierg76/stemacteren-planning/internal/models"
	appErrors "github.com/barnierg76/stemacteren-planning/pkg/errors"
)

type validationWorkshopReader interface {
	List(ctx context.Context, filter models.WorkshopFilter) ([]models.Workshop, int, error)
	FindByID(ctx context.Context, id string) (*models.Workshop, error)
	AssignmentsFor(ctx context.Context, workshopID string) ([]models.Assignment, error)
	StaffingInRange(ctx context.Context, from, to time.Time, excludeID string) ([]models.StaffingRow, error)
}

type validationTypeReader interface {
	List(ctx context.Context, activeOnly bool) ([]models.WorkshopType, error)
	FindByID(ctx context.Context, id string) (*models.WorkshopType, error)
}

type validationLocationReader interface {
	FindByID(ctx context.Context, id string) (*models.Location, error)
}

type validationPersonReader interface {
	FindByID(ctx context.Context, id string) (*models.Person, error)
	AuthorizedTypeIDs(ctx context.Context, personID string) ([]string, error)
}

type validationAvailabilityReader interface {
	ListForPersons(ctx context.Context, personIDs []string, from, to time.Time) (map[string][]models.Availability, error)
}

type planningSettings interface {
	Planning(ctx context.Context) (PlanningSettings, error)
}

// ValidationService runs the full rule set over candidate placements. It is
// read-only: it loads one snapshot of schedule state, evaluates every
// applicable checker in declared order and reports all findings at once.
type ValidationService struct {
	workshops    validationWorkshopReader
	types        validationTypeReader
	locations    validationLocationReader
	persons      validationPersonReader
	availability validationAvailabilityReader
	settings     planningSettings
	checkers     []Checker
	logger       *zap.Logger
	now          func() time.Time
}

// NewValidationService constructs a ValidationService.
func NewValidationService(
	workshops validationWorkshopReader,
	types validationTypeReader,
	locations validationLocationReader,
	persons validationPersonReader,
	availability validationAvailabilityReader,
	settings planningSettings,
	logger *zap.Logger,
) *ValidationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationService{
		workshops:    workshops,
		types:        types,
		locations:    locations,
		persons:      persons,
		availability: availability,
		settings:     settings,
		checkers:     Checkers(),
		logger:       logger,
		now:          time.Now,
	}
}

// Validate evaluates a placement for the given operation and returns every
// finding. Unknown referenced entities surface as not-found errors before
// any rule runs.
func (s *ValidationService) Validate(ctx context.Context, op models.Operation, placement models.Placement) (*models.ValidationResult, error) {
	ruleCtx, err := s.buildContext(ctx, op, placement)
	if err != nil {
		return nil, err
	}
	return s.run(op, placement, *ruleCtx), nil
}

// ValidateRange re-validates every non-terminal workshop intersecting the
// window, pairing each with its current findings.
func (s *ValidationService) ValidateRange(ctx context.Context, from, to time.Time) ([]dto.RangeValidationEntry, error) {
	filter := models.WorkshopFilter{FromDate: &from, ToDate: &to, PageSize: 100}
	var entries []dto.RangeValidationEntry
	for page := 1; ; page++ {
		filter.Page = page
		workshops, total, err := s.workshops.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "schedule is temporarily unavailable")
		}
		for _, w := range workshops {
			if w.Status.IsTerminal() {
				continue
			}
			placement, err := s.placementFor(ctx, w.ID)
			if err != nil {
				return nil, err
			}
			result, err := s.Validate(ctx, models.OpRangeValidate, *placement)
			if err != nil {
				return nil, err
			}
			hydrated, err := s.hydrate(ctx, &w)
			if err != nil {
				return nil, err
			}
			entries = append(entries, dto.RangeValidationEntry{
				WorkshopID:  w.ID,
				WorkshopRef: hydrated.DisplayCode(),
				Result:      result,
			})
		}
		if len(entries) >= total || len(workshops) == 0 {
			break
		}
	}
	return entries, nil
}

// placementFor reconstructs the placement of a stored workshop so it can be
// re-run through the rule set.
func (s *ValidationService) placementFor(ctx context.Context, workshopID string) (*models.Placement, error) {
	w, err := s.workshops.FindByID(ctx, workshopID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "schedule is temporarily unavailable")
	}
	assignments, err := s.workshops.AssignmentsFor(ctx, workshopID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "schedule is temporarily unavailable")
	}
	sessionNumber := make(map[string]int, len(w.Sessions))
	placement := models.Placement{
		WorkshopID:     &w.ID,
		WorkshopTypeID: w.WorkshopTypeID,
		LocationID:     w.LocationID,
	}
	for _, sess := range w.Sessions {
		sessionNumber[sess.ID] = sess.SessionNumber
		placement.Sessions = append(placement.Sessions, models.SessionPlan{
			SessionNumber: sess.SessionNumber,
			Date:          sess.Date,
			StartTime:     sess.StartTime,
			EndTime:       sess.EndTime,
			IsEvening:     sess.IsEvening,
		})
	}
	for _, a := range assignments {
		staff := models.StaffAssignment{PersonID: a.PersonID, Role: a.Role}
		if a.SessionID != nil {
			if n, ok := sessionNumber[*a.SessionID]; ok {
				num := n
				staff.SessionNumber = &num
			}
		}
		placement.Staff = append(placement.Staff, staff)
	}
	return &placement, nil
}

func (s *ValidationService) run(op models.Operation, placement models.Placement, ruleCtx RuleContext) *models.ValidationResult {
	result := models.NewValidationResult()
	for _, checker := range s.checkers {
		if !checker.Applies(op) {
			continue
		}
		checker.Check(placement, ruleCtx, result)
	}
	return result
}

func (s *ValidationService) buildContext(ctx context.Context, op models.Operation, placement models.Placement) (*RuleContext, error) {
	settings, err := s.settings.Planning(ctx)
	if err != nil {
		return nil, err
	}
	ruleCtx := &RuleContext{
		Now:            s.now().UTC(),
		Operation:      op,
		Types:          map[string]models.WorkshopType{},
		Persons:        map[string]models.Person{},
		Authorizations: map[string]map[string]bool{},
		Availability:   map[string][]models.Availability{},
		Settings:       settings,
	}

	wt, err := s.types.FindByID(ctx, placement.WorkshopTypeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "catalogue is temporarily unavailable")
	}
	ruleCtx.Type = wt
	ruleCtx.TypeRules = wt.DecodedRules()

	loc, err := s.locations.FindByID(ctx, placement.LocationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "locations are temporarily unavailable")
	}
	ruleCtx.Location = loc

	allTypes, err := s.types.List(ctx, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "catalogue is temporarily unavailable")
	}
	for _, t := range allTypes {
		ruleCtx.Types[t.ID] = t
	}

	var personIDs []string
	for _, staff := range placement.Staff {
		if _, seen := ruleCtx.Persons[staff.PersonID]; seen {
			continue
		}
		person, err := s.persons.FindByID(ctx, staff.PersonID)
		if err != nil {
			if err == sql.ErrNoRows {
				// Leave the person out; the eligibility checker
				// reports the missing reference as a finding.
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "roster is temporarily unavailable")
		}
		ruleCtx.Persons[person.ID] = *person
		personIDs = append(personIDs, person.ID)
		typeIDs, err := s.persons.AuthorizedTypeIDs(ctx, person.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "roster is temporarily unavailable")
		}
		authorized := make(map[string]bool, len(typeIDs))
		for _, id := range typeIDs {
			authorized[id] = true
		}
		ruleCtx.Authorizations[person.ID] = authorized
	}
	// Fixed-session instructors may not be staffed yet; load them so the
	// override checker can name them.
	for _, requiredID := range ruleCtx.TypeRules.FixedSessionInstructors {
		if _, seen := ruleCtx.Persons[requiredID]; seen {
			continue
		}
		if person, err := s.persons.FindByID(ctx, requiredID); err == nil {
			ruleCtx.Persons[person.ID] = *person
		}
	}

	start, end := placement.StartDate(), placement.EndDate()
	if !start.IsZero() {
		// Scan a padded window so weekly load sees the whole ISO weeks
		// the candidate touches.
		scanFrom := start.AddDate(0, 0, -7)
		scanTo := end.AddDate(0, 0, 7)

		excludeID := ""
		if placement.WorkshopID != nil {
			excludeID = *placement.WorkshopID
		}
		filter := models.WorkshopFilter{FromDate: &scanFrom, ToDate: &scanTo, PageSize: 100}
		for page := 1; ; page++ {
			filter.Page = page
			workshops, total, err := s.workshops.List(ctx, filter)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "schedule is temporarily unavailable")
			}
			for _, w := range workshops {
				if w.ID == excludeID || w.Status.IsTerminal() {
					continue
				}
				ruleCtx.Workshops = append(ruleCtx.Workshops, w)
			}
			if page*filter.PageSize >= total || len(workshops) == 0 {
				break
			}
		}

		staffing, err := s.workshops.StaffingInRange(ctx, scanFrom, scanTo, excludeID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "schedule is temporarily unavailable")
		}
		ruleCtx.Staffing = staffing

		if len(personIDs) > 0 {
			availability, err := s.availability.ListForPersons(ctx, personIDs, scanFrom, scanTo)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "roster is temporarily unavailable")
			}
			ruleCtx.Availability = availability
		}
	}
	return ruleCtx, nil
}

func (s *ValidationService) hydrate(ctx context.Context, w *models.Workshop) (*models.Workshop, error) {
	if w.Type == nil {
		if t, err := s.types.FindByID(ctx, w.WorkshopTypeID); err == nil {
			w.Type = t
		}
	}
	if w.Location == nil {
		if loc, err := s.locations.FindByID(ctx, w.LocationID); err == nil {
			w.Location = loc
		}
	}
	return w, nil
}
