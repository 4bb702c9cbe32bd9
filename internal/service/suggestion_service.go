package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/barnierg76/stemacteren-planning/internal/dto"
	"github.com/barnierg76/stemacteren-planning/internal/models"
	appErrors "github.com/barnierg76/stemacteren-planning/pkg/errors"
)

type placementValidator interface {
	Validate(ctx context.Context, op models.Operation, placement models.Placement) (*models.ValidationResult, error)
}

type suggestionLocationReader interface {
	List(ctx context.Context, activeOnly bool) ([]models.Location, error)
	FindByID(ctx context.Context, id string) (*models.Location, error)
}

type suggestionPersonReader interface {
	List(ctx context.Context, filter models.PersonFilter) ([]models.Person, int, error)
	FindByID(ctx context.Context, id string) (*models.Person, error)
	AuthorizedPersonIDs(ctx context.Context, workshopTypeID string) ([]string, error)
}

type suggestionAvailabilityReader interface {
	ListForPersons(ctx context.Context, personIDs []string, from, to time.Time) (map[string][]models.Availability, error)
}

type suggestionStaffingReader interface {
	StaffingInRange(ctx context.Context, from, to time.Time, excludeID string) ([]models.StaffingRow, error)
}

// SuggestionServiceConfig tunes candidate enumeration.
type SuggestionServiceConfig struct {
	Horizon    time.Duration
	MaxResults int
}

// SuggestionService enumerates candidate placements, keeps only the ones the
// rule set accepts and ranks them with settings-backed weights. A window
// without any legal slot yields an empty list, not an error.
type SuggestionService struct {
	validator    placementValidator
	types        validationTypeReader
	locations    suggestionLocationReader
	persons      suggestionPersonReader
	availability suggestionAvailabilityReader
	staffing     suggestionStaffingReader
	settings     planningSettings
	horizon      time.Duration
	maxResults   int
	logger       *zap.Logger
	now          func() time.Time
}

// NewSuggestionService constructs a SuggestionService.
func NewSuggestionService(
	validator placementValidator,
	types validationTypeReader,
	locations suggestionLocationReader,
	persons suggestionPersonReader,
	availability suggestionAvailabilityReader,
	staffing suggestionStaffingReader,
	settings planningSettings,
	logger *zap.Logger,
	cfg SuggestionServiceConfig,
) *SuggestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	horizon := cfg.Horizon
	if horizon <= 0 {
		horizon = 120 * 24 * time.Hour
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}
	return &SuggestionService{
		validator:    validator,
		types:        types,
		locations:    locations,
		persons:      persons,
		availability: availability,
		staffing:     staffing,
		settings:     settings,
		horizon:      horizon,
		maxResults:   maxResults,
		logger:       logger,
		now:          time.Now,
	}
}

// Suggest returns ranked legal placements for a workshop type. Ordering is
// deterministic: score descending, then date ascending, then location code.
func (s *SuggestionService) Suggest(ctx context.Context, req dto.SuggestRequest) ([]models.Suggestion, error) {
	settings, err := s.settings.Planning(ctx)
	if err != nil {
		return nil, err
	}

	wt, err := s.types.FindByID(ctx, req.WorkshopTypeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "catalogue is temporarily unavailable")
	}
	rules := wt.DecodedRules()

	now := s.now().UTC()
	from := now.AddDate(0, 0, 1)
	if req.From != nil && req.From.After(from) {
		from = *req.From
	}
	to := now.Add(s.horizon)
	if req.To != nil && req.To.Before(to) {
		to = *req.To
	}
	if to.Before(from) {
		return []models.Suggestion{}, nil
	}

	locations, err := s.candidateLocations(ctx, req.LocationID)
	if err != nil {
		return nil, err
	}
	if len(rules.AllowedLocations) > 0 {
		allowed := locations[:0]
		for _, loc := range locations {
			if rules.AllowsLocation(loc.Code) {
				allowed = append(allowed, loc)
			}
		}
		locations = allowed
	}
	instructors, err := s.candidateInstructors(ctx, req.WorkshopTypeID)
	if err != nil {
		return nil, err
	}
	if len(locations) == 0 || len(instructors) == 0 {
		return []models.Suggestion{}, nil
	}
	technicians, err := s.candidateTechnicians(ctx, wt)
	if err != nil {
		return nil, err
	}

	personIDs := make([]string, 0, len(instructors)+len(technicians))
	for _, p := range instructors {
		personIDs = append(personIDs, p.ID)
	}
	for _, p := range technicians {
		personIDs = append(personIDs, p.ID)
	}
	availability, err := s.availability.ListForPersons(ctx, personIDs, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "roster is temporarily unavailable")
	}
	staffing, err := s.staffing.StaffingInRange(ctx, from.AddDate(0, 0, -7), to.AddDate(0, 0, 7), "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "schedule is temporarily unavailable")
	}

	maxResults := settings.SuggestionMaxResults
	if req.MaxResults > 0 && req.MaxResults < maxResults {
		maxResults = req.MaxResults
	}
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var suggestions []models.Suggestion
	for date := truncateDay(from); !date.After(to); date = date.AddDate(0, 0, 1) {
		for _, loc := range locations {
			// Cheap pre-filter; the rule run is still authoritative.
			if !loc.OperatesOn(date) || rules.ExcludesDay(date) {
				continue
			}
			// One suggestion per slot: the best scoring instructor carries
			// the placement, the rest stay selectable alternatives.
			var best *models.Suggestion
			var options []models.InstructorOption
			for _, instructor := range instructors {
				placement := s.buildPlacement(wt, rules, loc, instructor, technicians, date)
				result, err := s.validator.Validate(ctx, models.OpCreate, placement)
				if err != nil {
					return nil, err
				}
				if !result.IsValid {
					continue
				}
				options = append(options, models.InstructorOption{PersonID: instructor.ID, Name: instructor.Name})
				score, reasons := s.score(settings, placement, instructor, availability[instructor.ID], staffing, result, now)
				if best == nil || score > best.Score {
					best = &models.Suggestion{
						Placement:    placement,
						LocationCode: loc.Code,
						Score:        score,
						Validation:   result,
						Reasons:      reasons,
					}
				}
			}
			if best != nil {
				best.AvailableInstructors = options
				suggestions = append(suggestions, *best)
			}
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		di, dj := suggestions[i].Placement.StartDate(), suggestions[j].Placement.StartDate()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return suggestions[i].LocationCode < suggestions[j].LocationCode
	})
	if len(suggestions) > maxResults {
		suggestions = suggestions[:maxResults]
	}
	if suggestions == nil {
		suggestions = []models.Suggestion{}
	}
	return suggestions, nil
}

func (s *SuggestionService) candidateLocations(ctx context.Context, locationID *string) ([]models.Location, error) {
	if locationID != nil {
		loc, err := s.locations.FindByID(ctx, *locationID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "locations are temporarily unavailable")
		}
		if !loc.IsActive {
			return nil, nil
		}
		return []models.Location{*loc}, nil
	}
	locations, err := s.locations.List(ctx, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "locations are temporarily unavailable")
	}
	sort.Slice(locations, func(i, j int) bool { return locations[i].Code < locations[j].Code })
	return locations, nil
}

func (s *SuggestionService) candidateInstructors(ctx context.Context, workshopTypeID string) ([]models.Person, error) {
	ids, err := s.persons.AuthorizedPersonIDs(ctx, workshopTypeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "roster is temporarily unavailable")
	}
	var out []models.Person
	for _, id := range ids {
		person, err := s.persons.FindByID(ctx, id)
		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "roster is temporarily unavailable")
		}
		if person.IsActive && person.Type.IsInstructor() {
			out = append(out, *person)
		}
	}
	// Stable order so score ties resolve the same way on every run.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *SuggestionService) candidateTechnicians(ctx context.Context, wt *models.WorkshopType) ([]models.Person, error) {
	if !wt.RequiresTechnician {
		return nil, nil
	}
	active := true
	technicians, _, err := s.persons.List(ctx, models.PersonFilter{Type: models.PersonTechnician, Active: &active, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "roster is temporarily unavailable")
	}
	return technicians, nil
}

func (s *SuggestionService) buildPlacement(wt *models.WorkshopType, rules models.TypeRules, loc models.Location, instructor models.Person, technicians []models.Person, start time.Time) models.Placement {
	placement := models.Placement{
		WorkshopTypeID: wt.ID,
		LocationID:     loc.ID,
		Sessions:       generateSessions(wt, start),
		Staff:          []models.StaffAssignment{{PersonID: instructor.ID, Role: models.RoleInstructor}},
	}
	for sessionKey, personID := range rules.FixedSessionInstructors {
		if personID == instructor.ID {
			continue
		}
		num, err := parseSessionNumber(sessionKey)
		if err != nil {
			continue
		}
		n := num
		placement.Staff = append(placement.Staff, models.StaffAssignment{PersonID: personID, Role: models.RoleCoInstructor, SessionNumber: &n})
	}
	if wt.RequiresTechnician && len(technicians) > 0 {
		placement.Staff = append(placement.Staff, models.StaffAssignment{PersonID: technicians[0].ID, Role: models.RoleTechnician})
	}
	return placement
}

// generateSessions lays out a type's default session pattern from a start
// date: weekly evenings for series, consecutive days for multi-day blocks,
// one block otherwise.
func generateSessions(wt *models.WorkshopType, start time.Time) []models.SessionPlan {
	count := wt.SessionCount
	if count < 1 {
		count = 1
	}
	sessions := make([]models.SessionPlan, 0, count)
	switch wt.DurationType {
	case models.DurationEveningSeries:
		for i := 0; i < count; i++ {
			sessions = append(sessions, models.SessionPlan{
				SessionNumber: i + 1,
				Date:          start.AddDate(0, 0, 7*i),
				StartTime:     "19:30",
				EndTime:       "22:00",
				IsEvening:     true,
			})
		}
	case models.DurationMultiDay:
		for i := 0; i < count; i++ {
			sessions = append(sessions, models.SessionPlan{
				SessionNumber: i + 1,
				Date:          start.AddDate(0, 0, i),
				StartTime:     "10:00",
				EndTime:       "17:00",
			})
		}
	case models.DurationHalfDay:
		sessions = append(sessions, models.SessionPlan{SessionNumber: 1, Date: start, StartTime: "10:00", EndTime: "13:00"})
	case models.DurationSingleSession:
		sessions = append(sessions, models.SessionPlan{SessionNumber: 1, Date: start, StartTime: "19:30", EndTime: "22:00", IsEvening: true})
	default:
		sessions = append(sessions, models.SessionPlan{SessionNumber: 1, Date: start, StartTime: "10:00", EndTime: "17:00"})
	}
	return sessions
}

// score blends the settings-backed factors into a [0, 1] ranking value.
func (s *SuggestionService) score(settings PlanningSettings, placement models.Placement, instructor models.Person, availability []models.Availability, staffing []models.StaffingRow, result *models.ValidationResult, now time.Time) (float64, []string) {
	score := 0.5
	var reasons []string

	// Lead-time proximity: a start at exactly the ideal lead scores the
	// full weight, falling off linearly on either side.
	start := placement.StartDate()
	weeks := start.Sub(now).Hours() / (24 * 7)
	ideal := float64(settings.LeadTimeIdealWeeks)
	if ideal > 0 {
		proximity := 1 - absFloat(weeks-ideal)/ideal
		if proximity < 0 {
			proximity = 0
		}
		score += settings.ScoreWeightLeadTime * proximity
		if proximity > 0.8 {
			reasons = append(reasons, "close to ideal publication lead")
		}
	}

	// Preferred availability bonus.
	preferred := false
	for _, sess := range placement.Sessions {
		if kind, found := models.ResolveAvailability(availability, sess.Date); found && kind == models.AvailabilityPreferred {
			preferred = true
		}
	}
	if preferred {
		score += settings.ScoreWeightPreferred
		reasons = append(reasons, fmt.Sprintf("%s prefers these dates", instructor.Name))
	}

	// Home location bonus.
	if instructor.PreferredLocationID != nil && *instructor.PreferredLocationID == placement.LocationID {
		score += settings.ScoreWeightLocation
		reasons = append(reasons, fmt.Sprintf("%s prefers this location", instructor.Name))
	}

	// Load balancing: reward instructors further from their weekly cap in
	// the candidate's first ISO week.
	limit := settings.DefaultMaxDaysPerWeek
	if instructor.MaxDaysPerWeek != nil {
		limit = *instructor.MaxDaysPerWeek
	}
	if limit > 0 {
		year, week := start.ISOWeek()
		used := make(map[string]struct{})
		for _, row := range staffing {
			if row.PersonID != instructor.ID {
				continue
			}
			if y, w := row.Date.ISOWeek(); y == year && w == week {
				used[row.Date.Format("2006-01-02")] = struct{}{}
			}
		}
		headroom := float64(limit-len(used)) / float64(limit)
		if headroom < 0 {
			headroom = 0
		}
		score += settings.ScoreWeightLoad * headroom
	}

	score -= settings.ScoreWarningPenalty * float64(len(result.Warnings))

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, reasons
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func parseSessionNumber(key string) (int, error) {
	var n int
	_, err := fmt.Sscanf(key, "%d", &n)
	return n, err
}
