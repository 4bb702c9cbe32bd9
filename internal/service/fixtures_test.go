package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/barnierg76/stemacteren-planning/internal/models"
)

func defaultTestSettings() PlanningSettings {
	return PlanningSettings{
		LeadTimeIdealWeeks:     8,
		LeadTimeMinimumWeeks:   4,
		DefaultMaxDaysPerWeek:  5,
		MaxStemtestsPerDay:     2,
		EnergyFullDayBlocksEve: true,
		ForecastFillRatio:      0.75,
		YearlyTargets:          map[string]map[string]int{},
		ScoreWeightLeadTime:    0.3,
		ScoreWeightPreferred:   0.1,
		ScoreWeightLoad:        0.05,
		ScoreWeightLocation:    0.1,
		ScoreWarningPenalty:    0.15,
		SuggestionMaxResults:   20,
	}
}

type settingsStub struct {
	settings PlanningSettings
	err      error
}

func (s settingsStub) Planning(ctx context.Context) (PlanningSettings, error) {
	if s.err != nil {
		return PlanningSettings{}, s.err
	}
	return s.settings, nil
}

type workshopRepoStub struct {
	workshops   map[string]models.Workshop
	assignments map[string][]models.Assignment
	staffing    []models.StaffingRow
	sessions    []models.SessionRow

	commitConflicts []string
	created         []models.Workshop
	updated         []models.Workshop
	transitioned    []string
	transitionOK    bool
	err             error
}

func newWorkshopRepoStub() *workshopRepoStub {
	return &workshopRepoStub{
		workshops:    map[string]models.Workshop{},
		assignments:  map[string][]models.Assignment{},
		transitionOK: true,
	}
}

func (s *workshopRepoStub) List(ctx context.Context, filter models.WorkshopFilter) ([]models.Workshop, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	var out []models.Workshop
	for _, w := range s.workshops {
		if filter.Status != "" && w.Status != filter.Status {
			continue
		}
		if filter.FromDate != nil && w.EndDate.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && w.StartDate.After(*filter.ToDate) {
			continue
		}
		out = append(out, w)
	}
	if filter.Page > 1 {
		return nil, len(out), nil
	}
	return out, len(out), nil
}

func (s *workshopRepoStub) FindByID(ctx context.Context, id string) (*models.Workshop, error) {
	if s.err != nil {
		return nil, s.err
	}
	w, ok := s.workshops[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &w, nil
}

func (s *workshopRepoStub) AssignmentsFor(ctx context.Context, workshopID string) ([]models.Assignment, error) {
	return s.assignments[workshopID], nil
}

func (s *workshopRepoStub) SessionsFor(ctx context.Context, workshopID string) ([]models.WorkshopSession, error) {
	w, ok := s.workshops[workshopID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return w.Sessions, nil
}

func (s *workshopRepoStub) StaffingInRange(ctx context.Context, from, to time.Time, excludeID string) ([]models.StaffingRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.StaffingRow
	for _, row := range s.staffing {
		if row.WorkshopID == excludeID {
			continue
		}
		if row.Date.Before(from) || row.Date.After(to) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *workshopRepoStub) SessionsInRange(ctx context.Context, from, to time.Time, excludeID string) ([]models.SessionRow, error) {
	var out []models.SessionRow
	for _, row := range s.sessions {
		if row.WorkshopID == excludeID {
			continue
		}
		if row.Date.Before(from) || row.Date.After(to) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *workshopRepoStub) CommitCreate(ctx context.Context, w *models.Workshop, sessions []models.WorkshopSession, assignments []models.Assignment) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.commitConflicts) > 0 {
		return s.commitConflicts, nil
	}
	if w.ID == "" {
		w.ID = "created-1"
	}
	w.Sessions = sessions
	s.workshops[w.ID] = *w
	s.created = append(s.created, *w)
	return nil, nil
}

func (s *workshopRepoStub) CommitUpdate(ctx context.Context, w *models.Workshop, sessions []models.WorkshopSession, assignments []models.Assignment) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.commitConflicts) > 0 {
		return s.commitConflicts, nil
	}
	w.Sessions = sessions
	s.workshops[w.ID] = *w
	s.updated = append(s.updated, *w)
	return nil, nil
}

func (s *workshopRepoStub) TransitionStatus(ctx context.Context, id string, from, to models.WorkshopStatus, publishedAt *time.Time) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if !s.transitionOK {
		return false, nil
	}
	w, ok := s.workshops[id]
	if !ok || w.Status != from {
		return false, nil
	}
	w.Status = to
	if publishedAt != nil {
		w.PublishedAt = publishedAt
	}
	s.workshops[id] = w
	s.transitioned = append(s.transitioned, id)
	return true, nil
}

type typeRepoStub struct {
	types map[string]models.WorkshopType
	err   error
}

func (s *typeRepoStub) List(ctx context.Context, activeOnly bool) ([]models.WorkshopType, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.WorkshopType
	for _, t := range s.types {
		out = append(out, t)
	}
	return out, nil
}

func (s *typeRepoStub) FindByID(ctx context.Context, id string) (*models.WorkshopType, error) {
	if s.err != nil {
		return nil, s.err
	}
	t, ok := s.types[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

func (s *typeRepoStub) Create(ctx context.Context, wt *models.WorkshopType) error {
	if s.err != nil {
		return s.err
	}
	if wt.ID == "" {
		wt.ID = fmt.Sprintf("type-%d", len(s.types)+1)
	}
	if s.types == nil {
		s.types = map[string]models.WorkshopType{}
	}
	s.types[wt.ID] = *wt
	return nil
}

func (s *typeRepoStub) Update(ctx context.Context, wt *models.WorkshopType) error {
	if s.err != nil {
		return s.err
	}
	s.types[wt.ID] = *wt
	return nil
}

type locationRepoStub struct {
	locations map[string]models.Location
	err       error
}

func (s *locationRepoStub) List(ctx context.Context, activeOnly bool) ([]models.Location, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Location
	for _, loc := range s.locations {
		if activeOnly && !loc.IsActive {
			continue
		}
		out = append(out, loc)
	}
	return out, nil
}

func (s *locationRepoStub) FindByID(ctx context.Context, id string) (*models.Location, error) {
	if s.err != nil {
		return nil, s.err
	}
	loc, ok := s.locations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &loc, nil
}

func (s *locationRepoStub) Create(ctx context.Context, loc *models.Location) error {
	if s.err != nil {
		return s.err
	}
	if loc.ID == "" {
		loc.ID = fmt.Sprintf("loc-%d", len(s.locations)+1)
	}
	if s.locations == nil {
		s.locations = map[string]models.Location{}
	}
	s.locations[loc.ID] = *loc
	return nil
}

func (s *locationRepoStub) Update(ctx context.Context, loc *models.Location) error {
	if s.err != nil {
		return s.err
	}
	s.locations[loc.ID] = *loc
	return nil
}

func (s *locationRepoStub) FindByIDs(ctx context.Context, ids []string) (map[string]models.Location, error) {
	out := map[string]models.Location{}
	for _, id := range ids {
		if loc, ok := s.locations[id]; ok {
			out[id] = loc
		}
	}
	return out, nil
}

type personRepoStub struct {
	persons    map[string]models.Person
	authorized map[string][]string
	err        error
}

func (s *personRepoStub) List(ctx context.Context, filter models.PersonFilter) ([]models.Person, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	var out []models.Person
	for _, p := range s.persons {
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if filter.Active != nil && p.IsActive != *filter.Active {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (s *personRepoStub) FindByID(ctx context.Context, id string) (*models.Person, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.persons[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (s *personRepoStub) Create(ctx context.Context, person *models.Person) error {
	if person.ID == "" {
		person.ID = "person-new"
	}
	if s.persons == nil {
		s.persons = map[string]models.Person{}
	}
	s.persons[person.ID] = *person
	return nil
}

func (s *personRepoStub) Update(ctx context.Context, person *models.Person) error {
	s.persons[person.ID] = *person
	return nil
}

func (s *personRepoStub) AuthorizedTypeIDs(ctx context.Context, personID string) ([]string, error) {
	return s.authorized[personID], nil
}

func (s *personRepoStub) AuthorizedPersonIDs(ctx context.Context, workshopTypeID string) ([]string, error) {
	var out []string
	for personID, typeIDs := range s.authorized {
		for _, id := range typeIDs {
			if id == workshopTypeID {
				out = append(out, personID)
			}
		}
	}
	return out, nil
}

func (s *personRepoStub) ReplaceAuthorizations(ctx context.Context, personID string, typeIDs []string) error {
	if s.authorized == nil {
		s.authorized = map[string][]string{}
	}
	s.authorized[personID] = typeIDs
	return nil
}

type availabilityRepoStub struct {
	entries map[string][]models.Availability
	err     error
}

func (s *availabilityRepoStub) ListForPerson(ctx context.Context, personID string, from, to *time.Time) ([]models.Availability, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.entries[personID], nil
}

func (s *availabilityRepoStub) ListForPersons(ctx context.Context, personIDs []string, from, to time.Time) (map[string][]models.Availability, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := map[string][]models.Availability{}
	for _, id := range personIDs {
		if entries, ok := s.entries[id]; ok {
			out[id] = entries
		}
	}
	return out, nil
}

func (s *availabilityRepoStub) Create(ctx context.Context, entry *models.Availability) error {
	if entry.ID == "" {
		entry.ID = "availability-new"
	}
	if s.entries == nil {
		s.entries = map[string][]models.Availability{}
	}
	s.entries[entry.PersonID] = append(s.entries[entry.PersonID], *entry)
	return nil
}

func (s *availabilityRepoStub) Delete(ctx context.Context, id string) error {
	return nil
}

type auditStub struct {
	entries []*models.AuditLog
}

func (s *auditStub) Create(ctx context.Context, entry *models.AuditLog) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *auditStub) ListForResource(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditLog, error) {
	var out []models.AuditLog
	for _, e := range s.entries {
		if e.Resource == resource && e.ResourceID != nil && *e.ResourceID == resourceID {
			out = append(out, *e)
		}
	}
	return out, nil
}

type settingRepoStub struct {
	items map[string]models.Setting
	err   error
}

func (s *settingRepoStub) List(ctx context.Context) ([]models.Setting, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Setting
	for _, item := range s.items {
		out = append(out, item)
	}
	return out, nil
}

func (s *settingRepoStub) Find(ctx context.Context, key string) (*models.Setting, error) {
	if s.err != nil {
		return nil, s.err
	}
	item, ok := s.items[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (s *settingRepoStub) Upsert(ctx context.Context, key string, value types.JSONText) error {
	if s.err != nil {
		return s.err
	}
	if s.items == nil {
		s.items = map[string]models.Setting{}
	}
	s.items[key] = models.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return nil
}

// testMonday returns a Monday far enough out to clear lead time checks.
func testMonday(now time.Time, weeksAhead int) time.Time {
	d := now.AddDate(0, 0, 7*weeksAhead)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
