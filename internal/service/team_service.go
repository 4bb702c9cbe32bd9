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

type teamPersonRepository interface {
	List(ctx context.Context, filter models.PersonFilter) ([]models.Person, int, error)
	FindByID(ctx context.Context, id string) (*models.Person, error)
	Create(ctx context.Context, person *models.Person) error
	Update(ctx context.Context, person *models.Person) error
	AuthorizedTypeIDs(ctx context.Context, personID string) ([]string, error)
	ReplaceAuthorizations(ctx context.Context, personID string, typeIDs []string) error
}

type teamAvailabilityRepository interface {
	ListForPerson(ctx context.Context, personID string, from, to *time.Time) ([]models.Availability, error)
	Create(ctx context.Context, entry *models.Availability) error
	Delete(ctx context.Context, id string) error
}

// TeamService manages the roster and availability declarations.
type TeamService struct {
	persons      teamPersonRepository
	availability teamAvailabilityRepository
	logger       *zap.Logger
}

// NewTeamService constructs a TeamService.
func NewTeamService(persons teamPersonRepository, availability teamAvailabilityRepository, logger *zap.Logger) *TeamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeamService{persons: persons, availability: availability, logger: logger}
}

// List returns roster members matching the filters.
func (s *TeamService) List(ctx context.Context, query dto.PersonQuery) ([]dto.PersonResponse, *models.Pagination, error) {
	filter := models.PersonFilter{
		Type:     models.PersonType(query.Type),
		Search:   query.Search,
		Active:   query.Active,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	persons, total, err := s.persons.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "roster is temporarily unavailable")
	}
	out := make([]dto.PersonResponse, 0, len(persons))
	for _, person := range persons {
		typeIDs, err := s.persons.AuthorizedTypeIDs(ctx, person.ID)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "roster is temporarily unavailable")
		}
		out = append(out, dto.PersonResponse{Person: person, WorkshopTypeIDs: typeIDs})
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return out, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one roster member with authorizations.
func (s *TeamService) Get(ctx context.Context, id string) (*dto.PersonResponse, error) {
	person, err := s.findPerson(ctx, id)
	if err != nil {
		return nil, err
	}
	typeIDs, err := s.persons.AuthorizedTypeIDs(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "roster is temporarily unavailable")
	}
	return &dto.PersonResponse{Person: *person, WorkshopTypeIDs: typeIDs}, nil
}

// Create adds a roster member with their type authorizations.
func (s *TeamService) Create(ctx context.Context, req dto.CreatePersonRequest) (*dto.PersonResponse, error) {
	person := &models.Person{
		Name:                req.Name,
		Email:               req.Email,
		Phone:               req.Phone,
		Type:                req.Type,
		MaxDaysPerWeek:      req.MaxDaysPerWeek,
		PreferredLocationID: req.PreferredLocationID,
		IsActive:            true,
		Notes:               req.Notes,
	}
	if err := s.persons.Create(ctx, person); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create person")
	}
	if len(req.WorkshopTypeIDs) > 0 {
		if err := s.persons.ReplaceAuthorizations(ctx, person.ID, req.WorkshopTypeIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store authorizations")
		}
	}
	return s.Get(ctx, person.ID)
}

// Update patches a roster member. Nil request fields stay unchanged.
func (s *TeamService) Update(ctx context.Context, id string, req dto.UpdatePersonRequest) (*dto.PersonResponse, error) {
	person, err := s.findPerson(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		person.Name = *req.Name
	}
	if req.Email != nil {
		person.Email = req.Email
	}
	if req.Phone != nil {
		person.Phone = req.Phone
	}
	if req.MaxDaysPerWeek != nil {
		person.MaxDaysPerWeek = req.MaxDaysPerWeek
	}
	if req.PreferredLocationID != nil {
		person.PreferredLocationID = req.PreferredLocationID
	}
	if req.IsActive != nil {
		person.IsActive = *req.IsActive
	}
	if req.Notes != nil {
		person.Notes = req.Notes
	}
	if err := s.persons.Update(ctx, person); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update person")
	}
	if req.WorkshopTypeIDs != nil {
		if err := s.persons.ReplaceAuthorizations(ctx, id, req.WorkshopTypeIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store authorizations")
		}
	}
	return s.Get(ctx, id)
}

// Availability returns a person's declared windows.
func (s *TeamService) Availability(ctx context.Context, personID string, from, to *time.Time) ([]models.Availability, error) {
	if _, err := s.findPerson(ctx, personID); err != nil {
		return nil, err
	}
	entries, err := s.availability.ListForPerson(ctx, personID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "roster is temporarily unavailable")
	}
	if entries == nil {
		entries = []models.Availability{}
	}
	return entries, nil
}

// DeclareAvailability stores a new window for a person.
func (s *TeamService) DeclareAvailability(ctx context.Context, personID string, req dto.CreateAvailabilityRequest) (*models.Availability, error) {
	if _, err := s.findPerson(ctx, personID); err != nil {
		return nil, err
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date precedes start date")
	}
	entry := &models.Availability{
		PersonID:  personID,
		Kind:      req.Kind,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Note:      req.Note,
	}
	if err := s.availability.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store availability")
	}
	return entry, nil
}

// RemoveAvailability deletes a declared window.
func (s *TeamService) RemoveAvailability(ctx context.Context, id string) error {
	if err := s.availability.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete availability")
	}
	return nil
}

func (s *TeamService) findPerson(ctx context.Context, id string) (*models.Person, error) {
	person, err := s.persons.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "person not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "roster is temporarily unavailable")
	}
	return person, nil
}
