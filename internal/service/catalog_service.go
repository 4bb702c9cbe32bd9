package service

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/barnierg76/stemacteren-planning/internal/dto"
	"github.com/barnierg76/stemacteren-planning/internal/models"
	appErrors "github.com/barnierg76/stemacteren-planning/pkg/errors"
)

type catalogTypeRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.WorkshopType, error)
	FindByID(ctx context.Context, id string) (*models.WorkshopType, error)
	Create(ctx context.Context, wt *models.WorkshopType) error
	Update(ctx context.Context, wt *models.WorkshopType) error
}

type catalogLocationRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Location, error)
	FindByID(ctx context.Context, id string) (*models.Location, error)
	Create(ctx context.Context, loc *models.Location) error
	Update(ctx context.Context, loc *models.Location) error
}

// CatalogService manages the workshop type and location catalogue. Entries
// are never deleted; deactivation hides them from planning while keeping
// historical workshops resolvable.
type CatalogService struct {
	types     catalogTypeRepository
	locations catalogLocationRepository
	logger    *zap.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(types catalogTypeRepository, locations catalogLocationRepository, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{types: types, locations: locations, logger: logger}
}

// Types lists catalogue entries, active-only unless includeInactive is set.
func (s *CatalogService) Types(ctx context.Context, includeInactive bool) ([]models.WorkshopType, error) {
	types, err := s.types.List(ctx, !includeInactive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "catalogue is temporarily unavailable")
	}
	if types == nil {
		types = []models.WorkshopType{}
	}
	return types, nil
}

// Type fetches a single catalogue entry.
func (s *CatalogService) Type(ctx context.Context, id string) (*models.WorkshopType, error) {
	wt, err := s.types.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "catalogue is temporarily unavailable")
	}
	return wt, nil
}

// CreateType adds a catalogue entry.
func (s *CatalogService) CreateType(ctx context.Context, req dto.CreateWorkshopTypeRequest) (*models.WorkshopType, error) {
	if len(req.Rules) > 0 {
		if err := validateTypeRules(req.Rules); err != nil {
			return nil, err
		}
	}
	minParticipants := req.MinParticipants
	if minParticipants == 0 {
		minParticipants = 1
	}
	if minParticipants > req.MaxParticipants {
		return nil, appErrors.Clone(appErrors.ErrValidation, "min_participants may not exceed max_participants")
	}
	wt := &models.WorkshopType{
		Code:               req.Code,
		Name:               req.Name,
		DurationType:       req.DurationType,
		SessionCount:       req.SessionCount,
		MinParticipants:    minParticipants,
		MaxParticipants:    req.MaxParticipants,
		Price:              req.Price,
		RequiresTechnician: req.RequiresTechnician,
		Rules:              types.JSONText(req.Rules),
		IsActive:           true,
	}
	if err := s.types.Create(ctx, wt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "catalogue is temporarily unavailable")
	}
	s.logger.Info("workshop type created", zap.String("id", wt.ID), zap.String("code", wt.Code))
	return wt, nil
}

// UpdateType patches a catalogue entry. Nil request fields are left alone.
func (s *CatalogService) UpdateType(ctx context.Context, id string, req dto.UpdateWorkshopTypeRequest) (*models.WorkshopType, error) {
	wt, err := s.Type(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		wt.Name = *req.Name
	}
	if req.SessionCount != nil {
		wt.SessionCount = *req.SessionCount
	}
	if req.MinParticipants != nil {
		wt.MinParticipants = *req.MinParticipants
	}
	if req.MaxParticipants != nil {
		wt.MaxParticipants = *req.MaxParticipants
	}
	if wt.MinParticipants > wt.MaxParticipants {
		return nil, appErrors.Clone(appErrors.ErrValidation, "min_participants may not exceed max_participants")
	}
	if req.Price != nil {
		wt.Price = *req.Price
	}
	if req.RequiresTechnician != nil {
		wt.RequiresTechnician = *req.RequiresTechnician
	}
	if len(req.Rules) > 0 {
		if err := validateTypeRules(req.Rules); err != nil {
			return nil, err
		}
		wt.Rules = types.JSONText(req.Rules)
	}
	if req.IsActive != nil {
		wt.IsActive = *req.IsActive
	}
	if err := s.types.Update(ctx, wt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "catalogue is temporarily unavailable")
	}
	return wt, nil
}

// Locations lists venues, active-only unless includeInactive is set.
func (s *CatalogService) Locations(ctx context.Context, includeInactive bool) ([]models.Location, error) {
	locations, err := s.locations.List(ctx, !includeInactive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "catalogue is temporarily unavailable")
	}
	if locations == nil {
		locations = []models.Location{}
	}
	return locations, nil
}

// Location fetches a single venue.
func (s *CatalogService) Location(ctx context.Context, id string) (*models.Location, error) {
	loc, err := s.locations.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "catalogue is temporarily unavailable")
	}
	return loc, nil
}

// CreateLocation adds a venue.
func (s *CatalogService) CreateLocation(ctx context.Context, req dto.CreateLocationRequest) (*models.Location, error) {
	loc := &models.Location{
		Code:          req.Code,
		Name:          req.Name,
		Address:       req.Address,
		AvailableDays: pq.StringArray(req.AvailableDays),
		IsActive:      true,
	}
	if err := s.locations.Create(ctx, loc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "catalogue is temporarily unavailable")
	}
	s.logger.Info("location created", zap.String("id", loc.ID), zap.String("code", loc.Code))
	return loc, nil
}

// UpdateLocation patches venue fields. Nil request fields are left alone.
func (s *CatalogService) UpdateLocation(ctx context.Context, id string, req dto.UpdateLocationRequest) (*models.Location, error) {
	loc, err := s.Location(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		loc.Name = *req.Name
	}
	if req.Address != nil {
		loc.Address = *req.Address
	}
	if len(req.AvailableDays) > 0 {
		loc.AvailableDays = pq.StringArray(req.AvailableDays)
	}
	if req.IsActive != nil {
		loc.IsActive = *req.IsActive
	}
	if err := s.locations.Update(ctx, loc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "catalogue is temporarily unavailable")
	}
	return loc, nil
}

// validateTypeRules rejects a rules blob that does not decode into the
// known rule parameters. Unknown keys are tolerated; malformed JSON or
// wrong-typed values are not.
func validateTypeRules(raw []byte) error {
	var rules models.TypeRules
	if err := json.Unmarshal(raw, &rules); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "rules must be a JSON object of rule parameters")
	}
	switch rules.DayExclusionScope {
	case "", models.DayExclusionFirstSession, models.DayExclusionAllSessions:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "day_exclusion_scope must be FIRST_SESSION or ALL_SESSIONS")
	}
	return nil
}
