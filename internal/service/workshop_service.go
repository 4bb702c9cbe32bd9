package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/barnierg76/stemacteren-planning/internal/dto"
	"github.com/barnierg76/stemacteren-planning/internal/models"
	appErrors "github.com/barnierg76/stemacteren-planning/pkg/errors"
)

type workshopRepository interface {
	List(ctx context.Context, filter models.WorkshopFilter) ([]models.Workshop, int, error)
	FindByID(ctx context.Context, id string) (*models.Workshop, error)
	AssignmentsFor(ctx context.Context, workshopID string) ([]models.Assignment, error)
	CommitCreate(ctx context.Context, w *models.Workshop, sessions []models.WorkshopSession, assignments []models.Assignment) ([]string, error)
	CommitUpdate(ctx context.Context, w *models.Workshop, sessions []models.WorkshopSession, assignments []models.Assignment) ([]string, error)
	TransitionStatus(ctx context.Context, id string, from, to models.WorkshopStatus, publishedAt *time.Time) (bool, error)
}

type workshopTypeReader interface {
	FindByID(ctx context.Context, id string) (*models.WorkshopType, error)
}

type workshopLocationReader interface {
	FindByID(ctx context.Context, id string) (*models.Location, error)
}

type workshopAuditLogger interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListForResource(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditLog, error)
}

// WorkshopService owns the workshop lifecycle: validated creation and
// update, the status machine, and the audit trail. Every mutation runs the
// full rule set first and commits inside the repository's locked
// transaction, so a placement that validated a moment ago still loses
// cleanly when a concurrent commit takes the slot.
type WorkshopService struct {
	repo      workshopRepository
	types     workshopTypeReader
	locations workshopLocationReader
	validator placementValidator
	audit     workshopAuditLogger
	logger    *zap.Logger
}

// NewWorkshopService constructs a WorkshopService.
func NewWorkshopService(repo workshopRepository, types workshopTypeReader, locations workshopLocationReader, validator placementValidator, audit workshopAuditLogger, logger *zap.Logger) *WorkshopService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkshopService{
		repo:      repo,
		types:     types,
		locations: locations,
		validator: validator,
		audit:     audit,
		logger:    logger,
	}
}

// List returns workshops with display codes.
func (s *WorkshopService) List(ctx context.Context, query dto.WorkshopQuery) ([]dto.WorkshopResponse, *models.Pagination, error) {
	filter := models.WorkshopFilter{
		Status:         models.WorkshopStatus(query.Status),
		LocationID:     query.LocationID,
		WorkshopTypeID: query.WorkshopTypeID,
		FromDate:       query.From,
		ToDate:         query.To,
		Page:           query.Page,
		PageSize:       query.PageSize,
	}
	workshops, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "schedule is temporarily unavailable")
	}
	out := make([]dto.WorkshopResponse, 0, len(workshops))
	for i := range workshops {
		s.hydrate(ctx, &workshops[i])
		out = append(out, dto.WorkshopResponse{Workshop: workshops[i], DisplayCode: workshops[i].DisplayCode()})
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

// Get returns one workshop with sessions, staff and display code.
func (s *WorkshopService) Get(ctx context.Context, id string) (*dto.WorkshopResponse, error) {
	w, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.hydrate(ctx, w)
	return &dto.WorkshopResponse{Workshop: *w, DisplayCode: w.DisplayCode()}, nil
}

// Create validates and commits a new DRAFT workshop. A failed rule run
// returns the findings without touching storage.
func (s *WorkshopService) Create(ctx context.Context, req dto.CreateWorkshopRequest) (*dto.WorkshopResponse, *models.ValidationResult, error) {
	placement := placementFromCreate(req)
	return s.CreateFromPlacement(ctx, placement)
}

// CreateFromPlacement is the commit path shared with staged actions.
func (s *WorkshopService) CreateFromPlacement(ctx context.Context, placement models.Placement) (*dto.WorkshopResponse, *models.ValidationResult, error) {
	result, err := s.validator.Validate(ctx, models.OpCreate, placement)
	if err != nil {
		return nil, nil, err
	}
	if !result.IsValid {
		return nil, result, nil
	}

	w := &models.Workshop{
		WorkshopTypeID: placement.WorkshopTypeID,
		LocationID:     placement.LocationID,
		Status:         models.StatusDraft,
		StartDate:      placement.StartDate(),
		EndDate:        placement.EndDate(),
	}
	sessions, assignments := materialize(placement)
	conflicts, err := s.repo.CommitCreate(ctx, w, sessions, assignments)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "schedule is temporarily unavailable")
	}
	if len(conflicts) > 0 {
		return nil, result, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("location was booked concurrently by workshop %s", conflicts[0]))
	}
	w.Sessions = sessions
	s.emitAudit(ctx, models.AuditActionWorkshopCreate, w.ID, nil, w)
	s.hydrate(ctx, w)
	return &dto.WorkshopResponse{Workshop: *w, DisplayCode: w.DisplayCode(), Validation: result}, result, nil
}

// Update validates and commits changes to a non-terminal workshop.
func (s *WorkshopService) Update(ctx context.Context, id string, req dto.UpdateWorkshopRequest) (*dto.WorkshopResponse, *models.ValidationResult, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	placement, err := s.placementFromUpdate(ctx, current, req)
	if err != nil {
		return nil, nil, err
	}
	patch := WorkshopPatch{
		MaxParticipants:     req.MaxParticipants,
		CurrentParticipants: req.CurrentParticipants,
		Notes:               req.Notes,
	}
	return s.UpdateFromPlacement(ctx, id, *placement, patch)
}

// WorkshopPatch carries optional scalar overrides applied on update. Nil
// fields leave the stored value untouched.
type WorkshopPatch struct {
	MaxParticipants     *int
	CurrentParticipants *int
	Notes               *string
}

// UpdateFromPlacement is the update commit path shared with staged actions.
func (s *WorkshopService) UpdateFromPlacement(ctx context.Context, id string, placement models.Placement, patch WorkshopPatch) (*dto.WorkshopResponse, *models.ValidationResult, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if current.Status.IsTerminal() {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("workshop in status %s cannot be changed", current.Status))
	}
	placement.WorkshopID = &id

	result, err := s.validator.Validate(ctx, models.OpUpdate, placement)
	if err != nil {
		return nil, nil, err
	}
	if !result.IsValid {
		return nil, result, nil
	}

	updated := *current
	updated.LocationID = placement.LocationID
	updated.StartDate = placement.StartDate()
	updated.EndDate = placement.EndDate()
	if patch.MaxParticipants != nil {
		updated.MaxParticipants = patch.MaxParticipants
	}
	if patch.CurrentParticipants != nil {
		updated.CurrentParticipants = *patch.CurrentParticipants
	}
	if patch.Notes != nil {
		updated.Notes = patch.Notes
	}
	sessions, assignments := materialize(placement)
	conflicts, err := s.repo.CommitUpdate(ctx, &updated, sessions, assignments)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "schedule is temporarily unavailable")
	}
	if len(conflicts) > 0 {
		return nil, result, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("location was booked concurrently by workshop %s", conflicts[0]))
	}
	updated.Sessions = sessions
	s.emitAudit(ctx, models.AuditActionWorkshopUpdate, id, current, &updated)
	s.hydrate(ctx, &updated)
	return &dto.WorkshopResponse{Workshop: updated, DisplayCode: updated.DisplayCode(), Validation: result}, result, nil
}

// Cancel moves a workshop to CANCELLED through the status machine.
func (s *WorkshopService) Cancel(ctx context.Context, id string) (*dto.WorkshopResponse, error) {
	return s.Transition(ctx, id, models.StatusCancelled)
}

// Transition moves a workshop to a new lifecycle state. Publication re-runs
// the rule set against current state and refuses to publish an invalid
// workshop.
func (s *WorkshopService) Transition(ctx context.Context, id string, to models.WorkshopStatus) (*dto.WorkshopResponse, error) {
	if !models.ValidStatus(to) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", to))
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(to) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move from %s to %s", current.Status, to))
	}

	if to == models.StatusPublished {
		placement, err := s.placementOf(ctx, current)
		if err != nil {
			return nil, err
		}
		result, err := s.validator.Validate(ctx, models.OpUpdate, *placement)
		if err != nil {
			return nil, err
		}
		if !result.IsValid {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("workshop has %d blocking findings and cannot be published", len(result.Errors)))
		}
	}

	var publishedAt *time.Time
	if to == models.StatusPublished {
		now := time.Now().UTC()
		publishedAt = &now
	}
	moved, err := s.repo.TransitionStatus(ctx, id, current.Status, to, publishedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "schedule is temporarily unavailable")
	}
	if !moved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "workshop status changed concurrently, reload and retry")
	}

	action := models.AuditActionWorkshopTransition
	if to == models.StatusCancelled {
		action = models.AuditActionWorkshopCancel
	}
	after := *current
	after.Status = to
	s.emitAudit(ctx, action, id, current, &after)
	return s.Get(ctx, id)
}

// AuditTrail returns the newest-first mutation history of a workshop.
func (s *WorkshopService) AuditTrail(ctx context.Context, id string) ([]models.AuditLog, error) {
	if s.audit == nil {
		return []models.AuditLog{}, nil
	}
	entries, err := s.audit.ListForResource(ctx, "workshop", id, 50)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "audit trail is temporarily unavailable")
	}
	return entries, nil
}

func (s *WorkshopService) find(ctx context.Context, id string) (*models.Workshop, error) {
	w, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "schedule is temporarily unavailable")
	}
	return w, nil
}

func (s *WorkshopService) hydrate(ctx context.Context, w *models.Workshop) {
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
}

// placementOf rebuilds the stored workshop as a placement for re-validation.
func (s *WorkshopService) placementOf(ctx context.Context, w *models.Workshop) (*models.Placement, error) {
	assignments, err := s.repo.AssignmentsFor(ctx, w.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "schedule is temporarily unavailable")
	}
	placement := &models.Placement{
		WorkshopID:     &w.ID,
		WorkshopTypeID: w.WorkshopTypeID,
		LocationID:     w.LocationID,
	}
	sessionNumber := make(map[string]int, len(w.Sessions))
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
	return placement, nil
}

func (s *WorkshopService) placementFromUpdate(ctx context.Context, current *models.Workshop, req dto.UpdateWorkshopRequest) (*models.Placement, error) {
	placement, err := s.placementOf(ctx, current)
	if err != nil {
		return nil, err
	}
	if req.LocationID != nil {
		placement.LocationID = *req.LocationID
	}
	if len(req.Sessions) > 0 {
		placement.Sessions = nil
		for _, sess := range req.Sessions {
			placement.Sessions = append(placement.Sessions, models.SessionPlan{
				SessionNumber: sess.SessionNumber,
				Date:          sess.Date,
				StartTime:     sess.StartTime,
				EndTime:       sess.EndTime,
				IsEvening:     sess.IsEvening,
			})
		}
	}
	if req.Staff != nil {
		placement.Staff = nil
		for _, staff := range req.Staff {
			placement.Staff = append(placement.Staff, models.StaffAssignment{
				PersonID:      staff.PersonID,
				Role:          staff.Role,
				SessionNumber: staff.SessionNumber,
			})
		}
	}
	return placement, nil
}

func (s *WorkshopService) emitAudit(ctx context.Context, action, workshopID string, before, after *models.Workshop) {
	if s.audit == nil {
		return
	}
	var oldBytes, newBytes []byte
	if before != nil {
		oldBytes, _ = json.Marshal(before)
	}
	if after != nil {
		newBytes, _ = json.Marshal(after)
	}
	id := workshopID
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "workshop",
		ResourceID: &id,
		OldValues:  oldBytes,
		NewValues:  newBytes,
		IPAddress:  "system",
		UserAgent:  "workshop-service",
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record workshop audit", zap.Error(err))
	}
}

func placementFromCreate(req dto.CreateWorkshopRequest) models.Placement {
	placement := models.Placement{
		WorkshopTypeID: req.WorkshopTypeID,
		LocationID:     req.LocationID,
	}
	for _, sess := range req.Sessions {
		placement.Sessions = append(placement.Sessions, models.SessionPlan{
			SessionNumber: sess.SessionNumber,
			Date:          sess.Date,
			StartTime:     sess.StartTime,
			EndTime:       sess.EndTime,
			IsEvening:     sess.IsEvening,
		})
	}
	for _, staff := range req.Staff {
		placement.Staff = append(placement.Staff, models.StaffAssignment{
			PersonID:      staff.PersonID,
			Role:          staff.Role,
			SessionNumber: staff.SessionNumber,
		})
	}
	return placement
}

// materialize turns a placement into persistable session and assignment
// rows. Session-scoped staff carry the session number as a placeholder the
// repository resolves to the inserted session ID.
func materialize(placement models.Placement) ([]models.WorkshopSession, []models.Assignment) {
	sessions := make([]models.WorkshopSession, 0, len(placement.Sessions))
	for _, sess := range placement.Sessions {
		sessions = append(sessions, models.WorkshopSession{
			SessionNumber: sess.SessionNumber,
			Date:          sess.Date,
			StartTime:     sess.StartTime,
			EndTime:       sess.EndTime,
			IsEvening:     sess.IsEvening,
		})
	}
	assignments := make([]models.Assignment, 0, len(placement.Staff))
	for _, staff := range placement.Staff {
		a := models.Assignment{PersonID: staff.PersonID, Role: staff.Role}
		if staff.SessionNumber != nil {
			key := fmt.Sprintf("%d", *staff.SessionNumber)
			a.SessionID = &key
		}
		assignments = append(assignments, a)
	}
	return sessions, assignments
}
