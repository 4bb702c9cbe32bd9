package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/barnierg76/stemacteren-planning/internal/dto"
	"github.com/barnierg76/stemacteren-planning/internal/models"
	appErrors "github.com/barnierg76/stemacteren-planning/pkg/errors"
)

type workshopCommitter interface {
	CreateFromPlacement(ctx context.Context, placement models.Placement) (*dto.WorkshopResponse, *models.ValidationResult, error)
	UpdateFromPlacement(ctx context.Context, id string, placement models.Placement, patch WorkshopPatch) (*dto.WorkshopResponse, *models.ValidationResult, error)
	Cancel(ctx context.Context, id string) (*dto.WorkshopResponse, error)
	Transition(ctx context.Context, id string, to models.WorkshopStatus) (*dto.WorkshopResponse, error)
	Get(ctx context.Context, id string) (*dto.WorkshopResponse, error)
}

type actionAuditLogger interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// ActionServiceConfig governs staged action lifetime.
type ActionServiceConfig struct {
	TTL time.Duration
}

// ActionService implements the propose, validate, confirm, commit protocol.
// Staging never mutates persisted state; a commit re-runs validation against
// current state, so approval can never push through findings that appeared
// after staging. Each session holds at most one outstanding action and a new
// stage silently replaces the old one.
type ActionService struct {
	committer workshopCommitter
	validator placementValidator
	audit     actionAuditLogger
	store     *actionStore
	logger    *zap.Logger
}

// NewActionService constructs an ActionService.
func NewActionService(committer workshopCommitter, validator placementValidator, audit actionAuditLogger, logger *zap.Logger, cfg ActionServiceConfig) *ActionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ActionService{
		committer: committer,
		validator: validator,
		audit:     audit,
		store:     newActionStore(ttl),
		logger:    logger,
	}
}

// Stage validates and parks a mutation for later confirmation. The returned
// action carries the dry-run findings so the caller can present them before
// asking for approval.
func (s *ActionService) Stage(ctx context.Context, req dto.StageActionRequest) (*models.ProposedAction, error) {
	action := &models.ProposedAction{
		ID:         uuid.NewString(),
		SessionKey: req.SessionKey,
		Kind:       req.Kind,
		State:      models.ActionProposed,
		Placement:  req.Placement,
		WorkshopID: req.WorkshopID,
		ToStatus:   req.ToStatus,
		CreatedAt:  time.Now().UTC(),
	}
	action.ExpiresAt = action.CreatedAt.Add(s.store.ttl)

	switch req.Kind {
	case models.ActionCreateWorkshop:
		if req.Placement == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "a create action requires a placement")
		}
		result, err := s.validator.Validate(ctx, models.OpCreate, *req.Placement)
		if err != nil {
			return nil, err
		}
		action.Validation = result
		action.Summary = fmt.Sprintf("create workshop starting %s", req.Placement.StartDate().Format("2006-01-02"))
	case models.ActionUpdateWorkshop:
		if req.Placement == nil || req.WorkshopID == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "an update action requires a workshop id and placement")
		}
		placement := *req.Placement
		placement.WorkshopID = req.WorkshopID
		result, err := s.validator.Validate(ctx, models.OpUpdate, placement)
		if err != nil {
			return nil, err
		}
		action.Validation = result
		action.Summary = fmt.Sprintf("update workshop %s", *req.WorkshopID)
	case models.ActionCancelWorkshop:
		if req.WorkshopID == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "a cancel action requires a workshop id")
		}
		current, err := s.committer.Get(ctx, *req.WorkshopID)
		if err != nil {
			return nil, err
		}
		action.Validation = models.NewValidationResult()
		if !current.Status.CanTransitionTo(models.StatusCancelled) {
			action.Validation.AddError("status", fmt.Sprintf("workshop in status %s cannot be cancelled", current.Status))
		}
		action.Summary = fmt.Sprintf("cancel workshop %s", current.DisplayCode)
	case models.ActionTransition:
		if req.WorkshopID == nil || req.ToStatus == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "a transition action requires a workshop id and target status")
		}
		if !models.ValidStatus(*req.ToStatus) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", *req.ToStatus))
		}
		current, err := s.committer.Get(ctx, *req.WorkshopID)
		if err != nil {
			return nil, err
		}
		action.Validation = models.NewValidationResult()
		if !current.Status.CanTransitionTo(*req.ToStatus) {
			action.Validation.AddError("status", fmt.Sprintf("cannot move from %s to %s", current.Status, *req.ToStatus))
		}
		action.Summary = fmt.Sprintf("move workshop %s to %s", current.DisplayCode, *req.ToStatus)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown action kind %q", req.Kind))
	}

	s.store.Save(*action)
	return action, nil
}

// Pending returns the session's outstanding action, if any.
func (s *ActionService) Pending(sessionKey string) (*models.ProposedAction, error) {
	action, ok := s.store.Get(sessionKey)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no pending action for this session")
	}
	return &action, nil
}

// Confirm resolves a staged action. Approval re-validates against current
// state and commits only when still clean; rejection discards. A stale or
// already-resolved action is reported, never silently retried.
func (s *ActionService) Confirm(ctx context.Context, req dto.ConfirmActionRequest) (*models.ActionOutcome, error) {
	action, ok := s.store.Get(req.SessionKey)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrStaleAction, "action has expired or was already resolved")
	}
	if action.ID != req.ActionID {
		return nil, appErrors.Clone(appErrors.ErrStaleAction, "action was replaced by a newer proposal")
	}
	s.store.Delete(req.SessionKey)

	if !req.Approve {
		return &models.ActionOutcome{ActionID: action.ID, State: models.ActionRejected}, nil
	}

	outcome := &models.ActionOutcome{ActionID: action.ID}
	var workshop *dto.WorkshopResponse
	var result *models.ValidationResult
	var err error

	switch action.Kind {
	case models.ActionCreateWorkshop:
		workshop, result, err = s.committer.CreateFromPlacement(ctx, *action.Placement)
	case models.ActionUpdateWorkshop:
		workshop, result, err = s.committer.UpdateFromPlacement(ctx, *action.WorkshopID, *action.Placement, WorkshopPatch{})
	case models.ActionCancelWorkshop:
		workshop, err = s.committer.Cancel(ctx, *action.WorkshopID)
		result = models.NewValidationResult()
	case models.ActionTransition:
		workshop, err = s.committer.Transition(ctx, *action.WorkshopID, *action.ToStatus)
		result = models.NewValidationResult()
	}
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrConflict.Code {
			s.emitAudit(ctx, action, string(models.ActionConflict))
		}
		return nil, err
	}
	if result != nil && !result.IsValid {
		// Validation moved underneath the approval; report the fresh
		// findings instead of committing.
		outcome.State = models.ActionConflict
		outcome.Validation = result
		s.emitAudit(ctx, action, string(models.ActionConflict))
		return outcome, nil
	}

	outcome.State = models.ActionCommitted
	outcome.Validation = result
	if workshop != nil {
		outcome.WorkshopID = &workshop.ID
	}
	s.emitAudit(ctx, action, string(models.ActionCommitted))
	return outcome, nil
}

func (s *ActionService) emitAudit(ctx context.Context, action models.ProposedAction, state string) {
	if s.audit == nil {
		return
	}
	id := action.ID
	entry := &models.AuditLog{
		Action:     models.AuditActionActionCommit,
		Resource:   "proposed_action",
		ResourceID: &id,
		NewValues:  []byte(fmt.Sprintf(`{"kind":%q,"state":%q,"summary":%q}`, action.Kind, state, action.Summary)),
		IPAddress:  "system",
		UserAgent:  "action-service",
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record action audit", zap.Error(err))
	}
}

// actionStore keeps at most one staged action per session key. Expiry is a
// passive check on read, not a background sweep.
type actionStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]models.ProposedAction
}

func newActionStore(ttl time.Duration) *actionStore {
	return &actionStore{
		ttl:   ttl,
		items: make(map[string]models.ProposedAction),
	}
}

func (s *actionStore) Save(action models.ProposedAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[action.SessionKey] = action
}

func (s *actionStore) Get(sessionKey string) (models.ProposedAction, bool) {
	s.mu.RLock()
	action, ok := s.items[sessionKey]
	s.mu.RUnlock()
	if !ok {
		return models.ProposedAction{}, false
	}
	if action.Expired(time.Now().UTC()) {
		s.Delete(sessionKey)
		return models.ProposedAction{}, false
	}
	return action, true
}

func (s *actionStore) Delete(sessionKey string) {
	s.mu.Lock()
	delete(s.items, sessionKey)
	s.mu.Unlock()
}
