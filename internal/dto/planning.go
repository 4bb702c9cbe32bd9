package dto

import (
	"time"

	"github.com/barnierg76/stemacteren-planning/internal/models"
)

// ValidatePlacementRequest asks for a dry-run rule check of a placement.
type ValidatePlacementRequest struct {
	Operation models.Operation `json:"operation" validate:"required,oneof=CREATE UPDATE CANCEL RANGE_VALIDATE"`
	Placement models.Placement `json:"placement" validate:"required"`
}

// ValidateRangeRequest re-validates every non-terminal workshop in a window.
type ValidateRangeRequest struct {
	From time.Time `json:"from" validate:"required"`
	To   time.Time `json:"to" validate:"required,gtfield=From"`
}

// RangeValidationEntry pairs a workshop with its current validation state.
type RangeValidationEntry struct {
	WorkshopID  string                   `json:"workshop_id"`
	WorkshopRef string                   `json:"workshop_ref"`
	Result      *models.ValidationResult `json:"result"`
}

// SuggestRequest asks the planner for ranked placement candidates.
type SuggestRequest struct {
	WorkshopTypeID string     `json:"workshop_type_id" validate:"required,uuid"`
	LocationID     *string    `json:"location_id" validate:"omitempty,uuid"`
	From           *time.Time `json:"from"`
	To             *time.Time `json:"to"`
	MaxResults     int        `json:"max_results" validate:"omitempty,min=1,max=50"`
}

// StageActionRequest stages a mutation for later confirmation.
type StageActionRequest struct {
	SessionKey string                 `json:"session_key" validate:"required"`
	Kind       models.ActionKind      `json:"kind" validate:"required,oneof=CREATE_WORKSHOP UPDATE_WORKSHOP CANCEL_WORKSHOP TRANSITION"`
	Placement  *models.Placement      `json:"placement"`
	WorkshopID *string                `json:"workshop_id" validate:"omitempty,uuid"`
	ToStatus   *models.WorkshopStatus `json:"to_status"`
}

// ConfirmActionRequest commits or rejects a previously staged action.
type ConfirmActionRequest struct {
	SessionKey string `json:"session_key" validate:"required"`
	ActionID   string `json:"action_id" validate:"required,uuid"`
	Approve    bool   `json:"approve"`
}
