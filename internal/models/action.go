package models

import "time"

// ActionKind is what a staged action will do when committed.
type ActionKind string

const (
	ActionCreateWorkshop ActionKind = "CREATE_WORKSHOP"
	ActionUpdateWorkshop ActionKind = "UPDATE_WORKSHOP"
	ActionCancelWorkshop ActionKind = "CANCEL_WORKSHOP"
	ActionTransition     ActionKind = "TRANSITION"
)

// ActionState tracks a staged action through the confirm protocol.
type ActionState string

const (
	ActionProposed  ActionState = "PROPOSED"
	ActionCommitted ActionState = "COMMITTED"
	ActionRejected  ActionState = "REJECTED"
	ActionExpired   ActionState = "EXPIRED"
	ActionConflict  ActionState = "CONFLICT"
)

// ProposedAction is a staged mutation awaiting explicit confirmation. It
// holds the placement exactly as validated at stage time; confirmation
// re-validates against current state before committing.
type ProposedAction struct {
	ID         string            `json:"id"`
	SessionKey string            `json:"session_key"`
	Kind       ActionKind        `json:"kind"`
	State      ActionState       `json:"state"`
	Placement  *Placement        `json:"placement,omitempty"`
	WorkshopID *string           `json:"workshop_id,omitempty"`
	ToStatus   *WorkshopStatus   `json:"to_status,omitempty"`
	Validation *ValidationResult `json:"validation,omitempty"`
	Summary    string            `json:"summary"`
	CreatedAt  time.Time         `json:"created_at"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

// Expired reports whether the action's TTL has elapsed at the given time.
func (a ProposedAction) Expired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}

// ActionOutcome is returned after a commit attempt.
type ActionOutcome struct {
	ActionID   string            `json:"action_id"`
	State      ActionState       `json:"state"`
	WorkshopID *string           `json:"workshop_id,omitempty"`
	Validation *ValidationResult `json:"validation,omitempty"`
}
