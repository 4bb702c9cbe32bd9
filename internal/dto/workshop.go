package dto

import (
	"time"

	"github.com/barnierg76/stemacteren-planning/internal/models"
)

// SessionInput is one dated block in a create or update payload.
type SessionInput struct {
	SessionNumber int       `json:"session_number" validate:"required,min=1"`
	Date          time.Time `json:"date" validate:"required"`
	StartTime     string    `json:"start_time" validate:"required"`
	EndTime       string    `json:"end_time" validate:"required"`
	IsEvening     bool      `json:"is_evening"`
}

// StaffInput binds a person to a role for the whole workshop or one session.
type StaffInput struct {
	PersonID      string                `json:"person_id" validate:"required,uuid"`
	Role          models.AssignmentRole `json:"role" validate:"required,oneof=INSTRUCTOR CO_INSTRUCTOR GUEST TECHNICIAN"`
	SessionNumber *int                  `json:"session_number" validate:"omitempty,min=1"`
}

// CreateWorkshopRequest is the direct create payload. It goes through the
// same rule run as a staged action but commits immediately on success.
type CreateWorkshopRequest struct {
	WorkshopTypeID  string         `json:"workshop_type_id" validate:"required,uuid"`
	LocationID      string         `json:"location_id" validate:"required,uuid"`
	Sessions        []SessionInput `json:"sessions" validate:"required,min=1,dive"`
	Staff           []StaffInput   `json:"staff" validate:"omitempty,dive"`
	MaxParticipants *int           `json:"max_participants" validate:"omitempty,min=1"`
	Notes           *string        `json:"notes"`
}

// UpdateWorkshopRequest replaces sessions and staff of a non-terminal workshop.
type UpdateWorkshopRequest struct {
	LocationID          *string        `json:"location_id" validate:"omitempty,uuid"`
	Sessions            []SessionInput `json:"sessions" validate:"omitempty,min=1,dive"`
	Staff               []StaffInput   `json:"staff" validate:"omitempty,dive"`
	MaxParticipants     *int           `json:"max_participants" validate:"omitempty,min=1"`
	CurrentParticipants *int           `json:"current_participants" validate:"omitempty,min=0"`
	Notes               *string        `json:"notes"`
}

// TransitionRequest moves a workshop to a new lifecycle state.
type TransitionRequest struct {
	Status models.WorkshopStatus `json:"status" validate:"required,oneof=DRAFT PUBLISHED CONFIRMED COMPLETED CANCELLED"`
}

// WorkshopQuery mirrors supported listing filters.
type WorkshopQuery struct {
	Status         string
	LocationID     string
	WorkshopTypeID string
	From           *time.Time
	To             *time.Time
	Page           int
	PageSize       int
}

// WorkshopResponse enriches a workshop with its display code and the latest
// validation snapshot when one was requested.
type WorkshopResponse struct {
	models.Workshop
	DisplayCode string                   `json:"display_code"`
	Validation  *models.ValidationResult `json:"validation,omitempty"`
}
