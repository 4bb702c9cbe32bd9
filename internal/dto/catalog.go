package dto

import (
	"encoding/json"

	"github.com/barnierg76/stemacteren-planning/internal/models"
)

// CreateLocationRequest adds a venue to the catalogue.
type CreateLocationRequest struct {
	Code          string   `json:"code" validate:"required,alphanum,uppercase,min=2,max=8"`
	Name          string   `json:"name" validate:"required"`
	Address       string   `json:"address"`
	AvailableDays []string `json:"available_days" validate:"required,min=1,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
}

// UpdateLocationRequest patches venue fields. Nil fields are left unchanged.
type UpdateLocationRequest struct {
	Name          *string  `json:"name"`
	Address       *string  `json:"address"`
	AvailableDays []string `json:"available_days" validate:"omitempty,min=1,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	IsActive      *bool    `json:"is_active"`
}

// CreateWorkshopTypeRequest adds a catalogue entry.
type CreateWorkshopTypeRequest struct {
	Code               string              `json:"code" validate:"required,alphanum,uppercase,min=2,max=8"`
	Name               string              `json:"name" validate:"required"`
	DurationType       models.DurationType `json:"duration_type" validate:"required,oneof=EVENING_SERIES MULTI_DAY SINGLE_DAY HALF_DAY SINGLE_SESSION"`
	SessionCount       int                 `json:"session_count" validate:"required,min=1"`
	MinParticipants    int                 `json:"min_participants" validate:"omitempty,min=1"`
	MaxParticipants    int                 `json:"max_participants" validate:"required,min=1"`
	Price              float64             `json:"price" validate:"omitempty,min=0"`
	RequiresTechnician bool                `json:"requires_technician"`
	Rules              json.RawMessage     `json:"rules"`
}

// UpdateWorkshopTypeRequest patches catalogue entry fields.
type UpdateWorkshopTypeRequest struct {
	Name               *string         `json:"name"`
	SessionCount       *int            `json:"session_count" validate:"omitempty,min=1"`
	MinParticipants    *int            `json:"min_participants" validate:"omitempty,min=1"`
	MaxParticipants    *int            `json:"max_participants" validate:"omitempty,min=1"`
	Price              *float64        `json:"price" validate:"omitempty,min=0"`
	RequiresTechnician *bool           `json:"requires_technician"`
	Rules              json.RawMessage `json:"rules"`
	IsActive           *bool           `json:"is_active"`
}
