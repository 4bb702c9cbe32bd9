package dto

import (
	"time"

	"github.com/barnierg76/stemacteren-planning/internal/models"
)

// CreatePersonRequest adds a person to the roster.
type CreatePersonRequest struct {
	Name                string            `json:"name" validate:"required"`
	Email               *string           `json:"email" validate:"omitempty,email"`
	Phone               *string           `json:"phone"`
	Type                models.PersonType `json:"type" validate:"required,oneof=INSTRUCTOR EXTERNAL_INSTRUCTOR TECHNICIAN"`
	MaxDaysPerWeek      *int              `json:"max_days_per_week" validate:"omitempty,min=1,max=7"`
	PreferredLocationID *string           `json:"preferred_location_id" validate:"omitempty,uuid"`
	WorkshopTypeIDs     []string          `json:"workshop_type_ids" validate:"omitempty,dive,uuid"`
	Notes               *string           `json:"notes"`
}

// UpdatePersonRequest patches roster fields. Nil fields are left unchanged.
type UpdatePersonRequest struct {
	Name                *string  `json:"name"`
	Email               *string  `json:"email" validate:"omitempty,email"`
	Phone               *string  `json:"phone"`
	MaxDaysPerWeek      *int     `json:"max_days_per_week" validate:"omitempty,min=1,max=7"`
	PreferredLocationID *string  `json:"preferred_location_id" validate:"omitempty,uuid"`
	WorkshopTypeIDs     []string `json:"workshop_type_ids" validate:"omitempty,dive,uuid"`
	IsActive            *bool    `json:"is_active"`
	Notes               *string  `json:"notes"`
}

// PersonQuery mirrors supported roster listing filters.
type PersonQuery struct {
	Type     string
	Search   string
	Active   *bool
	Page     int
	PageSize int
}

// PersonResponse enriches a person with their workshop type authorizations.
type PersonResponse struct {
	models.Person
	WorkshopTypeIDs []string `json:"workshop_type_ids"`
}

// CreateAvailabilityRequest declares a dated window for a person.
type CreateAvailabilityRequest struct {
	Kind      models.AvailabilityKind `json:"kind" validate:"required,oneof=AVAILABLE UNAVAILABLE PREFERRED"`
	StartDate time.Time               `json:"start_date" validate:"required"`
	EndDate   time.Time               `json:"end_date" validate:"required,gtefield=StartDate"`
	Note      *string                 `json:"note"`
}

// AvailabilityQuery filters availability listings by window.
type AvailabilityQuery struct {
	PersonID string
	From     *time.Time
	To       *time.Time
}
