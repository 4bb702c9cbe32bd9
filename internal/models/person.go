package models

import "time"

// PersonType distinguishes staff roles on the roster.
type PersonType string

const (
	PersonInstructor         PersonType = "INSTRUCTOR"
	PersonExternalInstructor PersonType = "EXTERNAL_INSTRUCTOR"
	PersonTechnician         PersonType = "TECHNICIAN"
)

// IsInstructor reports whether the person may lead workshops.
func (t PersonType) IsInstructor() bool {
	return t == PersonInstructor || t == PersonExternalInstructor
}

// Person is an instructor or technician on the team roster.
type Person struct {
	ID                  string     `db:"id" json:"id"`
	Name                string     `db:"name" json:"name"`
	Email               *string    `db:"email" json:"email,omitempty"`
	Phone               *string    `db:"phone" json:"phone,omitempty"`
	Type                PersonType `db:"type" json:"type"`
	MaxDaysPerWeek      *int       `db:"max_days_per_week" json:"max_days_per_week,omitempty"`
	PreferredLocationID *string    `db:"preferred_location_id" json:"preferred_location_id,omitempty"`
	IsActive            bool       `db:"is_active" json:"is_active"`
	Notes               *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// PersonFilter constrains roster listings.
type PersonFilter struct {
	Type     PersonType
	Search   string
	Active   *bool
	Page     int
	PageSize int
}
