package models

import "time"

// AssignmentRole is the capacity in which a person works a workshop.
type AssignmentRole string

const (
	RoleInstructor   AssignmentRole = "INSTRUCTOR"
	RoleCoInstructor AssignmentRole = "CO_INSTRUCTOR"
	RoleGuest        AssignmentRole = "GUEST"
	RoleTechnician   AssignmentRole = "TECHNICIAN"
)

// ValidRole reports whether r is a known assignment role.
func ValidRole(r AssignmentRole) bool {
	switch r {
	case RoleInstructor, RoleCoInstructor, RoleGuest, RoleTechnician:
		return true
	}
	return false
}

// Assignment links a person to a workshop session in a given role.
type Assignment struct {
	ID         string         `db:"id" json:"id"`
	WorkshopID string         `db:"workshop_id" json:"workshop_id"`
	SessionID  *string        `db:"session_id" json:"session_id,omitempty"`
	PersonID   string         `db:"person_id" json:"person_id"`
	Role       AssignmentRole `db:"role" json:"role"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`

	// Hydrated for listings.
	PersonName string `db:"person_name" json:"person_name,omitempty"`
}
