package models

import "time"

// StaffAssignment is a proposed person-to-role binding inside a placement.
type StaffAssignment struct {
	PersonID      string         `json:"person_id"`
	Role          AssignmentRole `json:"role"`
	SessionNumber *int           `json:"session_number,omitempty"`
}

// SessionPlan is one dated block of a proposed placement.
type SessionPlan struct {
	SessionNumber int       `json:"session_number"`
	Date          time.Time `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	IsEvening     bool      `json:"is_evening"`
}

// Placement is a candidate workshop to validate: a type, a location, dated
// sessions and staff. WorkshopID is set when validating an update or cancel
// of an existing workshop so checkers can exclude it from overlap counts.
type Placement struct {
	WorkshopID     *string           `json:"workshop_id,omitempty"`
	WorkshopTypeID string            `json:"workshop_type_id"`
	LocationID     string            `json:"location_id"`
	Sessions       []SessionPlan     `json:"sessions"`
	Staff          []StaffAssignment `json:"staff"`
}

// StartDate returns the earliest session date, or the zero time when the
// placement has no sessions.
func (p Placement) StartDate() time.Time {
	var min time.Time
	for _, s := range p.Sessions {
		if min.IsZero() || s.Date.Before(min) {
			min = s.Date
		}
	}
	return min
}

// EndDate returns the latest session date.
func (p Placement) EndDate() time.Time {
	var max time.Time
	for _, s := range p.Sessions {
		if s.Date.After(max) {
			max = s.Date
		}
	}
	return max
}

// StaffFor returns the staff bound to a session number. Entries with a nil
// session number apply to every session.
func (p Placement) StaffFor(sessionNumber int) []StaffAssignment {
	var out []StaffAssignment
	for _, s := range p.Staff {
		if s.SessionNumber == nil || *s.SessionNumber == sessionNumber {
			out = append(out, s)
		}
	}
	return out
}

// Instructors returns the distinct person IDs staffed in an instructor role.
func (p Placement) Instructors() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range p.Staff {
		if s.Role != RoleInstructor && s.Role != RoleCoInstructor {
			continue
		}
		if _, ok := seen[s.PersonID]; ok {
			continue
		}
		seen[s.PersonID] = struct{}{}
		out = append(out, s.PersonID)
	}
	return out
}
