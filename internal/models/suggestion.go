package models

// InstructorOption is one instructor who could legally lead a suggested slot.
type InstructorOption struct {
	PersonID string `json:"person_id"`
	Name     string `json:"name"`
}

// Suggestion is one ranked candidate slot, a date and location pair. The
// placement carries the best scoring instructor; AvailableInstructors lists
// every instructor the rule set accepted for the same slot. Score is in
// [0, 1] and the validation result is the full run for the carried placement,
// so callers see the same warnings the scorer penalized.
type Suggestion struct {
	Placement            Placement          `json:"placement"`
	LocationCode         string             `json:"location_code"`
	Score                float64            `json:"score"`
	Validation           *ValidationResult  `json:"validation"`
	AvailableInstructors []InstructorOption `json:"available_instructors"`
	Reasons              []string           `json:"reasons,omitempty"`
}
