package models

import (
	"fmt"
	"time"
)

// WorkshopStatus is the lifecycle state of a planned workshop.
type WorkshopStatus string

const (
	StatusDraft     WorkshopStatus = "DRAFT"
	StatusPublished WorkshopStatus = "PUBLISHED"
	StatusConfirmed WorkshopStatus = "CONFIRMED"
	StatusCompleted WorkshopStatus = "COMPLETED"
	StatusCancelled WorkshopStatus = "CANCELLED"
)

// statusTransitions is the full transition table. Absent keys are terminal.
var statusTransitions = map[WorkshopStatus][]WorkshopStatus{
	StatusDraft:     {StatusPublished, StatusCancelled},
	StatusPublished: {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransitionTo reports whether the state machine allows moving to next.
func (s WorkshopStatus) CanTransitionTo(next WorkshopStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s WorkshopStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s WorkshopStatus) bool {
	switch s {
	case StatusDraft, StatusPublished, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Workshop is a planned run of a workshop type at a location. Sessions carry
// the actual dates; StartDate is the first session's date and is kept
// denormalized for range scans.
type Workshop struct {
	ID             string         `db:"id" json:"id"`
	WorkshopTypeID string         `db:"workshop_type_id" json:"workshop_type_id"`
	LocationID     string         `db:"location_id" json:"location_id"`
	Status         WorkshopStatus `db:"status" json:"status"`
	StartDate      time.Time      `db:"start_date" json:"start_date"`
	EndDate        time.Time      `db:"end_date" json:"end_date"`
	PublishedAt    *time.Time     `db:"published_at" json:"published_at,omitempty"`
	// MaxParticipants overrides the type-level capacity when set.
	// CurrentParticipants is the committed booking count; zero means no
	// bookings recorded yet, so forecasts fall back to the fill ratio.
	MaxParticipants     *int      `db:"max_participants" json:"max_participants,omitempty"`
	CurrentParticipants int       `db:"current_participants" json:"current_participants"`
	Notes               *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`

	// Hydrated relations, not persisted columns.
	Type     *WorkshopType    `db:"-" json:"workshop_type,omitempty"`
	Location *Location        `db:"-" json:"location,omitempty"`
	Sessions []WorkshopSession `db:"-" json:"sessions,omitempty"`
}

// DisplayCode renders the human-facing code, e.g. "BWS-AMS-2026-09-14".
func (w Workshop) DisplayCode() string {
	typeCode := "WS"
	if w.Type != nil && w.Type.Code != "" {
		typeCode = w.Type.Code
	}
	locCode := "---"
	if w.Location != nil && w.Location.Code != "" {
		locCode = w.Location.Code
	}
	return fmt.Sprintf("%s-%s-%s", typeCode, locCode, w.StartDate.Format("2006-01-02"))
}

// WorkshopSession is one dated block within a workshop.
type WorkshopSession struct {
	ID            string    `db:"id" json:"id"`
	WorkshopID    string    `db:"workshop_id" json:"workshop_id"`
	SessionNumber int       `db:"session_number" json:"session_number"`
	Date          time.Time `db:"date" json:"date"`
	StartTime     string    `db:"start_time" json:"start_time"`
	EndTime       string    `db:"end_time" json:"end_time"`
	IsEvening     bool      `db:"is_evening" json:"is_evening"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// WorkshopFilter constrains workshop listings.
type WorkshopFilter struct {
	Status         WorkshopStatus
	LocationID     string
	WorkshopTypeID string
	FromDate       *time.Time
	ToDate         *time.Time
	Page           int
	PageSize       int
}
