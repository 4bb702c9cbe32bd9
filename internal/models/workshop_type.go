package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// DurationType classifies how a workshop type spreads over the calendar.
type DurationType string

const (
	DurationEveningSeries DurationType = "EVENING_SERIES"
	DurationMultiDay      DurationType = "MULTI_DAY"
	DurationSingleDay     DurationType = "SINGLE_DAY"
	DurationHalfDay       DurationType = "HALF_DAY"
	DurationSingleSession DurationType = "SINGLE_SESSION"
)

// DayExclusionScope controls which session dates a type's excluded start
// days apply to.
type DayExclusionScope string

const (
	DayExclusionFirstSession DayExclusionScope = "FIRST_SESSION"
	DayExclusionAllSessions  DayExclusionScope = "ALL_SESSIONS"
)

// WorkshopType describes a catalogue entry with its type-scoped rule
// parameters stored as a JSON blob so new rules need no schema change.
type WorkshopType struct {
	ID                 string         `db:"id" json:"id"`
	Code               string         `db:"code" json:"code"`
	Name               string         `db:"name" json:"name"`
	DurationType       DurationType   `db:"duration_type" json:"duration_type"`
	SessionCount       int            `db:"session_count" json:"session_count"`
	MinParticipants    int            `db:"min_participants" json:"min_participants"`
	MaxParticipants    int            `db:"max_participants" json:"max_participants"`
	Price              float64        `db:"price" json:"price"`
	RequiresTechnician bool           `db:"requires_technician" json:"requires_technician"`
	Rules              types.JSONText `db:"rules" json:"rules,omitempty"`
	IsActive           bool           `db:"is_active" json:"is_active"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// TypeRules is the decoded form of WorkshopType.Rules.
type TypeRules struct {
	ExcludedStartDays       []string          `json:"excluded_start_days,omitempty"`
	DayExclusionScope       DayExclusionScope `json:"day_exclusion_scope,omitempty"`
	FixedSessionInstructors map[string]string `json:"fixed_session_instructors,omitempty"`
	StemtestSessions        []int             `json:"stemtest_sessions,omitempty"`
	HighIntensity           bool              `json:"high_intensity,omitempty"`
	AllowedLocations        []string          `json:"allowed_locations,omitempty"`
}

// DecodedRules parses the rules blob. Absent or malformed rules yield the
// zero value so a bad blob never blocks validation.
func (t *WorkshopType) DecodedRules() TypeRules {
	var rules TypeRules
	if len(t.Rules) == 0 {
		return rules
	}
	_ = json.Unmarshal(t.Rules, &rules)
	if rules.DayExclusionScope == "" {
		rules.DayExclusionScope = DayExclusionFirstSession
	}
	return rules
}

// ExcludesDay reports whether the weekday of the date is an excluded start
// day for this type.
func (r TypeRules) ExcludesDay(date time.Time) bool {
	day := strings.ToLower(date.Weekday().String())
	for _, d := range r.ExcludedStartDays {
		if strings.ToLower(d) == day {
			return true
		}
	}
	return false
}

// AllowsLocation reports whether the type may run at the location code. An
// empty list allows every location.
func (r TypeRules) AllowsLocation(code string) bool {
	if len(r.AllowedLocations) == 0 {
		return true
	}
	for _, c := range r.AllowedLocations {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}

// IsStemtestSession reports whether the session number counts against the
// per-person daily test cap.
func (r TypeRules) IsStemtestSession(sessionNumber int) bool {
	for _, n := range r.StemtestSessions {
		if n == sessionNumber {
			return true
		}
	}
	return false
}
