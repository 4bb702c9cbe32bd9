package models

import "time"

// AvailabilityKind ranks how an entry should influence scheduling.
// UNAVAILABLE beats PREFERRED beats AVAILABLE; no entry at all is neutral.
type AvailabilityKind string

const (
	AvailabilityAvailable   AvailabilityKind = "AVAILABLE"
	AvailabilityUnavailable AvailabilityKind = "UNAVAILABLE"
	AvailabilityPreferred   AvailabilityKind = "PREFERRED"
)

// precedence: higher wins when entries overlap the same date.
func (k AvailabilityKind) precedence() int {
	switch k {
	case AvailabilityUnavailable:
		return 3
	case AvailabilityPreferred:
		return 2
	case AvailabilityAvailable:
		return 1
	}
	return 0
}

// Availability is a dated window declared by or for a person.
type Availability struct {
	ID        string           `db:"id" json:"id"`
	PersonID  string           `db:"person_id" json:"person_id"`
	Kind      AvailabilityKind `db:"kind" json:"kind"`
	StartDate time.Time        `db:"start_date" json:"start_date"`
	EndDate   time.Time        `db:"end_date" json:"end_date"`
	Note      *string          `db:"note" json:"note,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// Covers reports whether the window includes the given calendar date.
// Boundaries are inclusive.
func (a Availability) Covers(date time.Time) bool {
	d := truncateToDay(date)
	return !d.Before(truncateToDay(a.StartDate)) && !d.After(truncateToDay(a.EndDate))
}

// ResolveAvailability collapses overlapping entries for one person and date
// into a single effective kind. An empty result slice means no entry covers
// the date, which callers treat as schedulable without a preference bonus.
func ResolveAvailability(entries []Availability, date time.Time) (AvailabilityKind, bool) {
	var best AvailabilityKind
	found := false
	for _, e := range entries {
		if !e.Covers(date) {
			continue
		}
		if !found || e.Kind.precedence() > best.precedence() {
			best = e.Kind
			found = true
		}
	}
	return best, found
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
