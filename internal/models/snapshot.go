package models

import "time"

// SessionRow is a flattened workshop session used for overlap and capacity
// scans over a date range.
type SessionRow struct {
	WorkshopID     string         `db:"workshop_id" json:"workshop_id"`
	WorkshopTypeID string         `db:"workshop_type_id" json:"workshop_type_id"`
	LocationID     string         `db:"location_id" json:"location_id"`
	Status         WorkshopStatus `db:"status" json:"status"`
	SessionNumber  int            `db:"session_number" json:"session_number"`
	Date           time.Time      `db:"date" json:"date"`
	IsEvening      bool           `db:"is_evening" json:"is_evening"`
}

// StaffingRow is a flattened assignment joined to its session date, used for
// per-person load, booking and test cap scans.
type StaffingRow struct {
	PersonID       string         `db:"person_id" json:"person_id"`
	Role           AssignmentRole `db:"role" json:"role"`
	WorkshopID     string         `db:"workshop_id" json:"workshop_id"`
	WorkshopTypeID string         `db:"workshop_type_id" json:"workshop_type_id"`
	LocationID     string         `db:"location_id" json:"location_id"`
	Status         WorkshopStatus `db:"status" json:"status"`
	SessionNumber  int            `db:"session_number" json:"session_number"`
	Date           time.Time      `db:"date" json:"date"`
	IsEvening      bool           `db:"is_evening" json:"is_evening"`
}
