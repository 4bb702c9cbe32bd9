package models

import "time"

// ConflictType classifies what a conflict scan found.
type ConflictType string

const (
	ConflictDoubleBooking     ConflictType = "DOUBLE_BOOKING"
	ConflictLocationOverlap   ConflictType = "LOCATION_OVERLAP"
	ConflictUnavailableStaff  ConflictType = "UNAVAILABLE_STAFF"
	ConflictMissingTechnician ConflictType = "MISSING_TECHNICIAN"
	ConflictRuleViolation     ConflictType = "RULE_VIOLATION"
)

// ConflictRecord is one detected conflict in the published schedule.
type ConflictRecord struct {
	Type        ConflictType `json:"type"`
	Date        time.Time    `json:"date"`
	WorkshopID  string       `json:"workshop_id"`
	WorkshopRef string       `json:"workshop_ref"`
	PersonID    *string      `json:"person_id,omitempty"`
	Message     string       `json:"message"`
}

// RevenueForecastEntry is the projected revenue for one workshop.
type RevenueForecastEntry struct {
	WorkshopID    string         `json:"workshop_id"`
	WorkshopRef   string         `json:"workshop_ref"`
	StartDate     time.Time      `json:"start_date"`
	Status        WorkshopStatus `json:"status"`
	Capacity      int            `json:"capacity"`
	ExpectedSeats float64        `json:"expected_seats"`
	Price         float64        `json:"price"`
	Expected      float64        `json:"expected_revenue"`
}

// RevenueByType sums projected revenue per workshop type.
type RevenueByType struct {
	WorkshopTypeID string  `json:"workshop_type_id"`
	TypeCode       string  `json:"type_code"`
	Workshops      int     `json:"workshops"`
	Expected       float64 `json:"expected_revenue"`
}

// RevenueForecast aggregates projected revenue over a date range using the
// configured fill ratio for non-confirmed workshops.
type RevenueForecast struct {
	From      time.Time              `json:"from"`
	To        time.Time              `json:"to"`
	FillRatio float64                `json:"fill_ratio"`
	Total     float64                `json:"total_expected_revenue"`
	Entries   []RevenueForecastEntry `json:"entries"`
	ByType    []RevenueByType        `json:"by_type"`
}

// CapacityEntry is one location's utilization over a reporting window.
type CapacityEntry struct {
	LocationID   string  `json:"location_id"`
	LocationName string  `json:"location_name"`
	OpenDays     int     `json:"open_days"`
	BookedDays   int     `json:"booked_days"`
	Utilization  float64 `json:"utilization"`
}

// TargetProgress compares planned workshop counts against a yearly target
// for one workshop type.
type TargetProgress struct {
	WorkshopTypeID string  `json:"workshop_type_id"`
	TypeCode       string  `json:"type_code"`
	Target         int     `json:"target"`
	Planned        int     `json:"planned"`
	Completed      int     `json:"completed"`
	Progress       float64 `json:"progress"`
}

// TargetReport is the yearly target progress across all types with targets.
type TargetReport struct {
	Year    int              `json:"year"`
	Entries []TargetProgress `json:"entries"`
}
