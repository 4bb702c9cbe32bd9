package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// Location is a venue that hosts workshops on a fixed set of weekdays.
type Location struct {
	ID            string         `db:"id" json:"id"`
	Code          string         `db:"code" json:"code"`
	Name          string         `db:"name" json:"name"`
	Address       string         `db:"address" json:"address"`
	AvailableDays pq.StringArray `db:"available_days" json:"available_days"`
	IsActive      bool           `db:"is_active" json:"is_active"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// OperatesOn reports whether the location is open on the weekday of the date.
func (l *Location) OperatesOn(date time.Time) bool {
	day := strings.ToLower(date.Weekday().String())
	for _, d := range l.AvailableDays {
		if strings.ToLower(d) == day {
			return true
		}
	}
	return false
}
