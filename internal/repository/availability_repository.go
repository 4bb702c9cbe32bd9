package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/barnierg76/stemacteren-planning/internal/models"
)

// AvailabilityRepository manages dated availability windows for persons.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an AvailabilityRepository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListForPerson returns a person's windows, optionally bounded to a range.
func (r *AvailabilityRepository) ListForPerson(ctx context.Context, personID string, from, to *time.Time) ([]models.Availability, error) {
	query := "SELECT id, person_id, kind, start_date, end_date, note, created_at, updated_at FROM availabilities WHERE person_id = $1"
	args := []interface{}{personID}
	if from != nil {
		query += fmt.Sprintf(" AND end_date >= $%d", len(args)+1)
		args = append(args, *from)
	}
	if to != nil {
		query += fmt.Sprintf(" AND start_date <= $%d", len(args)+1)
		args = append(args, *to)
	}
	query += " ORDER BY start_date ASC"
	var entries []models.Availability
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return entries, nil
}

// ListForPersons returns windows overlapping the range for a set of persons,
// grouped by person ID. Used to build one validation snapshot per run.
func (r *AvailabilityRepository) ListForPersons(ctx context.Context, personIDs []string, from, to time.Time) (map[string][]models.Availability, error) {
	if len(personIDs) == 0 {
		return map[string][]models.Availability{}, nil
	}
	placeholders := make([]string, len(personIDs))
	args := []interface{}{from, to}
	for i, id := range personIDs {
		placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
		args = append(args, id)
	}
	query := fmt.Sprintf(`SELECT id, person_id, kind, start_date, end_date, note, created_at, updated_at
        FROM availabilities WHERE end_date >= $1 AND start_date <= $2 AND person_id IN (%s)
        ORDER BY person_id, start_date`, strings.Join(placeholders, ", "))
	var entries []models.Availability
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	out := make(map[string][]models.Availability)
	for _, e := range entries {
		out[e.PersonID] = append(out[e.PersonID], e)
	}
	return out, nil
}

// Create inserts a new availability window.
func (r *AvailabilityRepository) Create(ctx context.Context, entry *models.Availability) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	const query = `INSERT INTO availabilities (id, person_id, kind, start_date, end_date, note, created_at, updated_at)
        VALUES (:id, :person_id, :kind, :start_date, :end_date, :note, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create availability: %w", err)
	}
	return nil
}

// Delete removes an availability window.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM availabilities WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	return nil
}
