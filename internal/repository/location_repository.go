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

// LocationRepository manages persistence for workshop locations.
type LocationRepository struct {
	db *sqlx.DB
}

// NewLocationRepository constructs a LocationRepository.
func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// List returns locations, optionally restricted to active ones.
func (r *LocationRepository) List(ctx context.Context, activeOnly bool) ([]models.Location, error) {
	query := "SELECT id, code, name, address, available_days, is_active, created_at, updated_at FROM locations"
	if activeOnly {
		query += " WHERE is_active = true"
	}
	query += " ORDER BY code ASC"
	var locations []models.Location
	if err := r.db.SelectContext(ctx, &locations, query); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

// FindByID fetches a location by ID.
func (r *LocationRepository) FindByID(ctx context.Context, id string) (*models.Location, error) {
	const query = `SELECT id, code, name, address, available_days, is_active, created_at, updated_at
        FROM locations WHERE id = $1`
	var loc models.Location
	if err := r.db.GetContext(ctx, &loc, query, id); err != nil {
		return nil, err
	}
	return &loc, nil
}

// FindByIDs fetches several locations at once, keyed by ID.
func (r *LocationRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Location, error) {
	if len(ids) == 0 {
		return map[string]models.Location{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, code, name, address, available_days, is_active, created_at, updated_at
        FROM locations WHERE id IN (%s)`, strings.Join(placeholders, ", "))
	var locations []models.Location
	if err := r.db.SelectContext(ctx, &locations, query, args...); err != nil {
		return nil, fmt.Errorf("find locations: %w", err)
	}
	out := make(map[string]models.Location, len(locations))
	for _, l := range locations {
		out[l.ID] = l
	}
	return out, nil
}

// Create inserts a new location.
func (r *LocationRepository) Create(ctx context.Context, loc *models.Location) error {
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if loc.CreatedAt.IsZero() {
		loc.CreatedAt = now
	}
	loc.UpdatedAt = now
	const query = `INSERT INTO locations (id, code, name, address, available_days, is_active, created_at, updated_at)
        VALUES (:id, :code, :name, :address, :available_days, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, loc); err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

// Update modifies an existing location.
func (r *LocationRepository) Update(ctx context.Context, loc *models.Location) error {
	loc.UpdatedAt = time.Now().UTC()
	const query = `UPDATE locations SET code = :code, name = :name, address = :address,
        available_days = :available_days, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, loc); err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	return nil
}
