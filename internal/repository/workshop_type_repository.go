package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/barnierg76/stemacteren-planning/internal/models"
)

// WorkshopTypeRepository manages persistence for workshop type definitions.
type WorkshopTypeRepository struct {
	db *sqlx.DB
}

// NewWorkshopTypeRepository constructs a WorkshopTypeRepository.
func NewWorkshopTypeRepository(db *sqlx.DB) *WorkshopTypeRepository {
	return &WorkshopTypeRepository{db: db}
}

// List returns workshop types, optionally restricted to active ones.
func (r *WorkshopTypeRepository) List(ctx context.Context, activeOnly bool) ([]models.WorkshopType, error) {
	query := `SELECT id, code, name, duration_type, session_count, min_participants, max_participants, price, requires_technician, rules, is_active, created_at, updated_at
        FROM workshop_types`
	if activeOnly {
		query += " WHERE is_active = true"
	}
	query += " ORDER BY code ASC"
	var types []models.WorkshopType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list workshop types: %w", err)
	}
	return types, nil
}

// FindByID fetches a workshop type by ID.
func (r *WorkshopTypeRepository) FindByID(ctx context.Context, id string) (*models.WorkshopType, error) {
	const query = `SELECT id, code, name, duration_type, session_count, min_participants, max_participants, price, requires_technician, rules, is_active, created_at, updated_at
        FROM workshop_types WHERE id = $1`
	var wt models.WorkshopType
	if err := r.db.GetContext(ctx, &wt, query, id); err != nil {
		return nil, err
	}
	return &wt, nil
}

// Create inserts a new workshop type.
func (r *WorkshopTypeRepository) Create(ctx context.Context, wt *models.WorkshopType) error {
	if wt.ID == "" {
		wt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if wt.CreatedAt.IsZero() {
		wt.CreatedAt = now
	}
	wt.UpdatedAt = now
	const query = `INSERT INTO workshop_types (id, code, name, duration_type, session_count, min_participants, max_participants, price, requires_technician, rules, is_active, created_at, updated_at)
        VALUES (:id, :code, :name, :duration_type, :session_count, :min_participants, :max_participants, :price, :requires_technician, :rules, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, wt); err != nil {
		return fmt.Errorf("create workshop type: %w", err)
	}
	return nil
}

// Update modifies an existing workshop type.
func (r *WorkshopTypeRepository) Update(ctx context.Context, wt *models.WorkshopType) error {
	wt.UpdatedAt = time.Now().UTC()
	const query = `UPDATE workshop_types SET code = :code, name = :name, duration_type = :duration_type,
        session_count = :session_count, min_participants = :min_participants, max_participants = :max_participants, price = :price,
        requires_technician = :requires_technician, rules = :rules, is_active = :is_active, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, wt); err != nil {
		return fmt.Errorf("update workshop type: %w", err)
	}
	return nil
}
