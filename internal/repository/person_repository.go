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

// PersonRepository manages persistence for the team roster and workshop type
// authorizations.
type PersonRepository struct {
	db *sqlx.DB
}

// NewPersonRepository constructs a PersonRepository.
func NewPersonRepository(db *sqlx.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// List returns persons matching the provided filters.
func (r *PersonRepository) List(ctx context.Context, filter models.PersonFilter) ([]models.Person, int, error) {
	base := "FROM persons p"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("p.type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("p.is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(p.name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT p.id, p.name, p.email, p.phone, p.type, p.max_days_per_week, p.preferred_location_id, p.is_active, p.notes, p.created_at, p.updated_at
        %s ORDER BY p.name ASC LIMIT %d OFFSET %d`, base, size, offset)

	var persons []models.Person
	if err := r.db.SelectContext(ctx, &persons, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list persons: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count persons: %w", err)
	}
	return persons, total, nil
}

// FindByID fetches a person by ID.
func (r *PersonRepository) FindByID(ctx context.Context, id string) (*models.Person, error) {
	const query = `SELECT id, name, email, phone, type, max_days_per_week, preferred_location_id, is_active, notes, created_at, updated_at
        FROM persons WHERE id = $1`
	var person models.Person
	if err := r.db.GetContext(ctx, &person, query, id); err != nil {
		return nil, err
	}
	return &person, nil
}

// Create inserts a new person.
func (r *PersonRepository) Create(ctx context.Context, person *models.Person) error {
	if person.ID == "" {
		person.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if person.CreatedAt.IsZero() {
		person.CreatedAt = now
	}
	person.UpdatedAt = now
	const query = `INSERT INTO persons (id, name, email, phone, type, max_days_per_week, preferred_location_id, is_active, notes, created_at, updated_at)
        VALUES (:id, :name, :email, :phone, :type, :max_days_per_week, :preferred_location_id, :is_active, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, person); err != nil {
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}

// Update modifies an existing person.
func (r *PersonRepository) Update(ctx context.Context, person *models.Person) error {
	person.UpdatedAt = time.Now().UTC()
	const query = `UPDATE persons SET name = :name, email = :email, phone = :phone,
        max_days_per_week = :max_days_per_week, preferred_location_id = :preferred_location_id,
        is_active = :is_active, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, person); err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	return nil
}

// AuthorizedTypeIDs returns the workshop type IDs a person may teach.
func (r *PersonRepository) AuthorizedTypeIDs(ctx context.Context, personID string) ([]string, error) {
	const query = `SELECT workshop_type_id FROM person_workshop_types WHERE person_id = $1 ORDER BY workshop_type_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, personID); err != nil {
		return nil, fmt.Errorf("authorized types: %w", err)
	}
	return ids, nil
}

// AuthorizedPersonIDs returns the person IDs authorized for a workshop type.
func (r *PersonRepository) AuthorizedPersonIDs(ctx context.Context, workshopTypeID string) ([]string, error) {
	const query = `SELECT person_id FROM person_workshop_types WHERE workshop_type_id = $1 ORDER BY person_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, workshopTypeID); err != nil {
		return nil, fmt.Errorf("authorized persons: %w", err)
	}
	return ids, nil
}

// ReplaceAuthorizations resets a person's workshop type authorizations.
func (r *PersonRepository) ReplaceAuthorizations(ctx context.Context, personID string, typeIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin authorizations: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM person_workshop_types WHERE person_id = $1", personID); err != nil {
		return fmt.Errorf("clear authorizations: %w", err)
	}
	for _, typeID := range typeIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO person_workshop_types (person_id, workshop_type_id) VALUES ($1, $2)",
			personID, typeID); err != nil {
			return fmt.Errorf("insert authorization: %w", err)
		}
	}
	return tx.Commit()
}
