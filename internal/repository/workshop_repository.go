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

// activeStatuses are the lifecycle states that occupy calendar capacity.
var activeStatuses = []models.WorkshopStatus{
	models.StatusDraft, models.StatusPublished, models.StatusConfirmed,
}

// WorkshopRepository manages persistence for workshops, their sessions and
// staff assignments.
type WorkshopRepository struct {
	db *sqlx.DB
}

// NewWorkshopRepository constructs a WorkshopRepository.
func NewWorkshopRepository(db *sqlx.DB) *WorkshopRepository {
	return &WorkshopRepository{db: db}
}

// List returns workshops matching the provided filters.
func (r *WorkshopRepository) List(ctx context.Context, filter models.WorkshopFilter) ([]models.Workshop, int, error) {
	base := "FROM workshops w"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("w.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.LocationID != "" {
		conditions = append(conditions, fmt.Sprintf("w.location_id = $%d", len(args)+1))
		args = append(args, filter.LocationID)
	}
	if filter.WorkshopTypeID != "" {
		conditions = append(conditions, fmt.Sprintf("w.workshop_type_id = $%d", len(args)+1))
		args = append(args, filter.WorkshopTypeID)
	}
	if filter.FromDate != nil {
		conditions = append(conditions, fmt.Sprintf("w.end_date >= $%d", len(args)+1))
		args = append(args, *filter.FromDate)
	}
	if filter.ToDate != nil {
		conditions = append(conditions, fmt.Sprintf("w.start_date <= $%d", len(args)+1))
		args = append(args, *filter.ToDate)
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

	query := fmt.Sprintf(`SELECT w.id, w.workshop_type_id, w.location_id, w.status, w.start_date, w.end_date, w.published_at, w.max_participants, w.current_participants, w.notes, w.created_at, w.updated_at
        %s ORDER BY w.start_date ASC LIMIT %d OFFSET %d`, base, size, offset)

	var workshops []models.Workshop
	if err := r.db.SelectContext(ctx, &workshops, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list workshops: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count workshops: %w", err)
	}
	return workshops, total, nil
}

// FindByID fetches a workshop with its sessions.
func (r *WorkshopRepository) FindByID(ctx context.Context, id string) (*models.Workshop, error) {
	const query = `SELECT id, workshop_type_id, location_id, status, start_date, end_date, published_at, max_participants, current_participants, notes, created_at, updated_at
        FROM workshops WHERE id = $1`
	var w models.Workshop
	if err := r.db.GetContext(ctx, &w, query, id); err != nil {
		return nil, err
	}
	sessions, err := r.SessionsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	w.Sessions = sessions
	return &w, nil
}

// SessionsFor returns a workshop's sessions ordered by session number.
func (r *WorkshopRepository) SessionsFor(ctx context.Context, workshopID string) ([]models.WorkshopSession, error) {
	const query = `SELECT id, workshop_id, session_number, date, start_time, end_time, is_evening, created_at
        FROM workshop_sessions WHERE workshop_id = $1 ORDER BY session_number ASC`
	var sessions []models.WorkshopSession
	if err := r.db.SelectContext(ctx, &sessions, query, workshopID); err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	return sessions, nil
}

// AssignmentsFor returns a workshop's staff assignments with person names.
func (r *WorkshopRepository) AssignmentsFor(ctx context.Context, workshopID string) ([]models.Assignment, error) {
	const query = `SELECT a.id, a.workshop_id, a.session_id, a.person_id, a.role, a.created_at, p.name AS person_name
        FROM assignments a JOIN persons p ON p.id = a.person_id
        WHERE a.workshop_id = $1 ORDER BY a.role, p.name`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, workshopID); err != nil {
		return nil, fmt.Errorf("load assignments: %w", err)
	}
	return assignments, nil
}

// SessionsInRange returns active session rows overlapping the date range,
// excluding one workshop when excludeID is non-empty.
func (r *WorkshopRepository) SessionsInRange(ctx context.Context, from, to time.Time, excludeID string) ([]models.SessionRow, error) {
	query := `SELECT w.id AS workshop_id, w.workshop_type_id, w.location_id, w.status, s.session_number, s.date, s.is_evening
        FROM workshop_sessions s JOIN workshops w ON w.id = s.workshop_id
        WHERE s.date BETWEEN $1 AND $2 AND w.status IN ($3, $4, $5)`
	args := []interface{}{from, to, activeStatuses[0], activeStatuses[1], activeStatuses[2]}
	if excludeID != "" {
		query += fmt.Sprintf(" AND w.id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " ORDER BY s.date, w.id"
	var rows []models.SessionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("sessions in range: %w", err)
	}
	return rows, nil
}

// StaffingInRange returns active assignment rows with their session dates
// over the range, excluding one workshop when excludeID is non-empty.
// Workshop-wide assignments (nil session) fan out to every session.
func (r *WorkshopRepository) StaffingInRange(ctx context.Context, from, to time.Time, excludeID string) ([]models.StaffingRow, error) {
	query := `SELECT a.person_id, a.role, w.id AS workshop_id, w.workshop_type_id, w.location_id, w.status, s.session_number, s.date, s.is_evening
        FROM assignments a
        JOIN workshops w ON w.id = a.workshop_id
        JOIN workshop_sessions s ON s.workshop_id = w.id AND (a.session_id IS NULL OR a.session_id = s.id)
        WHERE s.date BETWEEN $1 AND $2 AND w.status IN ($3, $4, $5)`
	args := []interface{}{from, to, activeStatuses[0], activeStatuses[1], activeStatuses[2]}
	if excludeID != "" {
		query += fmt.Sprintf(" AND w.id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " ORDER BY s.date, a.person_id"
	var rows []models.StaffingRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("staffing in range: %w", err)
	}
	return rows, nil
}

// CommitCreate inserts a workshop with sessions and assignments inside one
// transaction. It locks the location's active workshops and re-checks for
// date overlap before inserting, so concurrent commits against the same
// location serialize; the loser gets the conflicting workshop IDs back.
func (r *WorkshopRepository) CommitCreate(ctx context.Context, w *models.Workshop, sessions []models.WorkshopSession, assignments []models.Assignment) ([]string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	conflicts, err := lockAndCheckOverlap(ctx, tx, w.LocationID, w.StartDate, w.EndDate, "")
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return conflicts, nil
	}

	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	const insertWorkshop = `INSERT INTO workshops (id, workshop_type_id, location_id, status, start_date, end_date, published_at, max_participants, current_participants, notes, created_at, updated_at)
        VALUES (:id, :workshop_type_id, :location_id, :status, :start_date, :end_date, :published_at, :max_participants, :current_participants, :notes, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertWorkshop, w); err != nil {
		return nil, fmt.Errorf("insert workshop: %w", err)
	}
	if err := insertSessions(ctx, tx, w.ID, sessions); err != nil {
		return nil, err
	}
	if err := insertAssignments(ctx, tx, w.ID, sessions, assignments); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit workshop: %w", err)
	}
	return nil, nil
}

// CommitUpdate replaces a workshop's schedulable fields, sessions and
// assignments under the same lock discipline as CommitCreate.
func (r *WorkshopRepository) CommitUpdate(ctx context.Context, w *models.Workshop, sessions []models.WorkshopSession, assignments []models.Assignment) ([]string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	conflicts, err := lockAndCheckOverlap(ctx, tx, w.LocationID, w.StartDate, w.EndDate, w.ID)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return conflicts, nil
	}

	w.UpdatedAt = time.Now().UTC()
	const updateWorkshop = `UPDATE workshops SET location_id = :location_id, start_date = :start_date, end_date = :end_date,
        max_participants = :max_participants, current_participants = :current_participants, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateWorkshop, w); err != nil {
		return nil, fmt.Errorf("update workshop: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM assignments WHERE workshop_id = $1", w.ID); err != nil {
		return nil, fmt.Errorf("clear assignments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM workshop_sessions WHERE workshop_id = $1", w.ID); err != nil {
		return nil, fmt.Errorf("clear sessions: %w", err)
	}
	if err := insertSessions(ctx, tx, w.ID, sessions); err != nil {
		return nil, err
	}
	if err := insertAssignments(ctx, tx, w.ID, sessions, assignments); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit workshop: %w", err)
	}
	return nil, nil
}

// TransitionStatus moves a workshop from one status to another. The guard on
// the current status makes concurrent transitions lose cleanly: zero rows
// means the workshop moved under the caller's feet.
func (r *WorkshopRepository) TransitionStatus(ctx context.Context, id string, from, to models.WorkshopStatus, publishedAt *time.Time) (bool, error) {
	const query = `UPDATE workshops SET status = $3, published_at = COALESCE($4, published_at), updated_at = $5
        WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, from, to, publishedAt, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("transition workshop: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition workshop: %w", err)
	}
	return affected == 1, nil
}

func lockAndCheckOverlap(ctx context.Context, tx *sqlx.Tx, locationID string, from, to time.Time, excludeID string) ([]string, error) {
	query := `SELECT DISTINCT w.id FROM workshops w
        JOIN workshop_sessions s ON s.workshop_id = w.id
        WHERE w.location_id = $1 AND s.date BETWEEN $2 AND $3 AND w.status IN ($4, $5, $6)`
	args := []interface{}{locationID, from, to, activeStatuses[0], activeStatuses[1], activeStatuses[2]}
	if excludeID != "" {
		query += fmt.Sprintf(" AND w.id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " FOR UPDATE OF w"
	var ids []string
	if err := tx.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("lock overlap check: %w", err)
	}
	return ids, nil
}

func insertSessions(ctx context.Context, tx *sqlx.Tx, workshopID string, sessions []models.WorkshopSession) error {
	now := time.Now().UTC()
	for i := range sessions {
		if sessions[i].ID == "" {
			sessions[i].ID = uuid.NewString()
		}
		sessions[i].WorkshopID = workshopID
		sessions[i].CreatedAt = now
		const query = `INSERT INTO workshop_sessions (id, workshop_id, session_number, date, start_time, end_time, is_evening, created_at)
            VALUES (:id, :workshop_id, :session_number, :date, :start_time, :end_time, :is_evening, :created_at)`
		if _, err := tx.NamedExecContext(ctx, query, sessions[i]); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
	}
	return nil
}

func insertAssignments(ctx context.Context, tx *sqlx.Tx, workshopID string, sessions []models.WorkshopSession, assignments []models.Assignment) error {
	// Session-scoped assignments arrive carrying the session number in
	// SessionID before persistence; resolve them against the inserted rows.
	bySessionNumber := make(map[string]string, len(sessions))
	for _, s := range sessions {
		bySessionNumber[fmt.Sprintf("%d", s.SessionNumber)] = s.ID
	}
	now := time.Now().UTC()
	for i := range assignments {
		if assignments[i].ID == "" {
			assignments[i].ID = uuid.NewString()
		}
		assignments[i].WorkshopID = workshopID
		assignments[i].CreatedAt = now
		if assignments[i].SessionID != nil {
			if resolved, ok := bySessionNumber[*assignments[i].SessionID]; ok {
				assignments[i].SessionID = &resolved
			}
		}
		const query = `INSERT INTO assignments (id, workshop_id, session_id, person_id, role, created_at)
            VALUES (:id, :workshop_id, :session_id, :person_id, :role, :created_at)`
		if _, err := tx.NamedExecContext(ctx, query, assignments[i]); err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
	}
	return nil
}
