package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-engine/internal/models"
)

const disruptionColumns = `id, course_id, faculty_unavailable, reason, status, resolved_by, resolved_at, created_at`

// DisruptionRepository persists faculty disruptions.
type DisruptionRepository struct {
	db *sqlx.DB
}

// NewDisruptionRepository constructs the repository.
func NewDisruptionRepository(db *sqlx.DB) *DisruptionRepository {
	return &DisruptionRepository{db: db}
}

func (r *DisruptionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a disruption in the pending state.
func (r *DisruptionRepository) Create(ctx context.Context, exec sqlx.ExtContext, disruption *models.Disruption) error {
	if disruption.ID == "" {
		disruption.ID = uuid.NewString()
	}
	if disruption.CreatedAt.IsZero() {
		disruption.CreatedAt = time.Now().UTC()
	}
	disruption.Status = models.DisruptionStatusPending
	disruption.ResolvedBy = nil
	disruption.ResolvedAt = nil

	const query = `INSERT INTO disruptions (id, course_id, faculty_unavailable, reason, status, resolved_by, resolved_at, created_at)
VALUES (:id, :course_id, :faculty_unavailable, :reason, :status, :resolved_by, :resolved_at, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, disruption); err != nil {
		return fmt.Errorf("create disruption: %w", err)
	}
	return nil
}

// FindByID returns a disruption or sql.ErrNoRows.
func (r *DisruptionRepository) FindByID(ctx context.Context, id string) (*models.Disruption, error) {
	const query = `SELECT ` + disruptionColumns + ` FROM disruptions WHERE id = $1`
	var disruption models.Disruption
	if err := r.db.GetContext(ctx, &disruption, query, id); err != nil {
		return nil, err
	}
	return &disruption, nil
}

// List returns disruptions matching the filter, newest first.
func (r *DisruptionRepository) List(ctx context.Context, filter models.DisruptionFilter) ([]models.Disruption, error) {
	var conditions []string
	var args []interface{}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + disruptionColumns + ` FROM disruptions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"

	var disruptions []models.Disruption
	if err := r.db.SelectContext(ctx, &disruptions, query, args...); err != nil {
		return nil, fmt.Errorf("list disruptions: %w", err)
	}
	return disruptions, nil
}

// LockPendingByCourse returns the pending disruptions of a course, oldest first, locking
// them for the remainder of exec's transaction.
func (r *DisruptionRepository) LockPendingByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]models.Disruption, error) {
	const query = `SELECT ` + disruptionColumns + ` FROM disruptions
WHERE course_id = $1 AND status = $2 ORDER BY created_at ASC, id ASC FOR UPDATE`
	var disruptions []models.Disruption
	if err := sqlx.SelectContext(ctx, r.exec(exec), &disruptions, query, courseID, models.DisruptionStatusPending); err != nil {
		return nil, fmt.Errorf("list pending disruptions: %w", err)
	}
	return disruptions, nil
}

// Resolve moves a pending disruption to resolved. A disruption that is missing or
// already resolved yields sql.ErrNoRows.
func (r *DisruptionRepository) Resolve(ctx context.Context, exec sqlx.ExtContext, id, resolvedBy string, resolvedAt time.Time) error {
	const query = `UPDATE disruptions SET status = $2, resolved_by = $3, resolved_at = $4 WHERE id = $1 AND status = $5`
	result, err := r.exec(exec).ExecContext(ctx, query, id, models.DisruptionStatusResolved, resolvedBy, resolvedAt, models.DisruptionStatusPending)
	if err != nil {
		return fmt.Errorf("resolve disruption: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check disruption rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
