package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-engine/internal/models"
)

// CandidateAuditRepository stores the candidates considered for each disruption.
type CandidateAuditRepository struct {
	db *sqlx.DB
}

// NewCandidateAuditRepository constructs the repository.
func NewCandidateAuditRepository(db *sqlx.DB) *CandidateAuditRepository {
	return &CandidateAuditRepository{db: db}
}

func (r *CandidateAuditRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// InsertBatch writes audit rows in order. Rows are never updated except for the approved flag.
func (r *CandidateAuditRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, audits []models.CandidateAudit) error {
	if len(audits) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `INSERT INTO candidate_audits (id, disruption_id, candidate_faculty_id, position, score, rank, approved, created_at)
VALUES (:id, :disruption_id, :candidate_faculty_id, :position, :score, :rank, :approved, :created_at)`

	for i := range audits {
		audit := &audits[i]
		if audit.ID == "" {
			audit.ID = uuid.NewString()
		}
		if audit.CreatedAt.IsZero() {
			audit.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, audit); err != nil {
			return fmt.Errorf("insert candidate audit: %w", err)
		}
	}
	return nil
}

// ListByDisruption returns the audit rows of a disruption in ranking order.
func (r *CandidateAuditRepository) ListByDisruption(ctx context.Context, disruptionID string) ([]models.CandidateAudit, error) {
	const query = `SELECT id, disruption_id, candidate_faculty_id, position, score, rank, approved, created_at
FROM candidate_audits WHERE disruption_id = $1 ORDER BY position ASC`
	var audits []models.CandidateAudit
	if err := r.db.SelectContext(ctx, &audits, query, disruptionID); err != nil {
		return nil, fmt.Errorf("list candidate audits: %w", err)
	}
	return audits, nil
}

// MarkApproved flags the audit row of the chosen faculty. It returns the number of rows
// updated, which is zero when the faculty was not among the audited candidates.
func (r *CandidateAuditRepository) MarkApproved(ctx context.Context, exec sqlx.ExtContext, disruptionID, facultyID string) (int64, error) {
	const query = `UPDATE candidate_audits SET approved = TRUE WHERE disruption_id = $1 AND candidate_faculty_id = $2`
	result, err := r.exec(exec).ExecContext(ctx, query, disruptionID, facultyID)
	if err != nil {
		return 0, fmt.Errorf("approve candidate audit: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check candidate audit rows: %w", err)
	}
	return affected, nil
}
