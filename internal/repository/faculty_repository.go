package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-engine/internal/models"
)

const facultyColumns = `f.id, f.name, f.email, f.expertise, f.workload_cap, f.available`

// FacultyRepository reads faculty members and their live workload.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository constructs the repository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

func (r *FacultyRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID returns a faculty member or sql.ErrNoRows.
func (r *FacultyRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Faculty, error) {
	const query = `SELECT ` + facultyColumns + ` FROM faculty f WHERE f.id = $1`
	var faculty models.Faculty
	if err := sqlx.GetContext(ctx, r.exec(exec), &faculty, query, id); err != nil {
		return nil, err
	}
	return &faculty, nil
}

// ListWithWorkload returns every faculty member with the number of courses currently
// assigned, ordered by name then id.
func (r *FacultyRepository) ListWithWorkload(ctx context.Context, exec sqlx.ExtContext) ([]models.FacultyWorkload, error) {
	const query = `SELECT ` + facultyColumns + `,
    (SELECT COUNT(*) FROM courses c WHERE c.faculty_id = f.id) AS current_workload
FROM faculty f ORDER BY f.name ASC, f.id ASC`
	var faculty []models.FacultyWorkload
	if err := sqlx.SelectContext(ctx, r.exec(exec), &faculty, query); err != nil {
		return nil, fmt.Errorf("list faculty workload: %w", err)
	}
	return faculty, nil
}
