package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/timetable-engine/internal/models"
)

// Optional references read as empty strings.
const courseColumns = `c.id, c.code, c.name, c.credits, c.semester, c.mandatory,
    COALESCE(c.faculty_id, '') AS faculty_id, COALESCE(c.timeslot_id, '') AS timeslot_id,
    COALESCE(c.classroom_id, '') AS classroom_id, c.max_seats`

// CourseRepository reads course sections and reassigns their faculty.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID returns a course or sql.ErrNoRows.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT ` + courseColumns + ` FROM courses c WHERE c.id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// LockByID reads a course with a row lock held until exec's transaction ends.
func (r *CourseRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Course, error) {
	const query = `SELECT ` + courseColumns + ` FROM courses c WHERE c.id = $1 FOR UPDATE`
	var course models.Course
	if err := sqlx.GetContext(ctx, r.exec(exec), &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListSeatsByIDs returns the given courses with their enrollment counts. Unknown ids are skipped.
func (r *CourseRepository) ListSeatsByIDs(ctx context.Context, ids []string) ([]models.CourseSeats, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT ` + courseColumns + `,
    (SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id) AS enrolled
FROM courses c WHERE c.id = ANY($1)`
	var courses []models.CourseSeats
	if err := r.db.SelectContext(ctx, &courses, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list courses by ids: %w", err)
	}
	return courses, nil
}

// ListSiblings returns other sections sharing a course code, with enrollment counts.
func (r *CourseRepository) ListSiblings(ctx context.Context, code, excludeID string) ([]models.CourseSeats, error) {
	const query = `SELECT ` + courseColumns + `,
    (SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id) AS enrolled
FROM courses c WHERE c.code = $1 AND c.id <> $2 ORDER BY c.id ASC`
	var courses []models.CourseSeats
	if err := r.db.SelectContext(ctx, &courses, query, code, excludeID); err != nil {
		return nil, fmt.Errorf("list sibling sections: %w", err)
	}
	return courses, nil
}

// ListEnrolledByStudent returns the courses a student is enrolled in, oldest enrollment first.
func (r *CourseRepository) ListEnrolledByStudent(ctx context.Context, studentID string) ([]models.Course, error) {
	const query = `SELECT ` + courseColumns + `
FROM enrollments e JOIN courses c ON c.id = e.course_id
WHERE e.student_id = $1 ORDER BY e.created_at ASC, e.id ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, studentID); err != nil {
		return nil, fmt.Errorf("list student courses: %w", err)
	}
	return courses, nil
}

// UpdateFaculty assigns a new faculty member to a course.
func (r *CourseRepository) UpdateFaculty(ctx context.Context, exec sqlx.ExtContext, update models.CourseFacultyUpdate) error {
	const query = `UPDATE courses SET faculty_id = :faculty_id WHERE id = :course_id`
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, update)
	if err != nil {
		return fmt.Errorf("update course faculty: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check course faculty rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
