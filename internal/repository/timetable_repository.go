package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-engine/internal/models"
)

const timetableSelect = `SELECT c.id AS course_id, c.code AS course_code, c.name AS course_name,
    t.day, t.start_time, t.end_time,
    r.room_number, r.building,
    f.id AS faculty_id, f.name AS faculty_name
FROM courses c
JOIN timeslots t ON t.id = c.timeslot_id
LEFT JOIN classrooms r ON r.id = c.classroom_id
LEFT JOIN faculty f ON f.id = c.faculty_id`

// TimetableRepository reads course placements joined with their slot, room and faculty.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// ListByStudent returns the placements of every course the student is enrolled in.
func (r *TimetableRepository) ListByStudent(ctx context.Context, studentID string) ([]models.TimetableRow, error) {
	const query = timetableSelect + `
JOIN enrollments e ON e.course_id = c.id
WHERE e.student_id = $1`
	var rows []models.TimetableRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list student timetable: %w", err)
	}
	return rows, nil
}

// ListByFaculty returns the placements of every course assigned to the faculty member.
func (r *TimetableRepository) ListByFaculty(ctx context.Context, facultyID string) ([]models.TimetableRow, error) {
	const query = timetableSelect + `
WHERE c.faculty_id = $1`
	var rows []models.TimetableRow
	if err := r.db.SelectContext(ctx, &rows, query, facultyID); err != nil {
		return nil, fmt.Errorf("list faculty timetable: %w", err)
	}
	return rows, nil
}
