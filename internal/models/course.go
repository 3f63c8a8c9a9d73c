package models

// Course is one section of a course offering. Several sections share a code.
type Course struct {
	ID          string `db:"id" json:"id"`
	Code        string `db:"code" json:"code"`
	Name        string `db:"name" json:"name"`
	Credits     int    `db:"credits" json:"credits"`
	Semester    int    `db:"semester" json:"semester"`
	Mandatory   bool   `db:"mandatory" json:"mandatory"`
	FacultyID   string `db:"faculty_id" json:"faculty_id"`
	TimeSlotID  string `db:"timeslot_id" json:"timeslot_id"`
	ClassroomID string `db:"classroom_id" json:"classroom_id"`
	MaxSeats    int    `db:"max_seats" json:"max_seats"`
}

// CourseSeats pairs a course with its current enrollment count.
type CourseSeats struct {
	Course
	Enrolled int `db:"enrolled" json:"enrolled"`
}

// HasSpareSeat reports whether another student fits.
func (c CourseSeats) HasSpareSeat() bool {
	return c.Enrolled < c.MaxSeats
}

// CourseFacultyUpdate carries the only course field the recovery path may change.
type CourseFacultyUpdate struct {
	CourseID  string `db:"course_id" validate:"required"`
	FacultyID string `db:"faculty_id" validate:"required"`
}
