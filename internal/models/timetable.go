package models

// TimetableRow is a flattened course placement joined with slot, room and faculty.
type TimetableRow struct {
	CourseID    string  `db:"course_id"`
	CourseCode  string  `db:"course_code"`
	CourseName  string  `db:"course_name"`
	Day         Weekday `db:"day"`
	StartTime   string  `db:"start_time"`
	EndTime     string  `db:"end_time"`
	RoomNumber  *string `db:"room_number"`
	Building    *string `db:"building"`
	FacultyID   *string `db:"faculty_id"`
	FacultyName *string `db:"faculty_name"`
}
