package dto

import "github.com/noah-isme/timetable-engine/internal/models"

// TimetableClassroom is the room part of a timetable entry.
type TimetableClassroom struct {
	RoomNumber string `json:"roomNumber"`
	Building   string `json:"building"`
}

// TimetableFaculty is the instructor part of a timetable entry.
type TimetableFaculty struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TimetableEntry is one course placement on a weekday.
type TimetableEntry struct {
	CourseID   string              `json:"courseId"`
	CourseCode string              `json:"courseCode"`
	CourseName string              `json:"courseName"`
	StartTime  string              `json:"startTime"`
	EndTime    string              `json:"endTime"`
	Classroom  *TimetableClassroom `json:"classroom,omitempty"`
	Faculty    *TimetableFaculty   `json:"faculty,omitempty"`
}

// WeeklyTimetable maps every teaching day to its entries sorted by start then end time.
type WeeklyTimetable map[models.Weekday][]TimetableEntry

// TimetableExportQuery selects the export format.
type TimetableExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
