package dto

// ValidateScheduleRequest asks whether a student can take the given courses on top of their enrollments.
type ValidateScheduleRequest struct {
	StudentID string   `json:"studentId" validate:"required"`
	CourseIDs []string `json:"courseIds" validate:"required,min=1,dive,required"`
}

// ConflictKind classifies a schedule conflict.
type ConflictKind string

const (
	ConflictOverlap            ConflictKind = "overlap"
	ConflictUnresolvedTimeslot ConflictKind = "unresolved_timeslot"
)

// ScheduleConflict names the courses involved in one conflict. Overlaps carry two ids ordered ascending.
type ScheduleConflict struct {
	Kind      ConflictKind `json:"kind"`
	CourseIDs []string     `json:"courseIds"`
}

// SeatConflict reports a selected course that has no seat left.
type SeatConflict struct {
	CourseID string `json:"courseId"`
	Enrolled int    `json:"enrolled"`
	MaxSeats int    `json:"maxSeats"`
}

// ValidationResult is the outcome of a schedule validation. Suggestions are keyed by the
// selected course they replace.
type ValidationResult struct {
	Valid            bool                `json:"valid"`
	Conflicts        []ScheduleConflict  `json:"conflicts"`
	SeatConflicts    []SeatConflict      `json:"seatConflicts"`
	Suggestions      map[string][]string `json:"suggestions"`
	UnknownCourseIDs []string            `json:"unknownCourseIds,omitempty"`
}

// EnrollRequest commits a single enrollment.
type EnrollRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
}

// EnrollFailureReason explains a refused enrollment.
type EnrollFailureReason string

const (
	EnrollCourseNotFound EnrollFailureReason = "COURSE_NOT_FOUND"
	EnrollCourseFull     EnrollFailureReason = "COURSE_FULL"
)

// EnrollmentResult is the outcome of an enrollment commit.
type EnrollmentResult struct {
	Success      bool                `json:"success"`
	EnrollmentID string              `json:"enrollmentId,omitempty"`
	Reason       EnrollFailureReason `json:"reason,omitempty"`
	Message      string              `json:"message"`
}
