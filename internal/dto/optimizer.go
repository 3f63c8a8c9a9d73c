package dto

import "github.com/noah-isme/timetable-engine/internal/models"

// CandidateQuery requests a ranking of replacement faculty for a course.
type CandidateQuery struct {
	CourseID             string `json:"courseId" validate:"required"`
	UnavailableFacultyID string `json:"unavailableFacultyId" validate:"required"`
}

// RankedCandidate is one scored replacement.
type RankedCandidate struct {
	FacultyID       string               `json:"facultyId"`
	Name            string               `json:"name"`
	Score           int                  `json:"score"`
	Rank            models.CandidateRank `json:"rank"`
	CurrentWorkload int                  `json:"currentWorkload"`
	WorkloadCap     int                  `json:"workloadCap"`
	Available       bool                 `json:"available"`
}

// RecordDisruptionRequest reports a faculty member as unavailable for a course.
type RecordDisruptionRequest struct {
	CourseID             string `json:"courseId" validate:"required"`
	UnavailableFacultyID string `json:"unavailableFacultyId" validate:"required"`
	Reason               string `json:"reason" validate:"max=500"`
}

// RecordDisruptionResponse returns the disruption id with the full ranking.
type RecordDisruptionResponse struct {
	DisruptionID   string            `json:"disruptionId"`
	SolutionsCount int               `json:"solutionsCount"`
	Candidates     []RankedCandidate `json:"candidates"`
}

// ApproveReassignmentRequest assigns a new faculty to a course. DisruptionID narrows
// resolution to one disruption; when empty every pending disruption of the course is resolved.
type ApproveReassignmentRequest struct {
	CourseID     string `json:"courseId" validate:"required"`
	NewFacultyID string `json:"newFacultyId" validate:"required"`
	ApprovedBy   string `json:"approvedBy"`
	DisruptionID string `json:"disruptionId"`
}

// ReassignmentResult is the outcome of an approval.
type ReassignmentResult struct {
	Success             bool     `json:"success"`
	CourseID            string   `json:"courseId"`
	OldFacultyID        string   `json:"oldFacultyId,omitempty"`
	NewFacultyID        string   `json:"newFacultyId"`
	ResolvedDisruptions []string `json:"resolvedDisruptions"`
	Message             string   `json:"message"`
}

// DisruptionListQuery filters the disruptions of a course.
type DisruptionListQuery struct {
	Status string `form:"status" validate:"omitempty,oneof=pending resolved"`
}
