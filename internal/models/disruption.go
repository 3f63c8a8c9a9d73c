package models

import "time"

// DisruptionStatus is the lifecycle state of a disruption. Transitions only go pending → resolved.
type DisruptionStatus string

const (
	DisruptionStatusPending  DisruptionStatus = "pending"
	DisruptionStatusResolved DisruptionStatus = "resolved"
)

// Disruption records that a faculty member became unavailable for a course.
type Disruption struct {
	ID                 string           `db:"id" json:"id"`
	CourseID           string           `db:"course_id" json:"course_id"`
	FacultyUnavailable string           `db:"faculty_unavailable" json:"faculty_unavailable"`
	Reason             string           `db:"reason" json:"reason"`
	Status             DisruptionStatus `db:"status" json:"status"`
	ResolvedBy         *string          `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt         *time.Time       `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
}

// DisruptionFilter narrows disruption listings.
type DisruptionFilter struct {
	CourseID string
	Status   DisruptionStatus
}

// CandidateRank labels a scored candidate.
type CandidateRank string

const (
	RankBest       CandidateRank = "Best"
	RankGood       CandidateRank = "Good"
	RankCompromise CandidateRank = "Compromise"
)

// CandidateAudit is the immutable record of one faculty candidate considered for a disruption.
type CandidateAudit struct {
	ID                 string        `db:"id" json:"id"`
	DisruptionID       string        `db:"disruption_id" json:"disruption_id"`
	CandidateFacultyID string        `db:"candidate_faculty_id" json:"candidate_faculty_id"`
	Position           int           `db:"position" json:"position"`
	Score              int           `db:"score" json:"score"`
	Rank               CandidateRank `db:"rank" json:"rank"`
	Approved           bool          `db:"approved" json:"approved"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
}

// DisruptionDetail bundles a disruption with its audit trail.
type DisruptionDetail struct {
	Disruption
	Candidates []CandidateAudit `json:"candidates"`
}
