package models

// Faculty is an instructor who can be assigned to courses.
type Faculty struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Email       string `db:"email" json:"email"`
	Expertise   string `db:"expertise" json:"expertise"`
	WorkloadCap int    `db:"workload_cap" json:"workload_cap"`
	Available   bool   `db:"available" json:"available"`
}

// FacultyWorkload annotates a faculty member with the number of courses currently assigned.
type FacultyWorkload struct {
	Faculty
	CurrentWorkload int `db:"current_workload" json:"current_workload"`
}

// SpareCapacity is the workload cap minus the current workload. It may be negative.
func (f FacultyWorkload) SpareCapacity() int {
	return f.WorkloadCap - f.CurrentWorkload
}
