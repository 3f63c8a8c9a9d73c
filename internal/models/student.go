package models

// Student is read-only to this service; registration owns the record.
type Student struct {
	ID         string `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	RollNumber string `db:"roll_number" json:"roll_number"`
	Email      string `db:"email" json:"email"`
	Year       int    `db:"year" json:"year"`
	Program    string `db:"program" json:"program"`
}
