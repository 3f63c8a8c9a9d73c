package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/timetable-engine/internal/models"
)

// TimeSlotRepository reads the weekly slot catalogue.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository constructs the repository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// ListByIDs returns the slots matching ids. Missing ids are simply absent from the result.
func (r *TimeSlotRepository) ListByIDs(ctx context.Context, ids []string) ([]models.TimeSlot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, day, start_time, end_time FROM timeslots WHERE id = ANY($1)`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list timeslots: %w", err)
	}
	return slots, nil
}
