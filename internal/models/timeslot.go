package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Weekday is one of the five teaching days.
type Weekday string

// Teaching days in timetable order.
const (
	Monday    Weekday = "Mon"
	Tuesday   Weekday = "Tue"
	Wednesday Weekday = "Wed"
	Thursday  Weekday = "Thu"
	Friday    Weekday = "Fri"
)

// Weekdays lists the teaching days in display order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

// Valid reports whether d is a teaching day.
func (d Weekday) Valid() bool {
	for _, day := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// TimeSlot is a weekly interval a course occupies. Start and end are HH:MM on the same day.
type TimeSlot struct {
	ID        string  `db:"id" json:"id"`
	Day       Weekday `db:"day" json:"day"`
	StartTime string  `db:"start_time" json:"start_time"`
	EndTime   string  `db:"end_time" json:"end_time"`
}

// Interval is a resolved time slot in minutes since midnight.
type Interval struct {
	Day   Weekday
	Start int
	End   int
}

// Resolve parses the slot into an Interval. Slots with an unknown day,
// malformed clock values or a non-positive duration do not resolve.
func (t *TimeSlot) Resolve() (Interval, error) {
	if t == nil {
		return Interval{}, fmt.Errorf("timeslot missing")
	}
	if !t.Day.Valid() {
		return Interval{}, fmt.Errorf("timeslot %s: invalid day %q", t.ID, t.Day)
	}
	start, err := ParseClock(t.StartTime)
	if err != nil {
		return Interval{}, fmt.Errorf("timeslot %s: start: %w", t.ID, err)
	}
	end, err := ParseClock(t.EndTime)
	if err != nil {
		return Interval{}, fmt.Errorf("timeslot %s: end: %w", t.ID, err)
	}
	if end <= start {
		return Interval{}, fmt.Errorf("timeslot %s: end %s not after start %s", t.ID, t.EndTime, t.StartTime)
	}
	return Interval{Day: t.Day, Start: start, End: end}, nil
}

// ParseClock converts "H:MM" or "HH:MM" into minutes since midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 || len(parts[1]) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hours*60 + minutes, nil
}

// Overlaps reports whether two intervals share time on the same day.
// Touching boundaries do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	if i.Day != other.Day {
		return false
	}
	return max(i.Start, other.Start) < min(i.End, other.End)
}
