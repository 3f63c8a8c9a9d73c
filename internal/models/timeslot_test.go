package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := map[string]int{"9:00": 540, "09:00": 540, "13:45": 825, "0:00": 0, " 23:59 ": 1439}
	for raw, want := range cases {
		got, err := ParseClock(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	for _, raw := range []string{"", "9", "9:0", "24:00", "12:60", "ab:cd", "123:00", "9:00:00"} {
		_, err := ParseClock(raw)
		assert.Error(t, err, raw)
	}
}

func TestTimeSlotResolve(t *testing.T) {
	slot := TimeSlot{ID: "ts-1", Day: Tuesday, StartTime: "9:30", EndTime: "11:00"}
	interval, err := slot.Resolve()
	require.NoError(t, err)
	assert.Equal(t, Interval{Day: Tuesday, Start: 570, End: 660}, interval)

	for _, bad := range []TimeSlot{
		{ID: "sun", Day: "Sun", StartTime: "9:00", EndTime: "10:00"},
		{ID: "empty", Day: Monday, StartTime: "10:00", EndTime: "10:00"},
		{ID: "backwards", Day: Monday, StartTime: "11:00", EndTime: "10:00"},
		{ID: "garbled", Day: Monday, StartTime: "nine", EndTime: "10:00"},
	} {
		_, err := bad.Resolve()
		assert.Error(t, err, bad.ID)
	}

	var missing *TimeSlot
	_, err = missing.Resolve()
	assert.Error(t, err)
}

func TestIntervalOverlaps(t *testing.T) {
	mon9to10 := Interval{Day: Monday, Start: 540, End: 600}
	cases := []struct {
		name  string
		other Interval
		want  bool
	}{
		{"partial", Interval{Day: Monday, Start: 570, End: 630}, true},
		{"contained", Interval{Day: Monday, Start: 550, End: 560}, true},
		{"identical", mon9to10, true},
		{"touching end", Interval{Day: Monday, Start: 600, End: 660}, false},
		{"touching start", Interval{Day: Monday, Start: 480, End: 540}, false},
		{"other day", Interval{Day: Tuesday, Start: 540, End: 600}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mon9to10.Overlaps(tc.other))
			assert.Equal(t, tc.want, tc.other.Overlaps(mon9to10))
		})
	}
}

func TestFacultyWorkloadSpareCapacity(t *testing.T) {
	assert.Equal(t, 2, FacultyWorkload{Faculty: Faculty{WorkloadCap: 3}, CurrentWorkload: 1}.SpareCapacity())
	assert.Equal(t, -1, FacultyWorkload{Faculty: Faculty{WorkloadCap: 1}, CurrentWorkload: 2}.SpareCapacity())
}

func TestCourseSeatsHasSpareSeat(t *testing.T) {
	assert.True(t, CourseSeats{Course: Course{MaxSeats: 2}, Enrolled: 1}.HasSpareSeat())
	assert.False(t, CourseSeats{Course: Course{MaxSeats: 2}, Enrolled: 2}.HasSpareSeat())
}
