package shift_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackdog111/timetrack-nz-sub001/shift"
)

// =============================================================================
// DURATION ROUNDING
// =============================================================================

func TestRoundedMinutes(t *testing.T) {
	start := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		end  time.Time
		want int
	}{
		{"exact", start.Add(10 * time.Minute), 10},
		{"rounds down below half", start.Add(10*time.Minute + 29*time.Second), 10},
		{"rounds up at half", start.Add(10*time.Minute + 30*time.Second), 11},
		{"sub-minute rounds to one", start.Add(45 * time.Second), 1},
		{"sub-half-minute rounds to zero", start.Add(20 * time.Second), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, shift.RoundedMinutes(start, tc.end))
		})
	}
}

// =============================================================================
// LOCATION VALIDITY
// =============================================================================

func TestLocation_Valid(t *testing.T) {
	valid := shift.Location{Latitude: -36.8485, Longitude: 174.7633}
	assert.True(t, valid.Valid())

	cases := []struct {
		name string
		loc  shift.Location
	}{
		{"null island", shift.Location{Latitude: 0, Longitude: 0}},
		{"NaN latitude", shift.Location{Latitude: math.NaN(), Longitude: 174}},
		{"NaN longitude", shift.Location{Latitude: -36, Longitude: math.NaN()}},
		{"latitude out of range", shift.Location{Latitude: 91, Longitude: 174}},
		{"longitude out of range", shift.Location{Latitude: -36, Longitude: 181}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, tc.loc.Valid())
		})
	}
}

func TestLocation_TaggedDoesNotMutate(t *testing.T) {
	orig := shift.Location{Latitude: -36.8485, Longitude: 174.7633, Source: shift.SourceTracking}
	tagged := orig.Tagged(shift.SourceTravelStart)

	assert.Equal(t, shift.SourceTravelStart, tagged.Source)
	assert.Equal(t, shift.SourceTracking, orig.Source)
}

// =============================================================================
// SHIFT AGGREGATE
// =============================================================================

func TestShift_OpenBreakAndTravel(t *testing.T) {
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	end := now.Add(10 * time.Minute)

	s := &shift.Shift{
		Breaks: []shift.Break{
			{StartTime: now, EndTime: &end},
			{StartTime: now.Add(time.Hour)},
		},
		TravelSegments: []shift.TravelSegment{
			{StartTime: now},
		},
	}

	b := s.OpenBreak()
	require.NotNil(t, b)
	assert.Equal(t, now.Add(time.Hour), b.StartTime)

	seg := s.OpenTravel()
	require.NotNil(t, seg)
	assert.Equal(t, now, seg.StartTime)
}

func TestShift_HoursWorked(t *testing.T) {
	clockIn := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	// Active shift: measured up to asOf.
	active := &shift.Shift{ClockIn: clockIn, Status: shift.StatusActive}
	assert.InDelta(t, 3.5, active.HoursWorked(clockIn.Add(3*time.Hour+30*time.Minute)), 1e-9)

	// Completed shift: asOf is ignored.
	out := clockIn.Add(8 * time.Hour)
	done := &shift.Shift{ClockIn: clockIn, ClockOut: &out, Status: shift.StatusCompleted}
	assert.InDelta(t, 8, done.HoursWorked(clockIn.Add(100*time.Hour)), 1e-9)

	// asOf before clock-in clamps to zero.
	assert.Zero(t, active.HoursWorked(clockIn.Add(-time.Hour)))
}

func TestShift_CloneIsDeep(t *testing.T) {
	// GIVEN: A shift with a closed break
	// WHEN: Mutating the clone
	// THEN: The original is untouched

	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	end := now.Add(10 * time.Minute)
	dur := 10
	s := &shift.Shift{
		ID:      "s-1",
		ClockIn: now,
		Breaks: []shift.Break{
			{StartTime: now, EndTime: &end, DurationMinutes: &dur},
		},
		LocationHistory: []shift.Location{{Latitude: -36.8, Longitude: 174.7}},
	}

	clone := s.Clone()
	*clone.Breaks[0].DurationMinutes = 99
	clone.LocationHistory[0].Latitude = 0

	assert.Equal(t, 10, *s.Breaks[0].DurationMinutes)
	assert.Equal(t, -36.8, s.LocationHistory[0].Latitude)
}
