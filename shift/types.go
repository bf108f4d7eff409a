/*
Package shift provides the core domain model for employee work shifts.

PURPOSE:
  This package contains the entities and pure algorithms shared by the
  lifecycle service, the travel detector, and reporting: shifts, breaks,
  travel segments, tagged locations, and the statutory break-entitlement
  and allocation calculators.

KEY CONCEPTS IN THIS FILE (types.go):
  - Location: An immutable GPS fix tagged with why it was recorded
  - Break: A rest or meal break, open (live) or closed (with duration)
  - TravelSegment: A work-travel interval, manually or auto detected
  - Shift: The aggregate - one clock-in, optional clock-out, owned
    sequences of breaks and travel segments, and the location trail

DESIGN PRINCIPLES:
  1. One active shift per user: the central invariant enforced by the
     lifecycle service and the storage layer
  2. Insertion order is chronological order for breaks and travel
  3. Minute durations use round(ms/60000) semantics so legal-minute
     accounting matches the payroll side exactly

SEE ALSO:
  - entitlement.go: Statutory break entitlement ladder
  - allocation.go: Paid/unpaid minute split
  - repository.go: Persistence and collaborator interfaces
*/
package shift

import (
	"math"
	"time"
)

// =============================================================================
// LOCATION - Tagged GPS fix
// =============================================================================

// LocationSource records why a location was captured.
type LocationSource string

const (
	SourceTracking    LocationSource = "tracking"
	SourceClockIn     LocationSource = "clockIn"
	SourceClockOut    LocationSource = "clockOut"
	SourceTravelStart LocationSource = "travelStart"
	SourceTravelEnd   LocationSource = "travelEnd"
	SourceBreakStart  LocationSource = "breakStart"
	SourceBreakEnd    LocationSource = "breakEnd"
)

// Location is an immutable GPS fix. Accuracy is the horizontal error
// estimate in meters reported by the sensor.
type Location struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Timestamp time.Time
	Source    LocationSource
}

// Valid reports whether the coordinates are usable. NaN, out-of-range
// values, and the (0,0) null-island placeholder are all rejected.
func (l Location) Valid() bool {
	if math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude) {
		return false
	}
	if l.Latitude < -90 || l.Latitude > 90 || l.Longitude < -180 || l.Longitude > 180 {
		return false
	}
	if l.Latitude == 0 && l.Longitude == 0 {
		return false
	}
	return true
}

// Tagged returns a copy of the location with a different source tag.
func (l Location) Tagged(source LocationSource) Location {
	l.Source = source
	return l
}

// =============================================================================
// BREAK
// =============================================================================

// Break is a single rest or meal break within a shift. Open breaks
// (EndTime nil) are always live-timed; manual entries are created
// already closed with an explicit duration.
type Break struct {
	StartTime       time.Time
	EndTime         *time.Time
	DurationMinutes *int
	ManualEntry     bool
	StartLocation   *Location
	EndLocation     *Location
}

// Open reports whether the break is still running.
func (b Break) Open() bool { return b.EndTime == nil }

// Minutes returns the recorded duration, treating a missing duration
// as zero.
func (b Break) Minutes() int {
	if b.DurationMinutes == nil {
		return 0
	}
	return *b.DurationMinutes
}

// =============================================================================
// TRAVEL SEGMENT
// =============================================================================

// TravelSegment is a work-travel interval. At most one segment per
// shift may be open at a time.
type TravelSegment struct {
	StartTime       time.Time
	EndTime         *time.Time
	DurationMinutes *int
	StartLocation   *Location
	EndLocation     *Location
	AutoStarted     bool
	AutoEnded       bool
}

// Open reports whether the segment is still running.
func (t TravelSegment) Open() bool { return t.EndTime == nil }

// Minutes returns the recorded duration, treating a missing duration
// as zero.
func (t TravelSegment) Minutes() int {
	if t.DurationMinutes == nil {
		return 0
	}
	return *t.DurationMinutes
}

// =============================================================================
// SHIFT - The aggregate
// =============================================================================

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Shift owns the ordered break and travel sequences for one work day.
// Insertion order is chronological order.
type Shift struct {
	ID               string
	UserID           string
	ClockIn          time.Time
	ClockOut         *time.Time
	Status           Status
	Notes            string
	ClockInPhotoURL  string
	Breaks           []Break
	TravelSegments   []TravelSegment
	LocationHistory  []Location
	ClockInLocation  *Location
	ClockOutLocation *Location

	// Audit fields, stamped on historical corrections.
	EditedAt *time.Time
	EditedBy string
}

// Active reports whether the shift is still open.
func (s *Shift) Active() bool { return s.Status == StatusActive }

// OpenBreak returns a pointer to the currently open break, or nil.
func (s *Shift) OpenBreak() *Break {
	for i := range s.Breaks {
		if s.Breaks[i].Open() {
			return &s.Breaks[i]
		}
	}
	return nil
}

// OpenTravel returns a pointer to the currently open travel segment,
// or nil.
func (s *Shift) OpenTravel() *TravelSegment {
	for i := range s.TravelSegments {
		if s.TravelSegments[i].Open() {
			return &s.TravelSegments[i]
		}
	}
	return nil
}

// HoursWorked returns the elapsed shift length in hours. For an active
// shift the length is measured up to asOf.
func (s *Shift) HoursWorked(asOf time.Time) float64 {
	end := asOf
	if s.ClockOut != nil {
		end = *s.ClockOut
	}
	if end.Before(s.ClockIn) {
		return 0
	}
	return end.Sub(s.ClockIn).Hours()
}

// BreakMinutes sums the recorded break durations.
func (s *Shift) BreakMinutes() int {
	total := 0
	for _, b := range s.Breaks {
		total += b.Minutes()
	}
	return total
}

// TravelMinutes sums the recorded travel durations.
func (s *Shift) TravelMinutes() int {
	total := 0
	for _, t := range s.TravelSegments {
		total += t.Minutes()
	}
	return total
}

// AppendLocation records a tagged location in the shift's trail.
func (s *Shift) AppendLocation(loc Location) {
	s.LocationHistory = append(s.LocationHistory, loc)
}

// Clone returns a deep copy. Stores hand out clones so callers can't
// mutate persisted state in place.
func (s *Shift) Clone() *Shift {
	out := *s
	out.Breaks = make([]Break, len(s.Breaks))
	for i, b := range s.Breaks {
		out.Breaks[i] = b
		out.Breaks[i].EndTime = copyTime(b.EndTime)
		out.Breaks[i].DurationMinutes = copyInt(b.DurationMinutes)
		out.Breaks[i].StartLocation = copyLocation(b.StartLocation)
		out.Breaks[i].EndLocation = copyLocation(b.EndLocation)
	}
	out.TravelSegments = make([]TravelSegment, len(s.TravelSegments))
	for i, t := range s.TravelSegments {
		out.TravelSegments[i] = t
		out.TravelSegments[i].EndTime = copyTime(t.EndTime)
		out.TravelSegments[i].DurationMinutes = copyInt(t.DurationMinutes)
		out.TravelSegments[i].StartLocation = copyLocation(t.StartLocation)
		out.TravelSegments[i].EndLocation = copyLocation(t.EndLocation)
	}
	out.LocationHistory = append([]Location(nil), s.LocationHistory...)
	out.ClockOut = copyTime(s.ClockOut)
	out.ClockInLocation = copyLocation(s.ClockInLocation)
	out.ClockOutLocation = copyLocation(s.ClockOutLocation)
	out.EditedAt = copyTime(s.EditedAt)
	return &out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

func copyLocation(l *Location) *Location {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

// RoundedMinutes converts an interval to whole minutes using
// round(ms/60000) semantics. Legal-minute accounting depends on
// rounding, not truncation.
func RoundedMinutes(start, end time.Time) int {
	ms := end.Sub(start).Milliseconds()
	return int(math.Round(float64(ms) / 60000.0))
}
