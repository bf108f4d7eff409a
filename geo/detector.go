/*
detector.go - Geofence auto-travel detector

PURPOSE:
  Turns a stream of filtered GPS samples into automatic travel start
  and stop events, measured against an anchor location (the worker's
  current "base").

STATE MACHINE (Idle, Traveling):
  Idle -> Traveling    sample is farther than the detection distance
                       (default 200 m) from the anchor
  Traveling -> Idle    reason "returned": sample is back within the
                       detection distance of the anchor
  Traveling -> Idle    reason "arrived": the worker has been stationary
                       (movement < 50 m) for 5 continuous minutes. The
                       anchor is relocated to the arrival point so a
                       multi-stop day chains without re-anchoring.

RESUMABILITY:
  Resume reconstructs the detector state from persisted shift data
  without replaying history: the anchor is the end location of the most
  recently closed travel segment, falling back to the clock-in
  location; Traveling mirrors whether an open segment exists.
*/
package geo

import (
	"time"

	"github.com/trackdog111/timetrack-nz-sub001/shift"
)

// Detector defaults.
const (
	DefaultDetectionDistanceMeters = 200.0
	DefaultStationaryRadiusMeters  = 50.0
	DefaultStationaryDwell         = 5 * time.Minute
)

// EventKind identifies a detector transition.
type EventKind string

const (
	EventTravelStart EventKind = "travelStart"
	EventTravelEnd   EventKind = "travelEnd"
)

// EndReason says why a travel segment was auto-closed.
type EndReason string

const (
	EndReturned EndReason = "returned"
	EndArrived  EndReason = "arrived"
)

// Event is a travel transition emitted by Step. Sample is the location
// that triggered the transition and becomes the segment's start or end
// location.
type Event struct {
	Kind   EventKind
	Reason EndReason // set on EventTravelEnd only
	Sample shift.Location
}

// State is the detector's working state. It is not persisted as its
// own entity; Resume rebuilds it from shift data.
type State struct {
	Anchor          shift.Location
	Traveling       bool
	StationarySince time.Time // zero when moving
	LastKnown       *shift.Location
}

// Detector holds the geofence thresholds. Step is pure with respect to
// the detector itself; all mutable state lives in State.
type Detector struct {
	DetectionDistanceMeters float64
	StationaryRadiusMeters  float64
	StationaryDwell         time.Duration
}

// NewDetector returns a detector with the default thresholds.
func NewDetector() Detector {
	return Detector{
		DetectionDistanceMeters: DefaultDetectionDistanceMeters,
		StationaryRadiusMeters:  DefaultStationaryRadiusMeters,
		StationaryDwell:         DefaultStationaryDwell,
	}
}

// Step advances the detector with one accepted sample and returns the
// new state plus any transition events. Samples with invalid
// coordinates are ignored with no state change.
func (d Detector) Step(state State, sample shift.Location, now time.Time) (State, []Event) {
	if !sample.Valid() {
		return state, nil
	}

	// A shift clocked in without a usable location has no anchor yet;
	// adopt the first valid sample as the base.
	if !state.Anchor.Valid() {
		state.Anchor = sample
		state.LastKnown = &sample
		return state, nil
	}

	if !state.Traveling {
		if DistanceBetween(sample, state.Anchor) > d.DetectionDistanceMeters {
			state.Traveling = true
			state.StationarySince = time.Time{}
			state.LastKnown = &sample
			return state, []Event{{Kind: EventTravelStart, Sample: sample.Tagged(shift.SourceTravelStart)}}
		}
		state.LastKnown = &sample
		return state, nil
	}

	// Traveling: back within range of the anchor ends the segment.
	if DistanceBetween(sample, state.Anchor) <= d.DetectionDistanceMeters {
		state.Traveling = false
		state.StationarySince = time.Time{}
		state.LastKnown = &sample
		return state, []Event{{Kind: EventTravelEnd, Reason: EndReturned, Sample: sample.Tagged(shift.SourceTravelEnd)}}
	}

	// Still away from the anchor: watch for a stationary arrival.
	stationary := state.LastKnown != nil &&
		DistanceBetween(sample, *state.LastKnown) < d.StationaryRadiusMeters

	if !stationary {
		// Movement resets the dwell timer.
		state.StationarySince = time.Time{}
		state.LastKnown = &sample
		return state, nil
	}

	if state.StationarySince.IsZero() {
		state.StationarySince = now
		state.LastKnown = &sample
		return state, nil
	}

	if now.Sub(state.StationarySince) >= d.StationaryDwell {
		// Arrived: relocate the anchor to the new stable location.
		state.Traveling = false
		state.StationarySince = time.Time{}
		state.Anchor = sample
		state.LastKnown = &sample
		return state, []Event{{Kind: EventTravelEnd, Reason: EndArrived, Sample: sample.Tagged(shift.SourceTravelEnd)}}
	}

	state.LastKnown = &sample
	return state, nil
}

// Resume reconstructs detector state from a persisted shift, e.g.
// after an app restart while the shift is still active. It never
// replays the location trail.
func Resume(s *shift.Shift) State {
	state := State{}

	// The anchor is the end of the most recent completed travel
	// segment, else the clock-in location.
	for i := len(s.TravelSegments) - 1; i >= 0; i-- {
		seg := s.TravelSegments[i]
		if !seg.Open() && seg.EndLocation != nil && seg.EndLocation.Valid() {
			state.Anchor = *seg.EndLocation
			break
		}
	}
	if !state.Anchor.Valid() && s.ClockInLocation != nil {
		state.Anchor = *s.ClockInLocation
	}

	state.Traveling = s.OpenTravel() != nil
	return state
}
