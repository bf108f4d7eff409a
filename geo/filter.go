/*
filter.go - GPS sample quality filter

PURPOSE:
  Raw GPS is noisy near buildings. Without independent accuracy,
  movement, and interval gates the location trail accumulates spurious
  jitter and duplicate writes. The filter is a stateless decision
  function: the caller owns lastRecorded/lastSave and updates them only
  when Accept returns true.

GATES (all must hold):
  - sample accuracy <= 15 m
  - no previous recording, or moved >= 30 m since it
  - >= 30 s since the last accepted save
*/
package geo

import (
	"time"

	"github.com/trackdog111/timetrack-nz-sub001/shift"
)

// Filter defaults.
const (
	DefaultMaxAccuracyMeters = 15.0
	DefaultMinMoveMeters     = 30.0
	DefaultMinSaveInterval   = 30 * time.Second
)

// SampleFilter rejects low-quality or redundant location samples.
type SampleFilter struct {
	MaxAccuracyMeters float64
	MinMoveMeters     float64
	MinSaveInterval   time.Duration
}

// NewSampleFilter returns a filter with the default gates.
func NewSampleFilter() SampleFilter {
	return SampleFilter{
		MaxAccuracyMeters: DefaultMaxAccuracyMeters,
		MinMoveMeters:     DefaultMinMoveMeters,
		MinSaveInterval:   DefaultMinSaveInterval,
	}
}

// Accept reports whether the sample should be recorded. lastRecorded
// is the previously accepted sample (nil if none yet) and lastSave is
// when it was accepted (zero if never). Accept never mutates state; on
// rejection the caller's state must be left untouched.
func (f SampleFilter) Accept(sample shift.Location, lastRecorded *shift.Location, lastSave, now time.Time) bool {
	if !sample.Valid() {
		return false
	}
	if sample.Accuracy > f.MaxAccuracyMeters {
		return false
	}
	if lastRecorded != nil && DistanceBetween(sample, *lastRecorded) < f.MinMoveMeters {
		return false
	}
	if !lastSave.IsZero() && now.Sub(lastSave) < f.MinSaveInterval {
		return false
	}
	return true
}
