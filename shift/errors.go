/*
errors.go - Centralized error types for the shift domain

PURPOSE:
  All error types in one place for consistency and discoverability.
  The API layer maps these onto HTTP statuses.

ERROR CATEGORIES:
  1. Precondition errors - Operation not legal in the current state
  2. Validation errors - Bad input, rejected before any mutation
  3. Storage errors - Surfaced by Repository implementations

USAGE:
  if errors.Is(err, shift.ErrShiftAlreadyActive) { ... }

  var dur *shift.InvalidDurationError
  if errors.As(err, &dur) { ... }
*/
package shift

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrShiftAlreadyActive is returned when a user attempts to clock in
	// while a shift is already open (or a clock-in is still in flight).
	ErrShiftAlreadyActive = errors.New("shift already active")

	// ErrNoActiveShift is returned when an operation requires an active
	// shift and the user has none.
	ErrNoActiveShift = errors.New("no active shift")

	// ErrNotesRequired is returned on clock-out when deployment policy
	// requires notes and none were entered.
	ErrNotesRequired = errors.New("clock-out notes required")

	// ErrInvalidDuration is returned when edited times violate the
	// clockOut > clockIn or <= 24h rules.
	ErrInvalidDuration = errors.New("invalid shift duration")

	// ErrShiftNotFound is returned when a referenced shift doesn't exist.
	ErrShiftNotFound = errors.New("shift not found")

	// ErrNoSuchEntry is returned when a break or travel correction
	// references an index outside the shift's sequences.
	ErrNoSuchEntry = errors.New("no entry at index")

	// ErrShiftCompleted is returned when a live operation targets a
	// shift that has already been completed.
	ErrShiftCompleted = errors.New("shift already completed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidDurationError provides details about a rejected time edit.
type InvalidDurationError struct {
	ClockIn  time.Time
	ClockOut time.Time
	Reason   string // "end_before_start" or "exceeds_24h"
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("invalid shift duration (%s): %s -> %s",
		e.Reason, e.ClockIn.Format(time.RFC3339), e.ClockOut.Format(time.RFC3339))
}

func (e *InvalidDurationError) Unwrap() error { return ErrInvalidDuration }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid input or a
// failed precondition, as opposed to a storage fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrShiftAlreadyActive) ||
		errors.Is(err, ErrNoActiveShift) ||
		errors.Is(err, ErrNotesRequired) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrNoSuchEntry) ||
		errors.Is(err, ErrShiftCompleted)
}

// IsNotFound returns true if the error indicates a missing shift.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrShiftNotFound)
}
