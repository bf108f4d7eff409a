/*
repository.go - Collaborator interfaces for the shift core

PURPOSE:
  Narrow interfaces the core depends on. Concrete transport and schema
  live behind them (store/sqlite, store/memory); the core never sees a
  wire format.

CONTRACTS:
  Repository updates are last-write-wins at whole-document granularity.
  LocationProvider must never fail on permission denial - it returns
  nil instead. Clock is injected so time-based thresholds (stationary
  dwell, save interval) are testable.
*/
package shift

import (
	"context"
	"time"
)

// Repository persists shifts. Implementations must treat UpdateShift
// as an atomic whole-document write.
type Repository interface {
	// CreateShift stores a new shift. The shift's ID must be set.
	CreateShift(ctx context.Context, s *Shift) error

	// UpdateShift replaces the stored document for s.ID.
	// Returns ErrShiftNotFound if the shift doesn't exist.
	UpdateShift(ctx context.Context, s *Shift) error

	// GetShift loads a shift by ID. Returns ErrShiftNotFound if absent.
	GetShift(ctx context.Context, id string) (*Shift, error)

	// ActiveShift returns the user's single active shift, or nil when
	// the user is not clocked in.
	ActiveShift(ctx context.Context, userID string) (*Shift, error)

	// DeleteShift removes a shift. Returns ErrShiftNotFound if absent.
	DeleteShift(ctx context.Context, id string) error
}

// LocationProvider acquires the device's current location. The call is
// bounded by timeout; a stalled or denied sensor yields nil, never an
// error.
type LocationProvider interface {
	CurrentLocation(ctx context.Context, timeout time.Duration) *Location
}

// Clock abstracts time.Now for testability.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
