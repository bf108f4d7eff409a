/*
Package lifecycle implements the shift state machine.

PURPOSE:
  Orchestrates clock-in/out, manual break and travel toggles, and
  historical corrections, and owns the GPS tracking task that feeds the
  auto-travel detector while a shift is active.

STATES:
  NoShift -> Active -> Completed. Active is the only state in which
  break, travel, and job-log mutations are legal. OnBreak and Traveling
  are independent orthogonal flags: a user may start a manual break
  while traveling and both stay true.

CONCURRENCY:
  Single writer per shift. All mutating operations for a user are
  serialized behind a per-user lock; cross-user parallelism is safe. A
  re-entrant guard prevents double submission of a clock-in while one
  is in flight. The tracker goroutine routes its mutations through the
  same per-user lock.

ERROR BEHAVIOR:
  Break and travel toggles are deliberately forgiving: with no active
  shift (or no open entry to close) they are silent no-ops returning
  (nil, nil). Clock and edit operations surface errors from the shift
  package's taxonomy.

SEE ALSO:
  - tracker.go: Periodic GPS polling task
  - geo/detector.go: Travel transition state machine
*/
package lifecycle

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/trackdog111/timetrack-nz-sub001/geo"
	"github.com/trackdog111/timetrack-nz-sub001/shift"
)

// Config carries the deployment knobs for the lifecycle service.
type Config struct {
	// TrackingInterval is the GPS polling period while a shift is
	// active and auto-travel is enabled.
	TrackingInterval time.Duration

	// LocationTimeout bounds every location acquisition so a stalled
	// sensor never blocks an operation.
	LocationTimeout time.Duration

	// DetectionDistanceMeters is the geofence radius around the anchor.
	DetectionDistanceMeters float64

	// PaidRestMinutes is the configured paid rest break duration.
	PaidRestMinutes int

	// RequireClockOutNotes rejects clock-out without notes when set.
	RequireClockOutNotes bool

	// AutoTravel starts the tracker on clock-in when set.
	AutoTravel bool
}

func (c Config) withDefaults() Config {
	if c.TrackingInterval <= 0 {
		c.TrackingInterval = time.Minute
	}
	if c.LocationTimeout <= 0 {
		c.LocationTimeout = 5 * time.Second
	}
	if c.DetectionDistanceMeters <= 0 {
		c.DetectionDistanceMeters = geo.DefaultDetectionDistanceMeters
	}
	if c.PaidRestMinutes <= 0 {
		c.PaidRestMinutes = shift.DefaultPaidRestMinutes
	}
	return c
}

// Service is the shift lifecycle state machine.
type Service struct {
	repo      shift.Repository
	locations shift.LocationProvider
	clock     shift.Clock
	cfg       Config
	logger    *logrus.Logger

	mu         sync.Mutex
	userLocks  map[string]*sync.Mutex
	clockingIn map[string]bool
	trackers   map[string]*Tracker
}

// New creates the lifecycle service. A nil clock falls back to the
// system clock.
func New(repo shift.Repository, locations shift.LocationProvider, clock shift.Clock, cfg Config) *Service {
	if clock == nil {
		clock = shift.SystemClock{}
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &Service{
		repo:       repo,
		locations:  locations,
		clock:      clock,
		cfg:        cfg.withDefaults(),
		logger:     logger,
		userLocks:  make(map[string]*sync.Mutex),
		clockingIn: make(map[string]bool),
		trackers:   make(map[string]*Tracker),
	}
}

// Config returns the effective configuration.
func (s *Service) Config() Config { return s.cfg }

// userLock returns the per-user mutex, creating it on first use.
func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.userLocks[userID] = l
	}
	return l
}

// capture acquires the current location with the configured timeout and
// tags it. Returns nil when the sensor is unavailable; operations
// degrade to "no location" rather than failing.
func (s *Service) capture(ctx context.Context, source shift.LocationSource) *shift.Location {
	if s.locations == nil {
		return nil
	}
	loc := s.locations.CurrentLocation(ctx, s.cfg.LocationTimeout)
	if loc == nil {
		return nil
	}
	tagged := loc.Tagged(source)
	if tagged.Timestamp.IsZero() {
		tagged.Timestamp = s.clock.Now()
	}
	return &tagged
}

// =============================================================================
// CLOCK IN / CLOCK OUT
// =============================================================================

// ClockIn opens a new active shift for the user. Fails with
// ErrShiftAlreadyActive when one is already open or a clock-in is
// still in flight. Location capture is best-effort.
func (s *Service) ClockIn(ctx context.Context, userID string) (*shift.Shift, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	// Re-entrant guard against double submission.
	s.mu.Lock()
	if s.clockingIn[userID] {
		s.mu.Unlock()
		return nil, shift.ErrShiftAlreadyActive
	}
	s.clockingIn[userID] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clockingIn, userID)
		s.mu.Unlock()
	}()

	active, err := s.repo.ActiveShift(ctx, userID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to check active shift")
		return nil, err
	}
	if active != nil {
		s.logger.WithField("user_id", userID).Warn("User already has an active shift")
		return nil, shift.ErrShiftAlreadyActive
	}

	now := s.clock.Now()
	loc := s.capture(ctx, shift.SourceClockIn)

	sh := &shift.Shift{
		ID:              uuid.NewString(),
		UserID:          userID,
		ClockIn:         now,
		Status:          shift.StatusActive,
		ClockInLocation: loc,
	}
	if loc != nil {
		sh.AppendLocation(*loc)
	}

	if err := s.repo.CreateShift(ctx, sh); err != nil {
		s.logger.WithError(err).Error("Failed to create shift")
		return nil, err
	}

	if s.cfg.AutoTravel {
		s.startTracker(sh)
	}

	s.logger.WithFields(logrus.Fields{
		"shift_id":     sh.ID,
		"user_id":      userID,
		"has_location": loc != nil,
	}).Info("User clocked in")

	return sh, nil
}

// AttachClockInPhoto records a verification photo reference on an
// existing shift. Called asynchronously after clock-in; never blocks
// the clock-in itself.
func (s *Service) AttachClockInPhoto(ctx context.Context, shiftID, photoURL string) error {
	sh, err := s.repo.GetShift(ctx, shiftID)
	if err != nil {
		return err
	}

	lock := s.userLock(sh.UserID)
	lock.Lock()
	defer lock.Unlock()

	sh, err = s.repo.GetShift(ctx, shiftID)
	if err != nil {
		return err
	}
	if !sh.Active() {
		return shift.ErrShiftCompleted
	}
	sh.ClockInPhotoURL = photoURL
	return s.repo.UpdateShift(ctx, sh)
}

// ClockOut finalizes the user's active shift. Any open break or travel
// segment is closed with a computed duration so no shift is persisted
// with a dangling open entry.
func (s *Service) ClockOut(ctx context.Context, userID, notes string) (*shift.Shift, error) {
	if s.cfg.RequireClockOutNotes && strings.TrimSpace(notes) == "" {
		return nil, shift.ErrNotesRequired
	}

	sh, err := s.clockOutLocked(ctx, userID, notes)
	if err != nil {
		return nil, err
	}

	// The tracker's poll loop takes the same per-user lock, so it must
	// be stopped after the lock is released.
	s.stopTracker(userID)

	s.logger.WithFields(logrus.Fields{
		"shift_id":       sh.ID,
		"user_id":        userID,
		"break_minutes":  sh.BreakMinutes(),
		"travel_minutes": sh.TravelMinutes(),
	}).Info("User clocked out")

	return sh, nil
}

func (s *Service) clockOutLocked(ctx context.Context, userID, notes string) (*shift.Shift, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sh, err := s.repo.ActiveShift(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, shift.ErrNoActiveShift
	}

	now := s.clock.Now()
	loc := s.capture(ctx, shift.SourceClockOut)

	if b := sh.OpenBreak(); b != nil {
		closeBreak(b, now, loc)
	}
	if t := sh.OpenTravel(); t != nil {
		closeTravel(t, now, loc, false)
	}

	sh.ClockOut = &now
	sh.ClockOutLocation = loc
	if notes != "" {
		sh.Notes = notes
	}
	sh.Status = shift.StatusCompleted
	if loc != nil {
		sh.AppendLocation(*loc)
	}

	if err := s.repo.UpdateShift(ctx, sh); err != nil {
		s.logger.WithError(err).Error("Failed to complete shift")
		return nil, err
	}

	return sh, nil
}

// =============================================================================
// BREAKS
// =============================================================================

// StartBreak opens a break on the user's active shift. A missing
// active shift or an already open break is a silent no-op.
func (s *Service) StartBreak(ctx context.Context, userID string) (*shift.Shift, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sh, err := s.repo.ActiveShift(ctx, userID)
	if err != nil || sh == nil {
		return nil, err
	}
	if sh.OpenBreak() != nil {
		return sh, nil
	}

	loc := s.capture(ctx, shift.SourceBreakStart)
	sh.Breaks = append(sh.Breaks, shift.Break{
		StartTime:     s.clock.Now(),
		StartLocation: loc,
	})
	if loc != nil {
		sh.AppendLocation(*loc)
	}

	if err := s.repo.UpdateShift(ctx, sh); err != nil {
		return nil, err
	}
	s.logger.WithField("shift_id", sh.ID).Info("Break started")
	return sh, nil
}

// EndBreak closes the open break, computing its duration. A missing
// active shift or open break is a silent no-op.
func (s *Service) EndBreak(ctx context.Context, userID string) (*shift.Shift, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sh, err := s.repo.ActiveShift(ctx, userID)
	if err != nil || sh == nil {
		return nil, err
	}
	b := sh.OpenBreak()
	if b == nil {
		return sh, nil
	}

	now := s.clock.Now()
	loc := s.capture(ctx, shift.SourceBreakEnd)
	closeBreak(b, now, loc)
	if loc != nil {
		sh.AppendLocation(*loc)
	}

	if err := s.repo.UpdateShift(ctx, sh); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"shift_id": sh.ID,
		"minutes":  b.Minutes(),
	}).Info("Break ended")
	return sh, nil
}

// AddManualBreak inserts an already-closed break with a fixed duration
// on the user's active shift. Manual entries never interact with the
// open/close invariant.
func (s *Service) AddManualBreak(ctx context.Context, userID string, durationMinutes int) (*shift.Shift, error) {
	if durationMinutes <= 0 {
		return nil, shift.ErrInvalidDuration
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sh, err := s.repo.ActiveShift(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, shift.ErrNoActiveShift
	}

	now := s.clock.Now()
	sh.Breaks = append(sh.Breaks, manualBreak(now, durationMinutes))

	if err := s.repo.UpdateShift(ctx, sh); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"shift_id": sh.ID,
		"minutes":  durationMinutes,
	}).Info("Manual break recorded")
	return sh, nil
}

// =============================================================================
// TRAVEL
// =============================================================================

// StartTravel opens a travel segment on the user's active shift. A
// missing active shift or an already open segment is a silent no-op.
func (s *Service) StartTravel(ctx context.Context, userID string) (*shift.Shift, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sh, err := s.repo.ActiveShift(ctx, userID)
	if err != nil || sh == nil {
		return nil, err
	}
	if sh.OpenTravel() != nil {
		return sh, nil
	}

	loc := s.capture(ctx, shift.SourceTravelStart)
	sh.TravelSegments = append(sh.TravelSegments, shift.TravelSegment{
		StartTime:     s.clock.Now(),
		StartLocation: loc,
	})
	if loc != nil {
		sh.AppendLocation(*loc)
	}

	if err := s.repo.UpdateShift(ctx, sh); err != nil {
		return nil, err
	}
	s.logger.WithField("shift_id", sh.ID).Info("Travel started")
	return sh, nil
}

// EndTravel closes the open travel segment. Auto-detected and manually
// started segments share this closing logic. A missing active shift or
// open segment is a silent no-op.
func (s *Service) EndTravel(ctx context.Context, userID string) (*shift.Shift, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sh, err := s.repo.ActiveShift(ctx, userID)
	if err != nil || sh == nil {
		return nil, err
	}
	t := sh.OpenTravel()
	if t == nil {
		return sh, nil
	}

	now := s.clock.Now()
	loc := s.capture(ctx, shift.SourceTravelEnd)
	closeTravel(t, now, loc, false)
	if loc != nil {
		sh.AppendLocation(*loc)
	}

	if err := s.repo.UpdateShift(ctx, sh); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"shift_id": sh.ID,
		"minutes":  t.Minutes(),
	}).Info("Travel ended")
	return sh, nil
}

// SetAutoTravel enables or disables GPS auto-travel detection for the
// user's active shift. Disabling suspends the tracker but leaves an
// already-open auto segment open; only EndTravel or ClockOut closes it.
func (s *Service) SetAutoTravel(ctx context.Context, userID string, enabled bool) error {
	// Tracker start/stop must not run under the per-user lock: the poll
	// loop takes the same lock when applying a sample.
	if !enabled {
		s.stopTracker(userID)
		s.logger.WithField("user_id", userID).Info("Auto-travel disabled")
		return nil
	}

	sh, err := s.repo.ActiveShift(ctx, userID)
	if err != nil {
		return err
	}
	if sh == nil {
		return shift.ErrNoActiveShift
	}

	s.startTracker(sh)
	s.logger.WithField("user_id", userID).Info("Auto-travel enabled")
	return nil
}

// Resume restarts tracking for a user's active shift after a process
// restart. Detector state is reconstructed from the persisted shift;
// the location trail is never replayed.
func (s *Service) Resume(ctx context.Context, userID string) error {
	sh, err := s.repo.ActiveShift(ctx, userID)
	if err != nil {
		return err
	}
	if sh == nil {
		return shift.ErrNoActiveShift
	}

	if s.cfg.AutoTravel {
		s.startTracker(sh)
	}
	return nil
}

// =============================================================================
// READS
// =============================================================================

// Shift loads a shift by ID.
func (s *Service) Shift(ctx context.Context, id string) (*shift.Shift, error) {
	return s.repo.GetShift(ctx, id)
}

// ActiveShift returns the user's active shift, or nil.
func (s *Service) ActiveShift(ctx context.Context, userID string) (*shift.Shift, error) {
	return s.repo.ActiveShift(ctx, userID)
}

// =============================================================================
// HISTORICAL CORRECTIONS
// =============================================================================

// CreateManualShift records a completed historical shift directly.
func (s *Service) CreateManualShift(ctx context.Context, userID string, clockIn, clockOut time.Time, notes string) (*shift.Shift, error) {
	if err := validateTimes(clockIn, clockOut); err != nil {
		return nil, err
	}

	sh := &shift.Shift{
		ID:       uuid.NewString(),
		UserID:   userID,
		ClockIn:  clockIn,
		ClockOut: &clockOut,
		Status:   shift.StatusCompleted,
		Notes:    notes,
	}
	if err := s.repo.CreateShift(ctx, sh); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"shift_id": sh.ID,
		"user_id":  userID,
	}).Info("Manual shift recorded")
	return sh, nil
}

// EditTimes corrects the clock-in/out times of a completed shift.
// Rejects clockOut <= clockIn and durations over 24 hours before any
// mutation.
func (s *Service) EditTimes(ctx context.Context, shiftID string, clockIn, clockOut time.Time, editedBy string) (*shift.Shift, error) {
	if err := validateTimes(clockIn, clockOut); err != nil {
		return nil, err
	}

	sh, err := s.repo.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	lock := s.userLock(sh.UserID)
	lock.Lock()
	defer lock.Unlock()

	sh, err = s.repo.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	sh.ClockIn = clockIn
	sh.ClockOut = &clockOut
	s.stampEdit(sh, editedBy)

	if err := s.repo.UpdateShift(ctx, sh); err != nil {
		return nil, err
	}
	s.logger.WithField("shift_id", shiftID).Info("Shift times edited")
	return sh, nil
}

// AddBreakEntry appends a manual break to a shift as a direct
// correction, bypassing the open/close logic.
func (s *Service) AddBreakEntry(ctx context.Context, shiftID string, start time.Time, durationMinutes int, editedBy string) (*shift.Shift, error) {
	if durationMinutes <= 0 {
		return nil, shift.ErrInvalidDuration
	}
	return s.correct(ctx, shiftID, editedBy, func(sh *shift.Shift) error {
		end := start.Add(time.Duration(durationMinutes) * time.Minute)
		dur := durationMinutes
		sh.Breaks = append(sh.Breaks, shift.Break{
			StartTime:       start,
			EndTime:         &end,
			DurationMinutes: &dur,
			ManualEntry:     true,
		})
		return nil
	})
}

// RemoveBreak removes a break by index as a direct correction.
func (s *Service) RemoveBreak(ctx context.Context, shiftID string, index int, editedBy string) (*shift.Shift, error) {
	return s.correct(ctx, shiftID, editedBy, func(sh *shift.Shift) error {
		if index < 0 || index >= len(sh.Breaks) {
			return shift.ErrNoSuchEntry
		}
		sh.Breaks = append(sh.Breaks[:index], sh.Breaks[index+1:]...)
		return nil
	})
}

// AddTravelEntry appends a closed travel segment to a shift as a
// direct correction.
func (s *Service) AddTravelEntry(ctx context.Context, shiftID string, start time.Time, durationMinutes int, editedBy string) (*shift.Shift, error) {
	if durationMinutes <= 0 {
		return nil, shift.ErrInvalidDuration
	}
	return s.correct(ctx, shiftID, editedBy, func(sh *shift.Shift) error {
		end := start.Add(time.Duration(durationMinutes) * time.Minute)
		dur := durationMinutes
		sh.TravelSegments = append(sh.TravelSegments, shift.TravelSegment{
			StartTime:       start,
			EndTime:         &end,
			DurationMinutes: &dur,
		})
		return nil
	})
}

// RemoveTravel removes a travel segment by index as a direct correction.
func (s *Service) RemoveTravel(ctx context.Context, shiftID string, index int, editedBy string) (*shift.Shift, error) {
	return s.correct(ctx, shiftID, editedBy, func(sh *shift.Shift) error {
		if index < 0 || index >= len(sh.TravelSegments) {
			return shift.ErrNoSuchEntry
		}
		sh.TravelSegments = append(sh.TravelSegments[:index], sh.TravelSegments[index+1:]...)
		return nil
	})
}

// correct loads a shift, applies a mutation under the owner's lock,
// stamps the edit, and persists.
func (s *Service) correct(ctx context.Context, shiftID, editedBy string, fn func(*shift.Shift) error) (*shift.Shift, error) {
	sh, err := s.repo.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	lock := s.userLock(sh.UserID)
	lock.Lock()
	defer lock.Unlock()

	sh, err = s.repo.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if err := fn(sh); err != nil {
		return nil, err
	}
	s.stampEdit(sh, editedBy)

	if err := s.repo.UpdateShift(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *Service) stampEdit(sh *shift.Shift, editedBy string) {
	now := s.clock.Now()
	sh.EditedAt = &now
	sh.EditedBy = editedBy
}

// Close stops all trackers. Called on shutdown.
func (s *Service) Close() {
	s.mu.Lock()
	trackers := make([]*Tracker, 0, len(s.trackers))
	for _, t := range s.trackers {
		trackers = append(trackers, t)
	}
	s.trackers = make(map[string]*Tracker)
	s.mu.Unlock()

	for _, t := range trackers {
		t.Stop()
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func closeBreak(b *shift.Break, now time.Time, loc *shift.Location) {
	dur := shift.RoundedMinutes(b.StartTime, now)
	b.EndTime = &now
	b.DurationMinutes = &dur
	b.EndLocation = loc
}

func closeTravel(t *shift.TravelSegment, now time.Time, loc *shift.Location, auto bool) {
	dur := shift.RoundedMinutes(t.StartTime, now)
	t.EndTime = &now
	t.DurationMinutes = &dur
	t.EndLocation = loc
	if auto {
		t.AutoEnded = true
	}
}

// manualBreak builds an already-closed break entry ending now.
func manualBreak(now time.Time, durationMinutes int) shift.Break {
	start := now.Add(-time.Duration(durationMinutes) * time.Minute)
	dur := durationMinutes
	end := now
	return shift.Break{
		StartTime:       start,
		EndTime:         &end,
		DurationMinutes: &dur,
		ManualEntry:     true,
	}
}

func validateTimes(clockIn, clockOut time.Time) error {
	if !clockOut.After(clockIn) {
		return &shift.InvalidDurationError{ClockIn: clockIn, ClockOut: clockOut, Reason: "end_before_start"}
	}
	if clockOut.Sub(clockIn) > 24*time.Hour {
		return &shift.InvalidDurationError{ClockIn: clockIn, ClockOut: clockOut, Reason: "exceeds_24h"}
	}
	return nil
}
