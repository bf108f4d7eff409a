/*
tracker.go - Periodic GPS polling task

PURPOSE:
  While a shift is active and auto-travel is enabled, polls the
  location sensor on a timer and drives the sample filter and geofence
  detector. Each tick: acquire location (bounded by the hard timeout) ->
  filter -> detector step -> apply any resulting shift mutation.

OWNERSHIP:
  One tracker per active shift, started on clock-in (or when
  auto-travel is toggled on) and cancelled on clock-out, toggle-off, or
  shutdown. No detector state survives past the shift it belongs to;
  a restart rebuilds it via geo.Resume.

DESIGN:
  - Ticker + stop channel + WaitGroup, same shape as any background
    task in this codebase
  - Filter state (last recorded sample, last save time) advances only
    after the mutation is persisted, so a failed write is retried by
    the next accepted sample
  - Mutations go through the service's per-user lock, serializing with
    user-initiated break/travel/clock operations
*/
package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/trackdog111/timetrack-nz-sub001/geo"
	"github.com/trackdog111/timetrack-nz-sub001/shift"
)

// Tracker polls GPS for one active shift and feeds the auto-travel
// detector.
type Tracker struct {
	shiftID  string
	userID   string
	interval time.Duration

	svc      *Service
	filter   geo.SampleFilter
	detector geo.Detector

	mu           sync.Mutex
	state        geo.State
	lastRecorded *shift.Location
	lastSave     time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	runMu  sync.Mutex
}

// newTracker builds a tracker with detector state reconstructed from
// the persisted shift.
func newTracker(svc *Service, sh *shift.Shift) *Tracker {
	detector := geo.NewDetector()
	detector.DetectionDistanceMeters = svc.cfg.DetectionDistanceMeters

	return &Tracker{
		shiftID:  sh.ID,
		userID:   sh.UserID,
		interval: svc.cfg.TrackingInterval,
		svc:      svc,
		filter:   geo.NewSampleFilter(),
		detector: detector,
		state:    geo.Resume(sh),
		stop:     make(chan struct{}),
	}
}

// Start begins periodic polling.
func (t *Tracker) Start() {
	t.runMu.Lock()
	defer t.runMu.Unlock()

	if t.ticker != nil {
		return
	}
	t.ticker = time.NewTicker(t.interval)
	t.wg.Add(1)
	go t.run()

	t.svc.logger.WithFields(logrus.Fields{
		"shift_id": t.shiftID,
		"interval": t.interval,
	}).Info("Tracker started")
}

// Stop cancels polling and waits for the loop to exit.
func (t *Tracker) Stop() {
	t.runMu.Lock()
	defer t.runMu.Unlock()

	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	close(t.stop)
	t.wg.Wait()
	t.ticker = nil

	t.svc.logger.WithField("shift_id", t.shiftID).Info("Tracker stopped")
}

func (t *Tracker) run() {
	defer t.wg.Done()
	for {
		select {
		case <-t.ticker.C:
			t.Poll(context.Background())
		case <-t.stop:
			return
		}
	}
}

// Poll performs one tick: acquire, filter, detect, persist. Exported
// so tests can drive ticks deterministically with an injected clock.
func (t *Tracker) Poll(ctx context.Context) {
	loc := t.svc.capture(ctx, shift.SourceTracking)
	if loc == nil {
		return
	}
	t.Process(ctx, *loc)
}

// Process feeds one sample through the filter and detector. Samples
// may also arrive pushed from a client instead of the polled provider.
func (t *Tracker) Process(ctx context.Context, sample shift.Location) {
	now := t.svc.clock.Now()
	loc := &sample
	if loc.Source == "" {
		loc.Source = shift.SourceTracking
	}
	if loc.Timestamp.IsZero() {
		loc.Timestamp = now
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.filter.Accept(*loc, t.lastRecorded, t.lastSave, now) {
		return
	}

	state, events := t.detector.Step(t.state, *loc, now)

	if err := t.apply(ctx, *loc, events, now); err != nil {
		t.svc.logger.WithError(err).WithField("shift_id", t.shiftID).Error("Failed to apply tracking sample")
		return
	}

	// Advance filter and detector state only after the write landed.
	t.state = state
	t.lastRecorded = loc
	t.lastSave = now
}

// apply records the sample in the location trail and applies detector
// events to the shift, under the owner's lock.
func (t *Tracker) apply(ctx context.Context, sample shift.Location, events []geo.Event, now time.Time) error {
	lock := t.svc.userLock(t.userID)
	lock.Lock()
	defer lock.Unlock()

	sh, err := t.svc.repo.GetShift(ctx, t.shiftID)
	if err != nil {
		return err
	}
	if !sh.Active() {
		return nil
	}

	sh.AppendLocation(sample)

	for _, ev := range events {
		switch ev.Kind {
		case geo.EventTravelStart:
			if sh.OpenTravel() != nil {
				continue
			}
			start := ev.Sample
			sh.TravelSegments = append(sh.TravelSegments, shift.TravelSegment{
				StartTime:     now,
				StartLocation: &start,
				AutoStarted:   true,
			})
			sh.AppendLocation(ev.Sample)
			t.svc.logger.WithField("shift_id", sh.ID).Info("Auto travel started")

		case geo.EventTravelEnd:
			seg := sh.OpenTravel()
			if seg == nil {
				continue
			}
			end := ev.Sample
			closeTravel(seg, now, &end, true)
			sh.AppendLocation(ev.Sample)
			t.svc.logger.WithFields(logrus.Fields{
				"shift_id": sh.ID,
				"reason":   string(ev.Reason),
				"minutes":  seg.Minutes(),
			}).Info("Auto travel ended")
		}
	}

	return t.svc.repo.UpdateShift(ctx, sh)
}

// =============================================================================
// SERVICE TRACKER MANAGEMENT
// =============================================================================

// startTracker starts (or restarts) the tracking task for a shift.
func (s *Service) startTracker(sh *shift.Shift) {
	s.mu.Lock()
	if existing, ok := s.trackers[sh.UserID]; ok && existing.shiftID == sh.ID {
		s.mu.Unlock()
		return
	}
	tracker := newTracker(s, sh)
	old := s.trackers[sh.UserID]
	s.trackers[sh.UserID] = tracker
	s.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	tracker.Start()
}

// stopTracker cancels the user's tracking task if one is running.
func (s *Service) stopTracker(userID string) {
	s.mu.Lock()
	tracker, ok := s.trackers[userID]
	delete(s.trackers, userID)
	s.mu.Unlock()

	if ok {
		tracker.Stop()
	}
}

// TrackerFor returns the user's running tracker, or nil. Used by
// tests and the resume path.
func (s *Service) TrackerFor(userID string) *Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trackers[userID]
}

// ReportLocation feeds a client-pushed GPS sample into the user's
// tracking pipeline. Server deployments have no sensor of their own;
// the mobile client reports samples instead. With auto-travel off
// there is no tracker and the sample is dropped.
func (s *Service) ReportLocation(ctx context.Context, userID string, sample shift.Location) error {
	tracker := s.TrackerFor(userID)
	if tracker == nil {
		return shift.ErrNoActiveShift
	}
	tracker.Process(ctx, sample)
	return nil
}
