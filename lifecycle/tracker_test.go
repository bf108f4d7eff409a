package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackdog111/timetrack-nz-sub001/lifecycle"
	"github.com/trackdog111/timetrack-nz-sub001/shift"
	"github.com/trackdog111/timetrack-nz-sub001/store/memory"
)

// metersPerDegreeLat on the 6371 km sphere.
const metersPerDegreeLat = 111194.9

// north returns a fix offset north of the office by the given meters.
func north(meters float64) shift.Location {
	loc := officeLocation()
	loc.Latitude += meters / metersPerDegreeLat
	return loc
}

// trackingConfig keeps the real ticker quiet so tests drive ticks
// themselves.
func trackingConfig() lifecycle.Config {
	return lifecycle.Config{
		AutoTravel:       true,
		TrackingInterval: time.Hour,
	}
}

func clockInTracked(t *testing.T, svc *lifecycle.Service, provider *fakeProvider, userID string) *shift.Shift {
	t.Helper()
	provider.push(officeLocation())
	sh, err := svc.ClockIn(context.Background(), userID)
	require.NoError(t, err)
	return sh
}

// =============================================================================
// AUTO-TRAVEL DETECTION
// =============================================================================

func TestTracker_StartsOnClockIn(t *testing.T) {
	svc, _, provider := newTestService(t, trackingConfig())

	clockInTracked(t, svc, provider, "u-1")

	assert.NotNil(t, svc.TrackerFor("u-1"))
}

func TestTracker_DetectsTravelRoundTrip(t *testing.T) {
	// GIVEN: A tracked shift anchored at the clock-in location
	// WHEN: Samples leave the 200 m geofence and later return
	// THEN: One travel segment, auto-started and auto-ended, with the
	//       transitions tagged in the location trail

	svc, clock, provider := newTestService(t, trackingConfig())
	sh := clockInTracked(t, svc, provider, "u-1")
	tracker := svc.TrackerFor("u-1")
	require.NotNil(t, tracker)
	ctx := context.Background()

	// Depart.
	clock.Advance(time.Minute)
	tracker.Process(ctx, north(250))

	got, err := svc.Shift(ctx, sh.ID)
	require.NoError(t, err)
	require.Len(t, got.TravelSegments, 1)
	assert.True(t, got.TravelSegments[0].AutoStarted)
	assert.True(t, got.TravelSegments[0].Open())

	// Return.
	clock.Advance(10 * time.Minute)
	tracker.Process(ctx, north(100))

	got, err = svc.Shift(ctx, sh.ID)
	require.NoError(t, err)
	require.Len(t, got.TravelSegments, 1)
	seg := got.TravelSegments[0]
	assert.False(t, seg.Open())
	assert.True(t, seg.AutoEnded)
	assert.Equal(t, 10, seg.Minutes())

	sources := make(map[shift.LocationSource]bool)
	for _, loc := range got.LocationHistory {
		sources[loc.Source] = true
	}
	assert.True(t, sources[shift.SourceTravelStart])
	assert.True(t, sources[shift.SourceTravelEnd])
}

func TestTracker_FilterRejectsJitter(t *testing.T) {
	// GIVEN: A recorded departure sample
	// WHEN: The next sample is within 30 m of it
	// THEN: Nothing new lands in the trail

	svc, clock, provider := newTestService(t, trackingConfig())
	sh := clockInTracked(t, svc, provider, "u-1")
	tracker := svc.TrackerFor("u-1")
	ctx := context.Background()

	clock.Advance(time.Minute)
	tracker.Process(ctx, north(250))

	got, err := svc.Shift(ctx, sh.ID)
	require.NoError(t, err)
	trailLen := len(got.LocationHistory)

	clock.Advance(time.Minute)
	tracker.Process(ctx, north(255))

	got, err = svc.Shift(ctx, sh.ID)
	require.NoError(t, err)
	assert.Len(t, got.LocationHistory, trailLen)
}

func TestTracker_PollUsesProvider(t *testing.T) {
	// Poll acquires from the sensor and tags the sample as tracking.

	svc, clock, provider := newTestService(t, trackingConfig())
	sh := clockInTracked(t, svc, provider, "u-1")
	tracker := svc.TrackerFor("u-1")
	ctx := context.Background()

	clock.Advance(time.Minute)
	provider.push(north(300))
	tracker.Poll(ctx)

	got, err := svc.Shift(ctx, sh.ID)
	require.NoError(t, err)
	require.NotEmpty(t, got.LocationHistory)
	assert.Equal(t, shift.SourceTracking, got.LocationHistory[1].Source)
	require.Len(t, got.TravelSegments, 1)
}

func TestTracker_StopsOnClockOut(t *testing.T) {
	svc, _, provider := newTestService(t, trackingConfig())
	clockInTracked(t, svc, provider, "u-1")

	_, err := svc.ClockOut(context.Background(), "u-1", "")
	require.NoError(t, err)

	assert.Nil(t, svc.TrackerFor("u-1"))
}

// =============================================================================
// AUTO-TRAVEL TOGGLE AND RESUME
// =============================================================================

func TestSetAutoTravel_Toggle(t *testing.T) {
	svc, _, provider := newTestService(t, trackingConfig())
	clockInTracked(t, svc, provider, "u-1")
	ctx := context.Background()

	require.NoError(t, svc.SetAutoTravel(ctx, "u-1", false))
	assert.Nil(t, svc.TrackerFor("u-1"))

	require.NoError(t, svc.SetAutoTravel(ctx, "u-1", true))
	assert.NotNil(t, svc.TrackerFor("u-1"))
}

func TestSetAutoTravel_EnableWithoutActiveShift(t *testing.T) {
	svc, _, _ := newTestService(t, trackingConfig())

	err := svc.SetAutoTravel(context.Background(), "u-1", true)
	assert.ErrorIs(t, err, shift.ErrNoActiveShift)
}

func TestSetAutoTravel_DisableLeavesOpenSegment(t *testing.T) {
	// Disabling tracking suspends detection but never closes an open
	// auto segment; only EndTravel or ClockOut does.

	svc, clock, provider := newTestService(t, trackingConfig())
	sh := clockInTracked(t, svc, provider, "u-1")
	tracker := svc.TrackerFor("u-1")
	ctx := context.Background()

	clock.Advance(time.Minute)
	tracker.Process(ctx, north(250))

	require.NoError(t, svc.SetAutoTravel(ctx, "u-1", false))

	got, err := svc.Shift(ctx, sh.ID)
	require.NoError(t, err)
	require.NotNil(t, got.OpenTravel())
}

func TestResume_RestartsTrackingAfterRestart(t *testing.T) {
	// GIVEN: An active shift persisted by a previous process
	// WHEN: A new service resumes the user
	// THEN: A tracker is running again, anchored from persisted data

	repo := memory.New()
	clock := newFakeClock(testStart)
	provider := &fakeProvider{}

	first := lifecycle.New(repo, provider, clock, trackingConfig())
	provider.push(officeLocation())
	_, err := first.ClockIn(context.Background(), "u-1")
	require.NoError(t, err)
	first.Close()

	second := lifecycle.New(repo, provider, clock, trackingConfig())
	t.Cleanup(second.Close)

	require.NoError(t, second.Resume(context.Background(), "u-1"))
	assert.NotNil(t, second.TrackerFor("u-1"))
}

func TestResume_NoActiveShift(t *testing.T) {
	svc, _, _ := newTestService(t, trackingConfig())

	err := svc.Resume(context.Background(), "u-1")
	assert.ErrorIs(t, err, shift.ErrNoActiveShift)
}

// =============================================================================
// PUSHED SAMPLES
// =============================================================================

func TestReportLocation_FeedsTracker(t *testing.T) {
	svc, clock, provider := newTestService(t, trackingConfig())
	sh := clockInTracked(t, svc, provider, "u-1")
	ctx := context.Background()

	clock.Advance(time.Minute)
	require.NoError(t, svc.ReportLocation(ctx, "u-1", north(250)))

	got, err := svc.Shift(ctx, sh.ID)
	require.NoError(t, err)
	require.Len(t, got.TravelSegments, 1)
	assert.True(t, got.TravelSegments[0].AutoStarted)
}

func TestReportLocation_NoTracker(t *testing.T) {
	svc, _, _ := newTestService(t, lifecycle.Config{})

	err := svc.ReportLocation(context.Background(), "u-1", north(250))
	assert.ErrorIs(t, err, shift.ErrNoActiveShift)
}
