package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackdog111/timetrack-nz-sub001/shift"
	"github.com/trackdog111/timetrack-nz-sub001/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func ms(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli())
}

func fullShift(id, userID string) *shift.Shift {
	clockIn := ms(time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC))
	clockOut := clockIn.Add(8 * time.Hour)
	breakEnd := clockIn.Add(4*time.Hour + 30*time.Minute)
	breakDur := 30
	travelEnd := clockIn.Add(2*time.Hour + 15*time.Minute)
	travelDur := 15

	inLoc := shift.Location{Latitude: -36.8485, Longitude: 174.7633, Accuracy: 5,
		Timestamp: clockIn, Source: shift.SourceClockIn}
	outLoc := inLoc.Tagged(shift.SourceClockOut)

	return &shift.Shift{
		ID:              id,
		UserID:          userID,
		ClockIn:         clockIn,
		ClockOut:        &clockOut,
		Status:          shift.StatusCompleted,
		Notes:           "installed the panel",
		ClockInPhotoURL: "https://photos/1.jpg",
		Breaks: []shift.Break{
			{
				StartTime:       clockIn.Add(4 * time.Hour),
				EndTime:         &breakEnd,
				DurationMinutes: &breakDur,
				StartLocation:   &inLoc,
			},
		},
		TravelSegments: []shift.TravelSegment{
			{
				StartTime:       clockIn.Add(2 * time.Hour),
				EndTime:         &travelEnd,
				DurationMinutes: &travelDur,
				AutoStarted:     true,
				AutoEnded:       true,
				EndLocation:     &outLoc,
			},
		},
		LocationHistory:  []shift.Location{inLoc, outLoc},
		ClockInLocation:  &inLoc,
		ClockOutLocation: &outLoc,
	}
}

// =============================================================================
// ROUND TRIP
// =============================================================================

func TestStore_RoundTrip(t *testing.T) {
	// GIVEN: A fully populated completed shift
	// WHEN: Created and read back
	// THEN: Every field survives, including the JSON documents

	store := newTestStore(t)
	ctx := context.Background()
	want := fullShift("s-1", "u-1")

	require.NoError(t, store.CreateShift(ctx, want))

	got, err := store.GetShift(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_UpdateIsLastWriteWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sh := fullShift("s-1", "u-1")
	require.NoError(t, store.CreateShift(ctx, sh))

	sh.Notes = "corrected notes"
	dur := 45
	sh.Breaks[0].DurationMinutes = &dur
	require.NoError(t, store.UpdateShift(ctx, sh))

	got, err := store.GetShift(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "corrected notes", got.Notes)
	assert.Equal(t, 45, got.Breaks[0].Minutes())
}

func TestStore_GetUnknownShift(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetShift(context.Background(), "nope")
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)
}

func TestStore_UpdateUnknownShift(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateShift(context.Background(), fullShift("nope", "u-1"))
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)
}

func TestStore_DeleteShift(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateShift(ctx, fullShift("s-1", "u-1")))
	require.NoError(t, store.DeleteShift(ctx, "s-1"))

	_, err := store.GetShift(ctx, "s-1")
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)

	assert.ErrorIs(t, store.DeleteShift(ctx, "s-1"), shift.ErrShiftNotFound)
}

// =============================================================================
// ACTIVE SHIFT INVARIANT
// =============================================================================

func TestStore_ActiveShift(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// No active shift returns (nil, nil), not an error.
	got, err := store.ActiveShift(ctx, "u-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	active := fullShift("s-1", "u-1")
	active.Status = shift.StatusActive
	active.ClockOut = nil
	require.NoError(t, store.CreateShift(ctx, active))

	got, err = store.ActiveShift(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s-1", got.ID)
}

func TestStore_SecondActiveShiftRejectedByIndex(t *testing.T) {
	// GIVEN: An active shift for the user
	// WHEN: Inserting a second active shift, bypassing the service
	// THEN: The partial unique index rejects it; a completed shift for
	//       the same user is fine

	store := newTestStore(t)
	ctx := context.Background()

	first := fullShift("s-1", "u-1")
	first.Status = shift.StatusActive
	first.ClockOut = nil
	require.NoError(t, store.CreateShift(ctx, first))

	second := fullShift("s-2", "u-1")
	second.Status = shift.StatusActive
	second.ClockOut = nil
	assert.Error(t, store.CreateShift(ctx, second))

	completed := fullShift("s-3", "u-1")
	assert.NoError(t, store.CreateShift(ctx, completed))
}

// =============================================================================
// COMPATIBILITY
// =============================================================================

func TestStore_EmptySequencesRoundTripAsEmpty(t *testing.T) {
	// A shift persisted with no breaks, travel, or locations reads back
	// with empty (non-nil) sequences.

	store := newTestStore(t)
	ctx := context.Background()

	sh := fullShift("s-1", "u-1")
	sh.Breaks = nil
	sh.TravelSegments = nil
	sh.LocationHistory = nil
	sh.ClockInLocation = nil
	sh.ClockOutLocation = nil
	require.NoError(t, store.CreateShift(ctx, sh))

	got, err := store.GetShift(ctx, "s-1")
	require.NoError(t, err)
	assert.NotNil(t, got.Breaks)
	assert.Empty(t, got.Breaks)
	assert.Empty(t, got.TravelSegments)
	assert.Empty(t, got.LocationHistory)
	assert.Nil(t, got.ClockInLocation)
	assert.Nil(t, got.ClockOutLocation)
}

// =============================================================================
// LISTING
// =============================================================================

func TestStore_ListShiftsInRange(t *testing.T) {
	// GIVEN: Shifts across several days for two users
	// WHEN: Listing a 7-day window for one user
	// THEN: Only that user's shifts clocking in within [from, to),
	//       oldest first

	store := newTestStore(t)
	ctx := context.Background()
	base := ms(time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC))

	makeAt := func(id string, userID string, clockIn time.Time) *shift.Shift {
		sh := fullShift(id, userID)
		sh.ClockIn = clockIn
		out := clockIn.Add(8 * time.Hour)
		sh.ClockOut = &out
		return sh
	}

	require.NoError(t, store.CreateShift(ctx, makeAt("s-before", "u-1", base.AddDate(0, 0, -1))))
	require.NoError(t, store.CreateShift(ctx, makeAt("s-day3", "u-1", base.AddDate(0, 0, 3))))
	require.NoError(t, store.CreateShift(ctx, makeAt("s-day1", "u-1", base.AddDate(0, 0, 1))))
	require.NoError(t, store.CreateShift(ctx, makeAt("s-other", "u-2", base.AddDate(0, 0, 2))))
	require.NoError(t, store.CreateShift(ctx, makeAt("s-after", "u-1", base.AddDate(0, 0, 7))))

	got, err := store.ListShiftsInRange(ctx, "u-1", base, base.AddDate(0, 0, 7))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "s-day1", got[0].ID)
	assert.Equal(t, "s-day3", got[1].ID)
}

func TestStore_ListShifts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := ms(time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC))

	for i := 0; i < 3; i++ {
		sh := fullShift("s-"+string(rune('a'+i)), "u-1")
		sh.ClockIn = base.AddDate(0, 0, i)
		require.NoError(t, store.CreateShift(ctx, sh))
	}

	got, err := store.ListShifts(ctx, "u-1", 2)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "s-c", got[0].ID, "newest first")
	assert.Equal(t, "s-b", got[1].ID)
}
