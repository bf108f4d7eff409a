package shift_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trackdog111/timetrack-nz-sub001/shift"
)

func closedBreak(minutes int) shift.Break {
	start := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Duration(minutes) * time.Minute)
	dur := minutes
	return shift.Break{StartTime: start, EndTime: &end, DurationMinutes: &dur}
}

func TestAllocate_SplitsAgainstEntitlement(t *testing.T) {
	// GIVEN: 45 break minutes taken on a 6-hour shift (entitlement:
	//        20 paid minutes)
	// WHEN: Allocating
	// THEN: First 20 minutes paid, remaining 25 unpaid

	breaks := []shift.Break{closedBreak(15), closedBreak(30)}

	got := shift.Allocate(breaks, 6, 10)

	assert.Equal(t, 20, got.Paid)
	assert.Equal(t, 25, got.Unpaid)
	assert.Equal(t, 45, got.Total)
}

func TestAllocate_UnderEntitlementIsAllPaid(t *testing.T) {
	// GIVEN: 10 break minutes on a 6-hour shift (20 paid minutes allowed)
	// THEN: All taken minutes are paid, nothing unpaid

	got := shift.Allocate([]shift.Break{closedBreak(10)}, 6, 10)

	assert.Equal(t, 10, got.Paid)
	assert.Equal(t, 0, got.Unpaid)
	assert.Equal(t, 10, got.Total)
}

func TestAllocate_NoBreaks(t *testing.T) {
	got := shift.Allocate(nil, 8, 10)
	assert.Equal(t, shift.AllocationResult{}, got)
}

func TestAllocate_ShortShiftHasNoPaidBudget(t *testing.T) {
	// GIVEN: A break taken on a shift under two hours (zero entitlement)
	// THEN: Every minute is unpaid

	got := shift.Allocate([]shift.Break{closedBreak(15)}, 1.5, 10)

	assert.Equal(t, 0, got.Paid)
	assert.Equal(t, 15, got.Unpaid)
}

func TestAllocate_OpenBreaksCountAsZero(t *testing.T) {
	// GIVEN: A still-open break (no duration yet) alongside a closed one
	// THEN: Only the closed break's minutes enter the split

	open := shift.Break{StartTime: time.Date(2026, time.March, 2, 14, 0, 0, 0, time.UTC)}
	got := shift.Allocate([]shift.Break{open, closedBreak(10)}, 6, 10)

	assert.Equal(t, 10, got.Total)
	assert.Equal(t, 10, got.Paid)
}

func TestAllocate_OrderIndependent(t *testing.T) {
	// The split is by cumulative sum; shuffling break order must not
	// change the result.

	a := shift.Allocate([]shift.Break{closedBreak(5), closedBreak(40)}, 6, 10)
	b := shift.Allocate([]shift.Break{closedBreak(40), closedBreak(5)}, 6, 10)

	assert.Equal(t, a, b)
}
