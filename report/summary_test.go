package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackdog111/timetrack-nz-sub001/report"
	"github.com/trackdog111/timetrack-nz-sub001/shift"
)

func completedShift(id string, clockIn time.Time, hours float64, breakMinutes, travelMinutes int) *shift.Shift {
	clockOut := clockIn.Add(time.Duration(hours * float64(time.Hour)))
	sh := &shift.Shift{
		ID:       id,
		UserID:   "u-1",
		ClockIn:  clockIn,
		ClockOut: &clockOut,
		Status:   shift.StatusCompleted,
	}
	if breakMinutes > 0 {
		end := clockIn.Add(time.Duration(breakMinutes) * time.Minute)
		dur := breakMinutes
		sh.Breaks = []shift.Break{{StartTime: clockIn, EndTime: &end, DurationMinutes: &dur}}
	}
	if travelMinutes > 0 {
		end := clockIn.Add(time.Duration(travelMinutes) * time.Minute)
		dur := travelMinutes
		sh.TravelSegments = []shift.TravelSegment{{StartTime: clockIn, EndTime: &end, DurationMinutes: &dur}}
	}
	return sh
}

var reportStart = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)

func TestSummarize_CompletedShift(t *testing.T) {
	// GIVEN: A completed 8.5-hour shift with 45 break minutes and 20
	//        travel minutes
	// THEN: Hours are exact decimal, entitlement is the [6,10) tier, and
	//       the allocation caps paid minutes at the entitlement

	sh := completedShift("s-1", reportStart, 8.5, 45, 20)

	sum := report.Summarize(sh, reportStart.Add(100*time.Hour), 10)

	assert.Equal(t, "8.5", sum.HoursWorked.String())
	assert.Equal(t, 45, sum.BreakMinutes)
	assert.Equal(t, 20, sum.TravelMinutes)

	assert.Equal(t, 2, sum.Entitlement.PaidBreaks)
	assert.Equal(t, 1, sum.Entitlement.UnpaidBreaks)
	assert.Equal(t, 20, sum.Entitlement.PaidMinutes)

	assert.Equal(t, 20, sum.Allocation.Paid)
	assert.Equal(t, 25, sum.Allocation.Unpaid)
	assert.Equal(t, 45, sum.Allocation.Total)
}

func TestSummarize_ActiveShiftUsesAsOf(t *testing.T) {
	sh := &shift.Shift{
		ID:      "s-1",
		UserID:  "u-1",
		ClockIn: reportStart,
		Status:  shift.StatusActive,
	}

	sum := report.Summarize(sh, reportStart.Add(3*time.Hour), 10)

	assert.Equal(t, "3", sum.HoursWorked.String())
	assert.Equal(t, 1, sum.Entitlement.PaidBreaks)
	assert.Equal(t, 0, sum.Entitlement.UnpaidBreaks)
}

func TestSummarize_RoundsToTwoPlaces(t *testing.T) {
	// 7h50m = 7.8333... hours, displayed as 7.83.
	sh := completedShift("s-1", reportStart, 0, 0, 0)
	out := reportStart.Add(7*time.Hour + 50*time.Minute)
	sh.ClockOut = &out

	sum := report.Summarize(sh, reportStart, 10)

	assert.Equal(t, "7.83", sum.HoursWorked.String())
}

func TestSummarizeWeek_Aggregates(t *testing.T) {
	// GIVEN: Three shifts in the window
	// THEN: Totals sum per-shift summaries, each shift's paid minutes
	//       already capped by its own entitlement

	shifts := []*shift.Shift{
		completedShift("s-1", reportStart, 8, 30, 15),                   // paid 20, unpaid 10
		completedShift("s-2", reportStart.AddDate(0, 0, 1), 4, 10, 0),   // paid 10, unpaid 0
		completedShift("s-3", reportStart.AddDate(0, 0, 2), 1.5, 20, 5), // paid 0, unpaid 20
	}

	week := report.SummarizeWeek("u-1", shifts, reportStart, reportStart.AddDate(0, 0, 7),
		reportStart.AddDate(0, 0, 7), 10)

	require.Len(t, week.Shifts, 3)
	assert.Equal(t, "13.5", week.TotalHours.String())
	assert.Equal(t, 30, week.PaidMinutes)
	assert.Equal(t, 30, week.UnpaidMinutes)
	assert.Equal(t, 20, week.TravelMinutes)
}

func TestSummarizeWeek_Empty(t *testing.T) {
	week := report.SummarizeWeek("u-1", nil, reportStart, reportStart.AddDate(0, 0, 7),
		reportStart, 10)

	assert.Empty(t, week.Shifts)
	assert.True(t, week.TotalHours.IsZero())
	assert.Zero(t, week.PaidMinutes)
}
