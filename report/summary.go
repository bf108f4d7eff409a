/*
Package report derives the numbers the shift screens display: hours
worked, the statutory break entitlement, the paid/unpaid allocation of
the breaks actually taken, and travel totals.

Display arithmetic uses decimal.Decimal so aggregated hours don't drift
the way binary floats do; the statutory calculators themselves stay on
the shift package's integer-minute model.
*/
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/trackdog111/timetrack-nz-sub001/shift"
)

var msPerHour = decimal.NewFromInt(3600000)

// Summary is the derived reporting view of one shift. Never persisted.
type Summary struct {
	ShiftID       string
	UserID        string
	Status        shift.Status
	HoursWorked   decimal.Decimal
	BreakMinutes  int
	TravelMinutes int
	Entitlement   shift.EntitlementResult
	Allocation    shift.AllocationResult
}

// Summarize computes the reporting view of a shift. For an active
// shift the hours run up to asOf.
func Summarize(s *shift.Shift, asOf time.Time, paidRestMinutes int) Summary {
	hours := s.HoursWorked(asOf)

	return Summary{
		ShiftID:       s.ID,
		UserID:        s.UserID,
		Status:        s.Status,
		HoursWorked:   hoursDecimal(s, asOf),
		BreakMinutes:  s.BreakMinutes(),
		TravelMinutes: s.TravelMinutes(),
		Entitlement:   shift.Entitlements(hours, paidRestMinutes),
		Allocation:    shift.Allocate(s.Breaks, hours, paidRestMinutes),
	}
}

// WeekSummary aggregates a user's shifts over a reporting window.
type WeekSummary struct {
	UserID        string
	From, To      time.Time
	Shifts        []Summary
	TotalHours    decimal.Decimal
	PaidMinutes   int
	UnpaidMinutes int
	TravelMinutes int
}

// SummarizeWeek aggregates per-shift summaries. Shifts are summarized
// individually, so each one's allocation is capped by its own
// entitlement before the totals are added up.
func SummarizeWeek(userID string, shifts []*shift.Shift, from, to, asOf time.Time, paidRestMinutes int) WeekSummary {
	week := WeekSummary{
		UserID:     userID,
		From:       from,
		To:         to,
		TotalHours: decimal.Zero,
	}

	for _, s := range shifts {
		sum := Summarize(s, asOf, paidRestMinutes)
		week.Shifts = append(week.Shifts, sum)
		week.TotalHours = week.TotalHours.Add(sum.HoursWorked)
		week.PaidMinutes += sum.Allocation.Paid
		week.UnpaidMinutes += sum.Allocation.Unpaid
		week.TravelMinutes += sum.TravelMinutes
	}
	return week
}

// hoursDecimal converts the shift length to decimal hours rounded to
// two places, computed from the millisecond delta.
func hoursDecimal(s *shift.Shift, asOf time.Time) decimal.Decimal {
	end := asOf
	if s.ClockOut != nil {
		end = *s.ClockOut
	}
	if end.Before(s.ClockIn) {
		return decimal.Zero
	}
	ms := end.Sub(s.ClockIn).Milliseconds()
	return decimal.NewFromInt(ms).Div(msPerHour).Round(2)
}
