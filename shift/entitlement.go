/*
entitlement.go - Statutory break entitlement calculator

PURPOSE:
  Computes the legally mandated paid rest breaks and unpaid meal breaks
  for a number of hours worked, following the tiered rules of the NZ
  Employment Relations Act 2000.

THE LADDER:
  hours < 2          0 paid, 0 unpaid
  [2, 4)             1 paid, 0 unpaid
  [4, 6)             1 paid, 1 unpaid
  [6, 10)            2 paid, 1 unpaid
  [10, 12)           3 paid, 1 unpaid
  [12, 14)           3 paid, 2 unpaid
  [14, 16)           4 paid, 2 unpaid

  At 16 hours and beyond the entitlement is cyclic: every full 8-hour
  cycle contributes 2 paid and 1 unpaid, and the remainder is evaluated
  against a reduced ladder (>=6h: +2/+1, [4,6): +1/+1, [2,4): +1/+0).

MINUTES:
  Paid rest breaks are a configurable duration (default 10 minutes,
  echoed back for display). Unpaid meal breaks are a fixed 30 minutes -
  a legal constant, not a knob.
*/
package shift

// DefaultPaidRestMinutes is the configured per-break duration of a paid
// rest break unless the deployment overrides it.
const DefaultPaidRestMinutes = 10

// UnpaidMealMinutes is the statutory duration of an unpaid meal break.
const UnpaidMealMinutes = 30

// EntitlementResult is the break budget for a number of hours worked.
type EntitlementResult struct {
	PaidBreaks      int
	UnpaidBreaks    int
	PaidMinutes     int
	UnpaidMinutes   int
	PaidRestMinutes int
}

// Entitlements computes the statutory break entitlement for the given
// hours worked. Pure and deterministic; negative hours clamp to zero
// entitlement. A non-positive paidRestMinutes falls back to the default.
func Entitlements(hoursWorked float64, paidRestMinutes int) EntitlementResult {
	if paidRestMinutes <= 0 {
		paidRestMinutes = DefaultPaidRestMinutes
	}

	var paid, unpaid int
	switch h := hoursWorked; {
	case h < 2:
		// No entitlement below two hours.
	case h < 4:
		paid, unpaid = 1, 0
	case h < 6:
		paid, unpaid = 1, 1
	case h < 10:
		paid, unpaid = 2, 1
	case h < 12:
		paid, unpaid = 3, 1
	case h < 14:
		paid, unpaid = 3, 2
	case h < 16:
		paid, unpaid = 4, 2
	default:
		// Cyclic regime: each full 8-hour cycle earns (2 paid, 1 unpaid),
		// the remainder runs through a reduced ladder.
		cycles := int(h / 8)
		paid, unpaid = cycles*2, cycles
		switch rem := h - float64(cycles)*8; {
		case rem >= 6:
			paid += 2
			unpaid++
		case rem >= 4:
			paid++
			unpaid++
		case rem >= 2:
			paid++
		}
	}

	return EntitlementResult{
		PaidBreaks:      paid,
		UnpaidBreaks:    unpaid,
		PaidMinutes:     paid * paidRestMinutes,
		UnpaidMinutes:   unpaid * UnpaidMealMinutes,
		PaidRestMinutes: paidRestMinutes,
	}
}
