/*
allocation.go - Paid/unpaid break minute split

PURPOSE:
  Classifies the break minutes actually taken during a shift against
  the statutory entitlement. The earliest minutes of break time count
  as paid up to the entitlement ceiling; everything beyond is unpaid.
  The split is by cumulative sum, independent of break order or of
  manual vs automatic origin.
*/
package shift

// AllocationResult is the derived paid/unpaid split for a shift's
// breaks. Not persisted; recomputed by reporting on demand.
type AllocationResult struct {
	Paid   int // minutes
	Unpaid int // minutes
	Total  int // minutes
}

// Allocate splits the taken break minutes into paid and unpaid against
// the entitlement for the hours worked. Breaks with a missing duration
// count as zero. Pure.
func Allocate(breaks []Break, hoursWorked float64, paidRestMinutes int) AllocationResult {
	total := 0
	for _, b := range breaks {
		total += b.Minutes()
	}

	entitlement := Entitlements(hoursWorked, paidRestMinutes)

	paid := total
	if paid > entitlement.PaidMinutes {
		paid = entitlement.PaidMinutes
	}
	unpaid := total - paid
	if unpaid < 0 {
		unpaid = 0
	}

	return AllocationResult{Paid: paid, Unpaid: unpaid, Total: total}
}
