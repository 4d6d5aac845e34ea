// Package allocation computes a category's effective allocated amount from
// its allocation method. All math is integer-only: amounts are minor
// currency units, percentages are basis points (1/100 of a percent).
package allocation

import "kakebo/internal/models"

// BasisPointScale is the number of basis points in 100%.
const BasisPointScale = 10000

// Amount returns the allocated amount for a category against the budget
// total. For REMAINING, all is the full category set of the budget; the
// residual after every non-REMAINING allocation is returned, floored at
// zero. The single-REMAINING rule is enforced at category creation, not
// here: given more than one REMAINING category the formula still applies
// verbatim.
func Amount(c models.Category, budgetTotal int64, all []models.Category) int64 {
	switch c.AllocationMethod {
	case models.AllocationFixed:
		// The value already is minor currency units.
		return c.AllocationValue
	case models.AllocationPercentage:
		return FromBasisPoints(c.AllocationValue, budgetTotal)
	case models.AllocationRemaining:
		return Remaining(budgetTotal, all)
	default:
		// Unknown methods allocate nothing rather than being read as FIXED.
		return 0
	}
}

// Plan evaluates every category against the budget total and returns the
// allocated amount keyed by category id.
func Plan(budgetTotal int64, all []models.Category) map[string]int64 {
	amounts := make(map[string]int64, len(all))
	for _, c := range all {
		amounts[c.ID] = Amount(c, budgetTotal, all)
	}
	return amounts
}

// Remaining returns the budget total minus every non-REMAINING category's
// allocation, floored at zero.
func Remaining(budgetTotal int64, all []models.Category) int64 {
	var allocated int64
	for _, other := range all {
		switch other.AllocationMethod {
		case models.AllocationPercentage:
			allocated += FromBasisPoints(other.AllocationValue, budgetTotal)
		case models.AllocationFixed:
			allocated += other.AllocationValue
		}
	}
	if remaining := budgetTotal - allocated; remaining > 0 {
		return remaining
	}
	return 0
}

// FromBasisPoints converts basis points of a total to minor currency
// units, rounding half away from zero. The conversion is lossy; REMAINING
// absorbs the residual.
func FromBasisPoints(basisPoints, total int64) int64 {
	product := basisPoints * total
	if product >= 0 {
		return (product + BasisPointScale/2) / BasisPointScale
	}
	return (product - BasisPointScale/2) / BasisPointScale
}
