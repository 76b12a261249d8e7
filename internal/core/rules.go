package core

// Keys of the two non-dated package categories. Any category under one of
// these keys is treated as monthly regardless of its declared type.
const (
	MonthlyPackageCategory = "MONTHLY_PACKAGE"
	StatePackageCategory   = "STATE_PACKAGE"
)

// Monthly package codes that carry an explicit count in exports. All other
// monthly codes report an implicit count of 1 and are printed without it.
const (
	CodeMonthlyMeetings = "PC1.8"  // freely editable, min 1
	CodeMonthlyLocked   = "PC1.9"  // locked at 5
	CodePerBeneficiary  = "PC1.10" // per-beneficiary, 6-35
)

// CountRule bounds a count input. Max of 0 means unbounded.
type CountRule struct {
	Min int
	Max int
}

func (r CountRule) Clamp(n int) int {
	if n < r.Min {
		return r.Min
	}
	if r.Max > 0 && n > r.Max {
		return r.Max
	}
	return n
}

// Fixed reports whether the rule pins the count to a single value.
func (r CountRule) Fixed() bool {
	return r.Max > 0 && r.Min == r.Max
}

// MonthlyCountRule returns the count constraint for a monthly package code.
// The second return is false for codes that never carry a count.
func MonthlyCountRule(code string) (CountRule, bool) {
	switch code {
	case CodeMonthlyLocked:
		return CountRule{Min: 5, Max: 5}, true
	case CodePerBeneficiary:
		return CountRule{Min: 6, Max: 35}, true
	case CodeMonthlyMeetings:
		return CountRule{Min: 1}, true
	}
	return CountRule{}, false
}

// CountBearing reports whether a monthly code carries a count in exports.
func CountBearing(code string) bool {
	_, ok := MonthlyCountRule(code)
	return ok
}
