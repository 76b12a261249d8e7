package aggregate

import "ashaworks/internal/core"

const (
	// statePackageFlatTotal is awarded once when anything in the state
	// package is selected, no matter how many codes.
	statePackageFlatTotal = 1000

	// lockedMonthlyAmount overrides the catalog amount for the locked
	// meetings code: it pays a reduced flat rate per month.
	lockedMonthlyAmount = 50
)

// MonthlyPackageTotal sums contributions of selected monthly package codes.
// Per-beneficiary codes multiply amount by count; the locked code pays a
// fixed override; everything else contributes its catalog amount once.
func MonthlyPackageTotal(cat *core.Catalog, entries []core.MonthlyEntry) int64 {
	var total int64
	for _, e := range entries {
		if e.Category != core.MonthlyPackageCategory {
			continue
		}
		amount := entryAmount(cat, e.Category, e.Code)
		switch e.Code {
		case core.CodePerBeneficiary:
			amount *= int64(e.Count)
		case core.CodeMonthlyLocked:
			amount = lockedMonthlyAmount
		}
		total += amount
	}
	return total
}

// StatePackageTotal is all-or-nothing: a single flat amount if any state
// package code is selected, zero otherwise.
func StatePackageTotal(entries []core.MonthlyEntry) int64 {
	for _, e := range entries {
		if e.Category == core.StatePackageCategory {
			return statePackageFlatTotal
		}
	}
	return 0
}

// GrandTotal is the figure shown to the user: dated work plus both package
// totals.
func GrandTotal(cat *core.Catalog, res Result) int64 {
	return res.DailyTotal() + MonthlyPackageTotal(cat, res.Monthly) + StatePackageTotal(res.Monthly)
}

func entryAmount(cat *core.Catalog, category, code string) int64 {
	c, err := cat.Category(category)
	if err != nil {
		return 0
	}
	e, err := c.Entry(code)
	if err != nil {
		return 0
	}
	return e.Amount
}
