// Package aggregate walks the catalog and the session's selection state and
// produces the normalized billable entry lists. Runs are pure with respect
// to the session: nothing is mutated, output is rebuilt every time.
package aggregate

import (
	"fmt"
	"time"

	"ashaworks/internal/core"
	"ashaworks/internal/session"
)

// Result of one aggregation run. Warnings describe units that were skipped
// (armed without dates, empty date values); they never abort the run.
type Result struct {
	Work     []core.WorkEntry
	Monthly  []core.MonthlyEntry
	Warnings []string
}

// DailyTotal sums totals over dated work entries only. Monthly package
// totals are computed separately and added on top.
func (r Result) DailyTotal() int64 {
	var total int64
	for _, e := range r.Work {
		total += e.TotalPrice
	}
	return total
}

// Run aggregates the current selection against the catalog. today anchors
// the smart default period used for service/register date splits.
func Run(cat *core.Catalog, s *session.Session, today time.Time) Result {
	var res Result
	for _, c := range cat.Categories {
		switch {
		case c.Monthly:
			res.appendMonthly(c, s)
		case c.WholeCategory():
			res.appendBundle(c, s, today)
		case c.Type == core.AmountBased:
			res.appendAmountBased(c, s, today)
		case c.Type == core.IndividualSelection:
			res.appendIndividual(c, s, today)
		}
	}
	return res
}

// appendBundle handles fixed_bundle and single_item categories: one armed
// flag covers every code, and each attached date fires the whole bundle.
func (r *Result) appendBundle(c core.Category, s *session.Session, today time.Time) {
	key := session.CategoryKey(c.Key)
	if !s.IsArmed(key) {
		return
	}
	for _, dc := range s.Dates(key) {
		if dc.Date.IsZero() {
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s service has empty date", c.Key))
			continue
		}
		service, register := core.SplitServiceRegisterDates(dc.Date, today)
		for _, e := range c.Entries {
			r.Work = append(r.Work, core.WorkEntry{
				Category:     c.Key,
				Code:         e.Code,
				UnitPrice:    e.Amount,
				Count:        dc.Count,
				TotalPrice:   e.Amount * int64(dc.Count),
				ServiceDate:  service,
				RegisterDate: register,
			})
		}
	}
}

// appendAmountBased handles categories where codes arm independently but
// share the category's date set. Counts come from each code's own count
// field, not from the date entry.
func (r *Result) appendAmountBased(c core.Category, s *session.Session, today time.Time) {
	armed := armedEntries(c, s)
	if len(armed) == 0 {
		return
	}
	catKey := session.CategoryKey(c.Key)
	dates := s.Dates(catKey)
	if len(dates) == 0 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s has selected services but no dates specified", c.Key))
		return
	}
	for _, dc := range dates {
		if dc.Date.IsZero() {
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s service has empty date", c.Key))
			continue
		}
		service, register := core.SplitServiceRegisterDates(dc.Date, today)
		for _, e := range armed {
			count := s.CodeCount(session.CodeKey(c.Key, e.Code))
			r.Work = append(r.Work, core.WorkEntry{
				Category:     c.Key,
				Code:         e.Code,
				UnitPrice:    e.Amount,
				Count:        count,
				TotalPrice:   e.Amount * int64(count),
				ServiceDate:  service,
				RegisterDate: register,
			})
		}
	}
}

// appendIndividual handles dated individual_selection categories: every
// armed code carries its own independent date set.
func (r *Result) appendIndividual(c core.Category, s *session.Session, today time.Time) {
	for _, e := range c.Entries {
		key := session.CodeKey(c.Key, e.Code)
		if !s.IsArmed(key) {
			continue
		}
		dates := s.Dates(key)
		if len(dates) == 0 {
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s service is selected but no dates added", e.Code))
			continue
		}
		for _, dc := range dates {
			if dc.Date.IsZero() {
				r.Warnings = append(r.Warnings, fmt.Sprintf("%s service has empty date", e.Code))
				continue
			}
			service, register := core.SplitServiceRegisterDates(dc.Date, today)
			r.Work = append(r.Work, core.WorkEntry{
				Category:     c.Key,
				Code:         e.Code,
				UnitPrice:    e.Amount,
				Count:        dc.Count,
				TotalPrice:   e.Amount * int64(dc.Count),
				ServiceDate:  service,
				RegisterDate: register,
			})
		}
	}
}

// appendMonthly handles the dateless monthly subtype: one entry per armed
// code, count read from the code's count field for count-bearing codes and
// clamped against its rule.
func (r *Result) appendMonthly(c core.Category, s *session.Session) {
	for _, e := range c.Entries {
		key := session.CodeKey(c.Key, e.Code)
		if !s.IsArmed(key) {
			continue
		}
		count := 1
		counted := false
		if rule, ok := core.MonthlyCountRule(e.Code); ok {
			count = rule.Clamp(s.CodeCount(key))
			counted = true
		}
		r.Monthly = append(r.Monthly, core.MonthlyEntry{
			Category: c.Key,
			Code:     e.Code,
			Count:    count,
			Counted:  counted,
		})
	}
}

func armedEntries(c core.Category, s *session.Session) []core.CatalogEntry {
	var out []core.CatalogEntry
	for _, e := range c.Entries {
		if s.IsArmed(session.CodeKey(c.Key, e.Code)) {
			out = append(out, e)
		}
	}
	return out
}
