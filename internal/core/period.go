package core

import (
	"fmt"
	"time"
)

// Period is a reporting month.
type Period struct {
	Year  int
	Month time.Month
}

func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) Previous() Period {
	if p.Month == time.January {
		return Period{Year: p.Year - 1, Month: time.December}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Days returns the number of days in the period's month.
func (p Period) Days() int {
	return time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SmartDefaultPeriod picks the reporting month offered by default: before the
// 15th of a month workers are still filing for the previous cycle, so the
// previous month is offered; from the 15th on, the current month.
func SmartDefaultPeriod(today time.Time) Period {
	p := PeriodOf(today)
	if today.Day() < 15 {
		return p.Previous()
	}
	return p
}

// SplitServiceRegisterDates maps a chosen calendar date onto a (service date,
// register date) pair. A date whose month precedes the default reporting
// period is being backdated across a cycle boundary: the service date moves
// to the same day-of-month inside the default period so the work bills
// against the open cycle, while the register date keeps the true date for
// audit. Days that do not exist in the target month clamp to its last day.
func SplitServiceRegisterDates(selected, today time.Time) (service, register time.Time) {
	def := SmartDefaultPeriod(today)
	if PeriodOf(selected).Before(def) {
		day := selected.Day()
		if max := def.Days(); day > max {
			day = max
		}
		service = time.Date(def.Year, def.Month, day, 0, 0, 0, 0, time.UTC)
		return service, selected
	}
	return selected, selected
}

// NewDate builds a midnight-UTC calendar date.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseISODate parses a YYYY-MM-DD date as midnight UTC.
func ParseISODate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
