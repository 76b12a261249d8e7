package core

import "time"

// WorkEntry is one normalized, priced, dated billable line produced by
// aggregation. Entries are rebuilt from scratch on every generate run.
type WorkEntry struct {
	Category     string
	Code         string
	UnitPrice    int64
	Count        int
	TotalPrice   int64
	ServiceDate  time.Time
	RegisterDate time.Time
}

// MonthlyEntry is a non-dated package line. Counted marks codes whose count
// appears in exports; the rest carry an implicit count of 1.
type MonthlyEntry struct {
	Category string
	Code     string
	Count    int
	Counted  bool
}

// FormatEntryDate renders the downstream wire date format.
func FormatEntryDate(t time.Time) string {
	return t.Format("02-01-2006")
}

// FormatSummaryDate renders the short human form used in summaries, e.g. "5 Jan".
func FormatSummaryDate(t time.Time) string {
	return t.Format("2 Jan")
}

// FormatISODate renders the JSON export date form.
func FormatISODate(t time.Time) string {
	return t.Format("2006-01-02")
}
