package export

import (
	"fmt"
	"sort"
	"strings"

	"ashaworks/internal/core"
	"ashaworks/internal/session"
)

// Summary renders the grouped human-readable summary straight from the
// selection state, one line (or bullet block) per active category. Returns
// nil when nothing is selected.
func Summary(cat *core.Catalog, s *session.Session) []string {
	var out []string
	for _, c := range cat.Categories {
		switch {
		case c.Monthly:
			out = append(out, monthlySummary(c, s)...)
		case c.WholeCategory():
			out = append(out, bundleSummary(c, s)...)
		case c.Type == core.AmountBased:
			out = append(out, amountBasedSummary(c, s)...)
		case c.Type == core.IndividualSelection:
			out = append(out, individualSummary(c, s)...)
		}
	}
	return out
}

// bundleSummary: "{Name} total {N} [{dates}]" with each date repeated by its
// count.
func bundleSummary(c core.Category, s *session.Session) []string {
	key := session.CategoryKey(c.Key)
	if !s.IsArmed(key) {
		return nil
	}
	var dates []string
	total := 0
	for _, dc := range s.Dates(key) {
		formatted := core.FormatSummaryDate(dc.Date)
		for i := 0; i < dc.Count; i++ {
			dates = append(dates, formatted)
			total++
		}
	}
	if len(dates) == 0 {
		return nil
	}
	return []string{fmt.Sprintf("%s total %d [%s]", c.Name, total, strings.Join(dates, ", "))}
}

// amountBasedSummary groups armed codes by their amount: one line per
// distinct amount with the combined count and the unique attached dates.
func amountBasedSummary(c core.Category, s *session.Session) []string {
	dates := s.Dates(session.CategoryKey(c.Key))
	if len(dates) == 0 {
		return nil
	}
	type group struct {
		count int
		dates []string
		seen  map[string]struct{}
	}
	groups := make(map[int64]*group)
	var order []int64
	for _, dc := range dates {
		formatted := core.FormatSummaryDate(dc.Date)
		for _, e := range c.Entries {
			if !s.IsArmed(session.CodeKey(c.Key, e.Code)) {
				continue
			}
			g, ok := groups[e.Amount]
			if !ok {
				g = &group{seen: make(map[string]struct{})}
				groups[e.Amount] = g
				order = append(order, e.Amount)
			}
			g.count += s.CodeCount(session.CodeKey(c.Key, e.Code))
			if _, dup := g.seen[formatted]; !dup {
				g.seen[formatted] = struct{}{}
				g.dates = append(g.dates, formatted)
			}
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	out := make([]string, 0, len(order))
	for _, amount := range order {
		g := groups[amount]
		out = append(out, fmt.Sprintf("%s %d %d [%s]", c.Name, amount, g.count, strings.Join(g.dates, ", ")))
	}
	return out
}

// individualSummary: "{description} - {N} [{dates}]" per armed code, dates
// repeated by count.
func individualSummary(c core.Category, s *session.Session) []string {
	var out []string
	for _, e := range c.Entries {
		key := session.CodeKey(c.Key, e.Code)
		if !s.IsArmed(key) {
			continue
		}
		var dates []string
		total := 0
		for _, dc := range s.Dates(key) {
			formatted := core.FormatSummaryDate(dc.Date)
			for i := 0; i < dc.Count; i++ {
				dates = append(dates, formatted)
				total++
			}
		}
		if len(dates) == 0 {
			continue
		}
		out = append(out, fmt.Sprintf("%s - %d [%s]", e.Description, total, strings.Join(dates, ", ")))
	}
	return out
}

// monthlySummary: category header followed by one bullet per armed code,
// with a count annotation on count-bearing codes.
func monthlySummary(c core.Category, s *session.Session) []string {
	var bullets []string
	for _, e := range c.Entries {
		key := session.CodeKey(c.Key, e.Code)
		if !s.IsArmed(key) {
			continue
		}
		line := e.Code
		if rule, ok := core.MonthlyCountRule(e.Code); ok {
			line += fmt.Sprintf(" (Count: %d)", rule.Clamp(s.CodeCount(key)))
		}
		bullets = append(bullets, "  • "+line)
	}
	if len(bullets) == 0 {
		return nil
	}
	out := make([]string, 0, len(bullets)+1)
	out = append(out, c.Name+":")
	out = append(out, bullets...)
	return out
}
