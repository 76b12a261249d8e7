// Package session holds the mutable selection state built up by the form:
// which codes are armed, which dates are attached where, and the count
// fields. All state lives in memory and dies with the session.
package session

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Key identifies a unit of date attachment: a whole category, or one code
// within a category. A structured key avoids the collision risk of gluing
// the two into a single string.
type Key struct {
	Category string
	Code     string
}

func CategoryKey(category string) Key {
	return Key{Category: category}
}

func CodeKey(category, code string) Key {
	return Key{Category: category, Code: code}
}

func (k Key) String() string {
	if k.Code == "" {
		return k.Category
	}
	return k.Category + "/" + k.Code
}

// SelectionRequiredError signals an attempt to attach dates before arming
// the corresponding category or service.
type SelectionRequiredError struct {
	Key Key
}

func (e *SelectionRequiredError) Error() string {
	if e.Key.Code != "" {
		return fmt.Sprintf("select the checkbox for service %q before choosing dates", e.Key.Code)
	}
	return fmt.Sprintf("select at least one service from %q before choosing dates", e.Key.Category)
}

// DateCount is one attached date with its occurrence count.
type DateCount struct {
	Date  time.Time
	Count int
}

// Session is safe for concurrent use; every operation runs under one lock so
// aggregation always reads a consistent snapshot.
type Session struct {
	mu         sync.Mutex
	armed      map[Key]bool
	dates      map[Key]map[time.Time]struct{}
	counts     map[Key]map[time.Time]int
	codeCounts map[Key]int
}

func New() *Session {
	return &Session{
		armed:      make(map[Key]bool),
		dates:      make(map[Key]map[time.Time]struct{}),
		counts:     make(map[Key]map[time.Time]int),
		codeCounts: make(map[Key]int),
	}
}

// Arm marks a selection key as armed. Idempotent.
func (s *Session) Arm(k Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed[k] = true
}

// Disarm unmarks a key. Attached dates survive so re-arming does not lose
// previously chosen dates.
func (s *Session) Disarm(k Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.armed, k)
}

func (s *Session) IsArmed(k Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed[k]
}

// SetDates replaces the full date set for an armed key. Counts are keyed by
// (key, date) in separate storage and survive the replacement: a date that
// was present before keeps its prior count, new dates default to 1.
func (s *Session) SetDates(k Key, dates []time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.armed[k] {
		return &SelectionRequiredError{Key: k}
	}
	if len(dates) == 0 {
		delete(s.dates, k)
		return nil
	}
	set := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		set[normalize(d)] = struct{}{}
	}
	s.dates[k] = set
	if s.counts[k] == nil {
		s.counts[k] = make(map[time.Time]int)
	}
	for d := range set {
		if _, ok := s.counts[k][d]; !ok {
			s.counts[k][d] = 1
		}
	}
	return nil
}

// RemoveDate drops one date and its count. A key whose last date is removed
// disappears entirely; no empty placeholders remain.
func (s *Session) RemoveDate(k Key, date time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	date = normalize(date)
	if set, ok := s.dates[k]; ok {
		delete(set, date)
		if len(set) == 0 {
			delete(s.dates, k)
		}
	}
	if m, ok := s.counts[k]; ok {
		delete(m, date)
		if len(m) == 0 {
			delete(s.counts, k)
		}
	}
}

// SetCount sets the per-date count for a key. Counts below 1 clamp to 1.
func (s *Session) SetCount(k Key, date time.Time, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if count < 1 {
		count = 1
	}
	if s.counts[k] == nil {
		s.counts[k] = make(map[time.Time]int)
	}
	s.counts[k][normalize(date)] = count
}

// SetCodeCount sets the dateless count field attached to a single code
// (amount-based count inputs and monthly package counts). Clamps to min 1;
// monthly-specific bounds are applied by the caller against the code's rule.
func (s *Session) SetCodeCount(k Key, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if count < 1 {
		count = 1
	}
	s.codeCounts[k] = count
}

// CodeCount returns the dateless count for a code, defaulting to 1.
func (s *Session) CodeCount(k Key) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.codeCounts[k]; ok {
		return n
	}
	return 1
}

// Dates returns the attached dates for a key with their counts, sorted by
// date ascending.
func (s *Session) Dates(k Key) []DateCount {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.dates[k]
	if !ok {
		return nil
	}
	out := make([]DateCount, 0, len(set))
	for d := range set {
		count := 1
		if m, ok := s.counts[k]; ok {
			if n, ok := m[d]; ok {
				count = n
			}
		}
		out = append(out, DateCount{Date: d, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// HasDates reports whether any dates are attached to a key.
func (s *Session) HasDates(k Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dates[k]) > 0
}

// Clear wipes all selection state.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = make(map[Key]bool)
	s.dates = make(map[Key]map[time.Time]struct{})
	s.counts = make(map[Key]map[time.Time]int)
	s.codeCounts = make(map[Key]int)
}

func normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
