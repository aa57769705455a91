// Package timeutil provides calendar-date helpers for the activity ledger.
// Ledger dates are calendar days normalised to midnight UTC, so every helper
// here works in UTC regardless of the server's local zone.
// No external dependencies - uses only standard library.
package timeutil

import (
	"math"
	"sync"
	"time"
)

// DateLayout is the wire format for calendar dates (ISO 8601, date only).
const DateLayout = "2006-01-02"

// Day is the length of one calendar day in UTC.
const Day = 24 * time.Hour

// ══════════════════════════════════════════════════════════════════════════════
// CLOCK
// ══════════════════════════════════════════════════════════════════════════════

// Clock abstracts the current time so that date-dependent logic
// (streaks, default ledger dates) can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the wall-clock time in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock is a Clock frozen at a settable instant.
type FixedClock struct {
	mu sync.RWMutex
	t  time.Time
}

// NewFixedClock creates a clock frozen at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t.UTC()}
}

// Now implements Clock.
func (c *FixedClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.t
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t.UTC()
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR DATES
// ══════════════════════════════════════════════════════════════════════════════

// Date creates a calendar date (midnight UTC).
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// StartOfDay returns midnight UTC of the calendar day t falls on in UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date according to clock.
func Today(clock Clock) time.Time {
	return StartOfDay(clock.Now())
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// FormatDate formats a time as YYYY-MM-DD (UTC).
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// FloorDays returns floor((later - earlier) / 24h).
// It keeps the time-of-day fraction of either argument, so "now" against
// yesterday's midnight yields 1 until the day after.
func FloorDays(later, earlier time.Time) int {
	return int(math.Floor(later.Sub(earlier).Hours() / 24))
}
