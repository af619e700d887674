package wallet

import (
	"sync"
	"time"
)

// =============================================================================
// DAY - Calendar date (the unit of daily-reward periods)
// =============================================================================

// Day is a calendar date with no time-of-day component. Its String form
// (ISO 2006-01-02) is embedded verbatim in daily claim keys, so two
// Days are the same period iff their strings are equal.
type Day struct {
	Time time.Time // normalized to midnight UTC, used as a date marker only
}

func NewDay(year int, month time.Month, day int) Day {
	return Day{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf returns the calendar date of t as observed in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	local := t.In(loc)
	return NewDay(local.Year(), local.Month(), local.Day())
}

func (d Day) AddDays(n int) Day {
	t := d.Time.AddDate(0, 0, n)
	return NewDay(t.Year(), t.Month(), t.Day())
}

func (d Day) Before(other Day) bool { return d.Time.Before(other.Time) }
func (d Day) Equal(other Day) bool  { return d.Time.Equal(other.Time) }
func (d Day) After(other Day) bool  { return d.Time.After(other.Time) }
func (d Day) IsZero() bool          { return d.Time.IsZero() }

func (d Day) String() string { return d.Time.Format("2006-01-02") }

// =============================================================================
// CLOCK - Single canonical time policy
// =============================================================================

// Clock is the one source of "now" and "today" for the whole engine.
// Streak walks, daily resets, and time-of-day checks are only well
// defined if every component observes the same timezone, so the clock
// carries the canonical location and everything else asks it.
type Clock interface {
	Now() time.Time
	Today() Day
	Location() *time.Location
}

// SystemClock reads the real time in a fixed location (UTC by default).
type SystemClock struct {
	Loc *time.Location
}

func NewSystemClock(loc *time.Location) *SystemClock {
	if loc == nil {
		loc = time.UTC
	}
	return &SystemClock{Loc: loc}
}

func (c *SystemClock) Now() time.Time           { return time.Now().In(c.Loc) }
func (c *SystemClock) Today() Day               { return DayOf(time.Now(), c.Loc) }
func (c *SystemClock) Location() *time.Location { return c.Loc }

// =============================================================================
// MANUAL CLOCK - For tests and simulated day rollover
// =============================================================================

// ManualClock is a settable clock. Safe for concurrent use.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
	loc *time.Location
}

func NewManualClock(now time.Time, loc *time.Location) *ManualClock {
	if loc == nil {
		loc = time.UTC
	}
	return &ManualClock{now: now, loc: loc}
}

func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now.In(c.loc)
}

func (c *ManualClock) Today() Day {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return DayOf(c.now, c.loc)
}

func (c *ManualClock) Location() *time.Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loc
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// AdvanceDays moves the clock forward n calendar days.
func (c *ManualClock) AdvanceDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}
