// Package schedule converts customer-facing wall-clock values in the operating
// timezone into absolute instants and back. Nothing here reads the server's
// local zone.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	ErrInvalidDateTime      = errors.New("invalid date/time")
	ErrNonexistentLocalTime = errors.New("local time does not exist in operating timezone")
)

// Clock is bound to one operating timezone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New loads zone (an IANA name such as "America/New_York").
func New(zone string) (*Clock, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// WithNow returns a copy that reads the current time from now.
func (c *Clock) WithNow(now func() time.Time) *Clock {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Clock) Location() *time.Location { return c.loc }

func (c *Clock) Now() time.Time { return c.now() }

// LocalToUTC interprets date+hhmm as wall-clock time in the operating zone.
// Times that fall into a DST gap are rejected rather than silently shifted.
func (c *Clock) LocalToUTC(date, hhmm string) (time.Time, error) {
	return localToUTC(date, hhmm, c.loc)
}

func localToUTC(date, hhmm string, loc *time.Location) (time.Time, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, ErrInvalidDateTime
	}
	t, err := time.Parse(TimeLayout, hhmm)
	if err != nil {
		return time.Time{}, ErrInvalidDateTime
	}

	local := time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	if local.Format(DateLayout) != date || local.Format(TimeLayout) != hhmm {
		return time.Time{}, ErrNonexistentLocalTime
	}
	return local.UTC(), nil
}

// UTCToLocal is the inverse of LocalToUTC.
func (c *Clock) UTCToLocal(t time.Time) (date, hhmm string) {
	local := t.In(c.loc)
	return local.Format(DateLayout), local.Format(TimeLayout)
}

// IsAtLeastNHoursAhead fails closed on malformed input. The boundary is inclusive.
func (c *Clock) IsAtLeastNHoursAhead(date, hhmm string, hours int) bool {
	at, err := c.LocalToUTC(date, hhmm)
	if err != nil {
		return false
	}
	return at.Sub(c.now()) >= time.Duration(hours)*time.Hour
}

func (c *Clock) IsAtLeast24hAhead(date, hhmm string) bool {
	return c.IsAtLeastNHoursAhead(date, hhmm, 24)
}

// LocalWeekday uses the Sunday=0 convention.
func (c *Clock) LocalWeekday(t time.Time) int {
	return int(t.In(c.loc).Weekday())
}

// DayBounds returns the instants of local midnight on t's local date and of
// the following local midnight. On DST change days the span is 23h or 25h.
func (c *Clock) DayBounds(t time.Time) (start, end time.Time) {
	local := t.In(c.loc)
	y, m, d := local.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, c.loc)
	end = time.Date(y, m, d+1, 0, 0, 0, 0, c.loc)
	return start.UTC(), end.UTC()
}

// SameLocalDay reports whether a and b share a calendar date in the operating zone.
func (c *Clock) SameLocalDay(a, b time.Time) bool {
	return a.In(c.loc).Format(DateLayout) == b.In(c.loc).Format(DateLayout)
}

// InZone converts t to zone, falling back to the operating zone when zone is
// empty or unknown.
func (c *Clock) InZone(t time.Time, zone string) time.Time {
	if zone == "" {
		return t.In(c.loc)
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return t.In(c.loc)
	}
	return t.In(loc)
}

// IsOutsideOperatingHours compares time of day only. The open window is
// [open, close); when close is before open the window wraps midnight.
// Malformed input counts as outside.
func IsOutsideOperatingHours(hhmm, open, close string) bool {
	t, err1 := MinuteOfDay(hhmm)
	o, err2 := MinuteOfDay(open)
	cl, err3 := MinuteOfDay(close)
	if err1 != nil || err2 != nil || err3 != nil {
		return true
	}
	if o == cl {
		return false
	}
	if o < cl {
		return t < o || t >= cl
	}
	return t < o && t >= cl
}

// MinuteOfDay parses "HH:mm" (or "HH:mm:ss", seconds ignored).
func MinuteOfDay(hhmm string) (int, error) {
	if len(hhmm) == 8 {
		hhmm = hhmm[:5]
	}
	t, err := time.Parse(TimeLayout, hhmm)
	if err != nil {
		return 0, ErrInvalidDateTime
	}
	return t.Hour()*60 + t.Minute(), nil
}
