// Package clock centralizes timezone handling. Menu dates are calendar
// dates in the canteen's local zone, so every "today" and every parse
// reference date must come from here rather than from time.Now directly.
package clock

import (
	"fmt"
	"os"
	"time"
)

// DefaultTimezone is used when neither configuration nor the TZ environment
// variable names a zone.
const DefaultTimezone = "Asia/Shanghai"

// Clock resolves times in a fixed location. The zero value is not usable;
// construct with New.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New builds a clock for the named timezone. An empty name falls back to
// the TZ environment variable, then to DefaultTimezone.
func New(timezone string) (*Clock, error) {
	if timezone == "" {
		timezone = os.Getenv("TZ")
	}
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// NewFixed builds a clock that always reports the given instant. Test
// helper; also backs the --date override on the parse command.
func NewFixed(t time.Time) *Clock {
	return &Clock{loc: t.Location(), now: func() time.Time { return t }}
}

// Location returns the clock's timezone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current instant in the clock's location.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Reference returns midnight of the current day in the clock's location,
// the anchor for year inference on month-day date tokens.
func (c *Clock) Reference() time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
}

// Today returns the current calendar date formatted as YYYY-MM-DD.
func (c *Clock) Today() string {
	return c.Now().Format("2006-01-02")
}
