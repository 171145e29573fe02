package clock

import (
	"fmt"
	"time"

	jujuclock "github.com/juju/clock"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Calendar pairs an injected wall clock with the guild-facing timezone.
// All calendar dates in the system are derived through it so that day
// bucketing is consistent and testable with a fake clock.
type Calendar struct {
	clk jujuclock.Clock
	loc *time.Location
}

func NewCalendar(clk jujuclock.Clock, timezone string) (*Calendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q is invalid: %w", timezone, err)
	}
	return &Calendar{clk: clk, loc: loc}, nil
}

func (c *Calendar) Now() time.Time {
	return c.clk.Now()
}

// DateOf returns the calendar date of t in the configured timezone as a
// fixed-width YYYY-MM-DD string, so lexicographic and chronological
// ordering coincide.
func (c *Calendar) DateOf(t time.Time) string {
	return t.In(c.loc).Format(dateLayout)
}

// TimeOf returns the wall time of t in the configured timezone as HH:MM:SS.
func (c *Calendar) TimeOf(t time.Time) string {
	return t.In(c.loc).Format(timeLayout)
}

// DateWindow returns the inclusive [from, to] date strings covering the
// trailing window of the given number of days ending today. days == 0
// yields a single-day window.
func (c *Calendar) DateWindow(days int) (from, to string) {
	now := c.clk.Now().In(c.loc)
	to = now.Format(dateLayout)
	from = now.AddDate(0, 0, -days).Format(dateLayout)
	return from, to
}
