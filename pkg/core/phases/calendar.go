package phases

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// MaxPhase bounds how far into a recurrence the calendar will walk
const MaxPhase = 1000

var ErrPhaseOutOfRange = errors.New("phase out of range")

// Calendar maps phase numbers onto the occurrences of a recurrence rule.
// Phase 1 is the first occurrence on or after the start date.
type Calendar struct {
	rule *rrule.RRule
}

// NewCalendar parses an RRULE string (e.g. "FREQ=WEEKLY;BYDAY=MO") anchored at start
func NewCalendar(rule string, start time.Time) (*Calendar, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("failed to parse phase rrule: %w", err)
	}
	r.DTStart(start)

	return &Calendar{rule: r}, nil
}

// Date returns the date of a single phase
func (c *Calendar) Date(phase int) (time.Time, error) {
	dates, err := c.Dates(phase)
	if err != nil {
		return time.Time{}, err
	}
	return dates[phase-1], nil
}

// Dates returns the dates of phases 1 through last
func (c *Calendar) Dates(last int) ([]time.Time, error) {
	if last < 1 || last > MaxPhase {
		return nil, fmt.Errorf("%w: %d (must be between 1 and %d)", ErrPhaseOutOfRange, last, MaxPhase)
	}

	dates := make([]time.Time, 0, last)
	next := c.rule.Iterator()
	for len(dates) < last {
		occurrence, ok := next()
		if !ok {
			return nil, fmt.Errorf("%w: recurrence ends after %d phases", ErrPhaseOutOfRange, len(dates))
		}
		dates = append(dates, occurrence)
	}
	return dates, nil
}
