// Package scheduling detects double bookings of an agent's time.
package scheduling

import (
	"time"

	"fieldvisits_backend/internal/visits/domain"
	"fieldvisits_backend/platform/apperr"
)

const (
	// MinDurationMinutes is the shortest visit that can be booked.
	MinDurationMinutes = 1
	// MaxDurationMinutes is the longest visit that can be booked.
	MaxDurationMinutes = 720
)

// MaxDuration is MaxDurationMinutes as a duration.
const MaxDuration = MaxDurationMinutes * time.Minute

// Checker finds overlaps between a candidate window and existing visits.
type Checker struct{}

// NewChecker creates a Checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Check returns a scheduling conflict for the first blocking visit in existing
// whose window intersects candidate. MISSED visits never conflict.
func (c *Checker) Check(candidate domain.Window, existing []domain.Visit) error {
	for _, v := range existing {
		if !v.Status.Blocking() {
			continue
		}
		if candidate.Overlaps(v.Window()) {
			return domain.SchedulingConflict(v)
		}
	}
	return nil
}

// ValidateDuration rejects durations outside the bookable range.
func ValidateDuration(minutes int) error {
	if minutes < MinDurationMinutes || minutes > MaxDurationMinutes {
		return apperr.Validation("estimatedDuration must be between 1 and 720 minutes").
			WithDetails(map[string]string{"estimatedDuration": "min=1,max=720"})
	}
	return nil
}

// QueryRange returns the scheduledStart range the store must load so that
// every visit able to overlap candidate is included. It covers the candidate's
// calendar day in loc, widened backward by maxDuration (a visit that started
// earlier can still be running) and forward to the candidate's end (a
// candidate crossing midnight can hit visits of the next day).
func QueryRange(candidate domain.Window, loc *time.Location, maxDuration time.Duration) (from, to time.Time) {
	local := candidate.Start.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	from = dayStart
	if earliest := candidate.Start.Add(-maxDuration); earliest.Before(from) {
		from = earliest
	}
	to = dayEnd
	if candidate.End.After(to) {
		to = candidate.End
	}
	return from, to
}
