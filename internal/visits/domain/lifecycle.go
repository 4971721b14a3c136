package domain

import (
	"time"

	"fieldvisits_backend/internal/visits/geofence"
)

// CanStart reports whether the visit may be checked in. Only pending visits can start.
func (v *Visit) CanStart() error {
	if v.Status != StatusPending {
		return InvalidState(v.Status, "start")
	}
	return nil
}

// Start checks the agent in.
func (v *Visit) Start(now time.Time, at geofence.Coordinates) error {
	if err := v.CanStart(); err != nil {
		return err
	}

	v.Status = StatusInProgress
	v.ActualStart = &now
	v.CheckIn = &at
	v.UpdatedAt = now
	return nil
}

// Finish checks the agent out with an outcome. Notes replace the existing
// notes only when provided. The outcome is required before any state is touched.
func (v *Visit) Finish(now time.Time, at geofence.Coordinates, outcome Outcome, notes *string) error {
	if outcome == "" {
		return MissingOutcome()
	}
	if !outcome.Valid() {
		return InvalidOutcome(string(outcome))
	}
	if v.Status != StatusInProgress {
		return InvalidState(v.Status, "finish")
	}

	v.Status = StatusCompleted
	v.ActualEnd = &now
	v.CheckOut = &at
	v.Outcome = &outcome
	if notes != nil {
		v.Notes = notes
	}
	v.UpdatedAt = now
	return nil
}

// MarkMissed closes a pending visit that never started.
func (v *Visit) MarkMissed(now time.Time) error {
	if v.Status != StatusPending {
		return InvalidState(v.Status, "mark missed")
	}

	v.Status = StatusMissed
	v.UpdatedAt = now
	return nil
}
