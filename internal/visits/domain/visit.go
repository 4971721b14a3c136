// Package domain holds the visit aggregate and its lifecycle rules.
package domain

import (
	"time"

	"fieldvisits_backend/internal/visits/geofence"

	"github.com/google/uuid"
)

// Roles carried by principals.
const (
	RoleAdmin = "ADMIN"
	RoleAgent = "AGENT"
)

// Status is the lifecycle state of a visit.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusMissed     Status = "MISSED"
)

// Blocking reports whether a visit in this status occupies the agent's time.
func (s Status) Blocking() bool {
	return s != StatusMissed
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusMissed:
		return true
	}
	return false
}

// Type categorizes the purpose of a visit.
type Type string

const (
	TypeRentalShowing  Type = "RENTAL_SHOWING"
	TypePropertyIntake Type = "PROPERTY_INTAKE"
	TypeHandover       Type = "HANDOVER"
	TypeMoveOut        Type = "MOVE_OUT"
	TypeInspection     Type = "INSPECTION"
	TypeOther          Type = "OTHER"
)

// Valid reports whether t is a known visit type.
func (t Type) Valid() bool {
	switch t {
	case TypeRentalShowing, TypePropertyIntake, TypeHandover, TypeMoveOut, TypeInspection, TypeOther:
		return true
	}
	return false
}

// Outcome is the result recorded when a visit is finished.
type Outcome string

const (
	OutcomeClientInterested    Outcome = "CLIENT_INTERESTED"
	OutcomeClientNotInterested Outcome = "CLIENT_NOT_INTERESTED"
	OutcomeFollowUpRequired    Outcome = "FOLLOW_UP_REQUIRED"
	OutcomeClientNoShow        Outcome = "CLIENT_NO_SHOW"
	OutcomeCancelled           Outcome = "CANCELLED"
)

var outcomeLabels = map[Outcome]string{
	OutcomeClientInterested:    "Cliente interesado",
	OutcomeClientNotInterested: "Cliente no interesado",
	OutcomeFollowUpRequired:    "Requiere seguimiento",
	OutcomeClientNoShow:        "Cliente no asistió",
	OutcomeCancelled:           "Cancelada",
}

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	_, ok := outcomeLabels[o]
	return ok
}

// Label returns the Spanish display label shown to field staff.
func (o Outcome) Label() string {
	return outcomeLabels[o]
}

// ParseOutcome accepts either the outcome code or its display label.
func ParseOutcome(raw string) (Outcome, bool) {
	if o := Outcome(raw); o.Valid() {
		return o, true
	}
	for o, label := range outcomeLabels {
		if label == raw {
			return o, true
		}
	}
	return "", false
}

// Property is the location a visit takes place at, as seen by the visits module.
type Property struct {
	ID          uuid.UUID
	Address     string
	ClientName  *string
	Coordinates *geofence.Coordinates
}

// Principal is the authenticated caller of a visit operation.
type Principal struct {
	UserID uuid.UUID
	Role   string
	Name   string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds the window starting at start lasting minutes.
func NewWindow(start time.Time, minutes int) Window {
	return Window{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}
}

// Overlaps reports whether w and o share any instant. Touching windows do not overlap.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && w.End.After(o.Start)
}

// Visit is a scheduled appointment of an agent at a property.
type Visit struct {
	ID                uuid.UUID
	AgentID           uuid.UUID
	PropertyID        uuid.UUID
	ScheduledStart    time.Time
	EstimatedDuration int
	Type              Type
	Notes             *string
	ClientName        *string
	ClientPhone       *string
	Status            Status
	ActualStart       *time.Time
	ActualEnd         *time.Time
	CheckIn           *geofence.Coordinates
	CheckOut          *geofence.Coordinates
	Outcome           *Outcome
	CreatedBy         *uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Property is populated on reads that embed the visited property.
	Property *Property
}

// Window returns the scheduled interval of the visit.
func (v Visit) Window() Window {
	return NewWindow(v.ScheduledStart, v.EstimatedDuration)
}

// ScheduledEnd returns the end of the scheduled interval.
func (v Visit) ScheduledEnd() time.Time {
	return v.Window().End
}

// OwnedBy reports whether the visit is assigned to userID.
func (v Visit) OwnedBy(userID uuid.UUID) bool {
	return v.AgentID == userID
}
