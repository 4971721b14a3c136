// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"fieldvisits_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Visits Domain Events
// =============================================================================

// VisitScheduled is published when a visit is booked for an agent.
type VisitScheduled struct {
	BaseEvent
	VisitID         uuid.UUID `json:"visitId"`
	AgentID         uuid.UUID `json:"agentId"`
	AgentName       string    `json:"agentName"`
	AgentEmail      string    `json:"agentEmail"`
	ScheduledBy     uuid.UUID `json:"scheduledBy"`
	ScheduledByName string    `json:"scheduledByName,omitempty"`
	PropertyID      uuid.UUID `json:"propertyId"`
	PropertyAddress string    `json:"propertyAddress"`
	Type            string    `json:"type"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	ClientName      string    `json:"clientName,omitempty"`
	ClientPhone     string    `json:"clientPhone,omitempty"`
}

func (e VisitScheduled) EventName() string { return "visits.scheduled" }

// AssignedByOther reports whether someone other than the agent booked the visit.
func (e VisitScheduled) AssignedByOther() bool { return e.ScheduledBy != e.AgentID }

// VisitStarted is published when an agent checks in at the property.
type VisitStarted struct {
	BaseEvent
	VisitID        uuid.UUID `json:"visitId"`
	AgentID        uuid.UUID `json:"agentId"`
	StartedBy      uuid.UUID `json:"startedBy"`
	DistanceMeters float64   `json:"distanceMeters"`
	GeofenceSkip   bool      `json:"geofenceSkipped"`
}

func (e VisitStarted) EventName() string { return "visits.started" }

// VisitCompleted is published when a visit is finished with an outcome.
type VisitCompleted struct {
	BaseEvent
	VisitID uuid.UUID `json:"visitId"`
	AgentID uuid.UUID `json:"agentId"`
	Outcome string    `json:"outcome"`
}

func (e VisitCompleted) EventName() string { return "visits.completed" }

// VisitMissed is published when a pending visit is closed as missed.
type VisitMissed struct {
	BaseEvent
	VisitID uuid.UUID `json:"visitId"`
	AgentID uuid.UUID `json:"agentId"`
}

func (e VisitMissed) EventName() string { return "visits.missed" }

// VisitDeleted is published when a visit is removed.
type VisitDeleted struct {
	BaseEvent
	VisitID   uuid.UUID `json:"visitId"`
	AgentID   uuid.UUID `json:"agentId"`
	DeletedBy uuid.UUID `json:"deletedBy"`
}

func (e VisitDeleted) EventName() string { return "visits.deleted" }
