// Package notification reacts to visit domain events and sends the matching
// outbound messages.
package notification

import (
	"context"
	"time"

	"fieldvisits_backend/internal/email"
	"fieldvisits_backend/internal/events"
	"fieldvisits_backend/platform/logger"
)

// Module handles notification-related event subscriptions
type Module struct {
	sender email.Sender
	loc    *time.Location
	log    *logger.Logger
}

// New creates a new notification module
func New(sender email.Sender, loc *time.Location, log *logger.Logger) *Module {
	if loc == nil {
		loc = time.UTC
	}
	return &Module{sender: sender, loc: loc, log: log}
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.VisitScheduled{}.EventName(), m)
	bus.Subscribe(events.VisitMissed{}.EventName(), m)
}

// Handle implements events.Handler
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.VisitScheduled:
		return m.handleVisitScheduled(ctx, e)
	case events.VisitMissed:
		m.log.Info("visit marked as missed", "visitId", e.VisitID, "agentId", e.AgentID)
		return nil
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleVisitScheduled(ctx context.Context, e events.VisitScheduled) error {
	if !e.AssignedByOther() {
		return nil
	}
	if e.AgentEmail == "" {
		m.log.Warn("assigned agent has no email, skipping notification", "visitId", e.VisitID, "agentId", e.AgentID)
		return nil
	}

	assignment := email.VisitAssignment{
		AgentName:       e.AgentName,
		AssignedBy:      e.ScheduledByName,
		VisitType:       e.Type,
		PropertyAddress: e.PropertyAddress,
		ClientName:      e.ClientName,
		ClientPhone:     e.ClientPhone,
		Start:           e.StartTime.In(m.loc),
		End:             e.EndTime.In(m.loc),
	}

	if err := m.sender.SendVisitAssignedEmail(ctx, e.AgentEmail, assignment); err != nil {
		m.log.Error("failed to send visit assigned email", "visitId", e.VisitID, "agentId", e.AgentID, "error", err)
		return err
	}

	m.log.Info("visit assigned email sent", "visitId", e.VisitID, "agentId", e.AgentID)
	return nil
}
