package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fieldvisits_backend/internal/events"
	"fieldvisits_backend/internal/visits/deletion"
	"fieldvisits_backend/internal/visits/domain"
	"fieldvisits_backend/internal/visits/geofence"
	"fieldvisits_backend/internal/visits/scheduling"
	"fieldvisits_backend/platform/apperr"
	"fieldvisits_backend/platform/logger"
	"fieldvisits_backend/platform/phone"
	"fieldvisits_backend/platform/sanitize"

	"github.com/google/uuid"
)

const dateFormat = "2006-01-02"

// Deps are the collaborators of the visit service.
type Deps struct {
	Store       Store
	Attachments AttachmentStore
	Properties  PropertyReader
	Agents      AgentDirectory
	Geofence    *geofence.Validator
	Checker     *scheduling.Checker
	Gate        *deletion.Gate
	Locker      AgentLocker
	Bus         events.Bus
	// Missed is optional. Without it pending visits are only closed by the operator CLI.
	Missed MissedVisitScheduler
	// Storage is optional. Without it attachment uploads are refused.
	Storage ObjectStorage
	Log     *logger.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Options are the policy settings of the visit service.
type Options struct {
	Location         *time.Location
	MissedVisitGrace time.Duration
	AttachmentBucket string
}

// Service implements the visit use cases.
type Service struct {
	store       Store
	attachments AttachmentStore
	properties  PropertyReader
	agents      AgentDirectory
	geofence    *geofence.Validator
	checker     *scheduling.Checker
	gate        *deletion.Gate
	locker      AgentLocker
	bus         events.Bus
	missed      MissedVisitScheduler
	storage     ObjectStorage
	log         *logger.Logger
	now         func() time.Time
	opts        Options
}

// New creates a visit service.
func New(deps Deps, opts Options) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		store:       deps.Store,
		attachments: deps.Attachments,
		properties:  deps.Properties,
		agents:      deps.Agents,
		geofence:    deps.Geofence,
		checker:     deps.Checker,
		gate:        deps.Gate,
		locker:      deps.Locker,
		bus:         deps.Bus,
		missed:      deps.Missed,
		storage:     deps.Storage,
		log:         deps.Log,
		now:         deps.Now,
		opts:        opts,
	}
}

// ListFilter holds the raw list query. Dates are YYYY-MM-DD in the service's timezone.
type ListFilter struct {
	ID        *uuid.UUID
	AgentID   *uuid.UUID
	Date      string
	StartDate string
	EndDate   string
	Outcome   string
	Status    string
}

// ListVisits returns visits ordered by scheduled start. Non-admins only see their own.
func (s *Service) ListVisits(ctx context.Context, principal domain.Principal, filter ListFilter) ([]domain.Visit, error) {
	params, err := s.listParams(principal, filter)
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx, params)
}

func (s *Service) listParams(principal domain.Principal, filter ListFilter) (domain.ListParams, error) {
	var params domain.ListParams

	if principal.IsAdmin() {
		params.AgentID = filter.AgentID
	} else {
		own := principal.UserID
		params.AgentID = &own
	}

	switch {
	case filter.ID != nil:
		params.ID = filter.ID
	case filter.StartDate != "" || filter.EndDate != "":
		if filter.StartDate == "" || filter.EndDate == "" {
			return params, apperr.Validation("startDate and endDate must be provided together")
		}
		from, err := s.parseDay(filter.StartDate, "startDate")
		if err != nil {
			return params, err
		}
		lastDay, err := s.parseDay(filter.EndDate, "endDate")
		if err != nil {
			return params, err
		}
		if lastDay.Before(from) {
			return params, apperr.Validation("endDate must not be before startDate")
		}
		to := lastDay.AddDate(0, 0, 1)
		params.From, params.To = &from, &to
	case filter.Date != "":
		from, err := s.parseDay(filter.Date, "date")
		if err != nil {
			return params, err
		}
		to := from.AddDate(0, 0, 1)
		params.From, params.To = &from, &to
	}

	if filter.Outcome != "" {
		outcome, ok := domain.ParseOutcome(filter.Outcome)
		if !ok {
			return params, domain.InvalidOutcome(filter.Outcome)
		}
		params.Outcome = &outcome
	}

	if filter.Status != "" {
		status := domain.Status(strings.ToUpper(filter.Status))
		if !status.Valid() {
			return params, apperr.Validation(fmt.Sprintf("unknown status %q", filter.Status))
		}
		params.Status = &status
	}

	return params, nil
}

func (s *Service) parseDay(raw, field string) (time.Time, error) {
	day, err := time.ParseInLocation(dateFormat, raw, s.opts.Location)
	if err != nil {
		return time.Time{}, apperr.Validation(fmt.Sprintf("invalid %s format, expected YYYY-MM-DD", field))
	}
	return day, nil
}

// CreateVisitInput is the validated input of CreateVisit.
type CreateVisitInput struct {
	PropertyID        uuid.UUID
	ScheduledStart    time.Time
	EstimatedDuration int
	Type              domain.Type
	Notes             *string
	ClientName        *string
	ClientPhone       *string
	// AssignedAgentID is honoured only for admins.
	AssignedAgentID *uuid.UUID
}

// CreateVisit books a pending visit for the target agent unless it overlaps
// another blocking visit of that agent.
func (s *Service) CreateVisit(ctx context.Context, principal domain.Principal, in CreateVisitInput) (*domain.Visit, error) {
	if err := scheduling.ValidateDuration(in.EstimatedDuration); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown visit type %q", in.Type))
	}
	if in.ScheduledStart.IsZero() {
		return nil, apperr.Validation("scheduledStart is required")
	}

	agentID := principal.UserID
	if principal.IsAdmin() && in.AssignedAgentID != nil {
		agentID = *in.AssignedAgentID
	}

	agent, found, err := s.agents.GetAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("lookup agent: %w", err)
	}
	if !found {
		return nil, apperr.Validation("assigned agent does not exist")
	}

	property, found, err := s.properties.GetProperty(ctx, in.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("lookup property: %w", err)
	}
	if !found {
		return nil, apperr.Validation("property does not exist")
	}

	now := s.now()
	createdBy := principal.UserID
	visit := &domain.Visit{
		ID:                uuid.New(),
		AgentID:           agentID,
		PropertyID:        in.PropertyID,
		ScheduledStart:    in.ScheduledStart.UTC(),
		EstimatedDuration: in.EstimatedDuration,
		Type:              in.Type,
		Notes:             sanitize.OptionalText(in.Notes),
		ClientName:        sanitize.OptionalText(in.ClientName),
		ClientPhone:       normalizePhone(in.ClientPhone),
		Status:            domain.StatusPending,
		CreatedBy:         &createdBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.bookUnderLock(ctx, visit); err != nil {
		return nil, err
	}

	visit.Property = &property
	s.afterCreate(ctx, visit, agent, property, principal)
	return visit, nil
}

func (s *Service) bookUnderLock(ctx context.Context, visit *domain.Visit) error {
	unlock, err := s.locker.Lock(ctx, visit.AgentID)
	if err != nil {
		return fmt.Errorf("acquire agent lock: %w", err)
	}
	defer unlock()

	candidate := visit.Window()
	from, to := scheduling.QueryRange(candidate, s.opts.Location, scheduling.MaxDuration)
	existing, err := s.store.ListForAgentBetween(ctx, visit.AgentID, from, to)
	if err != nil {
		return fmt.Errorf("load agent schedule: %w", err)
	}

	if err := s.checker.Check(candidate, existing); err != nil {
		if details, ok := conflictDetails(err); ok {
			s.log.WithContext(ctx).SchedulingConflict(visit.AgentID.String(), details.ConflictingVisitID.String())
		}
		return err
	}

	return s.store.Create(ctx, visit)
}

func conflictDetails(err error) (domain.ConflictDetails, bool) {
	domainErr, ok := apperr.As(err)
	if !ok {
		return domain.ConflictDetails{}, false
	}
	details, ok := domainErr.Details.(domain.ConflictDetails)
	return details, ok
}

func (s *Service) afterCreate(ctx context.Context, visit *domain.Visit, agent domain.Agent, property domain.Property, principal domain.Principal) {
	window := visit.Window()
	s.bus.Publish(ctx, events.VisitScheduled{
		BaseEvent:       events.NewBaseEvent(),
		VisitID:         visit.ID,
		AgentID:         visit.AgentID,
		AgentName:       agent.Name,
		AgentEmail:      agent.Email,
		ScheduledBy:     principal.UserID,
		ScheduledByName: principal.Name,
		PropertyID:      property.ID,
		PropertyAddress: property.Address,
		Type:            string(visit.Type),
		StartTime:       window.Start,
		EndTime:         window.End,
		ClientName:      deref(visit.ClientName),
		ClientPhone:     deref(visit.ClientPhone),
	})

	if s.missed == nil {
		return
	}
	runAt := window.End.Add(s.opts.MissedVisitGrace)
	if err := s.missed.ScheduleMissedVisitCheck(ctx, visit.ID, runAt); err != nil {
		s.log.WithContext(ctx).Warn("missed_visit_check_not_scheduled",
			slog.String("visit_id", visit.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// GetVisit returns a visit the principal may see.
func (s *Service) GetVisit(ctx context.Context, principal domain.Principal, id uuid.UUID) (*domain.Visit, error) {
	return s.loadVisible(ctx, principal, id)
}

// loadVisible hides other agents' visits from non-admins behind visit_not_found.
func (s *Service) loadVisible(ctx context.Context, principal domain.Principal, id uuid.UUID) (*domain.Visit, error) {
	visit, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() && !visit.OwnedBy(principal.UserID) {
		return nil, domain.VisitNotFound()
	}
	return visit, nil
}

// StartVisit checks the principal in at the visit's property.
func (s *Service) StartVisit(ctx context.Context, principal domain.Principal, id uuid.UUID, at geofence.Coordinates) (*domain.Visit, error) {
	if !at.Valid() {
		return nil, apperr.Validation("invalid coordinates")
	}

	visit, err := s.loadVisible(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	// A visit that already moved on is reported as such wherever the agent stands.
	if err := visit.CanStart(); err != nil {
		return nil, err
	}

	var propertyCoords *geofence.Coordinates
	if visit.Property != nil {
		propertyCoords = visit.Property.Coordinates
	}
	result, err := s.geofence.Check(at, propertyCoords, principal.Role)
	if err != nil {
		if apperr.CodeOf(err) == geofence.CodeTooFarFromProperty {
			s.log.WithContext(ctx).GeofenceRejected(visit.ID.String(), principal.UserID.String(), result.DistanceMeters, result.RadiusMeters)
		}
		return nil, err
	}

	from := visit.Status
	if err := visit.Start(s.now(), at); err != nil {
		return nil, err
	}
	if err := s.store.UpdateLifecycle(ctx, visit, from); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.VisitStarted{
		BaseEvent:      events.NewBaseEvent(),
		VisitID:        visit.ID,
		AgentID:        visit.AgentID,
		StartedBy:      principal.UserID,
		DistanceMeters: result.DistanceMeters,
		GeofenceSkip:   result.Skipped,
	})
	return visit, nil
}

// FinishVisit checks the principal out and records the outcome.
func (s *Service) FinishVisit(ctx context.Context, principal domain.Principal, id uuid.UUID, at geofence.Coordinates, rawOutcome string, notes *string) (*domain.Visit, error) {
	if strings.TrimSpace(rawOutcome) == "" {
		return nil, domain.MissingOutcome()
	}
	outcome, ok := domain.ParseOutcome(rawOutcome)
	if !ok {
		return nil, domain.InvalidOutcome(rawOutcome)
	}
	if !at.Valid() {
		return nil, apperr.Validation("invalid coordinates")
	}

	visit, err := s.loadVisible(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	from := visit.Status
	if err := visit.Finish(s.now(), at, outcome, sanitize.OptionalText(notes)); err != nil {
		return nil, err
	}
	if err := s.store.UpdateLifecycle(ctx, visit, from); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.VisitCompleted{
		BaseEvent: events.NewBaseEvent(),
		VisitID:   visit.ID,
		AgentID:   visit.AgentID,
		Outcome:   string(outcome),
	})
	return visit, nil
}

// DeleteVisit removes a visit after the confirmation secret is accepted.
func (s *Service) DeleteVisit(ctx context.Context, principal domain.Principal, id uuid.UUID, supplied string) error {
	if err := s.gate.Authorize(ctx, principal, supplied); err != nil {
		return err
	}

	visit, err := s.loadVisible(ctx, principal, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, visit.ID); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.VisitDeleted{
		BaseEvent: events.NewBaseEvent(),
		VisitID:   visit.ID,
		AgentID:   visit.AgentID,
		DeletedBy: principal.UserID,
	})
	return nil
}

// MarkMissed closes a pending visit as missed. It reports false without error
// when the visit already moved on or was deleted, so repeated sweeps are harmless.
func (s *Service) MarkMissed(ctx context.Context, id uuid.UUID) (bool, error) {
	visit, err := s.store.GetByID(ctx, id)
	if apperr.Is(err, apperr.KindNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.markMissed(ctx, visit)
}

func (s *Service) markMissed(ctx context.Context, visit *domain.Visit) (bool, error) {
	if visit.Status != domain.StatusPending {
		return false, nil
	}
	if err := visit.MarkMissed(s.now()); err != nil {
		return false, err
	}
	if err := s.store.UpdateLifecycle(ctx, visit, domain.StatusPending); err != nil {
		if apperr.CodeOf(err) == domain.CodeInvalidState {
			return false, nil
		}
		return false, err
	}

	s.bus.Publish(ctx, events.VisitMissed{
		BaseEvent: events.NewBaseEvent(),
		VisitID:   visit.ID,
		AgentID:   visit.AgentID,
	})
	return true, nil
}

// MarkMissedBefore closes every pending visit whose window ended before cutoff.
func (s *Service) MarkMissedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	pending, err := s.store.ListPendingEndedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	marked := 0
	for i := range pending {
		changed, err := s.markMissed(ctx, &pending[i])
		if err != nil {
			return marked, err
		}
		if changed {
			marked++
		}
	}
	return marked, nil
}

// CountByProperty returns how many visits reference the property.
func (s *Service) CountByProperty(ctx context.Context, propertyID uuid.UUID) (int, error) {
	return s.store.CountByProperty(ctx, propertyID)
}

// ClearAgentVisits deletes every visit of an agent. Operator tooling only.
func (s *Service) ClearAgentVisits(ctx context.Context, agentID uuid.UUID) (int64, error) {
	return s.store.DeleteByAgent(ctx, agentID)
}

func normalizePhone(raw *string) *string {
	cleaned := sanitize.OptionalText(raw)
	if cleaned == nil {
		return nil
	}
	normalized := phone.NormalizeE164(*cleaned)
	return &normalized
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
