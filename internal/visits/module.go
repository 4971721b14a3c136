// Package visits provides the field visits domain module: scheduling without
// double-booking, geofenced check-in, lifecycle tracking and guarded deletion.
package visits

import (
	"fieldvisits_backend/internal/events"
	apphttp "fieldvisits_backend/internal/http"
	"fieldvisits_backend/internal/visits/deletion"
	"fieldvisits_backend/internal/visits/geofence"
	"fieldvisits_backend/internal/visits/handler"
	"fieldvisits_backend/internal/visits/repository"
	"fieldvisits_backend/internal/visits/scheduling"
	"fieldvisits_backend/internal/visits/service"
	"fieldvisits_backend/platform/config"
	"fieldvisits_backend/platform/logger"
	"fieldvisits_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Deps are the collaborators owned by other modules.
type Deps struct {
	Pool        *pgxpool.Pool
	Validator   *validator.Validator
	Bus         events.Bus
	Log         *logger.Logger
	Config      config.VisitsConfig
	Properties  service.PropertyReader
	Agents      service.AgentDirectory
	Credentials deletion.CredentialVerifier
	// Locker defaults to Postgres advisory locks on Pool.
	Locker service.AgentLocker
	Missed service.MissedVisitScheduler
	// Storage and AttachmentBucket enable visit attachments when set.
	Storage          service.ObjectStorage
	AttachmentBucket string
}

// Module represents the visits domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new visits module with all dependencies wired
func NewModule(deps Deps) *Module {
	repo := repository.New(deps.Pool)

	locker := deps.Locker
	if locker == nil {
		locker = repository.NewAdvisoryLocker(deps.Pool)
	}

	cfg := deps.Config
	svc := service.New(service.Deps{
		Store:       repo,
		Attachments: repo,
		Properties:  deps.Properties,
		Agents:      deps.Agents,
		Geofence: geofence.NewValidator(geofence.Policy{
			AgentRadiusMeters: cfg.GetAgentGeofenceRadius(),
			AdminRadiusMeters: cfg.GetAdminGeofenceRadius(),
		}),
		Checker: scheduling.NewChecker(),
		Gate:    deletion.NewGate(cfg.GetDeleteOverrideSecret(), deps.Credentials),
		Locker:  locker,
		Bus:     deps.Bus,
		Missed:  deps.Missed,
		Storage: deps.Storage,
		Log:     deps.Log,
	}, service.Options{
		Location:         cfg.GetVisitsLocation(),
		MissedVisitGrace: cfg.GetMissedVisitGrace(),
		AttachmentBucket: deps.AttachmentBucket,
	})

	return &Module{
		handler: handler.New(svc, deps.Validator),
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "visits"
}

// RegisterRoutes registers the module's routes under /api/v1/visits
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/visits"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
