// Package properties provides the property catalog module: the places field
// visits happen at, with best-effort address geocoding.
package properties

import (
	apphttp "fieldvisits_backend/internal/http"
	"fieldvisits_backend/internal/properties/handler"
	"fieldvisits_backend/internal/properties/repository"
	"fieldvisits_backend/internal/properties/service"
	"fieldvisits_backend/platform/logger"
	"fieldvisits_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the properties domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates the properties module. geocoder may be nil to disable
// automatic geocoding.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, geocoder service.Geocoder, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, geocoder, nil, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

func (m *Module) Name() string {
	return "properties"
}

// SetVisitCounter injects the visits lookup used to guard deletes (breaks the
// circular dependency with the visits module).
func (m *Module) SetVisitCounter(visits service.VisitCounter) {
	m.service.SetVisitCounter(visits)
}

// Repository exposes the property store for adapters.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes registers the module's routes under /api/v1/properties
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/properties"))
}

var _ apphttp.Module = (*Module)(nil)
