package maps

import (
	apphttp "fieldvisits_backend/internal/http"
	"fieldvisits_backend/platform/config"
	"fieldvisits_backend/platform/logger"
)

// Module wires the Nominatim-backed geocoder and its HTTP routes.
type Module struct {
	handler *Handler
	service *Service
}

func NewModule(cfg config.GeocoderConfig, log *logger.Logger) *Module {
	svc := NewService(cfg, log)
	h := NewHandler(svc)
	return &Module{handler: h, service: svc}
}

// Service returns the geocoder for use by adapters.
func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) Name() string {
	return "maps"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/maps"))
}

var _ apphttp.Module = (*Module)(nil)
