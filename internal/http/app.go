// Package http holds what the router needs to assemble the API: the
// application wiring produced by main and the Module contract.
package http

import (
	"context"

	"fieldvisits_backend/platform/config"
	"fieldvisits_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker is pinged by GET /api/health; *pgxpool.Pool satisfies it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is populated by cmd/api (the composition root) and passed to the router.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health may be nil, in which case the health check always passes.
	Health HealthChecker
	// Modules are mounted in order.
	Modules []Module
}
