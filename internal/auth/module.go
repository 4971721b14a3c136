// Package auth provides the authentication bounded context module.
// This file defines the module that encapsulates all auth setup and route registration.
package auth

import (
	"fmt"

	"fieldvisits_backend/internal/auth/handler"
	"fieldvisits_backend/internal/auth/repository"
	"fieldvisits_backend/internal/auth/service"
	authvalidator "fieldvisits_backend/internal/auth/validator"
	apphttp "fieldvisits_backend/internal/http"
	"fieldvisits_backend/platform/config"
	"fieldvisits_backend/platform/logger"
	"fieldvisits_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the auth module with all its dependencies.
func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, log *logger.Logger, val *validator.Validator) (*Module, error) {
	if err := authvalidator.Register(val); err != nil {
		return nil, fmt.Errorf("register auth validators: %w", err)
	}

	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the auth service for use by adapters (e.g., AgentDirectory).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes the user store for adapters that only read users.
func (m *Module) Repository() repository.UserReader {
	return m.repo
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public auth routes with stricter rate limiting
	authGroup := ctx.V1.Group("/auth")
	authGroup.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterRoutes(authGroup)

	ctx.Protected.GET("/users/me", m.handler.GetMe)

	// User administration is admin only
	m.handler.RegisterUserRoutes(ctx.Protected.Group("/users", ctx.AdminOnly))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
