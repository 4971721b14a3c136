package http

import (
	"fieldvisits_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context that mounts its own routes.
type Module interface {
	// Name identifies the module in logs.
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext carries the shared route groups and middleware modules mount on.
type RouterContext struct {
	// V1 is the public /api/v1 group.
	V1 *gin.RouterGroup
	// Protected is /api/v1 behind bearer-token authentication.
	Protected *gin.RouterGroup
	// AdminOnly rejects principals without the admin role. Use it on groups
	// derived from Protected.
	AdminOnly gin.HandlerFunc
	// AuthRateLimiter is the stricter per-IP limiter for credential endpoints.
	AuthRateLimiter *httpkit.AuthRateLimiter
}
