package handler

import (
	"context"
	"net/http"

	"fieldvisits_backend/internal/auth"
	"fieldvisits_backend/internal/auth/service"
	"fieldvisits_backend/internal/auth/transport"
	"fieldvisits_backend/platform/httpkit"
	"fieldvisits_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgUserDeleted      = "Usuario eliminado correctamente"
)

// UserService is the subset of the auth service the handler drives.
type UserService interface {
	SignIn(ctx context.Context, email, password string) (string, auth.Profile, error)
	GetMe(ctx context.Context, userID uuid.UUID) (auth.Profile, error)
	ListUsers(ctx context.Context) ([]auth.Profile, error)
	CreateUser(ctx context.Context, in service.CreateUserInput) (auth.Profile, error)
	DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error
}

type Handler struct {
	svc UserService
	val *validator.Validator
}

func New(svc UserService, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the public auth routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.Login)
}

// RegisterUserRoutes mounts the user administration routes. The group must
// already require the admin role.
func (h *Handler) RegisterUserRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListUsers)
	rg.POST("", h.CreateUser)
	rg.DELETE("/:id", h.DeleteUser)
}

func (h *Handler) Login(c *gin.Context) {
	var req transport.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.ValidationFailed(c, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, msgValidationFailed, err)
		return
	}

	token, profile, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.AuthResponse{Token: token, User: toUserResponse(profile)})
}

func (h *Handler) GetMe(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	profile, err := h.svc.GetMe(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toUserResponse(profile))
}

func (h *Handler) ListUsers(c *gin.Context) {
	profiles, err := h.svc.ListUsers(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.UserResponse, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, toUserResponse(p))
	}
	httpkit.OK(c, items)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req transport.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.ValidationFailed(c, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, msgValidationFailed, err)
		return
	}

	profile, err := h.svc.CreateUser(c.Request.Context(), service.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, toUserResponse(profile))
}

func (h *Handler) DeleteUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.ValidationFailed(c, "invalid user id", nil)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := h.svc.DeleteUser(c.Request.Context(), identity.UserID(), userID); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.MessageResponse{Message: msgUserDeleted})
}

func toUserResponse(p auth.Profile) transport.UserResponse {
	return transport.UserResponse{
		ID:        p.ID.String(),
		Email:     p.Email,
		Name:      p.Name,
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
	}
}
