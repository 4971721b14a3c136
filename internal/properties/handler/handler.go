package handler

import (
	"context"
	"net/http"

	"fieldvisits_backend/internal/properties/repository"
	"fieldvisits_backend/internal/properties/service"
	"fieldvisits_backend/internal/properties/transport"
	"fieldvisits_backend/platform/httpkit"
	"fieldvisits_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgPropertyDeleted  = "Inmueble eliminado correctamente"
)

// PropertyService is the subset of the property service the handler drives.
type PropertyService interface {
	List(ctx context.Context) ([]repository.Property, error)
	Get(ctx context.Context, id uuid.UUID) (repository.Property, error)
	Create(ctx context.Context, in service.Input) (repository.Property, error)
	Update(ctx context.Context, id uuid.UUID, in service.Input) (repository.Property, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Handler struct {
	svc PropertyService
	val *validator.Validator
}

func New(svc PropertyService, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}

func (h *Handler) List(c *gin.Context) {
	properties, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.PropertyResponse, 0, len(properties))
	for _, p := range properties {
		items = append(items, toResponse(p))
	}
	httpkit.OK(c, items)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	p, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(p))
}

func (h *Handler) Create(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}

	p, err := h.svc.Create(c.Request.Context(), in)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toResponse(p))
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	in, ok := h.bind(c)
	if !ok {
		return
	}

	p, err := h.svc.Update(c.Request.Context(), id, in)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(p))
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.MessageResponse{Message: msgPropertyDeleted})
}

func (h *Handler) bind(c *gin.Context) (service.Input, bool) {
	var req transport.PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.ValidationFailed(c, msgInvalidRequest, nil)
		return service.Input{}, false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, msgValidationFailed, err)
		return service.Input{}, false
	}
	if (req.Lat == nil) != (req.Lng == nil) {
		httpkit.ValidationFailed(c, "lat and lng must be sent together", nil)
		return service.Input{}, false
	}

	in := service.Input{Address: req.Address, ClientName: req.ClientName}
	if req.Lat != nil && req.Lng != nil {
		in.Coords = &service.Coordinates{Lat: *req.Lat, Lng: *req.Lng}
	}
	return in, true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.ValidationFailed(c, "invalid property id", nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func toResponse(p repository.Property) transport.PropertyResponse {
	return transport.PropertyResponse{
		ID:         p.ID,
		Address:    p.Address,
		ClientName: p.ClientName,
		Lat:        p.Lat,
		Lng:        p.Lng,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}
