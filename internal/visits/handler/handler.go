package handler

import (
	"context"
	"net/http"

	"fieldvisits_backend/internal/visits/domain"
	"fieldvisits_backend/internal/visits/geofence"
	"fieldvisits_backend/internal/visits/service"
	"fieldvisits_backend/internal/visits/transport"
	"fieldvisits_backend/platform/httpkit"
	"fieldvisits_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgVisitDeleted     = "Visita eliminada correctamente"
	formFileField       = "file"
)

// VisitService is the subset of the visit service the handler drives.
type VisitService interface {
	ListVisits(ctx context.Context, principal domain.Principal, filter service.ListFilter) ([]domain.Visit, error)
	CreateVisit(ctx context.Context, principal domain.Principal, in service.CreateVisitInput) (*domain.Visit, error)
	GetVisit(ctx context.Context, principal domain.Principal, id uuid.UUID) (*domain.Visit, error)
	StartVisit(ctx context.Context, principal domain.Principal, id uuid.UUID, at geofence.Coordinates) (*domain.Visit, error)
	FinishVisit(ctx context.Context, principal domain.Principal, id uuid.UUID, at geofence.Coordinates, outcome string, notes *string) (*domain.Visit, error)
	DeleteVisit(ctx context.Context, principal domain.Principal, id uuid.UUID, supplied string) error
	AddAttachment(ctx context.Context, principal domain.Principal, visitID uuid.UUID, in service.UploadInput) (*domain.Attachment, error)
	ListAttachments(ctx context.Context, principal domain.Principal, visitID uuid.UUID) ([]service.AttachmentView, error)
}

// Handler handles HTTP requests for visits
type Handler struct {
	svc VisitService
	val *validator.Validator
}

// New creates a new visits handler
func New(svc VisitService, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the visit routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id/start", h.Start)
	rg.PATCH("/:id/finish", h.Finish)
	rg.DELETE("/:id", h.Delete)
	rg.GET("/:id/attachments", h.ListAttachments)
	rg.POST("/:id/attachments", h.CreateAttachment)
}

func principalOf(c *gin.Context) (domain.Principal, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return domain.Principal{}, false
	}
	return domain.Principal{UserID: identity.UserID(), Role: identity.Role(), Name: identity.Name()}, true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.ValidationFailed(c, "invalid visit id", nil)
		return uuid.UUID{}, false
	}
	return id, true
}

// List handles GET /api/v1/visits
func (h *Handler) List(c *gin.Context) {
	var req transport.ListVisitsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.ValidationFailed(c, msgInvalidRequest, nil)
		return
	}

	principal, ok := principalOf(c)
	if !ok {
		return
	}

	visits, err := h.svc.ListVisits(c.Request.Context(), principal, service.ListFilter{
		ID:        req.ID,
		AgentID:   req.AgentID,
		Date:      req.Date,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Outcome:   req.Outcome,
		Status:    req.Status,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.VisitResponse, 0, len(visits))
	for i := range visits {
		items = append(items, toVisitResponse(&visits[i]))
	}
	httpkit.OK(c, items)
}

// Create handles POST /api/v1/visits
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.ValidationFailed(c, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, msgValidationFailed, err)
		return
	}

	principal, ok := principalOf(c)
	if !ok {
		return
	}

	visit, err := h.svc.CreateVisit(c.Request.Context(), principal, service.CreateVisitInput{
		PropertyID:        req.PropertyID,
		ScheduledStart:    req.ScheduledStart,
		EstimatedDuration: req.EstimatedDuration,
		Type:              domain.Type(req.Type),
		Notes:             req.Notes,
		ClientName:        req.ClientName,
		ClientPhone:       req.ClientPhone,
		AssignedAgentID:   req.AssignedUserID,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, toVisitResponse(visit))
}

// GetByID handles GET /api/v1/visits/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	principal, ok := principalOf(c)
	if !ok {
		return
	}

	visit, err := h.svc.GetVisit(c.Request.Context(), principal, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toVisitResponse(visit))
}

// Start handles PATCH /api/v1/visits/:id/start
func (h *Handler) Start(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.StartVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.ValidationFailed(c, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, msgValidationFailed, err)
		return
	}

	principal, ok := principalOf(c)
	if !ok {
		return
	}

	visit, err := h.svc.StartVisit(c.Request.Context(), principal, id, geofence.Coordinates{Lat: *req.Lat, Lng: *req.Lng})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toVisitResponse(visit))
}

// Finish handles PATCH /api/v1/visits/:id/finish
func (h *Handler) Finish(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.FinishVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.ValidationFailed(c, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, msgValidationFailed, err)
		return
	}

	principal, ok := principalOf(c)
	if !ok {
		return
	}

	visit, err := h.svc.FinishVisit(c.Request.Context(), principal, id, geofence.Coordinates{Lat: *req.Lat, Lng: *req.Lng}, req.Outcome, req.Notes)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toVisitResponse(visit))
}

// Delete handles DELETE /api/v1/visits/:id. The confirmation secret travels in
// the body; a missing body is the same as an empty secret.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.DeleteVisitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.ValidationFailed(c, msgInvalidRequest, nil)
			return
		}
	}

	principal, ok := principalOf(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteVisit(c.Request.Context(), principal, id, req.Password); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.MessageResponse{Message: msgVisitDeleted})
}

// ListAttachments handles GET /api/v1/visits/:id/attachments
func (h *Handler) ListAttachments(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	principal, ok := principalOf(c)
	if !ok {
		return
	}

	views, err := h.svc.ListAttachments(c.Request.Context(), principal, id)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.AttachmentResponse, 0, len(views))
	for _, v := range views {
		resp := toAttachmentResponse(v.Attachment)
		resp.DownloadURL = v.DownloadURL
		if !v.ExpiresAt.IsZero() {
			expires := v.ExpiresAt
			resp.ExpiresAt = &expires
		}
		items = append(items, resp)
	}
	httpkit.OK(c, items)
}

// CreateAttachment handles POST /api/v1/visits/:id/attachments (multipart "file")
func (h *Handler) CreateAttachment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	header, err := c.FormFile(formFileField)
	if err != nil {
		httpkit.ValidationFailed(c, "file is required", nil)
		return
	}

	principal, ok := principalOf(c)
	if !ok {
		return
	}

	file, err := header.Open()
	if err != nil {
		httpkit.ValidationFailed(c, "file could not be read", nil)
		return
	}
	defer func() { _ = file.Close() }()

	attachment, err := h.svc.AddAttachment(c.Request.Context(), principal, id, service.UploadInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		SizeBytes:   header.Size,
		Body:        file,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, toAttachmentResponse(*attachment))
}

func toVisitResponse(v *domain.Visit) transport.VisitResponse {
	resp := transport.VisitResponse{
		ID:                v.ID,
		AgentID:           v.AgentID,
		PropertyID:        v.PropertyID,
		ScheduledStart:    v.ScheduledStart,
		ScheduledEnd:      v.ScheduledEnd(),
		EstimatedDuration: v.EstimatedDuration,
		Type:              string(v.Type),
		Status:            string(v.Status),
		Notes:             v.Notes,
		ClientName:        v.ClientName,
		ClientPhone:       v.ClientPhone,
		ActualStart:       v.ActualStart,
		ActualEnd:         v.ActualEnd,
		CheckIn:           toCoordinates(v.CheckIn),
		CheckOut:          toCoordinates(v.CheckOut),
		CreatedBy:         v.CreatedBy,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
	if v.Outcome != nil {
		code, label := string(*v.Outcome), v.Outcome.Label()
		resp.Outcome, resp.OutcomeLabel = &code, &label
	}
	if v.Property != nil {
		p := &transport.PropertyResponse{
			ID:         v.Property.ID,
			Address:    v.Property.Address,
			ClientName: v.Property.ClientName,
		}
		if c := v.Property.Coordinates; c != nil {
			lat, lng := c.Lat, c.Lng
			p.Lat, p.Lng = &lat, &lng
		}
		resp.Property = p
	}
	return resp
}

func toCoordinates(c *geofence.Coordinates) *transport.CoordinatesResponse {
	if c == nil {
		return nil
	}
	return &transport.CoordinatesResponse{Lat: c.Lat, Lng: c.Lng}
}

func toAttachmentResponse(a domain.Attachment) transport.AttachmentResponse {
	return transport.AttachmentResponse{
		ID:          a.ID,
		VisitID:     a.VisitID,
		UploadedBy:  a.UploadedBy,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		CreatedAt:   a.CreatedAt,
	}
}
