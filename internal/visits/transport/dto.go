package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateVisitRequest is the request body for scheduling a visit
type CreateVisitRequest struct {
	PropertyID        uuid.UUID  `json:"propertyId" validate:"required"`
	ScheduledStart    time.Time  `json:"scheduledStart" validate:"required"`
	EstimatedDuration int        `json:"estimatedDuration" validate:"required,min=1,max=720"`
	Type              string     `json:"type" validate:"required,oneof=RENTAL_SHOWING PROPERTY_INTAKE HANDOVER MOVE_OUT INSPECTION OTHER"`
	Notes             *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
	ClientName        *string    `json:"clientName,omitempty" validate:"omitempty,max=200"`
	ClientPhone       *string    `json:"clientPhone,omitempty" validate:"omitempty,max=40"`
	AssignedUserID    *uuid.UUID `json:"assignedUserId,omitempty"`
}

// StartVisitRequest is the request body for checking in
type StartVisitRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lng *float64 `json:"lng" validate:"required,longitude"`
}

// FinishVisitRequest is the request body for checking out. Outcome presence is
// enforced by the service so it can answer with missing_outcome.
type FinishVisitRequest struct {
	Lat     *float64 `json:"lat" validate:"required,latitude"`
	Lng     *float64 `json:"lng" validate:"required,longitude"`
	Outcome string   `json:"outcome"`
	Notes   *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// DeleteVisitRequest carries the confirmation secret
type DeleteVisitRequest struct {
	Password string `json:"password"`
}

// ListVisitsRequest is the query parameters for listing visits
type ListVisitsRequest struct {
	ID        *uuid.UUID `form:"id"`
	AgentID   *uuid.UUID `form:"agentId"`
	Date      string     `form:"date"`
	StartDate string     `form:"startDate"`
	EndDate   string     `form:"endDate"`
	Outcome   string     `form:"outcome"`
	Status    string     `form:"status"`
}

// CoordinatesResponse is a lat/lng pair
type CoordinatesResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PropertyResponse is the property embedded in a visit
type PropertyResponse struct {
	ID         uuid.UUID `json:"id"`
	Address    string    `json:"address"`
	ClientName *string   `json:"clientName,omitempty"`
	Lat        *float64  `json:"lat"`
	Lng        *float64  `json:"lng"`
}

// VisitResponse is the response body for a visit
type VisitResponse struct {
	ID                uuid.UUID            `json:"id"`
	AgentID           uuid.UUID            `json:"agentId"`
	PropertyID        uuid.UUID            `json:"propertyId"`
	ScheduledStart    time.Time            `json:"scheduledStart"`
	ScheduledEnd      time.Time            `json:"scheduledEnd"`
	EstimatedDuration int                  `json:"estimatedDuration"`
	Type              string               `json:"type"`
	Status            string               `json:"status"`
	Notes             *string              `json:"notes,omitempty"`
	ClientName        *string              `json:"clientName,omitempty"`
	ClientPhone       *string              `json:"clientPhone,omitempty"`
	ActualStart       *time.Time           `json:"actualStart,omitempty"`
	ActualEnd         *time.Time           `json:"actualEnd,omitempty"`
	CheckIn           *CoordinatesResponse `json:"checkIn,omitempty"`
	CheckOut          *CoordinatesResponse `json:"checkOut,omitempty"`
	Outcome           *string              `json:"outcome,omitempty"`
	OutcomeLabel      *string              `json:"outcomeLabel,omitempty"`
	CreatedBy         *uuid.UUID           `json:"createdBy,omitempty"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
	Property          *PropertyResponse    `json:"property,omitempty"`
}

// AttachmentResponse is the response body for a visit attachment
type AttachmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	VisitID     uuid.UUID  `json:"visitId"`
	UploadedBy  uuid.UUID  `json:"uploadedBy"`
	FileName    string     `json:"fileName"`
	ContentType string     `json:"contentType"`
	SizeBytes   int64      `json:"sizeBytes"`
	CreatedAt   time.Time  `json:"createdAt"`
	DownloadURL string     `json:"downloadUrl,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// MessageResponse is a plain confirmation
type MessageResponse struct {
	Message string `json:"message"`
}
