package transport

import (
	"time"

	"github.com/google/uuid"
)

// PropertyRequest is the body of create and update calls. Coordinates are
// optional but must be sent together.
type PropertyRequest struct {
	Address    string   `json:"address" validate:"required,min=3,max=300"`
	ClientName *string  `json:"client" validate:"omitempty,max=200"`
	Lat        *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng        *float64 `json:"lng" validate:"omitempty,longitude"`
}

type PropertyResponse struct {
	ID         uuid.UUID `json:"id"`
	Address    string    `json:"address"`
	ClientName *string   `json:"client,omitempty"`
	Lat        *float64  `json:"lat,omitempty"`
	Lng        *float64  `json:"lng,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
