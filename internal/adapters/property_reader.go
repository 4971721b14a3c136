// Package adapters contains adapters that bridge different bounded contexts.
// These adapters implement interfaces defined by consuming domains while
// wrapping services from providing domains.
package adapters

import (
	"context"
	"errors"
	"fmt"

	proprepo "fieldvisits_backend/internal/properties/repository"
	"fieldvisits_backend/internal/visits/domain"
	"fieldvisits_backend/internal/visits/geofence"
	visitservice "fieldvisits_backend/internal/visits/service"

	"github.com/google/uuid"
)

// PropertyGetter is the slice of the properties repository the visits domain needs.
type PropertyGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (proprepo.Property, error)
}

// VisitsPropertyReader adapts the properties repository to the visits
// domain's PropertyReader interface.
type VisitsPropertyReader struct {
	repo PropertyGetter
}

// NewVisitsPropertyReader creates a new property reader adapter.
func NewVisitsPropertyReader(repo PropertyGetter) *VisitsPropertyReader {
	return &VisitsPropertyReader{repo: repo}
}

// GetProperty returns the property with its coordinates, or found=false.
func (a *VisitsPropertyReader) GetProperty(ctx context.Context, id uuid.UUID) (domain.Property, bool, error) {
	p, err := a.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, proprepo.ErrNotFound) {
			return domain.Property{}, false, nil
		}
		return domain.Property{}, false, fmt.Errorf("property adapter: %w", err)
	}

	prop := domain.Property{
		ID:         p.ID,
		Address:    p.Address,
		ClientName: p.ClientName,
	}
	if p.Lat != nil && p.Lng != nil {
		prop.Coordinates = &geofence.Coordinates{Lat: *p.Lat, Lng: *p.Lng}
	}
	return prop, true, nil
}

// Compile-time check that VisitsPropertyReader implements visitservice.PropertyReader
var _ visitservice.PropertyReader = (*VisitsPropertyReader)(nil)
