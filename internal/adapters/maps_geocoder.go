package adapters

import (
	"context"

	"fieldvisits_backend/internal/maps"
	propservice "fieldvisits_backend/internal/properties/service"
)

// AddressGeocoder is the maps operation the properties domain relies on.
type AddressGeocoder interface {
	Geocode(ctx context.Context, address string) (maps.Point, bool, error)
}

// PropertiesGeocoder adapts the maps geocoder to the properties domain.
type PropertiesGeocoder struct {
	geocoder AddressGeocoder
}

// NewPropertiesGeocoder creates a new geocoder adapter.
func NewPropertiesGeocoder(geocoder AddressGeocoder) *PropertiesGeocoder {
	return &PropertiesGeocoder{geocoder: geocoder}
}

// Geocode implements propservice.Geocoder.
func (a *PropertiesGeocoder) Geocode(ctx context.Context, address string) (propservice.Coordinates, bool, error) {
	point, found, err := a.geocoder.Geocode(ctx, address)
	if err != nil || !found {
		return propservice.Coordinates{}, false, err
	}
	return propservice.Coordinates{Lat: point.Lat, Lng: point.Lng}, true, nil
}

var _ propservice.Geocoder = (*PropertiesGeocoder)(nil)
