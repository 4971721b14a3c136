package adapters

import (
	"context"
	"errors"
	"testing"

	"fieldvisits_backend/internal/maps"
	proprepo "fieldvisits_backend/internal/properties/repository"

	"github.com/google/uuid"
)

type propertyMap map[uuid.UUID]proprepo.Property

func (m propertyMap) GetByID(_ context.Context, id uuid.UUID) (proprepo.Property, error) {
	p, ok := m[id]
	if !ok {
		return proprepo.Property{}, proprepo.ErrNotFound
	}
	return p, nil
}

func TestVisitsPropertyReader(t *testing.T) {
	lat, lng := 4.6486, -74.0628
	withCoords, withoutCoords := uuid.New(), uuid.New()
	reader := NewVisitsPropertyReader(propertyMap{
		withCoords:    {ID: withCoords, Address: "Calle 45 # 13-20", Lat: &lat, Lng: &lng},
		withoutCoords: {ID: withoutCoords, Address: "Sin ubicar"},
	})
	ctx := context.Background()

	p, found, err := reader.GetProperty(ctx, withCoords)
	if err != nil || !found || p.Coordinates == nil || p.Coordinates.Lat != lat {
		t.Fatalf("GetProperty() = %+v, %v, %v", p, found, err)
	}

	p, found, err = reader.GetProperty(ctx, withoutCoords)
	if err != nil || !found || p.Coordinates != nil {
		t.Fatalf("GetProperty(no coords) = %+v, %v, %v", p, found, err)
	}

	_, found, err = reader.GetProperty(ctx, uuid.New())
	if err != nil || found {
		t.Fatalf("GetProperty(unknown) found = %v, err = %v", found, err)
	}
}

type geocoderFunc func(ctx context.Context, address string) (maps.Point, bool, error)

func (f geocoderFunc) Geocode(ctx context.Context, address string) (maps.Point, bool, error) {
	return f(ctx, address)
}

func TestPropertiesGeocoder(t *testing.T) {
	hit := NewPropertiesGeocoder(geocoderFunc(func(context.Context, string) (maps.Point, bool, error) {
		return maps.Point{Lat: 4.7, Lng: -74.1}, true, nil
	}))
	c, found, err := hit.Geocode(context.Background(), "Calle 100")
	if err != nil || !found || c.Lat != 4.7 || c.Lng != -74.1 {
		t.Fatalf("Geocode() = %+v, %v, %v", c, found, err)
	}

	boom := errors.New("upstream down")
	fail := NewPropertiesGeocoder(geocoderFunc(func(context.Context, string) (maps.Point, bool, error) {
		return maps.Point{}, false, boom
	}))
	if _, _, err := fail.Geocode(context.Background(), "Calle 100"); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
