package geofence

import (
	"math"
	"testing"

	"fieldvisits_backend/platform/apperr"
)

func TestDistanceMeters(t *testing.T) {
	bogota := Coordinates{Lat: 4.6097, Lng: -74.0817}

	if d := DistanceMeters(bogota, bogota); d != 0 {
		t.Fatalf("same point should be 0, got %f", d)
	}

	oneDegreeLat := DistanceMeters(Coordinates{Lat: 0, Lng: 0}, Coordinates{Lat: 1, Lng: 0})
	if math.Abs(oneDegreeLat-111195) > 1 {
		t.Fatalf("expected ~111195m per degree, got %f", oneDegreeLat)
	}

	a := Coordinates{Lat: 4.60, Lng: -74.08}
	b := Coordinates{Lat: 4.65, Lng: -74.05}
	if DistanceMeters(a, b) != DistanceMeters(b, a) {
		t.Fatal("distance should be symmetric")
	}
}

func TestDistanceMetersPropagatesNaN(t *testing.T) {
	d := DistanceMeters(Coordinates{Lat: math.NaN(), Lng: 0}, Coordinates{Lat: 1, Lng: 1})
	if !math.IsNaN(d) {
		t.Fatalf("expected NaN, got %f", d)
	}
}

func TestCoordinatesValid(t *testing.T) {
	cases := []struct {
		c    Coordinates
		want bool
	}{
		{Coordinates{Lat: 4.6, Lng: -74.1}, true},
		{Coordinates{Lat: 91, Lng: 0}, false},
		{Coordinates{Lat: 0, Lng: -181}, false},
		{Coordinates{Lat: math.NaN(), Lng: 0}, false},
		{Coordinates{Lat: 0, Lng: math.Inf(1)}, false},
	}
	for _, tc := range cases {
		if got := tc.c.Valid(); got != tc.want {
			t.Errorf("%+v.Valid() = %v, want %v", tc.c, got, tc.want)
		}
	}
}

func TestCheckRadiusByRole(t *testing.T) {
	property := &Coordinates{Lat: 4.6097, Lng: -74.0817}
	// About 0.018 degrees of latitude north, roughly 2 km.
	twoKmAway := Coordinates{Lat: 4.6277, Lng: -74.0817}
	v := NewValidator(DefaultPolicy())

	_, err := v.Check(twoKmAway, property, "AGENT")
	if apperr.CodeOf(err) != CodeTooFarFromProperty {
		t.Fatalf("agent at 2km should be rejected, got %v", err)
	}
	details, ok := err.(*apperr.Error).Details.(TooFarDetails)
	if !ok {
		t.Fatalf("expected TooFarDetails, got %T", err.(*apperr.Error).Details)
	}
	if details.MaxDistanceMeters != 1500 || details.DistanceMeters < 1900 || details.DistanceMeters > 2100 {
		t.Fatalf("unexpected details %+v", details)
	}

	res, err := v.Check(twoKmAway, property, RoleAdmin)
	if err != nil {
		t.Fatalf("admin at 2km should be allowed, got %v", err)
	}
	if res.RadiusMeters != DefaultAdminRadiusMeters || res.Skipped {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCheckSkipsPropertyWithoutCoordinates(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	res, err := v.Check(Coordinates{Lat: -33.9, Lng: 151.2}, nil, "AGENT")
	if err != nil {
		t.Fatalf("expected skip, got %v", err)
	}
	if !res.Skipped {
		t.Fatal("expected Skipped to be set")
	}
}

func TestCheckRejectsInvalidReportedPosition(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	_, err := v.Check(Coordinates{Lat: math.NaN(), Lng: 0}, &Coordinates{Lat: 4.6, Lng: -74.1}, "AGENT")
	if apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckBoundaryIsInclusive(t *testing.T) {
	property := &Coordinates{Lat: 0, Lng: 0}
	reported := Coordinates{Lat: 0.01, Lng: 0}
	exact := DistanceMeters(reported, *property)

	v := NewValidator(Policy{AgentRadiusMeters: exact, AdminRadiusMeters: exact})
	if _, err := v.Check(reported, property, "AGENT"); err != nil {
		t.Fatalf("distance equal to radius must be allowed, got %v", err)
	}
}
