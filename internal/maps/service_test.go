package maps

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

type geocoderCfg struct{ enabled bool }

func (c geocoderCfg) IsGeocoderEnabled() bool       { return c.enabled }
func (c geocoderCfg) GetGeocoderCitySuffix() string { return "Bogotá, Colombia" }
func (c geocoderCfg) GetGeocoderUserAgent() string  { return "fieldvisits-test" }

// nominatimStub answers with a hit only for the listed queries.
func nominatimStub(t *testing.T, hits map[string]string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("User-Agent") != "fieldvisits-test" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/json")
		if body, ok := hits[r.URL.Query().Get("q")]; ok {
			_, _ = fmt.Fprint(w, body)
			return
		}
		_, _ = fmt.Fprint(w, "[]")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(srv *httptest.Server, enabled bool) *Service {
	return NewService(geocoderCfg{enabled: enabled}, nil, WithBaseURL(srv.URL), WithRequestInterval(0))
}

func TestGeocodeFallsThroughVariants(t *testing.T) {
	var calls atomic.Int32
	srv := nominatimStub(t, map[string]string{
		"Calle 45 # 13-20, Bogotá, Colombia": `[{"lat":"4.6325","lon":"-74.0672"}]`,
	}, &calls)

	point, found, err := newTestService(srv, true).Geocode(context.Background(), "Calle 45 # 13-20")
	if err != nil || !found {
		t.Fatalf("Geocode() = %v, %v", found, err)
	}
	if point.Lat != 4.6325 || point.Lng != -74.0672 {
		t.Errorf("point = %+v", point)
	}
	// intersection and cleaned variants miss first
	if got := calls.Load(); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
}

func TestGeocodeNoResult(t *testing.T) {
	var calls atomic.Int32
	srv := nominatimStub(t, nil, &calls)

	_, found, err := newTestService(srv, true).Geocode(context.Background(), "Parque de la 93")
	if err != nil || found {
		t.Fatalf("Geocode() = %v, %v, want not found without error", found, err)
	}
}

func TestGeocodeUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, found, err := newTestService(srv, true).Geocode(context.Background(), "Calle 45 # 13-20")
	if err == nil || found {
		t.Fatalf("Geocode() = %v, %v, want error", found, err)
	}
}

func TestGeocodeDisabled(t *testing.T) {
	var calls atomic.Int32
	srv := nominatimStub(t, nil, &calls)

	_, found, err := newTestService(srv, false).Geocode(context.Background(), "Calle 45 # 13-20")
	if err != nil || found {
		t.Fatalf("Geocode() = %v, %v", found, err)
	}
	if calls.Load() != 0 {
		t.Fatalf("disabled geocoder called upstream %d times", calls.Load())
	}
}

func TestGeocodeConcurrentCallsAgree(t *testing.T) {
	var calls atomic.Int32
	srv := nominatimStub(t, map[string]string{
		"Parque de la 93, Bogotá, Colombia": `[{"lat":"4.6765","lon":"-74.0483"}]`,
	}, &calls)
	svc := newTestService(srv, true)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			point, found, err := svc.Geocode(context.Background(), "Parque de la 93")
			if err != nil || !found || point.Lat != 4.6765 {
				t.Errorf("Geocode() = %+v, %v, %v", point, found, err)
			}
		}()
	}
	wg.Wait()
}

func TestSearchAddressBuildsSuggestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("countrycodes") != "co" {
			t.Errorf("countrycodes = %q", r.URL.Query().Get("countrycodes"))
		}
		_, _ = fmt.Fprint(w, `[
			{"lat":"4.6","lon":"-74.0","address":{"road":"Carrera 7","house_number":"72-10","city":"Bogotá"}},
			{"lat":"4.7","lon":"-74.1","address":{"road":"","city":"Bogotá"}}
		]`)
	}))
	defer srv.Close()

	got, err := newTestService(srv, true).SearchAddress(context.Background(), "Carrera 7")
	if err != nil {
		t.Fatalf("SearchAddress() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("suggestions = %+v", got)
	}
	if got[0].Label != "Carrera 7 # 72-10, Bogotá" {
		t.Errorf("label = %q", got[0].Label)
	}
}
