package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fieldvisits_backend/platform/config"
	"fieldvisits_backend/platform/logger"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	nominatimURL     = "https://nominatim.openstreetmap.org/search"
	defaultCountry   = "co"
	defaultUserAgent = "FieldVisits/1.0"
)

// Nominatim's usage policy allows one request per second.
const defaultRequestInterval = time.Second

type Service struct {
	client     *http.Client
	log        *logger.Logger
	baseURL    string
	userAgent  string
	citySuffix string
	enabled    bool
	limiter    *rate.Limiter
	inflight   singleflight.Group
}

// Option customizes a Service.
type Option func(*Service)

// WithBaseURL points the service at another Nominatim compatible endpoint.
func WithBaseURL(u string) Option {
	return func(s *Service) { s.baseURL = u }
}

// WithRequestInterval changes the pacing between upstream requests. Zero disables pacing.
func WithRequestInterval(d time.Duration) Option {
	return func(s *Service) {
		if d <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

func NewService(cfg config.GeocoderConfig, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		client:     &http.Client{Timeout: 5 * time.Second},
		log:        log,
		baseURL:    nominatimURL,
		userAgent:  cfg.GetGeocoderUserAgent(),
		citySuffix: cfg.GetGeocoderCitySuffix(),
		enabled:    cfg.IsGeocoderEnabled(),
		limiter:    rate.NewLimiter(rate.Every(defaultRequestInterval), 1),
	}
	if s.userAgent == "" {
		s.userAgent = defaultUserAgent
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) SearchAddress(ctx context.Context, query string) ([]AddressSuggestion, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("addressdetails", "1")
	params.Add("limit", "5")
	params.Add("countrycodes", defaultCountry)

	rawResults, err := s.search(ctx, params)
	if err != nil {
		return nil, err
	}

	suggestions := make([]AddressSuggestion, 0, len(rawResults))
	for _, raw := range rawResults {
		suggestion, ok := buildSuggestion(raw)
		if !ok {
			continue
		}

		suggestions = append(suggestions, suggestion)
	}

	return suggestions, nil
}

type geocodeResult struct {
	point Point
	found bool
}

// Geocode resolves a street address to coordinates by trying QueryVariants in
// order and returning the first hit. found is false when no variant matched or
// geocoding is disabled. An error is returned only when every attempt failed
// upstream. Concurrent calls for the same address share one lookup.
func (s *Service) Geocode(ctx context.Context, address string) (Point, bool, error) {
	if !s.enabled {
		return Point{}, false, nil
	}

	key := strings.ToLower(strings.TrimSpace(address))
	v, err, _ := s.inflight.Do(key, func() (interface{}, error) {
		return s.geocode(ctx, address)
	})
	if err != nil {
		return Point{}, false, err
	}
	res := v.(geocodeResult)
	return res.point, res.found, nil
}

func (s *Service) geocode(ctx context.Context, address string) (geocodeResult, error) {
	queries := QueryVariants(address, s.citySuffix)

	var lastErr error
	failures := 0
	for _, q := range queries {
		params := url.Values{}
		params.Add("q", q)
		params.Add("format", "json")
		params.Add("limit", "1")

		results, err := s.search(ctx, params)
		if err != nil {
			if ctx.Err() != nil {
				return geocodeResult{}, ctx.Err()
			}
			failures++
			lastErr = err
			continue
		}
		if len(results) == 0 {
			continue
		}

		point, err := parsePoint(results[0])
		if err != nil {
			s.log.Warn("nominatim returned unparsable coordinates", "query", q, "error", err)
			continue
		}
		s.log.Debug("geocoding succeeded", "query", q, "lat", point.Lat, "lng", point.Lng)
		return geocodeResult{point: point, found: true}, nil
	}

	if failures > 0 && failures == len(queries) {
		return geocodeResult{}, fmt.Errorf("geocode %q: %w", address, lastErr)
	}
	return geocodeResult{}, nil
}

func (s *Service) search(ctx context.Context, params url.Values) ([]nominatimResponse, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s?%s", s.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("nominatim request failed", "error", err)
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		s.log.Error("nominatim upstream error", "status", resp.StatusCode)
		return nil, fmt.Errorf("upstream api error: %d", resp.StatusCode)
	}

	var rawResults []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&rawResults); err != nil {
		s.log.Error("failed to decode nominatim payload", "error", err)
		return nil, err
	}
	return rawResults, nil
}

func parsePoint(raw nominatimResponse) (Point, error) {
	lat, errLat := strconv.ParseFloat(raw.Lat, 64)
	lng, errLng := strconv.ParseFloat(raw.Lon, 64)
	if err := errors.Join(errLat, errLng); err != nil {
		return Point{}, err
	}
	return Point{Lat: lat, Lng: lng}, nil
}

func buildSuggestion(raw nominatimResponse) (AddressSuggestion, bool) {
	if raw.Address.Road == "" {
		return AddressSuggestion{}, false
	}

	city := pickCity(raw.Address)
	if city == "" {
		return AddressSuggestion{}, false
	}

	suggestion := AddressSuggestion{
		Street:      raw.Address.Road,
		HouseNumber: raw.Address.HouseNumber,
		ZipCode:     raw.Address.Postcode,
		City:        city,
		Lat:         raw.Lat,
		Lon:         raw.Lon,
	}

	suggestion.Label = buildLabel(suggestion)

	return suggestion, true
}

func pickCity(address nominatimAddress) string {
	for _, candidate := range []string{address.City, address.Town, address.Village, address.Municipality, address.Hamlet} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

func buildLabel(suggestion AddressSuggestion) string {
	parts := []string{suggestion.Street}
	if suggestion.HouseNumber != "" {
		parts = append(parts, "#", suggestion.HouseNumber)
	}
	parts = append(parts, ",")
	if suggestion.ZipCode != "" {
		parts = append(parts, suggestion.ZipCode)
	}
	parts = append(parts, suggestion.City)

	label := strings.Join(parts, " ")
	label = strings.ReplaceAll(label, " ,", ",")
	return strings.TrimSpace(label)
}
