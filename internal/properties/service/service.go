package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"fieldvisits_backend/internal/properties/repository"
	"fieldvisits_backend/platform/apperr"
	"fieldvisits_backend/platform/logger"
	"fieldvisits_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	msgPropertyNotFound = "Inmueble no encontrado"
	msgPropertyInUse    = "No se puede eliminar el inmueble porque tiene %d visita(s) asociada(s). Elimine las visitas primero."
)

// Placeholder coordinates the frontend submits when the user did not pick a
// point on the map (Bogota city center).
const (
	placeholderLat       = 4.6097
	placeholderLng       = -74.0817
	placeholderTolerance = 0.0001
)

// Coordinates is a position in decimal degrees.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Geocoder resolves street addresses to coordinates.
type Geocoder interface {
	// Geocode returns found=false when no match exists.
	Geocode(ctx context.Context, address string) (Coordinates, bool, error)
}

// VisitCounter reports how many visits reference a property.
type VisitCounter interface {
	CountByProperty(ctx context.Context, propertyID uuid.UUID) (int, error)
}

type Service struct {
	repo     repository.Store
	geocoder Geocoder
	visits   VisitCounter
	log      *logger.Logger
}

// New creates the property service. geocoder may be nil.
func New(repo repository.Store, geocoder Geocoder, visits VisitCounter, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, geocoder: geocoder, visits: visits, log: log}
}

// SetVisitCounter sets the visits lookup used by Delete.
func (s *Service) SetVisitCounter(visits VisitCounter) {
	s.visits = visits
}

// Input carries the editable fields of a property.
type Input struct {
	Address    string
	ClientName *string
	Coords     *Coordinates
}

func (s *Service) List(ctx context.Context) ([]repository.Property, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Property, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Property{}, mapNotFound(err)
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, in Input) (repository.Property, error) {
	p, err := s.prepare(ctx, uuid.New(), in)
	if err != nil {
		return repository.Property{}, err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (repository.Property, error) {
	p, err := s.prepare(ctx, id, in)
	if err != nil {
		return repository.Property{}, err
	}
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return repository.Property{}, mapNotFound(err)
	}
	return updated, nil
}

// Delete removes a property that no visit references.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if s.visits == nil {
		return errors.New("property delete: visit counter not configured")
	}
	count, err := s.visits.CountByProperty(ctx, id)
	if err != nil {
		return fmt.Errorf("count visits for property: %w", err)
	}
	if count > 0 {
		return inUse(count)
	}

	err = s.repo.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrInUse):
		// a visit was booked between the count and the delete
		return inUse(1)
	case err != nil:
		return mapNotFound(err)
	}
	return nil
}

func (s *Service) prepare(ctx context.Context, id uuid.UUID, in Input) (repository.Property, error) {
	address := sanitize.Text(in.Address)
	if address == "" {
		return repository.Property{}, apperr.Validation("address is required")
	}

	coords := s.resolveCoordinates(ctx, address, in.Coords)

	p := repository.Property{ID: id, Address: address, ClientName: sanitize.OptionalText(in.ClientName)}
	if coords != nil {
		lat, lng := coords.Lat, coords.Lng
		p.Lat, p.Lng = &lat, &lng
	}
	return p, nil
}

// resolveCoordinates geocodes the address when the submitted coordinates are
// missing or the map placeholder. Geocoding is best effort: on a miss or an
// upstream failure the submitted coordinates are kept.
func (s *Service) resolveCoordinates(ctx context.Context, address string, submitted *Coordinates) *Coordinates {
	if s.geocoder == nil || !needsGeocoding(submitted) {
		return submitted
	}

	point, found, err := s.geocoder.Geocode(ctx, address)
	switch {
	case err != nil:
		s.log.Warn("geocoding failed, keeping submitted coordinates", "address", address, "error", err)
		return submitted
	case !found:
		s.log.Info("address not geocoded, keeping submitted coordinates", "address", address)
		return submitted
	}
	return &point
}

func needsGeocoding(c *Coordinates) bool {
	if c == nil {
		return true
	}
	return math.Abs(c.Lat-placeholderLat) < placeholderTolerance &&
		math.Abs(c.Lng-placeholderLng) < placeholderTolerance
}

func inUse(count int) error {
	return apperr.Validation(fmt.Sprintf(msgPropertyInUse, count)).
		WithDetails(map[string]int{"visitCount": count})
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgPropertyNotFound)
	}
	return err
}
