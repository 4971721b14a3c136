package geofence

import (
	"fmt"
	"math"

	"fieldvisits_backend/platform/apperr"
)

// CodeTooFarFromProperty is the error code returned when a check-in is outside the radius.
const CodeTooFarFromProperty = "too_far_from_property"

const (
	// DefaultAgentRadiusMeters allows for GPS drift and map discrepancies in the city.
	DefaultAgentRadiusMeters = 1500.0
	// DefaultAdminRadiusMeters lets administrators start visits remotely for support.
	DefaultAdminRadiusMeters = 50000.0
)

// Policy maps a principal role to its maximum check-in distance.
type Policy struct {
	AgentRadiusMeters float64
	AdminRadiusMeters float64
}

// DefaultPolicy returns the standard radii.
func DefaultPolicy() Policy {
	return Policy{
		AgentRadiusMeters: DefaultAgentRadiusMeters,
		AdminRadiusMeters: DefaultAdminRadiusMeters,
	}
}

// RadiusFor returns the radius for the given role. Unknown roles get the agent radius.
func (p Policy) RadiusFor(role string) float64 {
	if role == RoleAdmin {
		return p.AdminRadiusMeters
	}
	return p.AgentRadiusMeters
}

// RoleAdmin is the role that receives the wider radius.
const RoleAdmin = "ADMIN"

// Result describes a performed (or skipped) check.
type Result struct {
	Skipped        bool
	DistanceMeters float64
	RadiusMeters   float64
}

// TooFarDetails is the error payload of a rejected check-in.
type TooFarDetails struct {
	DistanceMeters    int64 `json:"distanceMeters"`
	MaxDistanceMeters int64 `json:"maxDistanceMeters"`
}

// Validator applies a Policy to reported positions.
type Validator struct {
	policy Policy
}

// NewValidator creates a Validator with the given policy.
func NewValidator(policy Policy) *Validator {
	return &Validator{policy: policy}
}

// Check verifies that reported lies within the role's radius of property.
// A property without coordinates cannot be checked and is always allowed.
func (v *Validator) Check(reported Coordinates, property *Coordinates, role string) (Result, error) {
	radius := v.policy.RadiusFor(role)
	if property == nil {
		return Result{Skipped: true, RadiusMeters: radius}, nil
	}
	if !reported.Valid() {
		return Result{RadiusMeters: radius}, apperr.Validation("invalid coordinates")
	}

	distance := DistanceMeters(reported, *property)
	result := Result{DistanceMeters: distance, RadiusMeters: radius}
	if distance > radius {
		return result, TooFar(distance, radius)
	}
	return result, nil
}

// TooFar builds the domain error for a check-in outside the radius.
func TooFar(distance, radius float64) *apperr.Error {
	rounded := int64(math.Round(distance))
	maxRadius := int64(math.Round(radius))
	return apperr.BadRequest(
		fmt.Sprintf("Estás demasiado lejos de la propiedad (%dm). Debes estar a menos de %dm.", rounded, maxRadius),
	).WithCode(CodeTooFarFromProperty).WithDetails(TooFarDetails{
		DistanceMeters:    rounded,
		MaxDistanceMeters: maxRadius,
	})
}
