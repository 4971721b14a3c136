// Package auth provides authentication and user administration.
// This file defines the public API of the auth bounded context.
// Only types defined here should be imported by other domains.
package auth

import (
	"time"

	"github.com/google/uuid"
)

// Roles a user can hold.
const (
	RoleAdmin = "ADMIN"
	RoleAgent = "AGENT"
)

// Profile represents user information that can be shared with other domains.
type Profile struct {
	ID        uuid.UUID
	Email     string
	Name      string
	Role      string
	CreatedAt time.Time
}

// ValidRole reports whether role is one a user may hold.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleAgent
}
