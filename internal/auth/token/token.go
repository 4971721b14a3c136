// Package token issues signed access tokens.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenType is the "type" claim every access token carries.
const AccessTokenType = "access"

// Subject is the principal an access token is issued for.
type Subject struct {
	UserID uuid.UUID
	Role   string
	Name   string
}

// IssueAccess signs an HS256 access token for subject valid for ttl.
func IssueAccess(subject Subject, ttl time.Duration, secret string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject.UserID.String(),
		"role": subject.Role,
		"name": subject.Name,
		"type": AccessTokenType,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(secret))
}
