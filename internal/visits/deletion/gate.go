// Package deletion guards visit deletion behind a second confirmation secret.
package deletion

import (
	"context"
	"crypto/subtle"
	"fmt"

	"fieldvisits_backend/internal/visits/domain"

	"github.com/google/uuid"
)

// CredentialVerifier checks a plaintext secret against a user's stored credential.
type CredentialVerifier interface {
	VerifyCredential(ctx context.Context, userID uuid.UUID, plaintext string) (bool, error)
}

// Gate authorizes deletions. A supplied secret is accepted when it equals the
// configured override secret or the principal's own credential.
type Gate struct {
	override []byte
	verifier CredentialVerifier
}

// NewGate creates a Gate. An empty override disables the override path.
func NewGate(override string, verifier CredentialVerifier) *Gate {
	return &Gate{override: []byte(override), verifier: verifier}
}

// Authorize returns nil when supplied authorizes principal to delete.
func (g *Gate) Authorize(ctx context.Context, principal domain.Principal, supplied string) error {
	if supplied == "" {
		return domain.MissingCredential()
	}

	if len(g.override) > 0 && subtle.ConstantTimeCompare([]byte(supplied), g.override) == 1 {
		return nil
	}

	ok, err := g.verifier.VerifyCredential(ctx, principal.UserID, supplied)
	if err != nil {
		return fmt.Errorf("verify credential: %w", err)
	}
	if !ok {
		return domain.Unauthorized()
	}
	return nil
}
