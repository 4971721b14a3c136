// Package adapter provides implementations of external interfaces that other domains need.
// The auth domain satisfies consumer-driven interfaces defined by the visits domain
// so that visits never depends on auth internals.
package adapter

import (
	"context"
	"errors"

	"fieldvisits_backend/internal/auth/repository"
	authservice "fieldvisits_backend/internal/auth/service"
	"fieldvisits_backend/internal/visits/deletion"
	"fieldvisits_backend/internal/visits/domain"
	"fieldvisits_backend/internal/visits/service"

	"github.com/google/uuid"
)

// AgentDirectoryAdapter implements visits/service.AgentDirectory using the auth repository.
type AgentDirectoryAdapter struct {
	repo repository.UserReader
}

// NewAgentDirectoryAdapter creates a new adapter for resolving assignable users.
func NewAgentDirectoryAdapter(repo repository.UserReader) *AgentDirectoryAdapter {
	return &AgentDirectoryAdapter{repo: repo}
}

// GetAgent implements service.AgentDirectory.
func (a *AgentDirectoryAdapter) GetAgent(ctx context.Context, id uuid.UUID) (domain.Agent, bool, error) {
	user, err := a.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Agent{}, false, nil
		}
		return domain.Agent{}, false, err
	}

	return domain.Agent{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}, true, nil
}

// Ensure AgentDirectoryAdapter implements service.AgentDirectory
var _ service.AgentDirectory = (*AgentDirectoryAdapter)(nil)

// The auth service verifies deletion secrets for the visits domain as is.
var _ deletion.CredentialVerifier = (*authservice.Service)(nil)
