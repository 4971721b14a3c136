package service

import (
	"context"
	"io"
	"time"

	"fieldvisits_backend/internal/adapters/storage"
	"fieldvisits_backend/internal/visits/domain"

	"github.com/google/uuid"
)

// Store persists visits.
type Store interface {
	Create(ctx context.Context, v *domain.Visit) error
	// GetByID returns the visit with its property embedded, or a visit_not_found error.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Visit, error)
	// UpdateLifecycle persists the lifecycle fields of v only if the stored status
	// still equals from.
	UpdateLifecycle(ctx context.Context, v *domain.Visit, from domain.Status) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListForAgentBetween returns the agent's visits starting in [from, to).
	ListForAgentBetween(ctx context.Context, agentID uuid.UUID, from, to time.Time) ([]domain.Visit, error)
	// List returns visits with embedded properties ordered by scheduled start.
	List(ctx context.Context, params domain.ListParams) ([]domain.Visit, error)
	CountByProperty(ctx context.Context, propertyID uuid.UUID) (int, error)
	// ListPendingEndedBefore returns pending visits whose window ended before cutoff.
	ListPendingEndedBefore(ctx context.Context, cutoff time.Time) ([]domain.Visit, error)
	DeleteByAgent(ctx context.Context, agentID uuid.UUID) (int64, error)
}

// AttachmentStore persists attachment metadata.
type AttachmentStore interface {
	CreateAttachment(ctx context.Context, a *domain.Attachment) error
	ListAttachments(ctx context.Context, visitID uuid.UUID) ([]domain.Attachment, error)
}

// PropertyReader resolves properties owned by the properties module.
type PropertyReader interface {
	// GetProperty returns found=false when the property does not exist.
	GetProperty(ctx context.Context, id uuid.UUID) (prop domain.Property, found bool, err error)
}

// AgentDirectory resolves users that visits can be assigned to.
type AgentDirectory interface {
	// GetAgent returns found=false when the user does not exist.
	GetAgent(ctx context.Context, id uuid.UUID) (agent domain.Agent, found bool, err error)
}

// AgentLocker serializes booking decisions per agent.
type AgentLocker interface {
	Lock(ctx context.Context, agentID uuid.UUID) (unlock func(), err error)
}

// MissedVisitScheduler arranges for a pending visit to be closed as missed.
type MissedVisitScheduler interface {
	ScheduleMissedVisitCheck(ctx context.Context, visitID uuid.UUID, runAt time.Time) error
}

// ObjectStorage stores attachment files.
type ObjectStorage interface {
	ValidateContentType(contentType string) error
	ValidateFileSize(sizeBytes int64) error
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*storage.PresignedURL, error)
	DeleteObject(ctx context.Context, bucket, fileKey string) error
}
