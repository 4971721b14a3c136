package domain

import (
	"time"

	"github.com/google/uuid"
)

// ListParams selects visits for listing. Nil fields do not filter.
// From is inclusive and To exclusive, both applied to ScheduledStart.
type ListParams struct {
	ID      *uuid.UUID
	AgentID *uuid.UUID
	From    *time.Time
	To      *time.Time
	Outcome *Outcome
	Status  *Status
}

// Attachment is a file uploaded as evidence for a visit.
type Attachment struct {
	ID          uuid.UUID
	VisitID     uuid.UUID
	UploadedBy  uuid.UUID
	FileKey     string
	FileName    string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}

// Agent is the view of a user the visits module needs to assign work.
type Agent struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  string
}
