package repository

import (
	"context"
	"fmt"

	"fieldvisits_backend/internal/visits/domain"

	"github.com/google/uuid"
)

// CreateAttachment inserts attachment metadata
func (r *Repository) CreateAttachment(ctx context.Context, a *domain.Attachment) error {
	query := `
		INSERT INTO visit_attachments (id, visit_id, uploaded_by, file_key, file_name, content_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.VisitID, a.UploadedBy, a.FileKey, a.FileName, a.ContentType, a.SizeBytes, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create visit attachment: %w", err)
	}
	return nil
}

// ListAttachments returns a visit's attachments, oldest first
func (r *Repository) ListAttachments(ctx context.Context, visitID uuid.UUID) ([]domain.Attachment, error) {
	query := `SELECT id, visit_id, uploaded_by, file_key, file_name, content_type, size_bytes, created_at
		FROM visit_attachments WHERE visit_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, visitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list visit attachments: %w", err)
	}
	defer rows.Close()

	items := []domain.Attachment{}
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(&a.ID, &a.VisitID, &a.UploadedBy, &a.FileKey, &a.FileName, &a.ContentType, &a.SizeBytes, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan visit attachment: %w", err)
		}
		items = append(items, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visit attachments: %w", err)
	}

	return items, nil
}
