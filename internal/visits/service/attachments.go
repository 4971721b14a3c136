package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"fieldvisits_backend/internal/visits/domain"
	"fieldvisits_backend/platform/apperr"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// presignConcurrency bounds parallel presign calls when listing attachments.
const presignConcurrency = 4

// UploadInput describes a file attached to a visit.
type UploadInput struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	Body        io.Reader
}

// AttachmentView is an attachment with a temporary download link.
type AttachmentView struct {
	domain.Attachment
	DownloadURL string
	ExpiresAt   time.Time
}

// AddAttachment uploads a file for a visit the principal may see.
func (s *Service) AddAttachment(ctx context.Context, principal domain.Principal, visitID uuid.UUID, in UploadInput) (*domain.Attachment, error) {
	if s.storage == nil || s.attachments == nil {
		return nil, apperr.BadRequest("attachments are not enabled")
	}
	if err := s.storage.ValidateContentType(in.ContentType); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if err := s.storage.ValidateFileSize(in.SizeBytes); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	visit, err := s.loadVisible(ctx, principal, visitID)
	if err != nil {
		return nil, err
	}

	fileName := filepath.Base(in.FileName)
	folder := "visits/" + visit.ID.String()
	key, err := s.storage.UploadFile(ctx, s.opts.AttachmentBucket, folder, fileName, in.ContentType, in.Body, in.SizeBytes)
	if err != nil {
		return nil, fmt.Errorf("upload attachment: %w", err)
	}

	attachment := &domain.Attachment{
		ID:          uuid.New(),
		VisitID:     visit.ID,
		UploadedBy:  principal.UserID,
		FileKey:     key,
		FileName:    fileName,
		ContentType: in.ContentType,
		SizeBytes:   in.SizeBytes,
		CreatedAt:   s.now(),
	}
	if err := s.attachments.CreateAttachment(ctx, attachment); err != nil {
		if cleanupErr := s.storage.DeleteObject(context.WithoutCancel(ctx), s.opts.AttachmentBucket, key); cleanupErr != nil {
			s.log.Warn("failed to remove orphaned attachment", "key", key, "error", cleanupErr)
		}
		return nil, err
	}
	return attachment, nil
}

// ListAttachments returns a visit's attachments with presigned download URLs.
func (s *Service) ListAttachments(ctx context.Context, principal domain.Principal, visitID uuid.UUID) ([]AttachmentView, error) {
	if s.storage == nil || s.attachments == nil {
		return []AttachmentView{}, nil
	}

	visit, err := s.loadVisible(ctx, principal, visitID)
	if err != nil {
		return nil, err
	}

	items, err := s.attachments.ListAttachments(ctx, visit.ID)
	if err != nil {
		return nil, err
	}

	views := make([]AttachmentView, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(presignConcurrency)
	for i := range items {
		g.Go(func() error {
			url, err := s.storage.GenerateDownloadURL(gctx, s.opts.AttachmentBucket, items[i].FileKey)
			if err != nil {
				return fmt.Errorf("presign %s: %w", items[i].FileKey, err)
			}
			views[i] = AttachmentView{Attachment: items[i], DownloadURL: url.URL, ExpiresAt: url.ExpiresAt}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}
