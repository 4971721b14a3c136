package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"fieldvisits_backend/platform/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL bounds how long an attachment link handed to a client works.
const PresignedURLTTL = 15 * time.Minute

const (
	keySuffixLen     = 8
	metaOriginalName = "original-name"
)

// MinIOService stores visit attachments in a MinIO (or any S3-compatible) bucket.
type MinIOService struct {
	client      *minio.Client
	maxFileSize int64
	now         func() time.Time
}

func NewMinIOService(cfg config.MinIOConfig) (*MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOService{
		client:      client,
		maxFileSize: cfg.GetMinIOMaxFileSize(),
		now:         time.Now,
	}, nil
}

func (s *MinIOService) EnsureBucketExists(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

// GenerateDownloadURL presigns a GET that makes browsers save the file under
// the name it was uploaded with rather than the storage key.
func (s *MinIOService) GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error) {
	expiresAt := s.now().Add(PresignedURLTTL)

	params := url.Values{}
	params.Set("response-content-disposition", contentDisposition(downloadName(fileKey)))

	presigned, err := s.client.PresignedGetObject(ctx, bucket, fileKey, PresignedURLTTL, params)
	if err != nil {
		return nil, fmt.Errorf("failed to presign download for %s: %w", fileKey, err)
	}

	return &PresignedURL{
		URL:       presigned.String(),
		FileKey:   fileKey,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *MinIOService) DeleteObject(ctx context.Context, bucket, fileKey string) error {
	if err := s.client.RemoveObject(ctx, bucket, fileKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", fileKey, err)
	}
	return nil
}

// UploadFile streams reader into bucket under folder and returns the key.
func (s *MinIOService) UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	fileKey := objectKey(folder, fileName)

	_, err := s.client.PutObject(ctx, bucket, fileKey, reader, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{metaOriginalName: cleanFileName(fileName)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file %s: %w", fileKey, err)
	}
	return fileKey, nil
}

// objectKey places fileName under folder with a short random suffix so that
// repeated uploads of "foto.jpg" never overwrite each other.
func objectKey(folder, fileName string) string {
	name := cleanFileName(fileName)
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:keySuffixLen]
	return path.Join(folder, base+"_"+suffix+ext)
}

// cleanFileName drops any directory part a client sent along with the name.
func cleanFileName(fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "archivo"
	}
	return name
}

// downloadName reverses objectKey: "visits/x/acta_1a2b3c4d.pdf" -> "acta.pdf".
func downloadName(fileKey string) string {
	name := path.Base(fileKey)
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if i := strings.LastIndexByte(base, '_'); i > 0 && len(base)-i-1 == keySuffixLen {
		base = base[:i]
	}
	return base + ext
}

func contentDisposition(fileName string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": fileName})
}

var _ StorageService = (*MinIOService)(nil)
