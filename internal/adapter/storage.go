package adapter

import (
	"context"
	"time"

	"github.com/jonno85/video-multipart-uploader/internal/domain"
)

// ObjectStorage is the multipart surface of an S3-compatible store.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	CreateMultipartUpload(ctx context.Context, key string, contentType string) (string, error)
	PresignPartURLs(ctx context.Context, key string, uploadID string, partCount int, ttl time.Duration) ([]string, error)
	CompleteMultipartUpload(ctx context.Context, key string, uploadID string, parts []domain.UploadPart) error
	AbortMultipartUpload(ctx context.Context, key string, uploadID string) error
}
