package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonno85/video-multipart-uploader/internal/domain"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const minioRegion = "eu-west-1"

type MinioClientImpl struct {
	core   *minio.Core
	bucket string
}

func NewMinioClient(endpoint, accessKey, secretKey string, useSSL bool, bucket string) (*MinioClientImpl, error) {
	core, err := minio.NewCore(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return &MinioClientImpl{
		core:   core,
		bucket: bucket,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (m *MinioClientImpl) EnsureBucket(ctx context.Context) error {
	exists, err := m.core.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.core.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: minioRegion}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", m.bucket, err)
	}
	slog.Info("Bucket created", "bucket", m.bucket)
	return nil
}

func (m *MinioClientImpl) CreateMultipartUpload(ctx context.Context, key string, contentType string) (string, error) {
	uploadID, err := m.core.NewMultipartUpload(ctx, m.bucket, key, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create multipart upload: %w", err)
	}
	return uploadID, nil
}

// PresignPartURLs returns one presigned PUT URL per part, in part order.
func (m *MinioClientImpl) PresignPartURLs(ctx context.Context, key string, uploadID string, partCount int, ttl time.Duration) ([]string, error) {
	urls := make([]string, partCount)
	for i := range partCount {
		partNumber := i + 1
		params := url.Values{}
		params.Set("partNumber", strconv.Itoa(partNumber))
		params.Set("uploadId", uploadID)
		presigned, err := m.core.Presign(ctx, http.MethodPut, m.bucket, key, ttl, params)
		if err != nil {
			return nil, fmt.Errorf("failed to generate presigned URL for part %d: %w", partNumber, err)
		}
		urls[i] = presigned.String()
	}
	return urls, nil
}

func (m *MinioClientImpl) CompleteMultipartUpload(ctx context.Context, key string, uploadID string, parts []domain.UploadPart) error {
	completed := make([]minio.CompletePart, len(parts))
	for i, part := range parts {
		completed[i] = minio.CompletePart{
			PartNumber: part.PartNumber,
			ETag:       part.ETag,
		}
	}
	if _, err := m.core.CompleteMultipartUpload(ctx, m.bucket, key, uploadID, completed, minio.PutObjectOptions{}); err != nil {
		return fmt.Errorf("failed to complete multipart upload: %w", err)
	}
	return nil
}

// AbortMultipartUpload cancels a multipart upload (cleanup on failure)
func (m *MinioClientImpl) AbortMultipartUpload(ctx context.Context, key string, uploadID string) error {
	if err := m.core.AbortMultipartUpload(ctx, m.bucket, key, uploadID); err != nil {
		return fmt.Errorf("failed to abort multipart upload: %w", err)
	}
	return nil
}
