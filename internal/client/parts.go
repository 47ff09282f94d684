package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonno85/video-multipart-uploader/internal/apperr"
	"github.com/jonno85/video-multipart-uploader/internal/domain"
	"github.com/jonno85/video-multipart-uploader/internal/metrics"
	"github.com/jonno85/video-multipart-uploader/internal/utils"
	"golang.org/x/sync/errgroup"
)

// PartUploader PUTs file chunks to presigned targets with bounded concurrency.
type PartUploader struct {
	httpClient  *http.Client
	concurrency int
	verifyETags bool
}

func NewPartUploader(httpClient *http.Client, concurrency int, verifyETags bool) *PartUploader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &PartUploader{
		httpClient:  httpClient,
		concurrency: concurrency,
		verifyETags: verifyETags,
	}
}

// ParseETag strips the quotes S3-compatible stores put around ETag values.
func ParseETag(header string) (string, error) {
	etag := strings.Trim(strings.TrimSpace(header), `"`)
	if etag == "" {
		return "", apperr.ErrMissingETag
	}
	return etag, nil
}

// UploadParts sends chunk i of the file to targets[i] as part i+1 and returns the
// acknowledged parts sorted by part number. The first failure cancels the remaining transfers.
func (u *PartUploader) UploadParts(ctx context.Context, path string, targets []string, partSize int64) ([]domain.UploadPart, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	totalParts := domain.PartCount(size, partSize)
	if len(targets) != totalParts {
		return nil, fmt.Errorf("%s needs %d parts of %d bytes but %d targets were issued", path, totalParts, partSize, len(targets))
	}

	label := filepath.Base(path)
	slog.Info("Uploading parts", "file", label, "parts", totalParts, "concurrency", u.concurrency)

	var (
		mu    sync.Mutex
		parts = make([]domain.UploadPart, 0, totalParts)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for i, target := range targets {
		partNumber := i + 1
		offset := int64(i) * partSize
		length := domain.PartLength(size, partSize, i)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// ReadAt on the shared file is safe for concurrent use
			chunk := make([]byte, length)
			if _, err := io.ReadFull(io.NewSectionReader(file, offset, length), chunk); err != nil {
				return &apperr.TransferError{PartNumber: partNumber, Err: fmt.Errorf("read chunk: %w", err)}
			}
			startTime := time.Now()
			part, err := u.uploadPart(gctx, target, partNumber, chunk)
			if err != nil {
				metrics.PartsUploadedErrors.WithLabelValues(label).Inc()
				return err
			}
			metrics.PartsUploaded.WithLabelValues(label).Inc()
			metrics.BytesUploaded.WithLabelValues(label).Add(float64(length))
			metrics.PartUploadDuration.WithLabelValues(label).Observe(time.Since(startTime).Seconds())
			slog.Info("Part done", "part", partNumber, "total", totalParts, "etag", part.ETag)

			mu.Lock()
			parts = append(parts, part)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(parts, func(i, j int) bool {
		return parts[i].PartNumber < parts[j].PartNumber
	})
	return parts, nil
}

func (u *PartUploader) uploadPart(ctx context.Context, target string, partNumber int, chunk []byte) (domain.UploadPart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(chunk))
	if err != nil {
		return domain.UploadPart{}, &apperr.TransferError{PartNumber: partNumber, Err: err}
	}
	req.ContentLength = int64(len(chunk))
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return domain.UploadPart{}, &apperr.TransferError{PartNumber: partNumber, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.UploadPart{}, &apperr.TransferError{
			PartNumber: partNumber,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(readBody(resp))),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	etag, err := ParseETag(resp.Header.Get("ETag"))
	if err != nil {
		return domain.UploadPart{}, &apperr.TransferError{PartNumber: partNumber, StatusCode: resp.StatusCode, Err: err}
	}
	if u.verifyETags && utils.IsMD5Hex(etag) && !strings.EqualFold(etag, utils.ComputeMD5(chunk)) {
		return domain.UploadPart{}, &apperr.TransferError{PartNumber: partNumber, StatusCode: resp.StatusCode, Err: apperr.ErrETagMismatch}
	}
	return domain.UploadPart{PartNumber: partNumber, ETag: etag}, nil
}
