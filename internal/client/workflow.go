package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jonno85/video-multipart-uploader/internal/config"
	"github.com/jonno85/video-multipart-uploader/internal/metrics"
)

const (
	StageInit    = "init"
	StageUpload  = "upload"
	StageConfirm = "confirm"

	defaultContentType = "video/mp4"
)

var extensionContentTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
}

// Result summarizes a confirmed upload.
type Result struct {
	VideoID   int
	Status    string
	SizeBytes int64
	Parts     int
	Elapsed   time.Duration
}

// Workflow runs init, part upload and confirm in sequence for one file.
type Workflow struct {
	api   *APIClient
	parts *PartUploader
}

func NewWorkflow(api *APIClient, parts *PartUploader) *Workflow {
	return &Workflow{api: api, parts: parts}
}

// NewWorkflowFromConfig wires a workflow with a shared HTTP client.
func NewWorkflowFromConfig(cfg config.UploaderConfig) *Workflow {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	return NewWorkflow(
		NewAPIClient(cfg.APIBase, httpClient),
		NewPartUploader(httpClient, cfg.Concurrency, cfg.VerifyETags),
	)
}

// GuessContentType sniffs the file header and falls back to the extension when the
// content is not recognized as video.
func GuessContentType(path string) string {
	if mt, err := mimetype.DetectFile(path); err == nil && strings.HasPrefix(mt.String(), "video/") {
		return mt.String()
	}
	if ct, ok := extensionContentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return defaultContentType
}

// Run uploads the file at path. Any stage failure aborts the workflow; confirm is
// never sent after a failed part.
func (w *Workflow) Run(ctx context.Context, path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("file not found: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	startTime := time.Now()
	fileName := filepath.Base(path)
	contentType := GuessContentType(path)
	slog.Info("Initializing upload", "file", fileName, "size", info.Size(), "contentType", contentType)

	session, err := w.api.Initiate(ctx, fileName, contentType, info.Size())
	if err != nil {
		metrics.UploadsFailed.WithLabelValues(StageInit).Inc()
		return nil, err
	}
	slog.Info("Upload initialized", "videoID", session.VideoID, "uploadID", session.UploadID, "parts", len(session.PartTargets), "partSize", session.PartSize)

	parts, err := w.parts.UploadParts(ctx, path, session.PartTargets, session.PartSize)
	if err != nil {
		metrics.UploadsFailed.WithLabelValues(StageUpload).Inc()
		return nil, err
	}

	slog.Info("Confirming upload", "videoID", session.VideoID, "parts", len(parts))
	confirmed, err := w.api.Confirm(ctx, session.VideoID, session.UploadID, parts)
	if err != nil {
		metrics.UploadsFailed.WithLabelValues(StageConfirm).Inc()
		return nil, err
	}
	metrics.UploadsCompleted.Inc()

	result := &Result{
		VideoID:   confirmed.VideoID,
		Status:    confirmed.Status,
		SizeBytes: info.Size(),
		Parts:     len(parts),
		Elapsed:   time.Since(startTime),
	}
	slog.Info("Upload complete", "videoID", result.VideoID, "status", result.Status, "elapsed", result.Elapsed.String())
	return result, nil
}
