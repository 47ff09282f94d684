package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonno85/video-multipart-uploader/internal/adapter"
	"github.com/jonno85/video-multipart-uploader/internal/apperr"
	"github.com/jonno85/video-multipart-uploader/internal/domain"
	"github.com/jonno85/video-multipart-uploader/internal/metrics"
)

// UploadCoordinator is what the HTTP layer needs from the upload service.
type UploadCoordinator interface {
	InitUpload(ctx context.Context, req domain.UploadInitRequest) (*domain.UploadInitResponse, error)
	ConfirmUpload(ctx context.Context, videoID int, req domain.UploadConfirmRequest) (*domain.UploadConfirmResponse, error)
	GetVideo(ctx context.Context, videoID int) (*domain.Video, error)
}

// UploadService allocates multipart sessions on object storage and finalizes them on confirm.
type UploadService struct {
	storage    adapter.ObjectStorage
	store      adapter.RedisOperationalClient
	presignTTL time.Duration
	now        func() time.Time
}

func NewUploadService(storage adapter.ObjectStorage, store adapter.RedisOperationalClient, presignTTL time.Duration) *UploadService {
	return &UploadService{
		storage:    storage,
		store:      store,
		presignTTL: presignTTL,
		now:        time.Now,
	}
}

func validateInit(req domain.UploadInitRequest) error {
	if strings.TrimSpace(req.Filename) == "" {
		return fmt.Errorf("%w: filename is required", apperr.ErrInvalidRequest)
	}
	if !strings.HasPrefix(req.ContentType, "video/") {
		return fmt.Errorf("%w: invalid content type: %s, must be a video", apperr.ErrInvalidRequest, req.ContentType)
	}
	if req.SizeBytes <= 0 {
		return fmt.Errorf("%w: sizeBytes must be positive", apperr.ErrInvalidRequest)
	}
	if req.SizeBytes > domain.MaxFileSize {
		return fmt.Errorf("%w: file too large: max size is 5TB", apperr.ErrInvalidRequest)
	}
	return nil
}

// objectKey builds videos/{videoID}/{uuid}_{filename}, keeping only the base name of the client file.
func objectKey(videoID int, filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}
	return fmt.Sprintf("videos/%d/%s_%s", videoID, uuid.New().String(), filename)
}

// InitUpload creates the multipart upload, presigns every part and records the video as pending.
// The multipart upload is aborted if anything after its creation fails.
func (s *UploadService) InitUpload(ctx context.Context, req domain.UploadInitRequest) (*domain.UploadInitResponse, error) {
	if err := validateInit(req); err != nil {
		metrics.SessionErrors.WithLabelValues("init").Inc()
		return nil, err
	}

	partSize := domain.CalculatePartSize(req.SizeBytes)
	partCount := domain.PartCount(req.SizeBytes, partSize)

	videoID, err := s.store.NextVideoID(ctx)
	if err != nil {
		metrics.SessionErrors.WithLabelValues("init").Inc()
		return nil, fmt.Errorf("failed to allocate video id: %w", err)
	}
	key := objectKey(videoID, req.Filename)

	uploadID, err := s.storage.CreateMultipartUpload(ctx, key, req.ContentType)
	if err != nil {
		metrics.SessionErrors.WithLabelValues("init").Inc()
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}

	partURLs, err := s.storage.PresignPartURLs(ctx, key, uploadID, partCount, s.presignTTL)
	if err != nil {
		s.abort(ctx, key, uploadID)
		metrics.SessionErrors.WithLabelValues("init").Inc()
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}

	now := s.now()
	video := domain.Video{
		ID:          videoID,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		ObjectKey:   key,
		UploadID:    uploadID,
		PartSize:    partSize,
		PartCount:   partCount,
		Status:      domain.VideoStatusPendingUpload,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateVideo(ctx, video); err != nil {
		s.abort(ctx, key, uploadID)
		metrics.SessionErrors.WithLabelValues("init").Inc()
		return nil, fmt.Errorf("failed to save video: %w", err)
	}

	slog.Info("Upload initiated", "videoID", videoID, "key", key, "parts", partCount, "partSize", partSize)
	metrics.SessionsInitiated.Inc()
	return &domain.UploadInitResponse{
		VideoID:  videoID,
		UploadID: uploadID,
		PartURLs: partURLs,
		PartSize: partSize,
	}, nil
}

// ConfirmUpload completes the multipart upload of a pending video. The video is claimed
// (pending_upload -> confirming) before storage is called, so only one confirm per video
// reaches CompleteMultipartUpload. A storage failure aborts the upload and marks the video failed.
func (s *UploadService) ConfirmUpload(ctx context.Context, videoID int, req domain.UploadConfirmRequest) (*domain.UploadConfirmResponse, error) {
	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		metrics.SessionErrors.WithLabelValues("confirm").Inc()
		return nil, err
	}
	if video.Status != domain.VideoStatusPendingUpload {
		metrics.SessionErrors.WithLabelValues("confirm").Inc()
		return nil, fmt.Errorf("%w: video %d is not in %s status (current: %s)", apperr.ErrInvalidState, videoID, domain.VideoStatusPendingUpload, video.Status)
	}
	if req.UploadID != video.UploadID {
		metrics.SessionErrors.WithLabelValues("confirm").Inc()
		return nil, apperr.ErrUploadMismatch
	}
	if err := domain.ValidateParts(req.Parts, video.PartCount); err != nil {
		metrics.SessionErrors.WithLabelValues("confirm").Inc()
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidRequest, err)
	}

	video, err = s.store.TransitionVideo(ctx, videoID, domain.VideoStatusPendingUpload, domain.VideoStatusConfirming, s.now())
	if err != nil {
		metrics.SessionErrors.WithLabelValues("confirm").Inc()
		return nil, err
	}

	if err := s.storage.CompleteMultipartUpload(ctx, video.ObjectKey, video.UploadID, req.Parts); err != nil {
		s.abort(ctx, video.ObjectKey, video.UploadID)
		video.Status = domain.VideoStatusFailed
		video.UpdatedAt = s.now()
		if updateErr := s.store.UpdateVideo(ctx, *video); updateErr != nil {
			slog.Error("Failed to mark video failed", "videoID", videoID, "err", updateErr)
		}
		metrics.SessionErrors.WithLabelValues("confirm").Inc()
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}

	video.Status = domain.VideoStatusCompleted
	video.UpdatedAt = s.now()
	if err := s.store.UpdateVideo(ctx, *video); err != nil {
		metrics.SessionErrors.WithLabelValues("confirm").Inc()
		return nil, fmt.Errorf("failed to set upload status completed: %w", err)
	}

	slog.Info("Upload confirmed", "videoID", videoID, "key", video.ObjectKey, "parts", len(req.Parts))
	metrics.SessionsConfirmed.Inc()
	return &domain.UploadConfirmResponse{
		VideoID: videoID,
		Status:  video.Status,
	}, nil
}

func (s *UploadService) GetVideo(ctx context.Context, videoID int) (*domain.Video, error) {
	return s.store.GetVideo(ctx, videoID)
}

func (s *UploadService) abort(ctx context.Context, key, uploadID string) {
	if err := s.storage.AbortMultipartUpload(ctx, key, uploadID); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Failed to abort multipart upload", "key", key, "uploadID", uploadID, "err", err)
	}
}
