package domain

import "fmt"

const (
	MinPartSize = 5 * 1024 * 1024 // 5MB minimum part size for S3-compatible storage
	MaxParts    = 10000
	MaxFileSize = 5 * 1024 * 1024 * 1024 * 1024 // 5TB
)

// UploadInitRequest is the body of POST /v2/api/dev/videos/upload/init.
type UploadInitRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

// UploadInitResponse carries the presigned part URLs for a new upload session.
type UploadInitResponse struct {
	VideoID  int      `json:"videoId"`
	UploadID string   `json:"uploadId"`
	PartURLs []string `json:"partUrls"`
	PartSize int64    `json:"partSize"`
}

// UploadPart is one acknowledged part, as submitted on confirm.
type UploadPart struct {
	PartNumber int    `json:"partNumber"`
	ETag       string `json:"etag"`
}

// UploadConfirmRequest is the body of POST /v2/api/dev/videos/{id}/upload/confirm.
type UploadConfirmRequest struct {
	UploadID string       `json:"uploadId"`
	Parts    []UploadPart `json:"parts"`
}

type UploadConfirmResponse struct {
	VideoID int    `json:"videoId"`
	Status  string `json:"status"`
}

// UploadSession is the client view of an initiated upload. It is not modified after Initiate returns.
type UploadSession struct {
	VideoID     int
	UploadID    string
	PartSize    int64
	PartTargets []string
}

// NewUploadSession converts an init response into a session.
func NewUploadSession(resp UploadInitResponse) *UploadSession {
	targets := make([]string, len(resp.PartURLs))
	copy(targets, resp.PartURLs)
	return &UploadSession{
		VideoID:     resp.VideoID,
		UploadID:    resp.UploadID,
		PartSize:    resp.PartSize,
		PartTargets: targets,
	}
}

// PartCount returns ceil(size/partSize). An empty file has no parts.
func PartCount(size, partSize int64) int {
	if size <= 0 || partSize <= 0 {
		return 0
	}
	count := size / partSize
	if size%partSize != 0 {
		count++
	}
	return int(count)
}

// PartLength returns the length of the 0-based chunk index for a file of the given size.
func PartLength(size, partSize int64, index int) int64 {
	offset := int64(index) * partSize
	if offset >= size {
		return 0
	}
	return min(partSize, size-offset)
}

// CalculatePartSize returns the part size the server hands out for a file.
// It stays at MinPartSize until that would need more than MaxParts parts.
func CalculatePartSize(size int64) int64 {
	if size <= 0 {
		return MinPartSize
	}
	if PartCount(size, MinPartSize) <= MaxParts {
		return MinPartSize
	}
	return (size + MaxParts - 1) / MaxParts
}

// ValidateParts checks that parts are exactly 1..expected in ascending order with non-empty etags.
func ValidateParts(parts []UploadPart, expected int) error {
	if len(parts) != expected {
		return fmt.Errorf("expected %d parts, got %d", expected, len(parts))
	}
	for i, part := range parts {
		if part.PartNumber != i+1 {
			return fmt.Errorf("part at position %d has number %d, want %d", i, part.PartNumber, i+1)
		}
		if part.ETag == "" {
			return fmt.Errorf("part %d has an empty etag", part.PartNumber)
		}
	}
	return nil
}
