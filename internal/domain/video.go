package domain

import "time"

const (
	VideoStatusPendingUpload = "pending_upload"
	VideoStatusConfirming    = "confirming"
	VideoStatusCompleted     = "completed"
	VideoStatusFailed        = "failed"
)

// Video is the server-side record of an upload session.
type Video struct {
	ID          int       `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	ObjectKey   string    `json:"object_key"`
	UploadID    string    `json:"upload_id"`
	PartSize    int64     `json:"part_size"`
	PartCount   int       `json:"part_count"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
