package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	PartsUploaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_parts_uploaded_total",
			Help: "Total number of video parts uploaded to presigned targets",
		},
		[]string{"file"},
	)
	PartsUploadedErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_parts_uploaded_errors_total",
			Help: "Total number of video part uploads that failed",
		},
		[]string{"file"},
	)
	BytesUploaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_bytes_uploaded_total",
			Help: "Total number of part bytes uploaded to presigned targets",
		},
		[]string{"file"},
	)
	PartUploadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_part_upload_duration_seconds",
			Help:    "Duration of single part uploads",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"file"},
	)
	UploadsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_uploads_failed_total",
			Help: "Total number of upload workflows that failed, by stage",
		},
		[]string{"stage"},
	)
	UploadsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "video_uploads_completed_total",
			Help: "Total number of upload workflows confirmed by the backend",
		},
	)
	SessionsInitiated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "video_upload_sessions_initiated_total",
			Help: "Total number of multipart upload sessions created",
		},
	)
	SessionsConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "video_upload_sessions_confirmed_total",
			Help: "Total number of multipart upload sessions completed",
		},
	)
	SessionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_upload_session_errors_total",
			Help: "Total number of failed session operations, by operation",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(PartsUploaded)
	prometheus.MustRegister(PartsUploadedErrors)
	prometheus.MustRegister(BytesUploaded)
	prometheus.MustRegister(PartUploadDuration)
	prometheus.MustRegister(UploadsFailed)
	prometheus.MustRegister(UploadsCompleted)
	prometheus.MustRegister(SessionsInitiated)
	prometheus.MustRegister(SessionsConfirmed)
	prometheus.MustRegister(SessionErrors)
}
