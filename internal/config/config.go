package config

import (
	"context"
	"fmt"
	"time"

	"github.com/jonno85/video-multipart-uploader/internal/adapter"
)

const (
	DEFAULT_API_BASE        = "http://localhost:8081"
	DEFAULT_CONCURRENCY     = 5
	DEFAULT_STREAM_TIMEOUT  = 30
	DEFAULT_SERVER_PORT     = "8081"
	DEFAULT_METRICS_PORT    = "2112"
	DEFAULT_PRESIGN_TTL_MIN = 60
	STORAGE_DRIVER_MINIO    = "minio"
	STORAGE_DRIVER_S3       = "s3"
)

// UploaderConfig configures the upload client and its watch mode.
type UploaderConfig struct {
	APIBase       string
	Concurrency   int
	HTTPTimeout   time.Duration
	VerifyETags   bool
	StreamTimeout time.Duration
	MetricsAddr   string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

type S3Config struct {
	Region   string
	Endpoint string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ServerConfig configures the upload coordination backend.
type ServerConfig struct {
	Port          string
	MetricsPort   string
	StorageDriver string
	S3Bucket      string
	PresignTTL    time.Duration
	Minio         MinioConfig
	S3            S3Config
	Redis         RedisConfig
}

type AppClients struct {
	RedisClient *adapter.RedisClientImpl
	Storage     adapter.ObjectStorage
}

// NewAppClients connects the session store and the configured object storage driver.
func NewAppClients(ctx context.Context, cfg ServerConfig) (*AppClients, error) {
	var (
		storage adapter.ObjectStorage
		err     error
	)
	switch cfg.StorageDriver {
	case STORAGE_DRIVER_MINIO:
		storage, err = adapter.NewMinioClient(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL, cfg.S3Bucket)
	case STORAGE_DRIVER_S3:
		storage, err = adapter.NewS3Client(ctx, cfg.S3.Region, cfg.S3.Endpoint, cfg.S3Bucket)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	if err != nil {
		return nil, err
	}
	return &AppClients{
		RedisClient: adapter.NewRedisClientImpl(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB),
		Storage:     storage,
	}, nil
}
