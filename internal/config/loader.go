package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv reads .env into the process environment without overriding variables already set.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found or error loading .env file", "err", err)
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s is not a valid integer: %w", key, err)
	}
	return parsed, nil
}

func getEnvBool(key string) bool {
	return strings.ToLower(os.Getenv(key)) == "true"
}

// LoadUploaderEnv reads the client configuration from the environment and an optional .env file.
func LoadUploaderEnv() (UploaderConfig, error) {
	LoadDotEnv()
	cfg := UploaderConfig{
		APIBase:     strings.TrimRight(getEnv("API_BASE", DEFAULT_API_BASE), "/"),
		VerifyETags: getEnvBool("VERIFY_ETAGS"),
		MetricsAddr: os.Getenv("METRICS_ADDR"),
	}

	concurrency, err := getEnvInt("UPLOAD_CONCURRENCY", DEFAULT_CONCURRENCY)
	if err != nil {
		return cfg, err
	}
	if concurrency < 1 {
		return cfg, fmt.Errorf("UPLOAD_CONCURRENCY must be positive, got %d", concurrency)
	}
	cfg.Concurrency = concurrency

	timeout, err := getEnvInt("HTTP_TIMEOUT_SEC", 0)
	if err != nil {
		return cfg, err
	}
	cfg.HTTPTimeout = time.Duration(timeout) * time.Second

	if os.Getenv("STREAM_TIMEOUT_SEC") == "" {
		slog.Debug("STREAM_TIMEOUT_SEC is not set, using default", "seconds", DEFAULT_STREAM_TIMEOUT)
	}
	streamTimeout, err := getEnvInt("STREAM_TIMEOUT_SEC", DEFAULT_STREAM_TIMEOUT)
	if err != nil {
		return cfg, err
	}
	cfg.StreamTimeout = time.Duration(streamTimeout) * time.Second
	return cfg, nil
}

// LoadServerEnv reads the backend configuration. S3_BUCKET is required, as are
// MinIO credentials when the minio driver is selected.
func LoadServerEnv() (ServerConfig, error) {
	LoadDotEnv()
	cfg := ServerConfig{
		Port:          getEnv("SERVER_PORT", DEFAULT_SERVER_PORT),
		MetricsPort:   getEnv("METRICS_PORT", DEFAULT_METRICS_PORT),
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", STORAGE_DRIVER_MINIO)),
		S3Bucket:      os.Getenv("S3_BUCKET"),
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    getEnvBool("MINIO_USE_SSL"),
		},
		S3: S3Config{
			Region:   getEnv("AWS_REGION", "eu-west-1"),
			Endpoint: os.Getenv("S3_ENDPOINT"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
	}
	if cfg.S3Bucket == "" {
		return cfg, fmt.Errorf("S3_BUCKET is not set")
	}
	if cfg.StorageDriver == STORAGE_DRIVER_MINIO {
		if cfg.Minio.AccessKey == "" {
			return cfg, fmt.Errorf("MINIO_ACCESS_KEY is not set")
		}
		if cfg.Minio.SecretKey == "" {
			return cfg, fmt.Errorf("MINIO_SECRET_KEY is not set")
		}
	}

	db, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return cfg, err
	}
	cfg.Redis.DB = db

	ttl, err := getEnvInt("PRESIGN_TTL_MIN", DEFAULT_PRESIGN_TTL_MIN)
	if err != nil {
		return cfg, err
	}
	cfg.PresignTTL = time.Duration(ttl) * time.Minute
	return cfg, nil
}
