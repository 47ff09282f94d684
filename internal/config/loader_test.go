package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUploaderEnvDefaults(t *testing.T) {
	t.Setenv("API_BASE", "")
	t.Setenv("UPLOAD_CONCURRENCY", "")
	t.Setenv("HTTP_TIMEOUT_SEC", "")
	t.Setenv("STREAM_TIMEOUT_SEC", "")
	t.Setenv("VERIFY_ETAGS", "")

	cfg, err := LoadUploaderEnv()
	require.NoError(t, err)
	assert.Equal(t, DEFAULT_API_BASE, cfg.APIBase)
	assert.Equal(t, DEFAULT_CONCURRENCY, cfg.Concurrency)
	assert.Zero(t, cfg.HTTPTimeout)
	assert.Equal(t, 30*time.Second, cfg.StreamTimeout)
	assert.False(t, cfg.VerifyETags)
}

func TestLoadUploaderEnvOverrides(t *testing.T) {
	t.Setenv("API_BASE", "http://backend:9000/")
	t.Setenv("UPLOAD_CONCURRENCY", "8")
	t.Setenv("HTTP_TIMEOUT_SEC", "120")
	t.Setenv("VERIFY_ETAGS", "TRUE")

	cfg, err := LoadUploaderEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000", cfg.APIBase)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 2*time.Minute, cfg.HTTPTimeout)
	assert.True(t, cfg.VerifyETags)
}

func TestLoadUploaderEnvInvalid(t *testing.T) {
	t.Setenv("UPLOAD_CONCURRENCY", "0")
	_, err := LoadUploaderEnv()
	require.ErrorContains(t, err, "must be positive")

	t.Setenv("UPLOAD_CONCURRENCY", "five")
	_, err = LoadUploaderEnv()
	require.ErrorContains(t, err, "UPLOAD_CONCURRENCY is not a valid integer")
}

func TestLoadServerEnv(t *testing.T) {
	t.Setenv("S3_BUCKET", "")
	_, err := LoadServerEnv()
	require.ErrorContains(t, err, "S3_BUCKET is not set")

	t.Setenv("S3_BUCKET", "videos")
	t.Setenv("STORAGE_DRIVER", "minio")
	t.Setenv("MINIO_ACCESS_KEY", "")
	_, err = LoadServerEnv()
	require.ErrorContains(t, err, "MINIO_ACCESS_KEY is not set")

	t.Setenv("STORAGE_DRIVER", "S3")
	t.Setenv("PRESIGN_TTL_MIN", "15")
	t.Setenv("REDIS_DB", "2")
	cfg, err := LoadServerEnv()
	require.NoError(t, err)
	assert.Equal(t, STORAGE_DRIVER_S3, cfg.StorageDriver)
	assert.Equal(t, 15*time.Minute, cfg.PresignTTL)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "videos", cfg.S3Bucket)
}

func TestNewAppClients(t *testing.T) {
	_, err := NewAppClients(context.Background(), ServerConfig{StorageDriver: "gcs"})
	require.ErrorContains(t, err, `unknown storage driver "gcs"`)

	clients, err := NewAppClients(context.Background(), ServerConfig{
		StorageDriver: STORAGE_DRIVER_MINIO,
		S3Bucket:      "videos",
		Minio:         MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"},
		Redis:         RedisConfig{Addr: "localhost:6379"},
	})
	require.NoError(t, err)
	assert.NotNil(t, clients.Storage)
	require.NoError(t, clients.RedisClient.Close())
}
