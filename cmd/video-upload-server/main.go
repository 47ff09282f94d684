// Package main implements the upload coordination backend. It hands out presigned
// multipart targets on object storage, tracks sessions in Redis and exposes Prometheus metrics.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonno85/video-multipart-uploader/internal/adapter"
	"github.com/jonno85/video-multipart-uploader/internal/config"
	"github.com/jonno85/video-multipart-uploader/internal/handlers"
	"github.com/jonno85/video-multipart-uploader/internal/middleware"
	"github.com/jonno85/video-multipart-uploader/internal/service"
	"github.com/jonno85/video-multipart-uploader/internal/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	maxStartupAttempts = 6
	initialBackoff     = 500 * time.Millisecond
)

// waitForDependencies retries Redis and the bucket check so the server can start alongside them.
func waitForDependencies(ctx context.Context, clients *config.AppClients) error {
	if _, err := utils.Retry(maxStartupAttempts, initialBackoff, func() (struct{}, error) {
		return struct{}{}, clients.RedisClient.Ping(ctx)
	}); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if _, err := utils.Retry(maxStartupAttempts, initialBackoff, func() (struct{}, error) {
		return struct{}{}, clients.Storage.EnsureBucket(ctx)
	}); err != nil {
		return err
	}
	return nil
}

func logPendingSessions(ctx context.Context, store adapter.RedisOperationalClient) {
	ids, err := store.PendingVideoIDs(ctx)
	if err != nil {
		slog.Warn("Failed to list pending uploads", "err", err)
		return
	}
	slog.Info("Pending uploads awaiting confirmation", "count", len(ids))
}

// setupHTTPServer configures the API server and starts the Prometheus metrics server on its own port.
func setupHTTPServer(cfg config.ServerConfig, uploadService *service.UploadService) *http.Server {
	v2Handler := &handlers.V2Handler{Uploads: uploadService}
	wrappedHandler := middleware.RequestLogger(handlers.NewRouter(v2Handler))
	go func() {
		slog.Info("Starting Prometheus metrics server", "port", cfg.MetricsPort)
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":"+cfg.MetricsPort, metricsMux); err != nil {
			slog.Error("Prometheus metrics server error", "err", err)
		}
	}()

	return config.NewHTTPServer(cfg.Port, wrappedHandler)
}

// gracefulShutdown shuts down the HTTP server and closes the Redis client.
func gracefulShutdown(server *http.Server, redisClient *adapter.RedisClientImpl) {
	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
	} else {
		slog.Info("Server exited gracefully")
	}

	if err := redisClient.Close(); err != nil {
		slog.Error("Failed to close Redis client", "err", err)
	} else {
		slog.Info("Redis client closed")
	}
}

func main() {
	cfg, err := config.LoadServerEnv()
	if err != nil {
		slog.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	clients, err := config.NewAppClients(ctx, cfg)
	if err != nil {
		slog.Error("Failed to create clients", "err", err)
		os.Exit(1)
	}
	if err := waitForDependencies(ctx, clients); err != nil {
		slog.Error("Dependencies unavailable", "err", err)
		os.Exit(1)
	}
	logPendingSessions(ctx, clients.RedisClient)

	uploadService := service.NewUploadService(clients.Storage, clients.RedisClient, cfg.PresignTTL)
	server := setupHTTPServer(cfg, uploadService)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Starting server", "port", cfg.Port, "storage", cfg.StorageDriver, "bucket", cfg.S3Bucket)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
		}
	}()

	<-quit
	gracefulShutdown(server, clients.RedisClient)
}
