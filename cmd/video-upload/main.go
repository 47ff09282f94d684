// Command video-upload uploads a video through the multipart flow of the upload backend:
// init, concurrent part PUTs to presigned URLs, then confirm.
//
//	video-upload <path_to_video>
//	video-upload -watch <dir>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jonno85/video-multipart-uploader/internal/apperr"
	"github.com/jonno85/video-multipart-uploader/internal/client"
	"github.com/jonno85/video-multipart-uploader/internal/config"
	"github.com/jonno85/video-multipart-uploader/internal/watcher"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var watchDir = flag.String("watch", "", "watch a directory and upload video files once they stop changing")

func parseLogLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func setupLogger() {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func startMetricsServer(addr string) {
	if addr == "" {
		return
	}
	go func() {
		slog.Info("Starting Prometheus metrics server", "addr", addr)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("Prometheus metrics server error", "err", err)
		}
	}()
}

// describe turns workflow errors into a one-line operator message.
func describe(apiBase string, err error) string {
	var (
		connErr     *apperr.ConnectivityError
		rejectErr   *apperr.ServerRejectionError
		transferErr *apperr.TransferError
		confirmErr  *apperr.ConfirmationError
	)
	switch {
	case errors.As(err, &connErr):
		return fmt.Sprintf("Failed to connect to %s. Is the backend running? (%v)", apiBase, connErr.Err)
	case errors.As(err, &rejectErr):
		return fmt.Sprintf("Init rejected (%d): %s", rejectErr.StatusCode, rejectErr.Body)
	case errors.As(err, &transferErr):
		return fmt.Sprintf("Upload failed: %v", transferErr)
	case errors.As(err, &confirmErr):
		return fmt.Sprintf("Confirm failed (%d): %s", confirmErr.StatusCode, confirmErr.Body)
	default:
		return err.Error()
	}
}

func runWatch(ctx context.Context, cfg config.UploaderConfig, workflow *client.Workflow, dir string) error {
	pw, err := watcher.NewPathWatcher(dir, cfg.StreamTimeout, func(ctx context.Context, path string) error {
		if _, err := workflow.Run(ctx, path); err != nil {
			return errors.New(describe(cfg.APIBase, err))
		}
		return nil
	})
	if err != nil {
		return err
	}
	pw.Start(ctx)
	<-ctx.Done()
	return pw.Close()
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s <path_to_video>\n       %s -watch <dir>\n", os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// LOG_LEVEL may come from .env, so load it before the logger and the config debug output.
	config.LoadDotEnv()
	setupLogger()
	cfg, err := config.LoadUploaderEnv()
	if err != nil {
		slog.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}
	startMetricsServer(cfg.MetricsAddr)
	workflow := client.NewWorkflowFromConfig(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *watchDir != "" {
		if err := runWatch(ctx, cfg, workflow, *watchDir); err != nil {
			slog.Error("Watch failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(os.Stderr, "File not found: %s\n", path)
		os.Exit(1)
	}

	result, err := workflow.Run(ctx, path)
	if err != nil {
		fmt.Fprintln(os.Stderr, describe(cfg.APIBase, err))
		os.Exit(1)
	}
	mb := float64(result.SizeBytes) / (1024 * 1024)
	fmt.Printf("Upload complete! Video ID: %d, status: %s, %d parts, %.1f MB in %.1fs (%.1f MB/s)\n",
		result.VideoID, result.Status, result.Parts, mb, result.Elapsed.Seconds(), mb/max(result.Elapsed.Seconds(), 0.001))
}
