package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// UploadFunc uploads one finished file.
type UploadFunc func(ctx context.Context, path string) error

var DefaultExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm"}

// PathWatcher watches a directory and uploads video files once they have stopped
// changing for the stream timeout.
type PathWatcher struct {
	path          string
	fsPathWatcher *fsnotify.Watcher
	streamTimeout time.Duration
	extensions    map[string]struct{}
	upload        UploadFunc

	mu         sync.Mutex
	fileTimers map[string]*time.Timer
	closed     bool
	done       chan struct{}
	closeOnce  sync.Once
	closeErr   error
	// wg tracks the event loop and uploads that have already started.
	wg sync.WaitGroup
}

func NewPathWatcher(path string, streamTimeout time.Duration, upload UploadFunc) (*PathWatcher, error) {
	fsPathWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create path watcher: %w", err)
	}
	if err := fsPathWatcher.Add(path); err != nil {
		fsPathWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	extensions := make(map[string]struct{}, len(DefaultExtensions))
	for _, ext := range DefaultExtensions {
		extensions[ext] = struct{}{}
	}
	return &PathWatcher{
		path:          path,
		fsPathWatcher: fsPathWatcher,
		streamTimeout: streamTimeout,
		extensions:    extensions,
		upload:        upload,
		fileTimers:    make(map[string]*time.Timer),
		done:          make(chan struct{}),
	}, nil
}

func (pw *PathWatcher) isVideo(name string) bool {
	_, ok := pw.extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// startOrResetTimer debounces writes: the upload starts once the file has been quiet for streamTimeout.
func (pw *PathWatcher) startOrResetTimer(ctx context.Context, filePath string) {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	if timer, exists := pw.fileTimers[filePath]; exists {
		timer.Stop()
	}

	pw.fileTimers[filePath] = time.AfterFunc(pw.streamTimeout, func() {
		pw.mu.Lock()
		delete(pw.fileTimers, filePath)
		if pw.closed {
			pw.mu.Unlock()
			return
		}
		pw.wg.Add(1)
		pw.mu.Unlock()
		defer pw.wg.Done()

		slog.Info("No updates, uploading file", "timeout", pw.streamTimeout.String(), "path", filePath)
		if err := pw.upload(ctx, filePath); err != nil {
			slog.Error("Upload failed", "path", filePath, "err", err)
		}
	})
}

func (pw *PathWatcher) stopTimer(filePath string) {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	if timer, exists := pw.fileTimers[filePath]; exists {
		timer.Stop()
		delete(pw.fileTimers, filePath)
	}
}

// Start handles watcher events in a goroutine until ctx is done or Close is called.
func (pw *PathWatcher) Start(ctx context.Context) {
	pw.wg.Add(1)
	go func() {
		defer pw.wg.Done()
		for {
			select {
			case event, ok := <-pw.fsPathWatcher.Events:
				if !ok {
					return
				}
				slog.Debug("event", "action", event.Op.String(), "path", event.Name)
				switch {
				case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
					if pw.isVideo(event.Name) {
						pw.startOrResetTimer(ctx, event.Name)
					}
				case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
					slog.Debug("file renamed/removed", "path", event.Name)
					pw.stopTimer(event.Name)
				}
			case err, ok := <-pw.fsPathWatcher.Errors:
				if !ok {
					return
				}
				slog.Error("watcher error", "err", err)
			case <-ctx.Done():
				return
			case <-pw.done:
				slog.Info("Shutting down path watcher goroutine", "path", pw.path)
				return
			}
		}
	}()
	slog.Info("Path added to watchlist", "path", pw.path)
}

// Close stops watching, cancels uploads that have not started yet and waits for the
// running ones. It is safe to call more than once.
func (pw *PathWatcher) Close() error {
	pw.closeOnce.Do(func() {
		close(pw.done)

		pw.mu.Lock()
		pw.closed = true
		for filePath, timer := range pw.fileTimers {
			timer.Stop()
			delete(pw.fileTimers, filePath)
		}
		pw.mu.Unlock()

		pw.closeErr = pw.fsPathWatcher.Close()
		pw.wg.Wait()
	})
	return pw.closeErr
}
