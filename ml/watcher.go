package ml

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ArtifactWatcher reports changes to the model artifact on disk. The loaded
// model is never replaced; a restart is needed to pick up a new artifact.
type ArtifactWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger

	// OnChange, if set, is called for every event touching the artifact.
	OnChange func(event fsnotify.Event)
}

// NewArtifactWatcher watches the directory holding path, so replacements by
// rename are seen as well as in-place writes.
func NewArtifactWatcher(path string, logger *zap.Logger) (*ArtifactWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve artifact path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &ArtifactWatcher{path: abs, watcher: watcher, logger: logger}, nil
}

// Run consumes events until ctx is done or the watcher is closed.
func (w *ArtifactWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Warn("model artifact changed on disk, restart to load it",
				zap.String("path", w.path),
				zap.String("op", event.Op.String()))
			if w.OnChange != nil {
				w.OnChange(event)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("artifact watcher error", zap.Error(err))
		}
	}
}

// Close stops the underlying fsnotify watcher and ends Run.
func (w *ArtifactWatcher) Close() error {
	return w.watcher.Close()
}
