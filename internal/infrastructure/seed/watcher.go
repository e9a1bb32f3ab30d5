package seed

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events an editor save produces
const DefaultDebounce = 500 * time.Millisecond

// Watcher re-applies the seed file whenever it changes
type Watcher struct {
	path     string
	seeder   *Seeder
	debounce time.Duration
	logger   *zap.Logger

	// reloaded receives the result of each reload; used by tests
	reloaded chan error
}

// NewWatcher creates a Watcher for path
func NewWatcher(path string, seeder *Seeder, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		path:     path,
		seeder:   seeder,
		debounce: DefaultDebounce,
		logger:   logger,
	}
}

// Run watches until ctx is cancelled. The parent directory is watched so
// rename-based saves are seen too.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	abs, err := filepath.Abs(w.path)
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	w.logger.Info("Watching demo users file", zap.String("path", abs))

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() { w.reload(ctx) })
			mu.Unlock()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Demo users watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n, err := w.seeder.ApplyPath(ctx, w.path)
	if err != nil {
		w.logger.Error("Failed to reload demo users; keeping previous accounts", zap.Error(err))
	} else {
		w.logger.Info("Demo users reloaded", zap.Int("users", n))
	}
	if w.reloaded != nil {
		select {
		case w.reloaded <- err:
		default:
		}
	}
}
