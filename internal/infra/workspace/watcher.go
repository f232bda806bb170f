package workspace

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"toolusage/internal/infra/telemetry"
)

const defaultWatchDebounce = 200 * time.Millisecond

// Watcher signals when a profile file is written, created, renamed or removed.
// Bursts of events within the debounce window produce one signal.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *zap.Logger
	changes  chan struct{}
}

func NewWatcher(path string, debounce time.Duration, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		logger:   logger.Named("profile_watcher"),
		changes:  make(chan struct{}, 1),
	}
}

// Changes delivers one value per debounced change. Signals are dropped while one is pending.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Run watches the profile directory until ctx is done. The directory must exist.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// editors replace files on save, so the directory is watched instead of the file
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("profile watcher error", zap.Error(err))
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path || event.Op == fsnotify.Chmod {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
		case <-timerChan(timer):
			timer = nil
			w.logger.Debug("profile changed",
				telemetry.EventField(telemetry.EventProfileChanged),
				zap.String("path", w.path),
			)
			select {
			case w.changes <- struct{}{}:
			default:
			}
		}
	}
}

func timerChan(timer *time.Timer) <-chan time.Time {
	if timer == nil {
		return nil
	}
	return timer.C
}
