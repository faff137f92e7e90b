package board

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"tiledash/internal/store"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const watchDebounce = 150 * time.Millisecond

// Watch reloads b whenever the board's storage files in dir change, so writes
// from another process (a CLI call next to a running TUI or web server) show
// up. It blocks until ctx is done.
func (b *Board) Watch(ctx context.Context, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// SQLite writes land in the main file and its -wal/-shm siblings, which
	// may not exist yet, so watch the directory.
	if err := w.Add(dir); err != nil {
		return err
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasPrefix(filepath.Base(ev.Name), store.SQLiteFileName) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			b.log.Warn("board watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			if b.Reload(ctx) {
				b.log.Debug("board changed on disk", zap.String("dir", dir))
			}
		}
	}
}
