package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const DefaultDebounce = 250 * time.Millisecond

// FileWatcher reports writes to one file. It watches the parent directory so
// editors that save by renaming a temp file over the target are still seen.
type FileWatcher struct {
	path     string
	debounce time.Duration
	w        *fsnotify.Watcher
}

func New(path string, debounce time.Duration) (*FileWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}
	return &FileWatcher{path: filepath.Clean(path), debounce: debounce, w: w}, nil
}

// Run calls fn once per burst of changes to the file until ctx is done.
func (fw *FileWatcher) Run(ctx context.Context, fn func()) {
	defer fw.w.Close()

	var settle *time.Timer
	var settleC <-chan time.Time
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != fw.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if settle == nil {
				settle = time.NewTimer(fw.debounce)
			} else {
				settle.Reset(fw.debounce)
			}
			settleC = settle.C
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			zap.S().Warnw("config watcher error", "path", fw.path, "error", err)
		case <-settleC:
			settleC = nil
			zap.S().Infow("config file changed", "path", fw.path)
			fn()
		}
	}
}
