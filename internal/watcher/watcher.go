// Package watcher reports changes to the prompt database file. It watches
// the parent directory since fsnotify cannot watch files that do not exist
// yet, and follows SQLite's -wal file alongside the main file.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce coalesces bursts of writes from one transaction.
const DefaultDebounce = 250 * time.Millisecond

// Options configure a Watcher.
type Options struct {
	// OnChange runs after the database or its WAL was written or created.
	OnChange func()
	// OnDelete runs after the database file was removed or renamed away.
	OnDelete func()
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
}

// Watcher monitors a database file for writes and deletion.
type Watcher struct {
	dbPath     string
	walPath    string
	parentPath string
	opts       Options
	watcher    *fsnotify.Watcher
	ctx        context.Context
	cancel     context.CancelFunc
	mu         sync.Mutex
	running    bool
	done       chan struct{}
}

// New creates a Watcher for dbPath.
func New(dbPath string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	clean := filepath.Clean(dbPath)
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		dbPath:     clean,
		walPath:    clean + "-wal",
		parentPath: filepath.Dir(clean),
		opts:       opts,
		watcher:    fsw,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}, nil
}

// Start begins watching. The parent directory of the database must exist.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if err := w.addWatch(); err != nil {
		return err
	}
	w.running = true
	go w.watchLoop()
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	w.mu.Unlock()

	w.cancel()
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) addWatch() error {
	if _, err := os.Stat(w.parentPath); err != nil {
		return err
	}
	return w.watcher.Add(w.parentPath)
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	var (
		changeTimer *time.Timer
		deleteTimer *time.Timer
	)
	defer func() {
		if changeTimer != nil {
			changeTimer.Stop()
		}
		if deleteTimer != nil {
			deleteTimer.Stop()
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			name := filepath.Clean(event.Name)
			if name != w.dbPath && name != w.walPath {
				continue
			}

			switch {
			case name == w.dbPath && event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				log.Info().Str("path", w.dbPath).Msg("Database removed")
				if changeTimer != nil {
					changeTimer.Stop()
				}
				deleteTimer = restart(deleteTimer, w.opts.Debounce, w.opts.OnDelete)

			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				if name == w.dbPath && event.Op&fsnotify.Create != 0 && deleteTimer != nil && deleteTimer.Stop() {
					log.Info().Str("path", w.dbPath).Msg("Database recreated before deletion callback")
				}
				changeTimer = restart(changeTimer, w.opts.Debounce, w.opts.OnChange)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

// restart (re)arms a debounce timer for fn.
func restart(t *time.Timer, d time.Duration, fn func()) *time.Timer {
	if fn == nil {
		return t
	}
	if t != nil {
		t.Stop()
	}
	return time.AfterFunc(d, fn)
}
