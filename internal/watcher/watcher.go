// Package watcher keeps the knowledge base in sync with directories on disk.
// It watches configured roots with fsnotify, debounces bursts of writes, and
// hands stable files to the ingest pipeline.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/superteamvn/stvbot/internal/config"
)

const defaultSettle = 500 * time.Millisecond

// Handler receives file events after debouncing. FileChanged is called for
// created and modified files, FileRemoved for deletions.
type Handler interface {
	FileChanged(ctx context.Context, path string)
	FileRemoved(ctx context.Context, path string)
}

// Watcher mirrors configured directories into the knowledge base.
type Watcher struct {
	roots      []string
	extensions []string
	recursive  bool
	handler    Handler
	settle     time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	fsw     *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettleDelay overrides the debounce window applied before a changed
// file is reingested.
func WithSettleDelay(d time.Duration) Option {
	return func(w *Watcher) { w.settle = d }
}

// WithLogger enables event logging.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New builds a Watcher from config. Missing root directories are created on
// Run so a fresh deployment starts watching an empty knowledge base.
func New(cfg *config.WatchConfig, handler Handler, opts ...Option) *Watcher {
	w := &Watcher{
		roots:      cfg.Directories,
		extensions: cfg.Extensions,
		recursive:  cfg.RecursiveOrDefault(),
		handler:    handler,
		settle:     defaultSettle,
		pending:    make(map[string]*time.Timer),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. Existing files under every root are
// handed to the handler first, so restarts pick up edits made while the
// process was down.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()

	for _, root := range w.roots {
		if err := w.addRoot(fsw, root); err != nil {
			return err
		}
		w.syncExisting(ctx, root)
	}
	w.logger.Info("watching knowledge base directories",
		zap.Strings("roots", w.roots),
		zap.Strings("extensions", w.extensions),
		zap.Bool("recursive", w.recursive))

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	switch {
	case ev.Op.Has(fsnotify.Create), ev.Op.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			if w.recursive {
				if err := w.addRoot(fsw, path); err != nil {
					w.logger.Warn("watch new directory failed", zap.String("path", path), zap.Error(err))
				}
				w.syncExisting(ctx, path)
			}
			return
		}
		if w.matches(path) {
			w.schedule(ctx, path)
		}
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		w.cancel(path)
		if w.matches(path) {
			w.logger.Debug("file removed", zap.String("path", path))
			w.handler.FileRemoved(ctx, path)
		}
	}
}

// schedule arms (or re-arms) the settle timer for path. Editors commonly emit
// several writes per save; only the last one triggers a reingest.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		w.logger.Debug("file settled", zap.String("path", path))
		w.handler.FileChanged(ctx, path)
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) addRoot(fsw *fsnotify.Watcher, root string) error {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	if !w.recursive {
		return fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) syncExisting(ctx context.Context, root string) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if !w.recursive && filepath.Dir(path) != filepath.Clean(root) {
			return nil
		}
		if w.matches(path) {
			w.handler.FileChanged(ctx, path)
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("initial sync failed", zap.String("root", root), zap.Error(err))
	}
}

func (w *Watcher) matches(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range w.extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}
