package source

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
)

// Batch is the set of document paths that changed before the directory
// settled.
type Batch struct {
	Paths []string
}

// Watcher watches a documents directory and emits one Batch each time it
// has been quiet for the debounce delay after a relevant change.
type Watcher struct {
	dir      string
	include  []string
	exclude  []string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	// hashes of the last seen contents, to ignore touches
	hashes map[string]uint64

	batches chan Batch
}

// NewWatcher creates a watcher for dir selecting files like Discover does.
func NewWatcher(dir string, include, exclude []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Watcher{
		dir:      dir,
		include:  include,
		exclude:  exclude,
		debounce: debounce,
		watcher:  fsw,
		logger:   logger,
		pending:  make(map[string]struct{}),
		hashes:   make(map[string]uint64),
		batches:  make(chan Batch, 1),
	}, nil
}

// Batches returns the channel of settled change batches. It is closed when
// the watcher stops.
func (w *Watcher) Batches() <-chan Batch {
	return w.batches
}

// Start records the current document contents and begins watching the
// directory and every directory below it, so recursive include patterns
// select the same files as Discover.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}
	if err := w.addWatchesRecursive(w.dir); err != nil {
		return err
	}

	paths, err := Discover(w.dir, w.include, w.exclude)
	if err != nil {
		return err
	}
	for _, p := range paths {
		if h, err := hashFile(p); err == nil {
			w.hashes[p] = h
		}
	}

	go w.processEvents(ctx)

	w.logger.Info("Document watcher started",
		"dir", w.dir,
		"debounce", w.debounce,
		"documents", len(paths))
	return nil
}

// addWatchesRecursive watches every directory below root.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || path == w.dir {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
			return filepath.SkipDir
		}
		w.logger.Debug("Watching directory", "path", path)
		return nil
	})
}

// handleNewDirectory watches a directory created after Start and queues the
// documents written into it before its watch was in place.
func (w *Watcher) handleNewDirectory(path string) bool {
	queued := false
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.watcher.Add(p); err != nil {
				w.logger.Warn("Failed to watch new directory", "path", p, "error", err)
				return filepath.SkipDir
			}
			return nil
		}
		if w.queue(p) {
			queued = true
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("Failed to scan new directory", "path", path, "error", err)
	}
	return queued
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.batches)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.handleFSEvent(event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-timer.C:
			if b, ok := w.flushPending(); ok {
				select {
				case w.batches <- b:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// handleFSEvent records a relevant event and reports whether the debounce
// timer should restart.
func (w *Watcher) handleFSEvent(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			return w.handleNewDirectory(event.Name)
		}
	}
	if !w.queue(event.Name) {
		return false
	}
	w.logger.Debug("Document change detected", "path", event.Name, "op", event.Op.String())
	return true
}

// queue marks path pending when it is a selected document.
func (w *Watcher) queue(path string) bool {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return false
	}
	ok, err := Matches(filepath.ToSlash(rel), w.include, w.exclude)
	if err != nil || !ok {
		return false
	}

	w.mu.Lock()
	w.pending[path] = struct{}{}
	w.mu.Unlock()
	return true
}

// flushPending drops paths whose content is unchanged and returns the rest.
func (w *Watcher) flushPending() (Batch, bool) {
	w.mu.Lock()
	pending := w.pending
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	var b Batch
	for path := range pending {
		h, err := hashFile(path)
		if os.IsNotExist(err) {
			if _, known := w.hashes[path]; known {
				delete(w.hashes, path)
				b.Paths = append(b.Paths, path)
			}
			continue
		}
		if err != nil {
			w.logger.Warn("Failed to read document for hash check", "path", path, "error", err)
			continue
		}
		if old, known := w.hashes[path]; known && old == h {
			continue
		}
		w.hashes[path] = h
		b.Paths = append(b.Paths, path)
	}

	if len(b.Paths) == 0 {
		return b, false
	}
	sort.Strings(b.Paths)
	w.logger.Info("Documents settled", "changed", len(b.Paths))
	return b, true
}

func hashFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d := xxhash.New()
	if _, err := io.Copy(d, f); err != nil {
		return 0, err
	}
	return d.Sum64(), nil
}
