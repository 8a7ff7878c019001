package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/tonto-mcp/internal/indexer"
	"github.com/dshills/tonto-mcp/pkg/types"
)

// DefaultDebounce is the quiet period used when Config.Debounce is zero
const DefaultDebounce = 100 * time.Millisecond

// Config configures the file watcher
type Config struct {
	// Root is the project directory to watch
	Root string

	// Debounce is how long to collect changes before processing them
	Debounce time.Duration

	// Index selects which files are watched; nil means the indexer defaults
	Index *indexer.Config

	// Logger for logging events
	Logger *slog.Logger
}

// Op indicates the type of file operation
type Op string

const (
	OpCreate Op = "create"
	OpModify Op = "modify"
	OpDelete Op = "delete"
)

// Event reports one processed file change
type Event struct {
	// Path is the file path relative to the project root, with slashes
	Path string

	Op Op

	// Analysis of the new content; nil for deletes and failures
	Analysis *types.Analysis

	// Err is set when the file could not be indexed or removed
	Err error
}

// Watcher re-indexes ontology files as they change on disk
type Watcher struct {
	config  Config
	indexer *indexer.Indexer
	fsw     *fsnotify.Watcher
	logger  *slog.Logger

	// Debouncing: collect changes before processing
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op // absolute path -> accumulated operations

	events  chan Event
	done    chan struct{}
	started atomic.Bool
	stop    sync.Once
}

// New creates a watcher for config.Root. Call Start to begin watching.
func New(idx *indexer.Indexer, config Config) (*Watcher, error) {
	root, err := filepath.Abs(config.Root)
	if err != nil {
		return nil, err
	}
	config.Root = root
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		config:  config,
		indexer: idx,
		fsw:     fsw,
		logger:  config.Logger,
		pending: make(map[string]fsnotify.Op),
		events:  make(chan Event, 100),
		done:    make(chan struct{}),
	}, nil
}

// Events returns the channel of processed changes. It is closed by Stop or
// when the context given to Start ends.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start adds watches under the root and processes changes until ctx is
// done or Stop is called
func (w *Watcher) Start(ctx context.Context) error {
	if w.started.Load() {
		return errors.New("watcher already started")
	}
	if err := w.addWatchesRecursive(w.config.Root); err != nil {
		return err
	}

	w.started.Store(true)
	go w.processEvents(ctx)

	w.logger.Info("File watcher started",
		"root", w.config.Root,
		"debounce", w.config.Debounce)
	return nil
}

// Stop closes the underlying watcher and waits for processing to finish
func (w *Watcher) Stop() error {
	var err error
	w.stop.Do(func() {
		err = w.fsw.Close()
		if w.started.Load() {
			<-w.done
		} else {
			close(w.events)
		}
	})
	return err
}

// addWatchesRecursive adds watches to all non-hidden directories
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(path) {
			return filepath.SkipDir
		}

		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}
		return nil
	})
}

func skipDir(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// processEvents handles fsnotify events with debouncing
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.done)
	defer close(w.events)

	ticker := time.NewTicker(w.config.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// handleFSEvent records a change to a selected file, or watches a new directory
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.handleNewDirectory(path)
			return
		}
	}

	relPath, err := filepath.Rel(w.config.Root, path)
	if err != nil || !indexer.Matches(w.config.Index, filepath.ToSlash(relPath)) {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("File change detected", "path", relPath, "op", event.Op.String())
}

// handleNewDirectory watches a directory created after Start and queues the
// selected files already inside it
func (w *Watcher) handleNewDirectory(path string) {
	if skipDir(path) {
		return
	}
	if err := w.addWatchesRecursive(path); err != nil {
		w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
		return
	}

	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.config.Root, p)
		if err == nil && indexer.Matches(w.config.Index, filepath.ToSlash(rel)) {
			w.pendingMu.Lock()
			w.pending[p] |= fsnotify.Create
			w.pendingMu.Unlock()
		}
		return nil
	})
}

// flushPending indexes or removes every accumulated change
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	paths := make([]string, 0, len(toProcess))
	for p := range toProcess {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		if event, ok := w.process(ctx, path, toProcess[path]); ok {
			w.sendEvent(event)
		}
	}
}

// process applies one debounced change. The file's presence on disk decides
// between indexing and removal, since a rename or remove may be followed by
// a create within the same window.
func (w *Watcher) process(ctx context.Context, path string, op fsnotify.Op) (Event, bool) {
	relPath, _ := filepath.Rel(w.config.Root, path)
	event := Event{Path: filepath.ToSlash(relPath)}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		event.Op = OpDelete
		event.Err = w.indexer.RemoveFile(ctx, w.config.Root, path)
		return event, true
	}

	event.Op = OpModify
	if op.Has(fsnotify.Create) {
		event.Op = OpCreate
	}

	result, err := w.indexer.IndexFile(ctx, w.config.Root, path)
	if err != nil {
		event.Err = err
		return event, true
	}
	if result.Skipped {
		// Content unchanged
		return event, false
	}
	event.Analysis = result.Analysis
	return event, true
}

// sendEvent sends an event to the output channel without blocking
func (w *Watcher) sendEvent(event Event) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event", "path", event.Path, "op", event.Op)
	default:
		w.logger.Warn("Event channel full, dropping event", "path", event.Path)
	}
}
