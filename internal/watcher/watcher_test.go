package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/tonto-mcp/internal/indexer"
	"github.com/dshills/tonto-mcp/internal/storage"
)

const waitTimeout = 5 * time.Second

func setupWatcher(t *testing.T) (*Watcher, storage.Storage, string) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	dir := t.TempDir()
	w, err := New(indexer.New(store), Config{Root: dir, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})
	return w, store, dir
}

// writeFile writes content through a rename so the watcher never sees a
// partially written file
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
	require.NoError(t, os.Rename(tmp, path))
}

// nextEvent waits for the next event on path, skipping events for others
func nextEvent(t *testing.T, w *Watcher, path string) Event {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case ev, ok := <-w.Events():
			require.True(t, ok, "event channel closed")
			if ev.Path == path {
				return ev
			}
		case <-deadline:
			t.Fatalf("no event for %s within %s", path, waitTimeout)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer store.Close()

	w, err := New(indexer.New(store), Config{Root: "."})
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.config.Debounce)
	assert.True(t, filepath.IsAbs(w.config.Root))
	assert.NotNil(t, w.logger)

	// stopping a watcher that never started closes its events
	require.NoError(t, w.Stop())
	_, ok := <-w.Events()
	assert.False(t, ok)
}

func TestWatcher_CreateModifyDelete(t *testing.T) {
	w, store, dir := setupWatcher(t)
	ctx := context.Background()
	path := filepath.Join(dir, "people.tonto")

	writeFile(t, path, "package People\nkind Person\n")
	ev := nextEvent(t, w, "people.tonto")
	require.NoError(t, ev.Err)
	assert.Contains(t, []Op{OpCreate, OpModify}, ev.Op)
	require.NotNil(t, ev.Analysis)
	assert.Len(t, ev.Analysis.Summary.Classes, 1)

	root, err := filepath.Abs(dir)
	require.NoError(t, err)
	project, err := store.GetProject(ctx, root)
	require.NoError(t, err)
	_, err = store.GetFile(ctx, project.ID, "people.tonto")
	require.NoError(t, err)

	writeFile(t, path, "package People\nkind Person\nkind Car\n")
	ev = nextEvent(t, w, "people.tonto")
	require.NoError(t, ev.Err)
	require.NotNil(t, ev.Analysis)
	assert.Len(t, ev.Analysis.Summary.Classes, 2)

	require.NoError(t, os.Remove(path))
	ev = nextEvent(t, w, "people.tonto")
	assert.Equal(t, OpDelete, ev.Op)
	assert.NoError(t, ev.Err)
	assert.Nil(t, ev.Analysis)

	_, err = store.GetFile(ctx, project.ID, "people.tonto")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestWatcher_ReportsSyntaxErrors(t *testing.T) {
	w, _, dir := setupWatcher(t)

	writeFile(t, filepath.Join(dir, "broken.tonto"), "package P\nkind Person { weight : }\n")
	ev := nextEvent(t, w, "broken.tonto")
	require.NoError(t, ev.Err)
	require.NotNil(t, ev.Analysis)
	assert.NotEmpty(t, ev.Analysis.SyntaxErrors)
}

func TestWatcher_NewDirectory(t *testing.T) {
	w, _, dir := setupWatcher(t)

	writeFile(t, filepath.Join(dir, "models", "sub", "car.tonto"), "package Cars\nkind Car\n")
	ev := nextEvent(t, w, "models/sub/car.tonto")
	require.NoError(t, ev.Err)
	require.NotNil(t, ev.Analysis)
	assert.Len(t, ev.Analysis.Summary.Classes, 1)
}

func TestWatcher_IgnoresUnselectedFiles(t *testing.T) {
	w, _, dir := setupWatcher(t)

	writeFile(t, filepath.Join(dir, "notes.txt"), "not an ontology")
	writeFile(t, filepath.Join(dir, ".cache", "hidden.tonto"), "package Hidden\n")
	writeFile(t, filepath.Join(dir, "marker.tonto"), "package Marker\n")

	// marker.tonto is written last; nothing else may arrive before it
	deadline := time.After(waitTimeout)
	for {
		select {
		case ev := <-w.Events():
			require.Equal(t, "marker.tonto", ev.Path, "unexpected event for %s", ev.Path)
			return
		case <-deadline:
			t.Fatal("no event for marker.tonto")
		}
	}
}

func TestWatcher_StopClosesEvents(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer store.Close()

	w, err := New(indexer.New(store), Config{Root: t.TempDir(), Debounce: 10 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	select {
	case _, ok := <-w.Events():
		assert.False(t, ok)
	case <-time.After(waitTimeout):
		t.Fatal("events channel not closed")
	}
}
