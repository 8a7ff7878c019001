package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/tonto-mcp/internal/metrics"
	"github.com/dshills/tonto-mcp/internal/storage"
	"github.com/dshills/tonto-mcp/pkg/types"
)

const peopleSource = `import Base

package People

kind Person {
  name : string
  age : number [1]
}

subkind Man specializes Person
subkind Woman specializes Person

disjoint complete genset PersonGender {
  general Person
  specifics Man, Woman
}
`

const vehiclesSource = `package Vehicles

kind Car {
  owner [0..*] -- [1] Person
}

enum Color { Red, Green }

@mediation relation Person -- drives -- [0..*] Car
`

const brokenSource = `package Broken

kind Person {
  weight :
}
`

func setupTestStorage(t testing.TB) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createTestFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew(t *testing.T) {
	store := setupTestStorage(t)
	idx := New(store)
	assert.NotNil(t, idx)
	assert.NotNil(t, idx.logger)
	assert.Nil(t, idx.metrics)
}

func TestConfig_Defaults(t *testing.T) {
	var c *Config
	d := c.withDefaults()
	assert.Greater(t, d.Workers, 0)
	assert.Equal(t, 20, d.BatchSize)
	assert.Equal(t, DefaultInclude, d.Include)

	custom := (&Config{Workers: 2, BatchSize: 5, Include: []string{"*.onto"}}).withDefaults()
	assert.Equal(t, 2, custom.Workers)
	assert.Equal(t, 5, custom.BatchSize)
	assert.Equal(t, []string{"*.onto"}, custom.Include)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, (&Config{Include: []string{"**/*.tonto"}, Exclude: []string{"drafts/**"}}).Validate())
	assert.Error(t, (&Config{Include: []string{"[a-"}}).Validate())
}

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "a.tonto", "")
	createTestFile(t, dir, "nested/deep/b.tonto", "")
	createTestFile(t, dir, "drafts/c.tonto", "")
	createTestFile(t, dir, ".hidden/d.tonto", "")
	createTestFile(t, dir, "notes.txt", "")

	files, err := discoverFiles(dir, (&Config{Exclude: []string{"drafts/**"}}).withDefaults())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.tonto", "nested/deep/b.tonto"}, files)
}

func TestDiscoverFiles_EmptyDirectory(t *testing.T) {
	files, err := discoverFiles(t.TempDir(), (&Config{}).withDefaults())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestMatches(t *testing.T) {
	config := &Config{Exclude: []string{"drafts/**"}}
	tests := []struct {
		path string
		want bool
	}{
		{"a.tonto", true},
		{"x/y/z.tonto", true},
		{"a.txt", false},
		{"drafts/a.tonto", false},
		{".git/a.tonto", false},
		{"x/.cache/a.tonto", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(config, tt.path))
		})
	}
}

func TestReadSource(t *testing.T) {
	dir := t.TempDir()
	a := createTestFile(t, dir, "a.tonto", "package A")
	b := createTestFile(t, dir, "b.tonto", "package B")
	c := createTestFile(t, dir, "c.tonto", "package A")

	_, hashA, info, err := readSource(a)
	require.NoError(t, err)
	assert.Equal(t, int64(9), info.Size())
	_, hashB, _, err := readSource(b)
	require.NoError(t, err)
	_, hashC, _, err := readSource(c)
	require.NoError(t, err)

	assert.NotEqual(t, hashA, hashB)
	assert.Equal(t, hashA, hashC)

	_, _, _, err = readSource(filepath.Join(dir, "missing.tonto"))
	assert.Error(t, err)
	_, _, _, err = readSource(dir)
	assert.Error(t, err)
}

func TestRelativePath(t *testing.T) {
	root := t.TempDir()

	rel, err := relativePath(root, filepath.Join(root, "x", "a.tonto"))
	require.NoError(t, err)
	assert.Equal(t, "x/a.tonto", rel)

	rel, err = relativePath(root, "x/a.tonto")
	require.NoError(t, err)
	assert.Equal(t, "x/a.tonto", rel)

	_, err = relativePath(root, filepath.Join(filepath.Dir(root), "other.tonto"))
	assert.Error(t, err)
}

func TestIndexProject_Success(t *testing.T) {
	store := setupTestStorage(t)
	dir := t.TempDir()
	createTestFile(t, dir, "people.tonto", peopleSource)
	createTestFile(t, dir, "vehicles/vehicles.tonto", vehiclesSource)

	ctx := context.Background()
	stats, err := New(store).IndexProject(ctx, dir, &Config{Workers: 2})
	require.NoError(t, err)

	assert.NotEmpty(t, stats.RunID)
	assert.Equal(t, 2, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesSkipped)
	assert.Equal(t, 0, stats.FilesFailed)
	assert.Equal(t, 0, stats.LexicalErrors+stats.SyntaxErrors)
	assert.Greater(t, stats.ElementsExtracted, 10)

	root, err := filepath.Abs(dir)
	require.NoError(t, err)
	project, err := store.GetProject(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 2, project.TotalFiles)
	assert.Equal(t, stats.ElementsExtracted, project.TotalElements)
	assert.Equal(t, stats.RunID, project.LastRunID)
	assert.False(t, project.LastIndexedAt.IsZero())

	file, err := store.GetFile(ctx, project.ID, "vehicles/vehicles.tonto")
	require.NoError(t, err)
	elements, err := store.ListElementsByFile(ctx, file.ID)
	require.NoError(t, err)

	byKind := map[types.ElementKind][]*storage.Element{}
	for _, el := range elements {
		byKind[el.Kind] = append(byKind[el.Kind], el)
		assert.Equal(t, "Vehicles", el.PackageName, "element %s %s", el.Kind, el.Name)
	}
	assert.Len(t, byKind[types.ElementRelation], 2)
	assert.Len(t, byKind[types.ElementEnum], 1)

	runs, err := store.ListRuns(ctx, project.ID, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].FilesIndexed)
}

func TestIndexProject_EmptyProject(t *testing.T) {
	store := setupTestStorage(t)
	stats, err := New(store).IndexProject(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesIndexed)
	assert.Empty(t, stats.ErrorMessages)
}

func TestIndexProject_MissingRoot(t *testing.T) {
	store := setupTestStorage(t)
	_, err := New(store).IndexProject(context.Background(), filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}

func TestIndexProject_IncrementalUpdate(t *testing.T) {
	store := setupTestStorage(t)
	dir := t.TempDir()
	createTestFile(t, dir, "people.tonto", peopleSource)
	vehicles := createTestFile(t, dir, "vehicles.tonto", vehiclesSource)
	idx := New(store)
	ctx := context.Background()

	stats, err := idx.IndexProject(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesIndexed)

	// unchanged tree skips everything
	stats, err = idx.IndexProject(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesIndexed)
	assert.Equal(t, 2, stats.FilesSkipped)

	// a modified file is re-indexed
	require.NoError(t, os.WriteFile(vehicles, []byte("package Vehicles\nkind Truck\n"), 0o644))
	stats, err = idx.IndexProject(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 1, stats.FilesSkipped)

	// a deleted file is removed
	require.NoError(t, os.Remove(vehicles))
	stats, err = idx.IndexProject(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesRemoved)

	root, _ := filepath.Abs(dir)
	project, err := store.GetProject(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 1, project.TotalFiles)
}

func TestIndexProject_WithSyntaxErrors(t *testing.T) {
	store := setupTestStorage(t)
	dir := t.TempDir()
	createTestFile(t, dir, "broken.tonto", brokenSource)
	ctx := context.Background()

	stats, err := New(store).IndexProject(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed, "files with syntax errors are still indexed")
	assert.Equal(t, 0, stats.FilesFailed)
	assert.GreaterOrEqual(t, stats.SyntaxErrors, 1)

	root, _ := filepath.Abs(dir)
	project, err := store.GetProject(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, stats.SyntaxErrors, project.TotalErrors)

	file, err := store.GetFile(ctx, project.ID, "broken.tonto")
	require.NoError(t, err)
	assert.Equal(t, stats.SyntaxErrors, file.SyntaxErrors)

	diags, err := store.ListDiagnosticsByFile(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, diags, file.SyntaxErrors)
	assert.Equal(t, types.CodeUnexpectedToken, diags[0].Code)
	assert.Equal(t, "}", diags[0].Token)
	assert.Equal(t, 5, diags[0].Line)
	assert.NotEmpty(t, diags[0].Suggestion)

	// the recovered class is still stored
	elements, err := store.ListElementsByFile(ctx, file.ID)
	require.NoError(t, err)
	var names []string
	for _, el := range elements {
		names = append(names, el.Name)
	}
	assert.Contains(t, names, "Person")
}

func TestIndexProject_ConcurrentCalls(t *testing.T) {
	store := setupTestStorage(t)
	dir := t.TempDir()
	createTestFile(t, dir, "people.tonto", peopleSource)
	idx := New(store)

	// hold the lock as a running index would
	require.True(t, idx.lock.TryAcquire("/elsewhere"))
	assert.Equal(t, "/elsewhere", idx.Indexing())
	_, err := idx.IndexProject(context.Background(), dir, nil)
	assert.ErrorIs(t, err, ErrIndexingInProgress)
	idx.lock.Release()

	_, err = idx.IndexProject(context.Background(), dir, nil)
	assert.NoError(t, err)
	assert.Empty(t, idx.Indexing())
}

func TestIndexProject_ContextCancellation(t *testing.T) {
	store := setupTestStorage(t)
	dir := t.TempDir()
	for i := 0; i < 10; i++ {
		createTestFile(t, dir, filepath.Join("m", string(rune('a'+i))+".tonto"), peopleSource)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(store).IndexProject(ctx, dir, nil)
	assert.Error(t, err)
}

func TestIndexProject_BatchProcessing(t *testing.T) {
	store := setupTestStorage(t)
	dir := t.TempDir()
	for i := 0; i < 7; i++ {
		createTestFile(t, dir, string(rune('a'+i))+".tonto", peopleSource)
	}

	stats, err := New(store).IndexProject(context.Background(), dir, &Config{Workers: 3, BatchSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 7, stats.FilesIndexed)
}

func TestIndexProject_Metrics(t *testing.T) {
	store := setupTestStorage(t)
	dir := t.TempDir()
	createTestFile(t, dir, "broken.tonto", brokenSource)

	reg := prometheus.NewRegistry()
	collector, err := metrics.New(reg)
	require.NoError(t, err)

	_, err = New(store, WithMetrics(collector)).IndexProject(context.Background(), dir, nil)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["tonto_files_total"])
	assert.True(t, names["tonto_diagnostics_total"])
	assert.True(t, names["tonto_index_runs_total"])
}

func TestIndexFile(t *testing.T) {
	store := setupTestStorage(t)
	dir := t.TempDir()
	path := createTestFile(t, dir, "people.tonto", peopleSource)
	idx := New(store)
	ctx := context.Background()

	result, err := idx.IndexFile(ctx, dir, path)
	require.NoError(t, err)
	assert.Equal(t, "people.tonto", result.Path)
	assert.False(t, result.Skipped)
	require.NotNil(t, result.Analysis)
	assert.Len(t, result.Analysis.Summary.Classes, 3)

	// unchanged content is skipped
	result, err = idx.IndexFile(ctx, dir, "people.tonto")
	require.NoError(t, err)
	assert.True(t, result.Skipped)

	root, _ := filepath.Abs(dir)
	project, err := store.GetProject(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 1, project.TotalFiles)

	require.NoError(t, idx.RemoveFile(ctx, dir, path))
	project, err = store.GetProject(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 0, project.TotalFiles)

	// removing again is a no-op
	assert.NoError(t, idx.RemoveFile(ctx, dir, path))
}

func TestIndexLock_ConcurrentAcquisition(t *testing.T) {
	var lock IndexLock
	const goroutines = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0

	start := make(chan struct{})
	winner := ""
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		root := fmt.Sprintf("/project/%d", i)
		go func() {
			defer wg.Done()
			<-start
			if lock.TryAcquire(root) {
				mu.Lock()
				acquired++
				winner = root
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, acquired, "exactly one goroutine should acquire the lock")
	assert.Equal(t, winner, lock.Holder())
	lock.Release()
	assert.Empty(t, lock.Holder())
	assert.True(t, lock.TryAcquire("/project/again"))
}
