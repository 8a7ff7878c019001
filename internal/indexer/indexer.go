package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/tonto-mcp/internal/analyzer"
	"github.com/dshills/tonto-mcp/internal/metrics"
	"github.com/dshills/tonto-mcp/internal/storage"
	"github.com/dshills/tonto-mcp/pkg/types"
)

// ErrIndexingInProgress is returned when a project run is already active on this Indexer
var ErrIndexingInProgress = errors.New("indexing already in progress")

// DefaultInclude matches every ontology source under the project root
var DefaultInclude = []string{"**/*.tonto"}

// Indexer coordinates the indexing pipeline: discover -> analyze -> store
type Indexer struct {
	storage storage.Storage
	metrics *metrics.Collector
	logger  *slog.Logger
	lock    IndexLock
}

// Option configures an Indexer
type Option func(*Indexer)

// WithMetrics records file, diagnostic and run metrics on c
func WithMetrics(c *metrics.Collector) Option {
	return func(idx *Indexer) { idx.metrics = c }
}

// WithLogger sets the logger; slog.Default() is used otherwise
func WithLogger(l *slog.Logger) Option {
	return func(idx *Indexer) { idx.logger = l }
}

// Config contains configuration for the indexer
type Config struct {
	Workers   int      // Number of concurrent workers (default: runtime.NumCPU())
	BatchSize int      // Number of files to commit per transaction (default: 20)
	Include   []string // doublestar patterns relative to the root (default: **/*.tonto)
	Exclude   []string // doublestar patterns relative to the root
}

func (c *Config) withDefaults() *Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if out.Workers <= 0 {
		out.Workers = runtime.NumCPU()
	}
	if out.BatchSize <= 0 {
		out.BatchSize = 20
	}
	if len(out.Include) == 0 {
		out.Include = DefaultInclude
	}
	return &out
}

// Validate reports the first malformed include or exclude pattern
func (c *Config) Validate() error {
	for _, p := range append(append([]string{}, c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return nil
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	RunID             string
	FilesIndexed      int
	FilesSkipped      int
	FilesFailed       int
	FilesRemoved      int
	ElementsExtracted int
	LexicalErrors     int
	SyntaxErrors      int
	Duration          time.Duration
	ErrorMessages     []string
}

// FileResult is the outcome of indexing a single file
type FileResult struct {
	Path     string // Relative to project root
	Analysis *types.Analysis
	Skipped  bool // Content hash unchanged
}

// analyzedFile carries one file from the analysis phase to the store phase
type analyzedFile struct {
	relPath  string
	hash     [32]byte
	modTime  time.Time
	size     int64
	analysis *types.Analysis
}

// New creates a new Indexer instance
func New(store storage.Storage, opts ...Option) *Indexer {
	idx := &Indexer{storage: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexProject indexes every matching file under rootPath. Unchanged files are
// skipped by content hash and files that disappeared since the last run are
// removed. Only one run per Indexer may be active.
func (idx *Indexer) IndexProject(ctx context.Context, rootPath string, config *Config) (stats *Statistics, err error) {
	root, err := resolveRoot(rootPath)
	if err != nil {
		return nil, err
	}
	if !idx.lock.TryAcquire(root) {
		return nil, ErrIndexingInProgress
	}
	defer idx.lock.Release()

	config = config.withDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	defer func() { idx.metrics.ObserveIndexRun(time.Since(startTime), err) }()

	stats = &Statistics{
		RunID:         uuid.NewString(),
		ErrorMessages: make([]string, 0),
	}
	logger := idx.logger.With("run_id", stats.RunID, "root", root)
	logger.Info("Indexing started", "workers", config.Workers, "include", config.Include)

	project, err := idx.getOrCreateProject(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create project: %w", err)
	}

	files, err := discoverFiles(root, config)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}

	known, err := idx.knownFiles(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	changed, err := idx.analyzeFiles(ctx, root, files, known, config, stats)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze files: %w", err)
	}

	if err := idx.storeFiles(ctx, project, changed, config.BatchSize, stats); err != nil {
		return nil, fmt.Errorf("failed to store files: %w", err)
	}

	if err := idx.removeMissing(ctx, files, known, stats); err != nil {
		return nil, fmt.Errorf("failed to remove deleted files: %w", err)
	}

	stats.Duration = time.Since(startTime)
	if err := idx.finishRun(ctx, project, stats, startTime); err != nil {
		return nil, fmt.Errorf("failed to update project stats: %w", err)
	}

	idx.metrics.AddFiles(metrics.OutcomeIndexed, stats.FilesIndexed)
	idx.metrics.AddFiles(metrics.OutcomeSkipped, stats.FilesSkipped)
	idx.metrics.AddFiles(metrics.OutcomeFailed, stats.FilesFailed)
	idx.metrics.AddFiles(metrics.OutcomeRemoved, stats.FilesRemoved)

	logger.Info("Indexing finished",
		"indexed", stats.FilesIndexed,
		"skipped", stats.FilesSkipped,
		"failed", stats.FilesFailed,
		"removed", stats.FilesRemoved,
		"duration", stats.Duration)
	return stats, nil
}

// Indexing returns the root of the active project run, or "" when idle
func (idx *Indexer) Indexing() string {
	return idx.lock.Holder()
}

// IndexFile analyzes and stores one file of the project at rootPath. The file
// is skipped when its content hash matches the stored one.
func (idx *Indexer) IndexFile(ctx context.Context, rootPath, filePath string) (*FileResult, error) {
	root, err := resolveRoot(rootPath)
	if err != nil {
		return nil, err
	}
	relPath, err := relativePath(root, filePath)
	if err != nil {
		return nil, err
	}

	project, err := idx.getOrCreateProject(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create project: %w", err)
	}

	content, hash, info, err := readSource(filepath.Join(root, filepath.FromSlash(relPath)))
	if err != nil {
		idx.metrics.AddFiles(metrics.OutcomeFailed, 1)
		return nil, err
	}

	existing, err := idx.storage.GetFile(ctx, project.ID, relPath)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.ContentHash == hash {
		idx.metrics.AddFiles(metrics.OutcomeSkipped, 1)
		return &FileResult{Path: relPath, Skipped: true}, nil
	}

	af := idx.analyze(relPath, content, hash, info)
	stats := &Statistics{ErrorMessages: make([]string, 0)}
	if err := idx.storeFiles(ctx, project, []*analyzedFile{af}, 1, stats); err != nil {
		return nil, err
	}
	if err := idx.refreshProject(ctx, project, project.LastRunID, project.LastIndexedAt); err != nil {
		return nil, err
	}

	idx.metrics.AddFiles(metrics.OutcomeIndexed, 1)
	return &FileResult{Path: relPath, Analysis: af.analysis}, nil
}

// RemoveFile deletes the stored data of one file. Removing a file that was
// never indexed is not an error.
func (idx *Indexer) RemoveFile(ctx context.Context, rootPath, filePath string) error {
	root, err := resolveRoot(rootPath)
	if err != nil {
		return err
	}
	relPath, err := relativePath(root, filePath)
	if err != nil {
		return err
	}

	project, err := idx.storage.GetProject(ctx, root)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	file, err := idx.storage.GetFile(ctx, project.ID, relPath)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := idx.storage.DeleteFile(ctx, file.ID); err != nil {
		return err
	}
	idx.metrics.AddFiles(metrics.OutcomeRemoved, 1)
	return idx.refreshProject(ctx, project, project.LastRunID, project.LastIndexedAt)
}

// Matches reports whether a root-relative slash path is selected by the
// include and exclude patterns of config
func Matches(config *Config, relPath string) bool {
	config = config.withDefaults()
	if isHidden(relPath) {
		return false
	}
	for _, p := range config.Exclude {
		if ok, _ := doublestar.Match(p, relPath); ok {
			return false
		}
	}
	for _, p := range config.Include {
		if ok, _ := doublestar.Match(p, relPath); ok {
			return true
		}
	}
	return false
}

// getOrCreateProject retrieves an existing project or creates a new one
func (idx *Indexer) getOrCreateProject(ctx context.Context, rootPath string) (*storage.Project, error) {
	project, err := idx.storage.GetProject(ctx, rootPath)
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	project = &storage.Project{
		RootPath:     rootPath,
		IndexVersion: storage.CurrentSchemaVersion,
	}
	if err := idx.storage.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (idx *Indexer) knownFiles(ctx context.Context, projectID int64) (map[string]*storage.File, error) {
	files, err := idx.storage.ListFiles(ctx, projectID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]*storage.File, len(files))
	for _, f := range files {
		known[f.FilePath] = f
	}
	return known, nil
}

// discoverFiles returns the sorted root-relative slash paths selected by config
func discoverFiles(root string, config *Config) ([]string, error) {
	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var files []string

	for _, pattern := range config.Include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] || !Matches(config, m) {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}

	sort.Strings(files)
	return files, nil
}

// analyzeFiles reads, hashes and analyzes files concurrently. Unchanged files
// are counted as skipped and not returned.
func (idx *Indexer) analyzeFiles(ctx context.Context, root string, files []string,
	known map[string]*storage.File, config *Config, stats *Statistics) ([]*analyzedFile, error) {

	// Create worker pool with semaphore
	semaphore := make(chan struct{}, config.Workers)

	var (
		skipped int32
		failed  int32
		mu      sync.Mutex // Protect stats.ErrorMessages
	)
	results := make([]*analyzedFile, len(files))

	g, gctx := errgroup.WithContext(ctx)
dispatch:
	for i, relPath := range files {
		select {
		case <-gctx.Done():
			break dispatch
		case semaphore <- struct{}{}:
		}

		g.Go(func() error {
			defer func() { <-semaphore }()
			if err := gctx.Err(); err != nil {
				return err
			}

			content, hash, info, err := readSource(filepath.Join(root, filepath.FromSlash(relPath)))
			if err != nil {
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", relPath, err))
				mu.Unlock()
				return nil
			}

			if prev, ok := known[relPath]; ok && prev.ContentHash == hash {
				atomic.AddInt32(&skipped, 1)
				return nil
			}

			results[i] = idx.analyze(relPath, content, hash, info)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats.FilesSkipped = int(skipped)
	stats.FilesFailed = int(failed)

	changed := make([]*analyzedFile, 0, len(results))
	for _, r := range results {
		if r != nil {
			changed = append(changed, r)
		}
	}
	return changed, nil
}

func (idx *Indexer) analyze(relPath string, content []byte, hash [32]byte, info fs.FileInfo) *analyzedFile {
	start := time.Now()
	analysis := analyzer.New().Analyze(string(content))
	idx.metrics.ObserveAnalysis(time.Since(start), analysis)

	idx.logger.Debug("Analyzed file",
		"path", relPath,
		"elements", analysis.Summary.ElementCount(),
		"errors", analysis.ErrorCount())

	return &analyzedFile{
		relPath:  relPath,
		hash:     hash,
		modTime:  info.ModTime(),
		size:     info.Size(),
		analysis: analysis,
	}
}

// storeFiles writes analyzed files in batches, one transaction per batch
func (idx *Indexer) storeFiles(ctx context.Context, project *storage.Project, files []*analyzedFile,
	batchSize int, stats *Statistics) error {

	for i := 0; i < len(files); i += batchSize {
		end := i + batchSize
		if end > len(files) {
			end = len(files)
		}
		if err := idx.storeBatch(ctx, project, files[i:end], stats); err != nil {
			return err
		}
	}
	return nil
}

func (idx *Indexer) storeBatch(ctx context.Context, project *storage.Project, batch []*analyzedFile, stats *Statistics) error {
	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, af := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}

		file := &storage.File{
			ProjectID:     project.ID,
			FilePath:      af.relPath,
			ContentHash:   af.hash,
			ModTime:       af.modTime,
			SizeBytes:     af.size,
			LexicalErrors: len(af.analysis.LexicalErrors),
			SyntaxErrors:  len(af.analysis.SyntaxErrors),
			LastRunID:     stats.RunID,
		}
		if err := tx.UpsertFile(ctx, file); err != nil {
			return err
		}

		elements := Elements(af.analysis.Summary)
		if err := tx.ReplaceElements(ctx, file.ID, elements); err != nil {
			return fmt.Errorf("%s: %w", af.relPath, err)
		}
		if err := tx.ReplaceDiagnostics(ctx, file.ID, Diagnostics(af.analysis)); err != nil {
			return fmt.Errorf("%s: %w", af.relPath, err)
		}

		stats.FilesIndexed++
		stats.ElementsExtracted += len(elements)
		stats.LexicalErrors += file.LexicalErrors
		stats.SyntaxErrors += file.SyntaxErrors
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// removeMissing deletes stored files that discovery no longer returns
func (idx *Indexer) removeMissing(ctx context.Context, discovered []string,
	known map[string]*storage.File, stats *Statistics) error {

	present := make(map[string]bool, len(discovered))
	for _, f := range discovered {
		present[f] = true
	}

	var stale []*storage.File
	for path, f := range known {
		if !present[path] {
			stale = append(stale, f)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, f := range stale {
		if err := tx.DeleteFile(ctx, f.ID); err != nil {
			return err
		}
		stats.FilesRemoved++
	}
	return tx.Commit()
}

// finishRun records the run and refreshes the project totals
func (idx *Indexer) finishRun(ctx context.Context, project *storage.Project, stats *Statistics, startTime time.Time) error {
	finished := time.Now()
	run := &storage.Run{
		RunID:        stats.RunID,
		ProjectID:    project.ID,
		FilesIndexed: stats.FilesIndexed,
		FilesSkipped: stats.FilesSkipped,
		FilesFailed:  stats.FilesFailed,
		ErrorsFound:  stats.LexicalErrors + stats.SyntaxErrors,
		StartedAt:    startTime,
		FinishedAt:   finished,
	}
	if err := idx.storage.RecordRun(ctx, run); err != nil {
		return err
	}
	return idx.refreshProject(ctx, project, stats.RunID, finished)
}

// refreshProject recomputes the project totals from stored rows
func (idx *Indexer) refreshProject(ctx context.Context, project *storage.Project, runID string, indexedAt time.Time) error {
	status, err := idx.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return err
	}

	project.TotalFiles = status.FilesCount
	project.TotalElements = status.ElementsCount
	project.TotalErrors = status.DiagnosticsCount
	project.LastRunID = runID
	project.LastIndexedAt = indexedAt
	return idx.storage.UpdateProject(ctx, project)
}

// readSource reads a file and computes its SHA-256 hash
func readSource(path string) ([]byte, [32]byte, fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, [32]byte{}, nil, err
	}
	if info.IsDir() {
		return nil, [32]byte{}, nil, fmt.Errorf("%s is a directory", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, [32]byte{}, nil, err
	}
	return content, sha256.Sum256(content), info, nil
}

// resolveRoot returns the absolute, cleaned project root and checks it is a directory
func resolveRoot(rootPath string) (string, error) {
	root, err := filepath.Abs(rootPath)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("project root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project root %s is not a directory", root)
	}
	return root, nil
}

// relativePath returns the root-relative slash path of filePath, which may be
// absolute or already relative to root
func relativePath(root, filePath string) (string, error) {
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(root, filePath)
	}
	rel, err := filepath.Rel(root, filePath)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside project root %s", filePath, root)
	}
	return filepath.ToSlash(rel), nil
}

// isHidden reports whether any segment of a slash path starts with a dot
func isHidden(relPath string) bool {
	for _, seg := range strings.Split(relPath, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." {
			return true
		}
	}
	return false
}
