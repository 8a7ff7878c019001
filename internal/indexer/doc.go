// Package indexer keeps a SQLite index of a directory tree of Tonto files.
//
// The indexer discovers files with doublestar patterns, analyzes them
// concurrently and stores their structural elements and diagnostics.
//
// # Basic Usage
//
//	idx := indexer.New(store, indexer.WithLogger(logger))
//
//	stats, err := idx.IndexProject(ctx, "/path/to/models", &indexer.Config{
//	    Include: []string{"**/*.tonto"},
//	    Exclude: []string{"drafts/**"},
//	})
//
//	fmt.Printf("run %s: %d indexed, %d skipped\n", stats.RunID, stats.FilesIndexed, stats.FilesSkipped)
//
// # Pipeline
//
//  1. Discovery: glob the include patterns, drop excluded and hidden paths
//  2. Incremental decision: compare SHA-256 content hashes, skip unchanged files
//  3. Analyze: tokenize and parse each changed file (parallel, Workers at a time)
//  4. Store: upsert file rows and replace elements and diagnostics, one
//     transaction per BatchSize files
//  5. Cleanup: delete files that are no longer discovered
//  6. Record the run and refresh project totals
//
// Files with syntax errors are still indexed; their diagnostics are stored
// alongside whatever structure the parser recovered. Only unreadable files
// count as failed.
//
// # Single Files
//
// IndexFile and RemoveFile update one file without a full run. The watcher
// uses them to apply debounced file system events.
//
// # Concurrency
//
// An Indexer runs one IndexProject at a time; a second concurrent call gets
// ErrIndexingInProgress.
package indexer
