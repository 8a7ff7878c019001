// Package storage provides SQLite-based persistence for analyzed ontology files.
//
// The storage layer manages:
//   - Project metadata and totals
//   - File information, content hashes and error counts
//   - Structural elements extracted by the parser
//   - Lexical and syntax diagnostics
//   - Indexing run history
//   - A full-text search index over elements
//
// # Database Schema
//
// Tables:
//   - projects: Project root path and totals
//   - files: File paths, SHA-256 hashes and error counts
//   - elements: Packages, classes, datatypes, enums, gensets, relations, attributes, imports
//   - elements_fts: FTS5 index over element name, stereotype and detail
//   - diagnostics: ErrorRecords with position and suggestion
//   - index_runs: One row per indexing run (schema 1.1.0)
//
// Migrations are ordered by semantic version and applied on open.
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("~/.tonto/index.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	project := &storage.Project{RootPath: "/path/to/models"}
//	err = db.CreateProject(ctx, project)
//
// # Transactions
//
// Use transactions for atomic per-file updates:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer func() { _ = tx.Rollback() }()
//
//	if err := tx.UpsertFile(ctx, file); err != nil {
//	    return err
//	}
//	if err := tx.ReplaceElements(ctx, file.ID, elements); err != nil {
//	    return err
//	}
//	if err := tx.ReplaceDiagnostics(ctx, file.ID, diagnostics); err != nil {
//	    return err
//	}
//	return tx.Commit()
//
// The connection pool holds a single connection, so code holding a Tx must
// route every call through it.
//
// # Full-Text Search
//
// Each query term becomes a prefix match and results are ranked by BM25:
//
//	results, err := db.SearchElements(ctx, project.ID, "pers", 10, &storage.SearchFilters{
//	    Kinds: []types.ElementKind{types.ElementClass},
//	})
//
// # Build Tags
//
// The default build uses modernc.org/sqlite and needs no C compiler. The
// sqlite_cgo tag switches to github.com/mattn/go-sqlite3, which must also be
// built with sqlite_fts5:
//
//	CGO_ENABLED=1 go build -tags "sqlite_cgo,sqlite_fts5" ./...
package storage
