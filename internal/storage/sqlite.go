package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/tonto-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrEmptyQuery is returned when a search query has no terms
	ErrEmptyQuery = errors.New("empty search query")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer; this also keeps ":memory:" to one database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance and applies pending migrations
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// scanner is implemented by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) querier() querier {
	return t.tx
}

func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Project operations

const projectColumns = `id, root_path, total_files, total_elements, total_errors,
	index_version, last_run_id, last_indexed_at, created_at, updated_at`

func scanProject(row scanner) (*Project, error) {
	var project Project
	var lastIndexedAt sql.NullTime
	err := row.Scan(
		&project.ID, &project.RootPath, &project.TotalFiles, &project.TotalElements,
		&project.TotalErrors, &project.IndexVersion, &project.LastRunID,
		&lastIndexedAt, &project.CreatedAt, &project.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastIndexedAt.Valid {
		project.LastIndexedAt = lastIndexedAt.Time
	}
	return &project, nil
}

func (s *SQLiteStorage) createProjectWithQuerier(ctx context.Context, q querier, project *Project) error {
	if project.IndexVersion == "" {
		project.IndexVersion = CurrentSchemaVersion
	}
	query := `
		INSERT INTO projects (root_path, index_version, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query, project.RootPath, project.IndexVersion, now, now)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	project.ID = id
	project.CreatedAt = now
	project.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateProject(ctx context.Context, project *Project) error {
	return s.createProjectWithQuerier(ctx, s.querier(), project)
}

func (s *SQLiteStorage) getProjectWithQuerier(ctx context.Context, q querier, rootPath string) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE root_path = ?`
	return scanProject(q.QueryRowContext(ctx, query, rootPath))
}

func (s *SQLiteStorage) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return s.getProjectWithQuerier(ctx, s.querier(), rootPath)
}

func (s *SQLiteStorage) getProjectByIDWithQuerier(ctx context.Context, q querier, projectID int64) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	return scanProject(q.QueryRowContext(ctx, query, projectID))
}

func (s *SQLiteStorage) GetProjectByID(ctx context.Context, projectID int64) (*Project, error) {
	return s.getProjectByIDWithQuerier(ctx, s.querier(), projectID)
}

func (s *SQLiteStorage) updateProjectWithQuerier(ctx context.Context, q querier, project *Project) error {
	query := `
		UPDATE projects
		SET total_files = ?, total_elements = ?, total_errors = ?,
		    last_run_id = ?, last_indexed_at = ?, updated_at = ?
		WHERE id = ?
	`
	var lastIndexedAt interface{}
	if !project.LastIndexedAt.IsZero() {
		lastIndexedAt = project.LastIndexedAt
	}
	now := time.Now()
	_, err := q.ExecContext(ctx, query,
		project.TotalFiles, project.TotalElements, project.TotalErrors,
		project.LastRunID, lastIndexedAt, now, project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	project.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateProject(ctx context.Context, project *Project) error {
	return s.updateProjectWithQuerier(ctx, s.querier(), project)
}

// File operations

const fileColumns = `id, project_id, file_path, content_hash, mod_time, size_bytes,
	lexical_errors, syntax_errors, last_run_id, last_indexed_at, created_at, updated_at`

func scanFile(row scanner) (*File, error) {
	var file File
	var hash []byte
	err := row.Scan(
		&file.ID, &file.ProjectID, &file.FilePath, &hash, &file.ModTime, &file.SizeBytes,
		&file.LexicalErrors, &file.SyntaxErrors, &file.LastRunID,
		&file.LastIndexedAt, &file.CreatedAt, &file.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	copy(file.ContentHash[:], hash)
	return &file, nil
}

func (s *SQLiteStorage) upsertFileWithQuerier(ctx context.Context, q querier, file *File) error {
	query := `
		INSERT INTO files (project_id, file_path, content_hash, mod_time, size_bytes,
		                   lexical_errors, syntax_errors, last_run_id, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, file_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			mod_time = excluded.mod_time,
			size_bytes = excluded.size_bytes,
			lexical_errors = excluded.lexical_errors,
			syntax_errors = excluded.syntax_errors,
			last_run_id = excluded.last_run_id,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		file.ProjectID, file.FilePath, file.ContentHash[:], file.ModTime, file.SizeBytes,
		file.LexicalErrors, file.SyntaxErrors, file.LastRunID, now, now, now).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert file: %w", err)
	}

	file.LastIndexedAt = now
	file.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertFile(ctx context.Context, file *File) error {
	return s.upsertFileWithQuerier(ctx, s.querier(), file)
}

func (s *SQLiteStorage) getFileWithQuerier(ctx context.Context, q querier, projectID int64, filePath string) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE project_id = ? AND file_path = ?`
	return scanFile(q.QueryRowContext(ctx, query, projectID, filePath))
}

func (s *SQLiteStorage) GetFile(ctx context.Context, projectID int64, filePath string) (*File, error) {
	return s.getFileWithQuerier(ctx, s.querier(), projectID, filePath)
}

func (s *SQLiteStorage) getFileByIDWithQuerier(ctx context.Context, q querier, fileID int64) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = ?`
	return scanFile(q.QueryRowContext(ctx, query, fileID))
}

func (s *SQLiteStorage) GetFileByID(ctx context.Context, fileID int64) (*File, error) {
	return s.getFileByIDWithQuerier(ctx, s.querier(), fileID)
}

// deleteFileWithQuerier removes a file; its elements and diagnostics cascade
func (s *SQLiteStorage) deleteFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, fileID)
	return err
}

func (s *SQLiteStorage) DeleteFile(ctx context.Context, fileID int64) error {
	return s.deleteFileWithQuerier(ctx, s.querier(), fileID)
}

func (s *SQLiteStorage) listFilesWithQuerier(ctx context.Context, q querier, projectID int64) ([]*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE project_id = ? ORDER BY file_path`
	rows, err := q.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := make([]*File, 0)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func (s *SQLiteStorage) ListFiles(ctx context.Context, projectID int64) ([]*File, error) {
	return s.listFilesWithQuerier(ctx, s.querier(), projectID)
}

// Element operations

const elementColumns = `e.id, e.file_id, e.kind, e.name, e.stereotype, e.package_name, e.detail, e.line`

func scanElement(row scanner, extra ...interface{}) (*Element, error) {
	var el Element
	var kind string
	dest := append([]interface{}{
		&el.ID, &el.FileID, &kind, &el.Name, &el.Stereotype, &el.PackageName, &el.Detail, &el.Line,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	el.Kind = types.ElementKind(kind)
	return &el, nil
}

// replaceElementsWithQuerier drops the stored elements of a file and inserts the new set
func (s *SQLiteStorage) replaceElementsWithQuerier(ctx context.Context, q querier, fileID int64, elements []*Element) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM elements WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("failed to clear elements: %w", err)
	}

	query := `
		INSERT INTO elements (file_id, kind, name, stereotype, package_name, detail, line)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, el := range elements {
		el.FileID = fileID
		result, err := q.ExecContext(ctx, query,
			fileID, string(el.Kind), el.Name, el.Stereotype, el.PackageName, el.Detail, el.Line)
		if err != nil {
			return fmt.Errorf("failed to insert element %s %q: %w", el.Kind, el.Name, err)
		}
		if id, err := result.LastInsertId(); err == nil {
			el.ID = id
		}
	}
	return nil
}

func (s *SQLiteStorage) ReplaceElements(ctx context.Context, fileID int64, elements []*Element) error {
	return s.replaceElementsWithQuerier(ctx, s.querier(), fileID, elements)
}

func (s *SQLiteStorage) listElementsByFileWithQuerier(ctx context.Context, q querier, fileID int64) ([]*Element, error) {
	query := `SELECT ` + elementColumns + ` FROM elements e WHERE e.file_id = ? ORDER BY e.line, e.id`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	elements := make([]*Element, 0)
	for rows.Next() {
		el, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		elements = append(elements, el)
	}
	return elements, rows.Err()
}

func (s *SQLiteStorage) ListElementsByFile(ctx context.Context, fileID int64) ([]*Element, error) {
	return s.listElementsByFileWithQuerier(ctx, s.querier(), fileID)
}

// searchElementsWithQuerier performs BM25 full-text search over element
// names, stereotypes and details
func (s *SQLiteStorage) searchElementsWithQuerier(ctx context.Context, q querier, projectID int64, query string, limit int, filters *SearchFilters) ([]ElementResult, error) {
	match := buildFTSQuery(query)
	if match == "" {
		return nil, ErrEmptyQuery
	}

	sqlQuery := `
		SELECT ` + elementColumns + `, f.file_path, bm25(elements_fts) AS score
		FROM elements_fts
		INNER JOIN elements e ON elements_fts.rowid = e.id
		INNER JOIN files f ON e.file_id = f.id
		WHERE elements_fts MATCH ?
		AND f.project_id = ?
	`
	args := []interface{}{match, projectID}
	sqlQuery, args = applyElementFilters(sqlQuery, args, filters)

	// lower BM25 is better; ties keep source order
	sqlQuery += " ORDER BY score, f.file_path, e.line LIMIT ?"
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]ElementResult, 0)
	for rows.Next() {
		var r ElementResult
		el, err := scanElement(rows, &r.FilePath, &r.Score)
		if err != nil {
			return nil, err
		}
		r.Element = el
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStorage) SearchElements(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]ElementResult, error) {
	return s.searchElementsWithQuerier(ctx, s.querier(), projectID, query, limit, filters)
}

// Diagnostic operations

func (s *SQLiteStorage) replaceDiagnosticsWithQuerier(ctx context.Context, q querier, fileID int64, diagnostics []*Diagnostic) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM diagnostics WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("failed to clear diagnostics: %w", err)
	}

	query := `
		INSERT INTO diagnostics (file_id, kind, code, line, col, token, message, suggestion)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, d := range diagnostics {
		d.FileID = fileID
		result, err := q.ExecContext(ctx, query,
			fileID, string(d.Kind), string(d.Code), d.Line, d.Column, d.Token, d.Message, d.Suggestion)
		if err != nil {
			return fmt.Errorf("failed to insert diagnostic: %w", err)
		}
		if id, err := result.LastInsertId(); err == nil {
			d.ID = id
		}
	}
	return nil
}

func (s *SQLiteStorage) ReplaceDiagnostics(ctx context.Context, fileID int64, diagnostics []*Diagnostic) error {
	return s.replaceDiagnosticsWithQuerier(ctx, s.querier(), fileID, diagnostics)
}

func (s *SQLiteStorage) listDiagnosticsByFileWithQuerier(ctx context.Context, q querier, fileID int64) ([]*Diagnostic, error) {
	query := `
		SELECT id, file_id, kind, code, line, col, token, message, suggestion
		FROM diagnostics
		WHERE file_id = ?
		ORDER BY line, col, id
	`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	diagnostics := make([]*Diagnostic, 0)
	for rows.Next() {
		var d Diagnostic
		var kind, code string
		err := rows.Scan(&d.ID, &d.FileID, &kind, &code, &d.Line, &d.Column, &d.Token, &d.Message, &d.Suggestion)
		if err != nil {
			return nil, err
		}
		d.Kind = types.ErrorKind(kind)
		d.Code = types.ErrorCode(code)
		diagnostics = append(diagnostics, &d)
	}
	return diagnostics, rows.Err()
}

func (s *SQLiteStorage) ListDiagnosticsByFile(ctx context.Context, fileID int64) ([]*Diagnostic, error) {
	return s.listDiagnosticsByFileWithQuerier(ctx, s.querier(), fileID)
}

// Run operations

func (s *SQLiteStorage) recordRunWithQuerier(ctx context.Context, q querier, run *Run) error {
	query := `
		INSERT INTO index_runs (run_id, project_id, files_indexed, files_skipped, files_failed,
		                        errors_found, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := q.ExecContext(ctx, query,
		run.RunID, run.ProjectID, run.FilesIndexed, run.FilesSkipped, run.FilesFailed,
		run.ErrorsFound, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		run.ID = id
	}
	return nil
}

func (s *SQLiteStorage) RecordRun(ctx context.Context, run *Run) error {
	return s.recordRunWithQuerier(ctx, s.querier(), run)
}

func (s *SQLiteStorage) listRunsWithQuerier(ctx context.Context, q querier, projectID int64, limit int) ([]*Run, error) {
	query := `
		SELECT id, run_id, project_id, files_indexed, files_skipped, files_failed,
		       errors_found, started_at, finished_at
		FROM index_runs
		WHERE project_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, query, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	runs := make([]*Run, 0)
	for rows.Next() {
		var run Run
		err := rows.Scan(&run.ID, &run.RunID, &run.ProjectID, &run.FilesIndexed, &run.FilesSkipped,
			&run.FilesFailed, &run.ErrorsFound, &run.StartedAt, &run.FinishedAt)
		if err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStorage) ListRuns(ctx context.Context, projectID int64, limit int) ([]*Run, error) {
	return s.listRunsWithQuerier(ctx, s.querier(), projectID, limit)
}

// Status operations

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier, projectID int64) (*ProjectStatus, error) {
	project, err := s.getProjectByIDWithQuerier(ctx, q, projectID)
	if err != nil {
		return nil, err
	}

	status := &ProjectStatus{
		Project:        project,
		LastIndexedAt:  project.LastIndexedAt,
		ElementsByKind: make(map[types.ElementKind]int),
	}

	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN lexical_errors + syntax_errors > 0 THEN 1 ELSE 0 END), 0)
		FROM files WHERE project_id = ?
	`, projectID).Scan(&status.FilesCount, &status.FilesWithErrors)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT e.kind, COUNT(*) FROM elements e
		JOIN files f ON e.file_id = f.id
		WHERE f.project_id = ?
		GROUP BY e.kind
	`, projectID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			_ = rows.Close()
			return nil, err
		}
		status.ElementsByKind[types.ElementKind(kind)] = n
		status.ElementsCount += n
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM diagnostics d
		JOIN files f ON d.file_id = f.id
		WHERE f.project_id = ?
	`, projectID).Scan(&status.DiagnosticsCount)
	if err != nil {
		return nil, err
	}

	runs, err := s.listRunsWithQuerier(ctx, q, projectID, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) > 0 {
		status.LastRun = runs[0]
	}

	var pageCount, pageSize int
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	status.Health = HealthStatus{
		DatabaseAccessible: true,
		FTSIndexesBuilt:    true, // created by the first migration
	}
	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return s.getStatusWithQuerier(ctx, s.querier(), projectID)
}

// Query helpers

// buildFTSQuery turns free text into an FTS5 expression: each whitespace
// separated term becomes a quoted prefix match, and terms are ANDed. Quoting
// neutralizes FTS5 operators and punctuation.
func buildFTSQuery(query string) string {
	terms := strings.Fields(query)
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.Trim(term, `"*`)
		if term == "" {
			continue
		}
		parts = append(parts, `"`+strings.ReplaceAll(term, `"`, `""`)+`"*`)
	}
	return strings.Join(parts, " ")
}

// applyElementFilters adds WHERE clause filters for element search
func applyElementFilters(query string, args []interface{}, filters *SearchFilters) (string, []interface{}) {
	if filters == nil {
		return query, args
	}

	if len(filters.Kinds) > 0 {
		kinds := make([]string, len(filters.Kinds))
		for i, k := range filters.Kinds {
			kinds[i] = string(k)
		}
		query, args = appendIn(query, args, "e.kind", kinds)
	}
	if len(filters.Stereotypes) > 0 {
		query, args = appendIn(query, args, "e.stereotype", filters.Stereotypes)
	}
	if len(filters.Packages) > 0 {
		query, args = appendIn(query, args, "e.package_name", filters.Packages)
	}
	if filters.FilePattern != "" {
		query += " AND f.file_path GLOB ?"
		args = append(args, filters.FilePattern)
	}
	return query, args
}

func appendIn(query string, args []interface{}, column string, values []string) (string, []interface{}) {
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args = append(args, v)
	}
	return query + " AND " + column + " IN (" + strings.Join(placeholders, ",") + ")", args
}

// Transaction implementations route every operation through the transaction

func (t *sqliteTx) CreateProject(ctx context.Context, project *Project) error {
	return t.storage.createProjectWithQuerier(ctx, t.querier(), project)
}

func (t *sqliteTx) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return t.storage.getProjectWithQuerier(ctx, t.querier(), rootPath)
}

func (t *sqliteTx) GetProjectByID(ctx context.Context, projectID int64) (*Project, error) {
	return t.storage.getProjectByIDWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) UpdateProject(ctx context.Context, project *Project) error {
	return t.storage.updateProjectWithQuerier(ctx, t.querier(), project)
}

func (t *sqliteTx) UpsertFile(ctx context.Context, file *File) error {
	return t.storage.upsertFileWithQuerier(ctx, t.querier(), file)
}

func (t *sqliteTx) GetFile(ctx context.Context, projectID int64, filePath string) (*File, error) {
	return t.storage.getFileWithQuerier(ctx, t.querier(), projectID, filePath)
}

func (t *sqliteTx) GetFileByID(ctx context.Context, fileID int64) (*File, error) {
	return t.storage.getFileByIDWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) DeleteFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) ListFiles(ctx context.Context, projectID int64) ([]*File, error) {
	return t.storage.listFilesWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) ReplaceElements(ctx context.Context, fileID int64, elements []*Element) error {
	return t.storage.replaceElementsWithQuerier(ctx, t.querier(), fileID, elements)
}

func (t *sqliteTx) ListElementsByFile(ctx context.Context, fileID int64) ([]*Element, error) {
	return t.storage.listElementsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) SearchElements(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]ElementResult, error) {
	return t.storage.searchElementsWithQuerier(ctx, t.querier(), projectID, query, limit, filters)
}

func (t *sqliteTx) ReplaceDiagnostics(ctx context.Context, fileID int64, diagnostics []*Diagnostic) error {
	return t.storage.replaceDiagnosticsWithQuerier(ctx, t.querier(), fileID, diagnostics)
}

func (t *sqliteTx) ListDiagnosticsByFile(ctx context.Context, fileID int64) ([]*Diagnostic, error) {
	return t.storage.listDiagnosticsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) RecordRun(ctx context.Context, run *Run) error {
	return t.storage.recordRunWithQuerier(ctx, t.querier(), run)
}

func (t *sqliteTx) ListRuns(ctx context.Context, projectID int64, limit int) ([]*Run, error) {
	return t.storage.listRunsWithQuerier(ctx, t.querier(), projectID, limit)
}

func (t *sqliteTx) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
