package storage

import (
	"context"
	"time"

	"github.com/dshills/tonto-mcp/pkg/types"
)

// Storage defines the interface for persisting and querying analyzed ontology data
type Storage interface {
	// Project operations
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, rootPath string) (*Project, error)
	GetProjectByID(ctx context.Context, projectID int64) (*Project, error)
	UpdateProject(ctx context.Context, project *Project) error

	// File operations
	UpsertFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, projectID int64, filePath string) (*File, error)
	GetFileByID(ctx context.Context, fileID int64) (*File, error)
	DeleteFile(ctx context.Context, fileID int64) error
	ListFiles(ctx context.Context, projectID int64) ([]*File, error)

	// Element operations
	ReplaceElements(ctx context.Context, fileID int64, elements []*Element) error
	ListElementsByFile(ctx context.Context, fileID int64) ([]*Element, error)
	SearchElements(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]ElementResult, error)

	// Diagnostic operations
	ReplaceDiagnostics(ctx context.Context, fileID int64, diagnostics []*Diagnostic) error
	ListDiagnosticsByFile(ctx context.Context, fileID int64) ([]*Diagnostic, error)

	// Run operations
	RecordRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context, projectID int64, limit int) ([]*Run, error)

	// Status operations
	GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Project represents a directory tree of .tonto files
type Project struct {
	ID            int64
	RootPath      string
	TotalFiles    int
	TotalElements int
	TotalErrors   int
	IndexVersion  string
	LastRunID     string
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// File represents a tracked ontology source file
type File struct {
	ID            int64
	ProjectID     int64
	FilePath      string // Relative to project root
	ContentHash   [32]byte
	ModTime       time.Time
	SizeBytes     int64
	LexicalErrors int
	SyntaxErrors  int
	LastRunID     string
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ErrorCount returns the number of diagnostics recorded for the file
func (f *File) ErrorCount() int {
	return f.LexicalErrors + f.SyntaxErrors
}

// Element is one structural entity of a parsed file: a package, class,
// datatype, enum, generalization set, relation, attribute or import.
type Element struct {
	ID          int64
	FileID      int64
	Kind        types.ElementKind
	Name        string
	Stereotype  string
	PackageName string
	Detail      string
	Line        int
}

// Diagnostic is a stored lexical or syntax error
type Diagnostic struct {
	ID         int64
	FileID     int64
	Kind       types.ErrorKind
	Code       types.ErrorCode
	Line       int
	Column     int
	Token      string
	Message    string
	Suggestion string
}

// Run records one indexing pass over a project
type Run struct {
	ID           int64
	RunID        string
	ProjectID    int64
	FilesIndexed int
	FilesSkipped int
	FilesFailed  int
	ErrorsFound  int
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration returns how long the run took
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// SearchFilters narrows element search results
type SearchFilters struct {
	Kinds       []types.ElementKind // Filter by element kind
	Stereotypes []string            // Filter by class or relation stereotype
	Packages    []string            // Filter by enclosing package
	FilePattern string              // Glob pattern for file paths
}

// ElementResult is an element matched by full-text search
type ElementResult struct {
	Element  *Element
	FilePath string
	Score    float64 // BM25, lower is better
}

// ProjectStatus contains statistics about an indexed project
type ProjectStatus struct {
	Project          *Project
	FilesCount       int
	FilesWithErrors  int
	ElementsCount    int
	DiagnosticsCount int
	ElementsByKind   map[types.ElementKind]int
	IndexSizeMB      float64
	LastIndexedAt    time.Time
	LastRun          *Run
	Health           HealthStatus
}

// HealthStatus represents the health of the index
type HealthStatus struct {
	DatabaseAccessible bool
	FTSIndexesBuilt    bool
}
