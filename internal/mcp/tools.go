package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/tonto-mcp/internal/analyzer"
	"github.com/dshills/tonto-mcp/internal/indexer"
	"github.com/dshills/tonto-mcp/internal/searcher"
	"github.com/dshills/tonto-mcp/internal/storage"
	"github.com/dshills/tonto-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeProjectNotFound    = -32001 // Specified path does not exist
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed         = -32003 // Project not indexed
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

// MaxSourceBytes bounds the size of a file read by the analysis tools
const MaxSourceBytes = 4 << 20

// handleTokenizeSource handles the tokenize_source tool invocation
func (s *Server) handleTokenizeSource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	source, err := sourceArgument(args)
	if err != nil {
		return nil, err
	}

	result := analyzer.New().Tokenize(source)
	response := map[string]interface{}{
		"token_count": len(result.Tokens),
		"tokens":      result.Tokens,
		"errors":      result.Errors,
		"valid":       len(result.Errors) == 0,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleParseSource handles the parse_source tool invocation
func (s *Server) handleParseSource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	source, err := sourceArgument(args)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	analysis := analyzer.New().Analyze(source)
	s.metrics.ObserveAnalysis(time.Since(start), analysis)

	if len(analysis.Defects) > 0 {
		s.logger.Error("Parser defect", "defects", analysis.Defects)
	}

	response := map[string]interface{}{
		"valid":          analysis.ErrorCount() == 0,
		"summary":        analysis.Summary,
		"syntax_errors":  analysis.SyntaxErrors,
		"lexical_errors": analysis.LexicalErrors,
		"element_count":  analysis.Summary.ElementCount(),
	}
	if getBoolDefault(args, "include_tokens", false) {
		response["tokens"] = analysis.Tokens
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIndexProject handles the index_project tool invocation
func (s *Server) handleIndexProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	path, err := pathArgument(args)
	if err != nil {
		return nil, err
	}

	config := *s.indexConfig
	if include := getStringSlice(args, "include"); len(include) > 0 {
		config.Include = include
	}
	if exclude := getStringSlice(args, "exclude"); len(exclude) > 0 {
		config.Exclude = exclude
	}
	if err := config.Validate(); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid glob pattern", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	stats, err := s.indexer.IndexProject(ctx, path, &config)
	if errors.Is(err, indexer.ErrIndexingInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", map[string]interface{}{
			"path": path,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	s.searcher.InvalidateCache()

	response := map[string]interface{}{
		"indexed":            true,
		"run_id":             stats.RunID,
		"files_indexed":      stats.FilesIndexed,
		"files_skipped":      stats.FilesSkipped,
		"files_failed":       stats.FilesFailed,
		"files_removed":      stats.FilesRemoved,
		"elements_extracted": stats.ElementsExtracted,
		"lexical_errors":     stats.LexicalErrors,
		"syntax_errors":      stats.SyntaxErrors,
		"duration_ms":        stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		// Include first few errors
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchElements handles the search_elements tool invocation
func (s *Server) handleSearchElements(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	path, err := pathArgument(args)
	if err != nil {
		return nil, err
	}

	limit := getIntDefault(args, "limit", searcher.DefaultLimit)
	if limit < 1 || limit > searcher.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	filters, err := parseFilters(args)
	if err != nil {
		return nil, err
	}

	project, err := s.projectFor(ctx, path)
	if err != nil {
		return nil, err
	}

	resp, err := s.searcher.Search(ctx, searcher.SearchRequest{
		ProjectID: project.ID,
		Query:     query,
		Limit:     limit,
		Filters:   filters,
		UseCache:  true,
	})
	if errors.Is(err, searcher.ErrEmptyQuery) {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query has no search terms", map[string]interface{}{
			"param": "query",
			"value": query,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = map[string]interface{}{
			"rank":       r.Rank,
			"kind":       r.Kind,
			"name":       r.Name,
			"stereotype": r.Stereotype,
			"detail":     r.Detail,
			"file":       r.File.Path,
			"line":       r.File.Line,
		}
	}

	response := map[string]interface{}{
		"query":         query,
		"results":       results,
		"total_results": resp.TotalResults,
		"cache_hit":     resp.CacheHit,
		"duration_ms":   resp.Duration.Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetDiagnostics handles the get_diagnostics tool invocation
func (s *Server) handleGetDiagnostics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	path, err := pathArgument(args)
	if err != nil {
		return nil, err
	}

	project, err := s.projectFor(ctx, path)
	if err != nil {
		return nil, err
	}

	var files []*storage.File
	if only := getStringDefault(args, "file", ""); only != "" {
		file, err := s.storage.GetFile(ctx, project.ID, filepath.ToSlash(only))
		if errors.Is(err, storage.ErrNotFound) {
			return nil, newMCPError(ErrorCodeInvalidParams, "file not indexed", map[string]interface{}{
				"param": "file",
				"value": only,
			})
		}
		if err != nil {
			return nil, internalError("failed to get file", err)
		}
		files = []*storage.File{file}
	} else {
		if files, err = s.storage.ListFiles(ctx, project.ID); err != nil {
			return nil, internalError("failed to list files", err)
		}
	}

	report := make([]map[string]interface{}, 0)
	total := 0
	for _, f := range files {
		if f.ErrorCount() == 0 {
			continue
		}
		diags, err := s.storage.ListDiagnosticsByFile(ctx, f.ID)
		if err != nil {
			return nil, internalError("failed to list diagnostics", err)
		}
		entries := make([]map[string]interface{}, len(diags))
		for i, d := range diags {
			entries[i] = map[string]interface{}{
				"line":       d.Line,
				"column":     d.Column,
				"kind":       d.Kind,
				"code":       d.Code,
				"token":      d.Token,
				"message":    d.Message,
				"suggestion": d.Suggestion,
			}
		}
		total += len(diags)
		report = append(report, map[string]interface{}{
			"file":        f.FilePath,
			"diagnostics": entries,
		})
	}

	response := map[string]interface{}{
		"path":              project.RootPath,
		"files":             report,
		"total_diagnostics": total,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	path, err := pathArgument(args)
	if err != nil {
		return nil, err
	}

	project, err := s.storage.GetProject(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		response := map[string]interface{}{
			"indexed": false,
			"path":    path,
			"message": "Project not indexed. Use index_project tool to index this project.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, internalError("failed to get project status", err)
	}

	status, err := s.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return nil, internalError("failed to get status", err)
	}

	statistics := map[string]interface{}{
		"files_count":       status.FilesCount,
		"files_with_errors": status.FilesWithErrors,
		"elements_count":    status.ElementsCount,
		"diagnostics_count": status.DiagnosticsCount,
		"elements_by_kind":  status.ElementsByKind,
		"index_size_mb":     fmt.Sprintf("%.2f", status.IndexSizeMB),
	}
	if status.LastRun != nil {
		statistics["last_run"] = map[string]interface{}{
			"run_id":        status.LastRun.RunID,
			"files_indexed": status.LastRun.FilesIndexed,
			"files_skipped": status.LastRun.FilesSkipped,
			"files_failed":  status.LastRun.FilesFailed,
			"errors_found":  status.LastRun.ErrorsFound,
			"duration_ms":   status.LastRun.Duration().Milliseconds(),
		}
	}

	response := map[string]interface{}{
		"indexed": true,
		"project": map[string]interface{}{
			"path":            project.RootPath,
			"index_version":   project.IndexVersion,
			"last_indexed_at": project.LastIndexedAt.Format(time.RFC3339),
		},
		"statistics": statistics,
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"fts_indexes_built":   status.Health.FTSIndexesBuilt,
			"indexing":            s.indexer.Indexing() == project.RootPath,
		},
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// projectFor returns the stored project at path or a not-indexed error
func (s *Server) projectFor(ctx context.Context, path string) (*storage.Project, error) {
	project, err := s.storage.GetProject(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotIndexed, "project not indexed", map[string]interface{}{
			"path": path,
			"hint": "run index_project first",
		})
	}
	if err != nil {
		return nil, internalError("failed to get project", err)
	}
	return project, nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func internalError(message string, err error) error {
	return newMCPError(ErrorCodeInternalError, message, map[string]interface{}{
		"error": err.Error(),
	})
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// pathArgument extracts and validates the project path parameter
func pathArgument(args map[string]interface{}) (string, error) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(path); err != nil {
		code := ErrorCodeInvalidParams
		if errors.Is(err, ErrPathNotFound) {
			code = ErrorCodeProjectNotFound
		}
		return "", newMCPError(code, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}
	return filepath.Clean(path), nil
}

// sourceArgument returns the source parameter, or the content of the file
// parameter when source is absent
func sourceArgument(args map[string]interface{}) (string, error) {
	if source, ok := args["source"].(string); ok {
		return source, nil
	}

	file, ok := args["file"].(string)
	if !ok || file == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "source or file parameter is required", map[string]interface{}{
			"param":  "source",
			"reason": "missing",
		})
	}
	if !filepath.IsAbs(file) {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid file", map[string]interface{}{
			"param":  "file",
			"reason": ErrPathNotAbsolute.Error(),
		})
	}

	info, err := os.Stat(file)
	if err != nil || info.IsDir() {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid file", map[string]interface{}{
			"param":  "file",
			"reason": "not a readable file",
		})
	}
	if info.Size() > MaxSourceBytes {
		return "", newMCPError(ErrorCodeInvalidParams, "file too large", map[string]interface{}{
			"param": "file",
			"size":  info.Size(),
			"limit": MaxSourceBytes,
		})
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return "", internalError("failed to read file", err)
	}
	return string(content), nil
}

// parseFilters converts the optional filters object into storage filters
func parseFilters(args map[string]interface{}) (*storage.SearchFilters, error) {
	raw, ok := args["filters"].(map[string]interface{})
	if !ok {
		return nil, nil
	}

	filters := &storage.SearchFilters{
		Stereotypes: getStringSlice(raw, "stereotypes"),
		Packages:    getStringSlice(raw, "packages"),
		FilePattern: getStringDefault(raw, "file_pattern", ""),
	}
	for _, k := range getStringSlice(raw, "kinds") {
		kind := types.ElementKind(k)
		if !kind.Valid() {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid element kind", map[string]interface{}{
				"param":   "filters.kinds",
				"value":   k,
				"allowed": elementKinds,
			})
		}
		filters.Kinds = append(filters.Kinds, kind)
	}
	return filters, nil
}

// validatePath checks if a path exists and is an accessible directory
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	// Check if path is absolute
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	// Check if path exists
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	// Check if it's a directory
	if !info.IsDir() {
		return ErrNotDirectory
	}

	// Check if directory is readable
	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter, ignoring non-string items
func getStringSlice(args map[string]interface{}, key string) []string {
	switch val := args[key].(type) {
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
