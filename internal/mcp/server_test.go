package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/tonto-mcp/internal/config"
)

const peopleSource = `package People

kind Person {
  name : string
}

role Driver specializes Person
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "db", "index.db")

	s, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// decodeResult unmarshals the JSON text content of a tool result
func decodeResult(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func requireMCPError(t *testing.T, err error, code int) *MCPError {
	t.Helper()
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, code, mcpErr.Code, mcpErr.Message)
	return mcpErr
}

func TestServer_Initialization(t *testing.T) {
	s := newTestServer(t)
	assert.NotNil(t, s.mcp, "MCP server should be initialized")
	assert.NotNil(t, s.storage, "Storage should be initialized")
	assert.NotNil(t, s.indexer, "Indexer should be initialized")
	assert.NotNil(t, s.searcher, "Searcher should be initialized")
	assert.Equal(t, []string{"**/*.tonto"}, s.indexConfig.Include)
}

func TestTokenizeSource(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	t.Run("source", func(t *testing.T) {
		result, err := s.handleTokenizeSource(ctx, callTool("tokenize_source", map[string]interface{}{
			"source": "kind Person",
		}))
		require.NoError(t, err)
		out := decodeResult(t, result)
		assert.Equal(t, true, out["valid"])
		tokens := out["tokens"].([]interface{})
		require.NotEmpty(t, tokens)
		first := tokens[0].(map[string]interface{})
		assert.Equal(t, "kind", first["lexeme"])
	})

	t.Run("file", func(t *testing.T) {
		dir := newProject(t, map[string]string{"a.tonto": "kind Person$"})
		result, err := s.handleTokenizeSource(ctx, callTool("tokenize_source", map[string]interface{}{
			"file": filepath.Join(dir, "a.tonto"),
		}))
		require.NoError(t, err)
		out := decodeResult(t, result)
		assert.Equal(t, false, out["valid"])
		assert.NotEmpty(t, out["errors"])
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := s.handleTokenizeSource(ctx, callTool("tokenize_source", map[string]interface{}{}))
		requireMCPError(t, err, ErrorCodeInvalidParams)
	})

	t.Run("relative file", func(t *testing.T) {
		_, err := s.handleTokenizeSource(ctx, callTool("tokenize_source", map[string]interface{}{"file": "a.tonto"}))
		requireMCPError(t, err, ErrorCodeInvalidParams)
	})

	t.Run("arguments not an object", func(t *testing.T) {
		req := callTool("tokenize_source", nil)
		req.Params.Arguments = "kind Person"
		_, err := s.handleTokenizeSource(ctx, req)
		requireMCPError(t, err, ErrorCodeInvalidParams)
	})
}

func TestParseSource(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		result, err := s.handleParseSource(ctx, callTool("parse_source", map[string]interface{}{
			"source": peopleSource,
		}))
		require.NoError(t, err)
		out := decodeResult(t, result)
		assert.Equal(t, true, out["valid"])
		assert.NotContains(t, out, "tokens")

		summary := out["summary"].(map[string]interface{})
		classes := summary["classes"].([]interface{})
		require.Len(t, classes, 2)
		assert.Equal(t, "Driver", classes[1].(map[string]interface{})["name"])
	})

	t.Run("syntax errors", func(t *testing.T) {
		result, err := s.handleParseSource(ctx, callTool("parse_source", map[string]interface{}{
			"source":         "package P\nkind Person { weight : }",
			"include_tokens": true,
		}))
		require.NoError(t, err)
		out := decodeResult(t, result)
		assert.Equal(t, false, out["valid"])
		assert.Contains(t, out, "tokens")

		errs := out["syntax_errors"].([]interface{})
		require.NotEmpty(t, errs)
		first := errs[0].(map[string]interface{})
		assert.Equal(t, "}", first["token"])
		assert.NotEmpty(t, first["suggestion"])
	})
}

func TestIndexSearchStatus(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	dir := newProject(t, map[string]string{
		"people.tonto":        peopleSource,
		"broken/broken.tonto": "package Broken\nkind Car { wheels : }\n",
		"drafts/skip.tonto":   "package Skip\nkind Skipped\n",
	})

	// status before indexing
	result, err := s.handleGetStatus(ctx, callTool("get_status", map[string]interface{}{"path": dir}))
	require.NoError(t, err)
	assert.Equal(t, false, decodeResult(t, result)["indexed"])

	_, err = s.handleSearchElements(ctx, callTool("search_elements", map[string]interface{}{
		"path": dir, "query": "person",
	}))
	requireMCPError(t, err, ErrorCodeNotIndexed)

	// index
	result, err = s.handleIndexProject(ctx, callTool("index_project", map[string]interface{}{
		"path":    dir,
		"exclude": []interface{}{"drafts/**"},
	}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, float64(2), out["files_indexed"])
	assert.GreaterOrEqual(t, out["syntax_errors"], float64(1))

	// search
	result, err = s.handleSearchElements(ctx, callTool("search_elements", map[string]interface{}{
		"path":  dir,
		"query": "person",
		"filters": map[string]interface{}{
			"kinds":       []interface{}{"class"},
			"stereotypes": []interface{}{"role"},
		},
	}))
	require.NoError(t, err)
	out = decodeResult(t, result)
	results := out["results"].([]interface{})
	require.Len(t, results, 1)
	hit := results[0].(map[string]interface{})
	assert.Equal(t, "Driver", hit["name"])
	assert.Equal(t, "people.tonto", hit["file"])
	assert.Equal(t, float64(7), hit["line"])

	result, err = s.handleSearchElements(ctx, callTool("search_elements", map[string]interface{}{
		"path": dir, "query": "skipped",
	}))
	require.NoError(t, err)
	assert.Empty(t, decodeResult(t, result)["results"])

	// diagnostics
	result, err = s.handleGetDiagnostics(ctx, callTool("get_diagnostics", map[string]interface{}{"path": dir}))
	require.NoError(t, err)
	out = decodeResult(t, result)
	files := out["files"].([]interface{})
	require.Len(t, files, 1)
	assert.Equal(t, "broken/broken.tonto", files[0].(map[string]interface{})["file"])

	_, err = s.handleGetDiagnostics(ctx, callTool("get_diagnostics", map[string]interface{}{
		"path": dir, "file": "nope.tonto",
	}))
	requireMCPError(t, err, ErrorCodeInvalidParams)

	// status
	result, err = s.handleGetStatus(ctx, callTool("get_status", map[string]interface{}{"path": dir}))
	require.NoError(t, err)
	out = decodeResult(t, result)
	assert.Equal(t, true, out["indexed"])
	stats := out["statistics"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["files_count"])
	assert.Equal(t, float64(1), stats["files_with_errors"])
	assert.Contains(t, stats, "last_run")
}

func TestSearchElements_Validation(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	dir := newProject(t, nil)

	tests := []struct {
		name string
		args map[string]interface{}
		code int
	}{
		{"missing query", map[string]interface{}{"path": dir}, ErrorCodeEmptyQuery},
		{"missing path", map[string]interface{}{"query": "x"}, ErrorCodeInvalidParams},
		{"relative path", map[string]interface{}{"path": "rel", "query": "x"}, ErrorCodeInvalidParams},
		{"absent path", map[string]interface{}{"path": filepath.Join(dir, "absent"), "query": "x"}, ErrorCodeProjectNotFound},
		{"limit too high", map[string]interface{}{"path": dir, "query": "x", "limit": float64(500)}, ErrorCodeInvalidParams},
		{"bad kind", map[string]interface{}{"path": dir, "query": "x", "filters": map[string]interface{}{"kinds": []interface{}{"struct"}}}, ErrorCodeInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.handleSearchElements(ctx, callTool("search_elements", tt.args))
			requireMCPError(t, err, tt.code)
		})
	}
}

func TestIndexProject_Errors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	dir := newProject(t, nil)

	_, err := s.handleIndexProject(ctx, callTool("index_project", map[string]interface{}{
		"path": dir, "include": []interface{}{"[a-"},
	}))
	requireMCPError(t, err, ErrorCodeInvalidParams)

	file := filepath.Join(dir, "f.tonto")
	require.NoError(t, os.WriteFile(file, []byte("package F"), 0o644))
	_, err = s.handleIndexProject(ctx, callTool("index_project", map[string]interface{}{"path": file}))
	requireMCPError(t, err, ErrorCodeInvalidParams)
}

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.tonto")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.NoError(t, validatePath(dir))
	assert.ErrorIs(t, validatePath(""), ErrPathRequired)
	assert.ErrorIs(t, validatePath("relative/dir"), ErrPathNotAbsolute)
	assert.ErrorIs(t, validatePath(filepath.Join(dir, "absent")), ErrPathNotFound)
	assert.ErrorIs(t, validatePath(file), ErrNotDirectory)
}

func TestArgumentHelpers(t *testing.T) {
	args := map[string]interface{}{
		"flag":  true,
		"count": float64(3),
		"name":  "x",
		"list":  []interface{}{"a", 1, "", "b"},
	}
	assert.True(t, getBoolDefault(args, "flag", false))
	assert.False(t, getBoolDefault(args, "missing", false))
	assert.Equal(t, 3, getIntDefault(args, "count", 10))
	assert.Equal(t, 10, getIntDefault(args, "missing", 10))
	assert.Equal(t, "x", getStringDefault(args, "name", ""))
	assert.Equal(t, []string{"a", "b"}, getStringSlice(args, "list"))
	assert.Nil(t, getStringSlice(args, "missing"))
}
