package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/tonto-mcp/pkg/types"
)

var elementKinds = func() []string {
	kinds := make([]string, len(types.ElementKinds))
	for i, k := range types.ElementKinds {
		kinds[i] = string(k)
	}
	return kinds
}()

// sourceProperties are shared by the tools that analyze one text
func sourceProperties() map[string]interface{} {
	return map[string]interface{}{
		"source": map[string]interface{}{
			"type":        "string",
			"description": "TONTO source text to analyze",
		},
		"file": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to a .tonto file, used when source is not given",
		},
	}
}

// tokenizeSourceTool returns the tool definition for tokenize_source
func tokenizeSourceTool() mcp.Tool {
	return mcp.Tool{
		Name:        "tokenize_source",
		Description: "Split TONTO source into classified tokens and report lexical errors",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: sourceProperties(),
		},
	}
}

// parseSourceTool returns the tool definition for parse_source
func parseSourceTool() mcp.Tool {
	props := sourceProperties()
	props["include_tokens"] = map[string]interface{}{
		"type":        "boolean",
		"description": "If true, also return the classified token stream",
		"default":     false,
	}
	return mcp.Tool{
		Name:        "parse_source",
		Description: "Parse TONTO source and return its structural summary with syntax errors and fix suggestions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
		},
	}
}

// indexProjectTool returns the tool definition for index_project
func indexProjectTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_project",
		Description: "Analyze every .tonto file under a directory and store its elements and diagnostics",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the project root",
				},
				"include": map[string]interface{}{
					"type":        "array",
					"description": "Glob patterns of files to analyze, relative to the root (default **/*.tonto)",
					"items":       map[string]interface{}{"type": "string"},
				},
				"exclude": map[string]interface{}{
					"type":        "array",
					"description": "Glob patterns of files to skip, relative to the root",
					"items":       map[string]interface{}{"type": "string"},
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchElementsTool returns the tool definition for search_elements
func searchElementsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_elements",
		Description: "Search the indexed classes, relations, attributes and other elements of a project by keyword",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an indexed project",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Keywords; every term must match and terms match as prefixes",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"filters": map[string]interface{}{
					"type":        "object",
					"description": "Optional filters to narrow search",
					"properties": map[string]interface{}{
						"kinds": map[string]interface{}{
							"type":        "array",
							"description": "Filter by element kind",
							"items": map[string]interface{}{
								"type": "string",
								"enum": elementKinds,
							},
						},
						"stereotypes": map[string]interface{}{
							"type":        "array",
							"description": "Filter by class or relation stereotype (kind, role, mediation, ...)",
							"items":       map[string]interface{}{"type": "string"},
						},
						"packages": map[string]interface{}{
							"type":        "array",
							"description": "Filter by enclosing package name",
							"items":       map[string]interface{}{"type": "string"},
						},
						"file_pattern": map[string]interface{}{
							"type":        "string",
							"description": "Glob pattern for file paths (e.g., 'models/*')",
						},
					},
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// getDiagnosticsTool returns the tool definition for get_diagnostics
func getDiagnosticsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_diagnostics",
		Description: "List the stored lexical and syntax errors of an indexed project",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an indexed project",
				},
				"file": map[string]interface{}{
					"type":        "string",
					"description": "Only report this file, relative to the project root",
				},
			},
			Required: []string{"path"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query indexing status and statistics for a project",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the project root",
				},
			},
			Required: []string{"path"},
		},
	}
}
