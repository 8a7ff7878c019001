// Package mcp implements the Model Context Protocol (MCP) server for tonto.
//
// The server exposes six tools to AI assistants:
//   - tokenize_source: classified tokens and lexical errors of a text or file
//   - parse_source: structural summary, syntax errors and fix suggestions
//   - index_project: analyze and store every .tonto file under a directory
//   - search_elements: keyword search over indexed elements
//   - get_diagnostics: stored errors of an indexed project
//   - get_status: indexing status and statistics
//
// MCP is JSON-RPC 2.0 over stdio, so nothing but protocol messages may be
// written to stdout. Logs go to stderr.
//
// # Tool: parse_source
//
//	Request:
//	{
//	  "name": "parse_source",
//	  "arguments": {
//	    "source": "package P\nkind Person { name : string }"
//	  }
//	}
//
//	Response:
//	{
//	  "valid": true,
//	  "element_count": 3,
//	  "summary": {"packages": [...], "classes": [...], "attributes": [...]},
//	  "syntax_errors": [],
//	  "lexical_errors": []
//	}
//
// Malformed source is not a protocol error. A text with syntax errors
// returns "valid": false and one record per error, each with line, column,
// the offending token and a suggestion.
//
// # Tool: search_elements
//
//	{
//	  "name": "search_elements",
//	  "arguments": {
//	    "path": "/path/to/project",
//	    "query": "person",
//	    "filters": {"kinds": ["class"], "stereotypes": ["role"]}
//	  }
//	}
//
// # Client Configuration
//
//	{
//	  "mcpServers": {
//	    "tonto": {
//	      "command": "/usr/local/bin/tonto",
//	      "args": ["serve"]
//	    }
//	  }
//	}
//
// # Error Handling
//
// Tool failures carry JSON-RPC error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, filesystem, etc.)
//   - -32001: Project path not found
//   - -32002: Indexing in progress
//   - -32003: Project not indexed
//   - -32004: Empty query
package mcp
