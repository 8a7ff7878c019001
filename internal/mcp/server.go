package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/tonto-mcp/internal/config"
	"github.com/dshills/tonto-mcp/internal/indexer"
	"github.com/dshills/tonto-mcp/internal/metrics"
	"github.com/dshills/tonto-mcp/internal/searcher"
	"github.com/dshills/tonto-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "tonto-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp         *server.MCPServer
	storage     storage.Storage
	indexer     *indexer.Indexer
	searcher    *searcher.Searcher
	metrics     *metrics.Collector
	logger      *slog.Logger
	indexConfig *indexer.Config
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger; slog.Default() is used otherwise
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics records analysis, indexing and search metrics on c
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// NewServer opens the index database named by cfg and creates a new MCP
// server instance over it
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	s := &Server{
		storage: store,
		logger:  slog.Default(),
		indexConfig: &indexer.Config{
			Workers:   cfg.Workers,
			BatchSize: cfg.BatchSize,
			Include:   cfg.Include,
			Exclude:   cfg.Exclude,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.indexer = indexer.New(store, indexer.WithMetrics(s.metrics), indexer.WithLogger(s.logger))
	s.searcher = searcher.NewSearcher(store, searcher.WithMetrics(s.metrics), searcher.WithCacheSize(cfg.CacheSize))

	s.mcp = server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
	)
	s.registerTools()

	return s, nil
}

// Serve runs the MCP protocol on stdin and stdout until ctx is done or
// stdin is closed
func (s *Server) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcp)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// Close releases the index database
func (s *Server) Close() error {
	return s.storage.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(tokenizeSourceTool(), s.handleTokenizeSource)
	s.mcp.AddTool(parseSourceTool(), s.handleParseSource)
	s.mcp.AddTool(indexProjectTool(), s.handleIndexProject)
	s.mcp.AddTool(searchElementsTool(), s.handleSearchElements)
	s.mcp.AddTool(getDiagnosticsTool(), s.handleGetDiagnostics)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
