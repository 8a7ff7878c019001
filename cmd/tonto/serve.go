package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/dshills/tonto-mcp/internal/httpapi"
	"github.com/dshills/tonto-mcp/internal/indexer"
	"github.com/dshills/tonto-mcp/internal/mcp"
	"github.com/dshills/tonto-mcp/internal/metrics"
	"github.com/dshills/tonto-mcp/internal/searcher"
	"github.com/dshills/tonto-mcp/internal/storage"
	"github.com/dshills/tonto-mcp/internal/watcher"
)

const shutdownTimeout = 30 * time.Second

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis and index tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.logger.Info("Tonto MCP server starting",
				"version", version,
				"build_mode", storage.BuildMode,
				"driver", storage.DriverName,
				"db_path", a.cfg.DBPath)

			collector, err := metrics.New(prometheus.NewRegistry())
			if err != nil {
				return err
			}
			server, err := mcp.NewServer(a.cfg, mcp.WithLogger(a.logger), mcp.WithMetrics(collector))
			if err != nil {
				return fmt.Errorf("create MCP server: %w", err)
			}
			defer server.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("MCP server ready, listening on stdio")
			if err := server.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("server error: %w", err)
			}
			a.logger.Info("Server stopped")
			return nil
		},
	}
}

func serveHTTPCmd(a *app) *cobra.Command {
	var (
		addr     string
		watchDir string
	)

	cmd := &cobra.Command{
		Use:   "serve-http",
		Short: "Serve the analysis and search endpoints over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.HTTPAddr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			collector, err := metrics.New(reg)
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			search := searcher.NewSearcher(store,
				searcher.WithMetrics(collector),
				searcher.WithCacheSize(a.cfg.CacheSize))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			watchErrors := make(chan error, 1)
			if watchDir != "" {
				root, err := projectRoot(watchDir)
				if err != nil {
					return err
				}
				idx := indexer.New(store, indexer.WithLogger(a.logger), indexer.WithMetrics(collector))
				go func() {
					watchErrors <- a.watch(ctx, idx, root, func(watcher.Event) {
						search.InvalidateCache()
					})
				}()
			}

			srv := &http.Server{
				Addr: addr,
				Handler: httpapi.NewServer(httpapi.Config{
					Logger:   a.logger,
					Metrics:  collector,
					Gatherer: reg,
					Store:    store,
					Searcher: search,
				}),
				ReadTimeout:       15 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       120 * time.Second,
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErrors := make(chan error, 1)
			go func() {
				a.logger.Info("HTTP server starting", "addr", addr)
				serverErrors <- srv.ListenAndServe()
			}()

			select {
			case err := <-serverErrors:
				return fmt.Errorf("server error: %w", err)

			case err := <-watchErrors:
				if err != nil {
					_ = srv.Close()
					return fmt.Errorf("watch %s: %w", watchDir, err)
				}

			case <-ctx.Done():
				a.logger.Info("Shutdown started")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				_ = srv.Close()
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
			a.logger.Info("Server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&watchDir, "watch", "", "Index this project and keep it current while serving")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tonto version %s (build: %s)\n", version, buildTime)
			fmt.Fprintf(out, "Build Mode: %s\n", storage.BuildMode)
			fmt.Fprintf(out, "SQLite Driver: %s\n", storage.DriverName)
		},
	}
}
