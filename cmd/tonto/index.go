package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/tonto-mcp/internal/indexer"
	"github.com/dshills/tonto-mcp/internal/searcher"
	"github.com/dshills/tonto-mcp/internal/storage"
	"github.com/dshills/tonto-mcp/internal/watcher"
	"github.com/dshills/tonto-mcp/pkg/types"
)

// openStore opens the index database named by the configuration, creating
// its directory when needed
func (a *app) openStore() (storage.Storage, error) {
	if a.cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(a.cfg.DBPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	store, err := storage.NewSQLiteStorage(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return store, nil
}

func (a *app) indexConfig() *indexer.Config {
	return &indexer.Config{
		Workers:   a.cfg.Workers,
		BatchSize: a.cfg.BatchSize,
		Include:   a.cfg.Include,
		Exclude:   a.cfg.Exclude,
	}
}

// projectRoot resolves a directory argument to the absolute path the index
// is keyed by
func projectRoot(dir string) (string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", root)
	}
	return root, nil
}

func indexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index DIR",
		Short: "Index the ontology sources of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := projectRoot(args[0])
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := indexer.New(store, indexer.WithLogger(a.logger)).IndexProject(cmd.Context(), root, a.indexConfig())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Indexed %s (run %s)\n", root, stats.RunID)
			fmt.Fprintf(out, "  files:    %d indexed, %d unchanged, %d failed, %d removed\n",
				stats.FilesIndexed, stats.FilesSkipped, stats.FilesFailed, stats.FilesRemoved)
			fmt.Fprintf(out, "  elements: %d\n", stats.ElementsExtracted)
			fmt.Fprintf(out, "  errors:   %d lexical, %d syntax\n", stats.LexicalErrors, stats.SyntaxErrors)
			fmt.Fprintf(out, "  took:     %s\n", stats.Duration)
			for _, msg := range stats.ErrorMessages {
				fmt.Fprintf(out, "  ! %s\n", msg)
			}
			return nil
		},
	}
}

func searchCmd(a *app) *cobra.Command {
	var (
		kinds       []string
		stereotypes []string
		packages    []string
		filePattern string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "search DIR QUERY",
		Short: "Search the elements of an indexed project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			project, err := store.GetProject(cmd.Context(), root)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%s is not indexed; run tonto index first", root)
			}
			if err != nil {
				return err
			}

			filters := &storage.SearchFilters{
				Stereotypes: stereotypes,
				Packages:    packages,
				FilePattern: filePattern,
			}
			for _, k := range kinds {
				filters.Kinds = append(filters.Kinds, types.ElementKind(k))
			}

			resp, err := searcher.NewSearcher(store).Search(cmd.Context(), searcher.SearchRequest{
				ProjectID: project.ID,
				Query:     args[1],
				Limit:     limit,
				Filters:   filters,
			})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, r := range resp.Results {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s:%d\t%s\n", r.Rank, r.Kind, r.Name, r.File.Path, r.File.Line, r.Detail)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			a.logger.Debug("Search finished", "results", resp.TotalResults, "duration", resp.Duration)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "Only return elements of these kinds")
	cmd.Flags().StringSliceVar(&stereotypes, "stereotype", nil, "Only return elements with these stereotypes")
	cmd.Flags().StringSliceVar(&packages, "package", nil, "Only return elements declared in these packages")
	cmd.Flags().StringVar(&filePattern, "file", "", "Only return elements from files matching this glob")
	cmd.Flags().IntVar(&limit, "limit", searcher.DefaultLimit, "Maximum number of results")
	return cmd
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status DIR",
		Short: "Show index statistics for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			project, err := store.GetProject(cmd.Context(), root)
			if errors.Is(err, storage.ErrNotFound) {
				fmt.Fprintf(out, "%s is not indexed\n", root)
				return nil
			}
			if err != nil {
				return err
			}
			status, err := store.GetStatus(cmd.Context(), project.ID)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Project:      %s\n", project.RootPath)
			fmt.Fprintf(out, "Indexed at:   %s\n", project.LastIndexedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Files:        %d (%d with errors)\n", status.FilesCount, status.FilesWithErrors)
			fmt.Fprintf(out, "Elements:     %d\n", status.ElementsCount)
			for _, kind := range types.ElementKinds {
				if n := status.ElementsByKind[kind]; n > 0 {
					fmt.Fprintf(out, "  %-12s%d\n", kind, n)
				}
			}
			fmt.Fprintf(out, "Diagnostics:  %d\n", status.DiagnosticsCount)
			fmt.Fprintf(out, "Index size:   %.2f MB\n", status.IndexSizeMB)
			if run := status.LastRun; run != nil {
				fmt.Fprintf(out, "Last run:     %s (%d indexed, %d unchanged, %d failed, %s)\n",
					run.RunID, run.FilesIndexed, run.FilesSkipped, run.FilesFailed, run.Duration())
			}
			return nil
		},
	}
}

func watchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch DIR",
		Short: "Index a project and re-index its sources as they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := projectRoot(args[0])
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			idx := indexer.New(store, indexer.WithLogger(a.logger))
			return a.watch(ctx, idx, root, nil)
		},
	}
}

// watch indexes root once and then keeps it current until ctx ends. Each
// processed change is logged and passed to onChange when it is not nil.
func (a *app) watch(ctx context.Context, idx *indexer.Indexer, root string, onChange func(watcher.Event)) error {
	config := a.indexConfig()
	stats, err := idx.IndexProject(ctx, root, config)
	if err != nil {
		return err
	}
	a.logger.Info("Initial index complete",
		"root", root,
		"files", stats.FilesIndexed+stats.FilesSkipped,
		"elements", stats.ElementsExtracted)

	w, err := watcher.New(idx, watcher.Config{
		Root:     root,
		Debounce: a.cfg.Debounce(),
		Index:    config,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	a.logger.Info("Watching for changes", "root", root)
	for ev := range w.Events() {
		switch {
		case ev.Err != nil:
			a.logger.Error("Failed to update index", "file", ev.Path, "op", ev.Op, "error", ev.Err)
		case ev.Analysis != nil:
			a.logger.Info("Re-indexed", "file", ev.Path, "op", ev.Op,
				"elements", ev.Analysis.Summary.ElementCount(),
				"errors", ev.Analysis.ErrorCount())
			for _, r := range append(ev.Analysis.LexicalErrors, ev.Analysis.SyntaxErrors...) {
				a.logger.Warn("Diagnostic", "file", ev.Path, "line", r.Line, "column", r.Column, "message", r.Message)
			}
		default:
			a.logger.Info("Removed from index", "file", ev.Path)
		}
		if onChange != nil {
			onChange(ev)
		}
	}
	return nil
}
