// Package main provides the tonto binary: a command line front end for
// tokenizing, parsing and indexing TONTO ontology sources, and for serving
// the same operations over MCP stdio and HTTP.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/dshills/tonto-mcp/internal/config"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// errFoundErrors makes the process exit with status 1 without printing an
// extra message; the analysis output already reported the problems.
var errFoundErrors = errors.New("source has errors")

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		if !errors.Is(err, errFoundErrors) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app carries the state shared by all subcommands once the root command has
// loaded the configuration
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func rootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "tonto",
		Short: "TONTO ontology language tools",
		Long: `tonto tokenizes and parses TONTO ontology sources, reporting lexical and
syntax errors with suggestions, and keeps a searchable index of the
elements declared in a project.

The index and analysis operations are also served over MCP (stdio) and HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		tokenizeCmd(a),
		parseCmd(a),
		indexCmd(a),
		searchCmd(a),
		statusCmd(a),
		watchCmd(a),
		serveCmd(a),
		serveHTTPCmd(a),
		versionCmd(),
	)
	return cmd
}

// setup loads the configuration and installs the logger. Logs always go to
// stderr since stdout carries command output or the MCP protocol.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("log-level") {
		if _, err := config.ParseLevel(a.logLevel); err != nil {
			return err
		}
		cfg.LogLevel = a.logLevel
	}

	a.cfg = cfg
	a.logger = cfg.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(a.logger)
	return nil
}
