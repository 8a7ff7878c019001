package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/tonto-mcp/internal/analyzer"
	"github.com/dshills/tonto-mcp/internal/indexer"
	"github.com/dshills/tonto-mcp/pkg/types"
)

func tokenizeCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tokenize FILE",
		Short: "Print the token stream of a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args[0])
			if err != nil {
				return err
			}
			result := analyzer.New().Tokenize(source)

			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, result); err != nil {
					return err
				}
			} else {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "LINE:COL\tKIND\tLEXEME\tCATEGORY\tNOTE")
				for _, t := range result.Tokens {
					fmt.Fprintf(tw, "%d:%d\t%s\t%s\t%s\t%s\n", t.Line, t.Column, t.Kind, t.Lexeme, t.Category, t.Notification)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				printErrors(out, args[0], result.Errors)
			}

			if len(result.Errors) > 0 {
				return errFoundErrors
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print tokens and errors as JSON")
	return cmd
}

func parseCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse a source file and print its structural summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args[0])
			if err != nil {
				return err
			}
			analysis := analyzer.New().Analyze(source)
			if len(analysis.Defects) > 0 {
				a.logger.Error("Parser defect", "file", args[0], "defects", analysis.Defects)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, analysis); err != nil {
					return err
				}
			} else {
				printSummary(out, analysis.Summary)
				printErrors(out, args[0], analysis.LexicalErrors)
				printErrors(out, args[0], analysis.SyntaxErrors)
			}

			if analysis.ErrorCount() > 0 {
				return errFoundErrors
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full analysis as JSON")
	return cmd
}

func readSource(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	return string(content), nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printErrors writes one compiler-style line per record, followed by the
// suggestion when there is one
func printErrors(w io.Writer, file string, records []types.ErrorRecord) {
	for _, r := range records {
		fmt.Fprintf(w, "%s:%s [%s]\n", file, r.Error(), r.Code)
		if r.Suggestion != "" {
			fmt.Fprintf(w, "\t%s\n", r.Suggestion)
		}
	}
}

func printSummary(w io.Writer, s *types.Summary) {
	for _, imp := range s.Imports {
		fmt.Fprintf(w, "import %s\n", imp.Module)
	}
	for _, p := range s.Packages {
		fmt.Fprintf(w, "package %s\n", p.Name)
	}
	for _, c := range s.Classes {
		fmt.Fprintf(w, "  %-10s %s", c.Stereotype, c.Name)
		if len(c.Parents) > 0 {
			fmt.Fprintf(w, " specializes %v", c.Parents)
		}
		fmt.Fprintln(w)
	}
	for _, d := range s.DataTypes {
		fmt.Fprintf(w, "  %-10s %s\n", "datatype", d.Name)
	}
	for _, e := range s.Enums {
		fmt.Fprintf(w, "  %-10s %s %v\n", "enum", e.Name, e.Instances)
	}
	for _, g := range s.GeneralizationSets {
		fmt.Fprintf(w, "  %-10s %s general %s specifics %v\n", "genset", g.Name, g.General, g.Specifics)
	}
	for _, r := range s.Relations {
		fmt.Fprintf(w, "  %-10s %s (%s)\n", "relation", indexer.RelationDetail(r), r.Form)
	}
	fmt.Fprintf(w, "%d elements, %d errors\n", s.ElementCount(), s.TotalErrors)
}
