// Package analyzer bundles tokenizing and parsing of one source text.
//
// An Analyzer remembers the summary of its last parse, so it serves one
// caller at a time. Concurrent callers use separate instances:
//
//	a := analyzer.New()
//	analysis := a.Analyze(src)
//	fmt.Println(analysis.ErrorCount(), len(a.Summary().Classes))
package analyzer

import (
	"github.com/dshills/tonto-mcp/internal/lexer"
	"github.com/dshills/tonto-mcp/internal/parser"
	"github.com/dshills/tonto-mcp/pkg/types"
)

// Analyzer runs the lexer and parser over source text
type Analyzer struct {
	parser *parser.Parser
	last   *types.Summary
}

// New creates a new Analyzer
func New() *Analyzer {
	return &Analyzer{parser: parser.New()}
}

// Tokenize returns the classified token stream of source and its lexical errors
func (a *Analyzer) Tokenize(source string) *types.TokenizeResult {
	tokens, errs := lexer.Tokenize(source)
	if errs == nil {
		errs = []types.ErrorRecord{}
	}
	return &types.TokenizeResult{
		Tokens: lexer.Describe(tokens),
		Errors: errs,
	}
}

// Parse parses source and remembers its summary
func (a *Analyzer) Parse(source string) *types.ParseResult {
	result := a.parser.Parse(source)
	a.last = result.Summary
	return result
}

// Summary returns the structural summary of the last Parse or Analyze call,
// or an empty summary before the first one
func (a *Analyzer) Summary() *types.Summary {
	if a.last == nil {
		return &types.Summary{}
	}
	return a.last
}

// Analyze tokenizes and parses source, returning tokens, diagnostics and summary
func (a *Analyzer) Analyze(source string) *types.Analysis {
	tokens, _ := lexer.Tokenize(source)
	result := a.Parse(source)

	syntax := result.Errors
	if syntax == nil {
		syntax = []types.ErrorRecord{}
	}
	lexical := result.LexicalErrors
	if lexical == nil {
		lexical = []types.ErrorRecord{}
	}
	return &types.Analysis{
		Tokens:        lexer.Describe(tokens),
		LexicalErrors: lexical,
		SyntaxErrors:  syntax,
		Summary:       result.Summary,
		Defects:       result.Defects,
	}
}
