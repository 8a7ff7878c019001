package types

import (
	"fmt"
	"strings"
)

// ErrorKind separates lexical from syntactic diagnostics
type ErrorKind string

const (
	ErrorLexical   ErrorKind = "lexical"
	ErrorSyntactic ErrorKind = "syntactic"
)

// ErrorCode identifies the specific diagnostic
type ErrorCode string

const (
	CodeInvalidCharacter  ErrorCode = "invalid_character"
	CodeInvalidIdentifier ErrorCode = "invalid_identifier"
	CodeInvalidInteger    ErrorCode = "invalid_integer"
	CodeUnexpectedToken   ErrorCode = "unexpected_token"
	CodeUnexpectedEOF     ErrorCode = "unexpected_eof"
	CodeInvalidModifiers  ErrorCode = "invalid_modifiers"
)

// ErrorRecord is a user-facing diagnostic produced by the tokenizer or parser.
// Records are accumulated, never raised.
type ErrorRecord struct {
	Line       int       `json:"line"`
	Column     int       `json:"column"`
	Kind       ErrorKind `json:"kind"`
	Code       ErrorCode `json:"code"`
	TokenKind  TokenKind `json:"token_kind,omitempty"`
	Token      string    `json:"token"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
}

// Error implements the error interface
func (e ErrorRecord) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Summary is the structural summary of one parse, grouped by kind and
// ordered by appearance.
type Summary struct {
	Imports            []*Import            `json:"imports"`
	Packages           []*Package           `json:"packages"`
	Classes            []*Class             `json:"classes"`
	DataTypes          []*DataType          `json:"datatypes"`
	Enums              []*Enum              `json:"enums"`
	GeneralizationSets []*GeneralizationSet `json:"gensets"`
	Relations          []*Relation          `json:"relations"`
	Attributes         []*Attribute         `json:"attributes"`
	TotalErrors        int                  `json:"total_errors"`
}

// FindClass returns the first class with the given name, or nil
func (s *Summary) FindClass(name string) *Class {
	for _, c := range s.Classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ElementCount returns the number of structural entities in the summary
func (s *Summary) ElementCount() int {
	return len(s.Imports) + len(s.Packages) + len(s.Classes) + len(s.DataTypes) +
		len(s.Enums) + len(s.GeneralizationSets) + len(s.Relations) + len(s.Attributes)
}

// ParseResult is the output of one parse call. It is a fresh value owned by the caller.
type ParseResult struct {
	Summary *Summary `json:"summary"`

	// Syntax errors in order of discovery
	Errors []ErrorRecord `json:"errors"`

	// Lexical errors: tokenizer errors plus degraded identifier acceptances
	LexicalErrors []ErrorRecord `json:"lexical_errors"`

	// Internal grammar defects, never caused by user input alone
	Defects []string `json:"defects,omitempty"`
}

// HasErrors returns true if any lexical or syntax errors were recorded
func (pr *ParseResult) HasErrors() bool {
	return len(pr.Errors) > 0 || len(pr.LexicalErrors) > 0
}

// AllErrors returns lexical then syntax errors
func (pr *ParseResult) AllErrors() []ErrorRecord {
	all := make([]ErrorRecord, 0, len(pr.LexicalErrors)+len(pr.Errors))
	all = append(all, pr.LexicalErrors...)
	return append(all, pr.Errors...)
}

// DefectError returns nil, or an error wrapping ErrGrammarDefect listing every defect
func (pr *ParseResult) DefectError() error {
	if len(pr.Defects) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrGrammarDefect, strings.Join(pr.Defects, "; "))
}

// TokenizeResult is the output of one tokenize call with display information
type TokenizeResult struct {
	Tokens []TokenInfo   `json:"tokens"`
	Errors []ErrorRecord `json:"errors"`
}

// Analysis bundles the token stream and parse output for one source text
type Analysis struct {
	Tokens        []TokenInfo   `json:"tokens"`
	LexicalErrors []ErrorRecord `json:"lexical_errors"`
	SyntaxErrors  []ErrorRecord `json:"syntax_errors"`
	Summary       *Summary      `json:"summary"`
	Defects       []string      `json:"defects,omitempty"`
}

// ErrorCount returns the number of lexical and syntax errors
func (a *Analysis) ErrorCount() int {
	return len(a.LexicalErrors) + len(a.SyntaxErrors)
}
