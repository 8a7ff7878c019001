package diagnostics

import (
	"fmt"
	"strings"

	"github.com/dshills/tonto-mcp/pkg/types"
)

// Unexpected builds the syntax error for a token that cannot continue any
// derivation at the current parser state
func Unexpected(tok types.Token) types.ErrorRecord {
	return types.ErrorRecord{
		Line:       tok.Line,
		Column:     tok.Column,
		Kind:       types.ErrorSyntactic,
		Code:       types.CodeUnexpectedToken,
		TokenKind:  tok.Kind,
		Token:      tok.Lexeme,
		Message:    fmt.Sprintf("invalid syntax: unexpected token '%s' (kind: %s)", tok.Lexeme, tok.Kind),
		Suggestion: Suggestion(tok),
	}
}

// UnexpectedEOF builds the syntax error for input ending inside an open construct
func UnexpectedEOF(line, col int) types.ErrorRecord {
	return types.ErrorRecord{
		Line:       line,
		Column:     col,
		Kind:       types.ErrorSyntactic,
		Code:       types.CodeUnexpectedEOF,
		TokenKind:  types.TokenEOF,
		Message:    "unexpected end of input",
		Suggestion: eofSuggestion,
	}
}

// InvalidModifiers builds the syntax error for a generalization-set modifier
// run that is not one of the allowed combinations. tok is the first modifier
// that makes the run invalid.
func InvalidModifiers(tok types.Token, written []string) types.ErrorRecord {
	return types.ErrorRecord{
		Line:      tok.Line,
		Column:    tok.Column,
		Kind:      types.ErrorSyntactic,
		Code:      types.CodeInvalidModifiers,
		TokenKind: tok.Kind,
		Token:     tok.Lexeme,
		Message: fmt.Sprintf("invalid syntax: genset modifiers '%s' cannot be combined",
			strings.Join(written, " ")),
		Suggestion: "Use a single modifier, or one of the pairs:\n" +
			"  - disjoint complete\n" +
			"  - overlapping incomplete",
	}
}

// InvalidIdentifier builds the lexical error recorded when the parser accepts
// an invalid-shape identifier in place of its valid counterpart
func InvalidIdentifier(tok types.Token, note string) types.ErrorRecord {
	return types.ErrorRecord{
		Line:       tok.Line,
		Column:     tok.Column,
		Kind:       types.ErrorLexical,
		Code:       types.CodeInvalidIdentifier,
		TokenKind:  tok.Kind,
		Token:      tok.Lexeme,
		Message:    note,
		Suggestion: Suggestion(tok),
	}
}

// Suggestion returns the corrective guidance for an unexpected token, or a
// generic hint naming its kind and value
func Suggestion(tok types.Token) string {
	if tok.IsEOF() {
		return eofSuggestion
	}
	tmpl, ok := suggestions[tok.Kind]
	if !ok {
		tmpl = genericSuggestion
	}
	return strings.NewReplacer(
		"{token}", tok.Lexeme,
		"{stem}", strings.TrimRight(tok.Lexeme, "0123456789"),
		"{kind}", string(tok.Kind),
	).Replace(tmpl)
}
