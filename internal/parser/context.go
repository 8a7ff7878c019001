package parser

import (
	"fmt"

	"github.com/dshills/tonto-mcp/internal/diagnostics"
	"github.com/dshills/tonto-mcp/internal/lexer"
	"github.com/dshills/tonto-mcp/pkg/types"
)

// degradedOf maps each invalid-shape identifier kind to the kind it may stand in for
var degradedOf = map[types.TokenKind]types.TokenKind{
	types.TokenInvalidClassName:    types.TokenClassName,
	types.TokenInvalidRelationName: types.TokenRelationName,
	types.TokenInvalidInstanceName: types.TokenInstanceName,
	types.TokenInvalidDataType:     types.TokenCustomDataType,
}

// parseContext is the state of one parse call. It is created per call and
// threaded through every production; nothing in it outlives the call.
type parseContext struct {
	tokens []types.Token
	pos    int
	eof    types.Token

	summary *types.Summary
	errors  []types.ErrorRecord
	lexical []types.ErrorRecord
	defects []string

	eofReported   bool
	lastErrOffset int
}

func newParseContext(tokens []types.Token, eof types.Token) *parseContext {
	return &parseContext{
		tokens:        tokens,
		eof:           eof,
		summary:       &types.Summary{},
		lastErrOffset: -1,
	}
}

// cur returns the current token, or the EOF token past the end of input
func (c *parseContext) cur() types.Token {
	return c.peek(0)
}

func (c *parseContext) peek(n int) types.Token {
	if c.pos+n < len(c.tokens) {
		return c.tokens[c.pos+n]
	}
	return c.eof
}

func (c *parseContext) atEOF() bool {
	return c.pos >= len(c.tokens)
}

// is reports whether the current token is one of kinds, counting an
// invalid-shape identifier as its valid counterpart
func (c *parseContext) is(kinds ...types.TokenKind) bool {
	return kindIn(c.cur().Kind, kinds)
}

func kindIn(kind types.TokenKind, kinds []types.TokenKind) bool {
	valid, degraded := degradedOf[kind]
	for _, k := range kinds {
		if k == kind || (degraded && k == valid) {
			return true
		}
	}
	return false
}

// take consumes the current token. Accepting an invalid-shape identifier
// records a lexical error so the defect stays visible.
func (c *parseContext) take() types.Token {
	tok := c.cur()
	if c.atEOF() {
		return tok
	}
	c.pos++
	if lexer.IsInvalid(tok.Kind) {
		_, note := lexer.Classify(tok.Kind)
		c.lexical = append(c.lexical, diagnostics.InvalidIdentifier(tok, note))
	}
	return tok
}

// expect consumes the current token if it is one of kinds, otherwise records
// a syntax error at it and leaves it in place
func (c *parseContext) expect(kinds ...types.TokenKind) (types.Token, bool) {
	if c.is(kinds...) {
		return c.take(), true
	}
	c.fail(c.cur())
	return c.cur(), false
}

// fail records a syntax error at tok. End of input is reported once per
// parse, and a token already reported is not reported again.
func (c *parseContext) fail(tok types.Token) {
	if tok.IsEOF() {
		if !c.eofReported {
			c.eofReported = true
			c.errors = append(c.errors, diagnostics.UnexpectedEOF(tok.Line, tok.Column))
		}
		return
	}
	if tok.Offset == c.lastErrOffset {
		return
	}
	c.lastErrOffset = tok.Offset
	c.errors = append(c.errors, diagnostics.Unexpected(tok))
}

// failWith records a prepared syntax error, honoring the same one-per-token rule
func (c *parseContext) failWith(rec types.ErrorRecord, tok types.Token) {
	if tok.Offset == c.lastErrOffset {
		return
	}
	c.lastErrOffset = tok.Offset
	c.errors = append(c.errors, rec)
}

// synchronize discards tokens until one accepted by stop. The current token
// is kept if it already synchronizes.
func (c *parseContext) synchronize(stop func(types.TokenKind) bool) {
	for !c.atEOF() && !stop(c.cur().Kind) {
		c.pos++
	}
}

func (c *parseContext) defect(format string, args ...interface{}) {
	c.defects = append(c.defects, fmt.Sprintf(format, args...))
}

func (c *parseContext) result() *types.ParseResult {
	c.summary.TotalErrors = len(c.errors) + len(c.lexical)
	return &types.ParseResult{
		Summary:       c.summary,
		Errors:        c.errors,
		LexicalErrors: c.lexical,
		Defects:       c.defects,
	}
}
