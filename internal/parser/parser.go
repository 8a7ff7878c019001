package parser

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dshills/tonto-mcp/internal/lexer"
	"github.com/dshills/tonto-mcp/pkg/types"
)

// Parser parses Tonto source text into a structural summary. A Parser holds
// no state between calls; every call builds its own parse context, so one
// Parser may serve concurrent callers.
type Parser struct{}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{}
}

// Parse tokenizes and parses source. It never fails: malformed input yields a
// partial summary alongside the lexical and syntax errors found in one pass.
func (p *Parser) Parse(source string) *types.ParseResult {
	tokens, lexErrs := lexer.Tokenize(source)
	result := p.parse(tokens, eofToken(source))

	if len(lexErrs) > 0 {
		all := append(lexErrs, result.LexicalErrors...)
		sort.SliceStable(all, func(i, j int) bool {
			if all[i].Line != all[j].Line {
				return all[i].Line < all[j].Line
			}
			return all[i].Column < all[j].Column
		})
		result.LexicalErrors = all
		result.Summary.TotalErrors = len(result.Errors) + len(all)
	}
	return result
}

// ParseTokens parses an already tokenized stream. Only lexical errors
// caused by accepting invalid-shape identifiers are reported.
func (p *Parser) ParseTokens(tokens []types.Token) *types.ParseResult {
	eof := types.Token{Kind: types.TokenEOF, Line: 1, Column: 1}
	if n := len(tokens); n > 0 {
		last := tokens[n-1]
		eof.Line = last.Line
		eof.Column = last.Column + len(last.Lexeme)
		eof.Offset = last.End()
	}
	return p.parse(tokens, eof)
}

// ParseFile reads and parses a source file
func (p *Parser) ParseFile(filePath string) (*types.ParseResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.Parse(string(content)), nil
}

func (p *Parser) parse(tokens []types.Token, eof types.Token) *types.ParseResult {
	ctx := newParseContext(tokens, eof)
	ctx.parseOntology()
	return ctx.result()
}

// eofToken positions the end-of-input token just past the last character
func eofToken(source string) types.Token {
	line := strings.Count(source, "\n") + 1
	lineStart := strings.LastIndexByte(source, '\n') + 1
	return types.Token{
		Kind:   types.TokenEOF,
		Line:   line,
		Column: len(source) - lineStart + 1,
		Offset: len(source),
	}
}

// ontology := import* package+
func (c *parseContext) parseOntology() {
	for c.is(types.TokenImport) {
		start := c.pos
		if !c.parseImport() {
			c.synchronize(func(k types.TokenKind) bool {
				return k == types.TokenImport || k == types.TokenPackage || isDeclarationStart(k)
			})
			if c.pos == start {
				c.pos++
			}
		}
	}

	if c.atEOF() {
		// at least one package is required
		c.fail(c.cur())
		return
	}

	for !c.atEOF() {
		tok := c.cur()
		switch {
		case tok.Kind == types.TokenPackage:
			c.parsePackage()
		case isDeclarationStart(tok.Kind):
			// declarations before any package: report once, then keep them
			c.fail(tok)
			c.parseDeclarations(nil, false)
		default:
			c.fail(tok)
			c.synchronize(func(k types.TokenKind) bool {
				return k == types.TokenPackage || isDeclarationStart(k)
			})
		}
	}
}

// import := "import" NAME
func (c *parseContext) parseImport() bool {
	kw := c.take()
	name, ok := c.expect(types.TokenClassName, types.TokenRelationName)
	if !ok {
		return false
	}
	c.summary.Imports = append(c.summary.Imports, &types.Import{Module: name.Lexeme, Line: kw.Line})
	return true
}

// package := "package" NAME ( "{" declaration* "}" | declaration* )
func (c *parseContext) parsePackage() {
	kw := c.take()
	pkg := &types.Package{Line: kw.Line}
	if name, ok := c.expect(types.TokenClassName, types.TokenRelationName); ok {
		pkg.Name = name.Lexeme
	}

	if c.is(types.TokenLBrace) {
		c.take()
		pkg.Braced = true
		c.parseDeclarations(pkg, true)
		if c.is(types.TokenRBrace) {
			c.take()
		} else {
			c.fail(c.cur())
		}
	} else {
		c.parseDeclarations(pkg, false)
	}

	c.summary.Packages = append(c.summary.Packages, pkg)
}

// parseDeclarations parses declarations until the end of the enclosing
// package: "}" when braced, the next "package" or end of input otherwise.
// pkg is nil for declarations written outside any package.
func (c *parseContext) parseDeclarations(pkg *types.Package, braced bool) {
	for !c.atEOF() {
		tok := c.cur()
		if tok.Kind == types.TokenPackage {
			if braced {
				c.fail(tok)
			}
			return
		}
		if tok.Kind == types.TokenRBrace {
			if braced {
				return
			}
			c.fail(tok)
			c.pos++
			continue
		}

		start := c.pos
		decl, ok := c.parseDeclaration()
		if decl != nil && pkg != nil {
			pkg.Declarations = append(pkg.Declarations, decl)
		}
		if !ok {
			c.synchronize(isDeclarationSync)
			if c.pos == start {
				c.pos++
			}
		}
	}
}

// parseDeclaration dispatches on the starting token. It returns the
// declaration when one was recorded, and false when recovery is needed.
func (c *parseContext) parseDeclaration() (types.Declaration, bool) {
	tok := c.cur()
	switch {
	case lexer.IsClassStereotype(tok.Kind):
		class, ok := c.parseClass()
		if class == nil {
			return nil, ok
		}
		return class, ok
	case kindIn(tok.Kind, []types.TokenKind{types.TokenCustomDataType}):
		dt, ok := c.parseDataType()
		if dt == nil {
			return nil, ok
		}
		return dt, ok
	case tok.Kind == types.TokenEnum:
		enum, ok := c.parseEnum()
		if enum == nil {
			return nil, ok
		}
		return enum, ok
	case tok.Kind == types.TokenGenset || isModifier(tok.Kind):
		gs, ok := c.parseGenset()
		if gs == nil {
			return nil, ok
		}
		return gs, ok
	case tok.Kind == types.TokenAt || lexer.IsRelationStereotype(tok.Kind):
		rel, ok := c.parseExternalRelation()
		if rel == nil {
			return nil, ok
		}
		return rel, ok
	default:
		c.fail(tok)
		return nil, false
	}
}

func isDeclarationStart(k types.TokenKind) bool {
	return lexer.IsClassStereotype(k) || lexer.IsRelationStereotype(k) || isModifier(k) ||
		k == types.TokenCustomDataType || k == types.TokenInvalidDataType ||
		k == types.TokenEnum || k == types.TokenGenset || k == types.TokenAt
}

func isDeclarationSync(k types.TokenKind) bool {
	return isDeclarationStart(k) || k == types.TokenRBrace || k == types.TokenPackage
}

// closesBody reports whether k can only start a new package-level
// construct, meaning an open body is missing its "}"
func closesBody(k types.TokenKind) bool {
	return lexer.IsClassStereotype(k) || k == types.TokenEnum || k == types.TokenGenset ||
		k == types.TokenPackage
}
