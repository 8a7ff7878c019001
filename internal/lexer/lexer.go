package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dshills/tonto-mcp/pkg/types"
)

const dataTypeSuffix = "DataType"

// symbols in match order: longer spellings before their prefixes
var symbols = []struct {
	text string
	kind types.TokenKind
}{
	{"<>--", types.TokenArrowLeft},
	{"--<>", types.TokenArrowRight},
	{"--", types.TokenArrow},
	{"..", types.TokenDotDot},
	{"{", types.TokenLBrace},
	{"}", types.TokenRBrace},
	{"(", types.TokenLParen},
	{")", types.TokenRParen},
	{"[", types.TokenLBracket},
	{"]", types.TokenRBracket},
	{"*", types.TokenAsterisk},
	{"@", types.TokenAt},
	{":", types.TokenColon},
	{",", types.TokenComma},
}

// scanner holds the position state of one Tokenize call
type scanner struct {
	src       string
	pos       int
	line      int
	lineStart int
	tokens    []types.Token
	errors    []types.ErrorRecord
}

// Tokenize scans source left to right and returns its tokens and lexical
// errors. It never fails: an unrecognized character is recorded and skipped.
// Comments, whitespace and newlines produce no tokens.
func Tokenize(source string) ([]types.Token, []types.ErrorRecord) {
	s := &scanner{src: source, line: 1}
	for s.pos < len(s.src) {
		s.next()
	}
	return s.tokens, s.errors
}

func (s *scanner) next() {
	c := s.src[s.pos]
	switch {
	case c == '\n':
		s.pos++
		s.line++
		s.lineStart = s.pos
	case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
		s.pos++
	case c == '#':
		if end := strings.IndexByte(s.src[s.pos:], '\n'); end >= 0 {
			s.pos += end
		} else {
			s.pos = len(s.src)
		}
	case isDigit(c):
		s.scanInteger()
	case isLetter(c):
		s.scanWord()
	default:
		if s.scanSymbol() {
			return
		}
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		text := s.src[s.pos : s.pos+size]
		if r == utf8.RuneError && size == 1 {
			text = fmt.Sprintf("\\x%02x", c)
		}
		s.errors = append(s.errors, types.ErrorRecord{
			Line:    s.line,
			Column:  s.column(),
			Kind:    types.ErrorLexical,
			Code:    types.CodeInvalidCharacter,
			Token:   text,
			Message: fmt.Sprintf("invalid character '%s'", text),
		})
		s.pos += size
	}
}

func (s *scanner) column() int {
	return s.pos - s.lineStart + 1
}

func (s *scanner) emit(kind types.TokenKind, start int) *types.Token {
	s.tokens = append(s.tokens, types.Token{
		Kind:   kind,
		Lexeme: s.src[start:s.pos],
		Line:   s.line,
		Column: start - s.lineStart + 1,
		Offset: start,
	})
	return &s.tokens[len(s.tokens)-1]
}

func (s *scanner) scanSymbol() bool {
	rest := s.src[s.pos:]
	for _, sym := range symbols {
		if strings.HasPrefix(rest, sym.text) {
			start := s.pos
			s.pos += len(sym.text)
			s.emit(sym.kind, start)
			return true
		}
	}
	return false
}

func (s *scanner) scanInteger() {
	start := s.pos
	for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
		s.pos++
	}
	tok := s.emit(types.TokenInteger, start)
	v, err := strconv.Atoi(tok.Lexeme)
	if err != nil {
		s.errors = append(s.errors, types.ErrorRecord{
			Line:      tok.Line,
			Column:    tok.Column,
			Kind:      types.ErrorLexical,
			Code:      types.CodeInvalidInteger,
			TokenKind: types.TokenInteger,
			Token:     tok.Lexeme,
			Message:   fmt.Sprintf("integer literal '%s' is out of range", tok.Lexeme),
		})
		return
	}
	tok.Value = v
}

// scanWord consumes [A-Za-z][A-Za-z0-9_-]* where a hyphen is taken only when
// a letter follows it, so "a--B" still yields an arrow.
func (s *scanner) scanWord() {
	start := s.pos
	s.pos++
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if isLetter(c) || isDigit(c) || c == '_' {
			s.pos++
			continue
		}
		if c == '-' && s.pos+1 < len(s.src) && isLetter(s.src[s.pos+1]) {
			s.pos++
			continue
		}
		break
	}
	s.emit(classifyWord(s.src[start:s.pos]), start)
}

// classifyWord decides the kind of a word lexeme from its shape alone
func classifyWord(w string) types.TokenKind {
	if len(w) > len(dataTypeSuffix) && strings.HasSuffix(w, dataTypeSuffix) {
		prefix := strings.TrimSuffix(w, dataTypeSuffix)
		if strings.ContainsAny(prefix, "0123456789_-") {
			return types.TokenInvalidDataType
		}
		return types.TokenCustomDataType
	}

	if isLower(w[0]) && endsWithDigit(w) {
		body := strings.TrimRight(w, "0123456789")
		if strings.ContainsAny(body, "0123456789-") {
			return types.TokenInvalidInstanceName
		}
		return types.TokenInstanceName
	}

	if isUpper(w[0]) {
		if strings.ContainsAny(w, "0123456789-") {
			return types.TokenInvalidClassName
		}
		if k, ok := LookupKeyword(w); ok {
			return k
		}
		return types.TokenClassName
	}

	if strings.ContainsAny(w, "0123456789") {
		return types.TokenInvalidRelationName
	}
	if k, ok := LookupKeyword(w); ok {
		return k
	}
	return types.TokenRelationName
}

func endsWithDigit(w string) bool {
	return w != "" && isDigit(w[len(w)-1])
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isUpper(c byte) bool  { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool  { return c >= 'a' && c <= 'z' }
func isLetter(c byte) bool { return isUpper(c) || isLower(c) }
