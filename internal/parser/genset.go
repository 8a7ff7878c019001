package parser

import (
	"github.com/dshills/tonto-mcp/internal/diagnostics"
	"github.com/dshills/tonto-mcp/pkg/types"
)

var modifierNames = map[types.TokenKind]string{
	types.TokenDisjoint:    types.ModifierDisjoint,
	types.TokenComplete:    types.ModifierComplete,
	types.TokenOverlapping: types.ModifierOverlapping,
	types.TokenIncomplete:  types.ModifierIncomplete,
}

// modifierSets are the legal modifier combinations in normalized order.
// A run is legal when, as a set, it equals one of them.
var modifierSets = [][]string{
	{types.ModifierDisjoint},
	{types.ModifierComplete},
	{types.ModifierOverlapping},
	{types.ModifierIncomplete},
	{types.ModifierDisjoint, types.ModifierComplete},
	{types.ModifierOverlapping, types.ModifierIncomplete},
}

func isModifier(k types.TokenKind) bool {
	_, ok := modifierNames[k]
	return ok
}

// validateModifiers returns the normalized modifier set of a run, or the
// index of the first modifier that makes the run illegal
func validateModifiers(run []string) ([]string, int) {
	if len(run) == 0 {
		return []string{}, -1
	}
	for i := range run {
		if !extendsLegalSet(run[:i+1]) {
			return nil, i
		}
	}
	for _, set := range modifierSets {
		if sameSet(set, run) {
			return append([]string{}, set...), -1
		}
	}
	return nil, len(run) - 1
}

// extendsLegalSet reports whether prefix can still grow into a legal set
func extendsLegalSet(prefix []string) bool {
	for _, set := range modifierSets {
		if len(prefix) <= len(set) && subset(prefix, set) {
			return true
		}
	}
	return false
}

func subset(a, b []string) bool {
	seen := make(map[string]int, len(b))
	for _, s := range b {
		seen[s]++
	}
	for _, s := range a {
		if seen[s] == 0 {
			return false
		}
		seen[s]--
	}
	return true
}

func sameSet(a, b []string) bool {
	return len(a) == len(b) && subset(a, b)
}

// genset := modifiers "genset" NAME ( "where" "general" CLASS_NAME "specifics" CLASS_NAME+
//                                   | "{" "general" CLASS_NAME "specifics" CLASS_NAME+ "}" )
//
// A genset with an illegal modifier run is parsed to its end so recovery
// resumes cleanly, but it is not recorded.
func (c *parseContext) parseGenset() (*types.GeneralizationSet, bool) {
	var run []string
	var runTokens []types.Token
	for isModifier(c.cur().Kind) {
		tok := c.take()
		run = append(run, modifierNames[tok.Kind])
		runTokens = append(runTokens, tok)
	}

	modifiers, bad := validateModifiers(run)
	if bad >= 0 {
		c.failWith(diagnostics.InvalidModifiers(runTokens[bad], run), runTokens[bad])
	}

	kw, ok := c.expect(types.TokenGenset)
	if !ok {
		return nil, false
	}
	gs := &types.GeneralizationSet{Modifiers: modifiers, Line: kw.Line}
	if len(runTokens) > 0 {
		gs.Line = runTokens[0].Line
	}

	name, ok := c.expect(types.TokenClassName, types.TokenRelationName)
	if !ok {
		return nil, false
	}
	gs.Name = name.Lexeme

	switch {
	case c.is(types.TokenWhere):
		c.take()
		if !c.parseGensetBody(gs) {
			return nil, false
		}
	case c.is(types.TokenLBrace):
		c.take()
		if !c.parseGensetBody(gs) {
			return nil, false
		}
		if _, ok := c.expect(types.TokenRBrace); !ok {
			return nil, false
		}
	default:
		c.fail(c.cur())
		return nil, false
	}

	if bad >= 0 {
		return nil, true
	}
	c.summary.GeneralizationSets = append(c.summary.GeneralizationSets, gs)
	return gs, true
}

// parseGensetBody parses "general" CLASS_NAME "specifics" CLASS_NAME{[","] CLASS_NAME}
func (c *parseContext) parseGensetBody(gs *types.GeneralizationSet) bool {
	if _, ok := c.expect(types.TokenGeneral); !ok {
		return false
	}
	general, ok := c.expect(types.TokenClassName)
	if !ok {
		return false
	}
	gs.General = general.Lexeme

	if _, ok := c.expect(types.TokenSpecifics); !ok {
		return false
	}
	first, ok := c.expect(types.TokenClassName)
	if !ok {
		return false
	}
	gs.Specifics = []string{first.Lexeme}
	for {
		if c.is(types.TokenComma) {
			c.take()
			specific, ok := c.expect(types.TokenClassName)
			if !ok {
				return false
			}
			gs.Specifics = append(gs.Specifics, specific.Lexeme)
			continue
		}
		if !c.is(types.TokenClassName) {
			return true
		}
		gs.Specifics = append(gs.Specifics, c.take().Lexeme)
	}
}
