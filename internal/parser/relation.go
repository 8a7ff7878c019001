package parser

import (
	"strconv"

	"github.com/dshills/tonto-mcp/internal/lexer"
	"github.com/dshills/tonto-mcp/pkg/types"
)

// relationShape records which optional pieces of a relation were written
type relationShape uint8

const (
	shapeStereotype relationShape = 1 << iota
	shapeName
	shapeSourceCard
	shapeTargetCard
	shapeNameBetweenArrows
)

// internalForms lists every legal spelling of a relation inside a class
// body. A name is written either before the arrow or between two arrows,
// never both, and a name between arrows excludes a source cardinality.
var internalForms = map[relationShape]types.RelationForm{
	0:                                                               types.FormInternalArrow,
	shapeTargetCard:                                                 types.FormInternalArrowTC,
	shapeSourceCard:                                                 types.FormInternalSCArrow,
	shapeSourceCard | shapeTargetCard:                               types.FormInternalSCArrowTC,
	shapeName:                                                       types.FormInternalNameArrow,
	shapeName | shapeTargetCard:                                     types.FormInternalNameArrowTC,
	shapeName | shapeSourceCard:                                     types.FormInternalNameSCArrow,
	shapeName | shapeSourceCard | shapeTargetCard:                   types.FormInternalNameSCArrowTC,
	shapeStereotype:                                                 types.FormInternalStereoArrow,
	shapeStereotype | shapeTargetCard:                               types.FormInternalStereoArrowTC,
	shapeStereotype | shapeSourceCard:                               types.FormInternalStereoSCArrow,
	shapeStereotype | shapeSourceCard | shapeTargetCard:             types.FormInternalStereoSCArrowTC,
	shapeStereotype | shapeName:                                     types.FormInternalStereoNameArrow,
	shapeStereotype | shapeName | shapeTargetCard:                   types.FormInternalStereoNameArrowTC,
	shapeStereotype | shapeName | shapeSourceCard:                   types.FormInternalStereoNameSCArrow,
	shapeStereotype | shapeName | shapeSourceCard | shapeTargetCard: types.FormInternalStereoNameSCArrowTC,
	shapeNameBetweenArrows:                                          types.FormInternalArrowNameArrow,
	shapeNameBetweenArrows | shapeTargetCard:                        types.FormInternalArrowNameArrowTC,
	shapeStereotype | shapeNameBetweenArrows:                        types.FormInternalStereoArrowNameArrow,
	shapeStereotype | shapeNameBetweenArrows | shapeTargetCard:      types.FormInternalStereoArrowNameArrowTC,
}

// externalForms lists every legal spelling of a top-level relation. The
// stereotype is mandatory and a name is only written between arrows.
var externalForms = map[relationShape]types.RelationForm{
	shapeStereotype:                                                              types.FormExternal,
	shapeStereotype | shapeTargetCard:                                            types.FormExternalTC,
	shapeStereotype | shapeSourceCard:                                            types.FormExternalSC,
	shapeStereotype | shapeSourceCard | shapeTargetCard:                          types.FormExternalSCTC,
	shapeStereotype | shapeNameBetweenArrows:                                     types.FormExternalNamed,
	shapeStereotype | shapeNameBetweenArrows | shapeTargetCard:                   types.FormExternalNamedTC,
	shapeStereotype | shapeNameBetweenArrows | shapeSourceCard:                   types.FormExternalNamedSC,
	shapeStereotype | shapeNameBetweenArrows | shapeSourceCard | shapeTargetCard: types.FormExternalNamedSCTC,
}

// formShapes inverts internalForms so a bound relation can be re-tagged
var formShapes = invertForms(internalForms)

func invertForms(forms map[relationShape]types.RelationForm) map[types.RelationForm]relationShape {
	m := make(map[types.RelationForm]relationShape, len(forms))
	for shape, form := range forms {
		m[form] = shape
	}
	return m
}

// shapeOf returns the shape of an already tagged internal relation with its
// current stereotype
func shapeOf(rel *types.Relation) relationShape {
	shape := formShapes[rel.Form] &^ shapeStereotype
	if rel.Stereotype != "" {
		shape |= shapeStereotype
	}
	return shape
}

// assignForm tags rel with the form of shape. A shape with no entry means
// the grammar accepted a spelling it does not document: that is a defect in
// the parser, not in the input.
func (c *parseContext) assignForm(rel *types.Relation, shape relationShape, forms map[relationShape]types.RelationForm) {
	form, ok := forms[shape]
	if !ok {
		c.defect("relation at line %d: no form for shape %05b", rel.Line, shape)
		rel.Form = ""
		return
	}
	rel.Form = form
}

func isArrow(k types.TokenKind) bool {
	return k == types.TokenArrow || k == types.TokenArrowLeft || k == types.TokenArrowRight
}

var arrowKinds = map[types.TokenKind]types.ArrowKind{
	types.TokenArrow:      types.ArrowPlain,
	types.TokenArrowLeft:  types.ArrowLeft,
	types.TokenArrowRight: types.ArrowRight,
}

func (c *parseContext) expectArrow() (types.ArrowKind, bool) {
	if !isArrow(c.cur().Kind) {
		c.fail(c.cur())
		return "", false
	}
	return arrowKinds[c.take().Kind], true
}

// combineArrows picks the arrow recorded for a relation named between two
// arrows: the first one when it is decorated, otherwise the second
func combineArrows(first, second types.ArrowKind) types.ArrowKind {
	if first != types.ArrowPlain {
		return first
	}
	return second
}

// internal_relation := [REL_STEREOTYPE] [LOWER_NAME] [cardinality] ARROW
//                      [LOWER_NAME ARROW] [cardinality] CLASS_NAME
func (c *parseContext) parseInternalRelation(owner string) (*types.Relation, bool) {
	rel := &types.Relation{Internal: true, Source: owner, Line: c.cur().Line}
	var shape relationShape

	if lexer.IsRelationStereotype(c.cur().Kind) {
		rel.Stereotype = c.take().Lexeme
		shape |= shapeStereotype
	}
	if c.is(types.TokenRelationName) {
		rel.Name = c.take().Lexeme
		shape |= shapeName
	}
	if c.is(types.TokenLBracket) {
		card, ok := c.parseCardinality()
		if !ok {
			return nil, false
		}
		rel.SourceCardinality = card
		shape |= shapeSourceCard
	}

	arrow, ok := c.expectArrow()
	if !ok {
		return nil, false
	}
	rel.Arrow = arrow

	if shape&(shapeName|shapeSourceCard) == 0 && c.is(types.TokenRelationName) {
		rel.Name = c.take().Lexeme
		second, ok := c.expectArrow()
		if !ok {
			return nil, false
		}
		rel.Arrow = combineArrows(arrow, second)
		shape |= shapeNameBetweenArrows
	}

	if !c.parseRelationTarget(rel, &shape) {
		return nil, false
	}
	c.assignForm(rel, shape, internalForms)
	return rel, true
}

// parseRelationTarget parses [cardinality] CLASS_NAME
func (c *parseContext) parseRelationTarget(rel *types.Relation, shape *relationShape) bool {
	if c.is(types.TokenLBracket) {
		card, ok := c.parseCardinality()
		if !ok {
			return false
		}
		rel.TargetCardinality = card
		*shape |= shapeTargetCard
	}
	target, ok := c.expect(types.TokenClassName)
	if !ok {
		return false
	}
	rel.Target = target.Lexeme
	return true
}

// relation := ["@"] REL_STEREOTYPE ["relation"] CLASS_NAME [cardinality] ARROW
//             [LOWER_NAME ARROW] [cardinality] CLASS_NAME
func (c *parseContext) parseExternalRelation() (*types.Relation, bool) {
	rel := &types.Relation{Line: c.cur().Line}
	shape := shapeStereotype

	if c.is(types.TokenAt) {
		c.take()
	}
	stereo, ok := c.expectRelationStereotype()
	if !ok {
		return nil, false
	}
	rel.Stereotype = stereo.Lexeme

	if c.is(types.TokenRelation) {
		c.take()
	}
	source, ok := c.expect(types.TokenClassName)
	if !ok {
		return nil, false
	}
	rel.Source = source.Lexeme

	if c.is(types.TokenLBracket) {
		card, ok := c.parseCardinality()
		if !ok {
			return nil, false
		}
		rel.SourceCardinality = card
		shape |= shapeSourceCard
	}

	arrow, ok := c.expectArrow()
	if !ok {
		return nil, false
	}
	rel.Arrow = arrow

	if c.is(types.TokenRelationName) {
		rel.Name = c.take().Lexeme
		second, ok := c.expectArrow()
		if !ok {
			return nil, false
		}
		rel.Arrow = combineArrows(arrow, second)
		shape |= shapeNameBetweenArrows
	}

	if !c.parseRelationTarget(rel, &shape) {
		return nil, false
	}
	c.assignForm(rel, shape, externalForms)
	c.summary.Relations = append(c.summary.Relations, rel)
	return rel, true
}

// cardinality := "[" "*" "]" | "[" INT "]" | "[" INT ".." INT "]" | "[" INT ".." "*" "]"
func (c *parseContext) parseCardinality() (*types.Cardinality, bool) {
	c.take()
	card := &types.Cardinality{}

	switch {
	case c.is(types.TokenAsterisk):
		c.take()
		card.Min, card.Max = 0, types.Unbounded
		card.Text = "[*]"
	case c.is(types.TokenInteger):
		card.Min = c.take().Value
		card.Max = card.Min
		card.Text = "[" + strconv.Itoa(card.Min) + "]"
		if c.is(types.TokenDotDot) {
			c.take()
			switch {
			case c.is(types.TokenAsterisk):
				c.take()
				card.Max = types.Unbounded
				card.Text = "[" + strconv.Itoa(card.Min) + "..*]"
			case c.is(types.TokenInteger):
				card.Max = c.take().Value
				card.Text = "[" + strconv.Itoa(card.Min) + ".." + strconv.Itoa(card.Max) + "]"
			default:
				c.fail(c.cur())
				return nil, false
			}
		}
	default:
		c.fail(c.cur())
		return nil, false
	}

	if _, ok := c.expect(types.TokenRBracket); !ok {
		return nil, false
	}
	return card, true
}
