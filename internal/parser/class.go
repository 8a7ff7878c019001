package parser

import (
	"github.com/dshills/tonto-mcp/internal/lexer"
	"github.com/dshills/tonto-mcp/pkg/types"
)

var partitions = []types.TokenKind{
	types.TokenFunctionalComplexes, types.TokenRelators, types.TokenIntrinsicModes,
}

var attributeTypes = []types.TokenKind{
	types.TokenNumberType, types.TokenStringType, types.TokenBooleanType,
	types.TokenDateType, types.TokenTimeType, types.TokenDatetimeType,
	types.TokenClassName, types.TokenCustomDataType,
}

// class := STEREOTYPE NAME [ "of" PARTITION ] [ "specializes" NAME{","} ] [ "{" member* "}" ]
//
// A class whose header fails after its name is still recorded with what was
// read. False is returned only when no body followed to resynchronize on.
func (c *parseContext) parseClass() (*types.Class, bool) {
	stereo := c.take()
	name, ok := c.expect(types.TokenClassName)
	if !ok {
		return nil, false
	}
	class := &types.Class{
		Stereotype: stereo.Lexeme,
		Name:       name.Lexeme,
		Parents:    []string{},
		Members:    []types.Member{},
		Line:       stereo.Line,
	}

	ok = c.parseClassHeader(class)
	if !ok {
		// a broken header still owns the body that follows it
		c.synchronize(func(k types.TokenKind) bool {
			return k == types.TokenLBrace || isDeclarationSync(k)
		})
	}
	if c.is(types.TokenLBrace) {
		c.take()
		class.Members = c.bindStereotypes(c.parseClassBody(class.Name))
		ok = true
	}

	c.recordClass(class)
	return class, ok
}

func (c *parseContext) parseClassHeader(class *types.Class) bool {
	if c.is(types.TokenOf) {
		c.take()
		part, ok := c.expect(partitions...)
		if !ok {
			return false
		}
		class.Partition = part.Lexeme
	}

	if c.is(types.TokenSpecializes) {
		c.take()
		for {
			parent, ok := c.expect(types.TokenClassName)
			if !ok {
				return false
			}
			class.Parents = append(class.Parents, parent.Lexeme)
			if !c.is(types.TokenComma) {
				break
			}
			c.take()
		}
	}
	return true
}

// parseClassBody parses members up to and including the closing brace. End
// of input or the start of another package-level construct closes the body.
func (c *parseContext) parseClassBody(owner string) []types.Member {
	var members []types.Member
	for {
		tok := c.cur()
		switch {
		case c.atEOF():
			c.fail(tok)
			return members
		case tok.Kind == types.TokenRBrace:
			c.take()
			return members
		case closesBody(tok.Kind):
			c.fail(tok)
			return members
		}

		start := c.pos
		member, ok := c.parseMember(owner)
		if ok {
			members = append(members, member)
			continue
		}
		c.synchronize(isMemberSync)
		if c.pos == start {
			c.pos++
		}
	}
}

// member := attribute | internal_relation | "@" REL_STEREOTYPE
func (c *parseContext) parseMember(owner string) (types.Member, bool) {
	tok := c.cur()
	switch {
	case tok.Kind == types.TokenAt:
		c.take()
		stereo, ok := c.expectRelationStereotype()
		if !ok {
			return types.Member{}, false
		}
		return types.Member{Kind: types.MemberStereotype, Stereotype: stereo.Lexeme, Line: tok.Line}, true

	case c.is(types.TokenRelationName) && c.peek(1).Kind == types.TokenColon:
		attr, ok := c.parseAttribute(owner)
		if !ok {
			return types.Member{}, false
		}
		return types.Member{Kind: types.MemberAttribute, Attribute: attr, Line: attr.Line}, true

	case lexer.IsRelationStereotype(tok.Kind) || isRelationStart(tok.Kind):
		rel, ok := c.parseInternalRelation(owner)
		if !ok {
			return types.Member{}, false
		}
		return types.Member{Kind: types.MemberRelation, Relation: rel, Line: rel.Line}, true

	default:
		c.fail(tok)
		return types.Member{}, false
	}
}

func (c *parseContext) expectRelationStereotype() (types.Token, bool) {
	if lexer.IsRelationStereotype(c.cur().Kind) {
		return c.take(), true
	}
	c.fail(c.cur())
	return c.cur(), false
}

// bindStereotypes applies each standalone "@stereotype" marker to the member
// immediately after it when that member is an internal relation without a
// stereotype. Markers never survive.
func (c *parseContext) bindStereotypes(members []types.Member) []types.Member {
	bound := make([]types.Member, 0, len(members))
	pending := ""
	for _, m := range members {
		if m.Kind == types.MemberStereotype {
			pending = m.Stereotype
			continue
		}
		if pending != "" && m.Kind == types.MemberRelation && m.Relation.Stereotype == "" {
			m.Relation.Stereotype = pending
			c.assignForm(m.Relation, shapeOf(m.Relation), internalForms)
		}
		pending = ""
		bound = append(bound, m)
	}
	return bound
}

// recordClass adds a completed class and then its members to the summary
func (c *parseContext) recordClass(class *types.Class) {
	c.summary.Classes = append(c.summary.Classes, class)
	for _, m := range class.Members {
		switch m.Kind {
		case types.MemberAttribute:
			c.summary.Attributes = append(c.summary.Attributes, m.Attribute)
		case types.MemberRelation:
			c.summary.Relations = append(c.summary.Relations, m.Relation)
		}
	}
}

// attribute := LOWER_NAME ":" type [ cardinality ] [ "{" META{","} "}" ]
func (c *parseContext) parseAttribute(owner string) (*types.Attribute, bool) {
	name := c.take()
	if _, ok := c.expect(types.TokenColon); !ok {
		return nil, false
	}
	typ, ok := c.expect(attributeTypes...)
	if !ok {
		return nil, false
	}
	attr := &types.Attribute{
		Name:     name.Lexeme,
		Type:     typ.Lexeme,
		TypeKind: typ.Kind,
		Owner:    owner,
		Line:     name.Line,
	}
	if valid, degraded := degradedOf[typ.Kind]; degraded {
		attr.TypeKind = valid
	}

	if c.is(types.TokenLBracket) {
		card, ok := c.parseCardinality()
		if !ok {
			return nil, false
		}
		attr.Cardinality = card
	}

	if c.is(types.TokenLBrace) {
		metas, ok := c.parseMetaAttributes()
		if !ok {
			return nil, false
		}
		attr.MetaAttributes = metas
	}
	return attr, true
}

func (c *parseContext) parseMetaAttributes() ([]string, bool) {
	c.take()
	var metas []string
	for {
		if !lexer.IsMetaAttribute(c.cur().Kind) {
			c.fail(c.cur())
			return nil, false
		}
		metas = append(metas, c.take().Lexeme)
		if !c.is(types.TokenComma) {
			break
		}
		c.take()
	}
	if _, ok := c.expect(types.TokenRBrace); !ok {
		return nil, false
	}
	return metas, true
}

// datatype := CUSTOM_DATATYPE "{" attribute* "}"
func (c *parseContext) parseDataType() (*types.DataType, bool) {
	name := c.take()
	if _, ok := c.expect(types.TokenLBrace); !ok {
		return nil, false
	}
	dt := &types.DataType{Name: name.Lexeme, Attributes: []*types.Attribute{}, Line: name.Line}

	ok := true
loop:
	for {
		tok := c.cur()
		switch {
		case c.atEOF():
			c.fail(tok)
			ok = false
			break loop
		case tok.Kind == types.TokenRBrace:
			c.take()
			break loop
		case closesBody(tok.Kind):
			c.fail(tok)
			ok = false
			break loop
		}

		start := c.pos
		if c.is(types.TokenRelationName) {
			if attr, attrOK := c.parseAttribute(dt.Name); attrOK {
				dt.Attributes = append(dt.Attributes, attr)
				continue
			}
		} else {
			c.fail(tok)
		}
		c.synchronize(func(k types.TokenKind) bool {
			return kindIn(k, []types.TokenKind{types.TokenRelationName}) || k == types.TokenRBrace || closesBody(k)
		})
		if c.pos == start {
			c.pos++
		}
	}

	c.summary.DataTypes = append(c.summary.DataTypes, dt)
	c.summary.Attributes = append(c.summary.Attributes, dt.Attributes...)
	return dt, ok
}

// enum := "enum" CLASS_NAME "{" (CLASS_NAME|INSTANCE_NAME){","} "}"
func (c *parseContext) parseEnum() (*types.Enum, bool) {
	kw := c.take()
	name, ok := c.expect(types.TokenClassName)
	if !ok {
		return nil, false
	}
	if _, ok := c.expect(types.TokenLBrace); !ok {
		return nil, false
	}

	enum := &types.Enum{Name: name.Lexeme, Line: kw.Line}
	for {
		inst, ok := c.expect(types.TokenClassName, types.TokenInstanceName)
		if !ok {
			return nil, false
		}
		enum.Instances = append(enum.Instances, inst.Lexeme)
		if !c.is(types.TokenComma) {
			break
		}
		c.take()
	}
	if _, ok := c.expect(types.TokenRBrace); !ok {
		return nil, false
	}

	c.summary.Enums = append(c.summary.Enums, enum)
	return enum, true
}

func isMemberStart(k types.TokenKind) bool {
	return k == types.TokenAt || lexer.IsRelationStereotype(k) || isRelationStart(k) ||
		kindIn(k, []types.TokenKind{types.TokenRelationName})
}

func isMemberSync(k types.TokenKind) bool {
	return isMemberStart(k) || k == types.TokenRBrace || closesBody(k)
}

func isRelationStart(k types.TokenKind) bool {
	return isArrow(k) || k == types.TokenLBracket || kindIn(k, []types.TokenKind{types.TokenRelationName})
}
