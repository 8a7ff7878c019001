package diagnostics

import "github.com/dshills/tonto-mcp/pkg/types"

// Suggestion templates keyed by the kind of the unexpected token.
// "{token}" is replaced by the lexeme and "{stem}" by the lexeme without
// trailing digits.
var suggestions = map[types.TokenKind]string{
	// Names
	types.TokenClassName: "Unexpected class name '{token}'. Check that:\n" +
		"  - the declaration starts with a stereotype (kind, role, phase, ...)\n" +
		"  - the syntax is complete: 'kind {token}' or 'kind {token} specializes Parent'",
	types.TokenRelationName: "Unexpected relation name '{token}'. Relation names must:\n" +
		"  - start with a lower-case letter\n" +
		"  - contain no digits\n" +
		"  - appear in a relation or attribute declaration",
	types.TokenInstanceName: "'{token}' was recognized as an instance name (it ends with digits).\n" +
		"  - if it is a class name: remove the digits, class names cannot contain digits\n" +
		"  - if it is an enum instance: use it inside an enum body\n" +
		"  - try a name without digits, e.g. '{stem}_One'",
	types.TokenCustomDataType: "Unexpected datatype '{token}'. Custom datatypes are declared as\n" +
		"  - {token} { attribute : type }\n" +
		"  and used as attribute types: 'attribute : {token}'",
	types.TokenInvalidClassName: "'{token}' is not a valid class name. Class names start with an upper-case letter\n" +
		"  and contain only letters and underscores, e.g. '{stem}'",
	types.TokenInvalidRelationName: "'{token}' is not a valid relation name. Relation names start with a lower-case\n" +
		"  letter and contain no digits",
	types.TokenInvalidInstanceName: "'{token}' is not a valid instance name. Digits may only appear at the end,\n" +
		"  e.g. 'planet1'",
	types.TokenInvalidDataType: "'{token}' is not a valid datatype name. The part before 'DataType' must contain\n" +
		"  only letters, e.g. 'WeightDataType'",

	// Blocks
	types.TokenLBrace: "Unexpected '{'. Check that:\n" +
		"  - the package, class, enum or genset declaration before it is complete\n" +
		"  - no keyword is missing before the brace",
	types.TokenRBrace: "Unexpected closing brace '}'. Possible problems:\n" +
		"  - an empty or incomplete block\n" +
		"  - a malformed declaration just before it\n" +
		"  - an extra closing brace",

	// Cardinalities
	types.TokenLBracket: "Malformed cardinality. Use:\n" +
		"  - [*] for any number\n" +
		"  - [n] for exactly n\n" +
		"  - [n..m] for a range\n" +
		"  - [n..*] for n or more",
	types.TokenRBracket: "Unexpected ']'. Check that:\n" +
		"  - the cardinality was opened with '['\n" +
		"  - the format is one of [n], [n..m], [n..*] or [*]",
	types.TokenInteger: "Number '{token}' out of context. Numbers are only valid in:\n" +
		"  - cardinalities: [1], [1..*], [2..5]\n" +
		"  - the end of instance names: planet1, item2",
	types.TokenAsterisk: "Asterisk '*' out of context. Use it only in cardinalities: [*] or [1..*]",
	types.TokenDotDot:   "Operator '..' out of context. Use it only in cardinality ranges: [1..5], [0..*]",

	// Reserved words
	types.TokenPackage: "Unexpected 'package'. Correct syntax:\n" +
		"  - package Name { declarations }\n" +
		"  - package Name (without braces, everything after it belongs to the package)",
	types.TokenImport: "Unexpected 'import'. Imports must be:\n" +
		"  - at the start of the file, before any package\n" +
		"  - written as: import ModuleName",
	types.TokenSpecializes: "'specializes' out of context. Use it in class declarations:\n" +
		"  - kind Name specializes Parent\n" +
		"  - role Name specializes Parent1, Parent2 (multiple inheritance)",
	types.TokenGenset: "Unexpected 'genset'. Correct syntax:\n" +
		"  - [modifiers] genset Name { general Parent specifics Child1, Child2 }\n" +
		"  - optional modifiers: disjoint, complete, overlapping, incomplete",
	types.TokenWhere: "Unexpected 'where'. Use it in the short genset form:\n" +
		"  - genset Name where general Parent specifics Child1 Child2",
	types.TokenGeneral:   "'general' out of context. Use it in gensets: general ParentClass",
	types.TokenSpecifics: "'specifics' out of context. Use it in gensets: specifics Class1, Class2, Class3",
	types.TokenEnum: "Unexpected 'enum'. Correct syntax:\n" +
		"  - enum Name { Value1, Value2, Value3 }",
	types.TokenRelation: "'relation' out of context. Use it in external relations:\n" +
		"  - @stereotype relation Class1 -- Class2",

	// Arrows
	types.TokenArrow: "Arrow '--' out of context. Use it in:\n" +
		"  - external relations: @material relation Class1 -- Class2\n" +
		"  - internal relations: @mediation -- [1] TargetClass",
	types.TokenArrowLeft:  "Arrow '<>--' out of context. Use it in composition or aggregation relations",
	types.TokenArrowRight: "Arrow '--<>' out of context. Use it in composition or aggregation relations",

	// Symbols
	types.TokenComma: "Unexpected comma ','. Commas separate:\n" +
		"  - enum values: enum Colors { Blue, Green, Red }\n" +
		"  - genset classes: specifics Child1, Child2\n" +
		"  - parents in multiple inheritance: specializes Parent1, Parent2",
	types.TokenColon: "Colon ':' out of context. Use it in attribute declarations: attributeName : Type",
	types.TokenAt: "'@' out of context. Use it before relation stereotypes:\n" +
		"  - @mediation\n" +
		"  - @material relation Class1 -- Class2",

	// Stereotypes
	types.TokenMediation: "Stereotype 'mediation' out of context. Use it:\n" +
		"  - in internal relator relations: @mediation -- TargetClass\n" +
		"  - in external relations: @mediation relation Class1 -- Class2",
	types.TokenMaterial: "Stereotype 'material' out of context. Use it in material relations:\n" +
		"  - @material relation Agent -- Action",
}

const (
	genericSuggestion = "Token '{token}' (kind: {kind}) not expected in this context.\n" +
		"  Check the structure of the declaration."
	eofSuggestion = "Check that every brace and parenthesis has been closed"
)
