package types

// TokenKind identifies the lexical class of a token
type TokenKind string

// Symbols
const (
	TokenLBrace     TokenKind = "LBRACE"      // {
	TokenRBrace     TokenKind = "RBRACE"      // }
	TokenLParen     TokenKind = "LPAREN"      // (
	TokenRParen     TokenKind = "RPAREN"      // )
	TokenLBracket   TokenKind = "LBRACKET"    // [
	TokenRBracket   TokenKind = "RBRACKET"    // ]
	TokenDotDot     TokenKind = "DOTDOT"      // ..
	TokenArrowLeft  TokenKind = "ARROW_LEFT"  // <>--
	TokenArrowRight TokenKind = "ARROW_RIGHT" // --<>
	TokenArrow      TokenKind = "ARROW"       // --
	TokenAsterisk   TokenKind = "ASTERISK"    // *
	TokenAt         TokenKind = "AT"          // @
	TokenColon      TokenKind = "COLON"       // :
	TokenComma      TokenKind = "COMMA"       // ,
)

// Identifiers, literals and error tokens
const (
	TokenClassName      TokenKind = "CLASS_NAME"
	TokenRelationName   TokenKind = "RELATION_NAME"
	TokenInstanceName   TokenKind = "INSTANCE_NAME"
	TokenCustomDataType TokenKind = "CUSTOM_DATATYPE"
	TokenInteger        TokenKind = "INTEGER"

	TokenInvalidClassName    TokenKind = "INVALID_CLASS_NAME"
	TokenInvalidRelationName TokenKind = "INVALID_RELATION_NAME"
	TokenInvalidInstanceName TokenKind = "INVALID_INSTANCE_NAME"
	TokenInvalidDataType     TokenKind = "INVALID_DATATYPE"

	// TokenEOF is synthesized by the parser; the tokenizer never emits it.
	TokenEOF TokenKind = "EOF"
)

// Class stereotypes
const (
	TokenEvent               TokenKind = "EVENT"
	TokenSituation           TokenKind = "SITUATION"
	TokenProcess             TokenKind = "PROCESS"
	TokenCategory            TokenKind = "CATEGORY"
	TokenMixin               TokenKind = "MIXIN"
	TokenPhaseMixin          TokenKind = "PHASEMIXIN"
	TokenRoleMixin           TokenKind = "ROLEMIXIN"
	TokenHistoricalRoleMixin TokenKind = "HISTORICALROLEMIXIN"
	TokenStereoKind          TokenKind = "KIND" // the "kind" stereotype
	TokenCollective          TokenKind = "COLLECTIVE"
	TokenQuantity            TokenKind = "QUANTITY"
	TokenQuality             TokenKind = "QUALITY"
	TokenMode                TokenKind = "MODE"
	TokenIntrinsicMode       TokenKind = "INTRINSICMODE"
	TokenExtrinsicMode       TokenKind = "EXTRINSICMODE"
	TokenSubkind             TokenKind = "SUBKIND"
	TokenPhase               TokenKind = "PHASE"
	TokenRole                TokenKind = "ROLE"
	TokenHistoricalRole      TokenKind = "HISTORICALROLE"
	TokenRelator             TokenKind = "RELATOR"
)

// Relation stereotypes
const (
	TokenMaterial             TokenKind = "MATERIAL"
	TokenDerivation           TokenKind = "DERIVATION"
	TokenComparative          TokenKind = "COMPARATIVE"
	TokenMediation            TokenKind = "MEDIATION"
	TokenCharacterization     TokenKind = "CHARACTERIZATION"
	TokenExternalDependence   TokenKind = "EXTERNALDEPENDENCE"
	TokenSubCollectionOf      TokenKind = "SUBCOLLECTIONOF"
	TokenSubQualityOf         TokenKind = "SUBQUALITYOF"
	TokenComponentOf          TokenKind = "COMPONENTOF"
	TokenInstantiation        TokenKind = "INSTANTIATION"
	TokenMemberOf             TokenKind = "MEMBEROF"
	TokenTermination          TokenKind = "TERMINATION"
	TokenParticipational      TokenKind = "PARTICIPATIONAL"
	TokenParticipation        TokenKind = "PARTICIPATION"
	TokenHistoricalDependence TokenKind = "HISTORICALDEPENDENCE"
	TokenCreation             TokenKind = "CREATION"
	TokenManifestation        TokenKind = "MANIFESTATION"
	TokenBringsAbout          TokenKind = "BRINGSABOUT"
	TokenTriggers             TokenKind = "TRIGGERS"
	TokenComposition          TokenKind = "COMPOSITION"
	TokenAggregation          TokenKind = "AGGREGATION"
	TokenInherence            TokenKind = "INHERENCE"
	TokenValue                TokenKind = "VALUE"
	TokenFormal               TokenKind = "FORMAL"
	TokenConstitution         TokenKind = "CONSTITUTION"
)

// Reserved words
const (
	TokenGenset              TokenKind = "GENSET"
	TokenDisjoint            TokenKind = "DISJOINT"
	TokenComplete            TokenKind = "COMPLETE"
	TokenGeneral             TokenKind = "GENERAL"
	TokenSpecifics           TokenKind = "SPECIFICS"
	TokenWhere               TokenKind = "WHERE"
	TokenPackage             TokenKind = "PACKAGE"
	TokenImport              TokenKind = "IMPORT"
	TokenFunctionalComplexes TokenKind = "FUNCTIONAL_COMPLEXES"
	TokenEnum                TokenKind = "ENUM"
	TokenRelation            TokenKind = "RELATION"
	TokenOverlapping         TokenKind = "OVERLAPPING"
	TokenIncomplete          TokenKind = "INCOMPLETE"
	TokenSpecializes         TokenKind = "SPECIALIZES"
	TokenOf                  TokenKind = "OF"
	TokenRelators            TokenKind = "RELATORS"
	TokenIntrinsicModes      TokenKind = "INTRINSIC_MODES"
)

// Native types
const (
	TokenNumberType   TokenKind = "NUMBER_TYPE"
	TokenStringType   TokenKind = "STRING_TYPE"
	TokenBooleanType  TokenKind = "BOOLEAN_TYPE"
	TokenDateType     TokenKind = "DATE_TYPE"
	TokenTimeType     TokenKind = "TIME_TYPE"
	TokenDatetimeType TokenKind = "DATETIME_TYPE"
)

// Meta-attributes
const (
	TokenOrdered   TokenKind = "ORDERED"
	TokenConst     TokenKind = "CONST"
	TokenDerived   TokenKind = "DERIVED"
	TokenSubsets   TokenKind = "SUBSETS"
	TokenRedefines TokenKind = "REDEFINES"
)

// Category is the display category of a token
type Category string

const (
	CategoryClassStereotype    Category = "class stereotype"
	CategoryRelationStereotype Category = "relation stereotype"
	CategoryReservedWord       Category = "reserved word"
	CategoryNativeType         Category = "native type"
	CategoryMetaAttribute      Category = "meta-attribute"
	CategoryClassName          Category = "class name"
	CategoryRelationName       Category = "relation name"
	CategoryInstanceName       Category = "instance name"
	CategoryCustomDataType     Category = "custom datatype"
	CategoryIntegerLiteral     Category = "integer literal"
	CategorySymbol             Category = "special symbol"
	CategoryError              Category = "error"
)

// NotificationOK is the notification attached to every well-formed token
const NotificationOK = "OK"

// Position represents a location in source text
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Token is an immutable lexical unit produced by the tokenizer
type Token struct {
	Kind   TokenKind `json:"kind"`
	Lexeme string    `json:"lexeme"`
	Line   int       `json:"line"`
	Column int       `json:"column"` // 1-based, within Line
	Offset int       `json:"offset"` // 0-based byte offset into the source
	Value  int       `json:"value,omitempty"`
}

// Pos returns the token's line and column
func (t Token) Pos() Position {
	return Position{Line: t.Line, Column: t.Column}
}

// End returns the byte offset just past the token
func (t Token) End() int {
	return t.Offset + len(t.Lexeme)
}

// IsEOF reports whether the token marks the end of input
func (t Token) IsEOF() bool {
	return t.Kind == TokenEOF
}

// TokenInfo is the display record of a token: its kind, category and a
// notification that is "OK" unless the token has an invalid shape.
type TokenInfo struct {
	Line         int       `json:"line"`
	Column       int       `json:"column"`
	Offset       int       `json:"offset"`
	Kind         TokenKind `json:"kind"`
	Lexeme       string    `json:"lexeme"`
	Category     Category  `json:"category"`
	Notification string    `json:"notification"`
}

// IsError reports whether the token was classified as an error token
func (ti TokenInfo) IsError() bool {
	return ti.Category == CategoryError
}
