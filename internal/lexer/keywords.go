package lexer

import "github.com/dshills/tonto-mcp/pkg/types"

// Keyword tables. Disjoint, read-only after package initialization.
var (
	classStereotypes = map[string]types.TokenKind{
		"event":               types.TokenEvent,
		"situation":           types.TokenSituation,
		"process":             types.TokenProcess,
		"category":            types.TokenCategory,
		"mixin":               types.TokenMixin,
		"phaseMixin":          types.TokenPhaseMixin,
		"roleMixin":           types.TokenRoleMixin,
		"historicalRoleMixin": types.TokenHistoricalRoleMixin,
		"kind":                types.TokenStereoKind,
		"collective":          types.TokenCollective,
		"quantity":            types.TokenQuantity,
		"quality":             types.TokenQuality,
		"mode":                types.TokenMode,
		"intrinsicMode":       types.TokenIntrinsicMode,
		"extrinsicMode":       types.TokenExtrinsicMode,
		"subkind":             types.TokenSubkind,
		"phase":               types.TokenPhase,
		"role":                types.TokenRole,
		"historicalRole":      types.TokenHistoricalRole,
		"relator":             types.TokenRelator,
	}

	relationStereotypes = map[string]types.TokenKind{
		"material":             types.TokenMaterial,
		"derivation":           types.TokenDerivation,
		"comparative":          types.TokenComparative,
		"mediation":            types.TokenMediation,
		"characterization":     types.TokenCharacterization,
		"externalDependence":   types.TokenExternalDependence,
		"subCollectionOf":      types.TokenSubCollectionOf,
		"subQualityOf":         types.TokenSubQualityOf,
		"componentOf":          types.TokenComponentOf,
		"instantiation":        types.TokenInstantiation,
		"memberOf":             types.TokenMemberOf,
		"termination":          types.TokenTermination,
		"participational":      types.TokenParticipational,
		"participation":        types.TokenParticipation,
		"historicalDependence": types.TokenHistoricalDependence,
		"creation":             types.TokenCreation,
		"manifestation":        types.TokenManifestation,
		"bringsAbout":          types.TokenBringsAbout,
		"triggers":             types.TokenTriggers,
		"composition":          types.TokenComposition,
		"aggregation":          types.TokenAggregation,
		"inherence":            types.TokenInherence,
		"value":                types.TokenValue,
		"formal":               types.TokenFormal,
		"constitution":         types.TokenConstitution,
	}

	reservedWords = map[string]types.TokenKind{
		"genset":               types.TokenGenset,
		"disjoint":             types.TokenDisjoint,
		"complete":             types.TokenComplete,
		"general":              types.TokenGeneral,
		"specifics":            types.TokenSpecifics,
		"where":                types.TokenWhere,
		"package":              types.TokenPackage,
		"import":               types.TokenImport,
		"functional-complexes": types.TokenFunctionalComplexes,
		"enum":                 types.TokenEnum,
		"relation":             types.TokenRelation,
		"overlapping":          types.TokenOverlapping,
		"incomplete":           types.TokenIncomplete,
		"specializes":          types.TokenSpecializes,
		"of":                   types.TokenOf,
		"relators":             types.TokenRelators,
		"intrinsic-modes":      types.TokenIntrinsicModes,
	}

	nativeTypes = map[string]types.TokenKind{
		"number":   types.TokenNumberType,
		"string":   types.TokenStringType,
		"boolean":  types.TokenBooleanType,
		"date":     types.TokenDateType,
		"time":     types.TokenTimeType,
		"datetime": types.TokenDatetimeType,
	}

	metaAttributes = map[string]types.TokenKind{
		"ordered":   types.TokenOrdered,
		"const":     types.TokenConst,
		"derived":   types.TokenDerived,
		"subsets":   types.TokenSubsets,
		"redefines": types.TokenRedefines,
	}
)

// kindCategory maps every keyword kind to its display category
var kindCategory = buildKindCategories()

func buildKindCategories() map[types.TokenKind]types.Category {
	m := make(map[types.TokenKind]types.Category)
	add := func(table map[string]types.TokenKind, c types.Category) {
		for _, k := range table {
			m[k] = c
		}
	}
	add(classStereotypes, types.CategoryClassStereotype)
	add(relationStereotypes, types.CategoryRelationStereotype)
	add(reservedWords, types.CategoryReservedWord)
	add(nativeTypes, types.CategoryNativeType)
	add(metaAttributes, types.CategoryMetaAttribute)

	m[types.TokenClassName] = types.CategoryClassName
	m[types.TokenRelationName] = types.CategoryRelationName
	m[types.TokenInstanceName] = types.CategoryInstanceName
	m[types.TokenCustomDataType] = types.CategoryCustomDataType
	m[types.TokenInteger] = types.CategoryIntegerLiteral
	for k := range invalidNotifications {
		m[k] = types.CategoryError
	}
	return m
}

var invalidNotifications = map[types.TokenKind]string{
	types.TokenInvalidClassName:    "invalid class name: must not contain digits or hyphens",
	types.TokenInvalidRelationName: "invalid relation name: must not contain digits",
	types.TokenInvalidInstanceName: "invalid instance name: digits are only allowed at the end",
	types.TokenInvalidDataType:     "invalid custom datatype: must not contain digits, underscores or hyphens",
}

// LookupKeyword returns the token kind of a reserved spelling. The lookup is
// exact: "Kind" is not a keyword.
func LookupKeyword(lexeme string) (types.TokenKind, bool) {
	for _, table := range []map[string]types.TokenKind{
		classStereotypes, relationStereotypes, reservedWords, nativeTypes, metaAttributes,
	} {
		if k, ok := table[lexeme]; ok {
			return k, true
		}
	}
	return "", false
}

// Classify returns the display category and notification for a token kind.
// Kinds absent from every table are special symbols.
func Classify(kind types.TokenKind) (types.Category, string) {
	if note, ok := invalidNotifications[kind]; ok {
		return types.CategoryError, note
	}
	if c, ok := kindCategory[kind]; ok {
		return c, types.NotificationOK
	}
	return types.CategorySymbol, types.NotificationOK
}

// Info returns the display record of a token
func Info(tok types.Token) types.TokenInfo {
	category, note := Classify(tok.Kind)
	return types.TokenInfo{
		Line:         tok.Line,
		Column:       tok.Column,
		Offset:       tok.Offset,
		Kind:         tok.Kind,
		Lexeme:       tok.Lexeme,
		Category:     category,
		Notification: note,
	}
}

// Describe returns the display records of a token stream
func Describe(tokens []types.Token) []types.TokenInfo {
	infos := make([]types.TokenInfo, len(tokens))
	for i, tok := range tokens {
		infos[i] = Info(tok)
	}
	return infos
}

// IsClassStereotype reports whether kind is one of the class stereotypes
func IsClassStereotype(kind types.TokenKind) bool {
	return kindCategory[kind] == types.CategoryClassStereotype
}

// IsRelationStereotype reports whether kind is one of the relation stereotypes
func IsRelationStereotype(kind types.TokenKind) bool {
	return kindCategory[kind] == types.CategoryRelationStereotype
}

// IsNativeType reports whether kind is a native scalar type
func IsNativeType(kind types.TokenKind) bool {
	return kindCategory[kind] == types.CategoryNativeType
}

// IsMetaAttribute reports whether kind is a meta-attribute
func IsMetaAttribute(kind types.TokenKind) bool {
	return kindCategory[kind] == types.CategoryMetaAttribute
}

// IsInvalid reports whether kind is an invalid-shape identifier
func IsInvalid(kind types.TokenKind) bool {
	_, ok := invalidNotifications[kind]
	return ok
}
