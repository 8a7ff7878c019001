// Package types provides shared type definitions for the Tonto analyzer.
//
// This package defines the domain types used across the lexer, parser,
// storage, indexer and transport layers: tokens, the structural model of an
// ontology, diagnostics and search results.
//
// # Tokens
//
// Token is an immutable lexical unit. Its Kind is one of the TokenKind
// constants; identifier kinds are decided purely by lexeme shape:
//
//	Person          CLASS_NAME
//	person1         INSTANCE_NAME
//	WeightDataType  CUSTOM_DATATYPE
//	Class1          INVALID_CLASS_NAME
//	kind            KIND (class stereotype, never a relation name)
//
// TokenInfo adds the display Category and a notification that is "OK" for
// well-formed tokens.
//
// # Structural Model
//
// A parse produces a Summary grouping every entity by kind in order of
// appearance:
//
//	summary.Packages            // *Package, each with ordered Declarations
//	summary.Classes             // *Class with stereotype, parents and members
//	summary.DataTypes           // *DataType, name ends in "DataType"
//	summary.Enums               // *Enum
//	summary.GeneralizationSets  // *GeneralizationSet
//	summary.Relations           // *Relation, internal and external
//	summary.Attributes          // *Attribute of classes and datatypes
//
// Every relation carries the RelationForm it was written in, so the optional
// pieces present (stereotype, name, source and target cardinality) are
// explicit rather than inferred:
//
//	rel.Form == types.FormInternalStereoNameArrowTC // "S n -- [b] Target"
//
// A Cardinality with Max == Unbounded was written with "*". A nil
// *Cardinality means no brackets were written, which is distinct from [*].
//
// # Diagnostics
//
// Malformed input never produces a Go error. Lexical and syntax problems are
// ErrorRecord values carrying a message and a corrective suggestion:
//
//	result := parser.New().Parse(src)
//	for _, e := range result.AllErrors() {
//	    fmt.Printf("%d:%d %s (%s)\n", e.Line, e.Column, e.Message, e.Suggestion)
//	}
//
// The only Go error a parse can surface is ErrGrammarDefect, returned by
// ParseResult.DefectError when the parser hit an internal invariant violation.
package types
