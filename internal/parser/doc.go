// Package parser implements the Tonto grammar engine.
//
// The parser is a predictive recursive-descent parser over the token stream
// produced by the lexer. Each production dispatches on its first token; the
// Go call stack plays the role of the parse stack.
//
// # Basic Usage
//
//	p := parser.New()
//	result := p.Parse(src)
//
//	for _, class := range result.Summary.Classes {
//	    fmt.Printf("%s %s\n", class.Stereotype, class.Name)
//	}
//
// # Relation Forms
//
// Relations admit many shorthand spellings that differ only in which
// optional pieces are present. While parsing a relation the engine records
// those pieces as a shape and maps it through an explicit table to a
// types.RelationForm:
//
//	@mediation [1..*] -- [1] Patient    "S [a] -- [b] Target"
//	-- involves -- [1] Car              "-- n -- [b] Target"
//	material relation A [1] -- B        "S Source [a] -- Target"
//
// A shape missing from the table is a grammar defect. It is reported in
// ParseResult.Defects, never as a user diagnostic.
//
// # Standalone Stereotypes
//
// A relation stereotype written alone inside a class body ("@mediation")
// applies to the member right after it when that member is an internal
// relation without a stereotype. Otherwise the marker is dropped.
//
// # Error Handling
//
// Parse never fails. On an unexpected token the parser records one error
// with a suggestion, discards tokens until one that can resume the current
// construct (a member start or "}" in bodies, a declaration start or "}" at
// package level) and carries on:
//
//	result := p.Parse("package P\nkind Person { weight : }")
//	// result.Errors[0] points at "}"
//	// result.Summary.Classes still contains Person
//
// Invalid-shape identifiers such as "Class1" are accepted where a valid
// identifier is expected and flagged in ParseResult.LexicalErrors.
package parser
