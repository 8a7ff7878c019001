// Package lexer converts Tonto source text into a classified token stream.
//
// Identifier kinds are decided by lexeme shape only: case of the first
// letter, trailing digits and the "DataType" suffix. Words matching a reserved
// spelling exactly become keyword tokens instead of names, so "kind" is
// always the class stereotype and never a relation name.
//
//	tokens, errs := lexer.Tokenize(src)
//	for _, info := range lexer.Describe(tokens) {
//	    fmt.Println(info.Line, info.Kind, info.Lexeme, info.Category)
//	}
//
// Tokenize never fails. Characters that start no token are reported as
// lexical errors and skipped one at a time. Invalid-shape identifiers such as
// "Class1" are still emitted, with an INVALID_* kind, so the parser can keep
// going.
package lexer
