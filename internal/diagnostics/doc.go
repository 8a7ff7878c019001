// Package diagnostics turns parser events into user-facing error records.
//
// Guidance text lives in a table keyed by token kind and is independent of
// the parser's recovery logic: the parser decides where to resynchronize, this
// package only decides what to say.
package diagnostics
