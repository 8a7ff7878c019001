// Package searcher finds indexed ontology elements by keyword.
//
// Queries go to the SQLite FTS5 index over element names, stereotypes and
// rendered details. Every whitespace separated term must match, and each term
// also matches as a prefix, so "pers" finds Person and "med" finds mediation
// relations. Results are ordered by bm25 relevance.
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    ProjectID: project.ID,
//	    Query:     "person",
//	    Limit:     10,
//	    Filters: &storage.SearchFilters{
//	        Kinds:       []types.ElementKind{types.ElementClass},
//	        Stereotypes: []string{"kind", "subkind"},
//	    },
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("[%d] %s %s  %s:%d\n", r.Rank, r.Kind, r.Name, r.File.Path, r.File.Line)
//	}
//
// # Caching
//
// With UseCache set, responses are kept in an LRU cache keyed by a hash of
// the normalized request and expire after CacheTTL (one hour by default).
// Callers invalidate the cache after re-indexing.
package searcher
