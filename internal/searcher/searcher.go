package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/tonto-mcp/internal/metrics"
	"github.com/dshills/tonto-mcp/internal/storage"
	"github.com/dshills/tonto-mcp/pkg/types"
)

const (
	DefaultLimit     = 10
	MaxLimit         = 100
	DefaultCacheSize = 1000
	DefaultCacheTTL  = time.Hour
)

// ErrEmptyQuery is returned for a query with no search terms
var ErrEmptyQuery = errors.New("query cannot be empty")

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	Query     string
	Limit     int
	Filters   *storage.SearchFilters
	ProjectID int64
	UseCache  bool // Whether to use query cache
	CacheTTL  time.Duration
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results      []types.SearchResult
	TotalResults int
	Duration     time.Duration
	CacheHit     bool
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher runs element searches against storage with an LRU response cache
type Searcher struct {
	storage storage.Storage
	metrics *metrics.Collector
	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
}

// Option configures a Searcher
type Option func(*Searcher)

// WithMetrics counts searches and cache hits on c
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Searcher) { s.metrics = c }
}

// WithCacheSize replaces the default cache capacity
func WithCacheSize(n int) Option {
	return func(s *Searcher) {
		if n <= 0 {
			return
		}
		if cache, err := lru.New[[32]byte, *cacheEntry](n); err == nil {
			s.cache = cache
		}
	}
}

// NewSearcher creates a new Searcher instance
func NewSearcher(store storage.Storage, opts ...Option) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](DefaultCacheSize)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	s := &Searcher{storage: store, cache: cache}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search performs a search based on the request parameters
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if err := validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	if req.UseCache {
		if cached := s.checkCache(req); cached != nil {
			s.metrics.ObserveSearch(true)
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}
	s.metrics.ObserveSearch(false)

	found, err := s.storage.SearchElements(ctx, req.ProjectID, req.Query, req.Limit, req.Filters)
	if err != nil {
		if errors.Is(err, storage.ErrEmptyQuery) {
			return nil, fmt.Errorf("invalid search request: %w", ErrEmptyQuery)
		}
		return nil, err
	}

	results := make([]types.SearchResult, len(found))
	for i, r := range found {
		results[i] = types.SearchResult{
			ElementID:  r.Element.ID,
			Rank:       i + 1,
			Score:      r.Score,
			Kind:       r.Element.Kind,
			Name:       r.Element.Name,
			Stereotype: r.Element.Stereotype,
			Detail:     r.Element.Detail,
			File:       &types.FileInfo{Path: r.FilePath, Line: r.Element.Line},
		}
	}

	response := &SearchResponse{
		Results:      results,
		TotalResults: len(results),
		Duration:     time.Since(startTime),
	}

	if req.UseCache && len(response.Results) > 0 {
		s.storeInCache(req, response)
	}
	return response, nil
}

// validateRequest ensures search request is valid and applies defaults
func validateRequest(req *SearchRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return ErrEmptyQuery
	}

	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	if req.CacheTTL == 0 {
		req.CacheTTL = DefaultCacheTTL
	}

	if req.Filters != nil {
		for _, k := range req.Filters.Kinds {
			if !k.Valid() {
				return fmt.Errorf("%w: %q", types.ErrInvalidElementKind, k)
			}
		}
	}
	return nil
}

// checkCache returns a copy of an unexpired cached response, or nil
func (s *Searcher) checkCache(req SearchRequest) *SearchResponse {
	hash := computeQueryHash(req)

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}
	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()

	return response
}

func (s *Searcher) storeInCache(req SearchRequest, response *SearchResponse) {
	entry := &cacheEntry{
		response:  copySearchResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(computeQueryHash(req), entry)
	s.cacheMu.Unlock()
}

// copySearchResponse creates a deep copy of a SearchResponse
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}

	dst := &SearchResponse{
		TotalResults: src.TotalResults,
		Duration:     src.Duration,
		CacheHit:     src.CacheHit,
		Results:      make([]types.SearchResult, len(src.Results)),
	}
	for i, result := range src.Results {
		dst.Results[i] = result
		if result.File != nil {
			fileCopy := *result.File
			dst.Results[i].File = &fileCopy
		}
	}
	return dst
}

// computeQueryHash hashes the normalized request. Filter lists are sorted so
// that their order does not split the cache.
func computeQueryHash(req SearchRequest) [32]byte {
	var data strings.Builder
	data.WriteString(strings.Join(strings.Fields(req.Query), " "))
	fmt.Fprintf(&data, "|%d|%d", req.ProjectID, req.Limit)

	if f := req.Filters; f != nil {
		kinds := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			kinds[i] = string(k)
		}
		data.WriteString("|filters:")
		data.WriteString(sortedJoin(kinds))
		data.WriteString("|")
		data.WriteString(sortedJoin(f.Stereotypes))
		data.WriteString("|")
		data.WriteString(sortedJoin(f.Packages))
		data.WriteString("|")
		data.WriteString(f.FilePattern)
	}

	return sha256.Sum256([]byte(data.String()))
}

func sortedJoin(values []string) string {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return strings.Join(sorted, ",")
}

// InvalidateCache drops every cached response. It is called after a project is
// re-indexed; the LRU cache cannot filter by project so the whole cache goes.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// CacheLen reports the number of cached responses
func (s *Searcher) CacheLen() int {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.cache.Len()
}
