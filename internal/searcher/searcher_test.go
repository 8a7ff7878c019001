package searcher

import (
	"context"
	"crypto/sha256"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/tonto-mcp/internal/metrics"
	"github.com/dshills/tonto-mcp/internal/storage"
	"github.com/dshills/tonto-mcp/pkg/types"
)

// setupTestSearcher creates a searcher over in-memory storage seeded with a
// small ontology spread over two files
func setupTestSearcher(t *testing.T, opts ...Option) (*Searcher, storage.Storage, *storage.Project) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	project := &storage.Project{RootPath: "/test/search", IndexVersion: storage.CurrentSchemaVersion}
	require.NoError(t, store.CreateProject(ctx, project))

	seed := map[string][]*storage.Element{
		"people.tonto": {
			{Kind: types.ElementPackage, Name: "People", PackageName: "People", Detail: "package People (3 declarations)", Line: 1},
			{Kind: types.ElementClass, Name: "Person", Stereotype: "kind", PackageName: "People", Detail: "kind Person", Line: 3},
			{Kind: types.ElementClass, Name: "PersonPhase", Stereotype: "phase", PackageName: "People", Detail: "phase PersonPhase specializes Person", Line: 8},
			{Kind: types.ElementAttribute, Name: "name", PackageName: "People", Detail: "Person.name : string", Line: 4},
		},
		"vehicles/cars.tonto": {
			{Kind: types.ElementClass, Name: "Car", Stereotype: "kind", PackageName: "Vehicles", Detail: "kind Car", Line: 3},
			{Kind: types.ElementRelation, Name: "drives", Stereotype: "mediation", PackageName: "Vehicles", Detail: "@mediation Person -- drives -- [0..*] Car", Line: 7},
		},
	}
	for path, elements := range seed {
		file := &storage.File{ProjectID: project.ID, FilePath: path, ContentHash: sha256.Sum256([]byte(path)), ModTime: time.Now()}
		require.NoError(t, store.UpsertFile(ctx, file))
		require.NoError(t, store.ReplaceElements(ctx, file.ID, elements))
	}

	return NewSearcher(store, opts...), store, project
}

func TestNewSearcher(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer store.Close()

	s := NewSearcher(store)
	require.NotNil(t, s)
	assert.Equal(t, store, s.storage)
	assert.Equal(t, 0, s.CacheLen())

	small := NewSearcher(store, WithCacheSize(2))
	for i := 0; i < 5; i++ {
		small.storeInCache(SearchRequest{Query: string(rune('a' + i)), CacheTTL: time.Hour}, &SearchResponse{})
	}
	assert.Equal(t, 2, small.CacheLen())
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name      string
		req       SearchRequest
		wantErr   bool
		wantLimit int
	}{
		{name: "EmptyQuery", req: SearchRequest{Query: ""}, wantErr: true},
		{name: "BlankQuery", req: SearchRequest{Query: "  \t"}, wantErr: true},
		{name: "ZeroLimit_DefaultsTo10", req: SearchRequest{Query: "x"}, wantLimit: 10},
		{name: "NegativeLimit_DefaultsTo10", req: SearchRequest{Query: "x", Limit: -5}, wantLimit: 10},
		{name: "ExcessiveLimit_CapsAt100", req: SearchRequest{Query: "x", Limit: 500}, wantLimit: 100},
		{name: "ValidLimit", req: SearchRequest{Query: "x", Limit: 25}, wantLimit: 25},
		{
			name:    "UnknownKind",
			req:     SearchRequest{Query: "x", Filters: &storage.SearchFilters{Kinds: []types.ElementKind{"struct"}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			err := validateRequest(&req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, req.Limit)
			assert.Equal(t, DefaultCacheTTL, req.CacheTTL)
		})
	}
}

func TestSearch(t *testing.T) {
	s, _, project := setupTestSearcher(t)
	ctx := context.Background()

	t.Run("prefix match", func(t *testing.T) {
		resp, err := s.Search(ctx, SearchRequest{ProjectID: project.ID, Query: "pers"})
		require.NoError(t, err)
		require.NotEmpty(t, resp.Results)
		assert.Equal(t, resp.TotalResults, len(resp.Results))

		for i, r := range resp.Results {
			assert.Equal(t, i+1, r.Rank)
			assert.NoError(t, r.Validate())
		}
	})

	t.Run("results carry location", func(t *testing.T) {
		resp, err := s.Search(ctx, SearchRequest{
			ProjectID: project.ID,
			Query:     "car",
			Filters:   &storage.SearchFilters{Kinds: []types.ElementKind{types.ElementClass}},
		})
		require.NoError(t, err)
		require.Len(t, resp.Results, 1)
		r := resp.Results[0]
		assert.Equal(t, "Car", r.Name)
		assert.Equal(t, "kind", r.Stereotype)
		assert.Equal(t, "vehicles/cars.tonto", r.File.Path)
		assert.Equal(t, 3, r.File.Line)
	})

	t.Run("stereotype filter", func(t *testing.T) {
		resp, err := s.Search(ctx, SearchRequest{
			ProjectID: project.ID,
			Query:     "person",
			Filters:   &storage.SearchFilters{Stereotypes: []string{"mediation"}},
		})
		require.NoError(t, err)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, types.ElementRelation, resp.Results[0].Kind)
		assert.Equal(t, "drives", resp.Results[0].Name)
	})

	t.Run("package filter", func(t *testing.T) {
		resp, err := s.Search(ctx, SearchRequest{
			ProjectID: project.ID,
			Query:     "person",
			Filters:   &storage.SearchFilters{Packages: []string{"People"}},
		})
		require.NoError(t, err)
		for _, r := range resp.Results {
			assert.Equal(t, "people.tonto", r.File.Path)
		}
	})

	t.Run("file pattern filter", func(t *testing.T) {
		resp, err := s.Search(ctx, SearchRequest{
			ProjectID: project.ID,
			Query:     "kind",
			Filters:   &storage.SearchFilters{FilePattern: "vehicles/*"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, resp.Results)
		for _, r := range resp.Results {
			assert.Equal(t, "vehicles/cars.tonto", r.File.Path)
		}
	})

	t.Run("no match", func(t *testing.T) {
		resp, err := s.Search(ctx, SearchRequest{ProjectID: project.ID, Query: "spaceship"})
		require.NoError(t, err)
		assert.Empty(t, resp.Results)
	})

	t.Run("limit", func(t *testing.T) {
		resp, err := s.Search(ctx, SearchRequest{ProjectID: project.ID, Query: "person", Limit: 1})
		require.NoError(t, err)
		assert.Len(t, resp.Results, 1)
	})

	t.Run("operators only", func(t *testing.T) {
		_, err := s.Search(ctx, SearchRequest{ProjectID: project.ID, Query: `"*"`})
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := s.Search(ctx, SearchRequest{ProjectID: project.ID})
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})
}

func TestSearch_Cache(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := metrics.New(reg)
	require.NoError(t, err)

	s, store, project := setupTestSearcher(t, WithMetrics(collector))
	ctx := context.Background()
	req := SearchRequest{ProjectID: project.ID, Query: "person", UseCache: true}

	first, err := s.Search(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, 1, s.CacheLen())

	// mutating a returned response does not leak into the cache
	first.Results[0].File.Path = "mutated"

	second, err := s.Search(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.NotEqual(t, "mutated", second.Results[0].File.Path)

	// stale results are served until the cache is invalidated
	file, err := store.GetFile(ctx, project.ID, "people.tonto")
	require.NoError(t, err)
	require.NoError(t, store.DeleteFile(ctx, file.ID))

	third, err := s.Search(ctx, req)
	require.NoError(t, err)
	assert.True(t, third.CacheHit)

	s.InvalidateCache()
	assert.Equal(t, 0, s.CacheLen())
	fourth, err := s.Search(ctx, req)
	require.NoError(t, err)
	assert.False(t, fourth.CacheHit)
	assert.Less(t, fourth.TotalResults, third.TotalResults)

	expected := `
# HELP tonto_searches_total Element searches, by cache result.
# TYPE tonto_searches_total counter
tonto_searches_total{cache="hit"} 2
tonto_searches_total{cache="miss"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tonto_searches_total"))
}

func TestSearch_CacheExpiry(t *testing.T) {
	s, _, project := setupTestSearcher(t)
	ctx := context.Background()
	req := SearchRequest{ProjectID: project.ID, Query: "car", UseCache: true, CacheTTL: time.Nanosecond}

	_, err := s.Search(ctx, req)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	resp, err := s.Search(ctx, req)
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
}

func TestComputeQueryHash(t *testing.T) {
	base := SearchRequest{
		ProjectID: 1,
		Query:     "person  car",
		Limit:     10,
		Filters:   &storage.SearchFilters{Stereotypes: []string{"kind", "role"}},
	}

	reordered := base
	reordered.Query = " person car "
	reordered.Filters = &storage.SearchFilters{Stereotypes: []string{"role", "kind"}}
	assert.Equal(t, computeQueryHash(base), computeQueryHash(reordered))

	otherProject := base
	otherProject.ProjectID = 2
	assert.NotEqual(t, computeQueryHash(base), computeQueryHash(otherProject))

	otherLimit := base
	otherLimit.Limit = 20
	assert.NotEqual(t, computeQueryHash(base), computeQueryHash(otherLimit))

	otherPattern := base
	otherPattern.Filters = &storage.SearchFilters{Stereotypes: []string{"kind", "role"}, FilePattern: "*.tonto"}
	assert.NotEqual(t, computeQueryHash(base), computeQueryHash(otherPattern))
}

func TestCopySearchResponse(t *testing.T) {
	assert.Nil(t, copySearchResponse(nil))

	src := &SearchResponse{
		Results:      []types.SearchResult{{ElementID: 1, Rank: 1, Name: "Person", File: &types.FileInfo{Path: "a.tonto", Line: 2}}},
		TotalResults: 1,
	}
	dst := copySearchResponse(src)
	require.Len(t, dst.Results, 1)
	dst.Results[0].File.Line = 99
	dst.Results[0].Name = "Other"
	assert.Equal(t, 2, src.Results[0].File.Line)
	assert.Equal(t, "Person", src.Results[0].Name)
}
