package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/tonto-mcp/internal/indexer"
	"github.com/dshills/tonto-mcp/internal/metrics"
	"github.com/dshills/tonto-mcp/internal/searcher"
	"github.com/dshills/tonto-mcp/internal/storage"
	"github.com/dshills/tonto-mcp/pkg/types"
)

const personSource = "package People\nkind Person {\n  name : string\n}\nsubkind Child specializes Person\n"

func newTestServer(t *testing.T) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	collector, err := metrics.New(reg)
	require.NoError(t, err)
	return NewServer(Config{Metrics: collector, Gatherer: reg}), reg
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sourceBody(t *testing.T, src string) string {
	t.Helper()
	data, err := json.Marshal(SourceRequest{Source: src})
	require.NoError(t, err)
	return string(data)
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestTokenize(t *testing.T) {
	s, _ := newTestServer(t)
	rec := postJSON(t, s, "/v1/tokenize", sourceBody(t, "kind Person"))
	require.Equal(t, http.StatusOK, rec.Code)

	var result types.TokenizeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.GreaterOrEqual(t, len(result.Tokens), 2)
	assert.Equal(t, "kind", result.Tokens[0].Lexeme)
	assert.Equal(t, "Person", result.Tokens[1].Lexeme)
	assert.Empty(t, result.Errors)
}

func TestParse(t *testing.T) {
	s, reg := newTestServer(t)

	t.Run("valid source", func(t *testing.T) {
		rec := postJSON(t, s, "/v1/parse", sourceBody(t, personSource))
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Summary struct {
				Classes []struct {
					Name       string `json:"name"`
					Stereotype string `json:"stereotype"`
				} `json:"classes"`
			} `json:"summary"`
			Errors []types.ErrorRecord `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Summary.Classes, 2)
		assert.Equal(t, "Person", body.Summary.Classes[0].Name)
		assert.Equal(t, "subkind", body.Summary.Classes[1].Stereotype)
		assert.Empty(t, body.Errors)
	})

	t.Run("syntax errors are not HTTP errors", func(t *testing.T) {
		rec := postJSON(t, s, "/v1/parse", sourceBody(t, "package P\nkind Person { weight : }"))
		require.Equal(t, http.StatusOK, rec.Code)

		var result types.ParseResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		require.NotEmpty(t, result.Errors)
		assert.Equal(t, types.ErrorSyntactic, result.Errors[0].Kind)
		assert.NotEmpty(t, result.Errors[0].Suggestion)
	})

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "tonto_analysis_duration_seconds" {
			found = true
			assert.Equal(t, uint64(2), f.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
	assert.True(t, found)
}

func TestAnalyze(t *testing.T) {
	s, _ := newTestServer(t)
	rec := postJSON(t, s, "/v1/analyze", sourceBody(t, "package P\nkind Class1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var analysis types.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	assert.NotEmpty(t, analysis.Tokens)
	assert.NotEmpty(t, analysis.LexicalErrors)
}

func TestRequestErrors(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name        string
		body        string
		contentType string
		want        int
	}{
		{"malformed json", `{"source":`, "application/json", http.StatusBadRequest},
		{"unknown field", `{"text":"kind A"}`, "application/json", http.StatusBadRequest},
		{"wrong content type", `source=kind`, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"too large", sourceBody(t, strings.Repeat("a", MaxSourceBytes+1)), "application/json", http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/tokenize", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	postJSON(t, s, "/v1/analyze", sourceBody(t, "kind"))

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tonto_analysis_duration_seconds")
	assert.Contains(t, rec.Body.String(), "tonto_diagnostics_total")
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/v1/parse", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSearch(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer store.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "people.tonto"), []byte(personSource), 0o644))
	_, err = indexer.New(store).IndexProject(context.Background(), dir, nil)
	require.NoError(t, err)

	s := NewServer(Config{Store: store, Searcher: searcher.NewSearcher(store)})

	get := func(params url.Values) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/search?"+params.Encode(), nil))
		return rec
	}

	t.Run("results", func(t *testing.T) {
		rec := get(url.Values{"root": {dir}, "q": {"person"}, "kind": {"class"}})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp SearchResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.Results)
		for _, r := range resp.Results {
			assert.Equal(t, types.ElementClass, r.Kind)
			assert.Equal(t, "people.tonto", r.File.Path)
		}
	})

	t.Run("missing query", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, get(url.Values{"root": {dir}}).Code)
	})

	t.Run("bad limit", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, get(url.Values{"root": {dir}, "q": {"x"}, "limit": {"ten"}}).Code)
	})

	t.Run("bad kind", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, get(url.Values{"root": {dir}, "q": {"x"}, "kind": {"struct"}}).Code)
	})

	t.Run("unknown project", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get(url.Values{"root": {t.TempDir()}, "q": {"x"}}).Code)
	})
}

func TestSearch_NotMountedWithoutStore(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/search?root=/x&q=y", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
