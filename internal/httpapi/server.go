package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dshills/tonto-mcp/internal/analyzer"
	"github.com/dshills/tonto-mcp/internal/metrics"
	"github.com/dshills/tonto-mcp/internal/searcher"
	"github.com/dshills/tonto-mcp/internal/storage"
	"github.com/dshills/tonto-mcp/pkg/types"
)

// MaxSourceBytes bounds the request body of the analysis endpoints
const MaxSourceBytes = 4 << 20

// Config wires the HTTP server to the rest of the application. Store and
// Searcher are optional; without them the search endpoint is not mounted.
type Config struct {
	Logger   *slog.Logger
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
	Store    storage.Storage
	Searcher *searcher.Searcher
	Timeout  time.Duration
}

// Server serves the analyzer over HTTP
type Server struct {
	config Config
	logger *slog.Logger
	router chi.Router
}

// SourceRequest is the body of the tokenize, parse and analyze endpoints
type SourceRequest struct {
	Source string `json:"source"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SearchResponse is the body of GET /v1/search
type SearchResponse struct {
	Query        string               `json:"query"`
	Results      []types.SearchResult `json:"results"`
	TotalResults int                  `json:"total_results"`
	CacheHit     bool                 `json:"cache_hit"`
	DurationMS   int64                `json:"duration_ms"`
}

// NewServer builds the router
func NewServer(config Config) *Server {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	s := &Server{config: config, logger: config.Logger}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoveryMiddleware(s.logger))
	r.Use(chimw.Timeout(s.config.Timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	if s.config.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chimw.AllowContentType("application/json"))
			r.Post("/tokenize", s.handleTokenize)
			r.Post("/parse", s.handleParse)
			r.Post("/analyze", s.handleAnalyze)
		})
		if s.config.Store != nil && s.config.Searcher != nil {
			r.Get("/search", s.handleSearch)
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleTokenize(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSource(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, analyzer.New().Tokenize(req.Source))
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSource(w, r)
	if !ok {
		return
	}
	start := time.Now()
	result := analyzer.New().Parse(req.Source)
	s.config.Metrics.ObserveAnalysis(time.Since(start), &types.Analysis{
		LexicalErrors: result.LexicalErrors,
		SyntaxErrors:  result.Errors,
	})
	if err := result.DefectError(); err != nil {
		s.logger.Error("Parser defect", "error", err, "requestID", chimw.GetReqID(r.Context()))
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSource(w, r)
	if !ok {
		return
	}
	start := time.Now()
	analysis := analyzer.New().Analyze(req.Source)
	s.config.Metrics.ObserveAnalysis(time.Since(start), analysis)
	respondWithJSON(w, http.StatusOK, analysis)
}

// handleSearch serves GET /v1/search?root=DIR&q=QUERY with optional
// repeatable kind, stereotype and package parameters plus file and limit
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	root, query := q.Get("root"), q.Get("q")
	if root == "" || strings.TrimSpace(query) == "" {
		respondWithError(w, http.StatusBadRequest, "root and q are required")
		return
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	project, err := s.config.Store.GetProject(r.Context(), root)
	if errors.Is(err, storage.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "project not indexed: "+root)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	filters := &storage.SearchFilters{
		Stereotypes: q["stereotype"],
		Packages:    q["package"],
		FilePattern: q.Get("file"),
	}
	for _, k := range q["kind"] {
		filters.Kinds = append(filters.Kinds, types.ElementKind(k))
	}

	resp, err := s.config.Searcher.Search(r.Context(), searcher.SearchRequest{
		ProjectID: project.ID,
		Query:     query,
		Limit:     limit,
		Filters:   filters,
		UseCache:  true,
	})
	if errors.Is(err, searcher.ErrEmptyQuery) || errors.Is(err, types.ErrInvalidElementKind) {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SearchResponse{
		Query:        query,
		Results:      resp.Results,
		TotalResults: resp.TotalResults,
		CacheHit:     resp.CacheHit,
		DurationMS:   resp.Duration.Milliseconds(),
	})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("Request failed", "error", err, "path", r.URL.Path, "requestID", chimw.GetReqID(r.Context()))
	respondWithError(w, http.StatusInternalServerError, "internal error")
}

// decodeSource reads a SourceRequest, answering 400 or 413 on failure
func decodeSource(w http.ResponseWriter, r *http.Request) (*SourceRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxSourceBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req SourceRequest
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "source exceeds "+strconv.Itoa(MaxSourceBytes)+" bytes")
			return nil, false
		}
		respondWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return nil, false
	}
	return &req, true
}

// respondWithError sends an error response with a message
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("request completed",
					"method", r.Method,
					"path", r.URL.Path,
					"duration", time.Since(start),
					"status", ww.Status(),
					"size", ww.BytesWritten(),
					"requestID", chimw.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func recoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						"panic", rvr,
						"stack", string(debug.Stack()),
						"requestID", chimw.GetReqID(r.Context()),
					)
					respondWithError(w, http.StatusInternalServerError, "internal error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
