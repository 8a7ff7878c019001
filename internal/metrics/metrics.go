// Package metrics exposes Prometheus instruments for analysis and indexing.
//
// A Collector is registered once per process. A nil *Collector is valid and
// records nothing, so library users that do not care about metrics can pass nil.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/tonto-mcp/pkg/types"
)

const namespace = "tonto"

// Collector holds the analyzer's metric instruments
type Collector struct {
	filesAnalyzed    *prometheus.CounterVec
	diagnostics      *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	indexRuns        *prometheus.CounterVec
	indexDuration    prometheus.Histogram
	searches         *prometheus.CounterVec
}

// Outcome labels for file and search counters
const (
	OutcomeIndexed = "indexed"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
	OutcomeRemoved = "removed"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

// New creates a Collector and registers it with reg
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		filesAnalyzed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Source files processed, by outcome.",
		}, []string{"outcome"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Lexical and syntax errors reported, by kind and code.",
		}, []string{"kind", "code"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time to tokenize and parse one source text.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		indexRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_runs_total",
			Help:      "Project indexing runs, by result.",
		}, []string{"result"}),
		indexDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_duration_seconds",
			Help:      "Wall time of a project indexing run.",
			Buckets:   prometheus.DefBuckets,
		}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Element searches, by cache result.",
		}, []string{"cache"}),
	}

	for _, col := range []prometheus.Collector{
		c.filesAnalyzed, c.diagnostics, c.analysisDuration,
		c.indexRuns, c.indexDuration, c.searches,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveAnalysis records the duration and diagnostics of one analysis
func (c *Collector) ObserveAnalysis(d time.Duration, analysis *types.Analysis) {
	if c == nil {
		return
	}
	c.analysisDuration.Observe(d.Seconds())
	if analysis == nil {
		return
	}
	for _, e := range analysis.LexicalErrors {
		c.diagnostics.WithLabelValues(string(e.Kind), string(e.Code)).Inc()
	}
	for _, e := range analysis.SyntaxErrors {
		c.diagnostics.WithLabelValues(string(e.Kind), string(e.Code)).Inc()
	}
}

// AddFiles counts n files with the given outcome
func (c *Collector) AddFiles(outcome string, n int) {
	if c == nil || n == 0 {
		return
	}
	c.filesAnalyzed.WithLabelValues(outcome).Add(float64(n))
}

// ObserveIndexRun records a finished indexing run
func (c *Collector) ObserveIndexRun(d time.Duration, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.indexRuns.WithLabelValues(result).Inc()
	c.indexDuration.Observe(d.Seconds())
}

// ObserveSearch counts a search as a cache hit or miss
func (c *Collector) ObserveSearch(cacheHit bool) {
	if c == nil {
		return
	}
	label := CacheMiss
	if cacheHit {
		label = CacheHit
	}
	c.searches.WithLabelValues(label).Inc()
}
