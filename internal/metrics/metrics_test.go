package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/tonto-mcp/pkg/types"
)

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err, "duplicate registration must fail")
}

func TestObserveAnalysis(t *testing.T) {
	c, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	c.ObserveAnalysis(2*time.Millisecond, &types.Analysis{
		LexicalErrors: []types.ErrorRecord{{Kind: types.ErrorLexical, Code: types.CodeInvalidCharacter}},
		SyntaxErrors: []types.ErrorRecord{
			{Kind: types.ErrorSyntactic, Code: types.CodeUnexpectedToken},
			{Kind: types.ErrorSyntactic, Code: types.CodeUnexpectedToken},
		},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.diagnostics.WithLabelValues("lexical", "invalid_character")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.diagnostics.WithLabelValues("syntactic", "unexpected_token")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.analysisDuration))
}

func TestCounters(t *testing.T) {
	c, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	c.AddFiles(OutcomeIndexed, 3)
	c.AddFiles(OutcomeSkipped, 0)
	c.ObserveIndexRun(time.Second, nil)
	c.ObserveIndexRun(time.Second, errors.New("boom"))
	c.ObserveSearch(true)
	c.ObserveSearch(false)
	c.ObserveSearch(false)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.filesAnalyzed.WithLabelValues(OutcomeIndexed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.indexRuns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.indexRuns.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.searches.WithLabelValues(CacheMiss)))
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveAnalysis(time.Millisecond, &types.Analysis{})
		c.AddFiles(OutcomeFailed, 1)
		c.ObserveIndexRun(time.Second, nil)
		c.ObserveSearch(true)
	})
}
