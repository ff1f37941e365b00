package stats

import (
	"testing"

	"github.com/alanwang67/kvsbench/logparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowMedian(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		want   float64
		ok     bool
	}{
		{"empty is no data", nil, 0, false},
		{"single", []float64{5}, 5, true},
		{"two takes lower", []float64{8, 3}, 3, true},
		{"three", []float64{3, 1, 2}, 2, true},
		{"trailing window", []float64{100, 120, 110, 115, 90}, 110, true},
		{"spike before window ignored", []float64{10000, 1, 2, 3}, 2, true},
		{"zero is data", []float64{0, 0, 0}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := WindowMedian(tt.series, DefaultWindow)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindowMedianDoesNotReorderInput(t *testing.T) {
	series := []float64{3, 1, 2}
	_, _ = WindowMedian(series, DefaultWindow)
	assert.Equal(t, []float64{3, 1, 2}, series)
}

func TestAggregateSumsProcessMedians(t *testing.T) {
	logs := []logparse.ProcessLog{
		{ProcessID: "node0", Series: map[logparse.MetricKind][]float64{
			logparse.Ops:    {100, 120, 110, 115, 90},
			logparse.Commit: {90},
			logparse.Abort:  {10},
		}},
		{ProcessID: "node1", Series: map[logparse.MetricKind][]float64{
			logparse.Ops: {130, 130, 130},
		}},
	}

	agg := NewAggregator(0).Aggregate(logs)

	v, ok := agg.Process("node0", logparse.Ops)
	require.True(t, ok)
	assert.Equal(t, 110.0, v)

	ops, ok := agg.Cluster(logparse.Ops)
	require.True(t, ok)
	assert.Equal(t, 240.0, ops)

	assert.Equal(t, 10.0, agg.AbortRate())
	assert.Equal(t, []string{"node1/commit", "node1/abort"}, agg.Missing)
}

func TestAggregateNoDataIsDistinctFromZero(t *testing.T) {
	agg := NewAggregator(3).Aggregate([]logparse.ProcessLog{
		{ProcessID: "a", Series: map[logparse.MetricKind][]float64{logparse.Commit: {0}}},
	})

	_, ok := agg.Cluster(logparse.Ops)
	assert.False(t, ok, "ops never reported")

	commit, ok := agg.Cluster(logparse.Commit)
	assert.True(t, ok)
	assert.Zero(t, commit)
}

func TestAggregateIsDeterministic(t *testing.T) {
	logs := []logparse.ProcessLog{
		{ProcessID: "x", Series: map[logparse.MetricKind][]float64{
			logparse.Ops:    {1.1, 2.2, 3.3, 4.4},
			logparse.Commit: {0.3, 0.1, 0.2},
			logparse.Abort:  {7},
		}},
	}
	a := NewAggregator(3)
	assert.Equal(t, a.Aggregate(logs), a.Aggregate(logs))
}

func TestAbortRate(t *testing.T) {
	assert.Equal(t, 10.0, AbortRate(90, 10))
	assert.Equal(t, 0.0, AbortRate(0, 0))
	assert.Equal(t, 100.0, AbortRate(0, 5))
	assert.Equal(t, 0.0, AbortRate(50, 0))
}
