package stats

import (
	"sort"

	"github.com/alanwang67/kvsbench/logparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultWindow is the trailing window used for per-process medians.
const DefaultWindow = 3

// Median returns the lower median of xs. The second result is false when xs
// is empty, which callers must treat as "no data" rather than zero.
func Median(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil), true
}

// WindowMedian returns the median of the last window samples of series, or
// of the whole series when it is shorter than window.
func WindowMedian(series []float64, window int) (float64, bool) {
	if window > 0 && len(series) > window {
		series = series[len(series)-window:]
	}
	return Median(series)
}

// Aggregator reduces server logs into per-process and cluster rates.
type Aggregator struct {
	Window int
}

func NewAggregator(window int) *Aggregator {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Aggregator{Window: window}
}

// Aggregate computes the per-process trailing-window median of every metric
// and the cluster sum of those medians. Processes are visited in the order
// given; output is deterministic for the same input.
func (a *Aggregator) Aggregate(logs []logparse.ProcessLog) Aggregates {
	var out Aggregates
	perKind := make(map[logparse.MetricKind][]float64, len(logparse.Kinds))
	for _, pl := range logs {
		for _, k := range logparse.Kinds {
			m, ok := WindowMedian(pl.Series[k], a.Window)
			if !ok {
				out.Missing = append(out.Missing, pl.ProcessID+"/"+k.String())
				continue
			}
			perKind[k] = append(perKind[k], m)
			out.Metrics = append(out.Metrics, AggregateMetric{
				Scope:     PerProcess,
				ProcessID: pl.ProcessID,
				Kind:      k,
				Value:     m,
			})
		}
	}
	for _, k := range logparse.Kinds {
		medians, ok := perKind[k]
		if !ok {
			continue
		}
		out.Metrics = append(out.Metrics, AggregateMetric{
			Scope: Cluster,
			Kind:  k,
			Value: floats.Sum(medians),
		})
	}
	return out
}

// Cluster returns the cluster-wide value for kind, if any process reported it.
func (a Aggregates) Cluster(kind logparse.MetricKind) (float64, bool) {
	for _, m := range a.Metrics {
		if m.Scope == Cluster && m.Kind == kind {
			return m.Value, true
		}
	}
	return 0, false
}

// ClusterOrZero is Cluster with "no data" folded to zero, for display and
// persistence only.
func (a Aggregates) ClusterOrZero(kind logparse.MetricKind) float64 {
	v, _ := a.Cluster(kind)
	return v
}

// Process returns the per-process value for kind.
func (a Aggregates) Process(processID string, kind logparse.MetricKind) (float64, bool) {
	for _, m := range a.Metrics {
		if m.Scope == PerProcess && m.ProcessID == processID && m.Kind == kind {
			return m.Value, true
		}
	}
	return 0, false
}

// AbortRate returns abort / (commit + abort) as a percentage. It is 0 when no
// transaction was committed or aborted.
func AbortRate(commit, abort float64) float64 {
	if commit+abort <= 0 {
		return 0
	}
	return abort / (commit + abort) * 100
}

// AbortRate is the cluster abort rate of a.
func (a Aggregates) AbortRate() float64 {
	return AbortRate(a.ClusterOrZero(logparse.Commit), a.ClusterOrZero(logparse.Abort))
}
