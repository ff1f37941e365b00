package stats

import "github.com/alanwang67/kvsbench/logparse"

// Scope says whether an AggregateMetric describes one process or the cluster.
type Scope int

const (
	PerProcess Scope = iota
	Cluster
)

// AggregateMetric is a stabilized rate. ProcessID is empty for Cluster scope.
type AggregateMetric struct {
	Scope     Scope
	ProcessID string
	Kind      logparse.MetricKind
	Value     float64
}

// Aggregates is the outcome of reducing every server log of one run.
type Aggregates struct {
	Metrics []AggregateMetric
	// Missing lists "<process>/<metric>" pairs whose series was empty.
	Missing []string
}
