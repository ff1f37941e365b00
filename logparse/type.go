package logparse

// MetricKind identifies one of the rates a kvs server reports periodically.
type MetricKind int

const (
	Ops MetricKind = iota
	Commit
	Abort
)

// Kinds lists every metric kind in the order lines are classified.
var Kinds = []MetricKind{Ops, Commit, Abort}

var metricTags = []string{
	Ops:    "ops/s",
	Commit: "commit/s",
	Abort:  "abort/s",
}

// Tag returns the substring that marks a log line as carrying this metric.
func (k MetricKind) Tag() string {
	return metricTags[k]
}

func (k MetricKind) String() string {
	switch k {
	case Ops:
		return "ops"
	case Commit:
		return "commit"
	case Abort:
		return "abort"
	}
	return "unknown"
}

// Sample is a single rate value read from one log line.
type Sample struct {
	ProcessID string
	Kind      MetricKind
	Value     float64
}

// ProcessLog holds every sample found in one server log, split per metric.
// Each series keeps log line order.
type ProcessLog struct {
	ProcessID string
	Series    map[MetricKind][]float64
}
