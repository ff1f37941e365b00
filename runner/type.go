package runner

import (
	"fmt"
	"time"

	"github.com/alanwang67/kvsbench/logparse"
	"github.com/alanwang67/kvsbench/stats"
	"github.com/alanwang67/kvsbench/verify"
	"github.com/alanwang67/kvsbench/workload"
	"github.com/cockroachdb/errors"
)

// RunConfig identifies one trial. It is not modified after construction.
type RunConfig struct {
	Label        string
	Servers      int
	Clients      int
	DurationSecs int
	Workload     workload.Name
	Theta        *float64 // nil when the trial does not sweep skew
	ServerArgs   string
}

// WithTheta returns a copy of c with theta set.
func (c RunConfig) WithTheta(theta float64) RunConfig {
	c.Theta = &theta
	return c
}

// ClientArgs is the argument string handed to every client process.
func (c RunConfig) ClientArgs() string {
	return workload.ClientArgs(c.Workload, c.Theta, c.DurationSecs)
}

func (c RunConfig) Validate() error {
	switch {
	case c.Servers < 1:
		return errors.Newf("run %q: need at least one server, got %d", c.Label, c.Servers)
	case c.Clients < 1:
		return errors.Newf("run %q: need at least one client, got %d", c.Label, c.Clients)
	case c.DurationSecs <= 0:
		return errors.Newf("run %q: duration must be positive, got %d", c.Label, c.DurationSecs)
	case c.Workload == "":
		return errors.Newf("run %q: no workload", c.Label)
	}
	if c.Theta != nil {
		return errors.Wrapf(workload.ValidateTheta(*c.Theta), "run %q", c.Label)
	}
	return nil
}

func (c RunConfig) String() string {
	s := fmt.Sprintf("%s workload=%s servers=%d clients=%d secs=%d",
		c.Label, c.Workload, c.Servers, c.Clients, c.DurationSecs)
	if c.Theta != nil {
		s += fmt.Sprintf(" theta=%g", *c.Theta)
	}
	return s
}

// Status is the terminal state of a trial.
type Status int

const (
	Completed Status = iota
	PartialData
	TimedOut
	LaunchFailed
)

var statusNames = []string{
	Completed:    "completed",
	PartialData:  "partial",
	TimedOut:     "timed_out",
	LaunchFailed: "launch_failed",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Failed reports whether the trial produced no measurements at all.
func (s Status) Failed() bool {
	return s == TimedOut || s == LaunchFailed
}

// State is a step of the per-trial state machine.
type State int

const (
	Pending State = iota
	Launching
	AwaitingFlush
	Parsing
	Aggregating
	Done
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Launching:
		return "launching"
	case AwaitingFlush:
		return "awaiting-flush"
	case Parsing:
		return "parsing"
	case Aggregating:
		return "aggregating"
	case Done:
		return "done"
	}
	return "unknown"
}

// RunResult is everything measured for one trial. It is created once at the
// end of the trial and never mutated afterwards.
type RunResult struct {
	Config             RunConfig
	Timestamp          time.Time
	Status             Status
	Aggregates         stats.Aggregates
	Transfers          verify.TransferStats
	TransferThroughput float64
	// Notes explains a non-Completed status.
	Notes []string
}

func (r RunResult) Ops() float64    { return r.Aggregates.ClusterOrZero(logparse.Ops) }
func (r RunResult) Commit() float64 { return r.Aggregates.ClusterOrZero(logparse.Commit) }
func (r RunResult) Abort() float64  { return r.Aggregates.ClusterOrZero(logparse.Abort) }

// AbortRate is the cluster abort percentage, 0 when nothing committed or aborted.
func (r RunResult) AbortRate() float64 { return r.Aggregates.AbortRate() }
