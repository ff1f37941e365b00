package sweep

import (
	"github.com/alanwang67/kvsbench/runner"
	"github.com/alanwang67/kvsbench/stats"
)

// Sweep is the ordered, append-only collection of results of one invocation.
type Sweep struct {
	Name    string
	Results []runner.RunResult
}

// Totals is a fold over the results of a sweep.
type Totals struct {
	Runs       int
	ByStatus   map[runner.Status]int
	Ops        float64
	Commit     float64
	Abort      float64
	Success    int
	Failure    int
	Violations int
	Findings   int
}

// AbortRate of the summed cluster rates, 0 when nothing committed or aborted.
func (t Totals) AbortRate() float64 {
	return stats.AbortRate(t.Commit, t.Abort)
}

// Summarize folds results into totals. It has no side effects.
func Summarize(results []runner.RunResult) Totals {
	t := Totals{ByStatus: make(map[runner.Status]int)}
	for _, r := range results {
		t.Runs++
		t.ByStatus[r.Status]++
		t.Ops += r.Ops()
		t.Commit += r.Commit()
		t.Abort += r.Abort()
		t.Success += r.Transfers.Success
		t.Failure += r.Transfers.Failure
		t.Violations += r.Transfers.Violations
		t.Findings += len(r.Transfers.Findings)
	}
	return t
}
