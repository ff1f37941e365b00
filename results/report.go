package results

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/alanwang67/kvsbench/logparse"
	"github.com/alanwang67/kvsbench/runner"
	"github.com/alanwang67/kvsbench/stats"
	"github.com/alanwang67/kvsbench/sweep"
	"github.com/alanwang67/kvsbench/workload"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// highFailureShare flags runs where failed transfers exceed this share of
// successful ones.
const highFailureShare = 0.1

var (
	warnStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	rule      = strings.Repeat("=", 80)
)

// WriteNodeReport prints the per-node medians and cluster totals of one log
// directory, one line per node and metric.
func WriteNodeReport(w io.Writer, procs []logparse.ProcessLog, agg stats.Aggregates) {
	units := map[logparse.MetricKind]string{
		logparse.Ops:    "op/s",
		logparse.Commit: "commit/s",
		logparse.Abort:  "abort/s",
	}
	for _, p := range procs {
		for _, k := range logparse.Kinds {
			if v, ok := agg.Process(p.ProcessID, k); ok {
				fmt.Fprintf(w, "%s median %.0f %s\n", p.ProcessID, v, units[k])
			} else {
				fmt.Fprintf(w, "%s no %s data found\n", p.ProcessID, k.Tag())
			}
		}
	}
	fmt.Fprintln(w)
	for _, k := range logparse.Kinds {
		fmt.Fprintf(w, "total %.0f %s\n", agg.ClusterOrZero(k), units[k])
	}
	commit, abort := agg.ClusterOrZero(logparse.Commit), agg.ClusterOrZero(logparse.Abort)
	if commit+abort > 0 {
		fmt.Fprintf(w, "abort rate %.1f%%\n", stats.AbortRate(commit, abort))
	}
}

// WriteRunReport prints the detailed block for one run.
func WriteRunReport(w io.Writer, r runner.RunResult) {
	c := r.Config
	fmt.Fprintf(w, "\n%s Test Results:\n", c.Label)
	fmt.Fprintf(w, "  Configuration: %d servers, %d clients, workload %s", c.Servers, c.Clients, c.Workload)
	if c.Theta != nil {
		fmt.Fprintf(w, ", theta %g", *c.Theta)
	}
	fmt.Fprintf(w, "\n  Status: %s\n", r.Status)
	for _, n := range r.Notes {
		fmt.Fprintf(w, "    note: %s\n", n)
	}
	if r.Status.Failed() {
		fmt.Fprintln(w, strings.Repeat("-", 60))
		return
	}

	t := r.Transfers
	fmt.Fprintf(w, "  Ops/s: %.2f\n", r.Ops())
	fmt.Fprintf(w, "  Commits/s: %.2f\n", r.Commit())
	fmt.Fprintf(w, "  Aborts/s: %.2f\n", r.Abort())
	fmt.Fprintf(w, "  Abort Rate: %.2f%%\n", r.AbortRate())
	if c.Workload == workload.Transfer || t.Total() > 0 || t.BalanceChecks > 0 {
		fmt.Fprintf(w, "  Transfer Throughput: %.2f ops/s\n", r.TransferThroughput)
		fmt.Fprintf(w, "  Successful Transfers: %d\n", t.Success)
		fmt.Fprintf(w, "  Failed Transfers: %d\n", t.Failure)
		fmt.Fprintf(w, "  Integrity Violations: %d\n", t.Violations)
		fmt.Fprintf(w, "  Balance Checks: %d\n", t.BalanceChecks)
		fmt.Fprintf(w, "  Final Account Balances: %s\n", FormatBalances(t.FinalBalances))

		if len(t.Findings) > 0 {
			fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  WARNING: %d integrity findings detected!", len(t.Findings))))
			for _, f := range t.Findings {
				fmt.Fprintf(w, "    %s\n", f)
			}
		} else {
			fmt.Fprintln(w, okStyle.Render("  No integrity violations - money conservation maintained"))
		}
		if float64(t.Failure) > float64(t.Success)*highFailureShare {
			fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  High transfer failure rate: %d/%d", t.Failure, t.Total())))
		}
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))
}

// WriteSweepReport prints every run followed by the sweep totals.
func WriteSweepReport(w io.Writer, title string, results []runner.RunResult) {
	fmt.Fprintf(w, "\n%s\n%s\n%s\n", rule, strings.ToUpper(title), rule)
	for _, r := range results {
		WriteRunReport(w, r)
	}
	WriteTotals(w, sweep.Summarize(results))
}

// WriteTotals prints the sweep-wide fold.
func WriteTotals(w io.Writer, t sweep.Totals) {
	statuses := make([]runner.Status, 0, len(t.ByStatus))
	for s := range t.ByStatus {
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
	var parts []string
	for _, s := range statuses {
		parts = append(parts, fmt.Sprintf("%s=%d", s, t.ByStatus[s]))
	}

	fmt.Fprintf(w, "\nSweep totals over %d runs (%s)\n", t.Runs, strings.Join(parts, ", "))
	fmt.Fprintf(w, "  total %.0f op/s, %.0f commit/s, %.0f abort/s, abort rate %.1f%%\n",
		t.Ops, t.Commit, t.Abort, t.AbortRate())
	fmt.Fprintf(w, "  transfers %d ok, %d failed\n", t.Success, t.Failure)
	if t.Findings > 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  %d integrity findings (%d logged violations)", t.Findings, t.Violations)))
	}
}

// WriteThetaTable prints, per workload, one line per theta sorted ascending.
// Failed trials show FAILED instead of rates.
func WriteThetaTable(w io.Writer, rows []Row) {
	byWorkload := make(map[string][]Row)
	for _, r := range rows {
		byWorkload[r.Workload] = append(byWorkload[r.Workload], r)
	}
	names := make([]string, 0, len(byWorkload))
	for name := range byWorkload {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "\n%s\nTHETA ANALYSIS SUMMARY TABLE\n%s\n", rule, rule)
	for _, name := range names {
		rs := byWorkload[name]
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Theta < rs[j].Theta })

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Theta", "Commits/s", "Aborts/s", "Abort Rate", "Success Rate")
		for _, r := range rs {
			if r.TrialFailed() {
				t.Row(fmt.Sprintf("%.2f", r.Theta), "FAILED", "FAILED", "FAILED", "FAILED")
				continue
			}
			t.Row(
				fmt.Sprintf("%.2f", r.Theta),
				fmt.Sprintf("%.0f", r.CommitsPerSec),
				fmt.Sprintf("%.0f", r.AbortsPerSec),
				fmt.Sprintf("%.1f%%", r.AbortRate),
				fmt.Sprintf("%.1f%%", r.SuccessRate()),
			)
		}
		fmt.Fprintf(w, "\n%s Workload:\n%s\n", name, t.Render())
	}
}
