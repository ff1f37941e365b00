package results

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alanwang67/kvsbench/logparse"
	"github.com/alanwang67/kvsbench/runner"
	"github.com/alanwang67/kvsbench/stats"
	"github.com/alanwang67/kvsbench/verify"
	"github.com/alanwang67/kvsbench/workload"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cluster(ops, commit, abort float64) stats.Aggregates {
	return stats.Aggregates{Metrics: []stats.AggregateMetric{
		{Scope: stats.PerProcess, ProcessID: "0", Kind: logparse.Ops, Value: ops},
		{Scope: stats.Cluster, Kind: logparse.Ops, Value: ops},
		{Scope: stats.Cluster, Kind: logparse.Commit, Value: commit},
		{Scope: stats.Cluster, Kind: logparse.Abort, Value: abort},
	}}
}

func sampleResults() []runner.RunResult {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	theta := runner.RunConfig{Label: "YCSB-A", Servers: 1, Clients: 3, DurationSecs: 30, Workload: workload.YCSBA}.WithTheta(0.99)
	bank := runner.RunConfig{Label: "High_Contention", Servers: 1, Clients: 3, DurationSecs: 30, Workload: workload.Transfer}
	return []runner.RunResult{
		{Config: theta, Timestamp: ts, Status: runner.Completed, Aggregates: cluster(240, 90, 10)},
		{Config: bank, Timestamp: ts, Status: runner.Completed, Aggregates: cluster(50, 40, 10),
			TransferThroughput: 12.5,
			Transfers: verify.TransferStats{
				Success: 10, Failure: 5, Violations: 1, BalanceChecks: 2,
				FinalTotal: 1000, FinalBalances: []int64{400, 600},
				Findings: []verify.Finding{{Kind: verify.ViolationLogged, Source: "0", Line: 3, Detail: "INTEGRITY VIOLATION: x"}},
			}},
		{Config: bank, Timestamp: ts, Status: runner.TimedOut, Notes: []string{"launcher exceeded 1m30s"}},
	}
}

func TestPersistAndReadBack(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s := NewStore(dir)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }

	require.NoError(t, s.Persist("bank_transfer_results", sampleResults()))
	assert.Equal(t, filepath.Join(dir, "bank_transfer_results_1700000000.csv"), s.LastPath)
	_, err := os.Stat(filepath.Join(dir, "bank_transfer_results_1700000000.json"))
	require.NoError(t, err)

	data, err := os.ReadFile(s.LastPath)
	require.NoError(t, err)
	header := strings.SplitN(string(data), "\n", 2)[0]
	assert.Equal(t, strings.Join(Columns, ","), header)

	rows, err := ReadCSV(s.LastPath)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.True(t, rows[0].HasTheta)
	assert.Equal(t, 0.99, rows[0].Theta)
	assert.Equal(t, 10.0, rows[0].AbortRate)
	assert.Equal(t, 240.0, rows[0].OpsPerSec)

	assert.False(t, rows[1].HasTheta)
	assert.Equal(t, []int64{400, 600}, rows[1].FinalBalances)
	assert.Equal(t, 1, rows[1].Violations)
	assert.Equal(t, 12.5, rows[1].TransferThroughput)

	assert.Equal(t, "timed_out", rows[2].Status)
	assert.Empty(t, rows[2].FinalBalances)
}

func TestPersistFailureIsMarked(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	err := NewStore(filepath.Join(blocker, "sub")).Persist("x", sampleResults())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersist))
}

func TestReadCSVOlderThetaFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theta_analysis_1.csv")
	body := "workload,theta,ops_per_sec,commits_per_sec,aborts_per_sec,abort_rate\n" +
		"YCSB-A,0.5,100,80,20,20\n" +
		"YCSB-B,0,50,0,0,0\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	rows, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 80.0, rows[0].SuccessRate())
	assert.Equal(t, 100.0, rows[1].SuccessRate(), "no transactions counts as full success")

	require.NoError(t, os.WriteFile(path, []byte("workload,theta\nYCSB-A,abc\n"), 0644))
	_, err = ReadCSV(path)
	assert.Error(t, err)
}

func TestParseBalances(t *testing.T) {
	b, err := ParseBalances("[2500 2500, 5000]")
	require.NoError(t, err)
	assert.Equal(t, []int64{2500, 2500, 5000}, b)

	b, err = ParseBalances("[]")
	require.NoError(t, err)
	assert.Empty(t, b)

	_, err = ParseBalances("[1, x]")
	assert.Error(t, err)
}

func TestWriteSweepReport(t *testing.T) {
	var buf bytes.Buffer
	WriteSweepReport(&buf, "Bank Transfer Test Summary Report", sampleResults())
	out := buf.String()

	assert.Contains(t, out, "BANK TRANSFER TEST SUMMARY REPORT")
	assert.Contains(t, out, "High_Contention Test Results:")
	assert.Contains(t, out, "Abort Rate: 10.00%")
	assert.Contains(t, out, "WARNING: 1 integrity findings detected!")
	assert.Contains(t, out, "High transfer failure rate: 5/15")
	assert.Contains(t, out, "Final Account Balances: [400, 600]")
	assert.Contains(t, out, "Status: timed_out")
	assert.Contains(t, out, "Sweep totals over 3 runs (completed=2, timed_out=1)")
	assert.Contains(t, out, "total 290 op/s, 130 commit/s, 20 abort/s")
}

func TestWriteNodeReport(t *testing.T) {
	procs := []logparse.ProcessLog{
		{ProcessID: "node0", Series: map[logparse.MetricKind][]float64{
			logparse.Ops: {100, 120, 110, 115, 90}, logparse.Commit: {90}, logparse.Abort: {10},
		}},
		{ProcessID: "node1", Series: map[logparse.MetricKind][]float64{logparse.Ops: {130}}},
	}
	agg := stats.NewAggregator(3).Aggregate(procs)

	var buf bytes.Buffer
	WriteNodeReport(&buf, procs, agg)
	out := buf.String()

	assert.Contains(t, out, "node0 median 110 op/s\n")
	assert.Contains(t, out, "node1 no commit/s data found\n")
	assert.Contains(t, out, "total 240 op/s\n")
	assert.Contains(t, out, "abort rate 10.0%\n")
}

func TestWriteThetaTable(t *testing.T) {
	rows := []Row{
		{Workload: "YCSB-B", Theta: 0.9, CommitsPerSec: 10, AbortsPerSec: 0},
		{Workload: "YCSB-A", Theta: 0.99, CommitsPerSec: 90, AbortsPerSec: 10, AbortRate: 10},
		{Workload: "YCSB-A", Theta: 0, CommitsPerSec: 100},
		{Workload: "YCSB-A", Theta: 0.5, Status: "timed_out"},
	}
	var buf bytes.Buffer
	WriteThetaTable(&buf, rows)
	out := buf.String()
	assert.Equal(t, 4, strings.Count(out, "FAILED"))
	assert.Equal(t, 2, strings.Count(out, "100.0%"), "failed trial must not count as fully successful")

	a := strings.Index(out, "YCSB-A Workload:")
	b := strings.Index(out, "YCSB-B Workload:")
	require.True(t, a >= 0 && b > a, "workloads sorted by name")
	assert.Less(t, strings.Index(out, "0.00"), strings.Index(out, "0.99"))
	assert.Contains(t, out, "90.0%")
}

func TestTrialFailed(t *testing.T) {
	for status, want := range map[string]bool{
		"completed":     false,
		"partial":       false,
		"timed_out":     true,
		"launch_failed": true,
		"":              false,
	} {
		assert.Equal(t, want, Row{Status: status}.TrialFailed(), status)
	}
}

func TestToRowMatchesCSV(t *testing.T) {
	res := sampleResults()[0]
	row := ToRow(res)
	assert.True(t, row.HasTheta)
	assert.Equal(t, 0.99, row.Theta)
	assert.Equal(t, 90.0, row.CommitsPerSec)
	assert.Equal(t, 90.0, row.SuccessRate())
}
