package sweep

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/alanwang67/kvsbench/logparse"
	"github.com/alanwang67/kvsbench/runner"
	"github.com/alanwang67/kvsbench/stats"
	"github.com/alanwang67/kvsbench/verify"
	"github.com/alanwang67/kvsbench/workload"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedRunner struct {
	statuses map[int]runner.Status
	calls    []runner.RunConfig
}

func (s *scriptedRunner) Run(ctx context.Context, cfg runner.RunConfig) runner.RunResult {
	n := len(s.calls)
	s.calls = append(s.calls, cfg)
	status := s.statuses[n]
	res := runner.RunResult{Config: cfg, Status: status}
	if !status.Failed() {
		res.Aggregates = stats.Aggregates{Metrics: []stats.AggregateMetric{
			{Scope: stats.Cluster, Kind: logparse.Ops, Value: 100},
			{Scope: stats.Cluster, Kind: logparse.Commit, Value: 90},
			{Scope: stats.Cluster, Kind: logparse.Abort, Value: 10},
		}}
	}
	return res
}

type memStore struct {
	name    string
	results []runner.RunResult
	err     error
}

func (m *memStore) Persist(name string, results []runner.RunResult) error {
	m.name = name
	m.results = results
	return m.err
}

func TestDriverRecordsFailedTrials(t *testing.T) {
	configs := Product(DefaultWorkloads, []float64{0, 0.5, 0.99}, Topology{Servers: 1, Clients: 3, DurationSecs: 30})
	require.Len(t, configs, 6)

	r := &scriptedRunner{statuses: map[int]runner.Status{2: runner.TimedOut}}
	store := &memStore{}
	var out bytes.Buffer

	sw, err := NewDriver(r, store, 0, &out).Run(context.Background(), "theta", configs)
	require.NoError(t, err)

	require.Len(t, sw.Results, 6)
	assert.Equal(t, configs, r.calls, "trials run in order")
	assert.Equal(t, runner.TimedOut, sw.Results[2].Status)
	assert.Equal(t, "theta", store.name)
	assert.Len(t, store.results, 6)

	totals := Summarize(sw.Results)
	assert.Equal(t, 5, totals.ByStatus[runner.Completed])
	assert.Equal(t, 1, totals.ByStatus[runner.TimedOut])
	assert.Equal(t, 450.0, totals.Commit)
	assert.Equal(t, 10.0, totals.AbortRate())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], "[1/6] YCSB-A theta=0")
	assert.Contains(t, lines[0], "90 commit/s, 10.0% aborts")
	assert.Contains(t, lines[2], "FAILED (timed_out)")
}

func TestDriverKeepsResultsWhenPersistFails(t *testing.T) {
	r := &scriptedRunner{}
	store := &memStore{err: errors.New("disk full")}

	sw, err := NewDriver(r, store, 0, nil).Run(context.Background(), "bank", BankMatrix(30))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Len(t, sw.Results, 3)
}

func TestDriverStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &scriptedRunner{}

	sw, err := NewDriver(r, &memStore{}, 0, nil).Run(ctx, "x", BankMatrix(1))
	require.NoError(t, err)
	assert.Empty(t, sw.Results)
	assert.Empty(t, r.calls)
}

func TestBankMatrix(t *testing.T) {
	m := BankMatrix(30)
	require.Len(t, m, 3)
	assert.Equal(t, "High_Contention", m[1].Label)
	assert.Equal(t, 1, m[1].Servers)
	assert.Equal(t, 3, m[1].Clients)
	for _, c := range m {
		assert.Equal(t, workload.Transfer, c.Workload)
		assert.Nil(t, c.Theta)
		assert.NoError(t, c.Validate())
	}
}

func TestSummarizeFindings(t *testing.T) {
	res := []runner.RunResult{
		{Status: runner.Completed, Transfers: verify.TransferStats{
			Success: 10, Failure: 2, Violations: 1,
			Findings: []verify.Finding{{Kind: verify.ViolationLogged}},
		}},
		{Status: runner.LaunchFailed},
	}
	totals := Summarize(res)
	assert.Equal(t, 2, totals.Runs)
	assert.Equal(t, 10, totals.Success)
	assert.Equal(t, 1, totals.Violations)
	assert.Equal(t, 1, totals.Findings)
	assert.Zero(t, totals.AbortRate())
}

func TestProductSkipsThetaForTransfers(t *testing.T) {
	configs := Product([]workload.Name{workload.YCSBB, workload.Transfer}, []float64{0, 0.9}, Topology{Servers: 2, Clients: 2, DurationSecs: 10})
	require.Len(t, configs, 3)
	assert.Equal(t, 0.9, *configs[1].Theta)
	assert.Nil(t, configs[2].Theta)
	assert.Equal(t, "-workload xfer -secs 10", configs[2].ClientArgs())
}
