package results

import (
	"encoding/json"
	"os"
	"time"

	"github.com/alanwang67/kvsbench/runner"
	"github.com/cockroachdb/errors"
)

// processRecord is one per-process median in the JSON dataset.
type processRecord struct {
	Process string  `json:"process"`
	Metric  string  `json:"metric"`
	Value   float64 `json:"value"`
}

type findingRecord struct {
	Kind   string `json:"kind"`
	Source string `json:"source"`
	Line   int    `json:"line"`
	Detail string `json:"detail"`
}

type runRecord struct {
	TestName           string          `json:"test_name"`
	Workload           string          `json:"workload"`
	Theta              *float64        `json:"theta,omitempty"`
	Servers            int             `json:"servers"`
	Clients            int             `json:"clients"`
	Duration           int             `json:"duration"`
	Timestamp          string          `json:"timestamp"`
	Status             string          `json:"status"`
	OpsPerSec          float64         `json:"ops_per_sec"`
	CommitsPerSec      float64         `json:"commits_per_sec"`
	AbortsPerSec       float64         `json:"aborts_per_sec"`
	AbortRate          float64         `json:"abort_rate"`
	TransferThroughput float64         `json:"transfer_throughput"`
	Processes          []processRecord `json:"processes"`
	Missing            []string        `json:"missing,omitempty"`
	Successful         int             `json:"successful_transfers"`
	Failed             int             `json:"failed_transfers"`
	Violations         int             `json:"integrity_violations"`
	BalanceChecks      int             `json:"balance_checks"`
	FinalTotal         int64           `json:"final_total"`
	FinalBalances      []int64         `json:"final_balances"`
	FinalSource        string          `json:"final_source,omitempty"`
	Findings           []findingRecord `json:"findings,omitempty"`
	Notes              []string        `json:"notes,omitempty"`
}

func toRecord(r runner.RunResult) runRecord {
	rec := runRecord{
		TestName:           r.Config.Label,
		Workload:           string(r.Config.Workload),
		Theta:              r.Config.Theta,
		Servers:            r.Config.Servers,
		Clients:            r.Config.Clients,
		Duration:           r.Config.DurationSecs,
		Timestamp:          r.Timestamp.Format(time.RFC3339),
		Status:             r.Status.String(),
		OpsPerSec:          r.Ops(),
		CommitsPerSec:      r.Commit(),
		AbortsPerSec:       r.Abort(),
		AbortRate:          r.AbortRate(),
		TransferThroughput: r.TransferThroughput,
		Missing:            r.Aggregates.Missing,
		Successful:         r.Transfers.Success,
		Failed:             r.Transfers.Failure,
		Violations:         r.Transfers.Violations,
		BalanceChecks:      r.Transfers.BalanceChecks,
		FinalTotal:         r.Transfers.FinalTotal,
		FinalBalances:      r.Transfers.FinalBalances,
		FinalSource:        r.Transfers.FinalSource,
		Notes:              r.Notes,
	}
	for _, m := range r.Aggregates.Metrics {
		if m.ProcessID == "" {
			continue
		}
		rec.Processes = append(rec.Processes, processRecord{Process: m.ProcessID, Metric: m.Kind.String(), Value: m.Value})
	}
	for _, f := range r.Transfers.Findings {
		rec.Findings = append(rec.Findings, findingRecord{Kind: f.Kind.String(), Source: f.Source, Line: f.Line, Detail: f.Detail})
	}
	return rec
}

// WriteJSON saves results with per-process detail the CSV does not carry.
func WriteJSON(path string, results []runner.RunResult) error {
	recs := make([]runRecord, 0, len(results))
	for _, r := range results {
		recs = append(recs, toRecord(r))
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return errors.Mark(errors.Wrap(err, "encoding results"), ErrPersist)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Mark(errors.Wrapf(err, "writing %s", path), ErrPersist)
	}
	return nil
}
