package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alanwang67/kvsbench/runner"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// ErrPersist marks failures to write a dataset.
var ErrPersist = errors.New("persisting results")

// Columns is the dataset header. Downstream tooling reads columns by name, so
// existing columns keep their name and position; new ones go at the end.
var Columns = []string{
	"test_name",
	"workload",
	"theta",
	"servers",
	"clients",
	"duration",
	"timestamp",
	"status",
	"ops_per_sec",
	"commits_per_sec",
	"aborts_per_sec",
	"abort_rate",
	"transfer_throughput",
	"total_transfers",
	"successful_transfers",
	"failed_transfers",
	"integrity_violations",
	"balance_checks",
	"conservation_ok",
	"final_balances",
	"notes",
}

// Store writes each sweep as <Dir>/<name>_<unix>.csv plus a .json file with
// per-process detail.
type Store struct {
	Dir string
	// LastPath is the CSV written by the most recent successful Persist.
	LastPath string

	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir, now: time.Now}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FormatBalances renders balances as "[a, b, c]".
func FormatBalances(b []int64) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Record converts a result to one dataset row, in Columns order.
func Record(r runner.RunResult) []string {
	theta := ""
	if r.Config.Theta != nil {
		theta = strconv.FormatFloat(*r.Config.Theta, 'g', -1, 64)
	}
	return []string{
		r.Config.Label,
		string(r.Config.Workload),
		theta,
		strconv.Itoa(r.Config.Servers),
		strconv.Itoa(r.Config.Clients),
		strconv.Itoa(r.Config.DurationSecs),
		r.Timestamp.Format(time.RFC3339),
		r.Status.String(),
		formatFloat(r.Ops()),
		formatFloat(r.Commit()),
		formatFloat(r.Abort()),
		formatFloat(r.AbortRate()),
		formatFloat(r.TransferThroughput),
		strconv.Itoa(r.Transfers.Total()),
		strconv.Itoa(r.Transfers.Success),
		strconv.Itoa(r.Transfers.Failure),
		strconv.Itoa(r.Transfers.Violations),
		strconv.Itoa(r.Transfers.BalanceChecks),
		strconv.FormatBool(r.Transfers.Conserved()),
		FormatBalances(r.Transfers.FinalBalances),
		strings.Join(r.Notes, "; "),
	}
}

// ToRow is the in-memory equivalent of writing r and reading it back.
func ToRow(r runner.RunResult) Row {
	row := Row{
		TestName:           r.Config.Label,
		Workload:           string(r.Config.Workload),
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
		Successful:         r.Transfers.Success,
		Failed:             r.Transfers.Failure,
		Violations:         r.Transfers.Violations,
		BalanceChecks:      r.Transfers.BalanceChecks,
		FinalBalances:      r.Transfers.FinalBalances,
	}
	if r.Config.Theta != nil {
		row.Theta, row.HasTheta = *r.Config.Theta, true
	}
	return row
}

// Persist implements sweep.Persister.
func (s *Store) Persist(name string, results []runner.RunResult) error {
	now := s.now
	if now == nil {
		now = time.Now
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return errors.Mark(errors.Wrapf(err, "creating %s", s.Dir), ErrPersist)
	}
	base := filepath.Join(s.Dir, fmt.Sprintf("%s_%d", name, now().Unix()))

	if err := WriteCSV(base+".csv", results); err != nil {
		return err
	}
	if err := WriteJSON(base+".json", results); err != nil {
		return err
	}
	s.LastPath = base + ".csv"
	log.Info("results saved", "csv", base+".csv", "json", base+".json", "rows", len(results))
	return nil
}

// WriteCSV writes the header and one row per result.
func WriteCSV(path string, results []runner.RunResult) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "creating %s", path), ErrPersist)
	}
	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		f.Close()
		return errors.Mark(errors.Wrapf(err, "writing %s", path), ErrPersist)
	}
	for _, r := range results {
		if err := w.Write(Record(r)); err != nil {
			f.Close()
			return errors.Mark(errors.Wrapf(err, "writing %s", path), ErrPersist)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return errors.Mark(errors.Wrapf(err, "writing %s", path), ErrPersist)
	}
	if err := f.Close(); err != nil {
		return errors.Mark(errors.Wrapf(err, "closing %s", path), ErrPersist)
	}
	return nil
}
