package results

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/alanwang67/kvsbench/runner"
	"github.com/cockroachdb/errors"
)

// Row is a dataset row read back by column name. Columns absent from the file
// are left at their zero value, so older files with fewer columns still load.
type Row struct {
	TestName           string
	Workload           string
	Theta              float64
	HasTheta           bool
	Servers            int
	Clients            int
	Duration           int
	Timestamp          string
	Status             string
	OpsPerSec          float64
	CommitsPerSec      float64
	AbortsPerSec       float64
	AbortRate          float64
	TransferThroughput float64
	Successful         int
	Failed             int
	Violations         int
	BalanceChecks      int
	FinalBalances      []int64
}

// TrialFailed reports whether the trial never produced measurements, so its
// rates are placeholders.
func (r Row) TrialFailed() bool {
	return r.Status == runner.TimedOut.String() || r.Status == runner.LaunchFailed.String()
}

// SuccessRate is the committed share of transactions in percent. A row with
// no transactions counts as fully successful.
func (r Row) SuccessRate() float64 {
	if r.CommitsPerSec+r.AbortsPerSec <= 0 {
		return 100
	}
	return r.CommitsPerSec / (r.CommitsPerSec + r.AbortsPerSec) * 100
}

// ParseBalances reads the "[a, b]" form written by FormatBalances; the space
// separated "[a b]" form is accepted too.
func ParseBalances(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "balance %q", f)
		}
		out = append(out, v)
	}
	return out, nil
}

// ReadCSV loads a dataset written by Store, or any CSV sharing its column names.
func ReadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if len(records) == 0 {
		return nil, errors.Newf("%s: missing header", path)
	}
	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[strings.TrimSpace(name)] = i
	}

	rows := make([]Row, 0, len(records)-1)
	for n, rec := range records[1:] {
		p := rowParser{index: index, rec: rec}
		row := Row{
			TestName:           p.str("test_name"),
			Workload:           p.str("workload"),
			Servers:            p.integer("servers"),
			Clients:            p.integer("clients"),
			Duration:           p.integer("duration"),
			Timestamp:          p.str("timestamp"),
			Status:             p.str("status"),
			OpsPerSec:          p.float("ops_per_sec"),
			CommitsPerSec:      p.float("commits_per_sec"),
			AbortsPerSec:       p.float("aborts_per_sec"),
			AbortRate:          p.float("abort_rate"),
			TransferThroughput: p.float("transfer_throughput"),
			Successful:         p.integer("successful_transfers"),
			Failed:             p.integer("failed_transfers"),
			Violations:         p.integer("integrity_violations"),
			BalanceChecks:      p.integer("balance_checks"),
		}
		if s := p.str("theta"); s != "" {
			row.Theta, row.HasTheta = p.float("theta"), true
		}
		if s := p.str("final_balances"); s != "" && p.err == nil {
			row.FinalBalances, p.err = ParseBalances(s)
		}
		if p.err != nil {
			return nil, errors.Wrapf(p.err, "%s: row %d", path, n+2)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type rowParser struct {
	index map[string]int
	rec   []string
	err   error
}

func (p *rowParser) str(col string) string {
	i, ok := p.index[col]
	if !ok || i >= len(p.rec) {
		return ""
	}
	return strings.TrimSpace(p.rec[i])
}

func (p *rowParser) float(col string) float64 {
	s := p.str(col)
	if s == "" || p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = errors.Wrapf(err, "column %s", col)
	}
	return v
}

func (p *rowParser) integer(col string) int {
	s := p.str(col)
	if s == "" || p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		p.err = errors.Wrapf(err, "column %s", col)
	}
	return v
}
