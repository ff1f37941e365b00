package verify

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/alanwang67/kvsbench/logparse"
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

const (
	successMarker   = "Transfer successful:"
	failureMarker   = "Transfer failed:"
	violationMarker = "INTEGRITY VIOLATION:"
	checkMarker     = "Balance check passed:"
)

var balanceRe = regexp.MustCompile(`Balance check passed: total=(-?\d+), balances=\[([^\]]*)\]`)

func sum[T constraints.Integer](xs []T) T {
	var total T
	for _, x := range xs {
		total += x
	}
	return total
}

// parseBalances accepts "1, 2, 3" as well as "1 2 3".
func parseBalances(s string) ([]int64, error) {
	var fields []string
	if strings.Contains(s, ",") {
		fields = strings.Split(s, ",")
	} else {
		fields = strings.Fields(s)
	}
	out := make([]int64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseSnapshot extracts the balance check record of line, if it has one.
func ParseSnapshot(line string) (*Snapshot, bool) {
	m := balanceRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	total, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil, false
	}
	balances, err := parseBalances(m[2])
	if err != nil {
		return nil, false
	}
	return &Snapshot{Total: total, Balances: balances}, true
}

// Scan calls fn for every marker occurrence in r, in file order. Lines longer
// than logparse.MaxLineSize are skipped.
func Scan(r io.Reader, fn func(Event)) error {
	return logparse.Lines(r, func(n int, line string) {
		emit := func(kind EventKind, marker string) {
			for i := strings.Count(line, marker); i > 0; i-- {
				fn(Event{Kind: kind, Line: n, Text: line})
			}
		}
		emit(TransferSuccess, successMarker)
		emit(TransferFailure, failureMarker)
		emit(IntegrityViolation, violationMarker)
		if strings.Contains(line, checkMarker) {
			// counted even when the record itself is unparseable
			snap, _ := ParseSnapshot(line)
			fn(Event{Kind: BalanceCheck, Line: n, Text: line, Snapshot: snap})
		}
	})
}

// Check reads one client log and counts markers. Every parseable balance
// check is cross-checked for conservation; the last one is kept as the
// client's final snapshot.
func Check(source string, r io.Reader) (ClientReport, error) {
	rep := ClientReport{Source: source}
	err := Scan(r, func(ev Event) {
		switch ev.Kind {
		case TransferSuccess:
			rep.Success++
		case TransferFailure:
			rep.Failure++
		case IntegrityViolation:
			rep.Violations++
			rep.Findings = append(rep.Findings, Finding{
				Kind:   ViolationLogged,
				Source: source,
				Line:   ev.Line,
				Detail: strings.TrimSpace(ev.Text),
			})
		case BalanceCheck:
			rep.BalanceChecks++
			if ev.Snapshot == nil {
				return
			}
			rep.Last = ev.Snapshot
			if !ev.Snapshot.Conserved() {
				rep.Findings = append(rep.Findings, Finding{
					Kind:   ConservationMismatch,
					Source: source,
					Line:   ev.Line,
					Detail: fmt.Sprintf("total=%d sum=%d balances=%v",
						ev.Snapshot.Total, sum(ev.Snapshot.Balances), ev.Snapshot.Balances),
				})
			}
		}
	})
	return rep, errors.Wrapf(err, "reading client log %s", source)
}

// CheckFile is Check over the file at path.
func CheckFile(source, path string) (ClientReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return ClientReport{Source: source}, errors.Wrapf(err, "opening client log %s", path)
	}
	defer f.Close()
	return Check(source, f)
}

// Merge sums the counts of reports. The final snapshot is taken from the
// last report, in the order given, that has one.
func Merge(reports []ClientReport) TransferStats {
	var st TransferStats
	for _, r := range reports {
		st.Success += r.Success
		st.Failure += r.Failure
		st.Violations += r.Violations
		st.BalanceChecks += r.BalanceChecks
		st.Findings = append(st.Findings, r.Findings...)
		if r.Last != nil {
			st.FinalTotal = r.Last.Total
			st.FinalBalances = append([]int64(nil), r.Last.Balances...)
			st.FinalSource = r.Source
		}
	}
	return st
}
