package logparse

import (
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// classify returns the metric carried by line. The first matching tag wins.
func classify(line string) (MetricKind, bool) {
	for _, k := range Kinds {
		if strings.Contains(line, k.Tag()) {
			return k, true
		}
	}
	return 0, false
}

// parseValue reads the second whitespace separated token of line as a finite,
// non-negative rate.
func parseValue(line string) (float64, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// Scan calls fn for every well-formed metric line in r, in file order.
// Lines without a recognized tag, with an unparseable value or longer than
// MaxLineSize are skipped.
func Scan(processID string, r io.Reader, fn func(Sample)) error {
	err := Lines(r, func(_ int, line string) {
		kind, ok := classify(line)
		if !ok {
			return
		}
		v, ok := parseValue(line)
		if !ok {
			return
		}
		fn(Sample{ProcessID: processID, Kind: kind, Value: v})
	})
	return errors.Wrapf(err, "reading log of %s", processID)
}

// Extract parses one process's log text into per-metric series. Empty input
// yields empty series, not an error.
func Extract(processID string, r io.Reader) (ProcessLog, error) {
	pl := ProcessLog{
		ProcessID: processID,
		Series:    make(map[MetricKind][]float64, len(Kinds)),
	}
	err := Scan(processID, r, func(s Sample) {
		pl.Series[s.Kind] = append(pl.Series[s.Kind], s.Value)
	})
	return pl, err
}

// ExtractFile is Extract over the file at path.
func ExtractFile(processID, path string) (ProcessLog, error) {
	f, err := os.Open(path)
	if err != nil {
		return ProcessLog{ProcessID: processID}, errors.Wrapf(err, "opening log %s", path)
	}
	defer f.Close()
	return Extract(processID, f)
}
