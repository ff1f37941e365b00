package workload

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Name identifies a client workload understood by the kvs client binary.
type Name string

const (
	YCSBA    Name = "YCSB-A" // 50% writes
	YCSBB    Name = "YCSB-B" // 5% writes
	YCSBC    Name = "YCSB-C" // read only
	Transfer Name = "xfer"   // bank transfers with balance checks
)

// Known lists the workloads the client binary ships with. Other names are
// passed through untouched.
var Known = []Name{YCSBA, YCSBB, YCSBC, Transfer}

// IsKnown reports whether n is one of Known.
func (n Name) IsKnown() bool {
	for _, k := range Known {
		if k == n {
			return true
		}
	}
	return false
}

// Description returns a short label used in reports.
func (n Name) Description() string {
	switch n {
	case YCSBA:
		return "50% writes"
	case YCSBB:
		return "5% writes"
	case YCSBC:
		return "read only"
	case Transfer:
		return "bank transfer"
	}
	return string(n)
}

// UsesTheta reports whether the workload draws keys from a Zipfian
// distribution, so that theta is meaningful.
func (n Name) UsesTheta() bool {
	return n != Transfer
}

// ValidateTheta checks that theta lies in [0, 1].
func ValidateTheta(theta float64) error {
	if math.IsNaN(theta) || theta < 0 || theta > 1 {
		return errors.Newf("theta %g outside [0, 1]", theta)
	}
	return nil
}

// ClientArgs encodes the client flags "-workload name [-theta t] -secs n".
func ClientArgs(name Name, theta *float64, secs int) string {
	args := []string{"-workload", string(name)}
	if theta != nil {
		args = append(args, "-theta", strconv.FormatFloat(*theta, 'g', -1, 64))
	}
	args = append(args, "-secs", strconv.Itoa(secs))
	return strings.Join(args, " ")
}

// ParseList splits a comma separated list of workload names.
func ParseList(s string) ([]Name, error) {
	var out []Name
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, Name(part))
	}
	if len(out) == 0 {
		return nil, errors.New("no workload given")
	}
	return out, nil
}
