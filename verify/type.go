package verify

import "fmt"

// EventKind tags a transaction event found in a client log.
type EventKind int

const (
	TransferSuccess EventKind = iota
	TransferFailure
	IntegrityViolation
	BalanceCheck
)

func (k EventKind) String() string {
	switch k {
	case TransferSuccess:
		return "transfer-success"
	case TransferFailure:
		return "transfer-failure"
	case IntegrityViolation:
		return "integrity-violation"
	case BalanceCheck:
		return "balance-check"
	}
	return "unknown"
}

// Event is one marker line. Snapshot is set only for BalanceCheck.
type Event struct {
	Kind     EventKind
	Line     int
	Text     string
	Snapshot *Snapshot
}

// Snapshot is the content of a "Balance check passed" record.
type Snapshot struct {
	Total    int64
	Balances []int64
}

// Conserved reports whether the logged total equals the sum of the balances.
func (s Snapshot) Conserved() bool {
	return s.Total == sum(s.Balances)
}

// FindingKind classifies a correctness problem surfaced by verification.
type FindingKind int

const (
	// ViolationLogged is an INTEGRITY VIOLATION marker written by the client.
	ViolationLogged FindingKind = iota
	// ConservationMismatch is a balance check whose total differs from the
	// sum of its balances.
	ConservationMismatch
)

func (k FindingKind) String() string {
	if k == ConservationMismatch {
		return "conservation-mismatch"
	}
	return "integrity-violation"
}

// Finding is a safety problem attributed to one client log line.
type Finding struct {
	Kind   FindingKind
	Source string
	Line   int
	Detail string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s %s:%d %s", f.Kind, f.Source, f.Line, f.Detail)
}

// ClientReport is the verification outcome of a single client log.
type ClientReport struct {
	Source        string
	Success       int
	Failure       int
	Violations    int
	BalanceChecks int
	Last          *Snapshot
	Findings      []Finding
}

// TransferStats merges the reports of every client of one run.
type TransferStats struct {
	Success       int
	Failure       int
	Violations    int
	BalanceChecks int
	// FinalTotal and FinalBalances come from the last balance check seen, in
	// client log name order. Without a shared clock this is an approximation
	// of "most recent", not a guarantee.
	FinalTotal    int64
	FinalBalances []int64
	FinalSource   string
	Findings      []Finding
}

// Total is the number of attempted transfers.
func (s TransferStats) Total() int {
	return s.Success + s.Failure
}

// Conserved is false when any violation marker or numeric mismatch was found.
func (s TransferStats) Conserved() bool {
	return len(s.Findings) == 0
}
