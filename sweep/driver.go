package sweep

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alanwang67/kvsbench/runner"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// DefaultCooldown lets ports and processes of a finished trial release.
const DefaultCooldown = time.Second

// Runner executes a single trial.
type Runner interface {
	Run(ctx context.Context, cfg runner.RunConfig) runner.RunResult
}

// Persister stores a finished sweep.
type Persister interface {
	Persist(name string, results []runner.RunResult) error
}

// Driver runs trials strictly one after another; they share the cluster's
// ports and log directory.
type Driver struct {
	Runner   Runner
	Store    Persister
	Cooldown time.Duration
	Progress io.Writer
}

func NewDriver(r Runner, store Persister, cooldown time.Duration, progress io.Writer) *Driver {
	if progress == nil {
		progress = io.Discard
	}
	return &Driver{Runner: r, Store: store, Cooldown: cooldown, Progress: progress}
}

// Run executes every config in order and persists all results, failed trials
// included. A persistence error is returned together with the complete sweep
// so the caller can still report what was measured.
func (d *Driver) Run(ctx context.Context, name string, configs []runner.RunConfig) (Sweep, error) {
	sw := Sweep{Name: name, Results: make([]runner.RunResult, 0, len(configs))}
	log.Info("starting sweep", "name", name, "trials", len(configs))

	for i, cfg := range configs {
		if ctx.Err() != nil {
			log.Warn("sweep interrupted", "name", name, "remaining", len(configs)-i)
			break
		}
		if i > 0 && d.Cooldown > 0 {
			t := time.NewTimer(d.Cooldown)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
			}
			if ctx.Err() != nil {
				log.Warn("sweep interrupted", "name", name, "remaining", len(configs)-i)
				break
			}
		}

		res := d.Runner.Run(ctx, cfg)
		sw.Results = append(sw.Results, res)
		d.progress(i+1, len(configs), res)
	}

	if d.Store == nil {
		return sw, nil
	}
	if err := d.Store.Persist(name, sw.Results); err != nil {
		return sw, errors.Wrapf(err, "persisting sweep %s (%d results kept in memory)", name, len(sw.Results))
	}
	return sw, nil
}

func (d *Driver) progress(n, total int, res runner.RunResult) {
	line := fmt.Sprintf("[%d/%d] %s: ", n, total, Describe(res.Config))
	if res.Status.Failed() {
		line += "FAILED (" + res.Status.String() + ")"
	} else {
		line += fmt.Sprintf("%.0f commit/s, %.1f%% aborts", res.Commit(), res.AbortRate())
		if res.Status != runner.Completed {
			line += " [" + res.Status.String() + "]"
		}
	}
	if f := len(res.Transfers.Findings); f > 0 {
		line += fmt.Sprintf(" !! %d integrity findings", f)
	}
	fmt.Fprintln(d.Progress, line)
}
