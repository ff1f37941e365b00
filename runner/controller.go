package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/alanwang67/kvsbench/logparse"
	"github.com/alanwang67/kvsbench/stats"
	"github.com/alanwang67/kvsbench/verify"
	"github.com/alanwang67/kvsbench/workload"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// DefaultLaunchMargin is added to a trial's duration to bound the launcher.
const DefaultLaunchMargin = 60 * time.Second

// Controller executes one trial at a time against a shared log directory.
type Controller struct {
	Launcher   Launcher
	LogDir     string
	Margin     time.Duration
	Barrier    FlushBarrier
	Aggregator *stats.Aggregator

	now func() time.Time
}

func NewController(l Launcher, logDir string, margin time.Duration, barrier FlushBarrier, window int) *Controller {
	return &Controller{
		Launcher:   l,
		LogDir:     logDir,
		Margin:     margin,
		Barrier:    barrier,
		Aggregator: stats.NewAggregator(window),
		now:        time.Now,
	}
}

// trial is the mutable state of one Run call.
type trial struct {
	cfg   RunConfig
	state State
	res   RunResult
}

func (t *trial) enter(s State) {
	log.Debug("run state", "label", t.cfg.Label, "from", t.state, "to", s)
	t.state = s
}

func (t *trial) partial(format string, args ...interface{}) {
	t.res.Notes = append(t.res.Notes, fmt.Sprintf(format, args...))
	t.res.Status = PartialData
}

// fail ends the trial with an empty result.
func (t *trial) fail(status Status, err error) RunResult {
	t.enter(Done)
	log.Warn("run failed", "label", t.cfg.Label, "status", status, "err", err)
	return RunResult{
		Config:    t.cfg,
		Timestamp: t.res.Timestamp,
		Status:    status,
		Notes:     []string{err.Error()},
	}
}

// Run executes cfg and always returns a result; launch failures and timeouts
// are reported through the result's status.
func (c *Controller) Run(ctx context.Context, cfg RunConfig) RunResult {
	now := c.now
	if now == nil {
		now = time.Now
	}
	t := &trial{cfg: cfg, state: Pending}
	t.res = RunResult{Config: cfg, Timestamp: now(), Status: Completed}

	if err := cfg.Validate(); err != nil {
		return t.fail(LaunchFailed, err)
	}

	t.enter(Launching)
	log.Info("run starting", "config", cfg.String())
	started := now()
	timeout := time.Duration(cfg.DurationSecs)*time.Second + c.Margin
	lctx, cancel := context.WithTimeout(ctx, timeout)
	out, err := c.Launcher.Launch(lctx, LaunchRequest{
		Servers:    cfg.Servers,
		Clients:    cfg.Clients,
		ServerArgs: cfg.ServerArgs,
		ClientArgs: cfg.ClientArgs(),
	})
	timedOut := lctx.Err() == context.DeadlineExceeded
	cancel()
	switch {
	case timedOut || errors.Is(err, ErrTimedOut):
		if err == nil {
			err = errors.Newf("launcher exceeded %s", timeout)
		}
		return t.fail(TimedOut, errors.Mark(err, ErrTimedOut))
	case err != nil:
		return t.fail(LaunchFailed, errors.Mark(err, ErrLaunchFailed))
	case out.ExitCode != 0:
		return t.fail(LaunchFailed, errors.Mark(errors.Newf("launcher exited with status %d", out.ExitCode), ErrLaunchFailed))
	}
	if tput, ok := TransferThroughput(out.Output); ok {
		t.res.TransferThroughput = tput
	}

	t.enter(AwaitingFlush)
	stable, err := c.Barrier.Wait(ctx, c.LogDir)
	if err != nil {
		t.partial("flush wait interrupted: %v", err)
	} else if !stable {
		t.partial("logs in %s still changing after flush wait", c.LogDir)
	}

	t.enter(Parsing)
	servers := c.listFresh(t, logparse.Server, started)
	clients := c.listFresh(t, logparse.Client, started)

	var procs []logparse.ProcessLog
	for _, f := range servers {
		pl, err := logparse.ExtractFile(f.NodeID, f.Path)
		if err != nil {
			t.partial("%v", err)
			continue
		}
		procs = append(procs, pl)
	}
	var reports []verify.ClientReport
	for _, f := range clients {
		rep, err := verify.CheckFile(f.NodeID, f.Path)
		if err != nil {
			t.partial("%v", err)
			continue
		}
		reports = append(reports, rep)
	}

	t.enter(Aggregating)
	t.res.Aggregates = c.Aggregator.Aggregate(procs)
	t.res.Transfers = verify.Merge(reports)

	if len(servers) < cfg.Servers {
		t.partial("found %d server logs, expected %d", len(servers), cfg.Servers)
	}
	if len(t.res.Aggregates.Missing) > 0 {
		t.partial("no samples for %v", t.res.Aggregates.Missing)
	}
	if cfg.Workload == workload.Transfer && len(clients) == 0 {
		t.partial("no client logs for transfer workload")
	}
	for _, f := range t.res.Transfers.Findings {
		log.Error("correctness finding", "label", cfg.Label, "finding", f)
	}

	t.enter(Done)
	return t.res
}

// listFresh returns the role's logs written since the trial started. Older
// files belong to a previous trial and are skipped.
func (c *Controller) listFresh(t *trial, role logparse.Role, started time.Time) []logparse.LogFile {
	files, err := logparse.ListLogs(c.LogDir, role)
	if err != nil {
		t.partial("%v", err)
		return nil
	}
	cutoff := started.Truncate(time.Second)
	fresh := files[:0]
	for _, f := range files {
		if f.ModTime.Before(cutoff) {
			log.Warn("skipping stale log", "path", f.Path, "modified", f.ModTime)
			continue
		}
		fresh = append(fresh, f)
	}
	return fresh
}
