package runner

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

var (
	ErrLaunchFailed = errors.New("cluster launch failed")
	ErrTimedOut     = errors.New("cluster launch timed out")
)

// LaunchRequest carries the parameters handed to the cluster launcher.
type LaunchRequest struct {
	Servers    int
	Clients    int
	ServerArgs string
	ClientArgs string
}

// LaunchOutput is what the launcher printed and how it exited.
type LaunchOutput struct {
	ExitCode int
	Output   string
}

// Launcher starts a cluster and blocks until it exits or ctx is done.
type Launcher interface {
	Launch(ctx context.Context, req LaunchRequest) (LaunchOutput, error)
}

// ScriptLauncher runs "<Script> <servers> <clients> <serverArgs> <clientArgs>".
type ScriptLauncher struct {
	Script string
	Dir    string
}

func NewScriptLauncher(script, dir string) *ScriptLauncher {
	return &ScriptLauncher{Script: script, Dir: dir}
}

func (l *ScriptLauncher) Launch(ctx context.Context, req LaunchRequest) (LaunchOutput, error) {
	cmd := exec.CommandContext(ctx, l.Script,
		strconv.Itoa(req.Servers), strconv.Itoa(req.Clients), req.ServerArgs, req.ClientArgs)
	cmd.Dir = l.Dir
	// the script's children may hold the output pipe open after it is killed
	cmd.WaitDelay = 5 * time.Second

	log.Debug("launching cluster", "script", l.Script, "servers", req.Servers,
		"clients", req.Clients, "client_args", req.ClientArgs)

	out, err := cmd.CombinedOutput()
	res := LaunchOutput{ExitCode: cmd.ProcessState.ExitCode(), Output: string(out)}
	if ctx.Err() == context.DeadlineExceeded {
		return res, errors.Mark(errors.Wrapf(ctx.Err(), "running %s", l.Script), ErrTimedOut)
	}
	if err != nil {
		return res, errors.Mark(errors.Wrapf(err, "running %s", l.Script), ErrLaunchFailed)
	}
	return res, nil
}

var throughputRe = regexp.MustCompile(`transfer throughput ([\d.]+) ops/s`)

// TransferThroughput extracts the client-reported transfer rate from launcher
// output, if the workload printed one.
func TransferThroughput(output string) (float64, bool) {
	m := throughputRe.FindStringSubmatch(output)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
