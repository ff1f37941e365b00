package runner

import (
	"context"
	"time"

	"github.com/alanwang67/kvsbench/logparse"
	"github.com/charmbracelet/log"
)

// FlushBarrier waits for processes that already exited to finish writing
// their logs. It sleeps Settle, then polls file sizes and modification times
// until two consecutive snapshots agree or PollBudget polls are spent.
// A zero PollBudget keeps only the fixed settle delay.
type FlushBarrier struct {
	Settle       time.Duration
	PollInterval time.Duration
	PollBudget   int
}

type fileState struct {
	size    int64
	modTime time.Time
}

func snapshot(dir string) map[string]fileState {
	snap := make(map[string]fileState)
	for _, role := range []logparse.Role{logparse.Server, logparse.Client} {
		files, err := logparse.ListLogs(dir, role)
		if err != nil {
			continue
		}
		for _, f := range files {
			snap[f.Path] = fileState{size: f.Size, modTime: f.ModTime}
		}
	}
	return snap
}

func sameSnapshot(a, b map[string]fileState) bool {
	if len(a) != len(b) {
		return false
	}
	for path, s := range a {
		if t, ok := b[path]; !ok || !t.modTime.Equal(s.modTime) || t.size != s.size {
			return false
		}
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait returns true once the logs in dir look stable.
func (b FlushBarrier) Wait(ctx context.Context, dir string) (bool, error) {
	if err := sleep(ctx, b.Settle); err != nil {
		return false, err
	}
	if b.PollBudget <= 0 {
		return true, nil
	}
	prev := snapshot(dir)
	for i := 0; i < b.PollBudget; i++ {
		if err := sleep(ctx, b.PollInterval); err != nil {
			return false, err
		}
		cur := snapshot(dir)
		if sameSnapshot(prev, cur) {
			return true, nil
		}
		log.Debug("logs still changing", "dir", dir, "poll", i+1)
		prev = cur
	}
	return false, nil
}
