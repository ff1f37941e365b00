package logparse

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Role distinguishes the two kinds of process that write into a log directory.
type Role string

const (
	Server Role = "kvsserver"
	Client Role = "kvsclient"
)

// LogFile is one <role>-<nodeId>.log file in a run's log directory.
type LogFile struct {
	Role    Role
	NodeID  string
	Path    string
	Size    int64
	ModTime time.Time
}

// ListLogs returns the log files of role in dir, sorted by file name. A missing
// directory is reported as an error; a directory without matches is not.
func ListLogs(dir string, role Role) ([]LogFile, error) {
	prefix := string(role) + "-"
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing log directory %s", dir)
	}
	var out []LogFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		out = append(out, LogFile{
			Role:    role,
			NodeID:  strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".log"),
			Path:    filepath.Join(dir, name),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
