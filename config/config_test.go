package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "./run-cluster.sh", cfg.ClusterScript)
	assert.Equal(t, "./logs/latest", cfg.LogDir)
	assert.Equal(t, 60*time.Second, cfg.LaunchMargin)
	assert.Equal(t, 2*time.Second, cfg.SettleDelay)
	assert.Equal(t, 3, cfg.MedianWindow)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "log_dir": "/tmp/kvs/logs",
  "settle_delay": "5s",
  "poll_budget": 0,
  "cooldown": "10s",
  "median_window": 5
}`), 0644))
	t.Setenv("KVSBENCH_CLUSTER_SCRIPT", "/opt/kvs/run-cluster.sh")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/kvs/logs", cfg.LogDir)
	assert.Equal(t, "/opt/kvs/run-cluster.sh", cfg.ClusterScript)
	assert.Equal(t, 5*time.Second, cfg.SettleDelay)
	assert.Equal(t, 10*time.Second, cfg.Cooldown)
	assert.Equal(t, 5, cfg.MedianWindow)

	b := cfg.Barrier()
	assert.Equal(t, 5*time.Second, b.Settle)
	assert.Zero(t, b.PollBudget)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	bad := cfg
	bad.MedianWindow = 0
	assert.True(t, errors.Is(bad.Validate(), ErrInvalid))

	bad = cfg
	bad.Cooldown = -time.Second
	assert.True(t, errors.Is(bad.Validate(), ErrInvalid))
}
