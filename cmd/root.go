package main

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alanwang67/kvsbench/config"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app is shared by every subcommand once the root pre-run has loaded config.
type app struct {
	v   *viper.Viper
	cfg config.Config

	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "kvsbench",
		Short:         "Run benchmark sweeps against the kvs cluster and aggregate their logs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ./kvsbench.{json,yaml})")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	pf.String("script", "", "cluster launch script")
	pf.String("log-dir", "", "directory the cluster writes kvsserver-*/kvsclient-* logs to")
	pf.String("results-dir", "", "directory for result datasets")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	for key, flag := range map[string]string{
		"cluster_script": "script",
		"log_dir":        "log-dir",
		"results_dir":    "results-dir",
		"log_level":      "log-level",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newThetaCmd(a),
		newBankCmd(a),
		newReportCmd(a),
		newPlotCmd(a),
	)
	return root
}

func (a *app) load() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("ignoring .env: %v", err)
	}

	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "log_level %q", cfg.LogLevel), config.ErrInvalid)
	}
	if a.verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	log.Debug("config loaded", "file", a.v.ConfigFileUsed(), "log_dir", cfg.LogDir, "script", cfg.ClusterScript)
	return nil
}

// requireScript fails early when the launch script is missing.
func (a *app) requireScript() error {
	path := a.cfg.ClusterScript
	if a.cfg.ClusterDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(a.cfg.ClusterDir, path)
	}
	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(err, "cluster script %s not found; run from the project root or set --script", a.cfg.ClusterScript)
	}
	return nil
}
