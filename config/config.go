package config

import (
	"time"

	"github.com/alanwang67/kvsbench/runner"
	"github.com/alanwang67/kvsbench/stats"
	"github.com/alanwang67/kvsbench/sweep"
	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// ErrInvalid marks configuration values that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix is prepended to every key when read from the environment,
// e.g. KVSBENCH_LOG_DIR.
const EnvPrefix = "KVSBENCH"

// Config holds the harness settings shared by every command.
type Config struct {
	ClusterScript string        `mapstructure:"cluster_script"`
	ClusterDir    string        `mapstructure:"cluster_dir"`
	LogDir        string        `mapstructure:"log_dir"`
	ResultsDir    string        `mapstructure:"results_dir"`
	LaunchMargin  time.Duration `mapstructure:"launch_margin"`
	SettleDelay   time.Duration `mapstructure:"settle_delay"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	PollBudget    int           `mapstructure:"poll_budget"`
	Cooldown      time.Duration `mapstructure:"cooldown"`
	MedianWindow  int           `mapstructure:"median_window"`
	LogLevel      string        `mapstructure:"log_level"`
}

// SetDefaults registers every key so that environment overrides apply even
// without a config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("cluster_script", "./run-cluster.sh")
	v.SetDefault("cluster_dir", "")
	v.SetDefault("log_dir", "./logs/latest")
	v.SetDefault("results_dir", ".")
	v.SetDefault("launch_margin", runner.DefaultLaunchMargin)
	v.SetDefault("settle_delay", 2*time.Second)
	v.SetDefault("poll_interval", 500*time.Millisecond)
	v.SetDefault("poll_budget", 10)
	v.SetDefault("cooldown", sweep.DefaultCooldown)
	v.SetDefault("median_window", stats.DefaultWindow)
	v.SetDefault("log_level", "info")
}

// Load reads path, or kvsbench.{json,yaml,toml} from the working directory
// when path is empty. A missing default file is not an error.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("kvsbench")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, errors.Wrap(err, "reading config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Mark(errors.Wrap(err, "decoding config"), ErrInvalid)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.ClusterScript == "":
		return errors.Mark(errors.New("cluster_script is empty"), ErrInvalid)
	case c.LogDir == "":
		return errors.Mark(errors.New("log_dir is empty"), ErrInvalid)
	case c.LaunchMargin < 0:
		return errors.Mark(errors.Newf("launch_margin %s is negative", c.LaunchMargin), ErrInvalid)
	case c.SettleDelay < 0 || c.PollInterval < 0 || c.Cooldown < 0:
		return errors.Mark(errors.New("delays must not be negative"), ErrInvalid)
	case c.PollBudget < 0:
		return errors.Mark(errors.Newf("poll_budget %d is negative", c.PollBudget), ErrInvalid)
	case c.MedianWindow < 1:
		return errors.Mark(errors.Newf("median_window %d must be at least 1", c.MedianWindow), ErrInvalid)
	}
	return nil
}

// Barrier is the flush barrier described by c.
func (c Config) Barrier() runner.FlushBarrier {
	return runner.FlushBarrier{
		Settle:       c.SettleDelay,
		PollInterval: c.PollInterval,
		PollBudget:   c.PollBudget,
	}
}
