// Package config defines the application configuration and resolves it from
// command-line flags, PEULER_* environment variables, an optional YAML file
// and built-in defaults, in that order of priority.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/peuler/internal/errors"
	"github.com/agbru/peuler/internal/logging"
)

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "PEULER_"

// Defaults and limits.
const (
	DefaultIterations   = 100
	MinIterations       = 3
	DefaultStartTimeout = 10 * time.Second
	DefaultListen       = "127.0.0.1:8080"
	DefaultLogLevel     = "info"
)

// Isolation modes for the execution unit.
const (
	IsolationProcess   = "process"
	IsolationInProcess = "inprocess"
)

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// Iterations is the number of benchmark repetitions.
	Iterations int `yaml:"iterations"`
	// Isolation selects how the execution unit is hosted: a child process
	// or a goroutine in the same process.
	Isolation string `yaml:"isolation"`
	// WorkerBinary is the executable started in process isolation. Empty
	// means the running executable.
	WorkerBinary string `yaml:"worker_binary"`
	// StartTimeout bounds the wait for the unit's ready signal.
	StartTimeout time.Duration `yaml:"start_timeout"`
	// StatePath is the SQLite file holding the selection and benchmark
	// history. Empty disables persistence.
	StatePath string `yaml:"state_path"`
	// Listen is the HTTP address used by the serve command.
	Listen string `yaml:"listen"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// NoColor disables ANSI colors in CLI output.
	NoColor bool `yaml:"no_color"`
	// QuietGC suspends garbage collection inside the execution unit while a
	// benchmark solve is being timed.
	QuietGC bool `yaml:"quiet_gc"`
	// ConfigFile is the YAML file that was loaded, if any.
	ConfigFile string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		Iterations:   DefaultIterations,
		Isolation:    IsolationProcess,
		StartTimeout: DefaultStartTimeout,
		StatePath:    DefaultStatePath(),
		Listen:       DefaultListen,
		LogLevel:     DefaultLogLevel,
	}
}

// DefaultStatePath returns ~/.peuler/state.db, or "" when the home
// directory is unknown.
func DefaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".peuler", "state.db")
}

// RegisterFlags binds cfg's fields to flags on fs. Flag defaults are the
// values already in cfg.
func RegisterFlags(fs *pflag.FlagSet, cfg *AppConfig) {
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML configuration file")
	fs.IntVarP(&cfg.Iterations, "iterations", "n", cfg.Iterations, "benchmark iterations")
	fs.StringVar(&cfg.Isolation, "isolation", cfg.Isolation, `execution unit isolation: "process" or "inprocess"`)
	fs.StringVar(&cfg.WorkerBinary, "worker-binary", cfg.WorkerBinary, "executable started for the execution unit (default: this binary)")
	fs.DurationVar(&cfg.StartTimeout, "start-timeout", cfg.StartTimeout, "maximum wait for the execution unit to become ready")
	fs.StringVar(&cfg.StatePath, "state", cfg.StatePath, `SQLite state file ("" disables persistence)`)
	fs.StringVar(&cfg.Listen, "listen", cfg.Listen, "HTTP listen address for serve")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "disable colored output")
	fs.BoolVar(&cfg.QuietGC, "quiet-gc", cfg.QuietGC, "suspend garbage collection during timed benchmark solves")
}

// Resolve layers the YAML file and environment overrides under the flags the
// user set explicitly, then validates the result.
func Resolve(cfg *AppConfig, fs *pflag.FlagSet) error {
	explicit := map[string]string{}
	fs.Visit(func(f *pflag.Flag) { explicit[f.Name] = f.Value.String() })

	path := cfg.ConfigFile
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return err
		}
		cfg.ConfigFile = path
	}

	applyEnvOverrides(cfg, fs)

	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return apperrors.NewConfigError("flag --%s: %v", name, err)
		}
	}
	return cfg.Validate()
}

// LoadFile decodes the YAML file at path over cfg. Keys absent from the
// file leave cfg unchanged.
func LoadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewConfigError("read config file %s: %v", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return apperrors.NewConfigError("parse config file %s: %v", path, err)
	}
	return nil
}

// Validate checks the configuration for semantic errors.
func (c AppConfig) Validate() error {
	if c.Iterations < MinIterations {
		return apperrors.NewConfigError("iterations must be at least %d, got %d", MinIterations, c.Iterations)
	}
	switch c.Isolation {
	case IsolationProcess, IsolationInProcess:
	default:
		return apperrors.NewConfigError("unknown isolation %q (want %q or %q)", c.Isolation, IsolationProcess, IsolationInProcess)
	}
	if c.StartTimeout <= 0 {
		return apperrors.NewConfigError("start timeout must be positive, got %s", c.StartTimeout)
	}
	if c.Listen == "" {
		return apperrors.NewConfigError("listen address must not be empty")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	return nil
}

// String renders the configuration for debug logs.
func (c AppConfig) String() string {
	return fmt.Sprintf("iterations=%d isolation=%s start-timeout=%s state=%q listen=%s log-level=%s quiet-gc=%t",
		c.Iterations, c.Isolation, c.StartTimeout, c.StatePath, c.Listen, c.LogLevel, c.QuietGC)
}
