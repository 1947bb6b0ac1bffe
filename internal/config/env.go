// This file contains environment variable utilities for configuration override.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// isFlagSetAny reports whether any of the named flags was set on the command line.
func isFlagSetAny(fs *pflag.FlagSet, names ...string) bool {
	if fs == nil {
		return false
	}
	for _, name := range names {
		if f := fs.Lookup(name); f != nil && f.Changed {
			return true
		}
	}
	return false
}

// envOverride declares a single environment variable override.
// Each entry maps an env key (without the PEULER_ prefix) to the CLI flag
// name(s) it corresponds to and a function that applies the env value.
type envOverride struct {
	envKey string
	flags  []string
	apply  func(*AppConfig, string)
}

// envOverrides is the declarative table of all environment variable overrides.
var envOverrides = []envOverride{
	{"ITERATIONS", []string{"iterations", "n"}, func(c *AppConfig, v string) {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.Iterations = parsed
		}
	}},

	{"START_TIMEOUT", []string{"start-timeout"}, func(c *AppConfig, v string) {
		if parsed, err := time.ParseDuration(v); err == nil {
			c.StartTimeout = parsed
		}
	}},

	{"ISOLATION", []string{"isolation"}, func(c *AppConfig, v string) {
		c.Isolation = v
	}},
	{"WORKER_BINARY", []string{"worker-binary"}, func(c *AppConfig, v string) {
		c.WorkerBinary = v
	}},
	{"STATE", []string{"state"}, func(c *AppConfig, v string) {
		c.StatePath = v
	}},
	{"LISTEN", []string{"listen"}, func(c *AppConfig, v string) {
		c.Listen = v
	}},
	{"LOG_LEVEL", []string{"log-level"}, func(c *AppConfig, v string) {
		c.LogLevel = v
	}},

	{"NO_COLOR", []string{"no-color"}, func(c *AppConfig, v string) {
		c.NoColor = parseBoolEnv(v, c.NoColor)
	}},
	{"QUIET_GC", []string{"quiet-gc"}, func(c *AppConfig, v string) {
		c.QuietGC = parseBoolEnv(v, c.QuietGC)
	}},
}

// parseBoolEnv parses a boolean environment variable value.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
// Returns defaultVal if the value is not recognized.
func parseBoolEnv(val string, defaultVal bool) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
//
// Supported environment variables (all prefixed with PEULER_):
//   - ITERATIONS, START_TIMEOUT, ISOLATION, WORKER_BINARY, STATE, LISTEN,
//     LOG_LEVEL, NO_COLOR, QUIET_GC
func applyEnvOverrides(config *AppConfig, fs *pflag.FlagSet) {
	for _, o := range envOverrides {
		if isFlagSetAny(fs, o.flags...) {
			continue
		}
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			o.apply(config, val)
		}
	}
}
