// Package config loads runtime settings from a YAML file and SCRIPT_RUNTIME_*
// environment variables.
//
//	workers: 8
//	fingerprint: sha256      # or fnv64a
//	single_flight: true
//	strict: false
//	timeout: 5s              # per execution, 0 = none
//	log_level: info
//	precompile:
//	  - scripts/greet.js
//
// Environment variables override the file: SCRIPT_RUNTIME_WORKERS,
// SCRIPT_RUNTIME_FINGERPRINT, SCRIPT_RUNTIME_SINGLE_FLIGHT,
// SCRIPT_RUNTIME_STRICT, SCRIPT_RUNTIME_TIMEOUT, SCRIPT_RUNTIME_LOG_LEVEL.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/script-runtime/engine"
	"github.com/wippyai/script-runtime/errors"
	"github.com/wippyai/script-runtime/fingerprint"
	"github.com/wippyai/script-runtime/runtime"
)

const envPrefix = "SCRIPT_RUNTIME_"

type Config struct {
	Fingerprint  string        `yaml:"fingerprint"`
	LogLevel     string        `yaml:"log_level"`
	Precompile   []string      `yaml:"precompile,omitempty"`
	Timeout      time.Duration `yaml:"timeout"`
	Workers      int           `yaml:"workers"`
	SingleFlight bool          `yaml:"single_flight"`
	Strict       bool          `yaml:"strict"`

	// dir resolves relative Precompile paths; set by Load.
	dir string
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Fingerprint:  "sha256",
		LogLevel:     "info",
		SingleFlight: true,
	}
}

// Parse decodes YAML over Default and validates the result.
func Parse(input []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(input, &cfg); err != nil {
		return Config{}, errors.ParseFailed("config", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads path (Default when empty), then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read config")
		}
		if cfg, err = Parse(data); err != nil {
			return Config{}, err
		}
		cfg.dir = filepath.Dir(path)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SCRIPT_RUNTIME_* variables and revalidates.
func (c *Config) ApplyEnv() error {
	var err error
	if c.Workers, err = envInt(envPrefix+"WORKERS", c.Workers); err != nil {
		return errors.ParseFailed("environment", err)
	}
	if c.SingleFlight, err = envBool(envPrefix+"SINGLE_FLIGHT", c.SingleFlight); err != nil {
		return errors.ParseFailed("environment", err)
	}
	if c.Strict, err = envBool(envPrefix+"STRICT", c.Strict); err != nil {
		return errors.ParseFailed("environment", err)
	}
	if c.Timeout, err = envDuration(envPrefix+"TIMEOUT", c.Timeout); err != nil {
		return errors.ParseFailed("environment", err)
	}
	c.Fingerprint = envString(envPrefix+"FINGERPRINT", c.Fingerprint)
	c.LogLevel = envString(envPrefix+"LOG_LEVEL", c.LogLevel)
	return c.Validate()
}

func (c Config) Validate() error {
	if c.Workers < 0 {
		return errors.InvalidInput(errors.PhaseConfig, "workers must be >= 0")
	}
	if c.Timeout < 0 {
		return errors.InvalidInput(errors.PhaseConfig, "timeout must be >= 0")
	}
	if _, ok := fingerprint.ByName(strings.ToLower(strings.TrimSpace(c.Fingerprint))); !ok {
		return errors.InvalidInput(errors.PhaseConfig, "unsupported fingerprint "+c.Fingerprint)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return errors.InvalidInput(errors.PhaseConfig, "unsupported log_level "+c.LogLevel)
	}
	for i, p := range c.Precompile {
		if strings.TrimSpace(p) == "" {
			return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path("precompile", "["+strconv.Itoa(i)+"]").
				Detail("path must be non-empty").
				Build()
		}
	}
	return nil
}

// Level returns the parsed log level. Validate guarantees it parses.
func (c Config) Level() zapcore.Level {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// NewLogger builds a console logger writing to stderr at Level.
func (c Config) NewLogger() (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(c.Level())
	zc.DisableStacktrace = true
	return zc.Build()
}

// Runtime converts the settings into a runtime configuration.
func (c Config) Runtime(hosts *engine.HostRegistry, logger *zap.Logger) *runtime.Config {
	fp, _ := fingerprint.ByName(strings.ToLower(strings.TrimSpace(c.Fingerprint)))
	if hosts == nil {
		hosts = engine.NewHostRegistry()
	}
	return &runtime.Config{
		Compiler: engine.NewGojaEngineWithConfig(&engine.Config{
			Hosts:  hosts,
			Logger: logger,
			Strict: c.Strict,
		}),
		Hosts:               hosts,
		Fingerprint:         fp,
		Logger:              logger,
		Workers:             c.Workers,
		DisableSingleFlight: !c.SingleFlight,
	}
}

// PrecompileSources reads the scripts listed under precompile. Relative
// paths resolve against the config file's directory.
func (c Config) PrecompileSources() ([]string, error) {
	sources := make([]string, 0, len(c.Precompile))
	for _, p := range c.Precompile {
		if !filepath.IsAbs(p) && c.dir != "" {
			p = filepath.Join(c.dir, p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read precompile script "+p)
		}
		sources = append(sources, string(data))
	}
	return sources, nil
}
