package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ardanlabs/apidump/parser"
)

// Config is the optional YAML file passed with --config.
type Config struct {
	Package   string `yaml:"package"`
	Lib       string `yaml:"lib"`
	Output    string `yaml:"output"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// MaxMemory caps the bytes of decoded strings, e.g. "64MiB". Empty means
	// no cap.
	MaxMemory string `yaml:"max_memory"`

	Limits parser.Limits `yaml:"limits"`
}

func DefaultConfig() Config {
	return Config{
		Package:   "bindings",
		Output:    ".",
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// LoadConfig reads path over the defaults. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

func (c Config) maxMemory() (uint64, error) {
	if c.MaxMemory == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.MaxMemory)
	if err != nil {
		return 0, fmt.Errorf("invalid max_memory %q: %w", c.MaxMemory, err)
	}
	if n == 0 {
		return 0, errors.New("max_memory must be greater than zero")
	}
	return n, nil
}

func (c Config) decoderOptions(log *zap.Logger) ([]parser.Option, error) {
	opts := []parser.Option{
		parser.WithLimits(c.Limits),
		parser.WithLogger(log.Named("parser")),
	}

	limit, err := c.maxMemory()
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		opts = append(opts, parser.WithAllocator(parser.NewLimitAllocator(limit)))
	}

	return opts, nil
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}
