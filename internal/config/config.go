package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/anya-manifestgen/internal/logger"
)

// Config holds the settings of a single generator run.
type Config struct {
	// Repo is the catalog root containing data.yaml and the apps directory.
	Repo string `yaml:"repo"`
	// Out is the directory receiving archives and manifest.json.
	Out string `yaml:"out"`
	// URLPrefix is prepended to archive URLs; empty keeps them relative.
	URLPrefix string `yaml:"url_prefix"`
	// Workers is the number of archives packed in parallel.
	Workers int `yaml:"workers"`
	// LogLevel is the minimum level of console log records.
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultConfigFilename is the default filename for generator settings.
	DefaultConfigFilename = "manifestgen.yaml"

	// DefaultRepo is the catalog root used when none is configured.
	DefaultRepo = "../.."

	// DefaultOut is the output directory used when none is configured.
	DefaultOut = "../../dist"

	// DefaultWorkers keeps packing sequential.
	DefaultWorkers = 1

	// DefaultLogLevel is the default console log level.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNegativeWorkers is returned when the worker count is below zero.
	errNegativeWorkers = errors.New("workers must not be negative")
	// errUnknownLogLevel is returned for log levels zap does not know.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Default returns a configuration populated with default values.
func Default() *Config {
	return &Config{
		Repo:     DefaultRepo,
		Out:      DefaultOut,
		Workers:  DefaultWorkers,
		LogLevel: DefaultLogLevel,
	}
}

// Load reads configuration from the provided path and validates it.
// Fields missing from the file keep their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the settings, applying defaults to empty fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	cfg.Repo = strings.TrimSpace(cfg.Repo)
	if cfg.Repo == "" {
		cfg.Repo = DefaultRepo
	}

	cfg.Out = strings.TrimSpace(cfg.Out)
	if cfg.Out == "" {
		cfg.Out = DefaultOut
	}

	switch {
	case cfg.Workers < 0:
		return fmt.Errorf("%w: %d", errNegativeWorkers, cfg.Workers)
	case cfg.Workers == 0:
		cfg.Workers = DefaultWorkers
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, cfg.LogLevel)
	}

	// Any prefix is accepted, relative ones included; it is joined verbatim.
	cfg.URLPrefix = strings.TrimSpace(cfg.URLPrefix)

	return nil
}
