// Package config loads modlay configuration: built-in defaults, then
// the user config file, then MODLAY_* environment overrides.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/modlay/modlay/pkg/errors"
)

//go:embed defaults.toml
var defaultConfig []byte

// ConfigFileName is the user configuration file name
const ConfigFileName = "config.toml"

// EnvPrefix is the prefix for environment variable overrides
const EnvPrefix = "MODLAY_"

// Config holds user-tunable settings
type Config struct {
	Apply ApplyConfig `koanf:"apply"`
	Scan  ScanConfig  `koanf:"scan"`
}

// ApplyConfig tunes the overlay apply transaction
type ApplyConfig struct {
	Parallelism int `koanf:"parallelism"`
	Retries     int `koanf:"retries"`
}

// ScanConfig tunes payload scanning during mod registration
type ScanConfig struct {
	Ignore []string `koanf:"ignore"`
}

// Load reads configuration in precedence order: built-in defaults,
// then <configDir>/config.toml if present, then environment variables.
func Load(configDir string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultConfig), toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load default configuration")
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse %s", configPath)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	if cfg.Apply.Parallelism < 1 {
		cfg.Apply.Parallelism = 1
	}
	if cfg.Apply.Retries < 0 {
		cfg.Apply.Retries = 0
	}

	return &cfg, nil
}

// envKeyMapper maps MODLAY_APPLY_PARALLELISM style variables onto
// config keys. Keys containing underscores are mapped explicitly.
func envKeyMapper(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	switch key {
	case "apply_parallelism":
		return "apply.parallelism"
	case "apply_retries":
		return "apply.retries"
	case "scan_ignore":
		return "scan.ignore"
	}
	return strings.ReplaceAll(key, "_", ".")
}
