// Package config loads strata configuration from YAML, layering file values
// over built-in defaults.
package config

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// MaintenanceConfig controls the periodic database maintenance loop.
type MaintenanceConfig struct {
	Disabled bool   `yaml:"disabled,omitempty"` // maintenance runs by default
	Schedule string `yaml:"schedule,omitempty"` // cron expression or Go duration, e.g. "1h"
}

// LogConfig controls the root logger.
type LogConfig struct {
	File   string `yaml:"file,omitempty"`   // log file path; empty logs to stderr
	Pretty bool   `yaml:"pretty,omitempty"` // human-readable console output (stderr only)
}

// Config is the full strata configuration.
type Config struct {
	GlobalDir    string            `yaml:"global_dir,omitempty"`    // override ~/.strata/memory
	ProjectRoot  string            `yaml:"project_root,omitempty"`  // skip project root detection
	GlobalOnly   bool              `yaml:"global_only,omitempty"`   // tolerate a missing project root
	Markers      []string          `yaml:"markers,omitempty"`       // project root marker paths
	HistoryLimit int               `yaml:"history_limit,omitempty"` // default GetHistory limit
	Maintenance  MaintenanceConfig `yaml:"maintenance,omitempty"`
	Log          LogConfig         `yaml:"log,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HistoryLimit: 100,
		Maintenance: MaintenanceConfig{
			Schedule: "1h",
		},
	}
}

// Load reads YAML configuration from path and merges it over the defaults,
// file values taking precedence. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	//nolint:gosec // G304: user-specified config path is intentional
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	// Merge file values onto defaults (file takes precedence).
	if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
		return Config{}, fmt.Errorf("merge config: %w", err)
	}
	return cfg, nil
}
