package config

import (
	"fmt"
	"regexp"
	"strings"
)

// Git backends
const (
	GitBackendNative = "native"
	GitBackendExec   = "exec"
)

// Script runtimes
const (
	RuntimeExec    = "exec"
	RuntimeVirtual = "virtual"
)

// Map orders
const (
	MapOrderLegacy     = "legacy"
	MapOrderParentWins = "parent-wins"
)

// Config is the effective engine configuration
type Config struct {
	ManifestFile string        `koanf:"manifest_file" toml:"manifest_file"`
	Cache        CacheConfig   `koanf:"cache" toml:"cache"`
	Git          GitConfig     `koanf:"git" toml:"git"`
	Scripts      ScriptsConfig `koanf:"scripts" toml:"scripts"`
	Overlay      OverlayConfig `koanf:"overlay" toml:"overlay"`
}

// CacheConfig names the files kept next to the top-level target
type CacheConfig struct {
	DirName      string `koanf:"dir_name" toml:"dir_name"`
	RecordFile   string `koanf:"record_file" toml:"record_file"`
	TargetMarker string `koanf:"target_marker" toml:"target_marker"`
}

// GitConfig selects how repositories are fetched
type GitConfig struct {
	Backend    string `koanf:"backend" toml:"backend"`
	Binary     string `koanf:"binary" toml:"binary"`
	DefaultRef string `koanf:"default_ref" toml:"default_ref"`
}

// ScriptsConfig selects how lifecycle scripts run and how failure is detected
type ScriptsConfig struct {
	Runtime      string `koanf:"runtime" toml:"runtime"`
	ErrorPattern string `koanf:"error_pattern" toml:"error_pattern"`
}

// OverlayConfig holds overlay behaviour
type OverlayConfig struct {
	Excludes []string `koanf:"excludes" toml:"excludes"`
	MapOrder string   `koanf:"map_order" toml:"map_order"`
}

// Validate checks enumerations and patterns
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ManifestFile) == "" {
		return fmt.Errorf("manifest_file must not be empty")
	}
	if c.Cache.DirName == "" || c.Cache.RecordFile == "" || c.Cache.TargetMarker == "" {
		return fmt.Errorf("cache names must not be empty")
	}
	switch c.Git.Backend {
	case GitBackendNative, GitBackendExec:
	default:
		return fmt.Errorf("unknown git.backend %q (want %s or %s)", c.Git.Backend, GitBackendNative, GitBackendExec)
	}
	if c.Git.DefaultRef == "" {
		return fmt.Errorf("git.default_ref must not be empty")
	}
	switch c.Scripts.Runtime {
	case RuntimeExec, RuntimeVirtual:
	default:
		return fmt.Errorf("unknown scripts.runtime %q (want %s or %s)", c.Scripts.Runtime, RuntimeExec, RuntimeVirtual)
	}
	if c.Scripts.ErrorPattern != "" {
		if _, err := c.SentinelPattern(); err != nil {
			return fmt.Errorf("invalid scripts.error_pattern: %w", err)
		}
	}
	switch c.Overlay.MapOrder {
	case MapOrderLegacy, MapOrderParentWins:
	default:
		return fmt.Errorf("unknown overlay.map_order %q (want %s or %s)", c.Overlay.MapOrder, MapOrderLegacy, MapOrderParentWins)
	}
	return nil
}

// SentinelPattern compiles the script error pattern; nil disables scanning.
func (c *Config) SentinelPattern() (*regexp.Regexp, error) {
	if c.Scripts.ErrorPattern == "" {
		return nil, nil
	}
	return regexp.Compile(c.Scripts.ErrorPattern)
}
