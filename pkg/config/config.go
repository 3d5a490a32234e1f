// Package config loads the boardsnap TOML configuration file.
//
// The file lives at ~/.config/boardsnap/config.toml and holds machine-local
// settings that don't belong on the command line: tool path overrides and
// default limits. Every field is optional; a missing file yields defaults.
//
// Example:
//
//	kicad_cli = "/usr/local/bin/kicad-cli"
//	git = "/usr/bin/git"
//	timeline_limit = 100
//	export_timeout_seconds = 60
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ecadlab/boardsnap/pkg/errors"
)

// Timeline limit bounds. Requests outside this range are clamped.
const (
	DefaultTimelineLimit = 50
	MinTimelineLimit     = 1
	MaxTimelineLimit     = 500
)

// Config holds machine-local settings.
type Config struct {
	// KicadCLI overrides kicad-cli discovery with an explicit path.
	KicadCLI string `toml:"kicad_cli"`

	// Git overrides the git executable used for revision sources.
	Git string `toml:"git"`

	// TimelineLimit is the default number of snapshot items to list.
	TimelineLimit int `toml:"timeline_limit"`

	// ExportTimeoutSeconds bounds a single kicad-cli export invocation.
	ExportTimeoutSeconds int `toml:"export_timeout_seconds"`

	// ProbeTimeoutSeconds bounds tool probing and layer listing.
	ProbeTimeoutSeconds int `toml:"probe_timeout_seconds"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		TimelineLimit:        DefaultTimelineLimit,
		ExportTimeoutSeconds: 40,
		ProbeTimeoutSeconds:  10,
	}
}

// DefaultPath returns the per-user config file path.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "boardsnap", "config.toml"), nil
}

// Load reads the config file at path, filling unset fields with defaults.
// A missing file is not an error; a malformed file is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	cfg.normalize()
	return cfg, nil
}

// LoadDefault loads the config from the per-user path.
func LoadDefault() (Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	return Load(path)
}

// ClampTimelineLimit clamps n to the allowed timeline range,
// substituting the configured default when n is zero or negative.
func (c Config) ClampTimelineLimit(n int) int {
	if n <= 0 {
		n = c.TimelineLimit
	}
	if n < MinTimelineLimit {
		return MinTimelineLimit
	}
	if n > MaxTimelineLimit {
		return MaxTimelineLimit
	}
	return n
}

// ExportTimeout returns the export bound as a duration.
func (c Config) ExportTimeout() time.Duration {
	return time.Duration(c.ExportTimeoutSeconds) * time.Second
}

// ProbeTimeout returns the probe and layer-listing bound as a duration.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

func (c *Config) normalize() {
	d := Default()
	if c.TimelineLimit <= 0 {
		c.TimelineLimit = d.TimelineLimit
	}
	if c.TimelineLimit > MaxTimelineLimit {
		c.TimelineLimit = MaxTimelineLimit
	}
	if c.ExportTimeoutSeconds <= 0 {
		c.ExportTimeoutSeconds = d.ExportTimeoutSeconds
	}
	if c.ProbeTimeoutSeconds <= 0 {
		c.ProbeTimeoutSeconds = d.ProbeTimeoutSeconds
	}
}
