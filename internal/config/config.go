// Package config loads the daemon configuration for cmd/ziplog.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/raoulx24/ziplog/internal/roll"
)

// Duration wraps time.Duration so yaml values like "720h" parse; yaml.v3
// only decodes bare integers into time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Archive ArchiveConfig `yaml:"archive"`
	Logging LoggingConfig `yaml:"logging"`
	Sweep   SweepConfig   `yaml:"sweep"`
}

type ArchiveConfig struct {
	Path                   string    `yaml:"path"`
	Interval               string    `yaml:"interval"` // "none", "minute", "hour", "day", "month", "year"
	RetainedFileCountLimit *int      `yaml:"retainedFileCountLimit"`
	RetainedFileAgeLimit   *Duration `yaml:"retainedFileAgeLimit"`
	PropagateOpenErrors    bool      `yaml:"propagateOpenErrors"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", ...
	Format string `yaml:"format"` // "json", "text"
}

type SweepConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // cron spec, e.g. "@every 5m"
}

// Validate rejects configurations the sink itself would refuse, so bad
// settings fail at startup instead of on the first write.
func (c *Config) Validate() error {
	if c.Archive.Path == "" {
		return fmt.Errorf("archive.path is required")
	}
	if _, err := roll.ParseInterval(c.Archive.Interval); err != nil {
		return fmt.Errorf("archive.interval: %w", err)
	}
	if c.Archive.RetainedFileCountLimit != nil && *c.Archive.RetainedFileCountLimit < 1 {
		return fmt.Errorf("archive.retainedFileCountLimit must be at least 1")
	}
	if c.Archive.RetainedFileAgeLimit != nil && *c.Archive.RetainedFileAgeLimit < 0 {
		return fmt.Errorf("archive.retainedFileAgeLimit must not be negative")
	}
	if c.Sweep.Enabled && c.Sweep.Schedule == "" {
		return fmt.Errorf("sweep.schedule is required when sweep is enabled")
	}
	return nil
}
