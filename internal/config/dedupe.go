package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/JaimeStill/rapport/pkg/storage"
)

const (
	EnvDedupeArchiveAbsorbed = "RAPPORT_DEDUPE_ARCHIVE_ABSORBED"
	EnvDedupeArchivePrefix   = "RAPPORT_DEDUPE_ARCHIVE_PREFIX"
	EnvDedupeMergeTimeout    = "RAPPORT_DEDUPE_MERGE_TIMEOUT"
)

// DedupeConfig holds merge executor settings.
// Storage configuration is only required when ArchiveAbsorbed is set.
type DedupeConfig struct {
	ArchiveAbsorbed bool   `toml:"archive_absorbed"`
	ArchivePrefix   string `toml:"archive_prefix"`
	MergeTimeout    string `toml:"merge_timeout"`
}

// MergeTimeoutDuration returns MergeTimeout as a time.Duration.
func (c *DedupeConfig) MergeTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.MergeTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *DedupeConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *DedupeConfig) Merge(overlay *DedupeConfig) {
	if overlay.ArchiveAbsorbed {
		c.ArchiveAbsorbed = true
	}
	if overlay.ArchivePrefix != "" {
		c.ArchivePrefix = overlay.ArchivePrefix
	}
	if overlay.MergeTimeout != "" {
		c.MergeTimeout = overlay.MergeTimeout
	}
}

func (c *DedupeConfig) loadDefaults() {
	if c.ArchivePrefix == "" {
		c.ArchivePrefix = "merges"
	}
	if c.MergeTimeout == "" {
		c.MergeTimeout = "30s"
	}
}

func (c *DedupeConfig) loadEnv() {
	if v := os.Getenv(EnvDedupeArchiveAbsorbed); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.ArchiveAbsorbed = b
		}
	}
	if v := os.Getenv(EnvDedupeArchivePrefix); v != "" {
		c.ArchivePrefix = v
	}
	if v := os.Getenv(EnvDedupeMergeTimeout); v != "" {
		c.MergeTimeout = v
	}
}

func (c *DedupeConfig) validate() error {
	if err := storage.ValidateKey(c.ArchivePrefix); err != nil {
		return fmt.Errorf("invalid archive_prefix %q: %w", c.ArchivePrefix, err)
	}
	if _, err := time.ParseDuration(c.MergeTimeout); err != nil {
		return fmt.Errorf("invalid merge_timeout: %w", err)
	}
	return nil
}
