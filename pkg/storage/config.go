package storage

import (
	"errors"
	"fmt"
	"os"
	"regexp"
)

// containerPattern follows the Azure naming rules: lowercase letters, digits,
// and single hyphens, starting and ending with a letter or digit.
var containerPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9]|-[a-z0-9])*$`)

// Config holds Azure Blob Storage connection parameters.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ContainerName    string
	ConnectionString string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
}

func (c *Config) loadDefaults() {
	if c.ContainerName == "" {
		c.ContainerName = "merge-archives"
	}
}

func (c *Config) loadEnv(env *Env) {
	override(&c.ContainerName, env.ContainerName)
	override(&c.ConnectionString, env.ConnectionString)
}

func override(dst *string, name string) {
	if name == "" {
		return
	}
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func (c *Config) validate() error {
	if err := validateContainer(c.ContainerName); err != nil {
		return err
	}
	if c.ConnectionString == "" {
		return errors.New("connection_string required")
	}
	return nil
}

func validateContainer(name string) error {
	switch {
	case name == "":
		return errors.New("container_name required")
	case len(name) < 3 || len(name) > 63:
		return fmt.Errorf("container_name %q must be 3-63 characters", name)
	case !containerPattern.MatchString(name):
		return fmt.Errorf("container_name %q must be lowercase letters, digits, and single hyphens", name)
	}
	return nil
}
