package config

import (
	"fmt"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/chunkyard/session"
)

// Config represents a chunkyard.yaml configuration file.
// All values are optional and act as defaults for command flags.
// CLI flags always override config values.
type Config struct {
	// Principal is the identity ingest acts as.
	Principal string        `yaml:"principal"`
	Limits    LimitsConfig  `yaml:"limits"`
	Storage   StorageConfig `yaml:"storage"`
	Adapter   AdapterConfig `yaml:"adapter"`
	Auth      AuthConfig    `yaml:"auth"`
}

// LimitsConfig holds session limits. Zero values fall back to defaults.
type LimitsConfig struct {
	MaxChunks   uint32   `yaml:"max_chunks"`
	MaxBytes    int64    `yaml:"max_bytes"`
	IdleTimeout Duration `yaml:"idle_timeout"`
}

// StorageConfig selects and configures the object store.
type StorageConfig struct {
	// Backend is fs, memory, s3 or redis.
	Backend string `yaml:"backend"`
	// Path is the fs root, or "bucket/prefix" for s3.
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
	RedisURL    string `yaml:"redis_url"`
	RedisPrefix string `yaml:"redis_prefix"`
}

// AdapterConfig configures the completion adapter.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// AuthConfig restricts who may upload. Principals grants every action to
// the listed principals; Policies grants actions per principal. At most one
// may be set, and with neither everyone is allowed.
type AuthConfig struct {
	Principals []string       `yaml:"principals"`
	Policies   []PolicyConfig `yaml:"policies"`
}

// PolicyConfig grants actions to a principal. "*" matches any principal
// or action.
type PolicyConfig struct {
	Principal string   `yaml:"principal"`
	Actions   []string `yaml:"actions"`
}

// Storage backends.
var storageBackends = []string{"fs", "memory", "s3", "redis"}

// Adapter types.
var adapterTypes = []string{"redis", "webhook"}

// Validate checks enumerated fields. Empty values are allowed.
func (c *Config) Validate() error {
	if b := c.Storage.Backend; b != "" && !slices.Contains(storageBackends, b) {
		return fmt.Errorf("storage.backend: unknown backend %q (want one of %v)", b, storageBackends)
	}
	if a := c.Adapter.Type; a != "" && !slices.Contains(adapterTypes, a) {
		return fmt.Errorf("adapter.type: unknown adapter %q (want one of %v)", a, adapterTypes)
	}
	if c.Limits.MaxBytes < 0 {
		return fmt.Errorf("limits.max_bytes must be >= 0, got %d", c.Limits.MaxBytes)
	}
	if len(c.Auth.Principals) > 0 && len(c.Auth.Policies) > 0 {
		return fmt.Errorf("auth: principals and policies are mutually exclusive")
	}
	if c.Adapter.Retries != nil && *c.Adapter.Retries < 0 {
		return fmt.Errorf("adapter.retries must be >= 0, got %d", *c.Adapter.Retries)
	}
	return nil
}

// SessionLimits returns the configured limits with defaults filled in.
func (c *Config) SessionLimits() session.Limits {
	limits := session.DefaultLimits()
	if c.Limits.MaxChunks > 0 {
		limits.MaxChunks = c.Limits.MaxChunks
	}
	if c.Limits.MaxBytes > 0 {
		limits.MaxBytes = c.Limits.MaxBytes
	}
	return limits
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
