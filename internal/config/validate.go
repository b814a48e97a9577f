package config

import (
	"fmt"
	"slices"
	"strings"

	"bookshelf/internal/pathfmt"
	"bookshelf/internal/services"
)

// KnownSources lists the lookup source labels accepted as trusted_source.
var KnownSources = []string{"audible", "audnexus", "openlibrary"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validateOrganize,
		c.validateLookup,
		c.validateBackups,
		c.validateNotifications,
		c.validateLogging,
	} {
		if err := check(); err != nil {
			return services.Wrap(services.ErrConfiguration, "config", "validate", "", err)
		}
	}
	return nil
}

func (c *Config) validateOrganize() error {
	if _, err := pathfmt.Parse(c.Organize.Format); err != nil {
		return fmt.Errorf("organize.format: %w", err)
	}
	return nil
}

func (c *Config) validateLookup() error {
	if c.Lookup.TrustedSource != "" && !slices.Contains(KnownSources, c.Lookup.TrustedSource) {
		return fmt.Errorf("lookup.trusted_source: unknown source %q (valid: %v)", c.Lookup.TrustedSource, KnownSources)
	}
	if c.Lookup.TimeoutSeconds <= 0 {
		return fmt.Errorf("lookup.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateBackups() error {
	if c.Backups.MaxStorageBytes < 0 {
		return fmt.Errorf("backups.max_storage_bytes must not be negative")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return fmt.Errorf("notifications.request_timeout must not be negative")
	}
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic: expected a full URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
