package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeOrganize(); err != nil {
		return err
	}
	c.normalizeLookup()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeNotifications()
	return c.normalizeLogging()
}

func (c *Config) normalizeOrganize() error {
	c.Organize.Format = strings.TrimSpace(c.Organize.Format)
	if c.Organize.Format == "" {
		c.Organize.Format = defaultFormat
	}
	var err error
	if c.Organize.Dest, err = expandPath(strings.TrimSpace(c.Organize.Dest)); err != nil {
		return fmt.Errorf("organize.dest: %w", err)
	}
	return nil
}

func (c *Config) normalizeLookup() {
	c.Lookup.TrustedSource = strings.ToLower(strings.TrimSpace(c.Lookup.TrustedSource))
	if value, ok := os.LookupEnv("BOOKSHELF_TRUSTED_SOURCE"); ok && c.Lookup.TrustedSource == "" {
		c.Lookup.TrustedSource = strings.ToLower(strings.TrimSpace(value))
	}
	c.Lookup.UserAgent = strings.TrimSpace(c.Lookup.UserAgent)
	if c.Lookup.UserAgent == "" {
		c.Lookup.UserAgent = defaultUserAgent
	}
	c.Lookup.AudibleBaseURL = trimURL(c.Lookup.AudibleBaseURL, defaultAudibleBaseURL)
	c.Lookup.AudnexusBaseURL = trimURL(c.Lookup.AudnexusBaseURL, defaultAudnexusBaseURL)
	c.Lookup.OpenLibraryBaseURL = trimURL(c.Lookup.OpenLibraryBaseURL, defaultOpenLibraryBaseURL)
}

func trimURL(value, fallback string) string {
	value = strings.TrimRight(strings.TrimSpace(value), "/")
	if value == "" {
		return fallback
	}
	return value
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	var err error
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobe
	}
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpeg
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}
