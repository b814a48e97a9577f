package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"bookshelf/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Organize controls where and how audiobooks are filed.
type Organize struct {
	Format string `toml:"format"`
	Dest   string `toml:"dest"`
}

// Lookup configures the external metadata providers.
type Lookup struct {
	TrustedSource      string `toml:"trusted_source"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	UserAgent          string `toml:"user_agent"`
	AudibleBaseURL     string `toml:"audible_base_url"`
	AudnexusBaseURL    string `toml:"audnexus_base_url"`
	OpenLibraryBaseURL string `toml:"openlibrary_base_url"`
}

// Backups limits the disk used by .bak copies.
type Backups struct {
	MaxStorageBytes int64 `toml:"max_storage_bytes"`
}

// Paths contains local state directories.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
}

// Tools names the external binaries used for tag I/O.
type Tools struct {
	FFprobe string `toml:"ffprobe"`
	FFmpeg  string `toml:"ffmpeg"`
}

// Notifications configures ntfy delivery. An empty topic disables it.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for bookshelf.
//
// Configuration sections by subsystem:
//   - Organize: path template and library root
//   - Lookup: provider endpoints, timeout and the trusted source
//   - Backups: storage ceiling for .bak files
//   - Paths: cache directory holding pending edits
//   - Tools: ffprobe/ffmpeg binaries
//   - Logging: log format, level and optional file
type Config struct {
	Organize Organize `toml:"organize"`
	Lookup   Lookup   `toml:"lookup"`
	Backups  Backups  `toml:"backups"`
	Paths    Paths    `toml:"paths"`
	Tools    Tools    `toml:"tools"`
	Logging  Logging  `toml:"logging"`

	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A missing file is not an error: defaults apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "parse", strict.String(), nil)
			}
			return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "parse", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("bookshelf.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and pending directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.PendingDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PendingDir is where dry-run edits are kept until applied.
func (c *Config) PendingDir() string {
	return filepath.Join(c.Paths.CacheDir, "pending")
}

// FormatFor returns override when set, otherwise the configured template.
func (c *Config) FormatFor(override string) (string, error) {
	if value := strings.TrimSpace(override); value != "" {
		return value, nil
	}
	if value := strings.TrimSpace(c.Organize.Format); value != "" {
		return value, nil
	}
	return "", services.Wrap(services.ErrConfiguration, "config", "organize", "no format given: pass --format or set organize.format", nil)
}

// DestFor returns override (expanded) when set, otherwise the configured library root.
func (c *Config) DestFor(override string) (string, error) {
	if value := strings.TrimSpace(override); value != "" {
		return expandPath(value)
	}
	if value := strings.TrimSpace(c.Organize.Dest); value != "" {
		return value, nil
	}
	return "", services.Wrap(services.ErrConfiguration, "config", "organize", "no destination given: pass --dest or set organize.dest", nil)
}

// LookupTimeout returns the per-request timeout for provider calls.
func (c *Config) LookupTimeout() time.Duration {
	return time.Duration(c.Lookup.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "bookshelf")
	}
	return "~/.cache/bookshelf"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Save writes cfg as TOML to path, replacing any existing file.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return services.Wrap(services.ErrValidation, "config", "save", "config is nil", nil)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
