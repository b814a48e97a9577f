package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"bookshelf/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The library root exists; the cache directory is created lazily.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Organize.Dest = filepath.Join(base, "library")
	cfgVal.Lookup.TrustedSource = ""
	if err := os.MkdirAll(cfgVal.Organize.Dest, 0o755); err != nil {
		t.Fatalf("mkdir library: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithFormat overrides the path template on the test config.
func WithFormat(format string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Organize.Format = format
	}
}

// WithLookupServer points every metadata provider at baseURL.
func WithLookupServer(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Lookup.AudibleBaseURL = baseURL
		b.cfg.Lookup.AudnexusBaseURL = baseURL
		b.cfg.Lookup.OpenLibraryBaseURL = baseURL
	}
}

// WithTrustedSource sets lookup.trusted_source on the test config.
func WithTrustedSource(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Lookup.TrustedSource = name
	}
}

// WithBackupLimit sets the backup storage ceiling.
func WithBackupLimit(bytes int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backups.MaxStorageBytes = bytes
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffprobe and ffmpeg are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffprobe", "ffmpeg"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CacheDir)
}

// WriteConfig stores cfg as TOML under the base directory and returns its path.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(BaseDir(cfg), "config.toml")
	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// WithNtfyTopic enables notifications against topic.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
		b.cfg.Notifications.RequestTimeout = 5
	}
}
