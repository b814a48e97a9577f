package config

const (
	defaultConfigPath         = "~/.config/bookshelf/config.toml"
	defaultFormat             = "{author}/{series?}/{series_title}/{filename}"
	defaultLookupTimeout      = 15
	defaultUserAgent          = "bookshelf/dev (+https://github.com/bookshelf-audio/bookshelf)"
	defaultAudibleBaseURL     = "https://api.audible.com"
	defaultAudnexusBaseURL    = "https://api.audnex.us"
	defaultOpenLibraryBaseURL = "https://openlibrary.org"
	defaultBackupMaxBytes     = 2 << 30
	defaultFFprobe            = "ffprobe"
	defaultFFmpeg             = "ffmpeg"
	defaultLogFormat          = "console"
	defaultLogLevel           = "warn"
	defaultNtfyTimeout        = 10
)

// Default returns a Config populated with repository defaults. The library
// root has no default; organize commands require --dest or organize.dest.
func Default() Config {
	return Config{
		Organize: Organize{
			Format: defaultFormat,
		},
		Lookup: Lookup{
			TimeoutSeconds:     defaultLookupTimeout,
			UserAgent:          defaultUserAgent,
			AudibleBaseURL:     defaultAudibleBaseURL,
			AudnexusBaseURL:    defaultAudnexusBaseURL,
			OpenLibraryBaseURL: defaultOpenLibraryBaseURL,
		},
		Backups: Backups{
			MaxStorageBytes: defaultBackupMaxBytes,
		},
		Paths: Paths{
			CacheDir: defaultCacheDir(),
		},
		Tools: Tools{
			FFprobe: defaultFFprobe,
			FFmpeg:  defaultFFmpeg,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
	}
}
